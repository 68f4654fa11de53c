// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements idempotency support for ingestion POSTs. It validates
// the Idempotency-Key header, stashes it for handlers, and asks a lookup
// whether (scope, key) already produced a message. Replays are flagged with
// the recorded message id so the rate limiter lets them through and handlers
// can answer without another lookup.
package middleware

import (
	"context"
	"net/http"
	"regexp"
	"time"

	"github.com/gin-gonic/gin"
)

// HeaderIdempotencyKey is the request header carrying the client's key.
const HeaderIdempotencyKey = "Idempotency-Key"

// HeaderIdempotencyReplayed marks responses answered from a stored record.
const HeaderIdempotencyReplayed = "Idempotency-Replayed"

const (
	ctxKeyIdemKey    = "idem.key"
	ctxKeyIdemMsgID  = "idem.message_id"
	ctxKeyRateBypass = "rate.bypass"
)

var defaultKeyPattern = regexp.MustCompile(`^[A-Za-z0-9._~\-:]+$`)

// GetIdempotencyKey returns the key validated by IdempotencyValidator.
func GetIdempotencyKey(c *gin.Context) (string, bool) {
	v, ok := c.Get(ctxKeyIdemKey)
	if !ok {
		return "", false
	}
	s, _ := v.(string)
	return s, s != ""
}

// ReplayedMessageID returns the message id the lookup found for this key.
func ReplayedMessageID(c *gin.Context) (string, bool) {
	v, ok := c.Get(ctxKeyIdemMsgID)
	if !ok {
		return "", false
	}
	s, _ := v.(string)
	return s, s != ""
}

// IdempotencyOptions configures IdempotencyValidator.
type IdempotencyOptions struct {
	// Scope namespaces keys in the lookup, e.g. "api".
	Scope string
	// MaxLen caps the key length; <= 0 means 200.
	MaxLen int
	// Pattern restricts allowed characters; nil means ^[A-Za-z0-9._~\-:]+$.
	Pattern *regexp.Regexp
}

// IdempotencyLookup returns the message id of a non-expired record for
// (scope, key) at now. An empty id means none; errors are treated the same.
type IdempotencyLookup func(ctx context.Context, scope, key string, now time.Time) (string, error)

// IdempotencyValidator is a no-op without the header. An invalid key is
// rejected with 400 {"code":"bad_idempotency_key"}. Otherwise the key is
// stashed and, when lookup finds it, the request is marked as a replay.
func IdempotencyValidator(opts IdempotencyOptions, lookup IdempotencyLookup) gin.HandlerFunc {
	maxLen := opts.MaxLen
	if maxLen <= 0 {
		maxLen = 200
	}
	pat := opts.Pattern
	if pat == nil {
		pat = defaultKeyPattern
	}

	return func(c *gin.Context) {
		key := c.GetHeader(HeaderIdempotencyKey)
		if key == "" {
			c.Next()
			return
		}
		if len(key) > maxLen || !pat.MatchString(key) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"request_id": RequestIDFrom(c),
				"code":       "bad_idempotency_key",
				"message":    "invalid Idempotency-Key",
			})
			return
		}
		c.Set(ctxKeyIdemKey, key)

		if lookup != nil {
			if id, err := lookup(c.Request.Context(), opts.Scope, key, time.Now().UTC()); err == nil && id != "" {
				c.Set(ctxKeyIdemMsgID, id)
				c.Set(ctxKeyRateBypass, true)
			}
		}
		c.Next()
	}
}
