// Package services – IngestService
//
// IngestService runs the ingestion pipeline: validate, save the message
// unclassified (claiming its idempotency key in the same write), classify it,
// attach the classification. Only validation and the save can fail the call;
// once the message is stored, classification and update problems are logged
// and swallowed.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"github.com/tbourn/go-sentiment-backend/internal/classifier"
	"github.com/tbourn/go-sentiment-backend/internal/repo"
)

// DefaultIdempotencyTTL is used when IngestService.IdempotencyTTL is unset.
const DefaultIdempotencyTTL = 24 * time.Hour

var validate = validator.New()

// InboundMessage is an extracted ingestion payload.
type InboundMessage struct {
	Text        string `validate:"required"`
	Sender      string `validate:"required,max=128"`
	ExternalRef string `validate:"max=128"`
	ReceivedAt  time.Time
}

// IngestResult reports the stored message id. Replayed is set when an
// idempotency record answered the call and nothing was written. Result is
// nil on replay.
type IngestResult struct {
	ID       string
	Replayed bool
	Result   *classifier.Result
}

// IngestService coordinates the store and the classifier.
type IngestService struct {
	Store          *repo.Gateway
	Classifier     classifier.Classifier
	IdempotencyTTL time.Duration

	// claims coalesces concurrent IngestOnce calls sharing (scope, key).
	claims singleflight.Group
}

// Ingest stores and classifies one message.
func (s *IngestService) Ingest(ctx context.Context, in InboundMessage) (IngestResult, error) {
	tr := otel.Tracer("services/IngestService")
	ctx, span := tr.Start(ctx, "Ingest",
		trace.WithAttributes(
			attribute.String("message.sender", in.Sender),
			attribute.String("message.external_ref", in.ExternalRef),
		),
	)
	defer span.End()

	in, err := prepare(in)
	if err != nil {
		return IngestResult{}, err
	}

	id, err := s.Store.Save(ctx, in.Text, in.Sender, in.ExternalRef, in.ReceivedAt)
	if err != nil {
		span.RecordError(err)
		return IngestResult{}, err
	}
	span.SetAttributes(attribute.String("message.id", id))

	res := s.enrich(ctx, id, in.Text)
	return IngestResult{ID: id, Result: &res}, nil
}

// IngestOnce is Ingest guarded by an idempotency record (scope, key). The
// record is written in the same transaction as the message, before
// classification, so a redelivery arriving while the first call is still
// classifying is answered as a replay. A key seen within the TTL returns the
// original id without writing. An empty key disables the guard.
func (s *IngestService) IngestOnce(ctx context.Context, scope, key string, in InboundMessage) (IngestResult, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return s.Ingest(ctx, in)
	}

	tr := otel.Tracer("services/IngestService")
	ctx, span := tr.Start(ctx, "IngestOnce",
		trace.WithAttributes(
			attribute.String("idempotency.scope", scope),
			attribute.String("message.sender", in.Sender),
		),
	)
	defer span.End()

	in, err := prepare(in)
	if err != nil {
		return IngestResult{}, err
	}

	ttl := s.IdempotencyTTL
	if ttl <= 0 {
		ttl = DefaultIdempotencyTTL
	}

	leader := false
	v, err, _ := s.claims.Do(scope+"\x00"+key, func() (any, error) {
		leader = true
		// Followers share this result; one caller going away must not fail them.
		cctx := context.WithoutCancel(ctx)
		if id, err := s.Store.FindIdempotency(cctx, scope, key, time.Now().UTC()); err == nil {
			return claim{id: id, replayed: true}, nil
		} else if !errors.Is(err, repo.ErrNotFound) {
			return nil, err
		}
		id, replayed, err := s.Store.ClaimMessage(cctx, scope, key, ttl, in.Text, in.Sender, in.ExternalRef, in.ReceivedAt)
		if err != nil {
			return nil, err
		}
		return claim{id: id, replayed: replayed}, nil
	})
	if err != nil {
		span.RecordError(err)
		return IngestResult{}, err
	}

	cl := v.(claim)
	span.SetAttributes(attribute.String("message.id", cl.id))
	if !leader || cl.replayed {
		span.SetAttributes(attribute.Bool("idempotency.replayed", true))
		return IngestResult{ID: cl.id, Replayed: true}, nil
	}

	res := s.enrich(ctx, cl.id, in.Text)
	return IngestResult{ID: cl.id, Result: &res}, nil
}

type claim struct {
	id       string
	replayed bool
}

// prepare trims and validates in and stamps a missing ReceivedAt.
func prepare(in InboundMessage) (InboundMessage, error) {
	in.Text = strings.TrimSpace(in.Text)
	in.Sender = strings.TrimSpace(in.Sender)
	in.ExternalRef = strings.TrimSpace(in.ExternalRef)
	if err := validate.Struct(in); err != nil {
		return in, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if in.ReceivedAt.IsZero() {
		in.ReceivedAt = time.Now().UTC()
	}
	return in, nil
}

// enrich classifies a stored message and attaches the result. Failures are
// logged only.
func (s *IngestService) enrich(ctx context.Context, id, text string) classifier.Result {
	// The message is durable from here on; a client hanging up must not
	// leave it unclassified.
	ctx = context.WithoutCancel(ctx)

	res := s.Classifier.Classify(ctx, text)
	if err := s.Store.UpdateClassification(ctx, id, res.Classification); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			log.Warn().Str("message_id", id).Msg("classification target missing, update skipped")
		} else {
			log.Error().Err(err).Str("message_id", id).Msg("attach classification failed")
		}
	}
	if res.Source == classifier.SourceFallback && res.Reason != classifier.ReasonNoCredential {
		log.Warn().
			Str("message_id", id).
			Str("reason", string(res.Reason)).
			Msg("classification degraded")
	}
	return res
}
