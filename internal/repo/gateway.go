package repo

import (
	"context"
	"errors"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-sentiment-backend/internal/domain"
)

// ErrStoreUnavailable is returned by every Gateway operation while the
// gateway is not connected (never connected, or closed).
var ErrStoreUnavailable = errors.New("store unavailable")

// Gateway is the persistence boundary for messages. It owns the process-wide
// database handle: Connect at startup, Close at shutdown. All methods are safe
// for concurrent use.
type Gateway struct {
	mu   sync.RWMutex
	db   *gorm.DB
	path string
}

// NewGateway returns an unconnected gateway. Every operation fails with
// ErrStoreUnavailable until Connect succeeds.
func NewGateway() *Gateway { return &Gateway{} }

// Connect opens the database at path, migrates the schema and makes the
// gateway usable. The connection attempt is bounded by timeout.
func (g *Gateway) Connect(ctx context.Context, path string, timeout time.Duration) error {
	db, err := OpenSQLite(ctx, path, timeout)
	if err != nil {
		return err
	}
	if err := AutoMigrate(db); err != nil {
		if sqlDB, e := db.DB(); e == nil {
			_ = sqlDB.Close()
		}
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.db, g.path = db, path
	return nil
}

// Close releases the handle. Later operations fail with ErrStoreUnavailable.
func (g *Gateway) Close() error {
	g.mu.Lock()
	db := g.db
	g.db = nil
	g.mu.Unlock()

	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Connected reports whether the gateway holds a handle.
func (g *Gateway) Connected() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.db != nil
}

// Path returns the database path given to Connect.
func (g *Gateway) Path() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.path
}

// DB returns the live handle or ErrStoreUnavailable.
func (g *Gateway) DB() (*gorm.DB, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.db == nil {
		return nil, ErrStoreUnavailable
	}
	return g.db, nil
}

// Ping checks that the database still answers.
func (g *Gateway) Ping(ctx context.Context) error {
	db, err := g.DB()
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Save inserts an unclassified message and returns its id.
func (g *Gateway) Save(ctx context.Context, text, sender, externalRef string, receivedAt time.Time) (string, error) {
	db, err := g.DB()
	if err != nil {
		return "", err
	}
	m, err := CreateMessage(ctx, db, text, sender, externalRef, receivedAt)
	if err != nil {
		return "", err
	}
	return m.ID, nil
}

// UpdateClassification attaches c to message id. ErrNotFound means no such
// message; callers treat it as a no-op.
func (g *Gateway) UpdateClassification(ctx context.Context, id string, c domain.Classification) error {
	db, err := g.DB()
	if err != nil {
		return err
	}
	return UpdateClassification(ctx, db, id, c)
}

// Get returns the read model of message id or ErrNotFound.
func (g *Gateway) Get(ctx context.Context, id string) (domain.MessageView, error) {
	db, err := g.DB()
	if err != nil {
		return domain.MessageView{}, err
	}
	m, err := GetMessage(ctx, db, id)
	if err != nil {
		return domain.MessageView{}, err
	}
	return m.View(), nil
}

// Retrieve returns up to limit messages newest first, skipping offset.
// Unclassified fields are filled with the read-side sentinels.
func (g *Gateway) Retrieve(ctx context.Context, limit, offset int) ([]domain.MessageView, error) {
	db, err := g.DB()
	if err != nil {
		return nil, err
	}
	rows, err := ListMessagesPage(ctx, db, offset, limit)
	if err != nil {
		return nil, err
	}
	out := make([]domain.MessageView, len(rows))
	for i := range rows {
		out[i] = rows[i].View()
	}
	return out, nil
}

// Count returns the number of stored messages.
func (g *Gateway) Count(ctx context.Context) (int64, error) {
	db, err := g.DB()
	if err != nil {
		return 0, err
	}
	return CountMessages(ctx, db)
}

// Fingerprint returns the message count and latest update time for ETags.
func (g *Gateway) Fingerprint(ctx context.Context) (int64, *time.Time, error) {
	db, err := g.DB()
	if err != nil {
		return 0, nil, err
	}
	return MessagesStats(ctx, db)
}

// SentimentGroups returns raw per-sentiment counts.
func (g *Gateway) SentimentGroups(ctx context.Context) ([]GroupCount, error) {
	db, err := g.DB()
	if err != nil {
		return nil, err
	}
	return SentimentGroups(ctx, db)
}

// TopicGroups returns raw per-topic counts.
func (g *Gateway) TopicGroups(ctx context.Context) ([]GroupCount, error) {
	db, err := g.DB()
	if err != nil {
		return nil, err
	}
	return TopicGroups(ctx, db)
}

// FindIdempotency returns the message id recorded for (scope, key), or
// ErrNotFound when absent or expired.
func (g *Gateway) FindIdempotency(ctx context.Context, scope, key string, now time.Time) (string, error) {
	db, err := g.DB()
	if err != nil {
		return "", err
	}
	rec, err := GetIdempotency(ctx, db, scope, key, now)
	if err != nil {
		return "", err
	}
	return rec.MessageID, nil
}

// ClaimMessage saves an unclassified message and records (scope, key) for it
// atomically. If the key is already held, nothing is written and the
// recorded id is returned with replayed set.
func (g *Gateway) ClaimMessage(ctx context.Context, scope, key string, ttl time.Duration,
	text, sender, externalRef string, receivedAt time.Time) (string, bool, error) {
	db, err := g.DB()
	if err != nil {
		return "", false, err
	}
	return ClaimMessage(ctx, db, scope, key, ttl, text, sender, externalRef, receivedAt)
}
