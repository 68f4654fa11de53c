// Package handlers exposes the HTTP endpoints of the sentiment backend:
// the WhatsApp webhook, the synchronous test ingestion, the message listing,
// aggregate statistics and diagnostics.
//
// Handlers are transport-thin: they extract and check input, call the
// application services, and translate results into HTTP responses.
package handlers

import (
	"context"
	"time"

	"github.com/tbourn/go-sentiment-backend/internal/domain"
	"github.com/tbourn/go-sentiment-backend/internal/services"
)

//
// Service contracts (context-aware)
//

// IngestService runs the save → classify → update pipeline.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation up to the save.
type IngestService interface {
	// IngestOnce ingests in unless (scope, key) was already ingested.
	IngestOnce(ctx context.Context, scope, key string, in services.InboundMessage) (services.IngestResult, error)
}

// MessageService lists stored messages.
type MessageService interface {
	// List returns a newest-first page and the total message count.
	List(ctx context.Context, limit, offset int) ([]domain.MessageView, int64, error)
	// Get returns one message or services.ErrMessageNotFound.
	Get(ctx context.Context, id string) (domain.MessageView, error)
	// Fingerprint returns the count and latest update time for ETags.
	Fingerprint(ctx context.Context) (int64, *time.Time, error)
}

// StatsService computes aggregate statistics on read.
type StatsService interface {
	SentimentCounts(ctx context.Context) (domain.SentimentStats, error)
	TopicCounts(ctx context.Context) ([]domain.TopicCount, error)
}

// StoreStatus reports store connectivity for health endpoints.
type StoreStatus interface {
	Connected() bool
	Ping(ctx context.Context) error
}

// Info is the static configuration summary reported by /config/check.
// It carries booleans and a masked path only, never secrets.
type Info struct {
	TwilioConfigured bool
	TwilioPhone      bool
	OpenAIConfigured bool
	DBPath           string
}

//
// Handler wiring
//

// Handlers groups the HTTP endpoints. It depends on abstract service
// interfaces to keep transport concerns separate from business logic.
type Handlers struct {
	ingest IngestService
	msgs   MessageService
	stats  StatsService
	store  StoreStatus
	info   Info
	now    func() time.Time
}

// New constructs a Handlers instance bound to the given services.
func New(ingest IngestService, msgs MessageService, stats StatsService, store StoreStatus, info Info) *Handlers {
	return &Handlers{
		ingest: ingest,
		msgs:   msgs,
		stats:  stats,
		store:  store,
		info:   info,
		now:    time.Now,
	}
}
