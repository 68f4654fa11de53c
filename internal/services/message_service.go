// Package services – MessageService
//
// MessageService serves the read side of stored messages: paginated listing
// newest first, single lookups and the list fingerprint used for ETags.
//
// Observability: all public methods are OpenTelemetry-instrumented.
package services

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-sentiment-backend/internal/domain"
	"github.com/tbourn/go-sentiment-backend/internal/repo"
)

// Listing bounds.
const (
	DefaultListLimit = 50
	MaxListLimit     = 500
)

// MessageService reads messages from the store.
type MessageService struct {
	Store *repo.Gateway
}

// List returns a page of messages newest first plus the total count.
// A non-positive limit means DefaultListLimit; larger than MaxListLimit is
// capped. A negative offset is treated as 0.
func (s *MessageService) List(ctx context.Context, limit, offset int) ([]domain.MessageView, int64, error) {
	limit, offset = clampPage(limit, offset)

	tr := otel.Tracer("services/MessageService")
	ctx, span := tr.Start(ctx, "List",
		trace.WithAttributes(
			attribute.Int("limit", limit),
			attribute.Int("offset", offset),
		),
	)
	defer span.End()

	total, err := s.Store.Count(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, 0, err
	}
	if total == 0 || int64(offset) >= total {
		return []domain.MessageView{}, total, nil
	}

	items, err := s.Store.Retrieve(ctx, limit, offset)
	if err != nil {
		span.RecordError(err)
		return nil, 0, err
	}
	return items, total, nil
}

// Get returns one message by id.
func (s *MessageService) Get(ctx context.Context, id string) (domain.MessageView, error) {
	tr := otel.Tracer("services/MessageService")
	ctx, span := tr.Start(ctx, "Get", trace.WithAttributes(attribute.String("message.id", id)))
	defer span.End()

	v, err := s.Store.Get(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return v, ErrMessageNotFound
	}
	return v, err
}

// Fingerprint returns the count and latest update time of all messages.
func (s *MessageService) Fingerprint(ctx context.Context) (int64, *time.Time, error) {
	return s.Store.Fingerprint(ctx)
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
