// Package services – StatsService
//
// StatsService computes the sentiment and topic aggregates over every stored
// message. The store returns raw GROUP BY rows; this file folds them into
// the closed sets.
package services

import (
	"cmp"
	"context"
	"slices"
	"strings"

	"github.com/samber/lo"
	"go.opentelemetry.io/otel"

	"github.com/tbourn/go-sentiment-backend/internal/domain"
	"github.com/tbourn/go-sentiment-backend/internal/repo"
)

// StatsService aggregates classification results.
type StatsService struct {
	Store *repo.Gateway
}

// SentimentCounts buckets every message. NULL, empty and unrecognized
// sentiments go to Pending, so Total equals the number of stored messages.
func (s *StatsService) SentimentCounts(ctx context.Context) (domain.SentimentStats, error) {
	ctx, span := otel.Tracer("services/StatsService").Start(ctx, "SentimentCounts")
	defer span.End()

	rows, err := s.Store.SentimentGroups(ctx)
	if err != nil {
		span.RecordError(err)
		return domain.SentimentStats{}, err
	}

	var out domain.SentimentStats
	for _, r := range rows {
		out.Total += r.N
		label := ""
		if r.Label != nil {
			label = *r.Label
		}
		sentiment, ok := domain.ParseSentiment(label)
		if !ok {
			out.Pending += r.N
			continue
		}
		switch sentiment {
		case domain.Positive:
			out.Positive += r.N
		case domain.Negative:
			out.Negative += r.N
		case domain.Neutral:
			out.Neutral += r.N
		}
	}
	return out, nil
}

// TopicCounts returns per-topic counts sorted by count descending, then topic
// name ascending. NULL or empty topics are reported as "unclassified"; known
// topics are matched case-insensitively.
func (s *StatsService) TopicCounts(ctx context.Context) ([]domain.TopicCount, error) {
	ctx, span := otel.Tracer("services/StatsService").Start(ctx, "TopicCounts")
	defer span.End()

	rows, err := s.Store.TopicGroups(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[topicLabel(r.Label)] += r.N
	}

	out := lo.MapToSlice(counts, func(topic string, n int64) domain.TopicCount {
		return domain.TopicCount{Topic: topic, Count: n}
	})
	slices.SortFunc(out, func(a, b domain.TopicCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Topic, b.Topic)
	})
	return out, nil
}

func topicLabel(raw *string) string {
	if raw == nil {
		return domain.TopicUnclassified
	}
	label := strings.TrimSpace(*raw)
	if label == "" {
		return domain.TopicUnclassified
	}
	if t, ok := domain.ParseTopic(label); ok {
		return string(t)
	}
	return label
}

// Count returns the number of stored messages.
func (s *StatsService) Count(ctx context.Context) (int64, error) {
	return s.Store.Count(ctx)
}
