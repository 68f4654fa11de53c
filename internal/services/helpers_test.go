package services

import (
	"context"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tbourn/go-sentiment-backend/internal/classifier"
	"github.com/tbourn/go-sentiment-backend/internal/domain"
	"github.com/tbourn/go-sentiment-backend/internal/repo"
)

// ---------- test helpers ----------

func newStore(t *testing.T) *repo.Gateway {
	t.Helper()
	g := repo.NewGateway()
	require.NoError(t, g.Connect(context.Background(), filepath.Join(t.TempDir(), "svc.db"), 5*time.Second))
	t.Cleanup(func() { _ = g.Close() })
	return g
}

type stubClassifier struct {
	res   classifier.Result
	calls int32
}

func (s *stubClassifier) Classify(ctx context.Context, text string) classifier.Result {
	atomic.AddInt32(&s.calls, 1)
	r := s.res
	if r.Summary == "" {
		r.Summary = text
	}
	return r
}

func negativeCS() *stubClassifier {
	return &stubClassifier{res: classifier.Result{
		Classification: domain.Classification{Sentiment: domain.Negative, Topic: domain.TopicCustomerService},
		Source:         classifier.SourceModel,
	}}
}

func seed(t *testing.T, g *repo.Gateway, at time.Time, c *domain.Classification) string {
	t.Helper()
	ctx := context.Background()
	id, err := g.Save(ctx, "texto", "whatsapp:+1", "", at)
	require.NoError(t, err)
	if c != nil {
		require.NoError(t, g.UpdateClassification(ctx, id, *c))
	}
	return id
}
