// Package classifier assigns a sentiment, a topic and a short summary to a
// message. A language model is tried first; any failure (no credential,
// transport error, timeout, malformed reply) degrades to the keyword
// classifier so Classify always returns a usable result.
package classifier

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-sentiment-backend/internal/domain"
	"github.com/tbourn/go-sentiment-backend/internal/workers"
)

// Source tells which path produced a Result.
type Source string

const (
	SourceModel    Source = "model"
	SourceFallback Source = "fallback"
)

// Reason explains why a Result came from the fallback path.
type Reason string

const (
	ReasonNone            Reason = ""
	ReasonNoCredential    Reason = "no_credential"
	ReasonInferenceError  Reason = "inference_error"
	ReasonTimeout         Reason = "timeout"
	ReasonInvalidResponse Reason = "invalid_response"
)

// DefaultTimeout bounds a single model call.
const DefaultTimeout = 15 * time.Second

var errNoCredential = errors.New("inference credential not configured")

// Result is a classification plus its provenance.
type Result struct {
	domain.Classification
	Source Source `json:"source"`
	Reason Reason `json:"reason,omitempty"`
}

// Classifier is the seam used by the ingestion pipeline.
type Classifier interface {
	Classify(ctx context.Context, text string) Result
}

// Options configures an Analyzer.
type Options struct {
	// Primary is the model path. Nil means no credential is configured.
	Primary Inferencer
	// Fallback is required; NewAnalyzer builds one when nil.
	Fallback *KeywordClassifier
	Pool     *workers.Pool
	Timeout  time.Duration
}

// Analyzer is the two-path Classifier.
type Analyzer struct {
	primary  Inferencer
	fallback *KeywordClassifier
	pool     *workers.Pool
	timeout  time.Duration
}

// NewAnalyzer fills defaults and returns a ready Analyzer.
func NewAnalyzer(opts Options) (*Analyzer, error) {
	fb := opts.Fallback
	if fb == nil {
		var err error
		if fb, err = NewKeywordClassifier(); err != nil {
			return nil, err
		}
	}
	pool := opts.Pool
	if pool == nil {
		pool = workers.NewPool(workers.DefaultSize)
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Analyzer{primary: opts.Primary, fallback: fb, pool: pool, timeout: timeout}, nil
}

// HasModel reports whether a model path is configured.
func (a *Analyzer) HasModel() bool { return a.primary != nil }

// Classify never fails. Cancellation of ctx by the caller is treated like a
// timeout and still yields a fallback result.
func (a *Analyzer) Classify(ctx context.Context, text string) Result {
	ctx, span := otel.Tracer("classifier/Analyzer").Start(ctx, "Classify",
		trace.WithAttributes(attribute.Int("text.len", len(text))))
	defer span.End()

	res := a.classify(ctx, text)

	span.SetAttributes(
		attribute.String("classification.source", string(res.Source)),
		attribute.String("classification.reason", string(res.Reason)),
		attribute.String("classification.sentiment", string(res.Sentiment)),
		attribute.String("classification.topic", string(res.Topic)),
	)
	classificationsTotal.WithLabelValues(string(res.Source), string(res.Reason)).Inc()
	return res
}

func (a *Analyzer) classify(ctx context.Context, text string) Result {
	if a.primary == nil {
		return a.degrade(text, ReasonNoCredential, nil)
	}

	callCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	raw, err := workers.Run(callCtx, a.pool, func(ctx context.Context) (string, error) {
		return a.primary.Infer(ctx, systemPrompt, text)
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return a.degrade(text, ReasonTimeout, err)
		}
		return a.degrade(text, ReasonInferenceError, err)
	}

	c, err := parseModelResponse(raw)
	if err != nil {
		return a.degrade(text, ReasonInvalidResponse, err)
	}
	return Result{Classification: c, Source: SourceModel}
}

func (a *Analyzer) degrade(text string, reason Reason, cause error) Result {
	if reason != ReasonNoCredential {
		log.Warn().
			Err(cause).
			Str("reason", string(reason)).
			Msg("model classification failed, using keyword fallback")
	}
	return Result{
		Classification: a.fallback.Classify(text),
		Source:         SourceFallback,
		Reason:         reason,
	}
}
