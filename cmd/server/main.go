// Command server runs the WhatsApp sentiment backend.
//
// @title       WhatsApp Sentiment Analysis API
// @version     1.0
// @description Ingests WhatsApp messages, classifies sentiment and topic, and serves listings and aggregate statistics.
// @BasePath    /
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-sentiment-backend/internal/classifier"
	"github.com/tbourn/go-sentiment-backend/internal/config"
	httpapi "github.com/tbourn/go-sentiment-backend/internal/http"
	"github.com/tbourn/go-sentiment-backend/internal/observability"
	"github.com/tbourn/go-sentiment-backend/internal/repo"
	"github.com/tbourn/go-sentiment-backend/internal/sysutil"
	"github.com/tbourn/go-sentiment-backend/internal/workers"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// run owns every resource so deferred cleanups execute before exit.
func run() error {
	// 1. Environment, configuration and logging
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	sysutil.ConfigureLogger(cfg.LogLevel, cfg.LogPretty, os.Stderr)
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Tracing
	shutdownTracing, err := observability.SetupTracing(ctx, cfg.OTEL, version)
	if err != nil {
		return fmt.Errorf("tracing: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			log.Warn().Err(err).Msg("tracing shutdown")
		}
	}()

	// 3. Message store
	store := repo.NewGateway()
	if err := store.Connect(ctx, cfg.DBPath, cfg.DBConnectTimeout); err != nil {
		return fmt.Errorf("store: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Warn().Err(err).Msg("store close")
		}
		log.Info().Msg("store closed")
	}()
	log.Info().Str("path", store.Path()).Msg("store connected")

	// 4. Classifier
	clf, err := newClassifier(cfg.Inference)
	if err != nil {
		return fmt.Errorf("classifier: %w", err)
	}

	// 5. HTTP server
	engine := gin.New()
	httpapi.RegisterRoutes(engine, store, clf, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("version", version).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// 6. Wait for a signal or a listener failure
	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown requested")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}

	sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	log.Info().Msg("http server stopped")
	return nil
}

// newClassifier builds the two-path analyzer. Without an API key only the
// keyword path is used.
func newClassifier(ic config.InferenceConfig) (*classifier.Analyzer, error) {
	opts := classifier.Options{
		Pool:    workers.NewPool(ic.Workers),
		Timeout: ic.Timeout,
	}
	if ic.APIKey != "" {
		inf, err := classifier.NewOpenAIInferencer(classifier.OpenAIOptions{
			APIKey:      ic.APIKey,
			Model:       ic.Model,
			BaseURL:     ic.BaseURL,
			MaxTokens:   ic.MaxTokens,
			Temperature: ic.Temperature,
		})
		if err != nil {
			return nil, err
		}
		opts.Primary = inf
	}

	a, err := classifier.NewAnalyzer(opts)
	if err != nil {
		return nil, err
	}
	log.Info().
		Bool("model", a.HasModel()).
		Str("model_name", ic.Model).
		Dur("timeout", ic.Timeout).
		Int("workers", ic.Workers).
		Msg("classifier ready")
	return a, nil
}
