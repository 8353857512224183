// Package app wires together all dependencies and runs the review service.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/seifmohamed1w/elastic-search/internal/config"
	"github.com/seifmohamed1w/elastic-search/internal/engine"
	esengine "github.com/seifmohamed1w/elastic-search/internal/engine/elasticsearch"
	"github.com/seifmohamed1w/elastic-search/internal/engine/memory"
	"github.com/seifmohamed1w/elastic-search/internal/event"
	handler "github.com/seifmohamed1w/elastic-search/internal/handler/http"
	"github.com/seifmohamed1w/elastic-search/internal/sentiment"
	"github.com/seifmohamed1w/elastic-search/internal/service"
	"github.com/seifmohamed1w/elastic-search/pkg/health"
	pkgkafka "github.com/seifmohamed1w/elastic-search/pkg/kafka"
)

// App holds the running components of the review service.
type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	consumers  []*pkgkafka.Consumer
	httpServer *http.Server
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	// Initialize the search engine based on configuration.
	var eng engine.ReviewEngine
	var esEng *esengine.Engine
	switch cfg.SearchEngine {
	case config.EngineElasticsearch:
		var err error
		esEng, err = esengine.New(cfg.ElasticsearchURL, cfg.ElasticsearchIndex, logger)
		if err != nil {
			return nil, fmt.Errorf("init elasticsearch engine: %w", err)
		}
		eng = esEng
		logger.Info("elasticsearch engine initialized",
			slog.String("url", cfg.ElasticsearchURL),
			slog.String("index", cfg.ElasticsearchIndex),
		)
	default:
		eng = memory.New()
		logger.Info("in-memory engine initialized")
	}

	// Build the service layer with the VADER-backed classifier.
	classifier := sentiment.NewClassifier(sentiment.NewVaderScorer())
	reviewService := service.New(eng, classifier, cfg.ElasticsearchIndex, logger)

	// Kafka consumers for review lifecycle events.
	var consumers []*pkgkafka.Consumer
	if cfg.KafkaConsumerEnabled {
		eventConsumer := event.NewConsumer(reviewService, logger)

		topics := []string{
			event.TopicReviewCreated,
			event.TopicReviewUpdated,
			event.TopicReviewDeleted,
		}

		for _, topic := range topics {
			consumerCfg := pkgkafka.ConsumerConfig{
				Brokers:  cfg.KafkaBrokers,
				GroupID:  "reviews-service",
				Topic:    topic,
				MinBytes: 1,
				MaxBytes: 10e6, // 10 MB
			}
			c := pkgkafka.NewConsumer(consumerCfg, eventConsumer.Handle, logger)
			consumers = append(consumers, c)
		}
		logger.Info("kafka consumers initialized",
			slog.Any("brokers", cfg.KafkaBrokers),
			slog.Int("topic_count", len(topics)),
		)
	}

	// Health checks.
	healthHandler := health.NewHandler()
	if esEng != nil {
		healthHandler.Register("elasticsearch", esEng.Ping)
	}
	if cfg.KafkaConsumerEnabled {
		healthHandler.Register("kafka", func(ctx context.Context) error {
			return pkgkafka.PingBrokers(ctx, cfg.KafkaBrokers)
		})
	}

	// HTTP router.
	router := handler.NewRouter(reviewService, healthHandler, logger)

	// WriteTimeout stays disabled: bulk ingestion legitimately holds a
	// request open for minutes, and every route carries its own deadline
	// in the router.
	httpServer := &http.Server{
		Addr:        fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:     router,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	return &App{
		cfg:        cfg,
		logger:     logger,
		consumers:  consumers,
		httpServer: httpServer,
	}, nil
}

// Run starts the HTTP server and Kafka consumers, blocking until the context
// is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1+len(a.consumers))

	for _, c := range a.consumers {
		c := c
		go func() {
			if err := c.Start(ctx); err != nil {
				errCh <- fmt.Errorf("kafka consumer: %w", err)
			}
		}()
	}

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	// Graceful HTTP server shutdown with a 10-second deadline.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	for _, c := range a.consumers {
		if err := c.Close(); err != nil {
			a.logger.Error("kafka consumer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}
