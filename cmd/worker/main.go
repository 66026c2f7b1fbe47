package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/unclebandit/creatorhub-backend/internal/ai"
	"github.com/unclebandit/creatorhub-backend/internal/config"
	"github.com/unclebandit/creatorhub-backend/internal/db"
	"github.com/unclebandit/creatorhub-backend/internal/metrics"
	"github.com/unclebandit/creatorhub-backend/internal/queue"
	"github.com/unclebandit/creatorhub-backend/internal/repository"
	"github.com/unclebandit/creatorhub-backend/internal/service"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "worker:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load("")
	if err != nil {
		return err
	}
	logger := cfg.Logging.NewLogger().With("component", "ai-worker")
	if err := cfg.ValidateWorker(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := db.Open(ctx, cfg.Database.URL, logger)
	if err != nil {
		return err
	}
	defer conn.Close()

	if cfg.Metrics.Enabled {
		metrics.SetGlobal(metrics.New())
	}

	checks := &service.QualityCheckService{
		ProposalRepo:     &repository.ProposalRepository{DB: conn},
		CampaignRepo:     &repository.CampaignRepository{DB: conn},
		CreatorRepo:      &repository.CreatorRepository{DB: conn},
		NotificationRepo: &repository.NotificationRepository{DB: conn},
		Gate: ai.NewClient(ai.Config{
			APIKey:    cfg.AI.APIKey,
			BaseURL:   cfg.AI.BaseURL,
			Model:     cfg.AI.Model,
			MaxTokens: cfg.AI.MaxTokens,
			Timeout:   cfg.AI.Timeout,
		}, logger),
		Logger:           logger,
		StaleReviewAfter: cfg.AI.Timeout + time.Minute,
	}

	q, err := queue.DialAMQP(cfg.Queue.AMQPURL, cfg.Queue.Prefetch, logger)
	if err != nil {
		return err
	}
	defer q.Close()

	worker := service.NewWorker(checks, logger)
	if err := q.Subscribe(cfg.Queue.AICheck, worker.HandleJob); err != nil {
		return err
	}
	logger.Info("worker running, waiting for jobs", "queue", cfg.Queue.AICheck)

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case amqpErr := <-q.NotifyClose():
		if amqpErr != nil {
			return fmt.Errorf("broker connection lost: %w", amqpErr)
		}
	}
	return nil
}
