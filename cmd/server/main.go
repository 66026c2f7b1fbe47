package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/unclebandit/creatorhub-backend/internal/ai"
	"github.com/unclebandit/creatorhub-backend/internal/auth"
	"github.com/unclebandit/creatorhub-backend/internal/config"
	"github.com/unclebandit/creatorhub-backend/internal/controller"
	"github.com/unclebandit/creatorhub-backend/internal/db"
	"github.com/unclebandit/creatorhub-backend/internal/handler"
	"github.com/unclebandit/creatorhub-backend/internal/lock"
	"github.com/unclebandit/creatorhub-backend/internal/metrics"
	"github.com/unclebandit/creatorhub-backend/internal/queue"
	"github.com/unclebandit/creatorhub-backend/internal/repository"
	"github.com/unclebandit/creatorhub-backend/internal/service"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "server:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load("")
	if err != nil {
		return err
	}
	logger := cfg.Logging.NewLogger()
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := db.Open(ctx, cfg.Database.URL, logger)
	if err != nil {
		return err
	}
	defer conn.Close()

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
		metrics.SetGlobal(m)
	}

	campaignRepo := &repository.CampaignRepository{DB: conn}
	proposalRepo := &repository.ProposalRepository{DB: conn}
	creatorRepo := &repository.CreatorRepository{DB: conn}
	brandRepo := &repository.BrandRepository{DB: conn}
	paymentRepo := &repository.PaymentRepository{DB: conn}
	notificationRepo := &repository.NotificationRepository{DB: conn}

	if cfg.AI.APIKey == "" {
		logger.Warn("ANTHROPIC_API_KEY not set, ai checks will fail until it is configured")
	}
	checkService := &service.QualityCheckService{
		ProposalRepo:     proposalRepo,
		CampaignRepo:     campaignRepo,
		CreatorRepo:      creatorRepo,
		NotificationRepo: notificationRepo,
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

	q, err := openQueue(cfg, logger, checkService)
	if err != nil {
		return err
	}
	defer q.Close()

	var locker lock.Locker = lock.NewLocalLocker()
	if cfg.Redis.URL != "" {
		client, err := lock.Connect(cfg.Redis.URL)
		if err != nil {
			return err
		}
		defer client.Close()
		locker = lock.NewRedisLocker(client, "creatorhub:lock:", cfg.Redis.LockTTL)
		logger.Info("webhook settlements serialised through redis")
	}

	campaignService := &service.CampaignService{
		CampaignRepo: campaignRepo,
		ProposalRepo: proposalRepo,
		BrandRepo:    brandRepo,
		Logger:       logger,
	}
	proposalService := &service.ProposalService{
		ProposalRepo:     proposalRepo,
		CampaignRepo:     campaignRepo,
		CreatorRepo:      creatorRepo,
		BrandRepo:        brandRepo,
		NotificationRepo: notificationRepo,
		Queue:            q,
		AICheckQueue:     cfg.Queue.AICheck,
		Logger:           logger,
	}
	paymentService := &service.PaymentService{
		PaymentRepo: paymentRepo,
		Secret:      cfg.Secrets.Paystack,
		Locker:      locker,
		Logger:      logger,
	}

	router := handler.NewRouter(handler.Routes{
		Campaigns:   &controller.CampaignController{CampaignService: campaignService, Logger: logger},
		Proposals:   &controller.ProposalController{ProposalService: proposalService, QualityCheckService: checkService, Logger: logger},
		Creators:    &controller.CreatorController{CreatorService: &service.CreatorService{CreatorRepo: creatorRepo, Logger: logger}, Logger: logger},
		Webhooks:    &controller.WebhookController{PaymentService: paymentService, Logger: logger},
		Campaign:    handler.NewCampaignHandler(campaignService, logger),
		Resolver:    auth.NewResolver(cfg.Secrets.Worker, auth.NewCookieStore(cfg.Secrets.Session, cfg.Server.SecureCookies)),
		DB:          conn,
		Metrics:     m,
		MetricsPath: cfg.Metrics.Path,
		Logger:      logger,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server running", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// openQueue dials the broker when one is configured. Without a broker, AI checks
// run in-process on the same queue abstraction.
func openQueue(cfg *config.Config, logger *slog.Logger, checks *service.QualityCheckService) (queue.Queue, error) {
	if cfg.Queue.AMQPURL != "" {
		q, err := queue.DialAMQP(cfg.Queue.AMQPURL, cfg.Queue.Prefetch, logger)
		if err != nil {
			return nil, err
		}
		logger.Info("publishing ai checks to broker", "queue", cfg.Queue.AICheck)
		return q, nil
	}

	q := queue.NewInMemoryQueue(logger)
	worker := service.NewWorker(checks, logger)
	if err := q.Subscribe(cfg.Queue.AICheck, worker.HandleJob); err != nil {
		return nil, err
	}
	logger.Info("no AMQP_URL set, running ai checks in-process")
	return q, nil
}
