package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/unclebandit/creatorhub-backend/internal/auth"
	"github.com/unclebandit/creatorhub-backend/internal/controller"
	"github.com/unclebandit/creatorhub-backend/internal/metrics"
)

// Routes bundles everything the HTTP surface is built from.
type Routes struct {
	Campaigns *controller.CampaignController
	Proposals *controller.ProposalController
	Creators  *controller.CreatorController
	Webhooks  *controller.WebhookController
	Campaign  *CampaignHandler
	Resolver  *auth.Resolver
	DB        Pinger

	// Metrics is optional; when nil /metrics is not mounted.
	Metrics     *metrics.Metrics
	MetricsPath string
	Logger      *slog.Logger
}

func NewRouter(rt Routes) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	if rt.Logger != nil {
		r.Use(requestLogger(rt.Logger))
	}
	r.Use(middleware.Recoverer)
	r.Use(metrics.HTTPMiddleware)

	if rt.DB != nil {
		r.Get("/healthz", Healthz(rt.DB))
	}
	if rt.Metrics != nil {
		path := rt.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		r.Method(http.MethodGet, path, rt.Metrics.Handler())
	}

	// Signature-authenticated; no session lookup.
	r.Post("/webhooks/payments", rt.Webhooks.Paystack)

	// Public discovery.
	r.Get("/creators", rt.Creators.SearchCreators)

	r.Group(func(r chi.Router) {
		r.Use(rt.Resolver.Middleware)

		r.Post("/campaigns", rt.Campaigns.CreateCampaign)
		r.Get("/campaigns", rt.Campaigns.ListCampaigns)
		r.Get("/campaigns/{id}", rt.Campaign.GetCampaignHandlerWithStats)
		r.Post("/campaigns/{id}/proposals", rt.Proposals.SubmitProposal)
		r.Get("/campaigns/{id}/proposals", rt.Proposals.ListProposals)

		r.Post("/proposals/{id}/accept", rt.Proposals.AcceptProposal)
		r.Post("/proposals/{id}/decline", rt.Proposals.DeclineProposal)
		r.Post("/proposals/{id}/ai-check", rt.Proposals.TriggerAICheck)
	})

	return r
}

// requestLogger logs HTTP requests
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			logger.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}
