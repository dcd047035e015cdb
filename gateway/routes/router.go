package routes

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"voucherchain/gateway/middleware"
	"voucherchain/indexer"
)

// EventLister serves indexed events.
type EventLister interface {
	List(ctx context.Context, filter indexer.Filter) ([]indexer.Record, error)
}

type Config struct {
	Query  *Query
	Events EventLister
	// EventPageLimit caps the limit query parameter of /v1/events.
	EventPageLimit int
	RateLimiter    *middleware.RateLimiter
	Observability  *middleware.Observability
	CORS           middleware.CORSConfig
	Logger         *slog.Logger
}

type api struct {
	query     *Query
	events    EventLister
	pageLimit int
	logger    *slog.Logger
}

// New builds the read-only query API. The returned handler is wrapped in an
// otelhttp span per request.
func New(cfg Config) (http.Handler, error) {
	if cfg.Query == nil {
		return nil, fmt.Errorf("gateway: query required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	a := &api{query: cfg.Query, events: cfg.Events, pageLimit: cfg.EventPageLimit, logger: logger}
	if a.pageLimit <= 0 {
		a.pageLimit = indexer.MaxLimit
	}

	r := chi.NewRouter()
	r.Use(middleware.CORS(cfg.CORS))
	if cfg.Observability != nil {
		r.Use(cfg.Observability.Middleware)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/v1", func(sr chi.Router) {
		if cfg.RateLimiter != nil {
			sr.Use(cfg.RateLimiter.Middleware("v1"))
		}
		sr.Get("/deployment", a.deployment)
		sr.Get("/tokens", a.tokens)
		sr.Get("/tokens/{token}", a.token)
		sr.Get("/tokens/{token}/balances/{holder}", a.tokenBalance)
		sr.Get("/holders/{holder}/balances", a.holderBalances)
		sr.Get("/merchants", a.merchants)
		sr.Get("/merchants/{merchant}", a.merchant)
		sr.Get("/campaigns", a.campaigns)
		sr.Get("/campaigns/{campaign}", a.campaign)
		sr.Get("/creators/{creator}/campaigns", a.creatorCampaigns)
		sr.Get("/events", a.listEvents)
	})

	return otelhttp.NewHandler(r, "voucher-gateway"), nil
}
