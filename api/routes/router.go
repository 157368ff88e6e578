package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/orderstack/po-ingest/api/controllers"
	"github.com/orderstack/po-ingest/api/middleware"
	"github.com/orderstack/po-ingest/internal/documents"
	"github.com/orderstack/po-ingest/pkg/config"
	"github.com/orderstack/po-ingest/pkg/logger"
)

// Dependencies carries everything the router wires into handlers. Optional
// infrastructure (object store, redis) may be nil; readiness reports those
// checks as skipped.
type Dependencies struct {
	Documents  documents.Service
	Pipeline   controllers.PipelineRunner
	DraftOrder controllers.DraftOrderCreator

	DBPinger    controllers.Pinger
	RedisPinger controllers.Pinger
	GCSPinger   controllers.Pinger

	Registry *prometheus.Registry
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"database": deps.DBPinger,
			"redis":    deps.RedisPinger,
			"gcs":      deps.GCSPinger,
		}))
	})

	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/purchase-orders", func(r chi.Router) {
		r.Post("/upload", controllers.UploadPurchaseOrder(cfg, deps.Documents, logg))
		r.Post("/parse", controllers.ParsePurchaseOrder(cfg, deps.Documents, deps.Pipeline, logg))
		r.Get("/", controllers.ListPurchaseOrders(deps.Documents, logg))
		r.Get("/{id}", controllers.GetPurchaseOrder(deps.Documents, logg))
		r.Post("/{id}/draft-order", controllers.CreateDraftOrder(cfg, deps.Documents, deps.Pipeline, deps.DraftOrder, logg))
	})

	return r
}
