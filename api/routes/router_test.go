package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/orderstack/po-ingest/internal/documents"
	"github.com/orderstack/po-ingest/internal/pipeline"
	"github.com/orderstack/po-ingest/pkg/config"
	"github.com/orderstack/po-ingest/pkg/db/models"
	"github.com/orderstack/po-ingest/pkg/enums"
	pkgerrors "github.com/orderstack/po-ingest/pkg/errors"
	"github.com/orderstack/po-ingest/pkg/pagination"
	"github.com/orderstack/po-ingest/pkg/shopify"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error { return nil }

type stubDocuments struct{}

func (stubDocuments) Ingest(context.Context, documents.IngestInput) (*documents.IngestResult, error) {
	return &documents.IngestResult{Document: &models.PurchaseOrderDocument{ID: uuid.New()}}, nil
}

func (stubDocuments) Get(context.Context, uuid.UUID) (*models.PurchaseOrderDocument, error) {
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "document not found")
}

func (stubDocuments) List(context.Context, pagination.Params, documents.ListFilters) (*documents.DocumentList, error) {
	return &documents.DocumentList{}, nil
}

func (stubDocuments) DownloadOriginal(context.Context, uuid.UUID) ([]byte, *models.PurchaseOrderDocument, error) {
	return nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, "document not found")
}

func (stubDocuments) RecordAttempt(context.Context, documents.AttemptInput) (*models.ParseAttempt, error) {
	return &models.ParseAttempt{}, nil
}

func (stubDocuments) MarkDraftCreated(context.Context, uuid.UUID, string) error { return nil }

func (stubDocuments) UpdateStatus(context.Context, uuid.UUID, enums.DocumentStatus) error {
	return nil
}

type stubRunner struct{}

func (stubRunner) Run(context.Context, pipeline.Request) (*pipeline.Result, error) {
	return nil, pkgerrors.New(pkgerrors.CodeParseFailed, "stub")
}

type stubCreator struct{}

func (stubCreator) DraftOrderCreate(context.Context, shopify.DraftOrderInput) (string, error) {
	return "", nil
}

func newTestRouter(registry *prometheus.Registry) http.Handler {
	cfg := &config.Config{
		App:     config.AppConfig{Env: "test"},
		Shopify: config.ShopifyConfig{ShopDomain: "acme.myshopify.com"},
		Intake:  config.IntakeConfig{MaxFileSizeBytes: 10 << 20},
	}
	return NewRouter(cfg, nil, Dependencies{
		Documents:  stubDocuments{},
		Pipeline:   stubRunner{},
		DraftOrder: stubCreator{},
		DBPinger:   stubPinger{},
		Registry:   registry,
	})
}

func TestRouterHealthLive(t *testing.T) {
	router := newTestRouter(nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Header().Get("X-POIngest-Env") != "test" {
		t.Fatalf("missing env header, got %q", rec.Header().Get("X-POIngest-Env"))
	}
}

func TestRouterHealthReadySkipsNilDependencies(t *testing.T) {
	router := newTestRouter(nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("nil optional dependencies must not fail readiness, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestRouterMetricsEndpoint(t *testing.T) {
	router := newTestRouter(prometheus.NewRegistry())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestRouterMetricsDisabledWithoutRegistry(t *testing.T) {
	router := newTestRouter(nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 without a registry, got %d", rec.Code)
	}
}

func TestRouterUnknownDocument(t *testing.T) {
	router := newTestRouter(nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/purchase-orders/"+uuid.NewString(), nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestRouterRequestIDHeader(t *testing.T) {
	router := newTestRouter(nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	if rec.Header().Get("X-Request-Id") == "" {
		t.Fatal("expected X-Request-Id header on every response")
	}
}
