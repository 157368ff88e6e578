package documents

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/orderstack/po-ingest/pkg/db/models"
	"github.com/orderstack/po-ingest/pkg/enums"
	"github.com/orderstack/po-ingest/pkg/pagination"
)

// Repository defines persistence operations for documents and attempts.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateDocument(ctx context.Context, doc *models.PurchaseOrderDocument) (*models.PurchaseOrderDocument, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.PurchaseOrderDocument, error)
	FindByDigest(ctx context.Context, shopDomain, digest string) (*models.PurchaseOrderDocument, error)
	List(ctx context.Context, params pagination.Params, filters ListFilters) (*DocumentList, error)
	UpdateDocument(ctx context.Context, id uuid.UUID, updates map[string]any) error
	CreateAttempt(ctx context.Context, attempt *models.ParseAttempt) (*models.ParseAttempt, error)
}

// ObjectStore persists the original document bytes.
type ObjectStore interface {
	Upload(ctx context.Context, objectName, contentType string, data []byte) (string, error)
	Download(ctx context.Context, objectName string) ([]byte, error)
}

// Service is the document lifecycle: ingest, attempt history, status moves.
type Service interface {
	Ingest(ctx context.Context, input IngestInput) (*IngestResult, error)
	Get(ctx context.Context, id uuid.UUID) (*models.PurchaseOrderDocument, error)
	List(ctx context.Context, params pagination.Params, filters ListFilters) (*DocumentList, error)
	DownloadOriginal(ctx context.Context, id uuid.UUID) ([]byte, *models.PurchaseOrderDocument, error)
	RecordAttempt(ctx context.Context, input AttemptInput) (*models.ParseAttempt, error)
	MarkDraftCreated(ctx context.Context, id uuid.UUID, draftOrderID string) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.DocumentStatus) error
}
