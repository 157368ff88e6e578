package documents

import (
	"github.com/google/uuid"

	"github.com/orderstack/po-ingest/pkg/db/models"
	"github.com/orderstack/po-ingest/pkg/po"
)

// IngestInput is a document handed to the service by upload or email intake.
type IngestInput struct {
	ShopDomain string
	FileName   string
	MimeType   string
	Bytes      []byte
}

// IngestResult reports the stored document and whether the bytes were already
// known for this shop.
type IngestResult struct {
	Document  *models.PurchaseOrderDocument
	Duplicate bool
}

// AttemptInput captures one pipeline run for the attempt history.
type AttemptInput struct {
	DocumentID uuid.UUID
	Succeeded  bool
	Valid      bool

	RawDocument     *po.RawPurchaseOrder
	ResolvedItems   any
	Violations      []po.Violation
	DraftOrderInput any

	ErrorCode    string
	ErrorMessage string
	TotalsNote   string
}

// ListFilters narrows the document list.
type ListFilters struct {
	ShopDomain string
	Status     string
}

// DocumentList is one page of documents plus the cursor for the next page.
type DocumentList struct {
	Documents  []models.PurchaseOrderDocument
	NextCursor string
}
