package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/orderstack/po-ingest/pkg/po"
)

// ParseAttempt captures one pipeline run over a document: the raw extraction,
// the reconciled line items, the ordered violation list, and the assembled
// draft-order input when validation passed. Intermediate stage outputs are
// kept so the UI can re-display results without re-running the pipeline.
type ParseAttempt struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	DocumentID uuid.UUID `gorm:"column:document_id;type:uuid;not null"`

	Succeeded bool `gorm:"column:succeeded;not null"`
	Valid     bool `gorm:"column:valid;not null"`

	RawDocument     *po.RawPurchaseOrder `gorm:"column:raw_document;type:jsonb;serializer:json"`
	ResolvedItems   any                  `gorm:"column:resolved_items;type:jsonb;serializer:json"`
	Violations      []po.Violation       `gorm:"column:violations;type:jsonb;serializer:json"`
	DraftOrderInput any                  `gorm:"column:draft_order_input;type:jsonb;serializer:json"`

	ErrorCode    *string `gorm:"column:error_code"`
	ErrorMessage *string `gorm:"column:error_message"`

	// TotalsNote records drift between the document's printed grand total and
	// the recomputed one. Audit only, never a validation violation.
	TotalsNote *string `gorm:"column:totals_note"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

// TableName pins the table to the migration name.
func (ParseAttempt) TableName() string {
	return "parse_attempts"
}
