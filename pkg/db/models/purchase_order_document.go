package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/orderstack/po-ingest/pkg/enums"
)

// PurchaseOrderDocument is one uploaded or emailed PO file. Re-uploads of the
// same bytes for the same shop collapse onto the original row via the digest
// unique constraint.
type PurchaseOrderDocument struct {
	ID           uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ShopDomain   string               `gorm:"column:shop_domain;not null"`
	FileName     string               `gorm:"column:file_name;not null"`
	MimeType     string               `gorm:"column:mime_type;not null"`
	SizeBytes    int64                `gorm:"column:size_bytes;not null"`
	Digest       string               `gorm:"column:digest;not null"`
	StorageKey   string               `gorm:"column:storage_key;not null"`
	Status       enums.DocumentStatus `gorm:"column:status;type:text;not null;default:'received'"`
	PONumber     *string              `gorm:"column:po_number"`
	DraftOrderID *string              `gorm:"column:draft_order_id"`
	Attempts     []ParseAttempt       `gorm:"foreignKey:DocumentID;constraint:OnDelete:CASCADE"`
	CreatedAt    time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName pins the table to the migration name.
func (PurchaseOrderDocument) TableName() string {
	return "purchase_order_documents"
}
