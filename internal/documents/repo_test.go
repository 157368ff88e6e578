package documents

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/orderstack/po-ingest/pkg/db/models"
	"github.com/orderstack/po-ingest/pkg/enums"
	pkgerrors "github.com/orderstack/po-ingest/pkg/errors"
	"github.com/orderstack/po-ingest/pkg/pagination"
	"github.com/orderstack/po-ingest/pkg/po"
)

func setupDocumentsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	docs := `
CREATE TABLE IF NOT EXISTS purchase_order_documents (
  id TEXT PRIMARY KEY,
  shop_domain TEXT NOT NULL,
  file_name TEXT NOT NULL,
  mime_type TEXT NOT NULL,
  size_bytes INTEGER NOT NULL,
  digest TEXT NOT NULL,
  storage_key TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'received',
  po_number TEXT,
  draft_order_id TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
	digestIdx := `
CREATE UNIQUE INDEX IF NOT EXISTS idx_documents_shop_digest
  ON purchase_order_documents (shop_domain, digest);`
	attempts := `
CREATE TABLE IF NOT EXISTS parse_attempts (
  id TEXT PRIMARY KEY,
  document_id TEXT NOT NULL,
  succeeded INTEGER NOT NULL,
  valid INTEGER NOT NULL,
  raw_document TEXT,
  resolved_items TEXT,
  violations TEXT,
  draft_order_input TEXT,
  error_code TEXT,
  error_message TEXT,
  totals_note TEXT,
  created_at DATETIME
);`

	for _, stmt := range []string{docs, digestIdx, attempts} {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

func newTestDocument(shopDomain, digest string) *models.PurchaseOrderDocument {
	return &models.PurchaseOrderDocument{
		ID:         uuid.New(),
		ShopDomain: shopDomain,
		FileName:   "po.pdf",
		MimeType:   "application/pdf",
		SizeBytes:  1024,
		Digest:     digest,
		StorageKey: shopDomain + "/" + digest[:4] + "/po.pdf",
		Status:     enums.DocumentStatusReceived,
	}
}

func TestRepoCreateAndFindByDigest(t *testing.T) {
	repo := NewRepository(setupDocumentsTestDB(t))
	ctx := context.Background()

	created, err := repo.CreateDocument(ctx, newTestDocument("acme.myshopify.com", "abcd1234"))
	require.NoError(t, err)

	found, err := repo.FindByDigest(ctx, "acme.myshopify.com", "abcd1234")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)

	_, err = repo.FindByDigest(ctx, "other.myshopify.com", "abcd1234")
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))
}

func TestRepoDigestUniquePerShop(t *testing.T) {
	repo := NewRepository(setupDocumentsTestDB(t))
	ctx := context.Background()

	_, err := repo.CreateDocument(ctx, newTestDocument("acme.myshopify.com", "abcd1234"))
	require.NoError(t, err)

	_, err = repo.CreateDocument(ctx, newTestDocument("acme.myshopify.com", "abcd1234"))
	require.Error(t, err)

	_, err = repo.CreateDocument(ctx, newTestDocument("other.myshopify.com", "abcd1234"))
	assert.NoError(t, err)
}

func TestRepoAttemptsRoundTrip(t *testing.T) {
	db := setupDocumentsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	doc, err := repo.CreateDocument(ctx, newTestDocument("acme.myshopify.com", "abcd1234"))
	require.NoError(t, err)

	attempt := &models.ParseAttempt{
		ID:         uuid.New(),
		DocumentID: doc.ID,
		Succeeded:  true,
		Valid:      false,
		RawDocument: &po.RawPurchaseOrder{
			PONumber:  "PO-1001",
			LineItems: []po.RawLineItem{{Name: "Widget", Quantity: 2}},
		},
		Violations: []po.Violation{{Field: "email", Message: "purchaser email is required"}},
	}
	_, err = repo.CreateAttempt(ctx, attempt)
	require.NoError(t, err)

	found, err := repo.FindByID(ctx, doc.ID)
	require.NoError(t, err)
	require.Len(t, found.Attempts, 1)
	assert.Equal(t, "PO-1001", found.Attempts[0].RawDocument.PONumber)
	require.Len(t, found.Attempts[0].Violations, 1)
	assert.Equal(t, "email", found.Attempts[0].Violations[0].Field)
}

func TestRepoListPagination(t *testing.T) {
	repo := NewRepository(setupDocumentsTestDB(t))
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := repo.CreateDocument(ctx, newTestDocument("acme.myshopify.com", fmt.Sprintf("digest-%d", i)))
		require.NoError(t, err)
	}
	_, err := repo.CreateDocument(ctx, newTestDocument("other.myshopify.com", "digest-x"))
	require.NoError(t, err)

	first, err := repo.List(ctx, pagination.Params{Limit: 3}, ListFilters{ShopDomain: "acme.myshopify.com"})
	require.NoError(t, err)
	assert.Len(t, first.Documents, 3)
	require.NotEmpty(t, first.NextCursor)

	second, err := repo.List(ctx, pagination.Params{Limit: 3, Cursor: first.NextCursor}, ListFilters{ShopDomain: "acme.myshopify.com"})
	require.NoError(t, err)
	assert.Len(t, second.Documents, 2)
	assert.Empty(t, second.NextCursor)

	seen := map[uuid.UUID]bool{}
	for _, doc := range append(first.Documents, second.Documents...) {
		assert.False(t, seen[doc.ID], "duplicate row across pages")
		seen[doc.ID] = true
	}
}

func TestRepoUpdateDocument(t *testing.T) {
	repo := NewRepository(setupDocumentsTestDB(t))
	ctx := context.Background()

	doc, err := repo.CreateDocument(ctx, newTestDocument("acme.myshopify.com", "abcd1234"))
	require.NoError(t, err)

	err = repo.UpdateDocument(ctx, doc.ID, map[string]any{
		"status":         enums.DocumentStatusDraftCreated,
		"draft_order_id": "gid://shopify/DraftOrder/1033",
	})
	require.NoError(t, err)

	found, err := repo.FindByID(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.DocumentStatusDraftCreated, found.Status)
	require.NotNil(t, found.DraftOrderID)
	assert.Equal(t, "gid://shopify/DraftOrder/1033", *found.DraftOrderID)
}
