package documents

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/orderstack/po-ingest/pkg/db/models"
	"github.com/orderstack/po-ingest/pkg/enums"
	pkgerrors "github.com/orderstack/po-ingest/pkg/errors"
	"github.com/orderstack/po-ingest/pkg/pagination"
	"github.com/orderstack/po-ingest/pkg/po"
)

type fakeRepo struct {
	docs     map[uuid.UUID]*models.PurchaseOrderDocument
	attempts []*models.ParseAttempt
	updates  map[uuid.UUID]map[string]any
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		docs:    map[uuid.UUID]*models.PurchaseOrderDocument{},
		updates: map[uuid.UUID]map[string]any{},
	}
}

func (f *fakeRepo) WithTx(*gorm.DB) Repository { return f }

func (f *fakeRepo) CreateDocument(_ context.Context, doc *models.PurchaseOrderDocument) (*models.PurchaseOrderDocument, error) {
	doc.ID = uuid.New()
	f.docs[doc.ID] = doc
	return doc, nil
}

func (f *fakeRepo) FindByID(_ context.Context, id uuid.UUID) (*models.PurchaseOrderDocument, error) {
	if doc, ok := f.docs[id]; ok {
		return doc, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "document not found")
}

func (f *fakeRepo) FindByDigest(_ context.Context, shopDomain, digest string) (*models.PurchaseOrderDocument, error) {
	for _, doc := range f.docs {
		if doc.ShopDomain == shopDomain && doc.Digest == digest {
			return doc, nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "document not found")
}

func (f *fakeRepo) List(context.Context, pagination.Params, ListFilters) (*DocumentList, error) {
	return &DocumentList{}, nil
}

func (f *fakeRepo) UpdateDocument(_ context.Context, id uuid.UUID, updates map[string]any) error {
	f.updates[id] = updates
	return nil
}

func (f *fakeRepo) CreateAttempt(_ context.Context, attempt *models.ParseAttempt) (*models.ParseAttempt, error) {
	attempt.ID = uuid.New()
	f.attempts = append(f.attempts, attempt)
	return attempt, nil
}

type fakeStore struct {
	uploads map[string][]byte
}

func (f *fakeStore) Upload(_ context.Context, objectName, _ string, data []byte) (string, error) {
	if f.uploads == nil {
		f.uploads = map[string][]byte{}
	}
	f.uploads[objectName] = data
	return "gs://test/" + objectName, nil
}

func (f *fakeStore) Download(_ context.Context, objectName string) ([]byte, error) {
	if data, ok := f.uploads[objectName]; ok {
		return data, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "object not found")
}

func TestServiceIngestStoresAndDeduplicates(t *testing.T) {
	repo := newFakeRepo()
	store := &fakeStore{}
	svc := NewService(repo, store, nil)
	ctx := context.Background()

	input := IngestInput{
		ShopDomain: "acme.myshopify.com",
		FileName:   "po.pdf",
		MimeType:   "application/pdf",
		Bytes:      []byte("%PDF-1.4 order"),
	}

	first, err := svc.Ingest(ctx, input)
	require.NoError(t, err)
	assert.False(t, first.Duplicate)
	assert.Equal(t, enums.DocumentStatusReceived, first.Document.Status)
	assert.Len(t, store.uploads, 1)

	second, err := svc.Ingest(ctx, input)
	require.NoError(t, err)
	assert.True(t, second.Duplicate)
	assert.Equal(t, first.Document.ID, second.Document.ID)
	assert.Len(t, store.uploads, 1, "duplicate must not re-upload")
}

func TestServiceRecordAttemptMovesStatus(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	doc, err := repo.CreateDocument(ctx, &models.PurchaseOrderDocument{ShopDomain: "acme.myshopify.com"})
	require.NoError(t, err)

	cases := []struct {
		name  string
		input AttemptInput
		want  enums.DocumentStatus
	}{
		{
			name:  "valid run",
			input: AttemptInput{DocumentID: doc.ID, Succeeded: true, Valid: true},
			want:  enums.DocumentStatusValidated,
		},
		{
			name: "violations remain",
			input: AttemptInput{
				DocumentID: doc.ID,
				Succeeded:  true,
				Violations: []po.Violation{{Field: "email", Message: "required"}},
			},
			want: enums.DocumentStatusParsed,
		},
		{
			name:  "pipeline error",
			input: AttemptInput{DocumentID: doc.ID, ErrorCode: "PARSE_FAILED", ErrorMessage: "unreadable"},
			want:  enums.DocumentStatusFailed,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.RecordAttempt(ctx, tc.input)
			require.NoError(t, err)
			assert.Equal(t, tc.want, repo.updates[doc.ID]["status"])
		})
	}
}

func TestServiceRecordAttemptCarriesPONumber(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	doc, err := repo.CreateDocument(ctx, &models.PurchaseOrderDocument{ShopDomain: "acme.myshopify.com"})
	require.NoError(t, err)

	_, err = svc.RecordAttempt(ctx, AttemptInput{
		DocumentID:  doc.ID,
		Succeeded:   true,
		Valid:       true,
		RawDocument: &po.RawPurchaseOrder{PONumber: "PO-1001"},
	})
	require.NoError(t, err)
	assert.Equal(t, "PO-1001", repo.updates[doc.ID]["po_number"])
}

func TestServiceMarkDraftCreated(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	doc, err := repo.CreateDocument(ctx, &models.PurchaseOrderDocument{ShopDomain: "acme.myshopify.com"})
	require.NoError(t, err)

	require.NoError(t, svc.MarkDraftCreated(ctx, doc.ID, "gid://shopify/DraftOrder/1033"))
	assert.Equal(t, enums.DocumentStatusDraftCreated, repo.updates[doc.ID]["status"])
	assert.Equal(t, "gid://shopify/DraftOrder/1033", repo.updates[doc.ID]["draft_order_id"])
}

func TestServiceDownloadOriginalRequiresStore(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	doc, err := repo.CreateDocument(ctx, &models.PurchaseOrderDocument{ShopDomain: "acme.myshopify.com", StorageKey: "k"})
	require.NoError(t, err)

	_, _, err = svc.DownloadOriginal(ctx, doc.ID)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeDependency))
}
