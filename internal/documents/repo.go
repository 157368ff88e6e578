package documents

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/orderstack/po-ingest/pkg/db/models"
	pkgerrors "github.com/orderstack/po-ingest/pkg/errors"
	"github.com/orderstack/po-ingest/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a documents repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateDocument(ctx context.Context, doc *models.PurchaseOrderDocument) (*models.PurchaseOrderDocument, error) {
	if err := r.db.WithContext(ctx).Create(doc).Error; err != nil {
		return nil, err
	}
	return doc, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.PurchaseOrderDocument, error) {
	var doc models.PurchaseOrderDocument
	err := r.db.WithContext(ctx).
		Preload("Attempts", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at DESC")
		}).
		Where("id = ?", id).
		First(&doc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "document not found")
		}
		return nil, err
	}
	return &doc, nil
}

func (r *repository) FindByDigest(ctx context.Context, shopDomain, digest string) (*models.PurchaseOrderDocument, error) {
	var doc models.PurchaseOrderDocument
	err := r.db.WithContext(ctx).
		Where("shop_domain = ? AND digest = ?", shopDomain, digest).
		First(&doc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "document not found")
		}
		return nil, err
	}
	return &doc, nil
}

func (r *repository) List(ctx context.Context, params pagination.Params, filters ListFilters) (*DocumentList, error) {
	limit := pagination.NormalizeLimit(params.Limit)
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInvalidRequest, err, "invalid cursor")
	}

	query := r.db.WithContext(ctx).Model(&models.PurchaseOrderDocument{})
	if filters.ShopDomain != "" {
		query = query.Where("shop_domain = ?", filters.ShopDomain)
	}
	if filters.Status != "" {
		query = query.Where("status = ?", filters.Status)
	}
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var docs []models.PurchaseOrderDocument
	err = query.
		Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&docs).Error
	if err != nil {
		return nil, err
	}

	list := &DocumentList{}
	if len(docs) > limit {
		docs = docs[:limit]
		last := docs[len(docs)-1]
		list.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	list.Documents = docs
	return list, nil
}

func (r *repository) UpdateDocument(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.PurchaseOrderDocument{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) CreateAttempt(ctx context.Context, attempt *models.ParseAttempt) (*models.ParseAttempt, error) {
	if err := r.db.WithContext(ctx).Create(attempt).Error; err != nil {
		return nil, err
	}
	return attempt, nil
}
