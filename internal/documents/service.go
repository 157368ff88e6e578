package documents

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"

	"github.com/orderstack/po-ingest/pkg/db"
	"github.com/orderstack/po-ingest/pkg/db/models"
	"github.com/orderstack/po-ingest/pkg/enums"
	pkgerrors "github.com/orderstack/po-ingest/pkg/errors"
	"github.com/orderstack/po-ingest/pkg/logger"
	"github.com/orderstack/po-ingest/pkg/pagination"
)

type service struct {
	repo  Repository
	store ObjectStore
	log   *logger.Logger
}

// NewService wires the document lifecycle service. store may be nil when no
// object storage is configured; originals are then unavailable for replay.
func NewService(repo Repository, store ObjectStore, logg *logger.Logger) Service {
	return &service{repo: repo, store: store, log: logg}
}

// Ingest stores a new document. Re-uploading the same bytes for the same shop
// returns the existing row instead of creating a duplicate; the digest unique
// index backs this up against concurrent uploads.
func (s *service) Ingest(ctx context.Context, input IngestInput) (*IngestResult, error) {
	digest := Digest(input.Bytes)

	if existing, err := s.repo.FindByDigest(ctx, input.ShopDomain, digest); err == nil {
		return &IngestResult{Document: existing, Duplicate: true}, nil
	} else if !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
		return nil, err
	}

	storageKey := fmt.Sprintf("%s/%s/%s", input.ShopDomain, digest[:8], input.FileName)
	if s.store != nil {
		if _, err := s.store.Upload(ctx, storageKey, input.MimeType, input.Bytes); err != nil {
			return nil, err
		}
	}

	doc := &models.PurchaseOrderDocument{
		ShopDomain: input.ShopDomain,
		FileName:   input.FileName,
		MimeType:   input.MimeType,
		SizeBytes:  int64(len(input.Bytes)),
		Digest:     digest,
		StorageKey: storageKey,
		Status:     enums.DocumentStatusReceived,
	}

	created, err := s.repo.CreateDocument(ctx, doc)
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			existing, findErr := s.repo.FindByDigest(ctx, input.ShopDomain, digest)
			if findErr != nil {
				return nil, findErr
			}
			return &IngestResult{Document: existing, Duplicate: true}, nil
		}
		return nil, err
	}

	if s.log != nil {
		s.log.Info(s.log.WithDocumentID(ctx, created.ID.String()), "document ingested")
	}
	return &IngestResult{Document: created}, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.PurchaseOrderDocument, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *service) List(ctx context.Context, params pagination.Params, filters ListFilters) (*DocumentList, error) {
	return s.repo.List(ctx, params, filters)
}

// DownloadOriginal fetches the stored bytes for a parse replay.
func (s *service) DownloadOriginal(ctx context.Context, id uuid.UUID) ([]byte, *models.PurchaseOrderDocument, error) {
	doc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if s.store == nil {
		return nil, nil, pkgerrors.New(pkgerrors.CodeDependency, "object storage is not configured")
	}
	data, err := s.store.Download(ctx, doc.StorageKey)
	if err != nil {
		return nil, nil, err
	}
	return data, doc, nil
}

// RecordAttempt persists one pipeline run and moves the document status:
// validated on a clean run, parsed when violations remain, failed when the
// pipeline errored.
func (s *service) RecordAttempt(ctx context.Context, input AttemptInput) (*models.ParseAttempt, error) {
	attempt := &models.ParseAttempt{
		DocumentID:      input.DocumentID,
		Succeeded:       input.Succeeded,
		Valid:           input.Valid,
		RawDocument:     input.RawDocument,
		ResolvedItems:   input.ResolvedItems,
		Violations:      input.Violations,
		DraftOrderInput: input.DraftOrderInput,
	}
	if input.ErrorCode != "" {
		attempt.ErrorCode = &input.ErrorCode
	}
	if input.ErrorMessage != "" {
		attempt.ErrorMessage = &input.ErrorMessage
	}
	if input.TotalsNote != "" {
		attempt.TotalsNote = &input.TotalsNote
	}

	created, err := s.repo.CreateAttempt(ctx, attempt)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{"status": attemptStatus(input)}
	if input.RawDocument != nil && input.RawDocument.PONumber != "" {
		updates["po_number"] = input.RawDocument.PONumber
	}
	if err := s.repo.UpdateDocument(ctx, input.DocumentID, updates); err != nil {
		return nil, err
	}

	return created, nil
}

func attemptStatus(input AttemptInput) enums.DocumentStatus {
	switch {
	case !input.Succeeded:
		return enums.DocumentStatusFailed
	case input.Valid:
		return enums.DocumentStatusValidated
	default:
		return enums.DocumentStatusParsed
	}
}

func (s *service) MarkDraftCreated(ctx context.Context, id uuid.UUID, draftOrderID string) error {
	return s.repo.UpdateDocument(ctx, id, map[string]any{
		"status":         enums.DocumentStatusDraftCreated,
		"draft_order_id": draftOrderID,
	})
}

func (s *service) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.DocumentStatus) error {
	if !status.IsValid() {
		return pkgerrors.New(pkgerrors.CodeInvalidRequest, fmt.Sprintf("invalid status %q", status))
	}
	return s.repo.UpdateDocument(ctx, id, map[string]any{"status": status})
}

// Digest is the sha256 hex fingerprint used for per-shop dedupe.
func Digest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
