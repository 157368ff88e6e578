package controllers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/orderstack/po-ingest/api/responses"
	"github.com/orderstack/po-ingest/api/validators"
	"github.com/orderstack/po-ingest/internal/documents"
	"github.com/orderstack/po-ingest/internal/intake"
	"github.com/orderstack/po-ingest/internal/pipeline"
	"github.com/orderstack/po-ingest/internal/resolver"
	"github.com/orderstack/po-ingest/pkg/config"
	pkgerrors "github.com/orderstack/po-ingest/pkg/errors"
	"github.com/orderstack/po-ingest/pkg/extract"
	"github.com/orderstack/po-ingest/pkg/logger"
	"github.com/orderstack/po-ingest/pkg/pagination"
	"github.com/orderstack/po-ingest/pkg/shopify"
)

// PipelineRunner runs the parse pipeline over one document.
type PipelineRunner interface {
	Run(ctx context.Context, req pipeline.Request) (*pipeline.Result, error)
}

// DraftOrderCreator submits an assembled draft order to the platform.
type DraftOrderCreator interface {
	DraftOrderCreate(ctx context.Context, input shopify.DraftOrderInput) (string, error)
}

// ParseRequest is the JSON body of the parse endpoint. Exactly one of
// document_id, file, or url supplies the document; when both file and url are
// present, file wins.
type ParseRequest struct {
	ShopDomain string `json:"shop_domain" validate:"required"`
	FileType   string `json:"file_type,omitempty"`
	FileName   string `json:"file_name,omitempty"`

	DocumentID string `json:"document_id,omitempty"`
	File       string `json:"file,omitempty"`
	URL        string `json:"url,omitempty"`

	Email             string `json:"email,omitempty" validate:"omitempty,email"`
	CustomerID        string `json:"customer_id,omitempty"`
	CompanyID         string `json:"company_id,omitempty"`
	CompanyLocationID string `json:"company_location_id,omitempty"`
}

// ParseResponse is the combined outcome shape: data on a valid run, the
// ordered violation list on an invalid one.
type ParseResponse struct {
	Success          bool     `json:"success"`
	Message          string   `json:"message"`
	Data             any      `json:"data,omitempty"`
	ValidationErrors []string `json:"validation_errors,omitempty"`
	Errors           []string `json:"errors,omitempty"`
}

type parseData struct {
	DocumentID    string `json:"document_id"`
	Status        string `json:"status"`
	PurchaseOrder any    `json:"purchase_order"`
	LineItems     any    `json:"line_items"`
	DraftOrder    any    `json:"draft_order_input,omitempty"`
	TotalsNote    string `json:"totals_note,omitempty"`
}

type DraftOrderRequest struct {
	Email             string `json:"email,omitempty" validate:"omitempty,email"`
	CustomerID        string `json:"customer_id,omitempty"`
	CompanyID         string `json:"company_id,omitempty"`
	CompanyLocationID string `json:"company_location_id,omitempty"`
}

// UploadPurchaseOrder receives a multipart document, gates it through intake,
// and stores it for later parsing. Re-uploads of known bytes return the
// existing document.
func UploadPurchaseOrder(cfg *config.Config, docs documents.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		r.Body = http.MaxBytesReader(w, r.Body, cfg.Intake.MaxFileSizeBytes*2)
		if err := r.ParseMultipartForm(cfg.Intake.MaxFileSizeBytes); err != nil {
			var maxBytesErr *http.MaxBytesError
			if errors.As(err, &maxBytesErr) {
				responses.WriteError(ctx, logg, w,
					pkgerrors.Wrap(pkgerrors.CodeFileTooLarge, err,
						fmt.Sprintf("upload exceeds limit of %d bytes", cfg.Intake.MaxFileSizeBytes)))
				return
			}
			responses.WriteError(ctx, logg, w,
				pkgerrors.Wrap(pkgerrors.CodeInvalidRequest, err, "invalid multipart body"))
			return
		}

		shopDomain := strings.TrimSpace(r.FormValue("shop_domain"))
		if err := checkShopDomain(cfg, shopDomain); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			responses.WriteError(ctx, logg, w,
				pkgerrors.New(pkgerrors.CodeNotFound, "file field is missing"))
			return
		}
		defer file.Close()

		data, err := io.ReadAll(file)
		if err != nil {
			responses.WriteError(ctx, logg, w,
				pkgerrors.Wrap(pkgerrors.CodeInvalidRequest, err, "reading uploaded file"))
			return
		}

		mimeType := header.Header.Get("Content-Type")
		if err := intake.Validate(intake.FileInfo{
			Name:      header.Filename,
			MimeType:  mimeType,
			SizeBytes: int64(len(data)),
		}, intake.Limits{MaxSizeBytes: cfg.Intake.MaxFileSizeBytes}); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result, err := docs.Ingest(ctx, documents.IngestInput{
			ShopDomain: shopDomain,
			FileName:   header.Filename,
			MimeType:   mimeType,
			Bytes:      data,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		status := http.StatusCreated
		if result.Duplicate {
			status = http.StatusOK
		}
		responses.WriteSuccessStatus(w, status, map[string]any{
			"document_id": result.Document.ID,
			"status":      result.Document.Status,
			"duplicate":   result.Duplicate,
		})
	}
}

// ParsePurchaseOrder runs the full pipeline over a document supplied inline,
// by url, or by reference to a previously uploaded document.
func ParsePurchaseOrder(cfg *config.Config, docs documents.Service, runner PipelineRunner, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req ParseRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if err := checkShopDomain(cfg, req.ShopDomain); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		docID, file, err := resolveSource(ctx, cfg, docs, req)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		runCtx := ctx
		if logg != nil {
			runCtx = logg.WithDocumentID(logg.WithShopDomain(ctx, req.ShopDomain), docID.String())
		}

		result, runErr := runner.Run(runCtx, pipeline.Request{
			File: file,
			Identity: resolver.Identity{
				CustomerID:        req.CustomerID,
				CompanyID:         req.CompanyID,
				CompanyLocationID: req.CompanyLocationID,
				Email:             req.Email,
			},
		})
		if runErr != nil {
			recordFailedAttempt(runCtx, docs, docID, runErr, logg)
			responses.WriteError(runCtx, logg, w, runErr)
			return
		}

		attempt := documents.AttemptInput{
			DocumentID:    docID,
			Succeeded:     true,
			Valid:         result.Valid,
			RawDocument:   result.Raw,
			ResolvedItems: result.Items,
			Violations:    result.Violations,
			TotalsNote:    result.TotalsNote,
		}
		if result.DraftOrder != nil {
			attempt.DraftOrderInput = result.DraftOrder
		}
		if _, err := docs.RecordAttempt(runCtx, attempt); err != nil {
			responses.WriteError(runCtx, logg, w, err)
			return
		}

		writeParseResult(w, docID, result)
	}
}

func writeParseResult(w http.ResponseWriter, docID uuid.UUID, result *pipeline.Result) {
	if result.Valid {
		writeJSON(w, http.StatusOK, ParseResponse{
			Success: true,
			Message: "purchase order parsed and validated",
			Data: parseData{
				DocumentID:    docID.String(),
				Status:        "validated",
				PurchaseOrder: result.Raw,
				LineItems:     result.Items,
				DraftOrder:    result.DraftOrder,
				TotalsNote:    result.TotalsNote,
			},
		})
		return
	}

	violations := make([]string, 0, len(result.Violations))
	for _, v := range result.Violations {
		violations = append(violations, v.String())
	}
	writeJSON(w, http.StatusOK, ParseResponse{
		Success: false,
		Message: "purchase order failed validation",
		Data: parseData{
			DocumentID:    docID.String(),
			Status:        "parsed",
			PurchaseOrder: result.Raw,
			LineItems:     result.Items,
			TotalsNote:    result.TotalsNote,
		},
		ValidationErrors: violations,
		Errors:           violations,
	})
}

// CreateDraftOrder re-runs the pipeline against the stored original and
// submits the assembled input. Re-running keeps catalog prices fresh instead
// of trusting a possibly stale stored attempt.
func CreateDraftOrder(cfg *config.Config, docs documents.Service, runner PipelineRunner, creator DraftOrderCreator, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(ctx, logg, w,
				pkgerrors.New(pkgerrors.CodeInvalidRequest, "invalid document id"))
			return
		}

		var req DraftOrderRequest
		if r.ContentLength > 0 {
			if err := validators.DecodeJSONBody(r, &req); err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
		}

		data, doc, err := docs.DownloadOriginal(ctx, id)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		runCtx := ctx
		if logg != nil {
			runCtx = logg.WithDocumentID(ctx, doc.ID.String())
		}

		result, runErr := runner.Run(runCtx, pipeline.Request{
			File: extract.File{Name: doc.FileName, MimeType: doc.MimeType, Bytes: data},
			Identity: resolver.Identity{
				CustomerID:        req.CustomerID,
				CompanyID:         req.CompanyID,
				CompanyLocationID: req.CompanyLocationID,
				Email:             req.Email,
			},
		})
		if runErr != nil {
			recordFailedAttempt(runCtx, docs, doc.ID, runErr, logg)
			responses.WriteError(runCtx, logg, w, runErr)
			return
		}

		attempt := documents.AttemptInput{
			DocumentID:    doc.ID,
			Succeeded:     true,
			Valid:         result.Valid,
			RawDocument:   result.Raw,
			ResolvedItems: result.Items,
			Violations:    result.Violations,
			TotalsNote:    result.TotalsNote,
		}
		if result.DraftOrder != nil {
			attempt.DraftOrderInput = result.DraftOrder
		}
		if _, err := docs.RecordAttempt(runCtx, attempt); err != nil {
			responses.WriteError(runCtx, logg, w, err)
			return
		}

		if !result.Valid {
			violations := make([]string, 0, len(result.Violations))
			for _, v := range result.Violations {
				violations = append(violations, v.String())
			}
			responses.WriteError(runCtx, logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "purchase order failed validation").
					WithDetails(map[string]any{"violations": violations}))
			return
		}

		draftOrderID, err := creator.DraftOrderCreate(runCtx, *result.DraftOrder)
		if err != nil {
			responses.WriteError(runCtx, logg, w, err)
			return
		}

		if err := docs.MarkDraftCreated(runCtx, doc.ID, draftOrderID); err != nil {
			responses.WriteError(runCtx, logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]any{
			"document_id":    doc.ID,
			"draft_order_id": draftOrderID,
		})
	}
}

func GetPurchaseOrder(docs documents.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(ctx, logg, w,
				pkgerrors.New(pkgerrors.CodeInvalidRequest, "invalid document id"))
			return
		}

		doc, err := docs.Get(ctx, id)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, doc)
	}
}

func ListPurchaseOrders(docs documents.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		list, err := docs.List(ctx, pagination.Params{
			Limit:  limit,
			Cursor: r.URL.Query().Get("cursor"),
		}, documents.ListFilters{
			ShopDomain: r.URL.Query().Get("shop_domain"),
			Status:     r.URL.Query().Get("status"),
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{
			"documents":   list.Documents,
			"next_cursor": list.NextCursor,
		})
	}
}

// resolveSource picks the document bytes for a parse run. A referenced
// document is replayed from storage; inline file content beats a url when
// both are supplied.
func resolveSource(ctx context.Context, cfg *config.Config, docs documents.Service, req ParseRequest) (uuid.UUID, extract.File, error) {
	if req.DocumentID != "" {
		id, err := uuid.Parse(req.DocumentID)
		if err != nil {
			return uuid.Nil, extract.File{}, pkgerrors.New(pkgerrors.CodeInvalidRequest, "invalid document id")
		}
		data, doc, err := docs.DownloadOriginal(ctx, id)
		if err != nil {
			return uuid.Nil, extract.File{}, err
		}
		return doc.ID, extract.File{
			Name:     doc.FileName,
			MimeType: doc.MimeType,
			Bytes:    data,
		}, nil
	}

	var file extract.File
	switch {
	case req.File != "":
		data, err := base64.StdEncoding.DecodeString(req.File)
		if err != nil {
			return uuid.Nil, extract.File{}, pkgerrors.Wrap(pkgerrors.CodeInvalidRequest, err, "file must be base64 encoded")
		}
		file = extract.File{Name: fileNameOrDefault(req), MimeType: req.FileType, Bytes: data}
	case req.URL != "":
		fetched, err := extract.FetchURL(ctx, nil, req.URL)
		if err != nil {
			return uuid.Nil, extract.File{}, err
		}
		if fetched.MimeType == "" {
			fetched.MimeType = req.FileType
		}
		file = fetched
	default:
		return uuid.Nil, extract.File{}, pkgerrors.New(pkgerrors.CodeInvalidRequest,
			"one of document_id, file, or url is required")
	}

	if err := intake.Validate(intake.FileInfo{
		Name:      file.Name,
		MimeType:  file.MimeType,
		SizeBytes: int64(len(file.Bytes)),
	}, intake.Limits{MaxSizeBytes: cfg.Intake.MaxFileSizeBytes}); err != nil {
		return uuid.Nil, extract.File{}, err
	}

	result, err := docs.Ingest(ctx, documents.IngestInput{
		ShopDomain: req.ShopDomain,
		FileName:   file.Name,
		MimeType:   file.MimeType,
		Bytes:      file.Bytes,
	})
	if err != nil {
		return uuid.Nil, extract.File{}, err
	}
	return result.Document.ID, file, nil
}

func fileNameOrDefault(req ParseRequest) string {
	if req.FileName != "" {
		return req.FileName
	}
	return "document"
}

func checkShopDomain(cfg *config.Config, shopDomain string) error {
	if shopDomain == "" {
		return pkgerrors.New(pkgerrors.CodeInvalidRequest, "shop_domain is required")
	}
	if !strings.EqualFold(shopDomain, cfg.Shopify.ShopDomain) {
		return pkgerrors.New(pkgerrors.CodeInvalidRequest,
			"shop_domain does not match the configured shop")
	}
	return nil
}

// writeJSON emits the parse endpoint's combined shape directly; the success
// envelope does not fit a response that is half outcome, half violation list.
func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func recordFailedAttempt(ctx context.Context, docs documents.Service, id uuid.UUID, runErr error, logg *logger.Logger) {
	code := string(pkgerrors.CodeInternal)
	if typed := pkgerrors.As(runErr); typed != nil {
		code = string(typed.Code())
	}
	if _, err := docs.RecordAttempt(ctx, documents.AttemptInput{
		DocumentID:   id,
		ErrorCode:    code,
		ErrorMessage: runErr.Error(),
	}); err != nil && logg != nil {
		logg.Error(ctx, "recording failed attempt", err)
	}
}
