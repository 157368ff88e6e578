// Package pipeline orchestrates a parse run: extract, resolve, reconcile,
// validate, assemble. Each stage consumes the previous stage's output and
// produces a new record; nothing is mutated in place.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/orderstack/po-ingest/internal/assemble"
	"github.com/orderstack/po-ingest/internal/reconcile"
	"github.com/orderstack/po-ingest/internal/resolver"
	"github.com/orderstack/po-ingest/internal/validate"
	"github.com/orderstack/po-ingest/pkg/extract"
	"github.com/orderstack/po-ingest/pkg/logger"
	"github.com/orderstack/po-ingest/pkg/metrics"
	"github.com/orderstack/po-ingest/pkg/po"
	"github.com/orderstack/po-ingest/pkg/shopify"
)

// Request is one document plus what the caller knows about the purchaser.
type Request struct {
	File     extract.File
	Identity resolver.Identity
}

// Result is the full outcome of a pipeline run. DraftOrder is populated only
// when Valid; an invalid run still carries the parsed record and every
// violation so the purchaser can fix the document.
type Result struct {
	Raw        *po.RawPurchaseOrder
	Company    *resolver.CompanyContext
	Items      []reconcile.ResolvedLineItem
	Valid      bool
	Violations []po.Violation

	Email           string
	ShippingAddress *shopify.MailingAddressInput

	DraftOrder *shopify.DraftOrderInput

	// TotalsNote flags drift between the totals printed on the document and
	// the subtotal recomputed from reconciled lines. Advisory only.
	TotalsNote string
}

type Service struct {
	extractor extract.Extractor
	resolver  *resolver.Service
	metrics   *metrics.PipelineMetrics
	log       *logger.Logger
}

func NewService(extractor extract.Extractor, res *resolver.Service, m *metrics.PipelineMetrics, logg *logger.Logger) *Service {
	return &Service{
		extractor: extractor,
		resolver:  res,
		metrics:   m,
		log:       logg,
	}
}

// Run executes all stages. Infrastructure and extraction failures return an
// error; business-rule failures return a Result with Valid false.
func (s *Service) Run(ctx context.Context, req Request) (*Result, error) {
	raw, err := s.extract(ctx, req.File)
	if err != nil {
		s.metrics.IncRun("error")
		return nil, err
	}

	identity := req.Identity
	if identity.Email == "" {
		identity.Email = raw.CustomerEmail
	}

	company, err := s.resolve(ctx, identity)
	if err != nil {
		s.metrics.IncRun("error")
		return nil, err
	}

	items, err := s.reconcileItems(ctx, raw, company)
	if err != nil {
		s.metrics.IncRun("error")
		return nil, err
	}

	result := s.validateAndAssemble(ctx, raw, company, items, identity)

	if result.Valid {
		s.metrics.IncRun("valid")
	} else {
		s.metrics.IncRun("invalid")
		s.metrics.AddViolations(len(result.Violations))
	}

	return result, nil
}

func (s *Service) extract(ctx context.Context, file extract.File) (*po.RawPurchaseOrder, error) {
	start := time.Now()
	defer func() { s.metrics.ObserveStage("extract", time.Since(start)) }()

	stageCtx := s.stageCtx(ctx, "extract")
	raw, err := s.extractor.Extract(stageCtx, file)
	if err != nil {
		s.logError(stageCtx, "document extraction failed", err)
		return nil, err
	}
	s.logInfo(stageCtx, fmt.Sprintf("extracted %d line items", len(raw.LineItems)))
	return raw, nil
}

func (s *Service) resolve(ctx context.Context, identity resolver.Identity) (*resolver.CompanyContext, error) {
	start := time.Now()
	defer func() { s.metrics.ObserveStage("resolve", time.Since(start)) }()

	stageCtx := s.stageCtx(ctx, "resolve")
	company, err := s.resolver.Resolve(stageCtx, identity)
	if err != nil {
		s.logError(stageCtx, "purchasing context resolution failed", err)
		return nil, err
	}
	s.logInfo(stageCtx, "resolved purchasing company "+company.CompanyName)
	return company, nil
}

func (s *Service) reconcileItems(ctx context.Context, raw *po.RawPurchaseOrder, company *resolver.CompanyContext) ([]reconcile.ResolvedLineItem, error) {
	start := time.Now()
	defer func() { s.metrics.ObserveStage("reconcile", time.Since(start)) }()

	stageCtx := s.stageCtx(ctx, "reconcile")
	resolutions, err := s.resolver.ResolveVariants(stageCtx, raw.LineItems, company.PartNumbers)
	if err != nil {
		s.logError(stageCtx, "variant resolution failed", err)
		return nil, err
	}
	return reconcile.Reconcile(raw.LineItems, resolutions), nil
}

func (s *Service) validateAndAssemble(ctx context.Context, raw *po.RawPurchaseOrder, company *resolver.CompanyContext, items []reconcile.ResolvedLineItem, identity resolver.Identity) *Result {
	start := time.Now()
	defer func() { s.metrics.ObserveStage("validate", time.Since(start)) }()

	stageCtx := s.stageCtx(ctx, "validate")

	validation := validate.Validate(validate.Input{
		Items:           items,
		Company:         company,
		Email:           identity.Email,
		ShippingAddress: raw.ShippingAddress,
		BillingAddress:  raw.BillingAddress,
		Currency:        raw.Currency,
	})

	result := &Result{
		Raw:        raw,
		Company:    company,
		Items:      items,
		Valid:      validation.Valid,
		Violations: validation.Violations,
		Email:      validation.Email,
		TotalsNote: totalsNote(raw, items),
	}

	if !validation.Valid {
		s.logInfo(stageCtx, fmt.Sprintf("validation failed with %d violations", len(validation.Violations)))
		return result
	}

	draft := assemble.Assemble(raw, company, items, validation)
	result.DraftOrder = &draft
	result.ShippingAddress = draft.ShippingAddress
	s.logInfo(stageCtx, "draft order input assembled")
	return result
}

// totalsNote compares the document's printed subtotal with the subtotal
// recomputed from reconciled lines. Drift is expected whenever catalog prices
// override stale document prices, so this never blocks the order.
func totalsNote(raw *po.RawPurchaseOrder, items []reconcile.ResolvedLineItem) string {
	if raw.Totals == nil || raw.Totals.Subtotal.IsZero() {
		return ""
	}
	recomputed := reconcile.Subtotal(items)
	if recomputed.Equal(raw.Totals.Subtotal) {
		return ""
	}
	return fmt.Sprintf("document subtotal %s differs from recomputed subtotal %s",
		raw.Totals.Subtotal.StringFixed(2), recomputed.StringFixed(2))
}

func (s *Service) stageCtx(ctx context.Context, stage string) context.Context {
	if s.log == nil {
		return ctx
	}
	return s.log.WithStage(ctx, stage)
}

func (s *Service) logInfo(ctx context.Context, msg string) {
	if s.log != nil {
		s.log.Info(ctx, msg)
	}
}

func (s *Service) logError(ctx context.Context, msg string, err error) {
	if s.log != nil {
		s.log.Error(ctx, msg, err)
	}
}
