// Package resolver turns the identifiers on a purchase order into platform
// records: the purchasing company context and a catalog variant per line item.
package resolver

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/multierr"

	"github.com/orderstack/po-ingest/pkg/config"
	pkgerrors "github.com/orderstack/po-ingest/pkg/errors"
	"github.com/orderstack/po-ingest/pkg/enums"
	"github.com/orderstack/po-ingest/pkg/logger"
	"github.com/orderstack/po-ingest/pkg/po"
	"github.com/orderstack/po-ingest/pkg/shopify"
	"github.com/orderstack/po-ingest/pkg/types"
)

// Platform is the subset of the Admin API the resolver needs.
type Platform interface {
	ShopCurrency(ctx context.Context) (string, error)
	CustomerByID(ctx context.Context, id string) (*shopify.Customer, error)
	CompanyContactProfiles(ctx context.Context, email string) ([]shopify.CompanyContactProfile, error)
	CompanyLocationByID(ctx context.Context, id string) (*shopify.CompanyLocation, error)
	VariantBySKU(ctx context.Context, sku string) (*shopify.ProductVariant, error)
	VariantByTitle(ctx context.Context, title string) (*shopify.ProductVariant, error)
}

// Identity is what the caller knows about the purchaser. Explicit IDs always
// beat email lookup; email is the fallback for documents that only carry a
// contact address.
type Identity struct {
	CustomerID        string
	CompanyID         string
	CompanyLocationID string
	Email             string
}

// CompanyContext is the resolved purchasing context the later stages consume.
type CompanyContext struct {
	CustomerID        string
	CompanyID         string
	CompanyLocationID string
	CompanyName       string
	ShippingAddress   *types.MailingAddress
	BillingAddress    *types.MailingAddress
	PartNumbers       map[string]string
	ShopCurrency      string
}

// VariantResolution is the outcome of one line item lookup. Err is set only
// for infrastructure failures; a clean miss leaves Variant nil with source
// none.
type VariantResolution struct {
	Variant *shopify.ProductVariant
	Source  enums.MatchSource
	Err     error
}

type Service struct {
	platform    Platform
	cache       *VariantCache
	concurrency int
	log         *logger.Logger
}

func NewService(platform Platform, cache *VariantCache, cfg config.ResolverConfig, logg *logger.Logger) *Service {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Service{
		platform:    platform,
		cache:       cache,
		concurrency: concurrency,
		log:         logg,
	}
}

// Resolve builds the purchasing context. The shop currency and the company
// lookup are independent, so they run concurrently.
func (s *Service) Resolve(ctx context.Context, identity Identity) (*CompanyContext, error) {
	var (
		wg       sync.WaitGroup
		currency string
		currErr  error
		company  *CompanyContext
		compErr  error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		currency, currErr = s.platform.ShopCurrency(ctx)
	}()
	go func() {
		defer wg.Done()
		company, compErr = s.resolveCompany(ctx, identity)
	}()
	wg.Wait()

	if err := multierr.Combine(currErr, compErr); err != nil {
		return nil, err
	}

	company.ShopCurrency = currency
	return company, nil
}

func (s *Service) resolveCompany(ctx context.Context, identity Identity) (*CompanyContext, error) {
	locationID := identity.CompanyLocationID
	customerID := identity.CustomerID

	if locationID == "" {
		profile, err := s.resolveProfile(ctx, identity)
		if err != nil {
			return nil, err
		}
		locationID = profile.CompanyLocationID
		if customerID == "" {
			customerID = profile.CustomerID
		}
	}

	if locationID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no company location for purchaser")
	}

	location, err := s.platform.CompanyLocationByID(ctx, locationID)
	if err != nil {
		return nil, err
	}

	if customerID != "" {
		if _, err := s.platform.CustomerByID(ctx, customerID); err != nil {
			return nil, err
		}
	}

	return &CompanyContext{
		CustomerID:        customerID,
		CompanyID:         location.CompanyID,
		CompanyLocationID: location.ID,
		CompanyName:       location.CompanyName,
		ShippingAddress:   location.ShippingAddress,
		BillingAddress:    location.BillingAddress,
		PartNumbers:       location.PartNumbers,
	}, nil
}

// resolveProfile finds the company-location association by email. More than
// one surviving profile without a disambiguating company or location id is
// AMBIGUOUS_MATCH so the caller can ask the purchaser to choose.
func (s *Service) resolveProfile(ctx context.Context, identity Identity) (*shopify.CompanyContactProfile, error) {
	email := strings.TrimSpace(identity.Email)
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidRequest, "purchaser email or company location id is required")
	}

	profiles, err := s.platform.CompanyContactProfiles(ctx, email)
	if err != nil {
		return nil, err
	}

	var candidates []shopify.CompanyContactProfile
	for _, profile := range profiles {
		if identity.CompanyID != "" && profile.CompanyID != identity.CompanyID {
			continue
		}
		candidates = append(candidates, profile)
	}

	switch len(candidates) {
	case 0:
		return nil, pkgerrors.New(pkgerrors.CodeNotFound,
			fmt.Sprintf("no purchasing company found for %s", email))
	case 1:
		return &candidates[0], nil
	default:
		return nil, pkgerrors.New(pkgerrors.CodeAmbiguousMatch,
			fmt.Sprintf("%s belongs to %d purchasing contexts, pass company_id or company_location_id", email, len(candidates)))
	}
}

// ResolveVariants looks up a catalog variant for every line item with bounded
// concurrency. Results keep document order. A failed lookup never cancels
// sibling lookups; infrastructure errors are captured per line and combined
// into the returned error.
func (s *Service) ResolveVariants(ctx context.Context, items []po.RawLineItem, partNumbers map[string]string) ([]VariantResolution, error) {
	results := make([]VariantResolution, len(items))

	var wg sync.WaitGroup
	sem := make(chan struct{}, s.concurrency)

	for i, item := range items {
		if item.Placeholder() {
			results[i] = VariantResolution{Source: enums.MatchSourceManual}
			continue
		}

		wg.Add(1)
		go func(i int, item po.RawLineItem) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			results[i] = s.resolveVariant(ctx, item, partNumbers)
		}(i, item)
	}
	wg.Wait()

	var combined error
	for _, res := range results {
		combined = multierr.Append(combined, res.Err)
	}
	return results, combined
}

// resolveVariant tries the match tiers in order: exact SKU, customer part
// number mapped through the buyer catalog, then exact title. NOT_FOUND moves
// to the next tier; any other error stops the line.
func (s *Service) resolveVariant(ctx context.Context, item po.RawLineItem, partNumbers map[string]string) VariantResolution {
	if sku := strings.TrimSpace(item.SKU); sku != "" {
		variant, err := s.lookupBySKU(ctx, sku)
		if err == nil {
			return VariantResolution{Variant: variant, Source: enums.MatchSourceSKU}
		}
		if !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
			return VariantResolution{Source: enums.MatchSourceNone, Err: err}
		}
	}

	if cpn := strings.ToLower(strings.TrimSpace(item.CustomerPartNumber)); cpn != "" {
		if sku, ok := partNumbers[cpn]; ok && sku != "" {
			variant, err := s.lookupBySKU(ctx, sku)
			if err == nil {
				return VariantResolution{Variant: variant, Source: enums.MatchSourceCustomerPartNumber}
			}
			if !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
				return VariantResolution{Source: enums.MatchSourceNone, Err: err}
			}
		}
	}

	if title := strings.TrimSpace(item.Name); title != "" {
		variant, err := s.lookupByTitle(ctx, title)
		if err == nil {
			return VariantResolution{Variant: variant, Source: enums.MatchSourceTitle}
		}
		if !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
			return VariantResolution{Source: enums.MatchSourceNone, Err: err}
		}
	}

	return VariantResolution{Source: enums.MatchSourceNone}
}

func (s *Service) lookupBySKU(ctx context.Context, sku string) (*shopify.ProductVariant, error) {
	if variant, ok := s.cache.Get(ctx, "sku", sku); ok {
		return variant, nil
	}
	variant, err := s.platform.VariantBySKU(ctx, sku)
	if err != nil {
		return nil, err
	}
	s.cache.Put(ctx, "sku", sku, variant)
	return variant, nil
}

func (s *Service) lookupByTitle(ctx context.Context, title string) (*shopify.ProductVariant, error) {
	if variant, ok := s.cache.Get(ctx, "title", title); ok {
		return variant, nil
	}
	variant, err := s.platform.VariantByTitle(ctx, title)
	if err != nil {
		return nil, err
	}
	s.cache.Put(ctx, "title", title, variant)
	return variant, nil
}
