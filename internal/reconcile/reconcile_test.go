package reconcile

import (
	"reflect"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/orderstack/po-ingest/internal/resolver"
	pkgerrors "github.com/orderstack/po-ingest/pkg/errors"
	"github.com/orderstack/po-ingest/pkg/enums"
	"github.com/orderstack/po-ingest/pkg/po"
	"github.com/orderstack/po-ingest/pkg/shopify"
)

func TestReconcileCatalogPriceWins(t *testing.T) {
	items := []po.RawLineItem{
		{SKU: "ABC-1", Name: "Widget", Quantity: 3, UnitPrice: decimal.RequireFromString("9.99")},
	}
	resolutions := []resolver.VariantResolution{{
		Variant: &shopify.ProductVariant{
			ID:           "gid://shopify/ProductVariant/42",
			SKU:          "ABC-1",
			ProductTitle: "Widget Pro",
			Price:        decimal.RequireFromString("12.50"),
			Taxable:      true,
		},
		Source: enums.MatchSourceSKU,
	}}

	resolved := Reconcile(items, resolutions)
	if len(resolved) != 1 {
		t.Fatalf("expected 1 line, got %d", len(resolved))
	}
	line := resolved[0]
	if !line.Matched {
		t.Fatal("expected matched line")
	}
	if line.UnitPrice.String() != "12.5" {
		t.Fatalf("catalog price should win, got %s", line.UnitPrice)
	}
	if line.DocumentPrice.String() != "9.99" {
		t.Fatalf("document price should survive for audit, got %s", line.DocumentPrice)
	}
	if line.Title != "Widget Pro" {
		t.Fatalf("unexpected title %q", line.Title)
	}
}

func TestReconcileUnmatchedAndPlaceholder(t *testing.T) {
	items := []po.RawLineItem{
		{SKU: "GONE", Name: "Discontinued", Quantity: 1, UnitPrice: decimal.RequireFromString("5.00")},
		{Name: "Add product", Quantity: 1},
		{SKU: "ERR-1", Name: "Broken Lookup", Quantity: 1},
	}
	resolutions := []resolver.VariantResolution{
		{Source: enums.MatchSourceNone},
		{Source: enums.MatchSourceManual},
		{Source: enums.MatchSourceNone, Err: pkgerrors.New(pkgerrors.CodeDependency, "catalog is down")},
	}

	resolved := Reconcile(items, resolutions)

	if resolved[0].Matched || resolved[0].UnmatchedReason == "" {
		t.Fatalf("expected unmatched reason, got %+v", resolved[0])
	}
	if !resolved[1].Placeholder || resolved[1].MatchSource != enums.MatchSourceManual {
		t.Fatalf("expected placeholder line, got %+v", resolved[1])
	}
	if resolved[1].UnmatchedReason != "" {
		t.Fatalf("placeholder must not carry an unmatched reason, got %q", resolved[1].UnmatchedReason)
	}
	if resolved[2].UnmatchedReason == "" {
		t.Fatalf("expected lookup error carried on line, got %+v", resolved[2])
	}
}

func TestReconcileIsDeterministic(t *testing.T) {
	items := []po.RawLineItem{
		{SKU: "ABC-1", Name: "Widget", Quantity: 2, UnitPrice: decimal.RequireFromString("1.00")},
		{Name: "Add product", Quantity: 1},
	}
	resolutions := []resolver.VariantResolution{
		{Variant: &shopify.ProductVariant{ID: "v1", Price: decimal.RequireFromString("2.00")}, Source: enums.MatchSourceSKU},
		{Source: enums.MatchSourceManual},
	}

	first := Reconcile(items, resolutions)
	second := Reconcile(items, resolutions)
	if !reflect.DeepEqual(first, second) {
		t.Fatal("reconcile output should be deterministic")
	}
}

func TestSubtotal(t *testing.T) {
	resolved := []ResolvedLineItem{
		{Raw: po.RawLineItem{Quantity: 3}, UnitPrice: decimal.RequireFromString("12.50")},
		{Raw: po.RawLineItem{Quantity: 1}, UnitPrice: decimal.RequireFromString("5.00")},
	}
	if got := Subtotal(resolved); got.String() != "42.5" {
		t.Fatalf("unexpected subtotal %s", got)
	}
}
