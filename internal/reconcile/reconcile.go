// Package reconcile merges extracted line items with catalog lookups into the
// records validation and assembly consume.
package reconcile

import (
	"github.com/shopspring/decimal"

	"github.com/orderstack/po-ingest/internal/resolver"
	"github.com/orderstack/po-ingest/pkg/enums"
	"github.com/orderstack/po-ingest/pkg/po"
)

// ResolvedLineItem is one document line after catalog reconciliation.
// UnitPrice is the canonical catalog price whenever the line matched; the
// price printed on the document survives as DocumentPrice for audit and for
// placeholder rows.
type ResolvedLineItem struct {
	Raw po.RawLineItem

	VariantID         string
	Title             string
	UnitPrice         decimal.Decimal
	DocumentPrice     decimal.Decimal
	InventoryQuantity int
	Taxable           bool

	MatchSource enums.MatchSource
	Matched     bool
	Placeholder bool

	UnmatchedReason string
}

// Reconcile pairs each raw line with its resolution, in document order. It is
// pure and deterministic: the same inputs always produce the same output.
func Reconcile(items []po.RawLineItem, resolutions []resolver.VariantResolution) []ResolvedLineItem {
	resolved := make([]ResolvedLineItem, 0, len(items))

	for i, item := range items {
		line := ResolvedLineItem{
			Raw:           item,
			Title:         item.Name,
			UnitPrice:     item.UnitPrice,
			DocumentPrice: item.UnitPrice,
			MatchSource:   enums.MatchSourceNone,
			Placeholder:   item.Placeholder(),
		}
		if item.Taxable != nil {
			line.Taxable = *item.Taxable
		}

		if line.Placeholder {
			line.MatchSource = enums.MatchSourceManual
			resolved = append(resolved, line)
			continue
		}

		var res resolver.VariantResolution
		if i < len(resolutions) {
			res = resolutions[i]
		}

		switch {
		case res.Variant != nil:
			line.Matched = true
			line.MatchSource = res.Source
			line.VariantID = res.Variant.ID
			line.UnitPrice = res.Variant.Price
			line.InventoryQuantity = res.Variant.InventoryQuantity
			line.Taxable = res.Variant.Taxable
			if res.Variant.ProductTitle != "" {
				line.Title = res.Variant.ProductTitle
			}
		case res.Err != nil:
			line.UnmatchedReason = res.Err.Error()
		default:
			line.UnmatchedReason = "no catalog product matched SKU, part number, or title"
		}

		resolved = append(resolved, line)
	}

	return resolved
}

// Subtotal sums quantity times reconciled unit price across matched and
// placeholder lines.
func Subtotal(items []ResolvedLineItem) decimal.Decimal {
	sum := decimal.Zero
	for _, item := range items {
		sum = sum.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Raw.Quantity))))
	}
	return sum
}
