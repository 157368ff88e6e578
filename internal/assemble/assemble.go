// Package assemble builds the draftOrderCreate payload from a validated
// purchase order.
package assemble

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/orderstack/po-ingest/internal/reconcile"
	"github.com/orderstack/po-ingest/internal/resolver"
	"github.com/orderstack/po-ingest/internal/validate"
	"github.com/orderstack/po-ingest/pkg/po"
	"github.com/orderstack/po-ingest/pkg/shopify"
)

const (
	metafieldNamespace = "po_ingest"
	provenanceKey      = "line_item_provenance"
	ingestTag          = "purchase-order-import"
)

// lineProvenance records how each draft order line was matched so support can
// audit a draft against the original document.
type lineProvenance struct {
	Index       int    `json:"index"`
	MatchSource string `json:"match_source"`
	VariantID   string `json:"variant_id,omitempty"`
	SKU         string `json:"sku,omitempty"`
}

// Assemble converts a validated purchase order into the draft order input.
// Callers must only invoke it after validation passed; assembling an invalid
// order is a programming error surfaced by the pipeline, not here.
func Assemble(raw *po.RawPurchaseOrder, company *resolver.CompanyContext, items []reconcile.ResolvedLineItem, result validate.Result) shopify.DraftOrderInput {
	input := shopify.DraftOrderInput{
		Email:           result.Email,
		PONumber:        raw.PONumber,
		ShippingAddress: shopify.AddressInput(result.ShippingAddress),
		BillingAddress:  shopify.AddressInput(result.BillingAddress),
		Tags:            []string{ingestTag},
		TaxExempt:       raw.TaxExempt,
		Note:            buildNote(raw),
	}

	if company != nil {
		entity := &shopify.PurchasingEntityInput{}
		if company.CompanyID != "" && company.CompanyLocationID != "" {
			entity.PurchasingCompany = &shopify.PurchasingCompanyInput{
				CompanyID:         company.CompanyID,
				CompanyLocationID: company.CompanyLocationID,
			}
		}
		if company.CustomerID != "" {
			customerID := company.CustomerID
			entity.CustomerID = &customerID
		}
		if entity.CustomerID != nil || entity.PurchasingCompany != nil {
			input.PurchasingEntity = entity
		}
	}

	provenance := make([]lineProvenance, 0, len(items))
	for i, item := range items {
		provenance = append(provenance, lineProvenance{
			Index:       i,
			MatchSource: item.MatchSource.String(),
			VariantID:   item.VariantID,
			SKU:         item.Raw.SKU,
		})

		quantity := item.Raw.Quantity
		if item.Matched {
			variantID := item.VariantID
			price := item.UnitPrice.StringFixed(2)
			input.LineItems = append(input.LineItems, shopify.DraftOrderLineItemInput{
				VariantID:         &variantID,
				Quantity:          quantity,
				OriginalUnitPrice: &price,
			})
			continue
		}

		// Placeholder rows become custom lines at the document price so the
		// merchant swaps in the real product before completing the draft.
		title := item.Title
		if title == "" {
			title = "Manual product selection"
		}
		price := item.DocumentPrice.StringFixed(2)
		input.LineItems = append(input.LineItems, shopify.DraftOrderLineItemInput{
			Title:             &title,
			Quantity:          quantity,
			OriginalUnitPrice: &price,
		})
	}

	if payload, err := json.Marshal(provenance); err == nil {
		input.Metafields = append(input.Metafields, shopify.MetafieldInput{
			Namespace: metafieldNamespace,
			Key:       provenanceKey,
			Type:      "json",
			Value:     string(payload),
		})
	}

	return input
}

func buildNote(raw *po.RawPurchaseOrder) string {
	var parts []string
	if raw.PONumber != "" {
		parts = append(parts, fmt.Sprintf("PO %s", raw.PONumber))
	}
	if raw.DocumentDate != "" {
		parts = append(parts, fmt.Sprintf("dated %s", raw.DocumentDate))
	}
	if raw.ShippingMethod != "" {
		parts = append(parts, fmt.Sprintf("ship via %s", raw.ShippingMethod))
	}
	if raw.PaymentTerms != "" {
		parts = append(parts, fmt.Sprintf("terms %s", raw.PaymentTerms))
	}
	if len(parts) == 0 {
		return "Imported from purchase order document"
	}
	return "Imported from purchase order document: " + strings.Join(parts, ", ")
}
