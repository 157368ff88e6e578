package po

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/orderstack/po-ingest/pkg/types"
)

// LineItemProperty is a free-form name/value pair carried on a raw line item.
type LineItemProperty struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// RawLineItem is a single line extracted from the document. It stays
// unresolved until matched against a catalog variant.
type RawLineItem struct {
	CustomerPartNumber string             `json:"customer_part_number,omitempty"`
	SKU                string             `json:"sku,omitempty"`
	Name               string             `json:"name"`
	Quantity           int                `json:"quantity"`
	UnitPrice          decimal.Decimal    `json:"unit_price"`
	Taxable            *bool              `json:"taxable,omitempty"`
	Properties         []LineItemProperty `json:"properties,omitempty"`
}

// Placeholder reports whether the line is the synthetic "add product" row a
// buyer attaches for manual selection. Placeholders are exempt from
// variant-resolution failure.
func (i RawLineItem) Placeholder() bool {
	return strings.TrimSpace(i.SKU) == "" && strings.TrimSpace(i.CustomerPartNumber) == ""
}

// RawTotals are the totals printed on the document. Advisory only: the
// pipeline always recomputes totals from reconciled line items and never
// trusts these for checkout.
type RawTotals struct {
	Subtotal   decimal.Decimal `json:"subtotal"`
	Tax        decimal.Decimal `json:"tax"`
	Shipping   decimal.Decimal `json:"shipping"`
	Discounts  decimal.Decimal `json:"discounts"`
	GrandTotal decimal.Decimal `json:"grand_total"`
}

// RawPurchaseOrder is the extractor's output: one immutable record per
// uploaded document. Every downstream stage produces a new record instead of
// mutating this one.
type RawPurchaseOrder struct {
	PONumber      string `json:"po_number,omitempty"`
	DocumentDate  string `json:"document_date,omitempty"`
	CustomerName  string `json:"customer_name,omitempty"`
	CustomerEmail string `json:"customer_email,omitempty"`
	CustomerPhone string `json:"customer_phone,omitempty"`

	BillingAddress  *types.MailingAddress `json:"billing_address,omitempty"`
	ShippingAddress *types.MailingAddress `json:"shipping_address,omitempty"`

	LineItems []RawLineItem `json:"line_items"`

	Currency       string `json:"currency,omitempty"`
	TaxExempt      bool   `json:"tax_exempt,omitempty"`
	ShippingMethod string `json:"shipping_method,omitempty"`
	PaymentTerms   string `json:"payment_terms,omitempty"`

	Totals *RawTotals `json:"totals,omitempty"`
}

// Violation is one business-rule failure. The violation list is ordered by
// contract: email, then line items in document order, then shipping, then
// billing, then currency.
type Violation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v Violation) String() string {
	return v.Field + ": " + v.Message
}

// Subtotal recomputes the document subtotal from line items using the prices
// printed on the document. Used only to flag totals drift for audit.
func (p *RawPurchaseOrder) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, item := range p.LineItems {
		sum = sum.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return sum
}
