package openai

import (
	"fmt"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/shopspring/decimal"

	pkgerrors "github.com/orderstack/po-ingest/pkg/errors"
	"github.com/orderstack/po-ingest/pkg/po"
	"github.com/orderstack/po-ingest/pkg/types"
)

// document is the wire shape the model is asked to produce. All monetary
// amounts are exact decimal strings; conversion to domain records happens in
// toRaw so a malformed amount surfaces as PARSE_FAILED rather than a silent
// zero.
type document struct {
	PONumber      string `json:"po_number" jsonschema_description:"Purchase order number printed on the document, empty if absent"`
	DocumentDate  string `json:"document_date" jsonschema_description:"Document date as printed, ISO 8601 when possible"`
	CustomerName  string `json:"customer_name"`
	CustomerEmail string `json:"customer_email"`
	CustomerPhone string `json:"customer_phone"`

	BillingAddress  *documentAddress `json:"billing_address"`
	ShippingAddress *documentAddress `json:"shipping_address"`

	LineItems []documentLineItem `json:"line_items"`

	Currency       string `json:"currency" jsonschema_description:"ISO currency code printed on the document, empty if absent"`
	TaxExempt      bool   `json:"tax_exempt"`
	ShippingMethod string `json:"shipping_method"`
	PaymentTerms   string `json:"payment_terms"`

	Totals *documentTotals `json:"totals"`
}

type documentAddress struct {
	Address1 string `json:"address1"`
	Address2 string `json:"address2"`
	City     string `json:"city"`
	Province string `json:"province"`
	Zip      string `json:"zip"`
	Country  string `json:"country"`
	Company  string `json:"company"`
	Phone    string `json:"phone"`
}

type documentLineItem struct {
	CustomerPartNumber string `json:"customer_part_number"`
	SKU                string `json:"sku"`
	Name               string `json:"name"`
	Quantity           int    `json:"quantity" jsonschema:"minimum=1"`
	UnitPrice          string `json:"unit_price" jsonschema_description:"Exact decimal string, e.g. \"9.99\""`
	Taxable            *bool  `json:"taxable"`
}

type documentTotals struct {
	Subtotal   string `json:"subtotal"`
	Tax        string `json:"tax"`
	Shipping   string `json:"shipping"`
	Discounts  string `json:"discounts"`
	GrandTotal string `json:"grand_total"`
}

func documentSchema() any {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var d document
	return reflector.Reflect(d)
}

func parseAmount(field, value string) (decimal.Decimal, error) {
	clean := strings.TrimSpace(value)
	if clean == "" {
		return decimal.Zero, nil
	}
	amount, err := decimal.NewFromString(clean)
	if err != nil {
		return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeParseFailed, err,
			fmt.Sprintf("extractor returned malformed amount for %s", field))
	}
	return amount, nil
}

func (a *documentAddress) toMailingAddress() *types.MailingAddress {
	if a == nil {
		return nil
	}
	addr := &types.MailingAddress{
		Address1: a.Address1,
		City:     a.City,
		Province: a.Province,
		Zip:      a.Zip,
		Country:  a.Country,
	}
	if a.Address2 != "" {
		addr.Address2 = &a.Address2
	}
	if a.Company != "" {
		addr.Company = &a.Company
	}
	if a.Phone != "" {
		addr.Phone = &a.Phone
	}
	if addr.Empty() {
		return nil
	}
	return addr
}

func (d *document) toRaw() (*po.RawPurchaseOrder, error) {
	raw := &po.RawPurchaseOrder{
		PONumber:        d.PONumber,
		DocumentDate:    d.DocumentDate,
		CustomerName:    d.CustomerName,
		CustomerEmail:   d.CustomerEmail,
		CustomerPhone:   d.CustomerPhone,
		BillingAddress:  d.BillingAddress.toMailingAddress(),
		ShippingAddress: d.ShippingAddress.toMailingAddress(),
		Currency:        strings.ToUpper(strings.TrimSpace(d.Currency)),
		TaxExempt:       d.TaxExempt,
		ShippingMethod:  d.ShippingMethod,
		PaymentTerms:    d.PaymentTerms,
	}

	for i, item := range d.LineItems {
		price, err := parseAmount(fmt.Sprintf("line_items[%d].unit_price", i), item.UnitPrice)
		if err != nil {
			return nil, err
		}
		raw.LineItems = append(raw.LineItems, po.RawLineItem{
			CustomerPartNumber: strings.TrimSpace(item.CustomerPartNumber),
			SKU:                strings.TrimSpace(item.SKU),
			Name:               strings.TrimSpace(item.Name),
			Quantity:           item.Quantity,
			UnitPrice:          price,
			Taxable:            item.Taxable,
		})
	}

	if d.Totals != nil {
		totals := &po.RawTotals{}
		fields := []struct {
			name  string
			value string
			dest  *decimal.Decimal
		}{
			{"totals.subtotal", d.Totals.Subtotal, &totals.Subtotal},
			{"totals.tax", d.Totals.Tax, &totals.Tax},
			{"totals.shipping", d.Totals.Shipping, &totals.Shipping},
			{"totals.discounts", d.Totals.Discounts, &totals.Discounts},
			{"totals.grand_total", d.Totals.GrandTotal, &totals.GrandTotal},
		}
		for _, f := range fields {
			amount, err := parseAmount(f.name, f.value)
			if err != nil {
				return nil, err
			}
			*f.dest = amount
		}
		raw.Totals = totals
	}

	return raw, nil
}
