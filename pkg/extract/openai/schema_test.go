package openai

import (
	"testing"

	pkgerrors "github.com/orderstack/po-ingest/pkg/errors"
	"github.com/orderstack/po-ingest/pkg/extract"
)

func TestDocumentToRaw(t *testing.T) {
	taxable := true
	doc := document{
		PONumber:      "PO-1001",
		CustomerEmail: "buyer@acme.com",
		Currency:      "usd",
		ShippingAddress: &documentAddress{
			Address1: "1 Dock Rd",
			City:     "Portland",
			Province: "OR",
			Zip:      "97201",
			Country:  "US",
		},
		LineItems: []documentLineItem{
			{SKU: "ABC-1", Name: "Widget", Quantity: 3, UnitPrice: "9.99", Taxable: &taxable},
			{CustomerPartNumber: "CPN-7", Name: "Gadget", Quantity: 1, UnitPrice: ""},
		},
		Totals: &documentTotals{Subtotal: "39.96", GrandTotal: "39.96"},
	}

	raw, err := doc.toRaw()
	if err != nil {
		t.Fatalf("toRaw failed: %v", err)
	}
	if raw.Currency != "USD" {
		t.Fatalf("expected normalized currency, got %q", raw.Currency)
	}
	if len(raw.LineItems) != 2 {
		t.Fatalf("expected 2 line items, got %d", len(raw.LineItems))
	}
	if raw.LineItems[0].UnitPrice.String() != "9.99" {
		t.Fatalf("unexpected unit price %s", raw.LineItems[0].UnitPrice)
	}
	if !raw.LineItems[1].UnitPrice.IsZero() {
		t.Fatalf("empty price should parse as zero, got %s", raw.LineItems[1].UnitPrice)
	}
	if raw.ShippingAddress == nil || raw.ShippingAddress.City != "Portland" {
		t.Fatalf("unexpected shipping address %+v", raw.ShippingAddress)
	}
	if raw.BillingAddress != nil {
		t.Fatal("absent billing address should stay nil")
	}
	if raw.Totals == nil || raw.Totals.GrandTotal.String() != "39.96" {
		t.Fatalf("unexpected totals %+v", raw.Totals)
	}
}

func TestDocumentToRawMalformedAmount(t *testing.T) {
	doc := document{
		LineItems: []documentLineItem{
			{SKU: "ABC-1", Name: "Widget", Quantity: 1, UnitPrice: "nine dollars"},
		},
	}
	if _, err := doc.toRaw(); !pkgerrors.HasCode(err, pkgerrors.CodeParseFailed) {
		t.Fatalf("expected PARSE_FAILED, got %v", err)
	}
}

func TestBuildContentRejectsUnsupportedType(t *testing.T) {
	_, err := buildContent(extract.File{
		Name:     "notes.txt",
		MimeType: "text/plain",
		Bytes:    []byte("hello"),
	})
	if !pkgerrors.HasCode(err, pkgerrors.CodeUnsupportedFileType) {
		t.Fatalf("expected UNSUPPORTED_FILE_TYPE, got %v", err)
	}
}

func TestBuildContentAcceptsPDFAndImages(t *testing.T) {
	for _, mimeType := range []string{"application/pdf", "image/jpeg", "image/png", "image/bmp"} {
		content, err := buildContent(extract.File{Name: "po.bin", MimeType: mimeType, Bytes: []byte{0x1}})
		if err != nil {
			t.Fatalf("buildContent(%s) failed: %v", mimeType, err)
		}
		if len(content) != 2 {
			t.Fatalf("expected prompt plus document part for %s, got %d parts", mimeType, len(content))
		}
	}
}
