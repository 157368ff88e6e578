package shopify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/orderstack/po-ingest/pkg/config"
	pkgerrors "github.com/orderstack/po-ingest/pkg/errors"
)

func testClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(config.ShopifyConfig{
		ShopDomain:  "acme-wholesale.myshopify.com",
		AccessToken: "shpat_test",
		APIVersion:  "2025-01",
		Timeout:     5 * time.Second,
		MaxRetries:  2,
	}, nil, WithEndpoint(server.URL), WithHTTPClient(server.Client()))
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	return client, server
}

func TestNewClientRequiresCredentials(t *testing.T) {
	if _, err := NewClient(config.ShopifyConfig{AccessToken: "x"}, nil); err == nil {
		t.Fatal("expected error without shop domain")
	}
	if _, err := NewClient(config.ShopifyConfig{ShopDomain: "x.myshopify.com"}, nil); err == nil {
		t.Fatal("expected error without access token")
	}
}

func TestVariantBySKUParsesPrice(t *testing.T) {
	client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("X-Shopify-Access-Token"); got != "shpat_test" {
			t.Fatalf("missing access token header, got %q", got)
		}
		var req struct {
			Variables map[string]any `json:"variables"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decoding request: %v", err)
		}
		if q, _ := req.Variables["query"].(string); !strings.Contains(q, "ABC-1") {
			t.Fatalf("unexpected search query %q", q)
		}
		_, _ = w.Write([]byte(`{"data":{"productVariants":{"edges":[{"node":{
			"id":"gid://shopify/ProductVariant/42","sku":"ABC-1","title":"Default",
			"price":"12.50","inventoryQuantity":7,"taxable":true,
			"product":{"title":"Widget"}}}]}}}`))
	})

	variant, err := client.VariantBySKU(context.Background(), "ABC-1")
	if err != nil {
		t.Fatalf("VariantBySKU failed: %v", err)
	}
	if variant.Price.String() != "12.5" {
		t.Fatalf("unexpected price %s", variant.Price)
	}
	if variant.ProductTitle != "Widget" {
		t.Fatalf("unexpected product title %q", variant.ProductTitle)
	}
}

func TestVariantNotFound(t *testing.T) {
	client, _ := testClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"productVariants":{"edges":[]}}}`))
	})

	_, err := client.VariantBySKU(context.Background(), "MISSING")
	if !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestExecuteRetriesOnRateLimit(t *testing.T) {
	var calls int
	client, _ := testClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"data":{"shop":{"currencyCode":"USD"}}}`))
	})

	currency, err := client.ShopCurrency(context.Background())
	if err != nil {
		t.Fatalf("ShopCurrency failed: %v", err)
	}
	if currency != "USD" {
		t.Fatalf("unexpected currency %q", currency)
	}
	if calls != 2 {
		t.Fatalf("expected one retry, got %d calls", calls)
	}
}

func TestDraftOrderCreateUserErrors(t *testing.T) {
	client, _ := testClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"draftOrderCreate":{"draftOrder":null,
			"userErrors":[{"field":["input","lineItems"],"message":"variant is gone"}]}}}`))
	})

	_, err := client.DraftOrderCreate(context.Background(), DraftOrderInput{})
	if !pkgerrors.HasCode(err, pkgerrors.CodeInvalidData) {
		t.Fatalf("expected INVALID_DATA, got %v", err)
	}
	if !strings.Contains(err.Error(), "variant is gone") {
		t.Fatalf("expected user error message, got %v", err)
	}
}

func TestCompanyContactProfilesQuotesEmail(t *testing.T) {
	client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Variables map[string]any `json:"variables"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decoding request: %v", err)
		}
		if q, _ := req.Variables["query"].(string); q != `email:"buyer name@acme.com"` {
			t.Fatalf("email must be quoted in the search query, got %q", q)
		}
		_, _ = w.Write([]byte(`{"data":{"customers":{"edges":[]}}}`))
	})

	profiles, err := client.CompanyContactProfiles(context.Background(), "buyer name@acme.com")
	if err != nil {
		t.Fatalf("CompanyContactProfiles failed: %v", err)
	}
	if len(profiles) != 0 {
		t.Fatalf("expected no profiles, got %d", len(profiles))
	}
}

func TestCustomerByIDNotFound(t *testing.T) {
	client, _ := testClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"customer":null}}`))
	})

	_, err := client.CustomerByID(context.Background(), GID("Customer", 99))
	if !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestGIDHelpers(t *testing.T) {
	gid := GID("DraftOrder", 1033)
	if gid != "gid://shopify/DraftOrder/1033" {
		t.Fatalf("unexpected gid %q", gid)
	}
	id, err := NumericID(gid)
	if err != nil || id != 1033 {
		t.Fatalf("unexpected numeric id %d err=%v", id, err)
	}
	if _, err := NumericID("nope"); err == nil {
		t.Fatal("expected error for malformed gid")
	}
	if !IsGID(gid) || IsGID("https://example.com") {
		t.Fatal("IsGID misclassified value")
	}
}
