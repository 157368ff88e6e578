// Package validate applies the business rules that decide whether a parsed
// purchase order can become a draft order.
package validate

import (
	"fmt"
	"net/mail"
	"strings"

	"github.com/orderstack/po-ingest/internal/reconcile"
	"github.com/orderstack/po-ingest/internal/resolver"
	"github.com/orderstack/po-ingest/pkg/po"
	"github.com/orderstack/po-ingest/pkg/types"
)

// Input is everything validation needs: reconciled lines, the purchasing
// context, and the fields read off the document.
type Input struct {
	Items   []reconcile.ResolvedLineItem
	Company *resolver.CompanyContext

	Email           string
	ShippingAddress *types.MailingAddress
	BillingAddress  *types.MailingAddress
	Currency        string
}

// Result carries the full violation list plus the effective contact fields
// after company-default fallback. Every rule is evaluated; the first failure
// never short-circuits the rest.
type Result struct {
	Valid      bool
	Violations []po.Violation

	Email           string
	ShippingAddress *types.MailingAddress
	BillingAddress  *types.MailingAddress
}

// Validate evaluates all rules and returns violations in a fixed order:
// email, line items in document order, shipping address, billing address,
// currency.
func Validate(in Input) Result {
	result := Result{
		Email:           strings.TrimSpace(in.Email),
		ShippingAddress: effectiveAddress(in.ShippingAddress, companyShipping(in.Company)),
		BillingAddress:  effectiveAddress(in.BillingAddress, companyBilling(in.Company)),
	}

	if result.Email == "" {
		result.Violations = append(result.Violations, po.Violation{
			Field:   "email",
			Message: "purchaser email is required",
		})
	} else if _, err := mail.ParseAddress(result.Email); err != nil {
		result.Violations = append(result.Violations, po.Violation{
			Field:   "email",
			Message: fmt.Sprintf("%q is not a valid email address", result.Email),
		})
	}

	if len(in.Items) == 0 {
		result.Violations = append(result.Violations, po.Violation{
			Field:   "line_items",
			Message: "at least one line item is required",
		})
	}

	for i, item := range in.Items {
		field := fmt.Sprintf("line_items[%d]", i)
		if item.Raw.Quantity < 1 {
			result.Violations = append(result.Violations, po.Violation{
				Field:   field,
				Message: fmt.Sprintf("quantity must be at least 1, got %d", item.Raw.Quantity),
			})
		}
		if item.Raw.UnitPrice.IsNegative() {
			result.Violations = append(result.Violations, po.Violation{
				Field:   field,
				Message: fmt.Sprintf("unit price must not be negative, got %s", item.Raw.UnitPrice),
			})
		}
		// Placeholder rows are the buyer's deliberate "pick later" marker
		// and are exempt from matching.
		if item.Placeholder || item.Matched {
			continue
		}
		message := item.UnmatchedReason
		if message == "" {
			message = "no catalog product matched"
		}
		result.Violations = append(result.Violations, po.Violation{
			Field:   field,
			Message: fmt.Sprintf("%q could not be matched: %s", item.Raw.Name, message),
		})
	}

	if v := addressViolation("shipping_address", result.ShippingAddress); v != nil {
		result.Violations = append(result.Violations, *v)
	}
	if v := addressViolation("billing_address", result.BillingAddress); v != nil {
		result.Violations = append(result.Violations, *v)
	}

	currency := strings.TrimSpace(in.Currency)
	if currency != "" && in.Company != nil && in.Company.ShopCurrency != "" &&
		!strings.EqualFold(currency, in.Company.ShopCurrency) {
		result.Violations = append(result.Violations, po.Violation{
			Field:   "currency",
			Message: fmt.Sprintf("document currency %s does not match shop currency %s", currency, in.Company.ShopCurrency),
		})
	}

	result.Valid = len(result.Violations) == 0
	return result
}

// addressViolation checks presence and the minimum complete set. A partial
// address reports exactly which fields are missing.
func addressViolation(field string, addr *types.MailingAddress) *po.Violation {
	if addr.Empty() {
		return &po.Violation{Field: field, Message: "address is required"}
	}
	var missing []string
	if strings.TrimSpace(addr.Address1) == "" {
		missing = append(missing, "address1")
	}
	if strings.TrimSpace(addr.City) == "" {
		missing = append(missing, "city")
	}
	if strings.TrimSpace(addr.Country) == "" {
		missing = append(missing, "country")
	}
	if len(missing) == 0 {
		return nil
	}
	return &po.Violation{
		Field:   field,
		Message: "address is missing " + strings.Join(missing, ", "),
	}
}

// effectiveAddress falls back to the company default only when the document
// address is wholly absent. A partial document address stands on its own
// rather than being silently patched with company fields.
func effectiveAddress(document, fallback *types.MailingAddress) *types.MailingAddress {
	if document.Empty() {
		return fallback
	}
	return document
}

func companyShipping(company *resolver.CompanyContext) *types.MailingAddress {
	if company == nil {
		return nil
	}
	return company.ShippingAddress
}

func companyBilling(company *resolver.CompanyContext) *types.MailingAddress {
	if company == nil {
		return nil
	}
	return company.BillingAddress
}
