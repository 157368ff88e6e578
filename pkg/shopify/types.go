package shopify

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/orderstack/po-ingest/pkg/types"
)

// Customer is the subset of the platform customer used by the resolver.
type Customer struct {
	ID          string
	Email       string
	DisplayName string
}

// CompanyContactProfile is one (customer, company, location) association
// discovered through an email lookup. A customer attached to several
// companies or locations yields several profiles.
type CompanyContactProfile struct {
	CustomerID        string
	CompanyID         string
	CompanyName       string
	CompanyLocationID string
}

// CompanyLocation carries the location's default addresses and the buyer's
// part-number catalog (customer part number -> seller SKU).
type CompanyLocation struct {
	ID              string
	CompanyID       string
	CompanyName     string
	ShippingAddress *types.MailingAddress
	BillingAddress  *types.MailingAddress
	PartNumbers     map[string]string
}

// ProductVariant is the purchasable SKU-level record returned by catalog
// lookups. Price is the canonical catalog price in the shop currency.
type ProductVariant struct {
	ID                string
	SKU               string
	Title             string
	ProductTitle      string
	Price             decimal.Decimal
	InventoryQuantity int
	Taxable           bool
}

// MailingAddressInput mirrors the Admin API MailingAddressInput shape.
type MailingAddressInput struct {
	Address1  string  `json:"address1,omitempty"`
	Address2  *string `json:"address2,omitempty"`
	City      string  `json:"city,omitempty"`
	Province  string  `json:"province,omitempty"`
	Zip       string  `json:"zip,omitempty"`
	Country   string  `json:"country,omitempty"`
	Company   *string `json:"company,omitempty"`
	FirstName *string `json:"firstName,omitempty"`
	LastName  *string `json:"lastName,omitempty"`
	Phone     *string `json:"phone,omitempty"`
}

// AddressInput converts the internal address representation to the platform
// input shape. Returns nil for absent addresses.
func AddressInput(a *types.MailingAddress) *MailingAddressInput {
	if a.Empty() {
		return nil
	}
	return &MailingAddressInput{
		Address1:  a.Address1,
		Address2:  a.Address2,
		City:      a.City,
		Province:  a.Province,
		Zip:       a.Zip,
		Country:   a.Country,
		Company:   a.Company,
		FirstName: a.FirstName,
		LastName:  a.LastName,
		Phone:     a.Phone,
	}
}

// DraftOrderLineItemInput is one line of the draftOrderCreate mutation.
// Either VariantID (catalog line) or Title (custom line) is set.
type DraftOrderLineItemInput struct {
	VariantID         *string `json:"variantId,omitempty"`
	Title             *string `json:"title,omitempty"`
	Quantity          int     `json:"quantity"`
	OriginalUnitPrice *string `json:"originalUnitPrice,omitempty"`
}

// PurchasingCompanyInput references the B2B purchasing triple.
type PurchasingCompanyInput struct {
	CompanyID         string `json:"companyId"`
	CompanyContactID  string `json:"companyContactId,omitempty"`
	CompanyLocationID string `json:"companyLocationId"`
}

// PurchasingEntityInput attaches the draft order to a customer or company.
type PurchasingEntityInput struct {
	CustomerID        *string                 `json:"customerId,omitempty"`
	PurchasingCompany *PurchasingCompanyInput `json:"purchasingCompany,omitempty"`
}

// MetafieldInput attaches structured metadata to the draft order.
type MetafieldInput struct {
	Namespace string `json:"namespace"`
	Key       string `json:"key"`
	Type      string `json:"type"`
	Value     string `json:"value"`
}

// DraftOrderInput is the payload for the draftOrderCreate mutation. Produced
// by the assembler only when validation passed.
type DraftOrderInput struct {
	Note             string                    `json:"note,omitempty"`
	Email            string                    `json:"email,omitempty"`
	PONumber         string                    `json:"poNumber,omitempty"`
	PurchasingEntity *PurchasingEntityInput    `json:"purchasingEntity,omitempty"`
	BillingAddress   *MailingAddressInput      `json:"billingAddress,omitempty"`
	ShippingAddress  *MailingAddressInput      `json:"shippingAddress,omitempty"`
	LineItems        []DraftOrderLineItemInput `json:"lineItems"`
	Metafields       []MetafieldInput          `json:"metafields,omitempty"`
	Tags             []string                  `json:"tags,omitempty"`
	TaxExempt        bool                      `json:"taxExempt,omitempty"`
}

// UserError is a business-rule rejection returned inside a mutation payload.
type UserError struct {
	Field   []string `json:"field"`
	Message string   `json:"message"`
}

func joinUserErrors(errs []UserError) string {
	parts := make([]string, 0, len(errs))
	for _, ue := range errs {
		if len(ue.Field) > 0 {
			parts = append(parts, strings.Join(ue.Field, ".")+": "+ue.Message)
			continue
		}
		parts = append(parts, ue.Message)
	}
	return strings.Join(parts, "; ")
}
