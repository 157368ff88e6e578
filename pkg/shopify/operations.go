package shopify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/orderstack/po-ingest/pkg/errors"
	"github.com/orderstack/po-ingest/pkg/types"
)

// ShopCurrency returns the shop's checkout currency code.
func (c *Client) ShopCurrency(ctx context.Context) (string, error) {
	var out struct {
		Shop struct {
			CurrencyCode string `json:"currencyCode"`
		} `json:"shop"`
	}
	if err := c.execute(ctx, shopCurrencyQuery, nil, &out); err != nil {
		return "", err
	}
	if out.Shop.CurrencyCode == "" {
		return "", pkgerrors.New(pkgerrors.CodeDependency, "shop currency missing from response")
	}
	return out.Shop.CurrencyCode, nil
}

// CustomerByID fetches a customer by gid.
func (c *Client) CustomerByID(ctx context.Context, id string) (*Customer, error) {
	var out struct {
		Customer *struct {
			ID          string `json:"id"`
			Email       string `json:"email"`
			DisplayName string `json:"displayName"`
		} `json:"customer"`
	}
	if err := c.execute(ctx, customerByIDQuery, map[string]any{"id": id}, &out); err != nil {
		return nil, err
	}
	if out.Customer == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("customer %s not found", id))
	}
	return &Customer{
		ID:          out.Customer.ID,
		Email:       out.Customer.Email,
		DisplayName: out.Customer.DisplayName,
	}, nil
}

// CompanyContactProfiles looks up (customer, company, location) associations
// by email. One profile per company-location pair; the resolver decides
// whether multiple profiles are ambiguous.
func (c *Client) CompanyContactProfiles(ctx context.Context, email string) ([]CompanyContactProfile, error) {
	query := fmt.Sprintf("email:%q", email)
	var out struct {
		Customers struct {
			Edges []struct {
				Node struct {
					ID                     string `json:"id"`
					Email                  string `json:"email"`
					CompanyContactProfiles []struct {
						Company struct {
							ID        string `json:"id"`
							Name      string `json:"name"`
							Locations struct {
								Edges []struct {
									Node struct {
										ID string `json:"id"`
									} `json:"node"`
								} `json:"edges"`
							} `json:"locations"`
						} `json:"company"`
					} `json:"companyContactProfiles"`
				} `json:"node"`
			} `json:"edges"`
		} `json:"customers"`
	}
	if err := c.execute(ctx, companyContactProfilesQuery, map[string]any{"query": query}, &out); err != nil {
		return nil, err
	}

	var profiles []CompanyContactProfile
	for _, edge := range out.Customers.Edges {
		if !strings.EqualFold(edge.Node.Email, email) {
			continue
		}
		for _, profile := range edge.Node.CompanyContactProfiles {
			if len(profile.Company.Locations.Edges) == 0 {
				profiles = append(profiles, CompanyContactProfile{
					CustomerID:  edge.Node.ID,
					CompanyID:   profile.Company.ID,
					CompanyName: profile.Company.Name,
				})
				continue
			}
			for _, loc := range profile.Company.Locations.Edges {
				profiles = append(profiles, CompanyContactProfile{
					CustomerID:        edge.Node.ID,
					CompanyID:         profile.Company.ID,
					CompanyName:       profile.Company.Name,
					CompanyLocationID: loc.Node.ID,
				})
			}
		}
	}
	return profiles, nil
}

type addressPayload struct {
	Address1    string  `json:"address1"`
	Address2    *string `json:"address2"`
	City        string  `json:"city"`
	Province    string  `json:"province"`
	Zip         string  `json:"zip"`
	CountryCode string  `json:"countryCode"`
	CompanyName *string `json:"companyName"`
	Phone       *string `json:"phone"`
}

func (a *addressPayload) toMailingAddress() *types.MailingAddress {
	if a == nil {
		return nil
	}
	return &types.MailingAddress{
		Address1: a.Address1,
		Address2: a.Address2,
		City:     a.City,
		Province: a.Province,
		Zip:      a.Zip,
		Country:  a.CountryCode,
		Company:  a.CompanyName,
		Phone:    a.Phone,
	}
}

// CompanyLocationByID fetches the location, its default addresses, and the
// buyer part-number catalog stored on the po_ingest.part_numbers metafield.
func (c *Client) CompanyLocationByID(ctx context.Context, id string) (*CompanyLocation, error) {
	var out struct {
		CompanyLocation *struct {
			ID      string `json:"id"`
			Company struct {
				ID   string `json:"id"`
				Name string `json:"name"`
			} `json:"company"`
			ShippingAddress      *addressPayload `json:"shippingAddress"`
			BillingAddress       *addressPayload `json:"billingAddress"`
			PartNumbersMetafield *struct {
				Value string `json:"value"`
			} `json:"partNumbersMetafield"`
		} `json:"companyLocation"`
	}
	if err := c.execute(ctx, companyLocationQuery, map[string]any{"id": id}, &out); err != nil {
		return nil, err
	}
	if out.CompanyLocation == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("company location %s not found", id))
	}

	location := &CompanyLocation{
		ID:              out.CompanyLocation.ID,
		CompanyID:       out.CompanyLocation.Company.ID,
		CompanyName:     out.CompanyLocation.Company.Name,
		ShippingAddress: out.CompanyLocation.ShippingAddress.toMailingAddress(),
		BillingAddress:  out.CompanyLocation.BillingAddress.toMailingAddress(),
	}

	if mf := out.CompanyLocation.PartNumbersMetafield; mf != nil && mf.Value != "" {
		catalog := map[string]string{}
		if err := json.Unmarshal([]byte(mf.Value), &catalog); err == nil {
			normalized := make(map[string]string, len(catalog))
			for cpn, sku := range catalog {
				normalized[strings.ToLower(strings.TrimSpace(cpn))] = sku
			}
			location.PartNumbers = normalized
		}
	}
	return location, nil
}

func (c *Client) variantSearch(ctx context.Context, query string) (*ProductVariant, error) {
	var out struct {
		ProductVariants struct {
			Edges []struct {
				Node struct {
					ID                string `json:"id"`
					SKU               string `json:"sku"`
					Title             string `json:"title"`
					Price             string `json:"price"`
					InventoryQuantity int    `json:"inventoryQuantity"`
					Taxable           bool   `json:"taxable"`
					Product           struct {
						Title string `json:"title"`
					} `json:"product"`
				} `json:"node"`
			} `json:"edges"`
		} `json:"productVariants"`
	}
	if err := c.execute(ctx, productVariantsQuery, map[string]any{"query": query}, &out); err != nil {
		return nil, err
	}
	if len(out.ProductVariants.Edges) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no variant matched "+query)
	}

	node := out.ProductVariants.Edges[0].Node
	price, err := decimal.NewFromString(node.Price)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "parsing variant price")
	}
	return &ProductVariant{
		ID:                node.ID,
		SKU:               node.SKU,
		Title:             node.Title,
		ProductTitle:      node.Product.Title,
		Price:             price,
		InventoryQuantity: node.InventoryQuantity,
		Taxable:           node.Taxable,
	}, nil
}

// VariantBySKU finds the variant carrying the exact SKU.
func (c *Client) VariantBySKU(ctx context.Context, sku string) (*ProductVariant, error) {
	return c.variantSearch(ctx, fmt.Sprintf("sku:%q", sku))
}

// VariantByTitle finds the variant whose product title matches exactly
// (platform search is case-insensitive on title).
func (c *Client) VariantByTitle(ctx context.Context, title string) (*ProductVariant, error) {
	return c.variantSearch(ctx, fmt.Sprintf("title:%q", title))
}

// DraftOrderCreate submits the assembled input and returns the draft order
// gid. UserErrors map to INVALID_DATA since they indicate a payload the
// platform rejected, not an infrastructure failure.
func (c *Client) DraftOrderCreate(ctx context.Context, input DraftOrderInput) (string, error) {
	var out struct {
		DraftOrderCreate struct {
			DraftOrder *struct {
				ID string `json:"id"`
			} `json:"draftOrder"`
			UserErrors []UserError `json:"userErrors"`
		} `json:"draftOrderCreate"`
	}
	if err := c.execute(ctx, draftOrderCreateMutation, map[string]any{"input": input}, &out); err != nil {
		return "", err
	}
	if len(out.DraftOrderCreate.UserErrors) > 0 {
		return "", pkgerrors.New(pkgerrors.CodeInvalidData,
			"draft order rejected: "+joinUserErrors(out.DraftOrderCreate.UserErrors))
	}
	if out.DraftOrderCreate.DraftOrder == nil {
		return "", pkgerrors.New(pkgerrors.CodeDependency, "draft order missing from response")
	}
	return out.DraftOrderCreate.DraftOrder.ID, nil
}
