package shopify

const shopCurrencyQuery = `
query ShopCurrency {
  shop {
    currencyCode
  }
}`

const customerByIDQuery = `
query CustomerByID($id: ID!) {
  customer(id: $id) {
    id
    email
    displayName
  }
}`

const companyContactProfilesQuery = `
query CompanyContactProfiles($query: String!) {
  customers(first: 10, query: $query) {
    edges {
      node {
        id
        email
        companyContactProfiles {
          company {
            id
            name
            locations(first: 10) {
              edges {
                node {
                  id
                }
              }
            }
          }
        }
      }
    }
  }
}`

const companyLocationQuery = `
query CompanyLocation($id: ID!) {
  companyLocation(id: $id) {
    id
    company {
      id
      name
    }
    shippingAddress {
      address1
      address2
      city
      province
      zip
      countryCode
      companyName
      phone
    }
    billingAddress {
      address1
      address2
      city
      province
      zip
      countryCode
      companyName
      phone
    }
    partNumbersMetafield: metafield(namespace: "po_ingest", key: "part_numbers") {
      value
    }
  }
}`

const productVariantsQuery = `
query ProductVariants($query: String!) {
  productVariants(first: 5, query: $query) {
    edges {
      node {
        id
        sku
        title
        price
        inventoryQuantity
        taxable
        product {
          title
        }
      }
    }
  }
}`

const draftOrderCreateMutation = `
mutation DraftOrderCreate($input: DraftOrderInput!) {
  draftOrderCreate(input: $input) {
    draftOrder {
      id
    }
    userErrors {
      field
      message
    }
  }
}`
