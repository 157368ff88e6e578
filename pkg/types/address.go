package types

import "strings"

// MailingAddress mirrors the commerce platform's mailing address input.
// Stored as jsonb on documents and parse attempts.
type MailingAddress struct {
	Address1  string  `json:"address1"`
	Address2  *string `json:"address2,omitempty"`
	City      string  `json:"city"`
	Province  string  `json:"province,omitempty"`
	Zip       string  `json:"zip,omitempty"`
	Country   string  `json:"country"`
	Company   *string `json:"company,omitempty"`
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
	Phone     *string `json:"phone,omitempty"`
}

// Empty reports whether no field of the address carries a value. An extracted
// address that is wholly absent (nil or Empty) may be replaced by the company
// location default; a partially filled one may not.
func (a *MailingAddress) Empty() bool {
	if a == nil {
		return true
	}
	fields := []string{a.Address1, a.City, a.Province, a.Zip, a.Country}
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	for _, f := range []*string{a.Address2, a.Company, a.FirstName, a.LastName, a.Phone} {
		if f != nil && strings.TrimSpace(*f) != "" {
			return false
		}
	}
	return true
}
