package domain

// AddressData is an immutable billing/shipping snapshot taken at
// payment-creation time. It deliberately does not reference any account
// record; the payment keeps its own copy.
type AddressData struct {
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	CompanyName    string `json:"company_name,omitempty"`
	StreetAddress1 string `json:"street_address_1"`
	StreetAddress2 string `json:"street_address_2,omitempty"`
	City           string `json:"city"`
	PostalCode     string `json:"postal_code"`
	Country        string `json:"country"`
	CountryArea    string `json:"country_area,omitempty"`
	Phone          string `json:"phone,omitempty"`
}
