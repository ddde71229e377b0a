package domain

// AddressKind distinguishes residence from domicile text.
type AddressKind string

// Address kinds.
const (
	AddressResidence AddressKind = "residence"
	AddressDomicile  AddressKind = "domicile"
)

// AddressComponents are the structured parts of a normalised address.
type AddressComponents struct {
	Recipient    string `json:"recipient,omitempty"`
	Road         string `json:"road,omitempty"`
	HouseNumber  string `json:"house_number,omitempty"`
	Municipality string `json:"municipality,omitempty"`
	Province     string `json:"province,omitempty"`
	Postcode     string `json:"postcode,omitempty"`
	Country      string `json:"country,omitempty"`
}

// Address is the result of address normalisation.
type Address struct {
	Kind       AddressKind       `json:"kind"`
	Raw        string            `json:"raw"`
	Cleaned    string            `json:"cleaned"`
	Normalized string            `json:"normalized"`
	Components AddressComponents `json:"components"`
	Confidence float64           `json:"confidence"`
	Engine     string            `json:"engine,omitempty"`
}

// Fields converts the address into mergeable person fields.
func (a Address) Fields() OccurrenceFields {
	return OccurrenceFields{
		Address:    a.Normalized,
		PostalCode: a.Components.Postcode,
		City:       a.Components.Municipality,
		Province:   a.Components.Province,
	}
}
