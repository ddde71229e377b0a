package domain

// Rule identifies the scanner rule that produced a candidate.
type Rule string

// Scanner rules, in priority order.
const (
	RuleEnumerated Rule = "enumerated"
	RuleAnchor     Rule = "anchor"
	RulePreAnchor  Rule = "pre_anchor"
	RuleLenient    Rule = "lenient"
)

// OccurrenceFields holds the identity fields harvested near a mention.
// Empty strings mean unknown. DOB is ISO yyyy-mm-dd.
type OccurrenceFields struct {
	DOB          string `json:"dob,omitempty"`
	PlaceOfBirth string `json:"place_of_birth,omitempty"`
	TaxCode      string `json:"tax_code,omitempty"`
	Address      string `json:"address,omitempty"`
	PostalCode   string `json:"postal_code,omitempty"`
	City         string `json:"city,omitempty"`
	Province     string `json:"province,omitempty"`
	Phone        string `json:"phone,omitempty"`
	Email        string `json:"email,omitempty"`
}

// IsEmpty reports whether no field is set.
func (f OccurrenceFields) IsEmpty() bool {
	return f == OccurrenceFields{}
}

// Occurrence is a candidate person mention produced by the scanner.
// PersonKey is a provisional identity; the resolved id is assigned by the registry.
type Occurrence struct {
	FullName   string           `json:"full_name"`
	FirstName  string           `json:"first_name,omitempty"`
	LastName   string           `json:"last_name,omitempty"`
	Title      string           `json:"title,omitempty"`
	Fields     OccurrenceFields `json:"fields"`
	Confidence float64          `json:"confidence"`
	Page       int              `json:"page"`
	Box        BoundingBox      `json:"box"`
	Snippet    string           `json:"snippet"`
	PersonKey  string           `json:"person_key"`
	Rule       Rule             `json:"rule"`

	// RawResidence and RawDomicile hold unnormalised address text for enrichment.
	RawResidence string `json:"raw_residence,omitempty"`
	RawDomicile  string `json:"raw_domicile,omitempty"`
}
