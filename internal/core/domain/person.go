package domain

import (
	"strings"
	"time"
)

// Person is a resolved identity.
// Populated fields are never overwritten by later merges.
type Person struct {
	ID              string    `json:"id"`
	CaseID          string    `json:"case_id,omitempty"`
	FullName        string    `json:"full_name"`
	FirstName       string    `json:"first_name,omitempty"`
	LastName        string    `json:"last_name,omitempty"`
	DOB             string    `json:"dob,omitempty"`
	PlaceOfBirth    string    `json:"place_of_birth,omitempty"`
	TaxCode         string    `json:"tax_code,omitempty"`
	Address         string    `json:"address,omitempty"`
	PostalCode      string    `json:"postal_code,omitempty"`
	City            string    `json:"city,omitempty"`
	Province        string    `json:"province,omitempty"`
	Phone           string    `json:"phone,omitempty"`
	Email           string    `json:"email,omitempty"`
	Titles          []string  `json:"titles,omitempty"`
	Confidence      float64   `json:"confidence"`
	OccurrenceCount int       `json:"occurrence_count"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Fields returns the person's identity fields in occurrence form.
func (p Person) Fields() OccurrenceFields {
	return OccurrenceFields{
		DOB:          p.DOB,
		PlaceOfBirth: p.PlaceOfBirth,
		TaxCode:      p.TaxCode,
		Address:      p.Address,
		PostalCode:   p.PostalCode,
		City:         p.City,
		Province:     p.Province,
		Phone:        p.Phone,
		Email:        p.Email,
	}
}

// Completeness scores how informative the record is.
func (p Person) Completeness() int {
	score := 0
	if p.DOB != "" {
		score += 3
	}
	if p.PlaceOfBirth != "" {
		score += 2
	}
	if p.TaxCode != "" {
		score += 3
	}
	if p.Address != "" {
		score += 2
	}
	for _, v := range []string{p.City, p.Province, p.Email, p.Phone} {
		if v != "" {
			score++
		}
	}
	return score
}

// FillEmpty copies fields from f into p where p has no value yet.
// It reports whether anything changed.
func (p *Person) FillEmpty(f OccurrenceFields) bool {
	changed := false
	fill := func(dst *string, src string) {
		if *dst == "" && src != "" {
			*dst = src
			changed = true
		}
	}
	fill(&p.DOB, f.DOB)
	fill(&p.PlaceOfBirth, f.PlaceOfBirth)
	fill(&p.TaxCode, f.TaxCode)
	fill(&p.Address, f.Address)
	fill(&p.PostalCode, f.PostalCode)
	fill(&p.City, f.City)
	fill(&p.Province, f.Province)
	fill(&p.Phone, f.Phone)
	fill(&p.Email, f.Email)
	return changed
}

// CompatibleWith reports whether f can belong to this person.
// Two differing non-empty values on dob, place of birth, tax code, city or
// province mark a homonym. Values differing only in case or spacing match.
func (p Person) CompatibleWith(f OccurrenceFields) bool {
	pairs := [][2]string{
		{p.DOB, f.DOB},
		{p.PlaceOfBirth, f.PlaceOfBirth},
		{p.TaxCode, f.TaxCode},
		{p.City, f.City},
		{p.Province, f.Province},
	}
	for _, pair := range pairs {
		if pair[0] != "" && pair[1] != "" && !sameValue(pair[0], pair[1]) {
			return false
		}
	}
	return true
}

func sameValue(a, b string) bool {
	return strings.EqualFold(strings.Join(strings.Fields(a), " "), strings.Join(strings.Fields(b), " "))
}

// OccurrenceRecord is a persisted mention of a person in a document.
type OccurrenceRecord struct {
	ID         string      `json:"id"`
	CaseID     string      `json:"case_id,omitempty"`
	PersonID   string      `json:"person_id"`
	DocID      string      `json:"doc_id"`
	DocTitle   string      `json:"doc_title"`
	Page       int         `json:"page"`
	Snippet    string      `json:"snippet"`
	Box        BoundingBox `json:"box"`
	Confidence float64     `json:"confidence"`
	Rule       Rule        `json:"rule,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
}
