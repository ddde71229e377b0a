package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/wbattistetti/AILawyer-sub000/internal/core/domain"
)

const defaultToolLimit = 50

// SearchPersonsInput is the input schema for the search_persons tool.
type SearchPersonsInput struct {
	Query         string  `json:"query,omitempty" jsonschema:"text matched against name, tax code, address, city, email and phone"`
	CaseID        string  `json:"case_id,omitempty" jsonschema:"restrict results to one case"`
	HasTaxCode    bool    `json:"has_tax_code,omitempty" jsonschema:"only persons with a codice fiscale"`
	HasDOB        bool    `json:"has_dob,omitempty" jsonschema:"only persons with a date of birth"`
	HasAddress    bool    `json:"has_address,omitempty" jsonschema:"only persons with an address"`
	MinConfidence float64 `json:"min_confidence,omitempty" jsonschema:"minimum confidence between 0 and 1"`
	Sort          string  `json:"sort,omitempty" jsonschema:"name, confidence or occurrences (default name)"`
	Limit         int     `json:"limit,omitempty" jsonschema:"maximum number of results to return (default 50)"`
}

// SearchPersonsOutput is the output schema for the search_persons tool.
type SearchPersonsOutput struct {
	Persons []PersonOutput `json:"persons"`
	Count   int            `json:"count"`
}

// PersonOutput is a trimmed view of a person.
type PersonOutput struct {
	ID              string   `json:"id"`
	CaseID          string   `json:"case_id,omitempty"`
	FullName        string   `json:"full_name"`
	TaxCode         string   `json:"tax_code,omitempty"`
	DOB             string   `json:"dob,omitempty"`
	Address         string   `json:"address,omitempty"`
	City            string   `json:"city,omitempty"`
	Titles          []string `json:"titles,omitempty"`
	Confidence      float64  `json:"confidence"`
	OccurrenceCount int      `json:"occurrence_count"`
}

// OccurrencesInput is the input schema for the get_person_occurrences tool.
type OccurrencesInput struct {
	CaseID   string `json:"case_id" jsonschema:"case of the person, as returned by search_persons"`
	PersonID string `json:"person_id" jsonschema:"id of the person, as returned by search_persons"`
	Limit    int    `json:"limit,omitempty" jsonschema:"maximum number of occurrences to return (default 50)"`
}

// OccurrencesOutput is the output schema for the get_person_occurrences tool.
type OccurrencesOutput struct {
	Occurrences []OccurrenceOutput `json:"occurrences"`
	Count       int                `json:"count"`
}

// OccurrenceOutput locates one mention of a person.
type OccurrenceOutput struct {
	DocID    string `json:"doc_id"`
	DocTitle string `json:"doc_title"`
	Page     int    `json:"page"`
	Snippet  string `json:"snippet"`
	Rule     string `json:"rule,omitempty"`
}

// SnapshotsInput is the input schema for the list_snapshots tool.
type SnapshotsInput struct {
	CaseID string `json:"case_id,omitempty" jsonschema:"restrict to one case; empty lists every case"`
}

// SnapshotsOutput is the output schema for the list_snapshots tool.
type SnapshotsOutput struct {
	Snapshots []domain.DocSnapshot `json:"snapshots"`
	Count     int                  `json:"count"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search_persons",
		Description: "Search the persons extracted from case documents",
	}, s.handleSearchPersons)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_person_occurrences",
		Description: "List where a person is mentioned: document, page and snippet",
	}, s.handleOccurrences)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_snapshots",
		Description: "List the documents already extracted, per case",
	}, s.handleSnapshots)
}

func (s *Server) handleSearchPersons(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchPersonsInput,
) (*mcp.CallToolResult, SearchPersonsOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = defaultToolLimit
	}
	sort := domain.PersonSort(input.Sort)
	if sort != "" && !sort.IsValid() {
		return nil, SearchPersonsOutput{}, fmt.Errorf("unknown sort %q", input.Sort)
	}

	persons, err := s.ports.Entities.SearchPersons(ctx, domain.PersonSearchFilters{
		CaseID:        input.CaseID,
		Query:         input.Query,
		HasTaxCode:    input.HasTaxCode,
		HasDOB:        input.HasDOB,
		HasAddress:    input.HasAddress,
		MinConfidence: input.MinConfidence,
		Sort:          sort,
		Limit:         limit,
	})
	if err != nil {
		return nil, SearchPersonsOutput{}, err
	}

	output := SearchPersonsOutput{
		Persons: make([]PersonOutput, len(persons)),
		Count:   len(persons),
	}
	for i := range persons {
		output.Persons[i] = toPersonOutput(&persons[i])
	}
	return nil, output, nil
}

func (s *Server) handleOccurrences(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input OccurrencesInput,
) (*mcp.CallToolResult, OccurrencesOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = defaultToolLimit
	}

	records, err := s.ports.Entities.Occurrences(ctx, input.CaseID, input.PersonID, limit)
	if err != nil {
		return nil, OccurrencesOutput{}, err
	}

	output := OccurrencesOutput{
		Occurrences: make([]OccurrenceOutput, len(records)),
		Count:       len(records),
	}
	for i, r := range records {
		output.Occurrences[i] = OccurrenceOutput{
			DocID:    r.DocID,
			DocTitle: r.DocTitle,
			Page:     r.Page,
			Snippet:  r.Snippet,
			Rule:     string(r.Rule),
		}
	}
	return nil, output, nil
}

func (s *Server) handleSnapshots(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SnapshotsInput,
) (*mcp.CallToolResult, SnapshotsOutput, error) {
	snaps, err := s.ports.Entities.Snapshots(ctx, input.CaseID)
	if err != nil {
		return nil, SnapshotsOutput{}, err
	}
	if snaps == nil {
		snaps = []domain.DocSnapshot{}
	}
	return nil, SnapshotsOutput{Snapshots: snaps, Count: len(snaps)}, nil
}

func toPersonOutput(p *domain.Person) PersonOutput {
	return PersonOutput{
		ID:              p.ID,
		CaseID:          p.CaseID,
		FullName:        p.FullName,
		TaxCode:         p.TaxCode,
		DOB:             p.DOB,
		Address:         p.Address,
		City:            p.City,
		Titles:          p.Titles,
		Confidence:      p.Confidence,
		OccurrenceCount: p.OccurrenceCount,
	}
}
