package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/wbattistetti/AILawyer-sub000/internal/core/domain"
)

// uriScheme is the custom URI scheme for ailawyer resources.
const uriScheme = "ailawyer://"

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "snapshots",
		Name:        "snapshots",
		Description: "Documents already extracted, across all cases",
		MIMEType:    "application/json",
	}, s.handleSnapshotsResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "cases/{caseId}/persons",
		Name:        "case-persons",
		Description: "Persons extracted for a case, by name",
		MIMEType:    "application/json",
	}, s.handleCasePersonsResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "cases/{caseId}/persons/{personId}/occurrences",
		Name:        "person-occurrences",
		Description: "Mentions of a person in the case documents",
		MIMEType:    "application/json",
	}, s.handleOccurrencesResource)
}

func (s *Server) handleSnapshotsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	snaps, err := s.ports.Entities.Snapshots(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}
	if snaps == nil {
		snaps = []domain.DocSnapshot{}
	}
	return jsonResource(req.Params.URI, snaps)
}

func (s *Server) handleCasePersonsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	caseID := extractCaseID(req.Params.URI)
	if caseID == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	persons, err := s.ports.Entities.SearchPersons(ctx, domain.PersonSearchFilters{
		CaseID: caseID,
		Sort:   domain.SortByName,
	})
	if err != nil {
		return nil, fmt.Errorf("listing persons: %w", err)
	}

	out := make([]PersonOutput, len(persons))
	for i := range persons {
		out[i] = toPersonOutput(&persons[i])
	}
	return jsonResource(req.Params.URI, out)
}

func (s *Server) handleOccurrencesResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	caseID, personID := extractOccurrencesIDs(req.Params.URI)
	if caseID == "" || personID == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	records, err := s.ports.Entities.Occurrences(ctx, caseID, personID, domain.DefaultOccurrenceLimit)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	if err != nil {
		return nil, fmt.Errorf("listing occurrences: %w", err)
	}
	if records == nil {
		records = []domain.OccurrenceRecord{}
	}
	return jsonResource(req.Params.URI, records)
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshalling %s: %w", uri, err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractCaseID extracts the case ID from a URI like ailawyer://cases/{caseId}/persons.
func extractCaseID(uri string) string {
	return between(uri, uriScheme+"cases/", "/persons")
}

// extractOccurrencesIDs extracts the case and person IDs from a URI like
// ailawyer://cases/{caseId}/persons/{personId}/occurrences.
func extractOccurrencesIDs(uri string) (caseID, personID string) {
	rest, ok := strings.CutPrefix(uri, uriScheme+"cases/")
	if !ok {
		return "", ""
	}
	rest, ok = strings.CutSuffix(rest, "/occurrences")
	if !ok {
		return "", ""
	}
	caseID, personID, ok = strings.Cut(rest, "/persons/")
	if !ok || strings.Contains(caseID, "/") || strings.Contains(personID, "/") {
		return "", ""
	}
	return caseID, personID
}

func between(uri, prefix, suffix string) string {
	rest, ok := strings.CutPrefix(uri, prefix)
	if !ok {
		return ""
	}
	id, ok := strings.CutSuffix(rest, suffix)
	if !ok || strings.Contains(id, "/") {
		return ""
	}
	return id
}
