package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wbattistetti/AILawyer-sub000/internal/core/domain"
)

func TestExtractCaseID(t *testing.T) {
	tests := []struct {
		name     string
		uri      string
		expected string
	}{
		{"valid case persons URI", "ailawyer://cases/c-123/persons", "c-123"},
		{"invalid prefix", "file://cases/c-123/persons", ""},
		{"missing persons suffix", "ailawyer://cases/c-123", ""},
		{"nested path", "ailawyer://cases/a/b/persons", ""},
		{"empty URI", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, extractCaseID(tt.uri))
		})
	}
}

func TestExtractOccurrencesIDs(t *testing.T) {
	caseID, personID := extractOccurrencesIDs("ailawyer://cases/c1/persons/p_abc/occurrences")
	assert.Equal(t, "c1", caseID)
	assert.Equal(t, "p_abc", personID)

	for _, uri := range []string{
		"ailawyer://persons/p_abc/occurrences",
		"ailawyer://cases/c1/persons/p_abc",
		"ailawyer://cases/c1/occurrences",
		"ailawyer://cases/c1/x/persons/p_abc/occurrences",
	} {
		caseID, personID := extractOccurrencesIDs(uri)
		assert.Empty(t, caseID, uri)
		assert.Empty(t, personID, uri)
	}
}

// Helper to create a ReadResourceRequest with the given URI.
func makeReadResourceRequest(uri string) *mcp.ReadResourceRequest {
	return &mcp.ReadResourceRequest{
		Params: &mcp.ReadResourceParams{
			URI: uri,
		},
	}
}

func TestServer_handleSnapshotsResource(t *testing.T) {
	ctx := context.Background()

	t.Run("empty index returns empty list", func(t *testing.T) {
		server := newTestServer(t, &mockEntityService{})

		result, err := server.handleSnapshotsResource(ctx, makeReadResourceRequest("ailawyer://snapshots"))

		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Equal(t, "[]", result.Contents[0].Text)
		assert.Equal(t, "application/json", result.Contents[0].MIMEType)
	})

	t.Run("lists every case", func(t *testing.T) {
		entities := &mockEntityService{
			snapshots: []domain.DocSnapshot{{CaseID: "c1", DocID: "d1"}, {CaseID: "c2", DocID: "d2"}},
		}
		server := newTestServer(t, entities)

		result, err := server.handleSnapshotsResource(ctx, makeReadResourceRequest("ailawyer://snapshots"))

		require.NoError(t, err)
		var snaps []domain.DocSnapshot
		require.NoError(t, json.Unmarshal([]byte(result.Contents[0].Text), &snaps))
		assert.Len(t, snaps, 2)
		assert.Empty(t, entities.lastCaseID)
	})

	t.Run("service error", func(t *testing.T) {
		server := newTestServer(t, &mockEntityService{err: errors.New("locked")})

		_, err := server.handleSnapshotsResource(ctx, makeReadResourceRequest("ailawyer://snapshots"))

		require.Error(t, err)
		assert.Contains(t, err.Error(), "listing snapshots")
	})
}

func TestServer_handleCasePersonsResource(t *testing.T) {
	ctx := context.Background()

	t.Run("returns persons of the case", func(t *testing.T) {
		entities := &mockEntityService{
			persons: []domain.Person{{ID: "p_1", CaseID: "c1", FullName: "Anna Bianchi"}},
		}
		server := newTestServer(t, entities)

		result, err := server.handleCasePersonsResource(ctx, makeReadResourceRequest("ailawyer://cases/c1/persons"))

		require.NoError(t, err)
		var persons []PersonOutput
		require.NoError(t, json.Unmarshal([]byte(result.Contents[0].Text), &persons))
		require.Len(t, persons, 1)
		assert.Equal(t, "Anna Bianchi", persons[0].FullName)
		assert.Equal(t, "c1", entities.lastFilters.CaseID)
	})

	t.Run("malformed URI is not found", func(t *testing.T) {
		server := newTestServer(t, &mockEntityService{})

		_, err := server.handleCasePersonsResource(ctx, makeReadResourceRequest("ailawyer://cases/c1"))

		require.Error(t, err)
	})
}

func TestServer_handleOccurrencesResource(t *testing.T) {
	ctx := context.Background()

	t.Run("returns occurrences", func(t *testing.T) {
		entities := &mockEntityService{
			occurrences: []domain.OccurrenceRecord{{ID: "o1", PersonID: "p_1", Page: 3}},
		}
		server := newTestServer(t, entities)

		result, err := server.handleOccurrencesResource(ctx,
			makeReadResourceRequest("ailawyer://cases/c1/persons/p_1/occurrences"))

		require.NoError(t, err)
		assert.Contains(t, result.Contents[0].Text, `"page":3`)
		assert.Equal(t, "c1", entities.lastCaseID)
		assert.Equal(t, "p_1", entities.lastPersonID)
		assert.Equal(t, domain.DefaultOccurrenceLimit, entities.lastLimit)
	})

	t.Run("unknown person is not found", func(t *testing.T) {
		server := newTestServer(t, &mockEntityService{err: domain.ErrNotFound})

		_, err := server.handleOccurrencesResource(ctx,
			makeReadResourceRequest("ailawyer://cases/c1/persons/p_9/occurrences"))

		require.Error(t, err)
		assert.NotContains(t, err.Error(), "listing occurrences")
	})
}
