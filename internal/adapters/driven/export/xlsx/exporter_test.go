package xlsx

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/wbattistetti/AILawyer-sub000/internal/core/domain"
	"github.com/wbattistetti/AILawyer-sub000/internal/core/ports/driven"
)

func sampleData() driven.ExportData {
	at := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	return driven.ExportData{
		CaseID: "c1",
		Persons: []domain.Person{{
			ID: "p1", CaseID: "c1", FullName: "Mario Rossi", FirstName: "Mario", LastName: "Rossi",
			DOB: "1970-01-02", PlaceOfBirth: "Roma", TaxCode: "RSSMRA70A02H501X",
			Titles: []string{"avvocato", "dott."}, Confidence: 0.9, OccurrenceCount: 2, UpdatedAt: at,
		}},
		Occurrences: []domain.OccurrenceRecord{{
			ID: "o1", CaseID: "c1", PersonID: "p1", DocID: "d1", DocTitle: "Verbale", Page: 3,
			Snippet: "Mario Rossi nato a Roma", Box: domain.BoundingBox{X0: 0.1, Y0: 0.2, X1: 0.3, Y1: 0.25},
			Confidence: 0.9, Rule: domain.RuleAnchor, CreatedAt: at,
		}},
		Snapshots: []domain.DocSnapshot{{
			Key: "c1|h", CaseID: "c1", ContentHash: "h", DocID: "d1", Title: "Verbale",
			PageCount: 4, PersonCount: 1, OccurrenceCount: 1, ExtractedAt: at,
		}},
	}
}

func TestExport_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, New().Export(context.Background(), &buf, sampleData()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetPersons, SheetOccurrences, SheetSnapshots}, f.GetSheetList())

	persons, err := f.GetRows(SheetPersons)
	require.NoError(t, err)
	require.Len(t, persons, 2)
	assert.Equal(t, "Full name", persons[0][2])
	assert.Equal(t, "Mario Rossi", persons[1][2])
	assert.Equal(t, "avvocato, dott.", persons[1][5])
	assert.Equal(t, "RSSMRA70A02H501X", persons[1][8])
	assert.Equal(t, "2", persons[1][16])
	assert.Equal(t, "2024-03-01T10:00:00Z", persons[1][17])

	occurrences, err := f.GetRows(SheetOccurrences)
	require.NoError(t, err)
	require.Len(t, occurrences, 2)
	assert.Equal(t, "p1", occurrences[1][1])
	assert.Equal(t, "3", occurrences[1][4])
	assert.Equal(t, "anchor", occurrences[1][5])
	assert.Equal(t, "Mario Rossi nato a Roma", occurrences[1][7])

	snapshots, err := f.GetRows(SheetSnapshots)
	require.NoError(t, err)
	require.Len(t, snapshots, 2)
	assert.Equal(t, "h", snapshots[1][2])
	assert.Equal(t, "4", snapshots[1][3])
}

func TestExport_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, New().Export(context.Background(), &buf, driven.ExportData{}))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetPersons)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestExport_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf bytes.Buffer
	err := New().Export(ctx, &buf, sampleData())

	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, buf.Len())
}
