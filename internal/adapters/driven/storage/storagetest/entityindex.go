// Package storagetest holds the behaviour tests shared by every
// driven.EntityIndex implementation.
package storagetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wbattistetti/AILawyer-sub000/internal/core/domain"
	"github.com/wbattistetti/AILawyer-sub000/internal/core/ports/driven"
)

var base = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

// RunEntityIndex runs the shared suite. newIndex must return an empty index.
func RunEntityIndex(t *testing.T, newIndex func(t *testing.T) driven.EntityIndex) {
	t.Helper()

	t.Run("PendingRoundTrip", func(t *testing.T) { testPendingRoundTrip(t, newIndex(t)) })
	t.Run("SnapshotLookup", func(t *testing.T) { testSnapshotLookup(t, newIndex(t)) })
	t.Run("ListSnapshotsNewestFirst", func(t *testing.T) { testListSnapshots(t, newIndex(t)) })
	t.Run("PersonsKeyedByCase", func(t *testing.T) { testPersonsKeyedByCase(t, newIndex(t)) })
	t.Run("UpsertReplaces", func(t *testing.T) { testUpsertReplaces(t, newIndex(t)) })
	t.Run("SearchFilters", func(t *testing.T) { testSearchFilters(t, newIndex(t)) })
	t.Run("SearchSortAndPaging", func(t *testing.T) { testSearchSortAndPaging(t, newIndex(t)) })
	t.Run("OccurrencesOldestFirst", func(t *testing.T) { testOccurrences(t, newIndex(t)) })
	t.Run("OccurrencesScopedByCase", func(t *testing.T) { testOccurrencesScopedByCase(t, newIndex(t)) })
	t.Run("SaveBatch", func(t *testing.T) { testSaveBatch(t, newIndex(t)) })
	t.Run("SaveBatchReplacesDocument", func(t *testing.T) { testSaveBatchReplacesDocument(t, newIndex(t)) })
	t.Run("ClearCase", func(t *testing.T) { testClearCase(t, newIndex(t)) })
	t.Run("ClearAll", func(t *testing.T) { testClearAll(t, newIndex(t)) })
}

func snapshot(caseID, hash, docID string, at time.Time) domain.DocSnapshot {
	return domain.DocSnapshot{
		Key:         domain.SnapshotKey(caseID, hash),
		CaseID:      caseID,
		ContentHash: hash,
		DocID:       docID,
		Title:       docID + ".pdf",
		PageCount:   3,
		ExtractedAt: at,
	}
}

func testPendingRoundTrip(t *testing.T, idx driven.EntityIndex) {
	ctx := context.Background()
	docA := domain.DocMeta{ID: "a", CaseID: "c1", ContentHash: "hashA"}
	docB := domain.DocMeta{ID: "b", CaseID: "c1", ContentHash: "hashB"}

	require.NoError(t, idx.SetDocSnapshot(ctx, snapshot("c1", "hashA", "a", base)))

	pending, err := idx.PendingDocs(ctx, []domain.DocMeta{docA, docB})
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "b", pending[0].ID)

	// Same content in another case is still pending there.
	other := domain.DocMeta{ID: "a", CaseID: "c2", ContentHash: "hashA"}
	pending, err = idx.PendingDocs(ctx, []domain.DocMeta{docB, other})
	require.NoError(t, err)
	assert.Equal(t, []domain.DocMeta{docB, other}, pending)
}

func testSnapshotLookup(t *testing.T, idx driven.EntityIndex) {
	ctx := context.Background()
	snap := snapshot("c1", "h1", "doc", base)
	snap.PersonCount = 2
	snap.OccurrenceCount = 5
	require.NoError(t, idx.SetDocSnapshot(ctx, snap))

	got, err := idx.GetDocSnapshot(ctx, snap.Key)
	require.NoError(t, err)
	assert.Equal(t, "doc", got.DocID)
	assert.Equal(t, 2, got.PersonCount)
	assert.Equal(t, 5, got.OccurrenceCount)
	assert.True(t, base.Equal(got.ExtractedAt))

	_, err = idx.GetDocSnapshot(ctx, "c1|missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func testListSnapshots(t *testing.T, idx driven.EntityIndex) {
	ctx := context.Background()
	require.NoError(t, idx.SetDocSnapshot(ctx, snapshot("c1", "h1", "old", base)))
	require.NoError(t, idx.SetDocSnapshot(ctx, snapshot("c1", "h2", "new", base.Add(time.Hour))))
	require.NoError(t, idx.SetDocSnapshot(ctx, snapshot("c2", "h3", "other", base)))

	snaps, err := idx.ListSnapshots(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, snaps, 2)
	assert.Equal(t, "new", snaps[0].DocID)
	assert.Equal(t, "old", snaps[1].DocID)

	all, err := idx.ListSnapshots(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func testPersonsKeyedByCase(t *testing.T, idx driven.EntityIndex) {
	ctx := context.Background()
	require.NoError(t, idx.UpsertPersons(ctx, []domain.Person{
		{ID: "p_1", CaseID: "c1", FullName: "Mario Rossi", City: "Roma"},
		{ID: "p_1", CaseID: "c2", FullName: "Mario Rossi", City: "Milano"},
	}))

	p1, err := idx.GetPerson(ctx, "c1", "p_1")
	require.NoError(t, err)
	assert.Equal(t, "Roma", p1.City)

	p2, err := idx.GetPerson(ctx, "c2", "p_1")
	require.NoError(t, err)
	assert.Equal(t, "Milano", p2.City)

	_, err = idx.GetPerson(ctx, "c3", "p_1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func testUpsertReplaces(t *testing.T, idx driven.EntityIndex) {
	ctx := context.Background()
	require.NoError(t, idx.UpsertPersons(ctx, []domain.Person{
		{ID: "p_1", CaseID: "c1", FullName: "Mario Rossi", OccurrenceCount: 1},
	}))
	require.NoError(t, idx.UpsertPersons(ctx, []domain.Person{
		{ID: "p_1", CaseID: "c1", FullName: "Mario Rossi", OccurrenceCount: 3, Titles: []string{"Avv."}},
	}))

	p, err := idx.GetPerson(ctx, "c1", "p_1")
	require.NoError(t, err)
	assert.Equal(t, 3, p.OccurrenceCount)
	assert.Equal(t, []string{"Avv."}, p.Titles)

	persons, err := idx.SearchPersons(ctx, domain.PersonSearchFilters{CaseID: "c1"})
	require.NoError(t, err)
	assert.Len(t, persons, 1)
}

func seedPersons(t *testing.T, idx driven.EntityIndex) {
	t.Helper()
	require.NoError(t, idx.UpsertPersons(context.Background(), []domain.Person{
		{ID: "p_a", CaseID: "c1", FullName: "Mario Rossi", TaxCode: "RSSMRA70A01H501U", DOB: "1970-01-01",
			City: "Roma", Confidence: 0.9, OccurrenceCount: 2, Titles: []string{"Avv."}},
		{ID: "p_b", CaseID: "c1", FullName: "anna bianchi", Address: "Via Po 1", Email: "anna@example.it",
			Confidence: 0.6, OccurrenceCount: 7},
		{ID: "p_c", CaseID: "c1", FullName: "Luca Verdi", Phone: "333 1234567", Confidence: 0.75, OccurrenceCount: 1},
		{ID: "p_d", CaseID: "c2", FullName: "Mario Rossi", Confidence: 0.85, OccurrenceCount: 1},
	}))
}

func ids(persons []domain.Person) []string {
	out := make([]string, len(persons))
	for i, p := range persons {
		out[i] = p.ID
	}
	return out
}

func testSearchFilters(t *testing.T, idx driven.EntityIndex) {
	seedPersons(t, idx)
	ctx := context.Background()

	tests := []struct {
		name    string
		filters domain.PersonSearchFilters
		want    []string
	}{
		{"case only", domain.PersonSearchFilters{CaseID: "c1"}, []string{"p_b", "p_c", "p_a"}},
		{"all cases", domain.PersonSearchFilters{Query: "rossi"}, []string{"p_a", "p_d"}},
		{"query ignores case", domain.PersonSearchFilters{CaseID: "c1", Query: "BIANCHI"}, []string{"p_b"}},
		{"query tax code", domain.PersonSearchFilters{Query: "h501u"}, []string{"p_a"}},
		{"query address", domain.PersonSearchFilters{Query: "via po"}, []string{"p_b"}},
		{"query email", domain.PersonSearchFilters{Query: "example.it"}, []string{"p_b"}},
		{"query phone", domain.PersonSearchFilters{Query: "1234567"}, []string{"p_c"}},
		{"query city", domain.PersonSearchFilters{CaseID: "c1", Query: "roma"}, []string{"p_a"}},
		{"has tax code", domain.PersonSearchFilters{HasTaxCode: true}, []string{"p_a"}},
		{"has dob", domain.PersonSearchFilters{HasDOB: true}, []string{"p_a"}},
		{"has address", domain.PersonSearchFilters{HasAddress: true}, []string{"p_b"}},
		{"has title", domain.PersonSearchFilters{HasTitle: true}, []string{"p_a"}},
		{"min confidence", domain.PersonSearchFilters{CaseID: "c1", MinConfidence: 0.75}, []string{"p_c", "p_a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := idx.SearchPersons(ctx, tt.filters)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func testSearchSortAndPaging(t *testing.T, idx driven.EntityIndex) {
	seedPersons(t, idx)
	ctx := context.Background()

	got, err := idx.SearchPersons(ctx, domain.PersonSearchFilters{CaseID: "c1", Sort: domain.SortByConfidence})
	require.NoError(t, err)
	assert.Equal(t, []string{"p_a", "p_c", "p_b"}, ids(got))

	got, err = idx.SearchPersons(ctx, domain.PersonSearchFilters{CaseID: "c1", Sort: domain.SortByOccurrences})
	require.NoError(t, err)
	assert.Equal(t, []string{"p_b", "p_a", "p_c"}, ids(got))

	got, err = idx.SearchPersons(ctx, domain.PersonSearchFilters{CaseID: "c1", Limit: 1, Offset: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"p_c"}, ids(got))

	got, err = idx.SearchPersons(ctx, domain.PersonSearchFilters{CaseID: "c1", Offset: 10})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func testOccurrences(t *testing.T, idx driven.EntityIndex) {
	ctx := context.Background()
	box := domain.BoundingBox{X0: 0.1, Y0: 0.2, X1: 0.3, Y1: 0.25}
	require.NoError(t, idx.UpsertOccurrences(ctx, []domain.OccurrenceRecord{
		{ID: "o3", CaseID: "c1", PersonID: "p_1", DocID: "d", Page: 3, CreatedAt: base.Add(2 * time.Minute)},
		{ID: "o1", CaseID: "c1", PersonID: "p_1", DocID: "d", Page: 1, Snippet: "Mario Rossi nato a Roma",
			Box: box, Confidence: 0.85, Rule: domain.RuleEnumerated, CreatedAt: base},
		{ID: "o2", CaseID: "c1", PersonID: "p_1", DocID: "d", Page: 2, CreatedAt: base.Add(time.Minute)},
		{ID: "o4", CaseID: "c1", PersonID: "p_2", DocID: "d", Page: 1, CreatedAt: base},
	}))

	occs, err := idx.OccurrencesByPerson(ctx, "c1", "p_1", 0)
	require.NoError(t, err)
	require.Len(t, occs, 3)
	assert.Equal(t, "o1", occs[0].ID)
	assert.Equal(t, "o2", occs[1].ID)
	assert.Equal(t, "o3", occs[2].ID)
	assert.Equal(t, box, occs[0].Box)
	assert.Equal(t, domain.RuleEnumerated, occs[0].Rule)
	assert.Equal(t, "Mario Rossi nato a Roma", occs[0].Snippet)
	assert.InDelta(t, 0.85, occs[0].Confidence, 1e-9)

	occs, err = idx.OccurrencesByPerson(ctx, "c1", "p_1", 2)
	require.NoError(t, err)
	assert.Len(t, occs, 2)

	occs, err = idx.OccurrencesByPerson(ctx, "c1", "nobody", 10)
	require.NoError(t, err)
	assert.Empty(t, occs)
}

func testOccurrencesScopedByCase(t *testing.T, idx driven.EntityIndex) {
	ctx := context.Background()
	// Same name, birth date and city in two cases gives the same person id.
	require.NoError(t, idx.UpsertPersons(ctx, []domain.Person{
		{ID: "p_53cec33b", CaseID: "A", FullName: "Mario Rossi"},
		{ID: "p_53cec33b", CaseID: "B", FullName: "Mario Rossi"},
	}))
	require.NoError(t, idx.UpsertOccurrences(ctx, []domain.OccurrenceRecord{
		{ID: "oa", CaseID: "A", PersonID: "p_53cec33b", DocID: "a.pdf", Page: 1, CreatedAt: base},
		{ID: "ob", CaseID: "B", PersonID: "p_53cec33b", DocID: "b.pdf", Page: 1, CreatedAt: base},
	}))

	occs, err := idx.OccurrencesByPerson(ctx, "A", "p_53cec33b", 0)
	require.NoError(t, err)
	require.Len(t, occs, 1)
	assert.Equal(t, "a.pdf", occs[0].DocID)

	occs, err = idx.OccurrencesByPerson(ctx, "B", "p_53cec33b", 0)
	require.NoError(t, err)
	require.Len(t, occs, 1)
	assert.Equal(t, "b.pdf", occs[0].DocID)

	occs, err = idx.OccurrencesByPerson(ctx, "C", "p_53cec33b", 0)
	require.NoError(t, err)
	assert.Empty(t, occs)
}

func testSaveBatch(t *testing.T, idx driven.EntityIndex) {
	ctx := context.Background()
	batch := driven.Batch{
		Persons:     []domain.Person{{ID: "p_1", CaseID: "c1", FullName: "Mario Rossi"}},
		Occurrences: []domain.OccurrenceRecord{{ID: "o1", CaseID: "c1", PersonID: "p_1", DocID: "d", CreatedAt: base}},
		Snapshots:   []domain.DocSnapshot{snapshot("c1", "h1", "d", base)},
	}
	require.NoError(t, idx.SaveBatch(ctx, batch))

	_, err := idx.GetPerson(ctx, "c1", "p_1")
	require.NoError(t, err)
	occs, err := idx.OccurrencesByPerson(ctx, "c1", "p_1", 10)
	require.NoError(t, err)
	assert.Len(t, occs, 1)
	_, err = idx.GetDocSnapshot(ctx, domain.SnapshotKey("c1", "h1"))
	require.NoError(t, err)

	require.NoError(t, idx.SaveBatch(ctx, driven.Batch{}))
}

func testSaveBatchReplacesDocument(t *testing.T, idx driven.EntityIndex) {
	ctx := context.Background()
	require.NoError(t, idx.SaveBatch(ctx, driven.Batch{
		Persons: []domain.Person{
			{ID: "p_1", CaseID: "c1", FullName: "Mario Rossi", OccurrenceCount: 2},
			{ID: "p_2", CaseID: "c1", FullName: "Anna Bianchi", OccurrenceCount: 1},
		},
		Occurrences: []domain.OccurrenceRecord{
			{ID: "o1", CaseID: "c1", PersonID: "p_1", DocID: "d", Page: 2, CreatedAt: base},
			{ID: "o2", CaseID: "c1", PersonID: "p_2", DocID: "d", Page: 1, CreatedAt: base},
			{ID: "o3", CaseID: "c1", PersonID: "p_1", DocID: "e", Page: 1, CreatedAt: base},
			{ID: "o4", CaseID: "c2", PersonID: "p_1", DocID: "d", Page: 1, CreatedAt: base},
		},
	}))

	occs, err := idx.OccurrencesByDoc(ctx, "c1", "d")
	require.NoError(t, err)
	require.Len(t, occs, 2)
	assert.Equal(t, "o2", occs[0].ID)
	assert.Equal(t, "o1", occs[1].ID)

	require.NoError(t, idx.SaveBatch(ctx, driven.Batch{
		Persons:        []domain.Person{{ID: "p_1", CaseID: "c1", FullName: "Mario Rossi", OccurrenceCount: 2}},
		Occurrences:    []domain.OccurrenceRecord{{ID: "o5", CaseID: "c1", PersonID: "p_1", DocID: "d", Page: 3, CreatedAt: base}},
		ReplacedDocs:   []driven.DocRef{{CaseID: "c1", DocID: "d"}},
		RemovedPersons: []driven.PersonRef{{CaseID: "c1", ID: "p_2"}},
	}))

	occs, err = idx.OccurrencesByDoc(ctx, "c1", "d")
	require.NoError(t, err)
	require.Len(t, occs, 1)
	assert.Equal(t, "o5", occs[0].ID)

	// Other documents and other cases are untouched.
	occs, err = idx.OccurrencesByDoc(ctx, "c1", "e")
	require.NoError(t, err)
	assert.Len(t, occs, 1)
	occs, err = idx.OccurrencesByDoc(ctx, "c2", "d")
	require.NoError(t, err)
	assert.Len(t, occs, 1)

	_, err = idx.GetPerson(ctx, "c1", "p_2")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = idx.GetPerson(ctx, "c1", "p_1")
	assert.NoError(t, err)
}

func testClearCase(t *testing.T, idx driven.EntityIndex) {
	ctx := context.Background()
	seedPersons(t, idx)
	require.NoError(t, idx.UpsertOccurrences(ctx, []domain.OccurrenceRecord{
		{ID: "o1", CaseID: "c1", PersonID: "p_a", CreatedAt: base},
		{ID: "o2", CaseID: "c2", PersonID: "p_d", CreatedAt: base},
	}))
	require.NoError(t, idx.SetDocSnapshot(ctx, snapshot("c1", "h1", "d1", base)))
	require.NoError(t, idx.SetDocSnapshot(ctx, snapshot("c2", "h1", "d1", base)))

	require.NoError(t, idx.ClearCase(ctx, "c1"))

	persons, err := idx.SearchPersons(ctx, domain.PersonSearchFilters{})
	require.NoError(t, err)
	assert.Equal(t, []string{"p_d"}, ids(persons))

	occs, err := idx.OccurrencesByPerson(ctx, "c1", "p_a", 10)
	require.NoError(t, err)
	assert.Empty(t, occs)
	occs, err = idx.OccurrencesByPerson(ctx, "c2", "p_d", 10)
	require.NoError(t, err)
	assert.Len(t, occs, 1)

	_, err = idx.GetDocSnapshot(ctx, domain.SnapshotKey("c1", "h1"))
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = idx.GetDocSnapshot(ctx, domain.SnapshotKey("c2", "h1"))
	assert.NoError(t, err)
}

func testClearAll(t *testing.T, idx driven.EntityIndex) {
	ctx := context.Background()
	seedPersons(t, idx)
	require.NoError(t, idx.SetDocSnapshot(ctx, snapshot("c1", "h1", "d1", base)))

	require.NoError(t, idx.ClearAll(ctx))

	persons, err := idx.SearchPersons(ctx, domain.PersonSearchFilters{})
	require.NoError(t, err)
	assert.Empty(t, persons)
	snaps, err := idx.ListSnapshots(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, snaps)
}
