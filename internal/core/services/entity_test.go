package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wbattistetti/AILawyer-sub000/internal/adapters/driven/storage/memory"
	"github.com/wbattistetti/AILawyer-sub000/internal/core/domain"
)

func seededEntityService(t *testing.T) (*EntityService, *memory.EntityIndex) {
	t.Helper()
	ctx := context.Background()
	index := memory.NewEntityIndex()
	at := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	require.NoError(t, index.UpsertPersons(ctx, []domain.Person{
		{ID: "p_1", CaseID: "c1", FullName: "Mario Rossi", Confidence: 0.9, OccurrenceCount: 2},
		{ID: "p_2", CaseID: "c1", FullName: "Anna Bianchi", Confidence: 0.6, OccurrenceCount: 1},
		{ID: "p_3", CaseID: "c2", FullName: "Luca Verdi", Confidence: 0.75, OccurrenceCount: 1},
	}))
	require.NoError(t, index.UpsertOccurrences(ctx, []domain.OccurrenceRecord{
		{ID: "o1", CaseID: "c1", PersonID: "p_1", DocID: "d", Page: 1, CreatedAt: at},
		{ID: "o2", CaseID: "c1", PersonID: "p_1", DocID: "d", Page: 4, CreatedAt: at.Add(time.Second)},
		{ID: "o3", CaseID: "c2", PersonID: "p_1", DocID: "e", Page: 7, CreatedAt: at},
	}))
	require.NoError(t, index.SetDocSnapshot(ctx, domain.DocSnapshot{
		CaseID: "c1", ContentHash: "h1", DocID: "d", ExtractedAt: at,
	}))
	return NewEntityService(index), index
}

func TestEntityService_SearchPersons(t *testing.T) {
	svc, _ := seededEntityService(t)

	persons, err := svc.SearchPersons(context.Background(), domain.PersonSearchFilters{CaseID: "c1", Query: "  rossi "})
	require.NoError(t, err)
	require.Len(t, persons, 1)
	assert.Equal(t, "p_1", persons[0].ID)

	persons, err = svc.SearchPersons(context.Background(), domain.PersonSearchFilters{Query: "nobody"})
	require.NoError(t, err)
	assert.NotNil(t, persons)
	assert.Empty(t, persons)
}

func TestEntityService_SearchPersonsRejectsBadConfidence(t *testing.T) {
	svc, _ := seededEntityService(t)

	_, err := svc.SearchPersons(context.Background(), domain.PersonSearchFilters{MinConfidence: 1.5})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestEntityService_GetPerson(t *testing.T) {
	svc, _ := seededEntityService(t)

	p, err := svc.GetPerson(context.Background(), "c1", "p_2")
	require.NoError(t, err)
	assert.Equal(t, "Anna Bianchi", p.FullName)

	_, err = svc.GetPerson(context.Background(), "c2", "p_2")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.GetPerson(context.Background(), "c1", "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestEntityService_Occurrences(t *testing.T) {
	svc, _ := seededEntityService(t)

	occs, err := svc.Occurrences(context.Background(), "c1", "p_1", 0)
	require.NoError(t, err)
	require.Len(t, occs, 2)
	assert.Equal(t, 1, occs[0].Page)
	assert.Equal(t, 4, occs[1].Page)

	occs, err = svc.Occurrences(context.Background(), "c1", "p_1", 1)
	require.NoError(t, err)
	assert.Len(t, occs, 1)

	// The same person id in another case is another person.
	occs, err = svc.Occurrences(context.Background(), "c2", "p_1", 0)
	require.NoError(t, err)
	require.Len(t, occs, 1)
	assert.Equal(t, "e", occs[0].DocID)

	_, err = svc.Occurrences(context.Background(), "c1", "", 10)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestEntityService_PendingDocs(t *testing.T) {
	svc, _ := seededEntityService(t)

	pending, err := svc.PendingDocs(context.Background(), []domain.DocMeta{
		{ID: "d", CaseID: "c1", ContentHash: "h1"},
		{ID: "d", CaseID: "c1", ContentHash: "h2"},
	})
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "h2", pending[0].ContentHash)

	pending, err = svc.PendingDocs(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestEntityService_Snapshots(t *testing.T) {
	svc, _ := seededEntityService(t)

	snaps, err := svc.Snapshots(context.Background(), "c1")
	require.NoError(t, err)
	assert.Len(t, snaps, 1)

	snaps, err = svc.Snapshots(context.Background(), "c9")
	require.NoError(t, err)
	assert.Empty(t, snaps)
}

func TestEntityService_Clear(t *testing.T) {
	svc, index := seededEntityService(t)
	ctx := context.Background()

	assert.ErrorIs(t, svc.ClearCase(ctx, ""), domain.ErrInvalidInput)

	require.NoError(t, svc.ClearCase(ctx, "c1"))
	persons, err := index.SearchPersons(ctx, domain.PersonSearchFilters{})
	require.NoError(t, err)
	require.Len(t, persons, 1)
	assert.Equal(t, "c2", persons[0].CaseID)

	require.NoError(t, svc.ClearAll(ctx))
	persons, err = index.SearchPersons(ctx, domain.PersonSearchFilters{})
	require.NoError(t, err)
	assert.Empty(t, persons)
}
