package mcp

import (
	"context"

	"github.com/wbattistetti/AILawyer-sub000/internal/core/domain"
)

// mockEntityService is a mock implementation of driving.EntityService.
type mockEntityService struct {
	persons     []domain.Person
	occurrences []domain.OccurrenceRecord
	snapshots   []domain.DocSnapshot
	err         error

	lastFilters  domain.PersonSearchFilters
	lastPersonID string
	lastLimit    int
	lastCaseID   string
}

func (m *mockEntityService) SearchPersons(
	_ context.Context, filters domain.PersonSearchFilters,
) ([]domain.Person, error) {
	m.lastFilters = filters
	return m.persons, m.err
}

func (m *mockEntityService) GetPerson(_ context.Context, _, id string) (*domain.Person, error) {
	for i := range m.persons {
		if m.persons[i].ID == id {
			return &m.persons[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockEntityService) Occurrences(
	_ context.Context, caseID, personID string, limit int,
) ([]domain.OccurrenceRecord, error) {
	m.lastCaseID, m.lastPersonID, m.lastLimit = caseID, personID, limit
	return m.occurrences, m.err
}

func (m *mockEntityService) PendingDocs(_ context.Context, docs []domain.DocMeta) ([]domain.DocMeta, error) {
	return docs, m.err
}

func (m *mockEntityService) Snapshots(_ context.Context, caseID string) ([]domain.DocSnapshot, error) {
	m.lastCaseID = caseID
	return m.snapshots, m.err
}

func (m *mockEntityService) ClearCase(_ context.Context, _ string) error {
	return m.err
}

func (m *mockEntityService) ClearAll(_ context.Context) error {
	return m.err
}
