package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/wbattistetti/AILawyer-sub000/internal/core/domain"
	"github.com/wbattistetti/AILawyer-sub000/internal/core/ports/driven"
)

// Ensure EntityIndex implements the interface.
var _ driven.EntityIndex = (*EntityIndex)(nil)

type personKey struct {
	caseID string
	id     string
}

// EntityIndex is an in-memory implementation of driven.EntityIndex.
type EntityIndex struct {
	mu          sync.RWMutex
	persons     map[personKey]domain.Person
	occurrences map[string]domain.OccurrenceRecord
	snapshots   map[string]domain.DocSnapshot
}

// NewEntityIndex creates a new in-memory entity index.
func NewEntityIndex() *EntityIndex {
	return &EntityIndex{
		persons:     make(map[personKey]domain.Person),
		occurrences: make(map[string]domain.OccurrenceRecord),
		snapshots:   make(map[string]domain.DocSnapshot),
	}
}

// UpsertPersons stores or replaces persons.
func (s *EntityIndex) UpsertPersons(_ context.Context, persons []domain.Person) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.putPersons(persons)
	return nil
}

// UpsertOccurrences stores or replaces occurrence records.
func (s *EntityIndex) UpsertOccurrences(_ context.Context, occs []domain.OccurrenceRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.putOccurrences(occs)
	return nil
}

// SetDocSnapshot stores or replaces a snapshot.
func (s *EntityIndex) SetDocSnapshot(_ context.Context, snap domain.DocSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.putSnapshot(snap)
	return nil
}

// SaveBatch writes a whole batch under a single lock.
func (s *EntityIndex) SaveBatch(_ context.Context, batch driven.Batch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, doc := range batch.ReplacedDocs {
		for id, o := range s.occurrences {
			if o.CaseID == doc.CaseID && o.DocID == doc.DocID {
				delete(s.occurrences, id)
			}
		}
	}
	for _, ref := range batch.RemovedPersons {
		delete(s.persons, personKey{caseID: ref.CaseID, id: ref.ID})
	}
	s.putPersons(batch.Persons)
	s.putOccurrences(batch.Occurrences)
	for _, snap := range batch.Snapshots {
		s.putSnapshot(snap)
	}
	return nil
}

func (s *EntityIndex) putPersons(persons []domain.Person) {
	for _, p := range persons {
		p.Titles = append([]string(nil), p.Titles...)
		s.persons[personKey{caseID: p.CaseID, id: p.ID}] = p
	}
}

func (s *EntityIndex) putOccurrences(occs []domain.OccurrenceRecord) {
	for _, o := range occs {
		s.occurrences[o.ID] = o
	}
}

func (s *EntityIndex) putSnapshot(snap domain.DocSnapshot) {
	if snap.Key == "" {
		snap.Key = domain.SnapshotKey(snap.CaseID, snap.ContentHash)
	}
	s.snapshots[snap.Key] = snap
}

// GetDocSnapshot retrieves a snapshot by key.
func (s *EntityIndex) GetDocSnapshot(_ context.Context, key string) (*domain.DocSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.snapshots[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &snap, nil
}

// ListSnapshots returns the snapshots of a case, newest first.
func (s *EntityIndex) ListSnapshots(_ context.Context, caseID string) ([]domain.DocSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.DocSnapshot, 0)
	for _, snap := range s.snapshots {
		if caseID == "" || snap.CaseID == caseID {
			out = append(out, snap)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ExtractedAt.Equal(out[j].ExtractedAt) {
			return out[i].ExtractedAt.After(out[j].ExtractedAt)
		}
		return out[i].Key < out[j].Key
	})
	return out, nil
}

// PendingDocs returns the documents without a snapshot, in input order.
func (s *EntityIndex) PendingDocs(_ context.Context, docs []domain.DocMeta) ([]domain.DocMeta, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pending := make([]domain.DocMeta, 0, len(docs))
	for _, d := range docs {
		if _, ok := s.snapshots[d.SnapshotKey()]; !ok {
			pending = append(pending, d)
		}
	}
	return pending, nil
}

// SearchPersons filters, orders and pages persons.
func (s *EntityIndex) SearchPersons(_ context.Context, filters domain.PersonSearchFilters) ([]domain.Person, error) {
	filters = filters.Normalized()

	s.mu.RLock()
	matched := make([]domain.Person, 0)
	for _, p := range s.persons {
		if filters.Matches(p) {
			p.Titles = append([]string(nil), p.Titles...)
			matched = append(matched, p)
		}
	}
	s.mu.RUnlock()

	domain.SortPersons(matched, filters.Sort)
	if filters.Offset >= len(matched) {
		return []domain.Person{}, nil
	}
	end := min(filters.Offset+filters.Limit, len(matched))
	return matched[filters.Offset:end], nil
}

// GetPerson retrieves a person by case and id.
func (s *EntityIndex) GetPerson(_ context.Context, caseID, id string) (*domain.Person, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.persons[personKey{caseID: caseID, id: id}]
	if !ok {
		return nil, domain.ErrNotFound
	}
	p.Titles = append([]string(nil), p.Titles...)
	return &p, nil
}

// OccurrencesByPerson returns a person's occurrences in a case, oldest first.
func (s *EntityIndex) OccurrencesByPerson(
	_ context.Context, caseID, personID string, limit int,
) ([]domain.OccurrenceRecord, error) {
	s.mu.RLock()
	out := make([]domain.OccurrenceRecord, 0)
	for _, o := range s.occurrences {
		if o.CaseID == caseID && o.PersonID == personID {
			out = append(out, o)
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		if out[i].DocID != out[j].DocID {
			return out[i].DocID < out[j].DocID
		}
		if out[i].Page != out[j].Page {
			return out[i].Page < out[j].Page
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// OccurrencesByDoc returns the occurrences of a document, by page.
func (s *EntityIndex) OccurrencesByDoc(_ context.Context, caseID, docID string) ([]domain.OccurrenceRecord, error) {
	s.mu.RLock()
	out := make([]domain.OccurrenceRecord, 0)
	for _, o := range s.occurrences {
		if o.CaseID == caseID && o.DocID == docID {
			out = append(out, o)
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Page != out[j].Page {
			return out[i].Page < out[j].Page
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// ClearCase removes everything stored for a case.
func (s *EntityIndex) ClearCase(_ context.Context, caseID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k := range s.persons {
		if k.caseID == caseID {
			delete(s.persons, k)
		}
	}
	for id, o := range s.occurrences {
		if o.CaseID == caseID {
			delete(s.occurrences, id)
		}
	}
	for key, snap := range s.snapshots {
		if snap.CaseID == caseID {
			delete(s.snapshots, key)
		}
	}
	return nil
}

// ClearAll removes everything.
func (s *EntityIndex) ClearAll(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.persons = make(map[personKey]domain.Person)
	s.occurrences = make(map[string]domain.OccurrenceRecord)
	s.snapshots = make(map[string]domain.DocSnapshot)
	return nil
}
