package driven

import (
	"context"

	"github.com/wbattistetti/AILawyer-sub000/internal/core/domain"
)

// EntityIndex is the durable store of resolved persons, their occurrences
// and per-document extraction snapshots. Writes are last-write-wins per id.
type EntityIndex interface {
	// UpsertPersons stores or replaces persons keyed by (case id, id).
	UpsertPersons(ctx context.Context, persons []domain.Person) error

	// UpsertOccurrences stores or replaces occurrence records keyed by id.
	UpsertOccurrences(ctx context.Context, occs []domain.OccurrenceRecord) error

	// SetDocSnapshot stores or replaces a snapshot keyed by case id and content hash.
	SetDocSnapshot(ctx context.Context, snap domain.DocSnapshot) error

	// GetDocSnapshot returns the snapshot for a key, or domain.ErrNotFound.
	GetDocSnapshot(ctx context.Context, key string) (*domain.DocSnapshot, error)

	// ListSnapshots returns the snapshots of a case, newest first.
	// An empty case id lists every snapshot.
	ListSnapshots(ctx context.Context, caseID string) ([]domain.DocSnapshot, error)

	// PendingDocs returns the documents that have no snapshot for their
	// exact case id and content hash, preserving input order.
	PendingDocs(ctx context.Context, docs []domain.DocMeta) ([]domain.DocMeta, error)

	// SearchPersons returns persons matching the filters.
	SearchPersons(ctx context.Context, filters domain.PersonSearchFilters) ([]domain.Person, error)

	// GetPerson returns a person by case id and id, or domain.ErrNotFound.
	GetPerson(ctx context.Context, caseID, id string) (*domain.Person, error)

	// OccurrencesByPerson returns up to limit occurrences of a person of a
	// case, oldest first. Person ids are only unique within a case.
	OccurrencesByPerson(ctx context.Context, caseID, personID string, limit int) ([]domain.OccurrenceRecord, error)

	// OccurrencesByDoc returns the occurrences found in a document of a case.
	OccurrencesByDoc(ctx context.Context, caseID, docID string) ([]domain.OccurrenceRecord, error)

	// SaveBatch writes persons, occurrences and snapshots atomically:
	// either all of them are stored or none is. Removals listed in the
	// batch are applied first.
	SaveBatch(ctx context.Context, batch Batch) error

	// ClearCase removes all persons, occurrences and snapshots of a case.
	ClearCase(ctx context.Context, caseID string) error

	// ClearAll removes everything.
	ClearAll(ctx context.Context) error
}

// Batch is the output of one extraction run, written in a single step.
type Batch struct {
	Persons     []domain.Person
	Occurrences []domain.OccurrenceRecord
	Snapshots   []domain.DocSnapshot

	// ReplacedDocs are documents extracted again: their stored occurrences
	// are dropped before Occurrences are written.
	ReplacedDocs []DocRef

	// RemovedPersons are persons left without any occurrence.
	RemovedPersons []PersonRef
}

// DocRef addresses a document within a case.
type DocRef struct {
	CaseID string
	DocID  string
}

// PersonRef addresses a person within a case.
type PersonRef struct {
	CaseID string
	ID     string
}

// IsEmpty reports whether the batch carries nothing to write.
func (b Batch) IsEmpty() bool {
	return len(b.Persons) == 0 && len(b.Occurrences) == 0 && len(b.Snapshots) == 0 &&
		len(b.ReplacedDocs) == 0 && len(b.RemovedPersons) == 0
}
