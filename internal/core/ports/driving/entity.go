package driving

import (
	"context"

	"github.com/wbattistetti/AILawyer-sub000/internal/core/domain"
)

// EntityService exposes the entity index to external actors.
type EntityService interface {
	SearchPersons(ctx context.Context, filters domain.PersonSearchFilters) ([]domain.Person, error)
	GetPerson(ctx context.Context, caseID, id string) (*domain.Person, error)
	Occurrences(ctx context.Context, caseID, personID string, limit int) ([]domain.OccurrenceRecord, error)
	PendingDocs(ctx context.Context, docs []domain.DocMeta) ([]domain.DocMeta, error)
	Snapshots(ctx context.Context, caseID string) ([]domain.DocSnapshot, error)
	ClearCase(ctx context.Context, caseID string) error
	ClearAll(ctx context.Context) error
}
