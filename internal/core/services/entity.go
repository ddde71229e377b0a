package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/wbattistetti/AILawyer-sub000/internal/core/domain"
	"github.com/wbattistetti/AILawyer-sub000/internal/core/ports/driven"
	"github.com/wbattistetti/AILawyer-sub000/internal/core/ports/driving"
	"github.com/wbattistetti/AILawyer-sub000/internal/logger"
)

// Ensure EntityService implements the interface.
var _ driving.EntityService = (*EntityService)(nil)

// EntityService answers queries over the entity index.
type EntityService struct {
	index driven.EntityIndex
}

// NewEntityService creates a new entity service.
func NewEntityService(index driven.EntityIndex) *EntityService {
	return &EntityService{index: index}
}

// SearchPersons returns persons matching the filters, with defaults applied.
func (s *EntityService) SearchPersons(
	ctx context.Context, filters domain.PersonSearchFilters,
) ([]domain.Person, error) {
	filters = filters.Normalized()
	filters.Query = strings.TrimSpace(filters.Query)
	if filters.MinConfidence < 0 || filters.MinConfidence > 1 {
		return nil, fmt.Errorf("%w: min confidence %.2f out of range", domain.ErrInvalidInput, filters.MinConfidence)
	}

	logger.Debug("Search persons: case=%q query=%q sort=%s", filters.CaseID, filters.Query, filters.Sort)
	persons, err := s.index.SearchPersons(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("search persons: %w", err)
	}
	if persons == nil {
		persons = []domain.Person{}
	}
	return persons, nil
}

// GetPerson returns one person.
func (s *EntityService) GetPerson(ctx context.Context, caseID, id string) (*domain.Person, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: person id is required", domain.ErrInvalidInput)
	}
	return s.index.GetPerson(ctx, caseID, id)
}

// Occurrences returns the occurrences of a person of a case, oldest first.
func (s *EntityService) Occurrences(
	ctx context.Context, caseID, personID string, limit int,
) ([]domain.OccurrenceRecord, error) {
	if personID == "" {
		return nil, fmt.Errorf("%w: person id is required", domain.ErrInvalidInput)
	}
	if limit <= 0 {
		limit = domain.DefaultOccurrenceLimit
	}
	occs, err := s.index.OccurrencesByPerson(ctx, caseID, personID, limit)
	if err != nil {
		return nil, fmt.Errorf("list occurrences: %w", err)
	}
	if occs == nil {
		occs = []domain.OccurrenceRecord{}
	}
	return occs, nil
}

// PendingDocs returns the documents that still need extraction.
func (s *EntityService) PendingDocs(ctx context.Context, docs []domain.DocMeta) ([]domain.DocMeta, error) {
	if len(docs) == 0 {
		return []domain.DocMeta{}, nil
	}
	pending, err := s.index.PendingDocs(ctx, docs)
	if err != nil {
		return nil, fmt.Errorf("pending documents: %w", err)
	}
	return pending, nil
}

// Snapshots lists extraction snapshots of a case, newest first.
func (s *EntityService) Snapshots(ctx context.Context, caseID string) ([]domain.DocSnapshot, error) {
	snaps, err := s.index.ListSnapshots(ctx, caseID)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	if snaps == nil {
		snaps = []domain.DocSnapshot{}
	}
	return snaps, nil
}

// ClearCase removes everything stored for a case.
func (s *EntityService) ClearCase(ctx context.Context, caseID string) error {
	if caseID == "" {
		return fmt.Errorf("%w: case id is required", domain.ErrInvalidInput)
	}
	logger.Info("Clearing case %s", caseID)
	if err := s.index.ClearCase(ctx, caseID); err != nil {
		return fmt.Errorf("clear case: %w", err)
	}
	return nil
}

// ClearAll removes every case.
func (s *EntityService) ClearAll(ctx context.Context) error {
	logger.Info("Clearing entity index")
	if err := s.index.ClearAll(ctx); err != nil {
		return fmt.Errorf("clear all: %w", err)
	}
	return nil
}
