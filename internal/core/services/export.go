package services

import (
	"context"
	"fmt"
	"io"

	"github.com/wbattistetti/AILawyer-sub000/internal/core/domain"
	"github.com/wbattistetti/AILawyer-sub000/internal/core/ports/driven"
	"github.com/wbattistetti/AILawyer-sub000/internal/core/ports/driving"
	"github.com/wbattistetti/AILawyer-sub000/internal/logger"
)

var _ driving.ExportService = (*ExportService)(nil)

// ExportService collects everything stored for a case and hands it to an exporter.
type ExportService struct {
	index    driven.EntityIndex
	exporter driven.Exporter
}

// NewExportService creates an export service.
func NewExportService(index driven.EntityIndex, exporter driven.Exporter) *ExportService {
	return &ExportService{index: index, exporter: exporter}
}

// Export writes the persons, occurrences and snapshots of caseID to w.
// An empty caseID exports every case.
func (s *ExportService) Export(ctx context.Context, w io.Writer, caseID string) error {
	data, err := s.Collect(ctx, caseID)
	if err != nil {
		return err
	}
	logger.Info("Exporting %d persons, %d occurrences", len(data.Persons), len(data.Occurrences))
	if err := s.exporter.Export(ctx, w, data); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	return nil
}

// Collect gathers the export content of a case.
func (s *ExportService) Collect(ctx context.Context, caseID string) (driven.ExportData, error) {
	data := driven.ExportData{CaseID: caseID}

	filters := domain.PersonSearchFilters{CaseID: caseID, Sort: domain.SortByName, Limit: domain.DefaultSearchLimit}
	for {
		page, err := s.index.SearchPersons(ctx, filters)
		if err != nil {
			return data, fmt.Errorf("list persons: %w", err)
		}
		data.Persons = append(data.Persons, page...)
		if len(page) < filters.Limit {
			break
		}
		filters.Offset += len(page)
	}

	for _, p := range data.Persons {
		occs, err := s.index.OccurrencesByPerson(ctx, p.CaseID, p.ID, domain.DefaultOccurrenceLimit)
		if err != nil {
			return data, fmt.Errorf("list occurrences of %s: %w", p.ID, err)
		}
		data.Occurrences = append(data.Occurrences, occs...)
	}

	snaps, err := s.index.ListSnapshots(ctx, caseID)
	if err != nil {
		return data, fmt.Errorf("list snapshots: %w", err)
	}
	data.Snapshots = snaps
	return data, nil
}
