package driven

import (
	"context"
	"io"

	"github.com/wbattistetti/AILawyer-sub000/internal/core/domain"
)

// ExportData is the content of a case export.
type ExportData struct {
	CaseID      string
	Persons     []domain.Person
	Occurrences []domain.OccurrenceRecord
	Snapshots   []domain.DocSnapshot
}

// Exporter writes an export in some file format.
type Exporter interface {
	Export(ctx context.Context, w io.Writer, data ExportData) error
}
