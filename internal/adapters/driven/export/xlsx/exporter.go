// Package xlsx writes case exports as Excel workbooks.
package xlsx

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/wbattistetti/AILawyer-sub000/internal/core/ports/driven"
)

var _ driven.Exporter = (*Exporter)(nil)

// Sheet names, in workbook order.
const (
	SheetPersons     = "Persons"
	SheetOccurrences = "Occurrences"
	SheetSnapshots   = "Snapshots"
)

var (
	personHeaders = []any{
		"ID", "Case", "Full name", "First name", "Last name", "Titles", "Date of birth",
		"Place of birth", "Tax code", "Address", "Postal code", "City", "Province",
		"Phone", "Email", "Confidence", "Occurrences", "Updated",
	}
	occurrenceHeaders = []any{
		"ID", "Person", "Document", "Title", "Page", "Rule", "Confidence", "Snippet",
		"X0", "Y0", "X1", "Y1", "Created",
	}
	snapshotHeaders = []any{
		"Document", "Title", "Content hash", "Pages", "Persons", "Occurrences", "Extracted",
	}
)

// Exporter writes one sheet each for persons, occurrences and snapshots.
type Exporter struct{}

// New creates an xlsx exporter.
func New() *Exporter {
	return &Exporter{}
}

// Export writes the workbook to w.
func (e *Exporter) Export(ctx context.Context, w io.Writer, data driven.ExportData) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetPersons); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	for _, name := range []string{SheetOccurrences, SheetSnapshots} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("create sheet %s: %w", name, err)
		}
	}

	persons := make([][]any, 0, len(data.Persons))
	for _, p := range data.Persons {
		persons = append(persons, []any{
			p.ID, p.CaseID, p.FullName, p.FirstName, p.LastName, strings.Join(p.Titles, ", "),
			p.DOB, p.PlaceOfBirth, p.TaxCode, p.Address, p.PostalCode, p.City, p.Province,
			p.Phone, p.Email, p.Confidence, p.OccurrenceCount, stamp(p.UpdatedAt),
		})
	}
	if err := writeSheet(ctx, f, SheetPersons, personHeaders, persons); err != nil {
		return err
	}

	occurrences := make([][]any, 0, len(data.Occurrences))
	for _, o := range data.Occurrences {
		occurrences = append(occurrences, []any{
			o.ID, o.PersonID, o.DocID, o.DocTitle, o.Page, string(o.Rule), o.Confidence, o.Snippet,
			o.Box.X0, o.Box.Y0, o.Box.X1, o.Box.Y1, stamp(o.CreatedAt),
		})
	}
	if err := writeSheet(ctx, f, SheetOccurrences, occurrenceHeaders, occurrences); err != nil {
		return err
	}

	snapshots := make([][]any, 0, len(data.Snapshots))
	for _, s := range data.Snapshots {
		snapshots = append(snapshots, []any{
			s.DocID, s.Title, s.ContentHash, s.PageCount, s.PersonCount, s.OccurrenceCount, stamp(s.ExtractedAt),
		})
	}
	if err := writeSheet(ctx, f, SheetSnapshots, snapshotHeaders, snapshots); err != nil {
		return err
	}

	_ = f.SetColWidth(SheetPersons, "C", "C", 28)
	_ = f.SetColWidth(SheetPersons, "J", "J", 36)
	_ = f.SetColWidth(SheetOccurrences, "H", "H", 80)
	_ = f.SetColWidth(SheetSnapshots, "C", "C", 66)
	f.SetActiveSheet(0)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("xlsx write: %w", err)
	}
	return nil
}

func writeSheet(ctx context.Context, f *excelize.File, sheet string, headers []any, rows [][]any) error {
	if err := f.SetSheetRow(sheet, "A1", &headers); err != nil {
		return fmt.Errorf("write %s header: %w", sheet, err)
	}
	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return err
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	if err := f.SetPanes(sheet, &excelize.Panes{
		Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft",
	}); err != nil {
		return fmt.Errorf("freeze %s header: %w", sheet, err)
	}
	return nil
}

// stamp formats times as RFC 3339 in UTC; the zero time is an empty cell.
func stamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
