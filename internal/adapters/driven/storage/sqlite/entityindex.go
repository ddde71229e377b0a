package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/wbattistetti/AILawyer-sub000/internal/core/domain"
	"github.com/wbattistetti/AILawyer-sub000/internal/core/ports/driven"
)

// entityIndex implements driven.EntityIndex.
type entityIndex struct {
	store *Store
}

var _ driven.EntityIndex = (*entityIndex)(nil)

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

const personColumns = `case_id, id, full_name, first_name, last_name, dob, place_of_birth, tax_code,
	address, postal_code, city, province, phone, email, titles, confidence, occurrence_count, updated_at`

const occurrenceColumns = `id, case_id, person_id, doc_id, doc_title, page, snippet,
	box_x0, box_y0, box_x1, box_y1, confidence, rule, created_at`

const snapshotColumns = `snapshot_key, case_id, content_hash, doc_id, title, page_count,
	extracted_at, person_count, occurrence_count`

// UpsertPersons stores or replaces persons.
func (s *entityIndex) UpsertPersons(ctx context.Context, persons []domain.Person) error {
	if len(persons) == 0 {
		return nil
	}
	return s.store.write(ctx, func(tx *sql.Tx) error {
		return insertPersons(ctx, tx, persons)
	})
}

// UpsertOccurrences stores or replaces occurrence records.
func (s *entityIndex) UpsertOccurrences(ctx context.Context, occs []domain.OccurrenceRecord) error {
	if len(occs) == 0 {
		return nil
	}
	return s.store.write(ctx, func(tx *sql.Tx) error {
		return insertOccurrences(ctx, tx, occs)
	})
}

// SetDocSnapshot stores or replaces a snapshot.
func (s *entityIndex) SetDocSnapshot(ctx context.Context, snap domain.DocSnapshot) error {
	return s.store.write(ctx, func(tx *sql.Tx) error {
		return insertSnapshot(ctx, tx, snap)
	})
}

// SaveBatch writes the batch in a single transaction.
func (s *entityIndex) SaveBatch(ctx context.Context, batch driven.Batch) error {
	if batch.IsEmpty() {
		return nil
	}
	return s.store.write(ctx, func(tx *sql.Tx) error {
		for _, doc := range batch.ReplacedDocs {
			if _, err := tx.ExecContext(ctx,
				"DELETE FROM occurrences WHERE case_id = ? AND doc_id = ?", doc.CaseID, doc.DocID); err != nil {
				return fmt.Errorf("replacing occurrences of %s: %w", doc.DocID, err)
			}
		}
		for _, ref := range batch.RemovedPersons {
			if _, err := tx.ExecContext(ctx,
				"DELETE FROM persons WHERE case_id = ? AND id = ?", ref.CaseID, ref.ID); err != nil {
				return fmt.Errorf("removing person %s: %w", ref.ID, err)
			}
		}
		if err := insertPersons(ctx, tx, batch.Persons); err != nil {
			return err
		}
		if err := insertOccurrences(ctx, tx, batch.Occurrences); err != nil {
			return err
		}
		for _, snap := range batch.Snapshots {
			if err := insertSnapshot(ctx, tx, snap); err != nil {
				return err
			}
		}
		return nil
	})
}

func insertPersons(ctx context.Context, db execer, persons []domain.Person) error {
	for _, p := range persons {
		titles := p.Titles
		if titles == nil {
			titles = []string{}
		}
		titlesJSON, err := json.Marshal(titles)
		if err != nil {
			return fmt.Errorf("marshalling titles: %w", err)
		}
		if p.UpdatedAt.IsZero() {
			p.UpdatedAt = time.Now()
		}

		_, err = db.ExecContext(ctx, `
			INSERT INTO persons (`+personColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(case_id, id) DO UPDATE SET
				full_name = excluded.full_name,
				first_name = excluded.first_name,
				last_name = excluded.last_name,
				dob = excluded.dob,
				place_of_birth = excluded.place_of_birth,
				tax_code = excluded.tax_code,
				address = excluded.address,
				postal_code = excluded.postal_code,
				city = excluded.city,
				province = excluded.province,
				phone = excluded.phone,
				email = excluded.email,
				titles = excluded.titles,
				confidence = excluded.confidence,
				occurrence_count = excluded.occurrence_count,
				updated_at = excluded.updated_at
		`, p.CaseID, p.ID, p.FullName, p.FirstName, p.LastName, p.DOB, p.PlaceOfBirth, p.TaxCode,
			p.Address, p.PostalCode, p.City, p.Province, p.Phone, p.Email, string(titlesJSON),
			p.Confidence, p.OccurrenceCount, p.UpdatedAt.UTC())
		if err != nil {
			return fmt.Errorf("saving person %s: %w", p.ID, err)
		}
	}
	return nil
}

func insertOccurrences(ctx context.Context, db execer, occs []domain.OccurrenceRecord) error {
	for _, o := range occs {
		_, err := db.ExecContext(ctx, `
			INSERT INTO occurrences (`+occurrenceColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				case_id = excluded.case_id,
				person_id = excluded.person_id,
				doc_id = excluded.doc_id,
				doc_title = excluded.doc_title,
				page = excluded.page,
				snippet = excluded.snippet,
				box_x0 = excluded.box_x0,
				box_y0 = excluded.box_y0,
				box_x1 = excluded.box_x1,
				box_y1 = excluded.box_y1,
				confidence = excluded.confidence,
				rule = excluded.rule,
				created_at = excluded.created_at
		`, o.ID, o.CaseID, o.PersonID, o.DocID, o.DocTitle, o.Page, o.Snippet,
			o.Box.X0, o.Box.Y0, o.Box.X1, o.Box.Y1, o.Confidence, string(o.Rule), o.CreatedAt.UTC())
		if err != nil {
			return fmt.Errorf("saving occurrence %s: %w", o.ID, err)
		}
	}
	return nil
}

func insertSnapshot(ctx context.Context, db execer, snap domain.DocSnapshot) error {
	if snap.Key == "" {
		snap.Key = domain.SnapshotKey(snap.CaseID, snap.ContentHash)
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO doc_snapshots (`+snapshotColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(snapshot_key) DO UPDATE SET
			case_id = excluded.case_id,
			content_hash = excluded.content_hash,
			doc_id = excluded.doc_id,
			title = excluded.title,
			page_count = excluded.page_count,
			extracted_at = excluded.extracted_at,
			person_count = excluded.person_count,
			occurrence_count = excluded.occurrence_count
	`, snap.Key, snap.CaseID, snap.ContentHash, snap.DocID, snap.Title, snap.PageCount,
		snap.ExtractedAt.UTC(), snap.PersonCount, snap.OccurrenceCount)
	if err != nil {
		return fmt.Errorf("saving snapshot %s: %w", snap.Key, err)
	}
	return nil
}

// GetDocSnapshot retrieves a snapshot by key.
func (s *entityIndex) GetDocSnapshot(ctx context.Context, key string) (*domain.DocSnapshot, error) {
	row := s.store.db.QueryRowContext(ctx,
		`SELECT `+snapshotColumns+` FROM doc_snapshots WHERE snapshot_key = ?`, key)
	snap, err := scanSnapshot(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return snap, nil
}

// ListSnapshots returns the snapshots of a case, newest first.
func (s *entityIndex) ListSnapshots(ctx context.Context, caseID string) ([]domain.DocSnapshot, error) {
	query := `SELECT ` + snapshotColumns + ` FROM doc_snapshots`
	var args []any
	if caseID != "" {
		query += ` WHERE case_id = ?`
		args = append(args, caseID)
	}
	query += ` ORDER BY extracted_at DESC, snapshot_key`

	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying snapshots: %w", err)
	}
	defer rows.Close()

	snaps := make([]domain.DocSnapshot, 0)
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		snaps = append(snaps, *snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating snapshots: %w", err)
	}
	return snaps, nil
}

// PendingDocs returns the documents without a snapshot, in input order.
func (s *entityIndex) PendingDocs(ctx context.Context, docs []domain.DocMeta) ([]domain.DocMeta, error) {
	pending := make([]domain.DocMeta, 0, len(docs))
	for _, d := range docs {
		var one int
		err := s.store.db.QueryRowContext(ctx,
			`SELECT 1 FROM doc_snapshots WHERE snapshot_key = ?`, d.SnapshotKey()).Scan(&one)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			pending = append(pending, d)
		case err != nil:
			return nil, fmt.Errorf("checking snapshot %s: %w", d.SnapshotKey(), err)
		}
	}
	return pending, nil
}

// SearchPersons filters, orders and pages persons.
func (s *entityIndex) SearchPersons(ctx context.Context, filters domain.PersonSearchFilters) ([]domain.Person, error) {
	filters = filters.Normalized()

	var (
		where []string
		args  []any
	)
	if filters.CaseID != "" {
		where = append(where, "case_id = ?")
		args = append(args, filters.CaseID)
	}
	if q := strings.ToLower(strings.TrimSpace(filters.Query)); q != "" {
		cols := []string{"full_name", "tax_code", "address", "city", "email", "phone"}
		var ors []string
		for _, c := range cols {
			ors = append(ors, "instr(fold("+c+"), ?) > 0")
			args = append(args, q)
		}
		where = append(where, "("+strings.Join(ors, " OR ")+")")
	}
	if filters.HasTaxCode {
		where = append(where, "tax_code != ''")
	}
	if filters.HasDOB {
		where = append(where, "dob != ''")
	}
	if filters.HasAddress {
		where = append(where, "address != ''")
	}
	if filters.HasTitle {
		where = append(where, "titles NOT IN ('[]', '"+jsonNull+"', '')")
	}
	if filters.MinConfidence > 0 {
		where = append(where, "confidence >= ?")
		args = append(args, filters.MinConfidence)
	}

	query := `SELECT ` + personColumns + ` FROM persons`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	switch filters.Sort {
	case domain.SortByConfidence:
		query += ` ORDER BY confidence DESC, fold(full_name), id`
	case domain.SortByOccurrences:
		query += ` ORDER BY occurrence_count DESC, fold(full_name), id`
	default:
		query += ` ORDER BY fold(full_name), id`
	}
	query += ` LIMIT ? OFFSET ?`
	args = append(args, filters.Limit, filters.Offset)

	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying persons: %w", err)
	}
	defer rows.Close()

	persons := make([]domain.Person, 0)
	for rows.Next() {
		p, err := scanPerson(rows)
		if err != nil {
			return nil, err
		}
		persons = append(persons, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating persons: %w", err)
	}
	return persons, nil
}

// GetPerson retrieves a person by case and id.
func (s *entityIndex) GetPerson(ctx context.Context, caseID, id string) (*domain.Person, error) {
	row := s.store.db.QueryRowContext(ctx,
		`SELECT `+personColumns+` FROM persons WHERE case_id = ? AND id = ?`, caseID, id)
	p, err := scanPerson(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

// OccurrencesByPerson returns a person's occurrences in a case, oldest first.
func (s *entityIndex) OccurrencesByPerson(
	ctx context.Context, caseID, personID string, limit int,
) ([]domain.OccurrenceRecord, error) {
	if limit <= 0 {
		limit = -1 // no limit
	}
	return s.queryOccurrences(ctx, `
		SELECT `+occurrenceColumns+`
		FROM occurrences WHERE case_id = ? AND person_id = ?
		ORDER BY created_at, doc_id, page, id
		LIMIT ?
	`, caseID, personID, limit)
}

// OccurrencesByDoc returns the occurrences of a document, by page.
func (s *entityIndex) OccurrencesByDoc(ctx context.Context, caseID, docID string) ([]domain.OccurrenceRecord, error) {
	return s.queryOccurrences(ctx, `
		SELECT `+occurrenceColumns+`
		FROM occurrences WHERE case_id = ? AND doc_id = ?
		ORDER BY page, id
	`, caseID, docID)
}

func (s *entityIndex) queryOccurrences(ctx context.Context, query string, args ...any) ([]domain.OccurrenceRecord, error) {
	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying occurrences: %w", err)
	}
	defer rows.Close()

	occs := make([]domain.OccurrenceRecord, 0)
	for rows.Next() {
		var (
			o    domain.OccurrenceRecord
			rule string
		)
		if err := rows.Scan(&o.ID, &o.CaseID, &o.PersonID, &o.DocID, &o.DocTitle, &o.Page, &o.Snippet,
			&o.Box.X0, &o.Box.Y0, &o.Box.X1, &o.Box.Y1, &o.Confidence, &rule, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning occurrence: %w", err)
		}
		o.Rule = domain.Rule(rule)
		occs = append(occs, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating occurrences: %w", err)
	}
	return occs, nil
}

// ClearCase removes everything stored for a case.
func (s *entityIndex) ClearCase(ctx context.Context, caseID string) error {
	return s.store.write(ctx, func(tx *sql.Tx) error {
		for _, table := range []string{"persons", "occurrences", "doc_snapshots"} {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE case_id = ?", caseID); err != nil {
				return fmt.Errorf("clearing %s: %w", table, err)
			}
		}
		return nil
	})
}

// ClearAll removes everything.
func (s *entityIndex) ClearAll(ctx context.Context) error {
	return s.store.write(ctx, func(tx *sql.Tx) error {
		for _, table := range []string{"persons", "occurrences", "doc_snapshots"} {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
				return fmt.Errorf("clearing %s: %w", table, err)
			}
		}
		return nil
	})
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanPerson(row rowScanner) (*domain.Person, error) {
	var (
		p          domain.Person
		titlesJSON string
		updatedAt  sql.NullTime
	)
	if err := row.Scan(&p.CaseID, &p.ID, &p.FullName, &p.FirstName, &p.LastName, &p.DOB, &p.PlaceOfBirth,
		&p.TaxCode, &p.Address, &p.PostalCode, &p.City, &p.Province, &p.Phone, &p.Email, &titlesJSON,
		&p.Confidence, &p.OccurrenceCount, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning person: %w", err)
	}

	if titlesJSON != "" && titlesJSON != jsonNull {
		if err := json.Unmarshal([]byte(titlesJSON), &p.Titles); err != nil {
			return nil, fmt.Errorf("unmarshaling titles: %w", err)
		}
		if len(p.Titles) == 0 {
			p.Titles = nil
		}
	}
	if updatedAt.Valid {
		p.UpdatedAt = updatedAt.Time
	}
	return &p, nil
}

func scanSnapshot(row rowScanner) (*domain.DocSnapshot, error) {
	var snap domain.DocSnapshot
	if err := row.Scan(&snap.Key, &snap.CaseID, &snap.ContentHash, &snap.DocID, &snap.Title,
		&snap.PageCount, &snap.ExtractedAt, &snap.PersonCount, &snap.OccurrenceCount); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning snapshot: %w", err)
	}
	return &snap, nil
}
