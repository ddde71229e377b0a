package domain

import "time"

// DocMeta describes a document supplied for extraction.
type DocMeta struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	PageCount   int    `json:"page_count"`
	ContentHash string `json:"content_hash"`
	CaseID      string `json:"case_id,omitempty"`
}

// DocSnapshot records that a document content was extracted for a case.
// A missing snapshot means the document is pending.
type DocSnapshot struct {
	Key             string    `json:"key"`
	CaseID          string    `json:"case_id,omitempty"`
	ContentHash     string    `json:"content_hash"`
	DocID           string    `json:"doc_id"`
	Title           string    `json:"title"`
	PageCount       int       `json:"page_count"`
	ExtractedAt     time.Time `json:"extracted_at"`
	PersonCount     int       `json:"person_count"`
	OccurrenceCount int       `json:"occurrence_count"`
}

// SnapshotKey builds the snapshot key for a case and content hash.
func SnapshotKey(caseID, contentHash string) string {
	return caseID + "|" + contentHash
}

// SnapshotKey returns the snapshot key for a document.
func (m DocMeta) SnapshotKey() string {
	return SnapshotKey(m.CaseID, m.ContentHash)
}
