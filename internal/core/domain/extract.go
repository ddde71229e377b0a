package domain

// ExtractOptions configures an extraction run.
// Callbacks run on the orchestrator goroutine, except OnPerson calls caused by
// late address enrichment and OnEvents, which arrive from background goroutines.
type ExtractOptions struct {
	// CaseID overrides the case id reported by document adapters.
	CaseID string

	// Persist writes the whole run to the entity index once all documents are done.
	Persist bool

	// Lenient enables the lenient scanner rule for every document.
	Lenient bool

	// LenientDocs enables the lenient rule for specific document ids.
	LenientDocs map[string]bool

	// AwaitEnrichment waits for in-flight address enrichment before returning.
	AwaitEnrichment bool

	// SeedFromIndex loads the case's persisted persons before resolving identities.
	SeedFromIndex bool

	// SkipExtracted skips documents that already have a snapshot.
	SkipExtracted bool

	// ExtractEvents sends each page's text to the event extractor.
	ExtractEvents bool

	OnProgress func(docID string, page int)
	OnStartDoc func(meta DocMeta)
	OnDoneDoc  func(snapshot DocSnapshot)

	// OnOccurrence receives each candidate as soon as its page is scanned.
	// Its PersonKey is provisional.
	OnOccurrence func(docID string, occ Occurrence)

	// OnPerson receives a copy of a person whenever it is created or updated,
	// including updates from address enrichment after the document is done.
	OnPerson func(person Person)

	OnEvents func(docID string, page int, events []Event)
}

// LenientFor reports whether the lenient rule applies to a document.
func (o ExtractOptions) LenientFor(docID string) bool {
	return o.Lenient || o.LenientDocs[docID]
}

// ExtractResult is the output of an extraction run.
type ExtractResult struct {
	Persons     []Person           `json:"persons"`
	Occurrences []OccurrenceRecord `json:"occurrences"`
	Snapshots   []DocSnapshot      `json:"snapshots"`

	// Skipped lists documents left out because they were already extracted.
	Skipped []DocMeta `json:"skipped,omitempty"`
}
