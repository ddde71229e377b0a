package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wbattistetti/AILawyer-sub000/internal/adapters/driven/storage/memory"
	"github.com/wbattistetti/AILawyer-sub000/internal/core/domain"
	"github.com/wbattistetti/AILawyer-sub000/internal/core/ports/driven"
)

// --- Test doubles ---

// wordTokens lays the words of text out left to right, one line per 12 words.
func wordTokens(text string) []domain.Token {
	words := strings.Fields(text)
	toks := make([]domain.Token, 0, len(words))
	for i, w := range words {
		x0 := 0.02 + float64(i%12)*0.08
		y0 := 0.05 + float64(i/12)*0.03
		toks = append(toks, domain.Token{
			Text: w,
			Box:  domain.BoundingBox{X0: x0, Y0: y0, X1: x0 + 0.07, Y1: y0 + 0.02},
		})
	}
	return toks
}

// stubDoc implements driven.DocAdapter over in-memory pages.
type stubDoc struct {
	meta      domain.DocMeta
	pages     []string
	metaErr   error
	streamErr error
	// hold blocks the stream after this many pages until ctx is done.
	hold int
}

func newStubDoc(id, hash string, pages ...string) *stubDoc {
	return &stubDoc{
		meta:  domain.DocMeta{ID: id, Title: id + ".pdf", PageCount: len(pages), ContentHash: hash},
		pages: pages,
	}
}

func (d *stubDoc) Meta(context.Context) (domain.DocMeta, error) {
	return d.meta, d.metaErr
}

func (d *stubDoc) StreamPages(ctx context.Context) (<-chan domain.PageTokens, <-chan error) {
	pages := make(chan domain.PageTokens)
	errs := make(chan error, 1)

	go func() {
		defer close(pages)
		defer close(errs)

		for i, text := range d.pages {
			if d.hold > 0 && i == d.hold {
				<-ctx.Done()
				return
			}
			select {
			case <-ctx.Done():
				return
			case pages <- domain.PageTokens{Page: i + 1, Tokens: wordTokens(text)}:
			}
		}
		if d.streamErr != nil {
			errs <- d.streamErr
		}
	}()

	return pages, errs
}

// stubAddress implements driven.AddressNormaliser.
type stubAddress struct {
	mu    sync.Mutex
	calls []string
	addr  *domain.Address
}

func (a *stubAddress) Normalize(_ context.Context, kind domain.AddressKind, raw, _ string) *domain.Address {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls = append(a.calls, string(kind)+":"+raw)
	if a.addr == nil {
		return nil
	}
	out := *a.addr
	out.Kind = kind
	out.Raw = raw
	return &out
}

// stubEvents implements driven.EventExtractor.
type stubEvents struct {
	mu    sync.Mutex
	texts []string
}

func (e *stubEvents) Extract(_ context.Context, text string, meta map[string]string) []domain.Event {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.texts = append(e.texts, text)
	return []domain.Event{{ID: meta["doc_id"] + "-" + meta["page"], Type: "hearing", Text: text}}
}

// failingIndex fails every batch write.
type failingIndex struct {
	*memory.EntityIndex
}

func (failingIndex) SaveBatch(context.Context, driven.Batch) error {
	return errors.New("disk full")
}

func fixedClock() func() time.Time {
	at := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	return func() time.Time { return at }
}

func newTestExtraction(index driven.EntityIndex, address driven.AddressNormaliser, events driven.EventExtractor) *ExtractionService {
	svc := NewExtractionService(index, nil, address, events)
	svc.now = fixedClock()
	return svc
}

const (
	pageEnumerated = "Elenco: 1. Mario Rossi, nato a Roma il 01/02/1970; 2. Giulia Neri, nata a Torino il 5.6.1982;"
	pageAnchored   = "Indagato: Mario Rossi nato a Roma il 1 febbraio 1970"
	pageHomonym    = "Teste: Mario Rossi nato a Napoli il 03/03/1985"
	pageResidence  = "Teste: Franco Gialli residente in Via Po 3, 10124 Torino"
	pageLenient    = "Il teste Luca Ferri, che abita in zona, residente in Via Po 3"
)

// --- Tests ---

func TestExtractionService_ResolvesAcrossPagesAndDocuments(t *testing.T) {
	index := memory.NewEntityIndex()
	svc := newTestExtraction(index, nil, nil)

	var (
		started  []string
		progress []int
		done     []domain.DocSnapshot
		found    []string
	)
	opts := domain.ExtractOptions{
		CaseID:     "case-1",
		Persist:    true,
		OnStartDoc: func(meta domain.DocMeta) { started = append(started, meta.ID) },
		OnProgress: func(_ string, page int) { progress = append(progress, page) },
		OnDoneDoc:  func(s domain.DocSnapshot) { done = append(done, s) },
		OnOccurrence: func(_ string, occ domain.Occurrence) {
			found = append(found, occ.FullName)
		},
	}

	docs := []driven.DocAdapter{
		newStubDoc("a", "hashA", pageEnumerated, pageAnchored),
		newStubDoc("b", "hashB", pageHomonym),
	}

	result, err := svc.Extract(context.Background(), docs, opts)
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b"}, started)
	assert.Equal(t, []int{1, 2, 1}, progress)
	assert.Equal(t, []string{"Mario Rossi", "Giulia Neri", "Mario Rossi", "Mario Rossi"}, found)

	require.Len(t, result.Persons, 3)
	assert.Equal(t, "Mario Rossi", result.Persons[0].FullName)
	assert.Equal(t, 2, result.Persons[0].OccurrenceCount)
	assert.Equal(t, "1970-02-01", result.Persons[0].DOB)
	assert.Equal(t, "Giulia Neri", result.Persons[1].FullName)
	assert.Equal(t, "Mario Rossi", result.Persons[2].FullName)
	assert.Equal(t, "1985-03-03", result.Persons[2].DOB)
	assert.NotEqual(t, result.Persons[0].ID, result.Persons[2].ID)

	require.Len(t, result.Occurrences, 4)
	for _, occ := range result.Occurrences {
		assert.NotEmpty(t, occ.ID)
		assert.Equal(t, "case-1", occ.CaseID)
	}

	require.Len(t, done, 2)
	assert.Equal(t, "case-1|hashA", done[0].Key)
	assert.Equal(t, 2, done[0].PersonCount)
	assert.Equal(t, 3, done[0].OccurrenceCount)
	assert.Equal(t, 2, done[0].PageCount)
	assert.Equal(t, 1, done[1].PersonCount)
	assert.Equal(t, result.Snapshots, done)

	// Persisted: both documents are no longer pending.
	pending, err := index.PendingDocs(context.Background(), []domain.DocMeta{
		{ID: "a", CaseID: "case-1", ContentHash: "hashA"},
		{ID: "b", CaseID: "case-1", ContentHash: "hashB"},
	})
	require.NoError(t, err)
	assert.Empty(t, pending)

	stored, err := index.GetPerson(context.Background(), "case-1", result.Persons[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.OccurrenceCount)
}

func TestExtractionService_NoPersistLeavesIndexEmpty(t *testing.T) {
	index := memory.NewEntityIndex()
	svc := newTestExtraction(index, nil, nil)

	result, err := svc.Extract(context.Background(),
		[]driven.DocAdapter{newStubDoc("a", "hashA", pageAnchored)}, domain.ExtractOptions{})
	require.NoError(t, err)
	assert.Len(t, result.Persons, 1)

	persons, err := index.SearchPersons(context.Background(), domain.PersonSearchFilters{})
	require.NoError(t, err)
	assert.Empty(t, persons)
}

func TestExtractionService_CancelStopsWithoutPersisting(t *testing.T) {
	index := memory.NewEntityIndex()
	svc := newTestExtraction(index, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	doc := newStubDoc("a", "hashA", pageEnumerated, pageAnchored, pageHomonym)
	doc.hold = 1

	opts := domain.ExtractOptions{
		Persist:    true,
		OnProgress: func(string, int) { cancel() },
	}

	result, err := svc.Extract(ctx, []driven.DocAdapter{doc}, opts)
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, err, domain.ErrCanceled)
	assert.Nil(t, result)

	snaps, err := index.ListSnapshots(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, snaps)
}

func TestExtractionService_PersistFailureIsReturned(t *testing.T) {
	svc := newTestExtraction(failingIndex{memory.NewEntityIndex()}, nil, nil)

	result, err := svc.Extract(context.Background(),
		[]driven.DocAdapter{newStubDoc("a", "hashA", pageAnchored)}, domain.ExtractOptions{Persist: true})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	require.NotNil(t, result)
	assert.Len(t, result.Persons, 1)
}

func TestExtractionService_RequiresIndexForPersistence(t *testing.T) {
	svc := newTestExtraction(nil, nil, nil)

	_, err := svc.Extract(context.Background(), nil, domain.ExtractOptions{Persist: true})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.Extract(context.Background(), nil, domain.ExtractOptions{SkipExtracted: true})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestExtractionService_FailedDocumentsAreSkipped(t *testing.T) {
	svc := newTestExtraction(nil, nil, nil)

	broken := newStubDoc("broken", "h0")
	broken.metaErr = errors.New("unreadable")
	truncated := newStubDoc("truncated", "h1", pageAnchored)
	truncated.streamErr = errors.New("unexpected EOF")
	good := newStubDoc("good", "h2", pageResidence)

	result, err := svc.Extract(context.Background(),
		[]driven.DocAdapter{broken, truncated, good}, domain.ExtractOptions{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unreadable")
	assert.Contains(t, err.Error(), "unexpected EOF")
	require.NotNil(t, result)
	require.Len(t, result.Snapshots, 1)
	assert.Equal(t, "good", result.Snapshots[0].DocID)
	require.Len(t, result.Persons, 1)
	assert.Equal(t, "Franco Gialli", result.Persons[0].FullName)
}

func TestExtractionService_SkipExtracted(t *testing.T) {
	index := memory.NewEntityIndex()
	require.NoError(t, index.SetDocSnapshot(context.Background(), domain.DocSnapshot{
		CaseID: "c1", ContentHash: "hashA", DocID: "a",
	}))
	svc := newTestExtraction(index, nil, nil)

	result, err := svc.Extract(context.Background(), []driven.DocAdapter{
		newStubDoc("a", "hashA", pageAnchored),
		newStubDoc("b", "hashB", pageResidence),
	}, domain.ExtractOptions{CaseID: "c1", SkipExtracted: true})
	require.NoError(t, err)

	require.Len(t, result.Skipped, 1)
	assert.Equal(t, "a", result.Skipped[0].ID)
	require.Len(t, result.Snapshots, 1)
	assert.Equal(t, "b", result.Snapshots[0].DocID)
}

func TestExtractionService_LenientPerDocument(t *testing.T) {
	svc := newTestExtraction(nil, nil, nil)
	docs := []driven.DocAdapter{
		newStubDoc("strict", "h1", pageLenient),
		newStubDoc("loose", "h2", pageLenient),
	}

	result, err := svc.Extract(context.Background(), docs, domain.ExtractOptions{
		LenientDocs: map[string]bool{"loose": true},
	})
	require.NoError(t, err)

	require.Len(t, result.Occurrences, 1)
	assert.Equal(t, "loose", result.Occurrences[0].DocID)
	assert.Equal(t, domain.RuleLenient, result.Occurrences[0].Rule)
}

func TestExtractionService_AddressEnrichmentMerges(t *testing.T) {
	address := &stubAddress{addr: &domain.Address{
		Normalized: "Via Po 3, 10124 Torino TO",
		Components: domain.AddressComponents{Municipality: "Torino", Province: "TO", Postcode: "10124"},
	}}
	svc := newTestExtraction(nil, address, nil)

	var (
		mu      sync.Mutex
		updates []domain.Person
	)
	opts := domain.ExtractOptions{
		AwaitEnrichment: true,
		OnPerson: func(p domain.Person) {
			mu.Lock()
			defer mu.Unlock()
			updates = append(updates, p)
		},
	}

	result, err := svc.Extract(context.Background(),
		[]driven.DocAdapter{newStubDoc("a", "h", pageResidence)}, opts)
	require.NoError(t, err)

	assert.Equal(t, []string{"residence:Via Po 3, 10124 Torino"}, address.calls)
	require.Len(t, result.Persons, 1)
	p := result.Persons[0]
	// The street harvested from the page is kept; only empty fields are filled.
	assert.Equal(t, "Via Po 3", p.Address)
	assert.Equal(t, "TO", p.Province)
	assert.Equal(t, "Torino", p.City)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, updates, 2)
	assert.Empty(t, updates[0].Province)
	assert.Equal(t, "TO", updates[1].Province)
}

func TestExtractionService_AddressFailureIsIgnored(t *testing.T) {
	address := &stubAddress{}
	svc := newTestExtraction(nil, address, nil)

	result, err := svc.Extract(context.Background(),
		[]driven.DocAdapter{newStubDoc("a", "h", pageResidence)}, domain.ExtractOptions{AwaitEnrichment: true})
	require.NoError(t, err)

	require.Len(t, result.Persons, 1)
	assert.Len(t, address.calls, 1)
	assert.Empty(t, result.Persons[0].Province)
}

func TestExtractionService_EventsPerPage(t *testing.T) {
	events := &stubEvents{}
	svc := newTestExtraction(nil, nil, events)

	var (
		mu  sync.Mutex
		got = map[int][]domain.Event{}
	)
	opts := domain.ExtractOptions{
		ExtractEvents:   true,
		AwaitEnrichment: true,
		OnEvents: func(_ string, page int, evs []domain.Event) {
			mu.Lock()
			defer mu.Unlock()
			got[page] = evs
		},
	}

	_, err := svc.Extract(context.Background(),
		[]driven.DocAdapter{newStubDoc("a", "h", pageAnchored, pageResidence)}, opts)
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got, 2)
	assert.Equal(t, "a-1", got[1][0].ID)
	assert.Equal(t, "a-2", got[2][0].ID)
	assert.Len(t, events.texts, 2)
}

func TestExtractionService_EventsDisabledByDefault(t *testing.T) {
	events := &stubEvents{}
	svc := newTestExtraction(nil, nil, events)

	_, err := svc.Extract(context.Background(),
		[]driven.DocAdapter{newStubDoc("a", "h", pageAnchored)}, domain.ExtractOptions{AwaitEnrichment: true})
	require.NoError(t, err)

	assert.Empty(t, events.texts)
}

func TestExtractionService_SeedFromIndex(t *testing.T) {
	index := memory.NewEntityIndex()
	require.NoError(t, index.UpsertPersons(context.Background(), []domain.Person{{
		ID: "p_known", CaseID: "c1", FullName: "Mario Rossi", DOB: "1970-02-01", OccurrenceCount: 3,
	}}))
	svc := newTestExtraction(index, nil, nil)

	result, err := svc.Extract(context.Background(),
		[]driven.DocAdapter{newStubDoc("a", "h", pageAnchored)},
		domain.ExtractOptions{CaseID: "c1", SeedFromIndex: true, Persist: true})
	require.NoError(t, err)

	require.Len(t, result.Persons, 1)
	assert.Equal(t, "p_known", result.Persons[0].ID)
	assert.Equal(t, 4, result.Persons[0].OccurrenceCount)

	stored, err := index.GetPerson(context.Background(), "c1", "p_known")
	require.NoError(t, err)
	assert.Equal(t, 4, stored.OccurrenceCount)
}

func TestExtractionService_ReextractionIsIdempotent(t *testing.T) {
	index := memory.NewEntityIndex()
	svc := newTestExtraction(index, nil, nil)
	ctx := context.Background()
	opts := domain.ExtractOptions{CaseID: "c1", Persist: true, SeedFromIndex: true}

	var first []domain.OccurrenceRecord
	for run := 0; run < 3; run++ {
		result, err := svc.Extract(ctx, []driven.DocAdapter{newStubDoc("a", "h", pageAnchored)}, opts)
		require.NoError(t, err)
		require.Len(t, result.Persons, 1)
		assert.Equal(t, 1, result.Persons[0].OccurrenceCount, "run %d", run)
		if run == 0 {
			first = result.Occurrences
		} else {
			assert.Equal(t, first[0].ID, result.Occurrences[0].ID)
		}
	}

	persons, err := index.SearchPersons(ctx, domain.PersonSearchFilters{CaseID: "c1"})
	require.NoError(t, err)
	require.Len(t, persons, 1)
	assert.Equal(t, 1, persons[0].OccurrenceCount)

	occs, err := index.OccurrencesByDoc(ctx, "c1", "a")
	require.NoError(t, err)
	assert.Len(t, occs, 1)
}

func TestExtractionService_ChangedDocumentReplacesOccurrences(t *testing.T) {
	index := memory.NewEntityIndex()
	svc := newTestExtraction(index, nil, nil)
	ctx := context.Background()
	opts := domain.ExtractOptions{CaseID: "c1", Persist: true, SeedFromIndex: true}

	_, err := svc.Extract(ctx, []driven.DocAdapter{
		newStubDoc("a", "h1", pageAnchored),
		newStubDoc("b", "h2", pageAnchored),
	}, opts)
	require.NoError(t, err)

	// Document a now mentions someone else.
	result, err := svc.Extract(ctx, []driven.DocAdapter{newStubDoc("a", "h3", pageResidence)}, opts)
	require.NoError(t, err)

	names := make(map[string]int)
	for _, p := range result.Persons {
		names[p.FullName] = p.OccurrenceCount
	}
	assert.Equal(t, map[string]int{"Mario Rossi": 1, "Franco Gialli": 1}, names)

	occs, err := index.OccurrencesByDoc(ctx, "c1", "a")
	require.NoError(t, err)
	require.Len(t, occs, 1)
	franco := occs[0].PersonID

	persons, err := index.SearchPersons(ctx, domain.PersonSearchFilters{CaseID: "c1"})
	require.NoError(t, err)
	require.Len(t, persons, 2)
	for _, p := range persons {
		assert.Equal(t, 1, p.OccurrenceCount, p.FullName)
		if p.ID != franco {
			assert.Equal(t, "Mario Rossi", p.FullName)
		}
	}
}

func TestExtractionService_ReplacedDocumentDropsOrphanPerson(t *testing.T) {
	index := memory.NewEntityIndex()
	svc := newTestExtraction(index, nil, nil)
	ctx := context.Background()
	opts := domain.ExtractOptions{CaseID: "c1", Persist: true, SeedFromIndex: true}

	_, err := svc.Extract(ctx, []driven.DocAdapter{newStubDoc("a", "h1", pageAnchored)}, opts)
	require.NoError(t, err)

	result, err := svc.Extract(ctx, []driven.DocAdapter{newStubDoc("a", "h2", pageResidence)}, opts)
	require.NoError(t, err)
	require.Len(t, result.Persons, 1)
	assert.Equal(t, "Franco Gialli", result.Persons[0].FullName)

	persons, err := index.SearchPersons(ctx, domain.PersonSearchFilters{CaseID: "c1"})
	require.NoError(t, err)
	require.Len(t, persons, 1)
	assert.Equal(t, "Franco Gialli", persons[0].FullName)
}

func TestExtractionService_CaseFromDocumentMeta(t *testing.T) {
	svc := newTestExtraction(nil, nil, nil)
	doc := newStubDoc("a", "h", pageAnchored)
	doc.meta.CaseID = "from-doc"

	result, err := svc.Extract(context.Background(), []driven.DocAdapter{doc}, domain.ExtractOptions{})
	require.NoError(t, err)

	require.Len(t, result.Snapshots, 1)
	assert.Equal(t, "from-doc|h", result.Snapshots[0].Key)
	assert.Equal(t, "from-doc", result.Persons[0].CaseID)
}
