package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wbattistetti/AILawyer-sub000/internal/core/domain"
	"github.com/wbattistetti/AILawyer-sub000/internal/core/ports/driven"
	"github.com/wbattistetti/AILawyer-sub000/internal/core/ports/driving"
	"github.com/wbattistetti/AILawyer-sub000/internal/logger"
	"github.com/wbattistetti/AILawyer-sub000/internal/metrics"
	"github.com/wbattistetti/AILawyer-sub000/internal/scanner"
)

// Ensure ExtractionService implements the interface.
var _ driving.ExtractionService = (*ExtractionService)(nil)

// cancelTimeout bounds how long a cancelled run waits to notify the worker.
const cancelTimeout = 100 * time.Millisecond

// ExtractionService drives the scanner worker over a batch of documents and
// resolves the occurrences it finds into persons.
type ExtractionService struct {
	index   driven.EntityIndex
	scanner *scanner.Scanner
	address driven.AddressNormaliser
	events  driven.EventExtractor
	now     func() time.Time
}

// NewExtractionService creates an extraction service.
// All dependencies are optional: index is required only for runs that
// persist, seed from the index or skip extracted documents; a nil scanner
// uses the default vocabulary; nil enrichment clients disable enrichment.
func NewExtractionService(
	index driven.EntityIndex,
	sc *scanner.Scanner,
	address driven.AddressNormaliser,
	events driven.EventExtractor,
) *ExtractionService {
	return &ExtractionService{
		index:   index,
		scanner: sc,
		address: address,
		events:  events,
		now:     time.Now,
	}
}

// extractionRun is the state of one Extract call.
type extractionRun struct {
	svc      *ExtractionService
	opts     domain.ExtractOptions
	worker   *scanner.Worker
	registry *PersonRegistry
	result   *domain.ExtractResult

	// touched holds the persons resolved in this run, in first-touch order.
	touched []personRef
	seen    map[personRef]bool
	seeded  map[string]bool

	// replaced holds documents whose stored occurrences this run replaces.
	replaced    []driven.DocRef
	replacedSet map[driven.DocRef]bool

	// enrich tracks background enrichment goroutines.
	enrich sync.WaitGroup
}

// Extract processes documents one at a time. Pages of a document are sent to
// the worker strictly in stream order and each page is fully answered before
// the next one is sent.
//
//nolint:gocognit // Orchestration function with necessary sequential steps
func (s *ExtractionService) Extract(
	ctx context.Context,
	docs []driven.DocAdapter,
	opts domain.ExtractOptions,
) (*domain.ExtractResult, error) {
	if s.index == nil && (opts.Persist || opts.SeedFromIndex || opts.SkipExtracted) {
		return nil, fmt.Errorf("%w: entity index not configured", domain.ErrInvalidInput)
	}

	started := s.now()
	registry := NewPersonRegistry()
	registry.now = s.now

	// The worker outlives ctx so a cancelled run can still tell it to stop.
	workerCtx, stopWorker := context.WithCancel(context.WithoutCancel(ctx))
	defer stopWorker()
	worker := scanner.NewWorker(s.scanner).Start(workerCtx)
	defer worker.Close()

	run := &extractionRun{
		svc:      s,
		opts:     opts,
		worker:   worker,
		registry: registry,
		result:   &domain.ExtractResult{},
		seen:     make(map[personRef]bool),
		seeded:   make(map[string]bool),

		replacedSet: make(map[driven.DocRef]bool),
	}

	logger.Section("Extraction")
	logger.Info("Extracting %d documents", len(docs))

	var docErrs []error
	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return nil, run.cancel(err)
		}

		meta, err := doc.Meta(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil, run.cancel(ctx.Err())
			}
			logger.Error("Document metadata: %v", err)
			metrics.DocumentsExtracted.WithLabelValues(metrics.OutcomeFailed).Inc()
			docErrs = append(docErrs, fmt.Errorf("document meta: %w", err))
			continue
		}
		if opts.CaseID != "" {
			meta.CaseID = opts.CaseID
		}

		if opts.SkipExtracted {
			pending, err := s.index.PendingDocs(ctx, []domain.DocMeta{meta})
			if err != nil {
				return nil, fmt.Errorf("check pending: %w", err)
			}
			if len(pending) == 0 {
				logger.Info("Skipping %s: already extracted", meta.ID)
				metrics.DocumentsExtracted.WithLabelValues(metrics.OutcomeSkipped).Inc()
				run.result.Skipped = append(run.result.Skipped, meta)
				continue
			}
		}

		if err := run.seed(ctx, meta.CaseID); err != nil {
			return nil, err
		}

		if opts.OnStartDoc != nil {
			opts.OnStartDoc(meta)
		}

		snap, err := run.extractDoc(ctx, doc, meta)
		if err != nil {
			if ctx.Err() != nil {
				return nil, run.cancel(ctx.Err())
			}
			logger.Error("Extract %s: %v", meta.ID, err)
			metrics.DocumentsExtracted.WithLabelValues(metrics.OutcomeFailed).Inc()
			docErrs = append(docErrs, fmt.Errorf("extract %s: %w", meta.ID, err))
			continue
		}
		if err := run.replacePrior(ctx, meta); err != nil {
			return nil, err
		}
		metrics.DocumentsExtracted.WithLabelValues(metrics.OutcomeOK).Inc()
		run.result.Snapshots = append(run.result.Snapshots, snap)

		if opts.OnDoneDoc != nil {
			opts.OnDoneDoc(snap)
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, run.cancel(err)
	}
	if opts.AwaitEnrichment {
		run.enrich.Wait()
	}
	var removed []driven.PersonRef
	run.result.Persons, removed = run.persons()
	metrics.ExtractionDuration.Observe(s.now().Sub(started).Seconds())

	logger.Info("Extraction complete: %d persons, %d occurrences, %d documents",
		len(run.result.Persons), len(run.result.Occurrences), len(run.result.Snapshots))

	if opts.Persist {
		batch := driven.Batch{
			Persons:        run.result.Persons,
			Occurrences:    run.result.Occurrences,
			Snapshots:      run.result.Snapshots,
			ReplacedDocs:   run.replaced,
			RemovedPersons: removed,
		}
		if err := s.index.SaveBatch(ctx, batch); err != nil {
			return run.result, fmt.Errorf("persist extraction: %w", err)
		}
	}

	return run.result, errors.Join(docErrs...)
}

// cancel tells the worker to drop queued pages and returns err.
func (r *extractionRun) cancel(err error) error {
	ctx, done := context.WithTimeout(context.Background(), cancelTimeout)
	defer done()
	if sendErr := r.worker.Send(ctx, scanner.Cancel{}); sendErr != nil {
		logger.Debug("cancel worker: %v", sendErr)
	}
	logger.Info("Extraction cancelled")
	return fmt.Errorf("%w: %w", domain.ErrCanceled, err)
}

// seed loads the persisted persons of a case once per run.
func (r *extractionRun) seed(ctx context.Context, caseID string) error {
	if !r.opts.SeedFromIndex || r.seeded[caseID] {
		return nil
	}
	r.seeded[caseID] = true

	filters := domain.PersonSearchFilters{CaseID: caseID, Limit: domain.DefaultSearchLimit}
	for {
		page, err := r.svc.index.SearchPersons(ctx, filters)
		if err != nil {
			return fmt.Errorf("seed persons: %w", err)
		}
		r.registry.Seed(page)
		if len(page) < filters.Limit {
			break
		}
		filters.Offset += len(page)
	}
	logger.Debug("Seeded case %q with %d persons", caseID, r.registry.Len())
	return nil
}

// replacePrior drops the occurrences an earlier extraction stored for the
// same document of the case. With seeding, their persons' counts are taken
// back so extracting the same content again leaves the index unchanged.
func (r *extractionRun) replacePrior(ctx context.Context, meta domain.DocMeta) error {
	if r.svc.index == nil || !(r.opts.Persist || r.opts.SeedFromIndex) {
		return nil
	}
	ref := driven.DocRef{CaseID: meta.CaseID, DocID: meta.ID}
	if r.replacedSet[ref] {
		return nil
	}
	r.replacedSet[ref] = true

	prior, err := r.svc.index.OccurrencesByDoc(ctx, meta.CaseID, meta.ID)
	if err != nil {
		return fmt.Errorf("stored occurrences of %s: %w", meta.ID, err)
	}
	if len(prior) == 0 {
		return nil
	}
	r.replaced = append(r.replaced, ref)
	if !r.opts.SeedFromIndex {
		return nil
	}

	var order []string
	counts := make(map[string]int)
	for _, o := range prior {
		if counts[o.PersonID] == 0 {
			order = append(order, o.PersonID)
		}
		counts[o.PersonID]++
	}
	for _, id := range order {
		if p, ok := r.registry.Retract(meta.CaseID, id, counts[id]); ok {
			r.touch(p)
		}
	}
	logger.Debug("Replacing %d stored occurrences of %s", len(prior), meta.ID)
	return nil
}

func (r *extractionRun) extractDoc(
	ctx context.Context,
	doc driven.DocAdapter,
	meta domain.DocMeta,
) (domain.DocSnapshot, error) {
	docCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	begin := scanner.BeginDoc{DocID: meta.ID, Title: meta.Title, Lenient: r.opts.LenientFor(meta.ID)}
	if err := r.worker.Send(docCtx, begin); err != nil {
		return domain.DocSnapshot{}, fmt.Errorf("begin document: %w", err)
	}

	var (
		occs  []domain.Occurrence
		pages int
	)
	pagesCh, errsCh := doc.StreamPages(docCtx)
	for pagesCh != nil || errsCh != nil {
		select {
		case <-docCtx.Done():
			return domain.DocSnapshot{}, docCtx.Err()

		case err, ok := <-errsCh:
			if !ok {
				errsCh = nil
				continue
			}
			if err != nil {
				return domain.DocSnapshot{}, fmt.Errorf("stream pages: %w", err)
			}

		case page, ok := <-pagesCh:
			if !ok {
				pagesCh = nil
				continue
			}
			pages++
			items, err := r.scanPage(docCtx, meta.ID, page)
			if err != nil {
				return domain.DocSnapshot{}, err
			}
			occs = append(occs, items...)
			r.extractEvents(ctx, meta, page)
		}
	}

	if err := docCtx.Err(); err != nil {
		return domain.DocSnapshot{}, err
	}
	if err := r.worker.Send(docCtx, scanner.EndDoc{DocID: meta.ID}); err != nil {
		return domain.DocSnapshot{}, fmt.Errorf("end document: %w", err)
	}
	if err := r.awaitDone(docCtx, meta.ID); err != nil {
		return domain.DocSnapshot{}, err
	}

	now := r.svc.now()
	persons := make(map[string]bool)
	for i, occ := range occs {
		person := r.registry.Resolve(meta.CaseID, occ)
		r.touch(person)
		persons[person.ID] = true

		r.result.Occurrences = append(r.result.Occurrences, domain.OccurrenceRecord{
			ID:         occurrenceID(meta.CaseID, meta.ID, i),
			CaseID:     meta.CaseID,
			PersonID:   person.ID,
			DocID:      meta.ID,
			DocTitle:   meta.Title,
			Page:       occ.Page,
			Snippet:    occ.Snippet,
			Box:        occ.Box,
			Confidence: occ.Confidence,
			Rule:       occ.Rule,
			CreatedAt:  now,
		})

		if r.opts.OnPerson != nil {
			r.opts.OnPerson(person)
		}
		r.enrichAddress(ctx, meta.CaseID, person.ID, occ)
	}

	pageCount := meta.PageCount
	if pageCount == 0 {
		pageCount = pages
	}
	return domain.DocSnapshot{
		Key:             meta.SnapshotKey(),
		CaseID:          meta.CaseID,
		ContentHash:     meta.ContentHash,
		DocID:           meta.ID,
		Title:           meta.Title,
		PageCount:       pageCount,
		ExtractedAt:     now,
		PersonCount:     len(persons),
		OccurrenceCount: len(occs),
	}, nil
}

// scanPage sends one page and waits for its answer. A worker error is logged
// and the page yields no occurrences.
func (r *extractionRun) scanPage(ctx context.Context, docID string, page domain.PageTokens) ([]domain.Occurrence, error) {
	if err := r.worker.Send(ctx, scanner.PageRequest{DocID: docID, Page: page}); err != nil {
		return nil, fmt.Errorf("send page %d: %w", page.Page, err)
	}

	var items []domain.Occurrence
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()

		case resp, ok := <-r.worker.Responses():
			if !ok {
				return nil, domain.ErrWorkerClosed
			}
			switch m := resp.(type) {
			case scanner.Occurrences:
				items = m.Items
				for _, occ := range items {
					metrics.OccurrencesFound.WithLabelValues(string(occ.Rule)).Inc()
					if r.opts.OnOccurrence != nil {
						r.opts.OnOccurrence(docID, occ)
					}
				}
			case scanner.Progress:
				metrics.PagesScanned.Inc()
				if r.opts.OnProgress != nil {
					r.opts.OnProgress(docID, m.Page)
				}
				return items, nil
			case scanner.Error:
				logger.Error("Scan %s page %d: %v", docID, page.Page, m.Err)
				metrics.WorkerErrors.Inc()
				return nil, nil
			default:
				logger.Debug("Unexpected worker response %T", resp)
			}
		}
	}
}

func (r *extractionRun) awaitDone(ctx context.Context, docID string) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case resp, ok := <-r.worker.Responses():
			if !ok {
				return domain.ErrWorkerClosed
			}
			if done, isDone := resp.(scanner.Done); isDone && done.DocID == docID {
				return nil
			}
			logger.Debug("Ignoring worker response %T while closing %s", resp, docID)
		}
	}
}

// enrichAddress normalises the raw residence and domicile of an occurrence in
// the background and merges the result into the person.
func (r *extractionRun) enrichAddress(ctx context.Context, caseID, personID string, occ domain.Occurrence) {
	if r.svc.address == nil {
		return
	}
	lastPlace := occ.Fields.City
	if lastPlace == "" {
		lastPlace = occ.Fields.PlaceOfBirth
	}

	raws := []struct {
		kind domain.AddressKind
		text string
	}{
		{domain.AddressResidence, occ.RawResidence},
		{domain.AddressDomicile, occ.RawDomicile},
	}
	for _, raw := range raws {
		if raw.text == "" {
			continue
		}
		r.enrich.Add(1)
		go func(kind domain.AddressKind, text string) {
			defer r.enrich.Done()
			addr := r.svc.address.Normalize(context.WithoutCancel(ctx), kind, text, lastPlace)
			if addr == nil {
				return
			}
			person, changed := r.registry.Merge(caseID, personID, addr.Fields())
			if changed && r.opts.OnPerson != nil {
				r.opts.OnPerson(person)
			}
		}(raw.kind, raw.text)
	}
}

// extractEvents sends a page's text to the event extractor in the background.
func (r *extractionRun) extractEvents(ctx context.Context, meta domain.DocMeta, page domain.PageTokens) {
	if !r.opts.ExtractEvents || r.svc.events == nil {
		return
	}
	text := scanner.NewPage(page.Tokens).Text
	if text == "" {
		return
	}
	info := map[string]string{
		"doc_id": meta.ID,
		"title":  meta.Title,
		"page":   strconv.Itoa(page.Page),
	}

	r.enrich.Add(1)
	go func() {
		defer r.enrich.Done()
		events := r.svc.events.Extract(context.WithoutCancel(ctx), text, info)
		if len(events) > 0 && r.opts.OnEvents != nil {
			r.opts.OnEvents(meta.ID, page.Page, events)
		}
	}()
}

func (r *extractionRun) touch(p domain.Person) {
	ref := personRef{caseID: p.CaseID, id: p.ID}
	if r.seen[ref] {
		return
	}
	r.seen[ref] = true
	r.touched = append(r.touched, ref)
}

// persons returns the persons resolved in this run with their latest fields,
// and the ones a replaced document left without occurrences.
func (r *extractionRun) persons() ([]domain.Person, []driven.PersonRef) {
	out := make([]domain.Person, 0, len(r.touched))
	var removed []driven.PersonRef
	for _, ref := range r.touched {
		p, ok := r.registry.Get(ref.caseID, ref.id)
		if !ok {
			continue
		}
		if p.OccurrenceCount == 0 {
			removed = append(removed, driven.PersonRef{CaseID: p.CaseID, ID: p.ID})
			continue
		}
		out = append(out, p)
	}
	return out, removed
}

// occurrenceNamespace seeds the name-based occurrence ids.
var occurrenceNamespace = uuid.NewSHA1(uuid.NameSpaceOID, []byte("ailawyer.occurrence"))

// occurrenceID is the same every time the same document content is extracted
// into the same case, so a new extraction overwrites the previous records.
func occurrenceID(caseID, docID string, n int) string {
	return uuid.NewSHA1(occurrenceNamespace, []byte(caseID+"\x00"+docID+"\x00"+strconv.Itoa(n))).String()
}
