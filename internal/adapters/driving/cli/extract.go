package cli

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/wbattistetti/AILawyer-sub000/internal/adapters/driven/tokens"
	"github.com/wbattistetti/AILawyer-sub000/internal/connectors/filesystem"
	"github.com/wbattistetti/AILawyer-sub000/internal/core/domain"
	"github.com/wbattistetti/AILawyer-sub000/internal/core/ports/driven"
	"github.com/wbattistetti/AILawyer-sub000/internal/logger"
)

var (
	extractCase          string
	extractLenient       bool
	extractPersist       bool
	extractNoAddress     bool
	extractEvents        bool
	extractAwait         bool
	extractSkipExtracted bool
	extractWatch         bool
	extractJSON          bool
)

// Re-extraction after file changes runs at most once per watchInterval.
const watchInterval = 2 * time.Second

var extractCmd = &cobra.Command{
	Use:   "extract [files or directories...]",
	Short: "Extract persons from documents",
	Long: `Scans PDF, plain text and JSON token files for the persons they name and
links the mentions into identities. Directories are searched recursively.

Results are written to the index unless --persist=false is given. With --watch
the command keeps running and re-extracts files as they change.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runExtract,
}

func init() {
	f := extractCmd.Flags()
	f.StringVarP(&extractCase, "case", "c", "", "case the documents belong to")
	f.BoolVar(&extractLenient, "lenient", false, "also accept names without a nearby anchor")
	f.BoolVar(&extractPersist, "persist", true, "write results to the index")
	f.BoolVar(&extractNoAddress, "no-address", false, "skip address normalisation")
	f.BoolVar(&extractEvents, "events", false, "send page text to the event extraction service")
	f.BoolVar(&extractAwait, "await", true, "wait for address enrichment before saving")
	f.BoolVar(&extractSkipExtracted, "skip-extracted", false, "skip documents already extracted for the case")
	f.BoolVarP(&extractWatch, "watch", "w", false, "keep watching the inputs and re-extract changed files")
	f.BoolVar(&extractJSON, "json", false, "output the result as JSON")
	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if extractEvents && app.Settings().Get().Events.URL == "" {
		return fmt.Errorf("--events needs %s: %w", domain.KeyEventsURL, domain.ErrServiceUnavailable)
	}

	roots := make([]string, len(args))
	for i, a := range args {
		roots[i] = filesystem.ResolvePath(a)
	}

	paths, err := collectFiles(ctx, roots)
	if err != nil {
		return err
	}
	if len(paths) == 0 && !extractWatch {
		return fmt.Errorf("no supported documents in %v: %w", args, domain.ErrInvalidInput)
	}

	if len(paths) > 0 {
		if err := extractOnce(ctx, cmd, paths); err != nil {
			return err
		}
	}
	if !extractWatch {
		return nil
	}
	return watchAndExtract(ctx, cmd, roots)
}

// collectFiles expands directories into the supported files they contain.
func collectFiles(ctx context.Context, roots []string) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	for _, root := range roots {
		files, err := filesystem.New(root, tokens.Supported).Files(ctx)
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			if !seen[f] {
				seen[f] = true
				out = append(out, f)
			}
		}
	}
	return out, nil
}

func extractOnce(ctx context.Context, cmd *cobra.Command, paths []string) error {
	svc, err := app.Extraction(!extractNoAddress)
	if err != nil {
		return err
	}

	docs := make([]driven.DocAdapter, 0, len(paths))
	for _, p := range paths {
		d, err := tokens.Open(p, tokens.Options{CaseID: extractCase})
		if err != nil {
			return err
		}
		docs = append(docs, d)
	}

	progress := newPrinter(cmd.ErrOrStderr())
	opts := domain.ExtractOptions{
		CaseID:          extractCase,
		Persist:         extractPersist,
		Lenient:         extractLenient || app.Settings().Get().Extract.Lenient,
		AwaitEnrichment: extractAwait,
		SeedFromIndex:   extractPersist,
		SkipExtracted:   extractSkipExtracted,
		ExtractEvents:   extractEvents,
	}
	if !extractJSON {
		opts.OnStartDoc = func(m domain.DocMeta) {
			progress.muted("%s (%d pages)", m.Title, m.PageCount)
		}
		opts.OnDoneDoc = func(s domain.DocSnapshot) {
			progress.success("  %d occurrences, %d persons", s.OccurrenceCount, s.PersonCount)
		}
	}
	var (
		eventsMu sync.Mutex
		events   []domain.Event
	)
	opts.OnEvents = func(_ string, _ int, evs []domain.Event) {
		eventsMu.Lock()
		events = append(events, evs...)
		eventsMu.Unlock()
	}

	result, err := svc.Extract(ctx, docs, opts)
	if result == nil {
		return err
	}
	if err != nil {
		logger.Warn("extraction finished with errors: %v", err)
	}

	eventsMu.Lock()
	defer eventsMu.Unlock()
	if extractJSON {
		out := struct {
			*domain.ExtractResult
			Events []domain.Event `json:"events,omitempty"`
		}{result, events}
		return errors.Join(printJSON(cmd.OutOrStdout(), out), err)
	}

	p := newPrinter(cmd.OutOrStdout())
	for _, s := range result.Skipped {
		p.muted("skipped %s: already extracted", s.Title)
	}
	if len(result.Persons) == 0 {
		p.muted("No persons found.")
		return err
	}
	p.title("%d persons in %d documents", len(result.Persons), len(result.Snapshots))
	persons := append([]domain.Person(nil), result.Persons...)
	domain.SortPersons(persons, domain.SortByName)
	p.persons(persons)
	if len(events) > 0 {
		p.muted("%d events extracted", len(events))
	}
	return err
}

// watchAndExtract re-extracts changed files until ctx is done. Changes are
// batched and runs are rate limited.
func watchAndExtract(ctx context.Context, cmd *cobra.Command, roots []string) error {
	changes := make(chan filesystem.Change)
	var wg sync.WaitGroup
	for _, root := range roots {
		conn := filesystem.New(root, tokens.Supported)
		ch, err := conn.Watch(ctx)
		if err != nil {
			return err
		}
		defer conn.Close()
		wg.Add(1)
		go func() {
			defer wg.Done()
			for c := range ch {
				select {
				case changes <- c:
				case <-ctx.Done():
					return
				}
			}
		}()
	}
	go func() {
		wg.Wait()
		close(changes)
	}()

	newPrinter(cmd.ErrOrStderr()).muted("Watching for changes, press Ctrl+C to stop")
	limiter := rate.NewLimiter(rate.Every(watchInterval), 1)
	pending := make(map[string]bool)
	ticker := time.NewTicker(watchInterval / 4)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case c, ok := <-changes:
			if !ok {
				return nil
			}
			logger.Debug("%s %s", c.Type, c.Path)
			if c.Type == filesystem.ChangeDeleted {
				delete(pending, c.Path)
				continue
			}
			pending[c.Path] = true
		case <-ticker.C:
			if len(pending) == 0 || !limiter.Allow() {
				continue
			}
			paths := make([]string, 0, len(pending))
			for p := range pending {
				paths = append(paths, p)
			}
			sort.Strings(paths)
			clear(pending)
			if err := extractOnce(ctx, cmd, paths); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				logger.Error("re-extract: %v", err)
			}
		}
	}
}
