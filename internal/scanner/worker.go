package scanner

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/wbattistetti/AILawyer-sub000/internal/core/domain"
	"github.com/wbattistetti/AILawyer-sub000/internal/logger"
)

// Request is a message sent to the Worker.
type Request interface{ isRequest() }

// BeginDoc starts a document and clears any cancellation.
type BeginDoc struct {
	DocID   string
	Title   string
	Lenient bool
}

// PageRequest asks the worker to scan one page.
type PageRequest struct {
	DocID string
	Page  domain.PageTokens
}

// EndDoc closes a document. The worker answers with Done.
type EndDoc struct {
	DocID string
}

// Cancel makes the worker drop page and end messages until the next BeginDoc.
type Cancel struct{}

func (BeginDoc) isRequest()    {}
func (PageRequest) isRequest() {}
func (EndDoc) isRequest()      {}
func (Cancel) isRequest()      {}

// Response is a message sent by the Worker.
type Response interface{ isResponse() }

// Progress reports that a page has been scanned.
type Progress struct {
	DocID string
	Page  int
}

// Occurrences carries the deduplicated candidates of one page.
type Occurrences struct {
	DocID string
	Page  int
	Items []domain.Occurrence
}

// Done reports that a document has been fully scanned.
type Done struct {
	DocID string
}

// Error reports a failure while handling a request. The worker keeps running.
type Error struct {
	DocID string
	Page  int
	Err   error
}

func (Progress) isResponse()    {}
func (Occurrences) isResponse() {}
func (Done) isResponse()        {}
func (Error) isResponse()       {}

// Worker runs a Scanner on a dedicated goroutine. Pages are scanned one at a
// time in the order they are sent; each page yields Occurrences followed by
// Progress, or a single Error.
type Worker struct {
	scanPage func(tokens []domain.Token, page int, lenient bool) []domain.Occurrence
	in       chan Request
	out      chan Response
	done     chan struct{}
	quit     chan struct{}
	quitOnce sync.Once

	// Owned by the run goroutine.
	cancelled bool
	lenient   bool
}

// NewWorker creates a worker. Call Run to start it.
func NewWorker(s *Scanner) *Worker {
	if s == nil {
		s = defaultScanner
	}
	return &Worker{
		scanPage: s.ScanPage,
		in:       make(chan Request, 8),
		out:      make(chan Response, 8),
		done:     make(chan struct{}),
		quit:     make(chan struct{}),
	}
}

// Start runs the worker on a new goroutine until ctx is done or Close is called.
func (w *Worker) Start(ctx context.Context) *Worker {
	go w.Run(ctx)
	return w
}

// Run processes requests until ctx is done or Close is called. Requests
// queued before Close are still answered. The response channel is closed
// on return.
func (w *Worker) Run(ctx context.Context) {
	defer close(w.out)
	defer close(w.done)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.quit:
			w.drain(ctx)
			return
		case req := <-w.in:
			if !w.reply(ctx, w.handle(req)) {
				return
			}
		}
	}
}

func (w *Worker) drain(ctx context.Context) {
	for {
		select {
		case req := <-w.in:
			if !w.reply(ctx, w.handle(req)) {
				return
			}
		default:
			return
		}
	}
}

func (w *Worker) reply(ctx context.Context, resps []Response) bool {
	for _, resp := range resps {
		select {
		case w.out <- resp:
		case <-ctx.Done():
			return false
		}
	}
	return true
}

// Send delivers a request to the worker. It fails with domain.ErrWorkerClosed
// once Close has been called or the worker has stopped.
func (w *Worker) Send(ctx context.Context, req Request) error {
	select {
	case <-w.quit:
		return domain.ErrWorkerClosed
	case <-w.done:
		return domain.ErrWorkerClosed
	default:
	}
	select {
	case w.in <- req:
		return nil
	case <-w.quit:
		return domain.ErrWorkerClosed
	case <-w.done:
		return domain.ErrWorkerClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Responses returns the response channel. It is closed when the worker stops.
func (w *Worker) Responses() <-chan Response {
	return w.out
}

// Close stops accepting requests. Pending requests are still processed.
// It is safe to call more than once and concurrently with Send.
func (w *Worker) Close() {
	w.quitOnce.Do(func() { close(w.quit) })
}

func (w *Worker) handle(req Request) []Response {
	switch r := req.(type) {
	case BeginDoc:
		w.cancelled = false
		w.lenient = r.Lenient
		logger.Debug("worker: begin %s (lenient=%t)", r.DocID, r.Lenient)
		return nil
	case Cancel:
		w.cancelled = true
		logger.Debug("worker: cancelled")
		return nil
	case PageRequest:
		if w.cancelled {
			return nil
		}
		items, err := w.scan(r.Page)
		if err != nil {
			return []Response{Error{DocID: r.DocID, Page: r.Page.Page, Err: err}}
		}
		logger.Debug("worker: %s page %d tokens=%d hits=%d", r.DocID, r.Page.Page, len(r.Page.Tokens), len(items))
		return []Response{
			Occurrences{DocID: r.DocID, Page: r.Page.Page, Items: items},
			Progress{DocID: r.DocID, Page: r.Page.Page},
		}
	case EndDoc:
		if w.cancelled {
			return nil
		}
		return []Response{Done{DocID: r.DocID}}
	default:
		return []Response{Error{Err: fmt.Errorf("%w: unknown request %T", domain.ErrInvalidInput, req)}}
	}
}

// scan recovers from panics so one bad page never stops the worker.
func (w *Worker) scan(page domain.PageTokens) (items []domain.Occurrence, err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Debug("worker: panic on page %d: %v\n%s", page.Page, r, debug.Stack())
			err = fmt.Errorf("%w: page %d: %v", domain.ErrWorkerFailed, page.Page, r)
		}
	}()
	return w.scanPage(page.Tokens, page.Page, w.lenient), nil
}
