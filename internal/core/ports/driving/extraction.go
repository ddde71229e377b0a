package driving

import (
	"context"

	"github.com/wbattistetti/AILawyer-sub000/internal/core/domain"
	"github.com/wbattistetti/AILawyer-sub000/internal/core/ports/driven"
)

// ExtractionService runs person extraction over a batch of documents.
type ExtractionService interface {
	// Extract processes documents one at a time, page by page, and resolves
	// occurrences into persons. With opts.Persist the whole run is written to
	// the entity index at the end.
	Extract(ctx context.Context, docs []driven.DocAdapter, opts domain.ExtractOptions) (*domain.ExtractResult, error)
}
