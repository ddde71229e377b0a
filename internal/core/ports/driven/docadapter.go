package driven

import (
	"context"

	"github.com/wbattistetti/AILawyer-sub000/internal/core/domain"
)

// DocAdapter supplies one document's metadata and tokens.
// StreamPages is forward-only and may be consumed once per extraction run.
type DocAdapter interface {
	// Meta returns the document id, title, page count and content hash.
	Meta(ctx context.Context) (domain.DocMeta, error)

	// StreamPages yields pages in order. Both channels are closed when
	// the stream ends; at most one error is sent.
	StreamPages(ctx context.Context) (<-chan domain.PageTokens, <-chan error)
}
