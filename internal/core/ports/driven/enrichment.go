package driven

import (
	"context"

	"github.com/wbattistetti/AILawyer-sub000/internal/core/domain"
)

// AddressNormaliser turns raw residence or domicile text into a structured address.
// Implementations never return errors: any failure yields nil.
type AddressNormaliser interface {
	Normalize(ctx context.Context, kind domain.AddressKind, raw, lastPlace string) *domain.Address
}

// EventExtractor extracts events from free text on a best-effort basis.
// Failures yield nil.
type EventExtractor interface {
	Extract(ctx context.Context, text string, meta map[string]string) []domain.Event
}
