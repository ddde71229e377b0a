package scanner

import (
	"strings"

	"github.com/wbattistetti/AILawyer-sub000/internal/core/domain"
)

// lineTokens lays the words of text out on a grid of 12 columns.
func lineTokens(text string) []domain.Token {
	words := strings.Fields(text)
	toks := make([]domain.Token, 0, len(words))
	for i, w := range words {
		col, row := i%12, i/12
		x0 := 0.02 + float64(col)*0.08
		y0 := 0.05 + float64(row)*0.03
		toks = append(toks, domain.Token{
			Text: w,
			Box:  domain.BoundingBox{X0: x0, Y0: y0, X1: x0 + 0.07, Y1: y0 + 0.02},
		})
	}
	return toks
}

func names(occs []domain.Occurrence) []string {
	out := make([]string, 0, len(occs))
	for _, o := range occs {
		out = append(out, o.FullName)
	}
	return out
}
