package tokens

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/wbattistetti/AILawyer-sub000/internal/core/domain"
	"github.com/wbattistetti/AILawyer-sub000/internal/core/ports/driven"
)

var _ driven.DocAdapter = (*Text)(nil)

// Minimum grid used for plain text pages, so that short pages do not get
// page-sized boxes.
const (
	minGridLines   = 60
	minGridColumns = 80
)

// Text reads plain text files. A form feed starts a new page. Words are
// placed on a character grid: one row per line, one column per rune.
type Text struct {
	fileBase
}

// Meta implements driven.DocAdapter.
func (d *Text) Meta(_ context.Context) (domain.DocMeta, error) {
	pages, err := d.read()
	if err != nil {
		return domain.DocMeta{}, err
	}
	return d.meta(len(pages))
}

// StreamPages implements driven.DocAdapter.
func (d *Text) StreamPages(ctx context.Context) (<-chan domain.PageTokens, <-chan error) {
	pages, err := d.read()
	if err != nil {
		return failed(err)
	}
	return streamSlice(ctx, gridPages(pages))
}

func (d *Text) read() ([]string, error) {
	data, err := os.ReadFile(d.path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filepath.Base(d.path), err)
	}
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("%s: not utf-8 text: %w", filepath.Base(d.path), domain.ErrInvalidInput)
	}
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	text = strings.TrimSuffix(text, "\f")
	return strings.Split(text, "\f"), nil
}

// gridPages numbers pages from 1 and lays each one out on its own grid.
func gridPages(pages []string) []domain.PageTokens {
	out := make([]domain.PageTokens, len(pages))
	for i, p := range pages {
		out[i] = domain.PageTokens{Page: i + 1, Tokens: gridTokens(p)}
	}
	return out
}

// gridTokens splits a page into words and gives each word its grid cell span.
func gridTokens(page string) []domain.Token {
	lines := strings.Split(strings.TrimRight(page, "\n"), "\n")
	cols := minGridColumns
	for _, l := range lines {
		cols = max(cols, utf8.RuneCountInString(l))
	}
	rows := max(len(lines), minGridLines)

	var tokens []domain.Token
	for row, line := range lines {
		start := -1
		runes := []rune(line)
		for i := 0; i <= len(runes); i++ {
			if i < len(runes) && !unicode.IsSpace(runes[i]) {
				if start < 0 {
					start = i
				}
				continue
			}
			if start >= 0 {
				tokens = append(tokens, domain.Token{
					Text: string(runes[start:i]),
					Box: domain.BoundingBox{
						X0: float64(start) / float64(cols),
						Y0: float64(row) / float64(rows),
						X1: float64(i) / float64(cols),
						Y1: float64(row+1) / float64(rows),
					},
				})
				start = -1
			}
		}
	}
	return tokens
}
