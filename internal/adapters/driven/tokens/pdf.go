package tokens

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"

	"github.com/wbattistetti/AILawyer-sub000/internal/core/domain"
	"github.com/wbattistetti/AILawyer-sub000/internal/core/ports/driven"
	"github.com/wbattistetti/AILawyer-sub000/internal/logger"
)

var _ driven.DocAdapter = (*PDF)(nil)

// A4 portrait in points, used when a page has no usable MediaBox.
var a4 = mediaBox{X0: 0, Y0: 0, X1: 595, Y1: 842}

// PDF reads positioned glyphs from a PDF content stream.
// Scanned PDFs without a text layer yield pages without tokens.
type PDF struct {
	fileBase
}

// Meta implements driven.DocAdapter.
func (d *PDF) Meta(_ context.Context) (domain.DocMeta, error) {
	f, r, err := pdf.Open(d.path)
	if err != nil {
		return domain.DocMeta{}, fmt.Errorf("open pdf %s: %w", filepath.Base(d.path), err)
	}
	n := r.NumPage()
	f.Close()
	return d.meta(n)
}

// StreamPages implements driven.DocAdapter.
func (d *PDF) StreamPages(ctx context.Context) (<-chan domain.PageTokens, <-chan error) {
	f, r, err := pdf.Open(d.path)
	if err != nil {
		return failed(fmt.Errorf("open pdf %s: %w", filepath.Base(d.path), err))
	}

	out := make(chan domain.PageTokens)
	errs := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errs)
		defer f.Close()

		for i := 1; i <= r.NumPage(); i++ {
			tokens, err := readPage(r.Page(i))
			if err != nil {
				logger.Warn("pdf %s page %d: %v", filepath.Base(d.path), i, err)
			}
			select {
			case out <- domain.PageTokens{Page: i, Tokens: tokens}:
			case <-ctx.Done():
				errs <- ctx.Err()
				return
			}
		}
	}()
	return out, errs
}

// readPage extracts word tokens from one page. The pdf library panics on
// some malformed content streams; a panic becomes an empty page.
func readPage(p pdf.Page) (tokens []domain.Token, err error) {
	defer func() {
		if r := recover(); r != nil {
			tokens, err = nil, fmt.Errorf("read content: %v", r)
		}
	}()
	if p.V.IsNull() {
		return nil, nil
	}
	glyphs := p.Content().Text
	box, ok := pageBox(p.V)
	if !ok {
		box = textBounds(glyphs)
	}
	return groupWords(glyphs, box), nil
}

// mediaBox is a page rectangle in PDF user space (origin bottom left).
type mediaBox struct {
	X0, Y0, X1, Y1 float64
}

func (m mediaBox) width() float64  { return m.X1 - m.X0 }
func (m mediaBox) height() float64 { return m.Y1 - m.Y0 }

// pageBox reads the MediaBox, following the page tree for inherited values.
func pageBox(v pdf.Value) (mediaBox, bool) {
	for range 32 {
		if v.IsNull() {
			break
		}
		if mb := v.Key("MediaBox"); mb.Kind() == pdf.Array && mb.Len() == 4 {
			box := mediaBox{X0: number(mb.Index(0)), Y0: number(mb.Index(1)), X1: number(mb.Index(2)), Y1: number(mb.Index(3))}
			if box.width() > 0 && box.height() > 0 {
				return box, true
			}
		}
		v = v.Key("Parent")
	}
	return mediaBox{}, false
}

func number(v pdf.Value) float64 {
	switch v.Kind() {
	case pdf.Integer:
		return float64(v.Int64())
	case pdf.Real:
		return v.Float64()
	}
	return 0
}

// textBounds guesses a page rectangle from the glyphs themselves.
func textBounds(glyphs []pdf.Text) mediaBox {
	if len(glyphs) == 0 {
		return a4
	}
	box := mediaBox{X0: 0, Y0: 0}
	for _, g := range glyphs {
		box.X1 = max(box.X1, g.X+g.W)
		box.Y1 = max(box.Y1, g.Y+g.FontSize)
	}
	if box.X1 < a4.X1 && box.Y1 < a4.Y1 {
		return a4
	}
	return box
}

// glyph spacing thresholds, relative to the font size.
const (
	rowTolerance = 0.5
	wordGap      = 0.25
)

// groupWords assembles glyphs into words. Glyphs sharing a baseline form a
// row; inside a row a whitespace glyph or a horizontal gap wider than a
// quarter of the font size ends the word. Boxes are page fractions with the
// origin at the top left.
func groupWords(glyphs []pdf.Text, page mediaBox) []domain.Token {
	if len(glyphs) == 0 || page.width() <= 0 || page.height() <= 0 {
		return nil
	}

	sorted := make([]pdf.Text, len(glyphs))
	copy(sorted, glyphs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Y > sorted[j].Y
	})

	var rows [][]pdf.Text
	for _, g := range sorted {
		n := len(rows)
		if n > 0 {
			head := rows[n-1][0]
			tol := max(head.FontSize, g.FontSize, 1) * rowTolerance
			if head.Y-g.Y <= tol {
				rows[n-1] = append(rows[n-1], g)
				continue
			}
		}
		rows = append(rows, []pdf.Text{g})
	}

	var tokens []domain.Token
	for _, row := range rows {
		sort.SliceStable(row, func(i, j int) bool { return row[i].X < row[j].X })
		tokens = append(tokens, rowWords(row, page)...)
	}
	return tokens
}

type word struct {
	text        strings.Builder
	x0, x1      float64
	bottom, top float64
}

func rowWords(row []pdf.Text, page mediaBox) []domain.Token {
	var (
		tokens []domain.Token
		cur    *word
	)
	flush := func() {
		if cur == nil {
			return
		}
		if text := strings.TrimSpace(cur.text.String()); text != "" {
			tokens = append(tokens, domain.Token{Text: text, Box: cur.box(page)})
		}
		cur = nil
	}

	for _, g := range row {
		if strings.TrimFunc(g.S, unicode.IsSpace) == "" {
			flush()
			continue
		}
		size := max(g.FontSize, 1)
		if cur != nil && g.X-cur.x1 > size*wordGap {
			flush()
		}
		if cur == nil {
			cur = &word{x0: g.X, x1: g.X, bottom: g.Y, top: g.Y}
		}
		cur.text.WriteString(g.S)
		cur.x1 = max(cur.x1, g.X+g.W)
		cur.bottom = min(cur.bottom, g.Y-0.2*size)
		cur.top = max(cur.top, g.Y+0.8*size)
	}
	flush()
	return tokens
}

func (w *word) box(page mediaBox) domain.BoundingBox {
	return domain.BoundingBox{
		X0: clamp01((w.x0 - page.X0) / page.width()),
		X1: clamp01((w.x1 - page.X0) / page.width()),
		Y0: clamp01((page.Y1 - w.top) / page.height()),
		Y1: clamp01((page.Y1 - w.bottom) / page.height()),
	}
}
