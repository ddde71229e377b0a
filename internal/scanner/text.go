package scanner

import (
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/wbattistetti/AILawyer-sub000/internal/core/domain"
)

const snippetRadius = 50

// NormalizeText applies NFKC, turns non-breaking spaces, bullets and control
// whitespace into spaces, and collapses runs of whitespace.
func NormalizeText(s string) string {
	s = norm.NFKC.String(s)
	s = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '·', '•', '∙', '\t', '\r', '\f':
			return ' '
		}
		return r
	}, s)
	return strings.Join(strings.Fields(s), " ")
}

// pageToken is a normalised token with its byte span in the page text.
type pageToken struct {
	text  string
	core  string
	box   domain.BoundingBox
	start int
	end   int

	// lead marks leading punctuation such as an opening parenthesis or quote;
	// trail marks a trailing clause separator.
	lead  bool
	trail bool
	punct bool
}

// Page is the flattened text of one page plus the mapping back to tokens.
type Page struct {
	Text   string
	tokens []pageToken
	index  OffsetIndex
}

// NewPage normalises tokens and joins them with single spaces.
// Tokens that normalise to nothing are dropped.
func NewPage(tokens []domain.Token) *Page {
	p := &Page{tokens: make([]pageToken, 0, len(tokens))}
	var b strings.Builder
	for _, t := range tokens {
		txt := NormalizeText(t.Text)
		if txt == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		start := b.Len()
		b.WriteString(txt)
		pt := pageToken{text: txt, box: t.Box, start: start, end: b.Len()}
		pt.core, pt.lead, pt.trail = splitPunct(txt)
		pt.punct = isPunct(txt)
		p.tokens = append(p.tokens, pt)
	}
	p.Text = b.String()
	lengths := make([]int, len(p.tokens))
	for i, t := range p.tokens {
		lengths[i] = len(t.text)
	}
	p.index = NewOffsetIndex(lengths)
	return p
}

// Len returns the number of tokens on the page.
func (p *Page) Len() int { return len(p.tokens) }

// Box returns the union of token boxes in [from, to].
func (p *Page) Box(from, to int) domain.BoundingBox {
	if from < 0 || to >= len(p.tokens) || from > to {
		return domain.BoundingBox{}
	}
	out := p.tokens[from].box
	for _, t := range p.tokens[from+1 : to+1] {
		out = out.Union(t.box)
	}
	return out
}

// BoxForSpan returns the union of boxes of tokens overlapping the byte span
// [start, start+length) of the page text, or the zero box when none overlap.
func (p *Page) BoxForSpan(start, length int) domain.BoundingBox {
	from, to, ok := p.index.Span(start, start+length)
	if !ok {
		return domain.BoundingBox{}
	}
	return p.Box(from, to)
}

// Snippet returns the text around [start, start+length) with snippetRadius
// characters of context on each side.
func (p *Page) Snippet(start, length int) string {
	return snippet(p.Text, start, length)
}

func snippet(text string, start, length int) string {
	s := start
	for n := 0; s > 0 && n < snippetRadius; n++ {
		_, size := utf8.DecodeLastRuneInString(text[:s])
		s -= size
	}
	e := min(len(text), max(0, start+length))
	for n := 0; e < len(text) && n < snippetRadius; n++ {
		_, size := utf8.DecodeRuneInString(text[e:])
		e += size
	}
	if s > e {
		return ""
	}
	return strings.Join(strings.Fields(text[s:e]), " ")
}

// OffsetIndex maps byte offsets of a space-joined text back to token indices.
// It holds the start and end of each token from cumulative length sums.
type OffsetIndex struct {
	starts []int
	ends   []int
}

// NewOffsetIndex builds an index for tokens of the given byte lengths,
// separated by one space each.
func NewOffsetIndex(lengths []int) OffsetIndex {
	idx := OffsetIndex{starts: make([]int, len(lengths)), ends: make([]int, len(lengths))}
	pos := 0
	for i, l := range lengths {
		idx.starts[i] = pos
		idx.ends[i] = pos + l
		pos += l + 1
	}
	return idx
}

// TokenAt returns the token containing offset. An offset on a separator maps
// to the following token, and offsets past the end map to the last token.
// It returns -1 when there are no tokens.
func (x OffsetIndex) TokenAt(offset int) int {
	if len(x.ends) == 0 {
		return -1
	}
	i := sort.SearchInts(x.ends, offset+1)
	if i >= len(x.ends) {
		return len(x.ends) - 1
	}
	return i
}

// Span returns the first and last tokens overlapping [start, end).
func (x OffsetIndex) Span(start, end int) (from, to int, ok bool) {
	if end <= start {
		return 0, 0, false
	}
	from = sort.SearchInts(x.ends, start+1)
	to = sort.SearchInts(x.starts, end) - 1
	if from >= len(x.ends) || to < from {
		return 0, 0, false
	}
	return from, to, true
}

// splitPunct strips leading opening punctuation and trailing clause separators.
func splitPunct(s string) (core string, lead, trail bool) {
	core = strings.TrimLeftFunc(s, func(r rune) bool {
		return r == '(' || r == '[' || r == '"' || r == '«' || r == '“' || r == '.' || r == '…'
	})
	lead = core != s
	trimmed := strings.TrimRightFunc(core, func(r rune) bool {
		return r == ',' || r == ';' || r == ':' || r == ')' || r == ']' || r == '"' || r == '»' || r == '”' || r == '—'
	})
	trail = trimmed != core
	return trimmed, lead, trail
}

func isPunct(s string) bool {
	switch s {
	case ",", ";", ":", ".", "—":
		return true
	}
	return false
}
