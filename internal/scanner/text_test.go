package scanner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wbattistetti/AILawyer-sub000/internal/core/domain"
)

func TestNormalizeText(t *testing.T) {
	assert.Equal(t, "Mario Rossi", NormalizeText("  Mario \tRossi  "))
	assert.Equal(t, "a b", NormalizeText("a • b"))
	assert.Equal(t, "fi", NormalizeText("ﬁ"))
	assert.Equal(t, "", NormalizeText(" · "))
}

func TestNewPage_DropsEmptyTokens(t *testing.T) {
	p := NewPage([]domain.Token{{Text: "Mario"}, {Text: "•"}, {Text: "Rossi"}})

	assert.Equal(t, "Mario Rossi", p.Text)
	assert.Equal(t, 2, p.Len())
}

func TestOffsetIndex_TokenAt(t *testing.T) {
	// "ab cde f"
	idx := NewOffsetIndex([]int{2, 3, 1})

	tests := []struct {
		offset int
		want   int
	}{
		{0, 0},
		{1, 0},
		{2, 1}, // separator maps to the next token
		{3, 1},
		{5, 1},
		{6, 2},
		{7, 2},
		{100, 2},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, idx.TokenAt(tt.offset), "offset %d", tt.offset)
	}

	assert.Equal(t, -1, NewOffsetIndex(nil).TokenAt(0))
}

func TestOffsetIndex_Span(t *testing.T) {
	idx := NewOffsetIndex([]int{2, 3, 1})

	from, to, ok := idx.Span(0, 2)
	require.True(t, ok)
	assert.Equal(t, 0, from)
	assert.Equal(t, 0, to)

	from, to, ok = idx.Span(1, 7)
	require.True(t, ok)
	assert.Equal(t, 0, from)
	assert.Equal(t, 1, to, "token starting at the span end is excluded")

	from, to, ok = idx.Span(1, 8)
	require.True(t, ok)
	assert.Equal(t, 2, to)

	from, to, ok = idx.Span(4, 5)
	require.True(t, ok)
	assert.Equal(t, 1, from)
	assert.Equal(t, 1, to)

	_, _, ok = idx.Span(2, 3)
	assert.False(t, ok, "separator only")

	_, _, ok = idx.Span(3, 3)
	assert.False(t, ok, "empty span")
}

func TestPage_BoxForSpan(t *testing.T) {
	p := NewPage(lineTokens("Mario Rossi nato"))

	box := p.BoxForSpan(0, len("Mario Rossi"))
	assert.InDelta(t, 0.02, box.X0, 1e-9)
	assert.InDelta(t, 0.17, box.X1, 1e-9)

	assert.True(t, p.BoxForSpan(500, 3).IsZero())
}

func TestSnippet(t *testing.T) {
	text := "Premesso che in data odierna è comparso davanti a noi il signor Mario Rossi nato a Roma il primo gennaio"
	start := len("Premesso che in data odierna è comparso davanti a noi il signor ")
	s := snippet(text, start, len("Mario Rossi"))

	assert.Contains(t, s, "Mario Rossi")
	assert.LessOrEqual(t, len([]rune(s)), len("Mario Rossi")+2*snippetRadius)
	assert.Equal(t, "short", snippet("short", 0, 5))
}

func TestPersonKey(t *testing.T) {
	a := PersonKey("Mario Rossi", "1970-02-01", "Roma")
	b := PersonKey("  MARIO   rossi ", "1970-02-01", "ROMA")
	c := PersonKey("Mario Rossi", "1985-06-10", "Roma")

	assert.Regexp(t, `^p_[0-9a-f]+$`, a)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}
