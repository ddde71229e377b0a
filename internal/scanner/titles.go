package scanner

import (
	"regexp"
	"strings"
)

var (
	singleTitleRe = regexp.MustCompile(`(?i)^(?:avv\.?t?i?|avvocato|dott\.?ssa?|dr\.?ssa?|ing\.?|geom\.?|arch\.?|rag\.?|prof\.?|giudice|magistrato|pm|p\.?m\.?|maresciallo|isp\.?|sovr\.?|ten\.?|cap\.?)$`)
	multiTitleRe  = regexp.MustCompile(`(?i)^(?:pubblico\s+ministero|sost\.?\s+proc\.?|sostituto\s+procuratore)$`)
)

// titlePrefixes maps a lowercased, dot-free prefix to its canonical title.
// Order matters: the first matching prefix wins.
var titlePrefixes = []struct {
	prefix string
	title  string
}{
	{"avv", "Avvocato"},
	{"ing", "Ingegnere"},
	{"geom", "Geometra"},
	{"arch", "Architetto"},
	{"rag", "Ragioniere"},
	{"prof", "Professore"},
	{"giudic", "Giudice"},
	{"magist", "Magistrato"},
	{"marescial", "Maresciallo"},
	{"tenent", "Tenente"},
	{"capit", "Capitano"},
	{"isp", "Ispettore"},
	{"sovr", "Sovrintendente"},
}

// NormalizeTitle maps an honorific as written to its canonical form.
// Unknown titles are returned trimmed.
func NormalizeTitle(raw string) string {
	r := strings.TrimSpace(strings.ToLower(strings.ReplaceAll(raw, ".", "")))
	r = strings.Join(strings.Fields(r), " ")

	switch {
	case strings.HasPrefix(r, "dott"), strings.HasPrefix(r, "dr"):
		if strings.Contains(r, "ssa") {
			return "Dottoressa"
		}
		return "Dottore"
	case strings.Contains(r, "pubblico ministero"), r == "pm", r == "p m":
		return "Pubblico Ministero"
	case strings.HasPrefix(r, "sost") && strings.Contains(r, "proc"):
		return "Sostituto Procuratore"
	case r == "ten":
		return "Tenente"
	case r == "cap":
		return "Capitano"
	}
	for _, tp := range titlePrefixes {
		if strings.HasPrefix(r, tp.prefix) {
			return tp.title
		}
	}
	return strings.TrimSpace(raw)
}

// titleBefore looks for a two-token or single-token title ending right before
// token index at. It returns the canonical title and the index of its first token.
func (p *Page) titleBefore(at int) (string, int, bool) {
	if at-2 >= 0 {
		two := p.tokens[at-2].core + " " + p.tokens[at-1].core
		if multiTitleRe.MatchString(two) {
			return NormalizeTitle(two), at - 2, true
		}
	}
	if at-1 >= 0 {
		one := p.tokens[at-1].core
		if singleTitleRe.MatchString(one) {
			return NormalizeTitle(one), at - 1, true
		}
	}
	return "", 0, false
}

// titleAt looks for a title starting at token index at, within [at, end].
// It returns the canonical title and the number of tokens it spans.
func (p *Page) titleAt(at, end int) (string, int, bool) {
	if at+1 <= end {
		two := p.tokens[at].core + " " + p.tokens[at+1].core
		if multiTitleRe.MatchString(two) {
			return NormalizeTitle(two), 2, true
		}
	}
	if at <= end && singleTitleRe.MatchString(p.tokens[at].core) {
		return NormalizeTitle(p.tokens[at].core), 1, true
	}
	return "", 0, false
}
