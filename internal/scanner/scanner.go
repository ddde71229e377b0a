package scanner

import (
	"strings"
	"unicode/utf8"

	"github.com/wbattistetti/AILawyer-sub000/internal/core/domain"
	"github.com/wbattistetti/AILawyer-sub000/internal/logger"
)

// Rule confidences.
const (
	EnumeratedConfidence = 0.85
	EnumeratedDOBBonus   = 0.05
	AnchorConfidence     = 0.75
	PreAnchorConfidence  = 0.75
	LenientConfidence    = 0.6
)

const (
	// leftWindow is how many tokens left of an anchor are considered.
	leftWindow = 12
	// maxNameTokens caps a name found left of an anchor.
	maxNameTokens = 4
	// contextTokens is how many tokens left of a name are checked for prose.
	contextTokens = 3
	// lenientReach is how many characters after a lenient match may hold an anchor.
	lenientReach = 120
)

// Config customises a Scanner.
type Config struct {
	// ExtraBlacklist adds administrative nouns that never form a person name.
	ExtraBlacklist []string
}

// Scanner detects person occurrences on a page. It holds no per-page state
// and is safe for concurrent use.
type Scanner struct {
	blacklist wordSet
}

var defaultScanner = New(Config{})

// New creates a Scanner.
func New(cfg Config) *Scanner {
	words := append(append([]string{}, nonNameWords...), cfg.ExtraBlacklist...)
	return &Scanner{blacklist: newWordSet(words...)}
}

// ScanPage runs every rule over one page and returns deduplicated candidates
// in rule order: enumerated, anchor, pre-anchor, lenient.
func (s *Scanner) ScanPage(tokens []domain.Token, page int, lenient bool) []domain.Occurrence {
	p := NewPage(tokens)
	if p.Len() == 0 {
		return nil
	}

	var hits []domain.Occurrence
	hits = append(hits, s.enumerated(p, page)...)
	hits = append(hits, s.anchored(p, page)...)
	hits = append(hits, s.preAnchored(p, page)...)
	if lenient {
		hits = append(hits, s.lenient(p, page)...)
	}
	return Dedup(hits)
}

// ScanPage scans with the default vocabulary.
func ScanPage(tokens []domain.Token, page int, lenient bool) []domain.Occurrence {
	return defaultScanner.ScanPage(tokens, page, lenient)
}

// stripLeadingTitle removes a courtesy title at the start of a matched name
// and returns the remaining name with the number of bytes removed.
func stripLeadingTitle(name string) (string, int) {
	loc := leadingTitleRe.FindStringIndex(name)
	if loc == nil {
		return strings.TrimSpace(name), 0
	}
	rest := name[loc[1]:]
	trimmed := strings.TrimLeft(rest, " ")
	return strings.TrimSpace(trimmed), loc[1] + len(rest) - len(trimmed)
}

func newOccurrence(p *Page, page int, full string, start, length int, rule domain.Rule, conf float64) domain.Occurrence {
	first, last := SplitName(full)
	return domain.Occurrence{
		FullName:   full,
		FirstName:  first,
		LastName:   last,
		Confidence: min(1, conf),
		Page:       page,
		Box:        p.BoxForSpan(start, length),
		Snippet:    p.Snippet(start, length),
		Rule:       rule,
	}
}

func finalize(o *domain.Occurrence, h harvest) {
	o.Fields = h.fields
	o.RawResidence = h.residence
	o.RawDomicile = h.domicile
	o.PersonKey = PersonKey(o.FullName, o.Fields.DOB, o.Fields.City)
}

// enumerated matches "<N>. <Name>, nato/a a <place> il <date>".
func (s *Scanner) enumerated(p *Page, page int) []domain.Occurrence {
	var out []domain.Occurrence
	for _, m := range enumeratedRe.FindAllStringSubmatchIndex(p.Text, -1) {
		nameStart, nameEnd := m[2], m[3]
		full, skipped := stripLeadingTitle(p.Text[nameStart:nameEnd])
		if full == "" || !s.IsLikelyPersonName(full) {
			logger.Debug("enumerated: rejected %q on page %d", full, page)
			continue
		}
		start := nameStart + skipped

		h := harvestClause(clauseAfter(p.Text, m[1]), false)
		h.fields.PlaceOfBirth = strings.TrimSpace(p.Text[m[4]:m[5]])
		h.fields.DOB = NormalizeDate(p.Text[m[6]:m[7]])

		conf := EnumeratedConfidence
		if h.fields.DOB != "" {
			conf += EnumeratedDOBBonus
		}
		occ := newOccurrence(p, page, full, start, len(full), domain.RuleEnumerated, conf)
		finalize(&occ, h)
		out = append(out, occ)
	}
	return out
}

// anchored finds names in the token window left of every anchor.
func (s *Scanner) anchored(p *Page, page int) []domain.Occurrence {
	var out []domain.Occurrence
	for _, loc := range anchorRe.FindAllStringIndex(p.Text, -1) {
		anchor := p.Text[loc[0]:loc[1]]
		if strings.EqualFold(anchor, "n.") && digitsAfterRe.MatchString(p.Text[loc[1]:]) {
			continue
		}
		at := p.index.TokenAt(loc[0])
		name, ok := s.nameLeftOf(p, at)
		if !ok {
			continue
		}

		start := p.tokens[name.from].start
		length := p.tokens[name.to].end - start
		occ := newOccurrence(p, page, name.text, start, length, domain.RuleAnchor, AnchorConfidence)
		occ.Box = p.Box(name.from, name.to)
		occ.Title = name.title

		birth := birthAnchorRe.MatchString(anchor) || strings.EqualFold(anchor, "n.")
		clauseStart := loc[1]
		if !birth {
			clauseStart = loc[0]
		}
		finalize(&occ, harvestClause(clauseAfter(p.Text, clauseStart), birth))
		out = append(out, occ)
	}
	return out
}

// preAnchored matches a capitalised sequence directly followed by a birth anchor.
func (s *Scanner) preAnchored(p *Page, page int) []domain.Occurrence {
	var out []domain.Occurrence
	for _, m := range preAnchorRe.FindAllStringSubmatchIndex(p.Text, -1) {
		full, skipped := stripLeadingTitle(p.Text[m[2]:m[3]])
		if full == "" || !s.IsLikelyPersonName(full) {
			continue
		}
		start := m[2] + skipped
		if prev := p.index.TokenAt(start) - 1; prev >= 0 && s.blocksContext(p.tokens[prev].core) {
			logger.Debug("pre-anchor: %q blocked by %q on page %d", full, p.tokens[prev].core, page)
			continue
		}
		anchorEnd := m[1]
		if strings.HasSuffix(strings.ToLower(p.Text[m[0]:m[1]]), "n.") && digitsAfterRe.MatchString(p.Text[anchorEnd:]) {
			continue
		}

		occ := newOccurrence(p, page, full, start, len(full), domain.RulePreAnchor, PreAnchorConfidence)
		finalize(&occ, harvestClause(clauseAfter(p.Text, anchorEnd), true))
		out = append(out, occ)
	}
	return out
}

// lenient accepts any capitalised sequence with an anchor shortly after it.
func (s *Scanner) lenient(p *Page, page int) []domain.Occurrence {
	var out []domain.Occurrence
	for _, m := range nameSeqRe.FindAllStringIndex(p.Text, -1) {
		full, skipped := stripLeadingTitle(p.Text[m[0]:m[1]])
		if full == "" || !s.IsLikelyPersonName(full) {
			continue
		}
		reach := m[1]
		for n := 0; reach < len(p.Text) && n < lenientReach; n++ {
			_, size := utf8.DecodeRuneInString(p.Text[reach:])
			reach += size
		}
		loc := anchorRe.FindStringIndex(p.Text[m[1]:reach])
		if loc == nil {
			continue
		}

		start := m[0] + skipped
		occ := newOccurrence(p, page, full, start, len(full), domain.RuleLenient, LenientConfidence)
		finalize(&occ, harvest{})
		out = append(out, occ)
	}
	return out
}
