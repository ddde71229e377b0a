package scanner

import (
	"regexp"
	"strings"
)

// Building blocks for name sequences. Name words are case sensitive,
// particles and anchors are not.
const (
	capSrc      = `[A-ZÀ-Ü]`
	lowerSrc    = `[a-zà-ü'’\-]+`
	allCapsSrc  = `[A-ZÀ-Ü'’\-]{2,}`
	wordSrc     = `(?:` + capSrc + lowerSrc + `|` + allCapsSrc + `)`
	particleSrc = `(?i:d'|de|di|del|della|dell'|dei|degli|delle|da|dal|van|von|mc|mac|san|santa)`
	chunkSrc    = `(?:` + wordSrc + `|` + particleSrc + `\s+` + wordSrc + `|` + wordSrc + `\s+` + particleSrc + `\s+` + wordSrc + `)`
	nameSeqSrc  = chunkSrc + `(?:\s+` + chunkSrc + `){1,4}`

	birthAnchorSrc = `(?i:\bnat[oa](?:/a)?(?:\s+a)?\b|\bn\.)`
	anchorSrc      = `(?i:\bnat[oa](?:/a)?(?:\s+a)?\b|\bn\.|\bresident[ea]\b|\bresidenza\b|\bdomiciliat[oa]\b|\bdomicilio\s+eletto\b)`
	dateSrc        = `[0-3]?\d[./-][01]?\d[./-](?:19|20)\d{2}`
)

var (
	nameSeqRe = regexp.MustCompile(nameSeqSrc)

	enumeratedRe = regexp.MustCompile(
		`(?:^|[;\n]|\s)\d{1,3}\.\s*(?P<name>` + nameSeqSrc + `)\s*,\s*(?i:nat[oa](?:/a)?\s+a)\s+(?P<pob>[^,;]+?)\s+(?:(?i:il)\s+)?(?P<dob>` + dateSrc + `)`)

	preAnchorRe = regexp.MustCompile(`(` + nameSeqSrc + `)\s*,?\s+` + birthAnchorSrc)

	anchorRe      = regexp.MustCompile(anchorSrc)
	birthAnchorRe = regexp.MustCompile(`(?i:\bnat[oa](?:/a)?(?:\s+a)?\b)`)

	leadingTitleRe = regexp.MustCompile(`(?i)^(?:sig\.?|sig\.ra|avv\.|dott\.ssa?|ing\.|geom\.|rag\.)\s+`)
	trailingArtRe  = regexp.MustCompile(`(?i)(?:\s|^)(?:il|la|lo)$`)
	digitsAfterRe  = regexp.MustCompile(`^\s*\d`)

	titleCaseRe = regexp.MustCompile(`^[A-ZÀ-ÖØ-Ý][a-zà-öø-ÿ'’\-]+$`)
	upperRe     = regexp.MustCompile(`^[A-ZÀ-ÖØ-Ý][A-ZÀ-ÖØ-Ý'’\-]+$`)
	lowerWordRe = regexp.MustCompile(`^[a-zà-öø-ÿ]+$`)
	particleRe  = regexp.MustCompile(`^` + particleSrc + `$`)
)

// stopTokens are soft stop words dropped before counting name tokens.
var stopTokens = newWordSet(
	"ai", "al", "allo", "alla", "alle", "agli", "dei", "degli", "delle", "del", "della", "dell",
	"all", "lo", "la", "il", "l'", "l’",
	"art", "articolo", "altre", "altro", "persone", "anno", "sensi", "riferimento", "capo", "cap", "comma",
	"convivente", "coniuge", "marito", "moglie", "figlio", "figlia", "persona", "soggetto",
	"comunicazione", "notizia",
)

// nonNameWords are capitalised administrative nouns that never form a person name.
var nonNameWords = []string{
	"comunicazione", "notizia", "reato", "oggetto", "procura", "tribunale", "comune", "questura",
	"prefettura", "ministero", "direzione", "centrale", "servizio", "sezione", "sequestro",
	"dipartimento", "ufficio", "protocollo", "prot", "numero", "via", "viale", "piazza",
}

type wordSet map[string]struct{}

func newWordSet(words ...string) wordSet {
	s := make(wordSet, len(words))
	for _, w := range words {
		s[strings.ToLower(w)] = struct{}{}
	}
	return s
}

func (s wordSet) has(w string) bool {
	_, ok := s[strings.ToLower(w)]
	return ok
}

func isTitleCase(tok string) bool { return titleCaseRe.MatchString(tok) }
func isUpper(tok string) bool     { return upperRe.MatchString(tok) }
func isLowerWord(tok string) bool { return lowerWordRe.MatchString(tok) }
func isParticle(tok string) bool  { return particleRe.MatchString(tok) }
