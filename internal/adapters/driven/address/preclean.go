package address

import (
	"regexp"
	"strings"
)

var (
	careOfRe  = regexp.MustCompile(`(?i)(?:c/o|presso)\s+[^,;]+`)
	prefixRe  = regexp.MustCompile(`(?i)(?:ivi\s+residente\s+in|residente\s+in|domiciliat[oa]\s+in|dom\.\s*in|con\s+domicilio\s+eletto\s+presso)`)
	leadSepRe = regexp.MustCompile(`^[,;\s]+`)
	spacesRe  = regexp.MustCompile(`\s+`)
)

// Street and suffix abbreviations expanded before the text is sent.
var aliases = []struct {
	re   *regexp.Regexp
	with string
}{
	{regexp.MustCompile(`(?i)\bP\.zza\b`), "Piazza"},
	{regexp.MustCompile(`(?i)\bP\.za\b`), "Piazza"},
	{regexp.MustCompile(`(?i)\bV\.le\b`), "Viale"},
	{regexp.MustCompile(`(?i)\bV\.lo\b`), "Vicolo"},
	{regexp.MustCompile(`(?i)\bC\.so\b`), "Corso"},
	{regexp.MustCompile(`(?i)\bL\.go\b`), "Largo"},
	{regexp.MustCompile(`(?i)\bS\.N\.C\.?`), "SNC"},
	{regexp.MustCompile(`\bK[Mm]\b`), "KM"},
}

// Preclean drops the first care-of block, cuts everything up to the first
// residence or domicile prefix and expands street abbreviations.
func Preclean(raw string) string {
	s := strings.TrimSpace(raw)

	if loc := careOfRe.FindStringIndex(s); loc != nil {
		s = strings.TrimSpace(spacesRe.ReplaceAllString(s[:loc[0]]+s[loc[1]:], " "))
	}
	if loc := prefixRe.FindStringIndex(s); loc != nil {
		s = leadSepRe.ReplaceAllString(s[loc[1]:], "")
	}
	for _, a := range aliases {
		s = a.re.ReplaceAllString(s, a.with)
	}
	return strings.TrimSpace(spacesRe.ReplaceAllString(s, " "))
}
