package scanner

import "strings"

// IsLikelyPersonName is the false-positive gate every candidate passes.
// After dropping soft stop words it needs at least two TitleCase or ALL-CAPS
// tokens, a TitleCase or ALL-CAPS last token, no trailing article, and no
// blacklisted administrative noun outside particles.
func (s *Scanner) IsLikelyPersonName(full string) bool {
	full = strings.TrimSpace(full)
	var parts []string
	for _, p := range strings.Fields(full) {
		if !stopTokens.has(p) {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return false
	}

	nameTokens := 0
	for _, p := range parts {
		if isTitleCase(p) || isUpper(p) {
			nameTokens++
		}
	}
	if nameTokens < 2 {
		return false
	}

	last := parts[len(parts)-1]
	if !isTitleCase(last) && !isUpper(last) {
		return false
	}
	if trailingArtRe.MatchString(full) {
		return false
	}
	for _, p := range parts {
		if !isParticle(p) && s.blacklist.has(p) {
			return false
		}
	}
	return true
}

// IsLikelyPersonName checks full against the default vocabulary.
func IsLikelyPersonName(full string) bool {
	return defaultScanner.IsLikelyPersonName(full)
}

// isNameToken reports whether a single token can be part of a name run.
func (s *Scanner) isNameToken(tok string) bool {
	if s.blacklist.has(tok) {
		return false
	}
	return isUpper(tok) || isTitleCase(tok) || isParticle(tok)
}

// blocksContext reports whether a token left of a name marks running prose
// or an administrative phrase.
func (s *Scanner) blocksContext(tok string) bool {
	if isLowerWord(tok) && !isParticle(tok) {
		return true
	}
	return stopTokens.has(tok) || s.blacklist.has(tok)
}

// SplitName returns first and last name. "Rossi, Mario" is read as last, first;
// otherwise the last token is the last name.
func SplitName(full string) (first, last string) {
	s := strings.Join(strings.Fields(full), " ")
	if l, r, ok := strings.Cut(s, ","); ok {
		return strings.TrimSpace(r), strings.TrimSpace(l)
	}
	parts := strings.Fields(s)
	if len(parts) == 0 {
		return "", ""
	}
	return strings.Join(parts[:len(parts)-1], " "), parts[len(parts)-1]
}
