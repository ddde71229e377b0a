package scanner

import (
	"strings"

	"github.com/wbattistetti/AILawyer-sub000/internal/logger"
)

// leftName is a name found in the window left of an anchor.
type leftName struct {
	from, to int
	text     string
	title    string
}

// windowStart scans left from the token before the anchor and returns the
// leftmost token index of the window. The scan stops at punctuation, at a
// lowercase word that is not a particle, or after leftWindow tokens.
func (s *Scanner) windowStart(p *Page, anchor int) int {
	last := anchor - 1
	minI := max(0, anchor-leftWindow)
	i := last
	for ; i >= minI; i-- {
		t := p.tokens[i]
		if t.punct {
			break
		}
		// A separator right before the anchor ("Rossi, nato") belongs to the
		// name; anywhere else it closes the window.
		if t.trail && i != last {
			break
		}
		if isLowerWord(t.core) && !isParticle(t.core) {
			break
		}
		if t.lead {
			i--
			break
		}
	}
	return max(minI, i+1)
}

// nameLeftOf extracts the name closest to the anchor at token index anchor.
func (s *Scanner) nameLeftOf(p *Page, anchor int) (leftName, bool) {
	last := anchor - 1
	if last < 0 {
		return leftName{}, false
	}
	lo := s.windowStart(p, anchor)
	if lo > last {
		return leftName{}, false
	}

	// Keep the last run of 2..5 name tokens in the window.
	bestFrom, bestTo := -1, -1
	runStart := -1
	closeRun := func(end int) {
		if runStart < 0 {
			return
		}
		if n := end - runStart + 1; n >= 2 && n <= 5 {
			bestFrom, bestTo = runStart, end
		}
		runStart = -1
	}
	for k := lo; k <= last; k++ {
		if s.isNameToken(p.tokens[k].core) {
			if runStart < 0 {
				runStart = k
			}
			continue
		}
		closeRun(k - 1)
	}
	closeRun(last)
	if bestFrom < 0 {
		return leftName{}, false
	}

	// Trim leading articles and administrative nouns, even when capitalised.
	from := bestFrom
	for from <= bestTo && (stopTokens.has(p.tokens[from].core) || s.blacklist.has(p.tokens[from].core)) {
		from++
	}
	if from > bestTo {
		return leftName{}, false
	}

	// A title inside the run ("Giudice Mario Rossi") is not part of the name.
	title, titleFrom := "", -1
	if t, n, ok := p.titleAt(from, bestTo); ok && bestTo-(from+n) >= 1 {
		title, titleFrom = t, from
		from += n
	}

	keep := min(maxNameTokens, max(2, bestTo-from+1))
	start := max(from, bestTo-keep+1)
	if title == "" {
		if t, at, ok := p.titleBefore(start); ok {
			title, titleFrom = t, at
		}
	}

	ctxEnd := start
	if titleFrom >= 0 {
		ctxEnd = titleFrom
	}
	if blocked := s.blockedContext(p, ctxEnd); blocked != "" {
		logger.Debug("anchor: name at token %d blocked by %q", start, blocked)
		return leftName{}, false
	}

	words := make([]string, 0, bestTo-start+1)
	for _, t := range p.tokens[start : bestTo+1] {
		words = append(words, t.core)
	}
	text := strings.TrimSpace(strings.Join(words, " "))
	if !s.IsLikelyPersonName(text) {
		logger.Debug("anchor: rejected %q", text)
		return leftName{}, false
	}
	return leftName{from: start, to: bestTo, text: text, title: title}, true
}

// blockedContext checks up to contextTokens tokens left of at and returns
// the first one that marks running prose or an administrative phrase.
// The check stops at a clause boundary.
func (s *Scanner) blockedContext(p *Page, at int) string {
	for i := at - 1; i >= 0 && i >= at-contextTokens; i-- {
		t := p.tokens[i]
		if t.punct || t.trail {
			return ""
		}
		if s.blocksContext(t.core) {
			return t.core
		}
		if t.lead {
			return ""
		}
	}
	return ""
}
