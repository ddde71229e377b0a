package scanner

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/wbattistetti/AILawyer-sub000/internal/core/domain"
)

// clauseLimit bounds how far after an anchor fields are harvested.
const clauseLimit = 240

var (
	taxCodeRe    = regexp.MustCompile(`(?i)\b[A-Z]{6}[0-9LMNPQRSTUV]{2}[ABCDEHLMPRST][0-9LMNPQRSTUV]{2}[A-Z][0-9LMNPQRSTUV]{3}[A-Z]\b`)
	numDateRe    = regexp.MustCompile(`\b([0-3]?\d)[/.\-]([01]?\d)[/.\-]((?:19|20)\d{2})\b`)
	textDateRe   = regexp.MustCompile(`(?i)\b([0-3]?\d)\s+(gen|feb|mar|apr|mag|giu|lug|ago|set|ott|nov|dic)[a-z]*\s+((?:19|20)\d{2})\b`)
	phoneRe      = regexp.MustCompile(`(?:\+39\s?)?\b(?:0\d{1,3}|3\d{2})[\s./-]?\d{5,8}\b`)
	emailRe      = regexp.MustCompile(`(?i)\b[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}\b`)
	residenceRe  = regexp.MustCompile(`(?i)\b(resident[ea]|residenza|domiciliat[oa]|domicilio\s+eletto)\s+(?:in|a|presso)\s+`)
	postalCityRe = regexp.MustCompile(`\b(\d{5})\s+(\p{Lu}[\p{L}'’\-]*(?:\s+\p{Lu}[\p{L}'’\-]*){0,2})(?:\s*\(([A-Z]{2})\))?`)
	placeRe      = regexp.MustCompile(`^\s*(?:(?i:a)\s+)?(\p{Lu}[\p{L}'’\-]*(?:\s+\p{Lu}[\p{L}'’\-]*){0,3})`)
)

var months = map[string]int{
	"gen": 1, "feb": 2, "mar": 3, "apr": 4, "mag": 5, "giu": 6,
	"lug": 7, "ago": 8, "set": 9, "ott": 10, "nov": 11, "dic": 12,
}

// NormalizeDate converts "01/02/1970", "1.2.1970" or "1 febbraio 1970" to
// ISO "1970-02-01". It returns "" when s holds no valid date.
func NormalizeDate(s string) string {
	if m := numDateRe.FindStringSubmatch(s); m != nil {
		return isoDate(m[1], m[2], m[3])
	}
	if m := textDateRe.FindStringSubmatch(s); m != nil {
		month := months[strings.ToLower(m[2])]
		return isoDate(m[1], strconv.Itoa(month), m[3])
	}
	return ""
}

func isoDate(day, month, year string) string {
	d, err1 := strconv.Atoi(day)
	m, err2 := strconv.Atoi(month)
	y, err3 := strconv.Atoi(year)
	if err1 != nil || err2 != nil || err3 != nil {
		return ""
	}
	if d < 1 || d > 31 || m < 1 || m > 12 {
		return ""
	}
	return fmt.Sprintf("%04d-%02d-%02d", y, m, d)
}

// harvest is what the clause after an anchor tells about a person.
type harvest struct {
	fields    domain.OccurrenceFields
	residence string
	domicile  string
}

// clauseAfter returns the text following offset up to the next ';', the next
// birth anchor or clauseLimit bytes, whichever comes first.
func clauseAfter(text string, offset int) string {
	if offset >= len(text) {
		return ""
	}
	end := min(len(text), offset+clauseLimit)
	rest := text[offset:end]
	if i := strings.IndexAny(rest, ";\n"); i >= 0 {
		rest = rest[:i]
	}
	if loc := birthAnchorRe.FindStringIndex(rest); loc != nil {
		rest = rest[:loc[0]]
	}
	return rest
}

// harvestClause extracts fields from the clause following an anchor.
// birth enables place and date of birth, which only make sense after a birth anchor.
func harvestClause(clause string, birth bool) harvest {
	var h harvest

	birthPart := clause
	if loc := residenceRe.FindStringIndex(clause); loc != nil {
		birthPart = clause[:loc[0]]
	}
	if birth {
		if m := placeRe.FindStringSubmatch(birthPart); m != nil {
			h.fields.PlaceOfBirth = strings.TrimSpace(m[1])
		}
		h.fields.DOB = NormalizeDate(birthPart)
	}

	if m := taxCodeRe.FindString(clause); m != "" {
		h.fields.TaxCode = strings.ToUpper(m)
	}
	if m := emailRe.FindString(clause); m != "" {
		h.fields.Email = m
	}
	if m := phoneRe.FindString(clause); m != "" {
		h.fields.Phone = strings.TrimSpace(m)
	}

	locs := residenceRe.FindAllStringSubmatchIndex(clause, -1)
	for i, loc := range locs {
		end := len(clause)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		raw := strings.Trim(strings.TrimSpace(clause[loc[1]:end]), ",.")
		if raw == "" {
			continue
		}
		keyword := strings.ToLower(clause[loc[2]:loc[3]])
		if strings.HasPrefix(keyword, "domicil") {
			if h.domicile == "" {
				h.domicile = raw
			}
			continue
		}
		if h.residence != "" {
			continue
		}
		h.residence = raw
		street, _, _ := strings.Cut(raw, ",")
		h.fields.Address = strings.TrimSpace(street)
		if pc := postalCityRe.FindStringSubmatch(raw); pc != nil {
			h.fields.PostalCode = pc[1]
			h.fields.City = strings.TrimSpace(pc[2])
			h.fields.Province = pc[3]
		}
	}
	return h
}

// ExtractFields harvests identity fields from free text following a birth anchor.
func ExtractFields(text string) domain.OccurrenceFields {
	return harvestClause(text, true).fields
}
