package scanner

import (
	"hash/fnv"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// NormalizeKeyPart lowercases s after NFKC and collapses whitespace.
func NormalizeKeyPart(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(norm.NFKC.String(s))), " ")
}

// PersonKey returns the provisional identity "p_<fnv1a hex>" of a name,
// date of birth and city. It is a hint only; identities are resolved later.
func PersonKey(fullName, dob, city string) string {
	h := fnv.New32a()
	h.Write([]byte(NormalizeKeyPart(fullName) + "|" + NormalizeKeyPart(dob) + "|" + NormalizeKeyPart(city)))
	return "p_" + strconv.FormatUint(uint64(h.Sum32()), 16)
}
