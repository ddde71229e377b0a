// Package scanner detects person-name occurrences on a page of positioned tokens.
//
// Detection is rule based: enumerated lists ("1. Mario Rossi, nato a ..."),
// name runs to the left of birth and residence anchors, names directly followed
// by a birth anchor and, in lenient mode, any capitalised sequence with an anchor
// shortly after it. Every candidate passes the same name-likelihood gate and is
// deduplicated by name and box overlap.
//
// The Worker runs a Scanner on its own goroutine and talks to the caller only
// through typed request and response messages.
package scanner
