package flowchart

import (
	"strconv"
	"strings"
)

// maxSanitizedLength bounds the slug produced by SanitizeID. Collision
// suffixes may extend it up to MaxNodeIDLength.
const maxSanitizedLength = 50

// SanitizeID turns raw into a lowercase slug of [a-z0-9] runs joined by
// single hyphens, at most 50 characters long. An empty result yields
// fallback.
//
//	SanitizeID("Start Node!!", "node-1") // "start-node"
func SanitizeID(raw, fallback string) string {
	var b strings.Builder
	b.Grow(len(raw))
	pendingHyphen := false
	for _, r := range strings.ToLower(raw) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
			continue
		}
		pendingHyphen = true
	}

	id := b.String()
	if len(id) > maxSanitizedLength {
		id = strings.TrimRight(id[:maxSanitizedLength], "-")
	}
	if id == "" {
		return fallback
	}
	return id
}

// IDSet tracks identifiers claimed within one document.
type IDSet map[string]struct{}

// NewIDSet returns an empty IDSet.
func NewIDSet() IDSet { return make(IDSet) }

// Has reports whether id is claimed.
func (s IDSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Claim records and returns candidate if it is unused. Otherwise it appends
// the 1-based position index ("step" at position 2 becomes "step-2"). If the
// suffixed form is taken too, a counter is appended until the id is free.
func (s IDSet) Claim(candidate string, index int) string {
	id := candidate
	if s.Has(id) {
		base := candidate + "-" + strconv.Itoa(index)
		id = base
		for n := 2; s.Has(id); n++ {
			id = base + "-" + strconv.Itoa(n)
		}
	}
	s[id] = struct{}{}
	return id
}
