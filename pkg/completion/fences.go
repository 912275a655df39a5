package completion

import "strings"

// StripFences removes one surrounding markdown code fence from model output.
// The opening fence may carry a language tag (```json). Text without a
// leading fence is returned trimmed but otherwise unchanged.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}

	nl := strings.IndexByte(s, '\n')
	if nl < 0 {
		// Single line: ```json {...}```
		s = strings.TrimSuffix(strings.TrimPrefix(s, "```"), "```")
		if i := strings.IndexAny(s, "{["); i > 0 {
			s = s[i:]
		}
		return strings.TrimSpace(s)
	}
	body := s[nl+1:]
	if end := strings.LastIndex(body, "```"); end >= 0 {
		body = body[:end]
	}
	return strings.TrimSpace(body)
}
