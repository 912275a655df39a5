package errors

import (
	"regexp"
	"unicode"
	"unicode/utf8"
)

// ValidateText validates a free-text field that is being edited in place.
// The value may not exceed max runes and may not contain control characters
// other than newline and tab. When required is true the value must be
// non-empty.
//
// The returned error carries ErrCodeInvalidEdit.
func ValidateText(field, value string, max int, required bool) error {
	if required && value == "" {
		return New(ErrCodeInvalidEdit, "%s cannot be empty", field)
	}

	if n := utf8.RuneCountInString(value); n > max {
		return New(ErrCodeInvalidEdit, "%s too long (%d characters, max %d)", field, n, max)
	}

	for _, r := range value {
		if r == '\n' || r == '\t' {
			continue
		}
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidEdit, "%s contains invalid control characters", field)
		}
	}

	return nil
}

// hexColorRegex matches a 6-digit hex color with a leading '#'.
var hexColorRegex = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// IsHexColor reports whether s is a 6-digit hex color such as "#1f2a44".
func IsHexColor(s string) bool {
	return hexColorRegex.MatchString(s)
}

// ValidatePrompt validates a free-text generation prompt.
// Prompts must be non-empty and at most 4000 characters.
func ValidatePrompt(prompt string) error {
	if prompt == "" {
		return New(ErrCodeInvalidInput, "prompt cannot be empty")
	}

	const maxPromptLength = 4000
	if n := utf8.RuneCountInString(prompt); n > maxPromptLength {
		return New(ErrCodeInvalidInput, "prompt too long (max %d characters)", maxPromptLength)
	}

	return nil
}
