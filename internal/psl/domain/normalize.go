package domain

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Normalize returns text in the form used for both rule patterns and host names:
//   - a single leading "." is dropped (leading dots are optional in the list)
//   - only the first whitespace-separated token is kept (rules end at the first white space)
//   - the result is lowercased, since domains are case-insensitive
//
// Text that is not valid UTF-8 is rejected with ErrDecoding. Empty or
// whitespace-only input normalizes to "". Normalize is not idempotent for
// text starting with "..": apply it to raw input only.
func Normalize(text string) (string, error) {
	if !utf8.ValidString(text) {
		return "", fmt.Errorf("%w: %q", ErrDecoding, text)
	}
	text = strings.TrimPrefix(text, ".")
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return "", nil
	}
	return strings.ToLower(fields[0]), nil
}

// reversedLabels splits a normalized name on "." and returns the labels with
// the outermost (rightmost) label first.
func reversedLabels(name string) []string {
	labels := strings.Split(name, ".")
	for i, j := 0, len(labels)-1; i < j; i, j = i+1, j-1 {
		labels[i], labels[j] = labels[j], labels[i]
	}
	return labels
}
