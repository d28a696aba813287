package dataset

import (
	"strings"

	"github.com/titanous/json5"
)

type genre struct {
	Name string `json:"name"`
}

// ParseGenres decodes a genre list such as [{'id': 28, 'name': 'Action'}].
// Single- and double-quoted strings are both accepted, and apostrophes inside
// double-quoted names survive. ok is false when raw is not a list of objects.
func ParseGenres(raw string) (names []string, ok bool) {
	var items []genre
	if err := json5.Unmarshal([]byte(raw), &items); err != nil {
		return nil, false
	}
	names = make([]string, 0, len(items))
	for _, g := range items {
		names = append(names, g.Name)
	}
	return names, true
}

// FormatGenres renders genre names joined by ", ", falling back to the raw
// text when it cannot be parsed.
func FormatGenres(raw string) string {
	names, ok := ParseGenres(raw)
	if !ok {
		return raw
	}
	return strings.Join(names, ", ")
}
