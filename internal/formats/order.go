package formats

import (
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var lowerCaser = cases.Lower(language.Und)

// Extension returns the lower-cased extension of name without the leading dot.
func Extension(name string) string {
	return normalizeExtension(filepath.Ext(strings.TrimSpace(name)))
}

func normalizeExtension(ext string) string {
	ext = strings.TrimPrefix(strings.TrimSpace(ext), ".")
	if ext == "" {
		return ""
	}
	return lowerCaser.String(ext)
}

// Order returns the candidate sequence to try for sourceName.
//
// A source whose extension already names the default tag gets the table
// unchanged. A source with a hinted extension gets the hinted tag first and the
// rest in table order. Anything else yields an empty sequence; callers decide
// whether an unhinted source is worth trying against the full table.
func (t *Table) Order(sourceName string) []Tag {
	supported := t.Tags()
	if len(supported) == 0 {
		return nil
	}
	ext := Extension(sourceName)
	if ext == string(supported[0]) {
		return supported
	}
	priority, ok := t.hints[ext]
	if !ok {
		return []Tag{}
	}
	return Prioritize(supported, priority)
}

// Prioritize moves priority to the front of supported, keeping the relative
// order of every other tag. The input slice is not modified.
func Prioritize(supported []Tag, priority Tag) []Tag {
	out := make([]Tag, 0, len(supported))
	out = append(out, priority)
	for _, tag := range supported {
		if tag == priority {
			continue
		}
		out = append(out, tag)
	}
	return out
}
