package domain

import (
	"maps"
	"slices"
	"strings"

	"golang.org/x/text/language"
)

// LocalizedText maps BCP 47 language tags to text. Tags are stored in
// canonical form and blank values are dropped, so an empty LocalizedText
// is one with no non-blank entries.
type LocalizedText struct {
	entries map[string]string
}

// NewLocalizedText canonicalizes the tags of entries. An unparsable tag is
// a malformed value.
func NewLocalizedText(entries map[string]string) (LocalizedText, error) {
	if len(entries) == 0 {
		return LocalizedText{}, nil
	}
	normalized := make(map[string]string, len(entries))
	for rawTag, text := range entries {
		if strings.TrimSpace(text) == "" {
			continue
		}
		tag, err := language.Parse(strings.TrimSpace(rawTag))
		if err != nil {
			return LocalizedText{}, malformed("language tag", rawTag, err.Error())
		}
		normalized[tag.String()] = text
	}
	if len(normalized) == 0 {
		return LocalizedText{}, nil
	}
	return LocalizedText{entries: normalized}, nil
}

// Text builds a single-language text. An unparsable tag falls back to
// "und".
func Text(tag, text string) LocalizedText {
	if strings.TrimSpace(text) == "" {
		return LocalizedText{}
	}
	return LocalizedText{entries: map[string]string{language.Make(tag).String(): text}}
}

// IsEmpty reports whether no language carries non-blank text.
func (t LocalizedText) IsEmpty() bool {
	return len(t.entries) == 0
}

// Len returns the number of languages present.
func (t LocalizedText) Len() int {
	return len(t.entries)
}

// Get returns the text for an exact tag.
func (t LocalizedText) Get(tag string) (string, bool) {
	if t.entries == nil {
		return "", false
	}
	parsed, err := language.Parse(tag)
	if err != nil {
		return "", false
	}
	text, ok := t.entries[parsed.String()]
	return text, ok
}

// Tags returns the canonical tags in sorted order.
func (t LocalizedText) Tags() []string {
	tags := slices.Collect(maps.Keys(t.entries))
	slices.Sort(tags)
	return tags
}

// Entries returns a copy of the underlying mapping.
func (t LocalizedText) Entries() map[string]string {
	return maps.Clone(t.entries)
}

// Best returns the text in the language that best matches preferred.
// Without a usable match it returns the text of the first tag in sorted
// order.
func (t LocalizedText) Best(preferred ...string) string {
	tags := t.Tags()
	if len(tags) == 0 {
		return ""
	}
	supported := make([]language.Tag, len(tags))
	for i, tag := range tags {
		supported[i] = language.Make(tag)
	}
	wanted := make([]language.Tag, 0, len(preferred))
	for _, pref := range preferred {
		if tag, err := language.Parse(pref); err == nil {
			wanted = append(wanted, tag)
		}
	}
	if len(wanted) == 0 {
		return t.entries[tags[0]]
	}
	_, index, confidence := language.NewMatcher(supported).Match(wanted...)
	if confidence == language.No {
		return t.entries[tags[0]]
	}
	return t.entries[tags[index]]
}

// Equal reports whether both texts carry the same entries.
func (t LocalizedText) Equal(other LocalizedText) bool {
	return maps.Equal(t.entries, other.entries)
}
