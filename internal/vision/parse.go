package vision

import (
	"strings"

	"github.com/vbonduro/quickcloset/internal/domain"
)

const maxTags = 10

// ParseLine parses a single "title | category | tags" line. Lines without a
// pipe separator, or with an empty title, return nil.
func ParseLine(line string) *Suggestion {
	line = strings.TrimSpace(line)
	if line == "" || !strings.Contains(line, "|") {
		return nil
	}

	parts := strings.Split(line, "|")
	s := &Suggestion{
		Title: cleanField(parts[0]),
		Tags:  []string{},
	}
	if s.Title == "" {
		return nil
	}
	if len(parts) >= 2 {
		s.Category = domain.NormalizeCategory(cleanField(parts[1]))
	}
	if len(parts) >= 3 {
		s.Tags = splitTags(parts[2])
	}
	return s
}

// ParseResponse returns the first parseable line of raw, skipping any
// preamble the model adds.
func ParseResponse(raw string) (*Suggestion, error) {
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "Here") || strings.HasPrefix(line, "Based on") {
			continue
		}
		if s := ParseLine(line); s != nil {
			s.RawResponse = raw
			return s, nil
		}
	}
	return nil, ErrNoSuggestion
}

func splitTags(field string) []string {
	tags := []string{}
	for _, t := range strings.Split(field, ",") {
		t = cleanField(t)
		if t == "" {
			continue
		}
		tags = append(tags, t)
		if len(tags) == maxTags {
			break
		}
	}
	return tags
}

// cleanField trims whitespace plus the quotes and markdown emphasis models
// like to wrap values in.
func cleanField(s string) string {
	return strings.Trim(strings.TrimSpace(s), "\"'`*")
}
