package vision

import (
	"context"
	"errors"
	"io"

	"github.com/vbonduro/quickcloset/internal/domain"
)

// SuggestPrompt is the shared prompt used by all vision adapters.
const SuggestPrompt = `This photo shows a single clothing item or accessory.
Reply with exactly one line in the format:
title | category | tags
where title is a short display name (e.g. Navy Crew-neck Sweater), category is
one of shirts, pants, accessories, shoes, and tags is a comma-separated list of
up to five words describing colour, material, style or season.`

// ErrNoSuggestion is returned when the model reply contains no usable line.
var ErrNoSuggestion = errors.New("model returned no suggestion")

// Suggester proposes catalog fields for an item photo.
type Suggester interface {
	Suggest(ctx context.Context, r io.Reader, mimeType string) (*Suggestion, error)
}

// Suggestion is a proposed title, category and tag list. Category is empty
// when the model named something outside the fixed set.
type Suggestion struct {
	Title       string          `json:"title"`
	Category    domain.Category `json:"category"`
	Tags        []string        `json:"tags"`
	RawResponse string          `json:"-"`
}
