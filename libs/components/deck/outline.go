package deck

import (
	_ "embed"
	"fmt"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

//go:embed outline.yaml
var outlineYAML []byte

type outlineEntry struct {
	Type  string `yaml:"type"`
	Title string `yaml:"title"`
}

var defaultOutline = mustParseOutline(outlineYAML)

func mustParseOutline(raw []byte) []outlineEntry {
	entries, err := parseOutline(raw)
	if err != nil {
		panic(err)
	}
	return entries
}

func parseOutline(raw []byte) ([]outlineEntry, error) {
	var doc struct {
		Slides []outlineEntry `yaml:"slides"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse slide outline: %w", err)
	}
	if len(doc.Slides) == 0 {
		return nil, fmt.Errorf("parse slide outline: no slides")
	}
	for i, entry := range doc.Slides {
		if entry.Type == "" {
			return nil, fmt.Errorf("parse slide outline: slide %d has no type", i)
		}
	}
	return doc.Slides, nil
}

// NewDraft returns an unsaved deck seeded with the default outline.
func NewDraft() Deck {
	slides := make([]Slide, 0, len(defaultOutline))
	for _, entry := range defaultOutline {
		slides = append(slides, NewSlide(entry.Type, entry.Title))
	}
	return Deck{ID: NewDeckID, Title: "Untitled deck", Slides: slides}
}

// NewSlide creates an empty slide with a fresh id.
func NewSlide(slideType, title string) Slide {
	return Slide{ID: uuid.NewString(), Type: slideType, Title: title}
}

// withFreshIDs copies slides, assigning new ids so template slides never share
// identity with the deck they were copied into.
func withFreshIDs(slides []Slide) []Slide {
	out := make([]Slide, len(slides))
	for i, s := range slides {
		s.ID = uuid.NewString()
		out[i] = s
	}
	return out
}
