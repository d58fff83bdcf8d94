package deck

import (
	"strings"
	"time"
)

// NewDeckID is the sentinel identity of a deck that has not been persisted.
const NewDeckID = "new"

// IsPlaceholderID reports ids that must never reach the backend: empty values
// and unsubstituted route parameters such as ":id".
func IsPlaceholderID(id string) bool {
	id = strings.TrimSpace(id)
	return id == "" || strings.HasPrefix(id, ":")
}

// Slide is one page of a pitch deck.
type Slide struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Title   string `json:"title"`
	Content string `json:"content"`
	Notes   string `json:"notes,omitempty"`
}

// Deck is a pitch deck as stored by the backend.
type Deck struct {
	ID          string    `json:"id,omitempty"`
	Title       string    `json:"title"`
	CompanyName string    `json:"companyName"`
	Sector      string    `json:"sector"`
	Slides      []Slide   `json:"slides"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Clone returns a copy that shares no slice with d.
func (d Deck) Clone() Deck {
	out := d
	out.Slides = append([]Slide{}, d.Slides...)
	return out
}

// Template is a sector-specific starting outline.
type Template struct {
	ID          string  `json:"id"`
	Name        string  `json:"name" validate:"required"`
	Sector      string  `json:"sector" validate:"required"`
	Description string  `json:"description,omitempty"`
	Slides      []Slide `json:"slides"`
}

// Example is a reference slide written for a sector.
type Example struct {
	ID        string `json:"id"`
	SlideType string `json:"slideType" validate:"required"`
	Sector    string `json:"sector" validate:"required"`
	Title     string `json:"title"`
	Content   string `json:"content" validate:"required"`
}

// SuggestionRequest asks the AI backend for content ideas for one slide.
type SuggestionRequest struct {
	Sector         string `json:"sector"`
	SlideType      string `json:"slideType"`
	CurrentContent string `json:"currentContent"`
}

// GenerateRequest asks the AI backend for a complete deck.
type GenerateRequest struct {
	Sector           string `json:"sector" validate:"required"`
	CompanyName      string `json:"companyName" validate:"required"`
	Description      string `json:"description,omitempty"`
	ProblemStatement string `json:"problemStatement,omitempty"`
}

// ExportFormat is a rendering target of the export service.
type ExportFormat string

const (
	FormatPPTX ExportFormat = "pptx"
	FormatPDF  ExportFormat = "pdf"
	FormatHTML ExportFormat = "html"
)

// ParseExportFormat validates a format name.
func ParseExportFormat(raw string) (ExportFormat, bool) {
	switch f := ExportFormat(strings.ToLower(strings.TrimSpace(raw))); f {
	case FormatPPTX, FormatPDF, FormatHTML:
		return f, true
	}
	return "", false
}

// ContentType is the MIME type of an exported file.
func (f ExportFormat) ContentType() string {
	switch f {
	case FormatPPTX:
		return "application/vnd.openxmlformats-officedocument.presentationml.presentation"
	case FormatPDF:
		return "application/pdf"
	case FormatHTML:
		return "text/html; charset=utf-8"
	}
	return "application/octet-stream"
}
