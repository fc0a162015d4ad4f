package task

import (
	"strings"
	"time"
	"unicode/utf8"
)

const contentPreviewLen = 100

// Insights is the processed analysis stored with a context entry.
type Insights struct {
	Sentiment string   `json:"sentiment"`
	Insights  []string `json:"insights"`
}

// ContextEntry is free text captured from email, chat or notes.
type ContextEntry struct {
	ID                string         `json:"id"`
	Content           string         `json:"content"`
	SourceType        string         `json:"source_type"`
	ProcessedInsights Insights       `json:"processed_insights"`
	Metadata          map[string]any `json:"meta_data"`
	IsProcessed       bool           `json:"is_processed"`
	RelevanceScore    float64        `json:"relevance_score"`
	ExtractedKeywords []string       `json:"extracted_keywords"`
	CreatedAt         time.Time      `json:"created_at"`
}

// Validate checks required fields.
func (e *ContextEntry) Validate() error {
	if strings.TrimSpace(e.Content) == "" {
		return &ValidationError{Field: "content", Message: "is required"}
	}
	if strings.TrimSpace(e.SourceType) == "" {
		return &ValidationError{Field: "source_type", Message: "is required"}
	}
	if e.RelevanceScore < 0 || e.RelevanceScore > 1 {
		return &ValidationError{Field: "relevance_score", Message: "must be between 0 and 1"}
	}
	return nil
}

// ContentPreview returns the first 100 characters, marked when cut.
func (e ContextEntry) ContentPreview() string {
	if utf8.RuneCountInString(e.Content) <= contentPreviewLen {
		return e.Content
	}
	return string([]rune(e.Content)[:contentPreviewLen]) + "..."
}

// ContextEntryView is the API representation of a context entry.
type ContextEntryView struct {
	ContextEntry
	ContentPreview string `json:"content_preview"`
}

// View adds derived fields.
func (e ContextEntry) View() ContextEntryView {
	return ContextEntryView{ContextEntry: e, ContentPreview: e.ContentPreview()}
}
