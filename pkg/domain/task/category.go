package task

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

// DefaultColor is assigned to categories created without one.
const DefaultColor = "#3B82F6"

var hexColor = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// Category groups tasks and tracks how often it is used.
type Category struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Description    string    `json:"description"`
	UsageFrequency int       `json:"usage_frequency"`
	Color          string    `json:"color"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Validate checks field bounds.
func (c *Category) Validate() error {
	name := strings.TrimSpace(c.Name)
	if name == "" {
		return &ValidationError{Field: "name", Message: "is required"}
	}
	if utf8.RuneCountInString(name) > MaxCategoryLen {
		return &ValidationError{Field: "name", Message: "must be at most 100 characters"}
	}
	if !hexColor.MatchString(c.Color) {
		return &ValidationError{Field: "color", Message: "must be a hex color like #3B82F6"}
	}
	return nil
}

// IncrementUsage records one more task filed under the category.
func (c *Category) IncrementUsage() {
	c.AdjustUsage(1)
}

// DecrementUsage undoes IncrementUsage, never going below zero.
func (c *Category) DecrementUsage() {
	c.AdjustUsage(-1)
}

// AdjustUsage adds delta to the usage counter, flooring at zero.
func (c *Category) AdjustUsage(delta int) {
	c.UsageFrequency = max(c.UsageFrequency+delta, 0)
}

// CategoryStatistics summarizes category usage.
type CategoryStatistics struct {
	Total        int     `json:"total_categories"`
	Active       int     `json:"active_categories"`
	MostUsed     string  `json:"most_used_category"`
	LeastUsed    string  `json:"least_used_category"`
	AverageUsage float64 `json:"average_usage"`
}
