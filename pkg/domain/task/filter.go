package task

import (
	"sort"
	"strings"
)

// Pagination defaults and bounds for list queries.
const (
	DefaultLimit = 100
	MaxLimit     = 1000
)

// Page selects a window of an ordered result.
type Page struct {
	Skip  int
	Limit int
	// All disables pagination for internal aggregations.
	All bool
}

// Normalize applies the default and maximum limit.
func (p Page) Normalize() Page {
	if p.Skip < 0 {
		p.Skip = 0
	}
	if p.Limit <= 0 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	return p
}

func paginate[T any](items []T, p Page) []T {
	if p.All {
		return items
	}
	p = p.Normalize()
	if p.Skip >= len(items) {
		return []T{}
	}
	end := min(p.Skip+p.Limit, len(items))
	return items[p.Skip:end]
}

// TaskFilter narrows task listings. Zero values match everything.
type TaskFilter struct {
	Status   Status
	Category string
	Priority int
	Search   string
	Page
}

// Match reports whether t passes the filter.
func (f TaskFilter) Match(t Task) bool {
	if f.Status != "" && t.Status != f.Status {
		return false
	}
	if f.Category != "" && !containsFold(t.Category, f.Category) {
		return false
	}
	if f.Priority != 0 && t.PriorityScore != f.Priority {
		return false
	}
	if f.Search != "" && !containsFold(t.Title, f.Search) && !containsFold(t.Description, f.Search) {
		return false
	}
	return true
}

// Apply filters, orders by priority then newest first, and paginates.
func (f TaskFilter) Apply(tasks []Task) []Task {
	out := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		if f.Match(t) {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].PriorityScore != out[j].PriorityScore {
			return out[i].PriorityScore > out[j].PriorityScore
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return paginate(out, f.Page)
}

// CategoryFilter narrows category listings.
type CategoryFilter struct {
	IsActive *bool
	MinUsage int
	Search   string
	Page
}

// Match reports whether c passes the filter.
func (f CategoryFilter) Match(c Category) bool {
	if f.IsActive != nil && c.IsActive != *f.IsActive {
		return false
	}
	if c.UsageFrequency < f.MinUsage {
		return false
	}
	if f.Search != "" && !containsFold(c.Name, f.Search) {
		return false
	}
	return true
}

// Apply filters, orders by usage then name, and paginates.
func (f CategoryFilter) Apply(categories []Category) []Category {
	out := make([]Category, 0, len(categories))
	for _, c := range categories {
		if f.Match(c) {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].UsageFrequency != out[j].UsageFrequency {
			return out[i].UsageFrequency > out[j].UsageFrequency
		}
		return out[i].Name < out[j].Name
	})
	return paginate(out, f.Page)
}

// ContextFilter narrows context entry listings.
type ContextFilter struct {
	SourceType   string
	IsProcessed  *bool
	MinRelevance float64
	Page
}

// Match reports whether e passes the filter.
func (f ContextFilter) Match(e ContextEntry) bool {
	if f.SourceType != "" && e.SourceType != f.SourceType {
		return false
	}
	if f.IsProcessed != nil && e.IsProcessed != *f.IsProcessed {
		return false
	}
	return e.RelevanceScore >= f.MinRelevance
}

// Apply filters, orders newest first, and paginates.
func (f ContextFilter) Apply(entries []ContextEntry) []ContextEntry {
	out := make([]ContextEntry, 0, len(entries))
	for _, e := range entries {
		if f.Match(e) {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return paginate(out, f.Page)
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
