package content

import (
	"context"
	"strings"

	"github.com/easyonboard/easyonboard/internal/storage"
)

// Item is one piece of onboarding content
type Item struct {
	Name            string `json:"name"`
	Type            string `json:"type"`
	DurationMinutes int    `json:"duration_minutes"`
}

// Category groups content under a title
type Category struct {
	Title string `json:"title"`
	Items []Item `json:"items"`
}

// Suggestion is a recommended content item with its rationale
type Suggestion struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// Stats summarizes the curated catalog
type Stats struct {
	TotalCategories   int            `json:"total_categories"`
	TotalItems        int            `json:"total_items"`
	ContentByCategory map[string]int `json:"content_by_category"`
}

var categoryOrder = []string{"company_culture", "technical", "policies", "tools"}

// Curator serves the curated content catalog and lists uploaded content
// from the object store. Search is plain substring matching on names.
type Curator struct {
	objects *storage.ObjectStore
	catalog map[string]Category
}

// NewCurator builds the catalog over the given object store
func NewCurator(objects *storage.ObjectStore) *Curator {
	return &Curator{
		objects: objects,
		catalog: map[string]Category{
			"company_culture": {
				Title: "Company Culture & Values",
				Items: []Item{
					{Name: "Welcome Video", Type: "video", DurationMinutes: 15},
					{Name: "Mission & Vision", Type: "document", DurationMinutes: 10},
					{Name: "Company History", Type: "article", DurationMinutes: 8},
				},
			},
			"technical": {
				Title: "Technical Resources",
				Items: []Item{
					{Name: "Development Setup Guide", Type: "guide", DurationMinutes: 30},
					{Name: "Architecture Overview", Type: "video", DurationMinutes: 45},
					{Name: "Best Practices", Type: "document", DurationMinutes: 20},
				},
			},
			"policies": {
				Title: "Policies & Procedures",
				Items: []Item{
					{Name: "Employee Handbook", Type: "document", DurationMinutes: 30},
					{Name: "Code of Conduct", Type: "document", DurationMinutes: 15},
					{Name: "Security Policies", Type: "document", DurationMinutes: 20},
				},
			},
			"tools": {
				Title: "Tools & Systems",
				Items: []Item{
					{Name: "Slack Guide", Type: "guide", DurationMinutes: 10},
					{Name: "Project Management Tools", Type: "video", DurationMinutes: 15},
					{Name: "Communication Best Practices", Type: "article", DurationMinutes: 12},
				},
			},
		},
	}
}

// GetContentByCategory returns one category of the catalog
func (c *Curator) GetContentByCategory(category string) (Category, bool) {
	cat, ok := c.catalog[category]
	return cat, ok
}

// Categories returns the catalog's category keys in display order
func (c *Curator) Categories() []string {
	return categoryOrder
}

// SearchContent matches items whose name contains the query,
// case-insensitively.
func (c *Curator) SearchContent(query string) []Item {
	query = strings.ToLower(query)

	var results []Item
	for _, key := range categoryOrder {
		for _, item := range c.catalog[key].Items {
			if strings.Contains(strings.ToLower(item.Name), query) {
				results = append(results, item)
			}
		}
	}
	return results
}

// GetRecommendedContent suggests content by role and early-stage progress
func (c *Curator) GetRecommendedContent(role string, completedModules []string) []Suggestion {
	var recs []Suggestion
	role = strings.ToLower(role)

	if strings.Contains(role, "engineer") {
		recs = append(recs,
			Suggestion{Name: "Code Review Best Practices", Reason: "Essential for engineers"},
			Suggestion{Name: "System Architecture Deep Dive", Reason: "Understanding our stack"},
		)
	}
	if strings.Contains(role, "sales") {
		recs = append(recs,
			Suggestion{Name: "Product Demo Training", Reason: "Core sales skill"},
			Suggestion{Name: "Customer Success Stories", Reason: "Learn from wins"},
		)
	}
	if len(completedModules) < 3 {
		recs = append(recs, Suggestion{Name: "Getting Started Guide", Reason: "Start with the basics"})
	}

	return recs
}

// ListStoredContent lists uploaded content under prefix. An unavailable
// object store yields an empty listing, not an error.
func (c *Curator) ListStoredContent(ctx context.Context, prefix string) []storage.ObjectInfo {
	infos, err := c.objects.ListObjects(ctx, prefix)
	if err != nil {
		return []storage.ObjectInfo{}
	}
	return infos
}

// GetContentStats counts the curated catalog
func (c *Curator) GetContentStats() Stats {
	stats := Stats{
		TotalCategories:   len(categoryOrder),
		ContentByCategory: make(map[string]int, len(categoryOrder)),
	}
	for _, key := range categoryOrder {
		n := len(c.catalog[key].Items)
		stats.ContentByCategory[key] = n
		stats.TotalItems += n
	}
	return stats
}
