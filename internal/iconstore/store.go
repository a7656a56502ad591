// Package iconstore provides the icon catalog consumed by the matcher.
//
// The catalog lives in a single SQLite database file. Icons carry a title,
// a subject/tag list, a source URL, and a description; a content hash
// deduplicates re-imports of the same icon. A YAML seed-catalog loader and
// an in-memory static store round out the package for bootstrap and tests.
package iconstore

import "context"

// Icon is one catalog record. Read-only from the matcher's perspective.
type Icon struct {
	ID          int64    `json:"id,omitempty" yaml:"-"`
	Title       string   `json:"title" yaml:"title"`
	Subjects    []string `json:"subjects" yaml:"subjects"`
	URL         string   `json:"url,omitempty" yaml:"url"`
	Description string   `json:"description,omitempty" yaml:"description"`
}

// Store is the catalog interface.
type Store interface {
	AddIcon(ctx context.Context, icon *Icon) (int64, error)
	ListIcons(ctx context.Context) ([]Icon, error)
	Count(ctx context.Context) (int64, error)
	Close() error
}
