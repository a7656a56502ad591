package iconstore

import (
	"context"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// catalogFile is the YAML seed-catalog shape:
//
//	icons:
//	  - title: Fairy Tales
//	    subjects: [fairy tale, magic, princess]
//	    url: https://example.com/icons/fairy-tales.png
//	    description: Storybook castle icon
type catalogFile struct {
	Icons []Icon `yaml:"icons"`
}

// LoadCatalog parses a YAML seed catalog into icon records.
func LoadCatalog(path string) ([]Icon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog %s: %w", path, err)
	}

	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing catalog %s: %w", path, err)
	}

	icons := make([]Icon, 0, len(file.Icons))
	for i, icon := range file.Icons {
		if strings.TrimSpace(icon.Title) == "" {
			return nil, fmt.Errorf("catalog %s: icon %d has no title", path, i+1)
		}
		icons = append(icons, icon)
	}
	return icons, nil
}

// ImportResult summarizes a catalog import.
type ImportResult struct {
	Added int
	Total int
}

// ImportCatalog loads a YAML seed catalog and upserts every icon into the
// store. Added counts rows actually inserted, so icons deduplicated against
// existing rows (or against earlier catalog entries) are not reported.
func ImportCatalog(ctx context.Context, store Store, path string) (*ImportResult, error) {
	icons, err := LoadCatalog(path)
	if err != nil {
		return nil, err
	}

	before, err := store.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting icons: %w", err)
	}

	result := &ImportResult{Total: len(icons)}
	for i := range icons {
		if _, err := store.AddIcon(ctx, &icons[i]); err != nil {
			return result, fmt.Errorf("importing icon %q: %w", icons[i].Title, err)
		}
	}

	after, err := store.Count(ctx)
	if err != nil {
		return result, fmt.Errorf("counting icons: %w", err)
	}
	result.Added = int(after - before)
	return result, nil
}
