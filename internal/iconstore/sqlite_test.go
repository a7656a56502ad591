package iconstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStoreAddAndList(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	id, err := store.AddIcon(ctx, &Icon{
		Title:    "Jazz Night",
		Subjects: []string{"jazz", "music", "piano"},
		URL:      "https://example.com/jazz.png",
	})
	if err != nil {
		t.Fatalf("AddIcon: %v", err)
	}
	if id <= 0 {
		t.Fatalf("expected positive id, got %d", id)
	}

	icons, err := store.ListIcons(ctx)
	if err != nil {
		t.Fatalf("ListIcons: %v", err)
	}
	if len(icons) != 1 {
		t.Fatalf("expected 1 icon, got %d", len(icons))
	}
	if icons[0].Title != "Jazz Night" {
		t.Errorf("title = %q, want %q", icons[0].Title, "Jazz Night")
	}
	if len(icons[0].Subjects) != 3 || icons[0].Subjects[0] != "jazz" {
		t.Errorf("subjects = %v, want [jazz music piano]", icons[0].Subjects)
	}
}

func TestSQLiteStoreDedup(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	icon := &Icon{Title: "Frozen", URL: "https://example.com/frozen.png",
		Subjects: []string{"princess", "snow", "ice"}}

	first, err := store.AddIcon(ctx, icon)
	if err != nil {
		t.Fatalf("AddIcon: %v", err)
	}
	second, err := store.AddIcon(ctx, icon)
	if err != nil {
		t.Fatalf("AddIcon (repeat): %v", err)
	}
	if first != second {
		t.Errorf("duplicate insert returned id %d, want %d", second, first)
	}

	count, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
}

func TestSQLiteStoreCountEmpty(t *testing.T) {
	store := newTestStore(t)

	count, err := store.Count(context.Background())
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 0 {
		t.Errorf("count = %d, want 0", count)
	}
}

func TestLoadCatalog(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "icons.yaml")
	data := `icons:
  - title: Fairy Tales
    subjects: [fairy tale, magic, princess]
    url: https://example.com/fairy.png
  - title: Space
    subjects: [rocket, planet]
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("writing catalog: %v", err)
	}

	icons, err := LoadCatalog(path)
	if err != nil {
		t.Fatalf("LoadCatalog: %v", err)
	}
	if len(icons) != 2 {
		t.Fatalf("expected 2 icons, got %d", len(icons))
	}
	if icons[0].Title != "Fairy Tales" {
		t.Errorf("title = %q, want %q", icons[0].Title, "Fairy Tales")
	}
	if len(icons[0].Subjects) != 3 {
		t.Errorf("subjects = %v, want 3 entries", icons[0].Subjects)
	}
}

func TestLoadCatalogMissingTitle(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(path, []byte("icons:\n  - subjects: [x]\n"), 0o644); err != nil {
		t.Fatalf("writing catalog: %v", err)
	}

	if _, err := LoadCatalog(path); err == nil {
		t.Fatal("expected error for icon without title")
	}
}

func TestImportCatalogIntoStaticStore(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "icons.yaml")
	data := `icons:
  - title: Music
    subjects: [jazz, piano]
    url: https://example.com/music.png
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("writing catalog: %v", err)
	}

	store := NewStaticStore()
	result, err := ImportCatalog(context.Background(), store, path)
	if err != nil {
		t.Fatalf("ImportCatalog: %v", err)
	}
	if result.Added != 1 || result.Total != 1 {
		t.Errorf("result = %+v, want Added=1 Total=1", result)
	}

	count, _ := store.Count(context.Background())
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
}

func TestImportCatalogAddedSkipsDuplicates(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "icons.yaml")
	data := `icons:
  - title: Music
    subjects: [jazz, piano]
    url: https://example.com/music.png
  - title: Music
    subjects: [jazz, piano]
    url: https://example.com/music.png
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("writing catalog: %v", err)
	}

	ctx := context.Background()
	store := newTestStore(t)
	result, err := ImportCatalog(ctx, store, path)
	if err != nil {
		t.Fatalf("ImportCatalog: %v", err)
	}
	if result.Added != 1 || result.Total != 2 {
		t.Errorf("first import = %+v, want Added=1 Total=2", result)
	}

	// A second import of the same catalog inserts nothing.
	again, err := ImportCatalog(ctx, store, path)
	if err != nil {
		t.Fatalf("ImportCatalog: %v", err)
	}
	if again.Added != 0 || again.Total != 2 {
		t.Errorf("second import = %+v, want Added=0 Total=2", again)
	}
}
