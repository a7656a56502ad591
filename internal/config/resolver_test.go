package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestResolveConfig_Precedence_ConfigEnvCLI(t *testing.T) {
	tmp := t.TempDir()
	cfgPath := filepath.Join(tmp, "config.yaml")
	yaml := `db_path: ~/.iconsense/from-config.db
catalog_path: ~/.iconsense/icons.yaml
embed:
  provider: ollama/nomic-embed-text
identify:
  timeout_ms: "750"
`
	if err := os.WriteFile(cfgPath, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("ICONSENSE_DB", "~/from-env.db")
	t.Setenv("ICONSENSE_EMBED", "openai/text-embedding-3-small")

	resolved, err := ResolveConfig(ResolveOptions{
		ConfigPath: cfgPath,
		CLIDBPath:  "~/from-cli.db",
		CLIEmbed:   "custom/local-model",
	})
	if err != nil {
		t.Fatalf("ResolveConfig: %v", err)
	}

	if resolved.DBPath.Source != SourceCLI {
		t.Fatalf("expected DB path source cli, got %s", resolved.DBPath.Source)
	}
	if resolved.EmbedProvider.Source != SourceCLI {
		t.Fatalf("expected embed provider source cli, got %s", resolved.EmbedProvider.Source)
	}
	if resolved.CatalogPath.Source != SourceConfig {
		t.Fatalf("expected catalog path from config, got %s", resolved.CatalogPath.Source)
	}
	if resolved.TimeoutMS.Value != "750" {
		t.Fatalf("expected timeout 750 from config, got %q", resolved.TimeoutMS.Value)
	}
}

func TestResolveConfig_EnvOverridesConfig(t *testing.T) {
	tmp := t.TempDir()
	cfgPath := filepath.Join(tmp, "config.yaml")
	yaml := `embed:
  provider: ollama/nomic-embed-text
  api_key: config-key
`
	if err := os.WriteFile(cfgPath, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("ICONSENSE_EMBED_API_KEY", "env-key")

	resolved, err := ResolveConfig(ResolveOptions{ConfigPath: cfgPath})
	if err != nil {
		t.Fatalf("ResolveConfig: %v", err)
	}
	if resolved.EmbedAPIKey.Value != "env-key" {
		t.Fatalf("expected env key, got %q", resolved.EmbedAPIKey.Value)
	}
	if resolved.EmbedAPIKey.Source != SourceEnv {
		t.Fatalf("expected source env, got %s", resolved.EmbedAPIKey.Source)
	}
	if resolved.EmbedProvider.Source != SourceConfig {
		t.Fatalf("expected provider from config, got %s", resolved.EmbedProvider.Source)
	}
}

func TestResolveConfig_MissingFileNotFatal(t *testing.T) {
	resolved, err := ResolveConfig(ResolveOptions{
		ConfigPath: filepath.Join(t.TempDir(), "nope.yaml"),
	})
	if err != nil {
		t.Fatalf("ResolveConfig: %v", err)
	}
	if resolved.DBPath.Value != "" {
		t.Fatalf("expected empty db path, got %q", resolved.DBPath.Value)
	}
}

func TestResolveConfig_ExpandsUserPaths(t *testing.T) {
	resolved, err := ResolveConfig(ResolveOptions{
		ConfigPath: filepath.Join(t.TempDir(), "nope.yaml"),
		CLIDBPath:  "~/data/icons.db",
	})
	if err != nil {
		t.Fatalf("ResolveConfig: %v", err)
	}
	home, _ := os.UserHomeDir()
	want := filepath.Join(home, "data", "icons.db")
	if resolved.DBPath.Value != want {
		t.Fatalf("db path = %q, want %q", resolved.DBPath.Value, want)
	}
}
