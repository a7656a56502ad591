// Package config resolves settings from config file, environment, and CLI
// flags, recording where each value came from.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

type ValueSource string

const (
	SourceUnknown ValueSource = "unknown"
	SourceConfig  ValueSource = "config"
	SourceEnv     ValueSource = "env"
	SourceCLI     ValueSource = "cli"
	SourceDefault ValueSource = "default"
)

// ResolvedValue is a setting plus its provenance.
type ResolvedValue struct {
	Value  string      `json:"value"`
	Source ValueSource `json:"source"`
	From   string      `json:"from,omitempty"`
}

// ResolveOptions carries the CLI-level overrides. Precedence is
// config file < environment < CLI flag.
type ResolveOptions struct {
	ConfigPath string
	CLIDBPath  string
	CLICatalog string
	CLIEmbed   string
	CLITimeout string
	CLILimit   string
}

// ResolvedConfig is the full resolved setting set.
type ResolvedConfig struct {
	ConfigPath string `json:"config_path"`

	DBPath      ResolvedValue `json:"db_path"`
	CatalogPath ResolvedValue `json:"catalog_path"`

	EmbedProvider  ResolvedValue `json:"embed_provider"`
	EmbedEndpoint  ResolvedValue `json:"embed_endpoint"`
	EmbedAPIKey    ResolvedValue `json:"embed_api_key"`
	EmbedModel     ResolvedValue `json:"embed_model_path"`
	EmbedTokenizer ResolvedValue `json:"embed_tokenizer_path"`
	EmbedLibrary   ResolvedValue `json:"embed_library_path"`

	TimeoutMS  ResolvedValue `json:"timeout_ms"`
	MatchLimit ResolvedValue `json:"match_limit"`
}

type fileConfig struct {
	DBPath      string `yaml:"db_path"`
	CatalogPath string `yaml:"catalog_path"`
	Embed       struct {
		Provider      string `yaml:"provider"`
		Endpoint      string `yaml:"endpoint"`
		APIKey        string `yaml:"api_key"`
		ModelPath     string `yaml:"model_path"`
		TokenizerPath string `yaml:"tokenizer_path"`
		LibraryPath   string `yaml:"library_path"`
	} `yaml:"embed"`
	Identify struct {
		TimeoutMS  string `yaml:"timeout_ms"`
		MatchLimit string `yaml:"match_limit"`
	} `yaml:"identify"`
}

func DefaultConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".iconsense", "config.yaml")
}

// ResolveConfig layers file, environment, and CLI values. A missing config
// file is not an error.
func ResolveConfig(opts ResolveOptions) (ResolvedConfig, error) {
	path := strings.TrimSpace(opts.ConfigPath)
	if path == "" {
		path = DefaultConfigPath()
	}

	out := ResolvedConfig{ConfigPath: path}

	cfg, err := loadConfig(path)
	if err != nil {
		return out, err
	}

	if cfg != nil {
		apply(&out.DBPath, cfg.DBPath, SourceConfig, path)
		apply(&out.CatalogPath, cfg.CatalogPath, SourceConfig, path)
		apply(&out.EmbedProvider, cfg.Embed.Provider, SourceConfig, path)
		apply(&out.EmbedEndpoint, cfg.Embed.Endpoint, SourceConfig, path)
		apply(&out.EmbedModel, cfg.Embed.ModelPath, SourceConfig, path)
		apply(&out.EmbedTokenizer, cfg.Embed.TokenizerPath, SourceConfig, path)
		apply(&out.EmbedLibrary, cfg.Embed.LibraryPath, SourceConfig, path)
		apply(&out.TimeoutMS, cfg.Identify.TimeoutMS, SourceConfig, path)
		apply(&out.MatchLimit, cfg.Identify.MatchLimit, SourceConfig, path)

		if key := strings.TrimSpace(cfg.Embed.APIKey); key != "" {
			out.EmbedAPIKey = ResolvedValue{Value: key, Source: SourceConfig, From: path}
		}
	}

	applyEnv(&out.DBPath, "ICONSENSE_DB")
	applyEnv(&out.DBPath, "ICONSENSE_DB_PATH")
	applyEnv(&out.CatalogPath, "ICONSENSE_CATALOG")
	applyEnv(&out.EmbedProvider, "ICONSENSE_EMBED")
	applyEnv(&out.EmbedEndpoint, "ICONSENSE_EMBED_ENDPOINT")
	applyEnv(&out.EmbedModel, "ICONSENSE_EMBED_MODEL")
	applyEnv(&out.EmbedTokenizer, "ICONSENSE_EMBED_TOKENIZER")
	applyEnv(&out.EmbedLibrary, "ICONSENSE_EMBED_LIBRARY")
	applyEnv(&out.TimeoutMS, "ICONSENSE_TIMEOUT_MS")
	applyEnv(&out.MatchLimit, "ICONSENSE_MATCH_LIMIT")
	if v := strings.TrimSpace(os.Getenv("ICONSENSE_EMBED_API_KEY")); v != "" {
		out.EmbedAPIKey = ResolvedValue{Value: v, Source: SourceEnv, From: "ICONSENSE_EMBED_API_KEY"}
	}

	apply(&out.DBPath, opts.CLIDBPath, SourceCLI, "--db")
	apply(&out.CatalogPath, opts.CLICatalog, SourceCLI, "--catalog")
	apply(&out.EmbedProvider, opts.CLIEmbed, SourceCLI, "--embed")
	apply(&out.TimeoutMS, opts.CLITimeout, SourceCLI, "--timeout")
	apply(&out.MatchLimit, opts.CLILimit, SourceCLI, "--limit")

	if out.DBPath.Value != "" {
		out.DBPath.Value = expandUserPath(out.DBPath.Value)
	}
	if out.CatalogPath.Value != "" {
		out.CatalogPath.Value = expandUserPath(out.CatalogPath.Value)
	}
	for _, rv := range []*ResolvedValue{&out.EmbedModel, &out.EmbedTokenizer, &out.EmbedLibrary} {
		if rv.Value != "" {
			rv.Value = expandUserPath(rv.Value)
		}
	}

	return out, nil
}

func apply(dst *ResolvedValue, raw string, source ValueSource, from string) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return
	}
	*dst = ResolvedValue{Value: v, Source: source, From: from}
}

func applyEnv(dst *ResolvedValue, envKey string) {
	if v := strings.TrimSpace(os.Getenv(envKey)); v != "" {
		*dst = ResolvedValue{Value: v, Source: SourceEnv, From: envKey}
	}
}

func loadConfig(path string) (*fileConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var cfg fileConfig
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &cfg, nil
}

func expandUserPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
