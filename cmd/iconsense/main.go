package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ploverbay/iconsense/internal/config"
	"github.com/ploverbay/iconsense/internal/embed"
	"github.com/ploverbay/iconsense/internal/iconstore"
	"github.com/ploverbay/iconsense/internal/identify"
	"github.com/ploverbay/iconsense/internal/language"
	"github.com/ploverbay/iconsense/internal/match"
	"github.com/ploverbay/iconsense/internal/mcp"
	"github.com/ploverbay/iconsense/internal/transcribe"
)

const version = "0.1.0-dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(0)
	}

	var err error
	switch os.Args[1] {
	case "identify":
		err = runIdentify(os.Args[2:])
	case "match":
		err = runMatch(os.Args[2:])
	case "icons":
		err = runIcons(os.Args[2:])
	case "serve":
		err = runServe(os.Args[2:])
	case "version", "--version", "-v":
		fmt.Printf("iconsense %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// cmdFlags is the hand-parsed flag set shared by the subcommands.
type cmdFlags struct {
	args    []string
	file    string
	db      string
	catalog string
	embed   string
	timeout string
	limit   string
	asJSON  bool
}

func parseFlags(args []string) (cmdFlags, error) {
	var out cmdFlags
	for i := 0; i < len(args); i++ {
		arg := args[i]
		next := func() (string, error) {
			i++
			if i >= len(args) {
				return "", fmt.Errorf("%s requires a value", arg)
			}
			return args[i], nil
		}

		var err error
		switch {
		case arg == "--file" || arg == "-f":
			out.file, err = next()
		case arg == "--db":
			out.db, err = next()
		case arg == "--catalog":
			out.catalog, err = next()
		case arg == "--embed":
			out.embed, err = next()
		case arg == "--timeout":
			out.timeout, err = next()
		case arg == "--limit":
			out.limit, err = next()
		case arg == "--json":
			out.asJSON = true
		case strings.HasPrefix(arg, "-"):
			return out, fmt.Errorf("unknown flag: %s", arg)
		default:
			out.args = append(out.args, arg)
		}
		if err != nil {
			return out, err
		}
	}
	return out, nil
}

// inputText returns the text to analyze: either the positional arguments
// joined, or a transcript file read through the transcriber.
func inputText(ctx context.Context, flags cmdFlags) (string, error) {
	if flags.file != "" {
		tr, err := transcribe.NewFileTranscriber().Transcribe(ctx, flags.file)
		if err != nil {
			return "", err
		}
		return tr.Text, nil
	}
	if len(flags.args) == 0 {
		return "", fmt.Errorf("no text given (pass text arguments or --file <path>)")
	}
	return strings.Join(flags.args, " "), nil
}

func resolveSettings(flags cmdFlags) (config.ResolvedConfig, error) {
	return config.ResolveConfig(config.ResolveOptions{
		CLIDBPath:  flags.db,
		CLICatalog: flags.catalog,
		CLIEmbed:   flags.embed,
		CLITimeout: flags.timeout,
		CLILimit:   flags.limit,
	})
}

func newIdentifier(resolved config.ResolvedConfig) *identify.Identifier {
	var opts []identify.Option
	if ms, err := strconv.Atoi(resolved.TimeoutMS.Value); err == nil && ms > 0 {
		opts = append(opts, identify.WithTimeout(time.Duration(ms)*time.Millisecond))
	}
	return identify.NewIdentifier(opts...)
}

// openStore opens the icon store: a YAML catalog when configured, the
// SQLite database otherwise.
func openStore(resolved config.ResolvedConfig) (iconstore.Store, error) {
	if resolved.CatalogPath.Value != "" {
		return iconstore.NewStaticStoreFromCatalog(resolved.CatalogPath.Value)
	}
	path := resolved.DBPath.Value
	if path == "" {
		path = iconstore.ExpandPath(iconstore.DefaultDBPath)
	}
	return iconstore.NewSQLiteStore(path)
}

// newEmbedder builds the optional semantic-matching embedder. Failures are
// not fatal: matching still works on the literal layers.
func newEmbedder(resolved config.ResolvedConfig) embed.Embedder {
	if resolved.EmbedProvider.Value == "" {
		return nil
	}
	if resolved.EmbedProvider.Value == "local" {
		enc, err := embed.NewLocalEncoder(embed.LocalConfig{
			ModelPath:     resolved.EmbedModel.Value,
			TokenizerPath: resolved.EmbedTokenizer.Value,
			LibraryPath:   resolved.EmbedLibrary.Value,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: local embedder unavailable: %v\n", err)
			return nil
		}
		return enc
	}
	cfg, err := embed.ParseFlag(resolved.EmbedProvider.Value)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: invalid embed provider: %v\n", err)
		return nil
	}
	if resolved.EmbedEndpoint.Value != "" {
		cfg.Endpoint = resolved.EmbedEndpoint.Value
	}
	if resolved.EmbedAPIKey.Value != "" {
		cfg.APIKey = resolved.EmbedAPIKey.Value
	}
	client, err := embed.NewClient(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: embedder unavailable: %v\n", err)
		return nil
	}
	return client
}

func matchLimit(resolved config.ResolvedConfig) int {
	if n, err := strconv.Atoi(resolved.MatchLimit.Value); err == nil && n > 0 {
		return n
	}
	return identify.DefaultMatchLimit
}

func runIdentify(args []string) error {
	flags, err := parseFlags(args)
	if err != nil {
		return err
	}
	resolved, err := resolveSettings(flags)
	if err != nil {
		return err
	}

	ctx := context.Background()
	text, err := inputText(ctx, flags)
	if err != nil {
		return err
	}

	result, err := newIdentifier(resolved).IdentifySubjects(ctx, text, nil)
	if err != nil {
		return err
	}

	if flags.asJSON {
		data, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(data))
		return nil
	}

	fmt.Printf("Identified %d subjects in %dms:\n", len(result.Subjects), result.Metadata.ProcessingTimeMS)
	for _, s := range result.Subjects {
		fmt.Printf("  %-24s %-8s %.2f\n", s.Name, s.Type, s.Confidence)
	}
	if len(result.Metadata.LanguagesDetected) > 0 {
		names := make([]string, len(result.Metadata.LanguagesDetected))
		for i, code := range result.Metadata.LanguagesDetected {
			names[i] = language.Display(code)
		}
		fmt.Printf("Languages: %s\n", strings.Join(names, ", "))
	}
	for name, msg := range result.Metadata.Errors {
		fmt.Fprintf(os.Stderr, "Degraded: %s: %s\n", name, msg)
	}
	return nil
}

func runMatch(args []string) error {
	flags, err := parseFlags(args)
	if err != nil {
		return err
	}
	resolved, err := resolveSettings(flags)
	if err != nil {
		return err
	}

	store, err := openStore(resolved)
	if err != nil {
		return fmt.Errorf("opening icon store: %w", err)
	}
	defer store.Close()

	ctx := context.Background()
	text, err := inputText(ctx, flags)
	if err != nil {
		return err
	}

	icons, err := store.ListIcons(ctx)
	if err != nil {
		return fmt.Errorf("loading icon catalog: %w", err)
	}

	var matchOpts []match.Option
	if embedder := newEmbedder(resolved); embedder != nil {
		matchOpts = append(matchOpts, match.WithEmbedder(embedder))
	}
	pipeline := identify.NewPipeline(newIdentifier(resolved), match.NewMatcher(icons, matchOpts...),
		identify.WithMatchLimit(matchLimit(resolved)))
	result, err := pipeline.Run(ctx, text, nil)
	if err != nil {
		return err
	}

	if flags.asJSON {
		data, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(data))
		return nil
	}

	if len(result.Matches) == 0 {
		fmt.Println("No matching icons.")
		return nil
	}
	for _, m := range result.Matches {
		fmt.Printf("  %.2f  %-20s %s\n", m.Confidence, m.Icon.Title, m.MatchReason)
	}
	return nil
}

func runIcons(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: iconsense icons <import|list> [args]")
	}

	sub := args[0]
	flags, err := parseFlags(args[1:])
	if err != nil {
		return err
	}
	resolved, err := resolveSettings(flags)
	if err != nil {
		return err
	}

	store, err := openStore(resolved)
	if err != nil {
		return fmt.Errorf("opening icon store: %w", err)
	}
	defer store.Close()

	ctx := context.Background()
	switch sub {
	case "import":
		if len(flags.args) == 0 {
			return fmt.Errorf("usage: iconsense icons import <catalog.yaml> [--db <path>]")
		}
		for _, path := range flags.args {
			result, err := iconstore.ImportCatalog(ctx, store, iconstore.ExpandPath(path))
			if err != nil {
				return err
			}
			fmt.Printf("Imported %d/%d icons from %s\n", result.Added, result.Total, path)
		}
		return nil
	case "list":
		icons, err := store.ListIcons(ctx)
		if err != nil {
			return err
		}
		if flags.asJSON {
			data, _ := json.MarshalIndent(icons, "", "  ")
			fmt.Println(string(data))
			return nil
		}
		for _, icon := range icons {
			fmt.Printf("  %-4d %-20s [%s]\n", icon.ID, icon.Title, strings.Join(icon.Subjects, ", "))
		}
		fmt.Printf("%d icons\n", len(icons))
		return nil
	default:
		return fmt.Errorf("unknown icons subcommand: %s", sub)
	}
}

func runServe(args []string) error {
	flags, err := parseFlags(args)
	if err != nil {
		return err
	}
	resolved, err := resolveSettings(flags)
	if err != nil {
		return err
	}

	store, err := openStore(resolved)
	if err != nil {
		return fmt.Errorf("opening icon store: %w", err)
	}
	defer store.Close()

	srv := mcp.NewServer(mcp.ServerConfig{
		Store:      store,
		Identifier: newIdentifier(resolved),
		Embedder:   newEmbedder(resolved),
		Version:    version,
		MatchLimit: matchLimit(resolved),
	})
	return mcp.ServeStdio(srv)
}

func printUsage() {
	fmt.Println(`iconsense — subject identification and icon matching for audio transcripts

Usage:
  iconsense identify <text>|--file <path> [--timeout <ms>] [--json]
  iconsense match    <text>|--file <path> [--limit <n>] [--db <path>] [--catalog <yaml>] [--embed <provider>] [--json]
  iconsense icons    import <catalog.yaml> [--db <path>]
  iconsense icons    list [--db <path>] [--json]
  iconsense serve    [--db <path>] [--catalog <yaml>] [--embed <provider>]
  iconsense version

Configuration is read from ~/.iconsense/config.yaml, ICONSENSE_* environment
variables, and CLI flags, in increasing order of precedence.`)
}
