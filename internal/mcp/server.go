// Package mcp provides a Model Context Protocol server for iconsense.
//
// It exposes subject identification and icon matching as MCP tools over
// stdio transport, plus catalog management (import, list) against the icon
// store.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/ploverbay/iconsense/internal/embed"
	"github.com/ploverbay/iconsense/internal/iconstore"
	"github.com/ploverbay/iconsense/internal/identify"
	"github.com/ploverbay/iconsense/internal/match"
)

// ServerConfig holds configuration for the MCP server.
type ServerConfig struct {
	Store      iconstore.Store
	Identifier *identify.Identifier
	Embedder   embed.Embedder // optional, enables semantic matching
	Version    string
	MatchLimit int
}

// dbMu serializes tool calls that touch the icon database. The mcp-go
// library dispatches handlers concurrently via goroutines, and SQLite
// supports only one writer at a time.
var dbMu sync.Mutex

// NewServer creates a configured MCP server with all iconsense tools.
func NewServer(cfg ServerConfig) *server.MCPServer {
	ver := cfg.Version
	if ver == "" {
		ver = "dev"
	}

	s := server.NewMCPServer(
		"iconsense",
		ver,
		server.WithToolCapabilities(false),
	)

	identifier := cfg.Identifier
	if identifier == nil {
		identifier = identify.NewIdentifier()
	}

	limit := cfg.MatchLimit
	if limit <= 0 {
		limit = identify.DefaultMatchLimit
	}

	registerIdentifyTool(s, identifier)
	registerMatchTool(s, identifier, cfg.Store, cfg.Embedder, limit)
	registerImportTool(s, cfg.Store)
	registerListTool(s, cfg.Store)

	return s
}

// ServeStdio blocks serving the MCP protocol on stdin/stdout.
func ServeStdio(s *server.MCPServer) error {
	return server.ServeStdio(s)
}

// --- Tools ---

func registerIdentifyTool(s *server.MCPServer, identifier *identify.Identifier) {
	tool := mcp.NewTool("identify_subjects",
		mcp.WithDescription("Identify salient subjects (keywords, named entities, topics) in a piece of text. Runs all extraction strategies in parallel under a global time budget and returns a merged, deduplicated subject list."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("The transcript or document text to analyze"),
		),
		mcp.WithString("domain",
			mcp.Description("Optional domain hint carried into each subject's context (e.g. 'podcast')"),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		text, err := req.RequireString("text")
		if err != nil {
			return mcp.NewToolResultError("text is required"), nil
		}
		if strings.TrimSpace(text) == "" {
			return mcp.NewToolResultError("text cannot be empty"), nil
		}

		var ictx *identify.Context
		if domain, err := req.RequireString("domain"); err == nil && domain != "" {
			ictx = &identify.Context{Domain: domain}
		}

		result, err := identifier.IdentifySubjects(ctx, text, ictx)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("identification error: %v", err)), nil
		}

		data, _ := json.MarshalIndent(result, "", "  ")
		return mcp.NewToolResultText(string(data)), nil
	})
}

func registerMatchTool(s *server.MCPServer, identifier *identify.Identifier, st iconstore.Store, embedder embed.Embedder, defaultLimit int) {
	tool := mcp.NewTool("match_icons",
		mcp.WithDescription("Identify subjects in text and match them against the icon catalog. Returns ranked icon matches with the subjects that justified each match."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("The transcript or document text to match icons for"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of ranked matches (default: 5, max: 50)"),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		dbMu.Lock()
		defer dbMu.Unlock()

		text, err := req.RequireString("text")
		if err != nil {
			return mcp.NewToolResultError("text is required"), nil
		}

		limit := defaultLimit
		if limitVal, err := req.RequireFloat("limit"); err == nil {
			l := int(limitVal)
			if l > 50 {
				l = 50
			}
			if l > 0 {
				limit = l
			}
		}

		icons, err := st.ListIcons(ctx)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("loading icon catalog: %v", err)), nil
		}

		var matchOpts []match.Option
		if embedder != nil {
			matchOpts = append(matchOpts, match.WithEmbedder(embedder))
		}
		pipeline := identify.NewPipeline(identifier, match.NewMatcher(icons, matchOpts...),
			identify.WithMatchLimit(limit))
		result, err := pipeline.Run(ctx, text, nil)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("matching error: %v", err)), nil
		}

		data, _ := json.MarshalIndent(result.Matches, "", "  ")
		return mcp.NewToolResultText(string(data)), nil
	})
}

func registerImportTool(s *server.MCPServer, st iconstore.Store) {
	tool := mcp.NewTool("icons_import",
		mcp.WithDescription("Import icons from a YAML catalog file into the icon store. Duplicate icons (same title and URL) are skipped."),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to a YAML catalog file"),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		dbMu.Lock()
		defer dbMu.Unlock()

		path, err := req.RequireString("path")
		if err != nil {
			return mcp.NewToolResultError("path is required"), nil
		}

		start := time.Now()
		result, err := iconstore.ImportCatalog(ctx, st, iconstore.ExpandPath(path))
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("import error: %v", err)), nil
		}

		return mcp.NewToolResultText(fmt.Sprintf(
			"Imported %d/%d icons in %dms", result.Added, result.Total,
			time.Since(start).Milliseconds())), nil
	})
}

func registerListTool(s *server.MCPServer, st iconstore.Store) {
	tool := mcp.NewTool("icons_list",
		mcp.WithDescription("List all icons in the catalog with their subject tags."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		dbMu.Lock()
		defer dbMu.Unlock()

		icons, err := st.ListIcons(ctx)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("list error: %v", err)), nil
		}

		data, _ := json.MarshalIndent(icons, "", "  ")
		return mcp.NewToolResultText(string(data)), nil
	})
}
