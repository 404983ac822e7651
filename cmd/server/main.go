package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"mcpbinder/config"
	"mcpbinder/internal/alias"
	"mcpbinder/internal/registry"
	"mcpbinder/internal/runtime"
	"mcpbinder/internal/storage"
	"mcpbinder/internal/telemetry"
	"mcpbinder/internal/views"
	"mcpbinder/pkg/version"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	var (
		useStdio        bool
		shutdownTimeout time.Duration
		dbPath          string
		collectionPath  string
		defaultOwner    string
	)

	flag.BoolVar(&useStdio, "stdio", false, "Run server over stdio transport")
	flag.DurationVar(&shutdownTimeout, "shutdown-timeout", 5*time.Second, "Graceful shutdown timeout")
	flag.StringVar(&dbPath, "db", "", "SQLite collection database (.db/.sqlite); overrides MCPBINDER_DB")
	flag.StringVar(&collectionPath, "collection", "", "Collection workbook (.xlsx); overrides MCPBINDER_COLLECTION")
	flag.StringVar(&defaultOwner, "owner", "", "Owner handle browsed when a query names none; overrides MCPBINDER_DEFAULT_OWNER")
	flag.Parse()

	logger := zlog.With().Str("service", "mcpbinder-server").Logger()
	ctx := logger.WithContext(context.Background())

	// .env is optional; real environment variables win either way.
	_ = godotenv.Load()

	// Storage: resolve and open the collection source on startup (fail-safe on error)
	source := firstNonEmpty(dbPath, collectionPath, os.Getenv("MCPBINDER_DB"), os.Getenv("MCPBINDER_COLLECTION"))
	if source == "" {
		logger.Error().Msg("storage: no collection source configured")
		fmt.Fprintln(os.Stderr, "no collection configured; pass --db or --collection, or set MCPBINDER_DB / MCPBINDER_COLLECTION")
		os.Exit(1)
	}
	store, err := storage.Open(source)
	if err != nil {
		logger.Error().Err(err).Str("source", source).Msg("storage: failed to open collection")
		fmt.Fprintf(os.Stderr, "cannot open collection %s: %v\n", source, err)
		os.Exit(1)
	}
	defer store.Close()
	if err := store.Ping(ctx); err != nil {
		logger.Error().Err(err).Str("source", source).Msg("storage: collection unreachable")
		fmt.Fprintf(os.Stderr, "collection %s unreachable: %v\n", source, err)
		os.Exit(1)
	}
	logger.Info().Str("source", source).Msg("collection source opened")

	if defaultOwner == "" {
		defaultOwner = os.Getenv("MCPBINDER_DEFAULT_OWNER")
	}

	limits := runtime.NewLimits(10, 4)
	limits.ViewTTL = viewTTLFromEnv(logger)
	runtimeController := runtime.NewController(limits)
	runtimeMW := runtime.NewMiddleware(runtimeController, logger)

	hooks := telemetry.NewHooks(logger)
	viewRegistry := views.NewRegistry(limits.ViewTTL, config.DefaultViewSweepPeriod, nil, hooks.OnViewRetired)
	viewRegistry.Start()
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := viewRegistry.Close(closeCtx); err != nil {
			logger.Warn().Err(err).Msg("view registry close timed out")
		}
	}()

	toolRegistry := registry.New()

	ownerFilter := registry.NewOwnerListingFilterFromEnv()

	srv := server.NewMCPServer(
		"MCP Card Binder Server",
		version.Version(),
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, false),
		server.WithRecovery(),
		server.WithHooks(buildHooks(logger, hooks)),
		server.WithToolHandlerMiddleware(runtimeMW.ToolMiddleware),
		server.WithToolFilter(func(ctx context.Context, tools []mcp.Tool) []mcp.Tool { return ownerFilter.FilterTools(ctx, tools) }),
	)

	registry.RegisterBinderTools(srv, toolRegistry, registry.Deps{
		Store:        store,
		Views:        viewRegistry,
		Expander:     alias.Default(),
		Limits:       runtimeController.LimitsSnapshot(),
		Gate:         runtimeController,
		DefaultOwner: defaultOwner,
		Logger:       logger,
	})

	registered := toolRegistry.Tools()

	logger.Info().
		Ctx(ctx).
		Str("version", version.Version()).
		Int("tools", len(registered)).
		Int("max_concurrent_requests", limits.MaxConcurrentRequests).
		Int("max_concurrent_fetches", limits.MaxConcurrentFetches).
		Int("page_size", limits.PageSize).
		Dur("view_ttl", limits.ViewTTL).
		Str("default_owner", defaultOwner).
		Bool("stdio", useStdio).
		Msg("server bootstrap configured")

	if useStdio {
		if err := server.ServeStdio(srv); err != nil {
			// Use stderr for transport errors so clients don't misinterpret output
			fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// If no transport flags provided, print usage and exit non-zero
	fmt.Fprintln(os.Stderr, "no transport selected; use --stdio to run over stdio")
	os.Exit(2)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// viewTTLFromEnv reads MCPBINDER_VIEW_TTL as a Go duration, falling back to
// the default on absence or parse failure.
func viewTTLFromEnv(logger zerolog.Logger) time.Duration {
	raw := os.Getenv("MCPBINDER_VIEW_TTL")
	if raw == "" {
		return config.DefaultViewTTL
	}
	ttl, err := time.ParseDuration(raw)
	if err != nil || ttl <= 0 {
		logger.Warn().Str("value", raw).Msg("invalid MCPBINDER_VIEW_TTL, using default")
		return config.DefaultViewTTL
	}
	return ttl
}

// buildHooks constructs mcp-go server hooks, delegating session lifecycle
// events to the telemetry package.
func buildHooks(logger zerolog.Logger, t *telemetry.Hooks) *server.Hooks {
	hooks := &server.Hooks{}

	hooks.AddOnRegisterSession(func(ctx context.Context, session server.ClientSession) {
		t.OnSessionStart(session.SessionID())
	})

	hooks.AddOnUnregisterSession(func(ctx context.Context, session server.ClientSession) {
		t.OnSessionEnd(session.SessionID())
	})

	hooks.AddAfterListTools(func(ctx context.Context, id any, req *mcp.ListToolsRequest, res *mcp.ListToolsResult) {
		// Keep it light: tool count only
		logger.Info().Int("tools", len(res.Tools)).Msg("list_tools served")
	})

	hooks.AddAfterCallTool(func(ctx context.Context, id any, req *mcp.CallToolRequest, res *mcp.CallToolResult) {
		logger.Info().Str("tool", req.Params.Name).Msg("tool call served")
	})

	hooks.AddOnError(func(ctx context.Context, id any, method mcp.MCPMethod, message any, err error) {
		logger.Error().Str("method", string(method)).Err(err).Msg("request error")
	})

	return hooks
}
