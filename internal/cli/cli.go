// Package cli implements the landscape command-line interface.
package cli

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/landscape/pkg/buildinfo"
	"github.com/matzehuels/landscape/pkg/cache"
	"github.com/matzehuels/landscape/pkg/config"
	"github.com/matzehuels/landscape/pkg/errors"
	"github.com/matzehuels/landscape/pkg/fetch"
	"github.com/matzehuels/landscape/pkg/observability"
	"github.com/matzehuels/landscape/pkg/pipeline"
)

// appName is the application name used for directories and display.
const appName = "landscape"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
	Config config.Config

	configPath string
	baseURL    string
	noCache    bool
}

// New creates a new CLI instance with a default logger and the built-in
// settings. Settings from file and environment are loaded before each
// command runs.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Config: config.Default(),
	}
}

// SetLogLevel updates the logger's level. Debug output reports callers.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
	c.Logger.SetReportCaller(level <= log.DebugLevel)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Landscape explores 2D projections of player statistics",
		Long: `Landscape draws the principal-component projection of a player position as an
interactive scatter map: points colored by cluster, Voronoi regions behind
them, pan and zoom, and on-demand regrouping.`,
		Version:           buildinfo.Version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return c.setup(cmd) },
	}

	root.SetVersionTemplate(buildinfo.Template())

	flags := root.PersistentFlags()
	flags.StringVar(&c.configPath, "config", "", "config file (default "+config.DefaultPath()+")")
	flags.StringVar(&c.baseURL, "base-url", "", "projection service URL (overrides config)")
	flags.BoolVar(&c.noCache, "no-cache", false, "disable the snapshot and artifact cache")

	root.AddCommand(c.renderCommand())
	root.AddCommand(c.fetchCommand())
	root.AddCommand(c.exploreCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.windowCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// setup loads the settings, applies persistent flags and attaches the
// logger to the command context.
func (c *CLI) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	if c.baseURL != "" {
		cfg.Service.BaseURL = c.baseURL
	}
	if c.noCache {
		cfg.Cache.Backend = cache.BackendNone
	}
	c.Config = cfg

	if c.Logger.GetLevel() <= log.DebugLevel {
		hooks := observability.NewLogHooks(c.Logger)
		observability.SetPipelineHooks(hooks)
		observability.SetCacheHooks(hooks)
		observability.SetHTTPHooks(hooks)
		observability.SetViewHooks(hooks)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(withLogger(ctx, c.Logger))
	return nil
}

// newCache opens the configured cache. Failures degrade to no caching.
func (c *CLI) newCache(ctx context.Context) cache.Cache {
	store, err := cache.Open(ctx, c.Config.CacheOptions())
	if err != nil {
		c.Logger.Warn("cache unavailable, continuing without", "err", err)
		return cache.NewNullCache()
	}
	return store
}

// newClient builds a projection service client sharing store.
func (c *CLI) newClient(store cache.Cache) (*fetch.Client, error) {
	ttl := c.Config.Cache.TTL
	if ttl <= 0 {
		ttl = cache.SnapshotTTL
	}
	return fetch.NewClient(c.Config.Service.BaseURL,
		fetch.WithCache(store, ttl),
		fetch.WithRetry(c.Config.Service.Retries, time.Second),
		fetch.WithLogger(c.Logger),
	)
}

// source returns where snapshots come from: a file when input is set,
// otherwise the service's projection of position.
func (c *CLI) source(store cache.Cache, position, input string) (fetch.Source, error) {
	if input != "" {
		return fetch.FileSource{Path: input}, nil
	}
	if position == "" {
		position = c.Config.Service.Position
	}
	if position == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "a position is required (argument, --input or service.position)")
	}
	if err := errors.ValidatePosition(position); err != nil {
		return nil, err
	}
	client, err := c.newClient(store)
	if err != nil {
		return nil, err
	}
	return client.Position(position), nil
}

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(store cache.Cache) *pipeline.Runner {
	return pipeline.NewRunner(store, c.Logger)
}

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.FormatSVG}
	}
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}
