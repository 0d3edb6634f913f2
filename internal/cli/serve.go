package cli

import (
	"context"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/matzehuels/landscape/internal/server"
	"github.com/matzehuels/landscape/pkg/cache"
	"github.com/matzehuels/landscape/pkg/errors"
	"github.com/matzehuels/landscape/pkg/fetch"
	"github.com/matzehuels/landscape/pkg/scatter/sink"
	"github.com/matzehuels/landscape/pkg/session"
)

// serveCommand creates the live view server.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr  string
		input string
		theme string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve live chart views in the browser",
		Long: `Serve interactive views over HTTP. Each browser tab gets its own chart,
driven over a websocket: pan, zoom and hover happen on the server and the
page receives SVG updates.

Open http://ADDR/positions/<position> to start a view. When a Redis URL is
configured, views survive restarts and are shared between instances.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), addr, input, theme)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	cmd.Flags().StringVarP(&input, "input", "i", "", "serve every position from this snapshot file")
	cmd.Flags().StringVar(&theme, "theme", "", "color theme: dark or light (default from config)")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, addr, input, theme string) error {
	cfg := c.Config
	if addr == "" {
		addr = cfg.Server.Addr
	}
	if theme == "" {
		theme = cfg.Style.Theme
	}
	th, ok := sink.DarkTheme(), true
	if theme != "" {
		th, ok = sink.ThemeByName(theme)
	}
	if !ok {
		return errors.New(errors.ErrCodeInvalidInput, "unknown theme %q", theme)
	}

	store := c.newCache(ctx)
	defer store.Close()

	sources, err := c.sources(store, input)
	if err != nil {
		return err
	}
	views, closeViews := c.viewStore(ctx, store)
	defer closeViews()

	srv, err := server.New(server.Config{
		Addr:      addr,
		Chart:     cfg.Chart(),
		Theme:     th,
		Sources:   sources,
		Store:     views,
		Runner:    c.newRunner(store),
		ViewTTL:   cfg.Server.ViewTTL,
		FrameRate: cfg.Server.FrameRate,
		Logger:    c.Logger,
	})
	if err != nil {
		return err
	}

	printInfo("Serving on %s", StyleLink.Render("http://"+addr))
	if input != "" {
		printDetail("every position reads %s", input)
	}
	if err := srv.ListenAndServe(ctx); err != nil {
		return err
	}
	printSuccess("Server stopped")
	return nil
}

// sources maps positions to snapshot sources for the server.
func (c *CLI) sources(store cache.Cache, input string) (server.SourceFunc, error) {
	if input != "" {
		src := fetch.FileSource{Path: input}
		return func(string) (fetch.Source, error) { return src, nil }, nil
	}
	client, err := c.newClient(store)
	if err != nil {
		return nil, err
	}
	return func(position string) (fetch.Source, error) {
		if err := errors.ValidatePosition(position); err != nil {
			return nil, err
		}
		return client.Position(position), nil
	}, nil
}

// viewStore keeps views in Redis when it is configured, sharing the cache's
// connection when the cache is Redis too. Otherwise views live in memory.
func (c *CLI) viewStore(ctx context.Context, store cache.Cache) (session.Store, func()) {
	prefix := c.Config.Redis.Prefix + "view:"
	if rc, ok := store.(*cache.RedisCache); ok {
		return session.NewRedisStore(rc.Client(), prefix), func() {}
	}
	if c.Config.Redis.URL == "" {
		return session.NewMemoryStore(), func() {}
	}

	opts, err := redis.ParseURL(c.Config.Redis.URL)
	if err != nil {
		c.Logger.Warn("invalid redis URL, keeping views in memory", "err", err)
		return session.NewMemoryStore(), func() {}
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		c.Logger.Warn("redis unavailable, keeping views in memory", "addr", opts.Addr, "err", err)
		return session.NewMemoryStore(), func() {}
	}
	return session.NewRedisStore(client, prefix), func() { client.Close() }
}
