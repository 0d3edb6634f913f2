// Package config loads landscape settings.
//
// Settings are layered, later layers winning:
//
//  1. built-in defaults ([Default])
//  2. a TOML file, $XDG_CONFIG_HOME/landscape/config.toml unless a path is given
//  3. LANDSCAPE_* environment variables, e.g. LANDSCAPE_SERVICE_BASE_URL
//
// Command-line flags are applied on top by the CLI.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/matzehuels/landscape/pkg/cache"
	"github.com/matzehuels/landscape/pkg/errors"
	"github.com/matzehuels/landscape/pkg/scatter"
	"github.com/matzehuels/landscape/pkg/scatter/geometry"
	"github.com/matzehuels/landscape/pkg/scatter/viewport"
)

// EnvPrefix prefixes every environment variable.
const EnvPrefix = "LANDSCAPE_"

// Config is the full settings tree.
type Config struct {
	Canvas      Canvas      `toml:"canvas" envPrefix:"CANVAS_"`
	Viewport    Viewport    `toml:"viewport" envPrefix:"VIEWPORT_"`
	Style       Style       `toml:"style" envPrefix:"STYLE_"`
	Interaction Interaction `toml:"interaction" envPrefix:"INTERACTION_"`
	Grouping    Grouping    `toml:"grouping" envPrefix:"GROUPING_"`
	Service     Service     `toml:"service" envPrefix:"SERVICE_"`
	Cache       Cache       `toml:"cache" envPrefix:"CACHE_"`
	Server      Server      `toml:"server" envPrefix:"SERVER_"`
	Redis       Redis       `toml:"redis" envPrefix:"REDIS_"`
}

type Canvas struct {
	Width        float64 `toml:"width" env:"WIDTH"`
	Height       float64 `toml:"height" env:"HEIGHT"`
	MarginTop    float64 `toml:"margin_top" env:"MARGIN_TOP"`
	MarginRight  float64 `toml:"margin_right" env:"MARGIN_RIGHT"`
	MarginBottom float64 `toml:"margin_bottom" env:"MARGIN_BOTTOM"`
	MarginLeft   float64 `toml:"margin_left" env:"MARGIN_LEFT"`
}

type Viewport struct {
	MinScale float64       `toml:"min_scale" env:"MIN_SCALE"`
	MaxScale float64       `toml:"max_scale" env:"MAX_SCALE"`
	Step     float64       `toml:"step" env:"STEP"`
	Duration time.Duration `toml:"duration" env:"DURATION"`
	Focus    string        `toml:"focus" env:"FOCUS"`
	FocusFit float64       `toml:"focus_fit" env:"FOCUS_FIT"`
	FocusLo  float64       `toml:"focus_lo" env:"FOCUS_LO"`
	FocusHi  float64       `toml:"focus_hi" env:"FOCUS_HI"`
}

type Style struct {
	Theme            string   `toml:"theme" env:"THEME"`
	Palette          []string `toml:"palette" env:"PALETTE" envSeparator:","`
	BaseRadius       float64  `toml:"base_radius" env:"BASE_RADIUS"`
	HoverRadius      float64  `toml:"hover_radius" env:"HOVER_RADIUS"`
	EmphasizedRadius float64  `toml:"emphasized_radius" env:"EMPHASIZED_RADIUS"`
	DimOpacity       float64  `toml:"dim_opacity" env:"DIM_OPACITY"`
	MinOpacity       float64  `toml:"min_opacity" env:"MIN_OPACITY"`
	RegionOpacity    float64  `toml:"region_opacity" env:"REGION_OPACITY"`
	MuteUnselected   bool     `toml:"mute_unselected" env:"MUTE_UNSELECTED"`
	Ticks            int      `toml:"ticks" env:"TICKS"`
}

type Interaction struct {
	DragThreshold float64 `toml:"drag_threshold" env:"DRAG_THRESHOLD"`
}

type Grouping struct {
	Min     int `toml:"min" env:"MIN"`
	Max     int `toml:"max" env:"MAX"`
	Default int `toml:"default" env:"DEFAULT"`
}

type Service struct {
	BaseURL  string        `toml:"base_url" env:"BASE_URL"`
	Position string        `toml:"position" env:"POSITION"`
	Timeout  time.Duration `toml:"timeout" env:"TIMEOUT"`
	Retries  int           `toml:"retries" env:"RETRIES"`
}

type Cache struct {
	Backend string        `toml:"backend" env:"BACKEND"`
	Dir     string        `toml:"dir" env:"DIR"`
	TTL     time.Duration `toml:"ttl" env:"TTL"`
}

type Server struct {
	Addr      string        `toml:"addr" env:"ADDR"`
	ViewTTL   time.Duration `toml:"view_ttl" env:"VIEW_TTL"`
	FrameRate int           `toml:"frame_rate" env:"FRAME_RATE"`
}

type Redis struct {
	URL    string `toml:"url" env:"URL"`
	Prefix string `toml:"prefix" env:"PREFIX"`
}

// Default returns the built-in settings.
func Default() Config {
	chart := scatter.DefaultConfig()
	c, vp, enc := chart.Canvas, chart.Viewport, chart.Encoding
	return Config{
		Canvas: Canvas{
			Width: c.Width, Height: c.Height,
			MarginTop: c.Margin.Top, MarginRight: c.Margin.Right,
			MarginBottom: c.Margin.Bottom, MarginLeft: c.Margin.Left,
		},
		Viewport: Viewport{
			MinScale: vp.MinScale, MaxScale: vp.MaxScale, Step: vp.Step,
			Duration: vp.Duration, Focus: vp.Focus.String(), FocusFit: vp.FocusFit,
			FocusLo: chart.FocusLo, FocusHi: chart.FocusHi,
		},
		Style: Style{
			Theme:            "dark",
			BaseRadius:       enc.BaseRadius,
			HoverRadius:      enc.HoverRadius,
			EmphasizedRadius: enc.EmphasizedRadius,
			DimOpacity:       enc.DimOpacity,
			MinOpacity:       enc.MinOpacity,
			RegionOpacity:    chart.RegionOpacity,
			Ticks:            chart.Ticks,
		},
		Interaction: Interaction{DragThreshold: chart.DragThreshold},
		Grouping:    Grouping{Min: chart.GroupMin, Max: chart.GroupMax, Default: chart.GroupCount},
		Service: Service{
			BaseURL: "http://localhost:8000",
			Timeout: 30 * time.Second,
			Retries: 3,
		},
		Cache:  Cache{Backend: cache.BackendFile, TTL: cache.SnapshotTTL},
		Server: Server{Addr: "127.0.0.1:8080", ViewTTL: 30 * time.Minute, FrameRate: 60},
		Redis:  Redis{Prefix: cache.DefaultRedisPrefix},
	}
}

// DefaultPath returns the config file consulted when no path is given.
// os.UserConfigDir honors XDG_CONFIG_HOME.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "landscape", "config.toml")
}

// Load layers defaults, the TOML file at path and the environment. An empty
// path uses [DefaultPath] and tolerates its absence; an explicit path must
// exist.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil && (explicit || !os.IsNotExist(err)) {
			return cfg, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read config %s", path)
		}
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return cfg, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse environment")
	}
	return cfg, cfg.Validate()
}

// Validate rejects settings the engine cannot run with.
func (c Config) Validate() error {
	if c.Canvas.Width <= 0 || c.Canvas.Height <= 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "canvas size must be positive, got %vx%v", c.Canvas.Width, c.Canvas.Height)
	}
	if _, err := viewport.ParseFocusPolicy(c.Viewport.Focus); err != nil {
		return err
	}
	vp := c.Viewport
	if vp.MinScale <= 0 || vp.MaxScale < vp.MinScale {
		return errors.New(errors.ErrCodeInvalidConfig, "scale bounds [%v, %v] are invalid", vp.MinScale, vp.MaxScale)
	}
	if vp.Step <= 1 {
		return errors.New(errors.ErrCodeInvalidConfig, "zoom step must exceed 1, got %v", vp.Step)
	}
	if vp.FocusLo < 0 || vp.FocusHi > 1 || vp.FocusLo >= vp.FocusHi {
		return errors.New(errors.ErrCodeInvalidConfig, "focus quantiles [%v, %v] are invalid", vp.FocusLo, vp.FocusHi)
	}
	for _, hex := range c.Style.Palette {
		if _, err := colorful.Hex(hex); err != nil {
			return errors.New(errors.ErrCodeInvalidConfig, "palette color %q is not #rrggbb", hex)
		}
	}
	if lo, dim := c.Style.MinOpacity, c.Style.DimOpacity; lo <= 0 || dim < lo || dim > 1 {
		return errors.New(errors.ErrCodeInvalidConfig, "opacities must satisfy 0 < min_opacity <= dim_opacity <= 1, got min=%v dim=%v", lo, dim)
	}
	g := c.Grouping
	if g.Min < 1 || g.Max < g.Min || g.Default < g.Min || g.Default > g.Max {
		return errors.New(errors.ErrCodeInvalidConfig, "grouping bounds min=%d max=%d default=%d are invalid", g.Min, g.Max, g.Default)
	}
	if err := errors.ValidateURL(c.Service.BaseURL); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "service base URL")
	}
	switch c.Cache.Backend {
	case cache.BackendFile, cache.BackendRedis, cache.BackendNone:
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "unknown cache backend %q", c.Cache.Backend)
	}
	if c.Cache.Backend == cache.BackendRedis && c.Redis.URL == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "cache backend redis needs redis.url")
	}
	return nil
}

// Chart converts the settings into the engine configuration.
func (c Config) Chart() scatter.Config {
	out := scatter.DefaultConfig()
	out.Canvas = geometry.Canvas{
		Width:  c.Canvas.Width,
		Height: c.Canvas.Height,
		Margin: geometry.Margins{
			Top: c.Canvas.MarginTop, Right: c.Canvas.MarginRight,
			Bottom: c.Canvas.MarginBottom, Left: c.Canvas.MarginLeft,
		},
	}
	focus, _ := viewport.ParseFocusPolicy(c.Viewport.Focus)
	out.Viewport = viewport.Config{
		MinScale: c.Viewport.MinScale,
		MaxScale: c.Viewport.MaxScale,
		Step:     c.Viewport.Step,
		Duration: c.Viewport.Duration,
		Focus:    focus,
		FocusFit: c.Viewport.FocusFit,
	}
	out.FocusLo, out.FocusHi = c.Viewport.FocusLo, c.Viewport.FocusHi
	out.Encoding.BaseRadius = c.Style.BaseRadius
	out.Encoding.HoverRadius = c.Style.HoverRadius
	out.Encoding.EmphasizedRadius = c.Style.EmphasizedRadius
	out.Encoding.DimOpacity = c.Style.DimOpacity
	out.Encoding.MinOpacity = c.Style.MinOpacity
	out.Encoding.MuteUnselected = c.Style.MuteUnselected
	out.Palette = c.Style.Palette
	out.RegionOpacity = c.Style.RegionOpacity
	out.Ticks = c.Style.Ticks
	out.DragThreshold = c.Interaction.DragThreshold
	out.GroupMin, out.GroupMax, out.GroupCount = c.Grouping.Min, c.Grouping.Max, c.Grouping.Default
	return out
}

// CacheOptions returns the options for [cache.Open].
func (c Config) CacheOptions() cache.Options {
	return cache.Options{
		Backend:  c.Cache.Backend,
		Dir:      c.Cache.Dir,
		RedisURL: c.Redis.URL,
		Prefix:   c.Redis.Prefix,
	}
}
