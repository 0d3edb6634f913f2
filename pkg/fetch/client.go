// Package fetch loads projection snapshots from the projection service or
// from disk.
//
// [Client] talks to the service and caches responses. [Loader] sits between
// a [Source] and a chart frontend: it runs requests in the background and
// delivers only the newest result, so a slow response to an old grouping
// request never overwrites a newer one.
package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/landscape/pkg/cache"
	"github.com/matzehuels/landscape/pkg/errors"
	"github.com/matzehuels/landscape/pkg/httputil"
	"github.com/matzehuels/landscape/pkg/observability"
	"github.com/matzehuels/landscape/pkg/projection"
	"github.com/matzehuels/landscape/pkg/scatter/grouping"
)

// DefaultTimeout bounds a single HTTP attempt.
const DefaultTimeout = 30 * time.Second

// maxBody caps a snapshot response.
const maxBody = 32 << 20

// Option configures a [Client].
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option { return func(c *Client) { c.http = hc } }

// WithCache stores responses in store for ttl.
func WithCache(store cache.Cache, ttl time.Duration) Option {
	return func(c *Client) {
		if store != nil {
			c.cache, c.ttl = store, ttl
		}
	}
}

// WithKeyer sets the cache key scope.
func WithKeyer(k cache.Keyer) Option { return func(c *Client) { c.keyer = k } }

// WithRetry sets the attempt count and initial backoff.
func WithRetry(attempts int, delay time.Duration) Option {
	return func(c *Client) { c.attempts, c.delay = attempts, delay }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// Client fetches snapshots from the projection service.
type Client struct {
	base     string
	http     *http.Client
	cache    cache.Cache
	ttl      time.Duration
	keyer    cache.Keyer
	attempts int
	delay    time.Duration
	logger   *log.Logger
}

// NewClient returns a client for the service at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	if err := errors.ValidateURL(baseURL); err != nil {
		return nil, err
	}
	c := &Client{
		base:     strings.TrimRight(baseURL, "/"),
		http:     &http.Client{Timeout: DefaultTimeout},
		cache:    cache.NewNullCache(),
		ttl:      cache.SnapshotTTL,
		attempts: 3,
		delay:    time.Second,
		logger:   log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the service root.
func (c *Client) BaseURL() string { return c.base }

// SnapshotURL returns the endpoint serving position under req.
func (c *Client) SnapshotURL(position string, req grouping.Request) string {
	u := c.base + "/api/positions/" + url.PathEscape(position) + "/pca-data"
	if k, ok := req.Count(); ok && k > 0 {
		u += "?k=" + strconv.Itoa(k)
	}
	return u
}

// FetchSnapshot returns the projection of position, from cache when fresh.
func (c *Client) FetchSnapshot(ctx context.Context, position string, req grouping.Request) (*projection.Snapshot, error) {
	if err := errors.ValidatePosition(position); err != nil {
		return nil, err
	}
	k, _ := req.Count()
	key := c.keyer.SnapshotKey(c.base, position, k)

	start := time.Now()
	observability.Pipeline().OnFetchStart(ctx, position)

	if data, ok, err := c.cache.Get(ctx, key); err != nil {
		c.logger.Warn("snapshot cache read failed", "err", err)
	} else if ok {
		if snap, err := projection.Read(bytes.NewReader(data)); err == nil {
			observability.Cache().OnCacheHit(ctx, "snapshot")
			observability.Pipeline().OnFetchComplete(ctx, position, len(snap.Points), time.Since(start), nil)
			c.logger.Debug("snapshot from cache", "position", position, "groups", req)
			return snap, nil
		}
		_ = c.cache.Delete(ctx, key)
	}
	observability.Cache().OnCacheMiss(ctx, "snapshot")

	data, err := c.get(ctx, c.SnapshotURL(position, req))
	if err != nil {
		observability.Pipeline().OnFetchComplete(ctx, position, 0, time.Since(start), err)
		return nil, err
	}
	snap, err := projection.Read(bytes.NewReader(data))
	if err != nil {
		observability.Pipeline().OnFetchComplete(ctx, position, 0, time.Since(start), err)
		return nil, err
	}
	if err := c.cache.Set(ctx, key, data, c.ttl); err != nil {
		c.logger.Warn("snapshot cache write failed", "err", err)
	} else {
		observability.Cache().OnCacheSet(ctx, "snapshot", len(data))
	}
	observability.Pipeline().OnFetchComplete(ctx, position, len(snap.Points), time.Since(start), nil)
	c.logger.Debug("snapshot fetched", "position", position, "groups", req, "points", len(snap.Points), "duration", time.Since(start))
	return snap, nil
}

// PositionColor returns the accent color the service assigns to position.
func (c *Client) PositionColor(ctx context.Context, position string) (string, error) {
	if err := errors.ValidatePosition(position); err != nil {
		return "", err
	}
	data, err := c.get(ctx, c.base+"/api/positions/"+url.PathEscape(position)+"/color")
	if err != nil {
		return "", err
	}
	var out struct {
		Color string `json:"color"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return "", errors.Wrap(errors.ErrCodeFetchFailed, err, "decode color")
	}
	return out.Color, nil
}

// get performs a GET with retry and maps failures to coded errors.
func (c *Client) get(ctx context.Context, rawURL string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse %s", rawURL)
	}
	var body []byte
	err = httputil.Retry(ctx, c.attempts, c.delay, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/json")

		observability.HTTP().OnRequest(ctx, req.Method, u.Host, u.Path)
		start := time.Now()
		resp, err := c.http.Do(req)
		if err != nil {
			observability.HTTP().OnError(ctx, req.Method, u.Host, u.Path, err)
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return httputil.Retryable(err)
		}
		defer resp.Body.Close()
		observability.HTTP().OnResponse(ctx, req.Method, u.Host, u.Path, resp.StatusCode, time.Since(start))

		if err := httputil.CheckResponse(resp); err != nil {
			c.logger.Debug("request failed", "url", rawURL, "status", resp.StatusCode)
			return err
		}
		body, err = io.ReadAll(io.LimitReader(resp.Body, maxBody))
		if err != nil {
			return httputil.Retryable(err)
		}
		return nil
	})
	if err != nil {
		return nil, classify(err, rawURL)
	}
	return body, nil
}

func classify(err error, rawURL string) error {
	var se *errors.StatusError
	switch {
	case errors.As(err, &se):
		return errors.Wrap(se.Code(), se, "GET %s", rawURL)
	case err == context.Canceled:
		return errors.Wrap(errors.ErrCodeCancelled, err, "GET %s", rawURL)
	case err == context.DeadlineExceeded:
		return errors.Wrap(errors.ErrCodeTimeout, err, "GET %s", rawURL)
	default:
		return errors.Wrap(errors.ErrCodeFetchFailed, err, "GET %s", rawURL)
	}
}

// Source produces snapshots for grouping requests.
type Source interface {
	Load(ctx context.Context, req grouping.Request) (*projection.Snapshot, error)
}

// Position binds the client to one position.
func (c *Client) Position(position string) Source {
	return positionSource{client: c, position: position}
}

type positionSource struct {
	client   *Client
	position string
}

func (s positionSource) Load(ctx context.Context, req grouping.Request) (*projection.Snapshot, error) {
	return s.client.FetchSnapshot(ctx, s.position, req)
}

func (s positionSource) String() string { return fmt.Sprintf("%s (%s)", s.position, s.client.base) }
