package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/matzehuels/landscape/pkg/cache"
	"github.com/matzehuels/landscape/pkg/errors"
	"github.com/matzehuels/landscape/pkg/scatter/grouping"
)

const body = `{
  "points": [
    {"player_id": 1, "name": "Saka", "team": "Arsenal", "x": 0, "y": 0, "cluster_id": 0},
    {"player_id": 2, "name": "Palmer", "team": "Chelsea", "x": 1, "y": 1, "cluster_id": 1}
  ],
  "explained_variance": [0.41, 0.2],
  "cluster_centers": [
    {"cluster_id": 0, "label": "Wide creators", "x": 0, "y": 0, "count": 1},
    {"cluster_id": 1, "label": "Inside forwards", "x": 1, "y": 1, "count": 1}
  ],
  "optimal_k": 2
}`

func newServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestFetchSnapshot(t *testing.T) {
	var gotPath, gotQuery string
	srv, _ := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotQuery = r.URL.Path, r.URL.RawQuery
		fmt.Fprint(w, body)
	})
	c, err := NewClient(srv.URL + "/")
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	snap, err := c.FetchSnapshot(context.Background(), "winger", grouping.Manual(4))
	if err != nil {
		t.Fatalf("FetchSnapshot: %v", err)
	}
	if gotPath != "/api/positions/winger/pca-data" || gotQuery != "k=4" {
		t.Errorf("request = %s?%s", gotPath, gotQuery)
	}
	if len(snap.Points) != 2 || snap.OptimalK != 2 {
		t.Errorf("snapshot = %d points, optimal_k %d", len(snap.Points), snap.OptimalK)
	}

	if _, err := c.FetchSnapshot(context.Background(), "winger", grouping.Auto); err != nil {
		t.Fatalf("FetchSnapshot(auto): %v", err)
	}
	if gotQuery != "" {
		t.Errorf("automatic request sent query %q", gotQuery)
	}
}

func TestFetchSnapshotCache(t *testing.T) {
	srv, calls := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, body)
	})
	store, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	c, err := NewClient(srv.URL, WithCache(store, time.Hour))
	if err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	for range 3 {
		if _, err := c.FetchSnapshot(ctx, "winger", grouping.Auto); err != nil {
			t.Fatalf("FetchSnapshot: %v", err)
		}
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("server calls = %d, want 1", got)
	}
	if _, err := c.FetchSnapshot(ctx, "winger", grouping.Manual(3)); err != nil {
		t.Fatal(err)
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("a different k should miss the cache; calls = %d", got)
	}
}

func TestFetchSnapshotErrors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		wantCode  errors.Code
		wantCalls int32
	}{
		{"not found", http.StatusNotFound, "no such position", errors.ErrCodeNotFound, 1},
		{"server error retried", http.StatusServiceUnavailable, "", errors.ErrCodeUnavailable, 2},
		{"rate limited", http.StatusTooManyRequests, "", errors.ErrCodeRateLimited, 2},
		{"bad body", http.StatusOK, "{", errors.ErrCodeInvalidSnapshot, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, calls := newServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			})
			c, err := NewClient(srv.URL, WithRetry(2, time.Millisecond))
			if err != nil {
				t.Fatal(err)
			}
			_, err = c.FetchSnapshot(context.Background(), "winger", grouping.Auto)
			if !errors.Is(err, tt.wantCode) {
				t.Errorf("err = %v, want code %s", err, tt.wantCode)
			}
			if got := calls.Load(); got != tt.wantCalls {
				t.Errorf("calls = %d, want %d", got, tt.wantCalls)
			}
		})
	}
}

func TestFetchSnapshotInvalidPosition(t *testing.T) {
	c, err := NewClient("http://localhost:1")
	if err != nil {
		t.Fatal(err)
	}
	_, err = c.FetchSnapshot(context.Background(), "../admin", grouping.Auto)
	if !errors.Is(err, errors.ErrCodeInvalidPosition) {
		t.Errorf("err = %v, want INVALID_POSITION", err)
	}
}

func TestNewClientRejectsBadURL(t *testing.T) {
	if _, err := NewClient("ftp://example.com"); err == nil {
		t.Error("expected error for non-http URL")
	}
}

func TestPositionColor(t *testing.T) {
	srv, _ := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/positions/winger/color" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, `{"color": "#ff6b6b"}`)
	})
	c, _ := NewClient(srv.URL)
	color, err := c.PositionColor(context.Background(), "winger")
	if err != nil || color != "#ff6b6b" {
		t.Errorf("PositionColor = %q, %v", color, err)
	}
}

func TestFileSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snap.json")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	snap, err := FileSource{Path: path}.Load(context.Background(), grouping.Manual(7))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(snap.Points) != 2 {
		t.Errorf("points = %d", len(snap.Points))
	}
	if _, err := (FileSource{Path: filepath.Join(t.TempDir(), "missing.json")}).Load(context.Background(), grouping.Auto); err == nil {
		t.Error("missing file should fail")
	}
}
