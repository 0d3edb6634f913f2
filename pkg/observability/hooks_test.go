package observability

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	p := NoopPipelineHooks{}
	p.OnFetchStart(ctx, "winger")
	p.OnFetchComplete(ctx, "winger", 120, time.Second, nil)
	p.OnRenderStart(ctx, []string{"svg"})
	p.OnRenderComplete(ctx, []string{"svg"}, time.Second, nil)

	c := NoopCacheHooks{}
	c.OnCacheHit(ctx, "snapshot")
	c.OnCacheMiss(ctx, "artifact")
	c.OnCacheSet(ctx, "artifact", 1024)

	h := NoopHTTPHooks{}
	h.OnRequest(ctx, "GET", "api.example.com", "/api/positions/winger/pca-data")
	h.OnResponse(ctx, "GET", "api.example.com", "/api/positions/winger/pca-data", 200, time.Second)
	h.OnError(ctx, "GET", "api.example.com", "/api/positions/winger/pca-data", nil)

	v := NoopViewHooks{}
	v.OnViewOpen(ctx, "id", "winger")
	v.OnGroupingRequest(ctx, "id", "k=4")
	v.OnViewClose(ctx, "id", time.Minute)
}

func TestGlobalHooksRegistry(t *testing.T) {
	Reset()
	defer Reset()

	if _, ok := Pipeline().(NoopPipelineHooks); !ok {
		t.Error("Pipeline() should return NoopPipelineHooks by default")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Cache() should return NoopCacheHooks by default")
	}
	if _, ok := HTTP().(NoopHTTPHooks); !ok {
		t.Error("HTTP() should return NoopHTTPHooks by default")
	}
	if _, ok := View().(NoopViewHooks); !ok {
		t.Error("View() should return NoopViewHooks by default")
	}

	hooks := NewLogHooks(log.New(&bytes.Buffer{}))
	SetPipelineHooks(hooks)
	SetCacheHooks(hooks)
	SetHTTPHooks(hooks)
	SetViewHooks(hooks)
	if Pipeline() != PipelineHooks(hooks) || Cache() != CacheHooks(hooks) ||
		HTTP() != HTTPHooks(hooks) || View() != ViewHooks(hooks) {
		t.Error("setters should install the given hooks")
	}

	SetPipelineHooks(nil)
	if Pipeline() != PipelineHooks(hooks) {
		t.Error("SetPipelineHooks(nil) should be ignored")
	}

	Reset()
	if _, ok := Pipeline().(NoopPipelineHooks); !ok {
		t.Error("Reset() should restore NoopPipelineHooks")
	}
}

func TestLogHooks(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(&buf)
	logger.SetLevel(log.DebugLevel)
	h := NewLogHooks(logger)
	ctx := context.Background()

	h.OnFetchComplete(ctx, "winger", 42, time.Millisecond, nil)
	h.OnFetchComplete(ctx, "striker", 0, time.Millisecond, errors.New("boom"))
	h.OnCacheHit(ctx, "snapshot")

	out := buf.String()
	for _, want := range []string{"fetch done", "points=42", "fetch failed", "boom", "cache hit", "obs"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
}
