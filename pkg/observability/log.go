package observability

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// LogHooks implements every hook interface by writing debug records.
type LogHooks struct {
	logger *log.Logger
}

// NewLogHooks returns hooks that log to logger under the "obs" prefix.
func NewLogHooks(logger *log.Logger) *LogHooks {
	return &LogHooks{logger: logger.WithPrefix("obs")}
}

func (h *LogHooks) OnFetchStart(_ context.Context, position string) {
	h.logger.Debug("fetch start", "position", position)
}

func (h *LogHooks) OnFetchComplete(_ context.Context, position string, points int, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("fetch failed", "position", position, "duration", d, "err", err)
		return
	}
	h.logger.Debug("fetch done", "position", position, "points", points, "duration", d)
}

func (h *LogHooks) OnRenderStart(_ context.Context, formats []string) {
	h.logger.Debug("render start", "formats", formats)
}

func (h *LogHooks) OnRenderComplete(_ context.Context, formats []string, d time.Duration, err error) {
	h.logger.Debug("render done", "formats", formats, "duration", d, "err", err)
}

func (h *LogHooks) OnCacheHit(_ context.Context, keyType string) {
	h.logger.Debug("cache hit", "type", keyType)
}

func (h *LogHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.logger.Debug("cache miss", "type", keyType)
}

func (h *LogHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.logger.Debug("cache set", "type", keyType, "bytes", size)
}

func (h *LogHooks) OnRequest(_ context.Context, method, host, path string) {
	h.logger.Debug("http request", "method", method, "host", host, "path", path)
}

func (h *LogHooks) OnResponse(_ context.Context, method, host, path string, status int, d time.Duration) {
	h.logger.Debug("http response", "method", method, "host", host, "path", path, "status", status, "duration", d)
}

func (h *LogHooks) OnError(_ context.Context, method, host, path string, err error) {
	h.logger.Debug("http error", "method", method, "host", host, "path", path, "err", err)
}

func (h *LogHooks) OnViewOpen(_ context.Context, id, position string) {
	h.logger.Debug("view open", "id", id, "position", position)
}

func (h *LogHooks) OnViewClose(_ context.Context, id string, lifetime time.Duration) {
	h.logger.Debug("view close", "id", id, "lifetime", lifetime)
}

func (h *LogHooks) OnGroupingRequest(_ context.Context, id, request string) {
	h.logger.Debug("grouping request", "id", id, "request", request)
}

var (
	_ PipelineHooks = (*LogHooks)(nil)
	_ CacheHooks    = (*LogHooks)(nil)
	_ HTTPHooks     = (*LogHooks)(nil)
	_ ViewHooks     = (*LogHooks)(nil)
)
