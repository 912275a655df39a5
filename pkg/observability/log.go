package observability

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// LogHooks writes every event to a charm logger at debug level, failures at
// warn. It implements all three hook interfaces.
type LogHooks struct {
	logger *log.Logger
}

// NewLogHooks returns hooks writing to logger (log.Default when nil).
func NewLogHooks(logger *log.Logger) *LogHooks {
	if logger == nil {
		logger = log.Default()
	}
	return &LogHooks{logger: logger.WithPrefix("hooks")}
}

func (h *LogHooks) OnGenerate(_ context.Context, mode string, fallback bool, d time.Duration, err error) {
	if err != nil {
		h.logger.Warn("generation failed", "mode", mode, "duration", d, "err", err)
		return
	}
	h.logger.Debug("generation finished", "mode", mode, "fallback", fallback, "duration", d)
}

func (h *LogHooks) OnRepair(_ context.Context, source string, nodes, edges int, changed bool, err error) {
	if err != nil {
		h.logger.Warn("repair rejected document", "source", source, "err", err)
		return
	}
	h.logger.Debug("repaired document", "source", source, "nodes", nodes, "edges", edges, "changed", changed)
}

func (h *LogHooks) OnLayout(_ context.Context, orientation string, nodes int, hit bool, d time.Duration, err error) {
	if err != nil {
		h.logger.Warn("layout failed", "orientation", orientation, "err", err)
		return
	}
	h.logger.Debug("layout", "orientation", orientation, "nodes", nodes, "cache_hit", hit, "duration", d)
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
	h.logger.Warn("http error", "method", method, "host", host, "path", path, "err", err)
}

var (
	_ PipelineHooks = (*LogHooks)(nil)
	_ CacheHooks    = (*LogHooks)(nil)
	_ HTTPHooks     = (*LogHooks)(nil)
)
