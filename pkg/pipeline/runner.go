package pipeline

import (
	"io"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/flowsketch/pkg/cache"
	"github.com/matzehuels/flowsketch/pkg/completion"
	"github.com/matzehuels/flowsketch/pkg/layout"
)

// Runner executes pipeline operations. It holds no per-request state and is
// safe for concurrent use when its collaborators are.
type Runner struct {
	// Completer produces model output. Nil behaves as a provider with no
	// credential configured.
	Completer completion.Provider
	Engine    *layout.Engine
	Cache     cache.Cache
	Keyer     cache.Keyer
	Logger    *log.Logger
}

// NewRunner creates a runner. A nil engine uses the layered placer, a nil
// cache disables caching, a nil keyer uses DefaultKeyer and a nil logger
// discards output.
func NewRunner(completer completion.Provider, engine *layout.Engine, c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if engine == nil {
		engine = layout.NewEngine(nil)
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Runner{
		Completer: completer,
		Engine:    engine,
		Cache:     c,
		Keyer:     keyer,
		Logger:    logger,
	}
}

// Close releases the cache.
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}
