package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/flowsketch/internal/config"
	"github.com/matzehuels/flowsketch/pkg/buildinfo"
	"github.com/matzehuels/flowsketch/pkg/cache"
	"github.com/matzehuels/flowsketch/pkg/completion"
	"github.com/matzehuels/flowsketch/pkg/flowchart"
	"github.com/matzehuels/flowsketch/pkg/layout"
	"github.com/matzehuels/flowsketch/pkg/pipeline"
	"github.com/matzehuels/flowsketch/pkg/store"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "flowsketch"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	verbose    bool
	cfg        *config.Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "flowsketch turns process descriptions into laid-out flowcharts",
		Long: `flowsketch drafts flowcharts from plain-language descriptions, repairs
flowchart JSON from any source into a valid document, and lays documents out
for rendering as SVG, PNG, PDF or Graphviz DOT.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup(cmd)
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default: flowsketch.yaml or flowsketch.toml)")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")

	root.AddCommand(c.generateCommand())
	root.AddCommand(c.repairCommand())
	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.exportCommand())
	root.AddCommand(c.inspectCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// setup loads the configuration for the command being run.
func (c *CLI) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(c.configPath, cmd.Flags())
	if err != nil {
		return err
	}
	c.cfg = cfg
	if cfg.Verbose || c.verbose {
		c.SetLogLevel(LogDebug)
	}
	if cfg.File != "" {
		c.Logger.Debug("loaded config", "file", cfg.File)
	}
	return nil
}

// loadConfig returns the loaded configuration, falling back to a fresh load
// for commands invoked without the root pre-run.
func (c *CLI) loadConfig() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	cfg, err := config.Load(c.configPath, nil)
	if err != nil {
		return nil, err
	}
	c.cfg = cfg
	return cfg, nil
}

// =============================================================================
// Shared Flags
// =============================================================================

// addCompletionFlags registers the flags overriding completion settings.
// Their values are read through the config loader.
func addCompletionFlags(cmd *cobra.Command) {
	cmd.Flags().String("provider", "", "completion provider: openai, none")
	cmd.Flags().String("base-url", "", "completion API base URL")
	cmd.Flags().String("model", "", "completion model")
	cmd.Flags().Duration("timeout", 0, "completion request timeout")
	cmd.Flags().Int("max-retries", 0, "completion retries on transient failures")
}

// addCacheFlags registers the flags overriding cache settings.
func addCacheFlags(cmd *cobra.Command) {
	cmd.Flags().String("cache", "", "cache backend: none, file, redis")
	cmd.Flags().String("cache-dir", "", "file cache directory")
	cmd.Flags().String("redis-addr", "", "redis address for the redis cache backend")
}

// addLayoutFlags registers the placer and orientation flags.
func addLayoutFlags(cmd *cobra.Command, orientation *string) {
	cmd.Flags().String("placer", "", "placement engine: layered, graphviz")
	cmd.Flags().StringVar(orientation, "orientation", string(layout.Vertical), "layout orientation: vertical, horizontal, compact")
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner from the loaded configuration.
func (c *CLI) newRunner(ctx context.Context) (*pipeline.Runner, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	ch, err := newCache(ctx, cfg.Cache)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(newCompleter(cfg.Completion), newEngine(cfg.Layout), ch, nil, c.Logger), nil
}

// newCompleter returns nil when no provider is usable, which the pipeline
// reports as a missing credential.
func newCompleter(cfg config.CompletionConfig) completion.Provider {
	if cfg.Provider == config.ProviderNone || cfg.APIKey == "" {
		return nil
	}
	return completion.NewClient(completion.Config{
		BaseURL:    cfg.BaseURL,
		Model:      cfg.Model,
		APIKey:     cfg.APIKey,
		Timeout:    cfg.Timeout,
		MaxRetries: cfg.MaxRetries,
	})
}

func newEngine(cfg config.LayoutConfig) *layout.Engine {
	if cfg.Placer == config.PlacerGraphviz {
		return layout.NewEngine(layout.NewGraphvizPlacer())
	}
	return layout.NewEngine(layout.NewLayeredPlacer())
}

func newCache(ctx context.Context, cfg config.CacheConfig) (cache.Cache, error) {
	switch cfg.Backend {
	case config.CacheNone:
		return cache.NewNullCache(), nil
	case config.CacheRedis:
		rc, err := cache.NewRedisCache(ctx, cache.RedisConfig{Addr: cfg.RedisAddr})
		if err != nil {
			return nil, fmt.Errorf("open redis cache: %w", err)
		}
		return rc, nil
	default:
		dir := cfg.Dir
		if dir == "" {
			d, err := cache.DefaultDir()
			if err != nil {
				return cache.NewNullCache(), nil
			}
			dir = d
		}
		return cache.NewFileCache(dir)
	}
}

func newStore(ctx context.Context, cfg config.StoreConfig) (store.Store, error) {
	if cfg.Backend == config.StoreMongo {
		st, err := store.NewMongoStore(ctx, store.MongoConfig{URI: cfg.MongoURI, Database: cfg.MongoDatabase})
		if err != nil {
			return nil, fmt.Errorf("open mongo store: %w", err)
		}
		return st, nil
	}
	return store.NewMemoryStore(), nil
}

// =============================================================================
// Input / Output
// =============================================================================

// readInput reads path, or standard input when path is "-" or empty.
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "" || path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

// writeOutput writes data to path, or to the command's output when path is
// "-" or empty. It reports whether a file was written.
func writeOutput(cmd *cobra.Command, path string, data []byte) (bool, error) {
	if path == "" || path == "-" {
		_, err := cmd.OutOrStdout().Write(data)
		return false, err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return false, fmt.Errorf("write %s: %w", path, err)
	}
	return true, nil
}

// documentFile is the on-disk form of a document. It carries the source
// prompt, which the canonical encoding leaves out, so a later refine or
// import can pick it up again.
type documentFile struct {
	*flowchart.Document
	SourcePrompt string `json:"sourcePrompt,omitempty"`
}

// documentJSON encodes doc with its source prompt.
func documentJSON(doc *flowchart.Document) ([]byte, error) {
	d := doc.Clone()
	if d.Suggestions == nil {
		d.Suggestions = []string{}
	}
	if d.Nodes == nil {
		d.Nodes = []flowchart.Node{}
	}
	if d.Edges == nil {
		d.Edges = []flowchart.Edge{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(documentFile{Document: d, SourcePrompt: doc.SourcePrompt}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// importFile reads and repairs a document from path.
func importFile(ctx context.Context, cmd *cobra.Command, runner *pipeline.Runner, path string) (*pipeline.Result, error) {
	data, err := readInput(cmd, path)
	if err != nil {
		return nil, err
	}
	res, err := runner.Import(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("import %s: %w", displayName(path), err)
	}
	return res, nil
}

func displayName(path string) string {
	if path == "" || path == "-" {
		return "stdin"
	}
	return path
}
