package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flowsketch/internal/config"
	"github.com/matzehuels/flowsketch/internal/server"
	"github.com/matzehuels/flowsketch/pkg/observability"
)

// serveCommand creates the serve command for the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the flowsketch HTTP API",
		Long: `Run the flowsketch HTTP API.

The server exposes generation, refinement, import, layout and export
endpoints plus a document store with edit operations. Documents live in
memory unless the mongo store is configured. The server stops gracefully
on interrupt.`,
		Example: `  flowsketch serve --addr :9000
  FLOWSKETCH_STORE__BACKEND=mongo FLOWSKETCH_STORE__MONGO_URI=mongodb://localhost:27017 flowsketch serve`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd)
		},
	}

	cmd.Flags().String("addr", "", "listen address (default "+config.DefaultAddr+")")
	cmd.Flags().String("store", "", "document store: memory, mongo")
	cmd.Flags().String("mongo-uri", "", "mongo connection string for the mongo store")
	addCompletionFlags(cmd)
	addCacheFlags(cmd)
	cmd.Flags().String("placer", "", "placement engine: layered, graphviz")

	return cmd
}

func (c *CLI) runServe(cmd *cobra.Command) error {
	ctx := cmd.Context()
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}

	hooks := observability.NewLogHooks(c.Logger)
	observability.SetPipelineHooks(hooks)
	observability.SetCacheHooks(hooks)
	observability.SetHTTPHooks(hooks)

	runner, err := c.newRunner(ctx)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	st, err := newStore(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer st.Close()

	if runner.Completer == nil {
		printWarning("No completion credential configured; generate and refine will fail")
	}
	printInfo("Listening on %s", cfg.Server.Addr)
	c.Logger.Info("starting server",
		"addr", cfg.Server.Addr,
		"store", cfg.Store.Backend,
		"cache", cfg.Cache.Backend,
		"placer", runner.Engine.PlacerName())

	srv := server.New(server.Config{Runner: runner, Store: st, Logger: c.Logger})
	if err := srv.Serve(ctx, cfg.Server.Addr); err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	c.Logger.Info("server stopped")
	return nil
}
