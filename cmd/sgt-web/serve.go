package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/narvanalabs/sgt-web/internal/api"
	"github.com/narvanalabs/sgt-web/internal/live"
	"github.com/narvanalabs/sgt-web/internal/runner"
	"github.com/narvanalabs/sgt-web/internal/shutdown"
	"github.com/narvanalabs/sgt-web/internal/town"
	"github.com/narvanalabs/sgt-web/pkg/config"
	"github.com/narvanalabs/sgt-web/pkg/logger"
)

type serveFlags struct {
	host string
	port int
	root string
	bin  string
}

func newServeCmd() *cobra.Command {
	var f serveFlags

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadWithDefaults()
			f.apply(cmd, cfg)
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			return runServe(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVar(&f.host, "host", "", "listen host (overrides SGT_WEB_HOST)")
	cmd.Flags().IntVar(&f.port, "port", 0, "listen port (overrides SGT_WEB_PORT)")
	cmd.Flags().StringVar(&f.root, "root", "", "sgt root directory (overrides SGT_ROOT)")
	cmd.Flags().StringVar(&f.bin, "bin", "", "path to the sgt binary (overrides SGT_BIN)")
	return cmd
}

// apply copies explicitly set flags over the environment configuration.
// A --root without --bin also moves the default binary location.
func (f *serveFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("host") {
		cfg.Host = f.host
	}
	if flags.Changed("port") {
		cfg.Port = f.port
	}
	if flags.Changed("root") {
		if cfg.SGTBin == config.DefaultBin(cfg.SGTRoot) && !flags.Changed("bin") {
			cfg.SGTBin = config.DefaultBin(f.root)
		}
		cfg.SGTRoot = f.root
	}
	if flags.Changed("bin") {
		cfg.SGTBin = f.bin
	}
}

func runServe(ctx context.Context, cfg *config.Config) error {
	if ctx == nil {
		ctx = context.Background()
	}

	log := logger.New(cfg.LogLevel, cfg.LogFormat == config.LogFormatJSON)
	log.Info("starting sgt-web",
		"version", api.Version,
		"addr", cfg.Addr(),
		"sgt_root", cfg.SGTRoot,
		"sgt_bin", cfg.SGTBin,
	)

	r := runner.New(runner.Config{
		Bin:     cfg.SGTBin,
		Root:    cfg.SGTRoot,
		Timeout: cfg.CommandTimeout,
	}, log.WithComponent("runner").Logger)

	t := town.New(cfg.SGTRoot, log.WithComponent("town").Logger)

	hub := live.NewHub(r, live.Config{
		StatusInterval:  cfg.Live.StatusInterval,
		PingInterval:    cfg.Live.PingInterval,
		PongGrace:       cfg.Live.PongGrace,
		LogPath:         cfg.LogPath(),
		LogPollInterval: cfg.Live.LogPollInterval,
	}, log.WithComponent("live").Logger)

	server := api.NewServer(cfg, r, t, hub, log.WithComponent("api").Logger)

	coordinator := shutdown.NewCoordinator(
		shutdown.WithTimeout(cfg.ShutdownTimeout),
		shutdown.WithLogger(log.WithComponent("shutdown").Logger),
	)
	// Registered last so the listener stops before sessions are closed.
	coordinator.Register(hub)
	coordinator.Register(shutdown.NewHTTPServerComponent("http", server.HTTPServer()))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Start(gctx)
	})
	g.Go(func() error {
		return coordinator.WaitForSignal(gctx)
	})
	g.Go(func() error {
		// Start returns early only on a listener failure; wake the
		// coordinator so the group can finish.
		coordinator.Wait()
		cancel()
		return nil
	})

	err := g.Wait()
	if err != nil {
		log.WithError(err).Error("sgt-web stopped with error")
		return err
	}
	log.Info("sgt-web stopped")
	return nil
}
