package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/moolen/hac-console/internal/config"
	"github.com/moolen/hac-console/internal/console"
	"github.com/moolen/hac-console/internal/kube"
	"github.com/moolen/hac-console/internal/lifecycle"
	"github.com/moolen/hac-console/internal/logging"
	"github.com/moolen/hac-console/internal/tracing"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

var (
	listenAddr      string
	shutdownTimeout time.Duration
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the console server",
	Long: `Serve the workspace console. Resources are read from the cluster selected by
the kubeconfig setting (or in-cluster config) in the configured namespace.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&listenAddr, "listen", "", "Listen address (overrides listen_addr)")
	serveCmd.Flags().DurationVar(&shutdownTimeout, "shutdown-timeout", 30*time.Second,
		"Per-component graceful shutdown timeout")
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := logging.GetLogger("serve")
	if listenAddr != "" {
		cfg.ListenAddr = listenAddr
	}

	client, err := kube.NewDynamicClient(cfg.Kubeconfig)
	if err != nil {
		return err
	}

	tp, err := tracing.NewProvider(cfg.Tracing)
	if err != nil {
		return fmt.Errorf("failed to set up tracing: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	server, err := console.NewServer(*cfg, client,
		console.WithRegistry(reg),
		console.WithTracer(tp.Tracer("hac-console/console")),
	)
	if err != nil {
		return err
	}

	manager := lifecycle.NewManager()
	manager.SetShutdownTimeout(shutdownTimeout)
	if err := manager.Register(tp); err != nil {
		return err
	}
	if err := manager.Register(server, tp); err != nil {
		return err
	}
	if configPath != "" {
		watcher, err := config.NewWatcher(config.WatcherConfig{FilePath: configPath}, server.ApplyConfig)
		if err != nil {
			return err
		}
		if err := manager.Register(watcher, server); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("Serving workspace %s on %s", cfg.Namespace, cfg.ListenAddr)
	return manager.Run(ctx)
}
