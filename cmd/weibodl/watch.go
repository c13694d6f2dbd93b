package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"weibodl/pkg/feed"
	"weibodl/pkg/logger"
	"weibodl/pkg/trigger"
	"weibodl/pkg/ui"
	"weibodl/pkg/ui/tui"
)

var (
	watchInterval time.Duration
	watchAuto     bool
	metricsAddr   string
	useTUI        bool
)

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:   "watch <file|url>",
	Short: "Keep scanning a feed page and download new posts",
	Long: `Re-scan a feed page at a fixed interval, attaching a download control to
every post that appears. Each post is considered once per session.

With --auto every new control is activated as soon as it is attached.
With --tui the session is shown in a full screen dashboard where 'p'
pauses automatic activation.`,
	Example: `  # Watch a live feed and download every new post
  weibodl watch https://weibo.com/u/1234567890 --auto

  # Re-scan a file every ten seconds in the dashboard
  weibodl watch feed.html --interval 10s --tui

  # Expose Prometheus metrics while watching
  weibodl watch https://weibo.com/u/1234567890 --auto --metrics-addr :9090`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
	addDownloadFlags(watchCmd)
	watchCmd.Flags().StringVar(&attachPolicy, "attach-policy", "", "which posts get a control (strict, always)")
	watchCmd.Flags().DurationVar(&watchInterval, "interval", feed.DefaultInterval, "pause between scans")
	watchCmd.Flags().BoolVar(&watchAuto, "auto", false, "activate new controls automatically")
	watchCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	watchCmd.Flags().BoolVar(&useTUI, "tui", false, "use interactive terminal UI")
}

func watchFlags(cmd *cobra.Command) map[string]interface{} {
	flags := scanFlags(cmd)
	if cmd.Flags().Changed("interval") {
		flags["interval"] = watchInterval
	}
	if cmd.Flags().Changed("auto") {
		flags["auto"] = watchAuto
	}
	if metricsAddr != "" {
		flags["metrics-addr"] = metricsAddr
	}
	return flags
}

func runWatch(cmd *cobra.Command, args []string) error {
	a, err := newApp(watchFlags(cmd), useTUI)
	if err != nil {
		ui.PrintError("Failed to initialize", err.Error())
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	source := sourceFor(args[0], a.client)

	var (
		dash     ui.Dashboard
		terminal *tui.TUI
		console  *ui.ConsoleDashboard
	)
	if useTUI {
		terminal = tui.NewTUI(source.Name(), a.cfg.Feed.ScanInterval)
		dash = terminal
	} else {
		console = ui.NewConsoleDashboard(ui.Output)
		dash = console
	}

	if addr := a.cfg.Metrics.ListenAddress; addr != "" {
		srv := newMetricsServer(addr, a.cfg.Metrics.Path, a)
		go serveMetrics(srv, dash, a.log)
		defer shutdownMetrics(srv)
		dash.LogInfo("metrics on http://%s%s", addr, a.cfg.Metrics.Path)
	}

	scanner := feed.NewScanner(feed.OptionsFromConfig(a.cfg.Feed), a.handler, a.metrics, a.log)
	auto := a.cfg.Feed.AutoActivate

	a.handler.OnOutcome(func(c *feed.Control, outcome *trigger.Outcome, err error) {
		if errors.Is(err, trigger.ErrInFlight) {
			dash.LogWarning("%s already downloading", c.Permalink)
			return
		}
		dash.ActivationFinished(c.Permalink, outcome, err)
	})
	scanner.OnControl(func(c *feed.Control) {
		dash.ControlAttached(c.Permalink)
		if auto && !dash.IsPaused() {
			dash.ActivationStarted(c.Permalink)
			c.Activate(ctx)
		}
	})

	if terminal == nil {
		dash.LogInfo("watching %s every %s", source.Name(), a.cfg.Feed.ScanInterval)
		err := scanner.Run(ctx, source)
		a.handler.Wait()
		console.Complete()
		return err
	}

	scanDone := make(chan error, 1)
	go func() {
		scanDone <- scanner.Run(ctx, source)
	}()
	go func() {
		<-ctx.Done()
		terminal.Stop()
	}()

	tuiErr := terminal.Start()
	cancel()
	scanErr := <-scanDone
	a.handler.Wait()

	if tuiErr != nil {
		return tuiErr
	}
	return scanErr
}

func newMetricsServer(addr, path string, a *app) *http.Server {
	mux := http.NewServeMux()
	mux.Handle(path, a.metrics.Handler())
	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

func serveMetrics(srv *http.Server, dash ui.Dashboard, log logger.Logger) {
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.WithError(err).Error("metrics server failed")
		dash.LogError("metrics server: %v", err)
	}
}

func shutdownMetrics(srv *http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
}
