package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"serverbot/internal/config"
	"serverbot/internal/controllers"
	"serverbot/internal/routes"
	"serverbot/internal/services"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	hostLoadTTL     = 5 * time.Second
	topProcesses    = 5
	historySize     = 60
	shutdownTimeout = 10 * time.Second
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Connect to Slack and start monitoring (default)",
	RunE:  runBot,
}

func init() {
	flags := runCmd.Flags()
	flags.StringSlice("mount-point", nil, "mount point to monitor (repeatable; default \"/\")")
	flags.Float64("threshold", 85, "warn when a mount point is more than this percent full")
	flags.String("alert-channel", "server", "Slack channel that receives disk warnings")
	flags.Bool("http", true, "serve the HTTP status routes")
	flags.String("http-addr", "localhost:8080", "HTTP listen address")

	for key, name := range map[string]string{
		"disk.mount_points":      "mount-point",
		"disk.warning_threshold": "threshold",
		"alerts.channel":         "alert-channel",
		"http.enabled":           "http",
		"http.addr":              "http-addr",
	} {
		_ = v.BindPFlag(key, flags.Lookup(name))
	}
}

func aboutMessage(maintainer string) string {
	return "I keep an eye on this server's file systems and warn when they are almost full.  " +
		"I like well-documented code, free space, and you, of course ❤️!  " +
		fmt.Sprintf("Contact %s for maintenance issues.", maintainer)
}

func runBot(cmd *cobra.Command, args []string) error {
	if err := cfg.RequireSlack(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return serve(ctx, cfg, logger)
}

func serve(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	telemetry := services.NewTelemetry(reg)

	api, socket := services.NewSlackClients(cfg.Slack.BotToken, cfg.Slack.AppToken, cfg.Slack.Debug, logger)
	identity, err := api.AuthTestContext(ctx)
	if err != nil {
		return errors.Wrap(err, "authenticate with Slack")
	}
	logger.Info("Authenticated with Slack",
		zap.String("team", identity.Team),
		zap.String("user", identity.User))

	// Alert channel lookup is fail-soft: the bot still answers messages without it
	destination, err := services.ResolveChannelID(ctx, api, cfg.Alerts.Channel)
	if err != nil {
		logger.Warn("Could not look up alert channel", zap.String("channel", cfg.Alerts.Channel), zap.Error(err))
		destination = ""
	}

	poster := services.NewSlackPoster(api)
	scheduler, err := services.NewScheduler(cfg.Rule(), cfg.Location(), logger.Named("scheduler"))
	if err != nil {
		return err
	}

	var (
		hub       *services.WebSocketHub
		publisher services.RecordPublisher
	)
	if cfg.HTTP.Enabled {
		hub = services.NewWebSocketHub(logger.Named("ws"))
		defer hub.Stop()
		publisher = hub
	}

	monitor := services.NewDiskMonitor(
		services.MonitorSettings{
			MountPoints:      cfg.MountPoints(),
			WarningThreshold: cfg.Disk.WarningThreshold,
		},
		services.DiskMonitorDeps{
			Inspector:  services.NewDiskInspector(cfg.Disk.InspectTimeout),
			Dispatcher: services.NewAlertDispatcher(poster, cfg.Alerts.Maintainer, cfg.Slack.DeliveryTimeout, telemetry, logger.Named("alerts")),
			Scheduler:  scheduler,
			History:    services.NewCheckHistory(historySize),
			Publisher:  publisher,
			Telemetry:  telemetry,
			Logger:     logger.Named("monitor"),
		},
	)

	job, err := monitor.Start(ctx, destination)
	if err != nil {
		logger.Warn("Disk monitoring disabled", zap.Error(err))
	}
	defer job.Stop()

	hostStats := services.NewHostStats(hostLoadTTL, topProcesses, cfg.Replies.LoadURL, logger.Named("host"))
	replier := services.NewReplier(monitor, hostStats, aboutMessage(cfg.Alerts.Maintainer))
	bot := services.NewSlackBot(socket, replier, poster, identity.UserID, destination, logger.Named("slack"))

	var server *http.Server
	if cfg.HTTP.Enabled {
		auth, err := services.NewAuthService(cfg.Auth.Secret, cfg.Auth.TokenExpiry, services.DefaultSecretKeyFile(), logger.Named("auth"))
		if err != nil {
			return err
		}
		server = newHTTPServer(cfg, monitor, hostStats, auth, hub, reg, logger)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return bot.Run(gctx)
	})

	if server != nil {
		g.Go(func() error {
			logger.Info("HTTP server listening", zap.String("addr", server.Addr))
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return errors.Wrap(err, "http server")
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		})
	}

	err = g.Wait()
	logger.Info("Shutting down")
	return err
}

func newHTTPServer(cfg *config.Config, monitor *services.DiskMonitor, hostStats *services.HostStats, auth *services.AuthService, hub *services.WebSocketHub, reg *prometheus.Registry, logger *zap.Logger) *http.Server {
	if !logger.Core().Enabled(zap.DebugLevel) {
		gin.SetMode(gin.ReleaseMode)
	}
	httpLogger := logger.Named("http")
	handlers := controllers.NewHandlers(monitor, hostStats, auth, hub, httpLogger)
	return &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           routes.NewRouter(handlers, auth, reg, httpLogger),
		ReadHeaderTimeout: 10 * time.Second,
	}
}
