package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"serverbot/internal/services"

	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Inspect the configured mount points once and print the result",
	Long: `Run a single monitoring pass without connecting to Slack. Prints the disk
usage message and the warning that would be posted, if any.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		monitor := services.NewDiskMonitor(
			services.MonitorSettings{
				MountPoints:      cfg.MountPoints(),
				WarningThreshold: cfg.Disk.WarningThreshold,
			},
			services.DiskMonitorDeps{
				Inspector:  services.NewDiskInspector(cfg.Disk.InspectTimeout),
				Dispatcher: services.NewAlertDispatcher(nil, cfg.Alerts.Maintainer, 0, nil, logger.Named("alerts")),
				Logger:     logger.Named("monitor"),
			},
		)

		usage, err := monitor.UsageMessage(ctx)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, usage)
		fmt.Fprintln(out)

		warning, err := monitor.CheckMessage(ctx)
		if err != nil {
			return err
		}
		if warning == "" {
			fmt.Fprintf(out, "No file system is above %v%% full.\n", cfg.Disk.WarningThreshold)
			return nil
		}
		fmt.Fprintln(out, warning)
		return nil
	},
}
