package main

import (
	"fmt"
	"os"
	"path/filepath"

	"serverbot/internal/config"
	"serverbot/internal/logging"

	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	cfgFile string
	v       = viper.New()
	cfg     *config.Config
	logger  = zap.NewNop()
)

// rootCmd runs the bot when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "serverbot",
	Short: "Slack bot that watches disk usage",
	Long: `A Slack bot that checks configured file systems on a schedule and posts a
warning when any of them is almost full. It also answers a few commands
about the server's disk, CPU and RAM use.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
	RunE:              runBot,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	err := rootCmd.Execute()
	_ = logger.Sync()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	config.SetDefaults(v)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./serverbot.yaml or $HOME/.config/serverbot/serverbot.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "console", "log format (console, json)")
	_ = v.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = v.BindPFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format"))

	rootCmd.AddCommand(runCmd, checkCmd, tokenCmd)
}

// loadConfig reads .env, the config file and the environment, then builds the logger
func loadConfig(cmd *cobra.Command, args []string) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return errors.Wrap(err, "load .env")
	}

	if err := config.BindEnv(v); err != nil {
		return err
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("serverbot")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "serverbot"))
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return errors.Wrap(err, "read config")
		}
	}

	loaded, err := config.Load(v)
	if err != nil {
		return err
	}
	cfg = loaded

	l, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	logger = l
	if used := v.ConfigFileUsed(); used != "" {
		logger.Debug("Loaded config file", zap.String("file", used))
	}
	return nil
}
