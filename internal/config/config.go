package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"serverbot/internal/logging"
	"serverbot/internal/models"

	"github.com/cockroachdb/errors"
	"github.com/hashicorp/go-multierror"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. SERVERBOT_DISK_WARNING_THRESHOLD
const EnvPrefix = "SERVERBOT"

type SlackConfig struct {
	BotToken        string
	AppToken        string
	DeliveryTimeout time.Duration
	Debug           bool
}

type AlertsConfig struct {
	Channel    string
	Maintainer string
}

type DiskConfig struct {
	MountPoints      []string
	WarningThreshold float64
	InspectTimeout   time.Duration
}

type ScheduleConfig struct {
	Weekdays []int
	Hour     int
	Minute   int
	Timezone string
}

type HTTPConfig struct {
	Enabled bool
	Addr    string
}

type AuthConfig struct {
	Secret      string
	TokenExpiry time.Duration
}

type RepliesConfig struct {
	LoadURL string
}

type LogConfig struct {
	Level  string
	Format string
}

// Config is built once at startup and never modified afterwards
type Config struct {
	Slack    SlackConfig
	Alerts   AlertsConfig
	Disk     DiskConfig
	Schedule ScheduleConfig
	HTTP     HTTPConfig
	Auth     AuthConfig
	Replies  RepliesConfig
	Log      LogConfig

	location *time.Location
}

// SetDefaults registers every default on v
func SetDefaults(v *viper.Viper) {
	v.SetDefault("slack.delivery_timeout", "10s")
	v.SetDefault("slack.debug", false)
	v.SetDefault("alerts.channel", "server")
	v.SetDefault("alerts.maintainer", "the server admins")
	v.SetDefault("disk.mount_points", []string{"/"})
	v.SetDefault("disk.warning_threshold", 85)
	v.SetDefault("disk.inspect_timeout", "10s")
	v.SetDefault("schedule.weekdays", []int{1, 2, 3, 4, 5})
	v.SetDefault("schedule.hour", 12)
	v.SetDefault("schedule.minute", 0)
	v.SetDefault("schedule.timezone", "Local")
	v.SetDefault("http.enabled", true)
	v.SetDefault("http.addr", "localhost:8080")
	v.SetDefault("auth.secret", "")
	v.SetDefault("auth.token_expiry", "2160h")
	v.SetDefault("replies.load_url", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}

// BindEnv lets SERVERBOT_SECTION_KEY override section.key, and accepts the
// conventional SLACK_TOKEN and SLACK_APP_TOKEN names for the tokens.
func BindEnv(v *viper.Viper) error {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	var result error
	if err := v.BindEnv("slack.bot_token", EnvPrefix+"_SLACK_BOT_TOKEN", "SLACK_TOKEN"); err != nil {
		result = multierror.Append(result, err)
	}
	if err := v.BindEnv("slack.app_token", EnvPrefix+"_SLACK_APP_TOKEN", "SLACK_APP_TOKEN"); err != nil {
		result = multierror.Append(result, err)
	}
	return result
}

// Load reads and validates the configuration held by v
func Load(v *viper.Viper) (*Config, error) {
	var result error

	weekdays, err := intSlice(v.Get("schedule.weekdays"))
	if err != nil {
		result = multierror.Append(result, errors.Wrap(err, "schedule.weekdays"))
	}

	cfg := &Config{
		Slack: SlackConfig{
			BotToken:        strings.TrimSpace(v.GetString("slack.bot_token")),
			AppToken:        strings.TrimSpace(v.GetString("slack.app_token")),
			DeliveryTimeout: v.GetDuration("slack.delivery_timeout"),
			Debug:           v.GetBool("slack.debug"),
		},
		Alerts: AlertsConfig{
			Channel:    strings.TrimPrefix(strings.TrimSpace(v.GetString("alerts.channel")), "#"),
			Maintainer: v.GetString("alerts.maintainer"),
		},
		Disk: DiskConfig{
			MountPoints:      stringSlice(v.Get("disk.mount_points")),
			WarningThreshold: v.GetFloat64("disk.warning_threshold"),
			InspectTimeout:   v.GetDuration("disk.inspect_timeout"),
		},
		Schedule: ScheduleConfig{
			Weekdays: weekdays,
			Hour:     v.GetInt("schedule.hour"),
			Minute:   v.GetInt("schedule.minute"),
			Timezone: v.GetString("schedule.timezone"),
		},
		HTTP: HTTPConfig{
			Enabled: v.GetBool("http.enabled"),
			Addr:    v.GetString("http.addr"),
		},
		Auth: AuthConfig{
			Secret:      v.GetString("auth.secret"),
			TokenExpiry: v.GetDuration("auth.token_expiry"),
		},
		Replies: RepliesConfig{
			LoadURL: v.GetString("replies.load_url"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
	}

	if err := cfg.validate(); err != nil {
		result = multierror.Append(result, err)
	}
	if result != nil {
		return nil, errors.Wrap(result, "invalid configuration")
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var result error
	add := func(format string, args ...interface{}) {
		result = multierror.Append(result, errors.Newf(format, args...))
	}

	if c.Slack.DeliveryTimeout <= 0 {
		add("slack.delivery_timeout must be positive")
	}
	if c.Alerts.Channel == "" {
		add("alerts.channel must not be empty")
	}

	if len(c.Disk.MountPoints) == 0 {
		add("disk.mount_points must list at least one mount point")
	}
	seen := make(map[string]bool, len(c.Disk.MountPoints))
	for _, mp := range c.Disk.MountPoints {
		if seen[mp] {
			add("disk.mount_points lists %q twice", mp)
		}
		seen[mp] = true
	}
	if c.Disk.WarningThreshold < 0 || c.Disk.WarningThreshold >= 100 {
		add("disk.warning_threshold must be within [0, 100), got %v", c.Disk.WarningThreshold)
	}
	if c.Disk.InspectTimeout <= 0 {
		add("disk.inspect_timeout must be positive")
	}

	for _, d := range c.Schedule.Weekdays {
		if d < 0 || d > 6 {
			add("schedule.weekdays entries must be within 0-6 (0 = Sunday), got %d", d)
		}
	}
	if c.Schedule.Hour < 0 || c.Schedule.Hour > 23 {
		add("schedule.hour must be within 0-23, got %d", c.Schedule.Hour)
	}
	if c.Schedule.Minute < 0 || c.Schedule.Minute > 59 {
		add("schedule.minute must be within 0-59, got %d", c.Schedule.Minute)
	}
	loc, err := time.LoadLocation(c.Schedule.Timezone)
	if err != nil {
		result = multierror.Append(result, errors.Wrapf(err, "schedule.timezone %q", c.Schedule.Timezone))
	}
	c.location = loc

	if c.HTTP.Enabled && c.HTTP.Addr == "" {
		add("http.addr must be set when http.enabled is true")
	}
	if c.Auth.TokenExpiry <= 0 {
		add("auth.token_expiry must be positive")
	}

	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		result = multierror.Append(result, err)
	}
	switch strings.ToLower(c.Log.Format) {
	case "console", "json":
	default:
		add("log.format must be console or json, got %q", c.Log.Format)
	}

	return result
}

// RequireSlack reports missing Slack credentials
func (c *Config) RequireSlack() error {
	var result error
	if c.Slack.BotToken == "" {
		result = multierror.Append(result, errors.New("slack.bot_token (or SLACK_TOKEN) is required"))
	}
	if c.Slack.AppToken == "" {
		result = multierror.Append(result, errors.New("slack.app_token (or SLACK_APP_TOKEN) is required"))
	}
	return result
}

// Rule returns the alert schedule as a recurrence rule
func (c *Config) Rule() models.RecurrenceRule {
	weekdays := make([]time.Weekday, 0, len(c.Schedule.Weekdays))
	for _, d := range c.Schedule.Weekdays {
		weekdays = append(weekdays, time.Weekday(d))
	}
	return models.RecurrenceRule{
		Weekdays: weekdays,
		Hour:     c.Schedule.Hour,
		Minute:   c.Schedule.Minute,
	}
}

// Location returns the time zone the schedule is evaluated in
func (c *Config) Location() *time.Location {
	if c.location == nil {
		return time.Local
	}
	return c.location
}

// MountPoints returns the monitored mount points in configured order
func (c *Config) MountPoints() []models.MountPoint {
	mounts := make([]models.MountPoint, len(c.Disk.MountPoints))
	for i, mp := range c.Disk.MountPoints {
		mounts[i] = models.MountPoint(mp)
	}
	return mounts
}

// stringSlice accepts a YAML list or a comma/space separated string from the environment
func stringSlice(raw interface{}) []string {
	var parts []string
	switch t := raw.(type) {
	case nil:
		return nil
	case string:
		parts = strings.FieldsFunc(t, func(r rune) bool {
			return r == ',' || r == ' ' || r == '\t' || r == '\n'
		})
	case []string:
		parts = t
	case []interface{}:
		for _, item := range t {
			parts = append(parts, fmt.Sprint(item))
		}
	default:
		parts = []string{fmt.Sprint(t)}
	}

	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func intSlice(raw interface{}) ([]int, error) {
	switch t := raw.(type) {
	case []int:
		return t, nil
	case int:
		return []int{t}, nil
	}

	var out []int
	for _, item := range stringSlice(raw) {
		n, err := strconv.Atoi(item)
		if err != nil {
			return nil, errors.Newf("%q is not a number", item)
		}
		out = append(out, n)
	}
	return out, nil
}
