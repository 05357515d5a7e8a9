package config

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/diegoclair/support-roster-bot/internal/domain"
	"github.com/spf13/viper"
)

type Config struct {
	SlackBotToken      string `mapstructure:"slack_bot_token"`
	SlackSigningSecret string `mapstructure:"slack_signing_secret"`
	DatabasePath       string `mapstructure:"database_path"`
	Port               string `mapstructure:"port"`
	BotName            string `mapstructure:"bot_name"`
	LogLevel           string `mapstructure:"log_level"`
	LogFormat          string `mapstructure:"log_format"`

	RosterTeams []string `mapstructure:"roster_teams"`

	// AnnouncementDay accepts an ISO weekday number (1 = Monday) or an English name
	AnnouncementDay      string `mapstructure:"announcement_day"`
	AnnouncementTime     string `mapstructure:"announcement_time"`
	AnnouncementTimezone string `mapstructure:"announcement_timezone"`
}

// SetDefaults registers default values with v
func SetDefaults(v *viper.Viper) {
	v.SetDefault("slack_bot_token", "")
	v.SetDefault("slack_signing_secret", "")
	v.SetDefault("database_path", "./roster.db")
	v.SetDefault("port", "3000")
	v.SetDefault("bot_name", "SupportRoster")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("roster_teams", domain.DefaultTeams)
	v.SetDefault("announcement_day", strconv.Itoa(domain.DefaultAnnouncementDay))
	v.SetDefault("announcement_time", domain.DefaultAnnouncementTime)
	v.SetDefault("announcement_timezone", domain.DefaultAnnouncementTimezone)
}

// Load reads the configuration from the environment and, when path is set,
// from a config file. Environment variables win over the file.
func Load(path string) (*Config, error) {
	v := viper.New()
	SetDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.RosterTeams = splitList(cfg.RosterTeams)

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, errs
	}

	return &cfg, nil
}

// splitList flattens comma separated entries and drops blanks
func splitList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// Weekday returns the configured ISO weekday number
func (c *Config) Weekday() (int, error) {
	value := strings.TrimSpace(c.AnnouncementDay)
	if day, ok := domain.WeekdayNumbers[value]; ok {
		return day, nil
	}

	for day, name := range domain.WeekdayNames {
		if strings.EqualFold(name, value) {
			return day, nil
		}
	}

	return 0, fmt.Errorf("unknown weekday %q", c.AnnouncementDay)
}

// SlogLevel maps LogLevel to a slog level
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// RequireSlack reports the credentials missing for talking to Slack
func (c *Config) RequireSlack() error {
	var errs ValidationErrors
	if c.SlackBotToken == "" {
		errs = append(errs, ValidationError{Field: "SLACK_BOT_TOKEN", Value: "", Message: "is required"})
	}
	if c.SlackSigningSecret == "" {
		errs = append(errs, ValidationError{Field: "SLACK_SIGNING_SECRET", Value: "", Message: "is required"})
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}
