package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/diegoclair/support-roster-bot/internal/domain/registry"
	"github.com/diegoclair/support-roster-bot/internal/domain/service"
)

// ValidationError describes one invalid configuration value
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d configuration errors:", len(e)))
	for _, err := range e {
		sb.WriteString("\n  - ")
		sb.WriteString(err.Error())
	}
	return sb.String()
}

// Validate checks every value that has a fixed format
func (c *Config) Validate() ValidationErrors {
	var errs ValidationErrors

	if c.DatabasePath == "" {
		errs = append(errs, ValidationError{Field: "DATABASE_PATH", Value: c.DatabasePath, Message: "must not be empty"})
	}

	if c.Port == "" {
		errs = append(errs, ValidationError{Field: "PORT", Value: c.Port, Message: "must not be empty"})
	}

	if _, err := registry.New(c.RosterTeams...); err != nil {
		errs = append(errs, ValidationError{Field: "ROSTER_TEAMS", Value: c.RosterTeams, Message: err.Error()})
	}

	if _, err := c.Weekday(); err != nil {
		errs = append(errs, ValidationError{Field: "ANNOUNCEMENT_DAY", Value: c.AnnouncementDay, Message: "must be 1-7 or a weekday name"})
	}

	if _, _, err := service.ParseTimeOfDay(c.AnnouncementTime); err != nil {
		errs = append(errs, ValidationError{Field: "ANNOUNCEMENT_TIME", Value: c.AnnouncementTime, Message: "must be HH:MM"})
	}

	if _, err := time.LoadLocation(c.AnnouncementTimezone); err != nil {
		errs = append(errs, ValidationError{Field: "ANNOUNCEMENT_TIMEZONE", Value: c.AnnouncementTimezone, Message: "unknown time zone"})
	}

	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		errs = append(errs, ValidationError{Field: "LOG_FORMAT", Value: c.LogFormat, Message: "must be text or json"})
	}

	return errs
}

// Trigger builds the weekly announcement trigger
func (c *Config) Trigger() (service.WeeklyTrigger, error) {
	day, err := c.Weekday()
	if err != nil {
		return service.WeeklyTrigger{}, err
	}
	return service.NewWeeklyTrigger(day, c.AnnouncementTime, c.AnnouncementTimezone)
}
