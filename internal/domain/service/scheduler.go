package service

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/diegoclair/support-roster-bot/internal/domain"
	"github.com/diegoclair/support-roster-bot/internal/domain/entity"
	"github.com/jonboulle/clockwork"
)

// WeeklyTrigger describes a fixed weekday and wall-clock time in one zone
type WeeklyTrigger struct {
	Weekday  time.Weekday
	Hour     int
	Minute   int
	Location *time.Location
}

// NewWeeklyTrigger builds a trigger from an ISO weekday (1-7), an HH:MM time and a zone name
func NewWeeklyTrigger(isoDay int, clock string, timezone string) (WeeklyTrigger, error) {
	if _, ok := domain.WeekdayNames[isoDay]; !ok {
		return WeeklyTrigger{}, fmt.Errorf("invalid weekday %d: must be between 1 and 7", isoDay)
	}

	hour, minute, err := ParseTimeOfDay(clock)
	if err != nil {
		return WeeklyTrigger{}, err
	}

	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return WeeklyTrigger{}, fmt.Errorf("invalid timezone %q: %w", timezone, err)
	}

	return WeeklyTrigger{
		Weekday:  domain.ToWeekday(isoDay),
		Hour:     hour,
		Minute:   minute,
		Location: loc,
	}, nil
}

// ParseTimeOfDay parses an HH:MM 24h time
func ParseTimeOfDay(value string) (int, int, error) {
	parts := strings.Split(value, ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid time format %q: expected HH:MM", value)
	}

	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid hour in %q", value)
	}

	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid minute in %q", value)
	}

	return hour, minute, nil
}

// Next returns the first trigger instant strictly after now
func (t WeeklyTrigger) Next(now time.Time) time.Time {
	return NextOccurrence(now, t.Weekday, t.Hour, t.Minute, t.location())
}

func (t WeeklyTrigger) String() string {
	return fmt.Sprintf("every %s at %02d:%02d (%s)", t.Weekday, t.Hour, t.Minute, t.location())
}

func (t WeeklyTrigger) location() *time.Location {
	if t.Location == nil {
		return time.UTC
	}
	return t.Location
}

// NextOccurrence returns the next weekday/hour/minute instant in loc that is
// strictly after now. Calling it exactly on an instant yields the one a week later.
func NextOccurrence(now time.Time, weekday time.Weekday, hour, minute int, loc *time.Location) time.Time {
	local := now.In(loc)
	days := (int(weekday) - int(local.Weekday()) + 7) % 7

	next := time.Date(local.Year(), local.Month(), local.Day()+days, hour, minute, 0, 0, loc)
	if !next.After(now) {
		next = time.Date(local.Year(), local.Month(), local.Day()+days+7, hour, minute, 0, 0, loc)
	}
	return next
}

// Scheduler fires a callback at the next trigger instant and then every
// interval until paused. Each value owns its timers.
type Scheduler struct {
	clock    clockwork.Clock
	trigger  WeeklyTrigger
	interval time.Duration

	mu         sync.Mutex
	phase      entity.Phase
	nextFireAt time.Time
	timeout    clockwork.Timer
	recurring  clockwork.Timer
	generation uint64
	onFire     func(at time.Time)

	// held while onFire runs so Pause can wait for it
	fireMu sync.Mutex
}

func NewScheduler(clock clockwork.Clock, trigger WeeklyTrigger) *Scheduler {
	return &Scheduler{
		clock:    clock,
		trigger:  trigger,
		interval: domain.AnnouncementInterval,
	}
}

// Start arms the one-shot timer for the next trigger instant and returns it.
// onFire must not call Start or Pause.
func (s *Scheduler) Start(onFire func(at time.Time)) (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != entity.PhaseStopped {
		return time.Time{}, domain.ErrAlreadyRunning
	}

	now := s.clock.Now()
	next := s.trigger.Next(now)

	s.generation++
	gen := s.generation
	s.onFire = onFire
	s.phase = entity.PhaseArmed
	s.nextFireAt = next
	s.timeout = s.clock.AfterFunc(next.Sub(now), func() { s.fire(gen, next) })

	slog.Info("announcements armed", "next", next, "trigger", s.trigger.String())
	return next, nil
}

func (s *Scheduler) fire(gen uint64, scheduled time.Time) {
	s.fireMu.Lock()
	defer s.fireMu.Unlock()

	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		return
	}

	next := scheduled.Add(s.interval)
	delay := next.Sub(s.clock.Now())
	if delay < 0 {
		delay = 0
	}

	s.phase = entity.PhaseRunning
	s.nextFireAt = next
	s.timeout = nil
	s.recurring = s.clock.AfterFunc(delay, func() { s.fire(gen, next) })
	onFire := s.onFire
	s.mu.Unlock()

	slog.Info("announcement firing", "scheduled", scheduled, "next", next)
	onFire(scheduled)
}

// Pause cancels every pending timer. Once it returns no callback is running
// and none will run until the next Start.
func (s *Scheduler) Pause() {
	s.mu.Lock()
	s.generation++
	if s.timeout != nil {
		s.timeout.Stop()
		s.timeout = nil
	}
	if s.recurring != nil {
		s.recurring.Stop()
		s.recurring = nil
	}
	wasRunning := s.phase != entity.PhaseStopped
	s.phase = entity.PhaseStopped
	s.nextFireAt = time.Time{}
	s.onFire = nil
	s.mu.Unlock()

	s.fireMu.Lock()
	s.fireMu.Unlock() //nolint:staticcheck // waits for an in-flight callback

	if wasRunning {
		slog.Info("announcements paused")
	}
}

// Stop is Pause, used on shutdown
func (s *Scheduler) Stop() {
	s.Pause()
}

func (s *Scheduler) State() entity.ScheduleState {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := entity.ScheduleState{Phase: s.phase}
	if s.phase != entity.PhaseStopped {
		next := s.nextFireAt
		state.NextFireAt = &next
	}
	return state
}

func (s *Scheduler) Trigger() WeeklyTrigger {
	return s.trigger
}
