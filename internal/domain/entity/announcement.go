package entity

import "time"

// Phase of an announcement schedule
type Phase int

const (
	PhaseStopped Phase = iota
	PhaseArmed
	PhaseRunning
)

func (p Phase) String() string {
	switch p {
	case PhaseArmed:
		return "armed"
	case PhaseRunning:
		return "running"
	default:
		return "stopped"
	}
}

// ScheduleState is a snapshot of a scheduler's lifecycle
type ScheduleState struct {
	Phase      Phase
	NextFireAt *time.Time
}

// Announcement is the persisted announcement setup, restored on boot
type Announcement struct {
	ID             int64
	SlackChannelID string
	IsEnabled      bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// TeamAssignee pairs a team with the member picked for it, if any
type TeamAssignee struct {
	Team      TeamID
	Member    Member
	HasMember bool
}

// TeamRoster is a read-only view of a team used for rendering
type TeamRoster struct {
	Team            TeamID
	Members         []Member
	CurrentTick     int
	LastAnnouncedAt *time.Time
}
