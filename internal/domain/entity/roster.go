package entity

import "time"

// TeamID identifies one of the registered support teams
type TeamID string

// Member is a person taking part in a team rotation.
// Identity is ID; DisplayName is cached presentation data.
type Member struct {
	DisplayName string `json:"display_name" yaml:"display_name"`
	ID          string `json:"id" yaml:"id"`
}

// Team is the ordered member sequence of one team plus its tick.
// CurrentTick is only meaningful while Members is non-empty.
// LastAnnouncedAt is nil until a weekly announcement has advanced the team.
type Team struct {
	Members         []Member   `json:"members"`
	CurrentTick     int        `json:"current_tick"`
	LastAnnouncedAt *time.Time `json:"last_announced_at,omitempty"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// Removal is the outcome of removing a member. Tick is the team's tick after
// the removal and TickMoved reports whether it changed.
type Removal struct {
	Member    Member
	Tick      int
	TickMoved bool
}

// RosterState maps every registered team to its roster
type RosterState map[TeamID]*Team

// Clone returns a deep copy of the state
func (s RosterState) Clone() RosterState {
	out := make(RosterState, len(s))
	for id, team := range s {
		if team == nil {
			out[id] = nil
			continue
		}
		members := make([]Member, len(team.Members))
		copy(members, team.Members)
		out[id] = &Team{
			Members:         members,
			CurrentTick:     team.CurrentTick,
			LastAnnouncedAt: copyTime(team.LastAnnouncedAt),
			UpdatedAt:       team.UpdatedAt,
		}
	}
	return out
}

// Only returns a state holding the given teams, sharing the team pointers
func (s RosterState) Only(ids ...TeamID) RosterState {
	out := make(RosterState, len(ids))
	for _, id := range ids {
		if team, ok := s[id]; ok {
			out[id] = team
		}
	}
	return out
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
