// Package rotation implements the roster state machine: membership changes and
// tick movement over a loaded entity.RosterState. Functions here never touch
// storage; callers own the load-mutate-persist framing.
//
// Tick policy on removal: removing the member at the last index always resets
// the tick to 0, as does removing the member under the tick. Otherwise the tick
// keeps pointing at the same member, shifting the index when earlier entries
// disappear.
package rotation

import (
	"fmt"

	"github.com/diegoclair/support-roster-bot/internal/domain"
	"github.com/diegoclair/support-roster-bot/internal/domain/entity"
)

// Direction of a tick movement
type Direction int

const (
	Forward Direction = iota
	Back
)

func (d Direction) String() string {
	if d == Back {
		return "back"
	}
	return "forward"
}

func team(state entity.RosterState, id entity.TeamID) (*entity.Team, error) {
	t, ok := state[id]
	if !ok || t == nil || id == domain.AllTeams {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidTeam, id)
	}
	return t, nil
}

func indexOf(members []entity.Member, memberID string) int {
	for i, m := range members {
		if m.ID == memberID {
			return i
		}
	}
	return -1
}

// AddMember appends member to the end of the team sequence. The tick is left untouched.
func AddMember(state entity.RosterState, id entity.TeamID, member entity.Member) error {
	t, err := team(state, id)
	if err != nil {
		return err
	}

	if indexOf(t.Members, member.ID) >= 0 {
		return fmt.Errorf("%w: %s in %s", domain.ErrMemberAlreadyPresent, member.ID, id)
	}

	t.Members = append(t.Members, member)
	return nil
}

// RemoveMember removes every entry with memberID and returns the first one removed.
func RemoveMember(state entity.RosterState, id entity.TeamID, memberID string) (entity.Member, error) {
	t, err := team(state, id)
	if err != nil {
		return entity.Member{}, err
	}

	first := indexOf(t.Members, memberID)
	if first < 0 {
		return entity.Member{}, fmt.Errorf("%w: %s in %s", domain.ErrMemberNotFound, memberID, id)
	}
	removed := t.Members[first]

	pointed := validTick(t)
	tail := t.Members[len(t.Members)-1].ID == memberID
	kept := make([]entity.Member, 0, len(t.Members)-1)
	newTick := 0
	for i, m := range t.Members {
		if m.ID == memberID {
			continue
		}
		if i < pointed {
			newTick++
		}
		kept = append(kept, m)
	}

	if tail || pointed < 0 || t.Members[pointed].ID == memberID || newTick >= len(kept) {
		newTick = 0
	}

	t.Members = kept
	t.CurrentTick = newTick
	return removed, nil
}

// AdvanceTick moves the tick one step with wraparound and returns the new index.
// An empty team is a successful no-op returning 0.
func AdvanceTick(state entity.RosterState, id entity.TeamID, dir Direction) (int, error) {
	t, err := team(state, id)
	if err != nil {
		return 0, err
	}

	n := len(t.Members)
	if n == 0 {
		t.CurrentTick = 0
		return 0, nil
	}

	tick := validTick(t)
	if tick < 0 {
		tick = 0
	}

	switch dir {
	case Forward:
		tick = (tick + 1) % n
	case Back:
		tick = (tick - 1 + n) % n
	default:
		return 0, fmt.Errorf("unknown direction %d", dir)
	}

	t.CurrentTick = tick
	return tick, nil
}

// CurrentAssignee returns members[currentTick]
func CurrentAssignee(state entity.RosterState, id entity.TeamID) (entity.Member, bool, error) {
	t, err := team(state, id)
	if err != nil {
		return entity.Member{}, false, err
	}

	tick := validTick(t)
	if tick < 0 {
		return entity.Member{}, false, nil
	}
	return t.Members[tick], true, nil
}

// PreviousAssignee returns members[(currentTick-1) mod len]. After the weekly
// advance has run, this is the member on duty for the current week.
func PreviousAssignee(state entity.RosterState, id entity.TeamID) (entity.Member, bool, error) {
	t, err := team(state, id)
	if err != nil {
		return entity.Member{}, false, err
	}

	tick := validTick(t)
	if tick < 0 {
		return entity.Member{}, false, nil
	}
	n := len(t.Members)
	return t.Members[(tick-1+n)%n], true, nil
}

// Normalize clamps ticks that do not index into their member sequence to 0
func Normalize(state entity.RosterState) {
	for _, t := range state {
		if t != nil && validTick(t) < 0 {
			t.CurrentTick = 0
		}
	}
}

// validTick returns the tick when it indexes into Members, -1 otherwise
func validTick(t *entity.Team) int {
	if t.CurrentTick < 0 || t.CurrentTick >= len(t.Members) {
		return -1
	}
	return t.CurrentTick
}
