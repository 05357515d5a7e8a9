// Package registry holds the closed set of support teams known at config time.
package registry

import (
	"fmt"
	"strings"

	"github.com/diegoclair/support-roster-bot/internal/domain"
	"github.com/diegoclair/support-roster-bot/internal/domain/entity"
)

// Registry is immutable after New and safe for concurrent use
type Registry struct {
	teams []entity.TeamID
	index map[entity.TeamID]struct{}
}

func New(ids ...string) (*Registry, error) {
	r := &Registry{
		teams: make([]entity.TeamID, 0, len(ids)),
		index: make(map[entity.TeamID]struct{}, len(ids)),
	}

	for _, raw := range ids {
		id := strings.TrimSpace(raw)
		if id == "" {
			return nil, fmt.Errorf("team identifier cannot be empty")
		}
		if id == domain.AllTeams {
			return nil, fmt.Errorf("%q is reserved and cannot be used as a team identifier", domain.AllTeams)
		}
		if strings.ContainsAny(id, " \t\n") {
			return nil, fmt.Errorf("team identifier %q cannot contain whitespace", id)
		}

		teamID := entity.TeamID(id)
		if _, ok := r.index[teamID]; ok {
			return nil, fmt.Errorf("duplicate team identifier %q", id)
		}
		r.index[teamID] = struct{}{}
		r.teams = append(r.teams, teamID)
	}

	return r, nil
}

// Teams returns the real teams in registration order
func (r *Registry) Teams() []entity.TeamID {
	out := make([]entity.TeamID, len(r.teams))
	copy(out, r.teams)
	return out
}

// Contains reports whether id is a real team
func (r *Registry) Contains(id entity.TeamID) bool {
	_, ok := r.index[id]
	return ok
}

// Lookup resolves a token to a real team. The "all" selector is rejected:
// mutating operations always need a concrete team.
func (r *Registry) Lookup(token string) (entity.TeamID, error) {
	id := entity.TeamID(token)
	if !r.Contains(id) {
		return "", fmt.Errorf("%w: %q", domain.ErrInvalidTeam, token)
	}
	return id, nil
}

// Resolve expands a selector for read and broadcast operations
func (r *Registry) Resolve(selector string) ([]entity.TeamID, error) {
	if selector == domain.AllTeams {
		return r.Teams(), nil
	}

	id, err := r.Lookup(selector)
	if err != nil {
		return nil, err
	}
	return []entity.TeamID{id}, nil
}

// Keywords returns every token accepted as a team selector, "all" included
func (r *Registry) Keywords() []string {
	out := make([]string, 0, len(r.teams)+1)
	out = append(out, domain.AllTeams)
	for _, id := range r.teams {
		out = append(out, string(id))
	}
	return out
}

// EmptyState returns a roster state with an empty team for every registered id
func (r *Registry) EmptyState() entity.RosterState {
	state := make(entity.RosterState, len(r.teams))
	for _, id := range r.teams {
		state[id] = &entity.Team{}
	}
	return state
}

// Complete fills in registered teams missing from state and drops unknown ones
func (r *Registry) Complete(state entity.RosterState) entity.RosterState {
	out := make(entity.RosterState, len(r.teams))
	for _, id := range r.teams {
		if team, ok := state[id]; ok && team != nil {
			out[id] = team
			continue
		}
		out[id] = &entity.Team{}
	}
	return out
}
