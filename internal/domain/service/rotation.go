package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/diegoclair/support-roster-bot/internal/domain"
	"github.com/diegoclair/support-roster-bot/internal/domain/contract"
	"github.com/diegoclair/support-roster-bot/internal/domain/entity"
	"github.com/diegoclair/support-roster-bot/internal/domain/registry"
	"github.com/diegoclair/support-roster-bot/internal/domain/rotation"
	"github.com/jonboulle/clockwork"
)

type rotationService struct {
	dm          contract.DataManager
	slackClient contract.SlackClient
	registry    *registry.Registry
	clock       clockwork.Clock
	locks       *teamLocker
}

func newRotation(dm contract.DataManager, slackClient contract.SlackClient, reg *registry.Registry, clock clockwork.Clock) *rotationService {
	return &rotationService{
		dm:          dm,
		slackClient: slackClient,
		registry:    reg,
		clock:       clock,
		locks:       newTeamLocker(),
	}
}

// mutate runs fn against freshly loaded state while holding the locks of the
// given teams, then persists those teams in the same transaction. Nothing is
// saved when fn fails.
func (s *rotationService) mutate(ctx context.Context, teams []entity.TeamID, fn func(state entity.RosterState) error) error {
	unlock := s.locks.Lock(teams...)
	defer unlock()

	return s.dm.WithTransaction(ctx, func(tx contract.DataManager) error {
		state, err := s.load(ctx, tx)
		if err != nil {
			return err
		}

		if err := fn(state); err != nil {
			return err
		}

		now := s.clock.Now()
		changed := state.Only(teams...)
		for _, team := range changed {
			team.UpdatedAt = now
		}

		if err := tx.Roster().Save(ctx, changed); err != nil {
			return fmt.Errorf("failed to save roster: %w", err)
		}
		return nil
	})
}

func (s *rotationService) load(ctx context.Context, dm contract.DataManager) (entity.RosterState, error) {
	stored, err := dm.Roster().Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load roster: %w", err)
	}

	state := s.registry.Complete(stored)
	rotation.Normalize(state)
	return state, nil
}

func (s *rotationService) AddMember(ctx context.Context, team entity.TeamID, slackUserID string) (entity.Member, error) {
	id, err := s.registry.Lookup(string(team))
	if err != nil {
		return entity.Member{}, err
	}

	member := entity.Member{
		ID:          slackUserID,
		DisplayName: s.displayName(slackUserID),
	}

	err = s.mutate(ctx, []entity.TeamID{id}, func(state entity.RosterState) error {
		return rotation.AddMember(state, id, member)
	})
	if err != nil {
		return entity.Member{}, err
	}

	slog.Info("member added", "team", id, "user", slackUserID)
	return member, nil
}

// displayName resolves a user name through Slack, falling back to the id
func (s *rotationService) displayName(slackUserID string) string {
	userInfo, err := s.slackClient.GetUserInfo(slackUserID)
	if err != nil || userInfo == nil {
		slog.Warn("failed to get user info from Slack", "user", slackUserID, "error", err)
		return slackUserID
	}

	displayName := userInfo.Profile.RealName
	if displayName == "" {
		displayName = userInfo.Profile.DisplayName
	}
	if displayName == "" {
		displayName = userInfo.Name
	}
	if displayName == "" {
		displayName = slackUserID
	}
	return displayName
}

// RemoveMember drops the user from the team and reports where the tick ended up
func (s *rotationService) RemoveMember(ctx context.Context, team entity.TeamID, slackUserID string) (entity.Removal, error) {
	id, err := s.registry.Lookup(string(team))
	if err != nil {
		return entity.Removal{}, err
	}

	var removal entity.Removal
	err = s.mutate(ctx, []entity.TeamID{id}, func(state entity.RosterState) error {
		previousTick := state[id].CurrentTick

		member, err := rotation.RemoveMember(state, id, slackUserID)
		if err != nil {
			return err
		}

		removal = entity.Removal{
			Member:    member,
			Tick:      state[id].CurrentTick,
			TickMoved: state[id].CurrentTick != previousTick,
		}
		return nil
	})
	if err != nil {
		return entity.Removal{}, err
	}

	if removal.TickMoved {
		slog.Info("tick repositioned after removal", "team", id, "tick", removal.Tick)
	}
	slog.Info("member removed", "team", id, "user", slackUserID)
	return removal, nil
}

// Move advances or rewinds a team and returns the member now at the tick
func (s *rotationService) Move(ctx context.Context, team entity.TeamID, dir rotation.Direction) (entity.Member, bool, error) {
	id, err := s.registry.Lookup(string(team))
	if err != nil {
		return entity.Member{}, false, err
	}

	var (
		next    entity.Member
		hasNext bool
	)
	err = s.mutate(ctx, []entity.TeamID{id}, func(state entity.RosterState) error {
		tick, err := rotation.AdvanceTick(state, id, dir)
		if err != nil {
			return err
		}

		next, hasNext, err = rotation.CurrentAssignee(state, id)
		if err != nil {
			return err
		}

		slog.Info("tick moved", "team", id, "direction", dir, "tick", tick)
		return nil
	})
	if err != nil {
		return entity.Member{}, false, err
	}

	return next, hasNext, nil
}

// Roster is read-only; "all" expands to every registered team
func (s *rotationService) Roster(ctx context.Context, selector string) ([]entity.TeamRoster, error) {
	teams, err := s.registry.Resolve(selector)
	if err != nil {
		return nil, err
	}

	state, err := s.load(ctx, s.dm)
	if err != nil {
		return nil, err
	}

	rosters := make([]entity.TeamRoster, 0, len(teams))
	for _, id := range teams {
		team := state[id]
		members := make([]entity.Member, len(team.Members))
		copy(members, team.Members)
		rosters = append(rosters, entity.TeamRoster{
			Team:            id,
			Members:         members,
			CurrentTick:     team.CurrentTick,
			LastAnnouncedAt: team.LastAnnouncedAt,
		})
	}
	return rosters, nil
}

// Recall reports this week's assignees without touching the rotation. The
// weekly advance already moved every tick, so these are the previous members.
func (s *rotationService) Recall(ctx context.Context) ([]entity.TeamAssignee, error) {
	state, err := s.load(ctx, s.dm)
	if err != nil {
		return nil, err
	}

	assignees := make([]entity.TeamAssignee, 0, len(state))
	for _, id := range s.registry.Teams() {
		member, ok, err := rotation.PreviousAssignee(state, id)
		if err != nil {
			return nil, err
		}
		assignees = append(assignees, entity.TeamAssignee{Team: id, Member: member, HasMember: ok})
	}
	return assignees, nil
}

// Announce picks every team's assignee and advances the rotation. The
// assignee is captured before the tick moves.
func (s *rotationService) Announce(ctx context.Context) ([]entity.TeamAssignee, error) {
	teams := s.registry.Teams()
	assignees := make([]entity.TeamAssignee, 0, len(teams))

	err := s.mutate(ctx, teams, func(state entity.RosterState) error {
		now := s.clock.Now()
		assignees = assignees[:0]
		for _, id := range teams {
			member, ok, err := rotation.CurrentAssignee(state, id)
			if err != nil {
				return err
			}

			if _, err := rotation.AdvanceTick(state, id, rotation.Forward); err != nil {
				return err
			}
			state[id].LastAnnouncedAt = &now
			assignees = append(assignees, entity.TeamAssignee{Team: id, Member: member, HasMember: ok})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return assignees, nil
}

// Import replaces the stored roster of every team present in state. The time
// of the last announcement is kept unless the incoming team carries one.
func (s *rotationService) Import(ctx context.Context, state entity.RosterState) error {
	for id := range state {
		if !s.registry.Contains(id) {
			return fmt.Errorf("%w: %q", domain.ErrInvalidTeam, id)
		}
	}

	incoming := state.Clone()
	rotation.Normalize(incoming)

	teams := make([]entity.TeamID, 0, len(incoming))
	for id := range incoming {
		teams = append(teams, id)
	}

	return s.mutate(ctx, teams, func(current entity.RosterState) error {
		for id, team := range incoming {
			if team.LastAnnouncedAt == nil && current[id] != nil {
				team.LastAnnouncedAt = current[id].LastAnnouncedAt
			}
			current[id] = team
		}
		return nil
	})
}

// Snapshot returns the whole roster of the registered teams
func (s *rotationService) Snapshot(ctx context.Context) (entity.RosterState, error) {
	return s.load(ctx, s.dm)
}
