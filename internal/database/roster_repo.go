package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/diegoclair/support-roster-bot/internal/domain/contract"
	"github.com/diegoclair/support-roster-bot/internal/domain/entity"
)

type rosterRepository struct {
	db dbConn
}

func newRosterRepository(db dbConn) contract.RosterRepo {
	return &rosterRepository{db: db}
}

// Load returns every stored team with its members in rotation order
func (r *rosterRepository) Load(ctx context.Context) (entity.RosterState, error) {
	query := `
		SELECT t.team_key, t.current_tick, t.last_announced_at, t.updated_at, m.slack_user_id, m.display_name
		FROM teams t
		LEFT JOIN members m ON m.team_id = t.id
		ORDER BY t.id, m.position
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to load roster: %w", err)
	}
	defer rows.Close()

	state := make(entity.RosterState)
	for rows.Next() {
		var (
			teamKey       string
			currentTick   int
			lastAnnounced sql.NullTime
			updatedAt     time.Time
			userID        sql.NullString
			displayName   sql.NullString
		)
		if err := rows.Scan(&teamKey, &currentTick, &lastAnnounced, &updatedAt, &userID, &displayName); err != nil {
			return nil, fmt.Errorf("failed to scan roster row: %w", err)
		}

		id := entity.TeamID(teamKey)
		team, ok := state[id]
		if !ok {
			team = &entity.Team{CurrentTick: currentTick, UpdatedAt: updatedAt}
			if lastAnnounced.Valid {
				team.LastAnnouncedAt = &lastAnnounced.Time
			}
			state[id] = team
		}

		if userID.Valid {
			team.Members = append(team.Members, entity.Member{
				ID:          userID.String,
				DisplayName: displayName.String,
			})
		}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating roster rows: %w", err)
	}

	return state, nil
}

// Save replaces the stored roster of every team present in state.
// Teams absent from state are left untouched.
func (r *rosterRepository) Save(ctx context.Context, state entity.RosterState) error {
	for id, team := range state {
		if team == nil {
			continue
		}

		teamID, err := r.upsertTeam(ctx, id, team)
		if err != nil {
			return err
		}

		if _, err := r.db.ExecContext(ctx, `DELETE FROM members WHERE team_id = ?`, teamID); err != nil {
			return fmt.Errorf("failed to clear members of %s: %w", id, err)
		}

		for position, member := range team.Members {
			_, err := r.db.ExecContext(ctx, `
				INSERT INTO members (team_id, slack_user_id, display_name, position)
				VALUES (?, ?, ?, ?)
			`, teamID, member.ID, member.DisplayName, position)
			if err != nil {
				return fmt.Errorf("failed to save member %s of %s: %w", member.ID, id, err)
			}
		}
	}

	return nil
}

func (r *rosterRepository) upsertTeam(ctx context.Context, id entity.TeamID, team *entity.Team) (int64, error) {
	updatedAt := team.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}

	var teamID int64
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO teams (team_key, current_tick, last_announced_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(team_key) DO UPDATE SET
			current_tick = excluded.current_tick,
			last_announced_at = excluded.last_announced_at,
			updated_at = excluded.updated_at
		RETURNING id
	`, string(id), team.CurrentTick, team.LastAnnouncedAt, updatedAt).Scan(&teamID)
	if err != nil {
		return 0, fmt.Errorf("failed to save team %s: %w", id, err)
	}

	return teamID, nil
}
