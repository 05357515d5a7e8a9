package contract

import (
	"context"
	"time"

	"github.com/diegoclair/support-roster-bot/internal/domain/entity"
	"github.com/diegoclair/support-roster-bot/internal/domain/rotation"
)

type RotationService interface {
	AddMember(ctx context.Context, team entity.TeamID, slackUserID string) (entity.Member, error)
	RemoveMember(ctx context.Context, team entity.TeamID, slackUserID string) (entity.Removal, error)
	Move(ctx context.Context, team entity.TeamID, dir rotation.Direction) (next entity.Member, hasNext bool, err error)
	Roster(ctx context.Context, selector string) ([]entity.TeamRoster, error)
	Recall(ctx context.Context) ([]entity.TeamAssignee, error)
	Announce(ctx context.Context) ([]entity.TeamAssignee, error)
	Import(ctx context.Context, state entity.RosterState) error
	Snapshot(ctx context.Context) (entity.RosterState, error)
}

type AnnouncementService interface {
	Start(ctx context.Context, slackChannelID string) (time.Time, error)
	Pause(ctx context.Context) error
	Restore(ctx context.Context) error
	State() entity.ScheduleState
}
