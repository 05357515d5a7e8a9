package contract

import (
	"context"

	"github.com/diegoclair/support-roster-bot/internal/domain/entity"
)

// DataManager aggregates all repository interfaces
type DataManager interface {
	WithTransaction(ctx context.Context, fn func(dm DataManager) error) error
	Roster() RosterRepo
	Announcement() AnnouncementRepo
}

// RosterRepo persists the roster state. Save upserts exactly the teams
// present in the given state and leaves the others untouched.
type RosterRepo interface {
	Load(ctx context.Context) (entity.RosterState, error)
	Save(ctx context.Context, state entity.RosterState) error
}

// AnnouncementRepo persists the single announcement setup
type AnnouncementRepo interface {
	Get(ctx context.Context) (*entity.Announcement, error)
	Save(ctx context.Context, announcement *entity.Announcement) error
	SetEnabled(ctx context.Context, enabled bool) error
}
