package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/diegoclair/support-roster-bot/internal/domain/contract"
	"github.com/diegoclair/support-roster-bot/internal/domain/entity"
)

// the bot announces to one channel, stored as a single row
const announcementRowID = 1

type announcementRepository struct {
	db dbConn
}

func newAnnouncementRepository(db dbConn) contract.AnnouncementRepo {
	return &announcementRepository{db: db}
}

// Get returns the stored announcement setup, or nil when none was saved
func (r *announcementRepository) Get(ctx context.Context) (*entity.Announcement, error) {
	announcement := &entity.Announcement{}
	query := `
		SELECT id, slack_channel_id, is_enabled, created_at, updated_at
		FROM announcements
		WHERE id = ?
	`

	err := r.db.QueryRowContext(ctx, query, announcementRowID).Scan(
		&announcement.ID,
		&announcement.SlackChannelID,
		&announcement.IsEnabled,
		&announcement.CreatedAt,
		&announcement.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get announcement: %w", err)
	}

	return announcement, nil
}

func (r *announcementRepository) Save(ctx context.Context, announcement *entity.Announcement) error {
	query := `
		INSERT INTO announcements (id, slack_channel_id, is_enabled)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			slack_channel_id = excluded.slack_channel_id,
			is_enabled = excluded.is_enabled,
			updated_at = CURRENT_TIMESTAMP
	`

	_, err := r.db.ExecContext(ctx, query, announcementRowID, announcement.SlackChannelID, announcement.IsEnabled)
	if err != nil {
		return fmt.Errorf("failed to save announcement: %w", err)
	}

	announcement.ID = announcementRowID
	return nil
}

// SetEnabled toggles the stored announcement; it is a no-op when none exists
func (r *announcementRepository) SetEnabled(ctx context.Context, enabled bool) error {
	query := `
		UPDATE announcements
		SET is_enabled = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`

	if _, err := r.db.ExecContext(ctx, query, enabled, announcementRowID); err != nil {
		return fmt.Errorf("failed to update announcement: %w", err)
	}
	return nil
}
