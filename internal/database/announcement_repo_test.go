package database

import (
	"context"
	"testing"

	"github.com/diegoclair/support-roster-bot/internal/domain/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnnouncementRepository_GetNotFound(t *testing.T) {
	db := SetupTestDB(t)
	defer CleanupTestDB(t, db)

	repo := newAnnouncementRepository(db.conn)

	announcement, err := repo.Get(context.Background())
	require.NoError(t, err)
	assert.Nil(t, announcement, "Expected nil when nothing was saved")
}

func TestAnnouncementRepository_Save(t *testing.T) {
	db := SetupTestDB(t)
	defer CleanupTestDB(t, db)

	ctx := context.Background()
	repo := newAnnouncementRepository(db.conn)

	announcement := &entity.Announcement{SlackChannelID: "C123", IsEnabled: true}
	require.NoError(t, repo.Save(ctx, announcement))
	assert.Equal(t, int64(announcementRowID), announcement.ID)

	// saving again moves the single row to the new channel
	require.NoError(t, repo.Save(ctx, &entity.Announcement{SlackChannelID: "C456", IsEnabled: true}))

	got, err := repo.Get(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "C456", got.SlackChannelID)
	assert.True(t, got.IsEnabled)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestAnnouncementRepository_SetEnabled(t *testing.T) {
	db := SetupTestDB(t)
	defer CleanupTestDB(t, db)

	ctx := context.Background()
	repo := newAnnouncementRepository(db.conn)

	// no row yet
	require.NoError(t, repo.SetEnabled(ctx, false))

	require.NoError(t, repo.Save(ctx, &entity.Announcement{SlackChannelID: "C123", IsEnabled: true}))
	require.NoError(t, repo.SetEnabled(ctx, false))

	got, err := repo.Get(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.False(t, got.IsEnabled)
	assert.Equal(t, "C123", got.SlackChannelID)
}
