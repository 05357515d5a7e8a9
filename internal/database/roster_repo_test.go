package database

import (
	"context"
	"testing"
	"time"

	"github.com/diegoclair/support-roster-bot/internal/domain/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	ann   = entity.Member{DisplayName: "Ann", ID: "UA"}
	bob   = entity.Member{DisplayName: "Bob", ID: "UB"}
	carol = entity.Member{DisplayName: "Carol", ID: "UC"}
)

func TestRosterRepository_LoadEmpty(t *testing.T) {
	db := SetupTestDB(t)
	defer CleanupTestDB(t, db)

	repo := newRosterRepository(db.conn)

	state, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, state)
}

func TestRosterRepository_SaveAndLoad(t *testing.T) {
	db := SetupTestDB(t)
	defer CleanupTestDB(t, db)

	ctx := context.Background()
	repo := newRosterRepository(db.conn)
	updatedAt := time.Date(2024, time.January, 1, 9, 0, 0, 0, time.UTC)

	err := repo.Save(ctx, entity.RosterState{
		"cr":  {Members: []entity.Member{carol, ann, bob}, CurrentTick: 2, UpdatedAt: updatedAt},
		"rum": {},
	})
	require.NoError(t, err, "Failed to save roster")

	state, err := repo.Load(ctx)
	require.NoError(t, err)
	require.Len(t, state, 2)

	// member order is the rotation order, not insertion or id order
	assert.Equal(t, []entity.Member{carol, ann, bob}, state["cr"].Members)
	assert.Equal(t, 2, state["cr"].CurrentTick)
	assert.True(t, updatedAt.Equal(state["cr"].UpdatedAt))

	assert.Empty(t, state["rum"].Members)
	assert.Equal(t, 0, state["rum"].CurrentTick)
}

func TestRosterRepository_LastAnnouncedAt(t *testing.T) {
	db := SetupTestDB(t)
	defer CleanupTestDB(t, db)

	ctx := context.Background()
	repo := newRosterRepository(db.conn)
	announcedAt := time.Date(2024, time.January, 8, 9, 0, 0, 0, time.UTC)

	err := repo.Save(ctx, entity.RosterState{
		"cr":  {Members: []entity.Member{ann, bob}, CurrentTick: 1, LastAnnouncedAt: &announcedAt},
		"rum": {Members: []entity.Member{carol}},
	})
	require.NoError(t, err)

	state, err := repo.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, state["cr"].LastAnnouncedAt)
	assert.True(t, announcedAt.Equal(*state["cr"].LastAnnouncedAt))
	assert.Nil(t, state["rum"].LastAnnouncedAt)
}

func TestRosterRepository_SaveReplacesOnlyGivenTeams(t *testing.T) {
	db := SetupTestDB(t)
	defer CleanupTestDB(t, db)

	ctx := context.Background()
	repo := newRosterRepository(db.conn)

	err := repo.Save(ctx, entity.RosterState{
		"cr":  {Members: []entity.Member{ann, bob}, CurrentTick: 1},
		"rum": {Members: []entity.Member{carol}},
	})
	require.NoError(t, err)

	err = repo.Save(ctx, entity.RosterState{
		"cr": {Members: []entity.Member{bob}, CurrentTick: 0},
	})
	require.NoError(t, err)

	state, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []entity.Member{bob}, state["cr"].Members)
	assert.Equal(t, 0, state["cr"].CurrentTick)
	assert.Equal(t, []entity.Member{carol}, state["rum"].Members)
}

func TestRosterRepository_SameMemberInTwoTeams(t *testing.T) {
	db := SetupTestDB(t)
	defer CleanupTestDB(t, db)

	ctx := context.Background()
	repo := newRosterRepository(db.conn)

	err := repo.Save(ctx, entity.RosterState{
		"cr":  {Members: []entity.Member{ann}},
		"rum": {Members: []entity.Member{ann}},
	})
	require.NoError(t, err)

	state, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []entity.Member{ann}, state["cr"].Members)
	assert.Equal(t, []entity.Member{ann}, state["rum"].Members)
}

func TestRosterRepository_DuplicateMemberFails(t *testing.T) {
	db := SetupTestDB(t)
	defer CleanupTestDB(t, db)

	repo := newRosterRepository(db.conn)

	err := repo.Save(context.Background(), entity.RosterState{
		"cr": {Members: []entity.Member{ann, ann}},
	})
	assert.Error(t, err)
}
