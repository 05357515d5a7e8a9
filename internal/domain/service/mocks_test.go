package service

import (
	"context"
	"testing"
	"time"

	"github.com/diegoclair/support-roster-bot/internal/domain/contract"
	"github.com/diegoclair/support-roster-bot/internal/domain/registry"
	"github.com/diegoclair/support-roster-bot/mocks"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var testNow = time.Date(2024, time.January, 3, 12, 0, 0, 0, time.UTC)

type allMocks struct {
	mockDataManager      *mocks.MockDataManager
	mockRosterRepo       *mocks.MockRosterRepo
	mockAnnouncementRepo *mocks.MockAnnouncementRepo
	mockSlackClient      *mocks.MockSlackClient
	clock                *clockwork.FakeClock
}

func newServiceTestMock(t *testing.T) (m allMocks, ctrl *gomock.Controller) {
	t.Helper()

	ctrl = gomock.NewController(t)

	dm := mocks.NewMockDataManager(ctrl)

	rosterRepo := mocks.NewMockRosterRepo(ctrl)
	dm.EXPECT().Roster().Return(rosterRepo).AnyTimes()

	announcementRepo := mocks.NewMockAnnouncementRepo(ctrl)
	dm.EXPECT().Announcement().Return(announcementRepo).AnyTimes()

	m = allMocks{
		mockDataManager:      dm,
		mockRosterRepo:       rosterRepo,
		mockAnnouncementRepo: announcementRepo,
		mockSlackClient:      mocks.NewMockSlackClient(ctrl),
		clock:                clockwork.NewFakeClockAt(testNow),
	}

	return
}

// expectTransaction runs the transaction body against the same data manager
func (m allMocks) expectTransaction() *gomock.Call {
	return m.mockDataManager.EXPECT().
		WithTransaction(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, fn func(contract.DataManager) error) error {
			return fn(m.mockDataManager)
		})
}

func newTestRotation(t *testing.T, m allMocks) *rotationService {
	t.Helper()

	reg, err := registry.New("cr", "rum")
	require.NoError(t, err)

	s := newRotation(m.mockDataManager, m.mockSlackClient, reg, m.clock)
	require.NotNil(t, s)
	return s
}
