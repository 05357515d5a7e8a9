package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/diegoclair/support-roster-bot/internal/domain"
	"github.com/diegoclair/support-roster-bot/internal/domain/entity"
	"github.com/diegoclair/support-roster-bot/internal/domain/rotation"
	"github.com/diegoclair/support-roster-bot/internal/handlers/test"
	"github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var (
	ann = entity.Member{DisplayName: "Ann", ID: "UA"}
	bob = entity.Member{DisplayName: "Bob", ID: "UB"}

	announcedAt = time.Date(2024, time.January, 1, 9, 0, 0, 0, time.UTC)
)

func decodeMsg(t *testing.T, resp *httptest.ResponseRecorder) slack.Msg {
	t.Helper()

	require.Equal(t, http.StatusOK, resp.Code)

	var response slack.Msg
	err := json.Unmarshal(resp.Body.Bytes(), &response)
	require.NoError(t, err)
	return response
}

func TestSlackHandler_HandleSlashCommand(t *testing.T) {
	tests := []struct {
		name          string
		text          string
		buildMocks    func(m test.ServiceMocks)
		wantType      string
		wantText      string
		wantExactText bool
	}{
		{
			name: "Should add member",
			text: "add <@UA|ann> cr",
			buildMocks: func(m test.ServiceMocks) {
				m.RotationServiceMock.EXPECT().
					AddMember(gomock.Any(), entity.TeamID("cr"), "UA").
					Return(ann, nil).Times(1)
			},
			wantType:      slack.ResponseTypeInChannel,
			wantText:      "I've just added Ann to the CR roster!",
			wantExactText: true,
		},
		{
			name:       "Should ask for a team when adding without one",
			text:       "add <@UA>",
			buildMocks: func(m test.ServiceMocks) {},
			wantType:   slack.ResponseTypeEphemeral,
			wantText:   "Please tell me which team: `cr|rum|apm|ss`.",
		},
		{
			name:       "Should refuse to add to all",
			text:       "add <@UA> all",
			buildMocks: func(m test.ServiceMocks) {},
			wantType:   slack.ResponseTypeEphemeral,
			wantText:   "ALL is not a valid team, please try again.",
		},
		{
			name:       "Should refuse two teams",
			text:       "add <@UA> cr rum",
			buildMocks: func(m test.ServiceMocks) {},
			wantType:   slack.ResponseTypeEphemeral,
			wantText:   "Please tell me which team",
		},
		{
			name: "Should report a member already present",
			text: "add <@UA> cr",
			buildMocks: func(m test.ServiceMocks) {
				m.RotationServiceMock.EXPECT().
					AddMember(gomock.Any(), entity.TeamID("cr"), "UA").
					Return(entity.Member{}, domain.ErrMemberAlreadyPresent).Times(1)
			},
			wantType: slack.ResponseTypeInChannel,
			wantText: "<@UA> is already a part of the CR team!",
		},
		{
			name:       "Should not match a plain name",
			text:       "add ann cr",
			buildMocks: func(m test.ServiceMocks) {},
			wantType:   slack.ResponseTypeEphemeral,
			wantText:   "Sorry I couldn't match that user, please try again.",
		},
		{
			name: "Should remove member",
			text: "remove <@UB> rum",
			buildMocks: func(m test.ServiceMocks) {
				m.RotationServiceMock.EXPECT().
					RemoveMember(gomock.Any(), entity.TeamID("rum"), "UB").
					Return(entity.Removal{Member: bob, Tick: 1}, nil).Times(1)
			},
			wantType:      slack.ResponseTypeInChannel,
			wantText:      "I've just removed Bob from the RUM roster!",
			wantExactText: true,
		},
		{
			name: "Should report the tick after removing the tail member",
			text: "remove <@UB> rum",
			buildMocks: func(m test.ServiceMocks) {
				m.RotationServiceMock.EXPECT().
					RemoveMember(gomock.Any(), entity.TeamID("rum"), "UB").
					Return(entity.Removal{Member: bob, Tick: 0, TickMoved: true}, nil).Times(1)
			},
			wantType:      slack.ResponseTypeInChannel,
			wantText:      "I've just removed Bob from the RUM roster! I've just updated the tick index to 0.",
			wantExactText: true,
		},
		{
			name: "Should report a missing member",
			text: "remove <@UB> rum",
			buildMocks: func(m test.ServiceMocks) {
				m.RotationServiceMock.EXPECT().
					RemoveMember(gomock.Any(), entity.TeamID("rum"), "UB").
					Return(entity.Removal{}, domain.ErrMemberNotFound).Times(1)
			},
			wantType: slack.ResponseTypeInChannel,
			wantText: "<@UB> wasn't found in the RUM team!",
		},
		{
			name: "Should skip forward",
			text: "skip apm",
			buildMocks: func(m test.ServiceMocks) {
				m.RotationServiceMock.EXPECT().
					Move(gomock.Any(), entity.TeamID("apm"), rotation.Forward).
					Return(bob, true, nil).Times(1)
			},
			wantType: slack.ResponseTypeInChannel,
			wantText: "I've just moved the APM roster queue forward one! Next up: Bob",
		},
		{
			name: "Should move back",
			text: "back ss",
			buildMocks: func(m test.ServiceMocks) {
				m.RotationServiceMock.EXPECT().
					Move(gomock.Any(), entity.TeamID("ss"), rotation.Back).
					Return(entity.Member{}, false, nil).Times(1)
			},
			wantType:      slack.ResponseTypeInChannel,
			wantText:      "I've just moved the SS roster queue back one!",
			wantExactText: true,
		},
		{
			name:       "Should reject an ambiguous command",
			text:       "skip back cr",
			buildMocks: func(m test.ServiceMocks) {},
			wantType:   slack.ResponseTypeEphemeral,
			wantText:   "Sorry, I didn't understand that command.",
		},
		{
			name:       "Should show help",
			text:       "help",
			buildMocks: func(m test.ServiceMocks) {},
			wantType:   slack.ResponseTypeEphemeral,
			wantText:   "Here's a list of my available commands:",
		},
		{
			name: "Should show every roster when no team is given",
			text: "showCurrentRoster",
			buildMocks: func(m test.ServiceMocks) {
				m.RotationServiceMock.EXPECT().
					Roster(gomock.Any(), "all").
					Return([]entity.TeamRoster{
						{Team: "cr", Members: []entity.Member{ann, bob}, CurrentTick: 0, LastAnnouncedAt: &announcedAt},
						{Team: "rum"},
					}, nil).Times(1)
			},
			wantType: slack.ResponseTypeInChannel,
			wantText: "*CR roster:*\n- Ann\n- *Bob - Current*\n-----------------------------------------\n*RUM roster:*\n_No members yet_",
		},
		{
			name: "Should show the next assignee of one team",
			text: "showNextRoster cr",
			buildMocks: func(m test.ServiceMocks) {
				m.RotationServiceMock.EXPECT().
					Roster(gomock.Any(), "cr").
					Return([]entity.TeamRoster{
						{Team: "cr", Members: []entity.Member{ann, bob}, CurrentTick: 0},
					}, nil).Times(1)
			},
			wantType:      slack.ResponseTypeInChannel,
			wantText:      "*CR roster:*\n- *Ann - Next*\n- Bob",
			wantExactText: true,
		},
		{
			name: "Should recall this week's assignees",
			text: "recall",
			buildMocks: func(m test.ServiceMocks) {
				m.RotationServiceMock.EXPECT().
					Recall(gomock.Any()).
					Return([]entity.TeamAssignee{{Team: "cr", Member: ann, HasMember: true}}, nil).Times(1)
			},
			wantType: slack.ResponseTypeInChannel,
			wantText: "*This week's intercom assignees:*\nCR - Ann - <@UA>",
		},
		{
			name: "Should start announcements",
			text: "start",
			buildMocks: func(m test.ServiceMocks) {
				m.AnnouncementServiceMock.EXPECT().
					Start(gomock.Any(), "C123").
					Return(time.Date(2024, time.January, 8, 9, 0, 0, 0, time.UTC), nil).Times(1)
			},
			wantType:      slack.ResponseTypeInChannel,
			wantText:      "I've started! Next assignment in 4 days, 21 hours & 0 minutes",
			wantExactText: true,
		},
		{
			name: "Should report announcements already running",
			text: "start",
			buildMocks: func(m test.ServiceMocks) {
				next := time.Date(2024, time.January, 8, 9, 0, 0, 0, time.UTC)
				m.AnnouncementServiceMock.EXPECT().
					Start(gomock.Any(), "C123").
					Return(time.Time{}, domain.ErrAlreadyRunning).Times(1)
				m.AnnouncementServiceMock.EXPECT().
					State().
					Return(entity.ScheduleState{Phase: entity.PhaseRunning, NextFireAt: &next}).Times(1)
			},
			wantType: slack.ResponseTypeInChannel,
			wantText: "I'm already running! Next assignment in 4 days",
		},
		{
			name: "Should pause announcements",
			text: "pause",
			buildMocks: func(m test.ServiceMocks) {
				m.AnnouncementServiceMock.EXPECT().Pause(gomock.Any()).Return(nil).Times(1)
			},
			wantType: slack.ResponseTypeInChannel,
			wantText: "I've paused! Type `@roster start` to resume",
		},
		{
			name: "Should hide internal errors",
			text: "recall",
			buildMocks: func(m test.ServiceMocks) {
				m.RotationServiceMock.EXPECT().Recall(gomock.Any()).Return(nil, assert.AnError).Times(1)
			},
			wantType: slack.ResponseTypeInChannel,
			wantText: ":ambulance: He's dead Jim - please check the logs for errors...",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, handler, ctrl := test.GetHandlerTest(t)
			defer ctrl.Finish()

			tt.buildMocks(m)

			req := test.CreateSlackRequest(t, "/roster", tt.text, "C123", "U987654321", test.SigningSecret)
			resp := test.CreateTestRecorder()

			handler.HandleSlashCommand(resp, req)

			response := decodeMsg(t, resp)
			assert.Equal(t, tt.wantType, response.ResponseType)
			if tt.wantExactText {
				assert.Equal(t, tt.wantText, response.Text)
			} else {
				assert.Contains(t, response.Text, tt.wantText)
			}
		})
	}
}

func TestSlackHandler_HandleSlashCommand_InvalidSignature(t *testing.T) {
	_, handler, ctrl := test.GetHandlerTest(t)
	defer ctrl.Finish()

	req := test.CreateSlackRequest(t, "/roster", "help", "C123", "U987654321", "wrong-secret")
	resp := test.CreateTestRecorder()

	handler.HandleSlashCommand(resp, req)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestSlackHandler_HandleEvents(t *testing.T) {
	t.Run("Should answer the url verification challenge", func(t *testing.T) {
		_, handler, ctrl := test.GetHandlerTest(t)
		defer ctrl.Finish()

		body := `{"token":"test-token","challenge":"3eZbrw1aBm2rZgRNFdxV2595E9CY3gmdALWMmHkvFXO7tYXAYM8P","type":"url_verification"}`
		req := test.CreateEventRequest(t, body, test.SigningSecret)
		resp := test.CreateTestRecorder()

		handler.HandleEvents(resp, req)

		require.Equal(t, http.StatusOK, resp.Code)
		assert.Equal(t, "3eZbrw1aBm2rZgRNFdxV2595E9CY3gmdALWMmHkvFXO7tYXAYM8P", resp.Body.String())
	})

	t.Run("Should reply to a mention in its channel", func(t *testing.T) {
		m, handler, ctrl := test.GetHandlerTest(t)
		defer ctrl.Finish()

		m.RotationServiceMock.EXPECT().
			AddMember(gomock.Any(), entity.TeamID("cr"), "UA").
			Return(ann, nil).Times(1)

		posted := ""
		m.SlackClientMock.EXPECT().
			PostMessage("C123", gomock.Any()).
			DoAndReturn(func(channelID string, options ...slack.MsgOption) (string, string, error) {
				_, values, err := slack.UnsafeApplyMsgOptions("", channelID, "", options...)
				require.NoError(t, err)
				posted = values.Get("text")
				return channelID, "1", nil
			}).Times(1)

		req := test.CreateEventRequest(t, test.AppMentionBody("<@UBOT> add <@UA> cr", "C123"), test.SigningSecret)
		resp := test.CreateTestRecorder()

		handler.HandleEvents(resp, req)

		require.Equal(t, http.StatusOK, resp.Code)
		assert.Equal(t, "I've just added Ann to the CR roster!", posted)
	})

	t.Run("Should still answer when posting fails", func(t *testing.T) {
		m, handler, ctrl := test.GetHandlerTest(t)
		defer ctrl.Finish()

		m.SlackClientMock.EXPECT().
			PostMessage("C123", gomock.Any()).
			Return("", "", assert.AnError).Times(1)

		req := test.CreateEventRequest(t, test.AppMentionBody("<@UBOT> help", "C123"), test.SigningSecret)
		resp := test.CreateTestRecorder()

		handler.HandleEvents(resp, req)
		assert.Equal(t, http.StatusOK, resp.Code)
	})

	t.Run("Should ignore retries", func(t *testing.T) {
		_, handler, ctrl := test.GetHandlerTest(t)
		defer ctrl.Finish()

		req := test.CreateEventRequest(t, test.AppMentionBody("<@UBOT> skip cr", "C123"), test.SigningSecret)
		req.Header.Set("X-Slack-Retry-Num", "1")
		resp := test.CreateTestRecorder()

		handler.HandleEvents(resp, req)
		assert.Equal(t, http.StatusOK, resp.Code)
	})

	t.Run("Should reject an unsigned request", func(t *testing.T) {
		_, handler, ctrl := test.GetHandlerTest(t)
		defer ctrl.Finish()

		req := test.CreateEventRequest(t, test.AppMentionBody("<@UBOT> skip cr", "C123"), "wrong-secret")
		resp := test.CreateTestRecorder()

		handler.HandleEvents(resp, req)
		assert.Equal(t, http.StatusUnauthorized, resp.Code)
	})
}

func TestSlackHandler_HandleHealth(t *testing.T) {
	m, handler, ctrl := test.GetHandlerTest(t)
	defer ctrl.Finish()

	next := time.Date(2024, time.January, 8, 9, 0, 0, 0, time.UTC)
	m.AnnouncementServiceMock.EXPECT().
		State().
		Return(entity.ScheduleState{Phase: entity.PhaseArmed, NextFireAt: &next}).Times(1)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	resp := test.CreateTestRecorder()

	handler.HandleHealth(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "armed", body["announcements"])
	assert.Equal(t, "2024-01-08T09:00:00Z", body["next_announcement"])
}

func TestSlackHandler_Dispatch(t *testing.T) {
	m, handler, ctrl := test.GetHandlerTest(t)
	defer ctrl.Finish()

	m.RotationServiceMock.EXPECT().
		Roster(gomock.Any(), "all").
		Return(nil, nil).Times(1)

	// the legacy "list" keyword shows the current roster
	reply := handler.Dispatch(context.Background(), "<@UBOT> list", "C123")
	assert.Equal(t, "No teams are configured.", reply.Text)
	assert.False(t, reply.Ephemeral)
}
