package test

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/diegoclair/support-roster-bot/internal/domain/registry"
	slackcmd "github.com/diegoclair/support-roster-bot/internal/domain/slack"
	"github.com/diegoclair/support-roster-bot/internal/handlers"
	"github.com/diegoclair/support-roster-bot/mocks"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const SigningSecret = "test-signing-secret"

// Now is the fake time handlers see in tests
var Now = time.Date(2024, time.January, 3, 12, 0, 0, 0, time.UTC)

type ServiceMocks struct {
	RotationServiceMock     *mocks.MockRotationService
	AnnouncementServiceMock *mocks.MockAnnouncementService
	SlackClientMock         *mocks.MockSlackClient
}

func GetHandlerTest(t *testing.T) (m ServiceMocks, handler *handlers.SlackHandler, ctrl *gomock.Controller) {
	t.Helper()

	ctrl = gomock.NewController(t)
	m = ServiceMocks{
		RotationServiceMock:     mocks.NewMockRotationService(ctrl),
		AnnouncementServiceMock: mocks.NewMockAnnouncementService(ctrl),
		SlackClientMock:         mocks.NewMockSlackClient(ctrl),
	}

	reg, err := registry.New("cr", "rum", "apm", "ss")
	require.NoError(t, err)

	messages := slackcmd.Messages{
		BotName:  "roster",
		Teams:    reg.Teams(),
		Schedule: "every Monday at 09:00 (Pacific/Auckland)",
	}

	handler = handlers.New(
		m.SlackClientMock,
		m.RotationServiceMock,
		m.AnnouncementServiceMock,
		slackcmd.NewInterpreter(reg.Keywords()),
		messages,
		SigningSecret,
		handlers.WithClock(clockwork.NewFakeClockAt(Now)),
	)

	return
}

// CreateSlackRequest creates a properly signed Slack slash command request
func CreateSlackRequest(t *testing.T, command, text, channelID, userID, signingSecret string) *http.Request {
	t.Helper()

	// Create form data matching Slack's slash command format
	form := url.Values{
		"token":        {"test-token"},
		"team_id":      {"T123456789"},
		"team_domain":  {"test-team"},
		"channel_id":   {channelID},
		"channel_name": {"support"},
		"user_id":      {userID},
		"user_name":    {"test-user"},
		"command":      {command},
		"text":         {text},
		"response_url": {"https://hooks.slack.com/commands/test"},
		"trigger_id":   {"test-trigger-id"},
	}

	req := CreateSignedRequest(t, "/slack/commands", form.Encode(), signingSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

// CreateEventRequest creates a signed Events API request carrying body
func CreateEventRequest(t *testing.T, body, signingSecret string) *http.Request {
	t.Helper()

	req := CreateSignedRequest(t, "/slack/events", body, signingSecret)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// AppMentionBody wraps an app_mention in an event_callback envelope
func AppMentionBody(text, channelID string) string {
	return fmt.Sprintf(`{
		"token": "test-token",
		"team_id": "T123456789",
		"type": "event_callback",
		"event_id": "Ev123",
		"event_time": 1704067200,
		"event": {
			"type": "app_mention",
			"user": "U987654321",
			"text": %q,
			"ts": "1704067200.000100",
			"channel": %q,
			"event_ts": "1704067200.000100"
		}
	}`, text, channelID)
}

func CreateSignedRequest(t *testing.T, path, body, signingSecret string) *http.Request {
	t.Helper()

	req, err := http.NewRequest(http.MethodPost, path, strings.NewReader(body))
	require.NoError(t, err)

	// Generate Slack signature
	timestamp := strconv.FormatInt(time.Now().Unix(), 10)
	req.Header.Set("X-Slack-Request-Timestamp", timestamp)

	sig := generateSlackSignature(signingSecret, timestamp, body)
	req.Header.Set("X-Slack-Signature", sig)

	return req
}

func generateSlackSignature(signingSecret, timestamp, body string) string {
	baseString := fmt.Sprintf("v0:%s:%s", timestamp, body)
	h := hmac.New(sha256.New, []byte(signingSecret))
	h.Write([]byte(baseString))
	signature := hex.EncodeToString(h.Sum(nil))
	return fmt.Sprintf("v0=%s", signature)
}

func CreateTestRecorder() *httptest.ResponseRecorder {
	return httptest.NewRecorder()
}
