package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/diegoclair/support-roster-bot/internal/domain"
	"github.com/diegoclair/support-roster-bot/internal/domain/contract"
	"github.com/diegoclair/support-roster-bot/internal/domain/entity"
	"github.com/diegoclair/support-roster-bot/internal/domain/rotation"
	slackcmd "github.com/diegoclair/support-roster-bot/internal/domain/slack"
	"github.com/jonboulle/clockwork"
	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
)

type SlackHandler struct {
	slackClient         contract.SlackClient
	rotationService     contract.RotationService
	announcementService contract.AnnouncementService
	interpreter         *slackcmd.Interpreter
	messages            slackcmd.Messages
	signingSecret       string
	clock               clockwork.Clock
}

type Option func(*SlackHandler)

// WithClock replaces the clock used for "next assignment in" replies
func WithClock(clock clockwork.Clock) Option {
	return func(h *SlackHandler) {
		h.clock = clock
	}
}

func New(
	slackClient contract.SlackClient,
	rotationService contract.RotationService,
	announcementService contract.AnnouncementService,
	interpreter *slackcmd.Interpreter,
	messages slackcmd.Messages,
	signingSecret string,
	opts ...Option,
) *SlackHandler {
	h := &SlackHandler{
		slackClient:         slackClient,
		rotationService:     rotationService,
		announcementService: announcementService,
		interpreter:         interpreter,
		messages:            messages,
		signingSecret:       signingSecret,
		clock:               clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// verify reads the body and checks the Slack signature. On failure the
// response status is written and ok is false.
func (h *SlackHandler) verify(w http.ResponseWriter, r *http.Request) (body []byte, ok bool) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return nil, false
	}
	r.Body = io.NopCloser(bytes.NewBuffer(body))

	verifier, err := slack.NewSecretsVerifier(r.Header, h.signingSecret)
	if err != nil {
		w.WriteHeader(http.StatusUnauthorized)
		return nil, false
	}

	if _, err := verifier.Write(body); err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return nil, false
	}

	if err := verifier.Ensure(); err != nil {
		slog.Warn("rejected request with invalid signature", "path", r.URL.Path)
		w.WriteHeader(http.StatusUnauthorized)
		return nil, false
	}

	return body, true
}

// HandleEvents serves the Events API: URL verification and app mentions
func (h *SlackHandler) HandleEvents(w http.ResponseWriter, r *http.Request) {
	body, ok := h.verify(w, r)
	if !ok {
		return
	}

	// Slack retries when the first delivery was slow; the first one is still being handled
	if r.Header.Get("X-Slack-Retry-Num") != "" {
		w.WriteHeader(http.StatusOK)
		return
	}

	event, err := slackevents.ParseEvent(json.RawMessage(body), slackevents.OptionNoVerifyToken())
	if err != nil {
		slog.Warn("failed to parse event", "error", err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	switch event.Type {
	case slackevents.URLVerification:
		var challenge slackevents.ChallengeResponse
		if err := json.Unmarshal(body, &challenge); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte(challenge.Challenge))

	case slackevents.CallbackEvent:
		mention, ok := event.InnerEvent.Data.(*slackevents.AppMentionEvent)
		if !ok || mention.BotID != "" {
			w.WriteHeader(http.StatusOK)
			return
		}

		reply := h.Dispatch(r.Context(), mention.Text, mention.Channel)
		_, _, err := h.slackClient.PostMessage(
			mention.Channel,
			slack.MsgOptionText(reply.Text, false),
			slack.MsgOptionAsUser(false),
		)
		if err != nil {
			slog.Error("failed to send reply", "channel", mention.Channel, "error", err)
		}
		w.WriteHeader(http.StatusOK)

	default:
		w.WriteHeader(http.StatusOK)
	}
}

// HandleSlashCommand serves the slash command with the same vocabulary as mentions
func (h *SlackHandler) HandleSlashCommand(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.verify(w, r); !ok {
		return
	}

	s, err := slack.SlashCommandParse(r)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	reply := h.Dispatch(r.Context(), s.Text, s.ChannelID)

	responseType := slack.ResponseTypeInChannel
	if reply.Ephemeral {
		responseType = slack.ResponseTypeEphemeral
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(&slack.Msg{
		ResponseType: responseType,
		Text:         reply.Text,
	})
}

// HandleHealth reports liveness and the announcement phase
func (h *SlackHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	state := h.announcementService.State()

	response := map[string]any{
		"status":        "ok",
		"announcements": state.Phase.String(),
	}
	if state.NextFireAt != nil {
		response["next_announcement"] = state.NextFireAt.UTC()
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// Reply is the text answering one command
type Reply struct {
	Text string
	// Ephemeral replies are only worth showing to the issuer
	Ephemeral bool
}

// Dispatch interprets text and runs the command. Every outcome, including
// failures, is turned into a reply.
func (h *SlackHandler) Dispatch(ctx context.Context, text, channelID string) Reply {
	cmd, err := h.interpreter.Parse(text)
	switch {
	case errors.Is(err, domain.ErrUnknownCommand):
		return Reply{Text: h.messages.UnknownCommand(), Ephemeral: true}
	case errors.Is(err, domain.ErrUserRefNotResolved):
		return Reply{Text: h.messages.UserNotMatched(), Ephemeral: true}
	case err != nil:
		return h.failure(cmd, err)
	}

	slog.Info("command received", "action", cmd.Action, "team", cmd.Team, "channel", channelID)

	switch cmd.Action {
	case slackcmd.ActionHelp:
		return Reply{Text: h.messages.Help(), Ephemeral: true}
	case slackcmd.ActionShowCurrentRoster:
		return h.showRoster(ctx, cmd, slackcmd.MarkCurrent)
	case slackcmd.ActionShowNextRoster:
		return h.showRoster(ctx, cmd, slackcmd.MarkNext)
	case slackcmd.ActionStart:
		return h.start(ctx, channelID)
	case slackcmd.ActionPause:
		return h.pause(ctx, cmd)
	case slackcmd.ActionRecall:
		return h.recall(ctx, cmd)
	case slackcmd.ActionAdd:
		return h.addMember(ctx, cmd)
	case slackcmd.ActionRemove:
		return h.removeMember(ctx, cmd)
	case slackcmd.ActionSkip:
		return h.move(ctx, cmd, rotation.Forward)
	case slackcmd.ActionBack:
		return h.move(ctx, cmd, rotation.Back)
	default:
		return Reply{Text: h.messages.UnknownCommand(), Ephemeral: true}
	}
}

func (h *SlackHandler) showRoster(ctx context.Context, cmd *slackcmd.Command, mark slackcmd.RosterMark) Reply {
	selector := domain.AllTeams
	if cmd.HasTeam {
		selector = cmd.Team
	}

	rosters, err := h.rotationService.Roster(ctx, selector)
	if err != nil {
		return h.failure(cmd, err)
	}
	return Reply{Text: h.messages.Roster(rosters, mark)}
}

func (h *SlackHandler) start(ctx context.Context, channelID string) Reply {
	next, err := h.announcementService.Start(ctx, channelID)
	if errors.Is(err, domain.ErrAlreadyRunning) {
		return Reply{Text: h.messages.AlreadyRunning(h.announcementService.State().NextFireAt, h.clock.Now())}
	}
	if err != nil {
		return h.failure(nil, err)
	}
	return Reply{Text: h.messages.Started(next, h.clock.Now())}
}

func (h *SlackHandler) pause(ctx context.Context, cmd *slackcmd.Command) Reply {
	if err := h.announcementService.Pause(ctx); err != nil {
		return h.failure(cmd, err)
	}
	return Reply{Text: h.messages.Paused()}
}

func (h *SlackHandler) recall(ctx context.Context, cmd *slackcmd.Command) Reply {
	assignees, err := h.rotationService.Recall(ctx)
	if err != nil {
		return h.failure(cmd, err)
	}
	return Reply{Text: h.messages.Assignees(assignees)}
}

func (h *SlackHandler) addMember(ctx context.Context, cmd *slackcmd.Command) Reply {
	team, ok := h.mutableTeam(cmd)
	if !ok {
		return Reply{Text: h.messages.InvalidTeam(cmd.Team), Ephemeral: true}
	}

	member, err := h.rotationService.AddMember(ctx, team, cmd.UserRef)
	if err != nil {
		return h.failure(cmd, err)
	}
	return Reply{Text: h.messages.Added(member, team)}
}

func (h *SlackHandler) removeMember(ctx context.Context, cmd *slackcmd.Command) Reply {
	team, ok := h.mutableTeam(cmd)
	if !ok {
		return Reply{Text: h.messages.InvalidTeam(cmd.Team), Ephemeral: true}
	}

	removal, err := h.rotationService.RemoveMember(ctx, team, cmd.UserRef)
	if err != nil {
		return h.failure(cmd, err)
	}
	return Reply{Text: h.messages.Removed(removal, team)}
}

func (h *SlackHandler) move(ctx context.Context, cmd *slackcmd.Command, dir rotation.Direction) Reply {
	team, ok := h.mutableTeam(cmd)
	if !ok {
		return Reply{Text: h.messages.InvalidTeam(cmd.Team), Ephemeral: true}
	}

	next, hasNext, err := h.rotationService.Move(ctx, team, dir)
	if err != nil {
		return h.failure(cmd, err)
	}
	return Reply{Text: h.messages.TickMoved(team, dir == rotation.Forward, next, hasNext)}
}

// mutableTeam returns the single team a mutation targets; "all" never qualifies
func (h *SlackHandler) mutableTeam(cmd *slackcmd.Command) (entity.TeamID, bool) {
	if !cmd.HasTeam || cmd.Team == domain.AllTeams {
		return "", false
	}
	return entity.TeamID(cmd.Team), true
}

// failure maps domain errors to their reply; anything else is logged and
// answered with the generic internal error text
func (h *SlackHandler) failure(cmd *slackcmd.Command, err error) Reply {
	var team, userRef string
	if cmd != nil {
		team, userRef = cmd.Team, cmd.UserRef
	}

	switch {
	case errors.Is(err, domain.ErrInvalidTeam):
		return Reply{Text: h.messages.InvalidTeam(team), Ephemeral: true}
	case errors.Is(err, domain.ErrMemberAlreadyPresent):
		return Reply{Text: h.messages.AlreadyPresent(userRef, entity.TeamID(team))}
	case errors.Is(err, domain.ErrMemberNotFound):
		return Reply{Text: h.messages.NotFound(userRef, entity.TeamID(team))}
	case errors.Is(err, domain.ErrUnknownCommand):
		return Reply{Text: h.messages.UnknownCommand(), Ephemeral: true}
	case errors.Is(err, domain.ErrUserRefNotResolved):
		return Reply{Text: h.messages.UserNotMatched(), Ephemeral: true}
	}

	slog.Error("command failed", "team", team, "error", err)
	return Reply{Text: h.messages.InternalError()}
}
