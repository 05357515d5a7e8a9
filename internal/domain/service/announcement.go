package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/diegoclair/support-roster-bot/internal/domain/contract"
	"github.com/diegoclair/support-roster-bot/internal/domain/entity"
	domainslack "github.com/diegoclair/support-roster-bot/internal/domain/slack"
	"github.com/slack-go/slack"
)

const announceTimeout = 30 * time.Second

type announcementService struct {
	// mu keeps the scheduler phase and the stored enabled flag moving together
	mu sync.Mutex

	dm          contract.DataManager
	slackClient contract.SlackClient
	rotation    contract.RotationService
	scheduler   *Scheduler
	messages    domainslack.Messages
}

func newAnnouncement(dm contract.DataManager, slackClient contract.SlackClient, rotation contract.RotationService, scheduler *Scheduler, messages domainslack.Messages) *announcementService {
	return &announcementService{
		dm:          dm,
		slackClient: slackClient,
		rotation:    rotation,
		scheduler:   scheduler,
		messages:    messages,
	}
}

// Start arms the weekly broadcast to slackChannelID and returns the first fire time
func (s *announcementService) Start(ctx context.Context, slackChannelID string) (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := s.scheduler.Start(s.broadcaster(slackChannelID))
	if err != nil {
		return time.Time{}, err
	}

	err = s.dm.Announcement().Save(ctx, &entity.Announcement{
		SlackChannelID: slackChannelID,
		IsEnabled:      true,
	})
	if err != nil {
		s.scheduler.Pause()
		return time.Time{}, fmt.Errorf("failed to save announcement: %w", err)
	}

	slog.Info("announcements started", "channel", slackChannelID, "next", next)
	return next, nil
}

func (s *announcementService) Pause(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.scheduler.Pause()

	if err := s.dm.Announcement().SetEnabled(ctx, false); err != nil {
		return fmt.Errorf("failed to disable announcement: %w", err)
	}
	return nil
}

// Restore re-arms announcements that were enabled before the process stopped
func (s *announcementService) Restore(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	announcement, err := s.dm.Announcement().Get(ctx)
	if err != nil {
		return fmt.Errorf("failed to get announcement: %w", err)
	}

	if announcement == nil || !announcement.IsEnabled || announcement.SlackChannelID == "" {
		slog.Info("no announcement to restore")
		return nil
	}

	next, err := s.scheduler.Start(s.broadcaster(announcement.SlackChannelID))
	if err != nil {
		return err
	}

	slog.Info("announcements restored", "channel", announcement.SlackChannelID, "next", next)
	return nil
}

func (s *announcementService) State() entity.ScheduleState {
	return s.scheduler.State()
}

func (s *announcementService) broadcaster(slackChannelID string) func(time.Time) {
	return func(at time.Time) {
		ctx, cancel := context.WithTimeout(context.Background(), announceTimeout)
		defer cancel()

		if err := s.broadcast(ctx, slackChannelID); err != nil {
			slog.Error("failed to send announcement", "channel", slackChannelID, "scheduled", at, "error", err)
		}
	}
}

func (s *announcementService) broadcast(ctx context.Context, slackChannelID string) error {
	assignees, err := s.rotation.Announce(ctx)
	if err != nil {
		return fmt.Errorf("failed to advance rotation: %w", err)
	}

	_, _, err = s.slackClient.PostMessage(
		slackChannelID,
		slack.MsgOptionText(s.messages.Assignees(assignees), false),
		slack.MsgOptionAsUser(false),
	)
	if err != nil {
		return fmt.Errorf("failed to send Slack message: %w", err)
	}

	slog.Info("announcement sent", "channel", slackChannelID, "teams", len(assignees))
	return nil
}
