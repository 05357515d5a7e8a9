package service

import (
	"github.com/diegoclair/support-roster-bot/internal/domain/contract"
	"github.com/diegoclair/support-roster-bot/internal/domain/registry"
	domainslack "github.com/diegoclair/support-roster-bot/internal/domain/slack"
	"github.com/jonboulle/clockwork"
)

type Options struct {
	Trigger  WeeklyTrigger
	Messages domainslack.Messages
	// Clock defaults to the real clock
	Clock clockwork.Clock
}

type Instance struct {
	Rotation     contract.RotationService
	Announcement contract.AnnouncementService
	Scheduler    *Scheduler
}

func NewInstance(dm contract.DataManager, slackClient contract.SlackClient, reg *registry.Registry, opts Options) *Instance {
	clock := opts.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	rotationService := newRotation(dm, slackClient, reg, clock)
	scheduler := NewScheduler(clock, opts.Trigger)

	return &Instance{
		Rotation:     rotationService,
		Announcement: newAnnouncement(dm, slackClient, rotationService, scheduler, opts.Messages),
		Scheduler:    scheduler,
	}
}
