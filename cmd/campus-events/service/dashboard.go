package service

import (
	"campus-events-backend/cmd/campus-events/model"
	"context"
	"time"
)

const recentNotificationCount = 5

type DashboardService struct {
	registrations RegistrationStore
	events        EventStore
	notifications *NotificationService
	now           func() time.Time
}

func NewDashboardService(registrations RegistrationStore, events EventStore, notifications *NotificationService) *DashboardService {
	return &DashboardService{
		registrations: registrations,
		events:        events,
		notifications: notifications,
		now:           time.Now,
	}
}

// Participant splits the caller's registrations into upcoming, completed
// and cancelled and adds the newest notifications.
func (s *DashboardService) Participant(ctx context.Context, actor model.Actor) (model.ParticipantDashboard, error) {
	now := s.now()

	registrations, err := s.registrations.ListAllRegistrations(ctx, model.RegistrationFilter{ParticipantID: actor.ID})
	if err != nil {
		return model.ParticipantDashboard{}, err
	}

	ids := make([]string, 0, len(registrations))
	for _, r := range registrations {
		ids = append(ids, r.EventID)
	}
	events, err := s.events.ListEventsByIDs(ctx, dedupe(ids))
	if err != nil {
		return model.ParticipantDashboard{}, err
	}
	byID := make(map[string]*model.Event, len(events))
	for i := range events {
		byID[events[i].ID] = &events[i]
	}

	dashboard := model.ParticipantDashboard{
		Upcoming:  []model.RegistrationView{},
		Completed: []model.RegistrationView{},
		Cancelled: []model.RegistrationView{},
	}
	for _, r := range registrations {
		event := byID[r.EventID]
		view := model.RegistrationView{Registration: r, Event: event}
		switch {
		case r.Status == model.RegistrationCancelled:
			dashboard.Cancelled = append(dashboard.Cancelled, view)
		case event == nil:
		case event.StartDate.After(now) && (r.Status == model.RegistrationConfirmed ||
			r.Status == model.RegistrationPending || r.Status == model.RegistrationWaitlisted):
			dashboard.Upcoming = append(dashboard.Upcoming, view)
		case r.Status == model.RegistrationAttended || event.EndDate.Before(now):
			dashboard.Completed = append(dashboard.Completed, view)
		}
	}

	recent, err := s.notifications.Recent(ctx, actor.ID, recentNotificationCount)
	if err != nil {
		return model.ParticipantDashboard{}, err
	}
	if recent == nil {
		recent = []model.Notification{}
	}
	dashboard.RecentNotifications = recent

	return dashboard, nil
}
