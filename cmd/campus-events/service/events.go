package service

import (
	"campus-events-backend/cmd/campus-events/model"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/gommon/log"
	"github.com/lib/pq"
)

// ReminderWindow is how far ahead of the start date reminders go out.
const ReminderWindow = 24 * time.Hour

type EventService struct {
	events        EventStore
	categories    CategoryStore
	registrations RegistrationStore
	users         UserStore
	notifier      Notifier
	logger        *log.Logger
	now           func() time.Time
}

func NewEventService(
	events EventStore,
	categories CategoryStore,
	registrations RegistrationStore,
	users UserStore,
	notifier Notifier,
	logger *log.Logger,
) *EventService {
	return &EventService{
		events:        events,
		categories:    categories,
		registrations: registrations,
		users:         users,
		notifier:      notifier,
		logger:        logger,
		now:           time.Now,
	}
}

func (s *EventService) checkCategory(ctx context.Context, id string) error {
	category, err := s.categories.GetCategory(ctx, id)
	if err != nil {
		if model.IsKind(err, model.KindNotFound) {
			return model.ErrValidation("category not found")
		}
		return err
	}
	if !category.IsActive {
		return model.ErrValidation("category is not active")
	}
	return nil
}

func (s *EventService) Create(ctx context.Context, actor model.Actor, req model.EventRequest) (model.Event, error) {
	now := s.now()

	if err := s.checkCategory(ctx, req.CategoryID); err != nil {
		return model.Event{}, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return model.Event{}, model.ErrInternal(err, "failed to generate event id")
	}

	event := model.Event{
		ID:                   id.String(),
		Title:                strings.TrimSpace(req.Title),
		Description:          req.Description,
		ShortDescription:     req.ShortDescription,
		StartDate:            req.StartDate,
		EndDate:              req.EndDate,
		RegistrationDeadline: req.RegistrationDeadline,
		Venue:                req.Venue,
		VenueAddress:         req.VenueAddress,
		Capacity:             req.Capacity,
		CategoryID:           req.CategoryID,
		OrganizerID:          actor.ID,
		Status:               req.Status,
		IsPublic:             true,
		RequiresApproval:     req.RequiresApproval,
		IsFeatured:           req.IsFeatured,
		IsActive:             true,
		Tags:                 pq.StringArray(nonNil(req.Tags)),
		Requirements:         req.Requirements,
		CreateDate:           now,
		UpdateDate:           now,
	}
	if event.Status == "" {
		event.Status = model.EventDraft
	}
	if req.IsPublic != nil {
		event.IsPublic = *req.IsPublic
	}
	event.Slug = model.Slugify(event.Title, now)

	if err := event.ValidateSchedule(now, true); err != nil {
		return model.Event{}, err
	}

	if err := s.events.CreateEvent(ctx, &event); err != nil {
		return model.Event{}, err
	}

	s.logger.Infoj(log.JSON{
		"message":      "event created",
		"event_id":     event.ID,
		"organizer_id": actor.ID,
	})

	return event, nil
}

// Get hides events the caller may not see behind a not found.
func (s *EventService) Get(ctx context.Context, actor *model.Actor, id string) (model.Event, error) {
	event, err := s.events.GetEvent(ctx, id)
	if err != nil {
		return model.Event{}, err
	}
	if !event.VisibleTo(actor) {
		return model.Event{}, model.ErrNotFound("event not found")
	}
	return event, nil
}

func (s *EventService) filter(q model.EventListQuery) (model.EventFilter, error) {
	featured, err := parseBool("featured", q.Featured)
	if err != nil {
		return model.EventFilter{}, err
	}
	from, err := parseTime("start_from", q.StartFrom)
	if err != nil {
		return model.EventFilter{}, err
	}
	to, err := parseTime("start_to", q.StartTo)
	if err != nil {
		return model.EventFilter{}, err
	}

	return model.EventFilter{
		Search:      strings.TrimSpace(q.Search),
		CategoryID:  q.Category,
		OrganizerID: q.Organizer,
		Status:      model.EventStatus(q.Status),
		Featured:    featured,
		StartFrom:   from,
		StartTo:     to,
		ActiveOnly:  true,
		Sort:        q.Sort,
		Desc:        strings.EqualFold(q.Order, "desc"),
		Page:        q.PageQuery,
	}, nil
}

// List applies the caller's visibility: anonymous callers and participants
// see public published events, organizers additionally see their own, and
// administrators see everything active.
func (s *EventService) List(ctx context.Context, actor *model.Actor, q model.EventListQuery) (model.Page[model.Event], error) {
	filter, err := s.filter(q)
	if err != nil {
		return model.Page[model.Event]{}, err
	}

	switch {
	case actor != nil && actor.IsAdmin():
	case actor != nil && actor.Role == model.RoleOrganizer && filter.OrganizerID == actor.ID:
	default:
		filter.PublicOnly = true
	}

	return s.list(ctx, filter)
}

// MyEvents lists the events organized by actor in every status.
func (s *EventService) MyEvents(ctx context.Context, actor model.Actor, q model.EventListQuery) (model.Page[model.Event], error) {
	filter, err := s.filter(q)
	if err != nil {
		return model.Page[model.Event]{}, err
	}
	filter.OrganizerID = actor.ID

	return s.list(ctx, filter)
}

func (s *EventService) list(ctx context.Context, filter model.EventFilter) (model.Page[model.Event], error) {
	events, total, err := s.events.ListEvents(ctx, filter)
	if err != nil {
		return model.Page[model.Event]{}, err
	}

	return model.Page[model.Event]{
		Items: events,
		Total: total,
		Query: filter.Page.Normalize(),
	}, nil
}

func (s *EventService) managed(ctx context.Context, actor model.Actor, id string) (model.Event, error) {
	event, err := s.events.GetEvent(ctx, id)
	if err != nil {
		return model.Event{}, err
	}
	if !event.IsActive {
		return model.Event{}, model.ErrNotFound("event not found")
	}
	if !event.ManagedBy(actor) {
		return model.Event{}, model.ErrForbidden("not authorized to manage this event")
	}
	return event, nil
}

// Update merges the changes, validates the result and notifies registrants
// when the event is cancelled.
func (s *EventService) Update(ctx context.Context, actor model.Actor, id string, req model.EventUpdateRequest) (model.Event, error) {
	now := s.now()

	event, err := s.managed(ctx, actor, id)
	if err != nil {
		return model.Event{}, err
	}
	previous := event.Status

	if req.Title != nil && strings.TrimSpace(*req.Title) != event.Title {
		event.Title = strings.TrimSpace(*req.Title)
		event.Slug = model.Slugify(event.Title, now)
	}
	if req.Description != nil {
		event.Description = *req.Description
	}
	if req.ShortDescription != nil {
		event.ShortDescription = *req.ShortDescription
	}
	startChanged := req.StartDate != nil && !req.StartDate.Equal(event.StartDate)
	if req.StartDate != nil {
		event.StartDate = *req.StartDate
	}
	if req.EndDate != nil {
		event.EndDate = *req.EndDate
	}
	if req.RegistrationDeadline != nil {
		event.RegistrationDeadline = req.RegistrationDeadline
	}
	if req.Venue != nil {
		event.Venue = *req.Venue
	}
	if req.VenueAddress != nil {
		event.VenueAddress = *req.VenueAddress
	}
	if req.Capacity != nil {
		event.Capacity = *req.Capacity
	}
	if req.CategoryID != nil && *req.CategoryID != event.CategoryID {
		if err := s.checkCategory(ctx, *req.CategoryID); err != nil {
			return model.Event{}, err
		}
		event.CategoryID = *req.CategoryID
	}
	if req.Status != nil {
		event.Status = *req.Status
	}
	if req.IsPublic != nil {
		event.IsPublic = *req.IsPublic
	}
	if req.RequiresApproval != nil {
		event.RequiresApproval = *req.RequiresApproval
	}
	if req.IsFeatured != nil {
		event.IsFeatured = *req.IsFeatured
	}
	if req.Tags != nil {
		event.Tags = pq.StringArray(req.Tags)
	}
	if req.Requirements != nil {
		event.Requirements = *req.Requirements
	}

	if err := event.ValidateSchedule(now, startChanged); err != nil {
		return model.Event{}, err
	}
	if event.Capacity < event.RegistrationCount {
		return model.Event{}, model.ErrValidation("capacity cannot be lower than the %d seats already taken", event.RegistrationCount)
	}
	event.UpdateDate = now

	if err := s.events.UpdateEvent(ctx, &event); err != nil {
		return model.Event{}, err
	}

	if previous != model.EventCancelled && event.Status == model.EventCancelled {
		s.notifyCancelled(ctx, actor, event)
	}

	return event, nil
}

func (s *EventService) notifyCancelled(ctx context.Context, actor model.Actor, event model.Event) {
	registrations, err := s.registrations.ListAllRegistrations(ctx, model.RegistrationFilter{
		EventID: event.ID,
		Statuses: []model.RegistrationStatus{
			model.RegistrationPending,
			model.RegistrationConfirmed,
			model.RegistrationWaitlisted,
		},
	})
	if err != nil {
		s.logger.Errorj(log.JSON{
			"message":  "failed to load registrants of cancelled event",
			"event_id": event.ID,
			"error":    err.Error(),
		})
		return
	}
	if len(registrations) == 0 {
		return
	}

	ids := make([]string, 0, len(registrations))
	for _, r := range registrations {
		ids = append(ids, r.ParticipantID)
	}

	email := true
	_, err = s.notifier.SendBulk(ctx, &actor, model.BulkNotificationRequest{
		RecipientIDs: ids,
		Type:         model.NotificationEventCancellation,
		Title:        "Event Cancelled",
		Message:      fmt.Sprintf("%s scheduled for %s has been cancelled", event.Title, event.StartDate.UTC().Format(time.RFC1123)),
		Data:         &model.NotificationData{EventID: event.ID},
		Channels:     &model.ChannelsRequest{Email: &email},
		Priority:     model.PriorityHigh,
	})
	if err != nil {
		s.logger.Errorj(log.JSON{
			"message":  "failed to notify registrants of cancelled event",
			"event_id": event.ID,
			"error":    err.Error(),
		})
	}
}

// Delete is a soft delete; the event and its registrations stay stored.
func (s *EventService) Delete(ctx context.Context, actor model.Actor, id string) error {
	event, err := s.managed(ctx, actor, id)
	if err != nil {
		return err
	}

	event.IsActive = false
	event.UpdateDate = s.now()
	if err := s.events.UpdateEvent(ctx, &event); err != nil {
		return err
	}

	s.logger.Infoj(log.JSON{
		"message":  "event deleted",
		"event_id": id,
		"actor_id": actor.ID,
	})

	return nil
}

// SendDueReminders notifies confirmed registrants of events starting within
// the reminder window, once per event. It returns the number of events
// reminded.
func (s *EventService) SendDueReminders(ctx context.Context) (int, error) {
	now := s.now()

	events, err := s.events.ListEventsNeedingReminder(ctx, now, ReminderWindow)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, event := range events {
		if err := s.remind(ctx, event); err != nil {
			s.logger.Errorj(log.JSON{
				"message":  "failed to send event reminder",
				"event_id": event.ID,
				"error":    err.Error(),
			})
			continue
		}
		if err := s.events.MarkReminderSent(ctx, event.ID, now); err != nil {
			return sent, err
		}
		sent++
	}

	return sent, nil
}

func (s *EventService) remind(ctx context.Context, event model.Event) error {
	registrations, err := s.registrations.ListAllRegistrations(ctx, model.RegistrationFilter{
		EventID:  event.ID,
		Statuses: []model.RegistrationStatus{model.RegistrationConfirmed},
	})
	if err != nil {
		return err
	}

	ids := make([]string, 0, len(registrations))
	for _, r := range registrations {
		ids = append(ids, r.ParticipantID)
	}
	users, err := s.users.ListUsersByIDs(ctx, dedupe(ids))
	if err != nil {
		return err
	}

	recipients := make([]string, 0, len(users))
	for _, u := range users {
		if u.Preferences.Data().EventReminders {
			recipients = append(recipients, u.ID)
		}
	}
	if len(recipients) == 0 {
		return nil
	}

	email := true
	_, err = s.notifier.SendBulk(ctx, nil, model.BulkNotificationRequest{
		RecipientIDs: recipients,
		Type:         model.NotificationEventReminder,
		Title:        "Event Reminder",
		Message: fmt.Sprintf("%s starts %s at %s",
			event.Title, event.StartDate.UTC().Format(time.RFC1123), event.Venue),
		Data:     &model.NotificationData{EventID: event.ID},
		Channels: &model.ChannelsRequest{Email: &email},
		Priority: model.PriorityHigh,
	})
	return err
}
