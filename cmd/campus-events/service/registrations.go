package service

import (
	"bufio"
	"bytes"
	"campus-events-backend/cmd/campus-events/model"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/google/uuid"
	"github.com/labstack/gommon/log"
)

// Notifier is the notification capability handed to services that emit
// notifications as a side effect.
type Notifier interface {
	Send(ctx context.Context, sender *model.Actor, req model.NotificationRequest) (model.Notification, error)
	SendBulk(ctx context.Context, sender *model.Actor, req model.BulkNotificationRequest) (model.BulkNotificationResult, error)
}

type RegistrationService struct {
	tx            Transactor
	events        EventStore
	registrations RegistrationStore
	users         UserStore
	capacity      *CapacityAccountant
	notifier      Notifier
	logger        *log.Logger
	now           func() time.Time
}

func NewRegistrationService(
	tx Transactor,
	events EventStore,
	registrations RegistrationStore,
	users UserStore,
	notifier Notifier,
	logger *log.Logger,
) *RegistrationService {
	return &RegistrationService{
		tx:            tx,
		events:        events,
		registrations: registrations,
		users:         users,
		capacity:      NewCapacityAccountant(events, registrations),
		notifier:      notifier,
		logger:        logger,
		now:           time.Now,
	}
}

// Register admits actor to an event. The admission status is decided
// inside the transaction that persists the registration.
func (s *RegistrationService) Register(ctx context.Context, actor model.Actor, req model.RegistrationRequest) (model.Registration, error) {
	if req.Source == "" {
		req.Source = model.SourceWeb
	}
	return s.register(ctx, actor.ID, req)
}

func (s *RegistrationService) register(ctx context.Context, participantID string, req model.RegistrationRequest) (model.Registration, error) {
	now := s.now()

	participant, err := s.users.GetUser(ctx, participantID)
	if err != nil {
		return model.Registration{}, err
	}
	if !participant.IsActive {
		return model.Registration{}, model.ErrNotFound("user not found")
	}

	var (
		registration model.Registration
		event        model.Event
	)

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		event, err = s.events.GetEvent(ctx, req.EventID)
		if err != nil {
			return err
		}
		if err := event.CheckRegistrationOpen(now); err != nil {
			return err
		}

		exists, err := s.registrations.ExistsRegistration(ctx, event.ID, participantID)
		if err != nil {
			return err
		}
		if exists {
			return model.ErrConflict("already registered for this event")
		}

		status, err := s.admit(ctx, event)
		if err != nil {
			return err
		}

		seq, err := s.registrations.NextRegistrationNumber(ctx)
		if err != nil {
			return err
		}

		id, err := uuid.NewV7()
		if err != nil {
			return model.ErrInternal(err, "failed to generate registration id")
		}

		registration = model.Registration{
			ID:                  id.String(),
			EventID:             event.ID,
			ParticipantID:       participantID,
			RegistrationNumber:  model.FormatRegistrationNumber(now.Year(), seq),
			Status:              status,
			RegistrationDate:    now,
			AdditionalInfo:      req.AdditionalInfo,
			DietaryRestrictions: nonNil(req.DietaryRestrictions),
			SpecialRequirements: req.SpecialRequirements,
			Source:              req.Source,
			CreateDate:          now,
			UpdateDate:          now,
		}
		if req.EmergencyContact != nil {
			registration.EmergencyContact = *req.EmergencyContact
		}
		if status == model.RegistrationConfirmed {
			registration.ConfirmationDate = &now
		}

		if err := s.registrations.CreateRegistration(ctx, &registration); err != nil {
			return err
		}

		_, err = s.capacity.Recompute(ctx, event.ID)
		return err
	})
	if err != nil {
		return model.Registration{}, err
	}

	s.logger.Infoj(log.JSON{
		"message":         "registration created",
		"registration_id": registration.ID,
		"event_id":        event.ID,
		"status":          registration.Status,
	})

	s.notifyRegistered(ctx, participant, event, registration)

	return registration, nil
}

// admit picks the status of a new registration: approval-required events
// always take pending, otherwise a claimed seat confirms and a full event
// waitlists.
func (s *RegistrationService) admit(ctx context.Context, event model.Event) (model.RegistrationStatus, error) {
	if event.RequiresApproval {
		return model.RegistrationPending, nil
	}

	claimed, err := s.capacity.Claim(ctx, event.ID)
	if err != nil {
		return "", err
	}
	if !claimed {
		return model.RegistrationWaitlisted, nil
	}

	return model.RegistrationConfirmed, nil
}

func (s *RegistrationService) notifyRegistered(ctx context.Context, participant model.User, event model.Event, registration model.Registration) {
	var title, message string
	switch registration.Status {
	case model.RegistrationConfirmed:
		title = "Registration Confirmed"
		message = fmt.Sprintf("Your registration for %s is confirmed. Registration number: %s",
			event.Title, registration.RegistrationNumber)
	case model.RegistrationWaitlisted:
		title = "Added to Waitlist"
		message = fmt.Sprintf("%s is full. You are on the waitlist with registration number %s",
			event.Title, registration.RegistrationNumber)
	default:
		title = "Registration Received"
		message = fmt.Sprintf("Your registration for %s is awaiting organizer approval. Registration number: %s",
			event.Title, registration.RegistrationNumber)
	}

	email := participant.Preferences.Data().EmailNotifications
	s.notify(ctx, model.NotificationRequest{
		RecipientID: participant.ID,
		Type:        model.NotificationEventRegistration,
		Title:       title,
		Message:     message,
		Data: &model.NotificationData{
			EventID:        event.ID,
			RegistrationID: registration.ID,
		},
		Channels: &model.ChannelsRequest{Email: &email},
		Priority: model.PriorityNormal,
	})
}

// notify sends a side-effect notification. Failures are logged and never
// reach the caller.
func (s *RegistrationService) notify(ctx context.Context, req model.NotificationRequest) {
	if _, err := s.notifier.Send(ctx, nil, req); err != nil {
		s.logger.Errorj(log.JSON{
			"message":      "failed to send registration notification",
			"recipient_id": req.RecipientID,
			"type":         req.Type,
			"error":        err.Error(),
		})
	}
}

// mutate loads a registration and its event inside a transaction, runs fn
// and persists the result, recomputing the event counters when recompute
// is set.
func (s *RegistrationService) mutate(
	ctx context.Context,
	id string,
	recompute bool,
	fn func(ctx context.Context, registration *model.Registration, event model.Event) error,
) (model.Registration, model.Event, error) {
	var (
		registration model.Registration
		event        model.Event
	)

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		registration, err = s.registrations.GetRegistration(ctx, id)
		if err != nil {
			return err
		}
		event, err = s.events.GetEvent(ctx, registration.EventID)
		if err != nil {
			return err
		}

		if err := fn(ctx, &registration, event); err != nil {
			return err
		}

		if err := s.registrations.UpdateRegistration(ctx, &registration); err != nil {
			return err
		}
		if !recompute {
			return nil
		}

		_, err = s.capacity.Recompute(ctx, event.ID)
		return err
	})
	if err != nil {
		return model.Registration{}, model.Event{}, err
	}

	return registration, event, nil
}

// Cancel is the participant's own cancellation.
func (s *RegistrationService) Cancel(ctx context.Context, actor model.Actor, id, reason string) (model.Registration, error) {
	now := s.now()

	registration, _, err := s.mutate(ctx, id, true, func(ctx context.Context, r *model.Registration, event model.Event) error {
		if r.ParticipantID != actor.ID {
			return model.ErrForbidden("you can only cancel your own registration")
		}
		if !now.Before(event.StartDate) {
			return model.ErrState("cannot cancel registration for an event that has already started")
		}
		return r.Cancel(reason, now)
	})
	if err != nil {
		return model.Registration{}, err
	}

	s.logger.Infoj(log.JSON{
		"message":         "registration cancelled",
		"registration_id": registration.ID,
		"event_id":        registration.EventID,
	})

	return registration, nil
}

// UpdateStatus is the organizer transition. Only edges in the transition
// table are accepted; confirming a waitlisted or pending registration needs
// a free seat.
func (s *RegistrationService) UpdateStatus(ctx context.Context, actor model.Actor, id string, req model.RegistrationStatusRequest) (model.Registration, error) {
	now := s.now()

	var from model.RegistrationStatus
	registration, event, err := s.mutate(ctx, id, true, func(ctx context.Context, r *model.Registration, event model.Event) error {
		if !event.ManagedBy(actor) {
			return model.ErrForbidden("not authorized to manage registrations for this event")
		}

		from = r.Status
		if err := r.SetStatus(req.Status, now); err != nil {
			return err
		}

		if req.Status == model.RegistrationConfirmed {
			if err := s.seatFor(ctx, event.ID, from); err != nil {
				return err
			}
		}

		if req.Notes != "" {
			r.Notes = req.Notes
		}
		if req.Status == model.RegistrationCancelled && req.Notes != "" {
			r.CancellationReason = req.Notes
		}
		return nil
	})
	if err != nil {
		return model.Registration{}, err
	}

	s.logger.Infoj(log.JSON{
		"message":         "registration status updated",
		"registration_id": registration.ID,
		"from":            from,
		"to":              registration.Status,
		"actor_id":        actor.ID,
	})

	s.notifyStatusChange(ctx, event, registration, from)

	return registration, nil
}

// seatFor secures a seat for a registration moving to confirmed. A
// waitlisted registration claims one; a pending one already counts toward
// registration_count and only needs a confirmed seat to be free.
func (s *RegistrationService) seatFor(ctx context.Context, eventID string, from model.RegistrationStatus) error {
	var (
		ok  bool
		err error
	)
	switch from {
	case model.RegistrationWaitlisted:
		ok, err = s.capacity.Claim(ctx, eventID)
	case model.RegistrationPending:
		ok, err = s.capacity.CanApprove(ctx, eventID)
	default:
		return nil
	}
	if err != nil {
		return err
	}
	if !ok {
		return model.ErrState("event is full")
	}
	return nil
}

func (s *RegistrationService) notifyStatusChange(ctx context.Context, event model.Event, registration model.Registration, from model.RegistrationStatus) {
	req := model.NotificationRequest{
		RecipientID: registration.ParticipantID,
		Type:        model.NotificationEventUpdate,
		Title:       "Registration Updated",
		Message:     fmt.Sprintf("Your registration for %s is now %s", event.Title, registration.Status),
		Data: &model.NotificationData{
			EventID:        event.ID,
			RegistrationID: registration.ID,
		},
	}

	switch {
	case registration.Status == model.RegistrationConfirmed:
		req.Type = model.NotificationEventApproval
		req.Title = "Registration Approved"
		req.Message = fmt.Sprintf("Your registration for %s has been confirmed", event.Title)
	case from == model.RegistrationPending && registration.Status == model.RegistrationCancelled:
		req.Type = model.NotificationEventRejection
		req.Title = "Registration Declined"
		req.Message = fmt.Sprintf("Your registration for %s was not approved", event.Title)
	}

	s.notify(ctx, req)
}

func (s *RegistrationService) CheckIn(ctx context.Context, actor model.Actor, id string) (model.Registration, error) {
	now := s.now()

	registration, _, err := s.mutate(ctx, id, true, func(ctx context.Context, r *model.Registration, event model.Event) error {
		if !event.ManagedBy(actor) {
			return model.ErrForbidden("not authorized to check in participants for this event")
		}
		if r.Status == model.RegistrationCancelled {
			return model.ErrState("cannot check in a cancelled registration")
		}
		r.CheckIn(actor.ID, now)
		return nil
	})

	return registration, err
}

func (s *RegistrationService) CheckOut(ctx context.Context, actor model.Actor, id string) (model.Registration, error) {
	now := s.now()

	registration, _, err := s.mutate(ctx, id, false, func(ctx context.Context, r *model.Registration, event model.Event) error {
		if !event.ManagedBy(actor) {
			return model.ErrForbidden("not authorized to check out participants for this event")
		}
		r.CheckOut(actor.ID, now)
		return nil
	})

	return registration, err
}

func (s *RegistrationService) SubmitFeedback(ctx context.Context, actor model.Actor, id string, req model.FeedbackRequest) (model.Registration, error) {
	now := s.now()

	registration, _, err := s.mutate(ctx, id, false, func(ctx context.Context, r *model.Registration, event model.Event) error {
		if r.ParticipantID != actor.ID {
			return model.ErrForbidden("you can only submit feedback for your own registration")
		}
		return r.SubmitFeedback(req.Rating, req.Comment, req.WouldRecommend, now)
	})

	return registration, err
}

// Get returns a registration to its participant or to a manager of its
// event.
func (s *RegistrationService) Get(ctx context.Context, actor model.Actor, id string) (model.RegistrationView, error) {
	registration, err := s.registrations.GetRegistration(ctx, id)
	if err != nil {
		return model.RegistrationView{}, err
	}

	event, err := s.events.GetEvent(ctx, registration.EventID)
	if err != nil {
		return model.RegistrationView{}, err
	}

	if registration.ParticipantID != actor.ID && !event.ManagedBy(actor) {
		return model.RegistrationView{}, model.ErrForbidden("not authorized to view this registration")
	}

	return model.RegistrationView{Registration: registration, Event: &event}, nil
}

func (s *RegistrationService) ListMine(ctx context.Context, actor model.Actor, q model.RegistrationListQuery) (model.Page[model.RegistrationView], error) {
	statuses, err := parseStatuses(q.Status)
	if err != nil {
		return model.Page[model.RegistrationView]{}, err
	}

	return s.list(ctx, model.RegistrationFilter{
		EventID:       q.EventID,
		ParticipantID: actor.ID,
		Statuses:      statuses,
		Page:          q.PageQuery,
	})
}

// ListAll is the administrator's view across every event.
func (s *RegistrationService) ListAll(ctx context.Context, q model.RegistrationListQuery) (model.Page[model.RegistrationView], error) {
	statuses, err := parseStatuses(q.Status)
	if err != nil {
		return model.Page[model.RegistrationView]{}, err
	}

	return s.list(ctx, model.RegistrationFilter{
		EventID:  q.EventID,
		Statuses: statuses,
		Page:     q.PageQuery,
	})
}

func (s *RegistrationService) ListForEvent(ctx context.Context, actor model.Actor, eventID string, q model.RegistrationListQuery) (model.Page[model.RegistrationView], error) {
	if _, err := s.managedEvent(ctx, actor, eventID); err != nil {
		return model.Page[model.RegistrationView]{}, err
	}

	statuses, err := parseStatuses(q.Status)
	if err != nil {
		return model.Page[model.RegistrationView]{}, err
	}

	return s.list(ctx, model.RegistrationFilter{
		EventID:  eventID,
		Statuses: statuses,
		Page:     q.PageQuery,
	})
}

func (s *RegistrationService) list(ctx context.Context, filter model.RegistrationFilter) (model.Page[model.RegistrationView], error) {
	registrations, total, err := s.registrations.ListRegistrations(ctx, filter)
	if err != nil {
		return model.Page[model.RegistrationView]{}, err
	}

	views, err := s.withEvents(ctx, registrations)
	if err != nil {
		return model.Page[model.RegistrationView]{}, err
	}

	return model.Page[model.RegistrationView]{
		Items: views,
		Total: total,
		Query: filter.Page.Normalize(),
	}, nil
}

// withEvents attaches the referenced events to registrations.
func (s *RegistrationService) withEvents(ctx context.Context, registrations []model.Registration) ([]model.RegistrationView, error) {
	ids := make([]string, 0, len(registrations))
	for _, r := range registrations {
		ids = append(ids, r.EventID)
	}

	events, err := s.events.ListEventsByIDs(ctx, dedupe(ids))
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*model.Event, len(events))
	for i := range events {
		byID[events[i].ID] = &events[i]
	}

	views := make([]model.RegistrationView, 0, len(registrations))
	for _, r := range registrations {
		views = append(views, model.RegistrationView{Registration: r, Event: byID[r.EventID]})
	}
	return views, nil
}

func (s *RegistrationService) managedEvent(ctx context.Context, actor model.Actor, eventID string) (model.Event, error) {
	event, err := s.events.GetEvent(ctx, eventID)
	if err != nil {
		return model.Event{}, err
	}
	if !event.ManagedBy(actor) {
		return model.Event{}, model.ErrForbidden("not authorized to manage registrations for this event")
	}
	return event, nil
}

// Attendance lists the checked-in registrations of an event.
func (s *RegistrationService) Attendance(ctx context.Context, actor model.Actor, eventID string) ([]model.Registration, error) {
	if _, err := s.managedEvent(ctx, actor, eventID); err != nil {
		return nil, err
	}

	checkedIn := true
	return s.registrations.ListAllRegistrations(ctx, model.RegistrationFilter{
		EventID:   eventID,
		CheckedIn: &checkedIn,
	})
}

// Export writes the registrations of an event as CSV.
func (s *RegistrationService) Export(ctx context.Context, actor model.Actor, eventID string, w io.Writer) error {
	if _, err := s.managedEvent(ctx, actor, eventID); err != nil {
		return err
	}

	registrations, err := s.registrations.ListAllRegistrations(ctx, model.RegistrationFilter{EventID: eventID})
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
	byID := make(map[string]model.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	rows := make([]model.RegistrationCSV, 0, len(registrations))
	for _, r := range registrations {
		u := byID[r.ParticipantID]
		row := model.RegistrationCSV{
			RegistrationNumber: r.RegistrationNumber,
			FirstName:          u.FirstName,
			LastName:           u.LastName,
			Email:              u.Email,
			Status:             string(r.Status),
			RegistrationDate:   r.RegistrationDate.UTC().Format(time.RFC3339),
			CheckedIn:          r.Attendance.CheckedIn,
			Source:             string(r.Source),
		}
		if r.Attendance.CheckedInAt != nil {
			row.CheckedInAt = r.Attendance.CheckedInAt.UTC().Format(time.RFC3339)
		}
		rows = append(rows, row)
	}

	if err := gocsv.Marshal(rows, w); err != nil {
		return model.ErrInternal(err, "failed to write registrations csv")
	}
	return nil
}

// Import registers every participant listed in a CSV file. Each row runs
// through the normal admission path in its own transaction; row failures
// are reported, not returned.
func (s *RegistrationService) Import(ctx context.Context, actor model.Actor, eventID string, r io.Reader) ([]model.RegistrationImportResult, error) {
	if _, err := s.managedEvent(ctx, actor, eventID); err != nil {
		return nil, err
	}

	var rows []model.RegistrationImportRow
	if err := gocsv.Unmarshal(skipBOM(r), &rows); err != nil {
		return nil, model.ErrValidation("invalid csv: %v", err)
	}

	results := make([]model.RegistrationImportResult, 0, len(rows))
	for i, row := range rows {
		result := model.RegistrationImportResult{
			Row:   i + 1,
			Email: strings.TrimSpace(row.Email),
		}

		registration, err := s.importRow(ctx, eventID, row)
		if err != nil {
			result.Error = err.Error()
			if model.KindOf(err) == model.KindInternal {
				result.Error = "internal error"
			}
		} else {
			result.RegistrationID = registration.ID
			result.RegistrationNumber = registration.RegistrationNumber
			result.Status = registration.Status
		}
		results = append(results, result)
	}

	s.logger.Infoj(log.JSON{
		"message":  "registration import finished",
		"event_id": eventID,
		"rows":     len(rows),
		"actor_id": actor.ID,
	})

	return results, nil
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// skipBOM drops the byte order mark spreadsheet exports put in front of
// the header row.
func skipBOM(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}
	return br
}

func (s *RegistrationService) importRow(ctx context.Context, eventID string, row model.RegistrationImportRow) (model.Registration, error) {
	email := strings.TrimSpace(row.Email)
	if email == "" {
		return model.Registration{}, model.ErrValidation("email is required")
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if model.IsKind(err, model.KindNotFound) {
			return model.Registration{}, model.ErrNotFound("no user with email %s", email)
		}
		return model.Registration{}, err
	}

	return s.register(ctx, user.ID, model.RegistrationRequest{
		EventID:             eventID,
		AdditionalInfo:      row.AdditionalInfo,
		SpecialRequirements: row.SpecialRequirements,
		Source:              model.SourceImport,
	})
}

// Recompute rebuilds the counters of an event on demand.
func (s *RegistrationService) Recompute(ctx context.Context, actor model.Actor, eventID string) (model.EventCounters, error) {
	if _, err := s.managedEvent(ctx, actor, eventID); err != nil {
		return model.EventCounters{}, err
	}

	var counters model.EventCounters
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		counters, err = s.capacity.Recompute(ctx, eventID)
		return err
	})

	return counters, err
}
