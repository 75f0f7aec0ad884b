package service

import (
	"campus-events-backend/cmd/campus-events/model"
	"context"
	"strconv"
	"strings"
	"time"
)

type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type UserStore interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUser(ctx context.Context, id string) (model.User, error)
	GetUserByEmail(ctx context.Context, email string) (model.User, error)
	GetUserByResetToken(ctx context.Context, tokenHash string, now time.Time) (model.User, error)
	GetUserByVerificationToken(ctx context.Context, tokenHash string, now time.Time) (model.User, error)
	UpdateUser(ctx context.Context, user *model.User) error
	ListUsers(ctx context.Context, filter model.UserFilter) ([]model.User, int64, error)
	ListUsersByIDs(ctx context.Context, ids []string) ([]model.User, error)
}

type EventStore interface {
	CreateEvent(ctx context.Context, event *model.Event) error
	GetEvent(ctx context.Context, id string) (model.Event, error)
	UpdateEvent(ctx context.Context, event *model.Event) error
	ListEvents(ctx context.Context, filter model.EventFilter) ([]model.Event, int64, error)
	ListEventsByIDs(ctx context.Context, ids []string) ([]model.Event, error)
	ClaimSlot(ctx context.Context, eventID string) (bool, error)
	HasApprovalSeat(ctx context.Context, eventID string) (bool, error)
	UpdateCounters(ctx context.Context, eventID string, counters model.EventCounters) error
	CountEventsByCategory(ctx context.Context, categoryID string) (int64, error)
	ListEventsNeedingReminder(ctx context.Context, now time.Time, window time.Duration) ([]model.Event, error)
	MarkReminderSent(ctx context.Context, eventID string, at time.Time) error
}

type CategoryStore interface {
	CreateCategory(ctx context.Context, category *model.Category) error
	GetCategory(ctx context.Context, id string) (model.Category, error)
	UpdateCategory(ctx context.Context, category *model.Category) error
	DeleteCategory(ctx context.Context, id string) error
	ListCategories(ctx context.Context, activeOnly bool) ([]model.Category, error)
	ReparentChildren(ctx context.Context, id string, newParent *string) error
}

type RegistrationStore interface {
	CreateRegistration(ctx context.Context, registration *model.Registration) error
	GetRegistration(ctx context.Context, id string) (model.Registration, error)
	ExistsRegistration(ctx context.Context, eventID, participantID string) (bool, error)
	UpdateRegistration(ctx context.Context, registration *model.Registration) error
	NextRegistrationNumber(ctx context.Context) (int64, error)
	CountByStatus(ctx context.Context, eventID string) (map[model.RegistrationStatus]int64, error)
	ListRegistrations(ctx context.Context, filter model.RegistrationFilter) ([]model.Registration, int64, error)
	ListAllRegistrations(ctx context.Context, filter model.RegistrationFilter) ([]model.Registration, error)
}

type NotificationStore interface {
	CreateNotification(ctx context.Context, notification *model.Notification) error
	CreateNotifications(ctx context.Context, notifications []model.Notification) error
	GetNotification(ctx context.Context, id string) (model.Notification, error)
	UpdateNotification(ctx context.Context, notification *model.Notification) error
	DeleteNotification(ctx context.Context, id string) error
	ListNotifications(ctx context.Context, filter model.NotificationFilter) ([]model.Notification, int64, error)
	CountUnread(ctx context.Context, recipientID string, now time.Time) (int64, error)
	MarkAllRead(ctx context.Context, recipientID string, now time.Time) (int64, error)
	ListDue(ctx context.Context, now time.Time, grace time.Duration, limit int) ([]model.Notification, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// parseBool reads an optional boolean query parameter.
func parseBool(field, raw string) (*bool, error) {
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, model.ErrValidation("%s must be true or false", field)
	}
	return &v, nil
}

// parseTime reads an optional RFC 3339 or date-only query parameter.
func parseTime(field, raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t, nil
		}
	}
	return nil, model.ErrValidation("%s must be a date", field)
}

// parseStatuses reads a comma separated registration status list.
func parseStatuses(raw string) ([]model.RegistrationStatus, error) {
	if raw == "" {
		return nil, nil
	}
	var statuses []model.RegistrationStatus
	for _, part := range strings.Split(raw, ",") {
		s := model.RegistrationStatus(strings.TrimSpace(part))
		if !s.Valid() {
			return nil, model.ErrValidation("invalid registration status %q", s)
		}
		statuses = append(statuses, s)
	}
	return statuses, nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
