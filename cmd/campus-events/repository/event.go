package repository

import (
	"campus-events-backend/cmd/campus-events/model"
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type EventRepo struct {
	db *gorm.DB
}

func NewEventRepo(db *gorm.DB) *EventRepo {
	return &EventRepo{
		db: db,
	}
}

func (r *EventRepo) CreateEvent(ctx context.Context, event *model.Event) error {

	result := conn(ctx, r.db).
		Create(event)

	return translate(result.Error, "event")
}

func (r *EventRepo) GetEvent(ctx context.Context, id string) (model.Event, error) {

	var event model.Event

	result := conn(ctx, r.db).
		Where("id = ?", id).
		First(&event)

	return event, translate(result.Error, "event")
}

// counterColumns are owned by ClaimSlot, UpdateCounters and
// MarkReminderSent. An event edit never writes them.
var counterColumns = []string{
	"registration_count",
	"waitlist_count",
	"attendance_count",
	"reminder_sent_at",
	"create_date",
}

func (r *EventRepo) UpdateEvent(ctx context.Context, event *model.Event) error {

	result := conn(ctx, r.db).
		Model(event).
		Select("*").
		Omit(counterColumns...).
		Updates(event)

	if result.Error != nil {
		return translate(result.Error, "event")
	}
	if result.RowsAffected == 0 {
		return model.ErrNotFound("event not found")
	}

	return nil
}

func (r *EventRepo) ListEvents(ctx context.Context, filter model.EventFilter) ([]model.Event, int64, error) {

	var (
		events []model.Event
		total  int64
	)

	q := conn(ctx, r.db).
		Model(&model.Event{})

	if filter.ActiveOnly {
		q = q.Where("is_active = ?", true)
	}
	if filter.PublicOnly {
		q = q.Where("is_public = ? AND status = ?", true, model.EventPublished)
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		q = q.Where("title ILIKE ? OR description ILIKE ? OR venue ILIKE ?", like, like, like)
	}
	if filter.CategoryID != "" {
		q = q.Where("category_id = ?", filter.CategoryID)
	}
	if filter.OrganizerID != "" {
		q = q.Where("organizer_id = ?", filter.OrganizerID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Featured != nil {
		q = q.Where("is_featured = ?", *filter.Featured)
	}
	if filter.StartFrom != nil {
		q = q.Where("start_date >= ?", *filter.StartFrom)
	}
	if filter.StartTo != nil {
		q = q.Where("start_date <= ?", *filter.StartTo)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, translate(err, "event")
	}

	page := filter.Page.Normalize()
	result := q.
		Order(filter.OrderClause()).
		Limit(page.Limit).
		Offset(page.Offset()).
		Find(&events)

	if result.Error != nil {
		return nil, 0, translate(result.Error, "event")
	}

	return events, total, nil
}

func (r *EventRepo) ListEventsByIDs(ctx context.Context, ids []string) ([]model.Event, error) {

	var events []model.Event

	if len(ids) == 0 {
		return events, nil
	}

	result := conn(ctx, r.db).
		Where("id IN ?", ids).
		Find(&events)

	if result.Error != nil {
		return nil, translate(result.Error, "event")
	}

	return events, nil
}

// ClaimSlot takes one seat if the event is below capacity. It reports
// whether a seat was taken; the check and the increment are one statement.
func (r *EventRepo) ClaimSlot(ctx context.Context, eventID string) (bool, error) {

	result := conn(ctx, r.db).
		Model(&model.Event{}).
		Where("id = ? AND is_active = ? AND registration_count < capacity", eventID, true).
		UpdateColumn("registration_count", gorm.Expr("registration_count + 1"))

	if result.Error != nil {
		return false, translate(result.Error, "event")
	}

	return result.RowsAffected == 1, nil
}

// HasApprovalSeat locks the event row and reports whether the confirmed
// and attended registrations leave room for one more. Concurrent approvals
// queue on the row lock, so each one counts the seats the previous one took.
func (r *EventRepo) HasApprovalSeat(ctx context.Context, eventID string) (bool, error) {

	var event model.Event

	result := conn(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id", "capacity").
		Where("id = ? AND is_active = ?", eventID, true).
		First(&event)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if result.Error != nil {
		return false, translate(result.Error, "event")
	}

	var taken int64

	result = conn(ctx, r.db).
		Model(&model.Registration{}).
		Where("event_id = ? AND status IN ?", eventID, []model.RegistrationStatus{
			model.RegistrationConfirmed,
			model.RegistrationAttended,
		}).
		Count(&taken)

	if result.Error != nil {
		return false, translate(result.Error, "registration")
	}

	return taken < int64(event.Capacity), nil
}

func (r *EventRepo) UpdateCounters(ctx context.Context, eventID string, counters model.EventCounters) error {

	result := conn(ctx, r.db).
		Model(&model.Event{}).
		Where("id = ?", eventID).
		UpdateColumns(map[string]any{
			"registration_count": counters.RegistrationCount,
			"waitlist_count":     counters.WaitlistCount,
			"attendance_count":   counters.AttendanceCount,
			"update_date":        time.Now(),
		})

	if result.Error != nil {
		return translate(result.Error, "event")
	}
	if result.RowsAffected == 0 {
		return model.ErrNotFound("event not found")
	}

	return nil
}

func (r *EventRepo) CountEventsByCategory(ctx context.Context, categoryID string) (int64, error) {

	var total int64

	result := conn(ctx, r.db).
		Model(&model.Event{}).
		Where("category_id = ?", categoryID).
		Count(&total)

	return total, translate(result.Error, "event")
}

// ListEventsNeedingReminder returns published events starting in
// (now, now+window] whose reminder has not gone out.
func (r *EventRepo) ListEventsNeedingReminder(ctx context.Context, now time.Time, window time.Duration) ([]model.Event, error) {

	var events []model.Event

	result := conn(ctx, r.db).
		Where("is_active = ? AND status = ? AND reminder_sent_at IS NULL AND start_date > ? AND start_date <= ?",
			true, model.EventPublished, now, now.Add(window)).
		Order("start_date ASC").
		Find(&events)

	if result.Error != nil {
		return nil, translate(result.Error, "event")
	}

	return events, nil
}

func (r *EventRepo) MarkReminderSent(ctx context.Context, eventID string, at time.Time) error {

	result := conn(ctx, r.db).
		Model(&model.Event{}).
		Where("id = ?", eventID).
		UpdateColumn("reminder_sent_at", at)

	return translate(result.Error, "event")
}
