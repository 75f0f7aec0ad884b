package model

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/lib/pq"
)

type EventStatus string

const (
	EventDraft     EventStatus = "draft"
	EventPublished EventStatus = "published"
	EventCancelled EventStatus = "cancelled"
	EventCompleted EventStatus = "completed"
)

const (
	MaxEventCapacity = 10000
	MinEventCapacity = 1
)

type Event struct {
	ID                   string         `gorm:"column:id;primaryKey" json:"id"`
	Title                string         `gorm:"column:title" json:"title"`
	Slug                 string         `gorm:"column:slug" json:"slug"`
	Description          string         `gorm:"column:description" json:"description"`
	ShortDescription     string         `gorm:"column:short_description" json:"short_description,omitempty"`
	StartDate            time.Time      `gorm:"column:start_date" json:"start_date"`
	EndDate              time.Time      `gorm:"column:end_date" json:"end_date"`
	RegistrationDeadline *time.Time     `gorm:"column:registration_deadline" json:"registration_deadline,omitempty"`
	Venue                string         `gorm:"column:venue" json:"venue"`
	VenueAddress         string         `gorm:"column:venue_address" json:"venue_address,omitempty"`
	Capacity             int            `gorm:"column:capacity" json:"capacity"`
	CategoryID           string         `gorm:"column:category_id" json:"category_id"`
	OrganizerID          string         `gorm:"column:organizer_id" json:"organizer_id"`
	Status               EventStatus    `gorm:"column:status" json:"status"`
	IsPublic             bool           `gorm:"column:is_public" json:"is_public"`
	RequiresApproval     bool           `gorm:"column:requires_approval" json:"requires_approval"`
	IsFeatured           bool           `gorm:"column:is_featured" json:"is_featured"`
	IsActive             bool           `gorm:"column:is_active" json:"is_active"`
	Tags                 pq.StringArray `gorm:"column:tags;type:text[]" json:"tags"`
	Requirements         string         `gorm:"column:requirements" json:"requirements,omitempty"`
	RegistrationCount    int            `gorm:"column:registration_count" json:"registration_count"`
	WaitlistCount        int            `gorm:"column:waitlist_count" json:"waitlist_count"`
	AttendanceCount      int            `gorm:"column:attendance_count" json:"attendance_count"`
	ReminderSentAt       *time.Time     `gorm:"column:reminder_sent_at" json:"-"`
	CreateDate           time.Time      `gorm:"column:create_date" json:"create_date"`
	UpdateDate           time.Time      `gorm:"column:update_date" json:"update_date"`
}

func (m *Event) TableName() string {
	return "events"
}

func (m *Event) AvailableSpots() int {
	spots := m.Capacity - m.RegistrationCount
	if spots < 0 {
		return 0
	}
	return spots
}

func (m *Event) IsFull() bool {
	return m.RegistrationCount >= m.Capacity
}

// ManagedBy reports whether actor may administer the event and its
// registrations.
func (m *Event) ManagedBy(actor Actor) bool {
	if actor.Role == RoleAdmin {
		return true
	}
	return actor.Role == RoleOrganizer && m.OrganizerID == actor.ID
}

// VisibleTo reports whether the event may be shown to actor. A nil actor is
// an anonymous caller.
func (m *Event) VisibleTo(actor *Actor) bool {
	if !m.IsActive {
		return actor != nil && actor.Role == RoleAdmin
	}
	if m.IsPublic && m.Status == EventPublished {
		return true
	}
	return actor != nil && m.ManagedBy(*actor)
}

// ValidateSchedule checks the time window and capacity of a new or edited
// event. A start date in the past is only rejected when checkStart is set,
// so edits of running events keep working.
func (m *Event) ValidateSchedule(now time.Time, checkStart bool) error {
	if checkStart && !m.StartDate.After(now) {
		return ErrValidation("start date must be in the future")
	}
	if !m.EndDate.After(m.StartDate) {
		return ErrValidation("end date must be after start date")
	}
	if m.RegistrationDeadline != nil && !m.RegistrationDeadline.Before(m.StartDate) {
		return ErrValidation("registration deadline must be before start date")
	}
	if m.Capacity < MinEventCapacity || m.Capacity > MaxEventCapacity {
		return ErrValidation("capacity must be between %d and %d", MinEventCapacity, MaxEventCapacity)
	}
	return nil
}

// CheckRegistrationOpen applies the admission preconditions in order. The
// first failing condition wins.
func (m *Event) CheckRegistrationOpen(now time.Time) error {
	if !m.IsActive {
		return ErrNotFound("event not found")
	}
	if !now.Before(m.StartDate) {
		return ErrState("cannot register for an event that has already started")
	}
	if m.RegistrationDeadline != nil && !now.Before(*m.RegistrationDeadline) {
		return ErrState("registration deadline has passed")
	}
	if m.Status != EventPublished {
		return ErrState("event is not open for registration")
	}
	return nil
}

// EventCounters are the derived registration counters of an event.
type EventCounters struct {
	RegistrationCount int `json:"registration_count"`
	WaitlistCount     int `json:"waitlist_count"`
	AttendanceCount   int `json:"attendance_count"`
}

// CountersFromStatuses aggregates per-status registration totals into event
// counters. Pending registrations hold a seat alongside confirmed ones.
func CountersFromStatuses(counts map[RegistrationStatus]int64) EventCounters {
	return EventCounters{
		RegistrationCount: int(counts[RegistrationConfirmed] + counts[RegistrationPending]),
		WaitlistCount:     int(counts[RegistrationWaitlisted]),
		AttendanceCount:   int(counts[RegistrationAttended]),
	}
}

var (
	slugStrip = regexp.MustCompile(`[^\w\s-]`)
	slugSpace = regexp.MustCompile(`\s+`)
)

func Slugify(title string, now time.Time) string {
	s := strings.ToLower(strings.TrimSpace(title))
	s = slugStrip.ReplaceAllString(s, "")
	s = slugSpace.ReplaceAllString(s, "-")
	return fmt.Sprintf("%s-%d", s, now.UnixMilli())
}

type EventFilter struct {
	Search      string
	CategoryID  string
	OrganizerID string
	Status      EventStatus
	Featured    *bool
	StartFrom   *time.Time
	StartTo     *time.Time
	PublicOnly  bool
	ActiveOnly  bool
	Sort        string
	Desc        bool
	Page        PageQuery
}

var eventSortColumns = map[string]string{
	"start_date":  "start_date",
	"title":       "title",
	"create_date": "create_date",
	"capacity":    "capacity",
}

// OrderClause returns a safe ORDER BY clause, falling back to start date.
func (f EventFilter) OrderClause() string {
	col, ok := eventSortColumns[f.Sort]
	if !ok {
		col = "start_date"
	}
	if f.Desc {
		return col + " DESC"
	}
	return col + " ASC"
}
