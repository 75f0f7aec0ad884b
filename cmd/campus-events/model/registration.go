package model

import (
	"fmt"
	"time"

	"github.com/lib/pq"
)

type RegistrationStatus string

const (
	RegistrationPending    RegistrationStatus = "pending"
	RegistrationConfirmed  RegistrationStatus = "confirmed"
	RegistrationWaitlisted RegistrationStatus = "waitlisted"
	RegistrationCancelled  RegistrationStatus = "cancelled"
	RegistrationAttended   RegistrationStatus = "attended"
	RegistrationNoShow     RegistrationStatus = "no-show"
)

type RegistrationSource string

const (
	SourceWeb    RegistrationSource = "web"
	SourceMobile RegistrationSource = "mobile"
	SourceAdmin  RegistrationSource = "admin"
	SourceImport RegistrationSource = "import"
)

// registrationTransitions lists the legal targets of every status. Terminal
// states have no entry.
var registrationTransitions = map[RegistrationStatus][]RegistrationStatus{
	RegistrationPending:    {RegistrationConfirmed, RegistrationWaitlisted, RegistrationCancelled},
	RegistrationWaitlisted: {RegistrationConfirmed, RegistrationCancelled},
	RegistrationConfirmed:  {RegistrationAttended, RegistrationCancelled, RegistrationNoShow},
}

func (s RegistrationStatus) Valid() bool {
	switch s {
	case RegistrationPending, RegistrationConfirmed, RegistrationWaitlisted,
		RegistrationCancelled, RegistrationAttended, RegistrationNoShow:
		return true
	}
	return false
}

func (s RegistrationStatus) Terminal() bool {
	return len(registrationTransitions[s]) == 0
}

func (s RegistrationStatus) CanTransitionTo(to RegistrationStatus) bool {
	for _, allowed := range registrationTransitions[s] {
		if allowed == to {
			return true
		}
	}
	return false
}

// HoldsSeat reports whether a registration in this status counts against
// the event capacity.
func (s RegistrationStatus) HoldsSeat() bool {
	return s == RegistrationConfirmed || s == RegistrationPending
}

type AttendanceStatus struct {
	CheckedIn    bool       `gorm:"column:checked_in" json:"checked_in"`
	CheckedInAt  *time.Time `gorm:"column:checked_in_at" json:"checked_in_at,omitempty"`
	CheckedInBy  *string    `gorm:"column:checked_in_by" json:"checked_in_by,omitempty"`
	CheckedOut   bool       `gorm:"column:checked_out" json:"checked_out"`
	CheckedOutAt *time.Time `gorm:"column:checked_out_at" json:"checked_out_at,omitempty"`
	CheckedOutBy *string    `gorm:"column:checked_out_by" json:"checked_out_by,omitempty"`
}

type Feedback struct {
	Rating         *int       `gorm:"column:rating" json:"rating,omitempty"`
	Comment        string     `gorm:"column:comment" json:"comment,omitempty"`
	WouldRecommend *bool      `gorm:"column:would_recommend" json:"would_recommend,omitempty"`
	SubmittedAt    *time.Time `gorm:"column:submitted_at" json:"submitted_at,omitempty"`
}

type EmergencyContact struct {
	Name         string `gorm:"column:name" json:"name,omitempty" validate:"omitempty,max=100"`
	Phone        string `gorm:"column:phone" json:"phone,omitempty" validate:"omitempty,max=30"`
	Relationship string `gorm:"column:relationship" json:"relationship,omitempty" validate:"omitempty,max=50"`
}

type Registration struct {
	ID                  string             `gorm:"column:id;primaryKey" json:"id"`
	EventID             string             `gorm:"column:event_id" json:"event_id"`
	ParticipantID       string             `gorm:"column:participant_id" json:"participant_id"`
	RegistrationNumber  string             `gorm:"column:registration_number" json:"registration_number"`
	Status              RegistrationStatus `gorm:"column:status" json:"status"`
	RegistrationDate    time.Time          `gorm:"column:registration_date" json:"registration_date"`
	ConfirmationDate    *time.Time         `gorm:"column:confirmation_date" json:"confirmation_date,omitempty"`
	CancellationDate    *time.Time         `gorm:"column:cancellation_date" json:"cancellation_date,omitempty"`
	CancellationReason  string             `gorm:"column:cancellation_reason" json:"cancellation_reason,omitempty"`
	AdditionalInfo      string             `gorm:"column:additional_info" json:"additional_info,omitempty"`
	EmergencyContact    EmergencyContact   `gorm:"embedded;embeddedPrefix:emergency_contact_" json:"emergency_contact"`
	DietaryRestrictions pq.StringArray     `gorm:"column:dietary_restrictions;type:text[]" json:"dietary_restrictions"`
	SpecialRequirements string             `gorm:"column:special_requirements" json:"special_requirements,omitempty"`
	Source              RegistrationSource `gorm:"column:source" json:"source"`
	Attendance          AttendanceStatus   `gorm:"embedded;embeddedPrefix:attendance_" json:"attendance_status"`
	Feedback            Feedback           `gorm:"embedded;embeddedPrefix:feedback_" json:"feedback"`
	Notes               string             `gorm:"column:notes" json:"notes,omitempty"`
	CreateDate          time.Time          `gorm:"column:create_date" json:"create_date"`
	UpdateDate          time.Time          `gorm:"column:update_date" json:"update_date"`
}

func (m *Registration) TableName() string {
	return "registrations"
}

// FormatRegistrationNumber renders the human readable number assigned to a
// registration at creation.
func FormatRegistrationNumber(year int, seq int64) string {
	return fmt.Sprintf("REG-%d-%06d", year, seq)
}

// SetStatus moves the registration to status to, stamping the
// confirmation or cancellation date the first time those states are
// entered.
func (m *Registration) SetStatus(to RegistrationStatus, now time.Time) error {
	if !to.Valid() {
		return ErrValidation("invalid registration status %q", to)
	}
	if m.Status == to {
		return ErrState("registration is already %s", to)
	}
	if !m.Status.CanTransitionTo(to) {
		return ErrState("cannot change registration from %s to %s", m.Status, to)
	}
	m.Status = to
	m.stamp(now)
	m.UpdateDate = now
	return nil
}

func (m *Registration) stamp(now time.Time) {
	switch m.Status {
	case RegistrationConfirmed:
		if m.ConfirmationDate == nil {
			m.ConfirmationDate = &now
		}
	case RegistrationCancelled:
		if m.CancellationDate == nil {
			m.CancellationDate = &now
		}
	}
}

// Cancel performs a participant cancellation. The event start date is
// checked by the caller.
func (m *Registration) Cancel(reason string, now time.Time) error {
	if m.Status == RegistrationCancelled {
		return ErrState("registration is already cancelled")
	}
	if err := m.SetStatus(RegistrationCancelled, now); err != nil {
		return err
	}
	m.CancellationReason = reason
	return nil
}

// CheckIn marks the participant as present. A confirmed registration is
// promoted to attended; repeated calls re-stamp the check-in.
func (m *Registration) CheckIn(by string, now time.Time) {
	m.Attendance.CheckedIn = true
	m.Attendance.CheckedInAt = &now
	m.Attendance.CheckedInBy = &by
	if m.Status == RegistrationConfirmed {
		m.Status = RegistrationAttended
	}
	m.UpdateDate = now
}

func (m *Registration) CheckOut(by string, now time.Time) {
	m.Attendance.CheckedOut = true
	m.Attendance.CheckedOutAt = &now
	m.Attendance.CheckedOutBy = &by
	m.UpdateDate = now
}

func (m *Registration) SubmitFeedback(rating int, comment string, recommend *bool, now time.Time) error {
	if m.Status != RegistrationAttended && !m.Attendance.CheckedIn {
		return ErrState("feedback can only be submitted after attending the event")
	}
	if m.Feedback.SubmittedAt != nil {
		return ErrConflict("feedback has already been submitted")
	}
	if rating < 1 || rating > 5 {
		return ErrValidation("rating must be between 1 and 5")
	}
	m.Feedback = Feedback{
		Rating:         &rating,
		Comment:        comment,
		WouldRecommend: recommend,
		SubmittedAt:    &now,
	}
	m.UpdateDate = now
	return nil
}

type RegistrationFilter struct {
	EventID       string
	ParticipantID string
	Statuses      []RegistrationStatus
	CheckedIn     *bool
	Page          PageQuery
}

// RegistrationCSV is one row of an attendee export.
type RegistrationCSV struct {
	RegistrationNumber string `csv:"registration_number"`
	FirstName          string `csv:"first_name"`
	LastName           string `csv:"last_name"`
	Email              string `csv:"email"`
	Status             string `csv:"status"`
	RegistrationDate   string `csv:"registration_date"`
	CheckedIn          bool   `csv:"checked_in"`
	CheckedInAt        string `csv:"checked_in_at"`
	Source             string `csv:"source"`
}

// RegistrationImportRow is one row of a participant import file.
type RegistrationImportRow struct {
	Email               string `csv:"email"`
	AdditionalInfo      string `csv:"additional_info"`
	SpecialRequirements string `csv:"special_requirements"`
}

type RegistrationImportResult struct {
	Row                int                `json:"row"`
	Email              string             `json:"email"`
	RegistrationID     string             `json:"registration_id,omitempty"`
	RegistrationNumber string             `json:"registration_number,omitempty"`
	Status             RegistrationStatus `json:"status,omitempty"`
	Error              string             `json:"error,omitempty"`
}
