package model

import (
	"time"

	"gorm.io/datatypes"
)

type Role string

const (
	RoleAdmin       Role = "admin"
	RoleOrganizer   Role = "organizer"
	RoleParticipant Role = "participant"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleOrganizer, RoleParticipant:
		return true
	}
	return false
}

// CanManageEvents reports whether the role may create events and act on
// registrations as an organizer.
func (r Role) CanManageEvents() bool {
	return r == RoleAdmin || r == RoleOrganizer
}

type UserPreferences struct {
	EmailNotifications bool `json:"email_notifications"`
	SMSNotifications   bool `json:"sms_notifications"`
	EventReminders     bool `json:"event_reminders"`
	MarketingEmails    bool `json:"marketing_emails"`
}

func DefaultUserPreferences() UserPreferences {
	return UserPreferences{
		EmailNotifications: true,
		EventReminders:     true,
	}
}

type User struct {
	ID           string `gorm:"column:id;primaryKey" json:"id"`
	FirstName    string `gorm:"column:first_name" json:"first_name"`
	LastName     string `gorm:"column:last_name" json:"last_name"`
	Email        string `gorm:"column:email" json:"email"`
	PasswordHash string `gorm:"column:password_hash" json:"-"`
	Role         Role   `gorm:"column:role" json:"role"`
	PhoneNumber  string `gorm:"column:phone_number" json:"phone_number,omitempty"`
	Department   string `gorm:"column:department" json:"department,omitempty"`
	StudentID    string `gorm:"column:student_id" json:"student_id,omitempty"`
	EmployeeID   string `gorm:"column:employee_id" json:"employee_id,omitempty"`
	Bio          string `gorm:"column:bio" json:"bio,omitempty"`

	Preferences datatypes.JSONType[UserPreferences] `gorm:"column:preferences" json:"preferences"`

	IsActive                 bool       `gorm:"column:is_active" json:"is_active"`
	IsEmailVerified          bool       `gorm:"column:is_email_verified" json:"is_email_verified"`
	EmailVerificationToken   *string    `gorm:"column:email_verification_token" json:"-"`
	EmailVerificationExpires *time.Time `gorm:"column:email_verification_expires" json:"-"`
	PasswordResetToken       *string    `gorm:"column:password_reset_token" json:"-"`
	PasswordResetExpires     *time.Time `gorm:"column:password_reset_expires" json:"-"`
	PasswordChangedAt        *time.Time `gorm:"column:password_changed_at" json:"-"`
	LoginAttempts            int        `gorm:"column:login_attempts" json:"-"`
	LockUntil                *time.Time `gorm:"column:lock_until" json:"-"`
	LastLogin                *time.Time `gorm:"column:last_login" json:"last_login,omitempty"`

	CreateDate time.Time `gorm:"column:create_date" json:"create_date"`
	UpdateDate time.Time `gorm:"column:update_date" json:"update_date"`
}

func (m *User) TableName() string {
	return "users"
}

func (m *User) FullName() string {
	return m.FirstName + " " + m.LastName
}

func (m *User) IsLocked(now time.Time) bool {
	return m.LockUntil != nil && m.LockUntil.After(now)
}

// RegisterFailedLogin applies one failed attempt to the lockout counter.
// A lock that has already expired restarts the count at one.
func (m *User) RegisterFailedLogin(now time.Time, maxAttempts int, lockout time.Duration) {
	if m.LockUntil != nil && !m.LockUntil.After(now) {
		m.LockUntil = nil
		m.LoginAttempts = 1
		return
	}
	m.LoginAttempts++
	if m.LoginAttempts >= maxAttempts && !m.IsLocked(now) {
		until := now.Add(lockout)
		m.LockUntil = &until
	}
}

func (m *User) ResetLoginAttempts() {
	m.LoginAttempts = 0
	m.LockUntil = nil
}

// ChangedPasswordAfter reports whether the password changed after a token
// issued at issuedAt.
func (m *User) ChangedPasswordAfter(issuedAt time.Time) bool {
	if m.PasswordChangedAt == nil {
		return false
	}
	return issuedAt.Unix() < m.PasswordChangedAt.Unix()
}
