package model

import (
	"time"

	"gorm.io/datatypes"
)

type NotificationType string

const (
	NotificationEventRegistration   NotificationType = "event_registration"
	NotificationEventReminder       NotificationType = "event_reminder"
	NotificationEventUpdate         NotificationType = "event_update"
	NotificationEventCancellation   NotificationType = "event_cancellation"
	NotificationEventApproval       NotificationType = "event_approval"
	NotificationEventRejection      NotificationType = "event_rejection"
	NotificationSystemAnnouncement  NotificationType = "system_announcement"
	NotificationPasswordReset       NotificationType = "password_reset"
	NotificationAccountVerification NotificationType = "account_verification"
	NotificationGeneral             NotificationType = "general"
)

type NotificationPriority string

const (
	PriorityLow    NotificationPriority = "low"
	PriorityNormal NotificationPriority = "normal"
	PriorityHigh   NotificationPriority = "high"
	PriorityUrgent NotificationPriority = "urgent"
)

type NotificationStatus string

const (
	NotificationPending   NotificationStatus = "pending"
	NotificationSent      NotificationStatus = "sent"
	NotificationDelivered NotificationStatus = "delivered"
	NotificationFailed    NotificationStatus = "failed"
	NotificationCancelled NotificationStatus = "cancelled"
)

type Channel string

const (
	ChannelInApp Channel = "in_app"
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
	ChannelPush  Channel = "push"
)

const (
	DefaultNotificationTTL = 30 * 24 * time.Hour
	DefaultMaxRetries      = 3
)

type InAppChannel struct {
	Enabled     bool       `gorm:"column:enabled" json:"enabled"`
	Delivered   bool       `gorm:"column:delivered" json:"delivered"`
	DeliveredAt *time.Time `gorm:"column:delivered_at" json:"delivered_at,omitempty"`
}

type EmailChannel struct {
	Enabled      bool       `gorm:"column:enabled" json:"enabled"`
	Delivered    bool       `gorm:"column:delivered" json:"delivered"`
	DeliveredAt  *time.Time `gorm:"column:delivered_at" json:"delivered_at,omitempty"`
	Opened       bool       `gorm:"column:opened" json:"opened"`
	OpenedAt     *time.Time `gorm:"column:opened_at" json:"opened_at,omitempty"`
	Clicked      bool       `gorm:"column:clicked" json:"clicked"`
	ClickedAt    *time.Time `gorm:"column:clicked_at" json:"clicked_at,omitempty"`
	Bounced      bool       `gorm:"column:bounced" json:"bounced"`
	BounceReason string     `gorm:"column:bounce_reason" json:"bounce_reason,omitempty"`
}

type SMSChannel struct {
	Enabled       bool       `gorm:"column:enabled" json:"enabled"`
	Delivered     bool       `gorm:"column:delivered" json:"delivered"`
	DeliveredAt   *time.Time `gorm:"column:delivered_at" json:"delivered_at,omitempty"`
	Failed        bool       `gorm:"column:failed" json:"failed"`
	FailureReason string     `gorm:"column:failure_reason" json:"failure_reason,omitempty"`
}

type PushChannel struct {
	Enabled     bool       `gorm:"column:enabled" json:"enabled"`
	Delivered   bool       `gorm:"column:delivered" json:"delivered"`
	DeliveredAt *time.Time `gorm:"column:delivered_at" json:"delivered_at,omitempty"`
	Clicked     bool       `gorm:"column:clicked" json:"clicked"`
	ClickedAt   *time.Time `gorm:"column:clicked_at" json:"clicked_at,omitempty"`
}

type NotificationChannels struct {
	InApp InAppChannel `gorm:"embedded;embeddedPrefix:in_app_" json:"in_app"`
	Email EmailChannel `gorm:"embedded;embeddedPrefix:email_" json:"email"`
	SMS   SMSChannel   `gorm:"embedded;embeddedPrefix:sms_" json:"sms"`
	Push  PushChannel  `gorm:"embedded;embeddedPrefix:push_" json:"push"`
}

// HasTransportChannel reports whether a channel the dispatcher can deliver
// is enabled. SMS and push have no transport.
func (c NotificationChannels) HasTransportChannel() bool {
	return c.InApp.Enabled || c.Email.Enabled
}

type NotificationData struct {
	EventID        string            `json:"event_id,omitempty"`
	RegistrationID string            `json:"registration_id,omitempty"`
	URL            string            `json:"url,omitempty"`
	Extra          map[string]string `json:"extra,omitempty"`
}

type Notification struct {
	ID           string                               `gorm:"column:id;primaryKey" json:"id"`
	RecipientID  string                               `gorm:"column:recipient_id" json:"recipient_id"`
	SenderID     *string                              `gorm:"column:sender_id" json:"sender_id,omitempty"`
	Type         NotificationType                     `gorm:"column:type" json:"type"`
	Title        string                               `gorm:"column:title" json:"title"`
	Message      string                               `gorm:"column:message" json:"message"`
	Data         datatypes.JSONType[NotificationData] `gorm:"column:data" json:"data"`
	Channels     NotificationChannels                 `gorm:"embedded" json:"channels"`
	Priority     NotificationPriority                 `gorm:"column:priority" json:"priority"`
	Status       NotificationStatus                   `gorm:"column:status" json:"status"`
	IsRead       bool                                 `gorm:"column:is_read" json:"is_read"`
	ReadAt       *time.Time                           `gorm:"column:read_at" json:"read_at,omitempty"`
	ScheduledFor *time.Time                           `gorm:"column:scheduled_for" json:"scheduled_for,omitempty"`
	ExpiresAt    *time.Time                           `gorm:"column:expires_at" json:"expires_at,omitempty"`
	BatchID      *string                              `gorm:"column:batch_id" json:"batch_id,omitempty"`
	RetryCount   int                                  `gorm:"column:retry_count" json:"retry_count"`
	MaxRetries   int                                  `gorm:"column:max_retries" json:"max_retries"`
	LastRetryAt  *time.Time                           `gorm:"column:last_retry_at" json:"last_retry_at,omitempty"`
	ErrorMessage string                               `gorm:"column:error_message" json:"error_message,omitempty"`
	CreateDate   time.Time                            `gorm:"column:create_date" json:"create_date"`
	UpdateDate   time.Time                            `gorm:"column:update_date" json:"update_date"`
}

func (m *Notification) TableName() string {
	return "notifications"
}

// ApplyDefaults fills the fields a new notification must carry before it is
// persisted.
func (m *Notification) ApplyDefaults(now time.Time) {
	if m.Priority == "" {
		m.Priority = PriorityNormal
	}
	if m.Status == "" {
		m.Status = NotificationPending
	}
	if m.MaxRetries == 0 {
		m.MaxRetries = DefaultMaxRetries
	}
	if m.ExpiresAt == nil {
		expires := now.Add(DefaultNotificationTTL)
		m.ExpiresAt = &expires
	}
	if m.CreateDate.IsZero() {
		m.CreateDate = now
	}
	m.UpdateDate = now
}

func (m *Notification) IsDue(now time.Time) bool {
	return m.ScheduledFor == nil || !m.ScheduledFor.After(now)
}

func (m *Notification) IsExpired(now time.Time) bool {
	return m.ExpiresAt != nil && m.ExpiresAt.Before(now)
}

// MarkDelivered records a successful hand-off on one channel and refreshes
// the overall status.
func (m *Notification) MarkDelivered(ch Channel, now time.Time) {
	switch ch {
	case ChannelInApp:
		m.Channels.InApp.Delivered = true
		m.Channels.InApp.DeliveredAt = &now
	case ChannelEmail:
		m.Channels.Email.Delivered = true
		m.Channels.Email.DeliveredAt = &now
	case ChannelSMS:
		m.Channels.SMS.Delivered = true
		m.Channels.SMS.DeliveredAt = &now
	case ChannelPush:
		m.Channels.Push.Delivered = true
		m.Channels.Push.DeliveredAt = &now
	}
	m.UpdateDate = now
	m.RefreshStatus()
}

// MarkFailed records a delivery failure on one channel. The other channels
// are left untouched.
func (m *Notification) MarkFailed(ch Channel, reason string, now time.Time) {
	switch ch {
	case ChannelEmail:
		m.Channels.Email.Bounced = true
		m.Channels.Email.BounceReason = reason
	case ChannelSMS:
		m.Channels.SMS.Failed = true
		m.Channels.SMS.FailureReason = reason
	}
	m.ErrorMessage = reason
	m.UpdateDate = now
	m.RefreshStatus()
}

// TrackOpen records that the email was opened. Only the first open is kept.
func (m *Notification) TrackOpen(now time.Time) bool {
	if !m.Channels.Email.Enabled || m.Channels.Email.Opened {
		return false
	}
	m.Channels.Email.Opened = true
	m.Channels.Email.OpenedAt = &now
	m.UpdateDate = now
	return true
}

// TrackClick records a click through on the email or push channel. It
// reports whether anything changed.
func (m *Notification) TrackClick(ch Channel, now time.Time) (bool, error) {
	switch ch {
	case ChannelEmail:
		if !m.Channels.Email.Enabled || m.Channels.Email.Clicked {
			return false, nil
		}
		m.Channels.Email.Clicked = true
		m.Channels.Email.ClickedAt = &now
	case ChannelPush:
		if !m.Channels.Push.Enabled || m.Channels.Push.Clicked {
			return false, nil
		}
		m.Channels.Push.Clicked = true
		m.Channels.Push.ClickedAt = &now
	default:
		return false, ErrValidation("clicks are tracked for email and push only")
	}
	m.UpdateDate = now
	return true, nil
}

func (m *Notification) channelFailed() bool {
	return (m.Channels.Email.Enabled && m.Channels.Email.Bounced) ||
		(m.Channels.SMS.Enabled && m.Channels.SMS.Failed)
}

// RefreshStatus derives the overall status from the channel records:
// failed once any channel failed, delivered once every enabled channel is
// delivered, sent while only some are.
func (m *Notification) RefreshStatus() {
	if m.Status == NotificationCancelled {
		return
	}
	if m.channelFailed() {
		m.Status = NotificationFailed
		return
	}
	c := m.Channels
	enabled := 0
	delivered := 0
	for _, ch := range []struct{ on, done bool }{
		{c.InApp.Enabled, c.InApp.Delivered},
		{c.Email.Enabled, c.Email.Delivered},
		{c.SMS.Enabled, c.SMS.Delivered},
		{c.Push.Enabled, c.Push.Delivered},
	} {
		if !ch.on {
			continue
		}
		enabled++
		if ch.done {
			delivered++
		}
	}
	switch {
	case enabled > 0 && delivered == enabled:
		m.Status = NotificationDelivered
	case delivered > 0:
		m.Status = NotificationSent
	}
}

func (m *Notification) MarkRead(now time.Time) {
	if m.IsRead {
		return
	}
	m.IsRead = true
	m.ReadAt = &now
	m.UpdateDate = now
}

// Retry resets a notification for another delivery attempt while retries
// remain.
func (m *Notification) Retry(now time.Time) error {
	if m.RetryCount >= m.MaxRetries {
		return ErrExhausted("maximum retry attempts reached")
	}
	m.RetryCount++
	m.LastRetryAt = &now
	m.Status = NotificationPending
	m.ErrorMessage = ""
	if !m.Channels.Email.Delivered {
		m.Channels.Email.Bounced = false
		m.Channels.Email.BounceReason = ""
	}
	if !m.Channels.SMS.Delivered {
		m.Channels.SMS.Failed = false
		m.Channels.SMS.FailureReason = ""
	}
	m.UpdateDate = now
	return nil
}

// NotificationPush is the realtime payload sent to a recipient's room.
type NotificationPush struct {
	ID        string           `json:"id"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	Type      NotificationType `json:"type"`
	CreatedAt time.Time        `json:"createdAt"`
}

func (m *Notification) Push() NotificationPush {
	return NotificationPush{
		ID:        m.ID,
		Title:     m.Title,
		Message:   m.Message,
		Type:      m.Type,
		CreatedAt: m.CreateDate,
	}
}

type NotificationFilter struct {
	RecipientID string
	Type        NotificationType
	Priority    NotificationPriority
	IsRead      *bool
	Now         time.Time
	Page        PageQuery
}
