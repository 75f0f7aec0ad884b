package model

import (
	"fmt"
	"time"

	"github.com/bytedance/sonic"
)

type RegisterUserRequest struct {
	FirstName   string `json:"first_name" validate:"required,min=2,max=50"`
	LastName    string `json:"last_name" validate:"required,min=2,max=50"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,password"`
	Role        Role   `json:"role" validate:"omitempty,oneof=participant organizer"`
	PhoneNumber string `json:"phone_number" validate:"omitempty,max=30"`
	Department  string `json:"department" validate:"omitempty,max=100"`
	StudentID   string `json:"student_id" validate:"omitempty,max=50"`
	EmployeeID  string `json:"employee_id" validate:"omitempty,max=50"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetPasswordRequest struct {
	Password string `json:"password" validate:"required,password"`
}

type UpdatePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,password"`
}

type UpdateProfileRequest struct {
	FirstName   *string          `json:"first_name" validate:"omitempty,min=2,max=50"`
	LastName    *string          `json:"last_name" validate:"omitempty,min=2,max=50"`
	PhoneNumber *string          `json:"phone_number" validate:"omitempty,max=30"`
	Department  *string          `json:"department" validate:"omitempty,max=100"`
	Bio         *string          `json:"bio" validate:"omitempty,max=500"`
	Preferences *UserPreferences `json:"preferences"`
}

type CreateUserRequest struct {
	RegisterUserRequest
	Role     Role  `json:"role" validate:"required,oneof=admin organizer participant"`
	IsActive *bool `json:"is_active"`
}

type UpdateUserRequest struct {
	FirstName       *string `json:"first_name" validate:"omitempty,min=2,max=50"`
	LastName        *string `json:"last_name" validate:"omitempty,min=2,max=50"`
	Email           *string `json:"email" validate:"omitempty,email"`
	Role            *Role   `json:"role" validate:"omitempty,oneof=admin organizer participant"`
	PhoneNumber     *string `json:"phone_number" validate:"omitempty,max=30"`
	Department      *string `json:"department" validate:"omitempty,max=100"`
	StudentID       *string `json:"student_id" validate:"omitempty,max=50"`
	EmployeeID      *string `json:"employee_id" validate:"omitempty,max=50"`
	IsActive        *bool   `json:"is_active"`
	IsEmailVerified *bool   `json:"is_email_verified"`
}

type UserListQuery struct {
	Search     string `query:"search"`
	Role       string `query:"role"`
	Department string `query:"department"`
	IsActive   string `query:"is_active"`
	PageQuery
}

type UserFilter struct {
	Search     string
	Role       Role
	Department string
	IsActive   *bool
	Page       PageQuery
}

type AuthResult struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}

type EventRequest struct {
	Title                string      `json:"title" validate:"required,max=200"`
	Description          string      `json:"description" validate:"required,max=2000"`
	ShortDescription     string      `json:"short_description" validate:"omitempty,max=300"`
	StartDate            time.Time   `json:"start_date" validate:"required"`
	EndDate              time.Time   `json:"end_date" validate:"required"`
	RegistrationDeadline *time.Time  `json:"registration_deadline"`
	Venue                string      `json:"venue" validate:"required,max=200"`
	VenueAddress         string      `json:"venue_address" validate:"omitempty,max=300"`
	Capacity             int         `json:"capacity" validate:"required,min=1,max=10000"`
	CategoryID           string      `json:"category_id" validate:"required"`
	Status               EventStatus `json:"status" validate:"omitempty,oneof=draft published"`
	IsPublic             *bool       `json:"is_public"`
	RequiresApproval     bool        `json:"requires_approval"`
	IsFeatured           bool        `json:"is_featured"`
	Tags                 []string    `json:"tags" validate:"omitempty,dive,max=50"`
	Requirements         string      `json:"requirements" validate:"omitempty,max=1000"`
}

type EventUpdateRequest struct {
	Title                *string      `json:"title" validate:"omitempty,max=200"`
	Description          *string      `json:"description" validate:"omitempty,max=2000"`
	ShortDescription     *string      `json:"short_description" validate:"omitempty,max=300"`
	StartDate            *time.Time   `json:"start_date"`
	EndDate              *time.Time   `json:"end_date"`
	RegistrationDeadline *time.Time   `json:"registration_deadline"`
	Venue                *string      `json:"venue" validate:"omitempty,max=200"`
	VenueAddress         *string      `json:"venue_address" validate:"omitempty,max=300"`
	Capacity             *int         `json:"capacity" validate:"omitempty,min=1,max=10000"`
	CategoryID           *string      `json:"category_id"`
	Status               *EventStatus `json:"status" validate:"omitempty,oneof=draft published cancelled completed"`
	IsPublic             *bool        `json:"is_public"`
	RequiresApproval     *bool        `json:"requires_approval"`
	IsFeatured           *bool        `json:"is_featured"`
	Tags                 []string     `json:"tags" validate:"omitempty,dive,max=50"`
	Requirements         *string      `json:"requirements" validate:"omitempty,max=1000"`
}

type EventListQuery struct {
	Search    string `query:"search"`
	Category  string `query:"category"`
	Organizer string `query:"organizer"`
	Status    string `query:"status"`
	Featured  string `query:"featured"`
	StartFrom string `query:"start_from"`
	StartTo   string `query:"start_to"`
	Sort      string `query:"sort"`
	Order     string `query:"order"`
	PageQuery
}

type CategoryRequest struct {
	Name             string  `json:"name" validate:"required,max=100"`
	Description      string  `json:"description" validate:"omitempty,max=500"`
	Color            string  `json:"color" validate:"omitempty,hexcolor"`
	Icon             string  `json:"icon" validate:"omitempty,max=50"`
	ParentCategoryID *string `json:"parent_category_id"`
	SortOrder        int     `json:"sort_order"`
	IsActive         *bool   `json:"is_active"`
}

type CategoryUpdateRequest struct {
	Name        *string `json:"name" validate:"omitempty,max=100"`
	Description *string `json:"description" validate:"omitempty,max=500"`
	Color       *string `json:"color" validate:"omitempty,hexcolor"`
	Icon        *string `json:"icon" validate:"omitempty,max=50"`
	// An empty string moves the category to the root.
	ParentCategoryID *string `json:"parent_category_id"`
	SortOrder        *int    `json:"sort_order"`
	IsActive         *bool   `json:"is_active"`
}

type RegistrationRequest struct {
	EventID             string             `json:"event_id" validate:"required"`
	AdditionalInfo      string             `json:"additional_info" validate:"omitempty,max=500"`
	EmergencyContact    *EmergencyContact  `json:"emergency_contact"`
	DietaryRestrictions []string           `json:"dietary_restrictions" validate:"omitempty,dive,max=50"`
	SpecialRequirements string             `json:"special_requirements" validate:"omitempty,max=500"`
	Source              RegistrationSource `json:"source" validate:"omitempty,oneof=web mobile admin import"`
}

type RegistrationStatusRequest struct {
	Status RegistrationStatus `json:"status" validate:"required,oneof=pending confirmed waitlisted cancelled attended no-show"`
	Notes  string             `json:"notes" validate:"omitempty,max=500"`
}

type CancelRegistrationRequest struct {
	Reason string `json:"reason" validate:"omitempty,max=500"`
}

type FeedbackRequest struct {
	Rating         int    `json:"rating" validate:"required,min=1,max=5"`
	Comment        string `json:"comment" validate:"omitempty,max=1000"`
	WouldRecommend *bool  `json:"would_recommend"`
}

type RegistrationListQuery struct {
	Status  string `query:"status"`
	EventID string `query:"event_id"`
	PageQuery
}

// ChannelsRequest selects delivery channels. In-app is on unless
// explicitly disabled; the others are off unless enabled.
//
// On the wire each channel is {"enabled": bool}, mirroring the stored
// channel record. A bare boolean is accepted too.
type ChannelsRequest struct {
	InApp *bool
	Email *bool
	SMS   *bool
	Push  *bool
}

type channelToggle struct {
	Enabled bool `json:"enabled"`
}

func (r ChannelsRequest) MarshalJSON() ([]byte, error) {
	out := map[string]channelToggle{}
	for name, v := range map[string]*bool{"in_app": r.InApp, "email": r.Email, "sms": r.SMS, "push": r.Push} {
		if v != nil {
			out[name] = channelToggle{Enabled: *v}
		}
	}
	return sonic.ConfigStd.Marshal(out)
}

func (r *ChannelsRequest) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := sonic.ConfigStd.Unmarshal(data, &raw); err != nil {
		return err
	}

	*r = ChannelsRequest{}
	for name, v := range raw {
		var target **bool
		switch name {
		case "in_app", "inApp":
			target = &r.InApp
		case "email":
			target = &r.Email
		case "sms":
			target = &r.SMS
		case "push":
			target = &r.Push
		default:
			continue
		}

		enabled, err := toggleValue(name, v)
		if err != nil {
			return err
		}
		*target = enabled
	}
	return nil
}

// toggleValue reads {"enabled": bool}, a bare bool or null.
func toggleValue(name string, v any) (*bool, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case bool:
		return &t, nil
	case map[string]any:
		enabled, ok := t["enabled"]
		if !ok || enabled == nil {
			return nil, nil
		}
		b, ok := enabled.(bool)
		if !ok {
			return nil, fmt.Errorf("channels.%s.enabled must be a boolean", name)
		}
		return &b, nil
	default:
		return nil, fmt.Errorf("channels.%s must be an object", name)
	}
}

func (r *ChannelsRequest) Channels() NotificationChannels {
	var c NotificationChannels
	c.InApp.Enabled = true
	if r == nil {
		return c
	}
	if r.InApp != nil {
		c.InApp.Enabled = *r.InApp
	}
	c.Email.Enabled = r.Email != nil && *r.Email
	c.SMS.Enabled = r.SMS != nil && *r.SMS
	c.Push.Enabled = r.Push != nil && *r.Push
	return c
}

type NotificationRequest struct {
	RecipientID  string               `json:"recipient_id" validate:"required"`
	Type         NotificationType     `json:"type" validate:"required,notification_type"`
	Title        string               `json:"title" validate:"required,max=200"`
	Message      string               `json:"message" validate:"required,max=1000"`
	Data         *NotificationData    `json:"data"`
	Channels     *ChannelsRequest     `json:"channels"`
	Priority     NotificationPriority `json:"priority" validate:"omitempty,oneof=low normal high urgent"`
	ScheduledFor *time.Time           `json:"scheduled_for"`
}

type BulkNotificationRequest struct {
	RecipientIDs []string             `json:"recipient_ids" validate:"required,min=1,dive,required"`
	Type         NotificationType     `json:"type" validate:"required,notification_type"`
	Title        string               `json:"title" validate:"required,max=200"`
	Message      string               `json:"message" validate:"required,max=1000"`
	Data         *NotificationData    `json:"data"`
	Channels     *ChannelsRequest     `json:"channels"`
	Priority     NotificationPriority `json:"priority" validate:"omitempty,oneof=low normal high urgent"`
	ScheduledFor *time.Time           `json:"scheduled_for"`
}

type BulkNotificationResult struct {
	BatchID string `json:"batch_id"`
	Count   int    `json:"count"`
}

type NotificationListQuery struct {
	Type     string `query:"type"`
	IsRead   string `query:"is_read"`
	Priority string `query:"priority"`
	PageQuery
}

type TestEmailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

func (t NotificationType) Valid() bool {
	switch t {
	case NotificationEventRegistration, NotificationEventReminder, NotificationEventUpdate,
		NotificationEventCancellation, NotificationEventApproval, NotificationEventRejection,
		NotificationSystemAnnouncement, NotificationPasswordReset,
		NotificationAccountVerification, NotificationGeneral:
		return true
	}
	return false
}

type RegistrationView struct {
	Registration
	Event *Event `json:"event,omitempty"`
}

type ParticipantDashboard struct {
	Upcoming            []RegistrationView `json:"upcoming"`
	Completed           []RegistrationView `json:"completed"`
	Cancelled           []RegistrationView `json:"cancelled"`
	RecentNotifications []Notification     `json:"recent_notifications"`
}
