package service

import (
	"campus-events-backend/cmd/campus-events/model"
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/gommon/log"
	"gorm.io/datatypes"
)

// Pusher fans a notification out to the recipient's live connections. It
// reports how many connections received it.
type Pusher interface {
	PushToUser(userID string, payload model.NotificationPush) int
}

type NotificationMailer interface {
	SendNotification(ctx context.Context, to model.User, notification model.Notification) error
	SendBulk(ctx context.Context, to []model.User, subject, message string) error
	SendTest(ctx context.Context, to string) error
}

const (
	DefaultDispatchGrace = time.Minute
	DefaultDispatchBatch = 100
)

type NotificationService struct {
	tx            Transactor
	notifications NotificationStore
	users         UserStore
	pusher        Pusher
	mailer        NotificationMailer
	logger        *log.Logger
	now           func() time.Time

	grace time.Duration
	batch int
}

func NewNotificationService(
	tx Transactor,
	notifications NotificationStore,
	users UserStore,
	pusher Pusher,
	mailer NotificationMailer,
	logger *log.Logger,
) *NotificationService {
	return &NotificationService{
		tx:            tx,
		notifications: notifications,
		users:         users,
		pusher:        pusher,
		mailer:        mailer,
		logger:        logger,
		now:           time.Now,
		grace:         DefaultDispatchGrace,
		batch:         DefaultDispatchBatch,
	}
}

func (s *NotificationService) build(sender *model.Actor, recipientID string, fields notificationFields) (model.Notification, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return model.Notification{}, model.ErrInternal(err, "failed to generate notification id")
	}

	n := model.Notification{
		ID:           id.String(),
		RecipientID:  recipientID,
		Type:         fields.Type,
		Title:        fields.Title,
		Message:      fields.Message,
		Channels:     fields.Channels.Channels(),
		Priority:     fields.Priority,
		ScheduledFor: fields.ScheduledFor,
	}
	if sender != nil {
		senderID := sender.ID
		n.SenderID = &senderID
	}
	if fields.Data != nil {
		n.Data = datatypes.NewJSONType(*fields.Data)
	}
	n.ApplyDefaults(s.now())

	return n, nil
}

type notificationFields struct {
	Type         model.NotificationType
	Title        string
	Message      string
	Data         *model.NotificationData
	Channels     *model.ChannelsRequest
	Priority     model.NotificationPriority
	ScheduledFor *time.Time
}

// Send persists one notification and, when it is due, delivers it right
// away. Channel failures are recorded on the row; only a failed insert
// fails the call.
func (s *NotificationService) Send(ctx context.Context, sender *model.Actor, req model.NotificationRequest) (model.Notification, error) {
	if !req.Type.Valid() {
		return model.Notification{}, model.ErrValidation("invalid notification type %q", req.Type)
	}

	recipient, err := s.recipient(ctx, req.RecipientID)
	if err != nil {
		return model.Notification{}, err
	}

	n, err := s.build(sender, recipient.ID, notificationFields{
		Type:         req.Type,
		Title:        req.Title,
		Message:      req.Message,
		Data:         req.Data,
		Channels:     req.Channels,
		Priority:     req.Priority,
		ScheduledFor: req.ScheduledFor,
	})
	if err != nil {
		return model.Notification{}, err
	}

	if err := s.notifications.CreateNotification(ctx, &n); err != nil {
		return model.Notification{}, err
	}

	if n.IsDue(s.now()) {
		s.deliver(ctx, &n, recipient)
		s.save(ctx, &n)
	}

	return n, nil
}

func (s *NotificationService) recipient(ctx context.Context, id string) (model.User, error) {
	recipient, err := s.users.GetUser(ctx, id)
	if err != nil {
		if model.IsKind(err, model.KindNotFound) {
			return model.User{}, model.ErrNotFound("recipient not found")
		}
		return model.User{}, err
	}
	if !recipient.IsActive {
		return model.User{}, model.ErrNotFound("recipient not found")
	}
	return recipient, nil
}

// SendBulk creates one notification per recipient under a shared batch id.
// Every recipient must exist; deactivated ones are skipped. Email goes out once for the whole batch and
// its failure is logged only.
func (s *NotificationService) SendBulk(ctx context.Context, sender *model.Actor, req model.BulkNotificationRequest) (model.BulkNotificationResult, error) {
	if !req.Type.Valid() {
		return model.BulkNotificationResult{}, model.ErrValidation("invalid notification type %q", req.Type)
	}

	ids := dedupe(req.RecipientIDs)
	if len(ids) == 0 {
		return model.BulkNotificationResult{}, model.ErrValidation("at least one recipient is required")
	}

	recipients, err := s.users.ListUsersByIDs(ctx, ids)
	if err != nil {
		return model.BulkNotificationResult{}, err
	}
	if len(recipients) != len(ids) {
		return model.BulkNotificationResult{}, model.ErrValidation("one or more recipients not found")
	}

	active := recipients[:0]
	for _, recipient := range recipients {
		if recipient.IsActive {
			active = append(active, recipient)
		}
	}
	if len(active) == 0 {
		return model.BulkNotificationResult{}, model.ErrValidation("no active recipients")
	}
	recipients = active

	batch, err := uuid.NewV7()
	if err != nil {
		return model.BulkNotificationResult{}, model.ErrInternal(err, "failed to generate batch id")
	}
	batchID := batch.String()

	notifications := make([]model.Notification, 0, len(recipients))
	for _, recipient := range recipients {
		n, err := s.build(sender, recipient.ID, notificationFields{
			Type:         req.Type,
			Title:        req.Title,
			Message:      req.Message,
			Data:         req.Data,
			Channels:     req.Channels,
			Priority:     req.Priority,
			ScheduledFor: req.ScheduledFor,
		})
		if err != nil {
			return model.BulkNotificationResult{}, err
		}
		n.BatchID = &batchID
		notifications = append(notifications, n)
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		return s.notifications.CreateNotifications(ctx, notifications)
	})
	if err != nil {
		return model.BulkNotificationResult{}, err
	}

	now := s.now()
	if len(notifications) > 0 && notifications[0].IsDue(now) {
		s.deliverBatch(ctx, notifications, recipients, req.Title, req.Message)
	}

	s.logger.Infoj(log.JSON{
		"message":  "bulk notification sent",
		"batch_id": batchID,
		"count":    len(notifications),
	})

	return model.BulkNotificationResult{
		BatchID: batchID,
		Count:   len(notifications),
	}, nil
}

func (s *NotificationService) deliverBatch(ctx context.Context, notifications []model.Notification, recipients []model.User, subject, message string) {
	now := s.now()

	for i := range notifications {
		s.pushInApp(&notifications[i], now)
	}

	if notifications[0].Channels.Email.Enabled {
		if err := s.mailer.SendBulk(ctx, recipients, subject, message); err != nil {
			s.logger.Errorj(log.JSON{
				"message":  "failed to send bulk email",
				"batch_id": *notifications[0].BatchID,
				"error":    err.Error(),
			})
		} else {
			for i := range notifications {
				notifications[i].MarkDelivered(model.ChannelEmail, now)
			}
		}
	}

	for i := range notifications {
		s.save(ctx, &notifications[i])
	}
}

func (s *NotificationService) pushInApp(n *model.Notification, now time.Time) {
	if !n.Channels.InApp.Enabled || n.Channels.InApp.Delivered {
		return
	}
	s.pusher.PushToUser(n.RecipientID, n.Push())
	n.MarkDelivered(model.ChannelInApp, now)
}

// deliver attempts every enabled channel that has a transport. A failing
// channel is recorded and does not stop the others.
func (s *NotificationService) deliver(ctx context.Context, n *model.Notification, recipient model.User) {
	now := s.now()

	s.pushInApp(n, now)

	if n.Channels.Email.Enabled && !n.Channels.Email.Delivered {
		if err := s.mailer.SendNotification(ctx, recipient, *n); err != nil {
			n.MarkFailed(model.ChannelEmail, err.Error(), now)
			s.logger.Errorj(log.JSON{
				"message":         "failed to send notification email",
				"notification_id": n.ID,
				"recipient_id":    n.RecipientID,
				"error":           err.Error(),
			})
		} else {
			n.MarkDelivered(model.ChannelEmail, now)
		}
	}
}

// save records a delivery outcome. The row already exists, so a failure
// here leaves it pending for the dispatcher.
func (s *NotificationService) save(ctx context.Context, n *model.Notification) {
	if err := s.notifications.UpdateNotification(ctx, n); err != nil {
		s.logger.Errorj(log.JSON{
			"message":         "failed to record notification delivery",
			"notification_id": n.ID,
			"error":           err.Error(),
		})
	}
}

// DispatchDue delivers pending notifications whose schedule has come and
// which no sender touched within the grace period. It returns the number
// of notifications attempted.
func (s *NotificationService) DispatchDue(ctx context.Context) (int, error) {
	now := s.now()

	due, err := s.notifications.ListDue(ctx, now, s.grace, s.batch)
	if err != nil {
		return 0, err
	}

	for i := range due {
		n := &due[i]
		recipient, err := s.users.GetUser(ctx, n.RecipientID)
		if err != nil {
			s.logger.Warnj(log.JSON{
				"message":         "skipping notification for missing recipient",
				"notification_id": n.ID,
				"error":           err.Error(),
			})
			continue
		}
		s.deliver(ctx, n, recipient)
		if n.Status == model.NotificationPending {
			// Nothing deliverable; touch the row so it waits out the grace period.
			n.UpdateDate = now
		}
		s.save(ctx, n)
	}

	if len(due) > 0 {
		s.logger.Infoj(log.JSON{
			"message": "dispatched due notifications",
			"count":   len(due),
		})
	}

	return len(due), nil
}

func (s *NotificationService) List(ctx context.Context, actor model.Actor, q model.NotificationListQuery) (model.Page[model.Notification], error) {
	isRead, err := parseBool("is_read", q.IsRead)
	if err != nil {
		return model.Page[model.Notification]{}, err
	}

	filter := model.NotificationFilter{
		RecipientID: actor.ID,
		Type:        model.NotificationType(q.Type),
		Priority:    model.NotificationPriority(q.Priority),
		IsRead:      isRead,
		Now:         s.now(),
		Page:        q.PageQuery,
	}

	notifications, total, err := s.notifications.ListNotifications(ctx, filter)
	if err != nil {
		return model.Page[model.Notification]{}, err
	}

	return model.Page[model.Notification]{
		Items: notifications,
		Total: total,
		Query: filter.Page.Normalize(),
	}, nil
}

// Recent returns the newest unexpired notifications of a user.
func (s *NotificationService) Recent(ctx context.Context, userID string, limit int) ([]model.Notification, error) {
	notifications, _, err := s.notifications.ListNotifications(ctx, model.NotificationFilter{
		RecipientID: userID,
		Now:         s.now(),
		Page:        model.PageQuery{Page: 1, Limit: limit},
	})
	return notifications, err
}

// owned loads a notification of actor. Other users' notifications read as
// missing.
func (s *NotificationService) owned(ctx context.Context, actor model.Actor, id string) (model.Notification, error) {
	n, err := s.notifications.GetNotification(ctx, id)
	if err != nil {
		return model.Notification{}, err
	}
	if n.RecipientID != actor.ID && !actor.IsAdmin() {
		return model.Notification{}, model.ErrNotFound("notification not found")
	}
	return n, nil
}

func (s *NotificationService) Get(ctx context.Context, actor model.Actor, id string) (model.Notification, error) {
	return s.owned(ctx, actor, id)
}

func (s *NotificationService) UnreadCount(ctx context.Context, actor model.Actor) (int64, error) {
	return s.notifications.CountUnread(ctx, actor.ID, s.now())
}

func (s *NotificationService) MarkRead(ctx context.Context, actor model.Actor, id string) (model.Notification, error) {
	n, err := s.owned(ctx, actor, id)
	if err != nil {
		return model.Notification{}, err
	}
	if n.IsRead {
		return n, nil
	}

	n.MarkRead(s.now())
	if err := s.notifications.UpdateNotification(ctx, &n); err != nil {
		return model.Notification{}, err
	}
	return n, nil
}

// TrackOpen records an email open reported by the recipient's client.
func (s *NotificationService) TrackOpen(ctx context.Context, actor model.Actor, id string) (model.Notification, error) {
	n, err := s.owned(ctx, actor, id)
	if err != nil {
		return model.Notification{}, err
	}
	if !n.TrackOpen(s.now()) {
		return n, nil
	}
	if err := s.notifications.UpdateNotification(ctx, &n); err != nil {
		return model.Notification{}, err
	}
	return n, nil
}

// TrackClick records a click through on the email or push channel.
func (s *NotificationService) TrackClick(ctx context.Context, actor model.Actor, id string, ch model.Channel) (model.Notification, error) {
	if ch == "" {
		ch = model.ChannelEmail
	}
	n, err := s.owned(ctx, actor, id)
	if err != nil {
		return model.Notification{}, err
	}
	changed, err := n.TrackClick(ch, s.now())
	if err != nil || !changed {
		return n, err
	}
	if err := s.notifications.UpdateNotification(ctx, &n); err != nil {
		return model.Notification{}, err
	}
	return n, nil
}

func (s *NotificationService) MarkAllRead(ctx context.Context, actor model.Actor) (int64, error) {
	return s.notifications.MarkAllRead(ctx, actor.ID, s.now())
}

func (s *NotificationService) Delete(ctx context.Context, actor model.Actor, id string) error {
	if _, err := s.owned(ctx, actor, id); err != nil {
		return err
	}
	return s.notifications.DeleteNotification(ctx, id)
}

// Retry resets a notification and runs delivery again. Exhausted
// notifications are left untouched.
func (s *NotificationService) Retry(ctx context.Context, id string) (model.Notification, error) {
	n, err := s.notifications.GetNotification(ctx, id)
	if err != nil {
		return model.Notification{}, err
	}

	if err := n.Retry(s.now()); err != nil {
		return model.Notification{}, err
	}
	if err := s.notifications.UpdateNotification(ctx, &n); err != nil {
		return model.Notification{}, err
	}

	recipient, err := s.recipient(ctx, n.RecipientID)
	if err != nil {
		return n, nil
	}
	if n.IsDue(s.now()) {
		s.deliver(ctx, &n, recipient)
		s.save(ctx, &n)
	}

	return n, nil
}

// Cleanup removes notifications past their expiry.
func (s *NotificationService) Cleanup(ctx context.Context) (int64, error) {
	deleted, err := s.notifications.DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, err
	}

	s.logger.Infoj(log.JSON{
		"message": "expired notifications removed",
		"count":   deleted,
	})

	return deleted, nil
}

func (s *NotificationService) TestEmail(ctx context.Context, to string) error {
	if err := s.mailer.SendTest(ctx, to); err != nil {
		return model.ErrInternal(err, "failed to send test email")
	}
	return nil
}
