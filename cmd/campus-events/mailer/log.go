package mailer

import (
	"campus-events-backend/cmd/campus-events/model"
	"context"

	"github.com/labstack/gommon/log"
)

// LogMailer stands in for SMTP when email is disabled. Every message is
// logged and reported as sent.
type LogMailer struct {
	logger *log.Logger
}

func NewLogMailer(logger *log.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) log(kind string, to ...string) error {
	m.logger.Infoj(log.JSON{
		"message":  "email disabled, not sent",
		"template": kind,
		"to":       to,
	})
	return nil
}

func (m *LogMailer) SendWelcome(ctx context.Context, to model.User, verifyURL string) error {
	return m.log("welcome", to.Email)
}

func (m *LogMailer) SendVerification(ctx context.Context, to model.User, verifyURL string) error {
	return m.log("verification", to.Email)
}

func (m *LogMailer) SendPasswordReset(ctx context.Context, to model.User, resetURL string) error {
	return m.log("password_reset", to.Email)
}

func (m *LogMailer) SendNotification(ctx context.Context, to model.User, n model.Notification) error {
	return m.log("notification", to.Email)
}

func (m *LogMailer) SendBulk(ctx context.Context, to []model.User, subject, message string) error {
	emails := make([]string, 0, len(to))
	for _, u := range to {
		emails = append(emails, u.Email)
	}
	return m.log("bulk", emails...)
}

func (m *LogMailer) SendTest(ctx context.Context, to string) error {
	return m.log("test", to)
}
