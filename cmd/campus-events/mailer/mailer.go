package mailer

import (
	"campus-events-backend/cmd/campus-events/model"
	"context"
	"embed"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/labstack/gommon/log"
	"github.com/wneessen/go-mail"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	AppName  string
	AppURL   string
}

// transport is the part of the SMTP client the mailer needs.
type transport interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

type Mailer struct {
	transport transport
	from      string
	appName   string
	appURL    string
	logger    *log.Logger
}

func New(cfg Config, logger *log.Logger) (*Mailer, error) {
	client, err := mail.NewClient(
		cfg.Host,
		mail.WithPort(cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(cfg.Username),
		mail.WithPassword(cfg.Password),
		mail.WithTLSPortPolicy(mail.TLSOpportunistic),
		mail.WithTimeout(15*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create smtp client: %w", err)
	}

	return newMailer(client, cfg, logger), nil
}

func newMailer(t transport, cfg Config, logger *log.Logger) *Mailer {
	from := cfg.From
	if from == "" {
		from = cfg.Username
	}
	return &Mailer{
		transport: t,
		from:      from,
		appName:   cfg.AppName,
		appURL:    strings.TrimRight(cfg.AppURL, "/"),
		logger:    logger,
	}
}

type templateData struct {
	AppName    string
	Name       string
	Heading    string
	Message    string
	URL        string
	ActionText string
	Expiry     string
}

func (m *Mailer) compose(to, subject, name string, data templateData) (*mail.Msg, error) {
	data.AppName = m.appName

	msg := mail.NewMsg()
	if err := msg.FromFormat(m.appName, m.from); err != nil {
		return nil, fmt.Errorf("invalid sender address: %w", err)
	}
	if err := msg.To(to); err != nil {
		return nil, fmt.Errorf("invalid recipient address %q: %w", to, err)
	}
	msg.Subject(subject)
	msg.SetDate()
	msg.SetMessageID()
	if err := msg.SetBodyHTMLTemplate(templates.Lookup(name), data); err != nil {
		return nil, err
	}
	return msg, nil
}

func (m *Mailer) send(ctx context.Context, kind string, messages ...*mail.Msg) error {
	if err := m.transport.DialAndSendWithContext(ctx, messages...); err != nil {
		return err
	}

	m.logger.Infoj(log.JSON{
		"message":  "email sent",
		"template": kind,
		"count":    len(messages),
	})
	return nil
}

func (m *Mailer) sendOne(ctx context.Context, to, subject, name string, data templateData) error {
	msg, err := m.compose(to, subject, name, data)
	if err != nil {
		return err
	}
	return m.send(ctx, name, msg)
}

func (m *Mailer) SendWelcome(ctx context.Context, to model.User, verifyURL string) error {
	return m.sendOne(ctx, to.Email, "Welcome to "+m.appName, "welcome.html", templateData{
		Name:       to.FirstName,
		URL:        verifyURL,
		ActionText: "Verify Email",
	})
}

func (m *Mailer) SendVerification(ctx context.Context, to model.User, verifyURL string) error {
	return m.sendOne(ctx, to.Email, "Verify your email address", "verification.html", templateData{
		Name:       to.FirstName,
		URL:        verifyURL,
		ActionText: "Verify Email",
		Expiry:     "24 hours",
	})
}

func (m *Mailer) SendPasswordReset(ctx context.Context, to model.User, resetURL string) error {
	return m.sendOne(ctx, to.Email, "Password Reset Request", "password_reset.html", templateData{
		Name:       to.FirstName,
		URL:        resetURL,
		ActionText: "Reset Password",
		Expiry:     "10 minutes",
	})
}

// link points at the page a notification is about.
func (m *Mailer) link(n model.Notification) string {
	data := n.Data.Data()
	switch {
	case data.URL != "":
		return data.URL
	case data.EventID != "" && m.appURL != "":
		return m.appURL + "/events/" + data.EventID
	default:
		return ""
	}
}

func (m *Mailer) SendNotification(ctx context.Context, to model.User, n model.Notification) error {
	return m.sendOne(ctx, to.Email, n.Title, "notification.html", templateData{
		Name:       to.FirstName,
		Heading:    n.Title,
		Message:    n.Message,
		URL:        m.link(n),
		ActionText: "View Details",
	})
}

// SendBulk sends one personalised message per recipient over a single
// connection.
func (m *Mailer) SendBulk(ctx context.Context, to []model.User, subject, message string) error {
	messages := make([]*mail.Msg, 0, len(to))
	for _, u := range to {
		msg, err := m.compose(u.Email, subject, "notification.html", templateData{
			Name:    u.FirstName,
			Heading: subject,
			Message: message,
		})
		if err != nil {
			return err
		}
		messages = append(messages, msg)
	}
	if len(messages) == 0 {
		return nil
	}
	return m.send(ctx, "bulk", messages...)
}

func (m *Mailer) SendTest(ctx context.Context, to string) error {
	return m.sendOne(ctx, to, m.appName+" test email", "test.html", templateData{
		Message: "Email delivery is configured correctly.",
	})
}
