package mail

import (
	"context"
	"fmt"
	"os"
	"time"

	gomail "github.com/wneessen/go-mail"
	"go.uber.org/zap"

	"github.com/garyjia/meal-voucher/internal/application/port"
)

// Config holds SMTP delivery settings
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       []string
	Timeout  time.Duration
}

// SMTPMailer delivers report emails over SMTP with opportunistic STARTTLS
type SMTPMailer struct {
	cfg    Config
	logger *zap.Logger
}

// NewSMTPMailer creates a mailer. A missing host or recipient list disables it.
func NewSMTPMailer(cfg Config, logger *zap.Logger) port.Mailer {
	return &SMTPMailer{cfg: cfg, logger: logger}
}

// Enabled reports whether mail delivery is configured
func (m *SMTPMailer) Enabled() bool {
	return m.cfg.Host != "" && len(m.cfg.To) > 0
}

// Send delivers msg to every configured recipient. It does nothing when the
// mailer is disabled.
func (m *SMTPMailer) Send(ctx context.Context, msg *port.MailMessage) error {
	if !m.Enabled() {
		m.logger.Info("SMTP not configured, skipping email", zap.String("subject", msg.Subject))
		return nil
	}

	out, err := m.buildMessage(msg)
	if err != nil {
		return err
	}

	client, err := gomail.NewClient(m.cfg.Host, m.clientOptions()...)
	if err != nil {
		return fmt.Errorf("failed to create smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, out); err != nil {
		m.logger.Error("Failed to send email",
			zap.String("host", m.cfg.Host),
			zap.Strings("to", m.cfg.To),
			zap.Error(err))
		return fmt.Errorf("failed to send email: %w", err)
	}

	m.logger.Info("Email sent",
		zap.String("subject", msg.Subject),
		zap.Strings("to", m.cfg.To),
		zap.Int("attachments", len(msg.Attachments)))
	return nil
}

func (m *SMTPMailer) clientOptions() []gomail.Option {
	opts := []gomail.Option{
		gomail.WithTLSPolicy(gomail.TLSOpportunistic),
	}
	if m.cfg.Port > 0 {
		opts = append(opts, gomail.WithPort(m.cfg.Port))
	}
	if m.cfg.Timeout > 0 {
		opts = append(opts, gomail.WithTimeout(m.cfg.Timeout))
	}
	if m.cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(m.cfg.Username),
			gomail.WithPassword(m.cfg.Password),
		)
	}
	return opts
}

func (m *SMTPMailer) buildMessage(msg *port.MailMessage) (*gomail.Msg, error) {
	out := gomail.NewMsg()
	if err := out.From(m.cfg.From); err != nil {
		return nil, fmt.Errorf("invalid from address %q: %w", m.cfg.From, err)
	}
	if err := out.To(m.cfg.To...); err != nil {
		return nil, fmt.Errorf("invalid recipient list: %w", err)
	}
	out.Subject(msg.Subject)
	out.SetDate()
	out.SetBodyString(gomail.TypeTextPlain, msg.Body)

	for _, path := range msg.Attachments {
		// go-mail skips unreadable attachments silently
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("attachment %s: %w", path, err)
		}
		out.AttachFile(path)
	}

	return out, nil
}

var _ port.Mailer = (*SMTPMailer)(nil)
