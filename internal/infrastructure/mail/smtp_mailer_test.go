package mail

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomail "github.com/wneessen/go-mail"
	"go.uber.org/zap"

	"github.com/garyjia/meal-voucher/internal/application/port"
)

func TestSMTPMailer_Enabled(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want bool
	}{
		{"no host", Config{To: []string{"a@example.com"}}, false},
		{"no recipients", Config{Host: "smtp.example.com"}, false},
		{"configured", Config{Host: "smtp.example.com", To: []string{"a@example.com"}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NewSMTPMailer(tt.cfg, zap.NewNop()).Enabled())
		})
	}
}

func TestSMTPMailer_DisabledSendIsNoop(t *testing.T) {
	m := NewSMTPMailer(Config{}, zap.NewNop())
	err := m.Send(context.Background(), &port.MailMessage{
		Subject:     "Meal Voucher Report - 2024-05-01",
		Attachments: []string{"/does/not/exist.csv"},
	})
	assert.NoError(t, err)
}

func TestSMTPMailer_BuildMessage(t *testing.T) {
	attachment := filepath.Join(t.TempDir(), "voucher_report_2024-05-01.csv")
	require.NoError(t, os.WriteFile(attachment, []byte("employee_id\n"), 0o644))

	m := &SMTPMailer{
		cfg: Config{
			Host: "smtp.example.com",
			From: "reports@example.com",
			To:   []string{"a@example.com", "b@example.com"},
		},
		logger: zap.NewNop(),
	}

	out, err := m.buildMessage(&port.MailMessage{
		Subject:     "Meal Voucher Report - 2024-05-01",
		Body:        "Daily report attached for 2024-05-01.",
		Attachments: []string{attachment},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"Meal Voucher Report - 2024-05-01"}, out.GetGenHeader(gomail.HeaderSubject))
	rcpts, err := out.GetRecipients()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a@example.com", "b@example.com"}, rcpts)
	require.Len(t, out.GetAttachments(), 1)
	assert.Equal(t, "voucher_report_2024-05-01.csv", out.GetAttachments()[0].Name)
}

func TestSMTPMailer_BuildMessageMissingAttachment(t *testing.T) {
	m := &SMTPMailer{
		cfg:    Config{Host: "smtp.example.com", From: "reports@example.com", To: []string{"a@example.com"}},
		logger: zap.NewNop(),
	}

	_, err := m.buildMessage(&port.MailMessage{Subject: "x", Attachments: []string{"/nope/report.csv"}})
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestSMTPMailer_SendFailsOnUnreachableServer(t *testing.T) {
	m := NewSMTPMailer(Config{
		Host:    "127.0.0.1",
		Port:    1,
		From:    "reports@example.com",
		To:      []string{"a@example.com"},
		Timeout: time.Second,
	}, zap.NewNop())

	err := m.Send(context.Background(), &port.MailMessage{Subject: "x", Body: "y"})
	assert.Error(t, err)
}
