package contact

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Zachkp/portfolio/internal/config"
	"github.com/Zachkp/portfolio/internal/crud"
)

func TestMessageValidate(t *testing.T) {
	tests := []struct {
		name    string
		msg     Message
		wantErr bool
	}{
		{name: "valid", msg: Message{Name: " Ada ", Email: "ada@example.com", Message: "hello"}},
		{name: "missing name", msg: Message{Email: "ada@example.com", Message: "hello"}, wantErr: true},
		{name: "missing message", msg: Message{Name: "Ada", Email: "ada@example.com", Message: "  "}, wantErr: true},
		{name: "bad email", msg: Message{Name: "Ada", Email: "not-an-email", Message: "hello"}, wantErr: true},
		{name: "header injection", msg: Message{Name: "Ada\r\nBcc: x@y.z", Email: "ada@example.com", Message: "hello"}, wantErr: true},
		{name: "too long", msg: Message{Name: "Ada", Email: "ada@example.com", Message: strings.Repeat("a", maxMessageLen+1)}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.msg.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, crud.ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "Ada", tt.msg.Name)
		})
	}
}

func TestSMTPMailerNotConfigured(t *testing.T) {
	m := NewSMTPMailer(config.SMTPConfig{Host: "smtp.example.com", Port: "587"}, zap.NewNop())
	assert.False(t, m.Configured())
	assert.ErrorIs(t, m.Send(context.Background(), Message{}), ErrNotConfigured)
}

func TestSMTPMailerSend(t *testing.T) {
	m := NewSMTPMailer(config.SMTPConfig{
		Host: "smtp.example.com",
		Port: "587",
		User: "me@example.com",
		Pass: "secret",
	}, zap.NewNop())

	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte
	m.send = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, msg
		return nil
	}

	err := m.Send(context.Background(), Message{Name: "Ada", Email: "ada@example.com", Message: "Hi there"})
	require.NoError(t, err)

	assert.Equal(t, "smtp.example.com:587", gotAddr)
	assert.Equal(t, "me@example.com", gotFrom)
	assert.Equal(t, []string{"me@example.com"}, gotTo)
	body := string(gotMsg)
	assert.Contains(t, body, "Subject: Portfolio Contact: Ada\r\n")
	assert.Contains(t, body, "Reply-To: ada@example.com\r\n")
	assert.Contains(t, body, "Hi there")
}

func TestSMTPMailerSendError(t *testing.T) {
	m := NewSMTPMailer(config.SMTPConfig{Host: "h", Port: "25", User: "u@x.y", Pass: "p", ToEmail: "to@x.y"}, zap.NewNop())
	m.send = func(string, smtp.Auth, string, []string, []byte) error { return errors.New("535 auth failed") }

	err := m.Send(context.Background(), Message{Name: "Ada", Email: "ada@example.com", Message: "hi"})
	assert.ErrorContains(t, err, "535 auth failed")
}
