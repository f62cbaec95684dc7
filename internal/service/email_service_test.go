package service

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/blane-next/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"
)

func testEmailConfig() *config.EmailConfig {
	return &config.EmailConfig{
		Enabled:  true,
		Host:     "smtp.example.com",
		Port:     465,
		Username: "noreply",
		Password: "secret",
		From:     "noreply@example.com",
		FromName: "Settlements",
		UseSSL:   true,
	}
}

func TestEmailServiceSendGuards(t *testing.T) {
	svc := NewEmailService(nil)
	assert.ErrorIs(t, svc.Send(MailMessage{To: []string{"a@example.com"}}), ErrEmailServiceDisabled)

	svc.SetConfig(&config.EmailConfig{Enabled: true})
	assert.ErrorIs(t, svc.Send(MailMessage{To: []string{"a@example.com"}}), ErrEmailServiceNotConfigured)

	svc.SetConfig(testEmailConfig())
	svc.send = func(*gomail.Dialer, *gomail.Message) error { return nil }
	assert.ErrorIs(t, svc.Send(MailMessage{To: []string{"not-an-email"}}), ErrInvalidEmail)
	assert.ErrorIs(t, svc.Send(MailMessage{To: []string{" ", ""}}), ErrInvalidEmail)
}

func TestEmailServiceSendBuildsMessage(t *testing.T) {
	svc := NewEmailService(testEmailConfig())
	var (
		gotDialer  *gomail.Dialer
		gotMessage *gomail.Message
	)
	svc.send = func(d *gomail.Dialer, m *gomail.Message) error {
		gotDialer = d
		gotMessage = m
		return nil
	}

	err := svc.Send(MailMessage{
		To:      []string{" finance@example.com "},
		Subject: " Weekly report ",
		Body:    "see attachment",
		Attachments: []MailAttachment{{
			Filename:    "report.csv",
			ContentType: "text/csv",
			Content:     []byte("a,b\n"),
		}},
	})
	require.NoError(t, err)
	require.NotNil(t, gotDialer)
	assert.Equal(t, "smtp.example.com", gotDialer.Host)
	assert.Equal(t, 465, gotDialer.Port)
	assert.True(t, gotDialer.SSL)

	assert.Equal(t, []string{"finance@example.com"}, gotMessage.GetHeader("To"))
	assert.Equal(t, []string{"Weekly report"}, gotMessage.GetHeader("Subject"))
	var buf bytes.Buffer
	_, err = gotMessage.WriteTo(&buf)
	require.NoError(t, err)
	raw := buf.String()
	assert.Contains(t, raw, "report.csv")
	assert.Contains(t, raw, "see attachment")
}

func TestEmailServiceRecipientRejected(t *testing.T) {
	svc := NewEmailService(testEmailConfig())
	svc.send = func(*gomail.Dialer, *gomail.Message) error {
		return errors.New("550 5.1.1 Recipient address rejected: user unknown")
	}
	assert.ErrorIs(t, svc.Send(MailMessage{To: []string{"ghost@example.com"}}), ErrEmailRecipientRejected)

	svc.send = func(*gomail.Dialer, *gomail.Message) error {
		return errors.New("dial tcp: connection refused")
	}
	err := svc.Send(MailMessage{To: []string{"ghost@example.com"}})
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrEmailRecipientRejected))
	assert.True(t, strings.Contains(err.Error(), "connection refused"))
}
