package service

import (
	"io"
	"strings"

	"github.com/blane-next/internal/config"

	"gopkg.in/gomail.v2"
)

// MailAttachment 邮件附件
type MailAttachment struct {
	Filename    string
	ContentType string
	Content     []byte
}

// MailMessage 待发送邮件
type MailMessage struct {
	To          []string
	Subject     string
	Body        string
	HTML        bool
	Attachments []MailAttachment
}

// Mailer 邮件发送接口
type Mailer interface {
	Send(msg MailMessage) error
}

// EmailService 基于 SMTP 的邮件发送服务
type EmailService struct {
	cfg  *config.EmailConfig
	send func(d *gomail.Dialer, m *gomail.Message) error
}

// NewEmailService 创建邮件服务
func NewEmailService(cfg *config.EmailConfig) *EmailService {
	return &EmailService{
		cfg: cfg,
		send: func(d *gomail.Dialer, m *gomail.Message) error {
			return d.DialAndSend(m)
		},
	}
}

// SetConfig 更新运行时邮件配置
func (s *EmailService) SetConfig(cfg *config.EmailConfig) {
	if cfg == nil {
		return
	}
	s.cfg = cfg
}

// Send 发送邮件
func (s *EmailService) Send(msg MailMessage) error {
	if s.cfg == nil || !s.cfg.Enabled {
		return ErrEmailServiceDisabled
	}
	if s.cfg.Host == "" || s.cfg.Port == 0 || s.cfg.From == "" {
		return ErrEmailServiceNotConfigured
	}
	recipients := make([]string, 0, len(msg.To))
	for _, to := range msg.To {
		to = strings.TrimSpace(to)
		if to == "" {
			continue
		}
		if !isValidEmail(to) {
			return ErrInvalidEmail
		}
		recipients = append(recipients, to)
	}
	if len(recipients) == 0 {
		return ErrInvalidEmail
	}

	m := buildMailMessage(s.cfg, recipients, msg)
	dialer := gomail.NewDialer(s.cfg.Host, s.cfg.Port, s.cfg.Username, s.cfg.Password)
	dialer.SSL = s.cfg.UseSSL
	return normalizeEmailSendError(s.send(dialer, m))
}

func buildMailMessage(cfg *config.EmailConfig, recipients []string, msg MailMessage) *gomail.Message {
	m := gomail.NewMessage()
	if name := strings.TrimSpace(cfg.FromName); name != "" {
		m.SetAddressHeader("From", cfg.From, name)
	} else {
		m.SetHeader("From", cfg.From)
	}
	m.SetHeader("To", recipients...)
	m.SetHeader("Subject", strings.TrimSpace(msg.Subject))
	contentType := "text/plain"
	if msg.HTML {
		contentType = "text/html"
	}
	m.SetBody(contentType, msg.Body)
	for _, attachment := range msg.Attachments {
		content := attachment.Content
		settings := []gomail.FileSetting{
			gomail.SetCopyFunc(func(w io.Writer) error {
				_, err := w.Write(content)
				return err
			}),
		}
		if attachment.ContentType != "" {
			settings = append(settings, gomail.SetHeader(map[string][]string{
				"Content-Type": {attachment.ContentType},
			}))
		}
		m.Attach(attachment.Filename, settings...)
	}
	return m
}

func normalizeEmailSendError(err error) error {
	if err == nil {
		return nil
	}
	if isEmailRecipientRejected(err) {
		return ErrEmailRecipientRejected
	}
	return err
}

func isEmailRecipientRejected(err error) bool {
	if err == nil {
		return false
	}
	message := strings.ToLower(strings.TrimSpace(err.Error()))
	if message == "" {
		return false
	}
	for _, keyword := range []string{
		"no such recipient",
		"no such user",
		"recipient address rejected",
		"user unknown",
		"mailbox unavailable",
	} {
		if strings.Contains(message, keyword) {
			return true
		}
	}
	if strings.Contains(message, "550") {
		for _, hint := range []string{"recipient", "mailbox", "rcpt"} {
			if strings.Contains(message, hint) {
				return true
			}
		}
	}
	return false
}
