package notification

import (
	"context"
	"fmt"
	"time"

	"crm_pipeline_backend/platform/config"

	gomail "github.com/wneessen/go-mail"
)

// SMTPSender implements Sender over a direct SMTP connection via go-mail.
type SMTPSender struct {
	host      string
	port      int
	username  string
	password  string
	fromName  string
	fromEmail string
}

// NewSMTPSender creates a sender from the email configuration.
func NewSMTPSender(cfg config.EmailConfig) *SMTPSender {
	return &SMTPSender{
		host:      cfg.GetSMTPHost(),
		port:      cfg.GetSMTPPort(),
		username:  cfg.GetSMTPUsername(),
		password:  cfg.GetSMTPPassword(),
		fromName:  cfg.GetEmailFromName(),
		fromEmail: cfg.GetEmailFromAddress(),
	}
}

func (s *SMTPSender) SendMeetingReminder(ctx context.Context, toEmail, title string, startsAt time.Time) error {
	subject := fmt.Sprintf("Reminder: %s", title)
	body := fmt.Sprintf(
		"<p>This is a reminder for your upcoming meeting.</p><p><strong>%s</strong><br>%s</p>",
		title, startsAt.Format("Monday, 2 January 2006 at 15:04 MST"),
	)
	return s.send(ctx, toEmail, subject, body)
}

func (s *SMTPSender) SendContactAssigned(ctx context.Context, toEmail, contactName string) error {
	subject := fmt.Sprintf("Contact assigned: %s", contactName)
	body := fmt.Sprintf(
		"<p>The contact <strong>%s</strong> has a new assignee.</p>",
		contactName,
	)
	return s.send(ctx, toEmail, subject, body)
}

func (s *SMTPSender) send(ctx context.Context, toEmail, subject, htmlContent string) error {
	msg := gomail.NewMsg()
	if err := msg.FromFormat(s.fromName, s.fromEmail); err != nil {
		return fmt.Errorf("smtp from: %w", err)
	}
	if err := msg.To(toEmail); err != nil {
		return fmt.Errorf("smtp to: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextHTML, htmlContent)

	client, err := gomail.NewClient(s.host,
		gomail.WithPort(s.port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(s.username),
		gomail.WithPassword(s.password),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(15*time.Second),
	)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}

	return nil
}
