// Package email renders and delivers the sales notification emails over SMTP.
package email

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"venue_crm_backend/platform/config"

	gomail "github.com/wneessen/go-mail"
)

// Sender delivers the notification emails. The notification module depends on
// this interface so tests can substitute a recording fake.
type Sender interface {
	SendContactHotEmail(ctx context.Context, toEmail, contactName string, score float64) error
	SendStageProgressedEmail(ctx context.Context, toEmail, contactName, fromStage, toStage, ruleName string, automated bool) error
}

// SMTPSender implements Sender with a direct SMTP connection via go-mail.
type SMTPSender struct {
	host      string
	port      int
	username  string
	password  string
	fromName  string
	fromEmail string
}

// NewSMTPSender creates a new SMTPSender from the email configuration.
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
		gomail.WithDialContextFunc(func(dctx context.Context, _ string, addr string) (net.Conn, error) {
			return (&net.Dialer{}).DialContext(dctx, "tcp4", addr)
		}),
	)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}

	return nil
}

// SendContactHotEmail notifies the sales inbox that a contact became HOT.
func (s *SMTPSender) SendContactHotEmail(ctx context.Context, toEmail, contactName string, score float64) error {
	subject := fmt.Sprintf(subjectContactHotFmt, contactName)
	content, err := renderEmailTemplate("contact_hot.html", contactHotEmailData{
		baseEmailData: baseEmailData{
			Title:   "Hot lead",
			Heading: "A lead just turned hot",
		},
		ContactName: contactName,
		Score:       strconv.FormatFloat(score, 'f', -1, 64),
	})
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, subject, content)
}

// SendStageProgressedEmail notifies the sales inbox about a stage change.
func (s *SMTPSender) SendStageProgressedEmail(ctx context.Context, toEmail, contactName, fromStage, toStage, ruleName string, automated bool) error {
	subject := fmt.Sprintf(subjectStageProgressedFmt, contactName, toStage)
	content, err := renderEmailTemplate("stage_progressed.html", stageProgressedEmailData{
		baseEmailData: baseEmailData{
			Title:   "Pipeline update",
			Heading: "Pipeline stage changed",
		},
		ContactName: contactName,
		FromStage:   fromStage,
		ToStage:     toStage,
		RuleName:    ruleName,
		Automated:   automated,
	})
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, subject, content)
}

var _ Sender = (*SMTPSender)(nil)
