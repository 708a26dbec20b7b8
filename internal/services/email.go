package services

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/taskloom/taskloom/backend/internal/config"
	"github.com/taskloom/taskloom/backend/pkg/logger"
)

// EmailService builds and delivers outbound email. Sending goes through
// the task queue so no request ever waits on SMTP; delivery failures are
// retried by the queue and otherwise dropped.
type EmailService struct {
	cfg   *config.EmailConfig
	queue TaskQueue
}

func NewEmailService(cfg *config.EmailConfig, queue TaskQueue) *EmailService {
	return &EmailService{cfg: cfg, queue: queue}
}

// SetQueue wires the dispatch queue. The queue's processor and the email
// service reference each other, so one side is attached after construction.
func (s *EmailService) SetQueue(queue TaskQueue) {
	s.queue = queue
}

// SendInvitation enqueues the invitation email for a directly-invited
// user. Best-effort: errors are logged and swallowed.
func (s *EmailService) SendInvitation(to, inviterName, projectName, roleName string) {
	if !s.cfg.Enabled || s.queue == nil {
		return
	}

	subject := fmt.Sprintf("[Taskloom] %s invited you to %s", inviterName, projectName)
	body := s.buildInvitationBody(inviterName, projectName, roleName)

	if err := s.queue.Enqueue(&EmailTask{To: []string{to}, Subject: subject, Body: body}); err != nil {
		logger.Warnf("[Email] failed to enqueue invitation email to %s: %v", to, err)
	}
}

func (s *EmailService) buildInvitationBody(inviterName, projectName, roleName string) string {
	var sb strings.Builder

	sb.WriteString("<html><body style=\"font-family: Arial, sans-serif;\">")
	sb.WriteString("<h2>You have been invited to a project</h2>")
	sb.WriteString("<table style=\"border-collapse: collapse; margin-bottom: 20px;\">")

	rows := []struct{ label, value string }{
		{"Project", projectName},
		{"Invited by", inviterName},
		{"Role", roleName},
	}
	for _, r := range rows {
		sb.WriteString(fmt.Sprintf("<tr><td style=\"padding: 8px; border: 1px solid #ddd; font-weight: bold;\">%s</td><td style=\"padding: 8px; border: 1px solid #ddd;\">%s</td></tr>", r.label, r.value))
	}
	sb.WriteString("</table>")

	if s.cfg.BaseURL != "" {
		sb.WriteString(fmt.Sprintf("<p><a href=\"%s/invitations\">Accept or decline the invitation</a></p>", s.cfg.BaseURL))
	}

	sb.WriteString("<hr><p style=\"color: #888; font-size: 12px;\">Powered by Taskloom</p>")
	sb.WriteString("</body></html>")

	return sb.String()
}

// Deliver sends one queued email over SMTP. Registered as the queue
// processor.
func (s *EmailService) Deliver(_ context.Context, task *EmailTask) error {
	if !s.cfg.Enabled || s.cfg.Host == "" {
		return nil
	}
	if len(task.To) == 0 {
		return nil
	}
	return s.sendEmail(task.To, task.Subject, task.Body)
}

func (s *EmailService) sendEmail(to []string, subject, body string) error {
	from := s.cfg.From
	if from == "" {
		from = s.cfg.Username
	}

	headers := make(map[string]string)
	headers["From"] = from
	headers["To"] = strings.Join(to, ",")
	headers["Subject"] = subject
	headers["MIME-Version"] = "1.0"
	headers["Content-Type"] = "text/html; charset=UTF-8"

	var message strings.Builder
	for k, v := range headers {
		message.WriteString(fmt.Sprintf("%s: %s\r\n", k, v))
	}
	message.WriteString("\r\n")
	message.WriteString(body)

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	var auth smtp.Auth
	if s.cfg.Username != "" && s.cfg.Password != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}

	var err error
	if s.cfg.UseTLS {
		err = s.sendEmailTLS(addr, auth, from, to, message.String())
	} else {
		err = smtp.SendMail(addr, auth, from, to, []byte(message.String()))
	}

	if err != nil {
		logger.Infof("[Email] Failed to send email: %v", err)
		return err
	}

	logger.Infof("[Email] Sent email to %v", to)
	return nil
}

func (s *EmailService) sendEmailTLS(addr string, auth smtp.Auth, from string, to []string, message string) error {
	tlsConfig := &tls.Config{
		ServerName: s.cfg.Host,
	}

	conn, err := tls.Dial("tcp", addr, tlsConfig)
	if err != nil {
		return err
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		return err
	}
	defer client.Close()

	if auth != nil {
		if err := client.Auth(auth); err != nil {
			return err
		}
	}

	if err := client.Mail(from); err != nil {
		return err
	}

	for _, rcpt := range to {
		if err := client.Rcpt(rcpt); err != nil {
			return err
		}
	}

	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write([]byte(message)); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}

	return client.Quit()
}
