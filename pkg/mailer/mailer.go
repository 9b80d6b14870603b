package mailer

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// Mailer delivers transactional emails.
type Mailer interface {
	SendPasswordReset(ctx context.Context, to, username, resetURL string) error
}

// SMTPMailer sends mail through an SMTP relay.
type SMTPMailer struct {
	dialer    *gomail.Dialer
	fromEmail string
	fromName  string
}

func NewSMTPMailer(host string, port int, username, password, fromEmail, fromName string) *SMTPMailer {
	return &SMTPMailer{
		dialer:    gomail.NewDialer(host, port, username, password),
		fromEmail: fromEmail,
		fromName:  fromName,
	}
}

// SendPasswordReset sends the reset link to the user.
func (m *SMTPMailer) SendPasswordReset(ctx context.Context, to, username, resetURL string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	body, err := passwordResetHTML(username, resetURL)
	if err != nil {
		return err
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", msg.FormatAddress(m.fromEmail, m.fromName))
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", "Password Reset Request")
	msg.SetBody("text/plain", passwordResetText(username, resetURL))
	msg.AddAlternative("text/html", body)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send password reset email: %w", err)
	}
	return nil
}

// LogMailer writes the mail to the log instead of sending it. Used when SMTP_HOST is empty.
type LogMailer struct {
	logger *zap.Logger
}

func NewLogMailer(logger *zap.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) SendPasswordReset(_ context.Context, to, username, resetURL string) error {
	m.logger.Info("password reset email (not sent, SMTP disabled)",
		zap.String("to", to),
		zap.String("username", username),
		zap.String("reset_url", resetURL),
	)
	return nil
}

func passwordResetText(username, resetURL string) string {
	return fmt.Sprintf(`Hello %s,

You requested a password reset. Open the link below to choose a new password:
%s

If you did not request this, please ignore this email.
`, username, resetURL)
}

var passwordResetTemplate = template.Must(template.New("password_reset").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
    <h2>Hello {{.Username}}!</h2>
    <p>You requested a password reset. Click the button below to choose a new password.</p>
    <p><a href="{{.ResetURL}}" style="display: inline-block; background: #007bff; color: white; padding: 12px 24px; text-decoration: none; border-radius: 6px;">Reset password</a></p>
    <p>If you did not request this, please ignore this email. Your password will remain unchanged.</p>
</body>
</html>`))

func passwordResetHTML(username, resetURL string) (string, error) {
	var buf bytes.Buffer
	err := passwordResetTemplate.Execute(&buf, struct {
		Username string
		ResetURL string
	}{username, resetURL})
	if err != nil {
		return "", fmt.Errorf("failed to render password reset email: %w", err)
	}
	return buf.String(), nil
}
