package mailer

import (
	"fmt"
	"net/http"
	"os"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

// Mailer sends transactional mail. Delivery is single-attempt; callers decide
// whether a send failure is fatal.
type Mailer interface {
	SendPasswordReset(to, name, resetURL string) error
}

type sendgridMailer struct {
	key     string
	from    *sgmail.Email
	appName string
}

// NewSendgridMailer reads SENDGRID_API_KEY, MAIL_FROM and MAIL_FROM_NAME from
// the environment.
func NewSendgridMailer() Mailer {
	fromAddr := os.Getenv("MAIL_FROM")
	if fromAddr == "" {
		fromAddr = "no-reply@coursemarket.app"
	}
	fromName := os.Getenv("MAIL_FROM_NAME")
	if fromName == "" {
		fromName = "Course Market"
	}

	return &sendgridMailer{
		key:     os.Getenv("SENDGRID_API_KEY"),
		from:    sgmail.NewEmail(fromName, fromAddr),
		appName: fromName,
	}
}

func (m *sendgridMailer) SendPasswordReset(to, name, resetURL string) error {
	subject := fmt.Sprintf("[%s] Reset your password", m.appName)
	plain := fmt.Sprintf(
		"Hi %s,\n\nWe received a request to reset your password. Open the link below to choose a new one. The link expires in 15 minutes and can be used once.\n\n%s\n\nIf you did not request this, you can ignore this email.",
		name, resetURL,
	)
	html := fmt.Sprintf(
		`<p>Hi %s,</p><p>We received a request to reset your password. Click the link below to choose a new one. The link expires in 15 minutes and can be used once.</p><p><a href="%s">Reset password</a></p><p>If you did not request this, you can ignore this email.</p>`,
		name, resetURL,
	)

	message := sgmail.NewSingleEmail(m.from, subject, sgmail.NewEmail(name, to), plain, html)
	client := sendgrid.NewSendClient(m.key)

	resp, err := client.Send(message)
	if err != nil {
		return fmt.Errorf("failed to send reset email: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("sendgrid returned status %d: %s", resp.StatusCode, resp.Body)
	}

	return nil
}
