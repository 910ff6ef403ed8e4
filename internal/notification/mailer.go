package notification

import (
	"context"
	"fmt"
	"net/smtp"

	"github.com/jordan-wright/email"

	"github.com/fmbento/flights-tracker/pkg/utils"
)

// Message is the wire-level email handed to a transport.
type Message struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
	Text    string `json:"text"`
}

// Transport is the external email-sending collaborator. Retries, if any, are
// the transport's responsibility.
type Transport interface {
	Send(ctx context.Context, msg *Message) error
}

// SMTPConfig holds SMTP transport configuration
type SMTPConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// SMTPTransport sends email over SMTP.
type SMTPTransport struct {
	config *SMTPConfig
}

// NewSMTPTransport creates an SMTP transport
func NewSMTPTransport(config *SMTPConfig) *SMTPTransport {
	return &SMTPTransport{config: config}
}

// Send delivers a single message over SMTP.
func (t *SMTPTransport) Send(ctx context.Context, msg *Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	e := email.NewEmail()
	e.From = msg.From
	e.To = []string{msg.To}
	e.Subject = msg.Subject
	e.HTML = []byte(msg.HTML)
	e.Text = []byte(msg.Text)

	var auth smtp.Auth
	if t.config.Username != "" {
		auth = smtp.PlainAuth("", t.config.Username, t.config.Password, t.config.Host)
	}

	addr := fmt.Sprintf("%s:%d", t.config.Host, t.config.Port)
	if err := e.Send(addr, auth); err != nil {
		return utils.NewAppError(utils.ErrCodeExternal, "Failed to send email", err.Error())
	}
	return nil
}
