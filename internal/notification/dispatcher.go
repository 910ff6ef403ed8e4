package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fmbento/flights-tracker/internal/models"
	"github.com/fmbento/flights-tracker/pkg/utils"
)

// DispatcherConfig holds sender identity configuration
type DispatcherConfig struct {
	FromEmail string `json:"from_email"`
	FromName  string `json:"from_name"`
}

// Dispatcher formats the final recipient and sender headers and hands the
// rendered email to the transport. The transport's result passes through
// unchanged; the dispatcher adds no retry logic of its own.
type Dispatcher struct {
	config    *DispatcherConfig
	transport Transport
	logger    *logrus.Logger
}

// NewDispatcher creates a new dispatcher
func NewDispatcher(config *DispatcherConfig, transport Transport) *Dispatcher {
	return &Dispatcher{
		config:    config,
		transport: transport,
		logger:    utils.GetLogger(),
	}
}

// Send delivers a rendered email to the recipient.
func (d *Dispatcher) Send(ctx context.Context, recipient models.Recipient, rendered models.RenderedEmail) error {
	if recipient.Email == "" {
		return utils.NewAppError(utils.ErrCodeValidation, "Recipient email is required", "")
	}

	msg := &Message{
		From:    FormatAddress(d.config.FromName, d.config.FromEmail),
		To:      FormatAddress(recipient.Name, recipient.Email),
		Subject: rendered.Subject,
		HTML:    rendered.HTML,
		Text:    rendered.Text,
	}

	start := time.Now()
	err := d.transport.Send(ctx, msg)
	if err != nil {
		d.logger.WithFields(logrus.Fields{
			"to":      recipient.Email,
			"subject": rendered.Subject,
			"error":   err,
		}).Error("Email delivery failed")
		return err
	}

	d.logger.WithFields(logrus.Fields{
		"to":       recipient.Email,
		"subject":  rendered.Subject,
		"duration": time.Since(start),
	}).Info("Email delivered")
	return nil
}

// FormatAddress builds a "Name <email>" header when a display name is
// available, else the bare email.
func FormatAddress(name, address string) string {
	if name == "" {
		return address
	}
	return fmt.Sprintf("%s <%s>", name, address)
}
