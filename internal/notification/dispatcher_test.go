package notification

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fmbento/flights-tracker/internal/models"
)

type fakeTransport struct {
	sent []*Message
	err  error
}

func (f *fakeTransport) Send(ctx context.Context, msg *Message) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

func testDispatcher(transport Transport) *Dispatcher {
	return NewDispatcher(&DispatcherConfig{
		FromEmail: "alerts@example.com",
		FromName:  "Flights Tracker",
	}, transport)
}

func TestFormatAddress(t *testing.T) {
	assert.Equal(t, "Jo Doe <jo@example.com>", FormatAddress("Jo Doe", "jo@example.com"))
	assert.Equal(t, "jo@example.com", FormatAddress("", "jo@example.com"))
}

func TestSendBuildsHeadersAndDelivers(t *testing.T) {
	transport := &fakeTransport{}
	dispatcher := testDispatcher(transport)

	rendered := models.RenderedEmail{
		Subject: "Your daily flight update",
		HTML:    "<p>Fares</p>",
		Text:    "Fares",
	}
	recipient := models.Recipient{Email: "jo@example.com", Name: "Jo"}

	err := dispatcher.Send(context.Background(), recipient, rendered)
	require.NoError(t, err)

	require.Len(t, transport.sent, 1)
	msg := transport.sent[0]
	assert.Equal(t, "Flights Tracker <alerts@example.com>", msg.From)
	assert.Equal(t, "Jo <jo@example.com>", msg.To)
	assert.Equal(t, "Your daily flight update", msg.Subject)
	assert.Equal(t, "<p>Fares</p>", msg.HTML)
	assert.Equal(t, "Fares", msg.Text)
}

func TestSendRequiresRecipientEmail(t *testing.T) {
	transport := &fakeTransport{}
	dispatcher := testDispatcher(transport)

	err := dispatcher.Send(context.Background(), models.Recipient{}, models.RenderedEmail{Subject: "x"})
	require.Error(t, err)
	assert.Empty(t, transport.sent)
}

func TestSendPassesTransportErrorThrough(t *testing.T) {
	transportErr := errors.New("smtp unreachable")
	dispatcher := testDispatcher(&fakeTransport{err: transportErr})

	err := dispatcher.Send(context.Background(),
		models.Recipient{Email: "jo@example.com"}, models.RenderedEmail{Subject: "x"})

	// The dispatcher adds no wrapping or retries of its own.
	assert.Equal(t, transportErr, err)
}

func TestSMTPTransportHonorsCancelledContext(t *testing.T) {
	transport := NewSMTPTransport(&SMTPConfig{Host: "localhost", Port: 2525})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := transport.Send(ctx, &Message{From: "a@example.com", To: "b@example.com"})
	assert.ErrorIs(t, err, context.Canceled)
}
