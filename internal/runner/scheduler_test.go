package runner

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fmbento/flights-tracker/internal/models"
)

type fakeUserSource struct {
	ids []string
	err error
}

func (f *fakeUserSource) ListUserIDs(ctx context.Context) ([]string, error) {
	return f.ids, f.err
}

func TestSchedulerStartStop(t *testing.T) {
	runner := newTestRunner(newFakeStore(), &stubSearcher{}, &fakeTransport{}, true)
	scheduler := NewScheduler(runner, &fakeUserSource{}, time.Hour)

	require.NoError(t, scheduler.Start(context.Background()))
	assert.True(t, scheduler.IsRunning())

	// A second start while running is rejected.
	assert.Error(t, scheduler.Start(context.Background()))

	require.NoError(t, scheduler.Stop())
	assert.False(t, scheduler.IsRunning())

	// Stopping twice is harmless, and the scheduler can be restarted.
	require.NoError(t, scheduler.Stop())
	require.NoError(t, scheduler.Start(context.Background()))
	assert.True(t, scheduler.IsRunning())
	require.NoError(t, scheduler.Stop())
}

func TestRunAllContinuesPastFailingUser(t *testing.T) {
	store := newFakeStore()
	// The broken user has no recipient row, so delivery fails for them.
	store.alerts["broken"] = []models.Alert{{
		ID: "x", UserID: "broken", Status: models.AlertStatusActive,
		Filters: models.AlertFilters{Origin: "SFO", Destination: "JFK"},
	}}
	healthy := activeAlert("a")
	store.alerts["user-1"] = []models.Alert{healthy}
	store.recipients["user-1"] = &models.Recipient{Email: "jo@example.com"}

	transport := &fakeTransport{}
	runner := newTestRunner(store, &stubSearcher{flights: matchingFlights()}, transport, true)
	scheduler := NewScheduler(runner, &fakeUserSource{ids: []string{"broken", "user-1"}}, time.Hour)

	scheduler.runAll(context.Background(), nil)

	// The healthy user still got their digest.
	require.Len(t, transport.sent, 1)
	assert.Equal(t, "jo@example.com", transport.sent[0].To)
}

func TestRunAllStopsWhenContextCancelled(t *testing.T) {
	store := newFakeStore()
	store.alerts["user-1"] = []models.Alert{activeAlert("a")}
	store.recipients["user-1"] = &models.Recipient{Email: "jo@example.com"}

	transport := &fakeTransport{}
	runner := newTestRunner(store, &stubSearcher{flights: matchingFlights()}, transport, true)
	scheduler := NewScheduler(runner, &fakeUserSource{ids: []string{"user-1"}}, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	scheduler.runAll(ctx, nil)

	assert.Empty(t, transport.sent)
}

func TestRunAllListFailureIsLoggedNotFatal(t *testing.T) {
	runner := newTestRunner(newFakeStore(), &stubSearcher{}, &fakeTransport{}, true)
	scheduler := NewScheduler(runner, &fakeUserSource{err: errors.New("database down")}, time.Hour)

	scheduler.runAll(context.Background(), nil)
}

func TestNewSchedulerDefaultsInterval(t *testing.T) {
	runner := newTestRunner(newFakeStore(), &stubSearcher{}, &fakeTransport{}, true)
	scheduler := NewScheduler(runner, &fakeUserSource{}, 0)

	assert.Equal(t, time.Hour, scheduler.interval)
}
