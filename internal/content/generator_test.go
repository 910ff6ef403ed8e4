package content

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fmbento/flights-tracker/internal/models"
)

type fakeGenerationClient struct {
	response json.RawMessage
	err      error
	lastUser string
}

func (f *fakeGenerationClient) Generate(ctx context.Context, systemPrompt, userPrompt string) (json.RawMessage, error) {
	f.lastUser = userPrompt
	return f.response, f.err
}

func summaryForTest() *SummaryContext {
	return BuildContext(models.DailyPriceUpdate{
		SummaryDate: time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		Alerts: []models.AlertSummary{{
			Alert: models.Alert{
				ID:      "a",
				Filters: models.AlertFilters{Origin: "SFO", Destination: "JFK"},
			},
			Flights: []models.FlightOption{{TotalPrice: 250, Currency: "USD"}},
		}},
	})
}

func validBlueprintJSON(t *testing.T) json.RawMessage {
	t.Helper()
	blueprint := models.EmailBlueprint{
		Metadata: models.BlueprintMetadata{Subject: "Fares for SFO to JFK"},
		Sections: []models.BlueprintSection{{
			Components: []models.BlueprintComponent{{
				Type: models.ComponentText,
				Text: "A nonstop fare is holding at 250 USD.",
			}},
		}},
	}
	raw, err := json.Marshal(blueprint)
	require.NoError(t, err)
	return raw
}

func TestAttemptNilClientReturnsNil(t *testing.T) {
	generator := NewGenerator(nil)

	assert.False(t, generator.Enabled())
	assert.Nil(t, generator.Attempt(context.Background(), summaryForTest()))
}

func TestAttemptReturnsValidatedBlueprint(t *testing.T) {
	client := &fakeGenerationClient{response: validBlueprintJSON(t)}
	generator := NewGenerator(client)

	blueprint := generator.Attempt(context.Background(), summaryForTest())

	require.NotNil(t, blueprint)
	assert.Equal(t, "Fares for SFO to JFK", blueprint.Metadata.Subject)
	// The prompt carries the summary and a schema example to imitate.
	assert.Contains(t, client.lastUser, "example_blueprint")
	assert.Contains(t, client.lastUser, "SFO-JFK")
}

func TestAttemptTransportFailureYieldsNil(t *testing.T) {
	generator := NewGenerator(&fakeGenerationClient{err: errors.New("timeout")})

	assert.Nil(t, generator.Attempt(context.Background(), summaryForTest()))
}

func TestAttemptMalformedJSONYieldsNil(t *testing.T) {
	generator := NewGenerator(&fakeGenerationClient{response: json.RawMessage(`{"metadata":`)})

	assert.Nil(t, generator.Attempt(context.Background(), summaryForTest()))
}

func TestAttemptSchemaViolationYieldsNil(t *testing.T) {
	// Valid JSON, but no subject and no sections.
	generator := NewGenerator(&fakeGenerationClient{response: json.RawMessage(`{"metadata":{},"sections":[]}`)})

	assert.Nil(t, generator.Attempt(context.Background(), summaryForTest()))
}
