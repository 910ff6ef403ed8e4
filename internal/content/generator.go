package content

import (
	"context"
	"encoding/json"

	"github.com/sirupsen/logrus"

	"github.com/fmbento/flights-tracker/internal/models"
	"github.com/fmbento/flights-tracker/pkg/utils"
)

// GenerationClient is the structured-generation collaborator contract. The
// response is the collaborator's raw JSON object; schema conformance is
// enforced locally.
type GenerationClient interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string) (json.RawMessage, error)
}

// systemPrompt is the fixed instruction sent with every generation request.
const systemPrompt = `You compose flight price notification emails as structured JSON.
Given a summary of flight search results, produce an email blueprint with a
subject, preview text, intro, and sections of typed components (text,
flight-card, chart, badge-row). Keep copy concise and factual; never invent
prices or routes that are not in the summary. Respond with JSON only,
matching the schema of the example blueprint.`

// Generator attempts AI blueprint generation. A nil client means generation
// is unconfigured: Attempt returns nil immediately and every email uses the
// deterministic fallback. Attempt never returns an error; nil is the only
// failure signal upward.
type Generator struct {
	client GenerationClient
	logger *logrus.Logger
}

// NewGenerator creates a generator. Pass a nil client to disable generation.
func NewGenerator(client GenerationClient) *Generator {
	return &Generator{
		client: client,
		logger: utils.GetLogger(),
	}
}

// Enabled reports whether a generation collaborator is configured.
func (g *Generator) Enabled() bool {
	return g.client != nil
}

// Attempt requests a blueprint for the summary context. Any failure
// (transport, malformed JSON, schema violation) is logged and yields nil.
func (g *Generator) Attempt(ctx context.Context, sc *SummaryContext) *models.EmailBlueprint {
	if g.client == nil {
		g.logger.Info("Blueprint generation not configured, using fallback template")
		return nil
	}

	userPrompt, err := buildUserPrompt(sc)
	if err != nil {
		g.logger.WithField("error", err).Warn("Failed to build generation prompt")
		return nil
	}

	raw, err := g.client.Generate(ctx, systemPrompt, userPrompt)
	if err != nil {
		g.logger.WithFields(logrus.Fields{
			"kind":  sc.Kind,
			"error": err,
		}).Warn("Blueprint generation failed")
		return nil
	}

	var blueprint models.EmailBlueprint
	if err := json.Unmarshal(raw, &blueprint); err != nil {
		g.logger.WithFields(logrus.Fields{
			"kind":  sc.Kind,
			"error": err,
		}).Warn("Blueprint response is not valid JSON")
		return nil
	}

	if err := blueprint.Validate(); err != nil {
		g.logger.WithFields(logrus.Fields{
			"kind":  sc.Kind,
			"error": err,
		}).Warn("Blueprint failed schema validation, discarding")
		return nil
	}

	return &blueprint
}

// buildUserPrompt serializes the summary context together with a baseline
// example blueprint the collaborator should imitate.
func buildUserPrompt(sc *SummaryContext) (string, error) {
	payload := struct {
		Summary *SummaryContext       `json:"summary"`
		Example models.EmailBlueprint `json:"example_blueprint"`
	}{
		Summary: sc,
		Example: baselineBlueprint(sc),
	}

	encoded, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	return string(encoded), nil
}

// baselineBlueprint is the schema-shaped example included in every prompt.
func baselineBlueprint(sc *SummaryContext) models.EmailBlueprint {
	subject := "Your flight price update"
	if sc.Kind == models.PayloadPriceDropAlert {
		subject = "Price drop on a route you follow"
	}

	return models.EmailBlueprint{
		Metadata: models.BlueprintMetadata{
			Subject:     subject,
			PreviewText: "Fresh fares for the routes you track",
			Intro:       "Here is what we found for your saved searches today.",
		},
		Sections: []models.BlueprintSection{
			{
				Title: "Best fare",
				Components: []models.BlueprintComponent{
					{
						Type: models.ComponentFlightCard,
						FlightCard: &models.FlightCard{
							Route:    "SFO → JFK",
							Airline:  "UA",
							Price:    250,
							Currency: "USD",
							Stops:    0,
						},
					},
					{
						Type: models.ComponentBadgeRow,
						Badges: []string{
							"Nonstop",
							"Under budget",
						},
					},
				},
			},
		},
	}
}
