package models

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fmbento/flights-tracker/pkg/utils"
)

func validBlueprint() *EmailBlueprint {
	return &EmailBlueprint{
		Metadata: BlueprintMetadata{
			Subject:     "Your flight price update",
			PreviewText: "Fresh fares for the routes you track",
			Intro:       "Here is what we found today.",
		},
		Sections: []BlueprintSection{{
			Title: "Best fare",
			Components: []BlueprintComponent{
				{Type: ComponentText, Text: "A nonstop fare is available."},
				{Type: ComponentFlightCard, FlightCard: &FlightCard{
					Route: "SFO → JFK", Airline: "UA", Price: 250, Currency: "USD",
				}},
				{Type: ComponentChart, Chart: &ChartComponent{
					Points: []ChartPoint{{Label: "Mon", Value: 250}},
				}},
				{Type: ComponentBadgeRow, Badges: []string{"Nonstop"}},
			},
		}},
	}
}

func TestValidateAcceptsValidBlueprint(t *testing.T) {
	assert.NoError(t, validBlueprint().Validate())
}

func TestValidateRequiresSubject(t *testing.T) {
	b := validBlueprint()
	b.Metadata.Subject = ""

	err := b.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "metadata.subject")
}

func TestValidateRejectsOverlongSubject(t *testing.T) {
	b := validBlueprint()
	b.Metadata.Subject = strings.Repeat("x", MaxSubjectLength+1)

	err := b.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "metadata.subject")
}

func TestValidateRequiresSections(t *testing.T) {
	b := validBlueprint()
	b.Sections = nil

	err := b.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sections")
}

func TestValidateRejectsTooManySections(t *testing.T) {
	b := validBlueprint()
	section := b.Sections[0]
	for len(b.Sections) <= MaxSections {
		b.Sections = append(b.Sections, section)
	}

	assert.Error(t, b.Validate())
}

func TestValidateComponentFieldMustMatchType(t *testing.T) {
	tests := []struct {
		name      string
		component BlueprintComponent
		wantField string
	}{
		{"text without body", BlueprintComponent{Type: ComponentText}, ".text"},
		{"flight card without card", BlueprintComponent{Type: ComponentFlightCard}, ".flight_card"},
		{"flight card without route", BlueprintComponent{
			Type: ComponentFlightCard, FlightCard: &FlightCard{Price: 100},
		}, ".flight_card.route"},
		{"negative price", BlueprintComponent{
			Type: ComponentFlightCard, FlightCard: &FlightCard{Route: "SFO → JFK", Price: -1},
		}, ".flight_card.price"},
		{"chart without points", BlueprintComponent{Type: ComponentChart, Chart: &ChartComponent{}}, ".chart"},
		{"badge row without badges", BlueprintComponent{Type: ComponentBadgeRow}, ".badges"},
		{"unknown type", BlueprintComponent{Type: ComponentType("carousel")}, ".type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := validBlueprint()
			b.Sections[0].Components = []BlueprintComponent{tt.component}

			err := b.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantField)
		})
	}
}

func TestValidateIncompleteCallToAction(t *testing.T) {
	b := validBlueprint()
	b.Metadata.CallToAction = &CallToAction{Label: "See fares"}

	err := b.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "call_to_action")
}

func TestValidateItemizesAllIssues(t *testing.T) {
	b := &EmailBlueprint{}

	err := b.Validate()
	require.Error(t, err)

	var vErr *utils.ValidationError
	require.ErrorAs(t, err, &vErr)
	// Missing subject and missing sections are both reported.
	assert.GreaterOrEqual(t, len(vErr.Issues), 2)
}
