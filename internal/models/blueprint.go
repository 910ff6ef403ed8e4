package models

import (
	"fmt"

	"github.com/fmbento/flights-tracker/pkg/utils"
)

// ComponentType identifies a blueprint email component.
type ComponentType string

const (
	ComponentText       ComponentType = "text"
	ComponentFlightCard ComponentType = "flight-card"
	ComponentChart      ComponentType = "chart"
	ComponentBadgeRow   ComponentType = "badge-row"
)

// Bounds enforced on AI-produced blueprints. Anything outside these limits
// is discarded and the deterministic fallback template is used instead.
const (
	MaxSubjectLength     = 120
	MaxPreviewLength     = 160
	MaxIntroLength       = 600
	MaxTextBlockLength   = 1200
	MaxSectionTitle      = 120
	MaxSections          = 6
	MaxComponentsPerSect = 8
	MaxBadges            = 6
	MaxBadgeLength       = 40
	MaxChartPoints       = 31
)

// EmailBlueprint is AI-produced structured email content, validated against
// the bounds above before rendering.
type EmailBlueprint struct {
	Metadata BlueprintMetadata  `json:"metadata"`
	Sections []BlueprintSection `json:"sections"`
}

// BlueprintMetadata carries the subject line and framing copy.
type BlueprintMetadata struct {
	Subject         string        `json:"subject"`
	PreviewText     string        `json:"preview_text"`
	Intro           string        `json:"intro"`
	CallToAction    *CallToAction `json:"call_to_action,omitempty"`
	Personalization string        `json:"personalization,omitempty"`
}

// CallToAction is an optional button-style link.
type CallToAction struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

// BlueprintSection is an ordered group of components under a title.
type BlueprintSection struct {
	Title      string               `json:"title"`
	Components []BlueprintComponent `json:"components"`
}

// BlueprintComponent is one typed email building block. Exactly the field
// matching Type must be set.
type BlueprintComponent struct {
	Type       ComponentType   `json:"type"`
	Text       string          `json:"text,omitempty"`
	FlightCard *FlightCard     `json:"flight_card,omitempty"`
	Chart      *ChartComponent `json:"chart,omitempty"`
	Badges     []string        `json:"badges,omitempty"`
}

// FlightCard highlights a single itinerary.
type FlightCard struct {
	Route       string  `json:"route"`
	Airline     string  `json:"airline"`
	Price       float64 `json:"price"`
	Currency    string  `json:"currency"`
	Stops       int     `json:"stops"`
	DepartureAt string  `json:"departure_at"`
	Caption     string  `json:"caption,omitempty"`
}

// ChartComponent is a small inline price chart.
type ChartComponent struct {
	Title  string       `json:"title"`
	Points []ChartPoint `json:"points"`
}

// ChartPoint is one labeled value in a chart.
type ChartPoint struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// Validate checks the blueprint against the schema bounds. It returns a
// ValidationError with itemized issues on any violation.
func (b *EmailBlueprint) Validate() error {
	var issues []utils.FieldIssue

	if b.Metadata.Subject == "" {
		issues = append(issues, utils.FieldIssue{Field: "metadata.subject", Message: "is required"})
	}
	if len(b.Metadata.Subject) > MaxSubjectLength {
		issues = append(issues, utils.FieldIssue{Field: "metadata.subject",
			Message: fmt.Sprintf("exceeds %d characters", MaxSubjectLength)})
	}
	if len(b.Metadata.PreviewText) > MaxPreviewLength {
		issues = append(issues, utils.FieldIssue{Field: "metadata.preview_text",
			Message: fmt.Sprintf("exceeds %d characters", MaxPreviewLength)})
	}
	if len(b.Metadata.Intro) > MaxIntroLength {
		issues = append(issues, utils.FieldIssue{Field: "metadata.intro",
			Message: fmt.Sprintf("exceeds %d characters", MaxIntroLength)})
	}
	if cta := b.Metadata.CallToAction; cta != nil {
		if cta.Label == "" || cta.URL == "" {
			issues = append(issues, utils.FieldIssue{Field: "metadata.call_to_action",
				Message: "label and url are required"})
		}
	}

	if len(b.Sections) == 0 {
		issues = append(issues, utils.FieldIssue{Field: "sections", Message: "at least one section is required"})
	}
	if len(b.Sections) > MaxSections {
		issues = append(issues, utils.FieldIssue{Field: "sections",
			Message: fmt.Sprintf("exceeds %d sections", MaxSections)})
	}

	for i, section := range b.Sections {
		prefix := fmt.Sprintf("sections[%d]", i)
		if len(section.Title) > MaxSectionTitle {
			issues = append(issues, utils.FieldIssue{Field: prefix + ".title",
				Message: fmt.Sprintf("exceeds %d characters", MaxSectionTitle)})
		}
		if len(section.Components) == 0 {
			issues = append(issues, utils.FieldIssue{Field: prefix + ".components",
				Message: "at least one component is required"})
		}
		if len(section.Components) > MaxComponentsPerSect {
			issues = append(issues, utils.FieldIssue{Field: prefix + ".components",
				Message: fmt.Sprintf("exceeds %d components", MaxComponentsPerSect)})
		}
		for j, component := range section.Components {
			issues = append(issues, component.validate(fmt.Sprintf("%s.components[%d]", prefix, j))...)
		}
	}

	if len(issues) > 0 {
		return utils.NewValidationError("blueprint failed schema validation", issues)
	}
	return nil
}

func (c *BlueprintComponent) validate(prefix string) []utils.FieldIssue {
	var issues []utils.FieldIssue

	switch c.Type {
	case ComponentText:
		if c.Text == "" {
			issues = append(issues, utils.FieldIssue{Field: prefix + ".text", Message: "is required"})
		}
		if len(c.Text) > MaxTextBlockLength {
			issues = append(issues, utils.FieldIssue{Field: prefix + ".text",
				Message: fmt.Sprintf("exceeds %d characters", MaxTextBlockLength)})
		}
	case ComponentFlightCard:
		if c.FlightCard == nil {
			issues = append(issues, utils.FieldIssue{Field: prefix + ".flight_card", Message: "is required"})
		} else {
			if c.FlightCard.Route == "" {
				issues = append(issues, utils.FieldIssue{Field: prefix + ".flight_card.route", Message: "is required"})
			}
			if c.FlightCard.Price < 0 {
				issues = append(issues, utils.FieldIssue{Field: prefix + ".flight_card.price", Message: "must not be negative"})
			}
		}
	case ComponentChart:
		if c.Chart == nil || len(c.Chart.Points) == 0 {
			issues = append(issues, utils.FieldIssue{Field: prefix + ".chart", Message: "needs at least one point"})
		} else if len(c.Chart.Points) > MaxChartPoints {
			issues = append(issues, utils.FieldIssue{Field: prefix + ".chart.points",
				Message: fmt.Sprintf("exceeds %d points", MaxChartPoints)})
		}
	case ComponentBadgeRow:
		if len(c.Badges) == 0 {
			issues = append(issues, utils.FieldIssue{Field: prefix + ".badges", Message: "at least one badge is required"})
		}
		if len(c.Badges) > MaxBadges {
			issues = append(issues, utils.FieldIssue{Field: prefix + ".badges",
				Message: fmt.Sprintf("exceeds %d badges", MaxBadges)})
		}
		for k, badge := range c.Badges {
			if len(badge) > MaxBadgeLength {
				issues = append(issues, utils.FieldIssue{Field: fmt.Sprintf("%s.badges[%d]", prefix, k),
					Message: fmt.Sprintf("exceeds %d characters", MaxBadgeLength)})
			}
		}
	default:
		issues = append(issues, utils.FieldIssue{Field: prefix + ".type",
			Message: fmt.Sprintf("unknown component type %q", c.Type)})
	}

	return issues
}
