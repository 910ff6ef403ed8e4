package content

import (
	"bytes"
	"fmt"
	"html"
	"html/template"
	"regexp"
	"strings"

	"github.com/fmbento/flights-tracker/internal/models"
	"github.com/fmbento/flights-tracker/pkg/utils"
)

// Render produces the final email artifact. When a validated blueprint is
// present it is rendered; if that rendering fails for any reason, or no
// blueprint was produced, the deterministic fallback template built directly
// from the payload is used. The fallback path has no external dependency and
// always succeeds.
func Render(payload models.EmailPayload, blueprint *models.EmailBlueprint) models.RenderedEmail {
	if blueprint != nil {
		rendered, err := renderBlueprint(blueprint)
		if err == nil {
			return rendered
		}
		utils.GetLogger().WithField("error", err).Warn("Blueprint rendering failed, using fallback template")
	}
	return renderFallback(payload)
}

// renderBlueprint renders AI-produced sections into HTML. Panics inside the
// template machinery are converted to errors so the caller can fall back.
func renderBlueprint(blueprint *models.EmailBlueprint) (rendered models.RenderedEmail, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("blueprint rendering panicked: %v", r)
		}
	}()

	var buf bytes.Buffer
	if err = blueprintTmpl.Execute(&buf, blueprint); err != nil {
		return models.RenderedEmail{}, err
	}

	htmlBody := buf.String()
	return models.RenderedEmail{
		Subject: blueprint.Metadata.Subject,
		HTML:    htmlBody,
		Text:    HTMLToText(htmlBody),
	}, nil
}

// renderFallback builds the deterministic template for the payload. The
// payload set is sealed, so the switch covers every variant.
func renderFallback(payload models.EmailPayload) models.RenderedEmail {
	switch p := payload.(type) {
	case models.DailyPriceUpdate:
		return renderDailyFallback(p)
	case models.PriceDropAlert:
		return renderPriceDropFallback(p)
	default:
		panic(fmt.Sprintf("unhandled payload type %T", payload))
	}
}

type fallbackFlight struct {
	PriceText     string
	Airline       string
	StopsText     string
	DepartureText string
	DurationText  string
}

type fallbackAlert struct {
	RouteLabel string
	Flights    []fallbackFlight
}

type dailyFallbackData struct {
	DateText string
	Alerts   []fallbackAlert
}

func renderDailyFallback(p models.DailyPriceUpdate) models.RenderedEmail {
	data := dailyFallbackData{
		DateText: p.SummaryDate.Format("January 2, 2006"),
	}
	for _, summary := range p.Alerts {
		data.Alerts = append(data.Alerts, fallbackAlertFrom(summary.Alert, summary.Flights))
	}

	var buf bytes.Buffer
	if err := dailyFallbackTmpl.Execute(&buf, data); err != nil {
		// Both fallback templates are parsed at init and render plain
		// structs; execution cannot fail short of a programming error.
		panic(err)
	}

	htmlBody := buf.String()
	return models.RenderedEmail{
		Subject: fmt.Sprintf("Your daily flight update for %s", data.DateText),
		HTML:    htmlBody,
		Text:    HTMLToText(htmlBody),
	}
}

type priceDropFallbackData struct {
	RouteLabel   string
	DetectedText string
	HasDelta     bool
	PreviousText string
	NewText      string
	SavingsText  string
	Flights      []fallbackFlight
}

func renderPriceDropFallback(p models.PriceDropAlert) models.RenderedEmail {
	alert := fallbackAlertFrom(p.Alert, p.Flights)
	data := priceDropFallbackData{
		RouteLabel:   alert.RouteLabel,
		DetectedText: p.DetectedAt.Format("January 2, 2006 15:04 MST"),
		Flights:      alert.Flights,
	}

	if p.PreviousLowest != nil && p.NewLowest != nil {
		data.HasDelta = true
		data.PreviousText = formatPrice(p.PreviousLowest.Amount, p.PreviousLowest.Currency)
		data.NewText = formatPrice(p.NewLowest.Amount, p.NewLowest.Currency)
		savings := p.PreviousLowest.Amount - p.NewLowest.Amount
		data.SavingsText = formatPrice(savings, p.NewLowest.Currency)
	}

	var buf bytes.Buffer
	if err := priceDropFallbackTmpl.Execute(&buf, data); err != nil {
		panic(err)
	}

	htmlBody := buf.String()
	return models.RenderedEmail{
		Subject: fmt.Sprintf("Price drop: %s", data.RouteLabel),
		HTML:    htmlBody,
		Text:    HTMLToText(htmlBody),
	}
}

func fallbackAlertFrom(alert models.Alert, flights []models.FlightOption) fallbackAlert {
	fa := fallbackAlert{
		RouteLabel: fmt.Sprintf("%s → %s", alert.Filters.Origin, alert.Filters.Destination),
	}
	for _, flight := range flights {
		fa.Flights = append(fa.Flights, summarizeFallbackFlight(flight))
	}
	return fa
}

func summarizeFallbackFlight(flight models.FlightOption) fallbackFlight {
	ff := fallbackFlight{
		PriceText: formatPrice(flight.TotalPrice, flight.Currency),
	}
	if len(flight.Slices) > 0 {
		slice := flight.Slices[0]
		ff.StopsText = stopsText(slice.Stops)
		if slice.DurationMinutes > 0 {
			ff.DurationText = fmt.Sprintf("%dh %02dm", slice.DurationMinutes/60, slice.DurationMinutes%60)
		}
		if len(slice.Legs) > 0 {
			ff.Airline = slice.Legs[0].AirlineCode
			ff.DepartureText = slice.Legs[0].DepartureTime.Format("Mon, Jan 2 15:04")
		}
	}
	return ff
}

func formatPrice(amount float64, currency string) string {
	return fmt.Sprintf("%.2f %s", amount, currency)
}

func stopsText(stops int) string {
	switch stops {
	case 0:
		return "Nonstop"
	case 1:
		return "1 stop"
	default:
		return fmt.Sprintf("%d stops", stops)
	}
}

var tagPattern = regexp.MustCompile(`<[^>]*>`)
var blankLines = regexp.MustCompile(`\n{3,}`)

// HTMLToText derives the plain-text body from rendered HTML by stripping
// markup, for mail clients that do not render HTML.
func HTMLToText(htmlBody string) string {
	text := htmlBody

	// Keep a visual break where block elements end.
	for _, closer := range []string{"</p>", "</h1>", "</h2>", "</h3>", "</tr>", "</li>", "<br>", "<br/>", "<br />"} {
		text = strings.ReplaceAll(text, closer, closer+"\n")
	}

	text = tagPattern.ReplaceAllString(text, "")
	text = html.UnescapeString(text)

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	text = strings.Join(lines, "\n")
	text = blankLines.ReplaceAllString(text, "\n\n")

	return strings.TrimSpace(text)
}

var blueprintTmpl = template.Must(template.New("blueprint").Parse(`<html><body style="font-family:Helvetica,Arial,sans-serif;color:#1a1a2e;">
<span style="display:none;">{{.Metadata.PreviewText}}</span>
{{if .Metadata.Personalization}}<p>{{.Metadata.Personalization}}</p>{{end}}
<p>{{.Metadata.Intro}}</p>
{{range .Sections}}<div style="margin:16px 0;">
{{if .Title}}<h2 style="font-size:18px;">{{.Title}}</h2>{{end}}
{{range .Components}}{{if eq .Type "text"}}<p>{{.Text}}</p>
{{else if eq .Type "flight-card"}}<table style="border:1px solid #ddd;border-radius:6px;padding:8px;" cellpadding="6"><tr>
<td><strong>{{.FlightCard.Route}}</strong><br>{{.FlightCard.Airline}} · {{.FlightCard.Stops}} stop(s){{if .FlightCard.DepartureAt}} · {{.FlightCard.DepartureAt}}{{end}}</td>
<td style="font-size:20px;"><strong>{{printf "%.2f" .FlightCard.Price}} {{.FlightCard.Currency}}</strong></td>
</tr>{{if .FlightCard.Caption}}<tr><td colspan="2"><small>{{.FlightCard.Caption}}</small></td></tr>{{end}}</table>
{{else if eq .Type "chart"}}<table cellpadding="4">{{if .Chart.Title}}<tr><th colspan="2" align="left">{{.Chart.Title}}</th></tr>{{end}}
{{range .Chart.Points}}<tr><td>{{.Label}}</td><td>{{printf "%.2f" .Value}}</td></tr>
{{end}}</table>
{{else if eq .Type "badge-row"}}<p>{{range .Badges}}<span style="background:#eef;border-radius:10px;padding:2px 10px;margin-right:6px;">{{.}}</span>{{end}}</p>
{{end}}{{end}}</div>
{{end}}
{{if .Metadata.CallToAction}}<p><a href="{{.Metadata.CallToAction.URL}}" style="background:#2248d0;color:#fff;padding:10px 18px;border-radius:6px;text-decoration:none;">{{.Metadata.CallToAction.Label}}</a></p>{{end}}
</body></html>`))

var dailyFallbackTmpl = template.Must(template.New("daily_fallback").Parse(`<html><body style="font-family:Helvetica,Arial,sans-serif;color:#1a1a2e;">
<h1 style="font-size:20px;">Daily flight update — {{.DateText}}</h1>
{{if .Alerts}}{{range .Alerts}}<div style="margin:16px 0;">
<h2 style="font-size:16px;">{{.RouteLabel}}</h2>
<table cellpadding="6" style="border-collapse:collapse;">
<tr><th align="left">Price</th><th align="left">Airline</th><th align="left">Stops</th><th align="left">Departure</th><th align="left">Duration</th></tr>
{{range .Flights}}<tr><td><strong>{{.PriceText}}</strong></td><td>{{.Airline}}</td><td>{{.StopsText}}</td><td>{{.DepartureText}}</td><td>{{.DurationText}}</td></tr>
{{end}}</table>
</div>
{{end}}{{else}}<p>No matching fares today. We will keep watching your routes and let you know when something comes up.</p>
{{end}}
<p><small>You receive this email because you saved flight alerts with Flights Tracker.</small></p>
</body></html>`))

var priceDropFallbackTmpl = template.Must(template.New("price_drop_fallback").Parse(`<html><body style="font-family:Helvetica,Arial,sans-serif;color:#1a1a2e;">
<h1 style="font-size:20px;">Price drop on {{.RouteLabel}}</h1>
{{if .HasDelta}}<p style="font-size:18px;">Was <s>{{.PreviousText}}</s>, now <strong>{{.NewText}}</strong> — save {{.SavingsText}}.</p>
{{else}}<p style="font-size:18px;">A fare on this route just got cheaper.</p>
{{end}}
{{if .Flights}}<table cellpadding="6" style="border-collapse:collapse;">
<tr><th align="left">Price</th><th align="left">Airline</th><th align="left">Stops</th><th align="left">Departure</th></tr>
{{range .Flights}}<tr><td><strong>{{.PriceText}}</strong></td><td>{{.Airline}}</td><td>{{.StopsText}}</td><td>{{.DepartureText}}</td></tr>
{{end}}</table>
{{end}}
<p><small>Detected {{.DetectedText}}. You receive this email because you saved flight alerts with Flights Tracker.</small></p>
</body></html>`))
