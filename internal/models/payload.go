package models

import (
	"time"
)

// PayloadKind identifies the notification email payload variant.
type PayloadKind string

const (
	PayloadDailyPriceUpdate PayloadKind = "daily-price-update"
	PayloadPriceDropAlert   PayloadKind = "price-drop-alert"
)

// EmailPayload is the closed set of notification payloads handed to the
// content pipeline. The unexported marker method seals the set so every
// consumer switching on the concrete types handles all variants; adding a
// variant breaks those switches at compile time.
type EmailPayload interface {
	Kind() PayloadKind
	emailPayload()
}

// AlertSummary is one alert's contribution to a digest: the alert, its
// matching flights, and when the pairing was produced.
type AlertSummary struct {
	Alert       Alert          `json:"alert"`
	Flights     []FlightOption `json:"flights"`
	GeneratedAt time.Time      `json:"generated_at"`
}

// DailyPriceUpdate is the recurring digest payload: one summary email
// covering every alert that produced matches in this pass.
type DailyPriceUpdate struct {
	SummaryDate time.Time      `json:"summary_date"`
	Alerts      []AlertSummary `json:"alerts"`
}

func (DailyPriceUpdate) Kind() PayloadKind { return PayloadDailyPriceUpdate }
func (DailyPriceUpdate) emailPayload()     {}

// PriceDropAlert is the one-shot payload: a single alert whose lowest price
// dropped, with the previous and new lowest prices when known.
type PriceDropAlert struct {
	Alert          Alert          `json:"alert"`
	Flights        []FlightOption `json:"flights"`
	DetectedAt     time.Time      `json:"detected_at"`
	PreviousLowest *PriceLimit    `json:"previous_lowest,omitempty"`
	NewLowest      *PriceLimit    `json:"new_lowest,omitempty"`
}

func (PriceDropAlert) Kind() PayloadKind { return PayloadPriceDropAlert }
func (PriceDropAlert) emailPayload()     {}

// RenderedEmail is the final artifact handed to the dispatcher. Text is
// always derivable from HTML by stripping markup.
type RenderedEmail struct {
	Subject string `json:"subject"`
	HTML    string `json:"html"`
	Text    string `json:"text"`
}

// Recipient identifies where a rendered email goes.
type Recipient struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// NotificationLog is one row of the dedup journal: alert X produced a
// notification at time T.
type NotificationLog struct {
	ID      string      `json:"id" db:"id"`
	AlertID string      `json:"alert_id" db:"alert_id"`
	UserID  string      `json:"user_id" db:"user_id"`
	Kind    PayloadKind `json:"kind" db:"kind"`
	SentAt  time.Time   `json:"sent_at" db:"sent_at"`
}
