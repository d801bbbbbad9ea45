package model

import "time"

// Card limits shared by every refiner.
const (
	MaxCardTitle    = 60
	MaxCardBody     = 240
	MaxCardCallouts = 4
)

// Card is a user-facing presentation of one or more triggers.
type Card struct {
	Category       Category    `json:"category"`
	Type           TriggerType `json:"type"`
	Title          string      `json:"title"`
	Body           string      `json:"body"`
	MetricCallouts []string    `json:"metric_callouts"`
	Priority       float64     `json:"priority"`

	// Set by Partition on suggestion cards only.
	Actionable bool   `json:"actionable,omitempty"`
	ActionID   string `json:"actionId,omitempty"`
}

// PayloadMeta describes an app payload.
type PayloadMeta struct {
	Version    string `json:"version"`
	Palette    string `json:"palette"`
	Disclaimer string `json:"disclaimer"`
}

// AppPayload is the document handed to presentation layers.
type AppPayload struct {
	Meta    PayloadMeta `json:"meta"`
	Drivers Drivers     `json:"drivers"`
	Cards   []Card      `json:"cards"`
}

// Todo is an action the user saved from a suggestion card.
type Todo struct {
	ActionID string    `json:"actionId"`
	Title    string    `json:"title"`
	Note     string    `json:"note"`
	Chips    []string  `json:"chips"`
	Done     bool      `json:"done"`
	Created  time.Time `json:"ts"`
}

// Assessment is a persisted engine run.
type Assessment struct {
	ID        string         `json:"id"`
	Input     RawHealthInput `json:"input"`
	Output    EngineOutput   `json:"output"`
	CreatedAt time.Time      `json:"created_at"`
}
