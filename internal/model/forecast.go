package model

// RiskDirection is how a risk is expected to move over the horizon.
type RiskDirection string

const (
	RiskWorsen    RiskDirection = "worsen"
	RiskUnchanged RiskDirection = "unchanged"
	RiskImprove   RiskDirection = "improve"
)

// RiskChange is one projected change in risk.
type RiskChange struct {
	Risk       string        `json:"risk"`
	Direction  RiskDirection `json:"direction"`
	Confidence float64       `json:"confidence"`
	Drivers    []string      `json:"drivers"`
}

// Forecast is the forward-looking "if nothing changes" projection.
type Forecast struct {
	HorizonMonths int                `json:"horizon_months"`
	TodayMetrics  map[string]float64 `json:"today_metrics"`
	FutureMetrics map[string]float64 `json:"future_metrics"`
	RiskChanges   []RiskChange       `json:"risk_changes"`
	Watch         []string           `json:"watch"`
	Warnings      []string           `json:"warnings"`
	Narrative     string             `json:"narrative"`
	MissingFields []string           `json:"missing_fields,omitempty"`
	Fallback      bool               `json:"fallback"`
}
