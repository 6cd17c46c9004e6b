package events

import "time"

// PredictedEvent is one forecast event for an artist. Date is either a
// year-month ("2026-09") or a full date ("2026-09-15").
type PredictedEvent struct {
	Date      string `json:"date"`
	EventType string `json:"event_type"`
	Location  string `json:"location"`
}

// ArtistPrediction groups the forecast events for one artist. Note is
// set when the forecast could not be produced; the entry still appears
// so the caller can show a degraded row instead of dropping the artist.
type ArtistPrediction struct {
	ArtistID        string           `json:"artist_id"`
	Artist          string           `json:"artist"`
	PredictedEvents []PredictedEvent `json:"predicted_events"`
	Note            string           `json:"note,omitempty"`
}

// UpcomingResponse is the payload of the upcoming-events endpoint.
type UpcomingResponse struct {
	Predictions []ArtistPrediction `json:"predictions"`
	UserArea    string             `json:"user_area"`
}

// CostBreakdown itemizes the estimated spend for one event, in yen.
type CostBreakdown struct {
	Transportation int `json:"transportation"`
	Ticket         int `json:"ticket"`
	Hotel          int `json:"hotel"`
	Other          int `json:"other"`
}

// Total sums the breakdown.
func (b CostBreakdown) Total() int {
	return b.Transportation + b.Ticket + b.Hotel + b.Other
}

// EventCost is the per-event estimate returned by the cost endpoints.
type EventCost struct {
	EventID        string        `json:"event_id"`
	EventType      string        `json:"event_type"`
	EstimatedCost  CostBreakdown `json:"estimated_cost"`
	TotalEstimated int           `json:"total_estimated"`
	Confidence     string        `json:"confidence"`
}

// GoodsForecast is a predicted merchandise item tied to an event cycle.
type GoodsForecast struct {
	Item          string `json:"item"`
	EstimatedCost int    `json:"estimated_cost"`
}

// CostResult is the full multi-event estimate.
type CostResult struct {
	Costs                    []EventCost      `json:"costs"`
	TotalEstimated           int              `json:"total_estimated"`
	UpcomingEvents           []PredictedEvent `json:"upcoming_events,omitempty"`
	UpcomingGoods            []GoodsForecast  `json:"upcoming_goods,omitempty"`
	Recommendation           string           `json:"recommendation"`
	MonthlySavingsSuggestion int              `json:"monthly_savings_suggestion"`
}

// CostRequestEvent is the event descriptor accepted by the cost endpoints.
type CostRequestEvent struct {
	EventID   string `json:"event_id"`
	Artist    string `json:"artist,omitempty"`
	EventType string `json:"event_type"`
	Location  string `json:"location"`
	Date      string `json:"date"`
}

// SavedCost is one persisted cost record in a user's history.
type SavedCost struct {
	ID             string         `json:"id"`
	UserID         string         `json:"user_id"`
	ArtistID       string         `json:"artist_id"`
	EventCount     int            `json:"event_count"`
	TotalEstimated int            `json:"total_estimated"`
	Result         map[string]any `json:"result,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
}
