package events

import (
	"fmt"
	"strings"
	"time"
)

const predictionSystemPrompt = "You are an assistant that forecasts upcoming fan events for music artists. " +
	"You answer with a single JSON object and nothing else."

// predictionUserPrompt asks the model for an artist's likely events
// inside the two-year forecast window.
func predictionUserPrompt(artistName string, interests []string, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Predict the upcoming events for the artist %q between %s and %s.\n",
		artistName, now.Format("2006-01"), now.AddDate(2, 0, 0).Format("2006-01"))
	if len(interests) > 0 {
		fmt.Fprintf(&b, "The fan cares about these event types: %s.\n", strings.Join(interests, ", "))
	}
	b.WriteString("Respond with JSON of this exact shape:\n")
	b.WriteString(`{"predicted_events": [{"date": "YYYY-MM", "event_type": "live|meeting|album|other", "location": "city name"}]}`)
	return b.String()
}

const costSystemPrompt = "You are an assistant that estimates the cost of attending fan events in Japanese yen. " +
	"You answer with a single JSON object and nothing else."

// costUserPrompt asks the model for a full multi-event cost estimate.
func costUserPrompt(events []CostRequestEvent, homeArea string) string {
	var b strings.Builder
	if homeArea != "" {
		fmt.Fprintf(&b, "The fan lives in %s.\n", homeArea)
	}
	b.WriteString("Estimate the cost of attending each of these events:\n")
	for _, event := range events {
		fmt.Fprintf(&b, "- id=%s type=%s location=%s date=%s", event.EventID, event.EventType, event.Location, event.Date)
		if event.Artist != "" {
			fmt.Fprintf(&b, " artist=%s", event.Artist)
		}
		b.WriteString("\n")
	}
	b.WriteString("All amounts are integers in yen. Respond with JSON of this exact shape:\n")
	b.WriteString(`{"costs": [{"event_id": "...", "event_type": "...", "estimated_cost": {"transportation": 0, "ticket": 0, "hotel": 0, "other": 0}, "total_estimated": 0, "confidence": "high|medium|low"}], "total_estimated": 0, "upcoming_goods": [{"item": "...", "estimated_cost": 0}], "recommendation": "...", "monthly_savings_suggestion": 0}`)
	return b.String()
}
