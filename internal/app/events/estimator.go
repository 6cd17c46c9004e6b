package events

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// The deterministic estimator prices an event from fixed tables keyed
// on event type and location. It backs every cost response when no
// model is configured or the model call fails, so its output must be
// stable across releases.

const (
	transportSameCity  = 5000
	transportDomestic  = 15000
	transportKorea     = 30000
	transportOverseas  = 50000
	costThresholdMajor = 100000
	savingsMonths      = 6
)

var cityAliases = map[string]string{
	"東京":   "tokyo",
	"大阪":   "osaka",
	"名古屋":  "nagoya",
	"福岡":   "fukuoka",
	"札幌":   "sapporo",
	"横浜":   "yokohama",
	"ソウル":  "seoul",
	"釜山":   "busan",
	"プサン":  "busan",
	"インチョン": "incheon",
}

var japanCities = map[string]bool{
	"tokyo":    true,
	"osaka":    true,
	"nagoya":   true,
	"fukuoka":  true,
	"sapporo":  true,
	"yokohama": true,
	"sendai":   true,
	"kyoto":    true,
	"saitama":  true,
	"chiba":    true,
}

var koreaCities = map[string]bool{
	"seoul":   true,
	"busan":   true,
	"incheon": true,
	"daegu":   true,
}

var ticketCosts = map[string]int{
	"live":    15000,
	"meeting": 10000,
	"album":   5000,
}

const ticketDefault = 3000

var hotelCosts = map[string]int{
	"tokyo": 20000,
	"seoul": 18000,
	"osaka": 15000,
}

const hotelDefault = 10000

var otherCosts = map[string]int{
	"live":    10000,
	"meeting": 5000,
	"album":   3000,
}

const otherDefault = 2000

// normalizeCity lowercases a location, strips anything after a comma
// ("Tokyo, Japan" reads as tokyo), and maps known Japanese spellings to
// their romanized form.
func normalizeCity(location string) string {
	s := strings.TrimSpace(location)
	if i := strings.IndexByte(s, ','); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimSpace(s)
	if alias, ok := cityAliases[s]; ok {
		return alias
	}
	return strings.ToLower(s)
}

// normalizeEventType buckets free-form event labels into the four
// categories the cost tables know about.
func normalizeEventType(eventType string) string {
	t := strings.ToLower(eventType)
	switch {
	case strings.Contains(t, "live") || strings.Contains(t, "concert") || strings.Contains(t, "tour"):
		return "live"
	case strings.Contains(t, "meet"):
		return "meeting"
	case strings.Contains(t, "album") || strings.Contains(t, "release"):
		return "album"
	default:
		return "other"
	}
}

func estimateTransportation(location, homeArea string) int {
	city := normalizeCity(location)
	home := normalizeCity(homeArea)
	switch {
	case japanCities[city] && city == home:
		return transportSameCity
	case japanCities[city]:
		return transportDomestic
	case koreaCities[city]:
		return transportKorea
	default:
		return transportOverseas
	}
}

func estimateTicket(eventType string) int {
	if cost, ok := ticketCosts[normalizeEventType(eventType)]; ok {
		return cost
	}
	return ticketDefault
}

func estimateHotel(location string) int {
	if cost, ok := hotelCosts[normalizeCity(location)]; ok {
		return cost
	}
	return hotelDefault
}

func estimateOther(eventType string) int {
	if cost, ok := otherCosts[normalizeEventType(eventType)]; ok {
		return cost
	}
	return otherDefault
}

// estimateConfidence rates a forecast by how far out the event date is:
// within three months "high", within six "medium", beyond that "low".
// Past and unparsable dates also rate "low".
func estimateConfidence(date string, now time.Time) string {
	t, err := parseEventDate(date)
	if err != nil {
		return "low"
	}
	months := monthsBetween(now, t)
	switch {
	case months < 0:
		return "low"
	case months <= 3:
		return "high"
	case months <= 6:
		return "medium"
	default:
		return "low"
	}
}

// parseEventDate accepts "2006-01" and "2006-01-02" forms.
func parseEventDate(date string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02", "2006-01"} {
		if t, err := time.Parse(layout, date); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", date)
}

func monthsBetween(from, to time.Time) int {
	return (to.Year()-from.Year())*12 + int(to.Month()) - int(from.Month())
}

// estimateEvent prices a single event against the cost tables.
func estimateEvent(event CostRequestEvent, homeArea string, now time.Time) EventCost {
	breakdown := CostBreakdown{
		Transportation: estimateTransportation(event.Location, homeArea),
		Ticket:         estimateTicket(event.EventType),
		Hotel:          estimateHotel(event.Location),
		Other:          estimateOther(event.EventType),
	}
	return EventCost{
		EventID:        event.EventID,
		EventType:      event.EventType,
		EstimatedCost:  breakdown,
		TotalEstimated: breakdown.Total(),
		Confidence:     estimateConfidence(event.Date, now),
	}
}

// estimateAll prices every event and derives the plan-level fields.
func estimateAll(events []CostRequestEvent, homeArea string, now time.Time) CostResult {
	costs := make([]EventCost, 0, len(events))
	total := 0
	for _, event := range events {
		cost := estimateEvent(event, homeArea, now)
		costs = append(costs, cost)
		total += cost.TotalEstimated
	}

	monthly := monthlySuggestion(total)
	return CostResult{
		Costs:                    costs,
		TotalEstimated:           total,
		Recommendation:           recommendation(len(events), total, monthly),
		MonthlySavingsSuggestion: monthly,
	}
}

func monthlySuggestion(total int) int {
	return int(math.Round(float64(total) / savingsMonths))
}

func recommendation(eventCount, total, monthly int) string {
	switch {
	case eventCount > 1 && total > costThresholdMajor:
		return fmt.Sprintf("Attending all of these adds up to a major outlay. Consider prioritizing one or two events, or set aside about ¥%d per month to cover everything.", monthly)
	case total > costThresholdMajor:
		return fmt.Sprintf("This is a significant expense. Setting aside about ¥%d per month would cover it in %d months.", monthly, savingsMonths)
	case eventCount > 1:
		return fmt.Sprintf("Spreading the cost across %d months comes to about ¥%d per month.", savingsMonths, monthly)
	default:
		return fmt.Sprintf("Saving about ¥%d per month covers this comfortably.", monthly)
	}
}
