package events

import (
	"testing"
	"time"
)

func TestEstimateEventTokyoLiveFromTokyo(t *testing.T) {
	now := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	event := CostRequestEvent{
		EventID:   "ev-1",
		EventType: "live",
		Location:  "Tokyo",
		Date:      "2026-03",
	}

	cost := estimateEvent(event, "東京", now)

	if got := cost.EstimatedCost.Transportation; got != 5000 {
		t.Errorf("transportation = %d, want 5000", got)
	}
	if got := cost.EstimatedCost.Ticket; got != 15000 {
		t.Errorf("ticket = %d, want 15000", got)
	}
	if got := cost.EstimatedCost.Hotel; got != 20000 {
		t.Errorf("hotel = %d, want 20000", got)
	}
	if got := cost.EstimatedCost.Other; got != 10000 {
		t.Errorf("other = %d, want 10000", got)
	}
	if got := cost.TotalEstimated; got != 50000 {
		t.Errorf("total = %d, want 50000", got)
	}
}

func TestEstimateTransportation(t *testing.T) {
	tests := []struct {
		name     string
		location string
		home     string
		want     int
	}{
		{"same city in Japan", "Osaka", "大阪", 5000},
		{"other Japanese city", "Fukuoka", "Tokyo", 15000},
		{"korea", "Seoul", "Tokyo", 30000},
		{"korea with japanese spelling", "ソウル", "Tokyo", 30000},
		{"overseas", "Los Angeles", "Tokyo", 50000},
		{"location with country suffix", "Tokyo, Japan", "tokyo", 5000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := estimateTransportation(tt.location, tt.home); got != tt.want {
				t.Errorf("estimateTransportation(%q, %q) = %d, want %d", tt.location, tt.home, got, tt.want)
			}
		})
	}
}

func TestNormalizeEventType(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"live", "live"},
		{"Concert", "live"},
		{"world tour", "live"},
		{"fan meeting", "meeting"},
		{"album", "album"},
		{"Album Release", "album"},
		{"exhibition", "other"},
	}
	for _, tt := range tests {
		if got := normalizeEventType(tt.in); got != tt.want {
			t.Errorf("normalizeEventType(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestEstimateConfidence(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		date string
		want string
	}{
		{"two months out", "2026-03", "high"},
		{"three months out", "2026-04", "high"},
		{"five months out", "2026-06", "medium"},
		{"eight months out", "2026-09", "low"},
		{"full date form", "2026-02-14", "high"},
		{"past month", "2025-10", "low"},
		{"past year", "2024-01", "low"},
		{"unparsable", "next spring", "low"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := estimateConfidence(tt.date, now); got != tt.want {
				t.Errorf("estimateConfidence(%q) = %q, want %q", tt.date, got, tt.want)
			}
		})
	}
}

func TestEstimateAllDerivedFields(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	events := []CostRequestEvent{
		{EventID: "a", EventType: "live", Location: "Tokyo", Date: "2026-03"},
		{EventID: "b", EventType: "live", Location: "Seoul", Date: "2026-05"},
	}

	result := estimateAll(events, "東京", now)

	// 50000 for the Tokyo show plus 30000+15000+18000+10000 for Seoul.
	if result.TotalEstimated != 123000 {
		t.Fatalf("total = %d, want 123000", result.TotalEstimated)
	}
	if result.MonthlySavingsSuggestion != 20500 {
		t.Errorf("monthly suggestion = %d, want 20500", result.MonthlySavingsSuggestion)
	}
	if result.Recommendation == "" {
		t.Error("expected a recommendation for a multi-event plan")
	}
	if len(result.Costs) != 2 {
		t.Fatalf("got %d costs, want 2", len(result.Costs))
	}
	if result.Costs[1].Confidence != "medium" {
		t.Errorf("second event confidence = %q, want medium", result.Costs[1].Confidence)
	}
}

func TestMonthlySuggestionRounds(t *testing.T) {
	if got := monthlySuggestion(50000); got != 8333 {
		t.Errorf("monthlySuggestion(50000) = %d, want 8333", got)
	}
	if got := monthlySuggestion(0); got != 0 {
		t.Errorf("monthlySuggestion(0) = %d, want 0", got)
	}
}
