package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"fanevents/internal/llm"
	"fanevents/internal/metrics"
	"fanevents/internal/store"
)

const (
	cacheTTL    = 24 * time.Hour
	dedupWindow = time.Hour

	// Oversized prediction lists are trimmed hard: anything past twelve
	// events collapses to the first ten.
	eventListLimit = 12
	eventListKeep  = 10
)

// Store describes the persistence operations required by the event service.
type Store interface {
	GetUser(ctx context.Context, userID string) (*store.User, error)
	UpdateUser(ctx context.Context, userID string, patch store.UserPatch) (*store.User, error)
	GetArtist(ctx context.Context, artistID string) (*store.Artist, error)
	FanPreferencesByUser(ctx context.Context, userID string) ([]store.FanPreference, error)
	GetEventCache(ctx context.Context, artistID string) (*store.EventCache, error)
	UpsertEventCache(ctx context.Context, cache store.EventCache) (*store.EventCache, error)
	Collection(name string) store.Collection
}

// Completer produces free-form model completions. A nil Completer
// disables model-backed predictions; every estimate then comes from the
// deterministic tables.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Service predicts upcoming events and estimates attendance costs.
type Service struct {
	store Store
	llm   Completer
	now   func() time.Time
}

// New wires an event service. llm may be nil.
func New(s Store, completer Completer) *Service {
	return &Service{store: s, llm: completer, now: time.Now}
}

// Upcoming forecasts events for every artist the user follows. Each
// artist resolves independently; a failed forecast yields a marked
// placeholder entry rather than failing the whole response.
func (s *Service) Upcoming(ctx context.Context, userID string) (*UpcomingResponse, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	prefs, err := s.store.FanPreferencesByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list preferences: %w", err)
	}

	predictions := make([]ArtistPrediction, 0, len(prefs))
	for _, pref := range prefs {
		artist, err := s.store.GetArtist(ctx, pref.ArtistID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("resolve artist %s: %w", pref.ArtistID, err)
		}
		predictions = append(predictions, s.predictForArtist(ctx, artist, pref.Interests))
	}

	return &UpcomingResponse{Predictions: predictions, UserArea: user.Area}, nil
}

// predictForArtist serves from the cache when it holds a fresh entry
// and otherwise asks the model, caching a successful result for a day.
func (s *Service) predictForArtist(ctx context.Context, artist *store.Artist, interests []string) ArtistPrediction {
	prediction := ArtistPrediction{
		ArtistID:        artist.ID,
		Artist:          artist.Name,
		PredictedEvents: []PredictedEvent{},
	}

	cached, err := s.store.GetEventCache(ctx, artist.ID)
	if err == nil {
		metrics.CacheLookup(true)
		prediction.PredictedEvents = s.filterEvents(decodeCachedEvents(cached.EventData), interests)
		return prediction
	}
	metrics.CacheLookup(false)
	if !errors.Is(err, store.ErrNotFound) {
		log.Warn().Err(err).Str("artist_id", artist.ID).Msg("event cache read failed")
	}

	predicted, err := s.predictEvents(ctx, artist.Name, interests)
	if err != nil {
		log.Warn().Err(err).Str("artist", artist.Name).Msg("event prediction unavailable")
		prediction.Note = "prediction unavailable"
		return prediction
	}

	now := s.now().UTC()
	if _, err := s.store.UpsertEventCache(ctx, store.EventCache{
		ArtistID:   artist.ID,
		EventData:  encodeCachedEvents(predicted),
		ComputedAt: now,
		ExpiresAt:  now.Add(cacheTTL),
	}); err != nil {
		log.Warn().Err(err).Str("artist_id", artist.ID).Msg("event cache write failed")
	}

	prediction.PredictedEvents = s.filterEvents(predicted, interests)
	return prediction
}

// predictEvents asks the model for an artist's upcoming events.
func (s *Service) predictEvents(ctx context.Context, artistName string, interests []string) ([]PredictedEvent, error) {
	if s.llm == nil {
		return nil, errors.New("no completion backend configured")
	}

	content, err := s.llm.Complete(ctx, predictionSystemPrompt, predictionUserPrompt(artistName, interests, s.now().UTC()))
	if err != nil {
		metrics.PredictionRequest("api_error")
		return nil, fmt.Errorf("predict events: %w", err)
	}

	raw, err := llm.ExtractJSON(content)
	if err != nil {
		metrics.PredictionRequest("parse_error")
		return nil, err
	}

	var parsed struct {
		PredictedEvents []PredictedEvent `json:"predicted_events"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		metrics.PredictionRequest("parse_error")
		return nil, fmt.Errorf("decode predicted events: %w", err)
	}

	metrics.PredictionRequest("ok")
	return parsed.PredictedEvents, nil
}

// filterEvents keeps events inside the two-year window whose type
// matches the fan's interests, then trims oversized lists.
func (s *Service) filterEvents(events []PredictedEvent, interests []string) []PredictedEvent {
	now := s.now().UTC()
	windowEnd := now.AddDate(2, 0, 0)

	wanted := make(map[string]bool, len(interests))
	for _, interest := range interests {
		wanted[normalizeEventType(interest)] = true
	}

	kept := make([]PredictedEvent, 0, len(events))
	for _, event := range events {
		t, err := parseEventDate(event.Date)
		if err != nil || t.Before(now.AddDate(0, 0, -now.Day()+1)) || t.After(windowEnd) {
			continue
		}
		if len(wanted) > 0 && !wanted[normalizeEventType(event.EventType)] {
			continue
		}
		kept = append(kept, event)
	}

	if len(kept) > eventListLimit {
		kept = kept[:eventListKeep]
	}
	return kept
}

// MultipleCosts estimates the cost of attending the given events. The
// model answer is preferred; any failure falls back to the
// deterministic tables so the endpoint never errors on model trouble.
func (s *Service) MultipleCosts(ctx context.Context, userID string, events []CostRequestEvent) (*CostResult, error) {
	if len(events) == 0 {
		return nil, fmt.Errorf("%w: events", store.ErrValidation)
	}

	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if result, err := s.modelCosts(ctx, events, user.Area); err == nil {
		return result, nil
	} else if s.llm != nil {
		log.Warn().Err(err).Int("events", len(events)).Msg("model cost estimate failed, using tables")
	}

	for range events {
		metrics.FallbackEstimate()
	}
	result := estimateAll(events, user.Area, s.now().UTC())
	return &result, nil
}

// modelCosts runs the model path of MultipleCosts.
func (s *Service) modelCosts(ctx context.Context, events []CostRequestEvent, homeArea string) (*CostResult, error) {
	if s.llm == nil {
		return nil, errors.New("no completion backend configured")
	}

	content, err := s.llm.Complete(ctx, costSystemPrompt, costUserPrompt(events, homeArea))
	if err != nil {
		metrics.PredictionRequest("api_error")
		return nil, fmt.Errorf("estimate costs: %w", err)
	}

	raw, err := llm.ExtractJSON(content)
	if err != nil {
		metrics.PredictionRequest("parse_error")
		return nil, err
	}

	var result CostResult
	if err := json.Unmarshal(raw, &result); err != nil {
		metrics.PredictionRequest("parse_error")
		return nil, fmt.Errorf("decode cost estimate: %w", err)
	}
	if len(result.Costs) == 0 {
		metrics.PredictionRequest("parse_error")
		return nil, &llm.ParseError{Reason: "cost estimate carried no per-event costs"}
	}
	metrics.PredictionRequest("ok")

	// Derived fields are recomputed when the model leaves them out.
	if result.TotalEstimated == 0 {
		for _, cost := range result.Costs {
			result.TotalEstimated += cost.TotalEstimated
		}
	}
	if result.MonthlySavingsSuggestion == 0 {
		result.MonthlySavingsSuggestion = monthlySuggestion(result.TotalEstimated)
	}
	if result.Recommendation == "" {
		result.Recommendation = recommendation(len(result.Costs), result.TotalEstimated, result.MonthlySavingsSuggestion)
	}
	return &result, nil
}

// SaveCost persists a cost estimate for later review. A record for the
// same user, artist and event count created within the last hour is
// treated as a duplicate submit and its id is returned unchanged.
func (s *Service) SaveCost(ctx context.Context, userID, artistID string, result CostResult) (*SavedCost, error) {
	now := s.now().UTC()

	existing, err := s.listCosts(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, saved := range existing {
		if saved.ArtistID == artistID &&
			saved.EventCount == len(result.Costs) &&
			now.Sub(saved.CreatedAt) < dedupWindow {
			return &saved, nil
		}
	}

	record := SavedCost{
		ID:             uuid.New().String(),
		UserID:         userID,
		ArtistID:       artistID,
		EventCount:     len(result.Costs),
		TotalEstimated: result.TotalEstimated,
		Result:         toDocument(result),
		CreatedAt:      now,
	}
	doc := map[string]any{
		"id":              record.ID,
		"user_id":         record.UserID,
		"artist_id":       record.ArtistID,
		"event_count":     record.EventCount,
		"total_estimated": record.TotalEstimated,
		"result":          record.Result,
		"created_at":      record.CreatedAt.Format(time.RFC3339),
	}
	if _, err := s.store.Collection("event_costs").CreateItem(ctx, doc); err != nil {
		return nil, fmt.Errorf("save cost record: %w", err)
	}

	// The totals on the user document are a derived convenience;
	// failing to refresh them does not fail the save.
	total := result.TotalEstimated
	monthly := result.MonthlySavingsSuggestion
	if monthly == 0 {
		monthly = monthlySuggestion(total)
	}
	if _, err := s.store.UpdateUser(ctx, userID, store.UserPatch{
		TotalEstimatedExpenses:   &total,
		MonthlySavingsSuggestion: &monthly,
	}); err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("user expense totals not refreshed")
	}

	return &record, nil
}

// UserCosts returns a user's saved cost records, newest first.
func (s *Service) UserCosts(ctx context.Context, userID string) ([]SavedCost, error) {
	records, err := s.listCosts(ctx, userID)
	if err != nil {
		return nil, err
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
	return records, nil
}

func (s *Service) listCosts(ctx context.Context, userID string) ([]SavedCost, error) {
	items, err := s.store.Collection("event_costs").QueryItems(ctx,
		"SELECT * FROM c WHERE c.user_id = @userId",
		map[string]any{"@userId": userID})
	if err != nil {
		return nil, fmt.Errorf("query cost records: %w", err)
	}

	records := make([]SavedCost, 0, len(items))
	for _, item := range items {
		if asString(item["user_id"]) != userID {
			continue
		}
		record := SavedCost{
			ID:             asString(item["id"]),
			UserID:         userID,
			ArtistID:       asString(item["artist_id"]),
			EventCount:     asInt(item["event_count"]),
			TotalEstimated: asInt(item["total_estimated"]),
		}
		if nested, ok := item["result"].(map[string]any); ok {
			record.Result = nested
		}
		if ts, err := time.Parse(time.RFC3339, asString(item["created_at"])); err == nil {
			record.CreatedAt = ts
		}
		records = append(records, record)
	}
	return records, nil
}

// encodeCachedEvents and decodeCachedEvents shuttle predictions through
// the schemaless cache document.
func encodeCachedEvents(events []PredictedEvent) map[string]any {
	list := make([]any, 0, len(events))
	for _, event := range events {
		list = append(list, map[string]any{
			"date":       event.Date,
			"event_type": event.EventType,
			"location":   event.Location,
		})
	}
	return map[string]any{"predicted_events": list}
}

func decodeCachedEvents(data map[string]any) []PredictedEvent {
	list, ok := data["predicted_events"].([]any)
	if !ok {
		return nil
	}
	events := make([]PredictedEvent, 0, len(list))
	for _, entry := range list {
		fields, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		events = append(events, PredictedEvent{
			Date:      asString(fields["date"]),
			EventType: asString(fields["event_type"]),
			Location:  asString(fields["location"]),
		})
	}
	return events
}

// toDocument converts a typed value into a decoded JSON document.
func toDocument(v any) map[string]any {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil
	}
	return doc
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}
