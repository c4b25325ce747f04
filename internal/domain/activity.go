package domain

import (
	"context"
	"errors"
	"fmt"
)

const (
	MinRating = 1
	MaxRating = 4

	// VotingSuggestionCount is the number of cards on the voting screen.
	VotingSuggestionCount = 4
	// DashboardSuggestionCount is the number of ideas on the home tab.
	DashboardSuggestionCount = 3
)

type ActivitySuggestion struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Location    string `json:"location"`
	Icon        string `json:"icon"` // lucide icon name
	Rating      *int   `json:"rating,omitempty"`
}

// ActivityGenerator produces suggestions and icebreakers from an external
// text-generation service. Implementations return errors; fallbacks are
// applied by the caller.
type ActivityGenerator interface {
	Suggest(ctx context.Context, interests []string, location string, count int) ([]ActivitySuggestion, error)
	Icebreaker(ctx context.Context, interests []string) (string, error)
}

// ErrEmptyGeneration is returned by generators that answered with no content.
var ErrEmptyGeneration = errors.New("generator returned no content")

// SuggestionUsecase wraps a generator with fallback content. It never fails.
type SuggestionUsecase interface {
	VotingSuggestions(ctx context.Context, user User) []ActivitySuggestion
	DashboardSuggestions(ctx context.Context, user User) []ActivitySuggestion
	Icebreaker(ctx context.Context, interests []string) string
	Live() bool
}

// ============================================================================
// Fallback content
// ============================================================================

// FallbackVotingSuggestions returns the cards shown when no generator is configured.
func FallbackVotingSuggestions() []ActivitySuggestion {
	return []ActivitySuggestion{
		{ID: "1", Title: "Sunset Picnic", Description: "Relaxed evening with snacks at the park.", Location: "City Park", Icon: "Sun"},
		{ID: "2", Title: "Pottery Workshop", Description: "Beginner friendly clay session.", Location: "Creative Studio", Icon: "Palette"},
		{ID: "3", Title: "Board Game Night", Description: "Strategy and fun at a local cafe.", Location: "Dice & Beans", Icon: "Dice"},
		{ID: "4", Title: "Street Food Market", Description: "Trying out new local dishes together.", Location: "Market Square", Icon: "Utensils"},
	}
}

// FallbackDashboardSuggestions returns the home-tab ideas shown without a generator.
func FallbackDashboardSuggestions() []ActivitySuggestion {
	return []ActivitySuggestion{
		{ID: "1", Title: "Indie Coffee Crawl", Description: "Visit 3 top-rated local roasters.", Location: "Downtown", Icon: "Coffee"},
		{ID: "2", Title: "Sunset Photography Walk", Description: "Capture the golden hour at the harbor.", Location: "Riverfront", Icon: "Camera"},
		{ID: "3", Title: "Vinyl Listening Session", Description: "Share your favorite records.", Location: "Audio Cafe", Icon: "Music"},
	}
}

// FallbackIcebreakers are picked from at random when no generator is configured.
var FallbackIcebreakers = []string{
	"If you could teleport anywhere right now, where would you go?",
	"What's the best coffee spot you've found in the city so far?",
	"What's a hobby you've always wanted to pick up but haven't yet?",
}

const (
	// IcebreakerOnError is served when a configured generator fails.
	IcebreakerOnError = "What's the best thing that happened to you this week?"
	// IcebreakerOnEmpty is served when the generator answers with no text.
	IcebreakerOnEmpty = "What's everyone's favorite weekend activity?"
)

// NormalizeSuggestions fills missing ids with gen-<index> and drops ratings
// a generator might have invented.
func NormalizeSuggestions(in []ActivitySuggestion) []ActivitySuggestion {
	out := make([]ActivitySuggestion, 0, len(in))
	for i, s := range in {
		if s.ID == "" {
			s.ID = fmt.Sprintf("gen-%d", i)
		}
		s.Rating = nil
		out = append(out, s)
	}
	return out
}
