package domain

import (
	"errors"
	"fmt"
)

var (
	ErrBallotLoading   = errors.New("suggestions are still loading")
	ErrBallotEmpty     = errors.New("no suggestions to rate")
	ErrRatingRange     = fmt.Errorf("rating must be between %d and %d", MinRating, MaxRating)
	ErrCardMismatch    = errors.New("activity is not the current card")
	ErrBallotCompleted = errors.New("voting already completed")
)

// Ballot is the sequential single-card rating flow of the voting screen.
type Ballot struct {
	Loading     bool
	Suggestions []ActivitySuggestion
	Index       int
	Ratings     map[string]int
}

// NewLoadingBallot is the ballot shown while suggestions are being fetched.
func NewLoadingBallot() Ballot {
	return Ballot{Loading: true, Ratings: map[string]int{}}
}

// Loaded returns a copy of b with suggestions in place.
func (b Ballot) Loaded(suggestions []ActivitySuggestion) Ballot {
	return Ballot{
		Suggestions: append([]ActivitySuggestion{}, suggestions...),
		Ratings:     map[string]int{},
	}
}

// Current returns the card awaiting a rating.
func (b Ballot) Current() (ActivitySuggestion, bool) {
	if b.Loading || b.Index >= len(b.Suggestions) {
		return ActivitySuggestion{}, false
	}
	return b.Suggestions[b.Index], true
}

// Rate stores rating for the current card and advances. When the rated card
// was the last one, winner is that card and done is true.
//
// The winner is the card just rated, not the best rated one.
func (b Ballot) Rate(rating int, activityID string) (next Ballot, winner ActivitySuggestion, done bool, err error) {
	if b.Loading {
		return b, ActivitySuggestion{}, false, ErrBallotLoading
	}
	if len(b.Suggestions) == 0 {
		return b, ActivitySuggestion{}, false, ErrBallotEmpty
	}
	if rating < MinRating || rating > MaxRating {
		return b, ActivitySuggestion{}, false, ErrRatingRange
	}
	current, ok := b.Current()
	if !ok {
		return b, ActivitySuggestion{}, false, ErrBallotCompleted
	}
	if activityID != "" && activityID != current.ID {
		return b, ActivitySuggestion{}, false, ErrCardMismatch
	}

	next = Ballot{
		Suggestions: append([]ActivitySuggestion{}, b.Suggestions...),
		Index:       b.Index + 1,
		Ratings:     make(map[string]int, len(b.Ratings)+1),
	}
	for id, r := range b.Ratings {
		next.Ratings[id] = r
	}
	next.Ratings[current.ID] = rating
	r := rating
	next.Suggestions[b.Index].Rating = &r

	if next.Index < len(next.Suggestions) {
		return next, ActivitySuggestion{}, false, nil
	}
	return next, next.Suggestions[b.Index], true, nil
}
