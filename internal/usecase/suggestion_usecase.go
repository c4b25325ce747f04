package usecase

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	"cirqle-backend/internal/domain"
	"cirqle-backend/pkg/logger"
)

type suggestionUsecase struct {
	generator domain.ActivityGenerator
	timeout   time.Duration
}

// NewSuggestionUsecase wraps generator with fallback content. A nil
// generator means no API key is configured and only fallbacks are served.
func NewSuggestionUsecase(generator domain.ActivityGenerator, timeout time.Duration) domain.SuggestionUsecase {
	return &suggestionUsecase{generator: generator, timeout: timeout}
}

func (u *suggestionUsecase) Live() bool {
	return u.generator != nil
}

func (u *suggestionUsecase) VotingSuggestions(ctx context.Context, user domain.User) []domain.ActivitySuggestion {
	return u.suggest(ctx, user, domain.VotingSuggestionCount, domain.FallbackVotingSuggestions)
}

func (u *suggestionUsecase) DashboardSuggestions(ctx context.Context, user domain.User) []domain.ActivitySuggestion {
	return u.suggest(ctx, user, domain.DashboardSuggestionCount, domain.FallbackDashboardSuggestions)
}

func (u *suggestionUsecase) suggest(ctx context.Context, user domain.User, count int, fallback func() []domain.ActivitySuggestion) []domain.ActivitySuggestion {
	if u.generator == nil {
		logger.Log.Debug("No generator configured, serving fallback suggestions", "count", count)
		return fallback()
	}

	ctx, cancel := u.bound(ctx)
	defer cancel()

	suggestions, err := u.generator.Suggest(ctx, user.Interests, user.Location, count)
	if err != nil {
		logger.Log.Error("Activity suggestion failed, serving fallback", "error", err, "user_id", user.ID)
		return fallback()
	}
	if len(suggestions) == 0 {
		logger.Log.Warn("Generator returned no suggestions, serving fallback", "user_id", user.ID)
		return fallback()
	}
	if len(suggestions) > count {
		logger.Log.Debug("Generator returned extra suggestions", "requested", count, "returned", len(suggestions))
		suggestions = suggestions[:count]
	}
	return suggestions
}

func (u *suggestionUsecase) Icebreaker(ctx context.Context, interests []string) string {
	if u.generator == nil {
		return domain.FallbackIcebreakers[rand.IntN(len(domain.FallbackIcebreakers))]
	}

	ctx, cancel := u.bound(ctx)
	defer cancel()

	text, err := u.generator.Icebreaker(ctx, interests)
	switch {
	case errors.Is(err, domain.ErrEmptyGeneration), err == nil && text == "":
		return domain.IcebreakerOnEmpty
	case err != nil:
		logger.Log.Error("Icebreaker generation failed", "error", err)
		return domain.IcebreakerOnError
	}
	return text
}

func (u *suggestionUsecase) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if u.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, u.timeout)
}
