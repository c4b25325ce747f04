package usecase

import (
	"context"
	"strconv"

	"cirqle-backend/internal/domain"
)

type HealthUsecase interface {
	Check(ctx context.Context) map[string]string
}

type healthUsecase struct {
	sessions    domain.SessionRepository
	suggestions domain.SuggestionUsecase
	// pingStore reports the shared rate limit store; nil means in-memory.
	pingStore func(ctx context.Context) error
}

func NewHealthUsecase(sessions domain.SessionRepository, suggestions domain.SuggestionUsecase, pingStore func(ctx context.Context) error) HealthUsecase {
	return &healthUsecase{sessions: sessions, suggestions: suggestions, pingStore: pingStore}
}

func (u *healthUsecase) Check(ctx context.Context) map[string]string {
	status := map[string]string{
		"status":           "ok",
		"sessions":         strconv.Itoa(u.sessions.Count(ctx)),
		"generator":        "fallback",
		"rate_limit_store": "memory",
	}
	if u.suggestions.Live() {
		status["generator"] = "live"
	}
	if u.pingStore != nil {
		status["rate_limit_store"] = "redis"
		if err := u.pingStore(ctx); err != nil {
			status["rate_limit_store"] = "redis_unreachable"
		}
	}
	return status
}
