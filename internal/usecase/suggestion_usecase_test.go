package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"cirqle-backend/internal/domain"
	"cirqle-backend/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockGenerator stands in for the Gemini client.
type MockGenerator struct {
	mock.Mock
}

func (m *MockGenerator) Suggest(ctx context.Context, interests []string, location string, count int) ([]domain.ActivitySuggestion, error) {
	args := m.Called(ctx, interests, location, count)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ActivitySuggestion), args.Error(1)
}

func (m *MockGenerator) Icebreaker(ctx context.Context, interests []string) (string, error) {
	args := m.Called(ctx, interests)
	return args.String(0), args.Error(1)
}

var hamburgUser = domain.User{ID: "u1", Name: "Tom", Location: "Hamburg", Interests: []string{"Fitness", "Running", "Cooking"}}

func TestSuggestionsWithoutGenerator(t *testing.T) {
	uc := usecase.NewSuggestionUsecase(nil, time.Second)
	ctx := context.Background()

	assert.False(t, uc.Live())
	assert.Equal(t, domain.FallbackVotingSuggestions(), uc.VotingSuggestions(ctx, hamburgUser))
	assert.Equal(t, domain.FallbackDashboardSuggestions(), uc.DashboardSuggestions(ctx, hamburgUser))
	assert.Contains(t, domain.FallbackIcebreakers, uc.Icebreaker(ctx, hamburgUser.Interests))
}

func TestSuggestionsFromGenerator(t *testing.T) {
	gen := new(MockGenerator)
	generated := []domain.ActivitySuggestion{{ID: "gen-0", Title: "Harbour Run", Location: "Hamburg", Icon: "Footprints"}}
	gen.On("Suggest", mock.Anything, hamburgUser.Interests, "Hamburg", domain.VotingSuggestionCount).Return(generated, nil)

	uc := usecase.NewSuggestionUsecase(gen, time.Second)
	assert.True(t, uc.Live())
	assert.Equal(t, generated, uc.VotingSuggestions(context.Background(), hamburgUser))
	gen.AssertExpectations(t)
}

func TestSuggestionsAreCappedAtRequestedCount(t *testing.T) {
	gen := new(MockGenerator)
	var generated []domain.ActivitySuggestion
	for i := range 12 {
		generated = append(generated, domain.ActivitySuggestion{ID: fmt.Sprintf("gen-%d", i), Title: "Harbour Run"})
	}
	gen.On("Suggest", mock.Anything, mock.Anything, mock.Anything, domain.VotingSuggestionCount).Return(generated, nil)

	uc := usecase.NewSuggestionUsecase(gen, time.Second)
	got := uc.VotingSuggestions(context.Background(), hamburgUser)
	assert.Len(t, got, domain.VotingSuggestionCount)
	assert.Equal(t, generated[:domain.VotingSuggestionCount], got)
}

func TestSuggestionsFallBackOnFailure(t *testing.T) {
	t.Run("generator error", func(t *testing.T) {
		gen := new(MockGenerator)
		gen.On("Suggest", mock.Anything, mock.Anything, mock.Anything, domain.DashboardSuggestionCount).Return(nil, errors.New("quota"))

		uc := usecase.NewSuggestionUsecase(gen, time.Second)
		assert.Equal(t, domain.FallbackDashboardSuggestions(), uc.DashboardSuggestions(context.Background(), hamburgUser))
	})

	t.Run("empty answer", func(t *testing.T) {
		gen := new(MockGenerator)
		gen.On("Suggest", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return([]domain.ActivitySuggestion{}, nil)

		uc := usecase.NewSuggestionUsecase(gen, time.Second)
		assert.Equal(t, domain.FallbackVotingSuggestions(), uc.VotingSuggestions(context.Background(), hamburgUser))
	})

	t.Run("timeout bounds the call", func(t *testing.T) {
		gen := new(MockGenerator)
		gen.On("Suggest", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) {
				<-args.Get(0).(context.Context).Done()
			}).
			Return(nil, context.DeadlineExceeded)

		uc := usecase.NewSuggestionUsecase(gen, 10*time.Millisecond)
		start := time.Now()
		assert.Equal(t, domain.FallbackVotingSuggestions(), uc.VotingSuggestions(context.Background(), hamburgUser))
		assert.Less(t, time.Since(start), time.Second)
	})
}

func TestIcebreaker(t *testing.T) {
	cases := []struct {
		name string
		text string
		err  error
		want string
	}{
		{name: "generated", text: "Best run route in town?", want: "Best run route in town?"},
		{name: "error", err: errors.New("network"), want: domain.IcebreakerOnError},
		{name: "empty text", want: domain.IcebreakerOnEmpty},
		{name: "empty sentinel", err: domain.ErrEmptyGeneration, want: domain.IcebreakerOnEmpty},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			gen := new(MockGenerator)
			gen.On("Icebreaker", mock.Anything, hamburgUser.Interests).Return(tc.text, tc.err)

			uc := usecase.NewSuggestionUsecase(gen, time.Second)
			assert.Equal(t, tc.want, uc.Icebreaker(context.Background(), hamburgUser.Interests))
		})
	}
}
