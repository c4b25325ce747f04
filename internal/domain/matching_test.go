package domain_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"cirqle-backend/internal/domain"
	"cirqle-backend/pkg/schedule"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchingScheduleShape(t *testing.T) {
	timing := domain.DefaultMatchingTiming()
	var completions int
	steps := domain.MatchingSchedule(timing, domain.MatchingEffects{
		Progress: func(int) {},
		Status:   func(string) {},
		Complete: func() { completions++ },
	})

	assert.Len(t, steps, 100+len(timing.Statuses)+1)
	assert.Equal(t, 4500*time.Millisecond, schedule.Total(steps))

	last := steps[len(steps)-1]
	last.Do()
	assert.Equal(t, 1, completions)
}

func TestMatchingScheduleCompletionNeverPrecedesFullProgress(t *testing.T) {
	timing := domain.MatchingTiming{Tick: 10 * time.Millisecond, Complete: 500 * time.Millisecond}
	steps := domain.MatchingSchedule(timing, domain.MatchingEffects{
		Progress: func(int) {}, Status: func(string) {}, Complete: func() {},
	})
	assert.Equal(t, time.Second, schedule.Total(steps))
}

func TestMatchingScheduleRuns(t *testing.T) {
	timing := domain.ScaledMatchingTiming(domain.DefaultMatchingTiming(), 100)

	var (
		mu       sync.Mutex
		percents []int
		statuses []string
		complete int
	)
	steps := domain.MatchingSchedule(timing, domain.MatchingEffects{
		Progress: func(p int) { mu.Lock(); percents = append(percents, p); mu.Unlock() },
		Status:   func(s string) { mu.Lock(); statuses = append(statuses, s); mu.Unlock() },
		Complete: func() { mu.Lock(); complete++; mu.Unlock() },
	})

	r := schedule.Start(context.Background(), steps)
	select {
	case <-r.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("schedule did not finish")
	}

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, percents, 100)
	for i, p := range percents {
		assert.Equal(t, i+1, p)
	}
	assert.Equal(t, []string{
		"Analyzing interests compatibility...",
		"Checking group vibe...",
		"Curating activity suggestions...",
	}, statuses)
	assert.Equal(t, 1, complete)
}

func TestScaledMatchingTiming(t *testing.T) {
	base := domain.DefaultMatchingTiming()
	assert.Equal(t, base, domain.ScaledMatchingTiming(base, 1))

	scaled := domain.ScaledMatchingTiming(base, 10)
	assert.Equal(t, 4*time.Millisecond, scaled.Tick)
	assert.Equal(t, 450*time.Millisecond, scaled.Complete)
	assert.Equal(t, 100*time.Millisecond, scaled.Statuses[0].At)
}
