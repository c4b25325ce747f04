package domain

import (
	"time"

	"cirqle-backend/pkg/schedule"
)

// StatusChange swaps the loader's status line at a fixed offset.
type StatusChange struct {
	At   time.Duration
	Text string
}

// MatchingTiming describes the scripted matching animation.
type MatchingTiming struct {
	Tick     time.Duration // one percent of progress per tick
	Statuses []StatusChange
	Complete time.Duration
}

const MatchingInitialStatus = "Checking nearby location..."

// DefaultMatchingTiming: 100 ticks of 40ms, completion at 4.5s.
func DefaultMatchingTiming() MatchingTiming {
	return MatchingTiming{
		Tick: 40 * time.Millisecond,
		Statuses: []StatusChange{
			{At: 1000 * time.Millisecond, Text: "Analyzing interests compatibility..."},
			{At: 2500 * time.Millisecond, Text: "Checking group vibe..."},
			{At: 3500 * time.Millisecond, Text: "Curating activity suggestions..."},
		},
		Complete: 4500 * time.Millisecond,
	}
}

// ScaledMatchingTiming divides every offset of t by factor. Tests use it to
// run the real schedule quickly.
func ScaledMatchingTiming(t MatchingTiming, factor int) MatchingTiming {
	if factor <= 1 {
		return t
	}
	scaled := MatchingTiming{
		Tick:     t.Tick / time.Duration(factor),
		Complete: t.Complete / time.Duration(factor),
	}
	for _, s := range t.Statuses {
		scaled.Statuses = append(scaled.Statuses, StatusChange{At: s.At / time.Duration(factor), Text: s.Text})
	}
	return scaled
}

// MatchingProgress is what the loader shows.
type MatchingProgress struct {
	Percent int    `json:"percent"`
	Status  string `json:"status"`
}

// MatchingEffects receive the schedule's events.
type MatchingEffects struct {
	Progress func(percent int)
	Status   func(text string)
	Complete func()
}

// MatchingSchedule expands t into a declarative step list: one step per
// percent, one per status change, and the completion last.
func MatchingSchedule(t MatchingTiming, fx MatchingEffects) []schedule.Step {
	steps := make([]schedule.Step, 0, 100+len(t.Statuses)+1)
	for pct := 1; pct <= 100; pct++ {
		steps = append(steps, schedule.Step{
			At: time.Duration(pct) * t.Tick,
			Do: func() { fx.Progress(pct) },
		})
	}
	for _, s := range t.Statuses {
		steps = append(steps, schedule.Step{
			At: s.At,
			Do: func() { fx.Status(s.Text) },
		})
	}
	complete := max(t.Complete, 100*t.Tick)
	steps = append(steps, schedule.Step{At: complete, Do: fx.Complete})
	return steps
}
