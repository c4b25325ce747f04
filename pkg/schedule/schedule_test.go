package schedule_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"cirqle-backend/pkg/schedule"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestRunnerRunsStepsInOffsetOrder(t *testing.T) {
	var mu sync.Mutex
	var got []string
	record := func(name string) func() {
		return func() {
			mu.Lock()
			defer mu.Unlock()
			got = append(got, name)
		}
	}

	r := schedule.Start(context.Background(), []schedule.Step{
		{At: 6 * time.Millisecond, Do: record("c")},
		{At: 0, Do: record("a")},
		{At: 3 * time.Millisecond, Do: record("b")},
		{At: 6 * time.Millisecond, Do: record("d")},
	})

	select {
	case <-r.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("schedule did not finish")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"a", "b", "c", "d"}, got)
}

func TestRunnerStopCancelsPendingSteps(t *testing.T) {
	var early, late atomic.Int32
	r := schedule.Start(context.Background(), []schedule.Step{
		{At: 0, Do: func() { early.Add(1) }},
		{At: time.Hour, Do: func() { late.Add(1) }},
	})

	require.Eventually(t, func() bool { return early.Load() == 1 }, time.Second, time.Millisecond)
	r.Stop()

	assert.Equal(t, int32(0), late.Load())
	select {
	case <-r.Done():
	default:
		t.Fatal("Done must be closed after Stop returns")
	}
}

func TestRunnerNothingFiresAfterStop(t *testing.T) {
	var fired atomic.Int32
	steps := make([]schedule.Step, 0, 50)
	for i := range 50 {
		steps = append(steps, schedule.Step{At: time.Duration(i) * time.Millisecond, Do: func() { fired.Add(1) }})
	}

	r := schedule.Start(context.Background(), steps)
	time.Sleep(10 * time.Millisecond)
	r.Stop()

	snapshot := fired.Load()
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, snapshot, fired.Load())
	assert.Less(t, snapshot, int32(50))
}

func TestRunnerParentContextCancels(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var fired atomic.Bool
	r := schedule.Start(ctx, []schedule.Step{{At: time.Hour, Do: func() { fired.Store(true) }}})

	cancel()
	select {
	case <-r.Done():
	case <-time.After(time.Second):
		t.Fatal("runner ignored parent cancellation")
	}
	assert.False(t, fired.Load())
}

func TestTotal(t *testing.T) {
	assert.Equal(t, time.Duration(0), schedule.Total(nil))
	assert.Equal(t, 5*time.Second, schedule.Total([]schedule.Step{{At: time.Second}, {At: 5 * time.Second}, {At: 2 * time.Second}}))
}
