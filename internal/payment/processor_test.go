package payment_test

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/blackgym/storefront/internal/payment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastConfig() payment.Config {
	return payment.Config{
		TickInterval:  time.Millisecond,
		ProgressStep:  20,
		PhaseInterval: 2 * time.Millisecond,
		ResolveDelay:  time.Millisecond,
		SuccessRate:   0.95,
	}
}

func TestProgressAt(t *testing.T) {
	cfg := payment.DefaultConfig()

	assert.Equal(t, 0, payment.ProgressAt(cfg, 0))
	assert.Equal(t, 2, payment.ProgressAt(cfg, 1))
	assert.Equal(t, 50, payment.ProgressAt(cfg, 25))
	assert.Equal(t, 100, payment.ProgressAt(cfg, 50))
	assert.Equal(t, 100, payment.ProgressAt(cfg, 80))
}

func TestPhaseAt(t *testing.T) {
	cfg := payment.DefaultConfig()

	assert.Equal(t, 0, payment.PhaseAt(cfg, 0))
	assert.Equal(t, 0, payment.PhaseAt(cfg, 1400*time.Millisecond))
	assert.Equal(t, 1, payment.PhaseAt(cfg, 1500*time.Millisecond))
	assert.Equal(t, 2, payment.PhaseAt(cfg, 3*time.Second))
	assert.Equal(t, 3, payment.PhaseAt(cfg, 4500*time.Millisecond))

	// the last phase holds however long the run takes
	assert.Equal(t, 3, payment.PhaseAt(cfg, time.Minute))
}

func TestTicksToComplete(t *testing.T) {
	assert.Equal(t, 50, payment.TicksToComplete(payment.DefaultConfig()))
	assert.Equal(t, 34, payment.TicksToComplete(payment.Config{ProgressStep: 3}))
	assert.Equal(t, 0, payment.TicksToComplete(payment.Config{ProgressStep: 0}))
}

func TestProcessorRun(t *testing.T) {
	t.Run("Success - Forced Outcome Fires Done Once", func(t *testing.T) {
		// Arrange
		var (
			mu        sync.Mutex
			progress  []int
			doneCount atomic.Int32
		)

		done := make(chan bool, 1)

		proc := payment.NewProcessor(fastConfig(), payment.Hooks{
			Progress: func(percent int) {
				mu.Lock()
				progress = append(progress, percent)
				mu.Unlock()
			},
			Decide: func() bool { return true },
			Done: func(success bool) {
				doneCount.Add(1)
				done <- success
			},
		})

		// Act
		proc.Start()

		// Assert
		select {
		case success := <-done:
			assert.True(t, success)
		case <-time.After(2 * time.Second):
			t.Fatal("processor never completed")
		}

		assert.Equal(t, int32(1), doneCount.Load())

		mu.Lock()
		defer mu.Unlock()
		require.NotEmpty(t, progress)
		assert.Equal(t, 100, progress[len(progress)-1])

		for i := 1; i < len(progress); i++ {
			assert.GreaterOrEqual(t, progress[i], progress[i-1])
		}
	})

	t.Run("Success - Forced Failure Propagates", func(t *testing.T) {
		// Arrange
		done := make(chan bool, 1)

		proc := payment.NewProcessor(fastConfig(), payment.Hooks{
			Decide: func() bool { return false },
			Done:   func(success bool) { done <- success },
		})

		// Act
		proc.Start()

		// Assert
		select {
		case success := <-done:
			assert.False(t, success)
		case <-time.After(2 * time.Second):
			t.Fatal("processor never completed")
		}
	})

	t.Run("Success - Phase Indexes Stay In Range", func(t *testing.T) {
		// Arrange
		var maxPhase atomic.Int32

		done := make(chan struct{})

		cfg := fastConfig()
		cfg.PhaseInterval = time.Millisecond

		proc := payment.NewProcessor(cfg, payment.Hooks{
			Phase: func(index int) {
				if int32(index) > maxPhase.Load() {
					maxPhase.Store(int32(index))
				}
			},
			Decide: func() bool { return true },
			Done:   func(bool) { close(done) },
		})

		// Act
		proc.Start()

		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("processor never completed")
		}

		// Assert
		assert.Less(t, int(maxPhase.Load()), len(payment.Phases))
	})
}

func TestProcessorStop(t *testing.T) {
	t.Run("Success - No Callback After Stop", func(t *testing.T) {
		// Arrange
		var fired atomic.Bool

		cfg := fastConfig()
		cfg.TickInterval = 20 * time.Millisecond

		proc := payment.NewProcessor(cfg, payment.Hooks{
			Done: func(bool) { fired.Store(true) },
		})

		// Act: stop long before the run can complete
		proc.Start()
		time.Sleep(5 * time.Millisecond)
		proc.Stop()

		time.Sleep(100 * time.Millisecond)

		// Assert
		assert.False(t, fired.Load())
	})

	t.Run("Success - Stop Is Idempotent", func(t *testing.T) {
		// Arrange
		proc := payment.NewProcessor(fastConfig(), payment.Hooks{})

		// Act & Assert: a second Stop must not panic on the closed channel
		proc.Start()
		proc.Stop()
		proc.Stop()
	})

	t.Run("Success - Start After Stop Is A No-Op", func(t *testing.T) {
		// Arrange
		var fired atomic.Bool

		proc := payment.NewProcessor(fastConfig(), payment.Hooks{
			Done: func(bool) { fired.Store(true) },
		})

		// Act
		proc.Stop()
		proc.Start()

		time.Sleep(50 * time.Millisecond)

		// Assert
		assert.False(t, fired.Load())
	})
}
