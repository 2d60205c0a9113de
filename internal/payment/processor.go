package payment

import (
	"math/rand/v2"
	"sync"
	"time"

	"github.com/blackgym/storefront/internal/metrics"
)

// Phases are the named stages shown while a simulated payment runs. The
// phase ticker advances through them independently of the progress counter.
var Phases = []string{
	"Validating card details",
	"Checking available funds",
	"Processing transaction",
	"Confirming payment",
}

type Config struct {
	TickInterval  time.Duration
	ProgressStep  int
	PhaseInterval time.Duration
	ResolveDelay  time.Duration
	SuccessRate   float64
}

func DefaultConfig() Config {
	return Config{
		TickInterval:  100 * time.Millisecond,
		ProgressStep:  2,
		PhaseInterval: 1500 * time.Millisecond,
		ResolveDelay:  500 * time.Millisecond,
		SuccessRate:   0.95,
	}
}

// ProgressAt is the pure tick model of the progress counter: the value after
// n progress ticks, clamped to 100.
func ProgressAt(cfg Config, ticks int) int {
	p := ticks * cfg.ProgressStep
	if p > 100 {
		return 100
	}

	return p
}

// PhaseAt maps elapsed time to a phase index; the last phase absorbs the
// remainder of the run.
func PhaseAt(cfg Config, elapsed time.Duration) int {
	idx := int(elapsed / cfg.PhaseInterval)
	if idx >= len(Phases) {
		return len(Phases) - 1
	}

	return idx
}

// TicksToComplete is how many progress ticks a run takes to reach 100.
func TicksToComplete(cfg Config) int {
	if cfg.ProgressStep <= 0 {
		return 0
	}

	return (100 + cfg.ProgressStep - 1) / cfg.ProgressStep
}

// Hooks receive simulation events. Done fires exactly once per run with the
// final outcome, unless the run is stopped first. Decide, when set, replaces
// the random outcome source; it is evaluated exactly once per run.
type Hooks struct {
	Progress func(percent int)
	Phase    func(index int)
	Done     func(success bool)
	Decide   func() bool
}

// Processor drives one simulated processing run on two independent timers, a
// progress counter and a phase advancer. Stop cancels both; after Stop
// returns, Done will not fire.
type Processor struct {
	cfg   Config
	hooks Hooks

	mu      sync.Mutex
	stopCh  chan struct{}
	stopped bool
	started bool
	fired   bool
}

func NewProcessor(cfg Config, hooks Hooks) *Processor {
	return &Processor{
		cfg:    cfg,
		hooks:  hooks,
		stopCh: make(chan struct{}),
	}
}

func (p *Processor) Start() {
	p.mu.Lock()
	if p.started || p.stopped {
		p.mu.Unlock()

		return
	}

	p.started = true
	p.mu.Unlock()

	go p.run()
}

func (p *Processor) run() {
	progressTicker := time.NewTicker(p.cfg.TickInterval)
	defer progressTicker.Stop()

	phaseTicker := time.NewTicker(p.cfg.PhaseInterval)
	defer phaseTicker.Stop()

	progress := 0
	phase := 0

	for {
		select {
		case <-p.stopCh:
			return

		case <-phaseTicker.C:
			if phase < len(Phases)-1 {
				phase++
				p.emitPhase(phase)
			}

		case <-progressTicker.C:
			progress += p.cfg.ProgressStep
			if progress > 100 {
				progress = 100
			}

			p.emitProgress(progress)

			if progress < 100 {
				continue
			}

			progressTicker.Stop()
			phaseTicker.Stop()

			// the randomness is evaluated exactly once per run
			success := p.decide()

			select {
			case <-p.stopCh:
				return
			case <-time.After(p.cfg.ResolveDelay):
			}

			p.fire(success)

			return
		}
	}
}

func (p *Processor) decide() bool {
	if p.hooks.Decide != nil {
		return p.hooks.Decide()
	}

	return rand.Float64() < p.cfg.SuccessRate
}

func (p *Processor) emitProgress(percent int) {
	if p.hooks.Progress != nil {
		p.hooks.Progress(percent)
	}
}

func (p *Processor) emitPhase(index int) {
	if p.hooks.Phase != nil {
		p.hooks.Phase(index)
	}
}

// fire invokes Done while holding the mutex so that a concurrent Stop either
// observes the run as fired or suppresses the callback entirely. Hooks must
// not call back into the processor.
func (p *Processor) fire(success bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped || p.fired {
		return
	}

	p.fired = true

	if success {
		metrics.PaymentSimulation("success")
	} else {
		metrics.PaymentSimulation("failure")
	}

	if p.hooks.Done != nil {
		p.hooks.Done(success)
	}
}

// Stop cancels the run. Idempotent; once it returns, no callback fires.
func (p *Processor) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.stopped {
		p.stopped = true
		close(p.stopCh)
	}
}
