package typewriter

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// minDelay keeps a zero pause with all-empty words from spinning.
const minDelay = time.Millisecond

type Options struct {
	Words           []string
	TypingInterval  time.Duration
	ErasingInterval time.Duration
	Pause           time.Duration
}

type Option func(*Cycler)

// WithClock replaces the wall clock, mainly for tests.
func WithClock(c clockwork.Clock) Option {
	return func(cy *Cycler) { cy.clock = c }
}

// Cycler drives a Machine from a single goroutine holding at most one
// pending timer.
type Cycler struct {
	// startMu serializes Start so concurrent restarts cannot both arm a run.
	startMu sync.Mutex
	mu      sync.Mutex
	clock   clockwork.Clock
	opts    Options
	machine *Machine

	cancel context.CancelFunc
	done   chan struct{}
}

func New(opts Options, optFns ...Option) (*Cycler, error) {
	m, err := NewMachine(opts.Words)
	if err != nil {
		return nil, err
	}
	c := &Cycler{
		clock:   clockwork.NewRealClock(),
		opts:    opts,
		machine: m,
	}
	for _, fn := range optFns {
		fn(c)
	}
	return c, nil
}

// Start begins cycling and calls onTick for every visible change. A running
// cycle is stopped first, and the new one resumes Typing from the start of
// the current word. onTick runs on the cycler goroutine and must not call Stop.
func (c *Cycler) Start(onTick func(string)) {
	c.startMu.Lock()
	defer c.startMu.Unlock()

	c.Stop()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.machine.Reset()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	c.cancel = cancel
	c.done = done

	go c.run(ctx, done, onTick)
}

// Stop cancels the pending timer and waits for the goroutine to exit. It is
// safe to call more than once and before Start.
func (c *Cycler) Stop() {
	c.mu.Lock()
	cancel, done := c.cancel, c.done
	c.cancel, c.done = nil, nil
	c.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Running reports whether a cycle is active.
func (c *Cycler) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cancel != nil
}

// SetWords swaps the phrase list, including while running.
func (c *Cycler) SetWords(words []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.machine.SetWords(words)
}

// Text returns the current display text.
func (c *Cycler) Text() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.machine.Text()
}

func (c *Cycler) run(ctx context.Context, done chan struct{}, onTick func(string)) {
	defer close(done)

	for {
		c.mu.Lock()
		delay := c.machine.Delay(c.opts.TypingInterval, c.opts.ErasingInterval, c.opts.Pause)
		c.mu.Unlock()
		if delay < minDelay {
			delay = minDelay
		}

		timer := c.clock.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.Chan():
		}

		c.mu.Lock()
		text, changed := c.machine.Step()
		c.mu.Unlock()

		if changed && ctx.Err() == nil && onTick != nil {
			onTick(text)
		}
	}
}
