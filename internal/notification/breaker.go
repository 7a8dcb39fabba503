package notification

import (
	"fmt"
	"sync"
	"time"

	"chorebuddy/internal/utils"
)

// DefaultBreakerThreshold is the number of consecutive failures after which
// a channel is suspended.
const DefaultBreakerThreshold = 3

// DefaultBreakerCooldown is how long a suspended channel is skipped before
// one trial delivery is attempted again.
const DefaultBreakerCooldown = 5 * time.Minute

// BreakerState is the state of a channel's circuit breaker.
type BreakerState int

const (
	// BreakerClosed lets every notification through.
	BreakerClosed BreakerState = iota
	// BreakerOpen skips the channel until the cooldown expires.
	BreakerOpen
	// BreakerHalfOpen lets one trial delivery through after the cooldown.
	BreakerHalfOpen
)

func (s BreakerState) String() string {
	switch s {
	case BreakerClosed:
		return "closed"
	case BreakerOpen:
		return "open"
	case BreakerHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// Breaker suspends a channel that keeps failing, so a missing notify-send
// does not produce an error on every reminder of a long "remind watch".
type Breaker struct {
	mu        sync.Mutex
	threshold int
	cooldown  time.Duration
	now       func() time.Time
	failures  int
	state     BreakerState
	openedAt  time.Time
}

// NewBreaker creates a closed breaker.
func NewBreaker(threshold int, cooldown time.Duration) *Breaker {
	if threshold <= 0 {
		threshold = DefaultBreakerThreshold
	}
	return &Breaker{threshold: threshold, cooldown: cooldown, now: time.Now}
}

// Allow reports whether a delivery should be attempted.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.advance()
	return b.state != BreakerOpen
}

// Success closes the breaker and resets the failure count.
func (b *Breaker) Success() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures = 0
	b.state = BreakerClosed
}

// Failure counts a failed delivery and reports whether it opened the breaker.
// A failed trial delivery reopens the breaker at once.
func (b *Breaker) Failure() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures++
	if b.state == BreakerOpen {
		return false
	}
	if b.state == BreakerHalfOpen || b.failures >= b.threshold {
		b.state = BreakerOpen
		b.openedAt = b.now()
		return true
	}
	return false
}

// State returns the current state.
func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.advance()
	return b.state
}

// advance moves an open breaker to half-open once the cooldown passed.
// Callers hold mu.
func (b *Breaker) advance() {
	if b.state == BreakerOpen && b.now().Sub(b.openedAt) >= b.cooldown {
		b.state = BreakerHalfOpen
	}
}

// guardedChannel skips its channel while the breaker is open
type guardedChannel struct {
	name    string
	channel NotificationChannel
	breaker *Breaker
}

// ErrChannelSuspended is returned for deliveries skipped by an open breaker.
// The manager does not report it.
type ErrChannelSuspended struct {
	Channel string
}

func (e *ErrChannelSuspended) Error() string {
	return fmt.Sprintf("%s notifications suspended after repeated failures", e.Channel)
}

func (g *guardedChannel) Send(n Notification) error {
	if !g.breaker.Allow() {
		return &ErrChannelSuspended{Channel: g.name}
	}
	if err := g.channel.Send(n); err != nil {
		if g.breaker.Failure() {
			utils.Debugf("%s notifications suspended for %s: %v", g.name, g.breaker.cooldown, err)
		}
		return err
	}
	g.breaker.Success()
	return nil
}

func (g *guardedChannel) Close() error {
	return g.channel.Close()
}
