// Package ratelimit throttles MCP tool calls with per-tool token buckets.
package ratelimit

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrLimited is wrapped by the error Check returns for a throttled call.
var ErrLimited = errors.New("rate limit exceeded")

// Rule is the budget of one tool: PerMinute calls sustained, Burst at once.
type Rule struct {
	PerMinute float64
	Burst     int
}

// bucket is a token bucket. It starts full.
type bucket struct {
	rate   float64 // tokens per second
	burst  float64
	tokens float64
	last   time.Time
}

func (b *bucket) take(now time.Time) bool {
	if elapsed := now.Sub(b.last).Seconds(); elapsed > 0 {
		b.tokens = min(b.burst, b.tokens+b.rate*elapsed)
		b.last = now
	}
	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

// Limiter holds one bucket per tool. It is safe for concurrent use.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	now     func() time.Time
}

// New creates a limiter enforcing rules. Tools without a rule are unlimited.
func New(rules map[string]Rule) *Limiter {
	l := &Limiter{buckets: make(map[string]*bucket, len(rules)), now: time.Now}
	start := l.now()
	for tool, r := range rules {
		l.buckets[tool] = &bucket{
			rate:   r.PerMinute / 60,
			burst:  float64(r.Burst),
			tokens: float64(r.Burst),
			last:   start,
		}
	}
	return l
}

// DefaultRules returns the budgets for the neuron tools. Listing and lookups
// are cheap once a dataset is cached; panels and term analysis do more work.
func DefaultRules() map[string]Rule {
	return map[string]Rule{
		"neuron_list":        {PerMinute: 60, Burst: 10},
		"neuron_checkpoints": {PerMinute: 120, Burst: 20},
		"neuron_panel":       {PerMinute: 60, Burst: 10},
		"common_terms":       {PerMinute: 30, Burst: 5},
	}
}

// Allow consumes a token for tool and reports whether the call may proceed.
func (l *Limiter) Allow(tool string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[tool]
	if !ok {
		return true
	}
	return b.take(l.now())
}

// Check returns an error wrapping ErrLimited when tool is over budget.
func (l *Limiter) Check(tool string) error {
	if l == nil || l.Allow(tool) {
		return nil
	}
	return fmt.Errorf("%w for %s, please try again shortly", ErrLimited, tool)
}
