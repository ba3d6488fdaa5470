package collector

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"

	"github.com/songzhibin97/tokenlens/internal/data"
)

type BreakerSettings struct {
	ConsecutiveFailures uint32
	Interval            time.Duration
	Timeout             time.Duration
}

func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{
		ConsecutiveFailures: 3,
		Interval:            60 * time.Second,
		Timeout:             60 * time.Second,
	}
}

func newBreaker(name string, s BreakerSettings) *gobreaker.CircuitBreaker {
	st := gobreaker.Settings{
		Name:     name,
		Interval: s.Interval,
		Timeout:  s.Timeout,
	}
	st.ReadyToTrip = func(counts gobreaker.Counts) bool {
		return counts.ConsecutiveFailures >= s.ConsecutiveFailures
	}
	// an upstream that answers "unknown token" or a caller that gave up is still healthy
	st.IsSuccessful = func(err error) bool {
		return err == nil ||
			errors.Is(err, data.ErrNotFound) ||
			errors.Is(err, context.Canceled)
	}
	return gobreaker.NewCircuitBreaker(st)
}

func (c *MultiSourceCollector) breaker(name string) *gobreaker.CircuitBreaker {
	c.mu.Lock()
	defer c.mu.Unlock()

	if b, ok := c.breakers[name]; ok {
		return b
	}
	b := newBreaker(name, c.breakerSettings)
	c.breakers[name] = b
	return b
}

// call runs fn through the named source's circuit breaker.
func call[T any](c *MultiSourceCollector, name string, fn func() (*T, error)) (*T, error) {
	res, err := c.breaker(name).Execute(func() (interface{}, error) {
		return fn()
	})
	if err != nil {
		return nil, err
	}
	out, _ := res.(*T)
	if out == nil {
		return nil, data.ErrNotFound
	}
	return out, nil
}
