// Package retry повторяет операции с задержкой по стратегии backoff.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"
)

// ErrMaxAttempts возвращается, когда попытки исчерпаны
var ErrMaxAttempts = errors.New("max retry attempts exceeded")

// permanent помечает ошибку, которую повторять бессмысленно
type permanent struct{ err error }

func (p *permanent) Error() string { return p.err.Error() }
func (p *permanent) Unwrap() error { return p.err }

// Permanent оборачивает ошибку так, что Do прекращает попытки сразу
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanent{err: err}
}

// Retryer выполняет функцию до успеха или исчерпания попыток
type Retryer struct {
	config Config
}

// New создает Retryer
func New(config Config) (*Retryer, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid retry config: %w", err)
	}
	return &Retryer{config: config}, nil
}

// Do выполняет fn с повторами. Ошибка последней попытки доступна через
// errors.Is/As вместе с ErrMaxAttempts.
func (r *Retryer) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	attempts := 0
	for {
		attempts++

		err := fn(ctx)
		if err == nil {
			return nil
		}

		var p *permanent
		if errors.As(err, &p) {
			return p.err
		}

		if r.config.MaxAttempts > 0 && attempts >= r.config.MaxAttempts {
			return fmt.Errorf("%w (%d): %w", ErrMaxAttempts, attempts, err)
		}

		if ctx.Err() != nil {
			return fmt.Errorf("context cancelled: %w", ctx.Err())
		}

		delay := r.Delay(attempts)
		if r.config.OnRetry != nil {
			r.config.OnRetry(attempts, err, delay)
		}

		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("context cancelled during retry: %w", ctx.Err())
		}
	}
}

// Delay вычисляет паузу после попытки attempt (с 1)
func (r *Retryer) Delay(attempt int) time.Duration {
	var d time.Duration
	switch r.config.Backoff {
	case BackoffConstant:
		d = r.config.Initial
	case BackoffLinear:
		d = r.config.Initial * time.Duration(attempt)
	default:
		d = time.Duration(float64(r.config.Initial) * math.Pow(r.config.Multiplier, float64(attempt-1)))
	}

	if d > r.config.Max {
		d = r.config.Max
	}

	if r.config.Jitter > 0 {
		d += time.Duration(float64(d) * r.config.Jitter * (rand.Float64()*2 - 1))
		if d < 0 {
			d = r.config.Initial
		}
	}
	return d
}
