package refresh

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ruslano69/minionview/pkg/retry"
)

// Reloader reloads the dataset. dataset.Store and explorer.Service implement it.
type Reloader interface {
	Reload(ctx context.Context) error
}

// Listener calls Reload once per received message and reconnects when the
// broker connection drops.
type Listener struct {
	broker Broker
	target Reloader
	retry  retry.Config
}

// NewListener creates a Listener. A zero retry config reconnects forever with
// the default backoff.
func NewListener(b Broker, target Reloader, rc retry.Config) *Listener {
	if rc.MaxAttempts == 0 && rc.Initial == 0 && rc.Max == 0 {
		rc = retry.DefaultConfig()
		rc.MaxAttempts = 0
	}
	return &Listener{broker: b, target: target, retry: rc}
}

// Run blocks until ctx is cancelled. It returns an error only when the broker
// cannot be reached within the retry budget.
func (l *Listener) Run(ctx context.Context) error {
	rc := l.retry
	if rc.OnRetry == nil {
		rc.OnRetry = func(attempt int, err error, delay time.Duration) {
			log.Warn().Err(err).Int("attempt", attempt).Dur("delay", delay).Msg("refresh broker connect failed")
		}
	}
	r, err := retry.New(rc)
	if err != nil {
		return fmt.Errorf("refresh: %w", err)
	}

	drops := 0
	for {
		if err := r.Do(ctx, l.broker.Connect); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("refresh: connect: %w", err)
		}
		log.Info().Msg("refresh listener connected")

		n, err := l.consume(ctx)
		if cerr := l.broker.Close(); cerr != nil {
			log.Warn().Err(cerr).Msg("refresh broker close failed")
		}
		if ctx.Err() != nil {
			return nil
		}

		// пауза растет, пока соединение обрывается без единого сообщения
		if n > 0 {
			drops = 0
		}
		drops++
		delay := r.Delay(drops)
		log.Warn().Err(err).Int("drops", drops).Dur("delay", delay).Msg("refresh listener disconnected, reconnecting")

		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return nil
		}
	}
}

// consume обрабатывает сообщения до ошибки и возвращает их число
func (l *Listener) consume(ctx context.Context) (int, error) {
	for n := 0; ; n++ {
		msg, err := l.broker.Receive(ctx)
		if err != nil {
			return n, err
		}

		start := time.Now()
		if err := l.target.Reload(ctx); err != nil {
			// Сообщение все равно подтверждается: повтор того же сигнала
			// загрузит тот же ассет
			log.Error().Err(err).Int("message_bytes", len(msg)).Msg("dataset reload failed")
		} else {
			log.Info().Dur("took", time.Since(start)).Msg("dataset reloaded")
		}

		if a, ok := l.broker.(Acker); ok {
			if err := a.Ack(ctx); err != nil {
				return n + 1, err
			}
		}
	}
}
