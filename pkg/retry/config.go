package retry

import (
	"fmt"
	"time"
)

// Backoff определяет стратегию задержки между попытками
type Backoff string

const (
	BackoffConstant    Backoff = "constant"
	BackoffLinear      Backoff = "linear"
	BackoffExponential Backoff = "exponential"
)

// Config: параметры повторов для загрузки датасета и переподключения к брокеру
type Config struct {
	// MaxAttempts включая первую; 0 = без ограничения
	MaxAttempts int           `yaml:"max_attempts"`
	Initial     time.Duration `yaml:"initial_delay"`
	Max         time.Duration `yaml:"max_delay"`
	Backoff     Backoff       `yaml:"backoff"`
	Multiplier  float64       `yaml:"multiplier"`

	// Jitter 0.0 - 1.0, доля случайного разброса задержки
	Jitter float64 `yaml:"jitter"`

	// OnRetry вызывается перед каждой паузой
	OnRetry func(attempt int, err error, delay time.Duration) `yaml:"-"`
}

// Validate проверяет конфигурацию и заполняет множитель по умолчанию
func (c *Config) Validate() error {
	if c.MaxAttempts < 0 {
		return fmt.Errorf("max_attempts must be >= 0, got %d", c.MaxAttempts)
	}
	if c.Initial < 0 {
		return fmt.Errorf("initial_delay must be >= 0")
	}
	if c.Max < c.Initial {
		return fmt.Errorf("max_delay (%v) must be >= initial_delay (%v)", c.Max, c.Initial)
	}
	switch c.Backoff {
	case BackoffConstant, BackoffLinear, BackoffExponential:
	case "":
		c.Backoff = BackoffExponential
	default:
		return fmt.Errorf("invalid backoff strategy: %s", c.Backoff)
	}
	if c.Multiplier <= 0 {
		c.Multiplier = 2.0
	}
	if c.Jitter < 0 || c.Jitter > 1.0 {
		return fmt.Errorf("jitter must be between 0.0 and 1.0, got %f", c.Jitter)
	}
	return nil
}

// DefaultConfig: 4 попытки, экспоненциально от 500ms до 10s
func DefaultConfig() Config {
	return Config{
		MaxAttempts: 4,
		Initial:     500 * time.Millisecond,
		Max:         10 * time.Second,
		Backoff:     BackoffExponential,
		Multiplier:  2.0,
		Jitter:      0.1,
	}
}
