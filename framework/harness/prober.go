package harness

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/employee-demo/employee-contract-tests/framework"
)

// ErrNotReady is wrapped by the error from Prober.AwaitReady when the service never became ready.
var ErrNotReady = errors.New("service not ready")

const (
	DefaultProbePath        = "/api/employees"
	DefaultProbeMaxAttempts = 5
	DefaultProbeDelay       = time.Second
)

// ProberConfig controls a Prober. Zero fields take the defaults.
type ProberConfig struct {
	// Path is requested with GET; any 2xx status means the service is ready.
	Path string

	// MaxAttempts is the total number of probe requests, including the first.
	MaxAttempts int

	// Delay is the constant wait between attempts. There is no backoff and no jitter.
	Delay time.Duration
}

func (c ProberConfig) withDefaults() ProberConfig {
	if c.Path == "" {
		c.Path = DefaultProbePath
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = DefaultProbeMaxAttempts
	}
	if c.Delay <= 0 {
		c.Delay = DefaultProbeDelay
	}
	return c
}

// Prober waits for the target to answer successfully.
type Prober struct {
	target *Target
	config ProberConfig
	logger framework.Logger
	sleep  func(context.Context, time.Duration) error
}

// NewProber creates a Prober for a target.
func NewProber(target *Target, config ProberConfig) *Prober {
	return &Prober{
		target: target,
		config: config.withDefaults(),
		logger: framework.NullLogger(),
		sleep:  sleepContext,
	}
}

// Config returns the effective configuration, with defaults filled in.
func (p *Prober) Config() ProberConfig { return p.config }

// WithLogger returns a copy of the Prober that reports attempts to logger, and whose probe
// requests are logged there too.
func (p *Prober) WithLogger(logger framework.Logger) *Prober {
	copied := *p
	copied.logger = logger
	copied.target = p.target.WithLogger(logger)
	return &copied
}

// AwaitReady probes until the target answers with a 2xx status or the attempt budget is spent.
// The delay is applied between attempts, not after the last one. If ctx is cancelled while
// waiting, AwaitReady stops early. On failure the returned error wraps ErrNotReady and
// describes the last failed attempt.
func (p *Prober) AwaitReady(ctx context.Context) error {
	var lastErr error
	for attempt := 1; attempt <= p.config.MaxAttempts; attempt++ {
		lastErr = p.probe(ctx)
		if lastErr == nil {
			p.logger.Printf("Service at %s is ready (attempt %d of %d)",
				p.target.BaseURL(), attempt, p.config.MaxAttempts)
			return nil
		}
		p.logger.Printf("Service not ready (attempt %d of %d): %s", attempt, p.config.MaxAttempts, lastErr)
		if attempt == p.config.MaxAttempts {
			break
		}
		if err := p.sleep(ctx, p.config.Delay); err != nil {
			return fmt.Errorf("%w: gave up after %d attempts: %w", ErrNotReady, attempt, err)
		}
	}
	return fmt.Errorf("%w after %d attempts: %w", ErrNotReady, p.config.MaxAttempts, lastErr)
}

func (p *Prober) probe(ctx context.Context) error {
	resp, err := p.target.Get(ctx, p.config.Path)
	if err != nil {
		return err
	}
	return resp.ExpectSuccess()
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
