package reconciler

import "time"

// PacingConfig holds the fixed delays the engine applies between external
// calls. These pace throughput; they are not timeouts.
type PacingConfig struct {
	ThrottleDelay time.Duration // before every carrier fetch
	SettleDelay   time.Duration // before finalizing each outbound message
	RetryDelay    time.Duration // before the single dispatch retry
	RateLimitWait time.Duration // when the carrier minute cap is hit
}

func DefaultPacingConfig() PacingConfig {
	return PacingConfig{
		ThrottleDelay: 2 * time.Second,
		SettleDelay:   1 * time.Second,
		RetryDelay:    60 * time.Second,
		RateLimitWait: 500 * time.Millisecond,
	}
}

// PacingPolicy applies the configured delays through an injectable sleep,
// so tests run with a recorder instead of real time.
type PacingPolicy struct {
	cfg   PacingConfig
	sleep func(time.Duration)
}

func NewPacingPolicy(cfg PacingConfig, sleep func(time.Duration)) *PacingPolicy {
	def := DefaultPacingConfig()
	if cfg.ThrottleDelay <= 0 {
		cfg.ThrottleDelay = def.ThrottleDelay
	}
	if cfg.SettleDelay <= 0 {
		cfg.SettleDelay = def.SettleDelay
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = def.RetryDelay
	}
	if cfg.RateLimitWait <= 0 {
		cfg.RateLimitWait = def.RateLimitWait
	}
	if sleep == nil {
		sleep = time.Sleep
	}
	return &PacingPolicy{cfg: cfg, sleep: sleep}
}

func (p *PacingPolicy) Throttle()      { p.sleep(p.cfg.ThrottleDelay) }
func (p *PacingPolicy) Settle()        { p.sleep(p.cfg.SettleDelay) }
func (p *PacingPolicy) RetryWait()     { p.sleep(p.cfg.RetryDelay) }
func (p *PacingPolicy) RateLimitWait() { p.sleep(p.cfg.RateLimitWait) }
