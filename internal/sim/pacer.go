package sim

import (
	"math"
	"time"
)

// Phase represents the current submission-rate phase of a driver
// worker.
type Phase int

const (
	PhaseCalm   Phase = 0
	PhaseActive Phase = 1
	PhaseBurst  Phase = 2
)

func (p Phase) String() string {
	switch p {
	case PhaseCalm:
		return "calm"
	case PhaseActive:
		return "active"
	case PhaseBurst:
		return "burst"
	default:
		return "unknown"
	}
}

// PacerConfig holds the inter-submission delay bounds for each phase.
type PacerConfig struct {
	CalmMinMs   int
	CalmMaxMs   int
	ActiveMinMs int
	ActiveMaxMs int
	BurstMinMs  int
	BurstMaxMs  int
}

// DefaultPacerConfig returns delay bounds matching the reference
// driver's 1-10ms sleeps at the active end.
func DefaultPacerConfig() PacerConfig {
	return PacerConfig{
		CalmMinMs:   5,
		CalmMaxMs:   20,
		ActiveMinMs: 1,
		ActiveMaxMs: 10,
		BurstMinMs:  0,
		BurstMaxMs:  1,
	}
}

// Pacer varies a worker's submission rate through calm/active/burst
// phases using a sine wave plus a mean-reverting random walk, so load
// on the engine breathes instead of arriving at a flat rate.
type Pacer struct {
	rng    *RNG
	config PacerConfig

	phase         Phase
	phaseStart    time.Time
	phaseDuration time.Duration
	intensity     float64 // 0.0 (calm) to 1.0 (max burst)

	t          float64
	tStep      float64
	randomWalk float64
}

// NewPacer creates a pacer starting in the calm phase.
func NewPacer(rng *RNG, cfg PacerConfig) *Pacer {
	p := &Pacer{
		rng:        rng,
		config:     cfg,
		phase:      PhaseCalm,
		phaseStart: time.Now(),
		tStep:      0.01,
	}
	p.phaseDuration = p.randomDuration(5, 30)
	return p
}

// Next advances the pacer and returns the delay before the next
// submission and how many orders to submit back-to-back.
func (p *Pacer) Next() (delay time.Duration, batch int) {
	p.t += p.tStep
	sine := (math.Sin(p.t) + 1) / 2 // [0, 1]

	p.randomWalk += p.rng.Gaussian() * 0.02
	p.randomWalk *= 0.98 // mean revert

	p.intensity = sine + p.randomWalk
	if p.intensity < 0 {
		p.intensity = 0
	}
	if p.intensity > 1 {
		p.intensity = 1
	}

	now := time.Now()
	if now.Sub(p.phaseStart) >= p.phaseDuration {
		p.phaseStart = now
		p.updatePhase()
	}

	var minMs, maxMs float64
	switch p.phase {
	case PhaseCalm:
		minMs, maxMs = float64(p.config.CalmMinMs), float64(p.config.CalmMaxMs)
		batch = 1
	case PhaseActive:
		minMs, maxMs = float64(p.config.ActiveMinMs), float64(p.config.ActiveMaxMs)
		batch = 1 + int(p.intensity*2) // 1-3
	case PhaseBurst:
		minMs, maxMs = float64(p.config.BurstMinMs), float64(p.config.BurstMaxMs)
		batch = 2 + int(p.intensity*4) // 2-6
	}

	ms := maxMs - (maxMs-minMs)*p.intensity
	delay = time.Duration(ms * float64(time.Millisecond))
	return delay, batch
}

// Phase returns the current phase.
func (p *Pacer) Phase() Phase {
	return p.phase
}

// Intensity returns the current intensity level [0, 1].
func (p *Pacer) Intensity() float64 {
	return p.intensity
}

func (p *Pacer) updatePhase() {
	if p.intensity < 0.3 {
		p.phase = PhaseCalm
		p.phaseDuration = p.randomDuration(5, 30)
	} else if p.intensity < 0.7 {
		p.phase = PhaseActive
		p.phaseDuration = p.randomDuration(3, 15)
	} else {
		p.phase = PhaseBurst
		p.phaseDuration = p.randomDuration(1, 8)
	}
}

func (p *Pacer) randomDuration(minSec, maxSec int) time.Duration {
	secs := p.rng.IntRange(minSec, maxSec)
	return time.Duration(secs) * time.Second
}
