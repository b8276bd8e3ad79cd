package sim

import (
	"math"
	"sync"

	"github.com/quotefeed/matchbook/internal/instrument"
)

const (
	baseDailyVol = 0.02 // 2% daily volatility
	sectorBlend  = 0.60 // 60% sector shock, 40% idiosyncratic
	ticksPerDay  = 86400
)

// Pricer drives a per-instrument reference price walk with
// sector-correlated returns. Generated orders cluster around the
// reference so the book sees a realistic mix of crossing and resting
// submissions instead of uniformly random prices.
type Pricer struct {
	mu     sync.RWMutex
	rng    *RNG
	prices map[int]float64
	byID   map[int]*instrument.Instrument

	// sector shocks generated once per shock cycle
	sectorShocks map[instrument.Sector]float64
}

// NewPricer creates a reference pricer over a universe, starting every
// instrument at its base price.
func NewPricer(rng *RNG, universe []instrument.Instrument) *Pricer {
	prices := make(map[int]float64, len(universe))
	byID := make(map[int]*instrument.Instrument, len(universe))
	for i := range universe {
		prices[universe[i].ID] = universe[i].BasePrice
		byID[universe[i].ID] = &universe[i]
	}
	return &Pricer{
		rng:          rng,
		prices:       prices,
		byID:         byID,
		sectorShocks: make(map[instrument.Sector]float64),
	}
}

// Shock produces one gaussian shock per sector. Call once per cycle
// before ticking individual instruments.
func (p *Pricer) Shock() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, sec := range instrument.Sectors() {
		p.sectorShocks[sec] = p.rng.Gaussian()
	}
}

// Tick advances the reference price for one instrument and returns the
// new price: S(t+1) = S(t) * exp(vol * Z), snapped to the tick size
// and floored at one tick.
func (p *Pricer) Tick(id int) float64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	ins := p.byID[id]
	if ins == nil {
		return 0
	}

	price := p.prices[id]
	tickVol := baseDailyVol / math.Sqrt(ticksPerDay) * ins.Volatility

	sectorZ := p.sectorShocks[ins.Sector]
	idioZ := p.rng.Gaussian()
	z := sectorBlend*sectorZ + (1-sectorBlend)*idioZ

	price *= math.Exp(tickVol * z)

	price = math.Round(price/ins.TickSize) * ins.TickSize
	if price < ins.TickSize {
		price = ins.TickSize
	}

	p.prices[id] = price
	return price
}

// Price returns the current reference price for an instrument.
func (p *Pricer) Price(id int) float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.prices[id]
}

// Snap rounds a price to an instrument's tick size, floored at one
// tick.
func (p *Pricer) Snap(id int, price float64) float64 {
	p.mu.RLock()
	ins := p.byID[id]
	p.mu.RUnlock()
	if ins == nil {
		return price
	}
	price = math.Round(price/ins.TickSize) * ins.TickSize
	if price < ins.TickSize {
		price = ins.TickSize
	}
	return price
}
