package sim

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/quotefeed/matchbook/internal/book"
	"github.com/quotefeed/matchbook/internal/instrument"
)

// priceJitter is the relative standard deviation of an order's limit
// price around the instrument's reference price. Both sides draw from
// the same distribution, so roughly half of all submissions cross.
const priceJitter = 0.002

// GeneratorConfig controls the load a Generator puts on the engine.
type GeneratorConfig struct {
	Workers int // concurrent submitting goroutines
	Orders  int // total submissions across all workers
	MinQty  int
	MaxQty  int
	Pacer   PacerConfig
}

// Generator is the load driver: a pool of workers submitting random
// orders to the matching engine through its public Submit operation.
// It holds no engine internals and observes results only through the
// values Submit returns.
type Generator struct {
	rng      *RNG
	engine   *book.Book
	pricer   *Pricer
	universe []instrument.Instrument
	cfg      GeneratorConfig

	submitted atomic.Uint64
	filled    atomic.Uint64
	rejected  atomic.Uint64
}

// NewGenerator creates a load generator over the given engine and
// universe.
func NewGenerator(rng *RNG, engine *book.Book, pricer *Pricer, universe []instrument.Instrument, cfg GeneratorConfig) *Generator {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.MinQty <= 0 {
		cfg.MinQty = 1
	}
	if cfg.MaxQty < cfg.MinQty {
		cfg.MaxQty = cfg.MinQty
	}
	return &Generator{
		rng:      rng,
		engine:   engine,
		pricer:   pricer,
		universe: universe,
		cfg:      cfg,
	}
}

// Run submits cfg.Orders random orders from cfg.Workers goroutines and
// blocks until all workers finish or the context is cancelled. Orders
// that do not divide evenly are spread over the first workers.
func (g *Generator) Run(ctx context.Context) {
	perWorker := g.cfg.Orders / g.cfg.Workers
	extra := g.cfg.Orders % g.cfg.Workers

	var wg sync.WaitGroup
	for w := 0; w < g.cfg.Workers; w++ {
		n := perWorker
		if w < extra {
			n++
		}
		if n == 0 {
			continue
		}
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			g.worker(ctx, n)
		}(n)
	}
	wg.Wait()
}

// worker submits n orders, pacing itself with its own phase
// controller.
func (g *Generator) worker(ctx context.Context, n int) {
	pacer := NewPacer(g.rng, g.cfg.Pacer)

	for n > 0 {
		select {
		case <-ctx.Done():
			return
		default:
		}

		delay, batch := pacer.Next()
		if batch > n {
			batch = n
		}
		g.pricer.Shock()
		for i := 0; i < batch; i++ {
			g.submitOne()
		}
		n -= batch

		if delay > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
			}
		}
	}
}

// submitOne generates and submits a single random order.
func (g *Generator) submitOne() {
	ins := g.universe[g.rng.Intn(len(g.universe))]

	side := book.SideBuy
	if g.rng.Float64() < 0.5 {
		side = book.SideSell
	}

	qty := int64(g.rng.IntRange(g.cfg.MinQty, g.cfg.MaxQty))

	ref := g.pricer.Tick(ins.ID)
	price := g.pricer.Snap(ins.ID, ref*(1+priceJitter*g.rng.Gaussian()))

	o, err := g.engine.Submit(side, ins.ID, qty, price)
	if err != nil {
		// Generated orders are always in range; a rejection here is a
		// driver bug worth surfacing, not a condition to retry.
		g.rejected.Add(1)
		log.Printf("generator: submit %s %s x%d @%.2f rejected: %v", side, ins.Ticker, qty, price, err)
		return
	}
	g.submitted.Add(1)
	if o.Filled() {
		g.filled.Add(1)
	}
}

// Submitted returns the number of accepted submissions so far.
func (g *Generator) Submitted() uint64 {
	return g.submitted.Load()
}

// FilledOnEntry returns how many submissions were already fully filled
// when Submit returned.
func (g *Generator) FilledOnEntry() uint64 {
	return g.filled.Load()
}

// Rejected returns the number of submissions the engine rejected.
func (g *Generator) Rejected() uint64 {
	return g.rejected.Load()
}
