package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/quotefeed/matchbook/internal/api"
	"github.com/quotefeed/matchbook/internal/archive"
	"github.com/quotefeed/matchbook/internal/book"
	"github.com/quotefeed/matchbook/internal/config"
	"github.com/quotefeed/matchbook/internal/feed"
	"github.com/quotefeed/matchbook/internal/instrument"
	"github.com/quotefeed/matchbook/internal/persist"
	"github.com/quotefeed/matchbook/internal/sim"
)

// tapePollInterval is how often the tape poller drains new executions
// from the engine's trade log.
const tapePollInterval = 10 * time.Millisecond

func main() {
	cfg := config.Load()

	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds)
	log.Println("matchbook simulator starting")

	// Context with graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Printf("received signal %v, shutting down...", sig)
		cancel()
	}()

	// PRNG
	rng := sim.NewRNG(cfg.Seed)
	log.Printf("PRNG seed: %d", cfg.Seed)

	// Instruments
	universe := instrument.Universe(cfg.Instruments)
	log.Printf("loaded %d instruments", len(universe))

	// Matching engine + reference pricer
	engine := book.NewBook(len(universe))
	pricer := sim.NewPricer(rng, universe)

	// MongoDB (optional)
	var store *persist.Store
	var writer *persist.Writer
	var reader persist.TradeReader
	if cfg.MongoURI != "" {
		var err error
		store, err = persist.NewStore(ctx, cfg.MongoURI)
		if err != nil {
			log.Fatalf("database connection failed: %v", err)
		}
		defer store.Close(context.Background())

		if err := store.Migrate(ctx); err != nil {
			log.Fatalf("migration failed: %v", err)
		}

		writer = persist.NewWriter(store, universe)
		if err := writer.SaveInstruments(ctx); err != nil {
			log.Printf("warning: failed to save instrument directory: %v", err)
		}
		reader = persist.NewMongoTradeReader(store.DB())

		go persist.RunRetention(ctx, store, cfg.TradeRetentionDays)

		if cfg.ArchiveDir != "" {
			archiver := archive.New(store.DB(), cfg.ArchiveDir, cfg.ArchiveMaxGB, cfg.ArchiveIntervalHours, cfg.ArchiveAfterHours)
			go archiver.Run(ctx)
		}
	} else {
		log.Println("running without persistence (no MONGO_URI)")
	}

	// Feed manager
	mgr := feed.NewManager(universe, cfg.SendBufferSize)

	// Trade persistence workers
	tradeCh := make(chan book.Trade, 4096)
	if writer != nil {
		for i := 0; i < 2; i++ {
			go tradeWriter(ctx, writer, tradeCh)
		}
	}

	// Tape poller: fan new executions out to the feed and the database.
	go tapePoller(ctx, engine, universe, mgr, tradeCh, writer != nil)

	// HTTP/WebSocket server
	mux := http.NewServeMux()
	mux.HandleFunc("/feed", feed.Handler(mgr))
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"status":"ok","clients":%d,"instruments":%d}`, mgr.ClientCount(), len(universe))
	})

	apiServer := api.NewServer(reader, engine, pricer, mgr, universe)
	apiServer.Register(mux)

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		srv.Shutdown(shutdownCtx)
	}()

	// Load generator
	gen := sim.NewGenerator(rng, engine, pricer, universe, sim.GeneratorConfig{
		Workers: cfg.Workers,
		Orders:  cfg.Orders,
		MinQty:  cfg.MinQty,
		MaxQty:  cfg.MaxQty,
		Pacer: sim.PacerConfig{
			CalmMinMs:   cfg.CalmMinMs,
			CalmMaxMs:   cfg.CalmMaxMs,
			ActiveMinMs: cfg.ActiveMinMs,
			ActiveMaxMs: cfg.ActiveMaxMs,
			BurstMinMs:  cfg.BurstMinMs,
			BurstMaxMs:  cfg.BurstMaxMs,
		},
	})
	go func() {
		start := time.Now()
		log.Printf("load generator: %d workers submitting %d orders", cfg.Workers, cfg.Orders)
		gen.Run(ctx)
		logFinalStats(engine, gen, time.Since(start))
	}()

	log.Printf("WebSocket feed listening on ws://%s/feed", addr)
	log.Printf("Health check: http://%s/health", addr)
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("server error: %v", err)
	}

	log.Println("matchbook simulator stopped")
}

// tapePoller drains the shared trade log and fans executions out to
// WebSocket subscribers and (when enabled) the persistence channel.
// It is the only tape consumer holding a cursor; everything downstream
// gets copies.
func tapePoller(ctx context.Context, engine *book.Book, universe []instrument.Instrument, mgr *feed.Manager, tradeCh chan<- book.Trade, persisting bool) {
	tickers := make(map[int]string, len(universe))
	for _, ins := range universe {
		tickers[ins.ID] = ins.Ticker
	}

	ticker := time.NewTicker(tapePollInterval)
	defer ticker.Stop()

	cursor := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			trades := engine.TradesSince(cursor)
			if len(trades) == 0 {
				continue
			}
			cursor += len(trades)

			events := make([]feed.Event, len(trades))
			for i, t := range trades {
				events[i] = feed.Event{
					Type:       feed.EventTrade,
					Instrument: t.Instrument,
					Ticker:     tickers[t.Instrument],
					Timestamp:  t.ExecutedAt.UnixNano(),
					TradeSeq:   t.Seq,
					Quantity:   t.Quantity,
					Price:      t.Price,
				}
			}
			mgr.Broadcast(events)

			if persisting {
				for _, t := range trades {
					select {
					case tradeCh <- t:
					default:
						// buffer full — drop rather than stall the tape
					}
				}
			}
		}
	}
}

// tradeWriter drains the trade channel and writes to the DB.
func tradeWriter(ctx context.Context, w *persist.Writer, ch <-chan book.Trade) {
	for {
		select {
		case <-ctx.Done():
			return
		case t := <-ch:
			if err := w.SaveTrade(context.Background(), t); err != nil {
				log.Printf("trade writer: save seq %d: %v", t.Seq, err)
			}
		}
	}
}

// logFinalStats prints the end-of-run book and tape summary.
func logFinalStats(engine *book.Book, gen *sim.Generator, elapsed time.Duration) {
	s := engine.Stats()
	log.Printf("load generator finished in %v", elapsed.Truncate(time.Millisecond))
	log.Printf("submitted=%d filled-on-entry=%d rejected=%d",
		gen.Submitted(), gen.FilledOnEntry(), gen.Rejected())
	log.Printf("resting buys=%d sells=%d trades=%d volume=%d",
		s.BuyOrders, s.SellOrders, s.Trades, s.Volume)

	// Last few executions as a sanity sample.
	tail := s.Trades - 5
	if tail < 0 {
		tail = 0
	}
	for _, t := range engine.TradesSince(tail) {
		log.Printf("trade #%d: instrument=%d qty=%d @%.2f", t.Seq, t.Instrument, t.Quantity, t.Price)
	}
}
