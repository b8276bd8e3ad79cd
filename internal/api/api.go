package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/quotefeed/matchbook/internal/book"
	"github.com/quotefeed/matchbook/internal/feed"
	"github.com/quotefeed/matchbook/internal/instrument"
	"github.com/quotefeed/matchbook/internal/persist"
	"github.com/quotefeed/matchbook/internal/sim"
)

// Server provides REST API endpoints over the matching engine.
type Server struct {
	reader   persist.TradeReader // nil when the database is disabled
	engine   *book.Book
	pricer   *sim.Pricer
	mgr      *feed.Manager
	universe []instrument.Instrument
	byTick   map[string]*instrument.Instrument
	startAt  time.Time
}

// NewServer creates a new API server. reader may be nil, in which case
// trade history falls back to the in-memory tape and candles are
// unavailable.
func NewServer(reader persist.TradeReader, engine *book.Book, pricer *sim.Pricer, mgr *feed.Manager, universe []instrument.Instrument) *Server {
	byTick := make(map[string]*instrument.Instrument, len(universe))
	for i := range universe {
		byTick[universe[i].Ticker] = &universe[i]
	}
	return &Server{
		reader:   reader,
		engine:   engine,
		pricer:   pricer,
		mgr:      mgr,
		universe: universe,
		byTick:   byTick,
		startAt:  time.Now(),
	}
}

// Register attaches API routes to the given mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/instruments", s.handleInstruments)
	mux.HandleFunc("GET /api/instruments/{ticker}", s.handleInstrumentDetail)
	mux.HandleFunc("GET /api/book/{ticker}", s.handleBookDepth)
	mux.HandleFunc("GET /api/trades/{ticker}", s.handleTrades)
	mux.HandleFunc("GET /api/candles/{ticker}", s.handleCandles)
	mux.HandleFunc("GET /api/stats", s.handleStats)
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// resolveTicker looks up an instrument by ticker, writing a 404 if not
// found. Returns nil if the instrument was not found (error already
// written).
func (s *Server) resolveTicker(w http.ResponseWriter, ticker string) *instrument.Instrument {
	ins, ok := s.byTick[ticker]
	if !ok {
		writeError(w, http.StatusNotFound, "instrument not found: "+ticker)
		return nil
	}
	return ins
}

// parseIntParam parses an integer query parameter with a default value.
func parseIntParam(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// parseTimeParam parses an RFC3339 query parameter.
func parseTimeParam(r *http.Request, key string) *time.Time {
	v := r.URL.Query().Get(key)
	if v == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return nil
	}
	return &t
}
