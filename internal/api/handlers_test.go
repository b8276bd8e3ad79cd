package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/quotefeed/matchbook/internal/book"
	"github.com/quotefeed/matchbook/internal/feed"
	"github.com/quotefeed/matchbook/internal/instrument"
	"github.com/quotefeed/matchbook/internal/persist"
	"github.com/quotefeed/matchbook/internal/sim"
)

// --- stub TradeReader ---

type stubTradeReader struct {
	trades     []persist.Trade
	tradesErr  error
	candles    []persist.Candle
	candlesErr error
	stats      persist.TradeStats
	statsErr   error

	// capture filter args for assertions
	lastTradeFilter  persist.TradeFilter
	lastCandleFilter persist.CandleFilter
}

func (s *stubTradeReader) QueryTrades(_ context.Context, f persist.TradeFilter) ([]persist.Trade, error) {
	s.lastTradeFilter = f
	return s.trades, s.tradesErr
}

func (s *stubTradeReader) QueryCandles(_ context.Context, f persist.CandleFilter) ([]persist.Candle, error) {
	s.lastCandleFilter = f
	return s.candles, s.candlesErr
}

func (s *stubTradeReader) QueryTradeStats(_ context.Context) (persist.TradeStats, error) {
	return s.stats, s.statsErr
}

// --- test helpers ---

// newTestServer creates a Server over a small universe with a real
// engine. Pass a nil reader to exercise the in-memory fallback.
func newTestServer(reader persist.TradeReader) (*Server, *book.Book, *http.ServeMux) {
	universe := instrument.Universe(8)
	engine := book.NewBook(len(universe))
	rng := sim.NewRNG(42)
	pricer := sim.NewPricer(rng, universe)
	mgr := feed.NewManager(universe, 64)

	srv := NewServer(reader, engine, pricer, mgr, universe)

	mux := http.NewServeMux()
	srv.Register(mux)
	return srv, engine, mux
}

func mustDecodeJSON(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("failed to decode JSON: %v", err)
	}
}

func firstTicker() string {
	return instrument.Universe(1)[0].Ticker
}

// --- tests ---

func TestHandleInstruments(t *testing.T) {
	_, _, mux := newTestServer(&stubTradeReader{})
	req := httptest.NewRequest("GET", "/api/instruments", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var out []map[string]any
	mustDecodeJSON(t, w.Result(), &out)

	if len(out) != 8 {
		t.Fatalf("expected 8 instruments, got %d", len(out))
	}

	first := out[0]
	for _, key := range []string{"ticker", "price", "bestBid", "bestAsk"} {
		if _, ok := first[key]; !ok {
			t.Errorf("missing key %q in instrument JSON", key)
		}
	}
}

func TestHandleInstrumentDetail(t *testing.T) {
	_, _, mux := newTestServer(&stubTradeReader{})
	ticker := firstTicker()
	req := httptest.NewRequest("GET", "/api/instruments/"+ticker, nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var out map[string]any
	mustDecodeJSON(t, w.Result(), &out)

	if out["ticker"] != ticker {
		t.Errorf("expected ticker %s, got %v", ticker, out["ticker"])
	}
	if out["instrument"] != float64(0) {
		t.Errorf("expected instrument 0, got %v", out["instrument"])
	}
	if _, ok := out["price"]; !ok {
		t.Error("missing price field")
	}
}

func TestHandleInstrumentDetailNotFound(t *testing.T) {
	_, _, mux := newTestServer(&stubTradeReader{})
	req := httptest.NewRequest("GET", "/api/instruments/ZZZZ", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}

	var out map[string]string
	mustDecodeJSON(t, w.Result(), &out)

	if out["error"] == "" {
		t.Error("expected error message in response")
	}
}

func TestHandleBookDepth(t *testing.T) {
	_, engine, mux := newTestServer(&stubTradeReader{})
	engine.Submit(book.SideBuy, 0, 10, 99.50)
	engine.Submit(book.SideSell, 0, 10, 100.50)

	req := httptest.NewRequest("GET", "/api/book/"+firstTicker(), nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var out map[string]any
	mustDecodeJSON(t, w.Result(), &out)

	for _, key := range []string{"bestBid", "bestAsk", "spread", "buyOrders", "sellOrders"} {
		if _, ok := out[key]; !ok {
			t.Errorf("missing key %q in depth response", key)
		}
	}
	if out["bestBid"] != 99.50 {
		t.Errorf("bestBid = %v, want 99.5", out["bestBid"])
	}
	if out["buyOrders"] != float64(1) {
		t.Errorf("buyOrders = %v, want 1", out["buyOrders"])
	}
}

func TestHandleBookDepthNotFound(t *testing.T) {
	_, _, mux := newTestServer(&stubTradeReader{})
	req := httptest.NewRequest("GET", "/api/book/ZZZZ", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestHandleTrades(t *testing.T) {
	stub := &stubTradeReader{
		trades: []persist.Trade{
			{Seq: 1, Ticker: firstTicker(), Price: 185.50, Quantity: 100, ExecutedAt: time.Now()},
			{Seq: 2, Ticker: firstTicker(), Price: 185.60, Quantity: 200, ExecutedAt: time.Now()},
		},
	}
	_, _, mux := newTestServer(stub)
	req := httptest.NewRequest("GET", "/api/trades/"+firstTicker(), nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var out []persist.Trade
	mustDecodeJSON(t, w.Result(), &out)

	if len(out) != 2 {
		t.Fatalf("expected 2 trades, got %d", len(out))
	}
}

func TestHandleTradesParams(t *testing.T) {
	stub := &stubTradeReader{trades: []persist.Trade{}}
	_, _, mux := newTestServer(stub)
	req := httptest.NewRequest("GET", "/api/trades/"+firstTicker()+"?limit=5&offset=10", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	if stub.lastTradeFilter.Limit != 5 {
		t.Errorf("expected limit=5, got %d", stub.lastTradeFilter.Limit)
	}
	if stub.lastTradeFilter.Offset != 10 {
		t.Errorf("expected offset=10, got %d", stub.lastTradeFilter.Offset)
	}
	if stub.lastTradeFilter.Instrument != 0 {
		t.Errorf("expected instrument=0, got %d", stub.lastTradeFilter.Instrument)
	}
}

func TestHandleTradesDBError(t *testing.T) {
	stub := &stubTradeReader{tradesErr: errors.New("db connection lost")}
	_, _, mux := newTestServer(stub)
	req := httptest.NewRequest("GET", "/api/trades/"+firstTicker(), nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
}

func TestHandleTradesTapeFallback(t *testing.T) {
	_, engine, mux := newTestServer(nil)
	engine.Submit(book.SideSell, 0, 10, 100.00)
	engine.Submit(book.SideBuy, 0, 10, 100.00)

	req := httptest.NewRequest("GET", "/api/trades/"+firstTicker(), nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var out []persist.Trade
	mustDecodeJSON(t, w.Result(), &out)

	if len(out) != 1 {
		t.Fatalf("expected 1 trade from tape, got %d", len(out))
	}
	if out[0].Price != 100.00 || out[0].Quantity != 10 {
		t.Errorf("trade = %+v, want qty 10 @ 100.00", out[0])
	}
	if out[0].Ticker != firstTicker() {
		t.Errorf("ticker = %q, want %q", out[0].Ticker, firstTicker())
	}
}

func TestHandleCandles(t *testing.T) {
	stub := &stubTradeReader{
		candles: []persist.Candle{
			{Bucket: time.Now(), Open: 185.0, High: 186.0, Low: 184.0, Close: 185.5, Volume: 1000, Count: 10},
		},
	}
	_, _, mux := newTestServer(stub)
	req := httptest.NewRequest("GET", "/api/candles/"+firstTicker(), nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var out []persist.Candle
	mustDecodeJSON(t, w.Result(), &out)

	if len(out) != 1 {
		t.Fatalf("expected 1 candle, got %d", len(out))
	}
}

func TestHandleCandlesDefaultInterval(t *testing.T) {
	stub := &stubTradeReader{candles: []persist.Candle{}}
	_, _, mux := newTestServer(stub)
	req := httptest.NewRequest("GET", "/api/candles/"+firstTicker(), nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	if stub.lastCandleFilter.Interval != "1m" {
		t.Errorf("expected default interval 1m, got %q", stub.lastCandleFilter.Interval)
	}
}

func TestHandleCandlesCustomInterval(t *testing.T) {
	stub := &stubTradeReader{candles: []persist.Candle{}}
	_, _, mux := newTestServer(stub)
	req := httptest.NewRequest("GET", "/api/candles/"+firstTicker()+"?interval=5m", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	if stub.lastCandleFilter.Interval != "5m" {
		t.Errorf("expected interval 5m, got %q", stub.lastCandleFilter.Interval)
	}
}

func TestHandleCandlesDBError(t *testing.T) {
	stub := &stubTradeReader{candlesErr: errors.New("unsupported interval: 99x")}
	_, _, mux := newTestServer(stub)
	req := httptest.NewRequest("GET", "/api/candles/"+firstTicker(), nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestHandleCandlesNoReader(t *testing.T) {
	_, _, mux := newTestServer(nil)
	req := httptest.NewRequest("GET", "/api/candles/"+firstTicker(), nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}
}

func TestHandleStats(t *testing.T) {
	stub := &stubTradeReader{
		stats: persist.TradeStats{TotalTrades: 42, TotalVolume: 10000},
	}
	_, _, mux := newTestServer(stub)
	req := httptest.NewRequest("GET", "/api/stats", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var out map[string]any
	mustDecodeJSON(t, w.Result(), &out)

	for _, key := range []string{"uptime", "clients", "instruments", "buyOrders", "sellOrders", "totalTrades", "totalVolume"} {
		if _, ok := out[key]; !ok {
			t.Errorf("missing key %q in stats response", key)
		}
	}

	// Engine has no trades, so the database totals win.
	if out["totalTrades"] != float64(42) {
		t.Errorf("expected totalTrades=42, got %v", out["totalTrades"])
	}
	if out["totalVolume"] != float64(10000) {
		t.Errorf("expected totalVolume=10000, got %v", out["totalVolume"])
	}
}

func TestHandleStatsNoReader(t *testing.T) {
	_, engine, mux := newTestServer(nil)
	engine.Submit(book.SideSell, 0, 25, 50.00)
	engine.Submit(book.SideBuy, 0, 25, 50.00)

	req := httptest.NewRequest("GET", "/api/stats", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var out map[string]any
	mustDecodeJSON(t, w.Result(), &out)

	if out["totalTrades"] != float64(1) {
		t.Errorf("expected totalTrades=1, got %v", out["totalTrades"])
	}
	if out["totalVolume"] != float64(25) {
		t.Errorf("expected totalVolume=25, got %v", out["totalVolume"])
	}
}

func TestContentTypeJSON(t *testing.T) {
	_, _, mux := newTestServer(&stubTradeReader{
		stats: persist.TradeStats{},
	})

	endpoints := []string{
		"/api/instruments",
		"/api/instruments/" + firstTicker(),
		"/api/book/" + firstTicker(),
		"/api/stats",
	}

	for _, ep := range endpoints {
		req := httptest.NewRequest("GET", ep, nil)
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, req)

		ct := w.Header().Get("Content-Type")
		if ct != "application/json" {
			t.Errorf("%s: expected Content-Type application/json, got %q", ep, ct)
		}
	}
}

func TestParseIntParam(t *testing.T) {
	tests := []struct {
		url  string
		key  string
		def  int
		want int
	}{
		{"/test", "limit", 100, 100},           // missing → default
		{"/test?limit=50", "limit", 100, 50},   // valid int
		{"/test?limit=abc", "limit", 100, 100}, // invalid → default
	}

	for _, tt := range tests {
		req := httptest.NewRequest("GET", tt.url, nil)
		got := parseIntParam(req, tt.key, tt.def)
		if got != tt.want {
			t.Errorf("parseIntParam(%q, %q, %d) = %d, want %d", tt.url, tt.key, tt.def, got, tt.want)
		}
	}
}

func TestParseTimeParam(t *testing.T) {
	// empty → nil
	req := httptest.NewRequest("GET", "/test", nil)
	if got := parseTimeParam(req, "from"); got != nil {
		t.Errorf("expected nil for empty param, got %v", got)
	}

	// bad format → nil
	req = httptest.NewRequest("GET", "/test?from=not-a-time", nil)
	if got := parseTimeParam(req, "from"); got != nil {
		t.Errorf("expected nil for bad format, got %v", got)
	}

	// valid RFC3339
	ts := "2026-01-15T10:30:00Z"
	req = httptest.NewRequest("GET", "/test?from="+ts, nil)
	got := parseTimeParam(req, "from")
	if got == nil {
		t.Fatal("expected non-nil time")
	}
	expected, _ := time.Parse(time.RFC3339, ts)
	if !got.Equal(expected) {
		t.Errorf("expected %v, got %v", expected, *got)
	}
}
