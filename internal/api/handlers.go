package api

import (
	"context"
	"net/http"
	"time"

	"github.com/quotefeed/matchbook/internal/instrument"
	"github.com/quotefeed/matchbook/internal/persist"
)

type instrumentInfo struct {
	Instrument int     `json:"instrument"`
	Ticker     string  `json:"ticker"`
	Name       string  `json:"name"`
	Sector     string  `json:"sector"`
	Price      float64 `json:"price"`
	BestBid    float64 `json:"bestBid"`
	BestAsk    float64 `json:"bestAsk"`
	Spread     float64 `json:"spread"`
}

// handleInstruments returns all instruments with reference prices and
// top-of-book.
func (s *Server) handleInstruments(w http.ResponseWriter, r *http.Request) {
	out := make([]instrumentInfo, 0, len(s.universe))
	for i := range s.universe {
		out = append(out, s.instrumentInfo(&s.universe[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

// handleInstrumentDetail returns a single instrument with reference
// price and top-of-book.
func (s *Server) handleInstrumentDetail(w http.ResponseWriter, r *http.Request) {
	ticker := r.PathValue("ticker")
	ins := s.resolveTicker(w, ticker)
	if ins == nil {
		return
	}
	writeJSON(w, http.StatusOK, s.instrumentInfo(ins))
}

func (s *Server) instrumentInfo(ins *instrument.Instrument) instrumentInfo {
	info := instrumentInfo{
		Instrument: ins.ID,
		Ticker:     ins.Ticker,
		Name:       ins.Name,
		Sector:     string(ins.Sector),
		Price:      s.pricer.Price(ins.ID),
	}
	snap := s.engine.Depth(ins.ID)
	info.BestBid = snap.BestBid
	info.BestAsk = snap.BestAsk
	info.Spread = snap.Spread
	return info
}

type depthResponse struct {
	Ticker       string  `json:"ticker"`
	BestBid      float64 `json:"bestBid"`
	BestAsk      float64 `json:"bestAsk"`
	Spread       float64 `json:"spread"`
	BuyOrders    int     `json:"buyOrders"`
	SellOrders   int     `json:"sellOrders"`
	BuyQuantity  int64   `json:"buyQuantity"`
	SellQuantity int64   `json:"sellQuantity"`
}

// handleBookDepth returns the resting book summary for an instrument.
func (s *Server) handleBookDepth(w http.ResponseWriter, r *http.Request) {
	ticker := r.PathValue("ticker")
	ins := s.resolveTicker(w, ticker)
	if ins == nil {
		return
	}

	snap := s.engine.Depth(ins.ID)
	writeJSON(w, http.StatusOK, depthResponse{
		Ticker:       ins.Ticker,
		BestBid:      snap.BestBid,
		BestAsk:      snap.BestAsk,
		Spread:       snap.Spread,
		BuyOrders:    snap.BuyOrders,
		SellOrders:   snap.SellOrders,
		BuyQuantity:  snap.BuyQuantity,
		SellQuantity: snap.SellQuantity,
	})
}

// handleTrades returns paginated trades for an instrument. Served from
// the database when available, otherwise from the in-memory tape.
func (s *Server) handleTrades(w http.ResponseWriter, r *http.Request) {
	ticker := r.PathValue("ticker")
	ins := s.resolveTicker(w, ticker)
	if ins == nil {
		return
	}

	if s.reader == nil {
		writeJSON(w, http.StatusOK, s.tapeTrades(ins, parseIntParam(r, "limit", 100)))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	trades, err := s.reader.QueryTrades(ctx, persist.TradeFilter{
		Instrument: ins.ID,
		Limit:      parseIntParam(r, "limit", 100),
		Offset:     parseIntParam(r, "offset", 0),
		From:       parseTimeParam(r, "from"),
		To:         parseTimeParam(r, "to"),
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, trades)
}

// tapeTrades serves the newest trades for an instrument straight from
// the engine's trade log.
func (s *Server) tapeTrades(ins *instrument.Instrument, limit int) []persist.Trade {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}

	all := s.engine.TradesSince(0)
	out := []persist.Trade{}
	for i := len(all) - 1; i >= 0 && len(out) < limit; i-- {
		if all[i].Instrument != ins.ID {
			continue
		}
		out = append(out, persist.Trade{
			Seq:        int64(all[i].Seq),
			Ticker:     ins.Ticker,
			Price:      all[i].Price,
			Quantity:   all[i].Quantity,
			ExecutedAt: all[i].ExecutedAt,
		})
	}
	return out
}

// handleCandles returns OHLCV bars for an instrument.
func (s *Server) handleCandles(w http.ResponseWriter, r *http.Request) {
	ticker := r.PathValue("ticker")
	ins := s.resolveTicker(w, ticker)
	if ins == nil {
		return
	}

	if s.reader == nil {
		writeError(w, http.StatusServiceUnavailable, "candles require the trade database")
		return
	}

	interval := r.URL.Query().Get("interval")
	if interval == "" {
		interval = "1m"
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	candles, err := s.reader.QueryCandles(ctx, persist.CandleFilter{
		Instrument: ins.ID,
		Interval:   interval,
		Limit:      parseIntParam(r, "limit", 100),
		From:       parseTimeParam(r, "from"),
		To:         parseTimeParam(r, "to"),
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, candles)
}

type statsResponse struct {
	Uptime      string `json:"uptime"`
	Clients     int    `json:"clients"`
	Instruments int    `json:"instruments"`
	BuyOrders   int    `json:"buyOrders"`
	SellOrders  int    `json:"sellOrders"`
	TotalTrades int64  `json:"totalTrades"`
	TotalVolume int64  `json:"totalVolume"`
}

// handleStats returns runtime and aggregate statistics. Trade totals
// come from the engine's own tape; the database is only consulted when
// present and holding more history than memory (after retention runs
// the larger of the two wins).
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	es := s.engine.Stats()

	resp := statsResponse{
		Uptime:      time.Since(s.startAt).Truncate(time.Second).String(),
		Clients:     s.mgr.ClientCount(),
		Instruments: len(s.universe),
		BuyOrders:   es.BuyOrders,
		SellOrders:  es.SellOrders,
		TotalTrades: int64(es.Trades),
		TotalVolume: es.Volume,
	}

	if s.reader != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		if ts, err := s.reader.QueryTradeStats(ctx); err == nil {
			if ts.TotalTrades > resp.TotalTrades {
				resp.TotalTrades = ts.TotalTrades
				resp.TotalVolume = ts.TotalVolume
			}
		}
	}

	writeJSON(w, http.StatusOK, resp)
}
