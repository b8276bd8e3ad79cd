package book

import (
	"math"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// instrumentBook holds the resting orders for one instrument. The
// mutex guards both sides; it is never held while another instrument's
// mutex is held, and the trade log mutex is only ever acquired while
// an instrument mutex is held (fixed order, so no deadlock).
type instrumentBook struct {
	mu    sync.Mutex
	buys  []*Order // price descending, then seq ascending
	sells []*Order // price ascending, then seq ascending
}

// Book is a multi-instrument price-time priority matching engine.
// Instruments are identified by integer ids in [0, N). Submissions
// from concurrent goroutines to different instruments never block each
// other; submissions to the same instrument are serialized.
type Book struct {
	books []instrumentBook
	seq   atomic.Uint64

	logMu  sync.Mutex
	trades []Trade
	volume int64
}

// NewBook creates an empty matching engine for n instruments.
func NewBook(n int) *Book {
	return &Book{books: make([]instrumentBook, n)}
}

// NumInstruments returns the size of the instrument universe.
func (b *Book) NumInstruments() int {
	return len(b.books)
}

// Submit validates and places an order, then runs the matching step
// for its instrument. It returns a copy of the order, which may be
// partially or fully filled by the time it is returned. Validation
// failures leave the book untouched.
//
// Insertion and matching deliberately take the instrument mutex as two
// separate critical sections: another goroutine may insert into the
// same instrument between the two, and match recomputes the crossing
// condition from live state rather than assuming anything about who
// produced the current head.
func (b *Book) Submit(side Side, instrument int, quantity int64, price float64) (Order, error) {
	if instrument < 0 || instrument >= len(b.books) {
		return Order{}, ErrInvalidInstrument
	}
	if quantity <= 0 {
		return Order{}, ErrInvalidQuantity
	}
	if price <= 0 || math.IsNaN(price) {
		return Order{}, ErrInvalidPrice
	}

	o := &Order{
		Seq:        b.seq.Add(1),
		Instrument: instrument,
		Side:       side,
		Quantity:   quantity,
		Price:      price,
		Arrived:    time.Now(),
	}

	ib := &b.books[instrument]
	ib.mu.Lock()
	if side == SideBuy {
		ib.buys = insertOrder(ib.buys, o, buyBefore)
	} else {
		ib.sells = insertOrder(ib.sells, o, sellBefore)
	}
	ib.mu.Unlock()

	b.match(instrument)

	// The matching loop of this or any concurrent submission may still
	// mutate the order, so the caller gets a snapshot, not the pointer.
	ib.mu.Lock()
	snap := *o
	ib.mu.Unlock()
	return snap, nil
}

// match crosses the book for one instrument until the best buy no
// longer meets the best sell or either side is empty. Trades always
// execute at the resting sell order's price. Only called with a valid
// instrument id, from Submit.
func (b *Book) match(instrument int) {
	ib := &b.books[instrument]
	ib.mu.Lock()
	defer ib.mu.Unlock()

	for len(ib.buys) > 0 && len(ib.sells) > 0 && ib.buys[0].Price >= ib.sells[0].Price {
		buy, sell := ib.buys[0], ib.sells[0]

		qty := buy.Quantity
		if sell.Quantity < qty {
			qty = sell.Quantity
		}

		buy.Quantity -= qty
		sell.Quantity -= qty

		b.appendTrade(Trade{
			Instrument: instrument,
			Quantity:   qty,
			Price:      sell.Price,
			ExecutedAt: time.Now(),
		})

		if buy.Quantity == 0 {
			ib.buys = popHead(ib.buys)
		}
		if sell.Quantity == 0 {
			ib.sells = popHead(ib.sells)
		}
	}
}

// appendTrade adds one trade to the shared log under the log's own
// mutex. Matching for two different instruments may run concurrently
// but serializes here.
func (b *Book) appendTrade(t Trade) {
	b.logMu.Lock()
	t.Seq = uint64(len(b.trades)) + 1
	b.trades = append(b.trades, t)
	b.volume += t.Quantity
	b.logMu.Unlock()
}

// BuyCount returns the number of resting buy orders for an instrument.
func (b *Book) BuyCount(instrument int) int {
	if instrument < 0 || instrument >= len(b.books) {
		return 0
	}
	ib := &b.books[instrument]
	ib.mu.Lock()
	defer ib.mu.Unlock()
	return len(ib.buys)
}

// SellCount returns the number of resting sell orders for an instrument.
func (b *Book) SellCount(instrument int) int {
	if instrument < 0 || instrument >= len(b.books) {
		return 0
	}
	ib := &b.books[instrument]
	ib.mu.Lock()
	defer ib.mu.Unlock()
	return len(ib.sells)
}

// BuyOrders returns copies of the resting buy orders for an instrument
// in book order (best first).
func (b *Book) BuyOrders(instrument int) []Order {
	if instrument < 0 || instrument >= len(b.books) {
		return nil
	}
	ib := &b.books[instrument]
	ib.mu.Lock()
	defer ib.mu.Unlock()
	return copyOrders(ib.buys)
}

// SellOrders returns copies of the resting sell orders for an
// instrument in book order (best first).
func (b *Book) SellOrders(instrument int) []Order {
	if instrument < 0 || instrument >= len(b.books) {
		return nil
	}
	ib := &b.books[instrument]
	ib.mu.Lock()
	defer ib.mu.Unlock()
	return copyOrders(ib.sells)
}

// BestBid returns the best buy price for an instrument, or 0 if the
// buy side is empty.
func (b *Book) BestBid(instrument int) float64 {
	if instrument < 0 || instrument >= len(b.books) {
		return 0
	}
	ib := &b.books[instrument]
	ib.mu.Lock()
	defer ib.mu.Unlock()
	if len(ib.buys) == 0 {
		return 0
	}
	return ib.buys[0].Price
}

// BestAsk returns the best sell price for an instrument, or 0 if the
// sell side is empty.
func (b *Book) BestAsk(instrument int) float64 {
	if instrument < 0 || instrument >= len(b.books) {
		return 0
	}
	ib := &b.books[instrument]
	ib.mu.Lock()
	defer ib.mu.Unlock()
	if len(ib.sells) == 0 {
		return 0
	}
	return ib.sells[0].Price
}

// DepthSnapshot is a point-in-time summary of one instrument's book.
type DepthSnapshot struct {
	BestBid      float64
	BestAsk      float64
	Spread       float64
	BuyOrders    int
	SellOrders   int
	BuyQuantity  int64
	SellQuantity int64
}

// Depth returns a consistent snapshot of an instrument's resting state.
func (b *Book) Depth(instrument int) DepthSnapshot {
	if instrument < 0 || instrument >= len(b.books) {
		return DepthSnapshot{}
	}
	ib := &b.books[instrument]
	ib.mu.Lock()
	defer ib.mu.Unlock()

	snap := DepthSnapshot{
		BuyOrders:  len(ib.buys),
		SellOrders: len(ib.sells),
	}
	for _, o := range ib.buys {
		snap.BuyQuantity += o.Quantity
	}
	for _, o := range ib.sells {
		snap.SellQuantity += o.Quantity
	}
	if len(ib.buys) > 0 {
		snap.BestBid = ib.buys[0].Price
	}
	if len(ib.sells) > 0 {
		snap.BestAsk = ib.sells[0].Price
	}
	if snap.BestBid > 0 && snap.BestAsk > 0 {
		snap.Spread = snap.BestAsk - snap.BestBid
	}
	return snap
}

// TradeCount returns the number of trades in the shared log.
func (b *Book) TradeCount() int {
	b.logMu.Lock()
	defer b.logMu.Unlock()
	return len(b.trades)
}

// TradesSince returns copies of all trades after the given log
// position. Tape consumers poll with their last seen count as the
// cursor; TradesSince(0) returns the whole log.
func (b *Book) TradesSince(cursor int) []Trade {
	b.logMu.Lock()
	defer b.logMu.Unlock()
	if cursor < 0 {
		cursor = 0
	}
	if cursor >= len(b.trades) {
		return nil
	}
	out := make([]Trade, len(b.trades)-cursor)
	copy(out, b.trades[cursor:])
	return out
}

// Stats holds aggregate counts across all instruments.
type Stats struct {
	BuyOrders  int
	SellOrders int
	Trades     int
	Volume     int64
}

// Stats returns aggregate resting order counts and trade totals. Each
// instrument is snapshotted under its own mutex; the totals are not a
// single cross-instrument atomic view, which reporting does not need.
func (b *Book) Stats() Stats {
	var s Stats
	for i := range b.books {
		ib := &b.books[i]
		ib.mu.Lock()
		s.BuyOrders += len(ib.buys)
		s.SellOrders += len(ib.sells)
		ib.mu.Unlock()
	}
	b.logMu.Lock()
	s.Trades = len(b.trades)
	s.Volume = b.volume
	b.logMu.Unlock()
	return s
}

// --- helpers ---

// buyBefore reports whether a sorts before b on the buy side.
func buyBefore(a, b *Order) bool {
	if a.Price != b.Price {
		return a.Price > b.Price
	}
	return a.Seq < b.Seq
}

// sellBefore reports whether a sorts before b on the sell side.
func sellBefore(a, b *Order) bool {
	if a.Price != b.Price {
		return a.Price < b.Price
	}
	return a.Seq < b.Seq
}

// insertOrder places o at its sorted position. Equivalent to the
// append-then-stable-sort of the reference behavior, at O(log n)
// search plus one shift.
func insertOrder(orders []*Order, o *Order, before func(a, b *Order) bool) []*Order {
	i := sort.Search(len(orders), func(i int) bool {
		return before(o, orders[i])
	})
	orders = append(orders, nil)
	copy(orders[i+1:], orders[i:])
	orders[i] = o
	return orders
}

// popHead drops the first order, clearing the slot so the backing
// array does not pin the removed order.
func popHead(orders []*Order) []*Order {
	orders[0] = nil
	return orders[1:]
}

func copyOrders(orders []*Order) []Order {
	out := make([]Order, len(orders))
	for i, o := range orders {
		out[i] = *o
	}
	return out
}
