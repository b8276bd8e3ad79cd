package book

import (
	"errors"
	"time"
)

// Side represents the buy or sell side of an order.
type Side byte

const (
	SideBuy  Side = 'B'
	SideSell Side = 'S'
)

func (s Side) String() string {
	switch s {
	case SideBuy:
		return "buy"
	case SideSell:
		return "sell"
	default:
		return "unknown"
	}
}

// Submission validation errors.
var (
	ErrInvalidInstrument = errors.New("instrument id out of range")
	ErrInvalidQuantity   = errors.New("quantity must be positive")
	ErrInvalidPrice      = errors.New("price must be positive")
)

// Order is a resting limit order. Quantity is decremented by the
// matching loop; all other fields are fixed at submission. Seq is a
// strictly increasing arrival sequence number and is the tie-break
// within a price level — Arrived is informational only, since wall
// clock resolution can collide under concurrent submission.
type Order struct {
	Seq        uint64
	Instrument int
	Side       Side
	Quantity   int64
	Price      float64
	Arrived    time.Time
}

// Filled reports whether the order has been fully executed.
func (o *Order) Filled() bool {
	return o.Quantity == 0
}

// Trade is one execution between a buy and a sell order. Trades are
// immutable once appended to the log. Seq is the position of the trade
// in the shared log, starting at 1.
type Trade struct {
	Seq        uint64
	Instrument int
	Quantity   int64
	Price      float64
	ExecutedAt time.Time
}
