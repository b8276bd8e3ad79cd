package feed

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"strings"
)

// EventType identifies a feed event on the wire.
type EventType byte

const (
	// EventTrade reports one execution from the shared trade tape.
	EventTrade EventType = 'T'
	// EventDirectory describes a tradable instrument. Sent to a client
	// when it subscribes.
	EventDirectory EventType = 'D'
)

// Event is a single feed message. Trade events carry Quantity, Price
// and TradeSeq; directory events carry Sector and BasePrice.
type Event struct {
	Type       EventType
	Instrument int
	Ticker     string
	Timestamp  int64 // unix nanos

	// trade fields
	TradeSeq uint64
	Quantity int64
	Price    float64

	// directory fields
	Sector    string
	BasePrice float64
}

// EncodeJSON encodes an event into JSON bytes.
func EncodeJSON(e *Event) ([]byte, error) {
	obj := eventToMap(e)
	if obj == nil {
		return nil, fmt.Errorf("unsupported event type: %c", e.Type)
	}
	return json.Marshal(obj)
}

func eventToMap(e *Event) map[string]any {
	switch e.Type {
	case EventTrade:
		return map[string]any{
			"type":       "trade",
			"timestamp":  e.Timestamp,
			"instrument": e.Instrument,
			"ticker":     e.Ticker,
			"seq":        e.TradeSeq,
			"quantity":   e.Quantity,
			"price":      formatPrice(e.Price),
		}

	case EventDirectory:
		return map[string]any{
			"type":       "directory",
			"timestamp":  e.Timestamp,
			"instrument": e.Instrument,
			"ticker":     e.Ticker,
			"sector":     e.Sector,
			"basePrice":  formatPrice(e.BasePrice),
		}
	}
	return nil
}

func formatPrice(price float64) string {
	return fmt.Sprintf("%.4f", price)
}

// Binary framing: each event is prefixed with a 2-byte big-endian body
// length. Prices travel as uint32 fixed-point with 4 decimal places,
// tickers as 8-byte space-padded ASCII.

// EncodeBinary encodes an event into binary format including the
// 2-byte length prefix. Returns nil for unsupported types.
func EncodeBinary(e *Event) []byte {
	var body []byte

	switch e.Type {
	case EventTrade:
		body = encodeTradeBinary(e)
	case EventDirectory:
		body = encodeDirectoryBinary(e)
	default:
		return nil
	}

	frame := make([]byte, 2+len(body))
	binary.BigEndian.PutUint16(frame[0:2], uint16(len(body)))
	copy(frame[2:], body)
	return frame
}

// Trade (39 bytes)
// Type(1) + Instrument(2) + Timestamp(8) + Seq(8) + Ticker(8) +
// Quantity(8) + Price(4)
func encodeTradeBinary(e *Event) []byte {
	buf := make([]byte, 39)
	buf[0] = byte(e.Type)
	binary.BigEndian.PutUint16(buf[1:3], uint16(e.Instrument))
	binary.BigEndian.PutUint64(buf[3:11], uint64(e.Timestamp))
	binary.BigEndian.PutUint64(buf[11:19], e.TradeSeq)
	ticker := PadTicker(e.Ticker)
	copy(buf[19:27], ticker[:])
	binary.BigEndian.PutUint64(buf[27:35], uint64(e.Quantity))
	binary.BigEndian.PutUint32(buf[35:39], priceToFixed(e.Price))
	return buf
}

// Directory (33 bytes)
// Type(1) + Instrument(2) + Timestamp(8) + Ticker(8) + Sector(10) +
// BasePrice(4)
func encodeDirectoryBinary(e *Event) []byte {
	buf := make([]byte, 33)
	buf[0] = byte(e.Type)
	binary.BigEndian.PutUint16(buf[1:3], uint16(e.Instrument))
	binary.BigEndian.PutUint64(buf[3:11], uint64(e.Timestamp))
	ticker := PadTicker(e.Ticker)
	copy(buf[11:19], ticker[:])
	sector := padSector(e.Sector)
	copy(buf[19:29], sector[:])
	binary.BigEndian.PutUint32(buf[29:33], priceToFixed(e.BasePrice))
	return buf
}

// PadTicker returns an 8-byte space-padded ticker field.
func PadTicker(ticker string) [8]byte {
	var out [8]byte
	copy(out[:], ticker)
	for i := len(ticker); i < 8; i++ {
		out[i] = ' '
	}
	return out
}

func padSector(sector string) [10]byte {
	var out [10]byte
	copy(out[:], sector)
	for i := len(sector); i < 10; i++ {
		out[i] = ' '
	}
	return out
}

// priceToFixed converts a price to uint32 fixed-point with 4 decimal
// places, matching the JSON formatting precision.
func priceToFixed(price float64) uint32 {
	return uint32(price*10000 + 0.5)
}

// FixedToPrice converts a fixed-point wire price back to a float64.
func FixedToPrice(fixed uint32) float64 {
	return float64(fixed) / 10000
}

// TrimTicker strips the space padding from a wire ticker field.
func TrimTicker(field [8]byte) string {
	return strings.TrimRight(string(field[:]), " ")
}
