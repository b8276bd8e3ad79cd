package feed

import (
	"log"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/quotefeed/matchbook/internal/instrument"
)

// Manager handles client registration, subscriptions, and event fan-out.
type Manager struct {
	mu         sync.RWMutex
	clients    map[uint64]*Client
	universe   []instrument.Instrument
	byTicker   map[string]int // ticker -> instrument id
	bufferSize int
}

// NewManager creates a feed manager over an instrument universe.
func NewManager(universe []instrument.Instrument, bufferSize int) *Manager {
	byTicker := make(map[string]int, len(universe))
	for _, ins := range universe {
		byTicker[ins.Ticker] = ins.ID
	}
	return &Manager{
		clients:    make(map[uint64]*Client),
		universe:   universe,
		byTicker:   byTicker,
		bufferSize: bufferSize,
	}
}

// Register adds a new client. Returns the client for further use.
func (m *Manager) Register(conn *websocket.Conn) *Client {
	c := NewClient(conn, m.bufferSize)

	m.mu.Lock()
	m.clients[c.ID] = c
	m.mu.Unlock()

	log.Printf("client %d connected (%s)", c.ID, conn.RemoteAddr())
	return c
}

// Unregister removes a client.
func (m *Manager) Unregister(c *Client) {
	m.mu.Lock()
	delete(m.clients, c.ID)
	m.mu.Unlock()

	c.Close()
	log.Printf("client %d disconnected", c.ID)
}

// ResolveTickers converts ticker strings to instrument ids.
// Returns all=true for "*" (every instrument).
func (m *Manager) ResolveTickers(tickers []string) (ids []int, all bool) {
	for _, t := range tickers {
		if t == "*" {
			return nil, true
		}
		if id, ok := m.byTicker[t]; ok {
			ids = append(ids, id)
		}
	}
	return ids, false
}

// Broadcast fans a batch of events out to all subscribed clients.
// Events are encoded once per format; a client's subscription filters
// them per event.
func (m *Manager) Broadcast(events []Event) {
	if len(events) == 0 {
		return
	}

	// Pre-encode for each format (lazy, only if needed). Encoded
	// frames stay index-aligned with events so subscription checks
	// can filter by events[i].Instrument.
	var jsonEncoded [][]byte
	var binaryEncoded [][]byte
	var jsonOnce, binaryOnce sync.Once

	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, c := range m.clients {
		var frames [][]byte
		switch c.Format() {
		case FormatJSON:
			jsonOnce.Do(func() {
				jsonEncoded = encodeAllJSON(events)
			})
			frames = jsonEncoded
		case FormatBinary:
			binaryOnce.Do(func() {
				binaryEncoded = encodeAllBinary(events)
			})
			frames = binaryEncoded
		}

		for i := range events {
			if frames[i] == nil || !c.IsSubscribed(events[i].Instrument) {
				continue
			}
			if !c.Send(frames[i]) {
				// buffer full, event dropped
			}
		}
	}
}

// SendToClient sends events directly to one client (e.g. the
// instrument directory on subscribe).
func (m *Manager) SendToClient(c *Client, events []Event) {
	var frames [][]byte
	switch c.Format() {
	case FormatJSON:
		frames = encodeAllJSON(events)
	case FormatBinary:
		frames = encodeAllBinary(events)
	}
	for _, data := range frames {
		if data != nil {
			c.Send(data)
		}
	}
}

// ClientCount returns the number of connected clients.
func (m *Manager) ClientCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.clients)
}

// Universe returns the instrument list.
func (m *Manager) Universe() []instrument.Instrument {
	return m.universe
}

func encodeAllJSON(events []Event) [][]byte {
	out := make([][]byte, len(events))
	for i := range events {
		data, err := EncodeJSON(&events[i])
		if err != nil {
			continue
		}
		out[i] = data
	}
	return out
}

func encodeAllBinary(events []Event) [][]byte {
	out := make([][]byte, len(events))
	for i := range events {
		out[i] = EncodeBinary(&events[i])
	}
	return out
}
