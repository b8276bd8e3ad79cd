package feed

import (
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"
)

// Format represents the client's preferred encoding format.
type Format int

const (
	FormatJSON   Format = 0
	FormatBinary Format = 1
)

// Client represents a connected WebSocket client.
type Client struct {
	ID   uint64
	Conn *websocket.Conn

	mu          sync.RWMutex
	format      Format
	instruments map[int]bool // instrument id -> subscribed
	allInstr    bool         // subscribed to every instrument

	sendCh     chan []byte
	done       chan struct{}
	closeOnce  sync.Once
	bufferSize int

	// stats
	Dropped uint64
}

var clientIDCounter uint64

// NewClient creates a new client wrapping a WebSocket connection.
func NewClient(conn *websocket.Conn, bufferSize int) *Client {
	return &Client{
		ID:          atomic.AddUint64(&clientIDCounter, 1),
		Conn:        conn,
		format:      FormatJSON,
		instruments: make(map[int]bool),
		sendCh:      make(chan []byte, bufferSize),
		done:        make(chan struct{}),
		bufferSize:  bufferSize,
	}
}

// Format returns the client's current encoding format.
func (c *Client) Format() Format {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.format
}

// SetFormat sets the client's encoding format.
func (c *Client) SetFormat(f Format) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.format = f
}

// Subscribe adds instruments to the client's subscription.
func (c *Client) Subscribe(ids []int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range ids {
		c.instruments[id] = true
	}
}

// SubscribeAll subscribes the client to every instrument.
func (c *Client) SubscribeAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.allInstr = true
}

// Unsubscribe removes instruments from the client's subscription.
func (c *Client) Unsubscribe(ids []int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range ids {
		delete(c.instruments, id)
	}
}

// IsSubscribed checks if the client is subscribed to an instrument.
func (c *Client) IsSubscribed(id int) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.allInstr {
		return true
	}
	return c.instruments[id]
}

// SubscribedIDs returns the subscribed instrument ids. A nil return
// with IsAllSubscribed true means "everything".
func (c *Client) SubscribedIDs() []int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.allInstr {
		return nil
	}
	out := make([]int, 0, len(c.instruments))
	for id := range c.instruments {
		out = append(out, id)
	}
	return out
}

// IsAllSubscribed returns true if the client is subscribed to every
// instrument.
func (c *Client) IsAllSubscribed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.allInstr
}

// Send enqueues data to be sent to the client.
// Returns false if the buffer is full (message dropped).
func (c *Client) Send(data []byte) bool {
	select {
	case c.sendCh <- data:
		return true
	default:
		atomic.AddUint64(&c.Dropped, 1)
		return false
	}
}

// SendCh returns the send channel for the write pump.
func (c *Client) SendCh() <-chan []byte {
	return c.sendCh
}

// Done returns a channel that is closed when the client is disconnected.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Close terminates the client connection.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.Conn.Close()
	})
}
