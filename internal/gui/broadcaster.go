package gui

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ndrandal/bond-backoffice/internal/catalog"
)

// Broadcaster fans throttled GUI ticks out to connected WebSocket
// dashboard clients, alongside (not instead of) the historical file
// sink. It uses the same client-registry/send-channel shape as a
// typical WebSocket session manager, narrowed to one fixed message
// type instead of a subscription protocol.
type Broadcaster[P catalog.Product] struct {
	mu      sync.RWMutex
	clients map[uint64]*wsClient

	upgrader websocket.Upgrader
}

type wsClient struct {
	id   uint64
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once
}

var broadcasterClientIDs uint64

// NewBroadcaster constructs an empty Broadcaster.
func NewBroadcaster[P catalog.Product]() *Broadcaster[P] {
	return &Broadcaster[P]{
		clients: make(map[uint64]*wsClient),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// tickWire is the JSON shape sent to dashboard clients.
type tickWire struct {
	CUSIP     string    `json:"cusip"`
	Mid       string    `json:"mid"`
	Spread    string    `json:"spread"`
	Timestamp time.Time `json:"ts"`
}

// Handler upgrades HTTP requests to WebSocket connections and registers
// each as a broadcast target.
func (b *Broadcaster[P]) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := b.upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("gui broadcaster: upgrade error: %v", err)
			return
		}
		c := &wsClient{
			id:   atomic.AddUint64(&broadcasterClientIDs, 1),
			conn: conn,
			send: make(chan []byte, 64),
			done: make(chan struct{}),
		}

		b.mu.Lock()
		b.clients[c.id] = c
		b.mu.Unlock()

		go b.writePump(c)
		go b.readPump(c)
	}
}

func (b *Broadcaster[P]) readPump(c *wsClient) {
	defer b.unregister(c)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (b *Broadcaster[P]) writePump(c *wsClient) {
	defer c.conn.Close()
	for {
		select {
		case data, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}

func (b *Broadcaster[P]) unregister(c *wsClient) {
	b.mu.Lock()
	delete(b.clients, c.id)
	b.mu.Unlock()
	c.once.Do(func() { close(c.done) })
}

// Publish implements fabric.Connector[Tick[P]]: it fans a throttled tick
// out to every connected dashboard client, dropping it for any client
// whose send buffer is full rather than blocking the single-threaded
// core graph.
func (b *Broadcaster[P]) Publish(t Tick[P]) error {
	data, err := json.Marshal(tickWire{
		CUSIP:     t.Product.ProductID(),
		Mid:       t.Mid.String(),
		Spread:    t.Spread.String(),
		Timestamp: t.Timestamp,
	})
	if err != nil {
		return err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, c := range b.clients {
		select {
		case c.send <- data:
		default:
		}
	}
	return nil
}

// ClientCount returns the number of connected dashboard clients.
func (b *Broadcaster[P]) ClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}
