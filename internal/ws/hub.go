package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"

	"go-retail-ws/pkg/logger"
)

//go:generate mockgen -source=hub.go -destination=publisher_mock.go -package=ws Publisher

// Publisher fans domain events out to connected clients. Services publish
// only after their transaction commits.
type Publisher interface {
	Publish(event Event)
}

// Event types
const (
	EventStockChanged   = "stock_update"
	EventLowStock       = "low_stock"
	EventProductChanged = "product_changed"
	EventOrderCreated   = "order_created"
	EventOrderUpdated   = "order_updated"
	EventReturnChanged  = "return_changed"
	EventLedgerPosted   = "ledger_posted"
	EventAccountChanged = "account_changed"
)

type Event struct {
	Type      string    `json:"type"`
	Action    string    `json:"action,omitempty"`
	Message   string    `json:"message,omitempty"`
	Actor     string    `json:"actor,omitempty"`
	Payload   any       `json:"data,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type Hub struct {
	Clients    map[*websocket.Conn]bool
	Register   chan *websocket.Conn
	Unregister chan *websocket.Conn
	Broadcast  chan []byte
	mutex      sync.Mutex
	log        *logger.Logger
}

func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		Clients:    make(map[*websocket.Conn]bool),
		Register:   make(chan *websocket.Conn),
		Unregister: make(chan *websocket.Conn),
		Broadcast:  make(chan []byte, 256),
		log:        log,
	}
}

// Publish encodes the event and queues it for broadcast. A full queue drops
// the event instead of blocking the caller.
func (h *Hub) Publish(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	msg, err := json.Marshal(event)
	if err != nil {
		h.log.Error(context.Background(), "ws: encode event", err)
		return
	}
	select {
	case h.Broadcast <- msg:
	default:
		h.log.Warn(context.Background(), "ws: broadcast queue full, dropping "+event.Type)
	}
}

func (h *Hub) ClientCount() int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.Clients)
}

func (h *Hub) Run() {
	for {
		select {
		case conn := <-h.Register:
			h.mutex.Lock()
			h.Clients[conn] = true
			h.mutex.Unlock()
			h.log.Debug(context.Background(), "ws: client connected")

		case conn := <-h.Unregister:
			h.mutex.Lock()
			if _, ok := h.Clients[conn]; ok {
				delete(h.Clients, conn)
				conn.Close()
			}
			h.mutex.Unlock()

		case message := <-h.Broadcast:
			h.mutex.Lock()
			for conn := range h.Clients {
				if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
					conn.Close()
					delete(h.Clients, conn)
				}
			}
			h.mutex.Unlock()
		}
	}
}
