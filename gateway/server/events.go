package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mealsnap/mealsnap/nutrition"
)

// MealEvent is pushed to every connected feed client when a meal lands.
type MealEvent struct {
	Type string         `json:"type"`
	Path string         `json:"path,omitempty"`
	Meal nutrition.Meal `json:"meal"`
}

const eventWriteWait = 5 * time.Second

// subscriber serializes writes to one connection; the websocket allows at
// most one concurrent writer.
type subscriber struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (sub *subscriber) send(ev MealEvent) error {
	sub.mu.Lock()
	defer sub.mu.Unlock()
	sub.conn.SetWriteDeadline(time.Now().Add(eventWriteWait))
	return sub.conn.WriteJSON(ev)
}

// EventHub fans saved-meal events out to websocket subscribers.
type EventHub struct {
	mu       sync.Mutex
	subs     map[*subscriber]struct{}
	upgrader websocket.Upgrader
}

func NewEventHub() *EventHub {
	return &EventHub{
		subs: make(map[*subscriber]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

func (h *EventHub) Handle(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	sub := &subscriber{conn: conn}
	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()

	// drain the connection until the peer goes away
	go func() {
		defer h.drop(sub)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (h *EventHub) drop(sub *subscriber) {
	h.mu.Lock()
	delete(h.subs, sub)
	h.mu.Unlock()
	sub.conn.Close()
}

func (h *EventHub) subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Broadcast sends an event to every subscriber, dropping the ones that
// fail to take it before the write deadline.
func (h *EventHub) Broadcast(ev MealEvent) {
	h.mu.Lock()
	subs := make([]*subscriber, 0, len(h.subs))
	for sub := range h.subs {
		subs = append(subs, sub)
	}
	h.mu.Unlock()

	for _, sub := range subs {
		if err := sub.send(ev); err != nil {
			h.drop(sub)
		}
	}
}
