// Package sync fans recipe and membership events out to listeners connected
// over raw TCP (newline-delimited JSON) or WebSocket.
package sync

import (
	"bufio"
	"net"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"foodgram/internal/logging"
	"foodgram/internal/metrics"
)

const (
	writeTimeout = 2 * time.Second
	queueSize    = 256
)

// Hub delivers events in publish order: Publish enqueues and a single
// goroutine started by NewHub writes to clients.
type Hub struct {
	mu        sync.Mutex
	clients   map[net.Conn]struct{}
	wsClients map[*websocket.Conn]struct{}

	events   chan Event
	done     chan struct{}
	stopOnce sync.Once
}

type Stats struct {
	TCPClients int `json:"tcp_clients"`
	WSClients  int `json:"ws_clients"`
}

func NewHub() *Hub {
	h := &Hub{
		clients:   make(map[net.Conn]struct{}),
		wsClients: make(map[*websocket.Conn]struct{}),
		events:    make(chan Event, queueSize),
		done:      make(chan struct{}),
	}
	go h.loop()
	return h
}

func (h *Hub) loop() {
	for {
		select {
		case ev := <-h.events:
			h.BroadcastJSON(ev)
		case <-h.done:
			return
		}
	}
}

// Stop ends delivery. Events published afterwards are dropped.
func (h *Hub) Stop() {
	if h == nil {
		return
	}
	h.stopOnce.Do(func() { close(h.done) })
}

func (h *Hub) Add(conn net.Conn) {
	h.mu.Lock()
	h.clients[conn] = struct{}{}
	h.updateGauges()
	h.mu.Unlock()
}

func (h *Hub) Remove(conn net.Conn) {
	h.mu.Lock()
	delete(h.clients, conn)
	h.updateGauges()
	h.mu.Unlock()
	_ = conn.Close()
}

func (h *Hub) AddWS(ws *websocket.Conn) {
	h.mu.Lock()
	h.wsClients[ws] = struct{}{}
	h.updateGauges()
	h.mu.Unlock()
}

func (h *Hub) RemoveWS(ws *websocket.Conn) {
	h.mu.Lock()
	delete(h.wsClients, ws)
	h.updateGauges()
	h.mu.Unlock()
	_ = ws.Close()
}

// Publish queues ev for every listener without blocking. A nil hub drops the
// event, so handlers can run without a sync server. A full queue drops it too.
func (h *Hub) Publish(ev Event) {
	if h == nil {
		return
	}
	select {
	case <-h.done:
		return
	default:
	}
	select {
	case h.events <- ev:
	default:
		logging.Warn().Str("type", ev.Type).Msg("sync: queue full, event dropped")
	}
}

// BroadcastJSON writes v as one JSON line to every client, dropping clients
// whose write fails.
func (h *Hub) BroadcastJSON(v any) {
	b, err := json.Marshal(v)
	if err != nil {
		logging.Error().Err(err).Msg("sync: encode event")
		return
	}
	b = append(b, '\n')

	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		_ = c.SetWriteDeadline(time.Now().Add(writeTimeout))
		w := bufio.NewWriter(c)
		if _, err := w.Write(b); err != nil {
			_ = c.Close()
			delete(h.clients, c)
			continue
		}
		if err := w.Flush(); err != nil {
			_ = c.Close()
			delete(h.clients, c)
		}
	}

	for ws := range h.wsClients {
		_ = ws.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := ws.WriteMessage(websocket.TextMessage, b); err != nil {
			_ = ws.Close()
			delete(h.wsClients, ws)
		}
	}
	h.updateGauges()
}

func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) Stats() Stats {
	if h == nil {
		return Stats{}
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return Stats{
		TCPClients: len(h.clients),
		WSClients:  len(h.wsClients),
	}
}

type welcome struct {
	Type      string `json:"type"`
	Transport string `json:"transport"`
	Clients   int    `json:"clients"`
}

func (h *Hub) welcomeLine(transport string) []byte {
	b, _ := json.Marshal(welcome{Type: "welcome", Transport: transport, Clients: h.Count()})
	return append(b, '\n')
}

// closeAll disconnects every client; used on shutdown.
func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		_ = c.Close()
		delete(h.clients, c)
	}
	for ws := range h.wsClients {
		_ = ws.Close()
		delete(h.wsClients, ws)
	}
	h.updateGauges()
}

// caller holds h.mu
func (h *Hub) updateGauges() {
	metrics.SyncClients.WithLabelValues("tcp").Set(float64(len(h.clients)))
	metrics.SyncClients.WithLabelValues("ws").Set(float64(len(h.wsClients)))
}
