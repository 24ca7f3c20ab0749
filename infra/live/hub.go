// Package live streams dispatch events to websocket clients.
package live

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/kilianp07/ridepool/core/events"
	coremqtt "github.com/kilianp07/ridepool/core/mqtt"
	"github.com/kilianp07/ridepool/infra/logger"
	"github.com/kilianp07/ridepool/internal/eventbus"
)

// Config selects the listen address of the live feed. Empty disables it.
type Config struct {
	Addr string `json:"addr"`
}

// Frame is one message sent to clients.
type Frame struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Frame types.
const (
	FrameCycle       = "cycle"
	FrameCycleFailed = "cycle_failed"
	FrameRoute       = "route"
	FrameRejection   = "rejection"
)

const (
	clientBuffer = 32
	writeTimeout = 5 * time.Second
	pongWait     = 60 * time.Second
)

var upgrader = websocket.Upgrader{CheckOrigin: func(_ *http.Request) bool { return true }}

type client struct {
	conn *websocket.Conn
	send chan Frame
}

// Hub fans frames out to connected clients. A client whose buffer is full
// is disconnected.
type Hub struct {
	mu      sync.Mutex
	clients map[*client]struct{}
	log     logger.Logger
}

// NewHub creates an empty hub.
func NewHub(log logger.Logger) *Hub {
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Hub{clients: make(map[*client]struct{}), log: log}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// ServeHTTP upgrades the request and streams frames until the client leaves.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	c := &client{conn: conn, send: make(chan Frame, clientBuffer)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	go h.writeLoop(c)

	// Read until the peer closes; inbound messages are ignored.
	conn.SetReadLimit(1 << 10)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error { return conn.SetReadDeadline(time.Now().Add(pongWait)) })
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	}
	h.remove(c)
}

func (h *Hub) writeLoop(c *client) {
	defer func() { _ = c.conn.Close() }()
	for f := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.conn.WriteJSON(f); err != nil {
			h.remove(c)
			return
		}
	}
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeTimeout))
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

// Broadcast queues f for every client without blocking.
func (h *Hub) Broadcast(f Frame) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- f:
		default:
			h.log.Warnf("live client too slow, disconnecting")
			delete(h.clients, c)
			close(c.send)
		}
	}
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}

// FrameFor converts a bus event into a frame. It returns false for events
// that are not streamed.
func FrameFor(ev eventbus.Event) (Frame, bool) {
	switch e := ev.(type) {
	case events.CycleEvent:
		return Frame{Type: FrameCycle, Data: map[string]any{
			"cycle_id":    e.CycleID,
			"time":        e.Time,
			"vehicles":    e.Vehicles,
			"requests":    e.Requests,
			"served":      e.Served,
			"rejected":    e.Rejected,
			"trips":       e.Trips,
			"duration_ms": e.Duration.Milliseconds(),
		}}, true
	case events.CycleFailedEvent:
		msg := ""
		if e.Err != nil {
			msg = e.Err.Error()
		}
		return Frame{Type: FrameCycleFailed, Data: map[string]any{
			"cycle_id": e.CycleID,
			"time":     e.Time,
			"phase":    e.Phase,
			"error":    msg,
		}}, true
	case events.RouteEvent:
		return Frame{Type: FrameRoute, Data: coremqtt.NewRouteMessage(e.CycleID, e.VehicleID, e.Route, time.Now())}, true
	case events.RejectionEvent:
		return Frame{Type: FrameRejection, Data: map[string]any{
			"cycle_id":   e.CycleID,
			"request_id": e.RequestID,
			"reason":     e.Reason,
		}}, true
	}
	return Frame{}, false
}

// Start broadcasts bus events until ctx is canceled or the bus closes. The
// returned channel is closed once it has stopped.
func (h *Hub) Start(ctx context.Context, bus eventbus.EventBus) <-chan struct{} {
	done := make(chan struct{})
	if bus == nil {
		close(done)
		return done
	}
	sub := bus.Subscribe()
	go func() {
		defer close(done)
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				if f, ok := FrameFor(ev); ok {
					h.Broadcast(f)
				}
			}
		}
	}()
	return done
}

// Serve exposes the hub on addr under /live until ctx is canceled.
func Serve(ctx context.Context, addr string, h *Hub) error {
	mux := http.NewServeMux()
	mux.Handle("/live", h)
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		h.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := srv.Shutdown(shutdownCtx); err != nil {
			h.log.Errorf("live server shutdown: %v", err)
		}
		cancel()
	}()
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
