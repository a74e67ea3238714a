// Package stream publishes simulation snapshots over HTTP and websockets.
package stream

import (
	"encoding/json"
	"log"
	"math"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"tsunami/internal/shallow"
)

// clientBuffer is how many frames may queue for a slow client before frames
// are dropped for it.
const clientBuffer = 8

// Frame is the JSON form of a snapshot.
type Frame struct {
	RunID  string    `json:"run_id"`
	Step   int       `json:"step"`
	Time   float64   `json:"time"`
	Nx     int       `json:"nx"`
	Ny     int       `json:"ny"`
	Dx     float64   `json:"dx"`
	Dy     float64   `json:"dy"`
	Finite bool      `json:"finite"`
	MaxAbs float64   `json:"max_abs"`
	Eta    []float64 `json:"eta,omitempty"`
}

// NewFrame converts s. JSON has no NaN, so a diverged state is sent without
// its elevation array and with Finite=false.
func NewFrame(runID string, s shallow.Snapshot) Frame {
	nx, ny := s.Grid.Size()
	dx, dy := s.Grid.Spacing()
	f := Frame{RunID: runID, Step: s.Step, Time: s.Time, Nx: nx, Ny: ny, Dx: dx, Dy: dy}
	peak := s.MaxAbs()
	if math.IsNaN(peak) || math.IsInf(peak, 0) {
		return f
	}
	f.Finite = true
	f.MaxAbs = peak
	f.Eta = s.Eta
	return f
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans encoded frames out to websocket clients and remembers the latest
// one for plain HTTP polling.
type Hub struct {
	runID string
	// Every publishes only steps divisible by Every; 0 or 1 publishes all.
	Every int

	mu      sync.Mutex
	clients map[*client]struct{}
	latest  []byte

	upgrader websocket.Upgrader
}

// NewHub returns an empty hub tagged with runID.
func NewHub(runID string) *Hub {
	return &Hub{
		runID:   runID,
		clients: make(map[*client]struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// RunID returns the id frames are tagged with.
func (h *Hub) RunID() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.runID
}

// SetRunID tags subsequent frames with runID and forgets the latest frame,
// which belonged to the previous run.
func (h *Hub) SetRunID(runID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.runID = runID
	h.latest = nil
}

// Publish encodes s and queues it for every client. It never blocks on a
// slow client; that client just misses the frame.
func (h *Hub) Publish(s shallow.Snapshot) error {
	if h.Every > 1 && s.Step%h.Every != 0 {
		return nil
	}
	msg, err := json.Marshal(NewFrame(h.RunID(), s))
	if err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.latest = msg
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
		}
	}
	return nil
}

// Latest returns the most recently published frame, or nil.
func (h *Hub) Latest() []byte {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.latest
}

// Clients returns the number of connected websocket clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) register(conn *websocket.Conn) *client {
	c := &client{conn: conn, send: make(chan []byte, clientBuffer)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	if h.latest != nil {
		c.send <- h.latest
	}
	h.mu.Unlock()
	return c
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

// serveWS upgrades the request and streams frames until the client goes away.
func (h *Hub) serveWS(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Println("WebSocket upgrade error:", err)
		return
	}
	cl := h.register(conn)
	go func() {
		for msg := range cl.send {
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				break
			}
		}
		conn.Close()
	}()
	// Reads only detect the close; clients have nothing to say.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	h.unregister(cl)
}
