// Package ws is the live monitor: a websocket frame feed, a diagnostics feed,
// a command socket and a health endpoint. Hub doubles as an output driver so
// it sees every frame the engine writes.
package ws

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/iimcz/caas-a01/internal/control"
	diag "github.com/iimcz/caas-a01/internal/diagnostics"
	"github.com/iimcz/caas-a01/internal/layout"
	"github.com/iimcz/caas-a01/internal/ring"
	"github.com/iimcz/caas-a01/internal/stage"
)

const writeWait = 200 * time.Millisecond

type Hub struct {
	mu      sync.RWMutex
	Machine *stage.Machine
	Layout  layout.Layout
	FPS     int
	Output  string

	// Dropped reports transport drops for /health when set.
	Dropped func() uint64

	inner, outer []byte
	frameID      uint64
	startTime    time.Time
	clients      map[*websocket.Conn]bool
	diagClients  map[*websocket.Conn]bool

	// gorilla allows one concurrent writer per connection
	wmu sync.Mutex
}

func NewHub(m *stage.Machine, l layout.Layout, fps int) *Hub {
	return &Hub{
		Machine:     m,
		Layout:      l,
		FPS:         fps,
		startTime:   time.Now(),
		clients:     map[*websocket.Conn]bool{},
		diagClients: map[*websocket.Conn]bool{},
	}
}

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

// Handler routes /ws, /diag, /control and /health.
func (h *Hub) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", h.HandleFramesWS)
	mux.HandleFunc("/diag", h.HandleDiagWS)
	mux.HandleFunc("/control", h.HandleControlWS)
	mux.HandleFunc("/health", h.HandleHealth)
	return mux
}

type topology struct {
	Type     string           `json:"type"`
	Inner    int              `json:"inner"`
	Outer    int              `json:"outer"`
	Segments []layout.Segment `json:"segments"`
	Output   string           `json:"output"`
}

type frame struct {
	Type    string `json:"type"`
	T       int64  `json:"t"`
	FrameID uint64 `json:"frame_id"`
	Stage   string `json:"stage"`
	Inner   []byte `json:"inner"`
	Outer   []byte `json:"outer"`
}

func (h *Hub) HandleFramesWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()
	h.sendTopology(conn)
	go h.drain(conn, h.clients)
}

func (h *Hub) HandleDiagWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	h.mu.Lock()
	h.diagClients[conn] = true
	h.mu.Unlock()
	h.send(conn, diag.Diagnostic{Severity: diag.Info, Code: diag.MonitorConnected, Summary: "Diagnostics feed connected"})
	go h.drain(conn, h.diagClients)
}

// drain discards client messages until the connection drops.
func (h *Hub) drain(conn *websocket.Conn, set map[*websocket.Conn]bool) {
	defer func() {
		h.mu.Lock()
		delete(set, conn)
		h.mu.Unlock()
		conn.Close()
	}()
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

type controlReply struct {
	Command string `json:"command,omitempty"`
	Applied bool   `json:"applied"`
	Error   string `json:"error,omitempty"`
}

// HandleControlWS accepts control protocol lines as text messages and answers
// each with a controlReply.
func (h *Hub) HandleControlWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var rep controlReply
		cmd, err := control.Parse(string(data))
		if err != nil {
			rep.Error = err.Error()
		} else {
			rep.Command = cmd.String()
			rep.Applied = control.Apply(h.Machine, cmd)
			log.Info().Stringer("command", cmd).Bool("applied", rep.Applied).Msg("monitor control")
		}
		b, _ := json.Marshal(rep)
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
			return
		}
	}
}

func (h *Hub) HandleHealth(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	resp := map[string]any{
		"frame_id": h.frameID,
		"uptime_s": time.Since(h.startTime).Seconds(),
		"inner":    len(h.inner) / 4,
		"outer":    len(h.outer) / 4,
		"fps":      h.FPS,
		"output":   h.Output,
	}
	h.mu.RUnlock()
	if h.Machine != nil {
		resp["stage"] = h.Machine.Stage().String()
		resp["pulsing"] = h.Machine.Pulsing()
	}
	if h.Dropped != nil {
		resp["dropped"] = h.Dropped()
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// Write snapshots the canvas as RGBW bytes and broadcasts it.
func (h *Hub) Write(rs *ring.Rings) error {
	h.mu.Lock()
	h.inner = pack(h.inner, rs.Inner)
	h.outer = pack(h.outer, rs.Outer)
	h.frameID++
	f := frame{Type: "frame", T: time.Now().UnixNano(), FrameID: h.frameID, Inner: h.inner, Outer: h.outer}
	if h.Machine != nil {
		f.Stage = h.Machine.Stage().String()
	}
	b, _ := json.Marshal(f)
	conns := keys(h.clients)
	h.mu.Unlock()

	h.broadcast(conns, b)
	return nil
}

func pack(dst []byte, r *ring.Ring) []byte {
	dst = dst[:0]
	for _, p := range r.Pixels() {
		dst = append(dst, p.R, p.G, p.B, p.W)
	}
	return dst
}

// PushDiag sends d to every diagnostics client. It has the diag.Sink shape.
func (h *Hub) PushDiag(d diag.Diagnostic) {
	b, _ := json.Marshal(d)
	h.mu.RLock()
	conns := keys(h.diagClients)
	h.mu.RUnlock()
	h.broadcast(conns, b)
}

func (h *Hub) sendTopology(conn *websocket.Conn) {
	h.mu.RLock()
	top := topology{
		Type:     "topology",
		Inner:    h.Layout.Inner.Size(),
		Outer:    h.Layout.Outer.Size(),
		Segments: h.Layout.Segments(),
		Output:   h.Output,
	}
	h.mu.RUnlock()
	h.send(conn, top)
}

func (h *Hub) send(conn *websocket.Conn, v any) {
	b, _ := json.Marshal(v)
	h.broadcast([]*websocket.Conn{conn}, b)
}

func (h *Hub) broadcast(conns []*websocket.Conn, b []byte) {
	h.wmu.Lock()
	defer h.wmu.Unlock()
	for _, c := range conns {
		c.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.WriteMessage(websocket.TextMessage, b); err != nil {
			log.Debug().Err(err).Msg("monitor write")
		}
	}
}

// Close disconnects every client.
func (h *Hub) Close() error {
	h.mu.Lock()
	conns := append(keys(h.clients), keys(h.diagClients)...)
	h.mu.Unlock()
	for _, c := range conns {
		c.Close()
	}
	return nil
}

func keys(m map[*websocket.Conn]bool) []*websocket.Conn {
	out := make([]*websocket.Conn, 0, len(m))
	for c := range m {
		out = append(out, c)
	}
	return out
}
