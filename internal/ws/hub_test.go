package ws

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	diag "github.com/iimcz/caas-a01/internal/diagnostics"
	"github.com/iimcz/caas-a01/internal/layout"
	"github.com/iimcz/caas-a01/internal/ring"
	"github.com/iimcz/caas-a01/internal/stage"
)

func newServer(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	m := stage.New(stage.DefaultTunables(), stage.DefaultPalette())
	h := NewHub(m, layout.Default(), 30)
	h.Output = "debug"
	srv := httptest.NewServer(h.Handler())
	t.Cleanup(func() {
		h.Close()
		srv.Close()
	})
	return h, srv
}

func dial(t *testing.T, srv *httptest.Server, path string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + path
	c, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func readJSON(t *testing.T, c *websocket.Conn, v any) {
	t.Helper()
	require.NoError(t, c.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, b, err := c.ReadMessage()
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(b, v))
}

func TestFrameFeed(t *testing.T) {
	h, srv := newServer(t)
	c := dial(t, srv, "/ws")

	var top topology
	readJSON(t, c, &top)
	assert.Equal(t, "topology", top.Type)
	assert.Equal(t, 76, top.Inner)
	assert.Equal(t, 78, top.Outer)
	assert.Len(t, top.Segments, 4)

	rs := layout.Default().NewRings()
	rs.Outer.Set(1, ring.Color{R: 1, G: 2, B: 3, W: 4})
	require.NoError(t, h.Write(rs))

	var f frame
	readJSON(t, c, &f)
	assert.Equal(t, uint64(1), f.FrameID)
	assert.Equal(t, "dark", f.Stage)
	assert.Len(t, f.Inner, 76*4)
	assert.Equal(t, []byte{0, 0, 0, 0, 1, 2, 3, 4}, f.Outer[:8])
}

func TestDiagFeed(t *testing.T) {
	h, srv := newServer(t)
	c := dial(t, srv, "/diag")

	var d diag.Diagnostic
	readJSON(t, c, &d)
	assert.Equal(t, diag.MonitorConnected, d.Code)

	var sink diag.Sink = h.PushDiag
	sink.Push(diag.Diagnostic{Severity: diag.Warn, Code: diag.OutputWrite, Summary: "Frame write failed"})
	readJSON(t, c, &d)
	assert.Equal(t, diag.OutputWrite, d.Code)
	assert.Equal(t, diag.Warn, d.Severity)
}

func TestControlSocket(t *testing.T) {
	h, srv := newServer(t)
	c := dial(t, srv, "/control")

	require.NoError(t, c.WriteMessage(websocket.TextMessage, []byte("AdvanceStagePulsing 2")))
	var rep controlReply
	readJSON(t, c, &rep)
	assert.True(t, rep.Applied)
	assert.Empty(t, rep.Error)
	assert.True(t, h.Machine.Pulsing())

	require.NoError(t, c.WriteMessage(websocket.TextMessage, []byte("Launch")))
	rep = controlReply{}
	readJSON(t, c, &rep)
	assert.False(t, rep.Applied)
	assert.NotEmpty(t, rep.Error)
}

func TestHealth(t *testing.T) {
	h, srv := newServer(t)
	h.Dropped = func() uint64 { return 7 }
	require.NoError(t, h.Write(layout.Default().NewRings()))

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, 1.0, body["frame_id"])
	assert.Equal(t, 76.0, body["inner"])
	assert.Equal(t, "dark", body["stage"])
	assert.Equal(t, false, body["pulsing"])
	assert.Equal(t, 7.0, body["dropped"])
	assert.Equal(t, "debug", body["output"])
}
