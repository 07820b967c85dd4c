package hmr

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

func dialHub(t *testing.T, hub *Hub) *websocket.Conn {
	t.Helper()
	server := httptest.NewServer(hub)
	t.Cleanup(server.Close)

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) ServerMessage {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg ServerMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestHub_SendsConnectedOnOpen(t *testing.T) {
	hub := NewHub(NewGraph())
	conn := dialHub(t, hub)

	msg := readMessage(t, conn)
	require.Equal(t, "connected", msg.Type)
}

func TestHub_HotAcceptFromClientMarksGraph(t *testing.T) {
	graph := NewGraph()
	hub := NewHub(graph)
	conn := dialHub(t, hub)
	readMessage(t, conn) // connected

	require.NoError(t, conn.WriteJSON(ClientMessage{Type: "hotAccept", Path: "/src/App.tsx"}))

	require.Eventually(t, func() bool {
		return graph.isSelfAccepting("/src/App.tsx")
	}, time.Second, 10*time.Millisecond)
}

func TestHub_NotifyChangeBroadcastsUpdate(t *testing.T) {
	graph := NewGraph()
	graph.MarkSelfAccepting("/src/App.tsx")
	hub := NewHub(graph)
	conn := dialHub(t, hub)
	readMessage(t, conn) // connected

	hub.NotifyChange("/src/App.tsx", 99)

	msg := readMessage(t, conn)
	require.Equal(t, "update", msg.Type)
	require.Len(t, msg.Updates, 1)
	require.Equal(t, "/src/App.tsx", msg.Updates[0].Module)
}

func TestHub_NotifyChangeWithNoBoundaryBroadcastsReload(t *testing.T) {
	graph := NewGraph()
	hub := NewHub(graph)
	conn := dialHub(t, hub)
	readMessage(t, conn) // connected

	hub.NotifyChange("/src/orphan.tsx", 1)

	msg := readMessage(t, conn)
	require.Equal(t, "reload", msg.Type)
}
