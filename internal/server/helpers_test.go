package server

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

const testOrigin = "http://localhost:8080"

// newTestGateway starts a gateway behind an httptest server. Both are torn
// down when the test ends.
func newTestGateway(t *testing.T, mutate func(*Config)) (*Gateway, *httptest.Server) {
	t.Helper()

	cfg := NewConfig()
	if mutate != nil {
		mutate(cfg)
	}
	g := NewGateway(cfg, newLogger("test", io.Discard))
	ts := httptest.NewServer(g.SetupRoutes())

	t.Cleanup(func() {
		ts.Close()
		_ = g.Shutdown(2 * time.Second)
	})
	return g, ts
}

func wsURL(ts *httptest.Server, roomKey, clientID string) string {
	return "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/" + roomKey + "/" + clientID
}

// dialRoom opens a WebSocket to roomKey as clientID with an allowed origin.
func dialRoom(t *testing.T, ts *httptest.Server, roomKey, clientID string) *websocket.Conn {
	t.Helper()

	conn, err := connectWebSocket(wsURL(ts, roomKey, clientID), testOrigin)
	if err != nil {
		t.Fatalf("dial %s/%s: %v", roomKey, clientID, err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func connectWebSocket(url, origin string) (*websocket.Conn, error) {
	dialer := websocket.Dialer{HandshakeTimeout: 5 * time.Second}

	headers := http.Header{}
	if origin != "" {
		headers.Set("Origin", origin)
	}

	conn, resp, err := dialer.Dial(url, headers)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	return conn, err
}

// expectText reads the next frame and fails unless it is the given text.
func expectText(t *testing.T, conn *websocket.Conn, want string) {
	t.Helper()

	if err := conn.SetReadDeadline(time.Now().Add(3 * time.Second)); err != nil {
		t.Fatal(err)
	}
	msgType, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read, want %q: %v", want, err)
	}
	if msgType != websocket.TextMessage {
		t.Fatalf("message type = %d, want text", msgType)
	}
	if string(data) != want {
		t.Fatalf("got %q, want %q", data, want)
	}
}

// closeWebSocket performs a normal close handshake from the client side.
func closeWebSocket(conn *websocket.Conn) {
	_ = conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	_ = conn.Close()
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}
