// Package server exposes HTTP handlers, including WebSocket upgrades, room
// limit management, health checks, and the built-in test page.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/Tyrowin/roomchat/internal/room"
)

// RoomInfo describes one room in the HTTP API.
type RoomInfo struct {
	RoomID  string `json:"room_id"`
	Members int    `json:"members"`
	Limit   int    `json:"limit"`
}

// CreateRoomResponse is returned after a room limit was recorded.
type CreateRoomResponse struct {
	Status string `json:"status"`
	RoomID string `json:"room_id"`
	Limit  int    `json:"limit"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// WebSocketHandler upgrades /ws/{room}/{client} requests, admits the stream
// into its room and starts the client's read/write pumps. A full room gets a
// notice followed by a close frame.
func (g *Gateway) WebSocketHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	roomKey, clientID := vars["room"], vars["client"]

	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.log.Warn("ws.upgrade", "err", err, "addr", r.RemoteAddr)
		return
	}

	client := newClient(g, conn, r.RemoteAddr, roomKey, clientID)
	if !g.hub.register(client) {
		client.log.Info("ws.rejected.shutdown")
		client.closeConn()
		return
	}

	if err := g.registry.Join(roomKey, client.handle); err != nil {
		g.hub.unregister(client.handle)
		g.metrics.joins.WithLabelValues("rejected").Inc()
		client.log.Info("room.join.rejected", "err", err)
		client.reject(roomFullNotice)
		return
	}

	g.metrics.joins.WithLabelValues("admitted").Inc()
	g.metrics.connections.Inc()
	client.log.Info("room.join", "members", g.registry.Len(roomKey))

	g.hub.run(client.writePump)
	g.broadcast(roomKey, joinedNotice(clientID))
	g.hub.run(client.readPump)
}

// CreateRoomHandler sets the member limit of a room from the
// max_participants query parameter. The room itself comes into existence on
// its first join.
func (g *Gateway) CreateRoomHandler(w http.ResponseWriter, r *http.Request) {
	roomKey := mux.Vars(r)["room"]

	raw := r.URL.Query().Get("max_participants")
	if raw == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "max_participants is required"})
		return
	}
	limit, err := strconv.Atoi(raw)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "max_participants must be an integer"})
		return
	}

	if err := g.registry.SetLimit(roomKey, limit); err != nil {
		if errors.Is(err, room.ErrInvalidLimit) {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
		g.log.Error("room.limit", "room", roomKey, "err", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}

	g.log.Info("room.limit", "room", roomKey, "limit", limit)
	writeJSON(w, http.StatusOK, CreateRoomResponse{Status: "room created", RoomID: roomKey, Limit: limit})
}

// RoomInfoHandler reports the occupancy and effective limit of one room.
func (g *Gateway) RoomInfoHandler(w http.ResponseWriter, r *http.Request) {
	roomKey := mux.Vars(r)["room"]
	writeJSON(w, http.StatusOK, g.roomInfo(roomKey))
}

// ListRoomsHandler reports every room that currently has members.
func (g *Gateway) ListRoomsHandler(w http.ResponseWriter, _ *http.Request) {
	keys := g.registry.Rooms()
	rooms := make([]RoomInfo, 0, len(keys))
	for _, key := range keys {
		rooms = append(rooms, g.roomInfo(key))
	}
	writeJSON(w, http.StatusOK, rooms)
}

func (g *Gateway) roomInfo(roomKey string) RoomInfo {
	return RoomInfo{
		RoomID:  roomKey,
		Members: g.registry.Len(roomKey),
		Limit:   g.registry.Limit(roomKey),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// HealthHandler provides a simple health check endpoint that returns server status.
// It responds with a plain text message indicating the server is running.
func HealthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = fmt.Fprintf(w, "roomchat server is running!")
}

// TestPageHandler serves an HTML page for trying rooms from a browser.
func TestPageHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	_, _ = fmt.Fprint(w, testPageHTML)
}

const testPageHTML = `<!DOCTYPE html>
<html>
<head>
    <title>roomchat test</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; }
        #messages {
            border: 1px solid #ccc;
            height: 300px;
            padding: 10px;
            overflow-y: scroll;
            margin: 10px 0;
            background-color: #f9f9f9;
        }
        input[type="text"] { padding: 5px; margin-right: 10px; }
        #messageInput { width: 300px; }
        button {
            padding: 5px 15px;
            background-color: #007cba;
            color: white;
            border: none;
            cursor: pointer;
        }
        button:hover { background-color: #005a87; }
        .status { margin: 10px 0; padding: 5px; border-radius: 3px; }
        .connected { background-color: #d4edda; color: #155724; }
        .disconnected { background-color: #f8d7da; color: #721c24; }
    </style>
</head>
<body>
    <h1>roomchat test</h1>

    <div id="status" class="status disconnected">Disconnected</div>

    <div>
        <input type="text" id="roomInput" placeholder="room" value="lobby">
        <input type="text" id="clientInput" placeholder="client id">
        <button id="connectButton" onclick="toggleConnection()">Connect</button>
    </div>
    <div>
        <input type="text" id="messageInput" placeholder="Type a message..." disabled>
        <button id="sendButton" onclick="sendMessage()" disabled>Send</button>
    </div>

    <div id="messages"></div>

    <script>
        let ws = null;
        const messagesDiv = document.getElementById('messages');
        const messageInput = document.getElementById('messageInput');
        const sendButton = document.getElementById('sendButton');
        const connectButton = document.getElementById('connectButton');
        const statusDiv = document.getElementById('status');

        function addMessage(text) {
            const el = document.createElement('div');
            el.style.margin = '5px 0';
            el.textContent = text;
            messagesDiv.appendChild(el);
            messagesDiv.scrollTop = messagesDiv.scrollHeight;
        }

        function updateStatus(connected) {
            statusDiv.textContent = connected ? 'Connected' : 'Disconnected';
            statusDiv.className = 'status ' + (connected ? 'connected' : 'disconnected');
            messageInput.disabled = !connected;
            sendButton.disabled = !connected;
            connectButton.textContent = connected ? 'Disconnect' : 'Connect';
        }

        function connect() {
            const room = encodeURIComponent(document.getElementById('roomInput').value.trim());
            const client = encodeURIComponent(document.getElementById('clientInput').value.trim() || Date.now());
            const scheme = location.protocol === 'https:' ? 'wss://' : 'ws://';
            ws = new WebSocket(scheme + location.host + '/ws/' + room + '/' + client);
            ws.onopen = () => updateStatus(true);
            ws.onmessage = (event) => addMessage(event.data);
            ws.onclose = () => { addMessage('Connection closed'); updateStatus(false); ws = null; };
            ws.onerror = () => addMessage('Connection error');
        }

        function toggleConnection() {
            if (ws && ws.readyState === WebSocket.OPEN) {
                ws.close();
            } else {
                connect();
            }
        }

        function sendMessage() {
            const message = messageInput.value.trim();
            if (message && ws && ws.readyState === WebSocket.OPEN) {
                ws.send(message);
                messageInput.value = '';
            }
        }

        messageInput.addEventListener('keypress', (e) => {
            if (e.key === 'Enter') {
                sendMessage();
            }
        });
    </script>
</body>
</html>`
