package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// TestHealthHandler tests the health handler function in isolation.
// It verifies that the handler responds to any method with the status text.
func TestHealthHandler(t *testing.T) {
	for _, method := range []string{http.MethodGet, http.MethodPost} {
		t.Run(method, func(t *testing.T) {
			req := httptest.NewRequest(method, "/", http.NoBody)
			rr := httptest.NewRecorder()

			HealthHandler(rr, req)

			if rr.Code != http.StatusOK {
				t.Errorf("status = %d, want %d", rr.Code, http.StatusOK)
			}
			if got := rr.Body.String(); got != "roomchat server is running!" {
				t.Errorf("body = %q", got)
			}
			if ct := rr.Header().Get("Content-Type"); ct != "text/plain" {
				t.Errorf("Content-Type = %q", ct)
			}
		})
	}
}

func TestTestPageHandler(t *testing.T) {
	_, ts := newTestGateway(t, nil)

	resp, err := http.Get(ts.URL + "/test")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if !strings.Contains(string(body), "/ws/") {
		t.Error("test page does not reference the room endpoint")
	}
}

// TestCreateRoomHandler covers limit validation on POST /rooms/{room}.
func TestCreateRoomHandler(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		wantStatus int
		wantLimit  int
	}{
		{name: "valid limit", query: "?max_participants=2", wantStatus: http.StatusOK, wantLimit: 2},
		{name: "missing limit", query: "", wantStatus: http.StatusBadRequest, wantLimit: 10},
		{name: "non numeric", query: "?max_participants=many", wantStatus: http.StatusBadRequest, wantLimit: 10},
		{name: "zero", query: "?max_participants=0", wantStatus: http.StatusBadRequest, wantLimit: 10},
		{name: "negative", query: "?max_participants=-3", wantStatus: http.StatusBadRequest, wantLimit: 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, ts := newTestGateway(t, nil)

			resp, err := http.Post(ts.URL+"/rooms/alpha"+tt.query, "application/json", http.NoBody)
			if err != nil {
				t.Fatal(err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != tt.wantStatus {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			if got := g.Registry().Limit("alpha"); got != tt.wantLimit {
				t.Errorf("Limit = %d, want %d", got, tt.wantLimit)
			}

			if tt.wantStatus == http.StatusOK {
				var body CreateRoomResponse
				if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
					t.Fatal(err)
				}
				if body.RoomID != "alpha" || body.Limit != tt.wantLimit || body.Status != "room created" {
					t.Errorf("body = %+v", body)
				}
			}
		})
	}
}

func TestRoomInfoHandlers(t *testing.T) {
	g, ts := newTestGateway(t, nil)
	_ = g.Registry().SetLimit("lobby", 4)

	conn := dialRoom(t, ts, "lobby", "alice")
	expectText(t, conn, "Client #alice joined the chat")

	resp, err := http.Get(ts.URL + "/rooms/lobby")
	if err != nil {
		t.Fatal(err)
	}
	var info RoomInfo
	err = json.NewDecoder(resp.Body).Decode(&info)
	resp.Body.Close()
	if err != nil {
		t.Fatal(err)
	}
	if info != (RoomInfo{RoomID: "lobby", Members: 1, Limit: 4}) {
		t.Errorf("room info = %+v", info)
	}

	resp, err = http.Get(ts.URL + "/rooms")
	if err != nil {
		t.Fatal(err)
	}
	var rooms []RoomInfo
	err = json.NewDecoder(resp.Body).Decode(&rooms)
	resp.Body.Close()
	if err != nil {
		t.Fatal(err)
	}
	if len(rooms) != 1 || rooms[0].RoomID != "lobby" {
		t.Errorf("rooms = %+v", rooms)
	}
}

func TestRoomInfoUnknownRoom(t *testing.T) {
	_, ts := newTestGateway(t, nil)

	resp, err := http.Get(ts.URL + "/rooms/ghost")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var info RoomInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		t.Fatal(err)
	}
	if info.Members != 0 || info.Limit != 10 {
		t.Errorf("room info = %+v", info)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	_, ts := newTestGateway(t, nil)

	conn := dialRoom(t, ts, "lobby", "alice")
	expectText(t, conn, "Client #alice joined the chat")

	resp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	for _, want := range []string{
		`roomchat_joins_total{result="admitted"} 1`,
		"roomchat_connections 1",
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics missing %q", want)
		}
	}
}

func TestCORSPreflight(t *testing.T) {
	_, ts := newTestGateway(t, nil)

	req, err := http.NewRequest(http.MethodOptions, ts.URL+"/rooms/alpha", http.NoBody)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Origin", testOrigin)
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != testOrigin {
		t.Errorf("Access-Control-Allow-Origin = %q, want %q", got, testOrigin)
	}
}
