// Package server wires HTTP handlers into a gorilla/mux router for the relay
// and wraps it with CORS handling.
package server

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

// SetupRoutes configures and returns the HTTP handler with all application
// routes: health check, test page, room WebSocket endpoint, room limit API
// and Prometheus metrics.
func (g *Gateway) SetupRoutes() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/", HealthHandler)
	r.HandleFunc("/test", TestPageHandler).Methods(http.MethodGet)
	r.HandleFunc("/ws/{room}/{client}", g.WebSocketHandler).Methods(http.MethodGet)
	r.HandleFunc("/rooms", g.ListRoomsHandler).Methods(http.MethodGet)
	r.HandleFunc("/rooms/{room}", g.CreateRoomHandler).Methods(http.MethodPost)
	r.HandleFunc("/rooms/{room}", g.RoomInfoHandler).Methods(http.MethodGet)
	r.Handle("/metrics", g.metrics.handler()).Methods(http.MethodGet)

	c := cors.New(cors.Options{
		AllowedOrigins: g.cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	})
	return c.Handler(r)
}
