package utility

import (
	"net/http"
	"sync"

	"NutriScan_V1.0/internal/scan"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// Simple Hub to hold active connections: Map[UserID] -> Connection
var (
	Clients   = make(map[string]*websocket.Conn)
	ClientsMu sync.Mutex // Mutex to prevent race conditions
	Upgrader  = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		// Allow CORS for development
		CheckOrigin: func(r *http.Request) bool { return true },
	}
)

// Register a new client connection
func RegisterClient(userID string, conn *websocket.Conn) {
	ClientsMu.Lock()
	defer ClientsMu.Unlock()
	Clients[userID] = conn
	log.Info().Str("user_id", userID).Msg("WebSocket Client Connected")
}

// Unregister a client (when they close the app)
func UnregisterClient(userID string) {
	ClientsMu.Lock()
	defer ClientsMu.Unlock()
	if _, ok := Clients[userID]; ok {
		delete(Clients, userID)
		log.Info().Str("user_id", userID).Msg("WebSocket Client Disconnected")
	}
}

// ScanProgressNotifier pushes pipeline state transitions to the user's
// open socket. Users without a connection are skipped silently.
type ScanProgressNotifier struct{}

func (ScanProgressNotifier) Notify(userID string, state scan.State) {
	ClientsMu.Lock()
	defer ClientsMu.Unlock()

	if conn, ok := Clients[userID]; ok {
		if err := conn.WriteJSON(state); err != nil {
			log.Error().Err(err).Msg("Failed to send WS message, removing client")
			conn.Close()
			delete(Clients, userID)
		}
	}
}
