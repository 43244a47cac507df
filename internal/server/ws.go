package server

import (
	"net/http"

	json "github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// The dashboard is same-origin in practice but the page may be opened
	// from file:// during development.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// selectMessage is the only inbound WebSocket message: a coin selection.
type selectMessage struct {
	Coin string `json:"coin"`
}

// handleWS upgrades the connection and streams dashboard views.
//
// The client receives a view immediately on connect, then one per refresh
// tick, and one whenever it sends a {"coin": "ETH"} selection message. The
// write side ranges over the subscriber channel; the read side only parses
// selection messages and detects disconnects.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	ticker := r.URL.Query().Get("coin")
	if ticker == "" {
		ticker = s.svc.Registry().Default()
	}

	sub, err := s.dispatcher.Subscribe(ticker)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("websocket upgrade failed")
		if err := s.dispatcher.Unsubscribe(sub); err != nil {
			log.Error().Err(err).Msg("failed to unsubscribe after failed upgrade")
		}
		return
	}

	log.Info().Str("ticker", ticker).Str("remote", r.RemoteAddr).Msg("dashboard client connected")

	// Read loop: selection messages in, disconnect detection.
	go func() {
		defer func() {
			if err := s.dispatcher.Unsubscribe(sub); err != nil {
				log.Error().Err(err).Msg("failed to unsubscribe websocket client")
			}
		}()

		for {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				log.Info().Str("remote", r.RemoteAddr).Msg("dashboard client disconnected")
				return
			}

			var msg selectMessage
			if err := json.Unmarshal(raw, &msg); err != nil || msg.Coin == "" {
				log.Warn().Err(err).Msg("ignoring malformed selection message")
				continue
			}

			if err := s.dispatcher.SelectCoin(sub, msg.Coin); err != nil {
				log.Warn().Err(err).Str("coin", msg.Coin).Msg("rejected coin selection")
			}
		}
	}()

	// Write loop: the subscriber channel closes on unsubscribe or dispatcher
	// shutdown, which ends the connection.
	for view := range sub.Views() {
		payload, err := json.Marshal(view)
		if err != nil {
			log.Error().Err(err).Msg("failed to marshal view")
			continue
		}

		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			log.Info().Err(err).Str("remote", r.RemoteAddr).Msg("dashboard client write failed")
			break
		}
	}

	conn.Close()
}
