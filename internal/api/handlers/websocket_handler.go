package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/isdelr/inkwell-be/internal/auth"
	"github.com/isdelr/inkwell-be/internal/models"
	ws "github.com/isdelr/inkwell-be/internal/websocket"
)

// WebSocketHandler upgrades HTTP connections to the live activity feed.
type WebSocketHandler struct {
	hub      *ws.Hub
	upgrader websocket.Upgrader
}

// NewWebSocketHandler creates a new WebSocketHandler. Browser origins must appear in allowedOrigins;
// a "*" entry allows every origin.
func NewWebSocketHandler(hub *ws.Hub, allowedOrigins []string) *WebSocketHandler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[strings.TrimRight(o, "/")] = true
	}
	return &WebSocketHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || allowed["*"] || allowed[origin]
			},
		},
	}
}

// Serve handles the WebSocket connection request. ?postId= follows a single post from the start.
// Account and system events are only streamed to admins; everyone else sees content events.
func (h *WebSocketHandler) Serve(w http.ResponseWriter, r *http.Request) {
	admin := auth.RequireRole(principal(r), models.RoleAdmin) == nil

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upgrade websocket connection")
		return
	}

	client := ws.NewClient(h.hub, conn, r.URL.Query().Get("postId"), admin)
	h.hub.Join(client)

	go client.WritePump()
	go func() {
		client.ReadPump(h.handleIncomingWSMessage)
		h.hub.Leave(client)
	}()
}

// handleIncomingWSMessage processes messages received from a websocket client.
func (h *WebSocketHandler) handleIncomingWSMessage(client *ws.Client, message []byte) {
	var msg ws.Message
	if err := json.Unmarshal(message, &msg); err != nil {
		log.Warn().Err(err).Bytes("message", message).Msg("Error decoding websocket message")
		h.hub.Reply(client, ws.NewErrorMessage("Invalid message"))
		return
	}

	switch msg.Action {
	case ws.ActionSubscribe, ws.ActionUnsubscribe:
		payload, ok := msg.Payload.(map[string]interface{})
		if !ok {
			h.hub.Reply(client, ws.NewErrorMessage("Invalid payload for subscription"))
			return
		}
		postID, _ := payload["postId"].(string)
		if postID == "" {
			h.hub.Reply(client, ws.NewErrorMessage("postId is required"))
			return
		}
		if msg.Action == ws.ActionSubscribe {
			h.hub.Subscribe(client, postID)
		} else {
			h.hub.Unsubscribe(client, postID)
		}

	default:
		log.Warn().Str("action", msg.Action).Msg("Unknown websocket action received")
		h.hub.Reply(client, ws.NewErrorMessage("Unknown action: "+msg.Action))
	}
}
