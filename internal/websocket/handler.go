package websocket

import (
	"encoding/json"
	"time"
)

// Handler answers the few messages a viewer may send.
type Handler struct {
	server *Server
}

func NewHandler(server *Server) *Handler {
	return &Handler{server: server}
}

func (h *Handler) HandleClientMessage(client *Client, data []byte) error {
	var msg ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return &ValidationError{Field: "body", Message: "invalid json"}
	}

	switch msg.Type {
	case MessageTypePing:
		return h.reply(client, ServerMessage{Type: MessageTypePong, AppID: client.AppID, Timestamp: time.Now()})
	case MessageTypeRefresh:
		return h.handleRefresh(client)
	default:
		return &ValidationError{Field: "type", Message: "unknown message type " + string(msg.Type)}
	}
}

func (h *Handler) handleRefresh(client *Client) error {
	ctx, cancel := contextWithTimeout()
	defer cancel()

	app, err := h.server.loader.Load(ctx, client.AppID)
	if err != nil {
		return h.reply(client, ServerMessage{Type: MessageTypeError, AppID: client.AppID, Content: "refresh failed", Timestamp: time.Now()})
	}
	msg := h.server.statsMessage(MessageTypeStats, app.Counters())
	msg.Viewers = h.server.manager.GetRoomClientCount(client.AppID)
	return h.reply(client, msg)
}

func (h *Handler) reply(client *Client, msg ServerMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	client.Manager.SendTo(client, data)
	return nil
}

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Field + ": " + e.Message }
