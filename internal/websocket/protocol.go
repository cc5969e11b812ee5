package websocket

import (
	"time"

	"github.com/appser/appser-store/pkg/models"
)

type MessageType string

const (
	MessageTypeWelcome MessageType = "welcome"
	MessageTypeStats   MessageType = "stats"
	MessageTypeReview  MessageType = "review"
	MessageTypePong    MessageType = "pong"
	MessageTypeError   MessageType = "error"

	// Client to server.
	MessageTypePing    MessageType = "ping"
	MessageTypeRefresh MessageType = "refresh"
)

type ClientMessage struct {
	Type MessageType `json:"type"`
}

// ServerMessage carries the live figures of one listing. The *_text fields
// are already formatted for the configured locale.
type ServerMessage struct {
	ID            string              `json:"id"`
	Type          MessageType         `json:"type"`
	AppID         string              `json:"app_id"`
	Downloads     int64               `json:"downloads"`
	Likes         int64               `json:"likes"`
	Rating        *models.RatingStats `json:"rating,omitempty"`
	DownloadsText string              `json:"downloads_text,omitempty"`
	LikesText     string              `json:"likes_text,omitempty"`
	RatingText    string              `json:"rating_text,omitempty"`
	Stars         string              `json:"stars,omitempty"`
	Review        *ReviewPayload      `json:"review,omitempty"`
	Viewers       int                 `json:"viewers,omitempty"`
	Content       string              `json:"content,omitempty"`
	Timestamp     time.Time           `json:"timestamp"`
}

type ReviewPayload struct {
	Stars   string `json:"stars"`
	Comment string `json:"comment"`
	Date    string `json:"date"`
}
