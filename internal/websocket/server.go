package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/appser/appser-store/internal/listing"
	"github.com/appser/appser-store/internal/render"
	"github.com/appser/appser-store/pkg/logger"
	"github.com/appser/appser-store/pkg/models"
	"github.com/appser/appser-store/pkg/utils"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	pingPeriod     = 30 * time.Second
	pongWait       = 60 * time.Second
	writeWait      = 10 * time.Second
	maxMessageSize = 4 * 1024
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Loader fetches the listing a viewer wants to watch.
type Loader interface {
	Load(ctx context.Context, id string) (*models.App, error)
}

// Server is the live stats hub: viewers join the room of one listing and
// receive its counters whenever they change.
type Server struct {
	manager *Manager
	handler *Handler
	loader  Loader
	format  *render.Formatter
	log     *logger.Logger
}

func NewServer(loader Loader, format *render.Formatter) *Server {
	if format == nil {
		format = render.NewFormatter(render.DefaultLocale)
	}
	manager := NewManager()
	s := &Server{
		manager: manager,
		loader:  loader,
		format:  format,
		log:     logger.GetLogger().WithContext("component", "live_stats"),
	}
	s.handler = NewHandler(s)
	go manager.Run()
	return s
}

// SetLoader attaches the listing source once it exists. The listing service
// publishes to the hub, so the two are built in two steps.
func (s *Server) SetLoader(loader Loader) {
	s.loader = loader
}

// HandleWebSocket serves GET /ws/apps/:id.
func (s *Server) HandleWebSocket(c *gin.Context) {
	appID := c.Param("id")
	app, err := s.loader.Load(c.Request.Context(), appID)
	if err != nil {
		if errors.Is(err, listing.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": render.MsgNotFound})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": render.MsgLoadError})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.Error("ws_upgrade_failed", "app_id", appID, "error", err.Error())
		return
	}

	id, _ := utils.GenerateID(16)
	now := time.Now()
	client := &Client{
		ID:          id,
		AppID:       app.ID,
		Conn:        conn,
		Send:        make(chan []byte, 64),
		Manager:     s.manager,
		Handler:     s.handler,
		LastActive:  now,
		ConnectedAt: now,
	}
	if !s.manager.Register(client) {
		conn.Close()
		return
	}
	s.log.Debug("ws_viewer_joined", "app_id", app.ID, "client_id", id)

	go client.WritePump()

	welcome := s.statsMessage(MessageTypeWelcome, app.Counters())
	welcome.Viewers = s.manager.GetRoomClientCount(app.ID)
	if data, err := json.Marshal(welcome); err == nil {
		s.manager.SendTo(client, data)
	}

	go client.ReadPump()
}

func (s *Server) statsMessage(t MessageType, counters models.Counters) ServerMessage {
	id, _ := utils.GenerateID(8)
	rating := counters.Rating
	return ServerMessage{
		ID:            id,
		Type:          t,
		AppID:         counters.AppID,
		Downloads:     counters.Downloads,
		Likes:         counters.Likes,
		Rating:        &rating,
		DownloadsText: s.format.Int(counters.Downloads),
		LikesText:     s.format.Int(counters.Likes),
		RatingText:    render.Rating(rating.Average),
		Stars:         render.Stars(rating.Average).Glyphs,
		Timestamp:     time.Now(),
	}
}

// ConnectionCount is the number of connected viewers across all listings.
func (s *Server) ConnectionCount() int {
	return s.manager.GetClientCount()
}

func (s *Server) Viewers(appID string) int {
	return s.manager.GetRoomClientCount(appID)
}

func (s *Server) Stop() {
	s.manager.Stop()
}
