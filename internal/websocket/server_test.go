package websocket_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/appser/appser-store/internal/events"
	"github.com/appser/appser-store/internal/listing"
	"github.com/appser/appser-store/internal/render"
	"github.com/appser/appser-store/internal/websocket"
	"github.com/appser/appser-store/pkg/logger"
	"github.com/appser/appser-store/pkg/models"
	"github.com/gin-gonic/gin"
	ws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupHub(t *testing.T) (*websocket.Server, *listing.Service, string) {
	t.Helper()
	logger.Init(logger.ERROR, false, nil)
	gin.SetMode(gin.TestMode)

	repo := listing.NewMemoryRepository()
	require.NoError(t, repo.UpsertApp(context.Background(), &models.App{
		ID: "vlc", Name: "VLC", APKURL: "https://files.example.com/vlc.apk", Downloads: 1234567,
	}))

	hub := websocket.NewServer(nil, render.NewFormatter("es-ES"))
	svc := listing.NewService(repo, hub)
	hub.SetLoader(svc)
	t.Cleanup(hub.Stop)

	router := gin.New()
	router.GET("/ws/apps/:id", hub.HandleWebSocket)
	ts := httptest.NewServer(router)
	t.Cleanup(ts.Close)

	return hub, svc, "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/apps/"
}

func readMessage(t *testing.T, conn *ws.Conn) websocket.ServerMessage {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var msg websocket.ServerMessage
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func TestViewerReceivesWelcomeThenStats(t *testing.T) {
	hub, svc, base := setupHub(t)

	conn, _, err := ws.DefaultDialer.Dial(base+"vlc", nil)
	require.NoError(t, err)
	defer conn.Close()

	welcome := readMessage(t, conn)
	assert.Equal(t, websocket.MessageTypeWelcome, welcome.Type)
	assert.Equal(t, "1.234.567", welcome.DownloadsText)
	assert.Equal(t, 1, welcome.Viewers)
	assert.Equal(t, 1, hub.Viewers("vlc"))

	_, err = svc.Download(context.Background(), "vlc")
	require.NoError(t, err)

	stats := readMessage(t, conn)
	assert.Equal(t, websocket.MessageTypeStats, stats.Type)
	assert.Equal(t, int64(1234568), stats.Downloads)
	assert.Equal(t, "1.234.568", stats.DownloadsText)
}

func TestReviewEventCarriesReviewLine(t *testing.T) {
	_, svc, base := setupHub(t)

	conn, _, err := ws.DefaultDialer.Dial(base+"vlc", nil)
	require.NoError(t, err)
	defer conn.Close()
	readMessage(t, conn)

	_, err = svc.SubmitReview(context.Background(), "vlc", models.SubmitReviewRequest{Stars: 4, Comment: "Plays everything"}, nil)
	require.NoError(t, err)

	msg := readMessage(t, conn)
	assert.Equal(t, websocket.MessageTypeReview, msg.Type)
	require.NotNil(t, msg.Review)
	assert.Equal(t, "★★★★☆", msg.Review.Stars)
	require.NotNil(t, msg.Rating)
	assert.Equal(t, int64(1), msg.Rating.TotalCount)
}

func TestPingAndRefresh(t *testing.T) {
	_, _, base := setupHub(t)

	conn, _, err := ws.DefaultDialer.Dial(base+"vlc", nil)
	require.NoError(t, err)
	defer conn.Close()
	readMessage(t, conn)

	require.NoError(t, conn.WriteJSON(websocket.ClientMessage{Type: websocket.MessageTypePing}))
	assert.Equal(t, websocket.MessageTypePong, readMessage(t, conn).Type)

	require.NoError(t, conn.WriteJSON(websocket.ClientMessage{Type: websocket.MessageTypeRefresh}))
	refreshed := readMessage(t, conn)
	assert.Equal(t, websocket.MessageTypeStats, refreshed.Type)
	assert.Equal(t, "vlc", refreshed.AppID)
}

func TestUnknownListingIsRejected(t *testing.T) {
	_, _, base := setupHub(t)

	_, resp, err := ws.DefaultDialer.Dial(base+"ghost", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestPublishWithoutViewers(t *testing.T) {
	hub, _, _ := setupHub(t)

	err := hub.Publish(context.Background(), events.Event{Type: events.TypeLike, AppID: "nobody-watching"})
	assert.NoError(t, err)
}
