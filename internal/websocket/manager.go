package websocket

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/appser/appser-store/pkg/logger"
	"github.com/appser/appser-store/pkg/metrics"
	"github.com/gorilla/websocket"
)

const (
	clientRateTokens = 20
	clientRateWindow = 10 * time.Second
)

// Client is one browser tab watching one listing.
type Client struct {
	ID          string
	AppID       string
	Conn        *websocket.Conn
	Send        chan []byte
	Manager     *Manager
	Handler     *Handler
	LastActive  time.Time
	ConnectedAt time.Time
	rateTokens  int
	rateLast    time.Time
	mu          sync.Mutex
}

// Manager tracks connected clients grouped into one room per listing.
type Manager struct {
	clients    map[string]*Client
	unregister chan *Client
	done       chan struct{}
	stopOnce   sync.Once
	mu         sync.RWMutex
	rooms      map[string]map[*Client]struct{}
}

func NewManager() *Manager {
	return &Manager{
		clients:    make(map[string]*Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		rooms:      make(map[string]map[*Client]struct{}),
	}
}

func (m *Manager) Run() {
	for {
		select {
		case client := <-m.unregister:
			m.mu.Lock()
			m.removeLocked(client)
			metrics.SetActiveConnections(int64(len(m.clients)))
			m.mu.Unlock()

		case <-m.done:
			m.mu.Lock()
			for _, client := range m.clients {
				m.removeLocked(client)
			}
			metrics.SetActiveConnections(0)
			m.mu.Unlock()
			return
		}
	}
}

// Stop disconnects every client and ends Run.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() { close(m.done) })
}

// removeLocked drops c from every index and closes its queue; caller holds mu.
func (m *Manager) removeLocked(c *Client) {
	if _, ok := m.clients[c.ID]; !ok {
		return
	}
	delete(m.clients, c.ID)
	close(c.Send)
	if set, ok := m.rooms[c.AppID]; ok {
		delete(set, c)
		if len(set) == 0 {
			delete(m.rooms, c.AppID)
		}
	}
}

// Register adds c to its room before returning, so the caller may send to
// it right away.
func (m *Manager) Register(c *Client) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	select {
	case <-m.done:
		return false
	default:
	}

	m.clients[c.ID] = c
	c.rateTokens = clientRateTokens
	c.rateLast = time.Now()
	if _, ok := m.rooms[c.AppID]; !ok {
		m.rooms[c.AppID] = make(map[*Client]struct{})
	}
	m.rooms[c.AppID][c] = struct{}{}
	metrics.SetActiveConnections(int64(len(m.clients)))
	return true
}

func (m *Manager) Unregister(c *Client) {
	select {
	case m.unregister <- c:
	case <-m.done:
	}
}

// broadcastRoom queues message for every viewer of appID. Viewers whose
// queue is full are dropped. It returns how many viewers were reached.
func (m *Manager) broadcastRoom(appID string, message []byte) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	set, ok := m.rooms[appID]
	if !ok {
		return 0
	}
	sent := 0
	for c := range set {
		select {
		case c.Send <- message:
			sent++
		default:
			logger.Warn("ws_client_dropped_slow", "client_id", c.ID, "app_id", appID)
			m.removeLocked(c)
		}
	}
	metrics.SetActiveConnections(int64(len(m.clients)))
	return sent
}

// SendTo queues message for one client if it is still connected.
func (m *Manager) SendTo(c *Client, message []byte) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, ok := m.clients[c.ID]; !ok {
		return false
	}
	select {
	case c.Send <- message:
		return true
	default:
		return false
	}
}

func (m *Manager) GetClientCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.clients)
}

func (m *Manager) GetRoomClientCount(appID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rooms[appID])
}

func (c *Client) ReadPump() {
	defer func() {
		c.Manager.Unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		c.UpdateActivity()
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Error("ws_read_error", "error", err.Error(), "client_id", c.ID)
			}
			break
		}
		c.UpdateActivity()

		if !c.consumeRateToken() {
			msg := ServerMessage{Type: MessageTypeError, AppID: c.AppID, Content: "rate limit exceeded", Timestamp: time.Now()}
			if data, e := json.Marshal(msg); e == nil {
				c.Manager.SendTo(c, data)
			}
			continue
		}

		if c.Handler != nil {
			if err := c.Handler.HandleClientMessage(c, message); err != nil {
				logger.Warn("ws_message_rejected", "error", err.Error(), "client_id", c.ID)
			}
		}
	}
}

func (c *Client) consumeRateToken() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := time.Now()
	if now.Sub(c.rateLast) >= clientRateWindow {
		c.rateTokens = clientRateTokens
		c.rateLast = now
	}
	if c.rateTokens <= 0 {
		return false
	}
	c.rateTokens--
	return true
}

func (c *Client) UpdateActivity() {
	c.mu.Lock()
	c.LastActive = time.Now()
	c.mu.Unlock()
}

func (c *Client) GetLastActive() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.LastActive
}

func (c *Client) WritePump() {
	defer c.Conn.Close()
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
