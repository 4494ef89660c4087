package websocket

import (
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"amravatimarket/pkg/logger"
	"amravatimarket/pkg/metrics"
)

// Client is one open websocket carrying one live stream.
type Client struct {
	ID     string
	UserID string
	Stream string
	Conn   *websocket.Conn

	done      chan struct{}
	closeOnce sync.Once
}

func NewClient(conn *websocket.Conn, userID, stream string) *Client {
	return &Client{
		ID:     uuid.New().String(),
		UserID: userID,
		Stream: stream,
		Conn:   conn,
		done:   make(chan struct{}),
	}
}

// Close asks the stream loop to finish. Safe to call more than once.
func (c *Client) Close() {
	c.closeOnce.Do(func() { close(c.done) })
}

// Done is closed once the client is closing.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Manager tracks every open stream so they can be counted and closed on
// shutdown.
type Manager struct {
	clients map[string]*Client
	mutex   sync.RWMutex
}

func NewManager() *Manager {
	return &Manager{
		clients: make(map[string]*Client),
	}
}

func (m *Manager) Register(c *Client) {
	m.mutex.Lock()
	m.clients[c.ID] = c
	m.mutex.Unlock()

	metrics.IncSubscriptions(c.Stream)
	logger.Debug("Stream opened", "user_id", c.UserID, "stream", c.Stream, "client_id", c.ID)
}

func (m *Manager) Unregister(c *Client) {
	m.mutex.Lock()
	_, ok := m.clients[c.ID]
	delete(m.clients, c.ID)
	m.mutex.Unlock()

	if ok {
		metrics.DecSubscriptions(c.Stream)
		logger.Debug("Stream closed", "user_id", c.UserID, "stream", c.Stream, "client_id", c.ID)
	}
}

// Count returns the number of open streams for userID.
func (m *Manager) Count(userID string) int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	n := 0
	for _, c := range m.clients {
		if c.UserID == userID {
			n++
		}
	}
	return n
}

// CloseAll closes every open stream.
func (m *Manager) CloseAll() {
	m.mutex.RLock()
	clients := make([]*Client, 0, len(m.clients))
	for _, c := range m.clients {
		clients = append(clients, c)
	}
	m.mutex.RUnlock()

	for _, c := range clients {
		c.Close()
	}
}
