package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/votearena/go/internal/competition/view"
)

// MessageType tags frames written to WebSocket clients
type MessageType string

const MessageReadModel MessageType = "read_model"

// Message is the frame sent to clients
type Message struct {
	Type          MessageType     `json:"type"`
	CompetitionID uuid.UUID       `json:"competition_id"`
	Data          *view.ReadModel `json:"data"`
	Timestamp     time.Time       `json:"timestamp"`
}

// ConnectionManager manages WebSocket connections watching competitions
type ConnectionManager struct {
	// Connection pools organized by competition ID
	connections map[uuid.UUID]map[*Connection]bool
	mu          sync.RWMutex

	upgrader websocket.Upgrader
	config   ConnectionConfig

	broadcastCh chan *view.ReadModel
}

// Connection is a single WebSocket client
type Connection struct {
	ID            string
	CompetitionID uuid.UUID
	Conn          *websocket.Conn
	Send          chan []byte
	Manager       *ConnectionManager

	ConnectedAt time.Time

	// release drops the connection's hold on the competition view
	release func()

	// lastVersion is the newest model version queued to this client
	lastVersion atomic.Uint64
}

// advance claims version for this client. It reports false when the client
// already has that version or a newer one, so frames never go backward.
func (c *Connection) advance(version uint64) bool {
	for {
		last := c.lastVersion.Load()
		if version <= last {
			return false
		}
		if c.lastVersion.CompareAndSwap(last, version) {
			return true
		}
	}
}

type ConnectionConfig struct {
	WriteTimeout    time.Duration              `yaml:"writeTimeout"`
	ReadTimeout     time.Duration              `yaml:"readTimeout"`
	PingInterval    time.Duration              `yaml:"pingInterval"`
	MaxMessageSize  int64                      `yaml:"maxMessageSize"`
	ReadBufferSize  int                        `yaml:"readBufferSize"`
	WriteBufferSize int                        `yaml:"writeBufferSize"`
	SendBuffer      int                        `yaml:"sendBuffer"`
	CheckOrigin     func(r *http.Request) bool `yaml:"-" ignored:"true"`
}

func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		WriteTimeout:    10 * time.Second,
		ReadTimeout:     60 * time.Second,
		PingInterval:    30 * time.Second,
		MaxMessageSize:  1024,
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		SendBuffer:      64,
		CheckOrigin: func(r *http.Request) bool {
			// public read model; any origin may watch
			return true
		},
	}
}

func NewConnectionManager(config ConnectionConfig) *ConnectionManager {
	if config.SendBuffer <= 0 {
		config.SendBuffer = 64
	}
	return &ConnectionManager{
		connections: make(map[uuid.UUID]map[*Connection]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		config:      config,
		broadcastCh: make(chan *view.ReadModel, 1000),
	}
}

// Start processes broadcasts until ctx is cancelled.
func (cm *ConnectionManager) Start(ctx context.Context) {
	log.Info().Msg("connection manager started")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("connection manager shutting down")
			return
		case m := <-cm.broadcastCh:
			cm.handleBroadcast(m)
		}
	}
}

// UpgradeConnection upgrades the request and starts streaming read models
// for competitionID, beginning with initial. release is called once when
// the connection goes away.
func (cm *ConnectionManager) UpgradeConnection(w http.ResponseWriter, r *http.Request, competitionID uuid.UUID, initial *view.ReadModel, release func()) error {
	conn, err := cm.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return fmt.Errorf("failed to upgrade connection: %w", err)
	}

	c := &Connection{
		ID:            uuid.New().String(),
		CompetitionID: competitionID,
		Conn:          conn,
		Send:          make(chan []byte, cm.config.SendBuffer),
		Manager:       cm,
		ConnectedAt:   time.Now(),
		release:       release,
	}

	if initial != nil {
		if data, err := encodeMessage(initial); err == nil && c.advance(initial.Version) {
			c.Send <- data
		}
	}
	cm.registerConnection(c)

	go c.writePump()
	go c.readPump()

	log.Info().
		Str("connection_id", c.ID).
		Str("competition_id", competitionID.String()).
		Msg("WebSocket connection established")
	return nil
}

func (cm *ConnectionManager) registerConnection(conn *Connection) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if cm.connections[conn.CompetitionID] == nil {
		cm.connections[conn.CompetitionID] = make(map[*Connection]bool)
	}
	cm.connections[conn.CompetitionID][conn] = true

	log.Debug().
		Str("connection_id", conn.ID).
		Str("competition_id", conn.CompetitionID.String()).
		Int("total_connections", len(cm.connections[conn.CompetitionID])).
		Msg("connection registered")
}

func (cm *ConnectionManager) unregisterConnection(conn *Connection) {
	cm.mu.Lock()
	connections, exists := cm.connections[conn.CompetitionID]
	if !exists || !connections[conn] {
		cm.mu.Unlock()
		return
	}
	delete(connections, conn)
	close(conn.Send)
	if len(connections) == 0 {
		delete(cm.connections, conn.CompetitionID)
	}
	cm.mu.Unlock()

	// outside the lock: disposing a view waits for its loop, which may be
	// queueing a broadcast
	if conn.release != nil {
		conn.release()
	}

	log.Info().
		Str("connection_id", conn.ID).
		Str("competition_id", conn.CompetitionID.String()).
		Msg("connection unregistered")
}

// Broadcast queues a read model for every watcher of its competition.
// Never blocks; called from view loops.
func (cm *ConnectionManager) Broadcast(m *view.ReadModel) {
	select {
	case cm.broadcastCh <- m:
	default:
		log.Warn().Str("competition_id", m.CompetitionID.String()).Msg("broadcast channel full, dropping message")
	}
}

func (cm *ConnectionManager) handleBroadcast(m *view.ReadModel) {
	data, err := encodeMessage(m)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal read model for broadcast")
		return
	}

	var slow []*Connection
	sent := 0
	cm.mu.RLock()
	for conn := range cm.connections[m.CompetitionID] {
		if !conn.advance(m.Version) {
			continue
		}
		select {
		case conn.Send <- data:
			sent++
		default:
			slow = append(slow, conn)
		}
	}
	cm.mu.RUnlock()

	for _, conn := range slow {
		log.Warn().Str("connection_id", conn.ID).Msg("connection send buffer full, closing connection")
		cm.unregisterConnection(conn)
		conn.Conn.Close()
	}

	log.Debug().
		Str("competition_id", m.CompetitionID.String()).
		Uint64("version", m.Version).
		Int("connections", sent).
		Msg("read model broadcasted")
}

// ConnectionStats summarises open connections
type ConnectionStats struct {
	TotalConnections       int            `json:"total_connections"`
	ActiveCompetitions     int            `json:"active_competitions"`
	CompetitionConnections map[string]int `json:"competition_connections"`
}

func (cm *ConnectionManager) GetConnectionStats() ConnectionStats {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	stats := ConnectionStats{CompetitionConnections: make(map[string]int)}
	for id, connections := range cm.connections {
		stats.TotalConnections += len(connections)
		stats.CompetitionConnections[id.String()] = len(connections)
	}
	stats.ActiveCompetitions = len(cm.connections)
	return stats
}

// CloseAll drops every client. The pumps unregister them as they exit.
func (cm *ConnectionManager) CloseAll() {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	for _, connections := range cm.connections {
		for conn := range connections {
			conn.Conn.Close()
		}
	}
}

func encodeMessage(m *view.ReadModel) ([]byte, error) {
	return json.Marshal(Message{
		Type:          MessageReadModel,
		CompetitionID: m.CompetitionID,
		Data:          m,
		Timestamp:     time.Now().UTC(),
	})
}

func (c *Connection) writePump() {
	ticker := time.NewTicker(c.Manager.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
		c.Manager.unregisterConnection(c)
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Error().Err(err).Str("connection_id", c.ID).Msg("failed to write message to WebSocket")
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Error().Err(err).Str("connection_id", c.ID).Msg("failed to send ping")
				return
			}
		}
	}
}

// readPump only keeps the read deadline fresh; clients have nothing to say.
func (c *Connection) readPump() {
	defer func() {
		c.Manager.unregisterConnection(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(c.Manager.config.MaxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
		return nil
	})

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error().Err(err).Str("connection_id", c.ID).Msg("unexpected WebSocket close error")
			}
			return
		}
		c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
	}
}
