// Package api is the host-framework transport: a WebSocket hub that
// delivers map view deltas to connected widget sessions and answers
// element-creation requests with the widget's fixed element tag.
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"leafmap/typedef"
	"leafmap/widget"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// The demo server accepts any origin; front it with proper origin
		// checking before exposing it beyond localhost.
		return true
	},
}

// MessageHandler processes one incoming client message.
type MessageHandler func(*WSClient, WSMessage) error

// API is the WebSocket hub. Clients register on connect, unregister on
// disconnect, and every delta pushed through Broadcast fans out to all of
// them in the hub goroutine.
type API struct {
	clients    map[*WSClient]bool
	broadcast  chan WSMessage
	register   chan *WSClient
	unregister chan *WSClient
	handlers   map[MessageType]MessageHandler
	logger     zerolog.Logger
}

// WSClient is one connected widget session.
type WSClient struct {
	conn *websocket.Conn
	send chan WSMessage
	api  *API
	id   string
}

// New creates a hub. Call Run to start it.
func New() *API {
	api := &API{
		clients:    make(map[*WSClient]bool),
		broadcast:  make(chan WSMessage, 256),
		register:   make(chan *WSClient),
		unregister: make(chan *WSClient),
		handlers:   make(map[MessageType]MessageHandler),
		logger:     log.With().Str("component", "session-hub").Logger(),
	}
	api.registerHandlers()
	return api
}

// Run handles the main hub logic; call it in its own goroutine.
func (api *API) Run() {
	for {
		select {
		case client := <-api.register:
			api.clients[client] = true

			ack, _ := json.Marshal(AckData{SessionID: client.id})
			msg := WSMessage{
				Type:      MessageTypeAck,
				Data:      ack,
				Timestamp: time.Now(),
			}
			select {
			case client.send <- msg:
			default:
				close(client.send)
				delete(api.clients, client)
			}

			api.logger.Info().Str("session", client.id).Msg("session connected")

		case client := <-api.unregister:
			if _, ok := api.clients[client]; ok {
				delete(api.clients, client)
				close(client.send)
				api.logger.Info().Str("session", client.id).Msg("session disconnected")
			}

		case message := <-api.broadcast:
			for client := range api.clients {
				select {
				case client.send <- message:
				default:
					close(client.send)
					delete(api.clients, client)
				}
			}
		}
	}
}

// BroadcastDelta fans a map view delta out to every connected session.
func (api *API) BroadcastDelta(d typedef.Delta) {
	data, err := json.Marshal(DeltaData{Delta: d})
	if err != nil {
		api.logger.Error().Err(err).Msg("delta marshal failed")
		return
	}
	message := WSMessage{
		Type:      MessageTypeDelta,
		Data:      data,
		Timestamp: time.Now(),
	}
	select {
	case api.broadcast <- message:
	default:
		// Channel is full, drop this delta
		api.logger.Warn().Msg("broadcast queue full, delta dropped")
	}
}

// ApplyDelta makes the hub usable as a script-engine session.
func (api *API) ApplyDelta(d typedef.Delta) {
	api.BroadcastDelta(d)
}

// Handler returns the HTTP handler that upgrades requests to widget
// sessions.
func (api *API) Handler() http.Handler {
	return http.HandlerFunc(api.handleWebSocket)
}

// handleWebSocket handles WebSocket connections
func (api *API) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		api.logger.Error().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := &WSClient{
		conn: conn,
		send: make(chan WSMessage, 256),
		api:  api,
		id:   uuid.NewString(),
	}

	api.register <- client

	// Start goroutines for reading and writing
	go client.writePump()
	go client.readPump()
}

// writePump pumps messages from the hub to the websocket connection
func (c *WSClient) writePump() {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}

			if err := c.conn.WriteJSON(message); err != nil {
				c.api.logger.Error().Err(err).Str("session", c.id).Msg("write failed")
				return
			}

		case <-ticker.C:
			// Send ping to keep connection alive
			if err := c.conn.WriteJSON(WSMessage{
				Type:      MessageTypePing,
				Timestamp: time.Now(),
			}); err != nil {
				return
			}
		}
	}
}

// readPump pumps messages from the websocket connection to the hub
func (c *WSClient) readPump() {
	defer func() {
		c.api.unregister <- c
		c.conn.Close()
	}()

	for {
		var message WSMessage
		if err := c.conn.ReadJSON(&message); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.api.logger.Error().Err(err).Str("session", c.id).Msg("read failed")
			}
			break
		}

		if message.Timestamp.IsZero() {
			message.Timestamp = time.Now()
		}

		if err := c.handleMessage(message); err != nil {
			errorMsg := WSMessage{
				Type:      MessageTypeError,
				RequestID: message.RequestID,
				Error:     err.Error(),
				Timestamp: time.Now(),
			}

			select {
			case c.send <- errorMsg:
			default:
				return
			}
		}
	}
}

// handleMessage processes incoming messages from clients
func (c *WSClient) handleMessage(message WSMessage) error {
	handler, exists := c.api.handlers[message.Type]
	if !exists {
		return fmt.Errorf("unknown message type: %s", message.Type)
	}

	return handler(c, message)
}

// registerHandlers registers all message handlers
func (api *API) registerHandlers() {
	api.handlers[MessageTypeCreateElement] = api.handleCreateElement
	api.handlers[MessageTypePing] = func(*WSClient, WSMessage) error { return nil }
}

// handleCreateElement answers an element-creation request with the fixed
// element identifier and styling class the container is tagged with.
func (api *API) handleCreateElement(c *WSClient, message WSMessage) error {
	data, err := json.Marshal(ElementSpec{
		ID:    widget.ElementID,
		Class: widget.StyleClass,
	})
	if err != nil {
		return err
	}

	reply := WSMessage{
		Type:      MessageTypeElementCreated,
		RequestID: message.RequestID,
		Data:      data,
		Timestamp: time.Now(),
	}
	select {
	case c.send <- reply:
		return nil
	default:
		return fmt.Errorf("session %s send queue full", c.id)
	}
}
