// ABOUTME: WebSocket client for the metronome remote protocol
// ABOUTME: Handles connection, handshake, commands and message routing
package protocol

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sync"
	"time"

	log "github.com/golang/glog"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Config holds client configuration
type Config struct {
	ServerAddr string
	ClientID   string // generated when empty
	Name       string
	DeviceInfo DeviceInfo
}

// Client represents a WebSocket client
type Client struct {
	config Config
	conn   *websocket.Conn
	mu     sync.RWMutex
	hello  ServerHello

	// Message channels
	State  chan ServerState
	Ticks  chan ServerTick
	Errors chan ServerError

	// State
	connected bool
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewClient creates a new WebSocket client
func NewClient(config Config) *Client {
	if config.ClientID == "" {
		config.ClientID = uuid.New().String()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Client{
		config: config,
		State:  make(chan ServerState, 10),
		Ticks:  make(chan ServerTick, 64),
		Errors: make(chan ServerError, 10),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Connect establishes WebSocket connection and performs handshake
func (c *Client) Connect() error {
	u := url.URL{Scheme: "ws", Host: c.config.ServerAddr, Path: Path}
	log.Infof("Connecting to %s", u.String())

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return fmt.Errorf("dial failed: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.mu.Unlock()

	if err := c.handshake(); err != nil {
		c.Close()
		return fmt.Errorf("handshake failed: %w", err)
	}

	go c.readMessages()

	return nil
}

// handshake sends client/hello and waits for server/hello
func (c *Client) handshake() error {
	hello := ClientHello{
		ClientID:   c.config.ClientID,
		Name:       c.config.Name,
		Version:    ProtocolVersion,
		DeviceInfo: &c.config.DeviceInfo,
	}

	if err := c.sendJSON(Message{Type: TypeClientHello, Payload: hello}); err != nil {
		return fmt.Errorf("failed to send client/hello: %w", err)
	}

	c.conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, data, err := c.conn.ReadMessage()
	if err != nil {
		return fmt.Errorf("failed to read server/hello: %w", err)
	}
	c.conn.SetReadDeadline(time.Time{})

	msgType, payload, err := Decode(data)
	if err != nil {
		return err
	}

	switch msgType {
	case TypeServerHello:
	case TypeServerError:
		var serverErr ServerError
		json.Unmarshal(payload, &serverErr)
		return fmt.Errorf("server rejected hello: %s", serverErr.Message)
	default:
		return fmt.Errorf("expected server/hello, got %s", msgType)
	}

	var serverHello ServerHello
	if err := json.Unmarshal(payload, &serverHello); err != nil {
		return fmt.Errorf("failed to parse server/hello: %w", err)
	}

	c.mu.Lock()
	c.hello = serverHello
	c.mu.Unlock()

	log.Infof("Handshake complete with %s", serverHello.Name)
	return nil
}

// sendJSON sends a JSON message
func (c *Client) sendJSON(msg Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.connected {
		return fmt.Errorf("not connected")
	}

	return c.conn.WriteJSON(msg)
}

// readMessages reads and routes incoming messages
func (c *Client) readMessages() {
	defer c.Close()

	for {
		messageType, data, err := c.conn.ReadMessage()
		if err != nil {
			if c.ctx.Err() == nil {
				log.Warningf("Read error: %v", err)
			}
			return
		}

		if messageType != websocket.TextMessage {
			log.Warningf("Unexpected WebSocket message type: %d", messageType)
			continue
		}

		c.handleJSONMessage(data)
	}
}

// handleJSONMessage routes JSON messages. Full channels drop the message.
func (c *Client) handleJSONMessage(data []byte) {
	msgType, payload, err := Decode(data)
	if err != nil {
		log.Warningf("Failed to parse JSON message: %v", err)
		return
	}

	switch msgType {
	case TypeServerState:
		var state ServerState
		if err := json.Unmarshal(payload, &state); err != nil {
			log.Warningf("Failed to parse server/state: %v", err)
			return
		}
		select {
		case c.State <- state:
		default:
			log.Warningf("Server state channel full, dropping message")
		}

	case TypeServerTick:
		var tick ServerTick
		if err := json.Unmarshal(payload, &tick); err != nil {
			log.Warningf("Failed to parse server/tick: %v", err)
			return
		}
		select {
		case c.Ticks <- tick:
		default:
		}

	case TypeServerError:
		var serverErr ServerError
		if err := json.Unmarshal(payload, &serverErr); err != nil {
			log.Warningf("Failed to parse server/error: %v", err)
			return
		}
		log.Warningf("Server error: %s: %s", serverErr.Error, serverErr.Message)
		select {
		case c.Errors <- serverErr:
		default:
		}

	default:
		log.Warningf("Unknown message type: %s", msgType)
	}
}

// SendCommand sends a client/command message
func (c *Client) SendCommand(cmd Command) error {
	if err := cmd.Validate(); err != nil {
		return err
	}
	return c.sendJSON(Message{Type: TypeClientCommand, Payload: cmd})
}

// SendGoodbye sends a client/goodbye message before disconnecting
func (c *Client) SendGoodbye(reason string) error {
	return c.sendJSON(Message{Type: TypeClientGoodbye, Payload: ClientGoodbye{Reason: reason}})
}

// ServerName returns the name from server/hello
func (c *Client) ServerName() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hello.Name
}

// Done is closed when the connection ends
func (c *Client) Done() <-chan struct{} {
	return c.ctx.Done()
}

// Close closes the connection
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.connected {
		c.connected = false
		c.cancel()
		c.conn.Close()
		log.Infof("Connection closed")
	}
}

// IsConnected returns connection status
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}
