// ABOUTME: Remote control server for the metronome
// ABOUTME: Manages WebSocket clients, applies their commands and broadcasts state and ticks
package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	log "github.com/golang/glog"

	"github.com/Resonate-Protocol/metronome-go/internal/discovery"
	"github.com/Resonate-Protocol/metronome-go/pkg/metronome"
	"github.com/Resonate-Protocol/metronome-go/pkg/protocol"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Controller is the metronome surface remote commands act on
type Controller interface {
	SetTempo(bpm float64) float64
	AdjustTempo(delta float64) float64
	SetVolume(volume float64) float64
	AdjustVolume(delta float64) float64
	SetBeats(beats int) int
	AdjustBeats(delta int) int
	SetPlaying(playing bool)
	Toggle() bool
	Status() metronome.Status
}

// Config holds server configuration
type Config struct {
	Port       int // 0 picks a free port
	Name       string
	EnableMDNS bool

	// OnClientsChange is called with the client count after a connect or disconnect
	OnClientsChange func(clients int)
}

// Server accepts remote control connections
type Server struct {
	config   Config
	serverID string
	ctrl     Controller

	upgrader   websocket.Upgrader
	httpServer *http.Server
	mux        *http.ServeMux
	listener   net.Listener

	clients   map[string]*Client
	clientsMu sync.RWMutex

	clockStart time.Time

	mdnsManager *discovery.Manager

	shutdownMu sync.RWMutex
	isShutdown bool
	wg         sync.WaitGroup
}

// Client represents a connected remote
type Client struct {
	ID   string
	Name string
	Conn *websocket.Conn

	// Output channel for messages
	sendChan chan protocol.Message
}

// New creates a new server instance
func New(config Config, ctrl Controller) *Server {
	if config.Name == "" {
		config.Name = "Metronome"
	}

	s := &Server{
		config:   config,
		serverID: uuid.New().String(),
		ctrl:     ctrl,
		mux:      http.NewServeMux(),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// Local network control surface, any origin is accepted
				if origin := r.Header.Get("Origin"); origin != "" {
					log.V(1).Infof("Accepting WebSocket from origin: %s", origin)
				}
				return true
			},
		},
		clients:    make(map[string]*Client),
		clockStart: time.Now(),
	}
	s.mux.HandleFunc(protocol.Path, s.handleWebSocket)

	return s
}

// Handler returns the HTTP handler serving the WebSocket endpoint
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start listens and serves in the background
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.config.Port))
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	s.listener = ln
	s.httpServer = &http.Server{Handler: s.mux}

	port := ln.Addr().(*net.TCPAddr).Port
	log.Infof("Remote control listening on %s (ID: %s)", ln.Addr(), s.serverID)

	if s.config.EnableMDNS {
		s.mdnsManager = discovery.NewManager(discovery.Config{
			ServiceName: s.config.Name,
			Port:        port,
		})
		if err := s.mdnsManager.Advertise(); err != nil {
			log.Warningf("Failed to start mDNS advertisement: %v", err)
		} else {
			log.Infof("mDNS advertisement started")
		}
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.httpServer.Serve(ln); err != http.ErrServerClosed {
			log.Errorf("Remote control server error: %v", err)
		}
	}()

	return nil
}

// Addr returns the listening address, empty before Start
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop closes all connections and the listener
func (s *Server) Stop() {
	s.shutdownMu.Lock()
	if s.isShutdown {
		s.shutdownMu.Unlock()
		return
	}
	s.isShutdown = true
	s.shutdownMu.Unlock()

	if s.mdnsManager != nil {
		s.mdnsManager.Stop()
	}

	s.clientsMu.RLock()
	for _, client := range s.clients {
		client.Conn.Close()
	}
	s.clientsMu.RUnlock()

	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(ctx); err != nil {
			log.Warningf("HTTP server shutdown error: %v", err)
		}
	}

	s.wg.Wait()
	log.Infof("Remote control stopped")
}

// ClientCount returns the number of connected clients
func (s *Server) ClientCount() int {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	return len(s.clients)
}

// BroadcastState sends server/state to every client
func (s *Server) BroadcastState(status metronome.Status) {
	s.broadcast(protocol.TypeServerState, stateOf(status))
}

// BroadcastTick sends server/tick to every client
func (s *Server) BroadcastTick(beat, beats int) {
	s.broadcast(protocol.TypeServerTick, protocol.ServerTick{
		Beat:      beat,
		Beats:     beats,
		Timestamp: s.getClockMicros(),
	})
}

func (s *Server) broadcast(msgType string, payload interface{}) {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()

	for _, client := range s.clients {
		if err := s.sendMessage(client, msgType, payload); err != nil {
			log.V(1).Infof("Dropping %s for %s: %v", msgType, client.Name, err)
		}
	}
}

// handleWebSocket handles WebSocket connections
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	// Add under the read lock so Stop cannot reach Wait between the check and the Add
	s.shutdownMu.RLock()
	if s.isShutdown {
		s.shutdownMu.RUnlock()
		log.Infof("Rejecting connection from %s during shutdown", r.RemoteAddr)
		http.Error(w, "server shutting down", http.StatusServiceUnavailable)
		return
	}
	s.wg.Add(1)
	s.shutdownMu.RUnlock()
	defer s.wg.Done()

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warningf("WebSocket upgrade error: %v", err)
		return
	}

	log.Infof("New WebSocket connection from %s", r.RemoteAddr)
	s.handleConnection(conn)
}

// handleConnection manages a client connection
func (s *Server) handleConnection(conn *websocket.Conn) {
	defer conn.Close()

	// Wait for client/hello
	conn.SetReadDeadline(time.Now().Add(10 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		log.Warningf("Error reading hello: %v", err)
		return
	}
	conn.SetReadDeadline(time.Time{})

	msgType, payload, err := protocol.Decode(data)
	if err != nil {
		log.Warningf("Error decoding hello: %v", err)
		return
	}
	if msgType != protocol.TypeClientHello {
		log.Warningf("Expected client/hello, got %s", msgType)
		writeError(conn, "handshake_required", "first message must be client/hello")
		return
	}

	var hello protocol.ClientHello
	if err := json.Unmarshal(payload, &hello); err != nil {
		log.Warningf("Error unmarshaling client hello: %v", err)
		return
	}

	if hello.ClientID == "" || hello.Name == "" {
		log.Warningf("Client hello missing ClientID or Name")
		writeError(conn, "invalid_hello", "client_id and name are required")
		return
	}

	log.Infof("Client hello: %s (ID: %s)", hello.Name, hello.ClientID)

	client := &Client{
		ID:       hello.ClientID,
		Name:     hello.Name,
		Conn:     conn,
		sendChan: make(chan protocol.Message, 100),
	}

	// Stop closes every registered client after marking shutdown, so a
	// client registered later would never be closed
	s.shutdownMu.RLock()
	if s.isShutdown {
		s.shutdownMu.RUnlock()
		log.Infof("Rejecting %s during shutdown", hello.Name)
		return
	}

	// Check for duplicate client ID and register atomically
	s.clientsMu.Lock()
	if existing, exists := s.clients[hello.ClientID]; exists {
		s.clientsMu.Unlock()
		s.shutdownMu.RUnlock()
		log.Warningf("Client ID %s already connected (name: %s), rejecting duplicate", hello.ClientID, existing.Name)
		writeError(conn, "duplicate_client_id", "Client ID already connected")
		return
	}
	s.clients[client.ID] = client
	count := len(s.clients)
	s.clientsMu.Unlock()
	s.shutdownMu.RUnlock()

	s.notifyClients(count)

	writerDone := make(chan struct{})
	defer func() {
		s.clientsMu.Lock()
		delete(s.clients, client.ID)
		count := len(s.clients)
		close(client.sendChan)
		s.clientsMu.Unlock()
		<-writerDone

		log.Infof("Client disconnected: %s", client.Name)
		s.notifyClients(count)
	}()

	go func() {
		defer close(writerDone)
		s.clientWriter(client)
	}()

	s.sendMessage(client, protocol.TypeServerHello, protocol.ServerHello{
		ServerID: s.serverID,
		Name:     s.config.Name,
		Version:  protocol.ProtocolVersion,
	})
	s.sendMessage(client, protocol.TypeServerState, stateOf(s.ctrl.Status()))

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warningf("WebSocket error: %v", err)
			}
			return
		}

		if done := s.handleClientMessage(client, data); done {
			return
		}
	}
}

// clientWriter sends queued messages and keepalive pings
func (s *Server) clientWriter(client *Client) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	const writeDeadline = 10 * time.Second

	for {
		select {
		case msg, ok := <-client.sendChan:
			if !ok {
				return
			}
			client.Conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := client.Conn.WriteJSON(msg); err != nil {
				log.Warningf("Error writing message: %v", err)
				client.Conn.Close()
				drain(client.sendChan)
				return
			}

		case <-ticker.C:
			if err := client.Conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(writeDeadline)); err != nil {
				client.Conn.Close()
				drain(client.sendChan)
				return
			}
		}
	}
}

// handleClientMessage processes one message and reports whether the client said goodbye
func (s *Server) handleClientMessage(client *Client, data []byte) bool {
	msgType, payload, err := protocol.Decode(data)
	if err != nil {
		log.Warningf("Error decoding message from %s: %v", client.Name, err)
		s.sendError(client, "invalid_message", err.Error())
		return false
	}

	switch msgType {
	case protocol.TypeClientCommand:
		var cmd protocol.Command
		if err := json.Unmarshal(payload, &cmd); err != nil {
			s.sendError(client, "invalid_command", err.Error())
			return false
		}
		if err := s.apply(cmd); err != nil {
			s.sendError(client, "invalid_command", err.Error())
			return false
		}
		log.Infof("Command from %s: %s %v (delta=%v)", client.Name, cmd.Command, cmd.Value, cmd.Delta)

	case protocol.TypeClientGoodbye:
		var bye protocol.ClientGoodbye
		json.Unmarshal(payload, &bye)
		log.Infof("Client %s said goodbye: %s", client.Name, bye.Reason)
		return true

	default:
		log.Warningf("Unknown message type: %s", msgType)
		s.sendError(client, "unknown_type", fmt.Sprintf("unknown message type: %s", msgType))
	}
	return false
}

// apply runs a command against the controller. The controller's state
// change hook is responsible for broadcasting the result.
func (s *Server) apply(cmd protocol.Command) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	switch cmd.Command {
	case protocol.CommandTempo:
		if cmd.Delta {
			s.ctrl.AdjustTempo(cmd.Value)
		} else {
			s.ctrl.SetTempo(cmd.Value)
		}
	case protocol.CommandVolume:
		if cmd.Delta {
			s.ctrl.AdjustVolume(cmd.Value)
		} else {
			s.ctrl.SetVolume(cmd.Value)
		}
	case protocol.CommandBeats:
		if cmd.Delta {
			s.ctrl.AdjustBeats(int(cmd.Value))
		} else {
			s.ctrl.SetBeats(int(cmd.Value))
		}
	case protocol.CommandPlay:
		s.ctrl.SetPlaying(true)
	case protocol.CommandStop:
		s.ctrl.SetPlaying(false)
	case protocol.CommandToggle:
		s.ctrl.Toggle()
	}
	return nil
}

// sendMessage queues a JSON message for a client without blocking
func (s *Server) sendMessage(client *Client, msgType string, payload interface{}) error {
	select {
	case client.sendChan <- protocol.Message{Type: msgType, Payload: payload}:
		return nil
	default:
		return fmt.Errorf("client send buffer full")
	}
}

func (s *Server) sendError(client *Client, code, message string) {
	s.sendMessage(client, protocol.TypeServerError, protocol.ServerError{Error: code, Message: message})
}

func (s *Server) notifyClients(count int) {
	if s.config.OnClientsChange != nil {
		s.config.OnClientsChange(count)
	}
}

// getClockMicros returns the server clock in microseconds
func (s *Server) getClockMicros() int64 {
	return time.Since(s.clockStart).Microseconds()
}

// writeError sends server/error directly on a connection that never registered
func writeError(conn *websocket.Conn, code, message string) {
	conn.SetWriteDeadline(time.Now().Add(time.Second))
	conn.WriteJSON(protocol.Message{
		Type:    protocol.TypeServerError,
		Payload: protocol.ServerError{Error: code, Message: message},
	})
}

func drain(ch <-chan protocol.Message) {
	for range ch {
	}
}

func stateOf(status metronome.Status) protocol.ServerState {
	return protocol.ServerState{
		Tempo:   status.Tempo,
		Volume:  status.Volume,
		Playing: status.Playing,
		Beat:    status.Beat,
		Beats:   status.Beats,
	}
}
