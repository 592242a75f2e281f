// ABOUTME: Metronome remote protocol message type definitions
// ABOUTME: Defines structs and names for every message type
package protocol

import (
	"encoding/json"
	"fmt"
)

const (
	// ProtocolVersion is sent in both hello messages
	ProtocolVersion = 1

	// Path is the WebSocket endpoint
	Path = "/metronome"

	// DefaultPort is the remote control port
	DefaultPort = 8928
)

// Message types
const (
	TypeClientHello   = "client/hello"
	TypeClientCommand = "client/command"
	TypeClientGoodbye = "client/goodbye"
	TypeServerHello   = "server/hello"
	TypeServerState   = "server/state"
	TypeServerTick    = "server/tick"
	TypeServerError   = "server/error"
)

// Command names carried in client/command
const (
	CommandTempo  = "tempo"
	CommandVolume = "volume"
	CommandBeats  = "beats"
	CommandPlay   = "play"
	CommandStop   = "stop"
	CommandToggle = "toggle"
)

// Message is the top-level wrapper for all protocol messages
type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// ClientHello is sent by clients to initiate the handshake
type ClientHello struct {
	ClientID   string      `json:"client_id"`
	Name       string      `json:"name"`
	Version    int         `json:"version"`
	DeviceInfo *DeviceInfo `json:"device_info,omitempty"`
}

// DeviceInfo contains device identification
type DeviceInfo struct {
	ProductName     string `json:"product_name"`
	Manufacturer    string `json:"manufacturer"`
	SoftwareVersion string `json:"software_version"`
}

// ServerHello is the server's response to client/hello
type ServerHello struct {
	ServerID string `json:"server_id"`
	Name     string `json:"name"`
	Version  int    `json:"version"`
}

// Command changes a metronome parameter.
// For tempo, volume and beats, Value is absolute unless Delta is set.
type Command struct {
	Command string  `json:"command"`
	Value   float64 `json:"value,omitempty"`
	Delta   bool    `json:"delta,omitempty"`
}

// Validate checks the command name
func (c Command) Validate() error {
	switch c.Command {
	case CommandTempo, CommandVolume, CommandBeats, CommandPlay, CommandStop, CommandToggle:
		return nil
	default:
		return fmt.Errorf("unknown command: %q", c.Command)
	}
}

// ServerState reports the current metronome parameters
type ServerState struct {
	Tempo   float64 `json:"tempo"`
	Volume  float64 `json:"volume"`
	Playing bool    `json:"playing"`
	Beat    int     `json:"beat"`
	Beats   int     `json:"beats"`
}

// ServerTick is sent on every beat
type ServerTick struct {
	Beat      int   `json:"beat"`
	Beats     int   `json:"beats"`
	Timestamp int64 `json:"timestamp"` // microseconds since server start
}

// ServerError reports a rejected message
type ServerError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// ClientGoodbye is sent before a client disconnects
type ClientGoodbye struct {
	Reason string `json:"reason"`
}

// rawMessage is used to decode a message before its type is known
type rawMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Decode splits a wire message into its type and raw payload
func Decode(data []byte) (string, json.RawMessage, error) {
	var msg rawMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return "", nil, fmt.Errorf("failed to parse message: %w", err)
	}
	if msg.Type == "" {
		return "", nil, fmt.Errorf("message has no type")
	}
	return msg.Type, msg.Payload, nil
}
