// ABOUTME: Tests for metronome protocol message types
// ABOUTME: Verifies wire field names, decoding and command validation
package protocol

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestDecode(t *testing.T) {
	data := []byte(`{"type":"client/command","payload":{"command":"tempo","value":96}}`)

	msgType, payload, err := Decode(data)
	if err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if msgType != TypeClientCommand {
		t.Errorf("expected type %s, got %s", TypeClientCommand, msgType)
	}

	var cmd Command
	if err := json.Unmarshal(payload, &cmd); err != nil {
		t.Fatalf("failed to parse payload: %v", err)
	}
	if cmd.Command != CommandTempo || cmd.Value != 96 || cmd.Delta {
		t.Errorf("unexpected command: %+v", cmd)
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", "tempo 96"},
		{"missing type", `{"payload":{}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := Decode([]byte(tt.data)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestCommandValidate(t *testing.T) {
	valid := []string{CommandTempo, CommandVolume, CommandBeats, CommandPlay, CommandStop, CommandToggle}
	for _, name := range valid {
		if err := (Command{Command: name}).Validate(); err != nil {
			t.Errorf("%s: unexpected error: %v", name, err)
		}
	}

	if err := (Command{Command: "swing"}).Validate(); err == nil {
		t.Error("expected error for unknown command")
	}
}

func TestWireFieldNames(t *testing.T) {
	tests := []struct {
		name     string
		msg      Message
		contains []string
	}{
		{
			name: "hello",
			msg: Message{Type: TypeClientHello, Payload: ClientHello{
				ClientID: "abc", Name: "pedal", Version: ProtocolVersion,
			}},
			contains: []string{`"type":"client/hello"`, `"client_id":"abc"`, `"version":1`},
		},
		{
			name:     "state",
			msg:      Message{Type: TypeServerState, Payload: ServerState{Tempo: 120, Volume: 0.5, Playing: true, Beat: 2, Beats: 4}},
			contains: []string{`"tempo":120`, `"volume":0.5`, `"playing":true`, `"beat":2`, `"beats":4`},
		},
		{
			name:     "delta command",
			msg:      Message{Type: TypeClientCommand, Payload: Command{Command: CommandTempo, Value: -1, Delta: true}},
			contains: []string{`"command":"tempo"`, `"value":-1`, `"delta":true`},
		},
		{
			name:     "toggle omits value",
			msg:      Message{Type: TypeClientCommand, Payload: Command{Command: CommandToggle}},
			contains: []string{`"command":"toggle"`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.msg)
			if err != nil {
				t.Fatalf("failed to marshal: %v", err)
			}
			for _, want := range tt.contains {
				if !strings.Contains(string(data), want) {
					t.Errorf("expected %s in %s", want, data)
				}
			}
		})
	}
}

func TestToggleOmitsValue(t *testing.T) {
	data, _ := json.Marshal(Command{Command: CommandToggle})
	if strings.Contains(string(data), "value") || strings.Contains(string(data), "delta") {
		t.Errorf("expected no value or delta in %s", data)
	}
}

func TestNewClientGeneratesID(t *testing.T) {
	c := NewClient(Config{ServerAddr: "localhost:8928", Name: "test"})
	if c.config.ClientID == "" {
		t.Error("expected generated client ID")
	}
	if c.IsConnected() {
		t.Error("expected client to start disconnected")
	}
	if err := c.SendCommand(Command{Command: CommandPlay}); err == nil {
		t.Error("expected error sending while disconnected")
	}
}
