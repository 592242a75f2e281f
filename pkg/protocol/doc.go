// ABOUTME: Metronome remote control protocol package
// ABOUTME: Defines protocol messages and WebSocket client
// Package protocol implements the metronome remote control protocol.
//
// Messages are JSON objects {"type": ..., "payload": ...} over a WebSocket
// at Path. A client opens with client/hello and receives server/hello,
// then sends client/command messages. The server pushes server/state after
// every parameter change and server/tick on every beat.
//
// Example:
//
//	client := protocol.NewClient(protocol.Config{ServerAddr: "localhost:8928", Name: "pedal"})
//	err := client.Connect()
//	err = client.SendCommand(protocol.Command{Command: protocol.CommandTempo, Value: 96})
package protocol
