// ABOUTME: Command line remote control for a running metronome
// ABOUTME: Finds a metronome via mDNS or address, sends one command or watches state and beats
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	log "github.com/golang/glog"

	"github.com/Resonate-Protocol/metronome-go/internal/discovery"
	"github.com/Resonate-Protocol/metronome-go/internal/version"
	"github.com/Resonate-Protocol/metronome-go/pkg/protocol"
)

var (
	serverAddr      = flag.String("server", "", "Metronome address host:port (default: discover via mDNS)")
	name            = flag.String("name", "", "Remote friendly name (default: hostname-metronome-remote)")
	discoverTimeout = flag.Duration("discover-timeout", 5*time.Second, "How long to browse for a metronome")
)

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: %s [flags] <command> [value]

Commands:
  tempo <bpm>|+n|-n     set or adjust tempo
  volume <0-1>|+n|-n    set or adjust volume
  beats <2-12>|+n|-n    set or adjust beats per bar
  play | stop | toggle
  status                print the current state
  watch                 print state changes and beats until interrupted

Flags:
`, os.Args[0])
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	flag.Parse()
	flag.Set("logtostderr", "true")
	defer log.Flush()

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	addr := *serverAddr
	if addr == "" {
		var err error
		if addr, err = discover(*discoverTimeout); err != nil {
			log.Exitf("%v", err)
		}
	}

	client := protocol.NewClient(protocol.Config{
		ServerAddr: addr,
		Name:       clientName(),
		DeviceInfo: protocol.DeviceInfo{
			ProductName:     version.Product + " Remote",
			Manufacturer:    version.Manufacturer,
			SoftwareVersion: version.Version,
		},
	})
	if err := client.Connect(); err != nil {
		log.Exitf("Connection failed: %v", err)
	}
	defer client.Close()

	switch args[0] {
	case "status":
		select {
		case state := <-client.State:
			fmt.Println(formatState(state))
		case <-time.After(5 * time.Second):
			log.Exitf("No state received from %s", client.ServerName())
		}

	case "watch":
		watch(client)

	default:
		cmd, err := parseCommand(args)
		if err != nil {
			usage()
			log.Exitf("%v", err)
		}
		if err := client.SendCommand(cmd); err != nil {
			log.Exitf("Failed to send command: %v", err)
		}
		awaitResult(client)
	}

	client.SendGoodbye("done")
}

// parseCommand turns command line arguments into a protocol command.
// Values with a leading sign are relative.
func parseCommand(args []string) (protocol.Command, error) {
	cmd := protocol.Command{Command: args[0]}

	switch cmd.Command {
	case protocol.CommandPlay, protocol.CommandStop, protocol.CommandToggle:
		if len(args) != 1 {
			return cmd, fmt.Errorf("%s takes no value", cmd.Command)
		}
		return cmd, nil

	case protocol.CommandTempo, protocol.CommandVolume, protocol.CommandBeats:
		if len(args) != 2 {
			return cmd, fmt.Errorf("%s needs exactly one value", cmd.Command)
		}
		value, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return cmd, fmt.Errorf("invalid %s value %q: %w", cmd.Command, args[1], err)
		}
		cmd.Value = value
		cmd.Delta = strings.HasPrefix(args[1], "+") || strings.HasPrefix(args[1], "-")
		return cmd, nil

	default:
		return cmd, fmt.Errorf("unknown command: %q", cmd.Command)
	}
}

// awaitResult prints the state the command produced or the server's error
func awaitResult(client *protocol.Client) {
	timeout := time.After(2 * time.Second)
	// The first state is the one sent on connect
	seen := 0
	for {
		select {
		case state := <-client.State:
			seen++
			if seen > 1 {
				fmt.Println(formatState(state))
				return
			}
		case serverErr := <-client.Errors:
			log.Exitf("Server rejected command: %s", serverErr.Message)
		case <-timeout:
			return
		case <-client.Done():
			return
		}
	}
}

func watch(client *protocol.Client) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	fmt.Printf("Watching %s, Ctrl-C to stop\n", client.ServerName())
	for {
		select {
		case state := <-client.State:
			fmt.Println(formatState(state))
		case tick := <-client.Ticks:
			fmt.Printf("beat %d/%d\n", tick.Beat, tick.Beats)
		case serverErr := <-client.Errors:
			log.Warningf("Server error: %s", serverErr.Message)
		case <-client.Done():
			log.Infof("Metronome disconnected")
			return
		case <-sigChan:
			return
		}
	}
}

func formatState(s protocol.ServerState) string {
	playing := "stopped"
	if s.Playing {
		playing = "playing"
	}
	return fmt.Sprintf("%s  %.0f BPM  %d/%d  volume %.0f%%", playing, s.Tempo, s.Beat, s.Beats, s.Volume*100)
}

// discover browses mDNS and returns the first metronome found
func discover(timeout time.Duration) (string, error) {
	log.Infof("Searching for metronomes...")

	disc := discovery.NewManager(discovery.Config{})
	defer disc.Stop()
	disc.Browse()

	select {
	case server := <-disc.Servers():
		log.Infof("Found %s at %s", server.Name, server.Addr())
		return server.Addr(), nil
	case <-time.After(timeout):
		return "", fmt.Errorf("no metronome found after %s", timeout)
	}
}

func clientName() string {
	if *name != "" {
		return *name
	}
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	return fmt.Sprintf("%s-metronome-remote", hostname)
}
