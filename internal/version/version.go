// ABOUTME: Version information for the metronome
// ABOUTME: Reported in remote control handshakes and the CLI
package version

const (
	// Version is the release version
	Version = "0.1.0"

	// Product is the product name sent as device info
	Product = "Metronome"

	// Manufacturer is the manufacturer sent as device info
	Manufacturer = "Resonate"
)
