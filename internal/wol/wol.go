// Package wol constructs and sends IEEE 802.3 wake-on-LAN magic
// packets. No example repository in the retrieval pack builds a WOL
// packet; this is a small, well-defined wire format (six 0xFF bytes
// followed by the target MAC repeated sixteen times) with nothing a
// third-party library would meaningfully add for a single
// fire-and-forget UDP broadcast, so it is implemented directly over the
// standard library's net package (see DESIGN.md).
package wol

import (
	"encoding/hex"
	"fmt"
	"net"
	"strings"
)

// ParseMAC parses a colon- or hyphen-separated MAC address string into
// its 6 raw bytes.
func ParseMAC(s string) ([6]byte, error) {
	var mac [6]byte
	hw, err := net.ParseMAC(s)
	if err != nil {
		return mac, fmt.Errorf("wol: invalid MAC address %q: %w", s, err)
	}
	if len(hw) != 6 {
		return mac, fmt.Errorf("wol: MAC address %q is not 6 bytes", s)
	}
	copy(mac[:], hw)
	return mac, nil
}

// MagicPacket builds the 102-byte WOL payload for the given MAC.
func MagicPacket(mac [6]byte) []byte {
	packet := make([]byte, 0, 102)
	for i := 0; i < 6; i++ {
		packet = append(packet, 0xFF)
	}
	for i := 0; i < 16; i++ {
		packet = append(packet, mac[:]...)
	}
	return packet
}

// Send broadcasts a magic packet for mac over UDP port 9, the
// conventional wake-on-LAN port.
func Send(mac [6]byte) error {
	conn, err := net.Dial("udp", "255.255.255.255:9")
	if err != nil {
		return fmt.Errorf("wol: dial broadcast: %w", err)
	}
	defer conn.Close()

	_, err = conn.Write(MagicPacket(mac))
	if err != nil {
		return fmt.Errorf("wol: write packet: %w", err)
	}
	return nil
}

// String renders a MAC for logging.
func String(mac [6]byte) string {
	parts := make([]string, 6)
	for i, b := range mac {
		parts[i] = hex.EncodeToString([]byte{b})
	}
	return strings.Join(parts, ":")
}
