/*
Package protocols provides lookup functionality for IP protocol IDs and their names
*/
package protocols

import "fmt"

// Enumeration of the IP protocols relevant for capture file naming
const (
	ICMP   byte = 0x01 //  1
	TCP    byte = 0x06 //  6
	UDP    byte = 0x11 // 17
	GRE    byte = 0x2F // 47
	ESP    byte = 0x32 // 50
	ICMPv6 byte = 0x3A // 58
	SCTP   byte = 0x84 // 132
)

var ipProtocols = map[byte]string{
	ICMP:   "ICMP",
	TCP:    "TCP",
	UDP:    "UDP",
	GRE:    "GRE",
	ESP:    "ESP",
	ICMPv6: "ICMPv6",
	SCTP:   "SCTP",
}

// GetIPProto returns the friendly name for a given protocol id. Protocols
// without a well-known name are rendered as their zero-padded numeric value.
func GetIPProto(id byte) string {
	if name, exists := ipProtocols[id]; exists {
		return name
	}
	return fmt.Sprintf("%03d", id)
}

// IsPortless returns whether the protocol carries no transport layer ports
// (and hence no port information can appear in a derived file name)
func IsPortless(id byte) bool {
	return id == ICMP || id == ICMPv6
}
