package flowtrack

import (
	"fmt"
	"net/netip"
	"time"

	"github.com/els0r/alertpcap/pkg/alertpcap"
	"github.com/els0r/alertpcap/pkg/protocols"
	"golang.org/x/net/ipv4"
	"golang.org/x/net/ipv6"
)

const (
	ipVersionV4 = 0x04 // 4
	ipVersionV6 = 0x06 // 6
)

// EPHash is a typedef that allows us to replace the type of endpoint hash
// (src addr | dst addr | dport | sport | proto)
type EPHash [37]byte

// Reverse calculates the reverse of an EPHash (i.e. source / destination switched)
func (h EPHash) Reverse() (rev EPHash) {
	copy(rev[0:16], h[16:32])
	copy(rev[16:32], h[0:16])
	copy(rev[32:34], h[34:36])
	copy(rev[34:36], h[32:34])
	rev[36] = h[36]

	return
}

// Ident converts the endpoint hash into the flow identity used for capture
// file key derivation. The first observed packet defines the flow direction
// and start time
func (h EPHash) Ident(isIPv4 bool, start time.Time) alertpcap.FlowIdent {
	var src, dst netip.Addr
	if isIPv4 {
		src = netip.AddrFrom4([4]byte(h[0:4]))
		dst = netip.AddrFrom4([4]byte(h[16:20]))
	} else {
		src = netip.AddrFrom16([16]byte(h[0:16]))
		dst = netip.AddrFrom16([16]byte(h[16:32]))
	}

	return alertpcap.FlowIdent{
		SrcIP:     src,
		DstIP:     dst,
		SrcPort:   uint16(h[34])<<8 | uint16(h[35]),
		DstPort:   uint16(h[32])<<8 | uint16(h[33]),
		Proto:     h[36],
		StartTime: start,
	}
}

// ParseIPLayer extracts the endpoint hash from a raw IPv4 / IPv6 layer
func ParseIPLayer(ipLayer []byte) (epHash EPHash, isIPv4 bool, err error) {

	if len(ipLayer) == 0 {
		err = fmt.Errorf("empty IP layer")
		return
	}

	if version := ipLayer[0] >> 4; version == ipVersionV4 {

		if len(ipLayer) < ipv4.HeaderLen {
			err = fmt.Errorf("ipv4 packet too short (len %d)", len(ipLayer))
			return
		}

		isIPv4 = true
		protocol := ipLayer[9]

		copy(epHash[0:4], ipLayer[12:16])
		copy(epHash[16:20], ipLayer[16:20])

		if protocol == protocols.TCP || protocol == protocols.UDP || protocol == protocols.SCTP {

			// return a decoding error if the packet carries anything other
			// than the first fragment, i.e. if it lacks a transport layer
			// header
			fragOffset := (uint16(0x1f&ipLayer[6]) << 8) | uint16(ipLayer[7])
			if fragOffset != 0 {
				err = fmt.Errorf("fragmented IP packet: offset: %d", fragOffset)
				return
			}

			if len(ipLayer) < ipv4.HeaderLen+4 {
				err = fmt.Errorf("transport layer too short (len %d)", len(ipLayer))
				return
			}
			copy(epHash[34:36], ipLayer[ipv4.HeaderLen:ipv4.HeaderLen+2])
			copy(epHash[32:34], ipLayer[ipv4.HeaderLen+2:ipv4.HeaderLen+4])
		}

		epHash[36] = protocol
		return
	} else if version == ipVersionV6 {

		if len(ipLayer) < ipv6.HeaderLen {
			err = fmt.Errorf("ipv6 packet too short (len %d)", len(ipLayer))
			return
		}

		protocol := ipLayer[6]

		copy(epHash[0:16], ipLayer[8:24])
		copy(epHash[16:32], ipLayer[24:40])

		if protocol == protocols.TCP || protocol == protocols.UDP || protocol == protocols.SCTP {
			if len(ipLayer) < ipv6.HeaderLen+4 {
				err = fmt.Errorf("transport layer too short (len %d)", len(ipLayer))
				return
			}
			copy(epHash[34:36], ipLayer[ipv6.HeaderLen:ipv6.HeaderLen+2])
			copy(epHash[32:34], ipLayer[ipv6.HeaderLen+2:ipv6.HeaderLen+4])
		}

		epHash[36] = protocol
		return
	}

	err = fmt.Errorf("received neither IPv4 nor IPv6 IP header (version %d)", ipLayer[0]>>4)
	return
}
