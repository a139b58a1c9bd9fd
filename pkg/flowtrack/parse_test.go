package flowtrack

import (
	"encoding/binary"
	"net/netip"
	"testing"
	"time"

	"github.com/els0r/alertpcap/pkg/protocols"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/ipv4"
	"golang.org/x/net/ipv6"
)

// ipv4Layer builds a minimal IPv4 header (plus transport ports where
// applicable) for parser tests
func ipv4Layer(proto byte, src, dst [4]byte, sport, dport uint16) []byte {
	layer := make([]byte, ipv4.HeaderLen+4)
	layer[0] = 0x45
	layer[9] = proto
	copy(layer[12:16], src[:])
	copy(layer[16:20], dst[:])
	binary.BigEndian.PutUint16(layer[ipv4.HeaderLen:], sport)
	binary.BigEndian.PutUint16(layer[ipv4.HeaderLen+2:], dport)
	return layer
}

func ipv6Layer(proto byte, src, dst [16]byte, sport, dport uint16) []byte {
	layer := make([]byte, ipv6.HeaderLen+4)
	layer[0] = 0x60
	layer[6] = proto
	copy(layer[8:24], src[:])
	copy(layer[24:40], dst[:])
	binary.BigEndian.PutUint16(layer[ipv6.HeaderLen:], sport)
	binary.BigEndian.PutUint16(layer[ipv6.HeaderLen+2:], dport)
	return layer
}

func TestParseIPLayerIPv4(t *testing.T) {
	layer := ipv4Layer(protocols.TCP, [4]byte{10, 0, 0, 1}, [4]byte{10, 0, 0, 2}, 1234, 80)

	epHash, isIPv4, err := ParseIPLayer(layer)
	require.Nil(t, err)
	require.True(t, isIPv4)

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	ident := epHash.Ident(isIPv4, start)
	require.Equal(t, netip.MustParseAddr("10.0.0.1"), ident.SrcIP)
	require.Equal(t, netip.MustParseAddr("10.0.0.2"), ident.DstIP)
	require.Equal(t, uint16(1234), ident.SrcPort)
	require.Equal(t, uint16(80), ident.DstPort)
	require.Equal(t, protocols.TCP, ident.Proto)
	require.Equal(t, start, ident.StartTime)
}

func TestParseIPLayerIPv6(t *testing.T) {
	src := netip.MustParseAddr("2001:db8::1").As16()
	dst := netip.MustParseAddr("2001:db8::2").As16()
	layer := ipv6Layer(protocols.UDP, src, dst, 5000, 53)

	epHash, isIPv4, err := ParseIPLayer(layer)
	require.Nil(t, err)
	require.False(t, isIPv4)

	ident := epHash.Ident(isIPv4, time.Time{})
	require.Equal(t, netip.MustParseAddr("2001:db8::1"), ident.SrcIP)
	require.Equal(t, netip.MustParseAddr("2001:db8::2"), ident.DstIP)
	require.Equal(t, uint16(5000), ident.SrcPort)
	require.Equal(t, uint16(53), ident.DstPort)
	require.Equal(t, protocols.UDP, ident.Proto)
}

func TestParseIPLayerICMP(t *testing.T) {
	layer := ipv4Layer(protocols.ICMP, [4]byte{10, 0, 0, 1}, [4]byte{10, 0, 0, 2}, 0, 0)

	epHash, isIPv4, err := ParseIPLayer(layer)
	require.Nil(t, err)
	require.True(t, isIPv4)

	// no transport layer ports for ICMP
	ident := epHash.Ident(isIPv4, time.Time{})
	require.Equal(t, uint16(0), ident.SrcPort)
	require.Equal(t, uint16(0), ident.DstPort)
	require.Equal(t, protocols.ICMP, ident.Proto)
}

func TestParseIPLayerErrors(t *testing.T) {
	fragmented := ipv4Layer(protocols.TCP, [4]byte{10, 0, 0, 1}, [4]byte{10, 0, 0, 2}, 1234, 80)
	fragmented[7] = 0x10

	for _, tc := range []struct {
		name  string
		layer []byte
	}{
		{"empty", nil},
		{"short_ipv4", []byte{0x45, 0x00}},
		{"short_ipv6", []byte{0x60, 0x00}},
		{"unknown_version", []byte{0x10, 0x00, 0x00, 0x00}},
		{"fragmented", fragmented},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := ParseIPLayer(tc.layer)
			require.Error(t, err)
		})
	}
}

func TestEPHashReverse(t *testing.T) {
	layer := ipv4Layer(protocols.TCP, [4]byte{10, 0, 0, 1}, [4]byte{10, 0, 0, 2}, 1234, 80)
	epHash, _, err := ParseIPLayer(layer)
	require.Nil(t, err)

	reverse := ipv4Layer(protocols.TCP, [4]byte{10, 0, 0, 2}, [4]byte{10, 0, 0, 1}, 80, 1234)
	epHashReverse, _, err := ParseIPLayer(reverse)
	require.Nil(t, err)

	require.Equal(t, epHashReverse, epHash.Reverse())
	require.Equal(t, epHash, epHash.Reverse().Reverse())
}
