package alertpcap

import (
	"net/netip"
	"testing"
	"time"

	"github.com/els0r/alertpcap/pkg/protocols"
	"github.com/stretchr/testify/require"
)

func TestPaths(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for _, tc := range []struct {
		name       string
		ident      FlowIdent
		compressed bool
		wantDir    string
		wantPath   string
	}{
		{
			name: "tcp",
			ident: FlowIdent{
				SrcIP: netip.MustParseAddr("10.0.0.1"), DstIP: netip.MustParseAddr("10.0.0.2"),
				SrcPort: 1234, DstPort: 80, Proto: protocols.TCP, StartTime: start,
			},
			wantDir:  "alert/2024-01-01/10.0.0.1-10.0.0.2",
			wantPath: "alert/2024-01-01/10.0.0.1-10.0.0.2/10.0.0.1:1234-10.0.0.2:80-2024-01-01T00:00:00.TCP.pcap",
		},
		{
			name: "icmp_portless",
			ident: FlowIdent{
				SrcIP: netip.MustParseAddr("10.0.0.1"), DstIP: netip.MustParseAddr("10.0.0.2"),
				Proto: protocols.ICMP, StartTime: start,
			},
			wantDir:  "alert/2024-01-01/10.0.0.1-10.0.0.2",
			wantPath: "alert/2024-01-01/10.0.0.1-10.0.0.2/10.0.0.1-10.0.0.2-2024-01-01T00:00:00.ICMP.pcap",
		},
		{
			name: "icmpv6_portless",
			ident: FlowIdent{
				SrcIP: netip.MustParseAddr("2001:db8::1"), DstIP: netip.MustParseAddr("2001:db8::2"),
				Proto: protocols.ICMPv6, StartTime: start,
			},
			wantDir:  "alert/2024-01-01/2001:db8::1-2001:db8::2",
			wantPath: "alert/2024-01-01/2001:db8::1-2001:db8::2/2001:db8::1-2001:db8::2-2024-01-01T00:00:00.ICMPv6.pcap",
		},
		{
			name: "unknown_protocol_numeric",
			ident: FlowIdent{
				SrcIP: netip.MustParseAddr("10.0.0.1"), DstIP: netip.MustParseAddr("10.0.0.2"),
				Proto: 253, StartTime: start,
			},
			wantDir:  "alert/2024-01-01/10.0.0.1-10.0.0.2",
			wantPath: "alert/2024-01-01/10.0.0.1-10.0.0.2/10.0.0.1-10.0.0.2-2024-01-01T00:00:00.253.pcap",
		},
		{
			name: "lz4_suffix",
			ident: FlowIdent{
				SrcIP: netip.MustParseAddr("10.0.0.1"), DstIP: netip.MustParseAddr("10.0.0.2"),
				SrcPort: 1234, DstPort: 80, Proto: protocols.TCP, StartTime: start,
			},
			compressed: true,
			wantDir:    "alert/2024-01-01/10.0.0.1-10.0.0.2",
			wantPath:   "alert/2024-01-01/10.0.0.1-10.0.0.2/10.0.0.1:1234-10.0.0.2:80-2024-01-01T00:00:00.TCP.pcap.lz4",
		},
		{
			name: "date_bucket_follows_start_time",
			ident: FlowIdent{
				SrcIP: netip.MustParseAddr("10.0.0.1"), DstIP: netip.MustParseAddr("10.0.0.2"),
				SrcPort: 1234, DstPort: 80, Proto: protocols.TCP,
				StartTime: time.Date(2024, 3, 15, 23, 59, 59, 0, time.UTC),
			},
			wantDir:  "alert/2024-03-15/10.0.0.1-10.0.0.2",
			wantPath: "alert/2024-03-15/10.0.0.1-10.0.0.2/10.0.0.1:1234-10.0.0.2:80-2024-03-15T23:59:59.TCP.pcap",
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			dir, path := tc.ident.paths("alert", tc.compressed)
			require.Equal(t, tc.wantDir, dir)
			require.Equal(t, tc.wantPath, path)
		})
	}
}

func TestPathsDeterministic(t *testing.T) {
	ident := FlowIdent{
		SrcIP: netip.MustParseAddr("10.0.0.1"), DstIP: netip.MustParseAddr("10.0.0.2"),
		SrcPort: 1234, DstPort: 80, Proto: protocols.TCP,
		StartTime: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
	}

	_, path1 := ident.paths("alert", false)
	_, path2 := ident.paths("alert", false)
	require.Equal(t, path1, path2)

	// a different 4-tuple yields a different path
	other := ident
	other.SrcPort = 4321
	_, path3 := other.paths("alert", false)
	require.NotEqual(t, path1, path3)
}

func TestFlowIdentString(t *testing.T) {
	require.Equal(t, "10.0.0.1:1234-10.0.0.2:80 (TCP)", FlowIdent{
		SrcIP: netip.MustParseAddr("10.0.0.1"), DstIP: netip.MustParseAddr("10.0.0.2"),
		SrcPort: 1234, DstPort: 80, Proto: protocols.TCP,
	}.String())
	require.Equal(t, "10.0.0.1-10.0.0.2 (ICMP)", FlowIdent{
		SrcIP: netip.MustParseAddr("10.0.0.1"), DstIP: netip.MustParseAddr("10.0.0.2"),
		Proto: protocols.ICMP,
	}.String())
}
