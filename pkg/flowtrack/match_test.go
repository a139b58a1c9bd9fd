package flowtrack

import (
	"net/netip"
	"testing"

	"github.com/els0r/alertpcap/pkg/alertpcap"
	"github.com/els0r/alertpcap/pkg/protocols"
	"github.com/stretchr/testify/require"
)

func TestMatcher(t *testing.T) {
	ident := alertpcap.FlowIdent{
		SrcIP:   netip.MustParseAddr("10.0.0.1"),
		DstIP:   netip.MustParseAddr("192.168.1.10"),
		SrcPort: 1234,
		DstPort: 80,
		Proto:   protocols.TCP,
	}

	for _, tc := range []struct {
		name    string
		matcher Matcher
		want    bool
	}{
		{"empty_matches_all", Matcher{}, true},
		{"dst_port", Matcher{Ports: []uint16{80}}, true},
		{"src_port", Matcher{Ports: []uint16{1234}}, true},
		{"port_miss", Matcher{Ports: []uint16{443}}, false},
		{"protocol", Matcher{Protocols: []string{"tcp"}}, true},
		{"protocol_miss", Matcher{Protocols: []string{"udp"}}, false},
		{"src_subnet", Matcher{Subnets: []netip.Prefix{netip.MustParsePrefix("10.0.0.0/8")}}, true},
		{"dst_subnet", Matcher{Subnets: []netip.Prefix{netip.MustParsePrefix("192.168.1.0/24")}}, true},
		{"subnet_miss", Matcher{Subnets: []netip.Prefix{netip.MustParsePrefix("172.16.0.0/12")}}, false},
		{"any_criterion_suffices", Matcher{Ports: []uint16{443}, Protocols: []string{"TCP"}}, true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, tc.matcher.Match(ident))
		})
	}
}

func TestNewMatcher(t *testing.T) {
	m, err := NewMatcher([]int{80, 443}, []string{"TCP"}, []string{"10.0.0.0/8"})
	require.Nil(t, err)
	require.Equal(t, []uint16{80, 443}, m.Ports)
	require.Len(t, m.Subnets, 1)

	_, err = NewMatcher([]int{70000}, nil, nil)
	require.Error(t, err)

	_, err = NewMatcher(nil, nil, []string{"not-a-subnet"})
	require.Error(t, err)
}
