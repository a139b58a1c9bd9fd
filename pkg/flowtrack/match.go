package flowtrack

import (
	"fmt"
	"net/netip"
	"strings"

	"github.com/els0r/alertpcap/pkg/alertpcap"
	"github.com/els0r/alertpcap/pkg/protocols"
)

// Matcher is the alert predicate gating capture file cache invocation: a flow
// qualifies as alert-bearing if any of its endpoints matches any of the
// configured criteria. A matcher without criteria matches every flow
type Matcher struct {
	Ports     []uint16
	Protocols []string
	Subnets   []netip.Prefix
}

// NewMatcher builds a matcher from raw configuration values, validating the
// subnet notation and port ranges
func NewMatcher(ports []int, protoNames []string, subnets []string) (m Matcher, err error) {
	for _, port := range ports {
		if port < 0 || port > 65535 {
			return m, fmt.Errorf("invalid match port %d", port)
		}
		m.Ports = append(m.Ports, uint16(port))
	}
	m.Protocols = protoNames
	for _, s := range subnets {
		prefix, err := netip.ParsePrefix(s)
		if err != nil {
			return m, fmt.Errorf("invalid match subnet %q: %w", s, err)
		}
		m.Subnets = append(m.Subnets, prefix)
	}
	return m, nil
}

// Match reports whether the flow qualifies as alert-bearing
func (m Matcher) Match(ident alertpcap.FlowIdent) bool {
	if len(m.Ports) == 0 && len(m.Protocols) == 0 && len(m.Subnets) == 0 {
		return true
	}

	for _, port := range m.Ports {
		if ident.SrcPort == port || ident.DstPort == port {
			return true
		}
	}
	for _, name := range m.Protocols {
		if strings.EqualFold(name, protocols.GetIPProto(ident.Proto)) {
			return true
		}
	}
	for _, prefix := range m.Subnets {
		if prefix.Contains(ident.SrcIP) || prefix.Contains(ident.DstIP) {
			return true
		}
	}

	return false
}
