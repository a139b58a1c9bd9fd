package protocols

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetIPProto(t *testing.T) {
	require.Equal(t, "TCP", GetIPProto(TCP))
	require.Equal(t, "UDP", GetIPProto(UDP))
	require.Equal(t, "ICMPv6", GetIPProto(ICMPv6))

	// unknown protocols fall back to their zero-padded numeric value
	require.Equal(t, "003", GetIPProto(3))
	require.Equal(t, "253", GetIPProto(253))
}

func TestIsPortless(t *testing.T) {
	require.True(t, IsPortless(ICMP))
	require.True(t, IsPortless(ICMPv6))
	require.False(t, IsPortless(TCP))
	require.False(t, IsPortless(UDP))
	require.False(t, IsPortless(SCTP))
}
