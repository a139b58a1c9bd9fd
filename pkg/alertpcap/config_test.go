package alertpcap

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestConfigValidate(t *testing.T) {
	require.Nil(t, NewConfig().Validate())

	for _, tc := range []struct {
		name string
		cfg  Config
	}{
		{"empty_directory", Config{Timeout: time.Minute, Compression: CompressionNone}},
		{"timeout_below_minimum", Config{Directory: "/tmp/alert", Timeout: 500 * time.Millisecond, Compression: CompressionNone}},
		{"unknown_compression", Config{Directory: "/tmp/alert", Timeout: time.Minute, Compression: "gzip"}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			require.ErrorIs(t, tc.cfg.Validate(), ErrInvalidConfig)
		})
	}
}
