package alertpcap

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/els0r/alertpcap/pkg/defaults"
)

// Enumeration of supported capture file compression types
const (
	CompressionNone = "none"
	CompressionLZ4  = "lz4"
)

const (

	// DefaultPermissions denotes the permissions used for capture file creation
	DefaultPermissions = fs.FileMode(0644)

	// minTimeout denotes the lowest allowed idle timeout
	minTimeout = time.Second
)

// Config stores the parameters of a capture file cache
type Config struct {
	// Directory denotes the base path under which all capture files are
	// created (date bucket and flow sub-directories are appended to it)
	Directory string `json:"directory" yaml:"directory" mapstructure:"directory"`

	// Timeout denotes the idle duration after which an open capture file is
	// evicted from the cache
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// Permissions denotes the file mode used for capture file creation
	Permissions fs.FileMode `json:"permissions,omitempty" yaml:"permissions,omitempty" mapstructure:"permissions"`

	// Compression denotes the compression applied to capture files ("none" or "lz4")
	Compression string `json:"compression,omitempty" yaml:"compression,omitempty" mapstructure:"compression"`
}

// NewConfig returns a capture file cache configuration with all defaults applied
func NewConfig() Config {
	return Config{
		Directory:   filepath.Join(defaults.LogRoot, defaults.AlertDirectoryName),
		Timeout:     defaults.FileTimeout,
		Permissions: DefaultPermissions,
		Compression: CompressionNone,
	}
}

// Validate validates the configuration. All violations are classified as
// ErrInvalidConfig (fatal at startup, by convention of the caller)
func (c Config) Validate() error {
	if c.Directory == "" {
		return fmt.Errorf("%w: directory must not be empty", ErrInvalidConfig)
	}
	if c.Timeout < minTimeout {
		return fmt.Errorf("%w: timeout %v less than allowed minimum %v", ErrInvalidConfig, c.Timeout, minTimeout)
	}
	switch c.Compression {
	case CompressionNone, CompressionLZ4:
	default:
		return fmt.Errorf("%w: unknown compression type %q", ErrInvalidConfig, c.Compression)
	}
	return nil
}
