package defaults

import "time"

const (

	// LogRoot denotes the default root path for all alertpcap output
	LogRoot = "/var/log/alertpcap"

	// AlertDirectoryName denotes the directory (under the log root) capture
	// files are written to unless configured otherwise
	AlertDirectoryName = "alert"

	// FileTimeout denotes the default idle timeout after which an open
	// capture file is evicted from the cache
	FileTimeout = 300 * time.Second
)
