package alertpcap

import "errors"

var (

	// ErrInvalidConfig denotes an invalid cache configuration (bad timeout,
	// empty directory or unknown compression type)
	ErrInvalidConfig = errors.New("invalid capture file cache configuration")

	// ErrDirCreate denotes that the target directory for a capture file could
	// not be created
	ErrDirCreate = errors.New("cannot create capture file directory")

	// ErrFileOpen denotes that a capture file sink could not be opened
	ErrFileOpen = errors.New("cannot open capture file")

	// ErrCacheClosed denotes an operation on a cache that has already been
	// torn down
	ErrCacheClosed = errors.New("capture file cache is closed")
)
