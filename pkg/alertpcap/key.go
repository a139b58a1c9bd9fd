package alertpcap

import (
	"fmt"
	"net/netip"
	"path/filepath"
	"time"

	"github.com/els0r/alertpcap/pkg/protocols"
)

const (

	// dateBucketFormat truncates the flow start time to day granularity,
	// forming the first path element below the base directory
	dateBucketFormat = "2006-01-02"

	// startTimeFormat denotes the ISO-8601 (second granularity) start time
	// embedded in capture file names
	startTimeFormat = "2006-01-02T15:04:05"

	// FileSuffix denotes the suffix of all capture files
	FileSuffix = ".pcap"

	// CompressedFileSuffix denotes the additional suffix of lz4 compressed
	// capture files
	CompressedFileSuffix = ".lz4"
)

// FlowIdent carries the flow identity an alert event is keyed by
type FlowIdent struct {
	SrcIP   netip.Addr
	DstIP   netip.Addr
	SrcPort uint16
	DstPort uint16
	Proto   byte

	// StartTime denotes the timestamp of the first packet of the flow
	StartTime time.Time
}

// String returns a human-readable representation of the flow identity
func (f FlowIdent) String() string {
	if protocols.IsPortless(f.Proto) {
		return fmt.Sprintf("%s-%s (%s)", f.SrcIP, f.DstIP, protocols.GetIPProto(f.Proto))
	}
	return fmt.Sprintf("%s:%d-%s:%d (%s)", f.SrcIP, f.SrcPort, f.DstIP, f.DstPort, protocols.GetIPProto(f.Proto))
}

// paths derives the capture directory and file path for a flow identity. The
// derivation is deterministic: identical identities always yield identical
// paths, distinct 4-tuples or date buckets always yield distinct ones
func (f FlowIdent) paths(root string, compressed bool) (dir, path string) {
	start := f.StartTime.UTC()
	src, dst := f.SrcIP.String(), f.DstIP.String()

	dir = filepath.Join(root, start.Format(dateBucketFormat), src+"-"+dst)

	var name string
	if protocols.IsPortless(f.Proto) {
		name = fmt.Sprintf("%s-%s-%s.%s%s",
			src, dst, start.Format(startTimeFormat), protocols.GetIPProto(f.Proto), FileSuffix)
	} else {
		name = fmt.Sprintf("%s:%d-%s:%d-%s.%s%s",
			src, f.SrcPort, dst, f.DstPort, start.Format(startTimeFormat), protocols.GetIPProto(f.Proto), FileSuffix)
	}
	if compressed {
		name += CompressedFileSuffix
	}

	return dir, filepath.Join(dir, name)
}
