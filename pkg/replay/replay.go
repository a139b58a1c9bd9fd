// Package replay drives packets from a pcap file through flow tracking into
// the capture file cache, standing in for the host detection engine that
// invokes the cache in-process
package replay

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/els0r/alertpcap/pkg/alertpcap"
	"github.com/els0r/alertpcap/pkg/flowtrack"
	"github.com/els0r/telemetry/logging"
	"github.com/fako1024/gotools/link"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
	"golang.org/x/time/rate"
)

const (
	ethernetHeaderLen = 14
	vlanTagLen        = 4
	nullHeaderLen     = 4

	etherTypeIPv4 = 0x0800
	etherTypeIPv6 = 0x86DD
	etherTypeVLAN = 0x8100
)

// errLogInterval caps how often per-packet errors are logged during a replay
var errLogInterval = rate.Every(time.Second)

// Config stores the parameters of a single replay run
type Config struct {

	// Path denotes the pcap file to replay
	Path string

	// Cache denotes the capture file cache alert events are fed into
	Cache *alertpcap.Cache

	// Matcher denotes the alert predicate applied to each flow
	Matcher flowtrack.Matcher

	// BacklogSize denotes the maximum number of pre-alert records buffered
	// per flow (alertpcap.DefaultBacklogSize if zero)
	BacklogSize int
}

// Summary reports the outcome of a replay run
type Summary struct {
	Packets     uint64 `json:"packets"`
	ParseErrors uint64 `json:"parse_errors"`
	Flows       int    `json:"flows"`
	AlertFlows  int    `json:"alert_flows"`
	EventErrors uint64 `json:"event_errors"`

	Cache alertpcap.Status `json:"cache"`
}

// Run replays all packets from the configured pcap file. Flows matching the
// alert predicate are logged to per-flow capture files (preceded by their
// buffered pre-alert records); per-event failures are logged and skipped,
// never aborting the run
func Run(ctx context.Context, cfg Config) (*Summary, error) {
	logger := logging.FromContext(ctx)

	f, err := os.Open(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open pcap file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			logger.Errorf("failed to close pcap file: %v", cerr)
		}
	}()

	r, err := pcapgo.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read pcap header from %s: %w", cfg.Path, err)
	}
	linkType := r.LinkType()

	table := flowtrack.NewTable(cfg.BacklogSize)
	limiter := rate.NewLimiter(errLogInterval, 10)

	summary := &Summary{}
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		data, ci, err := r.ReadPacketData()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("failed to read packet %d: %w", summary.Packets+1, err)
		}
		summary.Packets++

		ipLayer, ok := stripLinkLayer(data, linkType)
		if !ok {
			summary.ParseErrors++
			if limiter.Allow() {
				logger.Debugf("unsupported link layer framing on packet %d", summary.Packets)
			}
			continue
		}

		epHash, isIPv4, err := flowtrack.ParseIPLayer(ipLayer)
		if err != nil {
			summary.ParseErrors++
			if limiter.Allow() {
				logger.Debugf("failed to parse packet %d: %v", summary.Packets, err)
			}
			continue
		}

		flow := table.Lookup(epHash, isIPv4, ci.Timestamp)
		record := alertpcap.Record{
			Timestamp:     ci.Timestamp,
			CaptureLength: ci.CaptureLength,
			TotalLength:   ci.Length,
			Data:          data,
		}

		if !flow.Alerted() && cfg.Matcher.Match(flow.Ident) {
			flow.MarkAlerted()
		}

		// Flows without an alert keep feeding their backlog; alert-bearing
		// flows are written through the cache (which drains the backlog on
		// the first event)
		if !flow.Alerted() {
			flow.Backlog.Append(record)
			continue
		}

		event := &alertpcap.Event{
			Flow:     flow.Ident,
			Record:   record,
			Backlog:  flow.Backlog,
			LinkType: link.Type(linkType),
		}
		if err := cfg.Cache.Process(ctx, event); err != nil {
			summary.EventErrors++
			if limiter.Allow() {
				logger.With("flow", flow.Ident.String()).Errorf("failed to process alert event: %v", err)
			}
		}
	}

	summary.Flows = table.Len()
	for _, flow := range table.Flows() {
		if flow.Alerted() {
			summary.AlertFlows++
		}
	}
	summary.Cache = cfg.Cache.Status()

	return summary, nil
}

// stripLinkLayer returns the IP layer of a raw capture record for the most
// common data-link framings
func stripLinkLayer(data []byte, linkType layers.LinkType) ([]byte, bool) {
	switch linkType {
	case layers.LinkTypeEthernet:
		if len(data) < ethernetHeaderLen {
			return nil, false
		}
		etherType := binary.BigEndian.Uint16(data[12:14])
		offset := ethernetHeaderLen
		if etherType == etherTypeVLAN {
			if len(data) < ethernetHeaderLen+vlanTagLen {
				return nil, false
			}
			etherType = binary.BigEndian.Uint16(data[16:18])
			offset += vlanTagLen
		}
		if etherType != etherTypeIPv4 && etherType != etherTypeIPv6 {
			return nil, false
		}
		return data[offset:], true
	case layers.LinkTypeNull, layers.LinkTypeLoop:
		if len(data) < nullHeaderLen {
			return nil, false
		}
		return data[nullHeaderLen:], true
	case layers.LinkTypeRaw, layers.LinkTypeIPv4, layers.LinkTypeIPv6:
		return data, true
	}

	return nil, false
}
