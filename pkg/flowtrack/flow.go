// Package flowtrack tracks flows on behalf of the capture file cache: it maps
// packets to flows (forward or reverse direction), buffers pre-alert records
// in the per-flow backlog and applies the alert predicate gating cache
// invocation
package flowtrack

import (
	"time"

	"github.com/els0r/alertpcap/pkg/alertpcap"
)

// Flow denotes a tracked bidirectional flow
type Flow struct {

	// Ident carries the flow identity (as defined by the first observed packet)
	Ident alertpcap.FlowIdent

	// Backlog buffers the flow's records seen before an alert fired
	Backlog *alertpcap.Backlog

	alerted bool
}

// MarkAlerted flags the flow as carrying (or having carried) an alert. Once
// set, every subsequent packet of the flow is logged to its capture file
func (f *Flow) MarkAlerted() {
	f.alerted = true
}

// Alerted returns whether the flow has been flagged as alert-bearing
func (f *Flow) Alerted() bool {
	return f.alerted
}

// Table stores flows. It is NOT threadsafe (use one table per processing lane)
type Table struct {
	flowMap     map[string]*Flow
	backlogSize int
}

// NewTable creates a new table for storing flows, buffering up to backlogSize
// pre-alert records per flow
func NewTable(backlogSize int) *Table {
	return &Table{
		flowMap:     make(map[string]*Flow),
		backlogSize: backlogSize,
	}
}

// Lookup returns the flow a packet belongs to, matching both the forward and
// the reverse direction of the endpoint hash. If neither exists, a new flow
// is created with ts as its start time
func (t *Table) Lookup(epHash EPHash, isIPv4 bool, ts time.Time) *Flow {

	if flow, exists := t.flowMap[string(epHash[:])]; exists {
		return flow
	}

	epHashReverse := epHash.Reverse()
	if flow, exists := t.flowMap[string(epHashReverse[:])]; exists {
		return flow
	}

	flow := &Flow{
		Ident:   epHash.Ident(isIPv4, ts),
		Backlog: alertpcap.NewBacklog(t.backlogSize),
	}
	t.flowMap[string(epHash[:])] = flow

	return flow
}

// Len returns the number of flows in the table
func (t *Table) Len() int {
	return len(t.flowMap)
}

// Flows provides an iterator for the internal flow map
func (t *Table) Flows() map[string]*Flow {
	return t.flowMap
}
