package alertpcap

import "sync"

// DefaultBacklogSize denotes the default maximum number of pre-alert records
// retained per flow
const DefaultBacklogSize = 1024

// Global memory pool backing all backlog payload slices
var backlogPool = newMemPool()

// Backlog buffers the capture records of a flow that were seen before an
// alert fired, in arrival (FIFO) order. It is owned by the flow object and
// guarded by its own lock, so producers can append records while no alert
// event is being processed for the flow.
//
// Lock ordering: the backlog lock is only ever acquired by the cache while the
// cache lock is held, and released before it (see Cache.Process)
type Backlog struct {
	sync.Mutex

	records []Record
	limit   int
	dropped uint64
}

// NewBacklog instantiates a new backlog buffer holding up to limit records
// (DefaultBacklogSize if limit is <= 0)
func NewBacklog(limit int) *Backlog {
	if limit <= 0 {
		limit = DefaultBacklogSize
	}
	return &Backlog{
		limit: limit,
	}
}

// Append adds a record to the backlog, copying its payload into a pooled
// slice. If the backlog is full the oldest record is dropped to make room
func (b *Backlog) Append(r Record) {
	data := backlogPool.Get(len(r.Data))
	copy(data, r.Data)
	r.Data = data

	b.Lock()
	if len(b.records) >= b.limit {
		backlogPool.Put(b.records[0].Data)
		b.records[0] = Record{}
		b.records = b.records[1:]
		b.dropped++
		backlogRecordsDropped.Inc()
	}
	b.records = append(b.records, r)
	b.Unlock()
}

// Len returns the number of buffered records
func (b *Backlog) Len() int {
	b.Lock()
	defer b.Unlock()
	return len(b.records)
}

// Dropped returns the number of records dropped due to the backlog limit
func (b *Backlog) Dropped() uint64 {
	b.Lock()
	defer b.Unlock()
	return b.dropped
}

// drainTo writes all buffered records to w in arrival order (oldest first),
// detaching each record from the backlog once written. On a write error the
// failed record and all newer ones remain buffered and the error is returned
func (b *Backlog) drainTo(w Writer) (n uint64, err error) {
	b.Lock()
	defer b.Unlock()

	for len(b.records) > 0 {
		if err = w.WriteRecord(b.records[0]); err != nil {
			return
		}

		backlogPool.Put(b.records[0].Data)
		b.records[0] = Record{}
		b.records = b.records[1:]
		n++
	}

	// allow the drained backing array to be collected
	b.records = nil

	return
}
