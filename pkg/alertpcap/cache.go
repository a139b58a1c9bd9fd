// Package alertpcap implements per-flow pcap logging for alert-bearing
// traffic: a cache of open capture file handles keyed by flow-derived file
// path, reused across consecutive events of the same flow and evicted once
// idle past a configurable timeout. Before the triggering record of an event
// is written, the flow's pre-alert backlog is flushed to the same file,
// preserving strict arrival order.
package alertpcap

import (
	"container/list"
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/els0r/telemetry/logging"
	"github.com/fako1024/gotools/link"
)

// dirPermissions denotes the permissions used for capture directory creation
// (owner rwx, group rx)
const dirPermissions = 0750

// Event denotes a single normalized alert event as supplied by the host
// detection engine: the flow identity, the current packet's capture record
// and a handle to the flow's pre-alert backlog (may be nil)
type Event struct {
	Flow     FlowIdent
	Record   Record
	Backlog  *Backlog
	LinkType link.Type
}

// captureFile denotes one open capture output handle. It is exclusively owned
// by the cache and never referenced outside of it
type captureFile struct {
	key         string
	writer      Writer
	lastUpdated time.Time
}

// Cache is the flow-keyed capture file cache. All public methods are
// threadsafe; a single lock serializes the full processing of one event
// (resolve, backlog flush, record write, eviction scan), trading scan cost
// for simplicity since only alert-bearing flows ever reach the cache.
//
// Cache entries are kept in a recency-ordered list (front = least recently
// written) paired with a map for O(1) lookup. An entry is moved to the back
// of the list whenever it is touched, so front-to-back order always equals
// ascending last-update time; the eviction scan relies on this and stops at
// the first non-expired entry.
type Cache struct {
	sync.Mutex

	directory  string
	timeout    time.Duration
	compressed bool

	writerFactory WriterFactory

	entries map[string]*list.Element
	order   *list.List
	mru     *captureFile

	closed bool

	// injectable clock for deterministic tests
	now func() time.Time

	stats Status
}

// Option allows to modify the cache on creation
type Option func(*Cache)

// WithWriterFactory overrides the production capture writer factory, e.g. for
// mock sinks in tests
func WithWriterFactory(fn WriterFactory) Option {
	return func(c *Cache) {
		c.writerFactory = fn
	}
}

// New instantiates a capture file cache from the provided configuration. A
// configuration violation is returned as ErrInvalidConfig; deciding whether
// that aborts the process is up to the caller
func New(cfg Config, opts ...Option) (*Cache, error) {
	if cfg.Permissions == 0 {
		cfg.Permissions = DefaultPermissions
	}
	if cfg.Compression == "" {
		cfg.Compression = CompressionNone
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Cache{
		directory:     cfg.Directory,
		timeout:       cfg.Timeout,
		compressed:    cfg.Compression == CompressionLZ4,
		writerFactory: NewWriterFactory(cfg.Compression, cfg.Permissions),
		entries:       make(map[string]*list.Element),
		order:         list.New(),
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Process handles a single alert event: it resolves (or creates) the capture
// file for the event's flow, flushes the flow's backlog into it, appends the
// triggering record, forces a flush to durable storage and finally evicts all
// entries idle past the timeout.
//
// A failure aborts only this event; the cache state remains consistent and
// processing may continue with the next event. Lock order: cache lock first,
// then (nested, released before the cache lock) the flow's backlog lock
func (c *Cache) Process(ctx context.Context, event *Event) error {
	c.Lock()
	defer c.Unlock()

	if c.closed {
		return ErrCacheClosed
	}

	dir, key := event.Flow.paths(c.directory, c.compressed)

	file, err := c.resolve(ctx, key, dir, event.LinkType)
	if err != nil {
		writeErrors.Inc()
		return err
	}

	// Flush any packets buffered for this flow prior to the alert. This must
	// complete before the triggering record is appended to preserve strict
	// arrival order
	if event.Backlog != nil {
		n, err := event.Backlog.drainTo(file.writer)
		c.stats.BacklogRecordsFlushed += n
		backlogRecordsFlushed.Add(float64(n))
		if err != nil {
			writeErrors.Inc()
			return fmt.Errorf("failed to flush backlog to %s: %w", key, err)
		}
	}

	if err := file.writer.WriteRecord(event.Record); err != nil {
		writeErrors.Inc()
		return fmt.Errorf("failed to write record to %s: %w", key, err)
	}

	// Durability per alert event outweighs throughput: alert events are
	// comparatively rare and high-value
	if err := file.writer.Flush(); err != nil {
		writeErrors.Inc()
		return fmt.Errorf("failed to flush %s: %w", key, err)
	}

	file.lastUpdated = c.now()
	c.stats.RecordsWritten++
	recordsWritten.Inc()

	c.evictExpired(ctx, c.now())

	return nil
}

// resolve returns the live cache entry for the given key, creating it if no
// entry matches. Must be called with the cache lock held.
//
// On return the entry is a live member at the recency-ordered tail (or the
// matched MRU) and its lastUpdated reflects the time of this call. Any
// failure leaves the cache unchanged: no partially-inserted entry remains
func (c *Cache) resolve(ctx context.Context, key, dir string, linkType link.Type) (*captureFile, error) {

	// Fast path: consecutive events for the same flow hit the most recently
	// used entry without a map lookup
	if c.mru != nil && c.mru.key == key {
		return c.mru, nil
	}

	if elem, exists := c.entries[key]; exists {
		c.order.MoveToBack(elem)
		file := elem.Value.(*captureFile)
		file.lastUpdated = c.now()
		c.mru = file
		return file, nil
	}

	// Miss: create the target directory and open a new capture writer sink
	// #nosec G301
	if err := os.MkdirAll(dir, dirPermissions); err != nil {
		return nil, fmt.Errorf("%w %s: %v", ErrDirCreate, dir, err)
	}

	writer, err := c.writerFactory(key, linkType)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %v", ErrFileOpen, key, err)
	}

	file := &captureFile{
		key:         key,
		writer:      writer,
		lastUpdated: c.now(),
	}
	c.entries[key] = c.order.PushBack(file)
	c.mru = file

	c.stats.FilesCreated++
	filesCreated.Inc()
	filesOpen.Inc()

	logging.FromContext(ctx).With("file", key).Debug("created capture file")

	return file, nil
}

// evictExpired removes all entries idle for at least the configured timeout.
// Must be called with the cache lock held.
//
// The scan starts at the front (least recently written) and stops at the
// first non-expired entry: since the list is ordered by ascending last-update
// time, all later entries are guaranteed to be non-expired as well. Failures
// to close a writer are logged and best-effort; the entry is removed from the
// cache regardless to avoid leaking tracking state
func (c *Cache) evictExpired(ctx context.Context, now time.Time) {
	for elem := c.order.Front(); elem != nil; {
		file := elem.Value.(*captureFile)
		if now.Sub(file.lastUpdated) < c.timeout {
			break
		}

		next := elem.Next()
		c.order.Remove(elem)
		delete(c.entries, file.key)

		if err := file.writer.Close(); err != nil {
			logging.FromContext(ctx).With("file", file.key).Errorf("failed to close evicted capture file: %v", err)
		}

		if c.mru == file {
			c.mru = nil
		}

		c.stats.FilesEvicted++
		filesEvicted.Inc()
		filesOpen.Dec()

		elem = next
	}
}

// NumFiles returns the number of currently open capture files
func (c *Cache) NumFiles() int {
	c.Lock()
	defer c.Unlock()
	return c.order.Len()
}

// Status returns a snapshot of the cache counters
func (c *Cache) Status() Status {
	c.Lock()
	defer c.Unlock()

	status := c.stats
	status.FilesOpen = c.order.Len()
	return status
}

// Close tears the cache down, draining all entries unconditionally
// (regardless of idle time) and closing every writer exactly once. The caller
// must guarantee that no Process calls are in flight. Close is idempotent
func (c *Cache) Close(ctx context.Context) error {
	c.Lock()
	defer c.Unlock()

	if c.closed {
		return nil
	}

	logger := logging.FromContext(ctx)

	var firstErr error
	for elem := c.order.Front(); elem != nil; elem = elem.Next() {
		file := elem.Value.(*captureFile)
		if err := file.writer.Close(); err != nil {
			logger.With("file", file.key).Errorf("failed to close capture file on teardown: %v", err)
			if firstErr == nil {
				firstErr = err
			}
		}
		filesOpen.Dec()
	}

	c.order.Init()
	c.entries = make(map[string]*list.Element)
	c.mru = nil
	c.closed = true

	return firstErr
}
