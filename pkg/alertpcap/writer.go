package alertpcap

import (
	"bufio"
	"io/fs"
	"os"
	"time"

	"github.com/fako1024/gotools/link"
	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
	"github.com/pierrec/lz4/v4"
)

const (

	// pcapSnapLen denotes the maximum capture length advertised in the pcap
	// global header
	pcapSnapLen = 65535

	// fileOpenFlags denotes the flags used to open capture files. Files are
	// opened in append mode so that a flow recreated after eviction continues
	// its existing capture file (see Writer)
	fileOpenFlags = os.O_APPEND | os.O_CREATE | os.O_WRONLY
)

// Record denotes a single capture record: the raw packet bytes plus the
// per-record pcap header fields
type Record struct {
	Timestamp     time.Time
	CaptureLength int
	TotalLength   int
	Data          []byte
}

// Writer denotes the capture file serialization sink consumed by the cache.
// Implementations own the underlying OS file
type Writer interface {

	// WriteRecord appends a single record to the capture file
	WriteRecord(r Record) error

	// Flush forces all buffered records to durable storage
	Flush() error

	// Close flushes and closes the underlying file. A Writer must not be used
	// after Close
	Close() error
}

// WriterFactory opens a capture writer sink for the given path and data-link
// type. It is injectable to allow mock sinks in tests
type WriterFactory func(path string, linkType link.Type) (Writer, error)

// NewWriterFactory returns the production writer factory for the configured
// compression type
func NewWriterFactory(compression string, permissions fs.FileMode) WriterFactory {
	if compression == CompressionLZ4 {
		return newLZ4WriterFactory(permissions)
	}
	return newPcapWriterFactory(permissions)
}

// pcapWriter writes standard pcap files: a global header carrying the link
// type, then one record header + payload per WriteRecord call
type pcapWriter struct {
	file *os.File
	buf  *bufio.Writer
	w    *pcapgo.Writer
}

func newPcapWriterFactory(permissions fs.FileMode) WriterFactory {
	return func(path string, linkType link.Type) (Writer, error) {
		file, err := os.OpenFile(path, fileOpenFlags, permissions)
		if err != nil {
			return nil, err
		}

		stat, err := file.Stat()
		if err != nil {
			_ = file.Close()
			return nil, err
		}

		buf := bufio.NewWriter(file)
		w := pcapgo.NewWriter(buf)

		// The global header is only written once per file on disk. A flow
		// recreated after eviction reopens its file and continues appending
		// records without a second header
		if stat.Size() == 0 {
			if err := w.WriteFileHeader(pcapSnapLen, layers.LinkType(linkType)); err != nil {
				_ = file.Close()
				return nil, err
			}
		}

		return &pcapWriter{
			file: file,
			buf:  buf,
			w:    w,
		}, nil
	}
}

func (p *pcapWriter) WriteRecord(r Record) error {
	return p.w.WritePacket(gopacket.CaptureInfo{
		Timestamp:     r.Timestamp,
		CaptureLength: r.CaptureLength,
		Length:        r.TotalLength,
	}, r.Data)
}

func (p *pcapWriter) Flush() error {
	if err := p.buf.Flush(); err != nil {
		return err
	}
	return p.file.Sync()
}

func (p *pcapWriter) Close() error {
	if err := p.Flush(); err != nil {
		_ = p.file.Close()
		return err
	}
	return p.file.Close()
}

// lz4Writer writes lz4 frame compressed pcap data. Every open starts a fresh
// frame (frames concatenate on disk); the pcap global header is written at the
// beginning of each frame, so each frame is a standalone pcap stream
type lz4Writer struct {
	file *os.File
	z    *lz4.Writer
	w    *pcapgo.Writer
}

func newLZ4WriterFactory(permissions fs.FileMode) WriterFactory {
	return func(path string, linkType link.Type) (Writer, error) {
		file, err := os.OpenFile(path, fileOpenFlags, permissions)
		if err != nil {
			return nil, err
		}

		z := lz4.NewWriter(file)
		w := pcapgo.NewWriter(z)
		if err := w.WriteFileHeader(pcapSnapLen, layers.LinkType(linkType)); err != nil {
			_ = file.Close()
			return nil, err
		}

		return &lz4Writer{
			file: file,
			z:    z,
			w:    w,
		}, nil
	}
}

func (l *lz4Writer) WriteRecord(r Record) error {
	return l.w.WritePacket(gopacket.CaptureInfo{
		Timestamp:     r.Timestamp,
		CaptureLength: r.CaptureLength,
		Length:        r.TotalLength,
	}, r.Data)
}

func (l *lz4Writer) Flush() error {
	if err := l.z.Flush(); err != nil {
		return err
	}
	return l.file.Sync()
}

func (l *lz4Writer) Close() error {
	if err := l.z.Close(); err != nil {
		_ = l.file.Close()
		return err
	}
	return l.file.Close()
}
