package alertpcap

import "github.com/prometheus/client_golang/prometheus"

const (
	serviceName      = "alertpcap"
	captureSubsystem = "capture"
)

var filesOpen = prometheus.NewGauge(prometheus.GaugeOpts{
	Namespace: serviceName,
	Subsystem: captureSubsystem,
	Name:      "files_open",
	Help:      "Number of capture files currently held open by the cache",
})
var filesCreated = prometheus.NewCounter(prometheus.CounterOpts{
	Namespace: serviceName,
	Subsystem: captureSubsystem,
	Name:      "files_created_total",
	Help:      "Number of capture files created",
})
var filesEvicted = prometheus.NewCounter(prometheus.CounterOpts{
	Namespace: serviceName,
	Subsystem: captureSubsystem,
	Name:      "files_evicted_total",
	Help:      "Number of capture files evicted after exceeding the idle timeout",
})
var recordsWritten = prometheus.NewCounter(prometheus.CounterOpts{
	Namespace: serviceName,
	Subsystem: captureSubsystem,
	Name:      "records_written_total",
	Help:      "Number of alert event records written to capture files",
})
var backlogRecordsFlushed = prometheus.NewCounter(prometheus.CounterOpts{
	Namespace: serviceName,
	Subsystem: captureSubsystem,
	Name:      "backlog_records_flushed_total",
	Help:      "Number of buffered pre-alert records flushed to capture files",
})
var backlogRecordsDropped = prometheus.NewCounter(prometheus.CounterOpts{
	Namespace: serviceName,
	Subsystem: captureSubsystem,
	Name:      "backlog_records_dropped_total",
	Help:      "Number of pre-alert records dropped due to the backlog limit",
})
var writeErrors = prometheus.NewCounter(prometheus.CounterOpts{
	Namespace: serviceName,
	Subsystem: captureSubsystem,
	Name:      "write_errors_total",
	Help:      "Number of alert events that failed to be written",
})

func init() {
	prometheus.MustRegister(
		filesOpen,
		filesCreated,
		filesEvicted,
		recordsWritten,
		backlogRecordsFlushed,
		backlogRecordsDropped,
		writeErrors,
	)
}
