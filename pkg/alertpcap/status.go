package alertpcap

import jsoniter "github.com/json-iterator/go"

// Status summarizes the state and lifetime counters of a capture file cache
type Status struct {
	FilesOpen             int    `json:"files_open"`
	FilesCreated          uint64 `json:"files_created"`
	FilesEvicted          uint64 `json:"files_evicted"`
	RecordsWritten        uint64 `json:"records_written"`
	BacklogRecordsFlushed uint64 `json:"backlog_records_flushed"`
}

// String returns the status in JSON representation
func (s Status) String() string {
	b, err := jsoniter.Marshal(s)
	if err != nil {
		return ""
	}
	return string(b)
}
