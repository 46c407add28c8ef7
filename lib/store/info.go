package store

import (
	"encoding/json"

	"github.com/ValentinKolb/qmx/lib/util"
)

// infoSamples is the number of records Info encodes to estimate the size
const infoSamples = 100

// Info describes the state of a store
type Info struct {
	Kind           string `json:"kind" yaml:"kind"`
	Path           string `json:"path" yaml:"path"`
	Records        int    `json:"records" yaml:"records"`
	MaxID          uint64 `json:"max_id" yaml:"max_id"`
	CounterValue   uint64 `json:"counter_value" yaml:"counter_value"`
	SizeBytes      int    `json:"size_bytes" yaml:"size_bytes"`
	MedianRecBytes int    `json:"median_record_bytes" yaml:"median_record_bytes"`
	Info           string `json:"info" yaml:"info"`
}

// Info returns metadata about the store. Sizes are estimated from the first
// records of the index instead of encoding the whole store.
func (s *Store[T, P]) Info() Info {
	histogram := util.NewSizeHistogram()

	count := 0
	s.index.Ascend(func(e entry[P]) bool {
		if data, err := json.Marshal(e.rec); err == nil {
			// key, quotes, colon and separator
			histogram.AddSample(len(data) + 24)
		}
		count++
		return count < infoSamples
	})

	return Info{
		Kind:           s.kind,
		Path:           s.path,
		Records:        s.Len(),
		MaxID:          s.MaxID(),
		CounterValue:   s.counter.Value(),
		SizeBytes:      histogram.EstimateTotal(s.Len()),
		MedianRecBytes: histogram.MedianEstimate(),
		Info:           "size_bytes and median_record_bytes are estimates",
	}
}
