// Package metrics aggregates request latencies for the bench command
// using HDR histograms.
package metrics

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// Recorder collects per-request results from concurrent workers.
// Counters are atomic; the histogram is mutex protected.
type Recorder struct {
	histMu sync.Mutex
	hist   *hdrhistogram.Histogram

	total   atomic.Int64
	success atomic.Int64
	failed  atomic.Int64
	bytes   atomic.Int64

	start time.Time
}

// NewRecorder creates a recorder covering latencies from 1 microsecond to
// 1 hour at 3 significant figures.
func NewRecorder() *Recorder {
	return &Recorder{
		hist:  hdrhistogram.New(1, 3600_000_000, 3),
		start: time.Now(),
	}
}

// Record adds one request result.
func (r *Recorder) Record(latency time.Duration, success bool, bytes int) {
	r.total.Add(1)
	if success {
		r.success.Add(1)
	} else {
		r.failed.Add(1)
	}
	r.bytes.Add(int64(bytes))

	r.histMu.Lock()
	r.hist.RecordValue(latency.Microseconds())
	r.histMu.Unlock()
}

// Summary is a point-in-time aggregate of everything recorded.
type Summary struct {
	Total      int64
	Success    int64
	Failed     int64
	Bytes      int64
	Elapsed    time.Duration
	Throughput float64 // requests per second

	Min  time.Duration
	Mean time.Duration
	P50  time.Duration
	P90  time.Duration
	P99  time.Duration
	Max  time.Duration
}

// Snapshot computes the current summary.
func (r *Recorder) Snapshot() Summary {
	elapsed := time.Since(r.start)

	r.histMu.Lock()
	defer r.histMu.Unlock()

	s := Summary{
		Total:   r.total.Load(),
		Success: r.success.Load(),
		Failed:  r.failed.Load(),
		Bytes:   r.bytes.Load(),
		Elapsed: elapsed,
		Min:     time.Duration(r.hist.Min()) * time.Microsecond,
		Mean:    time.Duration(r.hist.Mean()) * time.Microsecond,
		P50:     time.Duration(r.hist.ValueAtQuantile(50)) * time.Microsecond,
		P90:     time.Duration(r.hist.ValueAtQuantile(90)) * time.Microsecond,
		P99:     time.Duration(r.hist.ValueAtQuantile(99)) * time.Microsecond,
		Max:     time.Duration(r.hist.Max()) * time.Microsecond,
	}
	if elapsed > 0 {
		s.Throughput = float64(s.Total) / elapsed.Seconds()
	}
	return s
}
