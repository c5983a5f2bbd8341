// Package perf implements L11: lightweight throughput/ETA tracking for a
// batch ingestion run, printed as a single self-overwriting progress line.
// No pack repo vendors a progress-bar library, so this is built directly on
// stdlib time/fmt rather than reaching for one.
package perf

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// Stats is a snapshot of a Monitor's accumulated counters.
type Stats struct {
	ElapsedTime            time.Duration
	DocumentsProcessed     int
	DocumentsFailed        int
	TotalProcessed         int
	SuccessRate            float64
	ThroughputPerMinute    float64
	AvgProcessingTime      time.Duration
	HasAvgProcessingTime   bool
	RemainingDocuments     int
	ETA                    time.Duration
	CompletionPercentage   float64
	HasTotal               bool
}

// Monitor tracks processing counts and timings for one batch run and
// renders them as throughput/ETA statistics.
type Monitor struct {
	mu sync.Mutex

	startTime       time.Time
	processed       int
	failed          int
	processingTimes []time.Duration
}

// NewMonitor constructs a Monitor. Call Start before recording anything.
func NewMonitor() *Monitor {
	return &Monitor{}
}

// Start resets all counters and begins timing. Call at the beginning of
// each batch operation to monitor.
func (m *Monitor) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.startTime = time.Now()
	m.processed = 0
	m.failed = 0
	m.processingTimes = nil
}

// RecordSuccess records a successfully processed document, optionally with
// its processing duration for average-time statistics.
func (m *Monitor) RecordSuccess(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.processed++
	if d > 0 {
		m.processingTimes = append(m.processingTimes, d)
	}
}

// RecordFailure records a document that failed processing.
func (m *Monitor) RecordFailure() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failed++
}

// Statistics computes the current throughput/success/ETA snapshot. Pass
// total > 0 to additionally populate ETA and completion percentage.
func (m *Monitor) Statistics(total int) Stats {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.startTime.IsZero() {
		return Stats{}
	}

	elapsed := time.Since(m.startTime)
	totalProcessed := m.processed + m.failed

	stats := Stats{
		ElapsedTime:        elapsed,
		DocumentsProcessed: m.processed,
		DocumentsFailed:    m.failed,
		TotalProcessed:     totalProcessed,
	}
	if totalProcessed > 0 {
		stats.SuccessRate = float64(m.processed) / float64(totalProcessed) * 100
	}
	if elapsed > 0 {
		stats.ThroughputPerMinute = float64(totalProcessed) / elapsed.Minutes()
	}

	if len(m.processingTimes) > 0 {
		var sum time.Duration
		for _, d := range m.processingTimes {
			sum += d
		}
		stats.AvgProcessingTime = sum / time.Duration(len(m.processingTimes))
		stats.HasAvgProcessingTime = true
	}

	if total > 0 && totalProcessed > 0 {
		remaining := total - totalProcessed
		rate := float64(totalProcessed) / elapsed.Seconds()
		var eta time.Duration
		if rate > 0 {
			eta = time.Duration(float64(remaining)/rate) * time.Second
		}
		stats.RemainingDocuments = remaining
		stats.ETA = eta
		stats.CompletionPercentage = float64(totalProcessed) / float64(total) * 100
		stats.HasTotal = true
	}

	return stats
}

// FormatDuration renders d the way the reference monitor does: "42.7s"
// under a minute, "3m 5s" under an hour, "2h 11m" beyond that.
func FormatDuration(d time.Duration) string {
	seconds := d.Seconds()
	switch {
	case seconds < 60:
		return fmt.Sprintf("%.1fs", seconds)
	case seconds < 3600:
		minutes := int(seconds / 60)
		secs := int(seconds) % 60
		return fmt.Sprintf("%dm %ds", minutes, secs)
	default:
		hours := int(seconds / 3600)
		minutes := (int(seconds) % 3600) / 60
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
}

const barLength = 50

// PrintProgress writes a single self-overwriting progress bar line to w:
// "prefix: |████░░░░| 80.0% (80/100) ETA: 30s". Pass total == 0 to skip
// (there is nothing meaningful to render).
func (m *Monitor) PrintProgress(w io.Writer, current, total int, prefix string) {
	if total == 0 {
		return
	}

	percent := float64(current) / float64(total) * 100
	filled := barLength * current / total
	if filled > barLength {
		filled = barLength
	}
	bar := ""
	for i := 0; i < barLength; i++ {
		if i < filled {
			bar += "█"
		} else {
			bar += "░"
		}
	}

	stats := m.Statistics(total)
	eta := "calculating..."
	if stats.HasTotal {
		eta = FormatDuration(stats.ETA)
	}

	fmt.Fprintf(w, "\r%s: |%s| %.1f%% (%d/%d) ETA: %s", prefix, bar, percent, current, total, eta)
	if current >= total {
		fmt.Fprintln(w)
	}
}
