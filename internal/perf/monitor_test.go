package perf

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestStatistics_ComputesSuccessRateAndThroughput(t *testing.T) {
	m := NewMonitor()
	m.Start()
	m.RecordSuccess(10 * time.Millisecond)
	m.RecordSuccess(20 * time.Millisecond)
	m.RecordFailure()

	stats := m.Statistics(0)
	if stats.DocumentsProcessed != 2 || stats.DocumentsFailed != 1 {
		t.Fatalf("unexpected counts: %+v", stats)
	}
	wantRate := float64(2) / float64(3) * 100
	if stats.SuccessRate != wantRate {
		t.Fatalf("expected success rate %.4f, got %.4f", wantRate, stats.SuccessRate)
	}
	if !stats.HasAvgProcessingTime || stats.AvgProcessingTime != 15*time.Millisecond {
		t.Fatalf("expected avg processing time 15ms, got %v (has=%v)", stats.AvgProcessingTime, stats.HasAvgProcessingTime)
	}
}

func TestStatistics_PopulatesETAWhenTotalGiven(t *testing.T) {
	m := NewMonitor()
	m.Start()
	m.RecordSuccess(0)
	m.RecordSuccess(0)

	stats := m.Statistics(10)
	if !stats.HasTotal {
		t.Fatal("expected ETA fields populated when total is given")
	}
	if stats.RemainingDocuments != 8 {
		t.Fatalf("expected 8 remaining, got %d", stats.RemainingDocuments)
	}
	if stats.CompletionPercentage != 20.0 {
		t.Fatalf("expected 20%% complete, got %v", stats.CompletionPercentage)
	}
}

func TestStatistics_ReturnsZeroValueBeforeStart(t *testing.T) {
	m := NewMonitor()
	stats := m.Statistics(10)
	if stats.TotalProcessed != 0 || stats.HasTotal {
		t.Fatalf("expected zero-value stats before Start, got %+v", stats)
	}
}

func TestFormatDuration_SwitchesUnitsByMagnitude(t *testing.T) {
	cases := []struct {
		d    time.Duration
		want string
	}{
		{42*time.Second + 700*time.Millisecond, "42.7s"},
		{3*time.Minute + 5*time.Second, "3m 5s"},
		{2*time.Hour + 11*time.Minute, "2h 11m"},
	}
	for _, c := range cases {
		if got := FormatDuration(c.d); got != c.want {
			t.Errorf("FormatDuration(%v) = %q, want %q", c.d, got, c.want)
		}
	}
}

func TestPrintProgress_WritesBarAndNewlineOnCompletion(t *testing.T) {
	m := NewMonitor()
	m.Start()

	var buf bytes.Buffer
	m.PrintProgress(&buf, 50, 100, "Ingesting")
	out := buf.String()
	if !strings.Contains(out, "50.0%") || !strings.Contains(out, "(50/100)") {
		t.Fatalf("expected progress percentage/count in output, got %q", out)
	}
	if strings.HasSuffix(out, "\n") {
		t.Fatal("expected no trailing newline mid-progress")
	}

	buf.Reset()
	m.PrintProgress(&buf, 100, 100, "Ingesting")
	if !strings.HasSuffix(buf.String(), "\n") {
		t.Fatal("expected trailing newline when progress completes")
	}
}

func TestPrintProgress_NoopWhenTotalZero(t *testing.T) {
	m := NewMonitor()
	m.Start()
	var buf bytes.Buffer
	m.PrintProgress(&buf, 0, 0, "Ingesting")
	if buf.Len() != 0 {
		t.Fatalf("expected no output when total is zero, got %q", buf.String())
	}
}
