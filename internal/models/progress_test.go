package models

import (
	"testing"
	"time"
)

func TestDownloadProgress_ThroughputAndETA(t *testing.T) {
	p := DownloadProgress{
		Total:      4096,
		Downloaded: 1024,
		Elapsed:    2 * time.Second,
	}

	if got := p.Throughput(); got != 512 {
		t.Errorf("Expected throughput 512 B/s, got %f", got)
	}
	if got := p.ETA(); got != 6*time.Second {
		t.Errorf("Expected ETA 6s, got %v", got)
	}
	if got := p.Percent(); got != 25 {
		t.Errorf("Expected 25%%, got %f", got)
	}
}

func TestDownloadProgress_UnknownSize(t *testing.T) {
	p := DownloadProgress{
		Downloaded: 2048,
		Elapsed:    time.Second,
	}

	if p.KnownSize() {
		t.Fatal("Expected unknown size")
	}
	if got := p.ETA(); got != 0 {
		t.Errorf("Expected zero ETA for unknown size, got %v", got)
	}
	if got := p.Percent(); got != -1 {
		t.Errorf("Expected -1 percent for unknown size, got %f", got)
	}
	if got := p.Throughput(); got != 2048 {
		t.Errorf("Expected throughput 2048 B/s, got %f", got)
	}
}

func TestDownloadProgress_NoElapsedTime(t *testing.T) {
	p := DownloadProgress{Total: 100, Downloaded: 10}

	if got := p.Throughput(); got != 0 {
		t.Errorf("Expected zero throughput, got %f", got)
	}
	if got := p.ETA(); got != 0 {
		t.Errorf("Expected zero ETA, got %v", got)
	}
}

func TestDownloadProgress_PercentClamped(t *testing.T) {
	p := DownloadProgress{Total: 100, Downloaded: 150, Elapsed: time.Second}
	if got := p.Percent(); got != 100 {
		t.Errorf("Expected percent clamped to 100, got %f", got)
	}
	if got := p.ETA(); got != 0 {
		t.Errorf("Expected zero ETA when past total, got %v", got)
	}
}

func TestChapterResult_Throughput(t *testing.T) {
	r := ChapterResult{Bytes: 10240, Duration: 5 * time.Second, Status: ChapterStatusDone}
	if got := r.Throughput(); got != 2048 {
		t.Errorf("Expected 2048 B/s, got %f", got)
	}
	if !r.Succeeded() {
		t.Error("Expected done result to be successful")
	}

	failed := ChapterResult{Status: ChapterStatusFailed}
	if failed.Succeeded() {
		t.Error("Expected failed result to not be successful")
	}
	if failed.Throughput() != 0 {
		t.Error("Expected zero throughput without duration")
	}
}

func TestChapterStatus_String(t *testing.T) {
	tests := []struct {
		status   ChapterStatus
		expected string
		finished bool
	}{
		{ChapterStatusPending, "pending", false},
		{ChapterStatusTryingMirror, "trying_mirror", false},
		{ChapterStatusStreaming, "streaming", false},
		{ChapterStatusDone, "done", true},
		{ChapterStatusFailed, "failed", true},
		{ChapterStatus(42), "unknown", false},
	}

	for _, tt := range tests {
		if got := tt.status.String(); got != tt.expected {
			t.Errorf("Expected %q, got %q", tt.expected, got)
		}
		if got := tt.status.IsFinished(); got != tt.finished {
			t.Errorf("Expected IsFinished()=%v for %s, got %v", tt.finished, tt.expected, got)
		}
	}
}
