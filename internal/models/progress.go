package models

import "time"

// DownloadProgress is a point-in-time snapshot of a chapter being streamed.
// Total is 0 when the mirror did not declare a content length.
type DownloadProgress struct {
	Chapter    string
	Mirror     string
	Total      int64
	Downloaded int64
	StartedAt  time.Time
	Elapsed    time.Duration
}

// Throughput returns the average speed in bytes per second since StartedAt.
func (p DownloadProgress) Throughput() float64 {
	seconds := p.Elapsed.Seconds()
	if seconds <= 0 {
		return 0
	}
	return float64(p.Downloaded) / seconds
}

// ETA estimates the remaining time. It is 0 when the total size is unknown
// or no throughput has been measured yet.
func (p DownloadProgress) ETA() time.Duration {
	speed := p.Throughput()
	if p.Total <= 0 || speed <= 0 {
		return 0
	}
	remaining := p.Total - p.Downloaded
	if remaining <= 0 {
		return 0
	}
	return time.Duration(float64(remaining) / speed * float64(time.Second))
}

// Percent returns completion in the 0-100 range, or -1 when the total is unknown.
func (p DownloadProgress) Percent() float64 {
	if p.Total <= 0 {
		return -1
	}
	pct := float64(p.Downloaded) / float64(p.Total) * 100
	if pct > 100 {
		return 100
	}
	return pct
}

// KnownSize reports whether the mirror declared a content length
func (p DownloadProgress) KnownSize() bool {
	return p.Total > 0
}
