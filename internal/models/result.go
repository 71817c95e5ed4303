package models

import "time"

// ChapterResult is the outcome of one chapter download attempt
type ChapterResult struct {
	Chapter  Chapter
	Status   ChapterStatus
	Path     string        // Destination file, reserved even when the download failed
	Mirror   string        // Base URL that served the content, empty on failure
	Bytes    int64         // Bytes written to Path
	Duration time.Duration // Wall-clock time spent on the chapter
	Err      error
}

// Throughput returns the overall chapter speed in bytes per second.
func (r ChapterResult) Throughput() float64 {
	seconds := r.Duration.Seconds()
	if seconds <= 0 {
		return 0
	}
	return float64(r.Bytes) / seconds
}

// Succeeded reports whether the chapter was fully downloaded
func (r ChapterResult) Succeeded() bool {
	return r.Status == ChapterStatusDone
}
