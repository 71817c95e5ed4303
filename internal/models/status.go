package models

// ChapterStatus is the state of a single chapter download
type ChapterStatus int

const (
	ChapterStatusPending ChapterStatus = iota
	ChapterStatusTryingMirror
	ChapterStatusStreaming
	ChapterStatusDone
	ChapterStatusFailed
)

func (s ChapterStatus) String() string {
	switch s {
	case ChapterStatusPending:
		return "pending"
	case ChapterStatusTryingMirror:
		return "trying_mirror"
	case ChapterStatusStreaming:
		return "streaming"
	case ChapterStatusDone:
		return "done"
	case ChapterStatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// IsFinished reports whether the status is terminal
func (s ChapterStatus) IsFinished() bool {
	return s == ChapterStatusDone || s == ChapterStatusFailed
}
