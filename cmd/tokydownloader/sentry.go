package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/zigwangles/tokydownloader/internal/models"
	"github.com/zigwangles/tokydownloader/internal/services"
)

// errorReporter forwards fatal run errors and failed chapters to Sentry.
// Without a DSN every method is a no-op.
type errorReporter struct {
	services.NopObserver
	enabled bool
}

func newErrorReporter(dsn string) (*errorReporter, error) {
	if dsn == "" {
		return &errorReporter{}, nil
	}
	if err := sentry.Init(sentry.ClientOptions{Dsn: dsn}); err != nil {
		return &errorReporter{}, fmt.Errorf("sentry init failed: %w", err)
	}
	return &errorReporter{enabled: true}, nil
}

// ChapterFinished reports failed chapters.
func (r *errorReporter) ChapterFinished(result models.ChapterResult) {
	if !r.enabled || result.Succeeded() || result.Err == nil {
		return
	}
	if errors.Is(result.Err, context.Canceled) {
		return
	}
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("chapter", result.Chapter.Name)
		scope.SetTag("remote_path", result.Chapter.RemotePath)
		scope.SetTag("path", result.Path)
		sentry.CaptureException(result.Err)
	})
}

// CaptureRunError reports an error that ended the whole run.
func (r *errorReporter) CaptureRunError(err error) {
	if !r.enabled || err == nil {
		return
	}
	sentry.CaptureException(err)
}

// Flush waits for queued events to be sent.
func (r *errorReporter) Flush() {
	if r.enabled {
		sentry.Flush(2 * time.Second)
	}
}
