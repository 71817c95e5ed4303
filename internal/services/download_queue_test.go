package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/zigwangles/tokydownloader/internal/apperrors"
	"github.com/zigwangles/tokydownloader/internal/models"
	"github.com/zigwangles/tokydownloader/internal/parser"
	"github.com/zigwangles/tokydownloader/internal/testutil"
)

// fakeDownloader records calls and fails the chapters listed in fail
type fakeDownloader struct {
	mu     sync.Mutex
	calls  []string
	fail   map[string]bool
	onCall func()
}

func (f *fakeDownloader) DownloadChapter(_ context.Context, chapter models.Chapter, dir string) (*models.ChapterResult, error) {
	f.mu.Lock()
	f.calls = append(f.calls, chapter.Name)
	f.mu.Unlock()
	if f.onCall != nil {
		f.onCall()
	}

	result := &models.ChapterResult{Chapter: chapter, Path: filepath.Join(dir, chapter.Name), Status: models.ChapterStatusDone, Bytes: 1024}
	if f.fail[chapter.Name] {
		result.Status = models.ChapterStatusFailed
		return result, &apperrors.ChapterDownloadFailed{Chapter: chapter.Name}
	}
	return result, nil
}

func chaptersNamed(names ...string) []models.Chapter {
	chapters := make([]models.Chapter, 0, len(names))
	for _, name := range names {
		chapters = append(chapters, models.Chapter{Name: name, RemotePath: name + ".mp3"})
	}
	return chapters
}

func TestDownloadQueue_CallsDownloaderOncePerChapter(t *testing.T) {
	t.Parallel()
	fake := &fakeDownloader{}
	q := NewDownloadQueue(fake, t.TempDir(), OrderReverse)

	summary := q.Run(context.Background(), chaptersNamed("A", "B", "C"))

	if len(fake.calls) != 3 {
		t.Fatalf("Expected 3 downloader calls, got %d: %v", len(fake.calls), fake.calls)
	}
	if len(summary.Succeeded) != 3 || len(summary.Failed) != 0 {
		t.Errorf("Expected 3 succeeded and 0 failed, got %d/%d", len(summary.Succeeded), len(summary.Failed))
	}
	if summary.Total() != 3 {
		t.Errorf("Expected total 3, got %d", summary.Total())
	}
}

func TestDownloadQueue_Order(t *testing.T) {
	t.Parallel()
	tests := []struct {
		order    Order
		expected []string
	}{
		{OrderReverse, []string{"C", "B", "A"}},
		{OrderForward, []string{"A", "B", "C"}},
	}

	for _, tt := range tests {
		t.Run(tt.order.String(), func(t *testing.T) {
			t.Parallel()
			fake := &fakeDownloader{}
			NewDownloadQueue(fake, t.TempDir(), tt.order).Run(context.Background(), chaptersNamed("A", "B", "C"))

			if fmt.Sprint(fake.calls) != fmt.Sprint(tt.expected) {
				t.Errorf("Expected order %v, got %v", tt.expected, fake.calls)
			}
		})
	}
}

func TestDownloadQueue_ContinuesPastFailures(t *testing.T) {
	t.Parallel()
	fake := &fakeDownloader{fail: map[string]bool{"B": true}}
	q := NewDownloadQueue(fake, t.TempDir(), OrderForward)

	summary := q.Run(context.Background(), chaptersNamed("A", "B", "C"))

	if len(fake.calls) != 3 {
		t.Fatalf("Expected every chapter to be attempted, got %v", fake.calls)
	}
	if len(summary.Failed) != 1 || summary.Failed[0].Chapter.Name != "B" {
		t.Fatalf("Expected B to be the only failure, got %+v", summary.Failed)
	}
	if summary.Failed[0].Status != models.ChapterStatusFailed {
		t.Errorf("Expected failed status, got %s", summary.Failed[0].Status)
	}
	if len(summary.Succeeded) != 2 {
		t.Errorf("Expected 2 successes, got %d", len(summary.Succeeded))
	}
}

func TestDownloadQueue_DoesNotMutateInput(t *testing.T) {
	t.Parallel()
	chapters := chaptersNamed("A", "B")
	NewDownloadQueue(&fakeDownloader{}, t.TempDir(), OrderReverse).Run(context.Background(), chapters)

	if len(chapters) != 2 || chapters[0].Name != "A" || chapters[1].Name != "B" {
		t.Errorf("Expected input slice to be untouched, got %v", chapters)
	}
}

func TestDownloadQueue_StopsOnCancel(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fake := &fakeDownloader{onCall: cancel}
	summary := NewDownloadQueue(fake, t.TempDir(), OrderForward).Run(ctx, chaptersNamed("A", "B", "C"))

	if len(fake.calls) != 1 {
		t.Errorf("Expected the queue to stop after cancellation, got calls %v", fake.calls)
	}
	if summary.Total() != 1 {
		t.Errorf("Expected one attempted chapter, got %d", summary.Total())
	}
}

func TestDownloadQueue_EmptyList(t *testing.T) {
	t.Parallel()
	fake := &fakeDownloader{}
	summary := NewDownloadQueue(fake, t.TempDir(), OrderReverse).Run(context.Background(), nil)

	if len(fake.calls) != 0 || summary.Total() != 0 {
		t.Errorf("Expected no work for an empty list, got calls %v", fake.calls)
	}
}

func TestParseOrder(t *testing.T) {
	t.Parallel()
	tests := []struct {
		raw      string
		expected Order
		wantErr  bool
	}{
		{"", OrderReverse, false},
		{"reverse", OrderReverse, false},
		{"Forward", OrderForward, false},
		{" forward ", OrderForward, false},
		{"random", OrderReverse, true},
	}

	for _, tt := range tests {
		got, err := ParseOrder(tt.raw)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseOrder(%q) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
		}
		if got != tt.expected {
			t.Errorf("ParseOrder(%q) = %s, want %s", tt.raw, got, tt.expected)
		}
	}
}

func TestDownloadQueue_EndToEnd(t *testing.T) {
	t.Parallel()
	ch1 := testutil.AudioBytes(3000)
	ch2 := testutil.AudioBytes(1500)

	page := testutil.GenerateBookPageHTML([]testutil.TrackOptions{
		testutil.MetaTrack,
		{Title: "Ch1", RemotePath: "book/a.mp3"},
		{Title: "Ch2", RemotePath: "book/b.mp3"},
	})

	chapters, err := parser.NewTracksExtractor("tracks").Extract(page)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	broken := testutil.NewFailingMirror(t, 500, "upstream error")
	mirror := testutil.NewMirrorServer(t, map[string][]byte{"book/a.mp3": ch1, "book/b.mp3": ch2})
	downloader := NewMirrorDownloader(nil, MirrorOptions{Mirrors: []string{broken.BaseURL(), mirror.BaseURL()}})

	dir := t.TempDir()
	summary := NewDownloadQueue(downloader, dir, OrderReverse).Run(context.Background(), chapters)

	if len(summary.Failed) != 0 {
		t.Fatalf("Expected no failures, got %+v", summary.Failed)
	}
	if len(summary.Succeeded) != 2 || summary.Succeeded[0].Chapter.Name != "Ch2" {
		t.Fatalf("Expected Ch2 then Ch1, got %+v", summary.Succeeded)
	}

	for name, content := range map[string][]byte{"Ch1.mp3": ch1, "Ch2.mp3": ch2} {
		info, err := os.Stat(filepath.Join(dir, name))
		if err != nil {
			t.Fatalf("Expected %s to exist: %v", name, err)
		}
		if info.Size() != int64(len(content)) {
			t.Errorf("Expected %s to be %d bytes, got %d", name, len(content), info.Size())
		}
	}
}

func TestDownloadQueue_EndToEndAllMirrorsDown(t *testing.T) {
	t.Parallel()
	chapters := chaptersNamed("Ch1", "Ch2")
	broken := testutil.NewFailingMirror(t, 404, "gone")
	downloader := NewMirrorDownloader(nil, MirrorOptions{Mirrors: []string{broken.BaseURL(), broken.BaseURL()}})

	summary := NewDownloadQueue(downloader, t.TempDir(), OrderReverse).Run(context.Background(), chapters)

	if len(summary.Failed) != 2 {
		t.Fatalf("Expected both chapters to fail, got %d", len(summary.Failed))
	}
	for _, r := range summary.Failed {
		if !errors.Is(r.Err, &apperrors.ChapterDownloadFailed{}) {
			t.Errorf("Expected ChapterDownloadFailed for %s, got %v", r.Chapter.Name, r.Err)
		}
	}
	if broken.Requests.Load() != 4 {
		t.Errorf("Expected 4 mirror requests, got %d", broken.Requests.Load())
	}
}
