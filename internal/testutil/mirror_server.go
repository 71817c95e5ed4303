package testutil

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
)

// MirrorServer is an httptest server serving chapter files under /audio/.
// Paths not present in Files answer 404 with a short body.
type MirrorServer struct {
	*httptest.Server
	Files    map[string][]byte
	Requests atomic.Int32

	// Status, when non-zero, is returned for every request instead of the files
	Status int
	Body   string

	// OmitLength streams the body without a Content-Length header
	OmitLength bool
}

// NewMirrorServer starts a mirror serving files and registers its shutdown.
func NewMirrorServer(t *testing.T, files map[string][]byte) *MirrorServer {
	t.Helper()
	return startMirror(t, &MirrorServer{Files: files})
}

// NewUnsizedMirror starts a mirror that never declares a Content-Length.
func NewUnsizedMirror(t *testing.T, files map[string][]byte) *MirrorServer {
	t.Helper()
	return startMirror(t, &MirrorServer{Files: files, OmitLength: true})
}

// NewFailingMirror starts a mirror that answers every request with status and body.
func NewFailingMirror(t *testing.T, status int, body string) *MirrorServer {
	t.Helper()
	return startMirror(t, &MirrorServer{Status: status, Body: body})
}

func startMirror(t *testing.T, m *MirrorServer) *MirrorServer {
	t.Helper()
	m.Server = httptest.NewServer(http.HandlerFunc(m.serve))
	t.Cleanup(m.Close)
	return m
}

// BaseURL returns the mirror base URL chapters paths are appended to.
func (m *MirrorServer) BaseURL() string {
	return m.URL + "/audio/"
}

func (m *MirrorServer) serve(w http.ResponseWriter, r *http.Request) {
	m.Requests.Add(1)

	if m.Status != 0 {
		w.WriteHeader(m.Status)
		_, _ = w.Write([]byte(m.Body))
		return
	}

	content, ok := m.Files[strings.TrimPrefix(r.URL.Path, "/audio/")]
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("file not found"))
		return
	}

	w.Header().Set("Content-Type", "audio/mpeg")
	if !m.OmitLength {
		w.Header().Set("Content-Length", strconv.Itoa(len(content)))
	}
	w.WriteHeader(http.StatusOK)
	if m.OmitLength {
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
	}
	_, _ = w.Write(content)
}

// ClosedURL returns the base URL of a server that is no longer listening,
// so connections to it are refused.
func ClosedURL(t *testing.T) string {
	t.Helper()
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL + "/audio/"
	srv.Close()
	return url
}

// AudioBytes returns n bytes of deterministic fake audio content.
func AudioBytes(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i % 251)
	}
	return b
}
