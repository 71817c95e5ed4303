package pause

import (
	"bufio"
	"context"
	"io"
	"time"
	"unicode"

	"github.com/zigwangles/tokydownloader/internal/config"
)

// DefaultPollInterval is how often the listener checks for key presses.
const DefaultPollInterval = 100 * time.Millisecond

// Listener reads runes from an input stream and toggles a Controller each
// time the designated key is seen.
type Listener struct {
	controller *Controller
	key        rune
	interval   time.Duration
	onToggle   func(running bool)
}

// NewListener creates a listener toggling controller on key (case insensitive).
// onToggle may be nil; it runs on the listener goroutine after every toggle.
func NewListener(controller *Controller, key rune, interval time.Duration, onToggle func(running bool)) *Listener {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Listener{
		controller: controller,
		key:        unicode.ToLower(key),
		interval:   interval,
		onToggle:   onToggle,
	}
}

// Run polls in until ctx is cancelled. Reads happen on a separate goroutine
// so Run itself never blocks on input; that goroutine exits when in returns
// an error or EOF, which for a terminal may only be at process exit.
func (l *Listener) Run(ctx context.Context, in io.Reader) {
	logger := config.GetLogger()

	keys := make(chan rune, 16)
	go func() {
		defer close(keys)
		reader := bufio.NewReader(in)
		for {
			r, _, err := reader.ReadRune()
			if err != nil {
				if err != io.EOF {
					logger.Debug().Err(err).Msg("Pause listener input closed")
				}
				return
			}
			select {
			case keys <- r:
			case <-ctx.Done():
				return
			}
		}
	}()

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !l.drain(keys) {
				// Input is gone, nothing can toggle any more.
				<-ctx.Done()
				return
			}
		}
	}
}

// drain consumes every pending rune. It returns false once the input closed.
func (l *Listener) drain(keys <-chan rune) bool {
	for {
		select {
		case r, ok := <-keys:
			if !ok {
				return false
			}
			if unicode.ToLower(r) != l.key {
				continue
			}
			running := l.controller.Toggle()
			config.GetLogger().Debug().Bool("running", running).Msg("Pause toggled")
			if l.onToggle != nil {
				l.onToggle(running)
			}
		default:
			return true
		}
	}
}
