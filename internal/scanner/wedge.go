package scanner

import (
	"bufio"
	"context"
	"io"
	"strings"
	"sync"
	"time"
)

// WedgeScanner reads newline-terminated scans from a reader, the way a USB
// keyboard-wedge barcode scanner types into a terminal. Blank lines are
// skipped; everything else is emitted verbatim as one event.
type WedgeScanner struct {
	input   io.Reader
	reader  *bufio.Scanner
	decoder Decoder // optional, for DecodeStaticImage

	mu     sync.Mutex
	events chan Event
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWedgeScanner creates a scanner over the given input. decoder may be nil
// when static image decoding is not available.
func NewWedgeScanner(input io.Reader, decoder Decoder) *WedgeScanner {
	return &WedgeScanner{
		input:   input,
		reader:  bufio.NewScanner(input),
		decoder: decoder,
	}
}

// StartSession begins emitting scan events. The channel closes when the
// input is exhausted, the context is cancelled or StopSession is called.
func (w *WedgeScanner) StartSession(ctx context.Context) (<-chan Event, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.events != nil {
		return nil, ErrSessionActive
	}

	ctx, cancel := context.WithCancel(ctx)
	events := make(chan Event)
	w.events = events
	w.cancel = cancel

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer close(events)
		for w.reader.Scan() {
			text := strings.TrimSpace(w.reader.Text())
			if text == "" {
				continue
			}
			select {
			case events <- Event{Text: text, At: time.Now()}:
			case <-ctx.Done():
				return
			}
		}
	}()

	return events, nil
}

// StopSession ends the active session and waits for the reader goroutine.
func (w *WedgeScanner) StopSession() error {
	w.mu.Lock()
	if w.events == nil {
		w.mu.Unlock()
		return ErrNoSession
	}
	cancel := w.cancel
	w.events = nil
	w.cancel = nil
	w.mu.Unlock()

	cancel()
	// Unblock a reader goroutine parked in Read; closable inputs (pipes,
	// serial ports) return an error and end the scan loop.
	if closer, ok := w.input.(io.Closer); ok {
		closer.Close()
	}
	w.wg.Wait()
	return nil
}

// DecodeStaticImage delegates to the injected decoder.
func (w *WedgeScanner) DecodeStaticImage(ctx context.Context, image []byte) (string, error) {
	if w.decoder == nil {
		return "", ErrNoDecoder
	}
	return w.decoder.DecodeImage(ctx, image)
}
