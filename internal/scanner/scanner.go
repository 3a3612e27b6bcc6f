package scanner

import (
	"context"
	"errors"
	"time"
)

// Common errors returned by scanner implementations
var (
	ErrSessionActive = errors.New("a scan session is already active")
	ErrNoSession     = errors.New("no scan session is active")
	ErrNoDecoder     = errors.New("no image decoder configured")
)

// Event is one decoded scan. Text is an opaque barcode string; any value is
// a valid lookup key attempt.
type Event struct {
	Text string
	At   time.Time
}

// Decoder extracts a barcode from a static image. Implementations wrap
// whatever vision library or external service the deployment uses.
type Decoder interface {
	DecodeImage(ctx context.Context, image []byte) (string, error)
}

// Scanner is the input collaborator the cart UI consumes: a stream of
// decoded-text events from a live session, plus one-shot image decoding.
type Scanner interface {
	StartSession(ctx context.Context) (<-chan Event, error)
	StopSession() error
	DecodeStaticImage(ctx context.Context, image []byte) (string, error)
}
