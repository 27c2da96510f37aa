package domain

import (
	"context"
	"errors"
)

// ErrUnknownDevice marks a payload whose serial has no calibration entry.
// Such payloads are dropped and logged; they never halt the pipeline.
var ErrUnknownDevice = errors.New("unknown device")

// RawMessage is one undecoded unit of work from the raw bus.
type RawMessage struct {
	Key       []byte
	Value     []byte
	Topic     string
	Partition int
	Offset    int64

	// Commit acknowledges the message after the unit of work completed.
	// Nil for sources without offsets (bulk fetch).
	Commit func(ctx context.Context) error
}
