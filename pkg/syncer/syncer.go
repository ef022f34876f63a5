package syncer

import (
	"context"
	"errors"

	"github.com/xaionaro-go/audiodelta/pkg/alloc"
)

var (
	ErrEmptySignal  = errors.New("empty signal")
	ErrNotFinalized = errors.New("the signal is not finalized")
	ErrIncomplete   = errors.New("the signal is incomplete")
	ErrOutOfMemory  = alloc.ErrOutOfMemory
)

// Signal is a finished mono recording, usually a *samplebuffer.Buffer.
type Signal interface {
	Samples() []float64
	IsFinalized() bool

	// Err returns the reason the signal was left incomplete, if it was.
	Err() error
}

type Syncer interface {
	// CalculateDelta returns the lag (in samples) of the best alignment
	// of b against a. If b is a delayed by k samples (b[i] == a[i-k]),
	// the result is -k.
	CalculateDelta(ctx context.Context, a, b Signal) (int, error)
}

// Samples adapts a plain slice to Signal.
type Samples []float64

var _ Signal = Samples(nil)

func (s Samples) Samples() []float64 {
	return s
}

func (s Samples) IsFinalized() bool {
	return true
}

func (s Samples) Err() error {
	return nil
}
