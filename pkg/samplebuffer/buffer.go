// Package samplebuffer implements a growable container of mono float64
// samples filled by a decoder and consumed by a correlator.
package samplebuffer

import (
	"errors"
	"fmt"

	"github.com/xaionaro-go/audiodelta/pkg/alloc"
)

var (
	ErrOutOfMemory = alloc.ErrOutOfMemory
	ErrFinalized   = errors.New("the buffer is already finalized")
	ErrReleased    = errors.New("the buffer is already released")
)

// Buffer is owned by a single goroutine at a time: the decoder writes it,
// and only after Finalize it is handed over to a reader.
type Buffer struct {
	data       []float64
	maxSamples int
	finalized  bool
	released   bool
	err        error
}

type Option interface {
	apply(*Buffer)
}

type OptionMaxSamples int

func (opt OptionMaxSamples) apply(b *Buffer) {
	b.maxSamples = int(opt)
}

// New creates an empty buffer with room for at least initialCapacity samples.
func New(initialCapacity int, opts ...Option) (*Buffer, error) {
	if initialCapacity < 0 {
		return nil, fmt.Errorf("negative capacity: %d", initialCapacity)
	}
	b := &Buffer{}
	for _, opt := range opts {
		opt.apply(b)
	}
	if b.maxSamples > 0 && initialCapacity > b.maxSamples {
		initialCapacity = b.maxSamples
	}
	data, err := alloc.Make[float64](initialCapacity)
	if err != nil {
		return nil, fmt.Errorf("unable to allocate %d samples: %w", initialCapacity, err)
	}
	b.data = data[:0]
	return b, nil
}

// Append adds a sample to the end. When the capacity is exhausted it is
// doubled (or grown to the limit set by OptionMaxSamples). On failure the
// buffer is left unchanged.
func (b *Buffer) Append(v float64) error {
	switch {
	case b.released:
		return ErrReleased
	case b.finalized:
		return ErrFinalized
	}
	if len(b.data) == cap(b.data) {
		if err := b.grow(); err != nil {
			return err
		}
	}
	b.data = append(b.data, v)
	return nil
}

func (b *Buffer) grow() error {
	length := len(b.data)
	newCap := 2 * cap(b.data)
	if newCap < length+1 {
		newCap = length + 1
	}
	if b.maxSamples > 0 {
		if length+1 > b.maxSamples {
			return fmt.Errorf("the limit of %d samples is reached: %w", b.maxSamples, ErrOutOfMemory)
		}
		if newCap > b.maxSamples {
			newCap = b.maxSamples
		}
	}
	data, err := alloc.Grow(b.data, newCap)
	if err != nil {
		return fmt.Errorf("unable to grow the buffer from %d to %d samples: %w", cap(b.data), newCap, err)
	}
	b.data = data
	return nil
}

// Finalize fixes the logical length to exactLength, which must not exceed
// the amount of appended samples. Physical storage is not shrunk.
func (b *Buffer) Finalize(exactLength int) error {
	if b.released {
		return ErrReleased
	}
	if exactLength < 0 || exactLength > len(b.data) {
		return fmt.Errorf("cannot finalize at %d samples: only %d were written", exactLength, len(b.data))
	}
	b.data = b.data[:exactLength]
	b.finalized = true
	return nil
}

// MarkIncomplete records that filling the buffer was aborted by err.
// Such a buffer must not be correlated.
func (b *Buffer) MarkIncomplete(err error) {
	if err == nil {
		err = errors.New("incomplete")
	}
	b.err = err
}

// Err returns the error passed to MarkIncomplete.
func (b *Buffer) Err() error {
	return b.err
}

func (b *Buffer) IsFinalized() bool {
	return b.finalized && !b.released
}

func (b *Buffer) Len() int {
	return len(b.data)
}

func (b *Buffer) Cap() int {
	return cap(b.data)
}

// Samples returns the written samples. The slice is only valid until Release.
func (b *Buffer) Samples() []float64 {
	return b.data
}

// Release drops the storage. It is safe to call it more than once.
func (b *Buffer) Release() {
	if b == nil || b.released {
		return
	}
	b.released = true
	b.data = nil
}
