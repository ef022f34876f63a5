package offset

import (
	"errors"
	"fmt"

	"github.com/xaionaro-go/audiodelta/pkg/alloc"
	"github.com/xaionaro-go/audiodelta/pkg/audio/types"
	"github.com/xaionaro-go/audiodelta/pkg/channelselector"
	"github.com/xaionaro-go/audiodelta/pkg/syncer"
)

var (
	ErrInsufficientChannels = channelselector.ErrInsufficientChannels
	ErrSampleRateMismatch   = errors.New("sample rate mismatch")
	ErrEmptySignal          = syncer.ErrEmptySignal
	ErrOutOfMemory          = alloc.ErrOutOfMemory
	ErrDecodeFailure        = types.ErrDecodeFailure
)

type ErrSampleRateMismatchDetails struct {
	A types.SampleRate
	B types.SampleRate
}

func (e ErrSampleRateMismatchDetails) Error() string {
	return fmt.Sprintf("%v: input A is %v, input B is %v", ErrSampleRateMismatch, e.A, e.B)
}

func (e ErrSampleRateMismatchDetails) Unwrap() error {
	return ErrSampleRateMismatch
}

// ErrInput attributes an error to one of the inputs.
type ErrInput struct {
	Input channelselector.Input
	Path  string
	Err   error
}

func (e ErrInput) Error() string {
	return fmt.Sprintf("input %s ('%s'): %v", e.Input, e.Path, e.Err)
}

func (e ErrInput) Unwrap() error {
	return e.Err
}
