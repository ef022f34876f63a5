// Package pcmstream contains the pieces shared by the decoding backends:
// cutting a byte stream of interleaved PCM into frames and exposing a
// single-stream media file as a types.Source.
package pcmstream

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/xaionaro-go/audiodelta/pkg/audio/types"
	"github.com/xaionaro-go/datacounter"
)

const DefaultSamplesPerFrame = 4096

// Reader cuts interleaved PCM into frames. A trailing incomplete frame
// is dropped.
type Reader struct {
	Counter         *datacounter.ReaderCounter
	Format          types.PCMFormat
	Channels        types.Channel
	SamplesPerFrame int

	// OnEOF, if set, is called once the backend is exhausted; its error
	// replaces io.EOF.
	OnEOF func(ctx context.Context) error

	eof bool
}

var _ types.FrameReader = (*Reader)(nil)

func NewReader(
	backend io.Reader,
	format types.PCMFormat,
	channels types.Channel,
) *Reader {
	return &Reader{
		Counter:         datacounter.NewReaderCounter(backend),
		Format:          format,
		Channels:        channels,
		SamplesPerFrame: DefaultSamplesPerFrame,
	}
}

func (r *Reader) frameSize() int {
	return int(r.Format.Size()) * int(r.Channels)
}

func (r *Reader) ReadFrame(ctx context.Context) (*types.Frame, error) {
	if r.eof {
		return nil, io.EOF
	}
	frameSize := r.frameSize()
	if frameSize == 0 {
		return nil, fmt.Errorf("invalid layout: %d channels of %v", r.Channels, r.Format)
	}

	buf := make([]byte, frameSize*r.SamplesPerFrame)
	n, err := io.ReadFull(r.Counter, buf)
	switch {
	case err == nil:
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		r.eof = true
		if n%frameSize != 0 {
			logger.Debugf(ctx, "dropping a trailing incomplete frame of %d bytes", n%frameSize)
		}
		n -= n % frameSize
		logger.Debugf(ctx, "read %d bytes of %d-channel %v", r.Counter.Count(), r.Channels, r.Format)
		if r.OnEOF != nil {
			if err := r.OnEOF(ctx); err != nil {
				return nil, err
			}
		}
		if n == 0 {
			return nil, io.EOF
		}
	default:
		return nil, fmt.Errorf("unable to read: %w", err)
	}

	return &types.Frame{
		Format:   r.Format,
		Channels: r.Channels,
		Data:     buf[:n],
	}, nil
}

func (r *Reader) Close() error {
	return nil
}
