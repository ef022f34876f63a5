package audio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/xaionaro-go/audiodelta/pkg/samplebuffer"
)

// EstimateSamples guesses the amount of samples per channel from the
// container metadata. Zero means there is nothing to guess from.
func EstimateSamples(info StreamInfo) int {
	if info.Duration <= 0 || info.SampleRate == 0 {
		return 0
	}
	estimate := math.Ceil(info.Duration.Seconds() * float64(info.SampleRate))
	if estimate > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(estimate)
}

// Extract decodes the stream and appends every sample of the given channel
// to buf in file order, then finalizes buf. On failure buf is marked
// incomplete.
func Extract(
	ctx context.Context,
	src Source,
	streamIndex int,
	channel Channel,
	buf *samplebuffer.Buffer,
) (_err error) {
	defer func() {
		if _err != nil {
			buf.MarkIncomplete(_err)
		}
	}()

	info, err := StreamByIndex(src, streamIndex)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDecodeFailure, err)
	}
	if channel >= info.Channels {
		return fmt.Errorf("stream #%d has %d channels, but channel #%d is requested: %w", streamIndex, info.Channels, channel, ErrDecodeFailure)
	}

	reader, err := src.OpenStream(ctx, streamIndex)
	if err != nil {
		return fmt.Errorf("unable to open stream #%d: %w: %w", streamIndex, ErrDecodeFailure, err)
	}
	defer func() {
		if err := reader.Close(); err != nil {
			logger.Debugf(ctx, "unable to close the reader of stream #%d: %v", streamIndex, err)
		}
	}()

	frameCount := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		frame, err := reader.ReadFrame(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("unable to read frame #%d of stream #%d: %w: %w", frameCount, streamIndex, ErrDecodeFailure, err)
		}
		if err := frame.Validate(); err != nil {
			return fmt.Errorf("frame #%d of stream #%d is invalid: %w: %w", frameCount, streamIndex, ErrDecodeFailure, err)
		}
		if info.Format != PCMFormatUndefined && frame.Format.Size() != info.Format.Size() {
			return fmt.Errorf("frame #%d of stream #%d has %d-byte samples (%v), but the stream declares %d-byte ones (%v): %w", frameCount, streamIndex, frame.Format.Size(), frame.Format, info.Format.Size(), info.Format, ErrDecodeFailure)
		}
		if channel >= frame.Channels {
			return fmt.Errorf("frame #%d of stream #%d has %d channels, but channel #%d is requested: %w", frameCount, streamIndex, frame.Channels, channel, ErrDecodeFailure)
		}

		samples := frame.Samples()
		for i := 0; i < samples; i++ {
			if err := buf.Append(frame.Sample(i, channel)); err != nil {
				return fmt.Errorf("unable to store sample #%d: %w", buf.Len(), err)
			}
		}
		frameCount++
	}

	logger.Debugf(ctx, "stream #%d channel #%d of %s: %d samples in %d frames (estimated %d, capacity %d)",
		streamIndex, channel, src.ID(), buf.Len(), frameCount, EstimateSamples(info), buf.Cap())
	if err := buf.Finalize(buf.Len()); err != nil {
		return fmt.Errorf("unable to finalize the buffer: %w", err)
	}
	return nil
}
