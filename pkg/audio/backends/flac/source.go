package flac

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/mewkiz/flac"
	"github.com/xaionaro-go/audiodelta/pkg/audio/pcmstream"
	"github.com/xaionaro-go/audiodelta/pkg/audio/planar"
	"github.com/xaionaro-go/audiodelta/pkg/audio/registry"
	"github.com/xaionaro-go/audiodelta/pkg/audio/types"
)

type SourceFLACFactory struct{}

var _ registry.SourceFactory = SourceFLACFactory{}

func (SourceFLACFactory) CanOpen(path string) bool {
	return pcmstream.HasExtension(path, ".flac")
}

func (SourceFLACFactory) NewSource(
	ctx context.Context,
	path string,
) (types.Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("unable to open '%s': %w", path, err)
	}

	stream, err := flac.New(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("unable to parse the FLAC header of '%s': %w", path, err)
	}

	info := stream.Info
	if info.SampleRate == 0 || info.NChannels == 0 {
		f.Close()
		return nil, fmt.Errorf("'%s' declares %d channels at %d Hz", path, info.NChannels, info.SampleRate)
	}
	var duration time.Duration
	if info.NSamples > 0 {
		duration = time.Duration(info.NSamples) * time.Second / time.Duration(info.SampleRate)
	}
	logger.Debugf(ctx, "FLAC '%s': %d channels of %d bits at %d Hz, %d samples", path, info.NChannels, info.BitsPerSample, info.SampleRate, info.NSamples)

	return &pcmstream.SingleStreamSource{
		SourceID: types.SourceID(path),
		Info: types.StreamInfo{
			Index:      0,
			IsAudio:    true,
			Codec:      "flac",
			Format:     types.PCMFormatS32LE,
			Channels:   types.Channel(info.NChannels),
			SampleRate: types.SampleRate(info.SampleRate),
			Duration:   duration,
		},
		Reader: &frameReader{stream: stream},
		Closer: f,
	}, nil
}

type frameReader struct {
	stream *flac.Stream
	count  int
}

var _ types.FrameReader = (*frameReader)(nil)

func (r *frameReader) ReadFrame(ctx context.Context) (*types.Frame, error) {
	frame, err := r.stream.ParseNext()
	if err != nil {
		if errors.Is(err, io.EOF) {
			logger.Debugf(ctx, "parsed %d FLAC frames", r.count)
			return nil, io.EOF
		}
		return nil, fmt.Errorf("unable to parse FLAC frame #%d: %w", r.count, err)
	}
	r.count++

	subframes := make([][]int32, len(frame.Subframes))
	for idx, subframe := range frame.Subframes {
		subframes[idx] = subframe.Samples
	}
	return Interleave(frame.BitsPerSample, int(frame.BlockSize), subframes)
}

func (r *frameReader) Close() error {
	return nil
}

// Interleave converts per-channel samples of the given bit depth into a
// frame of interleaved S32LE samples, shifted to use the full 32 bits.
func Interleave(
	bitsPerSample uint8,
	blockSize int,
	subframes [][]int32,
) (*types.Frame, error) {
	if bitsPerSample == 0 || bitsPerSample > 32 {
		return nil, fmt.Errorf("unsupported bit depth %d", bitsPerSample)
	}
	channels := types.Channel(len(subframes))
	if channels == 0 {
		return nil, fmt.Errorf("a frame without subframes")
	}
	const sampleSize = 4
	shift := 32 - uint(bitsPerSample)

	planarData := make([]byte, int(channels)*blockSize*sampleSize)
	for ch, samples := range subframes {
		if len(samples) < blockSize {
			return nil, fmt.Errorf("subframe #%d has %d samples, expected %d", ch, len(samples), blockSize)
		}
		offset := ch * blockSize * sampleSize
		for i, v := range samples[:blockSize] {
			binary.LittleEndian.PutUint32(planarData[offset+i*sampleSize:], uint32(v<<shift))
		}
	}

	data := make([]byte, len(planarData))
	if blockSize > 0 {
		if err := planar.Unplanarize(channels, sampleSize, data, planarData); err != nil {
			return nil, fmt.Errorf("unable to interleave: %w", err)
		}
	}

	return &types.Frame{
		Format:   types.PCMFormatS32LE,
		Channels: channels,
		Data:     data,
	}, nil
}
