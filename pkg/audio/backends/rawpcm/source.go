// Package rawpcm opens headerless interleaved PCM files. The layout cannot
// be detected, so the factory is configured explicitly and registered by
// the caller.
package rawpcm

import (
	"context"
	"fmt"
	"os"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/xaionaro-go/audiodelta/pkg/audio/pcmstream"
	"github.com/xaionaro-go/audiodelta/pkg/audio/registry"
	"github.com/xaionaro-go/audiodelta/pkg/audio/types"
)

const (
	Priority = 50
)

type Factory struct {
	Encoding types.EncodingPCM
	Channels types.Channel
}

var _ registry.SourceFactory = (*Factory)(nil)

func (f *Factory) CanOpen(path string) bool {
	return pcmstream.HasExtension(path, ".raw", ".pcm")
}

func (f *Factory) validate() error {
	if f.Encoding.PCMFormat == types.PCMFormatUndefined || f.Encoding.PCMFormat >= types.EndOfPCMFormat {
		return fmt.Errorf("the PCM format is not set")
	}
	if f.Encoding.SampleRate == 0 {
		return fmt.Errorf("the sample rate is not set")
	}
	if f.Channels == 0 {
		return fmt.Errorf("the channel count is not set")
	}
	return nil
}

func (f *Factory) NewSource(
	ctx context.Context,
	path string,
) (types.Source, error) {
	if err := f.validate(); err != nil {
		return nil, fmt.Errorf("raw PCM '%s': %w", path, err)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("unable to open '%s': %w", path, err)
	}
	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("unable to stat '%s': %w", path, err)
	}

	format := f.Encoding.PCMFormat
	duration := f.Encoding.Duration(f.Channels, stat.Size())
	logger.Debugf(ctx, "raw PCM '%s': %d bytes of %d-channel %v at %v", path, stat.Size(), f.Channels, format, f.Encoding.SampleRate)

	return &pcmstream.SingleStreamSource{
		SourceID: types.SourceID(path),
		Info: types.StreamInfo{
			Index:      0,
			IsAudio:    true,
			Codec:      "pcm_" + format.String(),
			Format:     format,
			Channels:   f.Channels,
			SampleRate: f.Encoding.SampleRate,
			Duration:   duration,
		},
		Reader: pcmstream.NewReader(file, format, f.Channels),
		Closer: file,
	}, nil
}
