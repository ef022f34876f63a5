package mp3

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/hajimehoshi/go-mp3"
	"github.com/xaionaro-go/audiodelta/pkg/audio/pcmstream"
	"github.com/xaionaro-go/audiodelta/pkg/audio/registry"
	"github.com/xaionaro-go/audiodelta/pkg/audio/types"
)

// The decoder always produces 16-bit little-endian stereo.
const (
	outputFormat   = types.PCMFormatS16LE
	outputChannels = types.Channel(2)
)

type SourceMP3Factory struct{}

var _ registry.SourceFactory = SourceMP3Factory{}

func (SourceMP3Factory) CanOpen(path string) bool {
	return pcmstream.HasExtension(path, ".mp3")
}

func (SourceMP3Factory) NewSource(
	ctx context.Context,
	path string,
) (types.Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("unable to open '%s': %w", path, err)
	}

	d, err := mp3.NewDecoder(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("unable to initialize the MP3 decoder for '%s': %w", path, err)
	}
	if d.SampleRate() <= 0 {
		f.Close()
		return nil, fmt.Errorf("'%s' declares sample rate %d", path, d.SampleRate())
	}

	sampleRate := types.SampleRate(d.SampleRate())
	duration := Duration(d.Length(), sampleRate)
	logger.Debugf(ctx, "MP3 '%s': %v, %d bytes of decoded PCM (%v)", path, sampleRate, d.Length(), duration)

	return &pcmstream.SingleStreamSource{
		SourceID: types.SourceID(path),
		Info: types.StreamInfo{
			Index:      0,
			IsAudio:    true,
			Codec:      "mp3",
			Format:     outputFormat,
			Channels:   outputChannels,
			SampleRate: sampleRate,
			Duration:   duration,
		},
		Reader: pcmstream.NewReader(d, outputFormat, outputChannels),
		Closer: f,
	}, nil
}

// Duration converts the decoded PCM length in bytes into time. A negative
// length means unknown.
func Duration(length int64, sampleRate types.SampleRate) time.Duration {
	if length <= 0 || sampleRate == 0 {
		return 0
	}
	samples := length / int64(outputFormat.Size()) / int64(outputChannels)
	return time.Duration(samples) * time.Second / time.Duration(sampleRate)
}
