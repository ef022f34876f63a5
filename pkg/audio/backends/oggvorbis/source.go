package oggvorbis

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/jfreymuth/oggvorbis"
	"github.com/xaionaro-go/audiodelta/pkg/audio/pcmstream"
	"github.com/xaionaro-go/audiodelta/pkg/audio/registry"
	"github.com/xaionaro-go/audiodelta/pkg/audio/types"
)

type SourceOggVorbisFactory struct{}

var _ registry.SourceFactory = SourceOggVorbisFactory{}

func (SourceOggVorbisFactory) CanOpen(path string) bool {
	return pcmstream.HasExtension(path, ".ogg", ".oga")
}

func (SourceOggVorbisFactory) NewSource(
	ctx context.Context,
	path string,
) (types.Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("unable to open '%s': %w", path, err)
	}

	r, err := oggvorbis.NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("unable to initialize the Vorbis decoder for '%s': %w", path, err)
	}
	if r.SampleRate() <= 0 || r.Channels() <= 0 {
		f.Close()
		return nil, fmt.Errorf("'%s' declares %d channels at %d Hz", path, r.Channels(), r.SampleRate())
	}

	sampleRate := types.SampleRate(r.SampleRate())
	channels := types.Channel(r.Channels())
	var duration time.Duration
	if length := r.Length(); length > 0 {
		duration = time.Duration(length) * time.Second / time.Duration(sampleRate)
	}
	logger.Debugf(ctx, "Ogg/Vorbis '%s': %d channels at %v (%v)", path, channels, sampleRate, duration)

	return &pcmstream.SingleStreamSource{
		SourceID: types.SourceID(path),
		Info: types.StreamInfo{
			Index:      0,
			IsAudio:    true,
			Codec:      "vorbis",
			Format:     types.PCMFormatFloat32LE,
			Channels:   channels,
			SampleRate: sampleRate,
			Duration:   duration,
		},
		Reader: NewFrameReader(r, channels),
		Closer: f,
	}, nil
}

// FloatReader is the subset of *oggvorbis.Reader used for decoding.
type FloatReader interface {
	Read(p []float32) (int, error)
}

// FrameReader turns interleaved float32 samples into Float32LE frames.
type FrameReader struct {
	Backend         FloatReader
	Channels        types.Channel
	SamplesPerFrame int

	total uint64
	eof   bool
}

var _ types.FrameReader = (*FrameReader)(nil)

func NewFrameReader(backend FloatReader, channels types.Channel) *FrameReader {
	return &FrameReader{
		Backend:         backend,
		Channels:        channels,
		SamplesPerFrame: pcmstream.DefaultSamplesPerFrame,
	}
}

func (r *FrameReader) ReadFrame(ctx context.Context) (*types.Frame, error) {
	if r.eof {
		return nil, io.EOF
	}
	channels := int(r.Channels)
	if channels == 0 {
		return nil, fmt.Errorf("zero channels")
	}

	want := r.SamplesPerFrame * channels
	buf := make([]float32, want)
	n := 0
	for n < want {
		read, err := r.Backend.Read(buf[n:])
		n += read
		if err == nil {
			if read == 0 {
				return nil, fmt.Errorf("the decoder returned no samples and no error")
			}
			continue
		}
		if !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("unable to decode: %w", err)
		}
		r.eof = true
		break
	}

	complete := n - n%channels
	if complete != n {
		logger.Debugf(ctx, "dropping %d trailing samples of an incomplete frame", n-complete)
	}
	r.total += uint64(complete / channels)
	if r.eof {
		logger.Debugf(ctx, "decoded %d samples per channel", r.total)
		if complete == 0 {
			return nil, io.EOF
		}
	}

	format := types.PCMFormatFloat32LE
	data := make([]byte, complete*int(format.Size()))
	for idx, v := range buf[:complete] {
		format.PutFloat64(data[idx*int(format.Size()):], float64(v))
	}
	return &types.Frame{
		Format:   format,
		Channels: r.Channels,
		Data:     data,
	}, nil
}

func (r *FrameReader) Close() error {
	return nil
}
