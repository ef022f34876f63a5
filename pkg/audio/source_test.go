package audio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/audiodelta/pkg/audio/registry"
	"github.com/xaionaro-go/audiodelta/pkg/samplebuffer"
)

type fakeSource struct {
	id      string
	streams []StreamInfo
	frames  []*Frame
	readErr error
	closed  bool
}

func (s *fakeSource) Close() error {
	s.closed = true
	return nil
}

func (s *fakeSource) ID() string              { return s.id }
func (s *fakeSource) Streams() []StreamInfo { return s.streams }

func (s *fakeSource) OpenStream(ctx context.Context, streamIndex int) (FrameReader, error) {
	if streamIndex != 0 {
		return nil, fmt.Errorf("only stream #0 is decodable")
	}
	return &fakeReader{source: s}, nil
}

type fakeReader struct {
	source *fakeSource
	pos    int
}

func (r *fakeReader) Close() error { return nil }

func (r *fakeReader) ReadFrame(ctx context.Context) (*Frame, error) {
	if r.pos >= len(r.source.frames) {
		if r.source.readErr != nil {
			return nil, r.source.readErr
		}
		return nil, io.EOF
	}
	f := r.source.frames[r.pos]
	r.pos++
	return f, nil
}

func stereoFrame(format PCMFormat, left, right []float64) *Frame {
	size := int(format.Size())
	f := &Frame{Format: format, Channels: 2, Data: make([]byte, 2*size*len(left))}
	for i := range left {
		format.PutFloat64(f.Data[(2*i)*size:], left[i])
		format.PutFloat64(f.Data[(2*i+1)*size:], right[i])
	}
	return f
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		id: "fake",
		streams: []StreamInfo{{
			Index:      0,
			IsAudio:    true,
			Channels:   2,
			Format:     PCMFormatS16LE,
			SampleRate: 8000,
			Duration:   time.Millisecond,
		}, {
			Index: 1,
		}},
		frames: []*Frame{
			stereoFrame(PCMFormatS16LE, []float64{0.5, 0.25, 0}, []float64{-0.5, -0.25, 0.125}),
			stereoFrame(PCMFormatS16LE, []float64{0.75}, []float64{-0.75}),
		},
	}
}

func TestExtract(t *testing.T) {
	ctx := context.Background()
	src := newFakeSource()
	require.Equal(t, 8, EstimateSamples(src.streams[0]))

	for ch, expected := range [][]float64{
		{0.5, 0.25, 0, 0.75},
		{-0.5, -0.25, 0.125, -0.75},
	} {
		buf, err := samplebuffer.New(EstimateSamples(src.streams[0]))
		require.NoError(t, err)
		require.NoError(t, Extract(ctx, src, 0, Channel(ch), buf))
		require.True(t, buf.IsFinalized())
		require.NoError(t, buf.Err())
		require.Equal(t, expected, buf.Samples())
		buf.Release()
	}
}

func TestExtractFailures(t *testing.T) {
	ctx := context.Background()

	for name, tc := range map[string]struct {
		modify  func(*fakeSource)
		stream  int
		channel Channel
	}{
		"missing_stream":  {stream: 7},
		"missing_channel": {channel: 2},
		"unopenable":      {stream: 1},
		"read_error": {modify: func(s *fakeSource) {
			s.readErr = errors.New("corrupted packet")
		}},
		"invalid_frame": {modify: func(s *fakeSource) {
			s.frames[1].Data = s.frames[1].Data[:3]
		}},
		"narrow_frame": {channel: 1, modify: func(s *fakeSource) {
			s.frames[1] = &Frame{Format: PCMFormatS16LE, Channels: 1, Data: []byte{0, 0}}
		}},
		"format_mismatch": {modify: func(s *fakeSource) {
			s.frames[1] = stereoFrame(PCMFormatFloat32LE, []float64{0.75}, []float64{-0.75})
		}},
	} {
		t.Run(name, func(t *testing.T) {
			src := newFakeSource()
			if tc.modify != nil {
				tc.modify(src)
			}
			buf, err := samplebuffer.New(0)
			require.NoError(t, err)
			defer buf.Release()

			err = Extract(ctx, src, tc.stream, tc.channel, buf)
			require.ErrorIs(t, err, ErrDecodeFailure)
			require.Error(t, buf.Err())
			require.False(t, buf.IsFinalized())
		})
	}

	t.Run("out_of_memory", func(t *testing.T) {
		buf, err := samplebuffer.New(0, samplebuffer.OptionMaxSamples(2))
		require.NoError(t, err)
		err = Extract(ctx, newFakeSource(), 0, 0, buf)
		require.ErrorIs(t, err, samplebuffer.ErrOutOfMemory)
		require.ErrorIs(t, buf.Err(), samplebuffer.ErrOutOfMemory)
	})

	t.Run("canceled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(ctx)
		cancel()
		buf, err := samplebuffer.New(0)
		require.NoError(t, err)
		err = Extract(ctx, newFakeSource(), 0, 0, buf)
		require.ErrorIs(t, err, context.Canceled)
		require.Error(t, buf.Err())
	})
}

func TestEstimateSamples(t *testing.T) {
	require.Zero(t, EstimateSamples(StreamInfo{SampleRate: 48000}))
	require.Zero(t, EstimateSamples(StreamInfo{Duration: time.Second}))
	require.Equal(t, 48000, EstimateSamples(StreamInfo{SampleRate: 48000, Duration: time.Second}))
	require.Equal(t, 4411, EstimateSamples(StreamInfo{SampleRate: 44100, Duration: 100*time.Millisecond + time.Microsecond}))
}

type failingFactory struct{}

func (failingFactory) CanOpen(path string) bool {
	return strings.HasPrefix(path, "fake://")
}

func (failingFactory) NewSource(context.Context, string) (Source, error) {
	return nil, errors.New("not today")
}

type fakeFactory struct{}

func (fakeFactory) CanOpen(path string) bool {
	return path == "fake://ok"
}

func (fakeFactory) NewSource(context.Context, string) (Source, error) {
	return newFakeSource(), nil
}

func TestOpenSourceAuto(t *testing.T) {
	ctx := context.Background()
	registry.RegisterSourceFactory(1000, failingFactory{})
	defer registry.UnregisterSourceFactory(failingFactory{})
	registry.RegisterSourceFactory(999, fakeFactory{})
	defer registry.UnregisterSourceFactory(fakeFactory{})

	src, err := OpenSourceAuto(ctx, "fake://ok")
	require.NoError(t, err)
	require.Equal(t, "fake", src.ID())

	_, err = OpenSourceAuto(ctx, "fake://broken")
	require.ErrorIs(t, err, ErrUnsupportedSource)
	require.ErrorIs(t, err, ErrDecodeFailure)
	require.Contains(t, err.Error(), "not today")

	_, err = OpenSourceAuto(ctx, "unknown://")
	require.ErrorIs(t, err, ErrUnsupportedSource)

	_, err = StreamByIndex(src, 3)
	require.Error(t, err)
}
