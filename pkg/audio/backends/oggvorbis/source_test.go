package oggvorbis

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/audiodelta/pkg/audio/types"
)

type sliceReader struct {
	samples []float32
	chunk   int
	err     error
}

func (r *sliceReader) Read(p []float32) (int, error) {
	if len(r.samples) == 0 {
		if r.err != nil {
			return 0, r.err
		}
		return 0, io.EOF
	}
	n := min(len(p), r.chunk, len(r.samples))
	copy(p, r.samples[:n])
	r.samples = r.samples[n:]
	return n, nil
}

func readAll(t *testing.T, r types.FrameReader, ch types.Channel) []float64 {
	ctx := context.Background()
	var result []float64
	for {
		frame, err := r.ReadFrame(ctx)
		if errors.Is(err, io.EOF) {
			return result
		}
		require.NoError(t, err)
		require.NoError(t, frame.Validate())
		for idx := 0; idx < frame.Samples(); idx++ {
			result = append(result, frame.Sample(idx, ch))
		}
	}
}

func TestFrameReader(t *testing.T) {
	// chunks split frames across reads
	src := &sliceReader{
		samples: []float32{0.5, -0.5, 0.25, -0.25, 1, -1, 0.125},
		chunk:   3,
	}
	r := NewFrameReader(src, 2)
	r.SamplesPerFrame = 2

	left := readAll(t, r, 0)
	require.Equal(t, []float64{0.5, 0.25, 1}, left)

	_, err := r.ReadFrame(context.Background())
	require.ErrorIs(t, err, io.EOF)
}

func TestFrameReaderRightChannel(t *testing.T) {
	src := &sliceReader{
		samples: []float32{0.5, -0.5, 0.25, -0.25, 1, -1},
		chunk:   1,
	}
	r := NewFrameReader(src, 2)
	r.SamplesPerFrame = 4
	require.Equal(t, []float64{-0.5, -0.25, -1}, readAll(t, r, 1))
}

func TestFrameReaderError(t *testing.T) {
	src := &sliceReader{
		samples: []float32{0.5, -0.5},
		chunk:   2,
		err:     errors.New("corrupted packet"),
	}
	r := NewFrameReader(src, 2)
	r.SamplesPerFrame = 4
	_, err := r.ReadFrame(context.Background())
	require.ErrorContains(t, err, "corrupted packet")
}

func TestSourceOggVorbisInvalid(t *testing.T) {
	f := SourceOggVorbisFactory{}
	require.True(t, f.CanOpen("a.ogg"))
	require.True(t, f.CanOpen("a.OGA"))
	require.False(t, f.CanOpen("a.opus"))

	path := filepath.Join(t.TempDir(), "garbage.ogg")
	require.NoError(t, os.WriteFile(path, []byte("this is not an ogg stream at all"), 0o644))
	_, err := f.NewSource(context.Background(), path)
	require.Error(t, err)
}
