package wav

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/audiodelta/pkg/audio/types"
)

func TestSourceWAV(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	left := make([]float64, 10000)
	right := make([]float64, len(left))
	for i := range left {
		left[i] = float64(i%200)/200 - 0.5
		right[i] = -left[i] / 2
	}

	for _, bitDepth := range []int{8, 16, 24, 32} {
		path := filepath.Join(dir, "stereo.wav")
		require.NoError(t, WriteFile(path, 22050, bitDepth, left, right))

		f := SourceWAVFactory{}
		require.True(t, f.CanOpen(path))
		require.False(t, f.CanOpen(filepath.Join(dir, "stereo.flac")))

		src, err := f.NewSource(ctx, path)
		require.NoError(t, err)
		require.Equal(t, types.SourceID(path), src.ID())

		streams := src.Streams()
		require.Len(t, streams, 1)
		require.True(t, streams[0].IsAudio)
		require.Equal(t, types.Channel(2), streams[0].Channels)
		require.Equal(t, types.SampleRate(22050), streams[0].SampleRate)
		require.InDelta(t, 10000.0/22050, streams[0].Duration.Seconds(), 0.001)

		reader, err := src.OpenStream(ctx, 0)
		require.NoError(t, err)

		var decodedLeft, decodedRight []float64
		for {
			frame, err := reader.ReadFrame(ctx)
			if errors.Is(err, io.EOF) {
				break
			}
			require.NoError(t, err)
			for i := 0; i < frame.Samples(); i++ {
				decodedLeft = append(decodedLeft, frame.Sample(i, 0))
				decodedRight = append(decodedRight, frame.Sample(i, 1))
			}
		}
		require.Len(t, decodedLeft, len(left))
		for i := range left {
			require.InDelta(t, left[i], decodedLeft[i], 1.0/64, "bit depth %d sample %d", bitDepth, i)
			require.InDelta(t, right[i], decodedRight[i], 1.0/64, "bit depth %d sample %d", bitDepth, i)
		}

		require.NoError(t, reader.Close())
		require.NoError(t, src.Close())
	}
}

func TestSourceWAVInvalid(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	path := filepath.Join(dir, "garbage.wav")
	require.NoError(t, os.WriteFile(path, []byte("definitely not a RIFF file"), 0o644))
	_, err := SourceWAVFactory{}.NewSource(ctx, path)
	require.Error(t, err)

	_, err = SourceWAVFactory{}.NewSource(ctx, filepath.Join(dir, "missing.wav"))
	require.Error(t, err)

	require.Error(t, WriteFile(filepath.Join(dir, "x.wav"), 8000, 16))
	require.Error(t, WriteFile(filepath.Join(dir, "x.wav"), 8000, 16, []float64{1}, []float64{}))
}

func TestPCMFormat(t *testing.T) {
	for _, tc := range []struct {
		audioFormat uint16
		bitDepth    uint16
		expected    types.PCMFormat
	}{
		{formatPCM, 8, types.PCMFormatU8},
		{formatPCM, 16, types.PCMFormatS16LE},
		{formatPCM, 24, types.PCMFormatS24LE},
		{formatPCM, 32, types.PCMFormatS32LE},
		{formatIEEEFloat, 32, types.PCMFormatFloat32LE},
		{formatIEEEFloat, 64, types.PCMFormatFloat64LE},
	} {
		f, err := PCMFormat(tc.audioFormat, tc.bitDepth)
		require.NoError(t, err)
		require.Equal(t, tc.expected, f)
	}

	_, err := PCMFormat(formatIEEEFloat, 16)
	require.Error(t, err)
	_, err = PCMFormat(2, 16)
	require.Error(t, err)
	_, err = PCMFormat(formatExtensible, 32)
	require.Error(t, err)
}

// writeExtensible writes a mono 8kHz WAVE_FORMAT_EXTENSIBLE file.
// go-audio/wav is not able to produce one.
func writeExtensible(t *testing.T, path string, guid []byte, bitDepth uint16, pcm []byte) {
	blockAlign := bitDepth / 8
	var b bytes.Buffer
	le := func(v any) {
		require.NoError(t, binary.Write(&b, binary.LittleEndian, v))
	}
	b.WriteString("RIFF")
	le(uint32(4 + 8 + 40 + 8 + len(pcm)))
	b.WriteString("WAVE")
	b.WriteString("fmt ")
	le(uint32(40))
	le(uint16(formatExtensible))
	le(uint16(1))
	le(uint32(8000))
	le(uint32(8000) * uint32(blockAlign))
	le(blockAlign)
	le(bitDepth)
	le(uint16(22))
	le(bitDepth)
	le(uint32(4))
	b.Write(guid)
	b.WriteString("data")
	le(uint32(len(pcm)))
	b.Write(pcm)
	require.NoError(t, os.WriteFile(path, b.Bytes(), 0o644))
}

func subFormatGUID(code uint16) []byte {
	return append(binary.LittleEndian.AppendUint16(nil, code), guidSuffix...)
}

func TestSourceWAVExtensible(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	values := []float64{0.5, -0.25, 0.125, 0}
	for _, tc := range []struct {
		name   string
		code   uint16
		format types.PCMFormat
	}{
		{"float", formatIEEEFloat, types.PCMFormatFloat32LE},
		{"pcm", formatPCM, types.PCMFormatS32LE},
	} {
		t.Run(tc.name, func(t *testing.T) {
			pcm := make([]byte, 4*len(values))
			for i, v := range values {
				tc.format.PutFloat64(pcm[4*i:], v)
			}
			path := filepath.Join(dir, tc.name+".wav")
			writeExtensible(t, path, subFormatGUID(tc.code), 32, pcm)

			src, err := SourceWAVFactory{}.NewSource(ctx, path)
			require.NoError(t, err)
			defer src.Close()
			require.Equal(t, tc.format, src.Streams()[0].Format)

			reader, err := src.OpenStream(ctx, 0)
			require.NoError(t, err)
			defer reader.Close()
			var decoded []float64
			for {
				frame, err := reader.ReadFrame(ctx)
				if errors.Is(err, io.EOF) {
					break
				}
				require.NoError(t, err)
				require.Equal(t, tc.format, frame.Format)
				for i := 0; i < frame.Samples(); i++ {
					decoded = append(decoded, frame.Sample(i, 0))
				}
			}
			require.InDeltaSlice(t, values, decoded, 1e-9)
		})
	}

	t.Run("unsupported", func(t *testing.T) {
		pcm := make([]byte, 16)
		path := filepath.Join(dir, "adpcm.wav")
		writeExtensible(t, path, subFormatGUID(2), 32, pcm)
		_, err := SourceWAVFactory{}.NewSource(ctx, path)
		require.Error(t, err)

		guid := subFormatGUID(formatPCM)
		guid[15] ^= 0xFF
		path = filepath.Join(dir, "vendor.wav")
		writeExtensible(t, path, guid, 32, pcm)
		_, err = SourceWAVFactory{}.NewSource(ctx, path)
		require.Error(t, err)
	})
}
