package wav

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/go-audio/wav"
	"github.com/xaionaro-go/audiodelta/pkg/audio/pcmstream"
	"github.com/xaionaro-go/audiodelta/pkg/audio/registry"
	"github.com/xaionaro-go/audiodelta/pkg/audio/types"
)

const (
	formatPCM        = 1
	formatIEEEFloat  = 3
	formatExtensible = 0xFFFE
)

type SourceWAVFactory struct{}

var _ registry.SourceFactory = SourceWAVFactory{}

func (SourceWAVFactory) CanOpen(path string) bool {
	return pcmstream.HasExtension(path, ".wav", ".wave")
}

func (SourceWAVFactory) NewSource(
	ctx context.Context,
	path string,
) (types.Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("unable to open '%s': %w", path, err)
	}

	src, err := newSource(ctx, path, f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return src, nil
}

func newSource(
	ctx context.Context,
	path string,
	f *os.File,
) (types.Source, error) {
	d := wav.NewDecoder(f)
	d.ReadInfo()
	err := d.Err()
	if err != nil {
		return nil, fmt.Errorf("unable to read the WAV header: %w", err)
	}
	if !d.IsValidFile() {
		return nil, fmt.Errorf("'%s' is not a valid WAV file", path)
	}

	audioFormat := d.WavAudioFormat
	if audioFormat == formatExtensible {
		audioFormat, err = extensibleSubFormat(f)
		if err != nil {
			return nil, fmt.Errorf("unable to read the sub-format of '%s': %w", path, err)
		}
	}
	format, err := PCMFormat(audioFormat, d.BitDepth)
	if err != nil {
		return nil, err
	}

	if err := d.FwdToPCM(); err != nil {
		return nil, fmt.Errorf("unable to find the PCM data: %w", err)
	}

	if d.SampleRate == 0 {
		return nil, fmt.Errorf("'%s' declares a zero sample rate", path)
	}

	channels := types.Channel(d.NumChans)
	sampleRate := types.SampleRate(d.SampleRate)
	frameSize := int(format.Size()) * int(channels)
	var duration time.Duration
	if d.PCMSize > 0 && frameSize > 0 {
		samples := d.PCMSize / frameSize
		duration = time.Duration(samples) * time.Second / time.Duration(sampleRate)
	}
	logger.Debugf(ctx, "WAV '%s': %d channels of %v at %v, %d bytes of PCM", path, channels, format, sampleRate, d.PCMSize)

	return &pcmstream.SingleStreamSource{
		SourceID: types.SourceID(path),
		Info: types.StreamInfo{
			Index:      0,
			IsAudio:    true,
			Codec:      "wav/" + format.String(),
			Format:     format,
			Channels:   channels,
			SampleRate: sampleRate,
			Duration:   duration,
		},
		Reader: pcmstream.NewReader(io.LimitReader(d.PCMChunk, int64(d.PCMSize)), format, channels),
		Closer: f,
	}, nil
}

// guidSuffix is what follows the format code in every KSDATAFORMAT_SUBTYPE GUID.
var guidSuffix = []byte{0x00, 0x00, 0x00, 0x00, 0x10, 0x00, 0x80, 0x00, 0x00, 0xAA, 0x00, 0x38, 0x9B, 0x71}

// extensibleSubFormat finds the fmt chunk and returns the format code stored
// in its sub-format GUID. go-audio/wav skips the extension, so it is read
// directly; ReadAt leaves the offset of the decoder untouched.
func extensibleSubFormat(r io.ReaderAt) (uint16, error) {
	var header [8]byte
	offset := int64(12) // "RIFF", size, "WAVE"
	for {
		if _, err := r.ReadAt(header[:], offset); err != nil {
			return 0, fmt.Errorf("unable to find the fmt chunk: %w", err)
		}
		size := int64(binary.LittleEndian.Uint32(header[4:]))
		if string(header[:4]) != "fmt " {
			offset += 8 + size + size%2
			continue
		}
		if size < 40 {
			return 0, fmt.Errorf("the extensible fmt chunk is too short: %d < 40", size)
		}
		var guid [16]byte
		if _, err := r.ReadAt(guid[:], offset+8+24); err != nil {
			return 0, fmt.Errorf("unable to read the sub-format GUID: %w", err)
		}
		if !bytes.Equal(guid[2:], guidSuffix) {
			return 0, fmt.Errorf("unsupported sub-format GUID %X", guid)
		}
		return binary.LittleEndian.Uint16(guid[:2]), nil
	}
}

// PCMFormat maps the WAVE format tag and bit depth onto a sample format.
// WAVE_FORMAT_EXTENSIBLE has to be resolved into its sub-format first.
func PCMFormat(audioFormat uint16, bitDepth uint16) (types.PCMFormat, error) {
	switch audioFormat {
	case formatPCM:
		switch bitDepth {
		case 8:
			return types.PCMFormatU8, nil
		case 16:
			return types.PCMFormatS16LE, nil
		case 24:
			return types.PCMFormatS24LE, nil
		case 32:
			return types.PCMFormatS32LE, nil
		}
	case formatIEEEFloat:
		switch bitDepth {
		case 32:
			return types.PCMFormatFloat32LE, nil
		case 64:
			return types.PCMFormatFloat64LE, nil
		}
	}
	return types.PCMFormatUndefined, fmt.Errorf("unsupported WAV format %d with %d bits per sample", audioFormat, bitDepth)
}
