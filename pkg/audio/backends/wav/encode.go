package wav

import (
	"fmt"
	"math"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// WriteFile stores the given channels (of equal length, samples in [-1, 1])
// as an integer PCM WAV file.
func WriteFile(
	path string,
	sampleRate int,
	bitDepth int,
	channels ...[]float64,
) (_err error) {
	if len(channels) == 0 {
		return fmt.Errorf("no channels given")
	}
	length := len(channels[0])
	for idx, ch := range channels {
		if len(ch) != length {
			return fmt.Errorf("channel #%d has %d samples, while channel #0 has %d", idx, len(ch), length)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("unable to create '%s': %w", path, err)
	}
	defer func() {
		if err := f.Close(); err != nil && _err == nil {
			_err = fmt.Errorf("unable to close '%s': %w", path, err)
		}
	}()

	scale := math.Ldexp(1, bitDepth-1)
	data := make([]int, 0, length*len(channels))
	for i := 0; i < length; i++ {
		for _, ch := range channels {
			v := math.Round(ch[i] * scale)
			v = math.Max(-scale, math.Min(scale-1, v))
			if bitDepth == 8 {
				// 8-bit WAV samples are unsigned
				v += scale
			}
			data = append(data, int(v))
		}
	}

	enc := wav.NewEncoder(f, sampleRate, bitDepth, len(channels), formatPCM)
	err = enc.Write(&audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: len(channels),
			SampleRate:  sampleRate,
		},
		Data:           data,
		SourceBitDepth: bitDepth,
	})
	if err != nil {
		return fmt.Errorf("unable to encode: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("unable to finish encoding: %w", err)
	}
	return nil
}
