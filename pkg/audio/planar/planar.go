// Package planar converts planar PCM (all samples of a channel, then all
// samples of the next one) into the interleaved layout (one sample of every
// channel after another).
package planar

import (
	"fmt"

	"github.com/xaionaro-go/audiodelta/pkg/audio/types"
)

func checkLengths(channels types.Channel, sampleSize uint, output, input []byte) error {
	shortestMessageSize := int(channels) * int(sampleSize)
	if shortestMessageSize == 0 {
		return fmt.Errorf("channels and sample size must be positive: %d*%d", channels, sampleSize)
	}
	if len(input) < shortestMessageSize {
		return fmt.Errorf("the provided input buffer is too short: %d < %d", len(input), shortestMessageSize)
	}
	if len(input)%shortestMessageSize != 0 {
		return fmt.Errorf("expected a message length that is a multiple of %d, but received %d", shortestMessageSize, len(input))
	}
	if len(input) != len(output) {
		return fmt.Errorf("the lengths of input and output are not equal: %d != %d", len(input), len(output))
	}
	return nil
}

// Unplanarize converts planar input into interleaved output.
func Unplanarize(channels types.Channel, sampleSize uint, output, input []byte) error {
	if err := checkLengths(channels, sampleSize, output, input); err != nil {
		return err
	}
	samplesPerChan := len(input) / int(channels) / int(sampleSize)
	frameSize := int(sampleSize) * int(channels)

	for ch := 0; ch < int(channels); ch++ {
		inOffset := ch * samplesPerChan * int(sampleSize)
		outOffset := int(sampleSize) * ch
		for pos := 0; pos < samplesPerChan; pos++ {
			in := inOffset + pos*int(sampleSize)
			out := outOffset + pos*frameSize
			copy(output[out:out+int(sampleSize)], input[in:in+int(sampleSize)])
		}
	}
	return nil
}
