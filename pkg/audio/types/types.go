package types

import (
	"fmt"
	"time"
)

type Channel uint32

type SampleRate uint32

func (r SampleRate) String() string {
	return fmt.Sprintf("%d Hz", uint32(r))
}

// EncodingPCM describes headerless PCM.
type EncodingPCM struct {
	PCMFormat
	SampleRate
}

func (e EncodingPCM) BytesPerSample() uint {
	return e.PCMFormat.Size()
}

// Duration returns how long the given amount of bytes of interleaved PCM
// plays. A trailing incomplete frame is not counted.
func (e EncodingPCM) Duration(channels Channel, bytes int64) time.Duration {
	frameSize := int64(e.BytesPerSample()) * int64(channels)
	if frameSize == 0 || e.SampleRate == 0 || bytes <= 0 {
		return 0
	}
	samples := bytes / frameSize
	return time.Duration(samples) * time.Second / time.Duration(e.SampleRate)
}
