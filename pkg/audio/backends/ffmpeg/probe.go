package ffmpeg

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/xaionaro-go/audiodelta/pkg/audio/types"
)

type probeOutput struct {
	Streams []probeStream `json:"streams"`
	Format  struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

type probeStream struct {
	Index      int    `json:"index"`
	CodecType  string `json:"codec_type"`
	CodecName  string `json:"codec_name"`
	Channels   int    `json:"channels"`
	SampleRate string `json:"sample_rate"`
	Duration   string `json:"duration"`
}

func parseSeconds(s string) time.Duration {
	if s == "" || s == "N/A" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v <= 0 {
		return 0
	}
	return time.Duration(v * float64(time.Second))
}

// ParseProbe converts the JSON printed by
// "ffprobe -show_streams -show_format -of json" into the stream list,
// ordered by the container stream index.
func ParseProbe(data []byte) ([]types.StreamInfo, error) {
	var out probeOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("unable to parse the ffprobe output: %w", err)
	}
	formatDuration := parseSeconds(out.Format.Duration)

	result := make([]types.StreamInfo, 0, len(out.Streams))
	for pos, s := range out.Streams {
		if s.Index != pos {
			return nil, fmt.Errorf("stream #%d is reported at position %d", s.Index, pos)
		}
		info := types.StreamInfo{
			Index:   s.Index,
			IsAudio: s.CodecType == "audio",
			Codec:   s.CodecName,
		}
		if info.IsAudio {
			if s.Channels < 0 {
				return nil, fmt.Errorf("stream #%d has %d channels", s.Index, s.Channels)
			}
			info.Channels = types.Channel(s.Channels)
			info.Format = outputFormat
			if s.SampleRate != "" {
				rate, err := strconv.ParseUint(s.SampleRate, 10, 32)
				if err != nil {
					return nil, fmt.Errorf("stream #%d has an invalid sample rate '%s': %w", s.Index, s.SampleRate, err)
				}
				info.SampleRate = types.SampleRate(rate)
			}
			info.Duration = parseSeconds(s.Duration)
			if info.Duration == 0 {
				info.Duration = formatDuration
			}
		}
		result = append(result, info)
	}
	return result, nil
}
