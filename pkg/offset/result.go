package offset

import (
	"fmt"
	"io"
	"time"

	"github.com/xaionaro-go/audiodelta/pkg/audio/types"
	"github.com/xaionaro-go/audiodelta/pkg/channelselector"
)

type Result struct {
	channelselector.Selection
	SampleRate   types.SampleRate
	DeltaSamples int
}

// DeltaMilliseconds converts the delta into whole milliseconds, truncating
// toward zero.
func (r *Result) DeltaMilliseconds() int64 {
	return int64(r.DeltaSamples) * 1000 / int64(r.SampleRate)
}

func (r *Result) DeltaTime() time.Duration {
	return time.Duration(r.DeltaSamples) * time.Second / time.Duration(r.SampleRate)
}

// WriteTo prints the report in the format of the command line tool.
func (r *Result) WriteTo(w io.Writer) (int64, error) {
	n, err := fmt.Fprintf(w, "delta: %d samples\nsample rate: %d Hz\ndelta time: %d ms\n",
		r.DeltaSamples, uint32(r.SampleRate), r.DeltaMilliseconds())
	return int64(n), err
}

var _ io.WriterTo = (*Result)(nil)
