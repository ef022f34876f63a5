package types

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

var (
	// ErrDecodeFailure is the umbrella for every failure to turn a source
	// into samples: unreadable files, unsupported codecs, corrupted frames.
	ErrDecodeFailure = errors.New("decode failure")

	// ErrUnsupportedSource means no registered backend could open a source.
	ErrUnsupportedSource = fmt.Errorf("unsupported source: %w", ErrDecodeFailure)
)

type StreamInfo struct {
	Index      int
	IsAudio    bool
	Codec      string
	Channels   Channel
	SampleRate SampleRate

	// Format is the sample format of the decoded frames;
	// PCMFormatUndefined means it is not known in advance.
	Format PCMFormat

	// Duration is taken from container metadata and is only an estimate;
	// zero means unknown.
	Duration time.Duration
}

type Source interface {
	io.Closer

	// ID identifies the underlying media; two handles opened on the same
	// file report the same ID.
	ID() string
	Streams() []StreamInfo
	OpenStream(ctx context.Context, streamIndex int) (FrameReader, error)
}

type FrameReader interface {
	io.Closer

	// ReadFrame returns the next frame in file order, or io.EOF.
	ReadFrame(ctx context.Context) (*Frame, error)
}

// Frame is a block of interleaved samples.
type Frame struct {
	Format   PCMFormat
	Channels Channel
	Data     []byte
}

// Samples returns the amount of samples per channel.
func (f *Frame) Samples() int {
	frameSize := int(f.Format.Size()) * int(f.Channels)
	if frameSize == 0 {
		return 0
	}
	return len(f.Data) / frameSize
}

// Sample returns sample number idx of channel ch as a float64 in [-1, 1].
func (f *Frame) Sample(idx int, ch Channel) float64 {
	sampleSize := int(f.Format.Size())
	offset := (idx*int(f.Channels) + int(ch)) * sampleSize
	return f.Format.Float64(f.Data[offset : offset+sampleSize])
}

// Validate checks the frame is internally consistent.
func (f *Frame) Validate() error {
	if f.Format.Size() == 0 {
		return fmt.Errorf("unknown sample format %v", f.Format)
	}
	if f.Channels == 0 {
		return fmt.Errorf("a frame with zero channels")
	}
	frameSize := int(f.Format.Size()) * int(f.Channels)
	if len(f.Data)%frameSize != 0 {
		return fmt.Errorf("frame data length %d is not a multiple of %d (%d channels of %v)", len(f.Data), frameSize, f.Channels, f.Format)
	}
	return nil
}

// SourceID returns the identity of the media at the given path: the
// absolute path with symlinks resolved. URLs are returned verbatim.
func SourceID(path string) string {
	if strings.Contains(path, "://") {
		return path
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved
	}
	return abs
}

// SameSource reports whether two paths point to the same media.
func SameSource(a, b string) bool {
	if SourceID(a) == SourceID(b) {
		return true
	}
	statA, err := os.Stat(a)
	if err != nil {
		return false
	}
	statB, err := os.Stat(b)
	if err != nil {
		return false
	}
	return os.SameFile(statA, statB)
}
