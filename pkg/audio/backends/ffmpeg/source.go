// Package ffmpeg decodes any container ffmpeg understands, including
// files with several audio streams and with non-audio streams.
package ffmpeg

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/hashicorp/go-multierror"
	"github.com/xaionaro-go/audiodelta/pkg/audio/pcmstream"
	"github.com/xaionaro-go/audiodelta/pkg/audio/registry"
	"github.com/xaionaro-go/audiodelta/pkg/audio/types"
)

const (
	// Priority is the lowest one: ffmpeg is the catch-all backend.
	Priority = 0

	DefaultFFmpegPath  = "ffmpeg"
	DefaultFFprobePath = "ffprobe"

	outputFormat = types.PCMFormatFloat64LE
)

type Factory struct {
	FFmpegPath  string
	FFprobePath string
	Executor    CommandExecutor
}

var _ registry.SourceFactory = (*Factory)(nil)

func NewFactory() *Factory {
	return &Factory{
		FFmpegPath:  DefaultFFmpegPath,
		FFprobePath: DefaultFFprobePath,
		Executor:    DefaultExecutor,
	}
}

func (f *Factory) CanOpen(path string) bool {
	return true
}

func (f *Factory) NewSource(
	ctx context.Context,
	path string,
) (types.Source, error) {
	cmd := f.Executor.Command(ctx, f.FFprobePath,
		"-v", "error",
		"-show_streams",
		"-show_format",
		"-of", "json",
		path,
	)
	var stderr bytes.Buffer
	cmd.SetStderr(&stderr)
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("unable to probe '%s' with %s: %w: %s", path, f.FFprobePath, err, strings.TrimSpace(stderr.String()))
	}

	streams, err := ParseProbe(out)
	if err != nil {
		return nil, fmt.Errorf("unable to probe '%s': %w", path, err)
	}
	logger.Debugf(ctx, "ffprobe '%s': %d streams", path, len(streams))

	return &Source{
		factory: f,
		path:    path,
		id:      types.SourceID(path),
		streams: streams,
	}, nil
}

type Source struct {
	factory *Factory
	path    string
	id      string
	streams []types.StreamInfo

	locker  sync.Mutex
	readers []*streamReader
	closed  bool
}

var _ types.Source = (*Source)(nil)

func (s *Source) ID() string {
	return s.id
}

func (s *Source) Streams() []types.StreamInfo {
	return s.streams
}

func (s *Source) OpenStream(
	ctx context.Context,
	streamIndex int,
) (types.FrameReader, error) {
	if streamIndex < 0 || streamIndex >= len(s.streams) {
		return nil, fmt.Errorf("there is no stream #%d in '%s'", streamIndex, s.path)
	}
	info := s.streams[streamIndex]
	if !info.IsAudio || info.Channels == 0 {
		return nil, fmt.Errorf("stream #%d of '%s' is not an audio stream with channels", streamIndex, s.path)
	}

	s.locker.Lock()
	defer s.locker.Unlock()
	if s.closed {
		return nil, fmt.Errorf("the source is closed")
	}

	f := s.factory
	ctx, cancelFn := context.WithCancel(ctx)
	cmd := f.Executor.Command(ctx, f.FFmpegPath,
		"-v", "error",
		"-nostdin",
		"-i", s.path,
		"-map", "0:"+strconv.Itoa(streamIndex),
		"-f", outputFormat.String(),
		"-acodec", "pcm_"+outputFormat.String(),
		"-",
	)
	r := &streamReader{
		cmd:      cmd,
		cancelFn: cancelFn,
	}
	cmd.SetStderr(&r.stderr)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancelFn()
		return nil, fmt.Errorf("unable to get the stdout of %s: %w", f.FFmpegPath, err)
	}
	if err := cmd.Start(); err != nil {
		cancelFn()
		return nil, fmt.Errorf("unable to start %s: %w", f.FFmpegPath, err)
	}
	logger.Debugf(ctx, "started %s for stream #%d of '%s'", f.FFmpegPath, streamIndex, s.path)

	r.Reader = pcmstream.NewReader(stdout, outputFormat, info.Channels)
	r.Reader.OnEOF = r.wait
	s.readers = append(s.readers, r)
	return r, nil
}

func (s *Source) Close() error {
	s.locker.Lock()
	defer s.locker.Unlock()
	s.closed = true
	var mErr *multierror.Error
	for _, r := range s.readers {
		if err := r.Close(); err != nil {
			mErr = multierror.Append(mErr, err)
		}
	}
	s.readers = nil
	return mErr.ErrorOrNil()
}

type streamReader struct {
	*pcmstream.Reader
	cmd      Commander
	cancelFn context.CancelFunc
	stderr   bytes.Buffer

	waitOnce sync.Once
	waitErr  error
}

// wait reaps the process; a non-zero exit status is a decoding failure.
func (r *streamReader) wait(ctx context.Context) error {
	r.waitOnce.Do(func() {
		err := r.cmd.Wait()
		if err != nil {
			r.waitErr = fmt.Errorf("ffmpeg failed: %w: %s", err, strings.TrimSpace(r.stderr.String()))
		}
		logger.Debugf(ctx, "ffmpeg finished: %v", err)
	})
	return r.waitErr
}

var _ types.FrameReader = (*streamReader)(nil)

// Close stops the process if it is still running. The exit status of a
// killed process is not an error.
func (r *streamReader) Close() error {
	r.cancelFn()
	_ = r.wait(context.Background())
	return nil
}
