package pcmstream

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xaionaro-go/audiodelta/pkg/audio/types"
)

// SingleStreamSource is a types.Source of a file with one audio stream,
// which can be decoded once.
type SingleStreamSource struct {
	SourceID string
	Info     types.StreamInfo
	Reader   types.FrameReader
	Closer   io.Closer

	opened bool
}

var _ types.Source = (*SingleStreamSource)(nil)

func (s *SingleStreamSource) ID() string {
	return s.SourceID
}

func (s *SingleStreamSource) Streams() []types.StreamInfo {
	return []types.StreamInfo{s.Info}
}

func (s *SingleStreamSource) OpenStream(
	ctx context.Context,
	streamIndex int,
) (types.FrameReader, error) {
	if streamIndex != s.Info.Index {
		return nil, fmt.Errorf("there is no stream #%d, the only stream is #%d", streamIndex, s.Info.Index)
	}
	if s.opened {
		return nil, fmt.Errorf("stream #%d is already consumed", streamIndex)
	}
	s.opened = true
	return s.Reader, nil
}

func (s *SingleStreamSource) Close() error {
	if s.Closer == nil {
		return nil
	}
	return s.Closer.Close()
}

// HasExtension reports whether the path ends with one of the extensions
// (given with the leading dot), ignoring the case.
func HasExtension(path string, exts ...string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, candidate := range exts {
		if ext == candidate {
			return true
		}
	}
	return false
}
