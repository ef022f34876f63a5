package audio

import (
	"context"
	"fmt"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/hashicorp/go-multierror"
	"github.com/xaionaro-go/audiodelta/pkg/audio/registry"
)

// OpenSourceAuto opens the path with the first registered backend (by
// priority) that accepts it.
func OpenSourceAuto(
	ctx context.Context,
	path string,
) (Source, error) {
	var mErr *multierror.Error
	for _, factory := range registry.SourceFactories() {
		if !factory.CanOpen(path) {
			logger.Tracef(ctx, "%T does not handle '%s'", factory, path)
			continue
		}

		source, err := factory.NewSource(ctx, path)
		logger.Debugf(ctx, "opening '%s' with %T result is %v", path, factory, err)
		if err != nil {
			mErr = multierror.Append(mErr, fmt.Errorf("unable to open with %T: %w", factory, err))
			continue
		}

		return source, nil
	}

	if mErr == nil {
		return nil, fmt.Errorf("no backend accepts '%s': %w", path, ErrUnsupportedSource)
	}
	return nil, fmt.Errorf("unable to open '%s': %w: %w", path, ErrUnsupportedSource, mErr.ErrorOrNil())
}

// StreamByIndex returns the description of the stream with the given index.
func StreamByIndex(src Source, streamIndex int) (StreamInfo, error) {
	for _, stream := range src.Streams() {
		if stream.Index == streamIndex {
			return stream, nil
		}
	}
	return StreamInfo{}, fmt.Errorf("source %s has no stream #%d", src.ID(), streamIndex)
}
