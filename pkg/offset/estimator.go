// Package offset estimates the offset between two audio signals taken from
// one or two media files.
package offset

import (
	"context"
	"fmt"

	"github.com/davecgh/go-spew/spew"
	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"

	"github.com/xaionaro-go/audiodelta/pkg/audio"
	"github.com/xaionaro-go/audiodelta/pkg/audio/types"
	"github.com/xaionaro-go/audiodelta/pkg/channelselector"
	"github.com/xaionaro-go/audiodelta/pkg/fft/implementations/gonum"
	"github.com/xaionaro-go/audiodelta/pkg/samplebuffer"
	"github.com/xaionaro-go/audiodelta/pkg/syncer"
	"github.com/xaionaro-go/audiodelta/pkg/syncer/implementations/xcorr"
)

type Input struct {
	Path string

	// Target fixes the stream and channel; nil means automatic.
	Target *channelselector.Target
}

func (in Input) String() string {
	if in.Target == nil {
		return in.Path
	}
	return fmt.Sprintf("%s (%v)", in.Path, *in.Target)
}

type Estimator struct {
	Syncer syncer.Syncer

	// NewSyncer, if set, takes precedence over Syncer; it is called once
	// the sample rate of the selected streams is known.
	NewSyncer func(sampleRate types.SampleRate) (syncer.Syncer, error)

	OpenSource func(ctx context.Context, path string) (types.Source, error)

	// Parallel decodes both inputs concurrently.
	Parallel bool

	// MaxSamples limits the length of each signal; zero means no limit.
	MaxSamples int
}

func NewEstimator() *Estimator {
	return &Estimator{
		Syncer:     xcorr.NewSyncer(gonum.Factory{}),
		OpenSource: audio.OpenSourceAuto,
	}
}

type input struct {
	Input
	name   channelselector.Input
	source types.Source
	info   types.StreamInfo
	target channelselector.Target
	buffer *samplebuffer.Buffer
}

func (in *input) wrap(err error) error {
	return ErrInput{Input: in.name, Path: in.Path, Err: err}
}

// Estimate returns the offset of the signal of b relative to the signal of a.
func (e *Estimator) Estimate(
	ctx context.Context,
	a, b Input,
) (_ret *Result, _err error) {
	logger.Debugf(ctx, "Estimate(ctx, %v, %v)", a, b)
	defer func() { logger.Debugf(ctx, "/Estimate(ctx, %v, %v): %v %v", a, b, _ret, _err) }()

	inputs := [2]*input{
		{Input: a, name: channelselector.InputA},
		{Input: b, name: channelselector.InputB},
	}
	defer func() {
		var mErr *multierror.Error
		for _, in := range inputs {
			in.buffer.Release()
			if in.source == nil {
				continue
			}
			if err := in.source.Close(); err != nil {
				mErr = multierror.Append(mErr, in.wrap(fmt.Errorf("unable to close: %w", err)))
			}
		}
		if err := mErr.ErrorOrNil(); err != nil {
			if _err == nil {
				logger.Errorf(ctx, "%v", err)
				return
			}
			_err = multierror.Append(_err, err)
		}
	}()

	openSource := e.OpenSource
	if openSource == nil {
		openSource = audio.OpenSourceAuto
	}
	for _, in := range inputs {
		src, err := openSource(ctx, in.Path)
		if err != nil {
			return nil, in.wrap(err)
		}
		in.source = src
	}

	layoutA := Layout(inputs[0].source)
	layoutB := Layout(inputs[1].source)
	if layoutA.SourceID != layoutB.SourceID && types.SameSource(a.Path, b.Path) {
		layoutB.SourceID = layoutA.SourceID
	}
	logger.Tracef(ctx, "layouts:\n%s", spew.Sdump(layoutA, layoutB))

	selection, err := channelselector.Selector{A: a.Target, B: b.Target}.Select(layoutA, layoutB)
	if err != nil {
		return nil, fmt.Errorf("unable to select the channels: %w", err)
	}
	logger.Debugf(ctx, "selected: A: %v; B: %v", selection.A, selection.B)
	inputs[0].target = selection.A
	inputs[1].target = selection.B

	for _, in := range inputs {
		info, err := audio.StreamByIndex(in.source, in.target.Stream)
		if err != nil {
			return nil, in.wrap(err)
		}
		if info.SampleRate == 0 {
			return nil, in.wrap(fmt.Errorf("%w: stream #%d has an unknown sample rate", ErrDecodeFailure, info.Index))
		}
		in.info = info
	}
	if inputs[0].info.SampleRate != inputs[1].info.SampleRate {
		return nil, ErrSampleRateMismatchDetails{
			A: inputs[0].info.SampleRate,
			B: inputs[1].info.SampleRate,
		}
	}
	sampleRate := inputs[0].info.SampleRate

	s := e.Syncer
	if e.NewSyncer != nil {
		s, err = e.NewSyncer(sampleRate)
		if err != nil {
			return nil, fmt.Errorf("unable to initialize the syncer: %w", err)
		}
	}
	if s == nil {
		return nil, fmt.Errorf("no syncer is configured")
	}

	for _, in := range inputs {
		buf, err := samplebuffer.New(audio.EstimateSamples(in.info), samplebuffer.OptionMaxSamples(e.MaxSamples))
		if err != nil {
			return nil, in.wrap(err)
		}
		in.buffer = buf
	}

	if err := e.extract(ctx, inputs); err != nil {
		return nil, err
	}

	delta, err := s.CalculateDelta(ctx, inputs[0].buffer, inputs[1].buffer)
	if err != nil {
		return nil, fmt.Errorf("unable to correlate the signals: %w", err)
	}

	return &Result{
		Selection:    selection,
		SampleRate:   sampleRate,
		DeltaSamples: delta,
	}, nil
}

func (e *Estimator) extract(
	ctx context.Context,
	inputs [2]*input,
) error {
	extractOne := func(ctx context.Context, in *input) error {
		err := audio.Extract(ctx, in.source, in.target.Stream, in.target.Channel, in.buffer)
		if err != nil {
			return in.wrap(err)
		}
		logger.Debugf(ctx, "input %s: %d samples", in.name, in.buffer.Len())
		return nil
	}

	if !e.Parallel {
		for _, in := range inputs {
			if err := extractOne(ctx, in); err != nil {
				return err
			}
		}
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, in := range inputs {
		g.Go(func() error {
			return extractOne(gctx, in)
		})
	}
	return g.Wait()
}

// Layout describes the streams of the source for channel selection.
func Layout(src types.Source) channelselector.Layout {
	streams := src.Streams()
	layout := channelselector.Layout{
		SourceID: src.ID(),
		Streams:  make([]channelselector.StreamLayout, 0, len(streams)),
	}
	for _, s := range streams {
		layout.Streams = append(layout.Streams, channelselector.StreamLayout{
			Index:    s.Index,
			IsAudio:  s.IsAudio,
			Channels: s.Channels,
		})
	}
	return layout
}
