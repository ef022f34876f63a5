// Package xcorr estimates the lag between two signals as the peak of their
// linear cross-correlation, computed via the FFT.
package xcorr

import (
	"context"
	"fmt"
	"math/cmplx"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/xaionaro-go/audiodelta/pkg/alloc"
	"github.com/xaionaro-go/audiodelta/pkg/fft"
	"github.com/xaionaro-go/audiodelta/pkg/fft/implementations/gonum"
	"github.com/xaionaro-go/audiodelta/pkg/syncer"
)

// Weighting modifies the cross-power spectrum (the transformLen/2+1
// non-redundant bins) in place before it is transformed back.
type Weighting func(ctx context.Context, crossSpectrum []complex128, transformLen int) error

type Syncer struct {
	FFT       fft.Factory
	Weighting Weighting
}

var _ syncer.Syncer = (*Syncer)(nil)

// NewSyncer returns a plain (unweighted) correlator. A nil factory means gonum.
func NewSyncer(factory fft.Factory) *Syncer {
	if factory == nil {
		factory = gonum.Factory{}
	}
	return &Syncer{
		FFT: factory,
	}
}

// CalculateDelta implements syncer.Syncer.
func (s *Syncer) CalculateDelta(
	ctx context.Context,
	a, b syncer.Signal,
) (int, error) {
	if err := syncer.CheckSignals(a, b); err != nil {
		return 0, err
	}
	factory := s.FFT
	if factory == nil {
		factory = gonum.Factory{}
	}
	return Correlate(ctx, factory, s.Weighting, a.Samples(), b.Samples())
}

// Correlate returns the lag of the maximum of the cross-correlation of a and b.
// If b is a delayed by k samples, the result is -k.
//
// The correlation is left unnormalized; among equal maxima the one met first
// (lags 0, 1, ..., then the negative lags from the most negative up) wins.
func Correlate(
	ctx context.Context,
	factory fft.Factory,
	weighting Weighting,
	a, b []float64,
) (int, error) {
	n1, n2 := len(a), len(b)
	if n1 == 0 || n2 == 0 {
		return 0, fmt.Errorf("cannot correlate %d and %d samples: %w", n1, n2, syncer.ErrEmptySignal)
	}
	n := n1 + n2 - 1
	size := factory.Size(n)
	coeffLen := fft.CoefficientsLen(size)
	logger.Debugf(ctx, "correlating %d and %d samples with %s, transform length %d (at least %d needed)", n1, n2, factory.Name(), size, n)
	logger.Debugf(ctx, "required memory for FFT: %d bytes", size*8+2*coeffLen*16)

	plan, err := factory.NewPlan(size)
	if err != nil {
		return 0, fmt.Errorf("unable to prepare a transform of length %d: %w", size, err)
	}

	seq, err := alloc.Make[float64](size)
	if err != nil {
		return 0, fmt.Errorf("unable to allocate the transform buffer: %w", err)
	}
	f1, err := alloc.Make[complex128](coeffLen)
	if err != nil {
		return 0, fmt.Errorf("unable to allocate the spectrum of A: %w", err)
	}
	f2, err := alloc.Make[complex128](coeffLen)
	if err != nil {
		return 0, fmt.Errorf("unable to allocate the spectrum of B: %w", err)
	}

	copy(seq, a)
	if err := plan.Forward(f1, seq); err != nil {
		return 0, fmt.Errorf("unable to transform A: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	clear(seq)
	copy(seq, b)
	if err := plan.Forward(f2, seq); err != nil {
		return 0, fmt.Errorf("unable to transform B: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	for k := range f1 {
		f1[k] *= cmplx.Conj(f2[k])
	}
	if weighting != nil {
		if err := weighting(ctx, f1, size); err != nil {
			return 0, fmt.Errorf("unable to weight the cross-power spectrum: %w", err)
		}
	}

	if err := plan.Inverse(seq, f1); err != nil {
		return 0, fmt.Errorf("unable to transform the cross-power spectrum back: %w", err)
	}

	lag, value := Peak(seq, n1, n2)
	logger.Debugf(ctx, "correlation peak %v at lag %d", value, lag)
	return lag, nil
}

// Peak finds the maximum of a circular correlation c of signals of n1 and
// n2 samples, looking only at the lags a linear correlation has. Indexes
// starting from n1 are returned as negative lags.
func Peak(c []float64, n1, n2 int) (int, float64) {
	size := len(c)
	delta, peak := 0, c[0]
	for i := 1; i < n1; i++ {
		if peak < c[i] {
			delta, peak = i, c[i]
		}
	}
	for i := size - n2 + 1; i < size; i++ {
		if peak < c[i] {
			delta, peak = i, c[i]
		}
	}
	if delta >= n1 {
		delta -= size
	}
	return delta, peak
}
