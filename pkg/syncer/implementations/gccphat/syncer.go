// Package gccphat implements an audio synchronization algorithm using
// Generalized Cross-Correlation with Phase Transform (GCC-PHAT).
//
// The algorithm calculates the time delay between two signals by
// looking at their cross-correlation in the frequency domain. By
// normalizing the magnitude (the Phase Transform), it becomes
// robust against variations in volume and certain types of noise,
// focusing only on the phase information that indicates the delay.
package gccphat

import (
	"context"
	"fmt"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/xaionaro-go/audiodelta/pkg/audio"
	"github.com/xaionaro-go/audiodelta/pkg/fft"
	"github.com/xaionaro-go/audiodelta/pkg/syncer"
	"github.com/xaionaro-go/audiodelta/pkg/syncer/implementations/xcorr"
)

type Syncer struct {
	SampleRate audio.SampleRate
	MinFreq    float64
	MaxFreq    float64
	FFT        fft.Factory
}

var _ syncer.Syncer = (*Syncer)(nil)

// NewSyncer initializes a new one-shot GCC-PHAT syncer.
func NewSyncer(
	sampleRate audio.SampleRate,
	factory fft.Factory,
) (*Syncer, error) {
	if sampleRate == 0 {
		return nil, fmt.Errorf("sample rate is mandatory")
	}

	return &Syncer{
		SampleRate: sampleRate,
		// Reasonable defaults: 100Hz to 12000Hz captures most informative audio
		// while filtering out low-frequency rumble and high-frequency digital noise.
		MinFreq: 100,
		MaxFreq: 12000,
		FFT:     factory,
	}, nil
}

// CalculateDelta implements syncer.Syncer. The sign convention is the
// one of xcorr.
func (s *Syncer) CalculateDelta(
	ctx context.Context,
	a, b syncer.Signal,
) (int, error) {
	if s.SampleRate == 0 {
		return 0, fmt.Errorf("sample rate is required for band limiting")
	}
	correlator := xcorr.NewSyncer(s.FFT)
	correlator.Weighting = s.weigh
	return correlator.CalculateDelta(ctx, a, b)
}

func (s *Syncer) weigh(
	ctx context.Context,
	crossSpectrum []complex128,
	transformLen int,
) error {
	activeBins := Whiten(crossSpectrum, transformLen, float64(s.SampleRate), s.MinFreq, s.MaxFreq)
	logger.Debugf(ctx, "GCC-PHAT: %d of %d bins are active", activeBins, len(crossSpectrum))
	return nil
}
