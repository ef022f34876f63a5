// Package gonum implements fft.Factory on top of gonum's dsp/fourier,
// which transforms sequences of any length without padding.
package gonum

import (
	"fmt"

	"github.com/xaionaro-go/audiodelta/pkg/alloc"
	"github.com/xaionaro-go/audiodelta/pkg/fft"
	"gonum.org/v1/gonum/dsp/fourier"
)

const Name = "gonum"

func init() {
	fft.Register(Factory{})
}

type Factory struct{}

var _ fft.Factory = Factory{}

func (Factory) Name() string {
	return Name
}

func (Factory) Size(n int) int {
	return n
}

func (Factory) NewPlan(size int) (fft.Plan, error) {
	if size < 1 {
		return nil, fmt.Errorf("invalid transform length %d", size)
	}
	var plan *fourier.FFT
	if err := alloc.Do(func() {
		plan = fourier.NewFFT(size)
	}); err != nil {
		return nil, fmt.Errorf("unable to prepare a transform of %d points: %w", size, err)
	}
	return &Plan{
		fft: plan,
		n:   size,
	}, nil
}

type Plan struct {
	fft *fourier.FFT
	n   int
}

var _ fft.Plan = (*Plan)(nil)

func (p *Plan) Len() int {
	return p.n
}

func (p *Plan) Forward(dst []complex128, seq []float64) error {
	if err := fft.CheckLengths(p.n, len(seq), len(dst)); err != nil {
		return err
	}
	p.fft.Coefficients(dst, seq)
	return nil
}

func (p *Plan) Inverse(dst []float64, coeff []complex128) error {
	if err := fft.CheckLengths(p.n, len(dst), len(coeff)); err != nil {
		return err
	}
	p.fft.Sequence(dst, coeff)
	return nil
}
