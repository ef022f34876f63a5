// Package godsp implements fft.Factory on top of github.com/mjibson/go-dsp,
// which handles lengths that are not powers of two with Bluestein's algorithm.
package godsp

import (
	"fmt"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"github.com/xaionaro-go/audiodelta/pkg/alloc"
	ourfft "github.com/xaionaro-go/audiodelta/pkg/fft"
)

const Name = "godsp"

func init() {
	ourfft.Register(Factory{})
}

type Factory struct{}

var _ ourfft.Factory = Factory{}

func (Factory) Name() string {
	return Name
}

func (Factory) Size(n int) int {
	return n
}

func (Factory) NewPlan(size int) (ourfft.Plan, error) {
	if size < 1 {
		return nil, fmt.Errorf("invalid transform length %d", size)
	}
	work, err := alloc.Make[complex128](size)
	if err != nil {
		return nil, fmt.Errorf("unable to allocate the work area for %d points: %w", size, err)
	}
	return &Plan{
		n:    size,
		work: work,
	}, nil
}

type Plan struct {
	n    int
	work []complex128
}

var _ ourfft.Plan = (*Plan)(nil)

func (p *Plan) Len() int {
	return p.n
}

func (p *Plan) Forward(dst []complex128, seq []float64) error {
	if err := ourfft.CheckLengths(p.n, len(seq), len(dst)); err != nil {
		return err
	}
	return alloc.Do(func() {
		copy(dst, fft.FFTReal(seq))
	})
}

// Inverse restores the full Hermitian spectrum and undoes the 1/N scaling
// go-dsp applies in its IFFT.
func (p *Plan) Inverse(dst []float64, coeff []complex128) error {
	if err := ourfft.CheckLengths(p.n, len(dst), len(coeff)); err != nil {
		return err
	}
	copy(p.work, coeff)
	for k := len(coeff); k < p.n; k++ {
		p.work[k] = cmplx.Conj(coeff[p.n-k])
	}
	var seq []complex128
	if err := alloc.Do(func() {
		seq = fft.IFFT(p.work)
	}); err != nil {
		return err
	}
	scale := float64(p.n)
	for i := range dst {
		dst[i] = real(seq[i]) * scale
	}
	return nil
}
