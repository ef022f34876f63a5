// Package radix2 implements fft.Factory on top of github.com/brettbuddin/fourier,
// an in-place radix-2 transform. Sequences are padded to a power of two.
package radix2

import (
	"fmt"
	"math/cmplx"

	"github.com/brettbuddin/fourier"
	"github.com/xaionaro-go/audiodelta/pkg/alloc"
	"github.com/xaionaro-go/audiodelta/pkg/fft"
)

const Name = "radix2"

func init() {
	fft.Register(Factory{})
}

type Factory struct{}

var _ fft.Factory = Factory{}

func (Factory) Name() string {
	return Name
}

func (Factory) Size(n int) int {
	return fft.NextPowerOfTwo(n)
}

func (Factory) NewPlan(size int) (fft.Plan, error) {
	if size < 1 || size&(size-1) != 0 {
		return nil, fmt.Errorf("transform length %d is not a power of two", size)
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

var _ fft.Plan = (*Plan)(nil)

func (p *Plan) Len() int {
	return p.n
}

func (p *Plan) Forward(dst []complex128, seq []float64) error {
	if err := fft.CheckLengths(p.n, len(seq), len(dst)); err != nil {
		return err
	}
	for i, v := range seq {
		p.work[i] = complex(v, 0)
	}
	if err := p.transform(); err != nil {
		return err
	}
	copy(dst, p.work)
	return nil
}

// Inverse computes conj(DFT(conj(X))), which is the unnormalized inverse.
func (p *Plan) Inverse(dst []float64, coeff []complex128) error {
	if err := fft.CheckLengths(p.n, len(dst), len(coeff)); err != nil {
		return err
	}
	for k, c := range coeff {
		p.work[k] = cmplx.Conj(c)
	}
	for k := len(coeff); k < p.n; k++ {
		p.work[k] = coeff[p.n-k]
	}
	if err := p.transform(); err != nil {
		return err
	}
	for i := range dst {
		dst[i] = real(p.work[i])
	}
	return nil
}

func (p *Plan) transform() error {
	switch p.n {
	case 1:
		// a transform of a single point is the identity
		return nil
	case 2:
		// the library gets the two-point butterfly wrong
		w0, w1 := p.work[0], p.work[1]
		p.work[0], p.work[1] = w0+w1, w0-w1
		return nil
	}
	if err := fourier.Forward(p.work); err != nil {
		return fmt.Errorf("unable to transform %d points: %w", p.n, err)
	}
	return nil
}
