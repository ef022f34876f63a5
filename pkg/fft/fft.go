// Package fft abstracts real-input discrete Fourier transforms so that the
// correlators can run on any of several FFT libraries.
package fft

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Plan transforms real sequences of a fixed length.
//
// Both directions are unnormalized: Inverse(Forward(x)) == Len() * x.
type Plan interface {
	Len() int

	// Forward writes the Len()/2+1 non-redundant coefficients of seq to dst.
	Forward(dst []complex128, seq []float64) error

	// Inverse writes the real sequence of Len() elements described by the
	// Len()/2+1 non-redundant coefficients coeff to dst.
	Inverse(dst []float64, coeff []complex128) error
}

type Factory interface {
	Name() string

	// Size returns the transform length the factory would use when at least
	// n points are required. It is never less than n.
	Size(n int) int

	NewPlan(size int) (Plan, error)
}

// CoefficientsLen returns the amount of non-redundant coefficients
// of a real transform of length n.
func CoefficientsLen(n int) int {
	return n/2 + 1
}

// CheckLengths verifies the argument lengths of Forward and Inverse.
func CheckLengths(n int, seqLen int, coeffLen int) error {
	if seqLen != n {
		return fmt.Errorf("expected a sequence of length %d, received %d", n, seqLen)
	}
	if coeffLen != CoefficientsLen(n) {
		return fmt.Errorf("expected %d coefficients, received %d", CoefficientsLen(n), coeffLen)
	}
	return nil
}

func NextPowerOfTwo(n int) int {
	r := 1
	for r < n {
		r <<= 1
	}
	return r
}

var (
	registry       = map[string]Factory{}
	registryLocker sync.Mutex
)

// Register makes the factory available via Lookup.
func Register(factory Factory) {
	registryLocker.Lock()
	defer registryLocker.Unlock()
	name := factory.Name()
	if _, ok := registry[name]; ok {
		panic(fmt.Errorf("there is already registered an FFT implementation named '%s'", name))
	}
	registry[name] = factory
}

func Lookup(name string) (Factory, error) {
	registryLocker.Lock()
	defer registryLocker.Unlock()
	factory, ok := registry[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown FFT implementation '%s', known: %s", name, strings.Join(namesLocked(), ", "))
	}
	return factory, nil
}

func Names() []string {
	registryLocker.Lock()
	defer registryLocker.Unlock()
	return namesLocked()
}

func namesLocked() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FactoryFlag is a pflag.Value selecting a registered implementation by name.
type FactoryFlag struct {
	Factory
}

func (f *FactoryFlag) String() string {
	if f.Factory == nil {
		return ""
	}
	return f.Factory.Name()
}

func (f *FactoryFlag) Set(name string) error {
	factory, err := Lookup(name)
	if err != nil {
		return err
	}
	f.Factory = factory
	return nil
}

func (f *FactoryFlag) Type() string {
	return "FFT"
}
