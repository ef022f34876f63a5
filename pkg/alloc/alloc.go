// Package alloc provides allocations that report failure as an error
// instead of crashing the process.
package alloc

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"unsafe"
)

var ErrOutOfMemory = errors.New("out of memory")

// Make allocates a zeroed slice of n elements.
//
// Requests the runtime refuses up front (such as a length beyond the
// addressable range) are returned as ErrOutOfMemory. Exhausting the heap of
// a running process is not recoverable in Go and is not covered.
func Make[T any](n int) (_ret []T, _err error) {
	if n < 0 {
		return nil, fmt.Errorf("invalid allocation length %d", n)
	}
	var zero T
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		_ret = nil
		_err = fmt.Errorf("unable to allocate %d elements of %d bytes: %v: %w", n, unsafe.Sizeof(zero), r, ErrOutOfMemory)
	}()
	return make([]T, n), nil
}

// Grow returns a slice with the contents of s and capacity of at least newCap.
// On failure s is left untouched.
func Grow[T any](s []T, newCap int) ([]T, error) {
	if newCap <= cap(s) {
		return s, nil
	}
	r, err := Make[T](newCap)
	if err != nil {
		return s, err
	}
	copy(r, s)
	return r[:len(s)], nil
}

// Do runs fn, which allocates through code not using Make, and reports a
// refused slice allocation inside it as ErrOutOfMemory. Other panics are
// propagated.
func Do(fn func()) (_err error) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		rErr, ok := r.(runtime.Error)
		if !ok || !isAllocationFailure(rErr) {
			panic(r)
		}
		_err = fmt.Errorf("%v: %w", rErr, ErrOutOfMemory)
	}()
	fn()
	return nil
}

func isAllocationFailure(err runtime.Error) bool {
	msg := err.Error()
	return strings.Contains(msg, "makeslice") || strings.Contains(msg, "growslice")
}
