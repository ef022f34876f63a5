package alloc

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMake(t *testing.T) {
	s, err := Make[float64](16)
	require.NoError(t, err)
	require.Len(t, s, 16)
	for _, v := range s {
		require.Zero(t, v)
	}

	_, err = Make[float64](-1)
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrOutOfMemory)

	_, err = Make[complex128](math.MaxInt)
	require.ErrorIs(t, err, ErrOutOfMemory)
}

func TestGrow(t *testing.T) {
	s := []int{1, 2, 3}
	g, err := Grow(s, 10)
	require.NoError(t, err)
	require.Equal(t, []int{1, 2, 3}, g)
	require.GreaterOrEqual(t, cap(g), 10)

	same, err := Grow(g, 5)
	require.NoError(t, err)
	require.Equal(t, cap(g), cap(same))

	failed, err := Grow(s, math.MaxInt)
	require.ErrorIs(t, err, ErrOutOfMemory)
	require.Equal(t, []int{1, 2, 3}, failed)
}

var sink []complex128

func TestDo(t *testing.T) {
	require.NoError(t, Do(func() {
		sink = make([]complex128, 16)
	}))

	n := math.MaxInt
	err := Do(func() {
		sink = make([]complex128, n)
	})
	require.ErrorIs(t, err, ErrOutOfMemory)

	require.Panics(t, func() {
		_ = Do(func() {
			var s []int
			_ = s[n]
		})
	})
	require.PanicsWithValue(t, "unrelated", func() {
		_ = Do(func() {
			panic("unrelated")
		})
	})
}
