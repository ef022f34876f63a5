package samplebuffer

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBufferGrowth(t *testing.T) {
	const m = 1000
	for _, capacity := range []int{0, 1, 3, 64, m - 1, m, 4 * m} {
		b, err := New(capacity)
		require.NoError(t, err)
		require.Equal(t, capacity, b.Cap())
		require.Zero(t, b.Len())

		for i := 0; i < m; i++ {
			prevCap := b.Cap()
			require.NoError(t, b.Append(float64(i)*0.5))
			require.LessOrEqual(t, b.Len(), b.Cap())
			if prevCap < b.Len() {
				require.GreaterOrEqual(t, b.Cap(), 2*prevCap, "capacity %d", capacity)
			}
		}
		require.NoError(t, b.Finalize(b.Len()))

		samples := b.Samples()
		require.Len(t, samples, m)
		for i, v := range samples {
			require.Equal(t, float64(i)*0.5, v)
		}
		b.Release()
	}
}

func TestBufferFinalize(t *testing.T) {
	b, err := New(100)
	require.NoError(t, err)
	require.False(t, b.IsFinalized())
	for i := 0; i < 10; i++ {
		require.NoError(t, b.Append(1))
	}

	require.Error(t, b.Finalize(11))
	require.Error(t, b.Finalize(-1))
	require.False(t, b.IsFinalized())

	require.NoError(t, b.Finalize(7))
	require.True(t, b.IsFinalized())
	require.Equal(t, 7, b.Len())
	require.Equal(t, 100, b.Cap())
	require.ErrorIs(t, b.Append(1), ErrFinalized)
}

func TestBufferMaxSamples(t *testing.T) {
	b, err := New(100, OptionMaxSamples(5))
	require.NoError(t, err)
	require.Equal(t, 5, b.Cap())
	for i := 0; i < 5; i++ {
		require.NoError(t, b.Append(float64(i)))
	}

	err = b.Append(5)
	require.ErrorIs(t, err, ErrOutOfMemory)
	require.Equal(t, []float64{0, 1, 2, 3, 4}, b.Samples())
	require.NoError(t, b.Finalize(b.Len()))
	b.Release()

	b, err = New(0, OptionMaxSamples(3))
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		require.NoError(t, b.Append(float64(i)))
	}
	require.Equal(t, 3, b.Cap())
	require.ErrorIs(t, b.Append(3), ErrOutOfMemory)
}

func TestBufferOutOfMemory(t *testing.T) {
	_, err := New(math.MaxInt)
	require.ErrorIs(t, err, ErrOutOfMemory)

	_, err = New(-1)
	require.Error(t, err)
}

func TestBufferRelease(t *testing.T) {
	b, err := New(4)
	require.NoError(t, err)
	require.NoError(t, b.Append(1))
	require.NoError(t, b.Finalize(1))

	b.Release()
	b.Release()
	require.False(t, b.IsFinalized())
	require.Nil(t, b.Samples())
	require.ErrorIs(t, b.Append(1), ErrReleased)
	require.ErrorIs(t, b.Finalize(0), ErrReleased)

	var nilBuffer *Buffer
	nilBuffer.Release()
}

func TestBufferIncomplete(t *testing.T) {
	b, err := New(0)
	require.NoError(t, err)
	require.NoError(t, b.Err())

	cause := errors.New("truncated frame")
	b.MarkIncomplete(cause)
	require.ErrorIs(t, b.Err(), cause)

	b.MarkIncomplete(nil)
	require.Error(t, b.Err())
}
