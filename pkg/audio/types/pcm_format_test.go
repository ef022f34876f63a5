package types

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPCMFormatFloat64(t *testing.T) {
	for f := PCMFormatU8; f < EndOfPCMFormat; f++ {
		t.Run(f.String(), func(t *testing.T) {
			require.NotZero(t, f.Size())
			buf := make([]byte, f.Size())
			for _, v := range []float64{0, 0.5, -0.5, 0.25, -1} {
				f.PutFloat64(buf, v)
				assert.InDelta(t, v, f.Float64(buf), 1.0/128, "value %v", v)
			}
		})
	}
}

func TestPCMFormatSaturation(t *testing.T) {
	buf := make([]byte, 8)

	PCMFormatS16LE.PutFloat64(buf, 1)
	require.Equal(t, []byte{0xff, 0x7f}, buf[:2])
	PCMFormatS16LE.PutFloat64(buf, -2)
	require.Equal(t, []byte{0x00, 0x80}, buf[:2])

	PCMFormatU8.PutFloat64(buf, 1)
	require.Equal(t, byte(255), buf[0])

	PCMFormatS64BE.PutFloat64(buf, 1)
	require.Equal(t, []byte{0x7f, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}, buf)
}

func TestPCMFormatS24(t *testing.T) {
	require.Equal(t, -1.0, PCMFormatS24LE.Float64([]byte{0x00, 0x00, 0x80}))
	require.Equal(t, -1.0, PCMFormatS24BE.Float64([]byte{0x80, 0x00, 0x00}))
	require.Equal(t, 0.5, PCMFormatS24LE.Float64([]byte{0x00, 0x00, 0x40}))
}

func TestPCMFormatSet(t *testing.T) {
	for f := PCMFormatU8; f < EndOfPCMFormat; f++ {
		var parsed PCMFormat
		require.NoError(t, parsed.Set(f.String()))
		require.Equal(t, f, parsed)
	}

	var f PCMFormat
	require.NoError(t, f.Set(" F32LE "))
	require.Equal(t, PCMFormatFloat32LE, f)
	require.Error(t, f.Set("mp3"))
	require.Equal(t, PCMFormatFloat32LE, f)
	require.Equal(t, "PCMFormat", f.Type())
	require.Equal(t, fmt.Sprintf("unknown_format_%d", uint(EndOfPCMFormat)), EndOfPCMFormat.String())
}
