package types

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"
)

type PCMFormat uint

const (
	PCMFormatUndefined = PCMFormat(iota)
	PCMFormatU8
	PCMFormatS16LE
	PCMFormatS16BE
	PCMFormatS24LE
	PCMFormatS24BE
	PCMFormatS32LE
	PCMFormatS32BE
	PCMFormatS64LE
	PCMFormatS64BE
	PCMFormatFloat32LE
	PCMFormatFloat32BE
	PCMFormatFloat64LE
	PCMFormatFloat64BE
	EndOfPCMFormat
)

// Size returns the size of a single sample in bytes.
func (f PCMFormat) Size() uint {
	switch f {
	case PCMFormatU8:
		return 1
	case PCMFormatS16LE, PCMFormatS16BE:
		return 2
	case PCMFormatS24LE, PCMFormatS24BE:
		return 3
	case PCMFormatS32LE, PCMFormatS32BE, PCMFormatFloat32LE, PCMFormatFloat32BE:
		return 4
	case PCMFormatS64LE, PCMFormatS64BE, PCMFormatFloat64LE, PCMFormatFloat64BE:
		return 8
	default:
		return 0
	}
}

// String returns the name of the format as ffmpeg spells it ("s16le", "f32be", ...).
func (f PCMFormat) String() string {
	switch f {
	case PCMFormatUndefined:
		return "undefined"
	case PCMFormatU8:
		return "u8"
	case PCMFormatS16LE:
		return "s16le"
	case PCMFormatS16BE:
		return "s16be"
	case PCMFormatS24LE:
		return "s24le"
	case PCMFormatS24BE:
		return "s24be"
	case PCMFormatS32LE:
		return "s32le"
	case PCMFormatS32BE:
		return "s32be"
	case PCMFormatS64LE:
		return "s64le"
	case PCMFormatS64BE:
		return "s64be"
	case PCMFormatFloat32LE:
		return "f32le"
	case PCMFormatFloat32BE:
		return "f32be"
	case PCMFormatFloat64LE:
		return "f64le"
	case PCMFormatFloat64BE:
		return "f64be"
	default:
		return fmt.Sprintf("unknown_format_%d", uint(f))
	}
}

func PCMFormatFromString(s string) PCMFormat {
	s = strings.ToLower(strings.TrimSpace(s))
	for f := PCMFormatU8; f < EndOfPCMFormat; f++ {
		if f.String() == s {
			return f
		}
	}
	return PCMFormatUndefined
}

// Set implements pflag.Value.
func (f *PCMFormat) Set(s string) error {
	v := PCMFormatFromString(s)
	if v == PCMFormatUndefined {
		return fmt.Errorf("unknown PCM format '%s'", s)
	}
	*f = v
	return nil
}

// Type implements pflag.Value.
func (f *PCMFormat) Type() string {
	return "PCMFormat"
}

// Float64 decodes a single sample from the beginning of p into the range [-1, 1].
func (f PCMFormat) Float64(p []byte) float64 {
	switch f {
	case PCMFormatU8:
		return (float64(p[0]) - 128) / 128
	case PCMFormatS16LE:
		return float64(int16(binary.LittleEndian.Uint16(p))) / 32768
	case PCMFormatS16BE:
		return float64(int16(binary.BigEndian.Uint16(p))) / 32768
	case PCMFormatS24LE:
		val := int32(uint32(p[0]) | uint32(p[1])<<8 | uint32(p[2])<<16)
		if val&0x800000 != 0 {
			val |= -16777216
		}
		return float64(val) / 8388608
	case PCMFormatS24BE:
		val := int32(uint32(p[2]) | uint32(p[1])<<8 | uint32(p[0])<<16)
		if val&0x800000 != 0 {
			val |= -16777216
		}
		return float64(val) / 8388608
	case PCMFormatS32LE:
		return float64(int32(binary.LittleEndian.Uint32(p))) / 2147483648
	case PCMFormatS32BE:
		return float64(int32(binary.BigEndian.Uint32(p))) / 2147483648
	case PCMFormatS64LE:
		return float64(int64(binary.LittleEndian.Uint64(p))) / 9223372036854775808
	case PCMFormatS64BE:
		return float64(int64(binary.BigEndian.Uint64(p))) / 9223372036854775808
	case PCMFormatFloat32LE:
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(p)))
	case PCMFormatFloat32BE:
		return float64(math.Float32frombits(binary.BigEndian.Uint32(p)))
	case PCMFormatFloat64LE:
		return math.Float64frombits(binary.LittleEndian.Uint64(p))
	case PCMFormatFloat64BE:
		return math.Float64frombits(binary.BigEndian.Uint64(p))
	default:
		panic(fmt.Sprintf("unknown format: %v", f))
	}
}

// PutFloat64 encodes v (expected in the range [-1, 1]) into the beginning of p.
// Integer formats saturate.
func (f PCMFormat) PutFloat64(p []byte, v float64) {
	switch f {
	case PCMFormatU8:
		p[0] = byte(clamp(math.Round(v*128+128), 0, 255))
	case PCMFormatS16LE:
		binary.LittleEndian.PutUint16(p, uint16(int16(clamp(math.Round(v*32768), math.MinInt16, math.MaxInt16))))
	case PCMFormatS16BE:
		binary.BigEndian.PutUint16(p, uint16(int16(clamp(math.Round(v*32768), math.MinInt16, math.MaxInt16))))
	case PCMFormatS24LE:
		val := int32(clamp(math.Round(v*8388608), -8388608, 8388607))
		p[0] = byte(val)
		p[1] = byte(val >> 8)
		p[2] = byte(val >> 16)
	case PCMFormatS24BE:
		val := int32(clamp(math.Round(v*8388608), -8388608, 8388607))
		p[0] = byte(val >> 16)
		p[1] = byte(val >> 8)
		p[2] = byte(val)
	case PCMFormatS32LE:
		binary.LittleEndian.PutUint32(p, uint32(int32(clamp(math.Round(v*2147483648), math.MinInt32, math.MaxInt32))))
	case PCMFormatS32BE:
		binary.BigEndian.PutUint32(p, uint32(int32(clamp(math.Round(v*2147483648), math.MinInt32, math.MaxInt32))))
	case PCMFormatS64LE:
		binary.LittleEndian.PutUint64(p, uint64(putInt64(v)))
	case PCMFormatS64BE:
		binary.BigEndian.PutUint64(p, uint64(putInt64(v)))
	case PCMFormatFloat32LE:
		binary.LittleEndian.PutUint32(p, math.Float32bits(float32(v)))
	case PCMFormatFloat32BE:
		binary.BigEndian.PutUint32(p, math.Float32bits(float32(v)))
	case PCMFormatFloat64LE:
		binary.LittleEndian.PutUint64(p, math.Float64bits(v))
	case PCMFormatFloat64BE:
		binary.BigEndian.PutUint64(p, math.Float64bits(v))
	default:
		panic(fmt.Sprintf("unknown format: %v", f))
	}
}

func clamp(v, lo, hi float64) float64 {
	switch {
	case v < lo:
		return lo
	case v > hi:
		return hi
	default:
		return v
	}
}

// float64(math.MaxInt64) rounds up to 2^63, which does not fit into int64.
func putInt64(v float64) int64 {
	scaled := math.Round(v * 9223372036854775808)
	switch {
	case scaled >= 9223372036854775808:
		return math.MaxInt64
	case scaled <= -9223372036854775808:
		return math.MinInt64
	default:
		return int64(scaled)
	}
}
