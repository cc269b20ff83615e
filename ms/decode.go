package ms

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
)

func decodeInt16(data []byte, order binary.ByteOrder, samples uint16) ([]int32, error) {
	if n := len(data) / 2; n < int(samples) {
		return nil, fmt.Errorf("ms: int16 payload holds %d samples, header wants %d", n, samples)
	}

	values := make([]int32, 0, samples)
	for i := 0; i < int(samples)*2; i += 2 {
		values = append(values, int32(int16(order.Uint16(data[i:]))))
	}

	return values, nil
}

func decodeInt32(data []byte, order binary.ByteOrder, samples uint16) ([]int32, error) {
	if n := len(data) / 4; n < int(samples) {
		return nil, fmt.Errorf("ms: int32 payload holds %d samples, header wants %d", n, samples)
	}

	values := make([]int32, 0, samples)
	for i := 0; i < int(samples)*4; i += 4 {
		values = append(values, int32(order.Uint32(data[i:])))
	}

	return values, nil
}

func decodeFloat32(data []byte, order binary.ByteOrder, samples uint16) ([]float64, error) {
	if n := len(data) / 4; n < int(samples) {
		return nil, fmt.Errorf("ms: float32 payload holds %d samples, header wants %d", n, samples)
	}

	values := make([]float64, 0, samples)
	for i := 0; i < int(samples)*4; i += 4 {
		values = append(values, float64(math.Float32frombits(order.Uint32(data[i:]))))
	}

	return values, nil
}

func decodeFloat64(data []byte, order binary.ByteOrder, samples uint16) ([]float64, error) {
	if n := len(data) / 8; n < int(samples) {
		return nil, fmt.Errorf("ms: float64 payload holds %d samples, header wants %d", n, samples)
	}

	values := make([]float64, 0, samples)
	for i := 0; i < int(samples)*8; i += 8 {
		values = append(values, math.Float64frombits(order.Uint64(data[i:])))
	}

	return values, nil
}

func decodeText(data []byte, samples uint16) ([]byte, error) {
	if len(data) < int(samples) {
		return nil, fmt.Errorf("ms: text payload holds %d bytes, header wants %d", len(data), samples)
	}

	return bytes.TrimRight(data[:samples], "\x00"), nil
}
