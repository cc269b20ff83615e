package ms

import (
	"encoding/binary"
	"math/rand"
	"reflect"
	"testing"
)

// fitsBits reports whether v is representable as a signed field of the
// given width.
func fitsBits(v int32, width uint) bool {
	return v >= -(1<<(width-1)) && v < 1<<(width-1)
}

func allFit(vals []int32, width uint) bool {
	for _, v := range vals {
		if !fitsBits(v, width) {
			return false
		}
	}
	return true
}

// packFields packs the values into one word as signed fields of the given
// width, most significant field first.
func packFields(vals []int32, width uint) uint32 {
	var w uint32
	for _, v := range vals {
		w = w<<width | uint32(v)&(uint32(1)<<width-1)
	}
	return w
}

type steimWord struct {
	code uint8
	word uint32
}

// packSteim1 packs differences into STEIM1 payload words, preferring the
// densest layout the next differences fit into.
func packSteim1(diffs []int32) []steimWord {
	var words []steimWord

	for i := 0; i < len(diffs); {
		switch {
		case len(diffs)-i >= 4 && allFit(diffs[i:i+4], 8):
			words = append(words, steimWord{code: 1, word: packFields(diffs[i:i+4], 8)})
			i += 4
		case len(diffs)-i >= 2 && allFit(diffs[i:i+2], 16):
			words = append(words, steimWord{code: 2, word: packFields(diffs[i:i+2], 16)})
			i += 2
		default:
			words = append(words, steimWord{code: 3, word: packFields(diffs[i:i+1], 32)})
			i++
		}
	}

	return words
}

// packSteim2 packs differences into STEIM2 payload words, preferring the
// densest layout the next differences fit into.
func packSteim2(diffs []int32) []steimWord {
	var words []steimWord

	for i := 0; i < len(diffs); {
		switch n := len(diffs) - i; {
		case n >= 7 && allFit(diffs[i:i+7], 4):
			words = append(words, steimWord{code: 3, word: 2<<30 | packFields(diffs[i:i+7], 4)})
			i += 7
		case n >= 6 && allFit(diffs[i:i+6], 5):
			words = append(words, steimWord{code: 3, word: 1<<30 | packFields(diffs[i:i+6], 5)})
			i += 6
		case n >= 5 && allFit(diffs[i:i+5], 6):
			words = append(words, steimWord{code: 3, word: packFields(diffs[i:i+5], 6)})
			i += 5
		case n >= 4 && allFit(diffs[i:i+4], 8):
			words = append(words, steimWord{code: 1, word: packFields(diffs[i:i+4], 8)})
			i += 4
		case n >= 3 && allFit(diffs[i:i+3], 10):
			words = append(words, steimWord{code: 2, word: 3<<30 | packFields(diffs[i:i+3], 10)})
			i += 3
		case n >= 2 && allFit(diffs[i:i+2], 15):
			words = append(words, steimWord{code: 2, word: 2<<30 | packFields(diffs[i:i+2], 15)})
			i += 2
		default:
			words = append(words, steimWord{code: 2, word: 1<<30 | packFields(diffs[i:i+1], 30)})
			i++
		}
	}

	return words
}

// encodeSteim builds a complete compressed payload for the samples, padded
// to whole 64 byte frames. prev seeds the first difference, standing in for
// the last sample of the preceding record.
func encodeSteim(t *testing.T, enc Encoding, samples []int32, prev int32, order binary.ByteOrder) []byte {
	t.Helper()

	diffs := make([]int32, len(samples))
	for i, v := range samples {
		diffs[i] = v - prev
		prev = v
	}

	var words []steimWord
	switch enc {
	case EncodingSteim2:
		words = packSteim2(diffs)
	default:
		words = packSteim1(diffs)
	}

	var payload []byte

	frame := make([]uint32, steimFrameWords)
	codes := make([]uint8, steimFrameWords)

	flush := func() {
		var control uint32
		for k := 1; k < steimFrameWords; k++ {
			control |= uint32(codes[k]) << uint(2*(steimFrameWords-1-k))
		}
		frame[0] = control

		for _, w := range frame {
			b := make([]byte, 4)
			order.PutUint32(b, w)
			payload = append(payload, b...)
		}

		for k := range frame {
			frame[k], codes[k] = 0, 0
		}
	}

	// frame zero reserves words one and two for the integration constants.
	frame[1] = uint32(samples[0])
	frame[2] = uint32(samples[len(samples)-1])

	slot := 3
	for _, w := range words {
		if slot == steimFrameWords {
			flush()
			slot = 1
		}
		frame[slot], codes[slot] = w.word, w.code
		slot++
	}
	flush()

	return payload
}

func TestSignExtend(t *testing.T) {
	cases := []struct {
		v        uint32
		width    uint
		expected int32
	}{
		{0x0, 4, 0},
		{0x7, 4, 7},
		{0x8, 4, -8},
		{0xf, 4, -1},
		{0x3ff, 10, -1},
		{0x200, 10, -512},
		{0x1ff, 10, 511},
		{0x0ff, 10, 255},
		{0x20000000, 30, -536870912},
		{0x1fffffff, 30, 536870911},
		{0x80000000, 32, -2147483648},
	}

	for _, c := range cases {
		if v := signExtend(c.v, c.width); v != c.expected {
			t.Errorf("signExtend(%#x, %d): expected %d got %d", c.v, c.width, c.expected, v)
		}
	}
}

func TestSignedFields(t *testing.T) {
	// two 16 bit fields, msb first.
	if v := signedFields(nil, 0xfffe0003, 2, 16); !reflect.DeepEqual(v, []int32{-2, 3}) {
		t.Errorf("expected [-2 3] got %v", v)
	}

	// seven 4 bit fields from the low 28 bits.
	v := signedFields(nil, 0x81234567, 7, 4)
	if expected := []int32{1, 2, 3, 4, 5, 6, 7}; !reflect.DeepEqual(v, expected) {
		t.Errorf("expected %v got %v", expected, v)
	}
}

func TestSteim2Diffs_Dnib(t *testing.T) {
	// code 2 dnib 0 and code 3 dnib 3 have no populated layout.
	if v := steim2Diffs(nil, 0x0<<30|0xffff, 2); len(v) != 0 {
		t.Errorf("code 2 dnib 0: expected no diffs got %v", v)
	}
	if v := steim2Diffs(nil, 3<<30|0xffff, 3); len(v) != 0 {
		t.Errorf("code 3 dnib 3: expected no diffs got %v", v)
	}
}

// walk builds a deterministic sample sequence whose differences exercise the
// full range of field widths.
func walk(n int, seed int64, step int32) []int32 {
	rnd := rand.New(rand.NewSource(seed))

	samples := make([]int32, n)
	var v int32
	for i := range samples {
		v += rnd.Int31n(2*step+1) - step
		samples[i] = v
	}

	return samples
}

func TestSteimRoundTrip(t *testing.T) {
	cases := []struct {
		name    string
		enc     Encoding
		samples []int32
	}{
		{"steim1 small", EncodingSteim1, []int32{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}},
		{"steim1 wide", EncodingSteim1, []int32{0, 1 << 24, -(1 << 24), 40000, -40000, 100, 99, 98}},
		{"steim1 walk", EncodingSteim1, walk(1000, 1, 500)},
		{"steim2 tiny", EncodingSteim2, walk(500, 2, 3)},
		{"steim2 medium", EncodingSteim2, walk(500, 3, 300)},
		{"steim2 wide", EncodingSteim2, []int32{0, 1 << 28, -(1 << 28), 12345, -12345, 6, 5, 4}},
		{"steim2 walk", EncodingSteim2, walk(2000, 4, 20000)},
		{"steim2 single", EncodingSteim2, []int32{-42}},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			for _, order := range []binary.ByteOrder{binary.BigEndian, binary.LittleEndian} {
				payload := encodeSteim(t, c.enc, c.samples, c.samples[0]-7, order)

				samples, err := decodeSteim(c.enc, payload, order, uint16(len(c.samples)))
				if err != nil {
					t.Fatalf("decode: %s", err)
				}

				if !reflect.DeepEqual(samples, c.samples) {
					t.Errorf("%s: decoded sequence differs: expected %v got %v", order, c.samples, samples)
				}
			}
		})
	}
}

func TestSteimEmpty(t *testing.T) {
	// a payload shorter than one frame decodes to no samples.
	samples, err := decodeSteim(EncodingSteim2, make([]byte, 32), binary.BigEndian, 0)
	if err != nil {
		t.Fatalf("short payload: %s", err)
	}
	if len(samples) != 0 {
		t.Errorf("short payload: expected no samples got %v", samples)
	}

	// a frame of non-data words decodes to no samples.
	samples, err = decodeSteim(EncodingSteim2, make([]byte, steimFrameBytes), binary.BigEndian, 0)
	if err != nil {
		t.Fatalf("empty frame: %s", err)
	}
	if len(samples) != 0 {
		t.Errorf("empty frame: expected no samples got %v", samples)
	}
}

func TestSteimReverseIntegration(t *testing.T) {
	samples := []int32{10, 11, 12, 13}

	payload := encodeSteim(t, EncodingSteim1, samples, 9, binary.BigEndian)

	// corrupt the reverse integration constant.
	binary.BigEndian.PutUint32(payload[8:12], uint32(99))

	if _, err := decodeSteim(EncodingSteim1, payload, binary.BigEndian, 4); err == nil {
		t.Error("expected reverse integration error")
	}
}
