package ms

import (
	"encoding/binary"
	"fmt"
)

// STEIM compressed payloads are built from 64 byte frames of sixteen 32 bit
// words. The first word of each frame is a control word holding sixteen 2 bit
// codes, one per word of the frame. Only codes 1, 2 and 3 mark words carrying
// sample differences; code 0 marks a non-data word which decodes to nothing.
const (
	steimFrameBytes = 64
	steimFrameWords = 16
)

// maxDiffsPerWord returns the widest possible difference layout of one
// payload word, four for STEIM1 and seven for STEIM2. It bounds the number
// of samples one record can decompress to.
func maxDiffsPerWord(enc Encoding) int {
	if enc == EncodingSteim2 {
		return 7
	}
	return 4
}

// controlCode extracts the 2 bit code for word w of the frame from the
// frame's control word.
func controlCode(control uint32, w int) uint8 {
	return uint8(control>>uint(2*(steimFrameWords-1-w))) & 0x3
}

// signExtend interprets the low width bits of v as a two's-complement signed
// value.
func signExtend(v uint32, width uint) int32 {
	if v&(1<<(width-1)) != 0 {
		v |= ^uint32(0) << width
	}
	return int32(v)
}

// signedFields splits the low count*width bits of w into count signed fields
// of width bits each, most significant field first. The scratch slice is
// appended to and returned to avoid per-word allocation.
func signedFields(dst []int32, w uint32, count, width uint) []int32 {
	mask := uint32(1)<<width - 1

	for i := uint(0); i < count; i++ {
		shift := width * (count - 1 - i)
		dst = append(dst, signExtend(w>>shift&mask, width))
	}

	return dst
}

// steim1Diffs appends the differences carried by one STEIM1 payload word.
// Words with an unpopulated control code yield nothing.
func steim1Diffs(dst []int32, w uint32, code uint8) []int32 {
	switch code {
	case 1: // four 8 bit differences
		return signedFields(dst, w, 4, 8)
	case 2: // two 16 bit differences
		return signedFields(dst, w, 2, 16)
	case 3: // one 32 bit difference
		return signedFields(dst, w, 1, 32)
	default:
		return dst
	}
}

// steim2Diffs appends the differences carried by one STEIM2 payload word.
// For codes 2 and 3 the top two bits of the word select the sub-layout;
// combinations without a populated layout yield nothing.
func steim2Diffs(dst []int32, w uint32, code uint8) []int32 {
	switch code {
	case 1: // four 8 bit differences, no dnib
		return signedFields(dst, w, 4, 8)
	case 2:
		switch dnib := w >> 30; dnib {
		case 1: // one 30 bit difference
			return signedFields(dst, w, 1, 30)
		case 2: // two 15 bit differences
			return signedFields(dst, w, 2, 15)
		case 3: // three 10 bit differences
			return signedFields(dst, w, 3, 10)
		default:
			return dst
		}
	case 3:
		switch dnib := w >> 30; dnib {
		case 0: // five 6 bit differences
			return signedFields(dst, w, 5, 6)
		case 1: // six 5 bit differences
			return signedFields(dst, w, 6, 5)
		case 2: // seven 4 bit differences, low 28 bits only
			return signedFields(dst, w, 7, 4)
		default:
			return dst
		}
	default:
		return dst
	}
}

// decodeSteim reconstructs the samples held in one record's compressed
// payload. The integration constants are taken from the record's first
// frame: word one holds the forward constant X0 and word two the reverse
// constant Xn. The differences of every payload word are gathered in order,
// the first is replaced by X0, and a running sum yields the absolute sample
// values. A payload without a complete first frame, or without any valid
// difference, decodes to no samples.
//
// When the record decodes to exactly the expected header sample count the
// final value is checked against Xn.
func decodeSteim(enc Encoding, payload []byte, order binary.ByteOrder, expected uint16) ([]int32, error) {
	if len(payload) < steimFrameBytes {
		return nil, nil
	}

	x0 := int32(order.Uint32(payload[4:8]))
	xn := int32(order.Uint32(payload[8:12]))

	// each payload word can carry at most maxDiffsPerWord differences.
	words := len(payload) / 4
	diffs := make([]int32, 0, words*maxDiffsPerWord(enc))

	frames := words / steimFrameWords
	for f := 0; f < frames; f++ {
		frame := payload[f*steimFrameBytes : (f+1)*steimFrameBytes]
		control := order.Uint32(frame[0:4])

		for w := 1; w < steimFrameWords; w++ {
			code := controlCode(control, w)
			if code == 0 {
				continue
			}

			word := order.Uint32(frame[4*w : 4*w+4])

			switch enc {
			case EncodingSteim2:
				diffs = steim2Diffs(diffs, word, code)
			default:
				diffs = steim1Diffs(diffs, word, code)
			}
		}
	}

	if len(diffs) == 0 {
		return nil, nil
	}

	// the first difference spans back into the previous record, the
	// record's own forward integration constant takes its place.
	samples := make([]int32, len(diffs))
	samples[0] = x0
	for i := 1; i < len(diffs); i++ {
		samples[i] = samples[i-1] + diffs[i]
	}

	if n := int(expected); n == len(samples) && samples[n-1] != xn {
		return nil, fmt.Errorf("%s: final value %d does not match reverse integration constant %d",
			enc, samples[n-1], xn)
	}

	return samples, nil
}
