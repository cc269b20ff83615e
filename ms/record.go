// Package ms decodes fixed-record seismic waveform archives into continuous,
// calibrated sample traces with absolute timing. The archive framing, sample
// encoding and byte order are detected once from the first record and applied
// to the whole archive.
package ms

import (
	"fmt"
	"strings"
)

// Encoding is the sample encoding held in the data-only blockette.
type Encoding uint8

const (
	EncodingText    Encoding = 0
	EncodingInt16   Encoding = 1
	EncodingInt32   Encoding = 3
	EncodingFloat32 Encoding = 4
	EncodingFloat64 Encoding = 5
	EncodingSteim1  Encoding = 10
	EncodingSteim2  Encoding = 11
)

// Supported reports whether the decoder handles the encoding.
func (e Encoding) Supported() bool {
	switch e {
	case EncodingText, EncodingInt16, EncodingInt32, EncodingFloat32, EncodingFloat64, EncodingSteim1, EncodingSteim2:
		return true
	default:
		return false
	}
}

func (e Encoding) String() string {
	switch e {
	case EncodingText:
		return "text"
	case EncodingInt16:
		return "int16"
	case EncodingInt32:
		return "int32"
	case EncodingFloat32:
		return "float32"
	case EncodingFloat64:
		return "float64"
	case EncodingSteim1:
		return "steim1"
	case EncodingSteim2:
		return "steim2"
	default:
		return fmt.Sprintf("encoding(%d)", uint8(e))
	}
}

// SampleType tags the numeric type of decoded samples.
type SampleType byte

const (
	UnknownType SampleType = 0
	ByteType    SampleType = 'a'
	IntegerType SampleType = 'i'
	FloatType   SampleType = 'f'
	DoubleType  SampleType = 'd'
)

// SampleType returns the sample type produced by the encoding.
func (e Encoding) SampleType() SampleType {
	switch e {
	case EncodingText:
		return ByteType
	case EncodingInt16, EncodingInt32, EncodingSteim1, EncodingSteim2:
		return IntegerType
	case EncodingFloat32:
		return FloatType
	case EncodingFloat64:
		return DoubleType
	default:
		return UnknownType
	}
}

// PhysicalRecord is one fixed-length slice of the archive together with its
// parsed header and data-only blockette. The raw window references the
// archive buffer, payload bytes are not copied until decoding.
type PhysicalRecord struct {
	RecordHeader

	B1000    Blockette1000
	HasB1000 bool

	data []byte
}

// Payload returns the sample payload bytes, the record window from the data
// start offset onwards.
func (r PhysicalRecord) Payload() []byte {
	if n := int(r.BeginningOfData); n > 0 && n <= len(r.data) {
		return r.data[n:]
	}
	return nil
}

// String implements the Stringer interface with a short record summary.
func (r PhysicalRecord) String() string {
	var parts []string

	parts = append(parts, r.SrcName(false))
	parts = append(parts, fmt.Sprintf("%06d", r.SeqNumber()))
	parts = append(parts, fmt.Sprintf("%d samples", r.NumberOfSamples))
	parts = append(parts, r.StartTime().Format("2006,002,15:04:05.000000"))

	return strings.Join(parts, ", ")
}
