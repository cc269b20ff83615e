package ms

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// RecordHeaderSize is the fixed record header length.
const RecordHeaderSize = 48

// RecordHeader is the fixed 48 byte header at the start of every record.
type RecordHeader struct {
	SequenceNumber [6]byte // ASCII string representing a 6 digit number

	DataQualityIndicator byte // ASCII: D, R, Q or M
	ReservedByte         byte // ASCII: space

	// These are ascii strings, left justified and padded with spaces.
	StationIdentifier  [5]byte
	LocationIdentifier [2]byte
	ChannelIdentifier  [3]byte
	NetworkIdentifier  [2]byte

	RecordStartTime      BTime  // Start time of record
	NumberOfSamples      uint16 // Number of samples in the data block which may or may not be unpacked.
	SampleRateFactor     int16  // >0: Samples/Second <0: Second/Samples 0: ASCII/OPAQUE DATA records
	SampleRateMultiplier int16  // >0: Multiplication Factor <0: Division Factor

	// Flags are bit masks.
	ActivityFlags    byte
	IOAndClockFlags  byte
	DataQualityFlags byte

	NumberOfBlockettesThatFollow uint8

	TimeCorrection  int32  // 0.0001 second units
	BeginningOfData uint16 // Offset in bytes to the beginning of data.
	FirstBlockette  uint16 // Offset in bytes to the first data blockette in the record.
}

func (h RecordHeader) SeqNumber() int {
	s := strings.TrimSpace(string(h.SequenceNumber[:]))
	if no, err := strconv.ParseInt(s, 10, 32); err == nil {
		return int(no)
	}
	return 0
}

func (h *RecordHeader) SetSeqNumber(no int) {
	copy(h.SequenceNumber[:], fmt.Sprintf("%06d", no))
}

func (h RecordHeader) Station() string {
	return strings.TrimRight(strings.TrimSpace(string(h.StationIdentifier[:])), "\x00")
}

func (h *RecordHeader) SetStation(s string) {
	for len(s) < 5 {
		s += " "
	}
	copy(h.StationIdentifier[:], s)
}

func (h RecordHeader) Location() string {
	return strings.TrimRight(strings.TrimSpace(string(h.LocationIdentifier[:])), "\x00")
}

func (h *RecordHeader) SetLocation(s string) {
	for len(s) < 2 {
		s += " "
	}
	copy(h.LocationIdentifier[:], s)
}

func (h RecordHeader) Channel() string {
	return strings.TrimRight(strings.TrimSpace(string(h.ChannelIdentifier[:])), "\x00")
}

func (h *RecordHeader) SetChannel(s string) {
	for len(s) < 3 {
		s += " "
	}
	copy(h.ChannelIdentifier[:], s)
}

func (h RecordHeader) Network() string {
	return strings.TrimRight(strings.TrimSpace(string(h.NetworkIdentifier[:])), "\x00")
}

func (h *RecordHeader) SetNetwork(s string) {
	for len(s) < 2 {
		s += " "
	}
	copy(h.NetworkIdentifier[:], s)
}

// SrcName builds the stream identifier for the record header.
func (h RecordHeader) SrcName(quality bool) string {
	if quality {
		return strings.Join([]string{h.Network(), h.Station(), h.Location(), h.Channel(), string(h.DataQualityIndicator)}, "_")
	}
	return strings.Join([]string{h.Network(), h.Station(), h.Location(), h.Channel()}, "_")
}

func (h *RecordHeader) SetStartTime(t time.Time) {
	h.RecordStartTime = NewBTime(t)
}

// StartTime returns the header start time.
func (h RecordHeader) StartTime() time.Time {
	return h.RecordStartTime.Time()
}

// StartEpoch returns the header start time as seconds since 1970-01-01 UTC.
func (h RecordHeader) StartEpoch() float64 {
	return h.RecordStartTime.Epoch()
}

// SampleRate returns the decoded header sampling rate in samples per second.
func (h RecordHeader) SampleRate() (float64, error) {
	return sampleRate(h.SampleRateFactor, h.SampleRateMultiplier)
}

// SampleCount returns the number of samples in the record, independent of
// whether they are decoded or not.
func (h RecordHeader) SampleCount() int {
	return int(h.NumberOfSamples)
}

// sampleRate derives the sampling rate from the header rate factor and
// multiplier. There are four sign cases; a zero value in a branch where it
// would act as a divisor is an InvalidSampleRateError. A zero factor with a
// non-negative multiplier is a log or text record with no meaningful rate.
func sampleRate(factor, multiplier int16) (float64, error) {
	f, m := float64(factor), float64(multiplier)

	switch {
	case factor > 0 && multiplier > 0:
		return f * m, nil
	case factor >= 0 && multiplier < 0:
		if factor == 0 {
			return 0, InvalidSampleRateError{Factor: factor, Multiplier: multiplier}
		}
		return -f / m, nil
	case factor < 0 && multiplier >= 0:
		if multiplier == 0 {
			return 0, InvalidSampleRateError{Factor: factor, Multiplier: multiplier}
		}
		return -m / f, nil
	case factor < 0 && multiplier < 0:
		return 1.0 / (f * m), nil
	default:
		return 0, nil
	}
}

// DecodeRecordHeader returns a RecordHeader from a byte slice, decoding the
// multi-byte fields with the given byte order.
func DecodeRecordHeader(data []byte, order binary.ByteOrder) RecordHeader {
	var h [RecordHeaderSize]byte

	copy(h[:], data)

	var hdr RecordHeader

	copy(hdr.SequenceNumber[:], h[0:6])
	hdr.DataQualityIndicator = h[6]
	hdr.ReservedByte = h[7]

	copy(hdr.StationIdentifier[:], h[8:13])
	copy(hdr.LocationIdentifier[:], h[13:15])
	copy(hdr.ChannelIdentifier[:], h[15:18])
	copy(hdr.NetworkIdentifier[:], h[18:20])

	hdr.RecordStartTime = DecodeBTime(h[20:30], order)
	hdr.NumberOfSamples = order.Uint16(h[30:32])
	hdr.SampleRateFactor = int16(order.Uint16(h[32:34]))
	hdr.SampleRateMultiplier = int16(order.Uint16(h[34:36]))

	hdr.ActivityFlags = h[36]
	hdr.IOAndClockFlags = h[37]
	hdr.DataQualityFlags = h[38]

	hdr.NumberOfBlockettesThatFollow = h[39]

	hdr.TimeCorrection = int32(order.Uint32(h[40:44]))
	hdr.BeginningOfData = order.Uint16(h[44:46])
	hdr.FirstBlockette = order.Uint16(h[46:48])

	return hdr
}

// EncodeRecordHeader converts a RecordHeader into a byte slice.
func EncodeRecordHeader(hdr RecordHeader, order binary.ByteOrder) []byte {
	b := make([]byte, RecordHeaderSize)

	copy(b[0:6], hdr.SequenceNumber[:])
	b[6] = hdr.DataQualityIndicator
	b[7] = hdr.ReservedByte

	copy(b[8:13], hdr.StationIdentifier[:])
	copy(b[13:15], hdr.LocationIdentifier[:])
	copy(b[15:18], hdr.ChannelIdentifier[:])
	copy(b[18:20], hdr.NetworkIdentifier[:])

	copy(b[20:30], EncodeBTime(hdr.RecordStartTime, order))
	order.PutUint16(b[30:32], hdr.NumberOfSamples)
	order.PutUint16(b[32:34], uint16(hdr.SampleRateFactor))
	order.PutUint16(b[34:36], uint16(hdr.SampleRateMultiplier))

	b[36] = hdr.ActivityFlags
	b[37] = hdr.IOAndClockFlags
	b[38] = hdr.DataQualityFlags

	b[39] = hdr.NumberOfBlockettesThatFollow

	order.PutUint32(b[40:44], uint32(hdr.TimeCorrection))
	order.PutUint16(b[44:46], hdr.BeginningOfData)
	order.PutUint16(b[46:48], hdr.FirstBlockette)

	return b
}
