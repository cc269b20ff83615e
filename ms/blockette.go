package ms

import (
	"encoding/binary"
)

const (
	BlocketteHeaderSize = 4
	Blockette1000Size   = 4

	// BlocketteType1000 is the data-only blockette, the only type the
	// decoder interprets.
	BlocketteType1000 = 1000
)

// BlocketteHeader starts each blockette chained from the record header.
type BlocketteHeader struct {
	BlocketteType uint16
	NextBlockette uint16 // Byte offset of next blockette, 0 if last blockette
}

// DecodeBlocketteHeader returns a BlocketteHeader from a byte slice.
func DecodeBlocketteHeader(data []byte, order binary.ByteOrder) BlocketteHeader {
	var h [BlocketteHeaderSize]byte

	copy(h[:], data)

	return BlocketteHeader{
		BlocketteType: order.Uint16(h[0:2]),
		NextBlockette: order.Uint16(h[2:4]),
	}
}

// EncodeBlocketteHeader converts a BlocketteHeader into a byte slice.
func EncodeBlocketteHeader(hdr BlocketteHeader, order binary.ByteOrder) []byte {
	b := make([]byte, BlocketteHeaderSize)

	order.PutUint16(b[0:2], hdr.BlocketteType)
	order.PutUint16(b[2:4], hdr.NextBlockette)

	return b
}

// Blockette1000 is the data-only blockette content, excluding its header.
// It carries the sample encoding, the word order of the data, and the record
// length as a power of two exponent.
type Blockette1000 struct {
	Encoding     uint8
	WordOrder    uint8
	RecordLength uint8
	Reserved     uint8
}

// BlockSize returns the record length in bytes, 2 raised to the stored
// exponent, or zero when the blockette is unset.
func (b Blockette1000) BlockSize() int {
	if n := int(b.RecordLength); n > 0 {
		return 1 << n
	}
	return 0
}

// DecodeBlockette1000 returns a Blockette1000 from a byte slice.
func DecodeBlockette1000(data []byte) Blockette1000 {
	var b [Blockette1000Size]byte

	copy(b[:], data)

	return Blockette1000{
		Encoding:     b[0],
		WordOrder:    b[1],
		RecordLength: b[2],
		Reserved:     b[3],
	}
}

// EncodeBlockette1000 converts a Blockette1000 into a byte slice.
func EncodeBlockette1000(blk Blockette1000) []byte {
	b := make([]byte, Blockette1000Size)

	b[0] = blk.Encoding
	b[1] = blk.WordOrder
	b[2] = blk.RecordLength
	b[3] = blk.Reserved

	return b
}
