package ms

import (
	"errors"
	"fmt"
)

// ErrEmptyArchive is returned when no records could be framed from the input.
var ErrEmptyArchive = errors.New("ms: no records found in archive")

// FormatError indicates the input cannot be framed into fixed-length records:
// it is shorter than one record header, or its length is not a whole multiple
// of the detected record length.
type FormatError struct {
	RecordLength int
	Size         int
	Reason       string
}

func (e FormatError) Error() string {
	return fmt.Sprintf("ms: bad archive framing (%d byte input, %d byte records): %s",
		e.Size, e.RecordLength, e.Reason)
}

// InvalidSampleRateError indicates a zero rate factor or multiplier in a
// branch of the sample rate calculation that needs it as a divisor.
type InvalidSampleRateError struct {
	Factor     int16
	Multiplier int16
}

func (e InvalidSampleRateError) Error() string {
	return fmt.Sprintf("ms: invalid sample rate factor %d multiplier %d", e.Factor, e.Multiplier)
}

// UnsupportedEncodingError indicates an archive using a sample encoding the
// decoder does not handle. Decoding aborts for the whole archive, no partial
// trace set is returned.
type UnsupportedEncodingError struct {
	Encoding Encoding
}

func (e UnsupportedEncodingError) Error() string {
	return fmt.Sprintf("ms: unsupported sample encoding %d", uint8(e.Encoding))
}

// BlocketteFallback is a recoverable warning raised when a record's
// blockette chain could not be walked to a data-only blockette. The decoder
// substitutes defaults (STEIM2, 4096 byte records, big-endian) and carries on.
type BlocketteFallback struct {
	Record int
	Err    error
}

func (e BlocketteFallback) Error() string {
	return fmt.Sprintf("ms: record %d: no usable data-only blockette, using defaults: %v", e.Record, e.Err)
}

func (e BlocketteFallback) Unwrap() error {
	return e.Err
}
