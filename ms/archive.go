package ms

import (
	"encoding/binary"
	"fmt"
)

const (
	// DefaultRecordLength is used when the first record carries no usable
	// data-only blockette.
	DefaultRecordLength = 4096

	// DefaultEncoding is used when the first record carries no usable
	// data-only blockette.
	DefaultEncoding = EncodingSteim2

	// maxPlausibleYear bounds the header year field for byte order
	// detection. A larger value read big-endian means the archive bytes
	// are swapped.
	maxPlausibleYear = 2056
)

// ArchiveFormat captures the framing parameters assumed constant for a whole
// archive: the sample encoding, the byte order, and the record length. It is
// detected once from the first record and threaded through every subsequent
// parse and decode call.
type ArchiveFormat struct {
	Encoding     Encoding
	Order        binary.ByteOrder
	RecordLength int
}

// ChannelRun is an ordered list of record indices sharing one network,
// station, location and channel within a logical volume. The first record's
// start time and sample rate are authoritative for the whole run.
type ChannelRun struct {
	Network  string
	Station  string
	Location string
	Channel  string

	Records []int
}

// Volume is a maximal run of records whose sequence numbers carry on until a
// reset to one, grouped into channel runs.
type Volume struct {
	Runs []ChannelRun
}

// Archive is a parsed waveform archive: the detected format, the framed
// records, and their segmentation into logical volumes and channel runs.
type Archive struct {
	Format  ArchiveFormat
	Records []PhysicalRecord
	Volumes []Volume

	warnings []error
}

// Warnings returns the recoverable conditions met while parsing, currently
// only BlocketteFallback values.
func (a *Archive) Warnings() []error {
	return a.warnings
}

// ParseArchive frames the raw archive bytes into fixed-length records and
// segments them into logical volumes and channel runs. The record length,
// byte order and sample encoding are taken from the first record; a record
// whose blockette chain cannot be walked is parsed with defaults and noted
// as a BlocketteFallback warning.
func ParseArchive(buf []byte) (*Archive, error) {
	if len(buf) < RecordHeaderSize {
		return nil, FormatError{Size: len(buf), Reason: "shorter than one record header"}
	}

	a := &Archive{
		Format: ArchiveFormat{
			Encoding:     DefaultEncoding,
			Order:        detectByteOrder(buf),
			RecordLength: DefaultRecordLength,
		},
	}

	first := DecodeRecordHeader(buf, a.Format.Order)
	switch blk, err := findBlockette1000(buf, first, a.Format.Order); {
	case err != nil:
		a.warnings = append(a.warnings, BlocketteFallback{Record: 0, Err: err})
	case blk.BlockSize() < RecordHeaderSize:
		a.warnings = append(a.warnings, BlocketteFallback{Record: 0,
			Err: fmt.Errorf("implausible record length exponent %d", blk.RecordLength)})
	default:
		a.Format.Encoding = Encoding(blk.Encoding)
		a.Format.RecordLength = blk.BlockSize()
	}

	if len(buf)%a.Format.RecordLength != 0 {
		return nil, FormatError{
			RecordLength: a.Format.RecordLength,
			Size:         len(buf),
			Reason:       "input is not a whole number of records",
		}
	}

	count := len(buf) / a.Format.RecordLength
	if count == 0 {
		return nil, ErrEmptyArchive
	}

	a.Records = make([]PhysicalRecord, 0, count)
	for i := 0; i < count; i++ {
		window := buf[i*a.Format.RecordLength : (i+1)*a.Format.RecordLength]

		rec := PhysicalRecord{
			RecordHeader: DecodeRecordHeader(window, a.Format.Order),
			data:         window,
		}

		if blk, err := findBlockette1000(window, rec.RecordHeader, a.Format.Order); err != nil {
			if i > 0 { // the first record has already been reported
				a.warnings = append(a.warnings, BlocketteFallback{Record: i, Err: err})
			}
		} else {
			rec.B1000, rec.HasB1000 = blk, true
		}

		a.Records = append(a.Records, rec)
	}

	a.Volumes = segment(a.Records)

	return a, nil
}

// detectByteOrder reads the header year field of the first record in the
// default big-endian order. An implausible value means the archive is
// byte-swapped relative to the default.
func detectByteOrder(buf []byte) binary.ByteOrder {
	if y := binary.BigEndian.Uint16(buf[20:22]); y >= maxPlausibleYear {
		return binary.LittleEndian
	}
	return binary.BigEndian
}

// findBlockette1000 walks the record's blockette chain looking for the
// data-only blockette.
func findBlockette1000(window []byte, hdr RecordHeader, order binary.ByteOrder) (Blockette1000, error) {
	pointer := int(hdr.FirstBlockette)

	for i := 0; i < int(hdr.NumberOfBlockettesThatFollow); i++ {
		if pointer < RecordHeaderSize {
			return Blockette1000{}, fmt.Errorf("blockette pointer %d inside record header after %d blockettes", pointer, i)
		}
		if pointer+BlocketteHeaderSize > len(window) {
			return Blockette1000{}, fmt.Errorf("blockette header at %d past end of record", pointer)
		}

		bhead := DecodeBlocketteHeader(window[pointer:], order)
		if bhead.BlocketteType == BlocketteType1000 {
			if pointer+BlocketteHeaderSize+Blockette1000Size > len(window) {
				return Blockette1000{}, fmt.Errorf("blockette 1000 at %d past end of record", pointer)
			}
			return DecodeBlockette1000(window[pointer+BlocketteHeaderSize:]), nil
		}

		next := int(bhead.NextBlockette)
		if next != 0 && next <= pointer {
			return Blockette1000{}, fmt.Errorf("blockette chain does not advance at %d", pointer)
		}
		if next == 0 {
			break
		}
		pointer = next
	}

	return Blockette1000{}, fmt.Errorf("no data-only blockette in chain of %d", hdr.NumberOfBlockettesThatFollow)
}

// segment splits the records into logical volumes at sequence number resets
// and groups the records of each volume into channel runs.
func segment(records []PhysicalRecord) []Volume {
	var starts []int

	starts = append(starts, 0)
	for i := 1; i < len(records); i++ {
		// a sequence number of one restarts the volume numbering.
		if records[i].SeqNumber() == 1 {
			starts = append(starts, i)
		}
	}

	var volumes []Volume
	for v, start := range starts {
		end := len(records)
		if v+1 < len(starts) {
			end = starts[v+1]
		}

		indices := make([]int, 0, end-start)
		for i := start; i < end; i++ {
			indices = append(indices, i)
		}

		volumes = append(volumes, Volume{Runs: groupRuns(records, indices)})
	}

	return volumes
}

// groupRuns splits the volume's records into channel runs. Groups are
// ordered by the first appearance of each distinct station, then of each
// distinct channel within the station; file order is preserved within each
// group.
func groupRuns(records []PhysicalRecord, indices []int) []ChannelRun {
	var stations []string
	seenStation := make(map[string]bool)
	for _, i := range indices {
		if s := records[i].Station(); !seenStation[s] {
			seenStation[s] = true
			stations = append(stations, s)
		}
	}

	var runs []ChannelRun
	for _, station := range stations {
		var channels []string
		seenChannel := make(map[string]bool)
		for _, i := range indices {
			if records[i].Station() != station {
				continue
			}
			if c := records[i].Channel(); !seenChannel[c] {
				seenChannel[c] = true
				channels = append(channels, c)
			}
		}

		for _, channel := range channels {
			type netloc struct {
				network, location string
			}

			var pairs []netloc
			seenPair := make(map[netloc]bool)
			for _, i := range indices {
				r := records[i]
				if r.Station() != station || r.Channel() != channel {
					continue
				}
				if p := (netloc{r.Network(), r.Location()}); !seenPair[p] {
					seenPair[p] = true
					pairs = append(pairs, p)
				}
			}

			for _, pair := range pairs {
				run := ChannelRun{
					Network:  pair.network,
					Station:  station,
					Location: pair.location,
					Channel:  channel,
				}
				for _, i := range indices {
					r := records[i]
					if r.Station() != station || r.Channel() != channel {
						continue
					}
					if r.Network() != pair.network || r.Location() != pair.location {
						continue
					}
					run.Records = append(run.Records, i)
				}
				runs = append(runs, run)
			}
		}
	}

	return runs
}
