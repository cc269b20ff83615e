package ms

import (
	"fmt"
	"time"
)

// Trace is the decoded, continuous sample sequence of one channel run
// together with a parallel vector of per-sample epoch timestamps. Exactly
// one of Int32s, Float64s or Bytes is populated, selected by SampleType.
// A Trace is immutable once built.
type Trace struct {
	Network  string
	Station  string
	Location string
	Channel  string

	SampleRate float64
	SampleType SampleType

	StartTime  time.Time
	StartEpoch float64

	Int32s   []int32
	Float64s []float64
	Bytes    []byte

	// Timestamps holds one epoch time per decoded sample.
	Timestamps []float64
}

// SampleCount returns the number of decoded samples.
func (t Trace) SampleCount() int {
	return len(t.Timestamps)
}

// SrcName builds the stream identifier for the trace.
func (t Trace) SrcName() string {
	return t.Network + "_" + t.Station + "_" + t.Location + "_" + t.Channel
}

// String implements the Stringer interface with a short trace summary.
func (t Trace) String() string {
	return fmt.Sprintf("%s, %g Hz, %d samples, %s",
		t.SrcName(), t.SampleRate, t.SampleCount(), t.StartTime.Format("2006,002,15:04:05.000000"))
}

// Traces decodes every channel run of every logical volume into a trace,
// returned in discovery order. An unsupported archive encoding or any
// decoding failure aborts the whole archive, no partial trace set is
// returned.
func (a *Archive) Traces() ([]Trace, error) {
	if !a.Format.Encoding.Supported() {
		return nil, UnsupportedEncodingError{Encoding: a.Format.Encoding}
	}

	if len(a.Records) == 0 {
		return nil, ErrEmptyArchive
	}

	var traces []Trace
	for _, volume := range a.Volumes {
		for _, run := range volume.Runs {
			trace, err := a.trace(run)
			if err != nil {
				return nil, err
			}
			traces = append(traces, trace)
		}
	}

	return traces, nil
}

// trace decodes one channel run. The run's first record provides the
// identifier metadata and the nominal sample rate; each record provides its
// own start time for the per-sample timestamps.
func (a *Archive) trace(run ChannelRun) (Trace, error) {
	first := a.Records[run.Records[0]]

	rate, err := first.SampleRate()
	if err != nil {
		return Trace{}, err
	}

	trace := Trace{
		Network:  run.Network,
		Station:  run.Station,
		Location: run.Location,
		Channel:  run.Channel,

		SampleRate: rate,
		SampleType: a.Format.Encoding.SampleType(),

		StartTime:  first.StartTime(),
		StartEpoch: first.StartEpoch(),
	}

	var expected int
	for _, i := range run.Records {
		expected += a.Records[i].SampleCount()
	}
	trace.Timestamps = make([]float64, 0, expected)

	var period float64
	if rate > 0 {
		period = 1.0 / rate
	}

	for _, i := range run.Records {
		rec := a.Records[i]

		var count int
		switch payload := rec.Payload(); a.Format.Encoding {
		case EncodingText:
			b, err := decodeText(payload, rec.NumberOfSamples)
			if err != nil {
				return Trace{}, err
			}
			trace.Bytes = append(trace.Bytes, b...)
			count = len(b)
		case EncodingInt16:
			v, err := decodeInt16(payload, a.Format.Order, rec.NumberOfSamples)
			if err != nil {
				return Trace{}, err
			}
			trace.Int32s = append(trace.Int32s, v...)
			count = len(v)
		case EncodingInt32:
			v, err := decodeInt32(payload, a.Format.Order, rec.NumberOfSamples)
			if err != nil {
				return Trace{}, err
			}
			trace.Int32s = append(trace.Int32s, v...)
			count = len(v)
		case EncodingFloat32:
			v, err := decodeFloat32(payload, a.Format.Order, rec.NumberOfSamples)
			if err != nil {
				return Trace{}, err
			}
			trace.Float64s = append(trace.Float64s, v...)
			count = len(v)
		case EncodingFloat64:
			v, err := decodeFloat64(payload, a.Format.Order, rec.NumberOfSamples)
			if err != nil {
				return Trace{}, err
			}
			trace.Float64s = append(trace.Float64s, v...)
			count = len(v)
		case EncodingSteim1, EncodingSteim2:
			v, err := decodeSteim(a.Format.Encoding, payload, a.Format.Order, rec.NumberOfSamples)
			if err != nil {
				return Trace{}, err
			}
			trace.Int32s = append(trace.Int32s, v...)
			count = len(v)
		}

		start := rec.StartEpoch()
		for j := 0; j < count; j++ {
			trace.Timestamps = append(trace.Timestamps, start+float64(j)*period)
		}
	}

	return trace, nil
}

// Decode is a convenience wrapper that parses the archive bytes and decodes
// every channel run in one call.
func Decode(buf []byte) ([]Trace, error) {
	archive, err := ParseArchive(buf)
	if err != nil {
		return nil, err
	}
	return archive.Traces()
}
