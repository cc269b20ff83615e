// Package holdings is for summarising the data held in seed waveform
// archive files.
package holdings

import (
	"io"
	"time"

	"github.com/GeoNet/seed/ms"
)

// Holding summarises the contents of one archive file.
type Holding struct {
	Network, Station, Channel, Location string
	Start                               time.Time
	NumSamples                          int
}

// SingleStream decodes an archive expected to hold a single stream (not
// multiplexed) and returns a summary. The stream identifiers and start
// time come from the first channel run; sample counts are totalled across
// every run in the archive.
func SingleStream(r io.Reader) (Holding, error) {
	buf, err := io.ReadAll(r)
	if err != nil {
		return Holding{}, err
	}

	return Archive(buf)
}

// Archive returns the holdings summary for an in-memory archive.
func Archive(buf []byte) (Holding, error) {
	traces, err := ms.Decode(buf)
	if err != nil {
		return Holding{}, err
	}

	h := Holding{
		Network:  traces[0].Network,
		Station:  traces[0].Station,
		Channel:  traces[0].Channel,
		Location: traces[0].Location,
		Start:    traces[0].StartTime,
	}

	for _, trace := range traces {
		h.NumSamples += trace.SampleCount()
	}

	return h, nil
}
