// seed-decode reads fixed-record waveform archive files and prints a
// summary for each trace, or the raw samples as CSV.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/GeoNet/seed/ms"
	"github.com/GeoNet/seed/pz"
)

var (
	csvOut   bool
	pzFile   string
	showWarn bool
)

func init() {
	flag.BoolVar(&csvOut, "csv", false, "write samples as time,value CSV instead of a summary.")
	flag.StringVar(&pzFile, "pz", "", "optional SAC pole-zero file to report alongside the traces.")
	flag.BoolVar(&showWarn, "warnings", false, "print parser warnings to stderr.")
}

func main() {
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Usage: seed-decode [options] FILE ...")
		flag.Usage()
		os.Exit(1)
	}

	var resp *pz.Response
	if pzFile != "" {
		r, err := loadResponse(pzFile)
		if err != nil {
			log.Fatalf("loading pole-zero file %s: %s", pzFile, err)
		}
		resp = r
	}

	for _, path := range flag.Args() {
		if err := decodeFile(path, resp); err != nil {
			log.Fatalf("%s: %s", path, err)
		}
	}
}

// loadResponse reads a SAC pole-zero file from disk.
func loadResponse(path string) (*pz.Response, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r, err := pz.Parse(f)
	if err != nil {
		return nil, err
	}

	return &r, nil
}

func decodeFile(path string, resp *pz.Response) error {
	buf, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	a, err := ms.ParseArchive(buf)
	if err != nil {
		return err
	}

	if showWarn {
		for _, w := range a.Warnings() {
			fmt.Fprintf(os.Stderr, "%s: warning: %s\n", path, w)
		}
	}

	traces, err := a.Traces()
	if err != nil {
		return err
	}

	for _, tr := range traces {
		if csvOut {
			writeCSV(tr)
			continue
		}

		fmt.Printf("%s %s %d samples at %.6g Hz\n", tr.SrcName(), tr.StartTime.Format("2006-01-02T15:04:05.000Z"), tr.SampleCount(), tr.SampleRate)
		if resp != nil && resp.Station == tr.Station && resp.Channel == tr.Channel {
			fmt.Printf("  response: %d zeros, %d poles, constant %g\n", len(resp.Zeros), len(resp.Poles), resp.Constant)
		}
	}

	return nil
}

func writeCSV(tr ms.Trace) {
	switch tr.SampleType {
	case ms.IntegerType:
		for i, v := range tr.Int32s {
			fmt.Printf("%.4f,%d\n", tr.Timestamps[i], v)
		}
	case ms.FloatType, ms.DoubleType:
		for i, v := range tr.Float64s {
			fmt.Printf("%.4f,%g\n", tr.Timestamps[i], v)
		}
	case ms.ByteType:
		fmt.Printf("%s\n", tr.Bytes)
	}
}
