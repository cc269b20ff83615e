// Package pz reads instrument response files in the commented pole-zero
// text format: identifier and coordinate values held on comment lines, and
// a line-oriented numeric table of zeros, poles and a scalar gain constant.
package pz

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Response holds the site and response details read from one pole-zero file.
type Response struct {
	Network  string
	Station  string
	Location string
	Channel  string

	Latitude  float64
	Longitude float64

	Zeros    []complex128
	Poles    []complex128
	Constant float64
}

// Parse reads a pole-zero response file. Identifier and coordinate values
// are taken from comment lines of the form "* KEY : VALUE"; the numeric
// table is introduced by "ZEROS n" and "POLES n" lines followed by real and
// imaginary pairs, and closed by a "CONSTANT v" line. A table declaring more
// entries than it lists leaves the missing entries at zero, following the
// usual pole-zero file convention.
func Parse(r io.Reader) (Response, error) {
	resp := Response{Constant: 1.0}

	// rows still expected for the table being read, nil when no table
	// is open.
	var table *[]complex128
	var remaining int

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "*") {
			if err := resp.comment(strings.TrimLeft(line, "* ")); err != nil {
				return Response{}, err
			}
			continue
		}

		fields := strings.Fields(line)
		switch key := strings.ToUpper(fields[0]); key {
		case "ZEROS", "POLES":
			if len(fields) < 2 {
				return Response{}, fmt.Errorf("pz: missing count on %s line", key)
			}
			n, err := strconv.Atoi(fields[1])
			if err != nil || n < 0 {
				return Response{}, fmt.Errorf("pz: invalid count on %s line: %q", key, fields[1])
			}

			if key == "ZEROS" {
				resp.Zeros = make([]complex128, n)
				table = &resp.Zeros
			} else {
				resp.Poles = make([]complex128, n)
				table = &resp.Poles
			}
			remaining = n
		case "CONSTANT":
			if len(fields) < 2 {
				return Response{}, fmt.Errorf("pz: missing value on CONSTANT line")
			}
			v, err := strconv.ParseFloat(fields[1], 64)
			if err != nil {
				return Response{}, fmt.Errorf("pz: invalid CONSTANT value %q: %w", fields[1], err)
			}
			resp.Constant = v
			table, remaining = nil, 0
		default:
			if table == nil || remaining == 0 {
				return Response{}, fmt.Errorf("pz: unexpected line %q", line)
			}
			if len(fields) < 2 {
				return Response{}, fmt.Errorf("pz: expected a real and imaginary pair, got %q", line)
			}

			re, err := strconv.ParseFloat(fields[0], 64)
			if err != nil {
				return Response{}, fmt.Errorf("pz: invalid real value %q: %w", fields[0], err)
			}
			im, err := strconv.ParseFloat(fields[1], 64)
			if err != nil {
				return Response{}, fmt.Errorf("pz: invalid imaginary value %q: %w", fields[1], err)
			}

			values := *table
			values[len(values)-remaining] = complex(re, im)
			remaining--
		}
	}
	if err := scanner.Err(); err != nil {
		return Response{}, err
	}

	return resp, nil
}

// comment extracts a known key and value from one comment line, other
// comment content is ignored.
func (r *Response) comment(line string) error {
	key, value, ok := strings.Cut(line, ":")
	if !ok {
		return nil
	}
	value = strings.TrimSpace(value)

	switch {
	case strings.Contains(key, "NETWORK"):
		r.Network = value
	case strings.Contains(key, "STATION"):
		r.Station = value
	case strings.Contains(key, "LOCATION"):
		r.Location = value
	case strings.Contains(key, "CHANNEL"):
		r.Channel = value
	case strings.Contains(key, "LATITUDE"):
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("pz: invalid latitude %q: %w", value, err)
		}
		r.Latitude = v
	case strings.Contains(key, "LONGITUDE"):
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("pz: invalid longitude %q: %w", value, err)
		}
		r.Longitude = v
	}

	return nil
}
