package main

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/GeoNet/kit/weft"
	"github.com/GeoNet/seed/internal/valid"
)

// allow alpha, number, _, ?, *, "," and "--" (exactly 2 hyphens only)
var nslcReg = regexp.MustCompile(`^([\w*?,]+|--)$`)

// searchQuery is the query parameters for a holdings search.
type searchQuery struct {
	Network   []string `schema:"network"`
	Station   []string `schema:"station"`
	Location  []string `schema:"location"`
	Channel   []string `schema:"channel"`
	StartTime string   `schema:"starttime"`
	EndTime   string   `schema:"endtime"`
}

// dataSearch holds POSIX regexp strings for matching streams in the db,
// and the time range to search.
type dataSearch struct {
	Start, End                          time.Time
	Network, Station, Location, Channel string
}

type metric struct {
	Network, Station, Channel, Location string
	Key                                 string
	StartTime                           time.Time
	NumSamples                          int
	Error                               bool
	ErrorMessage                        string
}

// search converts the query parameters to a dataSearch.  The '*', '?' and
// '--' tokens are converted to their regular expression equivalents for
// pattern matching with Postgres POSIX regexp.
func (q *searchQuery) search() (dataSearch, error) {
	start, err := valid.ParseDate(q.StartTime)
	if err != nil {
		return dataSearch{}, err
	}

	end, err := valid.ParseDate(q.EndTime)
	if err != nil {
		return dataSearch{}, err
	}

	ne, err := toPattern(q.Network, false)
	if err != nil {
		return dataSearch{}, fmt.Errorf("invalid network parameter: %s", err)
	}

	st, err := toPattern(q.Station, false)
	if err != nil {
		return dataSearch{}, fmt.Errorf("invalid station parameter: %s", err)
	}

	lo, err := toPattern(q.Location, true)
	if err != nil {
		return dataSearch{}, fmt.Errorf("invalid location parameter: %s", err)
	}

	ch, err := toPattern(q.Channel, false)
	if err != nil {
		return dataSearch{}, fmt.Errorf("invalid channel parameter: %s", err)
	}

	for _, p := range []string{ne, st, lo, ch} {
		if err = valid.Query(p); err != nil {
			return dataSearch{}, err
		}
	}

	return dataSearch{
		Start:    start,
		End:      end,
		Network:  ne,
		Station:  st,
		Location: lo,
		Channel:  ch,
	}, nil
}

func toPattern(params []string, emptyDash bool) (string, error) {
	var patterns []string

	for _, s := range params {
		if s == "" {
			continue
		}

		if !nslcReg.MatchString(s) {
			return "", fmt.Errorf("invalid parameter: %q", s)
		}

		var r string

		if emptyDash && s == "--" {
			// "--" represents blank location which is saved as 2 white spaces.
			r = `^\s{2}$`
		} else {
			s = strings.ReplaceAll(s, "*", ".*")
			s = strings.ReplaceAll(s, "?", ".")
			r = "^" + s + "$"
		}

		patterns = append(patterns, r)
	}

	return strings.Join(patterns, `|`), nil
}

// holdingsSearch searches for S3 keys matching the query.
// network, station, channel, and location are matched using POSIX regular expressions.
// https://www.postgresql.org/docs/9.3/static/functions-matching.html
// 24 hours is subtracted from the start time and added to the end time to
// include all records in each day long file.
func holdingsSearch(d dataSearch) (keys []string, err error) {
	var rows *sql.Rows

	rows, err = db.Query(`WITH s AS (SELECT DISTINCT ON (network, station, channel, location) streamPK
	FROM seed.stream WHERE network ~ $1
	AND station ~ $2
	AND channel ~ $3
	AND location ~ $4)
	SELECT DISTINCT ON (key) key FROM s JOIN seed.holdings USING (streampk)
	WHERE start_time >= $5
	AND start_time <= $6
	AND error_data = false`,
		d.Network, d.Station, d.Channel, d.Location, d.Start.Add(time.Hour*-24), d.End.Add(time.Hour*24))
	if err != nil {
		return
	}
	defer rows.Close()

	var s string

	for rows.Next() {
		err = rows.Scan(&s)
		if err != nil {
			return
		}
		keys = append(keys, s)
	}

	return
}

// metricsSearch searches for data metrics matching the query, including
// objects that could not be decoded.
func metricsSearch(d dataSearch) ([]metric, error) {
	rows, err := db.Query(`WITH s AS (SELECT DISTINCT ON (network, station, channel, location) streamPK, network, station, channel, location
	FROM seed.stream WHERE network ~ $1
	AND station ~ $2
	AND channel ~ $3
	AND location ~ $4)
	SELECT DISTINCT ON (key) key, network, station, channel, location, start_time, numsamples, error_data, error_msg FROM s JOIN seed.holdings USING (streampk)
	WHERE start_time >= $5
	AND start_time <= $6`,
		d.Network, d.Station, d.Channel, d.Location, d.Start.Add(time.Hour*-24), d.End.Add(time.Hour*24))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var h []metric

	for rows.Next() {
		var v metric

		err = rows.Scan(&v.Key, &v.Network, &v.Station, &v.Channel, &v.Location, &v.StartTime, &v.NumSamples, &v.Error, &v.ErrorMessage)
		if err != nil {
			return nil, err
		}
		h = append(h, v)
	}

	return h, nil
}

func holdingsSearchHandler(r *http.Request, h http.Header, b *bytes.Buffer) error {
	err := weft.CheckQuery(r, []string{"GET"}, []string{"starttime", "endtime"}, []string{"network", "station", "location", "channel"})
	if err != nil {
		return err
	}

	d, err := parseSearchQuery(r)
	if err != nil {
		return err
	}

	keys, err := holdingsSearch(d)
	if err != nil {
		return err
	}

	h.Set("Content-Type", "application/json")

	return json.NewEncoder(b).Encode(struct {
		Keys []string `json:"keys"`
	}{Keys: keys})
}

func metricsSearchHandler(r *http.Request, h http.Header, b *bytes.Buffer) error {
	err := weft.CheckQuery(r, []string{"GET"}, []string{"starttime", "endtime"}, []string{"network", "station", "location", "channel"})
	if err != nil {
		return err
	}

	d, err := parseSearchQuery(r)
	if err != nil {
		return err
	}

	m, err := metricsSearch(d)
	if err != nil {
		return err
	}

	h.Set("Content-Type", "application/json")

	return json.NewEncoder(b).Encode(m)
}

// holdingsObjectHandler decodes a single archive object and returns its
// holdings summary.  Decoding is accelerated with a RAM cache keyed on the
// object's last modified time.
func holdingsObjectHandler(r *http.Request, h http.Header, b *bytes.Buffer) error {
	err := weft.CheckQuery(r, []string{"GET"}, []string{}, []string{})
	if err != nil {
		return err
	}

	key := strings.TrimPrefix(r.URL.Path, "/holdings/")

	if err = valid.ObjectKey(key); err != nil {
		return err
	}

	modified, err := s3Client.LastModified(s3Bucket, key, "")
	if err != nil {
		return weft.StatusError{Code: http.StatusNotFound, Err: err}
	}

	holding, err := cache.Holding(key, modified)
	if err != nil {
		return err
	}

	h.Set("Content-Type", "application/json")

	return json.NewEncoder(b).Encode(holding)
}

func parseSearchQuery(r *http.Request) (dataSearch, error) {
	var q searchQuery

	if err := decoder.Decode(&q, r.URL.Query()); err != nil {
		return dataSearch{}, weft.StatusError{Code: http.StatusBadRequest, Err: err}
	}

	d, err := q.search()
	if err != nil {
		return dataSearch{}, weft.StatusError{Code: http.StatusBadRequest, Err: err}
	}

	return d, nil
}
