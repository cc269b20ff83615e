package main

import (
	"strconv"
	"strings"
	"time"

	"github.com/GeoNet/seed/internal/holdings"
	"github.com/GeoNet/seed/internal/valid"
	"github.com/lib/pq"
	"github.com/pkg/errors"
)

// http://www.postgresql.org/docs/9.4/static/errcodes-appendix.html
const (
	errorUniqueViolation pq.ErrorCode = "23505"
)

type holding struct {
	holdings.Holding
	key       string // the S3 bucket key
	errorData bool   // the archive object has errors
	errorMsg  string // the cause of the errors
}

func (h *holding) save() error {
	if h.errorData {
		// the object could not be decoded so the identifiers come from the key.
		if err := h.fromKey(); err != nil {
			return err
		}
	}

	r, err := h.saveHoldings()

	switch {
	case err != nil:
		return err
	case r == 1:
		return nil
	}

	_, err = h.saveStream()
	if err != nil {
		return err
	}

	_, err = h.saveHoldings()
	if err != nil {
		return err
	}

	return nil
}

func (h *holding) saveHoldings() (int64, error) {
	r, err := saveHoldings.Exec(h.Network, h.Station, h.Channel, h.Location, h.Start, h.NumSamples, h.key, h.errorData, h.errorMsg)
	if err != nil {
		return 0, err
	}

	return r.RowsAffected()
}

func (h *holding) saveStream() (int64, error) {
	r, err := db.Exec(`INSERT INTO seed.stream (network, station, channel, location) VALUES($1, $2, $3, $4)`,
		h.Network, h.Station, h.Channel, h.Location)
	if err != nil {
		if u, ok := err.(*pq.Error); ok && u.Code == errorUniqueViolation {
			return 1, nil
		}
		return 0, err
	}

	return r.RowsAffected()
}

func (h *holding) delete() error {
	_, err := db.Exec(`DELETE FROM seed.holdings WHERE key = $1`, h.key)
	return err
}

// fromKey fills the stream identifiers and start time from the S3 key.
// Keys look like NZ.ABAZ.01.EHZ.D.2016.079
func (h *holding) fromKey() error {
	if err := valid.ObjectKey(h.key); err != nil {
		return err
	}

	p := strings.Split(h.key, ".")
	if len(p) != 7 {
		return errors.Errorf("expected 7 parts in key %s", h.key)
	}

	year, err := strconv.Atoi(p[5])
	if err != nil {
		return err
	}

	doy, err := strconv.Atoi(p[6])
	if err != nil {
		return err
	}

	h.Network = p[0]
	h.Station = p[1]
	h.Location = p[2]
	h.Channel = p[3]
	h.Start = time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, doy-1)

	return nil
}
