package main

import (
	"bytes"
	"net/http"

	"github.com/GeoNet/kit/weft"
)

var mux *http.ServeMux

func init() {
	mux = http.NewServeMux()

	mux.HandleFunc("/holdings", weft.MakeHandler(holdingsSearchHandler, weft.TextError))
	mux.HandleFunc("/holdings/", weft.MakeHandler(holdingsObjectHandler, weft.TextError))
	mux.HandleFunc("/metrics/holdings", weft.MakeHandler(metricsSearchHandler, weft.TextError))

	mux.HandleFunc("/", weft.MakeHandler(weft.NoMatch, weft.TextError))

	// routes for balancers and probes.
	mux.HandleFunc("/soh/up", weft.MakeHandler(weft.Up, weft.TextError))
	mux.HandleFunc("/soh", weft.MakeHandler(soh, weft.UseError))
}

// soh is for external service probes.
func soh(r *http.Request, h http.Header, b *bytes.Buffer) error {
	err := weft.CheckQuery(r, []string{"GET"}, []string{}, []string{})
	if err != nil {
		return err
	}

	var c int
	if err = db.QueryRow(`SELECT 1`).Scan(&c); err != nil {
		b.WriteString("<html><head></head><body>service error</body></html>")
		return weft.StatusError{Code: http.StatusServiceUnavailable, Err: err}
	}

	b.WriteString("<html><head></head><body>ok</body></html>")

	return nil
}
