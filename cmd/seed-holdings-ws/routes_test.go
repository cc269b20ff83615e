package main

import (
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"

	wt "github.com/GeoNet/kit/weft/wefttest"
)

var testServer *httptest.Server

// routes that can be tested without the db or S3.
var routes = wt.Requests{
	{ID: wt.L(), URL: "/soh/up"},
	{ID: wt.L(), URL: "/no/such/route", Status: http.StatusNotFound},
	// missing required query parameters
	{ID: wt.L(), URL: "/holdings", Status: http.StatusBadRequest},
	{ID: wt.L(), URL: "/metrics/holdings", Status: http.StatusBadRequest},
	// invalid search parameters
	{ID: wt.L(), URL: "/holdings?starttime=2016-03-19&endtime=2016-03-20&station=bad%20station", Status: http.StatusBadRequest},
	{ID: wt.L(), URL: "/holdings?starttime=notadate&endtime=2016-03-20", Status: http.StatusBadRequest},
	// invalid object keys
	{ID: wt.L(), URL: "/holdings/NZ.ABAZ", Status: http.StatusBadRequest},
	{ID: wt.L(), URL: "/holdings/nz.abaz.01.ehz.d.2016.079", Status: http.StatusBadRequest},
}

func TestRoutes(t *testing.T) {
	setup()
	defer teardown()

	for _, r := range routes {
		if b, err := r.Do(testServer.URL); err != nil {
			t.Error(err)
			t.Error(string(b))
		}
	}
}

func setup() {
	testServer = httptest.NewServer(mux)

	// Silence the logging unless running with
	// go test -v
	if !testing.Verbose() {
		log.SetOutput(io.Discard)
	}
}

func teardown() {
	testServer.Close()
}
