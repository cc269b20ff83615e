// seed-holdings-ws serves the waveform archive holdings index over HTTP.
package main

import (
	"bytes"
	"database/sql"
	"log"
	"net/http"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/GeoNet/kit/aws/s3"
	"github.com/GeoNet/kit/cfg"
	"github.com/GeoNet/seed/internal/tracecache"
	"github.com/gorilla/schema"
	_ "github.com/lib/pq"
)

var (
	db       *sql.DB
	decoder  = newDecoder() // decoder for URL queries.
	s3Client s3.S3
	s3Bucket string // the S3 bucket storing the archive objects.
	cache    *tracecache.Cache
)

func newDecoder() *schema.Decoder {
	decoder := schema.NewDecoder()
	// Handle comma separated parameters (eg: net, sta, loc, cha, etc)
	decoder.RegisterConverter([]string{}, func(input string) reflect.Value {
		return reflect.ValueOf(strings.Split(input, ","))
	})
	return decoder
}

func main() {
	var err error

	if s3Bucket = os.Getenv("S3_BUCKET"); s3Bucket == "" {
		log.Fatal("ERROR: S3_BUCKET environment variable is not set")
	}

	size := os.Getenv("CACHE_SIZE")
	if size == "" {
		log.Fatal("CACHE_SIZE env var must be set")
	}

	cacheSize, err := strconv.ParseInt(size, 10, 64)
	if err != nil {
		log.Fatalf("error parsing CACHE_SIZE env var %s", err.Error())
	}

	cacheSize = cacheSize * 1000000

	p, err := cfg.PostgresEnv()
	if err != nil {
		log.Fatalf("error reading DB config from the environment vars: %s", err)
	}

	// set a statement timeout to cancel any very long running DB queries.
	// Value is int milliseconds.
	// https://www.postgresql.org/docs/9.5/static/runtime-config-client.html
	db, err = sql.Open("postgres", p.Connection()+" statement_timeout=600000")
	if err != nil {
		log.Fatalf("error with DB config: %s", err)
	}
	defer db.Close()

	db.SetMaxIdleConns(p.MaxIdle)
	db.SetMaxOpenConns(p.MaxOpen)

	if err = db.Ping(); err != nil {
		log.Println("ERROR: problem pinging DB - is it up and contactable? 500s will be served")
	}

	s3Client, err = s3.NewWithMaxRetries(3)
	if err != nil {
		log.Fatalf("creating S3 client: %s", err)
	}

	cache = tracecache.New("holdings", cacheSize, objectGetter)

	log.Println("starting server")
	server := &http.Server{
		Addr:         ":8080",
		Handler:      mux,
		ReadTimeout:  1 * time.Minute,
		WriteTimeout: 10 * time.Minute,
	}
	log.Fatal(server.ListenAndServe())
}

// objectGetter fetches the raw archive object from S3 for cache misses.
func objectGetter(key string) ([]byte, error) {
	var b bytes.Buffer

	if err := s3Client.Get(s3Bucket, key, "", &b); err != nil {
		return nil, err
	}

	return b.Bytes(), nil
}
