// seed-holdings-consumer receives notifications for the creation of waveform
// archive objects in AWS S3.  Notifications are received from SQS.  The
// object is fetched, decoded, and the holdings are indexed in the db.
package main

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"log"
	"os"
	"strings"
	"time"

	"github.com/GeoNet/kit/aws/s3"
	"github.com/GeoNet/kit/aws/sqs"
	"github.com/GeoNet/kit/cfg"
	"github.com/GeoNet/kit/health"
	"github.com/GeoNet/kit/metrics"
	"github.com/GeoNet/kit/slogger"
	"github.com/GeoNet/seed/internal/holdings"
	"github.com/pkg/errors"
)

const (
	healthCheckAged    = 5 * time.Minute  // consider the service failed if no successful message processing in this time.
	healthCheckStartup = 5 * time.Minute  // allow time to connect to the queue.
	healthCheckTimeout = 30 * time.Second // timeout for HTTP health checks.
	healthCheckService = ":7777"          // end point to listen to for SOH checks
	healthCheckPath    = "/soh"
)

var (
	queueURL  = os.Getenv("SQS_QUEUE_URL")
	db        *sql.DB
	s3Client  s3.S3
	sqsClient sqs.SQS

	saveHoldings *sql.Stmt
)

type event struct {
	s3.Event
}

func main() {
	// running as a health check replaces the normal service.
	if health.RunningHealthCheck() {
		healthCheck()
	}

	p, err := cfg.PostgresEnv()
	if err != nil {
		log.Fatalf("error reading DB config from the environment vars: %s", err)
	}

	db, err = sql.Open("postgres", p.Connection())
	if err != nil {
		log.Fatalf("error with DB config: %s", err)
	}
	defer db.Close()

	db.SetMaxIdleConns(p.MaxIdle)
	db.SetMaxOpenConns(p.MaxOpen)

	for {
		if err = db.Ping(); err != nil {
			log.Println("problem pinging DB sleeping and retrying")
			time.Sleep(time.Second * 30)
			continue
		}
		break
	}

	saveHoldings, err = db.Prepare(`INSERT INTO seed.holdings (streamPK, start_time, numsamples, key, error_data, error_msg)
	SELECT streamPK, $5, $6, $7, $8, $9
	FROM seed.stream
	WHERE network = $1
	AND station = $2
	AND channel = $3
	AND location = $4
	ON CONFLICT (streamPK, key) DO UPDATE SET
	start_time = EXCLUDED.start_time,
	numsamples = EXCLUDED.numsamples,
	error_data = EXCLUDED.error_data,
	error_msg = EXCLUDED.error_msg`)
	if err != nil {
		log.Fatalf("preparing saveHoldings: %s", err)
	}
	defer saveHoldings.Close()

	sqsClient, err = sqs.NewWithMaxRetries(100)
	if err != nil {
		log.Fatalf("creating SQS client: %s", err)
	}

	s3Client, err = s3.NewWithMaxRetries(100)
	if err != nil {
		log.Fatalf("creating S3 client: %s", err)
	}

	soh := health.New(healthCheckService, healthCheckAged, healthCheckStartup)

	log.Println("listening for messages")

	receiveLog := slogger.NewSmartLogger(5*time.Minute, "problem receiving message")

	var r sqs.Raw
	var e event

	for {
		r, err = sqsClient.Receive(queueURL, 600)
		if err != nil {
			receiveLog.Log("problem receiving message, backing off:", err)
			time.Sleep(time.Second * 20)
			continue
		}

		err = metrics.DoProcess(&e, []byte(r.Body))
		if err != nil {
			log.Printf("problem processing message, skipping deletion for redelivery: %s", err)
			continue
		}

		soh.Ok()

		err = sqsClient.Delete(queueURL, r.ReceiptHandle)
		if err != nil {
			log.Printf("problem deleting message, continuing: %s", err)
		}
	}
}

// healthCheck checks the SOH endpoint of a running instance and exits with
// the result, for use as a container health check.
func healthCheck() {
	timeout := healthCheckTimeout

	msg, err := health.Check(context.Background(), healthCheckService+healthCheckPath, timeout)
	if err != nil {
		log.Printf("status: %v", err)
		os.Exit(1)
	}

	log.Printf("status: %s", string(msg))
	os.Exit(0)
}

// Process implements metrics.Processor for event.
func (e *event) Process(msg []byte) error {
	err := json.Unmarshal(msg, e)
	if err != nil {
		return err
	}

	if len(e.Records) == 0 {
		return errors.New("received message with no content")
	}

	for _, v := range e.Records {
		switch {
		case strings.HasPrefix(v.EventName, "ObjectCreated"):
			h, err := holdingS3(v.S3.Bucket.Name, v.S3.Object.Key)
			if err != nil {
				return err
			}
			if err = h.save(); err != nil {
				return errors.Wrapf(err, "saving holdings for %s", v.S3.Object.Key)
			}
		case strings.HasPrefix(v.EventName, "ObjectRemoved"):
			h := holding{key: v.S3.Object.Key}
			if err = h.delete(); err != nil {
				return errors.Wrapf(err, "deleting holdings for %s", v.S3.Object.Key)
			}
		default:
			return errors.New("unknown EventName: " + v.EventName)
		}
	}

	return nil
}

// holdingS3 fetches the archive object from S3 and decodes the holdings
// from it.  Decode errors are stored against the key rather than returned
// so that malformed objects do not block the queue.
func holdingS3(bucket, key string) (holding, error) {
	var buf bytes.Buffer

	err := s3Client.Get(bucket, key, "", &buf)
	if err != nil {
		return holding{}, err
	}

	h, err := holdings.Archive(buf.Bytes())
	if err != nil {
		return holding{key: key, errorData: true, errorMsg: err.Error()}, nil
	}

	return holding{key: key, Holding: h}, nil
}
