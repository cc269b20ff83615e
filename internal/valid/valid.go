package valid

import (
	"fmt"
	"net/http"
	"regexp"
	"time"
)

var (
	// archive object keys are of the form NZ.ABAZ.10.EHZ.D.2016.079
	key, keyErr = regexp.Compile(`^[A-Z0-9]+\.[A-Z0-9]+\.[A-Z0-9]*\.[A-Z0-9]+\.[DRQM]\.[0-9]{4}\.[0-9]{3}$`)
)

type Validator func(string) error

// implements weft.Error
type Error struct {
	Code int
	Err  error
}

func (s Error) Error() string {
	if s.Err == nil {
		return "<nil>"
	}
	return s.Err.Error()
}

func (s Error) Status() int {
	return s.Code
}

// ObjectKey for validating waveform archive object keys.
func ObjectKey(s string) error {
	if keyErr != nil {
		return keyErr
	}

	if key.MatchString(s) {
		return nil
	}

	return Error{Code: http.StatusBadRequest, Err: fmt.Errorf("invalid object key: %s", s)}
}

// Query for validating stream matching query parameters, which are used as
// POSIX regular expressions in holdings searches.
func Query(s string) error {
	if _, err := regexp.Compile(s); err != nil {
		return Error{Code: http.StatusBadRequest, Err: fmt.Errorf("invalid query parameter: %s", s)}
	}

	return nil
}

// ParseDate for validating and parsing query time parameters. Both date
// and date-time forms are accepted.
func ParseDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02T15:04:05", s); err == nil {
		return t, nil
	}

	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, Error{Code: http.StatusBadRequest, Err: fmt.Errorf("invalid date: %s", s)}
	}

	return t, nil
}
