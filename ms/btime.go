package ms

import (
	"encoding/binary"
	"time"
)

// BTimeSize is the fixed size of an encoded BTime.
const BTimeSize = 10

// BTime is the SEED representation of time: a year and day-of-year pair with
// the time of day held to a resolution of 0.0001 seconds.
type BTime struct {
	Year   uint16
	Doy    uint16
	Hour   uint8
	Minute uint8
	Second uint8
	Unused byte
	S0001  uint16
}

// monthDays is the non-leap month length table used to map a day-of-year
// onto a calendar month and day.
var monthDays = [12]int{31, 28, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}

// isLeap applies the archive convention for leap years, a plain four year
// cycle anchored on 2000. This diverges from the Gregorian rule at century
// boundaries but matches the files being decoded.
func isLeap(year int) bool {
	return (year-2000)%4 == 0
}

// MonthDay maps the day-of-year onto a calendar month and day.
func (b BTime) MonthDay() (time.Month, int) {
	doy := int(b.Doy)

	for i, n := range monthDays {
		if i == 1 && isLeap(int(b.Year)) {
			n++
		}
		if doy <= n {
			return time.Month(i + 1), doy
		}
		doy -= n
	}

	return time.December, 31
}

// epochDays returns the whole days between 1970-01-01 and the start of the
// day the BTime falls on, using the same four year leap cycle as MonthDay.
func (b BTime) epochDays() int64 {
	y := int64(b.Year)

	// 492 leap days fall before 1970 under the four year rule.
	days := 365*(y-1970) + (y-1)/4 - 492

	return days + int64(b.Doy) - 1
}

// Epoch returns the time as seconds since 1970-01-01T00:00:00 UTC. The whole
// second part is built with integer arithmetic so long archives do not drift.
func (b BTime) Epoch() float64 {
	secs := b.epochDays()*86400 +
		int64(b.Hour)*3600 +
		int64(b.Minute)*60 +
		int64(b.Second)

	return float64(secs) + float64(b.S0001)/10000.0
}

// Time converts a BTime into a time.Time in UTC.
func (b BTime) Time() time.Time {
	secs := b.epochDays()*86400 +
		int64(b.Hour)*3600 +
		int64(b.Minute)*60 +
		int64(b.Second)

	return time.Unix(secs, int64(b.S0001)*100000).UTC()
}

// NewBTime builds a BTime from a time.Time.
func NewBTime(t time.Time) BTime {
	return BTime{
		Year:   uint16(t.Year()),
		Doy:    uint16(t.YearDay()),
		Hour:   uint8(t.Hour()),
		Minute: uint8(t.Minute()),
		Second: uint8(t.Second()),
		S0001:  uint16(t.Nanosecond() / 100000),
	}
}

// DecodeBTime returns a BTime from a byte slice using the given byte order
// for the multi-byte fields.
func DecodeBTime(data []byte, order binary.ByteOrder) BTime {
	var b [BTimeSize]byte

	copy(b[:], data)

	return BTime{
		Year:   order.Uint16(b[0:2]),
		Doy:    order.Uint16(b[2:4]),
		Hour:   b[4],
		Minute: b[5],
		Second: b[6],
		Unused: b[7],
		S0001:  order.Uint16(b[8:10]),
	}
}

// EncodeBTime converts a BTime into a byte slice.
func EncodeBTime(at BTime, order binary.ByteOrder) []byte {
	b := make([]byte, BTimeSize)

	order.PutUint16(b[0:2], at.Year)
	order.PutUint16(b[2:4], at.Doy)
	b[4] = at.Hour
	b[5] = at.Minute
	b[6] = at.Second
	b[7] = at.Unused
	order.PutUint16(b[8:10], at.S0001)

	return b
}
