package ics

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// The decoders below turn the format's compact date and date-time tokens
// into time.Time values. Decoding is purely syntactic: field values are
// not range-checked, so a month of 13 is handed to time.Date as-is and
// normalizes into the following year rather than failing. Tokens that are
// structurally wrong (too short, non-numeric) are rejected with an error.

// DecodeDate decodes a bare date token "YYYYMMDD" into local midnight on
// that calendar day.
func DecodeDate(tok string) (time.Time, error) {
	y, m, d, err := dateFields(tok)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.Local), nil
}

// DecodeDateTime decodes a date-time token "YYYYMMDDTHHMMSS[Z]". A
// trailing Z marks the fields as UTC; without it they are read as local
// wall-clock time. No other timezone suffix is supported; anything that
// is not a valid Z-suffixed or bare token is rejected.
func DecodeDateTime(tok string) (time.Time, error) {
	loc := time.Local
	if strings.HasSuffix(tok, "Z") {
		loc = time.UTC
		tok = tok[:len(tok)-1]
	}

	datePart, timePart, found := strings.Cut(tok, "T")
	if !found {
		return time.Time{}, fmt.Errorf("date-time token %q: missing T separator", tok)
	}

	y, m, d, err := dateFields(datePart)
	if err != nil {
		return time.Time{}, err
	}

	if len(timePart) != 6 {
		return time.Time{}, fmt.Errorf("time token %q: want HHMMSS", timePart)
	}
	hh, err := numField(timePart[0:2], "hour")
	if err != nil {
		return time.Time{}, err
	}
	mm, err := numField(timePart[2:4], "minute")
	if err != nil {
		return time.Time{}, err
	}
	ss, err := numField(timePart[4:6], "second")
	if err != nil {
		return time.Time{}, err
	}

	return time.Date(y, time.Month(m), d, hh, mm, ss, 0, loc), nil
}

func dateFields(tok string) (y, m, d int, err error) {
	if len(tok) != 8 {
		return 0, 0, 0, fmt.Errorf("date token %q: want YYYYMMDD", tok)
	}
	if y, err = numField(tok[0:4], "year"); err != nil {
		return 0, 0, 0, err
	}
	if m, err = numField(tok[4:6], "month"); err != nil {
		return 0, 0, 0, err
	}
	if d, err = numField(tok[6:8], "day"); err != nil {
		return 0, 0, 0, err
	}
	return y, m, d, nil
}

func numField(s, name string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%s field %q is not numeric", name, s)
	}
	return n, nil
}
