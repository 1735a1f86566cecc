package gps

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// KnotsToKMH converts knots to kilometres per hour.
const KnotsToKMH = 1.852

// Fix is the content of one RMC sentence.
type Fix struct {
	Time       time.Time `json:"time"`
	Valid      bool      `json:"valid"`
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	SpeedKnots float64   `json:"speed_knots"`
	SpeedKMH   float64   `json:"speed_kmh"`
	Course     float64   `json:"course"`
}

// ParseRMC parses a sentence as returned by Decoder (no '$', no checksum).
// A leading '$' and a trailing "*hh" are tolerated. Empty position fields
// are allowed when the receiver reports no fix.
func ParseRMC(sentence string) (Fix, error) {
	sentence = strings.TrimPrefix(sentence, "$")
	if i := strings.IndexByte(sentence, '*'); i >= 0 {
		sentence = sentence[:i]
	}
	fields := strings.Split(sentence, ",")
	if len(fields) < 10 || fields[0] != RMCHeader {
		return Fix{}, fmt.Errorf("%w: not an RMC sentence", ErrMalformed)
	}

	var fix Fix
	switch fields[2] {
	case "A":
		fix.Valid = true
	case "V":
	default:
		return Fix{}, fmt.Errorf("%w: status %q", ErrMalformed, fields[2])
	}

	var err error
	if fix.Time, err = parseDateTime(fields[9], fields[1]); err != nil {
		return Fix{}, err
	}
	if fix.Latitude, err = parseCoordinate(fields[3], fields[4], 2, "N", "S"); err != nil {
		return Fix{}, fmt.Errorf("latitude: %w", err)
	}
	if fix.Longitude, err = parseCoordinate(fields[5], fields[6], 3, "E", "W"); err != nil {
		return Fix{}, fmt.Errorf("longitude: %w", err)
	}
	if fix.SpeedKnots, err = parseOptionalFloat(fields[7]); err != nil {
		return Fix{}, fmt.Errorf("speed: %w", err)
	}
	fix.SpeedKMH = fix.SpeedKnots * KnotsToKMH
	if fix.Course, err = parseOptionalFloat(fields[8]); err != nil {
		return Fix{}, fmt.Errorf("course: %w", err)
	}
	return fix, nil
}

// parseCoordinate converts (d)ddmm.mmmm plus hemisphere to signed degrees.
func parseCoordinate(value, hemi string, degDigits int, pos, neg string) (float64, error) {
	if value == "" {
		return 0, nil
	}
	if len(value) < degDigits+2 {
		return 0, fmt.Errorf("%w: %q", ErrMalformed, value)
	}
	deg, err := strconv.Atoi(value[:degDigits])
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrMalformed, value)
	}
	minutes, err := strconv.ParseFloat(value[degDigits:], 64)
	if err != nil || minutes >= 60 {
		return 0, fmt.Errorf("%w: %q", ErrMalformed, value)
	}
	v := float64(deg) + minutes/60
	switch hemi {
	case pos:
	case neg:
		v = -v
	default:
		return 0, fmt.Errorf("%w: hemisphere %q", ErrMalformed, hemi)
	}
	return v, nil
}

func parseOptionalFloat(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrMalformed, s)
	}
	return v, nil
}

// parseDateTime combines ddmmyy and hhmmss(.sss) into a UTC time. Missing
// fields give the zero time.
func parseDateTime(date, clock string) (time.Time, error) {
	if date == "" || clock == "" {
		return time.Time{}, nil
	}
	if len(date) != 6 || len(clock) < 6 {
		return time.Time{}, fmt.Errorf("%w: time %q date %q", ErrMalformed, clock, date)
	}
	t, err := time.Parse("020106150405", date+clock[:6])
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: time %q date %q", ErrMalformed, clock, date)
	}
	if len(clock) > 7 && clock[6] == '.' {
		frac, err := strconv.ParseFloat("0"+clock[6:], 64)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: time %q", ErrMalformed, clock)
		}
		t = t.Add(time.Duration(frac * float64(time.Second)).Round(time.Millisecond))
	}
	return t, nil
}
