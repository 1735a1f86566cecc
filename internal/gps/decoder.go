// Package gps reads NMEA 0183 RMC sentences from the GPS module.
//
// The module streams sentences of the form
//
//	$GPRMC,123519,A,4807.038,N,01131.000,E,022.4,084.4,230394,003.1,W*6A
//
// over a 9600 8N1 serial link. Decoder is a byte-at-a-time state machine
// that extracts RMC sentences with a valid checksum; ParseRMC turns one into
// a Fix.
package gps

import (
	"errors"
	"fmt"
)

// MaxBody bounds the bytes accepted between the header and the '*'.
const MaxBody = 512

// RMCHeader is the only sentence the decoder accepts.
const RMCHeader = "GPRMC"

var (
	// ErrChecksum is returned when the transmitted checksum does not match.
	ErrChecksum = errors.New("gps: checksum mismatch")
	// ErrOverflow is returned when a sentence body exceeds MaxBody.
	ErrOverflow = errors.New("gps: sentence too long")
	// ErrMalformed is returned for bad checksum digits.
	ErrMalformed = errors.New("gps: malformed sentence")
)

type decodeState int

const (
	stateIdle decodeState = iota
	stateHeader
	stateBody
	stateChecksum
)

// Decoder extracts checksummed RMC sentences from a byte stream.
// The zero value is ready to use.
type Decoder struct {
	state    decodeState
	header   [len(RMCHeader)]byte
	n        int
	sentence []byte
	sum      [2]byte
}

// Feed consumes one byte. When b completes a sentence whose checksum
// matches, the sentence is returned without the leading '$' and the
// trailing "*hh". A completed sentence that fails validation returns an
// error. In every other case Feed returns "", nil.
func (d *Decoder) Feed(b byte) (string, error) {
	switch d.state {
	case stateIdle:
		if b == '$' {
			d.state = stateHeader
			d.n = 0
		}

	case stateHeader:
		if d.n < len(d.header) {
			d.header[d.n] = b
			d.n++
			return "", nil
		}
		if b != ',' || string(d.header[:]) != RMCHeader {
			d.reset()
			if b == '$' {
				d.state = stateHeader
			}
			return "", nil
		}
		d.sentence = append(d.sentence[:0], RMCHeader...)
		d.sentence = append(d.sentence, ',')
		d.state = stateBody

	case stateBody:
		switch b {
		case '*':
			d.state = stateChecksum
			d.n = 0
		case '$':
			// A new sentence started before the old one finished.
			d.state = stateHeader
			d.n = 0
		default:
			if len(d.sentence)-len(RMCHeader)-1 >= MaxBody {
				d.reset()
				return "", ErrOverflow
			}
			d.sentence = append(d.sentence, b)
		}

	case stateChecksum:
		d.sum[d.n] = b
		d.n++
		if d.n < len(d.sum) {
			return "", nil
		}
		sentence := string(d.sentence)
		want, ok := parseHexByte(d.sum)
		d.reset()
		if !ok {
			return "", ErrMalformed
		}
		if got := Checksum(sentence); got != want {
			return "", fmt.Errorf("%w: got %02X want %02X", ErrChecksum, got, want)
		}
		return sentence, nil
	}
	return "", nil
}

func (d *Decoder) reset() {
	d.state = stateIdle
	d.n = 0
	d.sentence = d.sentence[:0]
}

// Checksum XORs every byte of s, which must exclude '$' and '*'.
func Checksum(s string) byte {
	var sum byte
	for i := 0; i < len(s); i++ {
		sum ^= s[i]
	}
	return sum
}

func parseHexByte(h [2]byte) (byte, bool) {
	hi, ok1 := hexValue(h[0])
	lo, ok2 := hexValue(h[1])
	return hi<<4 | lo, ok1 && ok2
}

func hexValue(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}
