package camera

import (
	"bytes"
	"io"
)

var startOfImage = []byte{0xFF, 0xD8}

// soiSplitter re-chunks a piped MJPEG stream so that every start-of-image
// marker begins a new Write on w. Bytes between markers are passed on as
// soon as they arrive; only a trailing 0xFF is held back in case the marker
// straddles two reads.
type soiSplitter struct {
	w       io.Writer
	held    bool
	scratch []byte
}

func newSOISplitter(w io.Writer) *soiSplitter {
	return &soiSplitter{w: w}
}

func (s *soiSplitter) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	data := p
	if s.held {
		s.scratch = append(append(s.scratch[:0], 0xFF), p...)
		data = s.scratch
		s.held = false
	}
	if data[len(data)-1] == 0xFF {
		data = data[:len(data)-1]
		s.held = true
	}

	for len(data) > 0 {
		end := len(data)
		// Search past the first byte so a chunk never splits at its own marker.
		if i := bytes.Index(data[1:], startOfImage); i >= 0 {
			end = i + 1
		}
		if _, err := s.w.Write(data[:end]); err != nil {
			return 0, err
		}
		data = data[end:]
	}
	return len(p), nil
}

// Flush writes a held-back byte at end of stream.
func (s *soiSplitter) Flush() error {
	if !s.held {
		return nil
	}
	s.held = false
	_, err := s.w.Write([]byte{0xFF})
	return err
}
