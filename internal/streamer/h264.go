package streamer

// NAL unit types that carry a coded slice.
const (
	nalSlice    = 1
	nalIDRSlice = 5
)

type annexBState int

const (
	scanStartCode annexBState = iota
	awaitNALHeader
	awaitSliceHeader
)

// annexBCounter counts frames in an H.264 Annex B byte stream. A frame starts
// at a coded slice whose first_mb_in_slice is 0, which is the ue(v) value
// encoded as a single leading 1 bit. State carries across chunks, so start
// codes split between reads are still found.
type annexBCounter struct {
	state annexBState
	zeros int
}

// Count scans chunk and returns the number of frame starts in it.
func (c *annexBCounter) Count(chunk []byte) int {
	frames := 0
	for _, b := range chunk {
		switch c.state {
		case awaitNALHeader:
			c.state = scanStartCode
			if t := b & 0x1F; t == nalSlice || t == nalIDRSlice {
				c.state = awaitSliceHeader
			}
			continue
		case awaitSliceHeader:
			c.state = scanStartCode
			if b&0x80 != 0 {
				frames++
			}
		}

		switch {
		case b == 0:
			c.zeros++
		case b == 1 && c.zeros >= 2:
			c.state = awaitNALHeader
			c.zeros = 0
		default:
			c.zeros = 0
		}
	}
	return frames
}
