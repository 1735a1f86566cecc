package framebuf

import (
	"bytes"
	"errors"
	"testing"
)

func TestResetRule(t *testing.T) {
	tests := []struct {
		name       string
		chunks     []string
		want       string
		wantFrames uint64
	}{
		{
			name:       "last reset discards prior content",
			chunks:     []string{"\xff\xd8AAA", "BBB", "\xff\xd8CC"},
			want:       "\xff\xd8CC",
			wantFrames: 2,
		},
		{
			name:       "append without marker",
			chunks:     []string{"abc", "def"},
			want:       "abcdef",
			wantFrames: 0,
		},
		{
			name:       "marker only counts at chunk start",
			chunks:     []string{"\xff\xd8A", "B\xff\xd8C"},
			want:       "\xff\xd8AB\xff\xd8C",
			wantFrames: 1,
		},
		{
			name:       "single marker byte does not reset",
			chunks:     []string{"\xff\xd8A", "\xff", "\xd8"},
			want:       "\xff\xd8A\xff\xd8",
			wantFrames: 1,
		},
		{
			name:       "empty chunks ignored",
			chunks:     []string{"", "\xff\xd8X", ""},
			want:       "\xff\xd8X",
			wantFrames: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := New()
			for _, c := range tt.chunks {
				n, err := b.Write([]byte(c))
				if err != nil {
					t.Fatalf("Write(%q) error: %v", c, err)
				}
				if n != len(c) {
					t.Fatalf("Write(%q) = %d, want %d", c, n, len(c))
				}
			}
			if got := b.Bytes(); string(got) != tt.want {
				t.Errorf("Bytes() = %q, want %q", got, tt.want)
			}
			if got := b.Frames(); got != tt.wantFrames {
				t.Errorf("Frames() = %d, want %d", got, tt.wantFrames)
			}
		})
	}
}

func TestFinalFrameContainsLastPayload(t *testing.T) {
	b := New()
	for _, c := range [][]byte{[]byte("\xff\xd8AAA"), []byte("BBB"), []byte("\xff\xd8CC")} {
		if _, err := b.Write(c); err != nil {
			t.Fatal(err)
		}
	}
	got := b.Bytes()
	if !bytes.HasSuffix(got, []byte("CC")) || bytes.Contains(got, []byte("BBB")) {
		t.Errorf("Bytes() = %q, want frame ending in CC without BBB", got)
	}
}

func TestOnFrameReceivesCompletedFrame(t *testing.T) {
	var frames []string
	b := New(WithOnFrame(func(frame []byte) {
		frames = append(frames, string(frame))
	}))

	for _, c := range []string{"\xff\xd8AAA", "BBB", "\xff\xd8CC", "\xff\xd8D"} {
		if _, err := b.Write([]byte(c)); err != nil {
			t.Fatal(err)
		}
	}

	want := []string{"\xff\xd8AAABBB", "\xff\xd8CC"}
	if len(frames) != len(want) {
		t.Fatalf("got %d frames, want %d: %q", len(frames), len(want), frames)
	}
	for i := range want {
		if frames[i] != want[i] {
			t.Errorf("frame %d = %q, want %q", i, frames[i], want[i])
		}
	}
}

func TestOnFrameSkipsEmptyBuffer(t *testing.T) {
	calls := 0
	b := New(WithOnFrame(func([]byte) { calls++ }))
	if _, err := b.Write([]byte("\xff\xd8first")); err != nil {
		t.Fatal(err)
	}
	if calls != 0 {
		t.Errorf("onFrame called %d times for first frame, want 0", calls)
	}
}

func TestMaxSize(t *testing.T) {
	var frames []string
	b := New(WithMaxSize(8), WithOnFrame(func(frame []byte) {
		frames = append(frames, string(frame))
	}))

	if _, err := b.Write([]byte("\xff\xd8abc")); err != nil {
		t.Fatal(err)
	}
	if _, err := b.Write([]byte("defgh")); !errors.Is(err, ErrFrameTooLarge) {
		t.Fatalf("Write over limit error = %v, want ErrFrameTooLarge", err)
	}
	if b.Len() != 0 {
		t.Errorf("Len() after overflow = %d, want 0", b.Len())
	}

	// Tail of the oversized frame is swallowed until the next marker.
	if n, err := b.Write([]byte("tail")); err != nil || n != 4 {
		t.Fatalf("Write(tail) = %d, %v", n, err)
	}
	if b.Len() != 0 {
		t.Errorf("Len() after tail = %d, want 0", b.Len())
	}

	if _, err := b.Write([]byte("\xff\xd8ok")); err != nil {
		t.Fatal(err)
	}
	if got := string(b.Bytes()); got != "\xff\xd8ok" {
		t.Errorf("Bytes() = %q, want fresh frame", got)
	}
	if len(frames) != 0 {
		t.Errorf("oversized frame delivered to onFrame: %q", frames)
	}
}

func TestResetKeepsCapacity(t *testing.T) {
	b := New()
	if _, err := b.Write(bytes.Repeat([]byte{1}, 1024)); err != nil {
		t.Fatal(err)
	}
	before := b.Cap()
	if _, err := b.Write([]byte("\xff\xd8")); err != nil {
		t.Fatal(err)
	}
	if b.Cap() != before {
		t.Errorf("Cap() after reset = %d, want %d", b.Cap(), before)
	}

	b.Reset()
	if b.Len() != 0 {
		t.Errorf("Len() after Reset = %d, want 0", b.Len())
	}
}

func TestBytesReturnsCopy(t *testing.T) {
	b := New()
	if _, err := b.Write([]byte("\xff\xd8abc")); err != nil {
		t.Fatal(err)
	}
	got := b.Bytes()
	got[2] = 'X'
	if string(b.Bytes()) != "\xff\xd8abc" {
		t.Error("mutating Bytes() result changed the buffer")
	}
}
