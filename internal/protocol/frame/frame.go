package frame

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Mode selects how a stream is cut into messages.
type Mode int

const (
	// ModeLines treats each line as one message, as in FIX log files.
	ModeLines Mode = iota
	// ModeTrailer cuts a raw stream after the delimiter that ends the
	// 10= checksum field. The checksum value is not checked.
	ModeTrailer
)

var (
	ErrMessageTooLarge = errors.New("frame: message too large")
	ErrTruncated       = errors.New("frame: stream ended mid-message")
)

// Limits constrains framer memory use.
type Limits struct {
	MaxMessageBytes int
}

func DefaultLimits() Limits {
	return Limits{MaxMessageBytes: 64 * 1024}
}

func ParseMode(raw string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "lines", "line":
		return ModeLines, nil
	case "trailer", "raw":
		return ModeTrailer, nil
	default:
		return 0, fmt.Errorf("frame: unknown mode %q", raw)
	}
}

func (m Mode) String() string {
	switch m {
	case ModeLines:
		return "lines"
	case ModeTrailer:
		return "trailer"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Reader yields complete messages from a stream. Returned slices are only
// valid until the next call to Next.
type Reader struct {
	sc    *bufio.Scanner
	limit int
}

// NewReader frames r. delim is the field delimiter, used by ModeTrailer to
// find the checksum field.
func NewReader(r io.Reader, mode Mode, delim byte, limits Limits) *Reader {
	if limits.MaxMessageBytes <= 0 {
		limits = DefaultLimits()
	}
	sc := bufio.NewScanner(r)
	initial := 4096
	if initial > limits.MaxMessageBytes {
		initial = limits.MaxMessageBytes
	}
	// bufio.Scanner reports ErrTooLong once a token reaches the buffer
	// size, so leave room for one byte past the limit.
	sc.Buffer(make([]byte, 0, initial), limits.MaxMessageBytes+1)
	switch mode {
	case ModeTrailer:
		sc.Split(splitTrailer(delim))
	default:
		sc.Split(splitLines)
	}
	return &Reader{sc: sc, limit: limits.MaxMessageBytes}
}

// Next returns the next message or io.EOF at a clean end of stream.
func (r *Reader) Next() ([]byte, error) {
	for r.sc.Scan() {
		msg := r.sc.Bytes()
		if len(msg) == 0 {
			continue
		}
		if len(msg) > r.limit {
			return nil, ErrMessageTooLarge
		}
		return msg, nil
	}
	if err := r.sc.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			return nil, ErrMessageTooLarge
		}
		return nil, err
	}
	return nil, io.EOF
}

func splitLines(data []byte, atEOF bool) (int, []byte, error) {
	advance, token, err := bufio.ScanLines(data, atEOF)
	if err != nil || token == nil {
		return advance, token, err
	}
	return advance, bytes.TrimRight(token, "\r"), nil
}

func splitTrailer(delim byte) bufio.SplitFunc {
	marker := []byte{delim, '1', '0', '='}
	return func(data []byte, atEOF bool) (int, []byte, error) {
		if n := leadingSpace(data); n > 0 {
			return n, nil, nil
		}
		if atEOF && len(data) == 0 {
			return 0, nil, nil
		}
		if end, ok := trailerEnd(data, marker, delim); ok {
			return end, data[:end], nil
		}
		if atEOF {
			return 0, nil, ErrTruncated
		}
		return 0, nil, nil
	}
}

// trailerEnd returns the offset just past the delimiter that closes the
// first checksum field in data.
func trailerEnd(data, marker []byte, delim byte) (int, bool) {
	i := bytes.Index(data, marker)
	if i < 0 {
		return 0, false
	}
	valueStart := i + len(marker)
	j := bytes.IndexByte(data[valueStart:], delim)
	if j < 0 {
		return 0, false
	}
	return valueStart + j + 1, true
}

func leadingSpace(data []byte) int {
	n := 0
	for n < len(data) {
		switch data[n] {
		case '\r', '\n', ' ', '\t':
			n++
		default:
			return n
		}
	}
	return n
}
