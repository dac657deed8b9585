package fix

import "math"

const (
	SOH   byte = 0x01
	Pipe  byte = '|'
	equal byte = '='

	// MaxTag bounds tag accumulation; longer digit runs are malformed.
	MaxTag = math.MaxInt32
)

// Handler receives each field as offsets into msg.
type Handler interface {
	HandleField(tag int, msg []byte, start, end int)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(tag int, msg []byte, start, end int)

func (f HandlerFunc) HandleField(tag int, msg []byte, start, end int) {
	f(tag, msg, start, end)
}

// Scanner splits messages on Delimiter. The zero value uses SOH.
type Scanner struct {
	Delimiter byte
}

var (
	DefaultScanner = Scanner{Delimiter: SOH}
	PipeScanner    = Scanner{Delimiter: Pipe}
)

// Parse scans msg with the SOH delimiter.
func Parse(msg []byte, h Handler) error {
	return DefaultScanner.Parse(msg, h)
}

// Parse invokes h once per tag=value pair in msg. It stops at the first
// malformed tag; fields already handed to h are not retracted.
func (s Scanner) Parse(msg []byte, h Handler) error {
	delim := s.delimiter()
	fieldStart := 0
	tag := 0
	readingTag := true

	for i, b := range msg {
		switch {
		case b == equal && readingTag:
			t, ok := parseTag(msg, fieldStart, i)
			if !ok {
				return malformedTag(msg, fieldStart, i)
			}
			tag = t
			fieldStart = i + 1
			readingTag = false
		case b == delim:
			if !readingTag {
				h.HandleField(tag, msg, fieldStart, i)
			}
			fieldStart = i + 1
			readingTag = true
		}
	}

	if !readingTag && fieldStart < len(msg) {
		h.HandleField(tag, msg, fieldStart, len(msg))
	}
	return nil
}

func (s Scanner) delimiter() byte {
	if s.Delimiter == 0 {
		return SOH
	}
	return s.Delimiter
}

// parseTag folds msg[start:end] as a decimal tag.
func parseTag(msg []byte, start, end int) (int, bool) {
	if start >= end {
		return 0, false
	}
	result := 0
	for i := start; i < end; i++ {
		b := msg[i]
		if b < '0' || b > '9' {
			return 0, false
		}
		result = result*10 + int(b-'0')
		if result > MaxTag {
			return 0, false
		}
	}
	return result, true
}
