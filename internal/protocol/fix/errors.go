package fix

import (
	"errors"
	"fmt"
)

var ErrMalformedTag = errors.New("fix: malformed tag")

// MalformedTagError reports the tag run that failed digit validation.
type MalformedTagError struct {
	Offset int
	Tag    []byte
}

func (e *MalformedTagError) Error() string {
	if len(e.Tag) == 0 {
		return fmt.Sprintf("fix: malformed tag at offset %d: empty tag", e.Offset)
	}
	return fmt.Sprintf("fix: malformed tag at offset %d: %q", e.Offset, e.Tag)
}

func (e *MalformedTagError) Unwrap() error {
	return ErrMalformedTag
}

func malformedTag(msg []byte, start, end int) error {
	tag := make([]byte, end-start)
	copy(tag, msg[start:end])
	return &MalformedTagError{Offset: start, Tag: tag}
}
