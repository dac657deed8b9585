package fix

import (
	"bytes"
	"strconv"
	"strings"
)

// DefaultCapacity is the initial field capacity used by ParseIndex.
const DefaultCapacity = 16

// Field locates one value inside a message buffer.
type Field struct {
	Tag   int
	Start int
	End   int
}

// Value returns the zero-copy view of f in msg.
func (f Field) Value(msg []byte) []byte {
	return msg[f.Start:f.End:f.End]
}

// Index stores fields in buffer order as parallel tag/start/end arrays over
// a borrowed message buffer. Values are copied only when requested.
//
// Duplicate tags are all kept. Get, GetString and View resolve a repeated
// tag to its last occurrence; First and GetAll expose the others.
//
// An Index has a single writer while it is populated. Once population is
// done it is safe for concurrent readers.
type Index struct {
	src    []byte
	tags   []int
	starts []int
	ends   []int
	size   int
}

var _ Handler = (*Index)(nil)

func NewIndex(src []byte, capacity int) *Index {
	if capacity < 1 {
		capacity = 1
	}
	return &Index{
		src:    src,
		tags:   make([]int, capacity),
		starts: make([]int, capacity),
		ends:   make([]int, capacity),
	}
}

// ParseIndex parses msg with the SOH delimiter into a new Index.
func ParseIndex(msg []byte) (*Index, error) {
	return DefaultScanner.ParseIndex(msg)
}

// ParseIndex parses msg into a new Index. On error the partial index is
// dropped.
func (s Scanner) ParseIndex(msg []byte) (*Index, error) {
	idx := NewIndex(msg, DefaultCapacity)
	if err := s.Parse(msg, idx); err != nil {
		return nil, err
	}
	return idx, nil
}

func (x *Index) HandleField(tag int, _ []byte, start, end int) {
	x.Put(tag, start, end)
}

// Put appends a field, doubling capacity when full.
func (x *Index) Put(tag, start, end int) {
	if x.size >= len(x.tags) {
		x.grow()
	}
	x.tags[x.size] = tag
	x.starts[x.size] = start
	x.ends[x.size] = end
	x.size++
}

func (x *Index) grow() {
	n := len(x.tags) * 2
	if n == 0 {
		n = 1
	}
	tags := make([]int, n)
	starts := make([]int, n)
	ends := make([]int, n)
	copy(tags, x.tags[:x.size])
	copy(starts, x.starts[:x.size])
	copy(ends, x.ends[:x.size])
	x.tags, x.starts, x.ends = tags, starts, ends
}

func (x *Index) Len() int { return x.size }

func (x *Index) Cap() int { return len(x.tags) }

// Source returns the borrowed message buffer.
func (x *Index) Source() []byte { return x.src }

// Field returns the i-th field in buffer order. It panics if i is out of
// range, like a slice index.
func (x *Index) Field(i int) Field {
	if i < 0 || i >= x.size {
		panic("fix: field index out of range")
	}
	return Field{Tag: x.tags[i], Start: x.starts[i], End: x.ends[i]}
}

// Each calls fn for every field in buffer order until fn returns false.
func (x *Index) Each(fn func(Field) bool) {
	for i := 0; i < x.size; i++ {
		if !fn(Field{Tag: x.tags[i], Start: x.starts[i], End: x.ends[i]}) {
			return
		}
	}
}

func (x *Index) last(tag int) int {
	for i := x.size - 1; i >= 0; i-- {
		if x.tags[i] == tag {
			return i
		}
	}
	return -1
}

func (x *Index) first(tag int) int {
	for i := 0; i < x.size; i++ {
		if x.tags[i] == tag {
			return i
		}
	}
	return -1
}

func (x *Index) copyAt(i int) []byte {
	out := make([]byte, x.ends[i]-x.starts[i])
	copy(out, x.src[x.starts[i]:x.ends[i]])
	return out
}

// Get returns a copy of the last value recorded for tag.
func (x *Index) Get(tag int) ([]byte, bool) {
	i := x.last(tag)
	if i < 0 {
		return nil, false
	}
	return x.copyAt(i), true
}

// GetString is Get decoded as a string.
func (x *Index) GetString(tag int) (string, bool) {
	i := x.last(tag)
	if i < 0 {
		return "", false
	}
	return string(x.src[x.starts[i]:x.ends[i]]), true
}

// View returns the last value for tag without copying. The slice aliases
// the source buffer and has its capacity clipped to the value.
func (x *Index) View(tag int) ([]byte, bool) {
	i := x.last(tag)
	if i < 0 {
		return nil, false
	}
	return x.src[x.starts[i]:x.ends[i]:x.ends[i]], true
}

// First returns a copy of the first value recorded for tag.
func (x *Index) First(tag int) ([]byte, bool) {
	i := x.first(tag)
	if i < 0 {
		return nil, false
	}
	return x.copyAt(i), true
}

// GetAll returns copies of every value recorded for tag, in buffer order.
func (x *Index) GetAll(tag int) [][]byte {
	var out [][]byte
	for i := 0; i < x.size; i++ {
		if x.tags[i] == tag {
			out = append(out, x.copyAt(i))
		}
	}
	return out
}

func (x *Index) Has(tag int) bool {
	return x.last(tag) >= 0
}

// String renders every field as tag=value| in buffer order. It is meant for
// diagnostics and does not reproduce the source delimiter.
func (x *Index) String() string {
	var sb strings.Builder
	for i := 0; i < x.size; i++ {
		sb.WriteString(strconv.Itoa(x.tags[i]))
		sb.WriteByte(equal)
		sb.Write(x.src[x.starts[i]:x.ends[i]])
		sb.WriteByte(Pipe)
	}
	return sb.String()
}

// Bytes renders every field terminated by delim, so the result re-parses
// to the same field sequence with a Scanner using delim.
func (x *Index) Bytes(delim byte) []byte {
	var buf bytes.Buffer
	for i := 0; i < x.size; i++ {
		buf.WriteString(strconv.Itoa(x.tags[i]))
		buf.WriteByte(equal)
		buf.Write(x.src[x.starts[i]:x.ends[i]])
		buf.WriteByte(delim)
	}
	return buf.Bytes()
}
