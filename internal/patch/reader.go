package patch

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

var (
	// ErrTruncated is the condition every structural read failure wraps.
	ErrTruncated = errors.New("truncated input")

	ErrUnexpectedEOF             = fmt.Errorf("%w: unexpected end of data", ErrTruncated)
	ErrTruncatedInstructionBlock = fmt.Errorf("%w: incomplete instruction block", ErrTruncated)
	ErrVarintOverflow            = fmt.Errorf("%w: string length does not fit in 64 bits", ErrTruncated)
)

const slotSize = 8

// Reader is a forward-only cursor over an immutable byte buffer.
type Reader struct {
	data []byte
	pos  int
}

// NewReader creates a reader positioned at the start of data.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// Offset returns the current read position.
func (r *Reader) Offset() int { return r.pos }

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int { return len(r.data) - r.pos }

func (r *Reader) take(n int) ([]byte, error) {
	if n < 0 || n > r.Remaining() {
		return nil, ErrUnexpectedEOF
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

// ReadByte reads a single byte.
func (r *Reader) ReadByte() (byte, error) {
	if r.pos >= len(r.data) {
		return 0, ErrUnexpectedEOF
	}
	b := r.data[r.pos]
	r.pos++
	return b, nil
}

// ReadBool reads one byte; any non-zero value is true.
func (r *Reader) ReadBool() (bool, error) {
	b, err := r.ReadByte()
	return b != 0, err
}

// ReadInt32 reads a little-endian int32.
func (r *Reader) ReadInt32() (int32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return int32(binary.LittleEndian.Uint32(b)), nil
}

// ReadUint64 reads a little-endian uint64.
func (r *Reader) ReadUint64() (uint64, error) {
	b, err := r.take(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// ReadInstructionSlots reads n consecutive (code, operand) pairs as one
// block. A non-positive n reads nothing.
func (r *Reader) ReadInstructionSlots(n int) ([]Slot, error) {
	if n <= 0 {
		return nil, nil
	}
	if n > r.Remaining()/slotSize {
		return nil, ErrTruncatedInstructionBlock
	}
	b, _ := r.take(n * slotSize)
	slots := make([]Slot, n)
	for i := range slots {
		off := i * slotSize
		slots[i] = Slot{
			Code:    int32(binary.LittleEndian.Uint32(b[off:])),
			Operand: int32(binary.LittleEndian.Uint32(b[off+4:])),
		}
	}
	return slots, nil
}

// readLength decodes an unsigned base-128 varint, least significant
// group first.
func (r *Reader) readLength() (uint64, error) {
	var n uint64
	var shift uint
	for {
		b, err := r.ReadByte()
		if err != nil {
			return 0, err
		}
		if shift >= 64 {
			return 0, ErrVarintOverflow
		}
		n |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			return n, nil
		}
		shift += 7
	}
}

// ReadString reads a varint length-prefixed UTF-8 string. Invalid byte
// sequences decode to U+FFFD instead of failing.
func (r *Reader) ReadString() (string, error) {
	n, err := r.readLength()
	if err != nil {
		return "", err
	}
	if n == 0 {
		return "", nil
	}
	if n > uint64(r.Remaining()) {
		return "", ErrUnexpectedEOF
	}
	b, _ := r.take(int(n))
	return decodeLenient(b), nil
}

func decodeLenient(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	var sb strings.Builder
	sb.Grow(len(b))
	for len(b) > 0 {
		c, size := utf8.DecodeRune(b)
		sb.WriteRune(c) // RuneError for each invalid byte
		b = b[size:]
	}
	return sb.String()
}
