package core

// streaming.go holds the reader wrappers Parse stacks in front of the
// delimited-text decoder:
//
//   - skipBOM: drops a leading UTF-8 BOM (0xEF 0xBB 0xBF)
//   - utf8Validator: fails the read on the first invalid UTF-8 sequence
//   - CountingReader: tracks bytes consumed for logging

import (
	"bufio"
	"fmt"
	"io"
	"unicode/utf8"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// skipBOM discards a leading BOM from br. A short or partial prefix is left alone.
func skipBOM(br *bufio.Reader) error {
	head, err := br.Peek(len(utf8BOM))
	if err != nil && err != io.EOF {
		return err
	}
	if len(head) == len(utf8BOM) && head[0] == utf8BOM[0] && head[1] == utf8BOM[1] && head[2] == utf8BOM[2] {
		_, err = br.Discard(len(utf8BOM))
		return err
	}
	return nil
}

// utf8Validator passes bytes through unchanged and returns an error wrapping
// ErrInvalidEncoding as soon as an invalid sequence is seen. Input is read in
// chunks into an internal buffer; a multi-byte sequence split across chunks
// is held back until the next chunk completes it. Callers may read with a
// buffer of any size.
type utf8Validator struct {
	reader  io.Reader
	buf     []byte
	pending []byte
	ready   []byte
	offset  int64
	err     error
}

const validatorChunk = 32 * 1024

func newUTF8Validator(r io.Reader) *utf8Validator {
	return &utf8Validator{
		reader:  r,
		buf:     make([]byte, validatorChunk+utf8.UTFMax),
		pending: make([]byte, 0, utf8.UTFMax),
	}
}

func (v *utf8Validator) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	for len(v.ready) == 0 {
		if v.err != nil {
			return 0, v.err
		}
		v.fill()
	}
	n := copy(p, v.ready)
	v.ready = v.ready[n:]
	return n, nil
}

// fill reads the next chunk, validates it and exposes the complete part as
// ready. ready is only refilled once drained, so buf can be reused.
func (v *utf8Validator) fill() {
	carried := copy(v.buf, v.pending)
	n, err := v.reader.Read(v.buf[carried:validatorChunk+carried])
	data := v.buf[:carried+n]

	keep := len(data)
	if err != io.EOF {
		keep -= incompleteTrailingBytes(data)
	}

	if pos := invalidUTF8Index(data[:keep]); pos >= 0 {
		v.err = fmt.Errorf("%w (byte offset %d)", ErrInvalidEncoding, v.offset+int64(pos))
		return
	}

	v.pending = append(v.pending[:0], data[keep:]...)
	v.ready = data[:keep]
	v.offset += int64(keep)
	if err != nil {
		v.err = err
	}
}

// invalidUTF8Index returns the offset of the first invalid sequence, or -1.
func invalidUTF8Index(data []byte) int {
	if isAllASCII(data) || utf8.Valid(data) {
		return -1
	}
	for i := 0; i < len(data); {
		r, size := utf8.DecodeRune(data[i:])
		if r == utf8.RuneError && size == 1 {
			return i
		}
		i += size
	}
	return -1
}

func isAllASCII(data []byte) bool {
	for _, b := range data {
		if b >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

// incompleteTrailingBytes returns how many bytes at the end of data start a
// multi-byte sequence that is not yet complete.
func incompleteTrailingBytes(data []byte) int {
	for i := 1; i <= utf8.UTFMax-1 && i <= len(data); i++ {
		b := data[len(data)-i]
		if b >= 0xC0 {
			if i < runeLen(b) {
				return i
			}
			return 0
		}
		if b&0xC0 != 0x80 {
			return 0
		}
	}
	return 0
}

// runeLen returns the sequence length announced by a UTF-8 lead byte.
func runeLen(b byte) int {
	switch {
	case b < 0x80:
		return 1
	case b < 0xC0:
		return 0
	case b < 0xE0:
		return 2
	case b < 0xF0:
		return 3
	default:
		return 4
	}
}

// CountingReader tracks bytes read through it.
type CountingReader struct {
	reader    io.Reader
	BytesRead int64
}

func NewCountingReader(r io.Reader) *CountingReader {
	return &CountingReader{reader: r}
}

func (r *CountingReader) Read(p []byte) (int, error) {
	n, err := r.reader.Read(p)
	r.BytesRead += int64(n)
	return n, err
}
