// Package papertape reads and writes DEC absolute loader ("LDA") paper tape
// images.
//
// A tape is a sequence of blocks, optionally separated by runs of zero bytes
// (leader / trailer):
//
//	01 00 lenLo lenHi addrLo addrHi data... checksum
//
// len counts the six header bytes plus the data, not the checksum. All bytes
// of a block including the checksum sum to zero modulo 256. A block with
// len == 6 ends the tape; its address is the start address when even.
package papertape

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	headerLen = 6

	// MaxDataLen is the largest payload a single block can carry.
	MaxDataLen = 0xFFFF - headerLen
)

// ErrFormat marks a malformed block or a checksum mismatch.
var ErrFormat = errors.New("invalid LDA image")

// Reader walks the blocks of an in-memory LDA image. Once a block fails to
// parse the reader stays failed.
type Reader struct {
	buf      []byte
	off      int // start of the current block
	blockLen int // current block length including the checksum

	data     []byte // unread data of the current block
	loadAddr uint16

	startAddr uint16
	hasStart  bool
	endOff    int
	sawEnd    bool

	err error
}

// NewReader returns a reader positioned before the first block.
func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf, endOff: -1}
}

// NextBlock advances to the next data block. It returns false at the end
// marker, at the end of input or on a format error.
func (r *Reader) NextBlock() bool {
	r.data = nil
	if r.err != nil {
		return false
	}

	// skip the current block and any leader
	r.off += r.blockLen
	r.blockLen = 0
	for r.off < len(r.buf) && r.buf[r.off] == 0 {
		r.off++
	}

	remaining := len(r.buf) - r.off
	if remaining == 0 {
		return false
	}
	if remaining < headerLen {
		return r.fail("truncated block header at offset %d", r.off)
	}

	b := r.buf[r.off:]
	if b[0] != 0x01 || b[1] != 0x00 {
		return r.fail("no block marker at offset %d", r.off)
	}

	length := int(binary.LittleEndian.Uint16(b[2:4]))
	if length < headerLen {
		return r.fail("block length %d at offset %d", length, r.off)
	}
	r.loadAddr = binary.LittleEndian.Uint16(b[4:6])

	if length == headerLen {
		if r.loadAddr&1 == 0 {
			r.startAddr = r.loadAddr
			r.hasStart = true
		}
		r.sawEnd = true
		r.endOff = r.off
		r.off = len(r.buf)
		return false
	}

	length++ // checksum
	if length > remaining {
		return r.fail("block at offset %d needs %d bytes, %d left", r.off, length, remaining)
	}

	var sum byte
	for _, c := range b[:length] {
		sum += c
	}
	if sum != 0 {
		return r.fail("checksum mismatch in block at offset %d", r.off)
	}

	r.blockLen = length
	r.data = b[headerLen : length-1]
	return true
}

func (r *Reader) fail(format string, args ...interface{}) bool {
	r.err = fmt.Errorf("%w: %s", ErrFormat, fmt.Sprintf(format, args...))
	r.data = nil
	return false
}

// Data returns the unread data of the current block.
func (r *Reader) Data() []byte { return r.data }

// LoadAddress returns the address of the first unread data byte.
func (r *Reader) LoadAddress() uint16 { return r.loadAddr }

// Skip consumes up to n bytes of block data, moving the load address along.
func (r *Reader) Skip(n int) {
	if n > len(r.data) {
		n = len(r.data)
	}
	r.data = r.data[n:]
	r.loadAddr += uint16(n)
}

// StartAddress returns the start address carried by the end marker, if any.
func (r *Reader) StartAddress() (uint16, bool) { return r.startAddr, r.hasStart }

// AtEnd reports whether the whole input has been consumed.
func (r *Reader) AtEnd() bool { return r.off >= len(r.buf) }

// Failed reports whether a format error was hit.
func (r *Reader) Failed() bool { return r.err != nil }

// Err returns the format error, wrapping ErrFormat, or nil.
func (r *Reader) Err() error { return r.err }

// IsValidFile reports whether b parses as an LDA image holding at least
// one data block.
func IsValidFile(b []byte) bool {
	r := NewReader(b)
	blocks := 0
	for r.NextBlock() {
		blocks++
	}
	return r.AtEnd() && !r.Failed() && blocks > 0
}
