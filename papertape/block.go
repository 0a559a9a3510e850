package papertape

import (
	"encoding/binary"
	"fmt"
)

// Block describes one block of a tape image.
type Block struct {
	Offset      int
	LoadAddress uint16
	Data        []byte
	Checksum    byte
	End         bool
}

// Blocks lists every block of an image, the end marker included. On a format
// error the blocks read so far are returned with the error.
func Blocks(b []byte) ([]Block, error) {
	var blocks []Block
	r := NewReader(b)
	for r.NextBlock() {
		blocks = append(blocks, Block{
			Offset:      r.off,
			LoadAddress: r.loadAddr,
			Data:        r.data,
			Checksum:    b[r.off+r.blockLen-1],
		})
	}
	if r.sawEnd {
		blocks = append(blocks, Block{
			Offset:      r.endOff,
			LoadAddress: r.loadAddr,
			End:         true,
		})
	}
	return blocks, r.Err()
}

// AppendBlock appends a data block loading data at addr.
func AppendBlock(dst []byte, addr uint16, data []byte) ([]byte, error) {
	if len(data) == 0 {
		return dst, fmt.Errorf("empty data block at %06o", addr)
	}
	if len(data) > MaxDataLen {
		return dst, fmt.Errorf("data block of %d bytes exceeds %d", len(data), MaxDataLen)
	}
	start := len(dst)
	dst = appendHeader(dst, uint16(headerLen+len(data)), addr)
	dst = append(dst, data...)
	var sum byte
	for _, c := range dst[start:] {
		sum += c
	}
	return append(dst, -sum), nil
}

// AppendEnd appends the end marker. An odd start address means "halt".
func AppendEnd(dst []byte, start uint16) []byte {
	return appendHeader(dst, headerLen, start)
}

func appendHeader(dst []byte, length, addr uint16) []byte {
	dst = append(dst, 0x01, 0x00)
	dst = binary.LittleEndian.AppendUint16(dst, length)
	return binary.LittleEndian.AppendUint16(dst, addr)
}

// Encode builds a tape from a raw image loaded at addr, split into blocks of at
// most blockSize data bytes, followed by the end marker.
func Encode(data []byte, addr uint16, start uint16, blockSize int) ([]byte, error) {
	if blockSize <= 0 || blockSize > MaxDataLen {
		return nil, fmt.Errorf("invalid block size %d", blockSize)
	}
	var out []byte
	var err error
	for len(data) > 0 {
		n := blockSize
		if n > len(data) {
			n = len(data)
		}
		if out, err = AppendBlock(out, addr, data[:n]); err != nil {
			return nil, err
		}
		addr += uint16(n)
		data = data[n:]
	}
	return AppendEnd(out, start), nil
}
