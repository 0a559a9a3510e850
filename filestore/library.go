package filestore

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"os"
	"path/filepath"
)

/*
	A file library is a flat image holding several files:

	    checksum u32 | length u32 | name [32]byte | data [length]byte | pad

	All integers are little endian. The checksum is the CRC-32 (IEEE) of
	length, name and data. Names are NUL padded. Each header starts on a
	4 byte boundary. A header of zeros, or any invalid header, ends the
	library.
*/

const (
	MaxNameLen  = 32
	MaxFileSize = 128 * 1024
	MaxFiles    = 36

	headerSize      = 4 + 4 + MaxNameLen
	headerAlignment = 4
)

// ErrTooLarge is returned when a file does not fit a library entry.
var ErrTooLarge = errors.New("file too large")

// Library is a parsed file library image.
type Library struct {
	images []Image
}

// OpenLibrary reads and parses the library image at path.
func OpenLibrary(path string) (*Library, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseLibrary(b), nil
}

// ParseLibrary indexes the valid files at the start of b.
func ParseLibrary(b []byte) *Library {
	lib := &Library{}
	off := 0
	for len(lib.images) < MaxFiles {
		img, next, ok := parseEntry(b, off)
		if !ok {
			break
		}
		lib.images = append(lib.images, img)
		off = next
	}
	return lib
}

func parseEntry(b []byte, off int) (Image, int, bool) {
	if off+headerSize > len(b) {
		return Image{}, 0, false
	}
	h := b[off : off+headerSize]
	checksum := binary.LittleEndian.Uint32(h[0:4])
	length := binary.LittleEndian.Uint32(h[4:8])
	if length == 0 || uint64(off)+headerSize+uint64(length) > uint64(len(b)) {
		return Image{}, 0, false
	}

	end := off + headerSize + int(length)
	if crc32.ChecksumIEEE(b[off+4:end]) != checksum {
		return Image{}, 0, false
	}

	name := h[8:]
	if i := bytes.IndexByte(name, 0); i >= 0 {
		name = name[:i]
	}
	next := (end + headerAlignment - 1) / headerAlignment * headerAlignment
	return Image{Name: string(name), Data: b[off+headerSize : end]}, next, true
}

// Images returns the files in library order.
func (l *Library) Images() []Image { return l.images }

// List returns the file names in library order.
func (l *Library) List() ([]string, error) {
	names := make([]string, len(l.images))
	for i, img := range l.images {
		names[i] = img.Name
	}
	return names, nil
}

// Get returns the first file called name.
func (l *Library) Get(name string) (Image, error) {
	for _, img := range l.images {
		if img.Name == name {
			return img, nil
		}
	}
	return Image{}, fmt.Errorf("%w: %q", ErrNotFound, name)
}

// BuildLibrary lays out images as a library, terminated by an empty header.
// Names are cut to MaxNameLen bytes.
func BuildLibrary(images []Image) ([]byte, error) {
	if len(images) > MaxFiles {
		return nil, fmt.Errorf("%d files, a library holds %d", len(images), MaxFiles)
	}
	var out []byte
	for _, img := range images {
		if len(img.Data) == 0 {
			return nil, fmt.Errorf("%s: empty file", img.Name)
		}
		if len(img.Data) > MaxFileSize {
			return nil, fmt.Errorf("%s: %w (%d bytes, max %d)", img.Name, ErrTooLarge, len(img.Data), MaxFileSize)
		}

		var h [headerSize]byte
		binary.LittleEndian.PutUint32(h[4:8], uint32(len(img.Data)))
		copy(h[8:], filepath.Base(img.Name))

		crc := crc32.Update(crc32.ChecksumIEEE(h[4:]), crc32.IEEETable, img.Data)
		binary.LittleEndian.PutUint32(h[0:4], crc)

		out = append(out, h[:]...)
		out = append(out, img.Data...)
		for len(out)%headerAlignment != 0 {
			out = append(out, 0)
		}
	}
	return append(out, make([]byte, headerSize)...), nil
}
