// Package filestore supplies the memory images offered for loading.
package filestore

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
)

// ErrNotFound is returned when a provider has no image of the given name.
var ErrNotFound = errors.New("image not found")

// Image is a named file image.
type Image struct {
	Name string
	Data []byte
}

// Provider lists images and hands them out by name.
type Provider interface {
	List() ([]string, error)
	Get(name string) (Image, error)
}

// Dir provides the regular files of a directory.
type Dir struct {
	fsys fs.FS
}

// NewDir returns a provider for the files in root.
func NewDir(root string) *Dir {
	return &Dir{fsys: os.DirFS(root)}
}

// List returns the names of the regular files, sorted.
func (d *Dir) List() ([]string, error) {
	entries, err := fs.ReadDir(d.fsys, ".")
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// Get reads a file of the directory. Paths leading out of it are refused.
func (d *Dir) Get(name string) (Image, error) {
	if !fs.ValidPath(name) {
		return Image{}, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	data, err := fs.ReadFile(d.fsys, name)
	if errors.Is(err, fs.ErrNotExist) {
		return Image{}, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	if err != nil {
		return Image{}, err
	}
	return Image{Name: name, Data: data}, nil
}

// XMODEMPad is the filler XMODEM appends to the last packet of a transfer.
const XMODEMPad = 0x1A

// TrimXMODEMPadding drops trailing XMODEM filler bytes.
func TrimXMODEMPadding(data []byte) []byte {
	n := len(data)
	for n > 0 && data[n-1] == XMODEMPad {
		n--
	}
	return data[:n]
}
