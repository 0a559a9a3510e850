// Package loader supplies the words to be deposited into PDP-11 memory.
//
// A Source is a pull-based sequence: NextWord returns the same word until
// Advance is called, Exhausted reports when no words remain and StartAddress
// gives the entry point of the image, if it has one.
package loader

import "pdpcon/papertape"

// Word is one 16 bit word and the address it belongs at.
type Word struct {
	Address uint16
	Data    uint16
}

// Source produces the words of a memory image.
type Source interface {
	NextWord() (Word, bool)
	Advance()
	Exhausted() bool
	StartAddress() (uint16, bool)
}

// Kind names the format an image was recognised as.
type Kind int

// image formats
const (
	KindBinary Kind = iota
	KindLDA
	KindProgram
)

func (k Kind) String() string {
	switch k {
	case KindBinary:
		return "binary"
	case KindLDA:
		return "LDA"
	case KindProgram:
		return "program"
	}
	return "unknown"
}

// ForImage picks the source for a file image. Valid LDA tapes are loaded at
// the addresses they carry. Anything else is raw binary loaded at loadAddr.
func ForImage(data []byte, loadAddr uint16) (Source, Kind) {
	if papertape.IsValidFile(data) {
		return NewLDASource(data), KindLDA
	}
	return NewBinarySource(data, loadAddr), KindBinary
}

// KindOf returns the format behind src.
func KindOf(src Source) Kind {
	switch src.(type) {
	case *LDASource:
		return KindLDA
	case *ProgramSource:
		return KindProgram
	}
	return KindBinary
}

// littleEndianWord pairs b[0] and b[1], zero extending a lone byte.
func littleEndianWord(b []byte) uint16 {
	w := uint16(b[0])
	if len(b) > 1 {
		w |= uint16(b[1]) << 8
	}
	return w
}
