package loader

import "pdpcon/papertape"

// LDASource loads the data blocks of an LDA tape image.
type LDASource struct {
	reader   *papertape.Reader
	override uint16
	relocate bool
}

// NewLDASource returns a source positioned at the first data block.
func NewLDASource(data []byte) *LDASource {
	s := &LDASource{reader: papertape.NewReader(data)}
	s.reader.NextBlock()
	return s
}

// SetOverrideLoadAddress loads the image contiguously from addr, ignoring
// the block addresses.
func (s *LDASource) SetOverrideLoadAddress(addr uint16) {
	s.override = addr
	s.relocate = true
}

// NextWord returns the next word of the current block.
func (s *LDASource) NextWord() (Word, bool) {
	if s.Exhausted() {
		return Word{}, false
	}
	w := Word{
		Address: s.reader.LoadAddress(),
		Data:    littleEndianWord(s.reader.Data()),
	}
	if s.relocate {
		w.Address = s.override
	}
	return w, true
}

// Advance moves past the current word, loading the next block when the
// current one is used up.
func (s *LDASource) Advance() {
	if s.Exhausted() {
		return
	}
	s.reader.Skip(2)
	if len(s.reader.Data()) == 0 {
		s.reader.NextBlock()
	}
	if s.relocate {
		s.override += 2
	}
}

// Exhausted reports whether all blocks have been consumed or the tape failed.
func (s *LDASource) Exhausted() bool {
	return s.reader.Failed() || len(s.reader.Data()) == 0
}

// StartAddress returns the start address from the end marker. It is only
// known once the last block has been read.
func (s *LDASource) StartAddress() (uint16, bool) {
	return s.reader.StartAddress()
}

// Err returns the format error hit while loading, if any.
func (s *LDASource) Err() error {
	return s.reader.Err()
}
