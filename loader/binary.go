package loader

// BinarySource loads a raw image at a fixed address.
type BinarySource struct {
	data     []byte
	loadAddr uint16
	off      int
}

// NewBinarySource returns a source depositing data starting at loadAddr.
func NewBinarySource(data []byte, loadAddr uint16) *BinarySource {
	return &BinarySource{data: data, loadAddr: loadAddr}
}

// NextWord returns the word at the current offset.
func (s *BinarySource) NextWord() (Word, bool) {
	if s.Exhausted() {
		return Word{}, false
	}
	return Word{
		Address: s.loadAddr + uint16(s.off),
		Data:    littleEndianWord(s.data[s.off:]),
	}, true
}

// Advance moves to the next byte pair.
func (s *BinarySource) Advance() {
	if !s.Exhausted() {
		s.off += 2
	}
}

// Exhausted reports whether the image has been consumed.
func (s *BinarySource) Exhausted() bool {
	return s.off >= len(s.data)
}

// StartAddress is never known for a raw image.
func (s *BinarySource) StartAddress() (uint16, bool) {
	return 0, false
}
