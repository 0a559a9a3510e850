package monitor

// MemoryManager is the memory the console monitor examines and deposits to.
type MemoryManager interface {

	// ReadMemoryWord returns the word at the even address addr
	ReadMemoryWord(addr uint16) uint16

	// ReadMemoryByte returns the byte at addr
	ReadMemoryByte(addr uint16) byte

	// WriteMemoryWord writes data to addr, low byte first
	WriteMemoryWord(addr, data uint16)

	// WriteMemoryByte writes data to addr
	WriteMemoryByte(addr uint16, data byte)
}

// Memory is a flat 64 KiB address space without any I/O page.
type Memory struct {
	bytes [64 * 1024]byte
}

// ReadMemoryWord reads a little endian word. addr+1 wraps at the top of memory.
func (m *Memory) ReadMemoryWord(addr uint16) uint16 {
	lowerByte := m.bytes[addr]
	higherByte := m.bytes[addr+1]
	return uint16(higherByte)<<8 | uint16(lowerByte)
}

// ReadMemoryByte returns a single byte.
func (m *Memory) ReadMemoryByte(addr uint16) byte {
	return m.bytes[addr]
}

// WriteMemoryWord stores data low byte first.
func (m *Memory) WriteMemoryWord(addr, data uint16) {
	m.bytes[addr] = byte(data & 0xff)
	m.bytes[addr+1] = byte(data >> 8)
}

// WriteMemoryByte stores a single byte.
func (m *Memory) WriteMemoryByte(addr uint16, data byte) {
	m.bytes[addr] = data
}
