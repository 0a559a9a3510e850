package loader

/*
	Loader programs placed at the top of memory.
	The bootstrap loader reads the absolute loader from the paper tape
	reader; the absolute loader then reads LDA tapes. Both embed the address
	of the reader CSR, which is relocated into the 4K bank the program is
	loaded in.
*/

const (
	minMemSizeKW = 4
	maxMemSizeKW = 28

	// bankMask selects the 4K bank part of a 16 bit address
	bankMask = 0170000
)

// Program is a fixed machine code table.
type Program struct {
	Name string

	code []uint16
	// index of the word relocated with the load address bank
	relocWord int
	// offset of the entry point from the load address
	startOffset uint16
}

// See https://gunkies.org/wiki/PDP-11_Bootstrap_Loader
var bootstrapCode = [...]uint16{
	0016701, 0000026, /* MOV 26(PC), R1        ; reader CSR */
	0012702, 0000352, /* MOV #352, R2          ; tape offset */
	0005211,          /* INC (R1)              ; reader enable */
	0105711,          /* TSTB (R1) */
	0100376,          /* BPL .-2 */
	0116162, 0000002, /* MOVB 2(R1), 7400(R2) */
	0007400,          /* relocated by load address */
	0005267, 0177756, /* INC 177756(PC) */
	0000765,          /* BR loop */
	0177560,          /* reader CSR, console by default */
}

// See https://gunkies.org/wiki/PDP-11_Absolute_Loader
var absoluteCode = [...]uint16{
	// absolute loader
	0000000, /* HALT */
	0010706, /* start */
	0024646, 0010705, 0062705, 0000112, 0005001, 0013716, 0177570, 0006016,
	0103402, 0005016, 0000403, 0006316, 0001001, 0010116, 0005000, 0004715,
	0105303, 0001374, 0004715, 0004767, 0000074, 0010402, 0162702, 0000004,
	0022702, 0000002, 0001441, 0004767, 0000054, 0061604, 0010401, 0004715,
	0002004, 0105700, 0001753, 0000000, 0000751, 0110321, 0000770, 0016703,
	0000152, 0105213, 0105713, 0100376, 0116303, 0000002, 0060300, 0042703,
	0177400, 0005302, 0000207, 0012667, 0000046, 0004715, 0010304, 0004715,
	0000303, 0050304, 0016707, 0000030, 0004767, 0177752, 0004715, 0105700,
	0001342, 0006204, 0103002, 0000000, 0000700, 0006304, 0061604, 0000114,
	0000000, 0012767, 0000352, 0000020, 0012767, 0000765, 0000034, 0000167,
	0177532,

	// bootstrap loader
	0016701, 0000026, 0012702, 0000352, 0005211, 0105711, 0100376, 0116162,
	0000002,
	0007400, /* relocated by load address */
	0005267, 0177756, 0000765,
	0177560, /* reader CSR */
}

var (
	// BootstrapLoader is the DEC bootstrap loader; it starts at its first word.
	BootstrapLoader = &Program{
		Name:      "Bootstrap Loader",
		code:      bootstrapCode[:],
		relocWord: 9,
	}

	// AbsoluteLoader is the DEC absolute loader followed by the bootstrap
	// loader; it starts after its leading HALT.
	AbsoluteLoader = &Program{
		Name:        "Absolute Loader",
		code:        absoluteCode[:],
		relocWord:   92,
		startOffset: 2,
	}
)

// Size returns the size of the program in bytes.
func (p *Program) Size() int {
	return 2 * len(p.code)
}

// MemSizeToLoadAddr places the program at the top of a memory of memSizeKW
// kilowords, clamped to 4..28.
func (p *Program) MemSizeToLoadAddr(memSizeKW uint32) uint16 {
	if memSizeKW < minMemSizeKW {
		memSizeKW = minMemSizeKW
	} else if memSizeKW > maxMemSizeKW {
		memSizeKW = maxMemSizeKW
	}
	return uint16(memSizeKW*2048) - uint16(p.Size())
}

// Word returns word i of the program relocated for loadAddr.
func (p *Program) Word(i int, loadAddr uint16) uint16 {
	w := p.code[i]
	if i == p.relocWord {
		w |= loadAddr & bankMask
	}
	return w
}

// NewSource returns a source depositing the program at loadAddr.
func (p *Program) NewSource(loadAddr uint16) *ProgramSource {
	return &ProgramSource{program: p, loadAddr: loadAddr}
}

// ProgramSource deposits a Program.
type ProgramSource struct {
	program  *Program
	loadAddr uint16
	cur      int
}

// NextWord returns the current word of the program.
func (s *ProgramSource) NextWord() (Word, bool) {
	if s.Exhausted() {
		return Word{}, false
	}
	return Word{
		Address: s.loadAddr + uint16(2*s.cur),
		Data:    s.program.Word(s.cur, s.loadAddr),
	}, true
}

// Advance moves to the next word.
func (s *ProgramSource) Advance() {
	if !s.Exhausted() {
		s.cur++
	}
}

// Exhausted reports whether every word has been produced.
func (s *ProgramSource) Exhausted() bool {
	return s.cur >= len(s.program.code)
}

// StartAddress returns the entry point of the program.
func (s *ProgramSource) StartAddress() (uint16, bool) {
	return s.loadAddr + s.program.startOffset, true
}
