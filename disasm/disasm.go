// Package disasm turns PDP-11 machine code back into mnemonics, for checking
// what went into memory.
package disasm

import (
	"fmt"
	"io"
	"strings"
)

// Memory supplies an instruction and the operand words following it.
type Memory interface {
	ReadMemoryWord(addr uint16) uint16
}

var registers = [...]string{"R0", "R1", "R2", "R3", "R4", "R5", "SP", "PC"}

// operand layouts
const (
	flagD = 1 << iota
	flagS
	flagO
	flagR
	flagNone
)

var opcodes = []struct {
	mask, code uint16
	name       string
	flag       uint
	b          bool
}{
	{0177777, 0000000, "HALT", 0, false},
	{0177777, 0000240, "NOP", 0, false},
	{0077700, 0005000, "CLR", flagD, true},
	{0077700, 0005100, "COM", flagD, true},
	{0077700, 0005200, "INC", flagD, true},
	{0077700, 0005300, "DEC", flagD, true},
	{0077700, 0005400, "NEG", flagD, true},
	{0077700, 0005700, "TST", flagD, true},
	{0077700, 0006200, "ASR", flagD, true},
	{0077700, 0006300, "ASL", flagD, true},
	{0077700, 0006000, "ROR", flagD, true},
	{0077700, 0006100, "ROL", flagD, true},
	{0177700, 0000300, "SWAB", flagD, false},
	{0077700, 0005500, "ADC", flagD, true},
	{0077700, 0005600, "SBC", flagD, true},
	{0177700, 0006700, "SXT", flagD, false},
	{0070000, 0010000, "MOV", flagS | flagD, true},
	{0070000, 0020000, "CMP", flagS | flagD, true},
	{0170000, 0060000, "ADD", flagS | flagD, false},
	{0170000, 0160000, "SUB", flagS | flagD, false},
	{0070000, 0030000, "BIT", flagS | flagD, true},
	{0070000, 0040000, "BIC", flagS | flagD, true},
	{0070000, 0050000, "BIS", flagS | flagD, true},
	{0177000, 0070000, "MUL", flagR | flagD, false},
	{0177000, 0071000, "DIV", flagR | flagD, false},
	{0177000, 0072000, "ASH", flagR | flagD, false},
	{0177000, 0073000, "ASHC", flagR | flagD, false},
	{0177400, 0000400, "BR", flagO, false},
	{0177400, 0001000, "BNE", flagO, false},
	{0177400, 0001400, "BEQ", flagO, false},
	{0177400, 0100000, "BPL", flagO, false},
	{0177400, 0100400, "BMI", flagO, false},
	{0177400, 0101000, "BHI", flagO, false},
	{0177400, 0101400, "BLOS", flagO, false},
	{0177400, 0102000, "BVC", flagO, false},
	{0177400, 0102400, "BVS", flagO, false},
	{0177400, 0103000, "BCC", flagO, false},
	{0177400, 0103400, "BCS", flagO, false},
	{0177400, 0002000, "BGE", flagO, false},
	{0177400, 0002400, "BLT", flagO, false},
	{0177400, 0003000, "BGT", flagO, false},
	{0177400, 0003400, "BLE", flagO, false},
	{0177700, 0000100, "JMP", flagD, false},
	{0177000, 0004000, "JSR", flagR | flagD, false},
	{0177770, 0000200, "RTS", flagR, false},
	{0177777, 0006400, "MARK", 0, false},
	{0177000, 0077000, "SOB", flagR | flagO, false},
	{0177777, 0000005, "RESET", 0, false},
	{0177700, 0006500, "MFPI", flagD, false},
	{0177700, 0006600, "MTPI", flagD, false},
	{0177777, 0000001, "WAIT", 0, false},
	{0177777, 0000002, "RTI", 0, false},
	{0177777, 0000006, "RTT", 0, false},
	{0177400, 0104000, "EMT", flagNone, false},
	{0177400, 0104400, "TRAP", flagNone, false},
	{0177777, 0000003, "BPT", 0, false},
	{0177777, 0000004, "IOT", 0, false},
	{0170000, 0170000, "FP", 0, false},
}

// decoder reads an instruction stream. pc is the address of the next
// unread word, as the processor would see it.
type decoder struct {
	mem Memory
	pc  uint16
}

func (d *decoder) next() uint16 {
	w := d.mem.ReadMemoryWord(d.pc)
	d.pc += 2
	return w
}

// operand renders a six bit mode and register field.
func (d *decoder) operand(m uint16) string {
	if m&7 == 7 {
		switch m {
		case 027:
			return fmt.Sprintf("$%06o", d.next())
		case 037:
			return fmt.Sprintf("*$%06o", d.next())
		case 067:
			off := d.next()
			return fmt.Sprintf("%06o", d.pc+off)
		case 077:
			off := d.next()
			return fmt.Sprintf("*%06o", d.pc+off)
		}
	}

	r := registers[m&7]
	switch m & 070 {
	case 000:
		return r
	case 010:
		return "(" + r + ")"
	case 020:
		return "(" + r + ")+"
	case 030:
		return "*(" + r + ")+"
	case 040:
		return "-(" + r + ")"
	case 050:
		return "*-(" + r + ")"
	case 060:
		return fmt.Sprintf("%06o(%s)", d.next(), r)
	default:
		return fmt.Sprintf("*%06o(%s)", d.next(), r)
	}
}

// Instruction disassembles the instruction at addr. It returns the text and
// the number of words the instruction occupies. Words that decode to no
// instruction are shown as data.
func Instruction(mem Memory, addr uint16) (string, int) {
	d := &decoder{mem: mem, pc: addr}
	ins := d.next()

	i := 0
	for ; i < len(opcodes); i++ {
		if ins&opcodes[i].mask == opcodes[i].code {
			break
		}
	}
	if i == len(opcodes) {
		return fmt.Sprintf(".WORD %06o", ins), 1
	}
	op := opcodes[i]

	msg := op.name
	if op.b && ins&0100000 != 0 {
		msg += "B"
	}
	source := (ins & 07700) >> 6
	destination := ins & 077
	switch op.flag {
	case flagS | flagD:
		msg += " " + d.operand(source) + ","
		msg += " " + d.operand(destination)
	case flagD:
		msg += " " + d.operand(destination)
	case flagR | flagD:
		msg += " " + registers[(ins&0700)>>6] + ", " + d.operand(destination)
	case flagR:
		msg += " " + registers[ins&7]
	case flagO:
		off := int8(ins & 0377)
		msg += fmt.Sprintf(" %06o", addr+2+uint16(2*int16(off)))
	case flagR | flagO:
		msg += fmt.Sprintf(" %s, %06o", registers[(ins&0700)>>6], addr+2-2*(ins&077))
	case flagNone:
		msg += fmt.Sprintf(" %03o", ins&0377)
	}
	return msg, int(d.pc-addr) / 2
}

// Listing writes the instructions between from and to, one per line, with
// the address and the words each one occupies.
func Listing(w io.Writer, mem Memory, from, to uint16) error {
	addr := uint32(from &^ 1)
	for addr < uint32(to) {
		text, n := Instruction(mem, uint16(addr))
		words := make([]string, 3)
		for i := range words {
			words[i] = strings.Repeat(" ", 6)
			if i < n {
				words[i] = fmt.Sprintf("%06o", mem.ReadMemoryWord(uint16(addr)+uint16(2*i)))
			}
		}
		if _, err := fmt.Fprintf(w, "%06o  %s  %s\n", addr, strings.Join(words, " "), text); err != nil {
			return err
		}
		addr += uint32(2 * n)
	}
	return nil
}
