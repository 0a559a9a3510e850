package main

import (
	"fmt"
	"io"
	"pdpcon/disasm"
	"pdpcon/monitor"
	"pdpcon/papertape"
	"strings"
)

// dumpBlocks lists tape blocks with their data in rows of 16 bytes.
func dumpBlocks(w io.Writer, blocks []papertape.Block) {
	for i, b := range blocks {
		fmt.Fprintf(w, "Block %d: (offset 0x%04X)\n", i, b.Offset)
		if b.End {
			mode := "run"
			if b.LoadAddress&1 != 0 {
				mode = "halt"
			}
			fmt.Fprintf(w, "  Start Address: %06o (%s)\n\n", b.LoadAddress, mode)
			continue
		}

		fmt.Fprintf(w, "  Load Address: %06o\n", b.LoadAddress)
		fmt.Fprintf(w, "  Data: (%d/0x%X bytes)\n", len(b.Data), len(b.Data))
		if len(b.Data) == 0 {
			fmt.Fprintln(w, "    <empty>")
		}
		for off := 0; off < len(b.Data); off += 16 {
			row := b.Data[off:min(off+16, len(b.Data))]
			hex := make([]string, len(row))
			for j, c := range row {
				hex[j] = fmt.Sprintf("%02X", c)
			}
			fmt.Fprintf(w, "    +%04X: %s\n", off, strings.Join(hex, " "))
		}
		fmt.Fprintf(w, "  Checksum: 0x%02X\n\n", b.Checksum)
	}
}

// disasmBlocks lists the code of every data block at its load address.
func disasmBlocks(w io.Writer, blocks []papertape.Block) {
	for i, b := range blocks {
		if b.End {
			continue
		}
		var mem monitor.Memory
		for j, c := range b.Data {
			mem.WriteMemoryByte(b.LoadAddress+uint16(j), c)
		}
		fmt.Fprintf(w, "Block %d:\n", i)
		end := uint32(b.LoadAddress) + uint32(len(b.Data))
		if end > 0177777 {
			end = 0177777
		}
		_ = disasm.Listing(w, &mem, b.LoadAddress, uint16(end))
		fmt.Fprintln(w)
	}
}
