package loader

import (
	"pdpcon/papertape"
	"testing"
)

// drain collects every word a source produces, checking that NextWord is
// stable until Advance is called.
func drain(t *testing.T, s Source) []Word {
	t.Helper()
	var words []Word
	for !s.Exhausted() {
		w, ok := s.NextWord()
		if !ok {
			t.Fatalf("NextWord() = false while not exhausted")
		}
		again, ok := s.NextWord()
		if !ok || again != w {
			t.Fatalf("NextWord() = %+v then %+v without Advance", w, again)
		}
		words = append(words, w)
		s.Advance()
		if len(words) > 1<<16 {
			t.Fatalf("source never exhausted")
		}
	}
	if _, ok := s.NextWord(); ok {
		t.Errorf("NextWord() = true on an exhausted source")
	}
	s.Advance()
	if !s.Exhausted() {
		t.Errorf("Advance() revived an exhausted source")
	}
	return words
}

func TestMemSizeToLoadAddr(t *testing.T) {
	tests := []struct {
		name    string
		program *Program
		kw      uint32
		want    uint16
	}{
		{"bootstrap 4K", BootstrapLoader, 4, 017744},
		{"bootstrap below minimum", BootstrapLoader, 0, 017744},
		{"bootstrap 8K", BootstrapLoader, 8, 037744},
		{"bootstrap 28K", BootstrapLoader, 28, 0157744},
		{"bootstrap above maximum", BootstrapLoader, 64, 0157744},
		{"absolute 4K", AbsoluteLoader, 4, 017476},
		{"absolute 28K", AbsoluteLoader, 28, 0157476},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.program.MemSizeToLoadAddr(tt.kw); got != tt.want {
				t.Errorf("MemSizeToLoadAddr(%d) = %o, want %o", tt.kw, got, tt.want)
			}
		})
	}
}

func TestProgramSize(t *testing.T) {
	if got := BootstrapLoader.Size(); got != 28 {
		t.Errorf("BootstrapLoader.Size() = %d, want 28", got)
	}
	if got := AbsoluteLoader.Size(); got != 194 {
		t.Errorf("AbsoluteLoader.Size() = %d, want 194", got)
	}
}

func TestProgramSource(t *testing.T) {
	tests := []struct {
		name      string
		program   *Program
		loadAddr  uint16
		relocWord int
		reloc     uint16
		start     uint16
	}{
		{"bootstrap 4K", BootstrapLoader, 017744, 9, 017400, 017744},
		{"bootstrap 28K", BootstrapLoader, 0157744, 9, 0157400, 0157744},
		{"absolute 4K", AbsoluteLoader, 017476, 92, 017400, 017500},
		{"absolute 28K", AbsoluteLoader, 0157476, 92, 0157400, 0157500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := tt.program.NewSource(tt.loadAddr)
			words := drain(t, src)
			if len(words) != len(tt.program.code) {
				t.Fatalf("got %d words, want %d", len(words), len(tt.program.code))
			}
			for i, w := range words {
				if want := tt.loadAddr + uint16(2*i); w.Address != want {
					t.Errorf("word %d address = %o, want %o", i, w.Address, want)
				}
				if i != tt.relocWord && w.Data != tt.program.code[i] {
					t.Errorf("word %d = %o, want %o", i, w.Data, tt.program.code[i])
				}
			}
			if got := words[tt.relocWord].Data; got != tt.reloc {
				t.Errorf("relocated word = %o, want %o", got, tt.reloc)
			}
			if got := words[len(words)-1].Data; got != 0177560 {
				t.Errorf("last word = %o, want reader CSR 177560", got)
			}
			start, ok := src.StartAddress()
			if !ok || start != tt.start {
				t.Errorf("StartAddress() = %o, %v, want %o, true", start, ok, tt.start)
			}
		})
	}
}

func TestBinarySource(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want []Word
	}{
		{"empty", nil, nil},
		{"even", []byte{0x01, 0x02, 0x03, 0x04}, []Word{{01000, 0x0201}, {01002, 0x0403}}},
		{"odd trailing byte", []byte{0x01, 0x02, 0xFF}, []Word{{01000, 0x0201}, {01002, 0x00FF}}},
		{"single byte", []byte{0x7F}, []Word{{01000, 0x007F}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := NewBinarySource(tt.data, 01000)
			got := drain(t, src)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d words, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("word %d = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
			if _, ok := src.StartAddress(); ok {
				t.Errorf("StartAddress() known for a raw image")
			}
		})
	}
}

func ldaTape(t *testing.T) []byte {
	t.Helper()
	tape := make([]byte, 4)
	tape, err := papertape.AppendBlock(tape, 01000, []byte{0x01, 0x02, 0x03, 0x04})
	if err != nil {
		t.Fatalf("AppendBlock() error = %v", err)
	}
	tape, err = papertape.AppendBlock(tape, 02000, []byte{0xAA, 0xBB, 0xCC})
	if err != nil {
		t.Fatalf("AppendBlock() error = %v", err)
	}
	return papertape.AppendEnd(tape, 01000)
}

func TestLDASource(t *testing.T) {
	src := NewLDASource(ldaTape(t))
	if _, ok := src.StartAddress(); ok {
		t.Errorf("StartAddress() known before the end marker was read")
	}

	got := drain(t, src)
	want := []Word{{01000, 0x0201}, {01002, 0x0403}, {02000, 0xBBAA}, {02002, 0x00CC}}
	if len(got) != len(want) {
		t.Fatalf("got %d words, want %d", len(got), len(want))
	}
	for i := range got {
		if got[i] != want[i] {
			t.Errorf("word %d = %+v, want %+v", i, got[i], want[i])
		}
	}
	if start, ok := src.StartAddress(); !ok || start != 01000 {
		t.Errorf("StartAddress() = %o, %v, want 1000, true", start, ok)
	}
	if src.Err() != nil {
		t.Errorf("Err() = %v", src.Err())
	}
}

func TestLDASource_Override(t *testing.T) {
	src := NewLDASource(ldaTape(t))
	src.SetOverrideLoadAddress(04000)

	got := drain(t, src)
	want := []Word{{04000, 0x0201}, {04002, 0x0403}, {04004, 0xBBAA}, {04006, 0x00CC}}
	if len(got) != len(want) {
		t.Fatalf("got %d words, want %d", len(got), len(want))
	}
	for i := range got {
		if got[i] != want[i] {
			t.Errorf("word %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestLDASource_BadChecksum(t *testing.T) {
	tape := ldaTape(t)
	tape[4+8]++ // data byte of the first block

	src := NewLDASource(tape)
	if !src.Exhausted() {
		t.Errorf("Exhausted() = false on a corrupt tape")
	}
	if src.Err() == nil {
		t.Errorf("Err() = nil on a corrupt tape")
	}
}

func TestForImage(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want Kind
	}{
		{"lda", ldaTape(t), KindLDA},
		{"binary", []byte{0x01, 0x02, 0x03}, KindBinary},
		{"empty", nil, KindBinary},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, kind := ForImage(tt.data, 0)
			if kind != tt.want {
				t.Errorf("ForImage() kind = %v, want %v", kind, tt.want)
			}
			switch kind {
			case KindLDA:
				if _, ok := src.(*LDASource); !ok {
					t.Errorf("ForImage() = %T, want *LDASource", src)
				}
			case KindBinary:
				if _, ok := src.(*BinarySource); !ok {
					t.Errorf("ForImage() = %T, want *BinarySource", src)
				}
			}
		})
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		src  Source
		want Kind
	}{
		{NewLDASource(ldaTape(t)), KindLDA},
		{NewBinarySource([]byte{1, 2}, 0), KindBinary},
		{BootstrapLoader.NewSource(017744), KindProgram},
		{AbsoluteLoader.NewSource(017476), KindProgram},
	}

	for _, tt := range tests {
		t.Run(tt.want.String(), func(t *testing.T) {
			if got := KindOf(tt.src); got != tt.want {
				t.Errorf("KindOf(%T) = %v, want %v", tt.src, got, tt.want)
			}
			if got := tt.want.String(); got == "unknown" {
				t.Errorf("Kind(%d).String() = %q", tt.want, got)
			}
		})
	}
}

func TestProgramWord_TopBank(t *testing.T) {
	// only bits 12-15 of the load address reach the relocated word
	if got := BootstrapLoader.Word(9, 0177744); got != 0177400 {
		t.Errorf("Word(9, 177744) = %o, want 177400", got)
	}
	if got := AbsoluteLoader.Word(92, 0); got != 0007400 {
		t.Errorf("Word(92, 0) = %o, want 7400", got)
	}
}
