package elfuser

import (
	"bytes"
	"debug/elf"
	"encoding/binary"
	"testing"
)

// buildMinimalELF assembles a minimal little-endian ELF64 executable
// image with a single .text section, for exercising ExtractText and
// EntryPoint without a real toolchain-produced binary.
func buildMinimalELF(t *testing.T, text []byte, entry uint64) []byte {
	t.Helper()

	const (
		ehsize     = 64
		shentsize  = 64
		textOff    = ehsize
		shstrtab   = "\x00.text\x00.shstrtab\x00"
		textOffIdx = 1 // ".text" starts at byte 1 in shstrtab
		shstrOff   = 7 // ".shstrtab" starts at byte 7
	)

	textStart := uint64(ehsize)
	shstrStart := textStart + uint64(len(text))
	shoff := shstrStart + uint64(len(shstrtab))

	var buf bytes.Buffer

	var hdr elf.Header64
	copy(hdr.Ident[:], []byte{0x7f, 'E', 'L', 'F', 2 /*64-bit*/, 1 /*LE*/, 1 /*version*/})
	hdr.Type = uint16(elf.ET_EXEC)
	hdr.Machine = uint16(elf.EM_RISCV)
	hdr.Version = 1
	hdr.Entry = entry
	hdr.Shoff = shoff
	hdr.Ehsize = ehsize
	hdr.Shentsize = shentsize
	hdr.Shnum = 3 // null, .text, .shstrtab
	hdr.Shstrndx = 2

	binary.Write(&buf, binary.LittleEndian, hdr)
	buf.Write(text)
	buf.WriteString(shstrtab)

	// Section 0: null section, all zero.
	binary.Write(&buf, binary.LittleEndian, elf.Section64{})

	// Section 1: .text
	binary.Write(&buf, binary.LittleEndian, elf.Section64{
		Name: textOffIdx,
		Type: uint32(elf.SHT_PROGBITS),
		Addr: entry,
		Off:  textStart,
		Size: uint64(len(text)),
	})

	// Section 2: .shstrtab
	binary.Write(&buf, binary.LittleEndian, elf.Section64{
		Name: shstrOff,
		Type: uint32(elf.SHT_STRTAB),
		Off:  shstrStart,
		Size: uint64(len(shstrtab)),
	})

	return buf.Bytes()
}

func TestExtractTextReturnsSectionBytes(t *testing.T) {
	want := []byte{0x13, 0x00, 0x00, 0x00, 0x67, 0x80, 0x00, 0x00} // nop; ret (compressed-free RV64)
	image := buildMinimalELF(t, want, 0x20_00000000)

	got, err := ExtractText(image)
	if err != nil {
		t.Fatalf("ExtractText: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("ExtractText = % x, want % x", got, want)
	}
}

func TestEntryPointMatchesHeader(t *testing.T) {
	const entry = uint64(0x20_00000000)
	image := buildMinimalELF(t, []byte{0, 0, 0, 0}, entry)

	got, err := EntryPoint(image)
	if err != nil {
		t.Fatalf("EntryPoint: %v", err)
	}
	if got != entry {
		t.Fatalf("EntryPoint = 0x%x, want 0x%x", got, entry)
	}
}

func TestExtractTextMissingSectionErrors(t *testing.T) {
	// An ELF with no .text section at all (shstrtab only, shnum=2).
	var buf bytes.Buffer
	var hdr elf.Header64
	copy(hdr.Ident[:], []byte{0x7f, 'E', 'L', 'F', 2, 1, 1})
	hdr.Type = uint16(elf.ET_EXEC)
	hdr.Machine = uint16(elf.EM_RISCV)
	hdr.Version = 1
	hdr.Ehsize = 64
	hdr.Shentsize = 64
	hdr.Shnum = 2
	hdr.Shstrndx = 1

	const shstrtab = "\x00.shstrtab\x00"
	shstrStart := uint64(64)
	shoff := shstrStart + uint64(len(shstrtab))
	hdr.Shoff = shoff

	binary.Write(&buf, binary.LittleEndian, hdr)
	buf.WriteString(shstrtab)
	binary.Write(&buf, binary.LittleEndian, elf.Section64{})
	binary.Write(&buf, binary.LittleEndian, elf.Section64{
		Name: 1,
		Type: uint32(elf.SHT_STRTAB),
		Off:  shstrStart,
		Size: uint64(len(shstrtab)),
	})

	if _, err := ExtractText(buf.Bytes()); err == nil {
		t.Fatalf("ExtractText: expected error for missing .text section")
	}
}
