// Package elfuser extracts the .text section bytes out of the embedded
// user program ELF image, for the boot path to copy into a heap buffer
// and map at TASK_BEGIN_VADDR.
//
// Grounded on original_source/src/elf.rs, which does the same lookup
// with the third-party `elf` crate. Go's standard library ships a
// perfectly adequate ELF reader (debug/elf) and the teacher's own
// host-side tool (kernel/chentry.go) already reaches for debug/elf over
// any third-party alternative, so this package follows suit rather than
// importing an external ELF library purely to mirror the Rust original
// — the asymmetry exists only because Rust's stdlib has no ELF reader
// at all.
package elfuser

import (
	"bytes"
	"debug/elf"
	"fmt"
)

// ExtractText parses an ELF image held in data and returns the raw bytes
// of its .text section.
func ExtractText(data []byte) ([]byte, error) {
	f, err := elf.NewFile(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("elfuser: parsing ELF image: %w", err)
	}
	defer f.Close()

	section := f.Section(".text")
	if section == nil {
		return nil, fmt.Errorf("elfuser: no .text section in ELF image")
	}

	text, err := section.Data()
	if err != nil {
		return nil, fmt.Errorf("elfuser: reading .text section: %w", err)
	}
	return text, nil
}

// EntryPoint returns the ELF header's entry point, the virtual address
// user execution should begin at once .text is mapped.
func EntryPoint(data []byte) (uint64, error) {
	f, err := elf.NewFile(bytes.NewReader(data))
	if err != nil {
		return 0, fmt.Errorf("elfuser: parsing ELF image: %w", err)
	}
	defer f.Close()
	return f.Entry, nil
}
