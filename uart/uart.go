// Package uart is the serial façade: a locked byte-at-a-time writer over
// the 16550-compatible UART MMIO register, with severity-prefixed
// logging helpers. This is the external-collaborator boundary named in
// spec §1 — the core only ever calls it for diagnostics, never relies on
// it for correctness.
//
// Grounded on original_source/src/serial.rs (locked MMIO Serial writer
// with info/debug/error macros) and iansmith-mazarin/src/kernel.go's
// go:linkname convention for calling hand-written MMIO access out of a
// freestanding Go binary.
package uart

import (
	"fmt"
	"sync"
	_ "unsafe" // for go:linkname

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// mmio_write_byte writes a single byte to the given physical MMIO
// address. Implemented in mmio_riscv64.s as a bare `sb` to the address —
// a single uncached store, no read-modify-write, matching the teacher's
// use of ptr::write_volatile in serial.rs.
//
//go:linkname mmio_write_byte mmio_write_byte
//go:nosplit
func mmio_write_byte(addr uintptr, b byte)

const banner = "rvos"

const (
	levelInfo  = "INFO"
	levelDebug = "DEBUG"
	levelError = "ERROR"
)

// Writer is a locked byte-sink over one UART MMIO register.
type Writer struct {
	sync.Mutex
	addr uintptr
}

// Default is the kernel's singleton serial writer, over the UART MMIO
// address named in spec §6 (0x10000000).
var Default = New(0x10000000)

// New constructs a Writer over the UART MMIO register at addr.
func New(addr uintptr) *Writer {
	return &Writer{addr: addr}
}

// Write implements io.Writer by transmitting s one byte at a time.
func (w *Writer) Write(p []byte) (int, error) {
	for _, b := range p {
		mmio_write_byte(w.addr, b)
	}
	return len(p), nil
}

func (w *Writer) log(level, format string, args ...any) {
	w.Lock()
	defer w.Unlock()
	fmt.Fprintf(w, "%s [%s] ", banner, level)
	fmt.Fprintf(w, format, args...)
	fmt.Fprint(w, "\n")
}

// Infof logs a normal operational message.
func (w *Writer) Infof(format string, args ...any) { w.log(levelInfo, format, args...) }

// Debugf logs a verbose diagnostic message.
func (w *Writer) Debugf(format string, args ...any) { w.log(levelDebug, format, args...) }

// Errorf logs an error-level message.
func (w *Writer) Errorf(format string, args ...any) { w.log(levelError, format, args...) }

// Print writes s with no severity prefix or trailing newline, for
// building up a single line across multiple calls.
func (w *Writer) Print(s string) {
	w.Lock()
	defer w.Unlock()
	fmt.Fprint(w, s)
}

// sizePrinter formats byte counts with decimal grouping (e.g.
// "65,536 bytes") for the boot banner. Plain fmt has no grouping verb;
// golang.org/x/text/message is the teacher's own dependency for exactly
// this kind of locale-aware numeric formatting.
var sizePrinter = message.NewPrinter(language.English)

// Sizef formats n as a grouped-decimal byte count, e.g. Sizef(65536) ==
// "65,536 bytes".
func Sizef(n int) string {
	return sizePrinter.Sprintf("%d bytes", n)
}
