// Package riscvcpu wraps the small set of M-mode and S-mode CSRs this
// kernel touches: mstatus, mie, mip, mideleg, medeleg, mepc, mcause,
// mtval, satp, and friends. Each typed Read/Write pair wraps exactly one
// csrr/csrw instruction implemented in csr_riscv64.s, a direct
// translation of original_source/hal-riscv/src/cpu.rs's per-CSR
// functions (each of which wraps a single inline asm! block).
package riscvcpu

import _ "unsafe" // for go:linkname

// Mstatus is the decoded mstatus CSR (only the fields this kernel reads
// or writes). WriteMstatus replaces the whole register with a plain
// csrw, so every bit not modeled here is written as zero.
type Mstatus struct {
	SIE  uint8
	MIE  uint8
	UPIE uint8
	SPIE uint8
	MPIE uint8
	SPP  uint8
	MPP  uint8 // 2 bits: 0=U, 1=S, 3=M
	FS   uint8 // 2 bits
}

func (m Mstatus) encode() uint64 {
	return uint64(m.SIE&1)<<1 | uint64(m.MIE&1)<<3 | uint64(m.UPIE&1)<<4 |
		uint64(m.SPIE&1)<<5 | uint64(m.MPIE&1)<<7 | uint64(m.SPP&1)<<8 |
		uint64(m.MPP&3)<<11 | uint64(m.FS&3)<<13
}

func decodeMstatus(v uint64) Mstatus {
	return Mstatus{
		SIE:  uint8(v>>1) & 1,
		MIE:  uint8(v>>3) & 1,
		UPIE: uint8(v>>4) & 1,
		SPIE: uint8(v>>5) & 1,
		MPIE: uint8(v>>7) & 1,
		SPP:  uint8(v>>8) & 1,
		MPP:  uint8(v>>11) & 3,
		FS:   uint8(v>>13) & 3,
	}
}

// Mideleg / Medeleg select which traps are delegated to S-mode.
type Mideleg struct {
	SSI, STI, MTI, MSI uint8
}

func (m Mideleg) encode() uint64 {
	return uint64(m.SSI&1)<<1 | uint64(m.STI&1)<<5 | uint64(m.MTI&1)<<7 | uint64(m.MSI&1)<<3
}

type Medeleg struct {
	UEcall uint8
}

func (m Medeleg) encode() uint64 {
	return uint64(m.UEcall&1) << 8
}

// Mie / Mip are the interrupt-enable and interrupt-pending CSRs.
type Mie struct {
	SSIE, STIE, MTIE, MSIE uint8
}

func (m Mie) encode() uint64 {
	return uint64(m.SSIE&1)<<1 | uint64(m.STIE&1)<<5 | uint64(m.MTIE&1)<<7 | uint64(m.MSIE&1)<<3
}

type Mip struct {
	SSIP, STIP, MTIP, MSIP uint8
}

func decodeMip(v uint64) Mip {
	return Mip{
		SSIP: uint8(v>>1) & 1,
		STIP: uint8(v>>5) & 1,
		MTIP: uint8(v>>7) & 1,
		MSIP: uint8(v>>3) & 1,
	}
}

func decodeMie(v uint64) Mie {
	return Mie{
		SSIE: uint8(v>>1) & 1,
		STIE: uint8(v>>5) & 1,
		MTIE: uint8(v>>7) & 1,
		MSIE: uint8(v>>3) & 1,
	}
}

// raw CSR accessors, implemented in csr_riscv64.s.

//go:linkname csr_read_mstatus csr_read_mstatus
//go:nosplit
func csr_read_mstatus() uint64

//go:linkname csr_write_mstatus csr_write_mstatus
//go:nosplit
func csr_write_mstatus(v uint64)

//go:linkname csr_read_mie csr_read_mie
//go:nosplit
func csr_read_mie() uint64

//go:linkname csr_write_mie csr_write_mie
//go:nosplit
func csr_write_mie(v uint64)

//go:linkname csr_read_mip csr_read_mip
//go:nosplit
func csr_read_mip() uint64

//go:linkname csr_read_mideleg csr_read_mideleg
//go:nosplit
func csr_read_mideleg() uint64

//go:linkname csr_write_mideleg csr_write_mideleg
//go:nosplit
func csr_write_mideleg(v uint64)

//go:linkname csr_write_medeleg csr_write_medeleg
//go:nosplit
func csr_write_medeleg(v uint64)

//go:linkname csr_read_mepc csr_read_mepc
//go:nosplit
func csr_read_mepc() uint64

//go:linkname csr_write_mepc csr_write_mepc
//go:nosplit
func csr_write_mepc(v uint64)

//go:linkname csr_read_mcause csr_read_mcause
//go:nosplit
func csr_read_mcause() uint64

//go:linkname csr_read_mtval csr_read_mtval
//go:nosplit
func csr_read_mtval() uint64

//go:linkname csr_read_mscratch csr_read_mscratch
//go:nosplit
func csr_read_mscratch() uint64

//go:linkname csr_write_mscratch csr_write_mscratch
//go:nosplit
func csr_write_mscratch(v uint64)

//go:linkname csr_write_satp csr_write_satp
//go:nosplit
func csr_write_satp(v uint64)

// ReadMstatus / WriteMstatus access the mstatus CSR.
func ReadMstatus() Mstatus   { return decodeMstatus(csr_read_mstatus()) }
func WriteMstatus(m Mstatus) { csr_write_mstatus(m.encode()) }
func ReadMie() Mie           { return decodeMie(csr_read_mie()) }
func WriteMie(m Mie)         { csr_write_mie(m.encode()) }
func ReadMip() Mip           { return decodeMip(csr_read_mip()) }
func ReadMideleg() Mideleg {
	v := csr_read_mideleg()
	return Mideleg{
		SSI: uint8(v>>1) & 1,
		STI: uint8(v>>5) & 1,
		MTI: uint8(v>>7) & 1,
		MSI: uint8(v>>3) & 1,
	}
}
func WriteMideleg(m Mideleg) { csr_write_mideleg(m.encode()) }
func WriteMedeleg(m Medeleg) { csr_write_medeleg(m.encode()) }
func ReadMepc() uint64       { return csr_read_mepc() }
func WriteMepc(v uint64)     { csr_write_mepc(v) }
func ReadMcause() uint64     { return csr_read_mcause() }
func ReadMtval() uint64      { return csr_read_mtval() }
func ReadMscratch() uint64   { return csr_read_mscratch() }
func WriteMscratch(v uint64) { csr_write_mscratch(v) }

// Satp builds the supervisor address translation and protection value:
// mode (8 for Sv39) in the top 4 bits, PPN of the root page table below.
// The assembly stub follows hal-riscv/src/cpu.rs's write_satp exactly,
// issuing "sfence.vma x0, x0" in the same instruction sequence as the
// csrw so no stale translation survives the switch.
func WriteSatp(mode uint64, rootPA uint64) {
	ppn := rootPA >> 12
	csr_write_satp(mode<<60 | ppn)
}
