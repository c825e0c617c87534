// Package ecall implements the kernel's custom ecall ABI: a call number
// in x30 (t5) and one payload byte in x31 (t6), per spec §4.5. Grounded
// on original_source/src/ecall.rs, extended with the Exit code the
// distillation adds beyond the original two.
package ecall

import (
	"fmt"
	_ "unsafe" // for go:linkname
)

// Number identifies which ecall was issued.
type Number uint8

const (
	SModeFinishBootstrap  Number = 1
	ClearPendingInterrupt Number = 2
	Exit                  Number = 3
)

func (n Number) String() string {
	switch n {
	case SModeFinishBootstrap:
		return "SModeFinishBootstrap"
	case ClearPendingInterrupt:
		return "ClearPendingInterrupt"
	case Exit:
		return "Exit"
	default:
		return fmt.Sprintf("Ecall(%d)", uint8(n))
	}
}

// Call is a decoded ecall: its number and the single payload byte that
// accompanies ClearPendingInterrupt's cause code or Exit's status code.
type Call struct {
	Number  Number
	Payload uint8
}

//go:linkname ecall_issue ecall_issue
//go:nosplit
func ecall_issue(number, payload uint8)

//go:linkname ecall_read ecall_read
//go:nosplit
func ecall_read() (number, payload uint8)

// IssueSModeFinishBootstrap issues the no-payload bootstrap ecall that
// transitions S-mode initialization to user execution.
func IssueSModeFinishBootstrap() {
	ecall_issue(uint8(SModeFinishBootstrap), 0)
}

// IssueClearPendingInterrupt issues ecall 2 with the trapping cause code
// as payload.
func IssueClearPendingInterrupt(cause uint8) {
	ecall_issue(uint8(ClearPendingInterrupt), cause)
}

// IssueExit issues ecall 3, the cooperative task-termination call, with
// an exit status byte.
func IssueExit(status uint8) {
	ecall_issue(uint8(Exit), status)
}

// Read decodes the ecall number and payload left in x30/x31 by the
// trapping user instruction. An unrecognized number is a fatal ABI
// violation; there is no recovery path for a user program issuing an
// ecall the kernel doesn't implement.
func Read() Call {
	number, payload := ecall_read()
	switch Number(number) {
	case SModeFinishBootstrap, ClearPendingInterrupt, Exit:
		return Call{Number: Number(number), Payload: payload}
	default:
		panic(fmt.Sprintf("ecall: unknown ecall number %d", number))
	}
}
