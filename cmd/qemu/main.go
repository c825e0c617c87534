// Command qemu launches the kernel image under QEMU's virt machine with
// the options this kernel's boot path expects (Sv39 RISC-V core, CLINT,
// 16550 UART wired to the host terminal), in its own process group so a
// stray QEMU instance never survives a killed parent.
//
// Grounded on original_source/qemu/src/main.rs's own build-and-launch
// wrapper (same --machine virt --bios <image> --nographic invocation,
// same guest_errors,unimp logging) and, for process-group isolation,
// the Setpgid pattern in tinyrange-cc/cmd/ccinstaller/installer_linux.go
// — using golang.org/x/sys/unix instead of syscall for the SysProcAttr
// fields, the rest of the pack's preferred route to raw process-control
// knobs.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/exec"

	"golang.org/x/sys/unix"
)

func main() {
	bios := flag.String("bios", "", "path to the kernel ELF image, loaded as the machine's bios")
	machine := flag.String("machine", "virt", "QEMU -machine value")
	memory := flag.String("m", "128M", "QEMU -m value")
	logFile := flag.String("log-file", "log.txt", "QEMU -D log file for guest_errors,unimp tracing")
	flag.Parse()

	if *bios == "" {
		fmt.Fprintln(os.Stderr, "qemu: -bios is required")
		os.Exit(1)
	}

	args := []string{
		"--machine", *machine,
		"--serial", "stdio",
		"--monitor", "none",
		"--bios", *bios,
		"--nographic",
		"-d", "guest_errors,unimp",
		"-D", *logFile,
		"-m", *memory,
	}

	if err := run(args); err != nil {
		log.Fatalf("qemu: %v", err)
	}
}

func run(args []string) error {
	cmd := exec.Command("qemu-system-riscv64", args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	// Its own process group: killing the launcher (e.g. the test
	// harness timing out a hung boot) must not leave qemu running.
	cmd.SysProcAttr = &unix.SysProcAttr{Setpgid: true}

	fmt.Fprintf(os.Stderr, "qemu: exec qemu-system-riscv64 %v\n", args)
	return cmd.Run()
}
