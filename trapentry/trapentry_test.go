package trapentry

import (
	"testing"

	"rvos/bootcfg"
	"rvos/sched"
)

// resetScheduler mirrors sched's own test helper: a fresh fixed task
// table so each test starts from current=0 regardless of prior state.
func resetScheduler(n int) []sched.Task {
	sched.ResetForTesting()
	tasks := make([]sched.Task, n)
	for i := range tasks {
		tasks[i] = sched.NewTask(i, uint64(bootcfg.TaskBeginVaddr)+uint64(i)*0x1000)
	}
	sched.Init(tasks)
	return tasks
}

// TestFinishBootstrapSelectsTaskZero covers the Go-side half of the
// SModeFinishBootstrap ecall (the handler the very first trap this
// kernel ever takes must reach, per spec §4.4's first-trap/no-frame
// case): it checks that task 0's frame is the one handed back for the
// trampoline to restore. The mie and mstatus writes are not checked.
func TestFinishBootstrapSelectsTaskZero(t *testing.T) {
	resetScheduler(bootcfg.NTasks)

	frame := finishBootstrap()
	if frame != &sched.Global.Task(0).TrapFrame {
		t.Fatalf("finishBootstrap returned a frame other than task 0's")
	}
}

// TestHandleTimerRotatesAndSavesPC covers the timer handler's
// scheduling contract in isolation from the CSR/MMIO side effects, by
// calling the sched steps handleTimer uses rather than handleTimer
// itself: SaveState records the preempted PC, Next() rotates, and the
// returned task is the newly current one.
func TestHandleTimerRotatesAndSavesPC(t *testing.T) {
	resetScheduler(3)

	const preemptedPC = 0x4000
	sched.Global.SaveState(preemptedPC)
	if sched.Global.Task(0).PC != preemptedPC {
		t.Fatalf("SaveState: task 0 PC = 0x%x, want 0x%x", sched.Global.Task(0).PC, preemptedPC)
	}

	idx, next := sched.Global.Next()
	if idx != 1 {
		t.Fatalf("Next() = %d, want 1", idx)
	}
	if next != sched.Global.Task(1) {
		t.Fatalf("Next() task pointer does not match Task(1)")
	}
}

// TestHandleUserEcallRestartsCurrentTask replays handleUserEcall's slot
// replacement (without calling handleUserEcall, which writes CSRs): the
// current task's slot is replaced with a fresh frame at TaskBeginVaddr,
// with the task id preloaded into a0 exactly as a cold boot would.
func TestHandleUserEcallRestartsCurrentTask(t *testing.T) {
	resetScheduler(bootcfg.NTasks)

	current := sched.Global.Current()
	restarted := sched.NewTask(current, uint64(bootcfg.TaskBeginVaddr))
	*sched.Global.Task(current) = restarted

	if sched.Global.Task(current).PC != uint64(bootcfg.TaskBeginVaddr) {
		t.Fatalf("restarted task PC = 0x%x, want TaskBeginVaddr", sched.Global.Task(current).PC)
	}
	if sched.Global.Task(current).TrapFrame.A0 != uint64(current) {
		t.Fatalf("restarted task frame A0 = %d, want task id %d",
			sched.Global.Task(current).TrapFrame.A0, current)
	}
}
