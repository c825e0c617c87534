package sched

import "testing"

func resetForTest(n int) {
	ResetForTesting()
	tasks := make([]Task, n)
	for i := range tasks {
		tasks[i] = NewTask(i, uint64(0x2000_0000_0000+i*0x1000))
	}
	Init(tasks)
}

func TestNewTaskPreloadsIDAndPC(t *testing.T) {
	task := NewTask(2, 0xdead0000)
	if task.PC != task.EntryAddr {
		t.Fatalf("PC = 0x%x, want EntryAddr 0x%x", task.PC, task.EntryAddr)
	}
	if task.TrapFrame.A0 != 2 {
		t.Fatalf("TrapFrame.A0 = %d, want 2 (task id)", task.TrapFrame.A0)
	}
}

// Property 10: starting from current=0, after k calls to Next(),
// current = k mod N and the returned task's index equals (prev+1) mod N.
func TestNextRotatesModuloN(t *testing.T) {
	const n = 3
	resetForTest(n)

	if got := Global.Current(); got != 0 {
		t.Fatalf("initial current = %d, want 0", got)
	}

	for k := 1; k <= 7; k++ {
		idx, _ := Global.Next()
		want := k % n
		if idx != want {
			t.Fatalf("after %d calls, Next() returned %d, want %d", k, idx, want)
		}
		if Global.Current() != want {
			t.Fatalf("after %d calls, Current() = %d, want %d", k, Global.Current(), want)
		}
	}
}

// Property 11 / S5: SaveState writes pc into tasks[current].PC, and a
// subsequent rotation back to this task observes that PC.
func TestSaveStateThenRotationObservesPC(t *testing.T) {
	const n = 3
	resetForTest(n)

	const preemptedPC = 0x1234
	Global.SaveState(preemptedPC)
	if Global.Task(0).PC != preemptedPC {
		t.Fatalf("tasks[0].PC = 0x%x, want 0x%x", Global.Task(0).PC, preemptedPC)
	}

	idx, task := Global.Next()
	if idx != 1 {
		t.Fatalf("Next() = %d, want 1", idx)
	}
	if task != Global.Task(1) {
		t.Fatalf("Next() task pointer does not match Task(1)")
	}

	// One full lap: current should be back at 0 with the PC we saved.
	Global.Next()
	Global.Next()
	if Global.Current() != 0 {
		t.Fatalf("after full lap, current = %d, want 0", Global.Current())
	}
	if Global.Task(0).PC != preemptedPC {
		t.Fatalf("after full lap, tasks[0].PC = 0x%x, want 0x%x", Global.Task(0).PC, preemptedPC)
	}
}

func TestInitTwicePanics(t *testing.T) {
	resetForTest(3)
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on double init")
		}
	}()
	Init([]Task{NewTask(0, 0)})
}

func TestTaskOutOfRangePanics(t *testing.T) {
	resetForTest(3)
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on out-of-range task index")
		}
	}()
	Global.Task(3)
}
