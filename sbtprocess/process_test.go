package sbtprocess_test

import (
	"testing"

	"github.com/scanlime-collective/roboodyssey/memory"
	"github.com/scanlime-collective/roboodyssey/sbtprocess"
	"github.com/scanlime-collective/roboodyssey/shadowstack"
	"github.com/scanlime-collective/roboodyssey/vcpu"
)

type fakeHardware struct{}

func (fakeHardware) Interrupt10(p *sbtprocess.Process)                 {}
func (fakeHardware) Interrupt16(p *sbtprocess.Process)                 {}
func (fakeHardware) Interrupt21(p *sbtprocess.Process)                 {}
func (fakeHardware) In(port uint16, timestamp uint32) uint8            { return 0 }
func (fakeHardware) Out(port uint16, value uint8, timestamp uint32)    {}

type fakeImage struct {
	data      []byte
	functions map[sbtprocess.AddressID]sbtprocess.ContinueFunc
	addresses map[sbtprocess.AddressID]uint16
}

func (f *fakeImage) Filename() string   { return "fake.exe" }
func (f *fakeImage) Data() []byte       { return f.data }
func (f *fakeImage) RelocSegment() uint16 { return 0x2000 }
func (f *fakeImage) EntryCS() uint16    { return 0x2000 }
func (f *fakeImage) Address(id sbtprocess.AddressID) (uint16, bool) {
	a, ok := f.addresses[id]
	return a, ok
}
func (f *fakeImage) Function(id sbtprocess.AddressID) sbtprocess.ContinueFunc {
	return f.functions[id]
}
func (f *fakeImage) LoadEnvironment(stack *shadowstack.Stack, reg vcpu.Registers) {}

func newTestProcess(entry sbtprocess.ContinueFunc) (*sbtprocess.Process, *fakeImage) {
	img := &fakeImage{
		data:      []byte{0xAB, 0xCD},
		functions: map[sbtprocess.AddressID]sbtprocess.ContinueFunc{sbtprocess.AddrEntryFunc: entry},
		addresses: map[sbtprocess.AddressID]uint16{},
	}
	p := &sbtprocess.Process{
		Mem:      &memory.Space{},
		Hardware: fakeHardware{},
		Image:    img,
	}
	return p, img
}

func TestExecDecompressesDataAndBuildsPSP(t *testing.T) {
	p, _ := newTestProcess(func(p *sbtprocess.Process) {})
	p.Exec("foo")

	if p.Reg.DS != 0x2000 || p.Reg.CS != 0x2000 {
		t.Fatalf("unexpected ds/cs: %04x/%04x", p.Reg.DS, p.Reg.CS)
	}
	if p.Reg.ES != 0x2000-0x10 {
		t.Fatalf("PSP segment ES = %04x, want %04x", p.Reg.ES, 0x2000-0x10)
	}
	if got := p.Peek8(0x2000, 0); got != 0xAB {
		t.Fatalf("data segment byte 0 = %02x, want ab", got)
	}
	if got := p.Peek8(0x2000, 1); got != 0xCD {
		t.Fatalf("data segment byte 1 = %02x, want cd", got)
	}
	if got := p.Peek8(p.Reg.ES, 0x80); got != 3 {
		t.Fatalf("PSP cmdline length = %d, want 3", got)
	}
	if got := p.Peek8(p.Reg.ES, 0x81); got != 'f' {
		t.Fatalf("PSP cmdline byte 0 = %c, want f", got)
	}
	if got := p.Peek8(p.Reg.ES, 0xFF); got != 0x0D {
		t.Fatalf("PSP trailing byte = %02x, want 0d", got)
	}
}

func TestRunSettlesIntoPromotedMainLoop(t *testing.T) {
	var mainLoop sbtprocess.ContinueFunc = func(p *sbtprocess.Process) {}
	entry := func(p *sbtprocess.Process) {
		p.ContinueFrom(p.Reg, mainLoop, true)
	}
	p, _ := newTestProcess(entry)
	p.Exec("")
	p.Run()

	if !p.IsWaitingInMainLoop() {
		t.Fatal("expected process to be waiting in its newly promoted main loop")
	}

	p.Run()
	if !p.IsWaitingInMainLoop() {
		t.Fatal("expected process to remain in its main loop after it returns normally")
	}
}

func TestEntryThatJustReturnsIsNotWaitingInMainLoop(t *testing.T) {
	p, _ := newTestProcess(func(p *sbtprocess.Process) {})
	p.Exec("")
	p.Run()

	if p.IsWaitingInMainLoop() {
		t.Fatal("a default continuation equal to the entry point should not count as waiting in the main loop")
	}
}

func TestContinueFromYieldsWithoutRunningFallback(t *testing.T) {
	var secondRan bool
	second := func(p *sbtprocess.Process) { secondRan = true }

	entry := func(p *sbtprocess.Process) {
		p.ContinueFrom(p.Reg, second, false)
	}
	p, _ := newTestProcess(entry)
	p.Exec("")
	p.Run()

	if secondRan {
		t.Fatal("second continuation should not run until the next Run")
	}
	if p.IsWaitingInMainLoop() {
		t.Fatal("process yielded to a non-default continuation, should not be waiting in main loop")
	}

	p.Run()
	if !secondRan {
		t.Fatal("second continuation should run on next Run")
	}
}

func TestCallDoesNotDisturbMainContinuation(t *testing.T) {
	entry := func(p *sbtprocess.Process) {}
	p, img := newTestProcess(entry)
	p.Exec("")

	var called bool
	img.functions[sbtprocess.AddrSaveGameFunc] = func(p *sbtprocess.Process) { called = true }

	p.Call(sbtprocess.AddrSaveGameFunc, p.Reg)
	if !called {
		t.Fatal("exported function was not invoked")
	}
	if !p.HasFunction(sbtprocess.AddrSaveGameFunc) {
		t.Fatal("HasFunction should report the exported save function")
	}
	if p.HasFunction(sbtprocess.AddrLoadChipFunc) {
		t.Fatal("HasFunction should report false for an unexported id")
	}
}

func TestExitPanicsOnReentry(t *testing.T) {
	p, _ := newTestProcess(func(p *sbtprocess.Process) { p.Exit() })
	p.Exec("")

	defer func() {
		if recover() == nil {
			t.Fatal("expected a panic when re-entering an exited process")
		}
	}()
	p.Run()
	p.Run()
}

func TestFailedDynamicBranchPanics(t *testing.T) {
	p, _ := newTestProcess(func(p *sbtprocess.Process) {})
	p.Exec("")

	defer func() {
		if recover() == nil {
			t.Fatal("expected a panic on a failed dynamic branch")
		}
	}()
	p.FailedDynamicBranch(0x1000, 0x0010, 0xDEAD)
}
