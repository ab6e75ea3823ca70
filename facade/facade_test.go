package facade_test

import (
	"testing"

	"github.com/scanlime-collective/roboodyssey/dosfs"
	"github.com/scanlime-collective/roboodyssey/facade"
	"github.com/scanlime-collective/roboodyssey/gamedata"
	"github.com/scanlime-collective/roboodyssey/inputbuf"
	"github.com/scanlime-collective/roboodyssey/outqueue"
	"github.com/scanlime-collective/roboodyssey/render"
	"github.com/scanlime-collective/roboodyssey/sbtprocess"
	"github.com/scanlime-collective/roboodyssey/shadowstack"
	"github.com/scanlime-collective/roboodyssey/vcpu"
)

type fakeImage struct {
	name      string
	functions map[sbtprocess.AddressID]sbtprocess.ContinueFunc
	addresses map[sbtprocess.AddressID]uint16
}

func (f *fakeImage) Filename() string { return f.name }
func (f *fakeImage) Data() []byte     { return nil }
func (f *fakeImage) RelocSegment() uint16 { return 0x2000 }
func (f *fakeImage) EntryCS() uint16      { return 0x2000 }
func (f *fakeImage) Address(id sbtprocess.AddressID) (uint16, bool) {
	a, ok := f.addresses[id]
	return a, ok
}
func (f *fakeImage) Function(id sbtprocess.AddressID) sbtprocess.ContinueFunc {
	return f.functions[id]
}
func (f *fakeImage) LoadEnvironment(stack *shadowstack.Stack, reg vcpu.Registers) {}

func newFacade() (*facade.Facade, *sbtprocess.Process, *fakeImage) {
	fs := dosfs.New(gamedata.NewDefaultJoyFile().Bytes(), nil)
	input := inputbuf.New()
	output := outqueue.New(render.NewRGBDraw(render.NewColorTable()))
	f := facade.New(fs, input, output)

	img := &fakeImage{
		name:      "game.exe",
		functions: map[sbtprocess.AddressID]sbtprocess.ContinueFunc{},
		addresses: map[sbtprocess.AddressID]uint16{},
	}

	p := &sbtprocess.Process{
		Mem:      &f.Mem,
		Hardware: f,
		Image:    img,
	}
	f.RegisterProcess(p)
	return f, p, img
}

func TestExecSwitchesCurrentProcessAndResetsInputFS(t *testing.T) {
	f, p, img := newFacade()
	img.functions[sbtprocess.AddrEntryFunc] = func(p *sbtprocess.Process) {}

	f.Input.PressKey('x', 0x2D)
	f.Exec("GAME.EXE", "99") // case-insensitive match

	if f.Process != p {
		t.Fatal("expected Exec to select the matching registered process")
	}
	if f.Input.CheckForKey() != 0 {
		t.Fatal("expected Exec to clear the input buffer")
	}
}

func TestExecPanicsOnUnknownProgram(t *testing.T) {
	f, _, _ := newFacade()
	defer func() {
		if recover() == nil {
			t.Fatal("expected a panic execing an unregistered program")
		}
	}()
	f.Exec("nope.exe", "")
}

func TestSpeakerPortTogglesOnlyOnBit1Edge(t *testing.T) {
	f, _, _ := newFacade()

	var soundRendered bool
	f.Output.OnRenderSound = func(samples []int8, rate int) { soundRendered = true }

	// Writing 0x05 over the initial 0x00 changes bits 0 and 2 but not
	// bit 1, so it should not push a speaker edge.
	f.Out(0x61, 0x05, 1000)
	if f.In(0x61, 1000) != 0x05 {
		t.Fatal("expected port 0x61 to read back the last written value")
	}
	f.Output.Run()
	if soundRendered {
		t.Fatal("expected a write that leaves bit 1 unchanged to queue no speaker edge")
	}

	// Toggling bit 1 should push a speaker edge.
	f.Out(0x61, 0x02, 2000)
	f.Out(0x61, 0x03, 3000)

	f.Output.Run()
	if !soundRendered {
		t.Fatal("expected toggling bit 1 to queue a speaker edge that synthesizes sound on drain")
	}
}

func TestInterrupt16GetKeyReturnsZeroAndSetsZF(t *testing.T) {
	f, p, _ := newFacade()
	p.Reg.AX.SetHi(0x00)

	f.Interrupt16(p)
	if p.Reg.AX.Get() != 0 {
		t.Fatalf("AX = %#04x, want 0 on an empty key buffer", p.Reg.AX.Get())
	}
	if !p.Reg.ZF() {
		t.Fatal("expected ZF set when GetKey returns 0")
	}
}

func TestInterrupt21OpenCreateWriteReadFile(t *testing.T) {
	f, p, img := newFacade()
	img.functions[sbtprocess.AddrEntryFunc] = func(p *sbtprocess.Process) {}
	f.Exec("game.exe", "")

	ds := p.Reg.DS
	nameOff := uint16(0x100)
	copy(p.Mem.Seg(ds)[nameOff:], []byte(dosfs.SaveFileName+"\x00"))

	// int 21h/3C: create "savefile" for writing.
	p.Reg.AX.SetHi(0x3C)
	p.Reg.DX.Set(nameOff)
	f.Interrupt21(p)
	if p.Reg.CF() {
		t.Fatal("expected create to succeed")
	}
	fd := p.Reg.AX.Get()

	dataOff := uint16(0x200)
	copy(p.Mem.Seg(ds)[dataOff:], []byte{1, 2, 3, 4})

	// int 21h/40: write 4 bytes from dataOff.
	p.Reg.AX.SetHi(0x40)
	p.Reg.BX.Set(fd)
	p.Reg.DX.Set(dataOff)
	p.Reg.CX.Set(4)
	f.Interrupt21(p)
	if p.Reg.AX.Get() != 4 {
		t.Fatalf("wrote %d bytes, want 4", p.Reg.AX.Get())
	}

	// int 21h/3E: close.
	p.Reg.AX.SetHi(0x3E)
	p.Reg.BX.Set(fd)
	f.Interrupt21(p)

	if got := f.FS.SaveBytes(); len(got) != 4 || got[0] != 1 || got[3] != 4 {
		t.Fatalf("save buffer = %v, want [1 2 3 4]", got)
	}
}

func TestInterrupt21ExitClearsCurrentProcessAndCallsHook(t *testing.T) {
	f, p, img := newFacade()
	img.functions[sbtprocess.AddrEntryFunc] = func(p *sbtprocess.Process) {
		p.Reg.AX.SetLo(7)
		// int 21h/4C is dispatched through Interrupt21, exercised below
		// rather than inside the continuation, since Exit() never returns.
	}
	f.Exec("game.exe", "")

	var exitCode uint8
	f.OnProcessExit = func(code uint8) { exitCode = code }

	p.Reg.AX.SetHi(0x4C)
	p.Reg.AX.SetLo(5)

	defer func() {
		recover() // Exit() yields via panic; expected here.
		if f.Process != nil {
			t.Fatal("expected Exec'd process to be cleared after exit")
		}
		if exitCode != 5 {
			t.Fatalf("exit code = %d, want 5", exitCode)
		}
	}()
	f.Interrupt21(p)
}

func TestSaveGameNotSupportedWithoutRunningProcess(t *testing.T) {
	f, _, _ := newFacade()
	if got := f.SaveGame(); got != facade.SaveNotSupported {
		t.Fatalf("SaveGame() with no process = %v, want NOT_SUPPORTED", got)
	}
}

func TestSaveGameBlockedWhenNotInMainLoop(t *testing.T) {
	f, p, img := newFacade()
	img.functions[sbtprocess.AddrEntryFunc] = func(p *sbtprocess.Process) {}
	img.functions[sbtprocess.AddrSaveGameFunc] = func(p *sbtprocess.Process) {}
	f.Exec("game.exe", "")
	_ = p

	if got := f.SaveGame(); got != facade.SaveBlocked {
		t.Fatalf("SaveGame() while not parked in main loop = %v, want BLOCKED", got)
	}
}

