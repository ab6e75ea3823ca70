// Package sbtprocess models the runtime for one statically-translated
// executable: its register state, shadow stack, and the cooperative
// continuation scheme translated code uses in place of the original's
// setjmp/longjmp yield point.
//
// A continuation is just a Go function; yielding to a new one is a
// panic carrying a yield signal, caught by the frame that started the
// current run. This reproduces the original's one-shot non-local jump
// without needing goroutines: Run and Call are the only two places a
// continuation is ever entered, and both install the same recover.
package sbtprocess

import (
	"reflect"

	"github.com/scanlime-collective/roboodyssey/logger"
	"github.com/scanlime-collective/roboodyssey/memory"
	"github.com/scanlime-collective/roboodyssey/rerrors"
	"github.com/scanlime-collective/roboodyssey/shadowstack"
	"github.com/scanlime-collective/roboodyssey/vcpu"
)

// AddressID names a statically-known address, code or data, that the
// offline translator recorded for an executable.
type AddressID int

const (
	AddrEntryFunc AddressID = iota
	AddrSaveGameFunc
	AddrWorldData
	AddrCircuitData
	AddrRobotDataMain
	AddrRobotDataGrabber

	// AddrLoadChipFunc is referenced by the hardware facade's chip
	// loader but absent from the committed address enum; supplied here
	// as the sixth address id its caller expects.
	AddrLoadChipFunc
)

// ContinueFunc is a labeled resumption point inside a translated
// executable. Invoking it runs translated code until it either returns
// normally or calls Process.ContinueFrom to yield to a different one.
type ContinueFunc func(p *Process)

// Image is implemented by one translated executable (game.exe, lab.exe,
// the title menu, ...). It supplies everything SBT86 determined
// statically: the packed data image, load addresses, and the address
// table a process looks up code and data offsets through.
type Image interface {
	Filename() string

	// Data is the RLE-zero packed data image, decompressed into the
	// data segment by Exec.
	Data() []byte
	RelocSegment() uint16
	EntryCS() uint16

	// Address resolves a data offset recorded for id, relative to the
	// data segment, reporting false if this executable never resolved
	// one. Used by gamedata views to locate World/Circuit/robot tables
	// inside process memory.
	Address(id AddressID) (uint16, bool)

	// Function resolves a continuation recorded for id, or nil if this
	// executable doesn't export one.
	Function(id AddressID) ContinueFunc

	// LoadEnvironment prepares a fresh shadow stack and segment caches
	// before reg's continuation is entered.
	LoadEnvironment(stack *shadowstack.Stack, reg vcpu.Registers)
}

// HardwareBus is the subset of the hardware facade a continuation needs
// in order to call into DOS/BIOS services and ports. Defined here,
// rather than depending on the facade package, so sbtprocess has no
// dependency on its own caller.
type HardwareBus interface {
	Interrupt10(p *Process)
	Interrupt16(p *Process)
	Interrupt21(p *Process)
	In(port uint16, timestamp uint32) uint8
	Out(port uint16, value uint8, timestamp uint32)
}

// Process is one translated executable's live state: its registers,
// shadow stack, and the current/default continuation pair the original
// tracked across setjmp/longjmp boundaries.
type Process struct {
	Reg   vcpu.Registers
	Stack shadowstack.Stack

	Mem      *memory.Space
	Hardware HardwareBus
	Image    Image

	continueFunc ContinueFunc
	defaultFunc  ContinueFunc
	defaultReg   vcpu.Registers
}

type yieldSignal struct {
	reg      vcpu.Registers
	fn       ContinueFunc
	toDefault bool
}

func sameContinuation(a, b ContinueFunc) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return reflect.ValueOf(a).Pointer() == reflect.ValueOf(b).Pointer()
}

func decompressRLE(dst, src []byte) {
	zeroes := 0
	si, di := 0, 0
	for si < len(src) {
		b := src[si]
		si++
		dst[di] = b
		di++
		if b != 0 {
			zeroes = 0
			continue
		}
		zeroes++
		if zeroes == 2 {
			zeroes = 0
			skip := int(src[si]) | int(src[si+1])<<8
			si += 2
			di += skip
		}
	}
}

// Exec resets this process to its entry point: registers are zeroed,
// the BIOS data area and everything from the data segment upward are
// cleared, the packed data image is decompressed into the data
// segment, and a Program Segment Prefix is built at es = ds-0x10. The
// entry continuation becomes both the current and default continuation.
func (p *Process) Exec(cmdLine string) {
	p.Reg = vcpu.Registers{}
	p.Reg.DS = p.Image.RelocSegment()
	p.Reg.CS = p.Image.EntryCS()
	p.continueFunc = p.Image.Function(AddrEntryFunc)

	p.Mem.Clear(0, 0x600)
	dataBase := uint32(p.Reg.DS) << 4
	p.Mem.Clear(dataBase, memory.Size)

	decompressRLE(p.Mem.Seg(p.Reg.DS), p.Image.Data())

	p.Reg.ES = p.Reg.DS - 0x10
	psp := p.Mem.Seg(p.Reg.ES)
	for i := 0; i < 0x80; i++ {
		psp[i] = 0
	}
	psp[0x80] = byte(len(cmdLine))
	for i := 0x81; i <= 0xFF; i++ {
		psp[i] = 0x0D
	}
	copy(psp[0x81:0x100], cmdLine)

	p.defaultFunc = p.continueFunc
	p.defaultReg = p.Reg
}

// enter installs a fresh shadow stack and runs fn, catching a yield
// signal raised by ContinueFrom. When fallbackToDefault is set, a
// normal return (no yield) resets the continuation and registers to
// the process's default.
func (p *Process) enter(fn ContinueFunc, fallbackToDefault bool) {
	if p.Hardware == nil {
		panic(rerrors.Errorf("sbtprocess: hardware must be set before running a process"))
	}

	p.Stack.Reset()
	p.Image.LoadEnvironment(&p.Stack, p.Reg)

	normal := true
	func() {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			y, ok := r.(yieldSignal)
			if !ok {
				panic(r)
			}
			normal = false
			p.Reg = y.reg
			p.continueFunc = y.fn
			if y.toDefault {
				p.defaultFunc = y.fn
				p.defaultReg = y.reg
			}
		}()
		fn(p)
	}()

	if normal && fallbackToDefault {
		p.continueFunc = p.defaultFunc
		p.Reg = p.defaultReg
	}
}

// Run enters the current continuation. If it returns normally, the
// process falls back to its default continuation and registers for
// the next Run.
func (p *Process) Run() {
	p.enter(p.continueFunc, true)
}

// Call invokes a single exported function synchronously with the given
// registers, without disturbing the process's main continuation unless
// the function itself yields via ContinueFrom. Used to drive save/load
// and chip-loading helpers while the main loop is parked.
func (p *Process) Call(id AddressID, reg vcpu.Registers) {
	fn := p.Image.Function(id)
	if fn == nil {
		panic(rerrors.Errorf("sbtprocess: call to unexported address id %d", id))
	}
	p.Reg = reg
	p.enter(fn, false)
}

// HasFunction reports whether this process's image exports id.
func (p *Process) HasFunction(id AddressID) bool {
	return p.Image.Function(id) != nil
}

// IsWaitingInMainLoop reports whether the process is parked at its
// default continuation, and that continuation isn't simply the entry
// point it hasn't left yet.
func (p *Process) IsWaitingInMainLoop() bool {
	return sameContinuation(p.continueFunc, p.defaultFunc) &&
		!sameContinuation(p.continueFunc, p.Image.Function(AddrEntryFunc))
}

// ContinueFrom yields out of the current continuation, recording fn and
// regs as what should run next. If defaultEntry is set, fn and regs
// also become the process's default continuation. It never returns.
func (p *Process) ContinueFrom(reg vcpu.Registers, fn ContinueFunc, defaultEntry bool) {
	if fn == nil {
		panic(rerrors.Errorf("sbtprocess: continueFrom requires a non-nil continuation"))
	}
	panic(yieldSignal{reg: reg, fn: fn, toDefault: defaultEntry})
}

func continueAfterExit(p *Process) {
	panic(rerrors.Errorf("sbtprocess: continuing to run an exited process"))
}

// Exit leaves the process by yielding to a guard continuation that
// panics if the process is ever run again without a fresh Exec.
func (p *Process) Exit() {
	p.ContinueFrom(p.Reg, continueAfterExit, false)
}

// FailedDynamicBranch reports and aborts on a computed jump/call whose
// target wasn't one of the translator's statically known destinations.
func (p *Process) FailedDynamicBranch(cs, ip uint16, value uint32) {
	logger.Logf("sbtprocess", "failed dynamic branch at %04x:%04x, to %x", cs, ip, value)
	p.Stack.Trace()
	panic(rerrors.Errorf("%w: %04x:%04x to %x", rerrors.ErrDynamicBranch, cs, ip, value))
}

// DataSegment returns the raw bytes of this process's data segment, the
// same memory Exec decompressed the packed image into. gamedata views
// slice into this to overlay typed tables at their recorded addresses.
func (p *Process) DataSegment() []byte {
	return p.Mem.Seg(p.Reg.DS)
}

// Address resolves id against this process's image, relative to the
// data segment.
func (p *Process) Address(id AddressID) (uint16, bool) {
	return p.Image.Address(id)
}

// Peek8 reads a byte from process memory.
func (p *Process) Peek8(seg, off uint16) uint8 { return p.Mem.Peek8(seg, off) }

// Poke8 writes a byte to process memory.
func (p *Process) Poke8(seg, off uint16, v uint8) { p.Mem.Poke8(seg, off, v) }

// Peek16 reads a little-endian word from process memory.
func (p *Process) Peek16(seg, off uint16) uint16 { return p.Mem.Peek16(seg, off) }

// Poke16 writes a little-endian word to process memory.
func (p *Process) Poke16(seg, off uint16, v uint16) { p.Mem.Poke16(seg, off, v) }
