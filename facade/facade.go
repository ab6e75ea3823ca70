// Package facade is the hardware the translated executables run
// against: the flat memory space, DOS/BIOS interrupt dispatch, the
// two speaker/timer I/O ports the game actually touches, and the
// save/load/chip-loading operations that drive a parked process's
// exported functions directly instead of going through its main loop.
package facade

import (
	"strings"

	"github.com/scanlime-collective/roboodyssey/dosfs"
	"github.com/scanlime-collective/roboodyssey/gamedata"
	"github.com/scanlime-collective/roboodyssey/inputbuf"
	"github.com/scanlime-collective/roboodyssey/logger"
	"github.com/scanlime-collective/roboodyssey/memory"
	"github.com/scanlime-collective/roboodyssey/outqueue"
	"github.com/scanlime-collective/roboodyssey/rerrors"
	"github.com/scanlime-collective/roboodyssey/sbtprocess"
	"github.com/scanlime-collective/roboodyssey/vcpu"
)

// SaveStatus reports the outcome of a SaveGame attempt.
type SaveStatus int

const (
	SaveOK SaveStatus = iota
	SaveNotSupported
	SaveBlocked
)

func (s SaveStatus) String() string {
	switch s {
	case SaveOK:
		return "OK"
	case SaveNotSupported:
		return "NOT_SUPPORTED"
	case SaveBlocked:
		return "BLOCKED"
	default:
		return "UNKNOWN"
	}
}

// chipFileSize is the on-disk size of a saved chip file, distinct from
// gamedata.SaveFileSize (a saved game).
const chipFileSize = 1333

// Facade is the shared hardware every registered process's interrupts
// and port I/O dispatch through: one flat memory space, one
// filesystem, one input buffer, one output queue, and the single
// process currently running.
type Facade struct {
	Mem    memory.Space
	FS     *dosfs.DOSFilesystem
	Input  *inputbuf.Buffer
	Output *outqueue.Queue

	// Process is the currently exec'ed process, or nil if none has run
	// yet.
	Process *sbtprocess.Process

	processes []*sbtprocess.Process

	port61 uint8

	// OnLoadChipRequest is called when translated code asks the host
	// to supply a specific chip (e.g. from a toolbox click).
	OnLoadChipRequest func(id uint8)

	// OnProcessExit is called with the DOS exit code when the running
	// process calls int 21h/4C.
	OnProcessExit func(code uint8)
}

// New creates a facade wired to fs, input, and output, with no process
// registered yet.
func New(fs *dosfs.DOSFilesystem, input *inputbuf.Buffer, output *outqueue.Queue) *Facade {
	return &Facade{FS: fs, Input: input, Output: output}
}

// RegisterProcess adds p to the set Exec can switch to by filename.
// Each registered process must share this facade's Mem and set
// p.Hardware to this Facade before running.
func (f *Facade) RegisterProcess(p *sbtprocess.Process) {
	f.processes = append(f.processes, p)
}

// Exec finds the registered process whose image filename matches
// program (case-insensitively) and execs it with args, becoming the
// current process. Panics if no such process was registered — the
// original treats this as a build-configuration bug, not a runtime
// condition to recover from.
func (f *Facade) Exec(program, args string) {
	for _, p := range f.processes {
		if strings.EqualFold(p.Image.Filename(), program) {
			f.Process = p
			f.FS.Reset()
			f.Input.Clear()
			p.Exec(args)
			return
		}
	}
	panic(rerrors.Errorf("facade: exec: program not registered: %q", program))
}

func (f *Facade) exit(exiting *sbtprocess.Process, code uint8) {
	f.Process = nil
	if f.OnProcessExit != nil {
		f.OnProcessExit(code)
	}
	exiting.Exit()
}

// LoadGame loads a game from the filesystem's current save buffer, if
// it holds a recognized saved game, execing the binary it names with
// the saved world selected. Reports whether a game was loaded.
func (f *Facade) LoadGame() bool {
	if !f.saveIsGame() {
		return false
	}
	save := gamedata.NewSaveFile(f.FS.SaveBytes())
	process, ok := save.ProcessName()
	if !ok {
		return false
	}
	f.Exec(process, "99")
	return true
}

// SaveGame asks the current process to export its state to the save
// buffer by calling its save-game function directly while the process
// is parked in its main loop, then validates the result looks like a
// loadable saved game.
func (f *Facade) SaveGame() SaveStatus {
	if f.Process == nil {
		return SaveNotSupported
	}
	if !f.Process.HasFunction(sbtprocess.AddrSaveGameFunc) {
		return SaveNotSupported
	}
	if !f.Process.IsWaitingInMainLoop() {
		return SaveBlocked
	}

	f.FS.ResetSaveSize()
	f.Process.Call(sbtprocess.AddrSaveGameFunc, f.Process.Reg)

	if !f.saveIsGame() {
		return SaveNotSupported
	}
	save := gamedata.NewSaveFile(f.FS.SaveBytes())
	if _, ok := save.ProcessName(); !ok {
		// The lab binary can produce saves it can't itself reload.
		return SaveNotSupported
	}
	return SaveOK
}

// LoadChip asks the current process, while parked in its main loop,
// to load chip id from the filesystem's current (chip-sized) save
// buffer. Reports whether the load was dispatched.
func (f *Facade) LoadChip(id uint8) bool {
	if f.Process == nil || !f.Process.IsWaitingInMainLoop() || !f.saveIsChip() {
		return false
	}
	reg := f.Process.Reg
	reg.DX.SetLo(id)
	f.Process.Call(sbtprocess.AddrLoadChipFunc, reg)
	return true
}

// LoadChipDocumentation boots a fresh lab binary, loads the
// filesystem's current chip into its first slot, and moves the player
// into the chip's documentation room.
func (f *Facade) LoadChipDocumentation() bool {
	if !f.saveIsChip() {
		return false
	}

	f.Exec("lab.exe", "30")
	for !f.Process.IsWaitingInMainLoop() {
		f.Process.Run()
	}

	if !f.LoadChip(0) {
		return false
	}

	addr, ok := f.Process.Address(sbtprocess.AddrWorldData)
	if !ok {
		return false
	}
	world := gamedata.NewWorld(f.Process.DataSegment()[addr:])
	world.SetObjectRoom(gamedata.ObjPlayer, gamedata.RoomChipDocumentation)
	return true
}

func (f *Facade) saveIsChip() bool { return f.FS.SaveSize() == chipFileSize }
func (f *Facade) saveIsGame() bool { return f.FS.SaveSize() == gamedata.SaveFileSize }

// RequestLoadChip forwards a translated toolbox click asking the host
// to supply a chip, reading the requested id from dl.
func (f *Facade) RequestLoadChip(reg vcpu.Registers) {
	if f.OnLoadChipRequest != nil {
		f.OnLoadChipRequest(reg.DX.Lo())
	}
}

// In implements sbtprocess.HardwareBus.
func (f *Facade) In(port uint16, timestamp uint32) uint8 {
	switch port {
	case 0x61: // PC speaker gate
		return f.port61
	default:
		panic(rerrors.Errorf("facade: unimplemented io in: port %#x", port))
	}
}

// Out implements sbtprocess.HardwareBus.
func (f *Facade) Out(port uint16, value uint8, timestamp uint32) {
	switch port {
	case 0x43: // PIT mode bits; the original never emulates the timer
	case 0x61: // PC speaker gate
		if (value^f.port61)&2 != 0 {
			f.Output.PushSpeakerTimestamp(timestamp)
		}
		f.port61 = value
	default:
		panic(rerrors.Errorf("facade: unimplemented io out: port %#x", port))
	}
}

// Interrupt10 implements sbtprocess.HardwareBus: BIOS video services.
// Only "set video mode" is ever issued, and is a no-op since the
// engine is always in CGA mode.
func (f *Facade) Interrupt10(p *sbtprocess.Process) {
	switch p.Reg.AX.Hi() {
	case 0x00: // set video mode
	default:
		logger.Logf("facade", "unimplemented int10 ah=%#02x", p.Reg.AX.Hi())
		panic(rerrors.Errorf("%w: int10 ah=%#02x", rerrors.ErrUnsupportedInterrupt, p.Reg.AX.Hi()))
	}
}

// Interrupt16 implements sbtprocess.HardwareBus: BIOS keyboard
// services.
func (f *Facade) Interrupt16(p *sbtprocess.Process) {
	switch p.Reg.AX.Hi() {
	case 0x00: // get keystroke
		v := f.Input.GetKey()
		p.Reg.AX.Set(v)
		p.Reg.SetZFFromBool(v == 0)
	case 0x01: // check for keystroke
		v := f.Input.CheckForKey()
		p.Reg.AX.Set(v)
		p.Reg.SetZFFromBool(v == 0)
	default:
		logger.Logf("facade", "unimplemented int16 ah=%#02x", p.Reg.AX.Hi())
		panic(rerrors.Errorf("%w: int16 ah=%#02x", rerrors.ErrUnsupportedInterrupt, p.Reg.AX.Hi()))
	}
}

func setResultForFD(reg *vcpu.Registers, fd int) {
	if fd < 0 {
		reg.SetCF()
		return
	}
	reg.AX.Set(uint16(fd))
	reg.ClearCF()
}

// Interrupt21 implements sbtprocess.HardwareBus: DOS services —
// console I/O, interrupt vector installation (ignored), file I/O
// against the filesystem, and process exit.
func (f *Facade) Interrupt21(p *sbtprocess.Process) {
	reg := &p.Reg

	switch reg.AX.Hi() {
	case 0x06: // direct console I/O, input only
		if reg.DX.Lo() == 0xFF {
			key := f.Input.GetKey()
			reg.AX.SetLo(uint8(key))
			reg.SetZFFromBool(key == 0)
		}

	case 0x25: // set interrupt vector; Robot Odyssey only installs int 24h's handler
		// no-op

	case 0x3D: // open file
		name := cString(p.Mem.Seg(reg.DS)[reg.DX.Get():])
		fd, err := f.FS.Open(name)
		if err != nil {
			fd = -1
		}
		setResultForFD(reg, fd)

	case 0x3C: // create file
		name := cString(p.Mem.Seg(reg.DS)[reg.DX.Get():])
		fd, err := f.FS.Create(name)
		if err != nil {
			fd = -1
		}
		setResultForFD(reg, fd)

	case 0x3E: // close file
		f.FS.Close(int(reg.BX.Get()))

	case 0x3F: // read file
		dest := p.Mem.Seg(reg.DS)[reg.DX.Get():]
		n := f.FS.Read(int(reg.BX.Get()), dest[:reg.CX.Get()])
		reg.AX.Set(uint16(n))
		reg.ClearCF()

	case 0x40: // write file
		src := p.Mem.Seg(reg.DS)[reg.DX.Get():]
		n := f.FS.Write(int(reg.BX.Get()), src[:reg.CX.Get()])
		reg.AX.Set(uint16(n))
		reg.ClearCF()

	case 0x4A: // reserve memory; no-op, the translated image is preallocated
		// no-op

	case 0x4C: // exit with return code
		f.exit(p, reg.AX.Lo())

	default:
		p.Stack.Trace()
		logger.Logf("facade", "unimplemented int21 ax=%#04x", reg.AX.Get())
		panic(rerrors.Errorf("%w: int21 ax=%#04x", rerrors.ErrUnsupportedInterrupt, reg.AX.Get()))
	}
}

func cString(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}
