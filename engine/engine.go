// Package engine is the GUI-agnostic core a host wraps: it owns the
// shared hardware facade, the registered processes, the output
// rendering pipeline, and the engine-level preferences, and exposes
// the host callback/entry-point surface a presentation layer drives.
package engine

import (
	"github.com/scanlime-collective/roboodyssey/archive"
	"github.com/scanlime-collective/roboodyssey/dosfs"
	"github.com/scanlime-collective/roboodyssey/facade"
	"github.com/scanlime-collective/roboodyssey/gamedata"
	"github.com/scanlime-collective/roboodyssey/inputbuf"
	"github.com/scanlime-collective/roboodyssey/loader"
	"github.com/scanlime-collective/roboodyssey/memory"
	"github.com/scanlime-collective/roboodyssey/outqueue"
	"github.com/scanlime-collective/roboodyssey/prefs"
	"github.com/scanlime-collective/roboodyssey/render"
	"github.com/scanlime-collective/roboodyssey/rerrors"
	"github.com/scanlime-collective/roboodyssey/sbtprocess"
)

// DefaultDebugStuckLoopThreshold is how many consecutive empty Step
// calls (no delay, no event) the engine tolerates before treating the
// running process as stuck.
const DefaultDebugStuckLoopThreshold = 100000

// Engine composes one hardware facade, its rendering pipeline, and the
// persisted engine-level preferences. A host builds an Engine, calls
// RegisterProcess for every translated executable it ships, then
// drives it entirely through Step and the host entry points below.
type Engine struct {
	Facade *facade.Facade
	Colors *render.ColorTable
	Draw   *render.RGBDraw
	Output *outqueue.Queue
	Input  *inputbuf.Buffer
	FS     *dosfs.DOSFilesystem

	prefsDisk *prefs.Disk

	speed                   *prefs.Value[float64]
	frameSkip               *prefs.Value[int]
	cheatsEnabled           *prefs.Value[bool]
	audioStereo             *prefs.Value[bool]
	debugStuckLoopThreshold *prefs.Value[int]

	stuckCounter int

	// OnLoadChipRequest, OnProcessExit, OnRenderFrame, OnRenderSound
	// and OnSaveFileWrite are forwarded straight through to the
	// collaborators that already define them; set them directly on
	// Facade, Output, or FS instead of duplicating them here.
}

// New builds an Engine around a packed game file archive and a
// joyfile record, with default preferences. Call RegisterProcess for
// every process image before calling Exec.
func New(packedArchive []byte, packedUncompressedSize int, joyfile []byte) *Engine {
	colors := render.NewColorTable()
	draw := render.NewRGBDraw(colors)
	output := outqueue.New(draw)
	input := inputbuf.New()
	fs := dosfs.New(joyfile, archive.LazyLoader(packedArchive, packedUncompressedSize))
	fac := facade.New(fs, input, output)

	e := &Engine{
		Facade: fac,
		Colors: colors,
		Draw:   draw,
		Output: output,
		Input:  input,
		FS:     fs,

		speed:                   prefs.NewFloat(),
		frameSkip:               prefs.NewInt(),
		cheatsEnabled:           prefs.NewBool(),
		audioStereo:             prefs.NewBool(),
		debugStuckLoopThreshold: prefs.NewInt(),
	}

	_ = e.speed.Set(1.0)
	_ = e.frameSkip.Set(0)
	_ = e.cheatsEnabled.Set(false)
	_ = e.audioStereo.Set(true)
	_ = e.debugStuckLoopThreshold.Set(DefaultDebugStuckLoopThreshold)
	e.Output.SetFrameSkip(0)

	return e
}

// LoadPrefs registers the engine-level preferences against a Disk
// rooted at filename (typically prefs.JoinPath("prefs")) and loads any
// saved values, applying them to the live collaborators that consume
// them.
func (e *Engine) LoadPrefs(filename string) error {
	dsk, err := prefs.NewDisk(filename)
	if err != nil {
		return rerrors.Errorf("engine: load prefs: %w", err)
	}
	if err := dsk.Add("speed", e.speed); err != nil {
		return rerrors.Errorf("engine: load prefs: %w", err)
	}
	if err := dsk.Add("frameSkip", e.frameSkip); err != nil {
		return rerrors.Errorf("engine: load prefs: %w", err)
	}
	if err := dsk.Add("cheatsEnabled", e.cheatsEnabled); err != nil {
		return rerrors.Errorf("engine: load prefs: %w", err)
	}
	if err := dsk.Add("audioStereo", e.audioStereo); err != nil {
		return rerrors.Errorf("engine: load prefs: %w", err)
	}
	if err := dsk.Add("debugStuckLoopThreshold", e.debugStuckLoopThreshold); err != nil {
		return rerrors.Errorf("engine: load prefs: %w", err)
	}

	if err := dsk.Load(); err != nil {
		return rerrors.Errorf("engine: load prefs: %w", err)
	}
	e.prefsDisk = dsk

	e.Output.SetFrameSkip(uint32(e.frameSkip.Get()))
	e.applyCheats()
	return nil
}

// SavePrefs persists the current engine-level preferences, if
// LoadPrefs was called to register them with a Disk.
func (e *Engine) SavePrefs() error {
	if e.prefsDisk == nil {
		return nil
	}
	if err := e.prefsDisk.Save(); err != nil {
		return rerrors.Errorf("engine: save prefs: %w", err)
	}
	return nil
}

// RegisterProcess adds p to the set Exec can switch to, wiring it to
// this engine's shared facade.
func (e *Engine) RegisterProcess(p *sbtprocess.Process) {
	p.Hardware = e.Facade
	e.Facade.RegisterProcess(p)
}

// RegisterImage is a convenience wrapper creating and registering a
// sbtprocess.Process from an already-built loader.Image sharing this
// engine's memory space.
func (e *Engine) RegisterImage(mem *memory.Space, img *loader.Image) *sbtprocess.Process {
	p := &sbtprocess.Process{Mem: mem, Image: img}
	e.RegisterProcess(p)
	return p
}

func (e *Engine) applyCheats() {
	joy := gamedata.NewJoyFile(e.FS.JoyfileBytes())
	joy.SetCheatsEnabled(e.cheatsEnabled.Get())
}

// Exec is the host entry point that runs program, passing args on its
// simulated command line.
func (e *Engine) Exec(program, args string) {
	e.Output.Clear()
	e.Facade.Exec(program, args)
}

// SetSpeed is the host entry point scaling how long Step's returned
// delay is held; speed 1.0 is realtime, 0 suspends the main loop until
// a new event arrives (see Step).
func (e *Engine) SetSpeed(v float64) { _ = e.speed.Set(v) }

// PressKey is the host entry point forwarding one keystroke.
func (e *Engine) PressKey(ascii, scancode uint8) { e.Input.PressKey(ascii, scancode) }

// SetJoystickAxes is the host entry point forwarding analog joystick
// position, each axis in -1..1.
func (e *Engine) SetJoystickAxes(fx, fy float64) { e.Input.SetJoystickAxes(fx, fy) }

// SetJoystickButton is the host entry point forwarding the joystick
// button's current state.
func (e *Engine) SetJoystickButton(pressed bool) { e.Input.SetJoystickButton(pressed) }

// SetMouseTracking is the host entry point forwarding an absolute
// mouse position used for virtual-joystick tracking.
func (e *Engine) SetMouseTracking(x, y int) { e.Input.SetMouseTracking(x, y) }

// SetMouseButton is the host entry point forwarding the mouse
// button's current state.
func (e *Engine) SetMouseButton(pressed bool) { e.Input.SetMouseButton(pressed) }

// EndMouseTracking is the host entry point ending virtual-joystick
// mouse tracking.
func (e *Engine) EndMouseTracking() { e.Input.EndMouseTracking() }

// SaveGame is the host entry point asking the current process to
// export its state to the filesystem's save buffer.
func (e *Engine) SaveGame() facade.SaveStatus { return e.Facade.SaveGame() }

// LoadGame is the host entry point loading whatever the filesystem's
// save buffer currently holds.
func (e *Engine) LoadGame() bool { return e.Facade.LoadGame() }

// SetCheatsEnabled is the host entry point toggling cheat codes,
// persisted as both an engine preference and the joyfile's cheat
// control byte so a running process observes the change immediately.
func (e *Engine) SetCheatsEnabled(enabled bool) {
	_ = e.cheatsEnabled.Set(enabled)
	joy := gamedata.NewJoyFile(e.FS.JoyfileBytes())
	joy.SetCheatsEnabled(enabled)
}

// PackSaveFile is the host entry point returning the filesystem's
// current save buffer verbatim, the uncompressed wire format a host
// writes to a .GSV/.LSV file.
func (e *Engine) PackSaveFile() []byte {
	buf := e.FS.SaveBytes()
	out := make([]byte, len(buf))
	copy(out, buf)
	return out
}

// ScreenshotSaveFile is the host entry point returning a snapshot of
// the filesystem's current save buffer, optionally TinySave-compressed
// against dict (see archive.BuildDictionary).
func (e *Engine) ScreenshotSaveFile(dict []byte, compressed bool) ([]byte, error) {
	raw := e.PackSaveFile()
	if !compressed {
		return raw, nil
	}
	return archive.NewTinySave(dict).Compress(raw)
}

// LoadCompressedSaveFile decompresses a TinySave buffer against dict
// and installs it as the filesystem's current save buffer, ready for
// LoadGame.
func (e *Engine) LoadCompressedSaveFile(dict []byte, compressed []byte) error {
	raw, err := archive.NewTinySave(dict).Decompress(compressed)
	if err != nil {
		return rerrors.Errorf("engine: load compressed save: %w", err)
	}
	e.FS.ResetSaveSize()
	e.FS.InstallSaveBytes(raw)
	return nil
}

// Step is the engine's single main-step entry: it runs the current
// process until one of the three suspension points spec'd for the
// scheduling model is reached (an enqueued delay/CGA frame, a
// continuation yield, or a process exit), drains whatever outqueue
// work that produced, and returns how many milliseconds the host
// should wait before calling Step again.
//
// A speed of 0 suspends the main loop: Step returns false immediately
// without running anything, and the host is expected to wait for a
// new event (a host entry point call) before calling Step again. Any
// other speed scales the returned delay by 1/speed.
func (e *Engine) Step() (delayMillis uint32, running bool) {
	if e.speed.Get() == 0 {
		return 0, false
	}

	if e.Facade.Process != nil {
		e.Facade.Process.Run()
	}

	delay := e.Output.Run()
	if delay == 0 {
		e.stuckCounter++
		if e.stuckCounter >= e.debugStuckLoopThreshold.Get() {
			panic(rerrors.Errorf("%w: %d consecutive empty steps", rerrors.ErrStuckLoop, e.stuckCounter))
		}
	} else {
		e.stuckCounter = 0
	}

	scaled := float64(delay) / e.speed.Get()
	return uint32(scaled), e.Facade.Process != nil
}
