// Command roboodyssey is the reference host binary: it wires one
// engine.Engine to a chosen presentation backend (present/sdl or
// present/gl), an optional diagnostics overlay, dashboard and sound
// capture, and drives the main step loop until the user quits or an
// OS signal arrives. Grounded on the teacher's top-level gopher2600.go,
// which performs the same job for its own emulator: flag parsing with
// a dedicated FlagSet, a goroutine-free path for anything that must
// run on the thread SDL was initialized on, and os/signal-based
// shutdown.
//
// Registering an actual translated game process is the embedding
// application's job (see engine.Engine.RegisterImage): a deployment
// links its generated loader.Image and continuation tables into a copy
// of this main package. Run standalone, roboodyssey exercises the
// whole host loop — presentation, input, diagnostics, save/load — with
// no process occupying the facade.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	imgui "github.com/inkyblackness/imgui-go/v4"
	"golang.org/x/sys/unix"

	"github.com/scanlime-collective/roboodyssey/diagnostics"
	"github.com/scanlime-collective/roboodyssey/diagnostics/console"
	"github.com/scanlime-collective/roboodyssey/diagnostics/soundcapture"
	"github.com/scanlime-collective/roboodyssey/engine"
	"github.com/scanlime-collective/roboodyssey/gamedata"
	"github.com/scanlime-collective/roboodyssey/logger"
	"github.com/scanlime-collective/roboodyssey/outqueue"
	"github.com/scanlime-collective/roboodyssey/present/bootchime"
	"github.com/scanlime-collective/roboodyssey/present/debugui"
	glpresent "github.com/scanlime-collective/roboodyssey/present/gl"
	sdlpresent "github.com/scanlime-collective/roboodyssey/present/sdl"
	"github.com/scanlime-collective/roboodyssey/prefs"
	"github.com/scanlime-collective/roboodyssey/rerrors"
)

// options holds the parsed command line, mirroring the teacher's
// debugger.CommandLineOptions struct bound from a single FlagSet.
type options struct {
	renderer      string
	debug         bool
	dashboard     bool
	dashboardAddr string
	capture       string
	archivePath   string
	archiveSize   int
	joyfilePath   string
	chimePath     string
	zoom          int
	speed         float64
	cheats        bool
}

// backend is the minimal presentation surface the main loop drives;
// present/sdl.Window and present/gl.Window both satisfy it.
type backend interface {
	Present(backbuffer []uint32) error
	PollEvents() (quit bool)
	Close()
}

func main() {
	os.Exit(run(os.Args[1:], os.Stderr))
}

func run(args []string, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		fmt.Fprintln(stderr, err)
		return 2
	}

	if err := launch(opts, stderr); err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	return 0
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var opts options
	flgs := flag.NewFlagSet("roboodyssey", flag.ContinueOnError)
	flgs.SetOutput(stderr)

	flgs.StringVar(&opts.renderer, "renderer", "sdl", "presentation backend: sdl or gl")
	flgs.BoolVar(&opts.debug, "debug", false, "enable the diagnostics overlay")
	flgs.BoolVar(&opts.dashboard, "dashboard", false, "serve a localhost statsview dashboard")
	flgs.StringVar(&opts.dashboardAddr, "dashboard-addr", "localhost:18066", "dashboard listen address")
	flgs.StringVar(&opts.capture, "capture", "", "record PCM output to this .wav file")
	flgs.StringVar(&opts.archivePath, "archive", "", "path to the packed game file archive")
	flgs.IntVar(&opts.archiveSize, "archive-size", 0, "uncompressed size of the packed archive")
	flgs.StringVar(&opts.joyfilePath, "joyfile", "", "path to a joyfile.joy record (defaults built-in)")
	flgs.StringVar(&opts.chimePath, "chime", "", "path to an MP3 boot jingle")
	flgs.IntVar(&opts.zoom, "zoom", 2, "window scale factor")
	flgs.Float64Var(&opts.speed, "speed", 1.0, "initial playback speed; 0 pauses the main loop")
	flgs.BoolVar(&opts.cheats, "cheats", false, "enable cheat codes")

	if err := flgs.Parse(args); err != nil {
		return options{}, err
	}
	return opts, nil
}

func launch(opts options, stderr io.Writer) error {
	archiveBytes, err := readOptional(opts.archivePath)
	if err != nil {
		return rerrors.Errorf("roboodyssey: read archive: %w", err)
	}
	joyfileBytes, err := readOptional(opts.joyfilePath)
	if err != nil {
		return rerrors.Errorf("roboodyssey: read joyfile: %w", err)
	}
	if len(joyfileBytes) == 0 {
		joyfileBytes = gamedata.NewDefaultJoyFile().Bytes()
	}

	e := engine.New(archiveBytes, opts.archiveSize, joyfileBytes)

	prefsFile, err := prefs.JoinPath("prefs")
	if err != nil {
		return rerrors.Errorf("roboodyssey: prefs path: %w", err)
	}
	if err := e.LoadPrefs(prefsFile); err != nil {
		return rerrors.Errorf("roboodyssey: load prefs: %w", err)
	}
	defer func() {
		if err := e.SavePrefs(); err != nil {
			fmt.Fprintln(stderr, err)
		}
	}()

	e.SetSpeed(opts.speed)
	e.SetCheatsEnabled(opts.cheats)

	var win backend
	var audioSink bootchime.AudioSink
	var sdlWin *sdlpresent.Window

	switch opts.renderer {
	case "sdl":
		w, err := sdlpresent.New("roboodyssey", opts.zoom, outqueueSampleRate())
		if err != nil {
			return rerrors.Errorf("roboodyssey: present/sdl: %w", err)
		}
		sdlWin = w
		win = w
		audioSink = w
	case "gl":
		w, err := glpresent.New("roboodyssey", opts.zoom)
		if err != nil {
			return rerrors.Errorf("roboodyssey: present/gl: %w", err)
		}
		win = w
	default:
		return rerrors.Errorf("roboodyssey: unknown -renderer %q (want sdl or gl)", opts.renderer)
	}
	defer win.Close()

	var rec *soundcapture.Recorder
	if opts.capture != "" {
		rec, err = soundcapture.Create(opts.capture, outqueueSampleRate())
		if err != nil {
			return rerrors.Errorf("roboodyssey: capture: %w", err)
		}
		defer func() {
			if err := rec.Close(); err != nil {
				fmt.Fprintln(stderr, err)
			}
		}()
	}

	overlay := debugui.New()
	defer overlay.Destroy()
	overlay.SetVisible(opts.debug)

	var dash *diagnostics.Dashboard
	if opts.dashboard {
		dash = diagnostics.NewDashboard()
		dash.Start(opts.dashboardAddr)
	}

	e.Output.OnRenderFrame = func(backbuffer []uint32) {
		if err := win.Present(backbuffer); err != nil {
			logger.Log("present", err)
		}
	}
	e.Output.OnRenderSound = func(samples []int8, sampleRate int) {
		if audioSink != nil {
			if err := audioSink.QueueAudio(samples); err != nil {
				logger.Log("present", err)
			}
		}
		if rec != nil {
			if err := rec.WriteSamples(samples); err != nil {
				logger.Log("soundcapture", err)
			}
		}
	}
	e.FS.OnSaveFileWrite = func() {
		logger.Log("dosfs", "save file written")
	}
	e.Facade.OnProcessExit = func(code uint8) {
		logger.Logf("facade", "process exited with code %d", code)
	}
	e.Facade.OnLoadChipRequest = func(id uint8) {
		logger.Logf("facade", "chip load requested: %d", id)
	}

	if opts.chimePath != "" {
		chime, err := readOptional(opts.chimePath)
		if err != nil {
			return rerrors.Errorf("roboodyssey: read chime: %w", err)
		}
		if audioSink != nil {
			if err := bootchime.Play(chime, audioSink); err != nil {
				fmt.Fprintln(stderr, err)
			}
		}
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, unix.SIGTERM)
	defer signal.Stop(sigCh)

	return mainLoop(e, win, overlay, dash, sdlWin, sigCh, stderr)
}

func mainLoop(e *engine.Engine, win backend, overlay *debugui.Overlay, dash *diagnostics.Dashboard,
	sdlWin *sdlpresent.Window, sigCh <-chan os.Signal, stderr io.Writer) error {
	for {
		select {
		case <-sigCh:
			return nil
		default:
		}

		if win.PollEvents() {
			return nil
		}
		if sdlWin != nil {
			if x, y, ok := sdlWin.JoystickAxes(); ok {
				e.SetJoystickAxes(x, y)
			}
			if pressed, ok := sdlWin.JoystickButton(); ok {
				e.SetJoystickButton(pressed)
			}
		}

		delay, running, err := stepOnce(e, stderr)
		if err != nil {
			return err
		}

		stackDepth, totalCalls := 0, 0
		if e.Facade.Process != nil {
			stackDepth = e.Facade.Process.Stack.Depth()
			totalCalls = e.Facade.Process.Stack.TotalCalls()
		}

		if overlay.Visible() {
			imgui.NewFrame()
			overlay.Draw(debugui.Stats{
				StackDepth:     stackDepth,
				TotalCalls:     totalCalls,
				QueueOccupancy: e.Output.Occupancy(),
				FrameCount:     e.Output.FrameCount(),
				Speed:          delayToSpeed(delay),
			})
			imgui.Render()
		}
		if dash != nil {
			dash.Update(e.Output.Occupancy(), e.Output.FrameCount(), totalCalls, engine.DefaultDebugStuckLoopThreshold)
		}

		if !running && delay == 0 {
			time.Sleep(5 * time.Millisecond)
			continue
		}
		if delay > 0 {
			time.Sleep(time.Duration(delay) * time.Millisecond)
		}
	}
}

// stepOnce runs one Step, recovering a rerrors.ErrStuckLoop panic into
// an interactive console prompt: choosing to continue resets the
// engine's stuck counter and lets the main loop carry on, choosing to
// abort returns the stuck error to the caller. Any other panic is
// re-raised, matching the rest of this repo's fatal-condition
// convention.
func stepOnce(e *engine.Engine, stderr io.Writer) (delay uint32, running bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			stuck, ok := r.(error)
			if !ok || !errors.Is(stuck, rerrors.ErrStuckLoop) {
				panic(r)
			}
			err = handleStuckLoop(e, stuck, stderr)
		}
	}()

	delay, running = e.Step()
	return delay, running, nil
}

func handleStuckLoop(e *engine.Engine, stuck error, stderr io.Writer) error {
	c, openErr := console.Open()
	if openErr != nil {
		return rerrors.Errorf("roboodyssey: stuck loop and console unavailable: %w", stuck)
	}
	defer func() {
		if err := c.Close(); err != nil {
			fmt.Fprintln(stderr, err)
		}
	}()

	abort, err := c.StuckLoopPrompt(stuck.Error())
	if err != nil {
		return rerrors.Errorf("roboodyssey: stuck loop prompt: %w", err)
	}
	if abort {
		return stuck
	}
	return nil
}

func delayToSpeed(delay uint32) float64 {
	if delay == 0 {
		return 0
	}
	return 1000.0 / float64(delay)
}

func readOptional(path string) ([]byte, error) {
	if path == "" {
		return nil, nil
	}
	return os.ReadFile(path)
}

func outqueueSampleRate() int {
	return outqueue.AudioHz
}
