// Package sdl is the reference host presentation backend: an SDL2
// window presenting the engine's RGBA backbuffer through a streaming
// texture, an SDL audio queue sink for synthesized PCM, and joystick
// HID polling feeding inputbuf.
package sdl

import (
	"runtime"

	"github.com/scanlime-collective/roboodyssey/render"
	"github.com/scanlime-collective/roboodyssey/rerrors"
	sdl "github.com/veandco/go-sdl2/sdl"
)

// Window owns the SDL window, renderer, streaming texture, and audio
// device used to present one engine's output.
type Window struct {
	window   *sdl.Window
	renderer *sdl.Renderer
	texture  *sdl.Texture
	audioDev sdl.AudioDeviceID
	joystick *sdl.Joystick

	title string
}

// New creates and shows an SDL window sized to the backbuffer's
// dimensions scaled by windowZoom, opens a default audio playback
// device at sampleRate, and opens the first attached joystick, if
// any. Must be called from the goroutine SDL was initialized on; the
// teacher's sdlwindows.newPlatform locks the OS thread for the same
// reason.
func New(title string, windowZoom int, sampleRate int) (*Window, error) {
	runtime.LockOSThread()

	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_AUDIO | sdl.INIT_JOYSTICK); err != nil {
		return nil, rerrors.Errorf("present/sdl: init: %w", err)
	}

	w := &Window{title: title}

	window, err := sdl.CreateWindow(title,
		sdl.WINDOWPOS_CENTERED, sdl.WINDOWPOS_CENTERED,
		int32(render.ScreenWidth*windowZoom), int32(render.ScreenHeight*windowZoom),
		sdl.WINDOW_SHOWN)
	if err != nil {
		sdl.Quit()
		return nil, rerrors.Errorf("present/sdl: create window: %w", err)
	}
	w.window = window

	renderer, err := sdl.CreateRenderer(window, -1, sdl.RENDERER_ACCELERATED|sdl.RENDERER_PRESENTVSYNC)
	if err != nil {
		w.Close()
		return nil, rerrors.Errorf("present/sdl: create renderer: %w", err)
	}
	w.renderer = renderer

	texture, err := renderer.CreateTexture(sdl.PIXELFORMAT_ABGR8888, sdl.TEXTUREACCESS_STREAMING,
		render.ScreenWidth, render.ScreenHeight)
	if err != nil {
		w.Close()
		return nil, rerrors.Errorf("present/sdl: create texture: %w", err)
	}
	w.texture = texture

	spec := &sdl.AudioSpec{
		Freq:     int32(sampleRate),
		Format:   sdl.AUDIO_S8,
		Channels: 1,
		Samples:  2048,
	}
	dev, err := sdl.OpenAudioDevice("", false, spec, nil, 0)
	if err != nil {
		w.Close()
		return nil, rerrors.Errorf("present/sdl: open audio device: %w", err)
	}
	w.audioDev = dev
	sdl.PauseAudioDevice(dev, false)

	if sdl.NumJoysticks() > 0 {
		w.joystick = sdl.JoystickOpen(0)
	}

	return w, nil
}

// Present uploads backbuffer (ScreenWidth*ScreenHeight packed 0xAABBGGRR
// pixels, matching render.RGBDraw's output) to the streaming texture
// and draws it to fill the window.
func (w *Window) Present(backbuffer []uint32) error {
	pixels, _, err := w.texture.Lock(nil)
	if err != nil {
		return rerrors.Errorf("present/sdl: lock texture: %w", err)
	}
	for i, px := range backbuffer {
		off := i * 4
		pixels[off] = byte(px)
		pixels[off+1] = byte(px >> 8)
		pixels[off+2] = byte(px >> 16)
		pixels[off+3] = byte(px >> 24)
	}
	w.texture.Unlock()

	_ = w.renderer.Clear()
	_ = w.renderer.Copy(w.texture, nil, nil)
	w.renderer.Present()
	return nil
}

// QueueAudio submits samples (signed 8-bit PCM, as outqueue.Queue's
// OnRenderSound callback delivers) to the open audio device.
func (w *Window) QueueAudio(samples []int8) error {
	buf := make([]byte, len(samples))
	for i, s := range samples {
		buf[i] = byte(s)
	}
	if err := sdl.QueueAudio(w.audioDev, buf); err != nil {
		return rerrors.Errorf("present/sdl: queue audio: %w", err)
	}
	return nil
}

// JoystickAxes reads the first joystick's X/Y axes, normalized to
// -1..1, suitable for forwarding to inputbuf.Buffer.SetJoystickAxes.
// Reports false if no joystick is attached.
func (w *Window) JoystickAxes() (x, y float64, ok bool) {
	if w.joystick == nil {
		return 0, 0, false
	}
	x = float64(w.joystick.Axis(0)) / 32768.0
	y = float64(w.joystick.Axis(1)) / 32768.0
	return x, y, true
}

// JoystickButton reads the first joystick's button 0 state, suitable
// for forwarding to inputbuf.Buffer.SetJoystickButton. Reports false
// if no joystick is attached.
func (w *Window) JoystickButton() (pressed, ok bool) {
	if w.joystick == nil {
		return false, false
	}
	return w.joystick.Button(0) != 0, true
}

// PollEvents drains the SDL event queue, reporting whether the user
// asked to quit (window close or Ctrl-C caught as SDL_QUIT).
func (w *Window) PollEvents() (quit bool) {
	for {
		ev := sdl.PollEvent()
		if ev == nil {
			return quit
		}
		switch ev.(type) {
		case *sdl.QuitEvent:
			quit = true
		}
	}
}

// Close releases every SDL resource this window opened.
func (w *Window) Close() {
	if w.joystick != nil {
		w.joystick.Close()
		w.joystick = nil
	}
	if w.audioDev != 0 {
		sdl.CloseAudioDevice(w.audioDev)
		w.audioDev = 0
	}
	if w.texture != nil {
		_ = w.texture.Destroy()
		w.texture = nil
	}
	if w.renderer != nil {
		_ = w.renderer.Destroy()
		w.renderer = nil
	}
	if w.window != nil {
		_ = w.window.Destroy()
		w.window = nil
	}
	sdl.Quit()
}
