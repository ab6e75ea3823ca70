// Package gl is an alternate presentation backend to present/sdl: it
// opens its own SDL/OpenGL window and blits the engine's RGBA
// backbuffer as a textured quad instead of going through an SDL
// renderer, exercising the same frame-stream contract from a second
// backend. Selected with the CLI's -renderer=gl flag.
package gl

import (
	"runtime"

	gl "github.com/go-gl/gl/v2.1/gl"
	sdl "github.com/veandco/go-sdl2/sdl"

	"github.com/scanlime-collective/roboodyssey/render"
	"github.com/scanlime-collective/roboodyssey/rerrors"
)

// Window owns an SDL window with an OpenGL context and one texture
// holding the most recently presented frame.
type Window struct {
	window  *sdl.Window
	glCtx   sdl.GLContext
	texture uint32
}

// New creates and shows an OpenGL-backed window sized to the
// backbuffer's dimensions scaled by windowZoom. Grounded on the
// teacher's sdlwindows.newPlatform context-creation sequence, using
// the compatibility profile so the quad blit below can stay in
// immediate mode rather than needing a shader/VAO pipeline.
func New(title string, windowZoom int) (*Window, error) {
	runtime.LockOSThread()

	if err := sdl.Init(sdl.INIT_VIDEO); err != nil {
		return nil, rerrors.Errorf("present/gl: init: %w", err)
	}

	_ = sdl.GLSetAttribute(sdl.GL_CONTEXT_MAJOR_VERSION, 2)
	_ = sdl.GLSetAttribute(sdl.GL_CONTEXT_MINOR_VERSION, 1)
	_ = sdl.GLSetAttribute(sdl.GL_DOUBLEBUFFER, 1)

	window, err := sdl.CreateWindow(title,
		sdl.WINDOWPOS_CENTERED, sdl.WINDOWPOS_CENTERED,
		int32(render.ScreenWidth*windowZoom), int32(render.ScreenHeight*windowZoom),
		sdl.WINDOW_OPENGL|sdl.WINDOW_SHOWN)
	if err != nil {
		sdl.Quit()
		return nil, rerrors.Errorf("present/gl: create window: %w", err)
	}

	ctx, err := window.GLCreateContext()
	if err != nil {
		_ = window.Destroy()
		sdl.Quit()
		return nil, rerrors.Errorf("present/gl: create context: %w", err)
	}
	if err := window.GLMakeCurrent(ctx); err != nil {
		sdl.GLDeleteContext(ctx)
		_ = window.Destroy()
		sdl.Quit()
		return nil, rerrors.Errorf("present/gl: make current: %w", err)
	}
	if err := gl.Init(); err != nil {
		sdl.GLDeleteContext(ctx)
		_ = window.Destroy()
		sdl.Quit()
		return nil, rerrors.Errorf("present/gl: init gl: %w", err)
	}
	_ = sdl.GLSetSwapInterval(1)

	w := &Window{window: window, glCtx: ctx}
	gl.GenTextures(1, &w.texture)
	gl.BindTexture(gl.TEXTURE_2D, w.texture)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
	gl.Enable(gl.TEXTURE_2D)

	return w, nil
}

// Present uploads backbuffer (ScreenWidth*ScreenHeight packed 0xAABBGGRR
// pixels) into the texture and draws a full-window textured quad.
// Returns a nil error; the signature matches present/sdl.Window.Present
// so a CLI can treat either backend as the same interface.
func (w *Window) Present(backbuffer []uint32) error {
	gl.BindTexture(gl.TEXTURE_2D, w.texture)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA, render.ScreenWidth, render.ScreenHeight, 0,
		gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(backbuffer))

	gl.Clear(gl.COLOR_BUFFER_BIT)
	gl.Begin(gl.QUADS)
	gl.TexCoord2f(0, 1)
	gl.Vertex2f(-1, -1)
	gl.TexCoord2f(1, 1)
	gl.Vertex2f(1, -1)
	gl.TexCoord2f(1, 0)
	gl.Vertex2f(1, 1)
	gl.TexCoord2f(0, 0)
	gl.Vertex2f(-1, 1)
	gl.End()

	w.window.GLSwap()
	return nil
}

// PollEvents drains the SDL event queue, reporting whether the user
// asked to quit.
func (w *Window) PollEvents() (quit bool) {
	for {
		ev := sdl.PollEvent()
		if ev == nil {
			return quit
		}
		if _, ok := ev.(*sdl.QuitEvent); ok {
			quit = true
		}
	}
}

// Close releases every resource this window opened.
func (w *Window) Close() {
	if w.texture != 0 {
		gl.DeleteTextures(1, &w.texture)
		w.texture = 0
	}
	if w.glCtx != nil {
		sdl.GLDeleteContext(w.glCtx)
		w.glCtx = nil
	}
	if w.window != nil {
		_ = w.window.Destroy()
		w.window = nil
	}
	sdl.Quit()
}
