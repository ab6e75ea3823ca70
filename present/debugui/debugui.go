// Package debugui is an immediate-mode diagnostic overlay drawn over
// the engine's output window: shadow-stack depth, call counter, and
// output-queue occupancy, toggled from the CLI with -debug. Grounded
// on the teacher's gui/sdlwindows.SdlWindows, which owns an
// imgui.Context alongside its SDL platform and renders widgets each
// frame from live emulator state.
package debugui

import (
	"fmt"

	imgui "github.com/inkyblackness/imgui-go/v4"
)

// Stats is the live state one frame of the overlay reads. A host
// fills this in from its engine.Engine and shadowstack.Stack before
// calling Draw.
type Stats struct {
	StackDepth     int
	TotalCalls     int
	QueueOccupancy int
	FrameCount     uint32
	Speed          float64
}

// Overlay owns the imgui context this window's debug widgets render
// through. It does not own a window or GL context itself — present/sdl
// and present/gl are each responsible for calling imgui_go's
// platform/renderer backend and invoking Draw between NewFrame and
// Render.
type Overlay struct {
	context *imgui.Context
	visible bool
}

// New creates a fresh imgui context for the overlay, initially
// hidden.
func New() *Overlay {
	return &Overlay{context: imgui.CreateContext(nil)}
}

// Destroy releases the overlay's imgui context.
func (o *Overlay) Destroy() {
	if o.context != nil {
		o.context.Destroy()
		o.context = nil
	}
}

// SetVisible toggles the overlay, mirroring the CLI's -debug flag.
func (o *Overlay) SetVisible(v bool) { o.visible = v }

// Visible reports whether the overlay is currently toggled on.
func (o *Overlay) Visible() bool { return o.visible }

// Draw renders the diagnostic widgets for one frame. The caller must
// have already called imgui.NewFrame (via its platform backend) and
// must call imgui.Render afterward.
func (o *Overlay) Draw(s Stats) {
	if !o.visible {
		return
	}

	open := true
	imgui.BeginV("roboodyssey diagnostics", &open, imgui.WindowFlagsAlwaysAutoResize)
	imgui.Text(fmt.Sprintf("shadow stack depth: %d", s.StackDepth))
	imgui.Text(fmt.Sprintf("total calls: %d", s.TotalCalls))
	imgui.Text(fmt.Sprintf("output queue occupancy: %d", s.QueueOccupancy))
	imgui.Text(fmt.Sprintf("frames delivered: %d", s.FrameCount))
	imgui.Text(fmt.Sprintf("speed: %.2fx", s.Speed))
	imgui.End()

	if !open {
		o.visible = false
	}
}
