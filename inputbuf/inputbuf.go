// Package inputbuf buffers host-originated input — key presses,
// joystick axes, and a virtual mouse that steers the joystick toward
// a target screen position — for consumption by the translated
// executable's Int 16h/21h handlers and its joystick poll routine.
package inputbuf

import "github.com/scanlime-collective/roboodyssey/gamedata"

const (
	// KeyBufferSize bounds the key event FIFO. A push past capacity is
	// silently dropped, matching a physical keyboard buffer overrun.
	KeyBufferSize = 32

	// MouseBufferSize bounds the virtual-mouse event FIFO.
	MouseBufferSize = 8

	// MouseDelayOnRoomChange is how many polls of buffered mouse
	// motion are suppressed right after the player changes rooms.
	MouseDelayOnRoomChange = 4

	// MouseGain scales pixel distance-to-target into joystick
	// deflection for the virtual mouse.
	MouseGain = 0.07

	// JoystickRangeMin/Max bound quantized joystick deflection; values
	// inside the dead zone collapse to zero.
	JoystickRangeMin = 3
	JoystickRangeMax = 10
)

type keyRing struct {
	buf        [KeyBufferSize]uint16
	head, size int
}

func (r *keyRing) clear()      { r.head, r.size = 0, 0 }
func (r *keyRing) empty() bool { return r.size == 0 }
func (r *keyRing) full() bool  { return r.size == KeyBufferSize }

func (r *keyRing) pushBack(v uint16) {
	if r.full() {
		return
	}
	r.buf[(r.head+r.size)%KeyBufferSize] = v
	r.size++
}

func (r *keyRing) front() uint16 { return r.buf[r.head] }

func (r *keyRing) popFront() uint16 {
	v := r.buf[r.head]
	r.head = (r.head + 1) % KeyBufferSize
	r.size--
	return v
}

type mouseEventType int

const (
	evtPos mouseEventType = iota
	evtButton
)

// MouseEvent is one buffered virtual-mouse command: move toward (X,Y)
// or set the button to X != 0.
type MouseEvent struct {
	Type mouseEventType
	X, Y int
}

type mouseRing struct {
	buf        [MouseBufferSize]MouseEvent
	head, size int
}

func (r *mouseRing) clear()      { r.head, r.size = 0, 0 }
func (r *mouseRing) empty() bool { return r.size == 0 }
func (r *mouseRing) full() bool  { return r.size == MouseBufferSize }

func (r *mouseRing) pushBack(e MouseEvent) {
	if r.full() {
		return
	}
	r.buf[(r.head+r.size)%MouseBufferSize] = e
	r.size++
}

func (r *mouseRing) front() MouseEvent { return r.buf[r.head] }

func (r *mouseRing) popFront() MouseEvent {
	e := r.buf[r.head]
	r.head = (r.head + 1) % MouseBufferSize
	r.size--
	return e
}

func (r *mouseRing) backIndex() int { return (r.head + r.size - 1) % MouseBufferSize }

// Buffer is the complete input state the hardware facade delegates
// to: a key FIFO, joystick axis/button latches, and a virtual mouse
// that drives the joystick axes toward buffered target positions.
type Buffer struct {
	keys  keyRing
	mouse mouseRing

	jsX, jsY                     float64
	jsResidualX, jsResidualY     float64
	jsButtonPressed, jsButtonHeld bool

	savedPlayerX, savedPlayerY int
	savedPlayerRoom            gamedata.RoomID
	mouseDelayTimer            int
}

// New returns a cleared input buffer.
func New() *Buffer {
	b := &Buffer{
		savedPlayerX:    -1,
		savedPlayerY:    -1,
		savedPlayerRoom: gamedata.RoomNone,
	}
	b.Clear()
	return b
}

// Clear drops all key and mouse state, as happens on process exec.
func (b *Buffer) Clear() {
	b.keys.clear()
	b.mouse.clear()
	b.jsX, b.jsY = 0, 0
	b.jsResidualX, b.jsResidualY = 0, 0
	b.jsButtonPressed, b.jsButtonHeld = false, false
}

// CheckForInputBacklog reports whether more than one key event is
// waiting, used by the host to speed through input-bound waits.
func (b *Buffer) CheckForInputBacklog() bool { return b.keys.size > 1 }

// PressKey enqueues one key event as a combined (scancode<<8)|ascii
// code. Dropped silently if the key buffer is full.
func (b *Buffer) PressKey(ascii, scancode uint8) {
	b.keys.pushBack(uint16(scancode)<<8 | uint16(ascii))
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// SetJoystickAxes sets real joystick deflection in [-1,1] on each
// axis, discarding any pending virtual-mouse motion.
func (b *Buffer) SetJoystickAxes(x, y float64) {
	b.mouse.clear()
	b.jsX = clampFloat(x, -1, 1) * JoystickRangeMax
	b.jsY = clampFloat(y, -1, 1) * JoystickRangeMax
}

// SetJoystickButton latches a real joystick button press. held
// reflects the current state; pressed stays set until the next poll
// consumes it, so a tap shorter than one poll is still observed.
func (b *Buffer) SetJoystickButton(pressed bool) {
	b.mouse.clear()
	b.jsButtonHeld = pressed
	b.jsButtonPressed = b.jsButtonPressed || pressed
}

// SetMouseTracking enqueues (or updates the pending) target position
// for the virtual mouse to steer the joystick toward.
func (b *Buffer) SetMouseTracking(x, y int) {
	if !b.mouse.empty() {
		i := b.mouse.backIndex()
		if b.mouse.buf[i].Type == evtPos {
			b.mouse.buf[i].X = x
			b.mouse.buf[i].Y = y
			return
		}
	}
	if b.mouse.full() {
		// Something is wrong or stuck; drop the backlog.
		b.mouse.clear()
	}
	b.mouse.pushBack(MouseEvent{Type: evtPos, X: x, Y: y})
}

// SetMouseButton enqueues a one-frame virtual button press or release.
func (b *Buffer) SetMouseButton(pressed bool) {
	if b.mouse.full() {
		return
	}
	v := 0
	if pressed {
		v = 1
	}
	b.mouse.pushBack(MouseEvent{Type: evtButton, X: v})
}

// EndMouseTracking drops all buffered virtual-mouse state and zeroes
// the joystick axes it was driving.
func (b *Buffer) EndMouseTracking() {
	b.mouse.clear()
	b.jsX, b.jsY = 0, 0
	b.jsButtonPressed, b.jsButtonHeld = false, false
}

// CheckForKey peeks the next key event without dequeuing it, or 0 if
// none is pending.
func (b *Buffer) CheckForKey() uint16 {
	if b.keys.empty() {
		return 0
	}
	return b.keys.front()
}

// GetKey dequeues the next key event, or 0 if none is pending.
func (b *Buffer) GetKey() uint16 {
	if b.keys.empty() {
		return 0
	}
	return b.keys.popFront()
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// PollJoystick produces a port-0x201-style reading: x/y are the
// joystick's two axis positions (0..center*2), and status packs the
// button state into its upper nibble, active low. world is used to
// drive the virtual mouse and detect room changes; it may be nil when
// no process with a known World layout is running.
func (b *Buffer) PollJoystick(world *gamedata.World) (x, y uint16, status uint8) {
	b.updateMouse(world)

	totalX := b.jsX + b.jsResidualX
	totalY := b.jsY + b.jsResidualY

	qx := int(totalX)
	qy := int(totalY)
	if qx < JoystickRangeMin && qx > -JoystickRangeMin {
		qx = 0
	}
	if qy < JoystickRangeMin && qy > -JoystickRangeMin {
		qy = 0
	}

	b.jsResidualX = totalX - float64(qx)
	b.jsResidualY = totalY - float64(qy)

	button := b.jsButtonHeld || b.jsButtonPressed
	b.jsButtonPressed = false

	const center = gamedata.DefaultJoystickCenter
	status = 0xFC
	if button {
		status ^= 0x10
	}
	x = uint16(clampInt(qx+center, 0, center*2))
	y = uint16(clampInt(qy+center, 0, center*2))
	return x, y, status
}

func (b *Buffer) updateMouse(world *gamedata.World) {
	if world != nil {
		room := world.GetObjectRoom(gamedata.ObjPlayer)
		if room != b.savedPlayerRoom {
			b.mouseDelayTimer = MouseDelayOnRoomChange
		}
		b.savedPlayerRoom = room
	}

	if b.mouseDelayTimer > 0 {
		b.mouseDelayTimer--
		if !b.mouse.empty() {
			b.SetJoystickAxes(0, 0)
		}
	}

	if b.mouse.empty() {
		return
	}

	evt := b.mouse.front()
	switch evt.Type {
	case evtPos:
		if b.virtualMouseToPosition(world, evt.X, evt.Y) {
			b.mouse.popFront()
		}
	case evtButton:
		b.jsButtonHeld = evt.X != 0
		b.mouse.popFront()
	}
}

// virtualMouseToPosition steers the joystick axes toward (x,y) by one
// step and reports whether the move is complete: either the player
// reached the target, or the player failed to move since the last
// poll (stuck against a wall).
func (b *Buffer) virtualMouseToPosition(world *gamedata.World, x, y int) bool {
	if world == nil {
		return true
	}

	px, py := world.GetObjectXY(gamedata.ObjPlayer)
	playerX, playerY := int(px), int(py)

	xdiff := x - playerX
	ydiff := -(y - playerY)

	switch {
	case xdiff > 0:
		b.jsX = minFloat(JoystickRangeMax, JoystickRangeMin+MouseGain*float64(xdiff-1))
	case xdiff < 0:
		b.jsX = -minFloat(JoystickRangeMax, JoystickRangeMin-MouseGain*float64(xdiff+1))
	default:
		b.jsX = 0
	}

	switch {
	case ydiff > 0:
		b.jsY = minFloat(JoystickRangeMax, JoystickRangeMin+MouseGain*float64(ydiff-1))
	case ydiff < 0:
		b.jsY = -minFloat(JoystickRangeMax, JoystickRangeMin-MouseGain*float64(ydiff+1))
	default:
		b.jsY = 0
	}

	if xdiff == 0 && ydiff == 0 {
		b.savedPlayerX = -1
		b.savedPlayerY = -1
		return true
	}

	lastX, lastY := b.savedPlayerX, b.savedPlayerY
	b.savedPlayerX, b.savedPlayerY = playerX, playerY
	return lastX == playerX && lastY == playerY
}
