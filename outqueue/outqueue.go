// Package outqueue buffers the three kinds of output translated code
// produces — CGA frame captures, real-time delays, and speaker edge
// timestamps — converting CPU-cycle timestamps into millisecond
// delays and draining them to host callbacks in original event order.
package outqueue

import (
	"github.com/scanlime-collective/roboodyssey/render"
	"github.com/scanlime-collective/roboodyssey/rerrors"
)

const (
	// CPUClockHz is the reference 8086 clock rate the game's timing
	// constants and sound synthesis are both derived from.
	CPUClockHz = 4770000

	// CPUClocksPerSample is the cycle count one PCM sample represents.
	CPUClocksPerSample = 200

	// AudioHz is the derived PCM sample rate.
	AudioHz = CPUClockHz / CPUClocksPerSample

	// AudioBufferSeconds bounds one synthesized sound effect's length.
	AudioBufferSeconds = 10

	// AudioBufferSamples is the PCM scratch buffer's fixed capacity.
	AudioBufferSamples = AudioHz * AudioBufferSeconds

	// MaxBufferedFrames bounds the separate CGA frame ring.
	MaxBufferedFrames = 128

	// MaxBufferedEvents bounds the item ring (delays, speaker edges,
	// and frame markers).
	MaxBufferedEvents = 16384

	clocksPerMsec = (CPUClockHz + 500) / 1000
)

type itemType int

const (
	itemCGAFrame itemType = iota
	itemDelay
	itemSpeakerTimestamp
)

type item struct {
	kind      itemType
	timestamp uint32 // valid for itemSpeakerTimestamp
	delay     uint32 // valid for itemDelay
}

// itemRing is a fixed-capacity FIFO of queued output items.
type itemRing struct {
	buf        [MaxBufferedEvents]item
	head, size int
}

func (r *itemRing) clear()      { r.head, r.size = 0, 0 }
func (r *itemRing) empty() bool { return r.size == 0 }
func (r *itemRing) full() bool  { return r.size == MaxBufferedEvents }

func (r *itemRing) pushBack(it item) bool {
	if r.full() {
		return false
	}
	r.buf[(r.head+r.size)%MaxBufferedEvents] = it
	r.size++
	return true
}

func (r *itemRing) backIndex() int { return (r.head + r.size - 1) % MaxBufferedEvents }

func (r *itemRing) front() item { return r.buf[r.head] }

func (r *itemRing) popFront() item {
	it := r.buf[r.head]
	r.head = (r.head + 1) % MaxBufferedEvents
	r.size--
	return it
}

// frameRing is a fixed-capacity FIFO of queued CGA framebuffer
// captures, kept separate from itemRing so a burst of frames never
// fragments the (much larger) item ring.
type frameRing struct {
	buf        [MaxBufferedFrames]render.CGAFramebuffer
	head, size int
}

func (r *frameRing) clear()      { r.head, r.size = 0, 0 }
func (r *frameRing) empty() bool { return r.size == 0 }
func (r *frameRing) full() bool  { return r.size == MaxBufferedFrames }

func (r *frameRing) pushBack(fb *render.CGAFramebuffer) {
	r.buf[(r.head+r.size)%MaxBufferedFrames] = *fb
	r.size++
}

func (r *frameRing) popFront() *render.CGAFramebuffer {
	fb := &r.buf[r.head]
	r.head = (r.head + 1) % MaxBufferedFrames
	r.size--
	return fb
}

// Queue buffers CGA frames, delays, and speaker edges emitted by
// translated code's video and sound interrupts, converting timestamps
// to delays and draining buffered events to host callbacks in order.
type Queue struct {
	Draw *render.RGBDraw

	items  itemRing
	frames frameRing

	frameskipValue   uint32
	frameskipCounter uint32
	frameCounter     uint32

	referenceTimestamp uint32

	pcmSamples [AudioBufferSamples]int8

	// OnRenderFrame receives each expanded RGB frame's backbuffer,
	// subject to frame skip. The slice is reused between calls; copy
	// it if retaining it past the callback's return.
	OnRenderFrame func(backbuffer []uint32)

	// OnRenderSound receives a synthesized PCM buffer (signed 8-bit
	// samples) and its sample rate.
	OnRenderSound func(samples []int8, sampleRate int)
}

// New creates a cleared output queue rendering into draw.
func New(draw *render.RGBDraw) *Queue {
	q := &Queue{Draw: draw}
	q.Clear()
	return q
}

// Clear drops all buffered frames and items and resets the frame
// counter, as happens on exec and on game-load.
func (q *Queue) Clear() {
	q.items.clear()
	q.frames.clear()
	q.frameCounter = 0
}

// SetFrameSkip sets how many frames are expanded-but-not-delivered
// between each delivered frame.
func (q *Queue) SetFrameSkip(n uint32) { q.frameskipValue = n }

// SetTimeReference anchors the next delay computation's elapsed-time
// baseline.
func (q *Queue) SetTimeReference(timestamp uint32) { q.referenceTimestamp = timestamp }

// FrameCount returns the number of frames delivered (not skipped) so
// far.
func (q *Queue) FrameCount() uint32 { return q.frameCounter }

// Occupancy returns how many items are currently buffered in the item
// ring, for diagnostics overlays reporting queue depth.
func (q *Queue) Occupancy() int { return q.items.size }

// PushFrameCGA enqueues a captured CGA framebuffer, copying it into
// the frame ring. Panics if either ring is full — the original treats
// this as an unrecoverable stuck-loop condition, since translated
// code producing frames faster than the host drains them indicates an
// infinite loop.
func (q *Queue) PushFrameCGA(timestamp uint32, fb *render.CGAFramebuffer) {
	if q.frames.full() || q.items.full() {
		panic(rerrors.Errorf("outqueue: frame queue is too deep, infinite loop likely"))
	}

	q.pushDelayInternal(timestamp, 0)
	q.items.pushBack(item{kind: itemCGAFrame})
	q.frames.pushBack(fb)
}

// DrawFrameRGB synchronously renders the current backbuffer content
// immediately, without going through the frame ring. Used for
// one-shot captures (screenshots) rather than the normal play loop.
func (q *Queue) DrawFrameRGB(timestamp uint32) {
	q.pushDelayInternal(timestamp, 0)
	q.renderFrame()
}

// PushDelay converts the CPU cycles elapsed between the queue's
// reference timestamp and timestamp (an absolute cycle count), plus an
// explicit extra millis, into a queued delay, merging with a pending
// tail delay when possible.
func (q *Queue) PushDelay(timestamp, millis uint32) {
	q.pushDelayInternal(timestamp, millis)
}

func (q *Queue) pushDelayInternal(timestamp, millis uint32) {
	elapsedClocks := timestamp - q.referenceTimestamp
	elapsedMsec := (elapsedClocks + clocksPerMsec/2) / clocksPerMsec
	q.referenceTimestamp += elapsedMsec * clocksPerMsec
	millis += elapsedMsec

	if millis == 0 {
		return
	}

	if !q.items.empty() {
		i := q.items.backIndex()
		if q.items.buf[i].kind == itemDelay {
			q.items.buf[i].delay += millis
			return
		}
	}

	if !q.items.full() {
		q.items.pushBack(item{kind: itemDelay, delay: millis})
	}
}

// PushSpeakerTimestamp enqueues one speaker edge at timestamp. Panics
// if the item ring is full, the same unrecoverable-stuck-loop
// condition PushFrameCGA guards against.
func (q *Queue) PushSpeakerTimestamp(timestamp uint32) {
	if q.items.full() {
		panic(rerrors.Errorf("outqueue: speaker queue is too deep, infinite loop likely"))
	}

	if q.items.empty() || q.items.buf[q.items.backIndex()].kind != itemSpeakerTimestamp {
		q.pushDelayInternal(timestamp, 0)
	}

	q.items.pushBack(item{kind: itemSpeakerTimestamp, timestamp: timestamp})
}

func (q *Queue) dequeueCGAFrame() {
	fb := q.frames.popFront()
	q.Draw.ExpandCGAFrame(fb)
}

func (q *Queue) renderFrame() {
	if q.frameskipCounter < q.frameskipValue {
		q.frameskipCounter++
		return
	}
	q.frameskipCounter = 0
	if q.OnRenderFrame != nil {
		q.OnRenderFrame(q.Draw.Backbuffer)
	}
	q.frameCounter++
}

// renderSoundEffect consumes a run of speaker edges starting at
// firstTimestamp, synthesizing a PCM buffer where the signal starts at
// "1" and toggles on each edge, holding its value for
// (cycles_between_edges / CPUClocksPerSample) samples.
func (q *Queue) renderSoundEffect(firstTimestamp uint32) {
	previousTimestamp := firstTimestamp
	nextSample := int8(1)
	sampleCount := 0
	clocksRemaining := int32(0)

	for sampleCount < AudioBufferSamples && clocksRemaining >= 0 {
		q.pcmSamples[sampleCount] = nextSample
		clocksRemaining -= CPUClocksPerSample
		sampleCount++

		if clocksRemaining < 0 {
			if q.items.empty() || q.items.front().kind != itemSpeakerTimestamp {
				break
			}
			it := q.items.popFront()
			clocksRemaining += int32(it.timestamp - previousTimestamp)
			previousTimestamp = it.timestamp
			nextSample = 1 - nextSample
		}
	}

	if q.OnRenderSound != nil {
		q.OnRenderSound(q.pcmSamples[:sampleCount], AudioHz)
	}
}

// Run drains buffered items until the queue empties (returning 0) or
// a delay is reached (returning its millisecond count, a hint that
// the host should sleep that long before calling Run again).
func (q *Queue) Run() uint32 {
	for !q.items.empty() {
		it := q.items.popFront()

		switch it.kind {
		case itemCGAFrame:
			q.dequeueCGAFrame()
			q.renderFrame()

		case itemDelay:
			return it.delay

		case itemSpeakerTimestamp:
			q.renderSoundEffect(it.timestamp)
		}
	}
	return 0
}
