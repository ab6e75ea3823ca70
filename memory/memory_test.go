package memory_test

import (
	"testing"

	"github.com/scanlime-collective/roboodyssey/memory"
)

func TestPeekPoke8(t *testing.T) {
	var m memory.Space
	m.Poke8(0x1000, 0x10, 0xAB)
	if got := m.Peek8(0x1000, 0x10); got != 0xAB {
		t.Fatalf("Peek8 = %02x, want ab", got)
	}
}

func TestPeekPoke16LittleEndian(t *testing.T) {
	var m memory.Space
	m.Poke16(0x1000, 0x10, 0x1234)
	seg := m.Seg(0x1000)
	if seg[0x10] != 0x34 || seg[0x11] != 0x12 {
		t.Fatalf("expected little-endian bytes 34 12, got %02x %02x", seg[0x10], seg[0x11])
	}
	if got := m.Peek16(0x1000, 0x10); got != 0x1234 {
		t.Fatalf("Peek16 = %04x, want 1234", got)
	}
}

func TestSegClampsToMaxSegment(t *testing.T) {
	var m memory.Space
	over := m.Seg(0xFFFF)
	atMax := m.Seg(memory.MaxSegment)
	if len(over) != len(atMax) {
		t.Fatalf("Seg(0xFFFF) was not clamped to MaxSegment")
	}
}

func TestSegLeavesRoomForFullOffsetRange(t *testing.T) {
	var m memory.Space
	seg := m.Seg(memory.MaxSegment)
	// must not panic: the highest legal offset into the highest segment.
	_ = seg[0xFFFF]
}

func TestClear(t *testing.T) {
	var m memory.Space
	b := m.Bytes()
	for i := range b[:0x100] {
		b[i] = 0xFF
	}
	m.Clear(0, 0x100)
	for i, v := range b[:0x100] {
		if v != 0 {
			t.Fatalf("byte %d not cleared: %02x", i, v)
		}
	}
}

func TestRead16LEWrite16LE(t *testing.T) {
	b := make([]byte, 2)
	memory.Write16LE(b, 0xBEEF)
	if b[0] != 0xEF || b[1] != 0xBE {
		t.Fatalf("Write16LE wrote %02x %02x, want ef be", b[0], b[1])
	}
	if got := memory.Read16LE(b); got != 0xBEEF {
		t.Fatalf("Read16LE = %04x, want beef", got)
	}
}
