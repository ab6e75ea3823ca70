// Package shadowstack implements the typed call/value stack translated
// code pushes onto independently of the emulated sp register. Every
// slot is tagged with the kind of value it holds so pops can assert
// they're unwinding what they expect.
package shadowstack

import (
	"fmt"

	"github.com/scanlime-collective/roboodyssey/logger"
	"github.com/scanlime-collective/roboodyssey/rerrors"
	"github.com/scanlime-collective/roboodyssey/vcpu"
)

// Capacity is the number of slots in the stack. Overflow is fatal.
const Capacity = 512

// RetVerification is the sentinel word preSaveRet stores in place of a
// return address so postRestoreRet can detect corruption.
const RetVerification = 0xBEEF

// CallThreshold bounds the number of pushret calls tolerated within a
// single reentry before the runtime assumes a translated loop is stuck
// and aborts with a trace.
const CallThreshold = 100000

// Tag identifies what kind of value occupies a stack slot.
type Tag uint8

const (
	TagInvalid Tag = iota
	TagWord
	TagFlags
	TagRetAddr
)

func (t Tag) String() string {
	switch t {
	case TagWord:
		return "word"
	case TagFlags:
		return "flags"
	case TagRetAddr:
		return "retaddr"
	default:
		return "invalid"
	}
}

type flagsSlot struct {
	uresult uint32
	sresult int32
}

// Stack is a fixed-capacity, tagged call/value stack. The zero value is
// not ready for use; call Reset before pushing.
type Stack struct {
	top   int
	tags  [Capacity]Tag
	words [Capacity]uint16
	flags [Capacity]flagsSlot
	fns   [Capacity]uint16

	totalCalls int
}

// Reset empties the stack and zeroes the call counter, as happens each
// time a process installs a fresh stack in run/call.
func (s *Stack) Reset() {
	s.top = 0
	s.totalCalls = 0
}

// Trace writes a slot-by-slot dump to the logger, used when a stuck
// loop or tag mismatch is detected.
func (s *Stack) Trace() {
	logger.Log("shadowstack", "--- stack trace:")
	for i := 0; i < s.top; i++ {
		switch s.tags[i] {
		case TagWord:
			logger.Logf("shadowstack", "[%d] word %04x", i, s.words[i])
		case TagFlags:
			logger.Logf("shadowstack", "[%d] flags u=%08x s=%08x", i, s.flags[i].uresult, s.flags[i].sresult)
		case TagRetAddr:
			logger.Logf("shadowstack", "[%d] ret fn=%04x", i, s.fns[i])
		default:
			logger.Logf("shadowstack", "[%d] BAD TAG %d", i, s.tags[i])
		}
	}
	logger.Log("shadowstack", "---")
}

func (s *Stack) overflow() {
	s.Trace()
	panic(rerrors.Errorf("shadowstack: overflow"))
}

func (s *Stack) tagMismatch(want, got Tag) {
	s.Trace()
	panic(rerrors.Errorf("shadowstack: tag mismatch, want %s got %s", want, got))
}

// PushWord pushes a plain 16-bit value.
func (s *Stack) PushWord(word uint16) {
	if s.top >= Capacity {
		s.overflow()
	}
	s.words[s.top] = word
	s.tags[s.top] = TagWord
	s.top++
}

// PushFlags saves the lazy-flag words from reg.
func (s *Stack) PushFlags(reg *vcpu.Registers) {
	if s.top >= Capacity {
		s.overflow()
	}
	s.flags[s.top] = flagsSlot{uresult: reg.Uresult, sresult: reg.Sresult}
	s.tags[s.top] = TagFlags
	s.top++
}

// PushRet records a call to fn and increments the stuck-loop counter.
// It aborts with a trace if the counter passes CallThreshold.
func (s *Stack) PushRet(fn uint16) {
	s.totalCalls++
	if s.totalCalls > CallThreshold {
		logger.Logf("shadowstack", "over %d calls since entry, infinite loop?", CallThreshold)
		s.Trace()
		panic(rerrors.Errorf("%w: %d calls since entry", rerrors.ErrStuckLoop, s.totalCalls))
	}
	if s.top >= Capacity {
		s.overflow()
	}
	s.fns[s.top] = fn
	s.tags[s.top] = TagRetAddr
	s.top++
}

// PopWord pops a value pushed by PushWord.
func (s *Stack) PopWord() uint16 {
	s.top--
	if got := s.tags[s.top]; got != TagWord {
		s.tagMismatch(TagWord, got)
	}
	return s.words[s.top]
}

// PopFlags restores the lazy-flag words pushed by PushFlags into reg.
func (s *Stack) PopFlags(reg *vcpu.Registers) {
	s.top--
	if got := s.tags[s.top]; got != TagFlags {
		s.tagMismatch(TagFlags, got)
	}
	reg.Uresult = s.flags[s.top].uresult
	reg.Sresult = s.flags[s.top].sresult
}

// PopRet pops a return marker pushed by PushRet. fn is the function the
// caller believes it is returning from; a mismatch is logged but not
// fatal, matching the original's trace-only consistency check.
func (s *Stack) PopRet(fn uint16) {
	s.top--
	if got := s.tags[s.top]; got != TagRetAddr {
		s.tagMismatch(TagRetAddr, got)
	}
	if s.fns[s.top] != fn {
		logger.Log("shadowstack", fmt.Sprintf("stack mismatch, expected %04x got %04x", s.fns[s.top], fn))
	}
}

// PreSaveRet converts the top-of-stack return marker into a tagged word
// holding RetVerification, for routines that must temporarily stash
// their own return address and later restore it.
func (s *Stack) PreSaveRet() {
	top := s.top - 1
	if got := s.tags[top]; got != TagRetAddr {
		s.tagMismatch(TagRetAddr, got)
	}
	s.words[top] = RetVerification
	s.tags[top] = TagWord
}

// PostRestoreRet reverses PreSaveRet, asserting the verification value
// survived untouched before converting the slot back to a return marker.
func (s *Stack) PostRestoreRet() {
	top := s.top - 1
	if got := s.tags[top]; got != TagWord {
		s.tagMismatch(TagWord, got)
	}
	if s.words[top] != RetVerification {
		panic(rerrors.Errorf("shadowstack: retaddr verification mismatch"))
	}
	s.tags[top] = TagRetAddr
}

// Depth reports the current number of occupied slots, used by
// diagnostics overlays.
func (s *Stack) Depth() int {
	return s.top
}

// TotalCalls reports the pushret count since the last Reset.
func (s *Stack) TotalCalls() int {
	return s.totalCalls
}
