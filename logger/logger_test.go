package logger_test

import (
	"errors"
	"testing"

	"github.com/scanlime-collective/roboodyssey/internal/rotest"
	"github.com/scanlime-collective/roboodyssey/logger"
)

func TestLogAndWrite(t *testing.T) {
	logger.Clear()
	tw := &rotest.Writer{}

	logger.Write(tw)
	if !tw.Compare("") {
		t.Fatalf("expected empty log, got %q", tw.String())
	}

	logger.Log("test", "this is a test")
	logger.Write(tw)
	if !tw.Compare("test: this is a test\n") {
		t.Fatalf("unexpected log output: %q", tw.String())
	}
}

func TestTail(t *testing.T) {
	logger.Clear()
	tw := &rotest.Writer{}

	logger.Log("a", "one")
	logger.Log("b", "two")
	logger.Log("c", "three")

	logger.Tail(tw, 2)
	if !tw.Compare("b: two\nc: three\n") {
		t.Fatalf("unexpected tail output: %q", tw.String())
	}

	tw.Clear()
	logger.Tail(tw, 100)
	if !tw.Compare("a: one\nb: two\nc: three\n") {
		t.Fatalf("over-sized tail should return everything: %q", tw.String())
	}

	tw.Clear()
	logger.Tail(tw, 0)
	if !tw.Compare("") {
		t.Fatalf("zero-sized tail should return nothing: %q", tw.String())
	}
}

func TestLogErrorAndStringer(t *testing.T) {
	logger.Clear()
	tw := &rotest.Writer{}

	logger.Log("tag", errors.New("boom"))
	logger.Write(tw)
	if !tw.Compare("tag: boom\n") {
		t.Fatalf("unexpected error log output: %q", tw.String())
	}
}

func TestLogf(t *testing.T) {
	logger.Clear()
	tw := &rotest.Writer{}

	logger.Logf("tag", "value=%d", 42)
	logger.Write(tw)
	if !tw.Compare("tag: value=42\n") {
		t.Fatalf("unexpected logf output: %q", tw.String())
	}
}
