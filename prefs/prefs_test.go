package prefs_test

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/scanlime-collective/roboodyssey/prefs"
)

func tmpPrefsFile(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "roboodyssey_prefs_test")
}

func readFile(t *testing.T, fn string) string {
	t.Helper()
	data, err := os.ReadFile(fn)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	return string(data)
}

func TestBoolSaveAndLoad(t *testing.T) {
	fn := tmpPrefsFile(t)

	dsk, err := prefs.NewDisk(fn)
	if err != nil {
		t.Fatalf("NewDisk: %v", err)
	}

	v := prefs.NewBool()
	w := prefs.NewBool()
	x := prefs.NewBool()
	must(t, dsk.Add("test", v))
	must(t, dsk.Add("testB", w))
	must(t, dsk.Add("testC", x))

	must(t, v.Set(true))
	must(t, w.Set("foo")) // not "true" -> false, no error
	must(t, x.Set("true"))

	must(t, dsk.Save())

	got := readFile(t, fn)
	want := fmt.Sprintf("%s\ntest :: true\ntestB :: false\ntestC :: true\n", prefs.WarningBoilerPlate)
	if got != want {
		t.Fatalf("got:\n%s\nwant:\n%s", got, want)
	}

	must(t, v.Set(false))
	must(t, w.Set(true))
	must(t, x.Set(false))
	must(t, dsk.Load())
	if !v.Get() || w.Get() || !x.Get() {
		t.Fatalf("after Load: test=%v testB=%v testC=%v, want true false true", v.Get(), w.Get(), x.Get())
	}
}

func TestIntRejectsUnparsableAndWrongType(t *testing.T) {
	v := prefs.NewInt()
	if err := v.Set(10); err != nil {
		t.Fatalf("Set(10): %v", err)
	}
	if v.Get() != 10 {
		t.Fatalf("Get() = %d, want 10", v.Get())
	}
	if err := v.Set("99"); err != nil {
		t.Fatalf("Set(\"99\"): %v", err)
	}
	if v.Get() != 99 {
		t.Fatalf("Get() = %d, want 99", v.Get())
	}
	if err := v.Set("---"); err == nil {
		t.Fatal("expected an error parsing a non-numeric string")
	}
	if err := v.Set(1.0); err == nil {
		t.Fatal("expected an error setting an int from a float64")
	}
}

func TestFloatRejectsUnparsableString(t *testing.T) {
	v := prefs.NewFloat()
	if err := v.Set("bar"); err == nil {
		t.Fatal("expected an error parsing a non-numeric string")
	}
	if err := v.Set(1.5); err != nil {
		t.Fatalf("Set(1.5): %v", err)
	}
	if v.Get() != 1.5 {
		t.Fatalf("Get() = %v, want 1.5", v.Get())
	}
}

func TestStringMaxLenCropsExistingAndFutureValues(t *testing.T) {
	s := prefs.NewString()
	must(t, s.Set("123456789"))
	if s.String() != "123456789" {
		t.Fatalf("String() = %q", s.String())
	}

	s.SetMaxLen(5)
	if s.String() != "12345" {
		t.Fatalf("String() after SetMaxLen(5) = %q, want %q", s.String(), "12345")
	}

	s.SetMaxLen(0)
	if s.String() != "12345" {
		t.Fatalf("String() after SetMaxLen(0) = %q, want unchanged %q", s.String(), "12345")
	}

	s.SetMaxLen(3)
	must(t, s.Set("abcdefghi"))
	if s.String() != "abc" {
		t.Fatalf("String() after cropped Set = %q, want %q", s.String(), "abc")
	}
}

func TestGenericRoundTripsThroughDisk(t *testing.T) {
	fn := tmpPrefsFile(t)
	dsk, err := prefs.NewDisk(fn)
	if err != nil {
		t.Fatalf("NewDisk: %v", err)
	}

	var w, h int
	g := prefs.NewGeneric(
		func(v any) error {
			_, err := fmt.Sscanf(v.(string), "%d,%d", &w, &h)
			return err
		},
		func() any { return fmt.Sprintf("%d,%d", w, h) },
	)
	must(t, dsk.Add("resolution", g))

	w, h = 320, 200
	must(t, dsk.Save())

	w, h = 0, 0
	must(t, dsk.Load())

	if w != 320 || h != 200 {
		t.Fatalf("after Load: w=%d h=%d, want 320,200", w, h)
	}
}

func TestLoadIgnoresUnknownKeysAndMissingFile(t *testing.T) {
	fn := tmpPrefsFile(t)
	dsk, err := prefs.NewDisk(fn)
	if err != nil {
		t.Fatalf("NewDisk: %v", err)
	}
	if err := dsk.Load(); err != nil {
		t.Fatalf("Load on a missing file should be a no-op, got: %v", err)
	}

	v := prefs.NewBool()
	must(t, dsk.Add("known", v))
	must(t, v.Set(true))
	must(t, dsk.Save())

	// A second disk that only knows about a different key should load
	// without error, leaving its own entries untouched.
	dsk2, err := prefs.NewDisk(fn)
	if err != nil {
		t.Fatalf("NewDisk: %v", err)
	}
	w := prefs.NewInt()
	must(t, dsk2.Add("other", w))
	if err := dsk2.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if w.Get() != 0 {
		t.Fatalf("Get() = %d, want 0 (key not present in file)", w.Get())
	}
}

func must(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
