package dosfs_test

import (
	"errors"
	"testing"

	"github.com/scanlime-collective/roboodyssey/dosfs"
	"github.com/scanlime-collective/roboodyssey/rerrors"
)

func newFS() *dosfs.DOSFilesystem {
	joyfile := make([]byte, 16)
	packed := []FileInfoList{
		{"ADDER.CSV", []byte("adder-data")},
	}
	return dosfs.New(joyfile, func() ([]dosfs.FileInfo, error) {
		out := make([]dosfs.FileInfo, len(packed))
		for i, p := range packed {
			out[i] = dosfs.FileInfo{Name: p.name, Data: p.data}
		}
		return out, nil
	})
}

type FileInfoList struct {
	name string
	data []byte
}

func TestOpenReadSaveFileInitiallyEmpty(t *testing.T) {
	fs := newFS()
	fd, err := fs.Open(dosfs.SaveFileName)
	if err != nil {
		t.Fatalf("unexpected error opening save file: %v", err)
	}
	buf := make([]byte, 16)
	if n := fs.Read(fd, buf); n != 0 {
		t.Fatalf("expected 0 bytes from an empty save file, got %d", n)
	}
}

func TestCreateWriteCloseSaveFile(t *testing.T) {
	fs := newFS()
	var notified bool
	fs.OnSaveFileWrite = func() { notified = true }

	fd, err := fs.Create(dosfs.SaveFileName)
	if err != nil {
		t.Fatalf("unexpected error creating save file: %v", err)
	}
	n := fs.Write(fd, []byte("hello"))
	if n != 5 {
		t.Fatalf("Write returned %d, want 5", n)
	}
	fs.Close(fd)
	if !notified {
		t.Fatal("expected OnSaveFileWrite to fire for a write-opened save file")
	}

	fd, err = fs.Open(dosfs.SaveFileName)
	if err != nil {
		t.Fatalf("unexpected error reopening save file: %v", err)
	}
	buf := make([]byte, 5)
	if n := fs.Read(fd, buf); n != 5 || string(buf) != "hello" {
		t.Fatalf("read back %q (%d bytes), want hello", buf[:n], n)
	}
}

func TestCloseWithoutWriteDoesNotNotify(t *testing.T) {
	fs := newFS()
	var notified bool
	fs.OnSaveFileWrite = func() { notified = true }

	fd, _ := fs.Open(dosfs.SaveFileName)
	fs.Close(fd)
	if notified {
		t.Fatal("did not expect OnSaveFileWrite on a read-opened save file")
	}
}

func TestWriteNonSaveFileIsFatal(t *testing.T) {
	fs := newFS()
	fd, err := fs.Open(dosfs.JoyFileName)
	if err != nil {
		t.Fatalf("unexpected error opening joyfile: %v", err)
	}

	defer func() {
		if recover() == nil {
			t.Fatal("expected a panic writing to a non-save file")
		}
	}()
	fs.Write(fd, []byte("x"))
}

func TestCreateNonSaveFileFails(t *testing.T) {
	fs := newFS()
	_, err := fs.Create("adder.csv")
	if err == nil {
		t.Fatal("expected an error creating a non-save file")
	}
}

func TestOpenUnknownFileReturnsError(t *testing.T) {
	fs := newFS()
	fd, err := fs.Open("nonexistent.bin")
	if fd >= 0 || err == nil {
		t.Fatalf("expected negative fd and error, got fd=%d err=%v", fd, err)
	}
	if !errors.Is(err, rerrors.ErrUnknownFile) {
		t.Fatalf("expected ErrUnknownFile, got %v", err)
	}
}

func TestOpenPackedFileCaseInsensitive(t *testing.T) {
	fs := newFS()
	fd, err := fs.Open("adder.csv")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	buf := make([]byte, 32)
	n := fs.Read(fd, buf)
	if string(buf[:n]) != "adder-data" {
		t.Fatalf("read %q, want adder-data", buf[:n])
	}
}

func TestReadClampsAtEOF(t *testing.T) {
	fs := newFS()
	fd, _ := fs.Open("adder.csv")
	buf := make([]byte, 1024)
	n := fs.Read(fd, buf)
	if n != len("adder-data") {
		t.Fatalf("first read returned %d bytes, want %d", n, len("adder-data"))
	}
	if n2 := fs.Read(fd, buf); n2 != 0 {
		t.Fatalf("read past EOF returned %d bytes, want a silent short read of 0", n2)
	}
}

func TestDescriptorTableExhaustionIsFatal(t *testing.T) {
	fs := newFS()
	defer func() {
		if recover() == nil {
			t.Fatal("expected a panic once the descriptor table is exhausted")
		}
	}()
	for i := 0; i < dosfs.MaxOpenFiles+1; i++ {
		fs.Open(dosfs.JoyFileName)
	}
}
