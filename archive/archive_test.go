package archive_test

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/scanlime-collective/roboodyssey/archive"
	"github.com/scanlime-collective/roboodyssey/dosfs"
)

func TestDecompressRLEExpandsZeroRuns(t *testing.T) {
	// 0x01, then two literal zeros followed by a run of 3 more, then 0x02.
	src := []byte{0x01, 0x00, 0x00, 0x03, 0x00, 0x02}
	dst := make([]byte, 1+2+3+1)

	archive.DecompressRLE(dst, src)

	want := []byte{0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x02}
	if !bytes.Equal(dst, want) {
		t.Fatalf("got %v, want %v", dst, want)
	}
}

func buildDirectory(files []dosfs.FileInfo) []byte {
	var buf bytes.Buffer
	var countBuf [2]byte
	binary.LittleEndian.PutUint16(countBuf[:], uint16(len(files)))
	buf.Write(countBuf[:])

	for _, f := range files {
		buf.WriteByte(byte(len(f.Name)))
		buf.WriteString(f.Name)
		var sizeBuf [4]byte
		binary.LittleEndian.PutUint32(sizeBuf[:], uint32(len(f.Data)))
		buf.Write(sizeBuf[:])
	}
	for _, f := range files {
		buf.Write(f.Data)
	}
	return buf.Bytes()
}

// rleCompress is the inverse of DecompressRLE, good enough to build
// fixtures for tests without a second hand-rolled encoder living in
// the production package.
func rleCompress(src []byte) []byte {
	var out []byte
	zeroes := 0
	for i := 0; i < len(src); i++ {
		out = append(out, src[i])
		if src[i] != 0 {
			zeroes = 0
			continue
		}
		zeroes++
		if zeroes == 2 {
			zeroes = 0
			skip := 0
			for i+1 < len(src) && src[i+1] == 0 {
				skip++
				i++
			}
			var skipBuf [2]byte
			binary.LittleEndian.PutUint16(skipBuf[:], uint16(skip))
			out = append(out, skipBuf[:]...)
		}
	}
	return out
}

func TestDecodePackedArchiveSlicesFilesByPrecomputedOffsets(t *testing.T) {
	files := []dosfs.FileInfo{
		{Name: "a.csv", Data: []byte("hello")},
		{Name: "B.WLD", Data: []byte{1, 2, 3, 4}},
	}
	raw := buildDirectory(files)
	compressed := rleCompress(raw)

	dir, err := archive.DecodePackedArchive(compressed, len(raw))
	if err != nil {
		t.Fatalf("DecodePackedArchive: %v", err)
	}

	got := dir.Files()
	if len(got) != 2 {
		t.Fatalf("got %d files, want 2", len(got))
	}
	if got[0].Name != "a.csv" || string(got[0].Data) != "hello" {
		t.Fatalf("entry 0 = %+v", got[0])
	}
	if got[1].Name != "B.WLD" || !bytes.Equal(got[1].Data, []byte{1, 2, 3, 4}) {
		t.Fatalf("entry 1 = %+v", got[1])
	}
}

func TestLoaderIsCaseInsensitiveThroughDOSFilesystem(t *testing.T) {
	files := []dosfs.FileInfo{{Name: "Town.WLD", Data: []byte("map-data")}}
	raw := buildDirectory(files)
	compressed := rleCompress(raw)

	loader := archive.LazyLoader(compressed, len(raw))
	fs := dosfs.New(nil, loader)

	fd, err := fs.Open("town.wld")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	buf := make([]byte, 16)
	n := fs.Read(fd, buf)
	if string(buf[:n]) != "map-data" {
		t.Fatalf("read %q, want %q", buf[:n], "map-data")
	}
}

func TestBuildDictionaryConcatenatesTrimmedFilesInFixedOrder(t *testing.T) {
	files := make([]dosfs.FileInfo, len(archive.DictionaryFiles))
	for i, name := range archive.DictionaryFiles {
		// Pad every file's content with trailing zeroes that must be
		// trimmed, and make each file's untrimmed content identify its
		// position so ordering bugs are obvious. The marker is i+1, not
		// i, so that no marker is itself a trailing zero to be trimmed.
		data := append([]byte{byte(i + 1)}, make([]byte, 4)...)
		files[i] = dosfs.FileInfo{Name: name, Data: data}
	}

	dict := archive.BuildDictionary(files)
	if len(dict) != len(files) {
		t.Fatalf("dictionary length = %d, want %d (one trimmed byte per file)", len(dict), len(files))
	}
	for i := range files {
		if dict[i] != byte(i+1) {
			t.Fatalf("dictionary[%d] = %#02x, want %#02x (files out of order)", i, dict[i], i+1)
		}
	}
}

func TestBuildDictionaryPanicsOnMissingFile(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected a panic when a dictionary file is missing")
		}
	}()
	archive.BuildDictionary(nil)
}

func TestTinySaveRoundTrip(t *testing.T) {
	dict := []byte("a shared preset dictionary used by every saved game")
	codec := archive.NewTinySave(dict)

	original := bytes.Repeat([]byte("a shared preset dictionary used by every saved game, plus some save bytes"), 4)

	compressed, err := codec.Compress(original)
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	if compressed[0] != archive.CurrentSaveVersion {
		t.Fatalf("version byte = %#02x, want %#02x", compressed[0], archive.CurrentSaveVersion)
	}

	got, err := codec.Decompress(compressed)
	if err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	if !bytes.Equal(got, original) {
		t.Fatalf("round trip mismatch: got %d bytes, want %d", len(got), len(original))
	}
}

func TestTinySaveDecompressRejectsUnknownVersion(t *testing.T) {
	codec := archive.NewTinySave([]byte("dict"))
	_, err := codec.Decompress([]byte{0x02, 0xFF})
	if err == nil {
		t.Fatal("expected an error decompressing an unrecognized version byte")
	}
}
