// Package archive decodes the two compressed formats the host needs
// but no process image carries on its own: the packed read-only game
// file directory, and the tiny-save codec used to compress a finished
// game onto a floppy-sized save slot against a fixed preset
// dictionary.
package archive

import (
	"bytes"
	"compress/flate"
	"encoding/binary"
	"io"

	"github.com/scanlime-collective/roboodyssey/dosfs"
	"github.com/scanlime-collective/roboodyssey/rerrors"
)

// DecompressRLE expands src into dst using the same zero-run encoding
// a process's data image uses: bytes are copied verbatim, except that
// two consecutive zero bytes are followed by a little-endian 16-bit
// count of additional zero bytes to skip in the output. dst must be
// large enough to hold the expanded result.
func DecompressRLE(dst, src []byte) {
	zeroes := 0
	si, di := 0, 0
	for si < len(src) {
		b := src[si]
		si++
		dst[di] = b
		di++
		if b != 0 {
			zeroes = 0
			continue
		}
		zeroes++
		if zeroes == 2 {
			zeroes = 0
			skip := int(src[si]) | int(src[si+1])<<8
			si += 2
			di += skip
		}
	}
}

// maxNameLen bounds one directory entry's name length, read as a
// single length-prefix byte.
const maxNameLen = 255

// Directory is the decoded table of {name, data} pairs packed into one
// archive blob: a count, then for each entry a length-prefixed name
// and a little-endian uint32 size, then — after every header — the
// concatenated, uncompressed file bodies in the same order.
type Directory struct {
	entries []dosfs.FileInfo
}

// DecodePackedArchive RLE-decompresses compressed using
// uncompressedSize as the expansion buffer size, then parses the
// resulting directory-plus-bodies layout into a Directory. Decoding
// happens once; the caller is expected to cache the result, typically
// via Loader.
func DecodePackedArchive(compressed []byte, uncompressedSize int) (*Directory, error) {
	raw := make([]byte, uncompressedSize)
	DecompressRLE(raw, compressed)
	return parseDirectory(raw)
}

func parseDirectory(raw []byte) (*Directory, error) {
	if len(raw) < 2 {
		return nil, rerrors.Errorf("archive: directory too short to hold an entry count")
	}
	count := int(binary.LittleEndian.Uint16(raw))
	pos := 2

	type header struct {
		name string
		size uint32
	}
	headers := make([]header, 0, count)

	for i := 0; i < count; i++ {
		if pos >= len(raw) {
			return nil, rerrors.Errorf("archive: truncated directory entry %d", i)
		}
		nameLen := int(raw[pos])
		pos++
		if nameLen > maxNameLen || pos+nameLen+4 > len(raw) {
			return nil, rerrors.Errorf("archive: truncated directory entry %d", i)
		}
		name := string(raw[pos : pos+nameLen])
		pos += nameLen
		size := binary.LittleEndian.Uint32(raw[pos:])
		pos += 4
		headers = append(headers, header{name: name, size: size})
	}

	entries := make([]dosfs.FileInfo, 0, count)
	for _, h := range headers {
		if pos+int(h.size) > len(raw) {
			return nil, rerrors.Errorf("archive: directory body for %q runs past the archive", h.name)
		}
		entries = append(entries, dosfs.FileInfo{Name: h.name, Data: raw[pos : pos+int(h.size)]})
		pos += int(h.size)
	}

	return &Directory{entries: entries}, nil
}

// Files returns the decoded directory's entries.
func (d *Directory) Files() []dosfs.FileInfo { return d.entries }

// Loader returns a dosfs.PackedLoader backed by d, suitable for
// dosfs.New. The returned function always succeeds once d has been
// built; decode errors surface earlier, from DecodePackedArchive.
func (d *Directory) Loader() dosfs.PackedLoader {
	return func() ([]dosfs.FileInfo, error) {
		return d.entries, nil
	}
}

// LazyLoader returns a dosfs.PackedLoader that decodes compressed on
// first call and caches the result, matching the original's
// decode-on-first-access behavior without requiring the caller to
// decode eagerly at startup.
func LazyLoader(compressed []byte, uncompressedSize int) dosfs.PackedLoader {
	var dir *Directory
	return func() ([]dosfs.FileInfo, error) {
		if dir == nil {
			var err error
			dir, err = DecodePackedArchive(compressed, uncompressedSize)
			if err != nil {
				return nil, err
			}
		}
		return dir.entries, nil
	}
}

// CurrentSaveVersion is written as TinySave's leading byte. A save
// produced by a different version is rejected outright rather than
// guessed at: the preset dictionary and the flate stream it gates are
// both load-bearing for save compatibility, exactly as the original's
// ZSTD_dct_rawContent dictionary freeze was.
const CurrentSaveVersion = 0x11

// DictionaryFiles lists, in the original's fixed order, the game files
// whose trimmed contents make up TinySave's preset compression
// dictionary. The order is load-bearing: changing it breaks
// compatibility with existing saves, exactly as in the original.
var DictionaryFiles = []string{
	"4bitcntr.csv", "stereo.csv", "rsflop.csv", "oneshot.csv",
	"countton.csv", "adder.csv", "clock.csv", "delay.csv",
	"bus.csv", "wallhug.csv",
	"street.wld", "subway.wld", "town.wld", "comp.wld",
	"countton.chp", "wallhug.chp",
	"countton.pin", "wallhug.pin",
	"lab.wor", "sewer.wor", "sewer.cir",
}

// trimTrailingZeroes drops trailing NUL padding, matching the
// original dictionary builder's treatment of each source file.
func trimTrailingZeroes(b []byte) []byte {
	i := len(b)
	for i > 0 && b[i-1] == 0 {
		i--
	}
	return b[:i]
}

// BuildDictionary concatenates the trimmed contents of DictionaryFiles,
// read from files (keyed by name, case-insensitively against the
// packed game file directory), in DictionaryFiles' fixed order. A
// missing file is an unrecoverable configuration error: the dictionary
// either matches the original exactly or a save built against it
// cannot be reliably reproduced.
func BuildDictionary(files []dosfs.FileInfo) []byte {
	lookup := make(map[string][]byte, len(files))
	for _, f := range files {
		lookup[lowerASCII(f.Name)] = f.Data
	}

	var dict bytes.Buffer
	for _, name := range DictionaryFiles {
		data, ok := lookup[lowerASCII(name)]
		if !ok {
			panic(rerrors.Errorf("archive: tiny-save dictionary is missing %q", name))
		}
		dict.Write(trimTrailingZeroes(data))
	}
	return dict.Bytes()
}

func lowerASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

// TinySave compresses and decompresses saved-game bytes against a
// fixed preset dictionary, the way the original traded zstd's
// dictionary-aware compressor for floppy-sized saves.
type TinySave struct {
	dict []byte
}

// NewTinySave builds a codec using dict (see BuildDictionary) as the
// preset dictionary.
func NewTinySave(dict []byte) *TinySave {
	return &TinySave{dict: dict}
}

// Compress writes CurrentSaveVersion followed by data flate-compressed
// against the codec's dictionary.
func (t *TinySave) Compress(data []byte) ([]byte, error) {
	var out bytes.Buffer
	out.WriteByte(CurrentSaveVersion)

	w, err := flate.NewWriterDict(&out, flate.BestCompression, t.dict)
	if err != nil {
		return nil, rerrors.Errorf("archive: tiny-save compress: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return nil, rerrors.Errorf("archive: tiny-save compress: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, rerrors.Errorf("archive: tiny-save compress: %w", err)
	}
	return out.Bytes(), nil
}

// Decompress validates data's leading version byte against
// CurrentSaveVersion and inflates the remainder against the codec's
// dictionary.
func (t *TinySave) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, rerrors.Errorf("archive: tiny-save decompress: empty input")
	}
	if data[0] != CurrentSaveVersion {
		return nil, rerrors.Errorf("%w: %#02x", rerrors.ErrSaveVersion, data[0])
	}

	r := flate.NewReaderDict(bytes.NewReader(data[1:]), t.dict)
	defer r.Close()

	out, err := io.ReadAll(r)
	if err != nil {
		return nil, rerrors.Errorf("archive: tiny-save decompress: %w", err)
	}
	return out, nil
}
