// Package loader abstracts the ways a translated executable's data
// can reach the engine — a local file, embedded bytes, or an entry
// sliced out of the packed game file archive — and assembles the
// result into an sbtprocess.Image.
package loader

import (
	"bytes"
	"crypto/md5"
	"crypto/sha1"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/scanlime-collective/roboodyssey/rerrors"
	"github.com/scanlime-collective/roboodyssey/sbtprocess"
	"github.com/scanlime-collective/roboodyssey/shadowstack"
	"github.com/scanlime-collective/roboodyssey/vcpu"
)

// Loader reads one translated executable's RLE-zero packed data blob
// from a file or from already-resident bytes, verifying its hash if
// one is expected.
type Loader struct {
	// Filename names the executable for lookup in Facade's Exec and
	// for diagnostics; it need not be an actual path when Data is
	// supplied directly.
	Filename string

	// HashSHA1, if non-empty before Open on a file-backed loader, is
	// checked against the loaded bytes; Open fills it in afterward.
	// NewFromData fills it in for embedded data, which Open never checks.
	HashSHA1 string
	HashMD5  string

	data     []byte
	embedded bool
}

// NewFromFile creates a loader that reads filename's contents on Open.
func NewFromFile(filename string) (*Loader, error) {
	if strings.TrimSpace(filename) == "" {
		return nil, rerrors.Errorf("loader: no filename")
	}
	return &Loader{Filename: filename}, nil
}

// NewFromData creates a loader around already-resident bytes, as
// go:embed would supply. The hashes are computed here; Open is then a
// no-op.
func NewFromData(name string, data []byte) (*Loader, error) {
	if strings.TrimSpace(name) == "" {
		return nil, rerrors.Errorf("loader: no name for embedded data")
	}
	if len(data) == 0 {
		return nil, rerrors.Errorf("loader: embedded data is empty")
	}
	return &Loader{
		Filename: name,
		data:     data,
		embedded: true,
		HashSHA1: fmt.Sprintf("%x", sha1.Sum(data)),
		HashMD5:  fmt.Sprintf("%x", md5.Sum(data)),
	}, nil
}

// Open reads a file-backed loader's data, then computes and validates
// its hashes. For embedded data it does nothing.
func (ld *Loader) Open() error {
	if ld.embedded {
		return nil
	}

	f, err := os.Open(ld.Filename)
	if err != nil {
		return rerrors.Errorf("loader: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return rerrors.Errorf("loader: %w", err)
	}
	ld.data = data

	hash := fmt.Sprintf("%x", sha1.Sum(data))
	if ld.HashSHA1 != "" && ld.HashSHA1 != hash {
		return rerrors.Errorf("loader: unexpected SHA1 hash for %s", ld.Filename)
	}
	ld.HashSHA1 = hash

	hash = fmt.Sprintf("%x", md5.Sum(data))
	if ld.HashMD5 != "" && ld.HashMD5 != hash {
		return rerrors.Errorf("loader: unexpected MD5 hash for %s", ld.Filename)
	}
	ld.HashMD5 = hash

	return nil
}

// Reader returns a fresh reader over the loaded bytes. Open must have
// succeeded first.
func (ld *Loader) Reader() io.Reader { return bytes.NewReader(ld.data) }

// Data returns the loaded bytes directly, aliased rather than copied.
func (ld *Loader) Data() []byte { return ld.data }

// Image is a complete sbtprocess.Image: the RLE-zero packed data blob
// a Loader produced, paired with the relocation segment, entry point,
// and SBTAddressId tables the offline translator emitted for this
// specific executable.
type Image struct {
	filename     string
	data         []byte
	relocSegment uint16
	entryCS      uint16
	functions    map[sbtprocess.AddressID]sbtprocess.ContinueFunc
	addresses    map[sbtprocess.AddressID]uint16
}

// Build assembles an Image from ld's loaded data and the translator
// tables a generated executable module supplies. ld.Open must have
// been called first.
func Build(ld *Loader, relocSegment, entryCS uint16, functions map[sbtprocess.AddressID]sbtprocess.ContinueFunc, addresses map[sbtprocess.AddressID]uint16) (*Image, error) {
	if ld.data == nil {
		return nil, rerrors.Errorf("loader: Build called before Open succeeded for %s", ld.Filename)
	}
	if functions[sbtprocess.AddrEntryFunc] == nil {
		return nil, rerrors.Errorf("loader: %s has no entry function", ld.Filename)
	}
	return &Image{
		filename:     ld.Filename,
		data:         ld.data,
		relocSegment: relocSegment,
		entryCS:      entryCS,
		functions:    functions,
		addresses:    addresses,
	}, nil
}

func (img *Image) Filename() string     { return img.filename }
func (img *Image) Data() []byte         { return img.data }
func (img *Image) RelocSegment() uint16 { return img.relocSegment }
func (img *Image) EntryCS() uint16      { return img.entryCS }

func (img *Image) Address(id sbtprocess.AddressID) (uint16, bool) {
	a, ok := img.addresses[id]
	return a, ok
}

func (img *Image) Function(id sbtprocess.AddressID) sbtprocess.ContinueFunc {
	return img.functions[id]
}

// LoadEnvironment is a no-op: the translator tables a generated
// executable module carries (functions, addresses, data) are the only
// per-image setup this engine requires. A future translator target
// needing process-specific segment-cache priming would override this
// by constructing its own sbtprocess.Image rather than loader.Image.
func (img *Image) LoadEnvironment(stack *shadowstack.Stack, reg vcpu.Registers) {}

var _ sbtprocess.Image = (*Image)(nil)
