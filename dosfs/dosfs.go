// Package dosfs implements the small in-memory filesystem the DOS
// interrupt facade exposes to translated code: a single writable save
// slot, a read-only joystick configuration record, and a read-only
// table of packed game files decoded on first access.
package dosfs

import (
	"strings"

	"github.com/scanlime-collective/roboodyssey/rerrors"
)

const (
	// MaxOpenFiles bounds the descriptor table; exhausting it is fatal.
	MaxOpenFiles = 16

	// MaxFileSize is the save buffer's fixed capacity.
	MaxFileSize = 0x10000

	// SaveFileName is the special name bound to the writable save slot.
	SaveFileName = "savefile"

	// JoyFileName is the special name bound to the read-only joystick
	// configuration record.
	JoyFileName = "joyfile.joy"
)

// FileInfo describes one read-only packed game file.
type FileInfo struct {
	Name string
	Data []byte
}

type fileKind int

const (
	kindSave fileKind = iota
	kindJoyfile
	kindPacked
)

type openFile struct {
	kind   fileKind
	packed *FileInfo
	offset int
}

// PackedLoader decodes and returns the full read-only game file table on
// first access. It is called at most once.
type PackedLoader func() ([]FileInfo, error)

// DOSFilesystem multiplexes the three file namespaces translated code
// can open by name.
type DOSFilesystem struct {
	save struct {
		data         [MaxFileSize]byte
		size         int
		openForWrite bool
	}

	joyfile FileInfo

	loadPacked PackedLoader
	packed     []FileInfo
	packedErr  error
	loaded     bool

	openFiles [MaxOpenFiles]*openFile

	// OnSaveFileWrite is called when a write-opened save file is
	// closed, notifying the host a new save is ready to be persisted.
	OnSaveFileWrite func()
}

// New creates a filesystem with joyfile bound to a fixed 16-byte
// configuration record and packed game files decoded lazily via load.
func New(joyfile []byte, load PackedLoader) *DOSFilesystem {
	fs := &DOSFilesystem{
		joyfile:    FileInfo{Name: JoyFileName, Data: joyfile},
		loadPacked: load,
	}
	return fs
}

// Reset closes every open descriptor, as happens when a process is
// freshly exec'ed.
func (fs *DOSFilesystem) Reset() {
	for i := range fs.openFiles {
		fs.openFiles[i] = nil
	}
}

func (fs *DOSFilesystem) allocateFD() int {
	for fd, f := range fs.openFiles {
		if f == nil {
			return fd
		}
	}
	panic(rerrors.Errorf("%w", rerrors.ErrFileDescriptorExhaustion))
}

func (fs *DOSFilesystem) ensurePackedLoaded() {
	if fs.loaded {
		return
	}
	fs.loaded = true
	if fs.loadPacked != nil {
		fs.packed, fs.packedErr = fs.loadPacked()
	}
}

func (fs *DOSFilesystem) lookupPacked(name string) (*FileInfo, error) {
	fs.ensurePackedLoaded()
	if fs.packedErr != nil {
		return nil, fs.packedErr
	}
	for i := range fs.packed {
		if strings.EqualFold(fs.packed[i].Name, name) {
			return &fs.packed[i], nil
		}
	}
	return nil, rerrors.Errorf("%w: %s", rerrors.ErrUnknownFile, name)
}

// Open opens name for reading, returning a non-negative descriptor, or
// a negative value and an error if the name isn't known.
func (fs *DOSFilesystem) Open(name string) (int, error) {
	fd := fs.allocateFD()

	switch {
	case name == SaveFileName:
		fs.save.openForWrite = false
		fs.openFiles[fd] = &openFile{kind: kindSave}

	case name == JoyFileName:
		fs.openFiles[fd] = &openFile{kind: kindJoyfile}

	default:
		info, err := fs.lookupPacked(name)
		if err != nil {
			return -1, err
		}
		fs.openFiles[fd] = &openFile{kind: kindPacked, packed: info}
	}

	return fd, nil
}

// Create truncates and opens name for writing. Only the save file may
// be created; any other name fails without being fatal.
func (fs *DOSFilesystem) Create(name string) (int, error) {
	if name != SaveFileName {
		return -1, rerrors.Errorf("dosfs: cannot create %q for writing", name)
	}

	fd := fs.allocateFD()
	fs.save.size = 0
	fs.save.openForWrite = true
	fs.openFiles[fd] = &openFile{kind: kindSave}
	return fd, nil
}

// Close releases fd. Closing a write-opened save file notifies the
// host via OnSaveFileWrite.
func (fs *DOSFilesystem) Close(fd int) {
	f := fs.mustOpen(fd)
	if f.kind == kindSave && fs.save.openForWrite {
		if fs.OnSaveFileWrite != nil {
			fs.OnSaveFileWrite()
		}
	}
	fs.openFiles[fd] = nil
}

func (fs *DOSFilesystem) mustOpen(fd int) *openFile {
	if fd < 0 || fd >= MaxOpenFiles || fs.openFiles[fd] == nil {
		panic(rerrors.Errorf("dosfs: operation on a file descriptor that isn't open: %d", fd))
	}
	return fs.openFiles[fd]
}

func (fs *DOSFilesystem) fileBytes(f *openFile) []byte {
	switch f.kind {
	case kindSave:
		return fs.save.data[:fs.save.size]
	case kindJoyfile:
		return fs.joyfile.Data
	default:
		return f.packed.Data
	}
}

// SaveSize returns the save file's current size.
func (fs *DOSFilesystem) SaveSize() int { return fs.save.size }

// SaveBytes returns the save file's contents, aliased rather than
// copied. Callers that need to retain it across further writes should
// copy it themselves.
func (fs *DOSFilesystem) SaveBytes() []byte { return fs.save.data[:fs.save.size] }

// ResetSaveSize truncates the save file, as Create does, without
// opening a descriptor. Used by the hardware facade before invoking a
// process's save-game exporter.
func (fs *DOSFilesystem) ResetSaveSize() { fs.save.size = 0 }

// InstallSaveBytes overwrites the save buffer with data, as though a
// process had just written it through Write. Used by the host to
// stage a loaded or decompressed save before calling LoadGame.
func (fs *DOSFilesystem) InstallSaveBytes(data []byte) {
	n := copy(fs.save.data[:], data)
	fs.save.size = n
}

// JoyfileBytes returns the joystick configuration record, aliased
// rather than copied, so a host can mutate fields such as the cheat
// control byte and have a running process observe the change.
func (fs *DOSFilesystem) JoyfileBytes() []byte { return fs.joyfile.Data }

// Read copies up to len(dest) bytes starting at fd's current offset,
// clamped to the file's remaining size, and advances the offset. A
// read past EOF is a silent short read.
func (fs *DOSFilesystem) Read(fd int, dest []byte) int {
	f := fs.mustOpen(fd)
	data := fs.fileBytes(f)

	remaining := len(data) - f.offset
	if remaining < 0 {
		remaining = 0
	}
	n := len(dest)
	if n > remaining {
		n = remaining
	}
	copy(dest[:n], data[f.offset:f.offset+n])
	f.offset += n
	return n
}

// Write copies up to len(src) bytes into the save file at fd's current
// offset, clamped to the save buffer's capacity, and advances the
// offset. Writing anything other than the save file is fatal.
func (fs *DOSFilesystem) Write(fd int, src []byte) int {
	f := fs.mustOpen(fd)
	if f.kind != kindSave {
		panic(rerrors.Errorf("dosfs: write to a file that isn't the save file"))
	}

	offset := f.offset
	if offset > MaxFileSize {
		offset = MaxFileSize
	}
	n := len(src)
	if remaining := MaxFileSize - offset; n > remaining {
		n = remaining
	}
	copy(fs.save.data[offset:offset+n], src[:n])

	f.offset = offset + n
	fs.save.size = f.offset
	return n
}
