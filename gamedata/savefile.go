package gamedata

// ChipBytecodeSize is the length of one compiled chip's bytecode.
const ChipBytecodeSize = 1024

// ChipPinsSize is the number of pins recorded for one compiled chip.
const ChipPinsSize = 8

// MaxChips is how many compiled chips a saved game carries bytecode
// and pin state for.
const MaxChips = 8

const (
	saveWorldOffset   = 0
	saveCircuitOffset = saveWorldOffset + WorldSize
	saveChipsOffset   = saveCircuitOffset + CircuitPadded
	savePinsOffset    = saveChipsOffset + MaxChips*ChipBytecodeSize

	saveUnkObjectID1 = savePinsOffset + MaxChips*ChipPinsSize
	saveUnkObjectID2 = saveUnkObjectID1 + 1
	saveUnkOffsetX   = saveUnkObjectID2 + 1
	saveUnkOffsetY   = saveUnkOffsetX + 1
	saveWorldID      = saveUnkOffsetY + 1

	// SaveFileSize is the exact on-disk length of a .GSV/.LSV file:
	// a verbatim dump of the world, circuit, chip and robot state
	// GAME.EXE or LAB.EXE held in memory, plus 5 trailing bytes.
	SaveFileSize = saveWorldID + 1
)

// SaveFile is a typed view over a .GSV/.LSV saved-game file: there is
// no header or framing at all, just the in-memory world and circuit
// data dumped verbatim, as GAME.EXE and LAB.EXE wrote it.
//
// This layout is only correct for GAME.EXE and LAB.EXE; the tutorial
// uses a slightly different circuit format and isn't saveable.
type SaveFile struct {
	b []byte
}

// NewSaveFile wraps b, which must be at least SaveFileSize bytes, as a
// SaveFile view. b is aliased, not copied.
func NewSaveFile(b []byte) *SaveFile {
	return &SaveFile{b: b[:SaveFileSize]}
}

// Bytes returns the backing SaveFileSize-byte slice.
func (s *SaveFile) Bytes() []byte { return s.b }

// World returns the saved world data.
func (s *SaveFile) World() *World {
	return NewWorld(s.b[saveWorldOffset : saveWorldOffset+WorldSize])
}

// Circuit returns the saved circuit data, ignoring its padding.
func (s *SaveFile) Circuit() *Circuit {
	return NewCircuit(s.b[saveCircuitOffset : saveCircuitOffset+CircuitPadded])
}

// ChipBytecode returns compiled chip i's bytecode.
func (s *SaveFile) ChipBytecode(i int) []byte {
	base := saveChipsOffset + i*ChipBytecodeSize
	return s.b[base : base+ChipBytecodeSize]
}

// ChipPins returns compiled chip i's pin state.
func (s *SaveFile) ChipPins(i int) []byte {
	base := savePinsOffset + i*ChipPinsSize
	return s.b[base : base+ChipPinsSize]
}

func (s *SaveFile) UnkObjectID1() uint8 { return s.b[saveUnkObjectID1] }
func (s *SaveFile) UnkObjectID2() uint8 { return s.b[saveUnkObjectID2] }
func (s *SaveFile) UnkOffsetX() uint8   { return s.b[saveUnkOffsetX] }
func (s *SaveFile) UnkOffsetY() uint8   { return s.b[saveUnkOffsetY] }

// WorldID identifies which game world this save belongs to, and which
// executable is responsible for loading it.
func (s *SaveFile) WorldID() WorldID     { return WorldID(s.b[saveWorldID]) }
func (s *SaveFile) SetWorldID(id WorldID) { s.b[saveWorldID] = byte(id) }

// WorldName returns the display name of the saved world.
func (s *SaveFile) WorldName() string {
	switch s.WorldID() {
	case WorldSewer:
		return "City Sewer"
	case WorldSubway:
		return "The Subway"
	case WorldTown:
		return "Streets of Robotropolis"
	case WorldComp:
		return "Master Computer Center"
	case WorldStreet:
		return "The Skyways"
	case WorldLab:
		return "Saved Lab"
	default:
		return "(Unknown)"
	}
}

// ProcessName returns the executable that should load this save, and
// false if the world id doesn't identify a loadable world.
func (s *SaveFile) ProcessName() (string, bool) {
	switch s.WorldID() {
	case WorldSewer, WorldSubway, WorldTown, WorldComp, WorldStreet:
		return "game.exe", true
	case WorldLab:
		return "lab.exe", true
	default:
		return "", false
	}
}
