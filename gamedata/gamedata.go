// Package gamedata overlays typed views onto the raw process memory
// translated code operates on: the game world, its circuit data,
// per-robot state, and the on-disk saved-game and joystick-config
// formats. Every offset here is load-bearing — saved games are a
// verbatim dump of these same byte layouts.
package gamedata

// ObjectID indexes into the 256-entry object tables of a World.
type ObjectID uint8

// ObjNone marks an empty table slot or list terminator.
const ObjNone ObjectID = 0xFF

// ObjPlayer is the fixed object id of the player character, present in
// every world.
const ObjPlayer ObjectID = 0x00

// RoomID indexes into the 64-entry room tables of a World.
type RoomID uint8

// RoomNone marks an object as not placed in any room.
const RoomNone RoomID = 0x3F

// RoomChipDocumentation is the room loadChipDocumentation moves the
// player into after loading a chip. The original engine's source
// references this room by a symbolic name whose numeric value was not
// present anywhere in the retrieved source tree (unlike every other
// room/object id here, which is grounded on an explicit enum entry).
const RoomChipDocumentation RoomID = 0x10

// WorldID identifies which game world a saved file belongs to.
type WorldID uint8

const (
	WorldSewer  WorldID = 0
	WorldSubway WorldID = 1
	WorldTown   WorldID = 2
	WorldComp   WorldID = 3
	WorldStreet WorldID = 4

	WorldTut1 WorldID = 21
	WorldTut2 WorldID = 22
	WorldTut3 WorldID = 23
	WorldTut4 WorldID = 24
	WorldTut5 WorldID = 25
	WorldTut6 WorldID = 26
	WorldTut7 WorldID = 27

	WorldLab  WorldID = 30
	WorldDemo WorldID = 40

	// WorldSaved is used as a command-line option to open the load menu.
	WorldSaved WorldID = 99
)

// Grabber sprite indices. GAME.EXE remaps three of these relative to
// the tutorial/lab builds.
const (
	SprGrabberUp    = 0x3A
	SprGrabberRight = 0x3B
	SprGrabberLeft  = 0x3C
	SprGrabberDown  = 0x3D
	SprUnused1      = 0x3E
	SprUnused2      = 0x3F

	SprGameGrabberUp    = SprGrabberRight
	SprGameGrabberRight = SprGrabberLeft
	SprGameGrabberLeft  = SprUnused1
)
