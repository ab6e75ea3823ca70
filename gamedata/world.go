package gamedata

// WorldSize is the exact byte length of a World, as laid out by the
// original game: object tables, 64 sprites, 64 rooms, and a text heap.
const WorldSize = 0x3500

const (
	offNextInRoom     = 0x0000
	offSpriteID       = 0x0100
	offColor          = 0x0200
	offRoom           = 0x0300
	offX              = 0x0400
	offY              = 0x0500
	offMovedByObject  = 0x0600
	offMovedByOffsetX = 0x0700
	offMovedByOffsetY = 0x0800
	offGrabFlag       = 0x0900

	offSprites = 0x0A00 // 64 * 16 bytes

	offRoomObjectListHead = 0x0E00
	offRoomBgColor        = 0x0E40
	offRoomFgColor        = 0x0E80
	offRoomLinkUp         = 0x0EC0
	offRoomLinkDown       = 0x0F00
	offRoomLinkRight      = 0x0F40
	offRoomLinkLeft       = 0x0F80
	offRoomReserved       = 0x0FC0
	offRoomTiles          = 0x1000 // 64 * 30 bytes

	offUnknown = 0x1780 // 0x100 bytes

	offTextRoom       = 0x1880
	offTextX          = 0x1900
	offTextY          = 0x1980
	offTextStyle      = 0x1A00
	offTextFont       = 0x1A80
	offTextColor      = 0x1B00
	offTextPtrLow     = 0x1B80
	offTextPtrHigh    = 0x1C00
	offTextStringHeap = 0x1C80 // 0x1880 bytes, runs to WorldSize
)

const numRooms = 0x40

// World is a typed view over the 0x3500-byte world data block: object
// placement, sprite bitmaps, room topology, and the text string heap.
type World struct {
	b []byte
}

// NewWorld wraps b, which must be at least WorldSize bytes, as a World
// view. b is aliased, not copied.
func NewWorld(b []byte) *World {
	return &World{b: b[:WorldSize]}
}

// Bytes returns the backing WorldSize-byte slice.
func (w *World) Bytes() []byte { return w.b }

func (w *World) ObjectListHead(room RoomID) ObjectID {
	return ObjectID(w.b[offRoomObjectListHead+int(room)])
}

func (w *World) setObjectListHead(room RoomID, obj ObjectID) {
	w.b[offRoomObjectListHead+int(room)] = byte(obj)
}

// NextInRoom returns the next object in obj's room linked list.
func (w *World) NextInRoom(obj ObjectID) ObjectID {
	return ObjectID(w.b[offNextInRoom+int(obj)])
}

func (w *World) setNextInRoom(obj, next ObjectID) {
	w.b[offNextInRoom+int(obj)] = byte(next)
}

// SpriteID returns the sprite index an object is drawn with.
func (w *World) SpriteID(obj ObjectID) uint8 { return w.b[offSpriteID+int(obj)] }

// Color returns an object's color index.
func (w *World) Color(obj ObjectID) uint8 { return w.b[offColor+int(obj)] }

// GrabFlag returns an object's grab-state flag byte.
func (w *World) GrabFlag(obj ObjectID) uint8 { return w.b[offGrabFlag+int(obj)] }

// Sprite returns the 16-byte bitmap for sprite index i.
func (w *World) Sprite(i int) []byte {
	base := offSprites + i*16
	return w.b[base : base+16]
}

// RoomTiles returns the 30-byte tile bitmap for room.
func (w *World) RoomTiles(room RoomID) []byte {
	base := offRoomTiles + int(room)*30
	return w.b[base : base+30]
}

// Clear resets the world to its empty state: every byte zeroed except
// the sentinel tables, which are filled with their "none" markers.
func (w *World) Clear() {
	for i := range w.b {
		w.b[i] = 0
	}
	fill(w.b[offNextInRoom:offNextInRoom+0x100], byte(ObjNone))
	fill(w.b[offRoom:offRoom+0x100], byte(RoomNone))
	fill(w.b[offRoomObjectListHead:offRoomObjectListHead+numRooms], byte(ObjNone))
	fill(w.b[offTextRoom:offTextRoom+0x80], byte(RoomNone))
}

func fill(b []byte, v byte) {
	for i := range b {
		b[i] = v
	}
}

// GetObjectRoom returns the room obj is currently placed in.
func (w *World) GetObjectRoom(obj ObjectID) RoomID {
	return RoomID(w.b[offRoom+int(obj)])
}

// GetObjectXY returns obj's position.
func (w *World) GetObjectXY(obj ObjectID) (x, y uint8) {
	return w.b[offX+int(obj)], w.b[offY+int(obj)]
}

// SetObjectXY sets obj's position.
func (w *World) SetObjectXY(obj ObjectID, x, y uint8) {
	w.b[offX+int(obj)] = x
	w.b[offY+int(obj)] = y
}

// SetObjectRoom moves obj into room, unlinking it from its previous
// room's object list first.
func (w *World) SetObjectRoom(obj ObjectID, room RoomID) {
	w.removeObjectFromRoom(obj, w.GetObjectRoom(obj))
	w.b[offRoom+int(obj)] = byte(room)
	w.addObjectToRoom(obj, room)
}

// removeObjectFromRoom unlinks obj from room's linked list. A 256-slot
// memo vector guards against an unterminated or cyclic list, which can
// happen while operating on not-yet-initialized world data.
func (w *World) removeObjectFromRoom(obj ObjectID, room RoomID) {
	if room == RoomNone {
		return
	}

	var visited [256]bool
	prev := ObjNone // sentinel: predecessor is the room's head slot itself
	cur := w.ObjectListHead(room)

	for cur != ObjNone {
		if visited[cur] {
			return
		}
		visited[cur] = true

		if cur == obj {
			next := w.NextInRoom(cur)
			if prev == ObjNone {
				w.setObjectListHead(room, next)
			} else {
				w.setNextInRoom(prev, next)
			}
			return
		}
		prev = cur
		cur = w.NextInRoom(cur)
	}
}

// addObjectToRoom pushes obj onto the front of room's linked list.
func (w *World) addObjectToRoom(obj ObjectID, room RoomID) {
	if room == RoomNone {
		return
	}
	w.setNextInRoom(obj, w.ObjectListHead(room))
	w.setObjectListHead(room, obj)
}

// SetRobotRoom moves both halves of a robot into room. A robot's two
// object IDs are consecutive, with the left half at an even index.
func (w *World) SetRobotRoom(obj ObjectID, room RoomID) {
	left := ObjectID(uint8(obj) &^ 1)
	right := left + 1
	w.SetObjectRoom(left, room)
	w.SetObjectRoom(right, room)
}

// SetRobotXY positions both halves of a robot: the left half at (x,y),
// the right half 5 pixels to the right.
func (w *World) SetRobotXY(obj ObjectID, x, y uint8) {
	left := ObjectID(uint8(obj) &^ 1)
	right := left + 1
	w.SetObjectXY(left, x, y)
	w.SetObjectXY(right, x+5, y)
}
