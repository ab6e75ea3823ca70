package gamedata

// Side names one of a robot's four thruster/bumper/grabber positions.
type Side int

const (
	SideTop Side = iota
	SideRight
	SideBottom
	SideLeft
)

// RobotStride is the byte size of one robot record.
const RobotStride = 26

const (
	offRobotLeft            = 0
	offRobotLeft2           = 1
	offRobotRight           = 2
	offRobotRight2          = 3
	offRobotThrusters       = 4  // [4]byte
	offRobotBumpers         = 8  // [4]byte
	offRobotThrusterState   = 12 // [4]byte
	offRobotBumperState     = 16 // [4]byte
	offRobotGrabberState    = 20 // [4]byte
	offRobotBatteryLevel    = 24
	offRobotThrusterSwitch  = 25
)

// GrabberStride is the byte size of one robot's grabber-direction
// table: one sprite index per Side, zero if no grabber is drawn there.
const GrabberStride = 4

// BatteryAccStride is the byte size of one robot's battery discharge
// accumulator: a 16-bit counter stored big-endian across two bytes.
const BatteryAccStride = 2

// Robot is a typed view over one RobotStride-byte robot record.
type Robot struct {
	b []byte
}

func newRobot(b []byte) Robot { return Robot{b: b[:RobotStride]} }

// ObjectID returns the object id of the robot's left half, which also
// identifies the robot as a whole.
func (r Robot) ObjectID() ObjectID { return ObjectID(r.b[offRobotLeft]) }

func (r Robot) Thruster(side Side) uint8   { return r.b[offRobotThrusters+int(side)] }
func (r Robot) Bumper(side Side) uint8     { return r.b[offRobotBumpers+int(side)] }
func (r Robot) ThrusterState(side Side) uint8 { return r.b[offRobotThrusterState+int(side)] }
func (r Robot) BumperState(side Side) uint8   { return r.b[offRobotBumperState+int(side)] }
func (r Robot) GrabberState(side Side) uint8  { return r.b[offRobotGrabberState+int(side)] }

// BatteryLevel is the visible battery gauge, 0 through 15.
func (r Robot) BatteryLevel() uint8     { return r.b[offRobotBatteryLevel] }
func (r Robot) SetBatteryLevel(v uint8) { r.b[offRobotBatteryLevel] = v }

func (r Robot) ThrusterSwitch() bool     { return r.b[offRobotThrusterSwitch] != 0 }
func (r Robot) SetThrusterSwitch(v bool) { r.b[offRobotThrusterSwitch] = boolByte(v) }

// ThrusterEnable turns a thruster on or off, only re-arming the
// animation frame counter on the off-to-on edge.
func (r Robot) ThrusterEnable(side Side, on bool) {
	i := offRobotThrusterState + int(side)
	if on {
		if r.b[i] == 0 {
			r.b[i] = 1
		}
	} else {
		r.b[i] = 0
	}
}

var thrusterNextState = [4]uint8{0, 2, 3, 1}

// AnimateThrusters advances every thruster's animation frame by one
// step of the fixed 4-state cycle.
func (r Robot) AnimateThrusters() {
	for i := 0; i < 4; i++ {
		s := r.b[offRobotThrusterState+i]
		r.b[offRobotThrusterState+i] = thrusterNextState[s]
	}
}

// RobotTable is a typed view over a contiguous array of robot records.
type RobotTable struct {
	b []byte
}

// NewRobotTable wraps b, sliced into n RobotStride-byte records.
func NewRobotTable(b []byte, n int) RobotTable {
	return RobotTable{b: b[:n*RobotStride]}
}

func (t RobotTable) Len() int { return len(t.b) / RobotStride }

func (t RobotTable) At(i int) Robot {
	base := i * RobotStride
	return newRobot(t.b[base : base+RobotStride])
}

// GrabberTable is a typed view over a contiguous array of per-robot
// grabber-direction tables.
type GrabberTable struct {
	b []byte
}

func NewGrabberTable(b []byte, n int) GrabberTable {
	return GrabberTable{b: b[:n*GrabberStride]}
}

func (t GrabberTable) Len() int { return len(t.b) / GrabberStride }

// Sprite returns the sprite index drawn for robot i's grabber facing
// side, or 0 if none is drawn there.
func (t GrabberTable) Sprite(i int, side Side) uint8 {
	return t.b[i*GrabberStride+int(side)]
}

func (t GrabberTable) SetSprite(i int, side Side, sprite uint8) {
	t.b[i*GrabberStride+int(side)] = sprite
}

// BatteryAccTable is a typed view over a contiguous array of per-robot
// battery discharge accumulators.
type BatteryAccTable struct {
	b []byte
}

func NewBatteryAccTable(b []byte, n int) BatteryAccTable {
	return BatteryAccTable{b: b[:n*BatteryAccStride]}
}

func (t BatteryAccTable) Len() int { return len(t.b) / BatteryAccStride }

// Get returns robot i's accumulated discharge counter.
func (t BatteryAccTable) Get(i int) uint16 {
	base := i * BatteryAccStride
	return uint16(t.b[base])<<8 | uint16(t.b[base+1])
}
