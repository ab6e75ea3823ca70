package gamedata

import (
	"github.com/scanlime-collective/roboodyssey/rerrors"
	"github.com/scanlime-collective/roboodyssey/sbtprocess"
)

// RobotSet is every robot-related table found in a process's data
// segment, sized to however many robots that executable's world
// format actually has room for (3 in the tutorial/lab builds, 4 in
// the full game).
type RobotSet struct {
	Count      int
	State      RobotTable
	Grabbers   GrabberTable
	BatteryAcc BatteryAccTable
}

// Data is everything gamedata knows how to locate inside a running
// process's memory: the world, the circuit, and the robot tables.
type Data struct {
	World   *World
	Circuit *Circuit
	Robots  RobotSet
}

// FromProcess locates World, Circuit and robot data inside p's data
// segment via its image's recorded addresses. It reports false if any
// of those addresses weren't resolved for this executable.
//
// The robot count isn't stored anywhere explicit: it's inferred from
// the byte distance between the grabber table and the robot table
// that immediately follows it, then sanity-checked against the 0xFF
// terminator the original format leaves just past the robot table.
func FromProcess(p *sbtprocess.Process) (*Data, bool) {
	worldAddr, ok := p.Address(sbtprocess.AddrWorldData)
	if !ok {
		return nil, false
	}
	circuitAddr, ok := p.Address(sbtprocess.AddrCircuitData)
	if !ok {
		return nil, false
	}
	robotMainAddr, ok := p.Address(sbtprocess.AddrRobotDataMain)
	if !ok {
		return nil, false
	}
	robotGrabberAddr, ok := p.Address(sbtprocess.AddrRobotDataGrabber)
	if !ok {
		return nil, false
	}

	seg := p.DataSegment()

	count := (int(robotMainAddr) - int(robotGrabberAddr)) / GrabberStride
	if count != 3 && count != 4 {
		panic(rerrors.Errorf("gamedata: robot table sanity check failed: inferred count %d", count))
	}

	endOfTable := int(robotMainAddr) + count*RobotStride
	if seg[endOfTable] != 0xFF {
		panic(rerrors.Errorf("gamedata: end of robot table not found"))
	}

	return &Data{
		World:   NewWorld(seg[worldAddr:]),
		Circuit: NewCircuit(seg[circuitAddr:]),
		Robots: RobotSet{
			Count:      count,
			State:      NewRobotTable(seg[robotMainAddr:], count),
			Grabbers:   NewGrabberTable(seg[robotGrabberAddr:], count),
			BatteryAcc: NewBatteryAccTable(seg[endOfTable+1:], count),
		},
	}, true
}

// CopyFrom overwrites d's world, circuit and robot tables with src's,
// remapping the grabber sprite indices if the two processes disagree
// about how many robots there are (3-robot tutorial/lab builds use
// different sprite slots than the 4-robot game build).
func (d *Data) CopyFrom(src *Data) {
	if d == src {
		return
	}

	copyRobots := d.Robots.Count
	if src.Robots.Count < copyRobots {
		copyRobots = src.Robots.Count
	}

	copy(d.World.Bytes(), src.World.Bytes())
	copy(d.Circuit.Bytes(), src.Circuit.Bytes())

	copy(d.Robots.Grabbers.b[:copyRobots*GrabberStride], src.Robots.Grabbers.b[:copyRobots*GrabberStride])
	copy(d.Robots.State.b[:copyRobots*RobotStride], src.Robots.State.b[:copyRobots*RobotStride])
	copy(d.Robots.BatteryAcc.b[:copyRobots*BatteryAccStride], src.Robots.BatteryAcc.b[:copyRobots*BatteryAccStride])

	switch {
	case d.Robots.Count == 4 && src.Robots.Count == 3:
		copy(d.World.Sprite(SprGameGrabberUp), src.World.Sprite(SprGrabberUp))
		copy(d.World.Sprite(SprGameGrabberRight), src.World.Sprite(SprGrabberRight))
		copy(d.World.Sprite(SprGameGrabberLeft), src.World.Sprite(SprGrabberLeft))
	case d.Robots.Count == 3 && src.Robots.Count == 4:
		copy(d.World.Sprite(SprGrabberUp), src.World.Sprite(SprGameGrabberUp))
		copy(d.World.Sprite(SprGrabberRight), src.World.Sprite(SprGameGrabberRight))
		copy(d.World.Sprite(SprGrabberLeft), src.World.Sprite(SprGameGrabberLeft))
	}
}
