package gamedata

// CircuitSize is the exact byte length of a Circuit.
const CircuitSize = 0x0794

// CircuitPadded is a Circuit's size as stored in a saved game, rounded
// up to 0x0A00 bytes.
const CircuitPadded = 0x0A00

const (
	offObjWireOutputObj = 0x0000
	offObjWireX1        = 0x0100
	offObjWireX2        = 0x0200
	offObjWireY1        = 0x0300
	offObjWireY2        = 0x0400

	offFFState  = 0x0500
	offFFInputs = 0x0514

	offNodeInputObj   = 0x0528
	offNodeOutput2Obj = 0x0537
	offNodeX1         = 0x0546
	offNodeX2         = 0x0555
	offNodeY1         = 0x0564
	offNodeY2         = 0x0573

	offChipY1         = 0x0582
	offChipY2         = 0x05C2
	offChipX1         = 0x0602
	offChipX2         = 0x0642
	offChipOutputObj  = 0x0682
	offChipOutputPin  = 0x06C2

	offAllocGates = 0x0702
	offAllocNodes = 0x076B
	offAllocFF    = 0x077A

	offSpecialCursorObj = 0x078E
	offRemoteIsOn       = 0x078F

	offToolboxFFCount   = 0x0790
	offToolboxNodeCount = 0x0791
	offToolboxGateCount = 0x0792
	offToolboxIsClosed  = 0x0793
)

// ffCount, nodeCount and gateCount are the number of flip-flops, node
// wires and small-chip wires a Circuit has room for.
const (
	ffCount   = 20
	nodeCount = 15
	gateCount = 64

	allocGatesLen = 105
)

// PinNone marks a chip wire output pin as "not a chip", i.e. the wire
// drives an ordinary sprite object instead.
const PinNone = 0xFF

// Circuit is a typed view over the CircuitSize-byte circuit data block:
// wires, flip-flop state, small-chip wiring, gate/node/flip-flop
// allocation tables, and toolbox status.
type Circuit struct {
	b []byte
}

// NewCircuit wraps b, which must be at least CircuitSize bytes, as a
// Circuit view. b is aliased, not copied.
func NewCircuit(b []byte) *Circuit {
	return &Circuit{b: b[:CircuitSize]}
}

// Bytes returns the backing CircuitSize-byte slice.
func (c *Circuit) Bytes() []byte { return c.b }

// ObjWireOutputObj returns, for each of the 256 object wires, the
// object it drives.
func (c *Circuit) ObjWireOutputObj() []byte { return c.b[offObjWireOutputObj : offObjWireOutputObj+0x100] }
func (c *Circuit) ObjWireX1() []byte        { return c.b[offObjWireX1 : offObjWireX1+0x100] }
func (c *Circuit) ObjWireX2() []byte        { return c.b[offObjWireX2 : offObjWireX2+0x100] }
func (c *Circuit) ObjWireY1() []byte        { return c.b[offObjWireY1 : offObjWireY1+0x100] }
func (c *Circuit) ObjWireY2() []byte        { return c.b[offObjWireY2 : offObjWireY2+0x100] }

// FFState returns, one byte per flip-flop half, its latched 0/1 state.
func (c *Circuit) FFState() []byte  { return c.b[offFFState : offFFState+ffCount] }
func (c *Circuit) FFInputs() []byte { return c.b[offFFInputs : offFFInputs+ffCount] }

func (c *Circuit) NodeInputObj() []byte   { return c.b[offNodeInputObj : offNodeInputObj+nodeCount] }
func (c *Circuit) NodeOutput2Obj() []byte { return c.b[offNodeOutput2Obj : offNodeOutput2Obj+nodeCount] }
func (c *Circuit) NodeX1() []byte         { return c.b[offNodeX1 : offNodeX1+nodeCount] }
func (c *Circuit) NodeX2() []byte         { return c.b[offNodeX2 : offNodeX2+nodeCount] }
func (c *Circuit) NodeY1() []byte         { return c.b[offNodeY1 : offNodeY1+nodeCount] }
func (c *Circuit) NodeY2() []byte         { return c.b[offNodeY2 : offNodeY2+nodeCount] }

func (c *Circuit) ChipY1() []byte        { return c.b[offChipY1 : offChipY1+gateCount] }
func (c *Circuit) ChipY2() []byte        { return c.b[offChipY2 : offChipY2+gateCount] }
func (c *Circuit) ChipX1() []byte        { return c.b[offChipX1 : offChipX1+gateCount] }
func (c *Circuit) ChipX2() []byte        { return c.b[offChipX2 : offChipX2+gateCount] }
func (c *Circuit) ChipOutputObj() []byte { return c.b[offChipOutputObj : offChipOutputObj+gateCount] }

// ChipOutputPin returns, per chip wire, which pin it drives: PinNone
// if the output object isn't a chip, otherwise 0-7.
func (c *Circuit) ChipOutputPin() []byte { return c.b[offChipOutputPin : offChipOutputPin+gateCount] }

// AllocGates is the free-gate allocation table: a ROGate tag every
// third slot.
func (c *Circuit) AllocGates() []byte { return c.b[offAllocGates : offAllocGates+allocGatesLen] }
func (c *Circuit) AllocNodes() []byte { return c.b[offAllocNodes : offAllocNodes+nodeCount] }

// AllocFF is indexed by sprite id; only even slots are used.
func (c *Circuit) AllocFF() []byte { return c.b[offAllocFF : offAllocFF+ffCount] }

func (c *Circuit) SpecialCursorObj() uint8     { return c.b[offSpecialCursorObj] }
func (c *Circuit) SetSpecialCursorObj(v uint8) { c.b[offSpecialCursorObj] = v }

func (c *Circuit) RemoteIsOn() bool     { return c.b[offRemoteIsOn] != 0 }
func (c *Circuit) SetRemoteIsOn(v bool) { c.b[offRemoteIsOn] = boolByte(v) }

func (c *Circuit) ToolboxFFCount() uint8   { return c.b[offToolboxFFCount] }
func (c *Circuit) ToolboxNodeCount() uint8 { return c.b[offToolboxNodeCount] }
func (c *Circuit) ToolboxGateCount() uint8 { return c.b[offToolboxGateCount] }

// IsClosed reports whether the circuit's toolbox view is closed.
func (c *Circuit) IsClosed() bool { return c.b[offToolboxIsClosed] != 0 }

func boolByte(v bool) byte {
	if v {
		return 1
	}
	return 0
}
