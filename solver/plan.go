package solver

import (
	"github.com/grailbio/base/log"
)

// scan is one (position, reference vector) pair.  ref holds
// NumBlocks() * laneWidth lanes; lanes at or past the key count are
// PadLane.
type scan struct {
	pos int
	ref []uint16
}

// Plan is the compiled lookup table produced by Solve.  It is read-only
// after construction; any number of concurrent readers are safe.
//
// Candidate lanes are numbered block-major: lane l of block b is
// candidate bit b*LaneWidth() + l, and candidate bits below NumKeys()
// map one-to-one onto key indices (keys are not reordered).
type Plan struct {
	n         int
	laneWidth int
	scans     []scan
	validity  []uintptr
}

// NumKeys returns the number of keys the plan was built over.
func (p *Plan) NumKeys() int {
	return p.n
}

// LaneWidth returns the number of lanes compared per block.
func (p *Plan) LaneWidth() int {
	return p.laneWidth
}

// NumBlocks returns ceil(NumKeys / LaneWidth).
func (p *Plan) NumBlocks() int {
	return len(p.validity)
}

// NumScans returns the number of scanned positions.
func (p *Plan) NumScans() int {
	return len(p.scans)
}

// Position returns the byte position probed by scan j.
func (p *Plan) Position(j int) int {
	return p.scans[j].pos
}

// ReferenceVector returns scan j's reference lanes, NumBlocks() blocks
// of LaneWidth() elements each.  The returned slice is read-only.
func (p *Plan) ReferenceVector(j int) []uint16 {
	return p.scans[j].ref
}

// ValidityMask returns one word per block with the low LaneWidth() bits
// of real key lanes set and all padding lanes clear.  The returned
// slice is read-only; callers must copy it before AND-reducing into it.
func (p *Plan) ValidityMask() []uintptr {
	return p.validity
}

// KeyIndexFromBit maps a candidate bit to its key index.  Keys keep
// their build order, so the mapping is the identity; the method exists
// so lookup code does not bake that assumption in.
func (p *Plan) KeyIndexFromBit(b int) int {
	if b < 0 || b >= p.n {
		log.Panicf("KeyIndexFromBit: bit %d out of range [0, %d)", b, p.n)
	}
	return b
}
