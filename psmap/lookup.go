package psmap

import (
	"github.com/grailbio/base/bitset"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/simd"
	gunsafe "github.com/grailbio/base/unsafe"
	"github.com/grailbio/scanmap/keytable"
	"github.com/grailbio/scanmap/scanvec"
)

// Get returns a pointer to the value paired with query, or (nil, false)
// if query is not a stored key.  It performs no allocation and no
// mutation; any number of Gets may run concurrently.
func (m *Map[V]) Get(query []byte) (*V, bool) {
	i := m.lookup(query)
	if i < 0 {
		return nil, false
	}
	return &m.values[i], true
}

// GetString is Get for string queries, without copying the string.
func (m *Map[V]) GetString(query string) (*V, bool) {
	return m.Get(gunsafe.StringToBytes(query))
}

// lookup returns the index of the key equal to query, or -1.
func (m *Map[V]) lookup(query []byte) int {
	plan := m.plan
	nBlocks := plan.NumBlocks()
	if nBlocks == 0 {
		return -1
	}
	var maskArr [maxMaskWords]uintptr
	mask := maskArr[:nBlocks]
	copy(mask, plan.ValidityMask())
	laneWidth := plan.LaneWidth()
	for j := 0; j < plan.NumScans(); j++ {
		qb := keytable.QueryByte(query, plan.Position(j))
		scanvec.EqMaskAnd(mask, plan.ReferenceVector(j), qb, laneWidth)
		if scanvec.AllZero(mask) {
			return -1
		}
	}
	// The plan guarantees at most one surviving lane; taking the lowest
	// set bit is therefore exact, and means a corrupted plan degrades
	// to a wrong candidate (rejected below) rather than a crash.
	b := scanvec.FirstBit(mask, laneWidth)
	if b < 0 {
		return -1
	}
	i := plan.KeyIndexFromBit(b)
	// The scan only samples a few positions, so any query can reach
	// here on a coincidental match; confirm against the full key.
	key := m.table.Key(i)
	if len(key) != len(query) {
		return -1
	}
	if len(query) != 0 && simd.FirstUnequal8(key, query, 0) != len(query) {
		return -1
	}
	return i
}

// AppendCandidates appends to dst the key indices still consistent
// with query after all scans, before final full-key validation, and
// returns the extended slice.  A correctly built Map yields at most
// one candidate for any query; the method exists for tests and
// debugging, not the lookup path.
func (m *Map[V]) AppendCandidates(dst []int, query []byte) []int {
	plan := m.plan
	nBlocks := plan.NumBlocks()
	if nBlocks == 0 {
		return dst
	}
	var maskArr [maxMaskWords]uintptr
	mask := maskArr[:nBlocks]
	copy(mask, plan.ValidityMask())
	laneWidth := plan.LaneWidth()
	for j := 0; j < plan.NumScans(); j++ {
		qb := keytable.QueryByte(query, plan.Position(j))
		scanvec.EqMaskAnd(mask, plan.ReferenceVector(j), qb, laneWidth)
	}
	nzwPop := 0
	for _, w := range mask {
		if w != 0 {
			nzwPop++
		}
	}
	if nzwPop == 0 {
		return dst
	}
	// The scanner's bit indexing is word-major; convert back to lane
	// numbering (one mask word per block).
	for s, g := bitset.NewNonzeroWordScanner(mask, nzwPop); g != -1; g = s.Next() {
		dst = append(dst, (g/bitset.BitsPerWord)*laneWidth+g%bitset.BitsPerWord)
	}
	return dst
}

// CheckPanic verifies the map's lookup invariants, panicking on
// failure:
// * The validity mask has the low min(laneWidth, remaining-keys) bits
//   set in each block word and no others.
// * Every stored key, queried back, survives the scan in exactly its
//   own lane.
// * Reference lanes at and past the key count hold the pad element.
func (m *Map[V]) CheckPanic(tag string) {
	plan := m.plan
	n := plan.NumKeys()
	laneWidth := plan.LaneWidth()
	validity := plan.ValidityMask()
	for b := 0; b < plan.NumBlocks(); b++ {
		nBits := n - b*laneWidth
		if nBits > laneWidth {
			nBits = laneWidth
		}
		want := (uintptr(1) << uint(nBits)) - 1
		if validity[b] != want {
			log.Panicf("validity word %d = %#x, want %#x, tag: %s", b, validity[b], want, tag)
		}
	}
	for j := 0; j < plan.NumScans(); j++ {
		ref := plan.ReferenceVector(j)
		for lane := n; lane < len(ref); lane++ {
			if ref[lane] != keytable.PadLane {
				log.Panicf("scan %d lane %d = %#x, want pad, tag: %s", j, lane, ref[lane], tag)
			}
		}
	}
	var candidates []int
	for i := 0; i < n; i++ {
		candidates = m.AppendCandidates(candidates[:0], m.table.Key(i))
		if len(candidates) != 1 || candidates[0] != i {
			log.Panicf("key %d: surviving lanes %v, tag: %s", i, candidates, tag)
		}
		if got := m.lookup(m.table.Key(i)); got != i {
			log.Panicf("key %d: lookup returned %d, tag: %s", i, got, tag)
		}
	}
}
