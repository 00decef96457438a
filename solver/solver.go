// Package solver chooses the byte positions a scan map compares at.
//
// The output contract: AND-reducing the per-position equality masks of
// any query leaves at most one candidate lane set.  Equivalently, for
// every pair of distinct keys there is at least one chosen position
// where their effective bytes differ.
//
// Selection is greedy.  The solver maintains a partition of the key
// indices (keys still mutually indistinguishable share a block) and
// repeatedly picks the position whose induced refinement has the lowest
// sum of |B|*ln|B| over resulting blocks, until every block is a
// singleton.  Ties go to the smaller position.  Construction cost is
// O(scans * positions * keys), which is fine at the intended scale;
// incremental per-block caching would help but hasn't been needed.
package solver

import (
	"math"

	"github.com/grailbio/base/log"
	"github.com/grailbio/base/simd"
	"github.com/grailbio/scanmap/keytable"
	"github.com/pkg/errors"
)

var (
	// ErrUnsolvable is returned when a full sweep of candidate
	// positions cannot separate the remaining keys.  The effective-byte
	// rule separates any two distinct keys, so this is unreachable for
	// a well-formed table; it is reported rather than trusted.
	ErrUnsolvable = errors.New("solver: keys not distinguishable by byte positions")
	// ErrTooWide is returned when refinement is blocked only by the
	// configured position cap.
	ErrTooWide = errors.New("solver: position cap reached before keys were distinguished")
)

// Opts configures Solve.
type Opts struct {
	// LaneWidth is the number of keys compared per block: 16, 32, or
	// 64.  0 selects simd.BytesPerVec().
	LaneWidth int
	// MaxPos, if positive, caps the highest candidate position
	// (inclusive).  Keys whose distinguishing positions all lie beyond
	// the cap make Solve fail with ErrTooWide.
	MaxPos int
}

// Solve builds a Plan for t.  On success the plan satisfies the
// uniqueness contract above.  Tables with fewer than two keys need no
// scans at all.
func Solve(t *keytable.Table, opts Opts) (*Plan, error) {
	laneWidth := opts.LaneWidth
	if laneWidth == 0 {
		laneWidth = simd.BytesPerVec()
	}
	if laneWidth != 16 && laneWidth != 32 && laneWidth != 64 {
		log.Panicf("solver: unsupported lane width %d", laneWidth)
	}
	n := t.Len()
	nBlocks := (n + laneWidth - 1) / laneWidth
	p := &Plan{
		n:         n,
		laneWidth: laneWidth,
		validity:  make([]uintptr, nBlocks),
	}
	for b := 0; b < nBlocks; b++ {
		nBits := n - b*laneWidth
		if nBits > laneWidth {
			nBits = laneWidth
		}
		p.validity[b] = (uintptr(1) << uint(nBits)) - 1
	}
	if n < 2 {
		return p, nil
	}

	maxPos := t.MaxLen() + 1
	capped := false
	if opts.MaxPos > 0 && opts.MaxPos < maxPos {
		maxPos = opts.MaxPos
		capped = true
	}

	all := make([]int, n)
	for i := range all {
		all[i] = i
	}
	blocks := [][]int{all}
	var positions []int
	for !allSingletons(blocks) {
		bestPos := -1
		bestScore := math.Inf(1)
		for pos := 0; pos <= maxPos; pos++ {
			score, splits := refinedScore(t, blocks, pos)
			if splits && score < bestScore {
				bestScore = score
				bestPos = pos
			}
		}
		if bestPos < 0 {
			if capped {
				return nil, errors.Wrapf(ErrTooWide, "no refining position in [0, %d]", maxPos)
			}
			return nil, ErrUnsolvable
		}
		positions = append(positions, bestPos)
		blocks = refine(t, blocks, bestPos)
	}

	p.scans = make([]scan, len(positions))
	for j, pos := range positions {
		ref := make([]uint16, nBlocks*laneWidth)
		for lane := range ref {
			if lane < n {
				ref[lane] = t.EffectiveByte(lane, pos)
			} else {
				ref[lane] = keytable.PadLane
			}
		}
		p.scans[j] = scan{pos: pos, ref: ref}
	}
	return p, nil
}

func allSingletons(blocks [][]int) bool {
	for _, b := range blocks {
		if len(b) > 1 {
			return false
		}
	}
	return true
}

// refinedScore evaluates the partition obtained by splitting every
// block of blocks on the effective byte at pos.  It returns the sum of
// |B|*ln|B| over the resulting blocks (singletons contribute nothing),
// and whether at least one block actually splits.  Positions that
// split nothing must not be selected, no matter how their float score
// compares.
func refinedScore(t *keytable.Table, blocks [][]int, pos int) (float64, bool) {
	var score float64
	splits := false
	counts := make(map[uint16]int)
	for _, b := range blocks {
		if len(b) < 2 {
			continue
		}
		clear(counts)
		for _, i := range b {
			counts[t.EffectiveByte(i, pos)]++
		}
		if len(counts) > 1 {
			splits = true
		}
		for _, c := range counts {
			if c > 1 {
				score += float64(c) * math.Log(float64(c))
			}
		}
	}
	return score, splits
}

// refine splits every block of blocks on the effective byte at pos.
// Within a block, subgroup order follows first appearance, so the
// result is deterministic.
func refine(t *keytable.Table, blocks [][]int, pos int) [][]int {
	out := make([][]int, 0, len(blocks))
	for _, b := range blocks {
		if len(b) < 2 {
			out = append(out, b)
			continue
		}
		groups := make(map[uint16][]int)
		var order []uint16
		for _, i := range b {
			e := t.EffectiveByte(i, pos)
			if _, ok := groups[e]; !ok {
				order = append(order, e)
			}
			groups[e] = append(groups[e], i)
		}
		for _, e := range order {
			out = append(out, groups[e])
		}
	}
	return out
}
