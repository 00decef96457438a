package solver_test

import (
	"fmt"
	"testing"

	"github.com/grailbio/scanmap/keytable"
	"github.com/grailbio/scanmap/solver"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustTable(t *testing.T, keys ...string) *keytable.Table {
	t.Helper()
	kb := make([][]byte, len(keys))
	for i, k := range keys {
		kb[i] = []byte(k)
	}
	tbl, err := keytable.New(kb)
	require.NoError(t, err)
	return tbl
}

// checkPerfect verifies the plan's uniqueness contract directly: every
// pair of keys must disagree at some scanned position.
func checkPerfect(t *testing.T, tbl *keytable.Table, p *solver.Plan) {
	t.Helper()
	n := tbl.Len()
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			separated := false
			for s := 0; s < p.NumScans(); s++ {
				ref := p.ReferenceVector(s)
				if ref[i] != ref[j] {
					separated = true
					break
				}
			}
			assert.True(t, separated, "keys %d and %d not separated", i, j)
		}
	}
}

func TestFirstCharUnique(t *testing.T) {
	tbl := mustTable(t, "key1", "now4", "something", "another", "interesting", "thanks")
	p, err := solver.Solve(tbl, solver.Opts{})
	require.NoError(t, err)
	require.Equal(t, 1, p.NumScans())
	assert.Equal(t, 0, p.Position(0))
	ref := p.ReferenceVector(0)
	want := []uint16{'k', 'n', 's', 'a', 'i', 't'}
	for i, w := range want {
		assert.Equal(t, w, ref[i], "lane %d", i)
	}
	// Lanes past the key count hold the pad value, which no query
	// element can equal.
	for lane := tbl.Len(); lane < len(ref); lane++ {
		assert.Equal(t, uint16(keytable.PadLane), ref[lane], "lane %d", lane)
	}
	checkPerfect(t, tbl, p)
}

func TestSharedFirstChars(t *testing.T) {
	tbl := mustTable(t, "hello", "help", "bello")
	p, err := solver.Solve(tbl, solver.Opts{})
	require.NoError(t, err)
	require.Equal(t, 2, p.NumScans())
	// Position 0 separates "bello"; the tie at score time goes to the
	// smallest position, so it is chosen first.  "hello" vs "help" then
	// needs position 3.
	assert.Equal(t, 0, p.Position(0))
	assert.Equal(t, 3, p.Position(1))
	checkPerfect(t, tbl, p)
}

func TestPrefixFamily(t *testing.T) {
	tbl := mustTable(t, "key1", "key1longer", "key", "now4", "something", "something_b")
	p, err := solver.Solve(tbl, solver.Opts{})
	require.NoError(t, err)
	// Prefix pairs are only separable at or past the shorter key's
	// end, so the plan must probe there; the greedy selector needs at
	// most three positions for this set.
	assert.True(t, p.NumScans() >= 2 && p.NumScans() <= 3, "got %d scans", p.NumScans())
	checkPerfect(t, tbl, p)
}

func TestTrivialTables(t *testing.T) {
	for _, keys := range [][]string{{}, {"solo"}, {""}} {
		tbl := mustTable(t, keys...)
		p, err := solver.Solve(tbl, solver.Opts{})
		require.NoError(t, err)
		assert.Equal(t, 0, p.NumScans(), "keys %v", keys)
		assert.Equal(t, len(keys), p.NumKeys())
	}
}

func TestValidityMask(t *testing.T) {
	var keys []string
	for i := 0; i < 20; i++ {
		keys = append(keys, fmt.Sprintf("key%02d", i))
	}
	tbl := mustTable(t, keys...)
	p, err := solver.Solve(tbl, solver.Opts{LaneWidth: 16})
	require.NoError(t, err)
	require.Equal(t, 2, p.NumBlocks())
	mask := p.ValidityMask()
	assert.Equal(t, uintptr(0xffff), mask[0])
	assert.Equal(t, uintptr(0xf), mask[1])
	checkPerfect(t, tbl, p)
}

func TestFullBlock(t *testing.T) {
	var keys []string
	for i := 0; i < 64; i++ {
		keys = append(keys, fmt.Sprintf("k%02d", i))
	}
	tbl := mustTable(t, keys...)
	p, err := solver.Solve(tbl, solver.Opts{LaneWidth: 64})
	require.NoError(t, err)
	require.Equal(t, 1, p.NumBlocks())
	assert.Equal(t, ^uintptr(0), p.ValidityMask()[0])
	checkPerfect(t, tbl, p)
}

func TestLaneWidthNeutrality(t *testing.T) {
	tbl := mustTable(t, "key1", "key1longer", "key", "now4", "something", "something_b")
	var prev *solver.Plan
	for _, w := range []int{16, 32, 64} {
		p, err := solver.Solve(tbl, solver.Opts{LaneWidth: w})
		require.NoError(t, err)
		if prev != nil {
			require.Equal(t, prev.NumScans(), p.NumScans(), "lane width %d", w)
			for j := 0; j < p.NumScans(); j++ {
				assert.Equal(t, prev.Position(j), p.Position(j), "lane width %d scan %d", w, j)
			}
		}
		prev = p
	}
}

func TestTooWide(t *testing.T) {
	tbl := mustTable(t, "aaaa1", "aaaa2")
	_, err := solver.Solve(tbl, solver.Opts{MaxPos: 2})
	require.Error(t, err)
	assert.Equal(t, solver.ErrTooWide, errors.Cause(err))

	// The same keys solve fine without the cap.
	p, err := solver.Solve(tbl, solver.Opts{})
	require.NoError(t, err)
	assert.Equal(t, 1, p.NumScans())
	assert.Equal(t, 4, p.Position(0))
}

func TestMaxPosLargeEnough(t *testing.T) {
	tbl := mustTable(t, "ab", "ac")
	p, err := solver.Solve(tbl, solver.Opts{MaxPos: 1})
	require.NoError(t, err)
	assert.Equal(t, 1, p.NumScans())
	assert.Equal(t, 1, p.Position(0))
}

func TestBadLaneWidthPanics(t *testing.T) {
	tbl := mustTable(t, "a", "b")
	assert.Panics(t, func() {
		_, _ = solver.Solve(tbl, solver.Opts{LaneWidth: 8})
	})
}

func TestKeyIndexFromBitRange(t *testing.T) {
	tbl := mustTable(t, "a", "b")
	p, err := solver.Solve(tbl, solver.Opts{})
	require.NoError(t, err)
	assert.Equal(t, 0, p.KeyIndexFromBit(0))
	assert.Equal(t, 1, p.KeyIndexFromBit(1))
	assert.Panics(t, func() { p.KeyIndexFromBit(2) })
}
