// Copyright 2026 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package scanvec provides the compare-and-reduce kernels used on the
// scan map lookup path: lane-wise equality of a reference block against
// a broadcast query element, AND-accumulation into candidate mask
// words, and set-bit extraction from the surviving mask.
//
// The kernels are written as portable scalar loops over uint16 lanes.
// They are small enough for the compiler to unroll reasonably, and the
// mask words keep the reduction a single AND per block; dedicated
// vector implementations can be slotted in behind the same signatures
// if profiles ever justify it.
package scanvec

import (
	"math/bits"

	"github.com/grailbio/base/simd"
)

func init() {
	if simd.BytesPerWord != 8 {
		// Mask words assume 64-bit uintptr; lane width 64 does not fit
		// otherwise.
		panic("8-byte words required.")
	}
}

// EqMask returns a bitmask with bit i set iff ref[i] == qb.  len(ref)
// must not exceed 64.
func EqMask(ref []uint16, qb uint16) uintptr {
	var m uintptr
	for i, r := range ref {
		if r == qb {
			m |= uintptr(1) << uint(i)
		}
	}
	return m
}

// EqMaskAnd ANDs the equality mask of each reference block against the
// corresponding word of mask[].  refs holds len(mask) consecutive
// blocks of laneWidth lanes; the comparison element qb is broadcast
// across every lane.  Blocks whose mask word is already zero are
// skipped.
func EqMaskAnd(mask []uintptr, refs []uint16, qb uint16, laneWidth int) {
	for b, w := range mask {
		if w == 0 {
			continue
		}
		mask[b] = w & EqMask(refs[b*laneWidth:(b+1)*laneWidth], qb)
	}
}

// AllZero returns true iff every word of mask is zero.
func AllZero(mask []uintptr) bool {
	for _, w := range mask {
		if w != 0 {
			return false
		}
	}
	return true
}

// FirstBit returns the lane index (block * laneWidth + lane) of the
// lowest set bit in mask, or -1 if mask is all-zero.
func FirstBit(mask []uintptr, laneWidth int) int {
	for b, w := range mask {
		if w != 0 {
			return b*laneWidth + bits.TrailingZeros64(uint64(w))
		}
	}
	return -1
}
