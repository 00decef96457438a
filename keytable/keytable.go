// Package keytable stores the immutable key set a scan map is built
// from, and defines the effective-byte rule shared by the plan builder
// and the lookup path.
//
// Comparison elements are uint16, not byte: positions at or past a
// key's end yield 0x100 + (pos - len), so they can never collide with a
// real key byte, and two keys of different lengths always disagree at
// every position from the shorter end onward.  Two distinct keys of
// equal length necessarily disagree at some real position, so any two
// distinct keys are separable by at least one position.
package keytable

import (
	"github.com/grailbio/base/simd"
	"github.com/pkg/errors"
)

var (
	// ErrDuplicateKey is returned by New when two keys are equal.
	ErrDuplicateKey = errors.New("keytable: duplicate key")
	// ErrKeyTooLong is returned by New when a key is longer than
	// MaxKeyLen.
	ErrKeyTooLong = errors.New("keytable: key too long")
)

const (
	// PastEnd marks comparison elements for positions at or past a
	// key's end: the element is PastEnd + the distance past the end.
	// Real bytes occupy [0, 0x100), so marked elements are disjoint
	// from them.
	PastEnd = 0x100

	// MaxKeyLen bounds key length so that PastEnd + (pos - len) stays
	// below PadLane for every position the plan builder can probe
	// (pos <= maxLen + 1).
	MaxKeyLen = 0xfe00

	// PadLane is the reference-vector fill value for lanes past the
	// last real key.  No key or query element can equal it.
	PadLane = 0xffff
)

// Table is an immutable sequence of distinct keys.  Key bytes are
// copied into a single arena at construction; the source slices are not
// retained.
type Table struct {
	keys   [][]byte
	arena  []byte
	maxLen int
}

// New copies keys into a new Table.  It returns ErrDuplicateKey if two
// keys are equal, and ErrKeyTooLong if any key exceeds MaxKeyLen.
func New(keys [][]byte) (*Table, error) {
	t := &Table{
		keys: make([][]byte, len(keys)),
	}
	total := 0
	for i, k := range keys {
		if len(k) > MaxKeyLen {
			return nil, errors.Wrapf(ErrKeyTooLong, "key %d has length %d", i, len(k))
		}
		if len(k) > t.maxLen {
			t.maxLen = len(k)
		}
		total += len(k)
	}
	seen := make(map[string]int, len(keys))
	t.arena = simd.MakeUnsafe(total)
	offset := 0
	for i, k := range keys {
		if j, ok := seen[string(k)]; ok {
			return nil, errors.Wrapf(ErrDuplicateKey, "keys %d and %d (%q)", j, i, k)
		}
		seen[string(k)] = i
		copy(t.arena[offset:], k)
		t.keys[i] = t.arena[offset : offset+len(k)]
		offset += len(k)
	}
	return t, nil
}

// Len returns the number of keys.
func (t *Table) Len() int {
	return len(t.keys)
}

// MaxLen returns the length of the longest key, or 0 for an empty
// table.
func (t *Table) MaxLen() int {
	return t.maxLen
}

// Key returns key i.  The returned slice is read-only.
func (t *Table) Key(i int) []byte {
	return t.keys[i]
}

// EffectiveByte returns the comparison element for key i at pos: the
// real byte when pos is in range, and the past-end element otherwise.
func (t *Table) EffectiveByte(i, pos int) uint16 {
	k := t.keys[i]
	if pos < len(k) {
		return uint16(k[pos])
	}
	return PastEnd + uint16(pos-len(k))
}

// QueryByte applies the same rule to a query.  A query therefore
// produces the same element sequence as a stored key iff the two are
// byte-for-byte equal, which is what lets past-end positions
// distinguish a key from its proper prefixes.
//
// pos must not exceed MaxKeyLen + 1; plan positions never do.
func QueryByte(q []byte, pos int) uint16 {
	if pos < len(q) {
		return uint16(q[pos])
	}
	return PastEnd + uint16(pos-len(q))
}
