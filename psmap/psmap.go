package psmap

import (
	"github.com/grailbio/base/traverse"
	gunsafe "github.com/grailbio/base/unsafe"
	"github.com/grailbio/scanmap/keytable"
	"github.com/grailbio/scanmap/solver"
	"github.com/pkg/errors"
)

var (
	// ErrLengthMismatch is returned by New when the key and value
	// sequences differ in length.
	ErrLengthMismatch = errors.New("psmap: keys and values differ in length")
	// ErrTooManyKeys is returned by New when more than MaxKeys keys are
	// supplied.
	ErrTooManyKeys = errors.New("psmap: too many keys")
)

const (
	// MaxKeys is the largest supported key count.  The scan design
	// targets dictionaries of up to roughly a hundred keys; the hard
	// bound exists so the lookup path can keep its candidate mask in a
	// fixed-size stack buffer.
	MaxKeys = 512

	// maxMaskWords is MaxKeys / the minimum lane width: enough mask
	// words for any supported configuration.
	maxMaskWords = MaxKeys / 16
)

type opts struct {
	laneWidth  int
	maxScanPos int
}

// Opt is an optional argument to New, NewStrings, and NewMulti.
type Opt func(*opts)

// OptLaneWidth sets the number of keys compared per block: 16, 32, or
// 64.  The choice affects lookup cost only; the query->result mapping
// is identical across widths.  The default is the vector byte width
// reported by base/simd.
func OptLaneWidth(w int) Opt {
	return func(o *opts) {
		o.laneWidth = w
	}
}

// OptMaxScanPos caps the highest byte position the plan may probe
// (inclusive).  Builds whose keys cannot be distinguished within the
// cap fail with solver.ErrTooWide.
func OptMaxScanPos(p int) Opt {
	return func(o *opts) {
		o.maxScanPos = p
	}
}

func makeOpts(userOpts ...Opt) opts {
	var parsedOpts opts
	for _, userOpt := range userOpts {
		userOpt(&parsedOpts)
	}
	return parsedOpts
}

// Map is an immutable byte-string-keyed dictionary with value type V.
// It is safe for unlimited concurrent readers.
type Map[V any] struct {
	table  *keytable.Table
	plan   *solver.Plan
	values []V
}

// New builds a Map from parallel key and value sequences.  Keys must be
// distinct; key bytes are copied, so callers may reuse their slices.
// Pairing is preserved: a successful Get(keys[i]) returns &values[i]'s
// copy.
func New[V any](keys [][]byte, values []V, options ...Opt) (*Map[V], error) {
	if len(keys) != len(values) {
		return nil, errors.Wrapf(ErrLengthMismatch, "%d keys, %d values", len(keys), len(values))
	}
	if len(keys) > MaxKeys {
		return nil, errors.Wrapf(ErrTooManyKeys, "%d keys, limit %d", len(keys), MaxKeys)
	}
	parsedOpts := makeOpts(options...)
	table, err := keytable.New(keys)
	if err != nil {
		return nil, err
	}
	plan, err := solver.Solve(table, solver.Opts{
		LaneWidth: parsedOpts.laneWidth,
		MaxPos:    parsedOpts.maxScanPos,
	})
	if err != nil {
		return nil, err
	}
	m := &Map[V]{
		table:  table,
		plan:   plan,
		values: make([]V, len(values)),
	}
	copy(m.values, values)
	return m, nil
}

// NewStrings is New for string keys.
func NewStrings[V any](keys []string, values []V, options ...Opt) (*Map[V], error) {
	keyBytes := make([][]byte, len(keys))
	for i, k := range keys {
		// New copies key bytes into its own arena, so the transient
		// views do not escape.
		keyBytes[i] = gunsafe.StringToBytes(k)
	}
	return New(keyBytes, values, options...)
}

// NewMulti builds one Map per keyset, in parallel.  It fails on the
// first build error, annotated with the offending index.
func NewMulti[V any](keysets [][][]byte, valuesets [][]V, options ...Opt) ([]*Map[V], error) {
	if len(keysets) != len(valuesets) {
		return nil, errors.Wrapf(ErrLengthMismatch, "%d keysets, %d valuesets", len(keysets), len(valuesets))
	}
	maps := make([]*Map[V], len(keysets))
	err := traverse.Each(len(keysets), func(i int) error {
		m, err := New(keysets[i], valuesets[i], options...)
		if err != nil {
			return errors.Wrapf(err, "map %d", i)
		}
		maps[i] = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	return maps, nil
}

// Len returns the number of keys.
func (m *Map[V]) Len() int {
	return m.table.Len()
}

// Key returns key i in build order.  The returned slice is read-only.
func (m *Map[V]) Key(i int) []byte {
	return m.table.Key(i)
}

// NumScans returns the number of byte positions a lookup probes.
func (m *Map[V]) NumScans() int {
	return m.plan.NumScans()
}
