// Package psmap implements a "perfect scan map": an immutable
// associative container for small keyed dictionaries, built once and
// queried many times, whose lookup path never hashes.
//
// At build time a solver chooses a short list of byte positions such
// that comparing a query's bytes at those positions against
// precomputed per-key reference lanes, and AND-reducing the resulting
// match masks, leaves at most one candidate key.  A lookup is then a
// handful of lane-wide compares, one AND per block per scan, and a
// single full-key equality check to reject coincidental matches.
// Lookups allocate nothing and mutate nothing, so a built Map may be
// shared freely across goroutines.
//
// Key lengths may differ, and a key may be a proper prefix of another:
// positions at or past a key's end compare via out-of-band terminal
// elements that a query reproduces exactly when (and only when) its
// length matches.  See package keytable.
package psmap
