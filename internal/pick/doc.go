// Package pick implements the deterministic picture-of-the-day selection.
//
// The selection is a pure function of (collection, date): a calendar day maps
// to a (cycle, position) pair, the cycle number seeds a reproducible shuffle
// of the collection, and the position indexes into that shuffled order. Over
// any run of N consecutive days (N = collection length) every item is
// selected exactly once; when the run is exhausted the next cycle reshuffles
// with a new seed.
//
// The shuffle is driven by a small linear congruential generator, not by
// math/rand or any ambient randomness, so the same inputs produce the same
// permutation on every platform and every invocation. It is reproducible,
// not unpredictable.
package pick
