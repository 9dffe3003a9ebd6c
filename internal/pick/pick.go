package pick

import "time"

const msPerDay = 86_400_000

// LCG parameters. These define the observable shuffle order; changing them
// changes which image every installation shows on a given day.
const (
	lcgMultiplier = 9301
	lcgIncrement  = 49297
	lcgModulus    = 233280
)

// EpochDays returns the whole number of days between the Unix epoch and t,
// using UTC day boundaries. The division is a mathematical floor, so dates
// before 1970 yield negative day counts without an off-by-one.
func EpochDays(t time.Time) int64 {
	return floorDiv(t.UnixMilli(), msPerDay)
}

// CivilDays returns the day count of t's wall-clock date in t's location.
// Two observers in different zones can disagree by one day near midnight;
// callers choose the boundary policy by choosing the location of t.
func CivilDays(t time.Time) int64 {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / (msPerDay / 1000)
}

// Cycle splits a day count into the active reshuffle cycle and the day's
// offset within it, for a collection of size n.
//
// The cycle number doubles as the shuffle seed. pos is always in [0, n),
// also for negative day counts. ok is false when n <= 0: with no items
// there is no cycle to be in.
func Cycle(days int64, n int) (seed int64, pos int, ok bool) {
	if n <= 0 {
		return 0, 0, false
	}
	return floorDiv(days, int64(n)), int(floorMod(days, int64(n))), true
}

// Shuffle returns a new slice holding the items of s reordered by a
// Fisher-Yates shuffle driven by a seeded LCG. The input is never mutated,
// and identical (len(s), seed) pairs always produce the identical order.
func Shuffle[T any](s []T, seed int64) []T {
	out := make([]T, len(s))
	copy(out, s)
	g := lcg{state: seed}
	for i := len(out) - 1; i >= 1; i-- {
		j := int(g.next() * float64(i+1))
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// ForDay selects the item for the given day count. ok is false when the
// collection is empty.
func ForDay[T any](s []T, days int64) (item T, ok bool) {
	seed, pos, ok := Cycle(days, len(s))
	if !ok {
		var zero T
		return zero, false
	}
	return Shuffle(s, seed)[pos], true
}

// ForDate selects the item for the calendar day containing date, using UTC
// day boundaries. Callers that want local-midnight boundaries resolve the
// day count themselves (CivilDays) and use ForDay.
func ForDate[T any](s []T, date time.Time) (T, bool) {
	return ForDay(s, EpochDays(date))
}

// lcg is a linear congruential generator over the modulus above. The state
// stays below the modulus after the first step, so the multiply never
// approaches int64 overflow for any realistic seed.
type lcg struct {
	state int64
}

// next advances the generator and returns a fraction in [0, 1).
func (g *lcg) next() float64 {
	g.state = floorMod(g.state*lcgMultiplier+lcgIncrement, lcgModulus)
	return float64(g.state) / float64(lcgModulus)
}

// floorDiv is integer division rounding toward negative infinity.
func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// floorMod is the Euclidean remainder, in [0, b) for b > 0.
func floorMod(a, b int64) int64 {
	r := a % b
	if r < 0 {
		r += b
	}
	return r
}
