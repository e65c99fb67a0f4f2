// Package escape decides whether the orbit of z ← z² + c, started at z = 0, escapes.
package escape

// Stats counts what an Evaluator did. A nil *Stats disables counting.
// Stats are not safe for concurrent use; every worker owns its own.
type Stats struct {
	Evaluations   uint64
	ShortCircuits uint64 // points rejected by the cardioid or period-2 bulb test
	Iterations    uint64 // loop iterations over all evaluations
	Cycles        uint64 // orbits caught repeating a value
	Escapes       uint64
	Exhausted     uint64 // orbits that used the whole budget
}

// Evaluator computes escape times with a fixed budget.
type Evaluator struct {
	// Limit is the iteration budget.
	Limit uint64
	// Bailout is the squared magnitude beyond which an orbit has escaped.
	Bailout float64
	Stats   *Stats
}

// Escapes is Evaluator{Limit: limit, Bailout: bailout}.Evaluate(c).
func Escapes(c complex128, limit uint64, bailout float64) (uint64, bool) {
	return Evaluator{Limit: limit, Bailout: bailout}.Evaluate(c)
}

// Evaluate returns the index of the iteration at which the orbit of c escaped.
// ok is false when c is provably inside the set, the orbit entered a cycle,
// or the budget ran out.
func (e Evaluator) Evaluate(c complex128) (iterations uint64, ok bool) {
	if e.Stats != nil {
		e.Stats.Evaluations++
	}
	if InCardioid(c) || InPeriod2Bulb(c) {
		if e.Stats != nil {
			e.Stats.ShortCircuits++
		}
		return 0, false
	}
	return e.iterate(c, square)
}

// InCardioid reports whether c lies in the main cardioid.
func InCardioid(c complex128) bool {
	x, y := real(c)-0.25, imag(c)
	q := x*x + y*y
	return q*(q+x) <= 0.25*imag(c)*imag(c)
}

// InPeriod2Bulb reports whether c lies in the disc of radius 1/4 around -1.
func InPeriod2Bulb(c complex128) bool {
	x, y := real(c)+1, imag(c)
	return x*x+y*y <= 1.0/16
}

// step advances an orbit value z for the constant c.
type step func(z, c complex128) complex128

func square(z, c complex128) complex128 {
	x, y := real(z), imag(z)
	return complex(x*x-y*y+real(c), 2*x*y+imag(c))
}

func (e Evaluator) iterate(c complex128, next step) (uint64, bool) {
	var z complex128
	cd := newCycleDetector(z)
	for i := uint64(0); i < e.Limit; i++ {
		z = next(z, c)
		if real(z)*real(z)+imag(z)*imag(z) > e.Bailout {
			e.count(i+1, func(s *Stats) { s.Escapes++ })
			return i, true
		}
		if cd.seen(i, z) {
			e.count(i+1, func(s *Stats) { s.Cycles++ })
			return 0, false
		}
	}
	e.count(e.Limit, func(s *Stats) { s.Exhausted++ })
	return 0, false
}

func (e Evaluator) count(iterations uint64, outcome func(*Stats)) {
	if e.Stats == nil {
		return
	}
	e.Stats.Iterations += iterations
	outcome(e.Stats)
}

// cycleDetector remembers one past orbit value and replaces it at iterations 4, 8, 16, ...
// An orbit that comes back to the remembered value repeats forever, so any cycle
// shorter than the current refresh interval is caught within two intervals.
type cycleDetector struct {
	ref  complex128
	next uint64
}

func newCycleDetector(start complex128) cycleDetector {
	return cycleDetector{ref: start, next: 4}
}

// seen reports whether z equals the reference, then refreshes the reference when i is due.
func (cd *cycleDetector) seen(i uint64, z complex128) bool {
	if z == cd.ref {
		return true
	}
	if i == cd.next {
		cd.ref = z
		cd.next *= 2
	}
	return false
}
