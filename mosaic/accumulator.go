package mosaic

import (
	"math"
	"sync/atomic"
)

// Accumulator is a float64 sum that may be added to from many goroutines.
// The zero value is ready to use.
type Accumulator struct {
	bits atomic.Uint64
}

// Add adds delta with a compare-and-swap loop.
func (a *Accumulator) Add(delta float64) {
	for {
		old := a.bits.Load()
		sum := math.Float64bits(math.Float64frombits(old) + delta)
		if a.bits.CompareAndSwap(old, sum) {
			return
		}
	}
}

// Load returns the current sum.
func (a *Accumulator) Load() float64 {
	return math.Float64frombits(a.bits.Load())
}

// colorAccumulator holds one Accumulator per channel.
type colorAccumulator struct {
	r, g, b Accumulator
}

func (c *colorAccumulator) add(r, g, b float64) {
	c.r.Add(r)
	c.g.Add(g)
	c.b.Add(b)
}

func (c *colorAccumulator) load() Color {
	return Color{R: c.r.Load(), G: c.g.Load(), B: c.b.Load()}
}
