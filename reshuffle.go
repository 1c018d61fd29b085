package hazardmap

import (
	"math/rand/v2"
	"time"
)

// ReshufflePolicy picks palette entries for markers and clusters.
type ReshufflePolicy interface {
	// Next returns an index in [0, n) different from excluding whenever n > 1.
	// Pass excluding < 0 when there is no current value. Returns -1 if n <= 0.
	Next(n, excluding int) int
	// Angle returns a fresh rotation in degrees, in [0, 360).
	Angle() float64
}

// RandomPolicy is a pseudo-random ReshufflePolicy. It never picks the excluded
// index and makes one draw per call.
type RandomPolicy struct {
	rng *rand.Rand
}

// NewRandomPolicy returns a policy seeded with seed. A zero seed uses the
// current time.
func NewRandomPolicy(seed uint64) *RandomPolicy {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &RandomPolicy{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Next implements ReshufflePolicy.
func (p *RandomPolicy) Next(n, excluding int) int {
	if n <= 0 {
		return -1
	}
	if n == 1 {
		return 0
	}
	if excluding < 0 || excluding >= n {
		return p.rng.IntN(n)
	}
	i := p.rng.IntN(n - 1)
	if i >= excluding {
		i++
	}
	return i
}

// Angle implements ReshufflePolicy.
func (p *RandomPolicy) Angle() float64 {
	return float64(p.rng.IntN(360))
}

// CyclePolicy steps to the index after the excluded one and rotates by a
// fixed Step. It is deterministic.
type CyclePolicy struct {
	Step  float64
	angle float64
}

// Next implements ReshufflePolicy.
func (p *CyclePolicy) Next(n, excluding int) int {
	if n <= 0 {
		return -1
	}
	if excluding < 0 {
		return 0
	}
	return (excluding + 1) % n
}

// Angle implements ReshufflePolicy.
func (p *CyclePolicy) Angle() float64 {
	p.angle += p.Step
	for p.angle >= 360 {
		p.angle -= 360
	}
	return p.angle
}
