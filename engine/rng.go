package engine

// RNG is a seeded pseudo-random generator used for food and bomb placement.
// It is built from integer arithmetic only (splitmix64 seeding, xorshift64*
// stepping), so a given seed produces the same sequence on every platform.
// Not safe for concurrent use; every match owns its own instance.
type RNG struct {
	state uint64
}

// NewRNG returns a generator for the given seed. Any seed value is valid,
// including zero and negatives.
func NewRNG(seed int64) *RNG {
	// splitmix64 finalizer: spreads small seeds over the whole state space
	// and guarantees a non-zero xorshift state.
	z := uint64(seed) + 0x9E3779B97F4A7C15
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	z ^= z >> 31
	if z == 0 {
		z = 0x9E3779B97F4A7C15
	}
	return &RNG{state: z}
}

func (r *RNG) next() uint64 {
	x := r.state
	x ^= x >> 12
	x ^= x << 25
	x ^= x >> 27
	r.state = x
	return x * 0x2545F4914F6CDD1D
}

// Float64 returns the next value in [0, 1).
func (r *RNG) Float64() float64 {
	return float64(r.next()>>11) / (1 << 53)
}

// Intn returns a value in [0, n). It panics if n is not positive, matching
// math/rand semantics.
func (r *RNG) Intn(n int) int {
	if n <= 0 {
		panic("engine: Intn called with non-positive n")
	}
	return int(r.next() % uint64(n))
}
