package txt2img

import "math/rand"

// RandomSeed returns a seed uniformly distributed in [0, maxSeed).
// A non-positive maxSeed falls back to MaxSeed.
func RandomSeed(maxSeed int64) int64 {
	if maxSeed <= 0 {
		maxSeed = MaxSeed
	}
	return rand.Int63n(maxSeed)
}
