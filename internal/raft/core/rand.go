package core

import "math/rand"

// randSource gives each ConsensusState its own jitter source so election
// timeout randomization (§4.4) doesn't contend on the global math/rand
// lock across many servers in one process (as in tests running a whole
// cluster in-process).
type randSource struct {
	r *rand.Rand
}

func newRandSource(seed uint64) *randSource {
	return &randSource{r: rand.New(rand.NewSource(int64(seed)))}
}

// jitter returns a value in [0, n).
func (rs *randSource) jitter(n int64) int64 {
	if n <= 0 {
		return 0
	}
	return rs.r.Int63n(n)
}
