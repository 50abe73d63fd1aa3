package quiz

import (
	"math/rand"
	"sync"
	"time"
)

// Rand is the randomness the engine needs. *rand.Rand satisfies it.
type Rand interface {
	Intn(n int) int
}

// NewRand returns a Rand seeded from the clock, safe for concurrent use.
func NewRand() Rand {
	return &lockedRand{r: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// NewSeededRand returns a deterministic Rand for tests and replays.
func NewSeededRand(seed int64) Rand {
	return &lockedRand{r: rand.New(rand.NewSource(seed))}
}

type lockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

func (l *lockedRand) Intn(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Intn(n)
}

// Shuffle returns a uniformly permuted copy of questions (Fisher-Yates).
// The input slice is left untouched.
func Shuffle(questions []Question, rng Rand) []Question {
	shuffled := make([]Question, len(questions))
	copy(shuffled, questions)

	for i := len(shuffled) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}

	return shuffled
}
