package execution

import (
	"log/slog"
	"math/rand"
	"sync"

	"github.com/google/uuid"

	"relcore/pkg/logging"
)

// Context carries the per-request resources an operator tree may draw on.
// A context is owned by one request; its random source is the only part
// that may be shared and is guarded accordingly.
type Context struct {
	ID     uuid.UUID
	Logger *slog.Logger

	rngMutex sync.Mutex
	rng      *rand.Rand
}

// NewContext creates a context whose random source is seeded with seed, so
// runs with the same seed draw the same values.
func NewContext(seed int64) *Context {
	id := uuid.New()
	return &Context{
		ID:     id,
		Logger: logging.GetLogger().With("request_id", id.String()),
		rng:    rand.New(rand.NewSource(seed)),
	}
}

// Float64 returns a pseudo-random number in [0.0, 1.0).
func (c *Context) Float64() float64 {
	c.rngMutex.Lock()
	defer c.rngMutex.Unlock()
	return c.rng.Float64()
}

// Int63n returns a pseudo-random number in [0, n).
func (c *Context) Int63n(n int64) int64 {
	c.rngMutex.Lock()
	defer c.rngMutex.Unlock()
	return c.rng.Int63n(n)
}
