package jobid

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Generator produces job identifiers of the form
// 20230524_112233_a1b2c3d4: a creation timestamp followed by an
// eight-hex-digit disambiguator. Identifiers sort lexically in creation
// order and are unique within the process; the random tail keeps
// collisions across processes improbable without any coordination.
type Generator struct {
	mu        sync.Mutex
	lastStamp string
	seq       uint16
}

// NewGenerator returns a ready-to-use Generator.
func NewGenerator() *Generator {
	return &Generator{}
}

// NewID issues the next identifier. It never fails and performs no I/O.
func (g *Generator) NewID() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	stamp := time.Now().UTC().Format("20060102_150405")
	// Guard against the clock stepping backwards; identifiers must stay
	// monotonic within the process.
	if stamp < g.lastStamp {
		stamp = g.lastStamp
	}

	if stamp == g.lastStamp {
		g.seq++
	} else {
		g.lastStamp = stamp
		g.seq = 0
	}

	u := uuid.New()
	return fmt.Sprintf("%s_%04x%02x%02x", stamp, g.seq, u[0], u[1])
}
