package bridge

import (
	"log"
	"sync/atomic"
)

// Guard delivers at most one Result per invocation.
// Emit may be called from any number of goroutines.
type Guard struct {
	invocationID string
	responded    atomic.Bool
	out          chan<- Result
}

// NewGuard creates a guard forwarding to out, which must have room for one value
func NewGuard(invocationID string, out chan<- Result) *Guard {
	return &Guard{invocationID: invocationID, out: out}
}

// Emit forwards r if no result has been emitted yet and reports whether it did
func (g *Guard) Emit(r Result) bool {
	if !g.responded.CompareAndSwap(false, true) {
		log.Printf(`{"level":"warn","message":"Discarding duplicate invocation result","invocation_id":"%s","kind":"%s"}`,
			g.invocationID, r.Kind())
		return false
	}
	g.out <- r
	return true
}

// Responded reports whether a result has already been emitted
func (g *Guard) Responded() bool {
	return g.responded.Load()
}
