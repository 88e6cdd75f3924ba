package pipeline

import (
	"errors"
	"strings"
	"sync"

	"golang.org/x/sync/semaphore"
)

// ErrRunInProgress is returned when a session already has a run going
var ErrRunInProgress = errors.New("a story run is already in progress for this session")

// Guard allows one run per session at a time
type Guard struct {
	mu   sync.Mutex
	sems map[string]*semaphore.Weighted
}

// NewGuard creates an empty guard
func NewGuard() *Guard {
	return &Guard{sems: make(map[string]*semaphore.Weighted)}
}

// TryAcquire claims the session without waiting. The returned func releases it.
func (g *Guard) TryAcquire(sessionID string) (func(), error) {
	sessionID = strings.TrimSpace(sessionID)

	g.mu.Lock()
	sem, ok := g.sems[sessionID]
	if !ok {
		sem = semaphore.NewWeighted(1)
		g.sems[sessionID] = sem
	}
	g.mu.Unlock()

	if !sem.TryAcquire(1) {
		return nil, ErrRunInProgress
	}

	var once sync.Once
	return func() { once.Do(func() { sem.Release(1) }) }, nil
}
