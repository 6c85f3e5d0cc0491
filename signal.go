package overdrive

import (
	"sync"
	"sync/atomic"
)

// frameSignal wakes the frame worker on start of frame. Raises that arrive
// before the worker consumed the previous one collapse into a single wake.
type frameSignal struct {
	avail  atomic.Bool
	mu     sync.Mutex
	cond   *sync.Cond
	closed bool
}

func newFrameSignal() *frameSignal {
	s := &frameSignal{}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// raise marks a frame start as available. It never waits on the worker.
func (s *frameSignal) raise() {
	if !s.avail.CompareAndSwap(false, true) {
		return
	}
	s.mu.Lock()
	s.cond.Signal()
	s.mu.Unlock()
}

// wait blocks until a frame start is available and consumes it. It returns
// false once the signal is closed.
func (s *frameSignal) wait() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for !s.avail.Load() && !s.closed {
		s.cond.Wait()
	}
	if s.closed {
		return false
	}
	s.avail.Store(false)
	return true
}

func (s *frameSignal) close() {
	s.mu.Lock()
	s.closed = true
	s.cond.Broadcast()
	s.mu.Unlock()
}

// reopen rearms a closed signal so the worker can be started again. A frame
// start raised while closed stays available.
func (s *frameSignal) reopen() {
	s.mu.Lock()
	s.closed = false
	s.mu.Unlock()
}
