package app

import "sync"

// ExitCoordinator funnels every quit source into a single process-exit
// request. Only the first request has any effect; Wait releases once.
type ExitCoordinator struct {
	once sync.Once
	done chan struct{}
}

// NewExitCoordinator creates an ExitCoordinator.
func NewExitCoordinator() *ExitCoordinator {
	return &ExitCoordinator{done: make(chan struct{})}
}

// Request signals process exit. Safe to call from any goroutine, any
// number of times.
func (e *ExitCoordinator) Request() {
	e.once.Do(func() { close(e.done) })
}

// Requested reports whether exit has been requested.
func (e *ExitCoordinator) Requested() bool {
	select {
	case <-e.done:
		return true
	default:
		return false
	}
}

// Wait blocks until exit is requested.
func (e *ExitCoordinator) Wait() {
	<-e.done
}

// Done returns a channel closed when exit is requested.
func (e *ExitCoordinator) Done() <-chan struct{} {
	return e.done
}
