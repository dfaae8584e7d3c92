package slow5

import (
	"sync/atomic"
)

type handleState int32

const (
	stateClosed handleState = iota
	stateOpenRead
	stateWriteConfiguring
	stateWriteCommitted
)

func (s handleState) String() string {
	switch s {
	case stateOpenRead:
		return "open-read"
	case stateWriteConfiguring:
		return "write-configuring"
	case stateWriteCommitted:
		return "write-committed"
	default:
		return "closed"
	}
}

// handle guards one engine resource. Every public operation runs between
// acquire and release; a second goroutine entering while one is inside
// fails fast instead of sharing the engine's scratch buffers.
type handle struct {
	state    atomic.Int32
	busy     atomic.Bool
	released atomic.Bool

	closer func() error
}

func newHandle(state handleState, closer func() error) *handle {
	h := &handle{closer: closer}
	h.state.Store(int32(state))
	return h
}

func (h *handle) current() handleState {
	return handleState(h.state.Load())
}

func (h *handle) acquire() error {
	if !h.busy.CompareAndSwap(false, true) {
		return ErrConcurrentUse
	}
	if h.current() == stateClosed {
		h.busy.Store(false)
		return ErrHandleClosed
	}
	return nil
}

func (h *handle) release() {
	h.busy.Store(false)
}

// commit moves a configuring writer to committed, reporting whether this
// call made the transition
func (h *handle) commit() bool {
	return h.state.CompareAndSwap(int32(stateWriteConfiguring), int32(stateWriteCommitted))
}

// close transitions to closed and frees the resource. Closing an already
// closed handle is a no-op.
func (h *handle) close() error {
	if !h.busy.CompareAndSwap(false, true) {
		return ErrConcurrentUse
	}
	defer h.busy.Store(false)
	if handleState(h.state.Swap(int32(stateClosed))) == stateClosed {
		return nil
	}
	return h.releaseOnce()
}

// releaseOnce runs the closer. A second run means the lifecycle is broken.
func (h *handle) releaseOnce() error {
	if !h.released.CompareAndSwap(false, true) {
		panic("slow5: engine resource released twice")
	}
	if h.closer == nil {
		return nil
	}
	return h.closer()
}
