package avplayer

import "sync"

// FrameRingSlot is one reusable frame slot in a FrameRing. Callers fill it
// via the pointer returned by PeekWritable, without holding the ring's
// lock, then call AdvanceWrite to publish it.
type FrameRingSlot struct {
	Frame RawFrame
}

// FrameRing is a fixed-capacity ring of preallocated, reusable RawFrame
// slots. A small ring is sufficient because the audio clock
// paces video through the Presenter's sync decision; a large ring would
// only add latency to A/V mismatch recovery.
type FrameRing struct {
	mtx      sync.Mutex
	canWrite sync.Cond
	canRead  sync.Cond

	slots  []FrameRingSlot
	rindex int
	windex int
	size   int
	closed bool
}

// NewFrameRing creates a FrameRing with the given capacity, clamped to
// [1, MaxFrameRingCapacity].
func NewFrameRing(capacity int) *FrameRing {
	if capacity < 1 {
		capacity = 1
	}
	if capacity > MaxFrameRingCapacity {
		capacity = MaxFrameRingCapacity
	}
	r := &FrameRing{slots: make([]FrameRingSlot, capacity)}
	r.canWrite.L = &r.mtx
	r.canRead.L = &r.mtx
	return r
}

// Capacity returns the ring's fixed slot count.
func (r *FrameRing) Capacity() int { return len(r.slots) }

// PeekWritable blocks while the ring is full and not closed, then returns
// the next writable slot without advancing the write index. It returns nil
// iff the ring is closed. The returned pointer is valid for the caller to
// fill without holding the ring's lock; AdvanceWrite must be called
// afterward to publish it.
func (r *FrameRing) PeekWritable() *FrameRingSlot {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	for r.size == len(r.slots) && !r.closed {
		r.canWrite.Wait()
	}
	if r.closed {
		return nil
	}
	return &r.slots[r.windex]
}

// AdvanceWrite publishes the slot last returned by PeekWritable, advancing
// windex and signaling one blocked reader.
func (r *FrameRing) AdvanceWrite() {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	r.windex = (r.windex + 1) % len(r.slots)
	r.size++
	r.canRead.Signal()
}

// PeekReadable blocks while the ring is empty and not closed, then returns
// the next readable slot without advancing the read index. It returns nil
// iff the ring is empty AND closed, the sole "all frames played" signal
// the Presenter observes.
func (r *FrameRing) PeekReadable() *FrameRingSlot {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	for r.size == 0 && !r.closed {
		r.canRead.Wait()
	}
	if r.size == 0 {
		return nil
	}
	return &r.slots[r.rindex]
}

// AdvanceRead releases the slot last returned by PeekReadable back to
// reusable state, advancing rindex and signaling one blocked writer.
func (r *FrameRing) AdvanceRead() {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	r.slots[r.rindex].Frame.reset()
	r.rindex = (r.rindex + 1) % len(r.slots)
	r.size--
	r.canWrite.Signal()
}

// Clear releases every slot's payload and resets indices without closing
// the ring, waking every blocked writer.
func (r *FrameRing) Clear() {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	for i := range r.slots {
		r.slots[i].Frame.reset()
	}
	r.size, r.windex, r.rindex = 0, 0, 0
	r.canWrite.Broadcast()
}

// Close is idempotent and wakes every blocked PeekWritable/PeekReadable
// caller.
func (r *FrameRing) Close() {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	if r.closed {
		return
	}
	r.closed = true
	r.canWrite.Broadcast()
	r.canRead.Broadcast()
}

// Size returns a snapshot of the number of filled slots.
func (r *FrameRing) Size() int {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	return r.size
}

// Closed reports whether Close has been called.
func (r *FrameRing) Closed() bool {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	return r.closed
}
