package avplayer

import (
	"testing"
	"time"
)

func TestFrameRingWriteReadCycle(t *testing.T) {
	r := NewFrameRing(2)

	slot := r.PeekWritable()
	if slot == nil {
		t.Fatal("PeekWritable on open ring returned nil")
	}
	slot.Frame.Width = 640
	r.AdvanceWrite()

	readSlot := r.PeekReadable()
	if readSlot == nil {
		t.Fatal("PeekReadable after one write returned nil")
	}
	if readSlot.Frame.Width != 640 {
		t.Fatalf("read back Width = %d, want 640", readSlot.Frame.Width)
	}
	r.AdvanceRead()

	if got := r.Size(); got != 0 {
		t.Fatalf("Size() after drain = %d, want 0", got)
	}
}

func TestFrameRingCapacityClamped(t *testing.T) {
	if got := NewFrameRing(0).Capacity(); got != 1 {
		t.Fatalf("Capacity() for capacity=0 = %d, want 1 (clamped)", got)
	}
	if got := NewFrameRing(1000).Capacity(); got != MaxFrameRingCapacity {
		t.Fatalf("Capacity() for capacity=1000 = %d, want %d (clamped)", got, MaxFrameRingCapacity)
	}
}

func TestFrameRingFullBlocksWriterUntilRead(t *testing.T) {
	r := NewFrameRing(1)
	r.PeekWritable()
	r.AdvanceWrite()

	done := make(chan struct{})
	go func() {
		r.PeekWritable()
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("PeekWritable on a full ring returned before a read freed a slot")
	case <-time.After(30 * time.Millisecond):
	}

	r.PeekReadable()
	r.AdvanceRead()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("PeekWritable never unblocked after AdvanceRead freed a slot")
	}
}

func TestFrameRingCloseWakesReaderWithNil(t *testing.T) {
	r := NewFrameRing(2)
	result := make(chan *FrameRingSlot, 1)
	go func() {
		result <- r.PeekReadable()
	}()

	time.Sleep(20 * time.Millisecond)
	r.Close()

	select {
	case got := <-result:
		if got != nil {
			t.Fatal("PeekReadable on a closed-and-empty ring returned non-nil")
		}
	case <-time.After(time.Second):
		t.Fatal("PeekReadable never woke up after Close")
	}
}

func TestFrameRingCloseIdempotent(t *testing.T) {
	r := NewFrameRing(1)
	r.Close()
	r.Close()
	if !r.Closed() {
		t.Fatal("Closed() = false after Close")
	}
}
