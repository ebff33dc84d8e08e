package avplayer

import (
	"sync"
	"testing"
	"time"
)

func TestPacketQueuePushPopRoundTrip(t *testing.T) {
	q := NewPacketQueue(1024)
	pkt := Packet{StreamID: 0, Data: []byte("hello"), Size: 5}

	if !q.Push(pkt) {
		t.Fatal("Push on open queue returned false")
	}
	got, ok := q.Pop()
	if !ok {
		t.Fatal("Pop on non-empty queue returned ok=false")
	}
	if string(got.Data) != "hello" {
		t.Fatalf("Pop returned %q, want %q", got.Data, "hello")
	}
	if q.BytesQueued() != 0 {
		t.Fatalf("BytesQueued() = %d, want 0", q.BytesQueued())
	}
}

func TestPacketQueueCloseIdempotentAndWakesWaiters(t *testing.T) {
	q := NewPacketQueue(1024)

	var wg sync.WaitGroup
	results := make(chan bool, 2)
	wg.Add(2)
	for i := 0; i < 2; i++ {
		go func() {
			defer wg.Done()
			_, ok := q.Pop()
			results <- ok
		}()
	}

	time.Sleep(20 * time.Millisecond)
	q.Close()
	q.Close() // idempotent; must not panic or double-broadcast badly

	wg.Wait()
	close(results)
	for ok := range results {
		if ok {
			t.Fatal("Pop on closed-and-empty queue returned ok=true")
		}
	}
	if !q.Closed() {
		t.Fatal("Closed() = false after Close")
	}
}

func TestPacketQueueBackpressureBlocksPushUntilPop(t *testing.T) {
	q := NewPacketQueue(10)
	if !q.Push(Packet{Size: 10}) {
		t.Fatal("first push should succeed")
	}

	pushed := make(chan bool, 1)
	go func() {
		pushed <- q.Push(Packet{Size: 1})
	}()

	select {
	case <-pushed:
		t.Fatal("second push returned before backpressure released")
	case <-time.After(30 * time.Millisecond):
	}

	if _, ok := q.Pop(); !ok {
		t.Fatal("Pop failed")
	}

	select {
	case ok := <-pushed:
		if !ok {
			t.Fatal("push returned false after queue had room")
		}
	case <-time.After(time.Second):
		t.Fatal("push never unblocked after Pop freed capacity")
	}
}

func TestPacketQueueTryPopNeverBlocks(t *testing.T) {
	q := NewPacketQueue(1024)
	if _, ok := q.TryPop(); ok {
		t.Fatal("TryPop on empty queue returned ok=true")
	}

	q.Push(Packet{Size: 1})
	pkt, ok := q.TryPop()
	if !ok {
		t.Fatal("TryPop on non-empty queue returned ok=false")
	}
	if pkt.Size != 1 {
		t.Fatalf("TryPop returned wrong packet: %+v", pkt)
	}
}

func TestPacketQueueClearResetsBytesQueued(t *testing.T) {
	q := NewPacketQueue(1024)
	q.Push(Packet{Size: 100})
	q.Push(Packet{Size: 200})
	q.Clear()
	if got := q.BytesQueued(); got != 0 {
		t.Fatalf("BytesQueued() after Clear = %d, want 0", got)
	}
	if q.Closed() {
		t.Fatal("Clear must not close the queue")
	}
}

func TestPacketQueueDurationTracksPushAndPop(t *testing.T) {
	q := NewPacketQueue(1024)
	q.Push(Packet{Size: 1, Duration: 40})
	q.Push(Packet{Size: 1, Duration: 40})
	if got := q.Duration(); got != 80 {
		t.Fatalf("Duration() = %d, want 80", got)
	}
	q.Pop()
	if got := q.Duration(); got != 40 {
		t.Fatalf("Duration() after one Pop = %d, want 40", got)
	}
}
