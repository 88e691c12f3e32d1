package containers

import (
	"errors"
	"testing"
)

func TestRingQueueFIFO(t *testing.T) {
	rq := NewRingQueue[int](3)
	for i := 1; i <= 3; i++ {
		if err := rq.Enqueue(i); err != nil {
			t.Fatalf("Enqueue(%d) = %v", i, err)
		}
	}
	if err := rq.Enqueue(4); !errors.Is(err, ErrQueueFull) {
		t.Errorf("Enqueue on full queue = %v, want ErrQueueFull", err)
	}
	if v, _ := rq.Peek(); v != 1 {
		t.Errorf("Peek() = %d, want 1", v)
	}
	for want := 1; want <= 3; want++ {
		got, err := rq.Dequeue()
		if err != nil || got != want {
			t.Fatalf("Dequeue() = %d, %v, want %d", got, err, want)
		}
	}
	if _, err := rq.Dequeue(); !errors.Is(err, ErrQueueEmpty) {
		t.Errorf("Dequeue on empty queue = %v, want ErrQueueEmpty", err)
	}
}

func TestRingQueuePushOverwritesOldest(t *testing.T) {
	rq := NewRingQueue[int](3)
	for i := 1; i <= 5; i++ {
		rq.Push(i)
	}
	if rq.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", rq.Len())
	}

	out := make([]int, 5)
	n := rq.Latest(out)
	if n != 3 {
		t.Fatalf("Latest copied %d, want 3", n)
	}
	want := []int{5, 4, 3}
	for i := range want {
		if out[i] != want[i] {
			t.Errorf("Latest[%d] = %d, want %d", i, out[i], want[i])
		}
	}
}

func TestRingQueueLatestPartial(t *testing.T) {
	rq := NewRingQueue[string](4)
	rq.Push("a")
	rq.Push("b")
	out := make([]string, 1)
	if n := rq.Latest(out); n != 1 || out[0] != "b" {
		t.Errorf("Latest = %d %v, want 1 [b]", n, out)
	}
}
