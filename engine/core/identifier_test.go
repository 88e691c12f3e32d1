package core

import "testing"

func TestHandleTableReusesLowestFreeSlot(t *testing.T) {
	type owner struct{ name string }
	ht := NewHandleTable[owner](4)

	a := ht.Acquire(&owner{"a"})
	b := ht.Acquire(&owner{"b"})
	c := ht.Acquire(&owner{"c"})
	if a != 0 || b != 1 || c != 2 {
		t.Fatalf("Acquire ids = %d, %d, %d, want 0, 1, 2", a, b, c)
	}

	if err := ht.Release(b); err != nil {
		t.Fatalf("Release(%d) = %v", b, err)
	}
	if _, ok := ht.Get(b); ok {
		t.Errorf("Get(%d) after release should fail", b)
	}
	if got := ht.Acquire(&owner{"d"}); got != b {
		t.Errorf("Acquire after release = %d, want reused %d", got, b)
	}
	if got := ht.Len(); got != 3 {
		t.Errorf("Len() = %d, want 3", got)
	}
}

func TestHandleTableReleaseErrors(t *testing.T) {
	type owner struct{}
	ht := NewHandleTable[owner](1)
	id := ht.Acquire(&owner{})

	if err := ht.Release(id + 10); err == nil {
		t.Error("Release of out-of-range id should fail")
	}
	if err := ht.Release(id); err != nil {
		t.Fatalf("Release(%d) = %v", id, err)
	}
	if err := ht.Release(id); err == nil {
		t.Error("double Release should fail")
	}
}

func TestHandleTableEach(t *testing.T) {
	type owner struct{ n int }
	ht := NewHandleTable[owner](3)
	ht.Acquire(&owner{1})
	id := ht.Acquire(&owner{2})
	ht.Acquire(&owner{3})
	_ = ht.Release(id)

	sum := 0
	ht.Each(func(_ uint32, o *owner) { sum += o.n })
	if sum != 4 {
		t.Errorf("Each visited sum = %d, want 4", sum)
	}
}
