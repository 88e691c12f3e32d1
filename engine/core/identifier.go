package core

import (
	"fmt"
	"sync"
)

// HandleTable hands out small integer identifiers for owners, reusing the
// lowest free slot first.
type HandleTable[T any] struct {
	mutex  sync.RWMutex
	owners []*T
}

func NewHandleTable[T any](capacity int) *HandleTable[T] {
	return &HandleTable[T]{
		owners: make([]*T, 0, capacity),
	}
}

func (ht *HandleTable[T]) Acquire(owner *T) uint32 {
	ht.mutex.Lock()
	defer ht.mutex.Unlock()

	length := uint32(len(ht.owners))
	for i := uint32(0); i < length; i++ {
		// Existing free spot. Take it.
		if ht.owners[i] == nil {
			ht.owners[i] = owner
			return i
		}
	}

	// No free slots, push a new one.
	ht.owners = append(ht.owners, owner)
	return uint32(len(ht.owners)) - 1
}

func (ht *HandleTable[T]) Release(id uint32) error {
	ht.mutex.Lock()
	defer ht.mutex.Unlock()

	if id >= uint32(len(ht.owners)) {
		return fmt.Errorf("handle '%d' out of range (max=%d). Nothing was done", id, len(ht.owners))
	}
	if ht.owners[id] == nil {
		return fmt.Errorf("handle '%d' already released", id)
	}
	ht.owners[id] = nil
	return nil
}

func (ht *HandleTable[T]) Get(id uint32) (*T, bool) {
	ht.mutex.RLock()
	defer ht.mutex.RUnlock()

	if id >= uint32(len(ht.owners)) || ht.owners[id] == nil {
		return nil, false
	}
	return ht.owners[id], true
}

// Len returns the number of live handles.
func (ht *HandleTable[T]) Len() int {
	ht.mutex.RLock()
	defer ht.mutex.RUnlock()

	n := 0
	for _, o := range ht.owners {
		if o != nil {
			n++
		}
	}
	return n
}

// Each visits every live owner in handle order.
func (ht *HandleTable[T]) Each(fn func(id uint32, owner *T)) {
	ht.mutex.RLock()
	defer ht.mutex.RUnlock()

	for i, o := range ht.owners {
		if o != nil {
			fn(uint32(i), o)
		}
	}
}
