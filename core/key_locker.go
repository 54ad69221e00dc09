package core

import (
	"fmt"
	"strings"
	"sync"
)

type refLock struct {
	mu  sync.Mutex
	ref int
}

// KeyLocker serializes work per key. Entries are dropped once nobody holds or waits for them.
type KeyLocker struct {
	guard sync.Mutex
	locks map[string]*refLock
	sep   string
}

// NewKeyLocker creates a new KeyLocker.
func NewKeyLocker() *KeyLocker {
	return &KeyLocker{locks: make(map[string]*refLock), sep: ":"}
}

// Lock blocks until the combined key is free and returns the function that releases it.
func (kl *KeyLocker) Lock(keys ...any) func() {
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%v", k))
	}
	combinedKey := strings.Join(parts, kl.sep)

	kl.guard.Lock()
	lock, ok := kl.locks[combinedKey]
	if !ok {
		lock = &refLock{}
		kl.locks[combinedKey] = lock
	}
	lock.ref++
	kl.guard.Unlock()

	lock.mu.Lock()

	var once sync.Once
	return func() {
		once.Do(func() {
			lock.mu.Unlock()
			kl.guard.Lock()
			lock.ref--
			if lock.ref == 0 {
				delete(kl.locks, combinedKey)
			}
			kl.guard.Unlock()
		})
	}
}

// size returns the number of tracked keys.
func (kl *KeyLocker) size() int {
	kl.guard.Lock()
	defer kl.guard.Unlock()
	return len(kl.locks)
}
