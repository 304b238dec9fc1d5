// Package keylock provides striped mutexes keyed by an int64, used to
// serialize same-user toggle operations in-process. This is a throughput
// optimization on top of the Redis-level atomicity, not a correctness
// requirement.
package keylock

import "sync"

const defaultShards = 64

// KeyLock is a fixed-size stripe of mutexes. Two keys mapping to the same
// stripe share a mutex, which is acceptable for coarse per-user locking.
type KeyLock struct {
	shards []sync.Mutex
}

func New(shards int) *KeyLock {
	if shards <= 0 {
		shards = defaultShards
	}
	return &KeyLock{shards: make([]sync.Mutex, shards)}
}

func (l *KeyLock) idx(key int64) int {
	if key < 0 {
		key = -key
	}
	return int(key % int64(len(l.shards)))
}

func (l *KeyLock) Lock(key int64) {
	l.shards[l.idx(key)].Lock()
}

func (l *KeyLock) Unlock(key int64) {
	l.shards[l.idx(key)].Unlock()
}
