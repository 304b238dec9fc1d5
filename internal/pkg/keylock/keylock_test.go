package keylock

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyLock_SerializesSameKey(t *testing.T) {
	l := New(8)

	var counter int
	var wg sync.WaitGroup
	for range 100 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.Lock(42)
			counter++
			l.Unlock(42)
		}()
	}
	wg.Wait()
	assert.Equal(t, 100, counter)
}

func TestKeyLock_NegativeKeys(t *testing.T) {
	l := New(0)
	l.Lock(-7)
	l.Unlock(-7)
}

func TestKeyLock_DistinctStripesDoNotBlock(t *testing.T) {
	l := New(4)
	l.Lock(1)
	defer l.Unlock(1)

	done := make(chan struct{})
	go func() {
		l.Lock(2)
		l.Unlock(2)
		close(done)
	}()
	<-done
}
