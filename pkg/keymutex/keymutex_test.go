package keymutex

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKeyMutex_SerializesSameKey(t *testing.T) {
	km := New()

	const goroutines = 64
	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			km.Lock("auction-1")
			defer km.Unlock("auction-1")
			counter++
		}()
	}
	wg.Wait()

	require.Equal(t, goroutines, counter)
}

func TestKeyMutex_IndependentKeys(t *testing.T) {
	km := New()

	km.Lock("a")
	done := make(chan struct{})
	go func() {
		// A different key must not block behind "a".
		km.Lock("b")
		km.Unlock("b")
		close(done)
	}()
	<-done
	km.Unlock("a")
}

func TestKeyMutex_DropsIdleEntries(t *testing.T) {
	km := New()

	km.Lock("a")
	km.Unlock("a")

	km.mu.Lock()
	defer km.mu.Unlock()
	require.Empty(t, km.locks)
}

func TestKeyMutex_UnlockOfUnlockedPanics(t *testing.T) {
	km := New()
	require.Panics(t, func() { km.Unlock("missing") })
}
