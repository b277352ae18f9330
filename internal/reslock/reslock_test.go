package reslock

import (
	"sync"
	"testing"
	"time"
)

func TestKeyedExcludesSameKey(t *testing.T) {
	k := New()

	var mu sync.Mutex
	active := 0
	maxActive := 0

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			k.WithLock("resource-1", func() {
				mu.Lock()
				active++
				if active > maxActive {
					maxActive = active
				}
				mu.Unlock()

				time.Sleep(time.Millisecond)

				mu.Lock()
				active--
				mu.Unlock()
			})
		}()
	}
	wg.Wait()

	if maxActive != 1 {
		t.Fatalf("expected at most 1 concurrent holder for the same key, saw %d", maxActive)
	}
}

func TestKeyedAllowsDifferentKeysConcurrently(t *testing.T) {
	k := New()

	var wg sync.WaitGroup
	started := make(chan struct{}, 2)
	release := make(chan struct{})

	wg.Add(2)
	go func() {
		defer wg.Done()
		k.WithLock("resource-a", func() {
			started <- struct{}{}
			<-release
		})
	}()
	go func() {
		defer wg.Done()
		k.WithLock("resource-b", func() {
			started <- struct{}{}
			<-release
		})
	}()

	for i := 0; i < 2; i++ {
		select {
		case <-started:
		case <-time.After(time.Second):
			t.Fatalf("different keys should not block each other")
		}
	}
	close(release)
	wg.Wait()
}

func TestUnlockOfUnlockedKeyPanics(t *testing.T) {
	k := New()
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic on Unlock of an unlocked key")
		}
	}()
	k.Unlock("never-locked")
}

func TestKeyedMapShrinksAfterRelease(t *testing.T) {
	k := New()
	k.WithLock("resource-1", func() {})
	if len(k.entries) != 0 {
		t.Fatalf("expected the entry map to be empty once the last holder releases, got %d entries", len(k.entries))
	}
}
