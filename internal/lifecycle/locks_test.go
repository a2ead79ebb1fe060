package lifecycle

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestLocker_SerializesSameID(t *testing.T) {
	l := NewLocker()
	var inside, maxInside atomic.Int32
	var wg sync.WaitGroup

	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := l.Lock("a")
			defer unlock()
			n := inside.Add(1)
			for {
				m := maxInside.Load()
				if n <= m || maxInside.CompareAndSwap(m, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			inside.Add(-1)
		}()
	}
	wg.Wait()

	if got := maxInside.Load(); got != 1 {
		t.Errorf("max concurrent holders = %d, want 1", got)
	}
	if got := l.held(); got != 0 {
		t.Errorf("held() = %d after release, want 0", got)
	}
}

func TestLocker_DistinctIDsDoNotBlock(t *testing.T) {
	l := NewLocker()
	unlockA := l.Lock("a")
	defer unlockA()

	done := make(chan struct{})
	go func() {
		l.Lock("b")()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("locking b blocked while a was held")
	}
}

func TestLocker_UnlockIsIdempotent(t *testing.T) {
	l := NewLocker()
	unlock := l.Lock("a")
	unlock()
	unlock()
	if got := l.held(); got != 0 {
		t.Errorf("held() = %d, want 0", got)
	}
	l.Lock("a")()
}

func TestLocker_LockAll_OverlappingSets(t *testing.T) {
	l := NewLocker()
	var wg sync.WaitGroup
	sets := [][]string{
		{"a", "b", "c"},
		{"c", "b", "a"},
		{"b", "a", "b"},
		{"c", "a"},
	}
	for range 25 {
		for _, ids := range sets {
			wg.Add(1)
			go func() {
				defer wg.Done()
				l.LockAll(ids)()
			}()
		}
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("LockAll deadlocked on overlapping sets")
	}
	if got := l.held(); got != 0 {
		t.Errorf("held() = %d, want 0", got)
	}
}

func TestLocker_LockAll_Duplicates(t *testing.T) {
	l := NewLocker()
	unlock := l.LockAll([]string{"x", "x", "y"})
	if got := l.held(); got != 2 {
		t.Errorf("held() = %d, want 2", got)
	}
	unlock()
	if got := l.held(); got != 0 {
		t.Errorf("held() = %d, want 0", got)
	}
}
