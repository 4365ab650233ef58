package signal_test

import (
	"sync"
	"testing"

	"github.com/halcyonlabs/emcon/internal/signal"
)

func TestConnectAndEmit(t *testing.T) {
	s := signal.New[int]()

	var got []int
	s.Connect(func(v int) { got = append(got, v) })

	s.Emit(1)
	s.Emit(2)

	if len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Errorf("expected [1 2], got %v", got)
	}
}

func TestEmitOrder(t *testing.T) {
	s := signal.New[struct{}]()

	var order []string
	s.Connect(func(struct{}) { order = append(order, "first") })
	s.Connect(func(struct{}) { order = append(order, "second") })

	s.Emit(struct{}{})

	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Errorf("expected delivery in registration order, got %v", order)
	}
}

func TestCancel(t *testing.T) {
	s := signal.New[int]()

	calls := 0
	sub := s.Connect(func(int) { calls++ })

	s.Emit(1)
	sub.Cancel()
	s.Emit(2)

	if calls != 1 {
		t.Errorf("expected 1 call after cancel, got %d", calls)
	}
}

func TestCancelTwice(t *testing.T) {
	s := signal.New[int]()

	sub := s.Connect(func(int) {})
	sub.Cancel()
	sub.Cancel() // must not panic

	if s.Count() != 0 {
		t.Errorf("expected 0 handlers, got %d", s.Count())
	}
}

func TestNilHandler(t *testing.T) {
	s := signal.New[int]()

	sub := s.Connect(nil)
	sub.Cancel()

	if s.Count() != 0 {
		t.Errorf("expected nil handler to be ignored, got %d handlers", s.Count())
	}
	s.Emit(1)
}

func TestHandlerMayCancelDuringEmit(t *testing.T) {
	s := signal.New[int]()

	var sub *signal.Subscription
	calls := 0
	sub = s.Connect(func(int) {
		calls++
		sub.Cancel()
	})

	s.Emit(1)
	s.Emit(2)

	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestConcurrentEmit(t *testing.T) {
	s := signal.New[int]()

	var mu sync.Mutex
	calls := 0
	s.Connect(func(int) {
		mu.Lock()
		calls++
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				s.Emit(j)
			}
		}()
	}
	wg.Wait()

	if calls != 800 {
		t.Errorf("expected 800 calls, got %d", calls)
	}
}
