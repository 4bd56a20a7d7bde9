package agent

import (
	"fmt"
	"sync"
	"testing"
)

func TestRegistry_GetOrCreate(t *testing.T) {
	r := NewRegistry()
	key := Key{App: "agents", UserID: "user-1", SessionID: "conv-1"}

	seedCalls := 0
	seed := func() []Content {
		seedCalls++
		return []Content{{Role: "user", Parts: []Part{{Text: "earlier turn"}}}}
	}

	sess, created := r.GetOrCreate(key, seed)
	if !created {
		t.Fatal("expected first GetOrCreate to create")
	}
	if got := sess.History(); len(got) != 1 || got[0].Parts[0].Text != "earlier turn" {
		t.Fatalf("expected seeded history, got %+v", got)
	}

	again, created := r.GetOrCreate(key, seed)
	if created {
		t.Fatal("expected second GetOrCreate to reuse")
	}
	if again != sess {
		t.Fatal("expected the same session instance")
	}
	if seedCalls != 1 {
		t.Fatalf("seed should run only on creation, ran %d times", seedCalls)
	}
}

func TestRegistry_GetMissing(t *testing.T) {
	r := NewRegistry()
	if _, ok := r.Get(Key{App: "agents", UserID: "u", SessionID: "missing"}); ok {
		t.Fatal("expected miss for unknown key")
	}
}

func TestRegistry_ConcurrentFirstTurn(t *testing.T) {
	r := NewRegistry()
	key := Key{App: "agents", UserID: "user-1", SessionID: "conv-1"}

	var wg sync.WaitGroup
	createdCount := make(chan bool, 32)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, created := r.GetOrCreate(key, nil)
			createdCount <- created
		}()
	}
	wg.Wait()
	close(createdCount)

	total := 0
	for created := range createdCount {
		if created {
			total++
		}
	}
	if total != 1 {
		t.Fatalf("expected exactly one creation under contention, got %d", total)
	}
	if r.Len() != 1 {
		t.Fatalf("expected 1 live session, got %d", r.Len())
	}
}

func TestRegistry_KeysAreDistinct(t *testing.T) {
	r := NewRegistry()
	for i := 0; i < 3; i++ {
		key := Key{App: "agents", UserID: "user-1", SessionID: fmt.Sprintf("conv-%d", i)}
		if _, created := r.GetOrCreate(key, nil); !created {
			t.Fatalf("expected distinct session for %s", key.SessionID)
		}
	}
	if r.Len() != 3 {
		t.Fatalf("expected 3 sessions, got %d", r.Len())
	}
}

func TestSession_HistoryIsCopy(t *testing.T) {
	s := &Session{}
	s.Append(Content{Role: "user", Parts: []Part{{Text: "hello"}}})

	hist := s.History()
	hist[0].Role = "model"

	if got := s.History(); got[0].Role != "user" {
		t.Fatalf("mutating the returned history must not affect the session, got role %q", got[0].Role)
	}
}
