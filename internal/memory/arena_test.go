package memory

import "testing"

func TestTypedArenaAllocateTracksLiveCount(t *testing.T) {
	a := NewTypedArena[int](4)
	p1 := a.Allocate()
	p2 := a.Allocate()
	if a.Live() != 2 {
		t.Fatalf("want live 2, got %d", a.Live())
	}
	*p1 = 1
	*p2 = 2
	if *p1 != 1 || *p2 != 2 {
		t.Fatalf("allocated slots must be independent")
	}
}

func TestTypedArenaReleaseRecyclesAndClears(t *testing.T) {
	a := NewTypedArena[int](4)
	p := a.Allocate()
	*p = 7
	a.Release(p)
	if a.Live() != 0 {
		t.Fatalf("want live 0 after release, got %d", a.Live())
	}
	p2 := a.Allocate()
	if p2 != p {
		t.Fatalf("expected the released slot to be recycled")
	}
	if *p2 != 0 {
		t.Fatalf("recycled slot must be cleared, got %d", *p2)
	}
}

func TestTypedArenaGrowsNewBlockWhenExhausted(t *testing.T) {
	a := NewTypedArena[int](2)
	ptrs := make([]*int, 0, 5)
	for i := 0; i < 5; i++ {
		ptrs = append(ptrs, a.Allocate())
	}
	if a.Live() != 5 {
		t.Fatalf("want live 5, got %d", a.Live())
	}
	seen := make(map[*int]bool)
	for _, p := range ptrs {
		if seen[p] {
			t.Fatalf("allocate returned the same address twice across a block boundary")
		}
		seen[p] = true
	}
}

func TestTypedArenaResetInvalidatesLiveCount(t *testing.T) {
	a := NewTypedArena[int](4)
	for i := 0; i < 3; i++ {
		a.Allocate()
	}
	a.Reset()
	if a.Live() != 0 {
		t.Fatalf("want live 0 after reset, got %d", a.Live())
	}
	p := a.Allocate()
	if a.Live() != 1 {
		t.Fatalf("want live 1 after post-reset allocate, got %d", a.Live())
	}
	if *p != 0 {
		t.Fatalf("post-reset allocation must start cleared")
	}
}

func TestTypedArenaReleaseLiveCountNeverGoesNegative(t *testing.T) {
	a := NewTypedArena[int](4)
	p := a.Allocate()
	a.Release(p)
	a.Release(p)
	if a.Live() != 0 {
		t.Fatalf("want live clamped at 0, got %d", a.Live())
	}
}
