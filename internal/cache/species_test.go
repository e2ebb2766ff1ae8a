package cache

import (
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
)

func TestDexCache_ResolvesAndCaches(t *testing.T) {
	tempDir := t.TempDir()
	store, err := New(filepath.Join(tempDir, "dex.json"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	var calls int32
	dc := NewDexCache(store, func(dexID int) (string, error) {
		atomic.AddInt32(&calls, 1)
		return "Charizard", nil
	})

	name, err := dc.Get(6)
	if err != nil || name != "Charizard" {
		t.Fatalf("Get(6) = %q, %v", name, err)
	}

	name, err = dc.Get(6)
	if err != nil || name != "Charizard" {
		t.Fatalf("second Get(6) = %q, %v", name, err)
	}

	if calls != 1 {
		t.Errorf("expected resolver called once, got %d", calls)
	}
}

func TestDexCache_CoalescesConcurrentMisses(t *testing.T) {
	tempDir := t.TempDir()
	store, err := New(filepath.Join(tempDir, "dex.json"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	var calls int32
	block := make(chan struct{})
	dc := NewDexCache(store, func(dexID int) (string, error) {
		atomic.AddInt32(&calls, 1)
		<-block
		return "Pikachu", nil
	})

	var wg sync.WaitGroup
	results := make([]string, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			name, _ := dc.Get(25)
			results[idx] = name
		}(i)
	}

	close(block)
	wg.Wait()

	if calls != 1 {
		t.Errorf("expected exactly one outbound resolution for concurrent misses, got %d", calls)
	}
	for _, r := range results {
		if r != "Pikachu" {
			t.Errorf("expected all callers to get Pikachu, got %q", r)
		}
	}
}

func TestJapaneseNameCache_NeedsBuild(t *testing.T) {
	tempDir := t.TempDir()
	store, err := New(filepath.Join(tempDir, "jaspecies.json"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	jc := NewJapaneseNameCache(store, nil)
	if !jc.NeedsBuild() {
		t.Error("expected NeedsBuild on empty store")
	}

	if err := jc.Put("リザードン", JapaneseSpecies{DexID: 6, EnglishName: "Charizard", NormalizedKey: "charizard"}); err != nil {
		t.Fatalf("Put: %v", err)
	}

	if jc.NeedsBuild() {
		t.Error("expected NeedsBuild false after Put")
	}

	entry, found, err := jc.Get("リザードン")
	if err != nil || !found {
		t.Fatalf("Get after Put: found=%v err=%v", found, err)
	}
	if entry.EnglishName != "Charizard" {
		t.Errorf("EnglishName = %q, want Charizard", entry.EnglishName)
	}
}

func TestJapaneseNameCache_GetWithoutResolverMissesSilently(t *testing.T) {
	tempDir := t.TempDir()
	store, err := New(filepath.Join(tempDir, "jaspecies.json"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	jc := NewJapaneseNameCache(store, nil)
	_, found, err := jc.Get("unknown species")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found {
		t.Error("expected miss for unresolved, unbuilt cache")
	}
}
