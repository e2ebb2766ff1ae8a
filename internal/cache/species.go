package cache

import (
	"fmt"
	"sync"
)

// JapaneseSpecies is the record stored per Japanese species name.
type JapaneseSpecies struct {
	DexID         int    `json:"dexId"`
	EnglishName   string `json:"enName"`
	NormalizedKey string `json:"normalizedKey"`
}

// DexResolver fetches the English species name for a national-dex id.
type DexResolver func(dexID int) (string, error)

// JapaneseResolver fetches the species record for a Japanese species name,
// by walking the paginated species index if it hasn't been built yet.
type JapaneseResolver func(japaneseName string) (JapaneseSpecies, bool, error)

// DexCache is the read-through dexIdToEnglish cache (int -> English species
// name). Concurrent misses on the same key coalesce into a single outbound
// resolution.
type DexCache struct {
	store   *Cache
	resolve DexResolver

	mu      sync.Mutex
	inFlight map[int]*dexCall
}

type dexCall struct {
	done chan struct{}
	name string
	err  error
}

func NewDexCache(store *Cache, resolve DexResolver) *DexCache {
	return &DexCache{store: store, resolve: resolve, inFlight: make(map[int]*dexCall)}
}

// Get returns the English species name for dexID, resolving and persisting
// it on a cache miss.
func (d *DexCache) Get(dexID int) (string, error) {
	key := DexIDKey(dexID)

	var name string
	if found, _ := d.store.Get(key, &name); found {
		return name, nil
	}

	d.mu.Lock()
	if call, ok := d.inFlight[dexID]; ok {
		d.mu.Unlock()
		<-call.done
		return call.name, call.err
	}

	call := &dexCall{done: make(chan struct{})}
	d.inFlight[dexID] = call
	d.mu.Unlock()

	call.name, call.err = d.resolve(dexID)
	if call.err == nil {
		if err := d.store.Put(key, call.name, 0); err != nil {
			call.err = fmt.Errorf("persist dex cache: %w", err)
		}
	}

	d.mu.Lock()
	delete(d.inFlight, dexID)
	d.mu.Unlock()
	close(call.done)

	return call.name, call.err
}

// JapaneseNameCache is the read-through japaneseNameToSpecies cache. It is
// built once by walking the paginated species index; subsequent runs read
// from disk and rebuild only if the on-disk store is missing or empty.
type JapaneseNameCache struct {
	store   *Cache
	resolve JapaneseResolver

	mu       sync.Mutex
	inFlight map[string]*jaCall
}

type jaCall struct {
	done  chan struct{}
	entry JapaneseSpecies
	found bool
	err   error
}

func NewJapaneseNameCache(store *Cache, resolve JapaneseResolver) *JapaneseNameCache {
	return &JapaneseNameCache{store: store, resolve: resolve, inFlight: make(map[string]*jaCall)}
}

// NeedsBuild reports whether the backing store is empty and the species
// index walk has not populated it yet.
func (j *JapaneseNameCache) NeedsBuild() bool {
	return j.store.Len() == 0
}

// Put persists a species entry discovered while walking the species index.
func (j *JapaneseNameCache) Put(japaneseName string, entry JapaneseSpecies) error {
	return j.store.Put(JapaneseNameKey(japaneseName), entry, 0)
}

// Get looks up a Japanese species name, resolving on a cache miss if a
// resolver was configured (used outside the bulk index-walk path, e.g. when
// a card detail page surfaces a name the index walk hasn't seen).
func (j *JapaneseNameCache) Get(japaneseName string) (JapaneseSpecies, bool, error) {
	key := JapaneseNameKey(japaneseName)

	var entry JapaneseSpecies
	if found, _ := j.store.Get(key, &entry); found {
		return entry, true, nil
	}

	if j.resolve == nil {
		return JapaneseSpecies{}, false, nil
	}

	j.mu.Lock()
	if call, ok := j.inFlight[japaneseName]; ok {
		j.mu.Unlock()
		<-call.done
		return call.entry, call.found, call.err
	}

	call := &jaCall{done: make(chan struct{})}
	j.inFlight[japaneseName] = call
	j.mu.Unlock()

	call.entry, call.found, call.err = j.resolve(japaneseName)
	if call.err == nil && call.found {
		if err := j.Put(japaneseName, call.entry); err != nil {
			call.err = fmt.Errorf("persist species cache: %w", err)
		}
	}

	j.mu.Lock()
	delete(j.inFlight, japaneseName)
	j.mu.Unlock()
	close(call.done)

	return call.entry, call.found, call.err
}
