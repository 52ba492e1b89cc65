package thumbnail

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
)

type countingDecoder struct {
	calls int32
}

func (d *countingDecoder) Decode(realPath string, size SizeClass, pad bool) ([]byte, error) {
	atomic.AddInt32(&d.calls, 1)
	return []byte("fake-jpeg-bytes"), nil
}

func TestGetProducesAndCachesFile(t *testing.T) {
	dir := t.TempDir()
	dec := &countingDecoder{}
	cache, err := NewCache(dir, dec)
	if err != nil {
		t.Fatalf("NewCache: %v", err)
	}

	key := Key{RealPath: "/music/a.flac", MtimeNS: 1, Size: Tiny, PadSquare: true}
	path, err := cache.Get(key)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected cached file to exist: %v", err)
	}

	path2, err := cache.Get(key)
	if err != nil {
		t.Fatalf("second Get: %v", err)
	}
	if path != path2 {
		t.Fatalf("expected stable path, got %q then %q", path, path2)
	}
	if dec.calls != 1 {
		t.Fatalf("expected exactly one decode call, got %d", dec.calls)
	}
}

// TestSingleFlight covers invariant 6: concurrent Get calls for the same
// key produce exactly one resize invocation.
func TestSingleFlight(t *testing.T) {
	dir := t.TempDir()
	dec := &countingDecoder{}
	cache, err := NewCache(dir, dec)
	if err != nil {
		t.Fatalf("NewCache: %v", err)
	}

	key := Key{RealPath: "/music/a.flac", MtimeNS: 1, Size: Small}
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := cache.Get(key); err != nil {
				t.Errorf("Get: %v", err)
			}
		}()
	}
	wg.Wait()

	if dec.calls != 1 {
		t.Fatalf("expected exactly one decode call under concurrency, got %d", dec.calls)
	}
}

func TestDifferentKeysShardDifferently(t *testing.T) {
	dir := t.TempDir()
	dec := &countingDecoder{}
	cache, _ := NewCache(dir, dec)

	p1, _ := cache.Get(Key{RealPath: "/music/a.flac", MtimeNS: 1, Size: Tiny})
	p2, _ := cache.Get(Key{RealPath: "/music/b.flac", MtimeNS: 1, Size: Tiny})
	if p1 == p2 {
		t.Fatal("expected different keys to produce different cache paths")
	}
	if filepath.Dir(filepath.Dir(p1)) != dir {
		t.Fatalf("expected shard directory directly under cache dir, got %q", p1)
	}
	fmt.Sprintln() // keep fmt import if unused paths change
}
