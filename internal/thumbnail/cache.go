// Package thumbnail implements the content-addressed, single-flight
// thumbnail cache (C5).
package thumbnail

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/agersant/polaris/internal/apperr"
	"golang.org/x/sync/singleflight"
)

// SizeClass is a thumbnail's target square dimension, or Native for an
// unresized re-encode of the source.
type SizeClass int

const (
	Tiny  SizeClass = 40
	Small SizeClass = 400
	Large SizeClass = 1200
	// Native returns the source image re-encoded as JPEG at its own size.
	Native SizeClass = 0
)

// Key identifies one cached thumbnail. Two keys with the same fields
// always resolve to the same cached bytes.
type Key struct {
	RealPath  string
	MtimeNS   int64
	Size      SizeClass
	PadSquare bool
}

func (k Key) hash() string {
	h := sha256.New()
	fmt.Fprintf(h, "%s\x00%d\x00%d\x00%t", filepath.Clean(k.RealPath), k.MtimeNS, k.Size, k.PadSquare)
	return hex.EncodeToString(h.Sum(nil))[:32] // 128 bits of the digest, hex-encoded
}

// Cache is the on-disk, content-addressed thumbnail store. It is safe for
// concurrent use; concurrent Get calls for the same key share one resize.
type Cache struct {
	dir    string
	group  singleflight.Group
	decode Decoder
}

// Decoder produces JPEG bytes for a key; production callers use
// FileDecoder (resize.go), tests can substitute a fake.
type Decoder interface {
	Decode(realPath string, size SizeClass, pad bool) ([]byte, error)
}

// NewCache opens a thumbnail cache rooted at dir, creating it if absent.
func NewCache(dir string, decoder Decoder) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, apperr.Wrap(apperr.IO, "create thumbnail cache directory", err)
	}
	return &Cache{dir: dir, decode: decoder}, nil
}

// Get returns the on-disk path to key's cached JPEG, producing it first
// if absent. Concurrent Get calls for the same key block behind a single
// producer; a producer that fails lets the next caller retry.
func (c *Cache) Get(key Key) (string, error) {
	hash := key.hash()
	path := c.pathFor(hash)

	if _, err := os.Stat(path); err == nil {
		return path, nil
	}

	result, err, _ := c.group.Do(hash, func() (interface{}, error) {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
		data, err := c.decode.Decode(key.RealPath, key.Size, key.PadSquare)
		if err != nil {
			return nil, err
		}
		if err := c.writeAtomic(path, data); err != nil {
			return nil, err
		}
		return path, nil
	})
	if err != nil {
		return "", err
	}
	return result.(string), nil
}

// pathFor lays out the cache as <dir>/<first two hex>/<rest>.jpg so a
// single directory never accumulates too many entries.
func (c *Cache) pathFor(hash string) string {
	return filepath.Join(c.dir, hash[:2], hash[2:]+".jpg")
}

func (c *Cache) writeAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return apperr.Wrap(apperr.IO, "create thumbnail shard directory", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return apperr.Wrap(apperr.IO, "write thumbnail", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return apperr.Wrap(apperr.IO, "finalize thumbnail", err)
	}
	return nil
}
