// Package tracecache provides a RAM cache of archive holdings summaries
// for accelerating repeated access to waveform day files.
package tracecache

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/golang/groupcache"

	"github.com/GeoNet/seed/internal/holdings"
)

// A GetterFunc provides the raw archive bytes for an object key.
type GetterFunc func(key string) ([]byte, error)

// Cache holds decoded holdings summaries keyed by object key and
// modification time.
type Cache struct {
	getterFunc GetterFunc
	group      *groupcache.Group
}

// New returns a Cache ready for use. name must be unique per process,
// size is the max size in bytes of the RAM cache.
func New(name string, size int64, g GetterFunc) *Cache {
	c := &Cache{getterFunc: g}
	c.group = groupcache.NewGroup(name, size, groupcache.GetterFunc(c.getter))

	return c
}

// Holding returns the holdings summary for the archive object, decoding it
// on a cache miss. The modification time is folded into the cache key so a
// stale summary is not served after the object changes.
func (c *Cache) Holding(key string, modified time.Time) (holdings.Holding, error) {
	var b []byte
	if err := c.group.Get(nil, toKey(key, modified), groupcache.AllocatingByteSliceSink(&b)); err != nil {
		return holdings.Holding{}, err
	}

	var h holdings.Holding
	if err := json.Unmarshal(b, &h); err != nil {
		return holdings.Holding{}, err
	}

	return h, nil
}

func (c *Cache) getter(ctx groupcache.Context, key string, dest groupcache.Sink) error {
	objectKey, err := fromKey(key)
	if err != nil {
		return err
	}

	buf, err := c.getterFunc(objectKey)
	if err != nil {
		return err
	}

	h, err := holdings.Archive(buf)
	if err != nil {
		return err
	}

	b, err := json.Marshal(h)
	if err != nil {
		return err
	}

	return dest.SetBytes(b)
}

func toKey(key string, modified time.Time) string {
	return fmt.Sprintf("%s|%s", key, modified.UTC().Format(time.RFC3339))
}

func fromKey(key string) (string, error) {
	p := strings.Split(key, "|")

	if len(p) != 2 {
		return "", fmt.Errorf("splitting key expected 2 parts got %d", len(p))
	}

	return p[0], nil
}
