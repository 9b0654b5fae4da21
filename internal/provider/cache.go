package provider

import (
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"
)

const (
	defaultCacheSize = 100
	defaultCacheTTL  = time.Hour
)

// instanceCache guarda las instancias vivas de un registry.
// Las construcciones concurrentes de un mismo providerID se coalescen con singleflight.
// El tamaño es un tope blando: al superarlo se descartan primero las expiradas y
// luego la entrada más vieja.
type instanceCache[P Instance] struct {
	items   *gocache.Cache
	sf      singleflight.Group
	mu      sync.Mutex // serializa check de capacidad + Set
	maxSize int
	ttl     time.Duration
}

func newInstanceCache[P Instance](maxSize int, ttl time.Duration) *instanceCache[P] {
	if maxSize <= 0 {
		maxSize = defaultCacheSize
	}
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	// cleanupInterval 0: sin janitor en background, las expiradas se limpian al insertar
	return &instanceCache[P]{
		items:   gocache.New(ttl, 0),
		maxSize: maxSize,
		ttl:     ttl,
	}
}

func (c *instanceCache[P]) get(id string) (P, bool) {
	var zero P
	v, ok := c.items.Get(id)
	if !ok {
		return zero, false
	}
	p, ok := v.(P)
	return p, ok
}

// put guarda p salvo que ya haya una instancia de versión mayor.
func (c *instanceCache[P]) put(id string, p P) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if cur, ok := c.get(id); ok && cur.Version() > p.Version() {
		return
	}
	if _, ok := c.items.Get(id); !ok && c.items.ItemCount() >= c.maxSize {
		c.items.DeleteExpired()
		if c.items.ItemCount() >= c.maxSize {
			c.evictOldest()
		}
	}
	c.items.Set(id, p, c.ttl)
}

// evictOldest descarta la entrada con expiración más próxima, que con TTL fijo
// es la construida hace más tiempo.
func (c *instanceCache[P]) evictOldest() {
	var (
		oldestKey string
		oldestExp int64
	)
	for k, it := range c.items.Items() {
		if oldestKey == "" || it.Expiration < oldestExp {
			oldestKey, oldestExp = k, it.Expiration
		}
	}
	if oldestKey != "" {
		c.items.Delete(oldestKey)
	}
}

func (c *instanceCache[P]) evict(id string) {
	c.items.Delete(id)
}

func (c *instanceCache[P]) size() int {
	return c.items.ItemCount()
}
