package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	sharedCache "github.com/davicafu/hrlab/internal/shared/infra/platform/cache"
)

// cacheItem guarda el valor y el tiempo de expiración.
type cacheItem struct {
	value     []byte // Guardamos los bytes para simular la serialización, igual que Redis.
	expiresAt time.Time
}

// InMemoryCache implementa la interfaz de caché usando un mapa en memoria.
// Es el sustituto de Redis en despliegues locales y en tests.
type InMemoryCache struct {
	store      map[string]cacheItem
	mu         sync.RWMutex
	defaultTTL time.Duration
	stopChan   chan struct{} // Canal para detener la goroutine de limpieza.
}

// Verificación estática: asegura en tiempo de compilación que InMemoryCache implementa la interfaz compartida.
var _ sharedCache.Cache = (*InMemoryCache)(nil)

// NewInMemoryCache crea una nueva instancia de la caché en memoria.
// - defaultTTL: El tiempo de vida por defecto para las claves si no se especifica otro.
// - cleanupInterval: Cada cuánto tiempo se revisarán y eliminarán las claves expiradas.
func NewInMemoryCache(defaultTTL, cleanupInterval time.Duration) *InMemoryCache {
	c := &InMemoryCache{
		store:      make(map[string]cacheItem),
		defaultTTL: defaultTTL,
		stopChan:   make(chan struct{}),
	}

	// Inicia el proceso de limpieza de items expirados en segundo plano.
	go c.cleanupLoop(cleanupInterval)

	return c
}

func (c *InMemoryCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	item, ok := c.store[key]
	if !ok {
		return false, nil // Cache miss: la clave no existe.
	}

	// Comprueba si el item ha expirado.
	if time.Now().UTC().After(item.expiresAt) {
		return false, nil // Expirado, se trata como un cache miss.
	}

	if err := json.Unmarshal(item.value, dest); err != nil {
		return false, err
	}

	return true, nil // Cache hit.
}

func (c *InMemoryCache) Set(ctx context.Context, key string, val interface{}, ttlSecs int) error {
	data, err := json.Marshal(val)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	ttl := c.defaultTTL
	if ttlSecs > 0 {
		ttl = time.Duration(ttlSecs) * time.Second
	}

	c.store[key] = cacheItem{
		value:     data,
		expiresAt: time.Now().UTC().Add(ttl),
	}

	return nil
}

func (c *InMemoryCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.store, key)
	return nil
}

// Stop detiene la goroutine de limpieza. Llamar al apagar la aplicación.
func (c *InMemoryCache) Stop() {
	close(c.stopChan)
}

// cleanupLoop se ejecuta periódicamente para limpiar claves expiradas.
func (c *InMemoryCache) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.mu.Lock()
			for key, item := range c.store {
				if time.Now().UTC().After(item.expiresAt) {
					delete(c.store, key)
				}
			}
			c.mu.Unlock()
		case <-c.stopChan:
			return
		}
	}
}
