package cache

import (
	"context"
	"sort"
	"strings"
	"sync"

	"bitbucket.org/surdata/pedidos_backend/config"
	"bitbucket.org/surdata/pedidos_backend/models"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// InvalidationChannel carries "tenant:branch" scope keys between instances.
// Every replica drops its local mirror for a scope when a snapshot apply
// rewrites it.
const InvalidationChannel = "provider_cache:invalidate"

// LocalIdPrefix marks optimistic ids minted client-side before the backend
// has assigned a real one. Local ids live only in this cache and are never
// written to the backend.
const LocalIdPrefix = "local:"

func NewLocalId() string {
	return LocalIdPrefix + uuid.NewString()
}

func IsLocalId(id string) bool {
	return strings.HasPrefix(id, LocalIdPrefix)
}

// ProviderCache mirrors per-scope provider rows in process memory. Reads
// come from Snapshot, optimistic writes go through Put/Promote, and a
// snapshot apply (or another instance's apply, via redis pub/sub) clears
// the scope wholesale.
type ProviderCache struct {
	mu     sync.RWMutex
	scopes map[string]map[string]models.Provider
	subs   map[int]chan string
	nextId int
	logger *logrus.Logger
}

func NewProviderCache(logger *logrus.Logger) *ProviderCache {
	return &ProviderCache{
		scopes: map[string]map[string]models.Provider{},
		subs:   map[int]chan string{},
		logger: logger,
	}
}

func scopeKey(tenantId string, branchId string) string {
	return tenantId + ":" + branchId
}

// Snapshot returns a copy of the scope's mirror, sorted by name.
func (c *ProviderCache) Snapshot(tenantId string, branchId string) []models.Provider {
	c.mu.RLock()
	defer c.mu.RUnlock()
	rows := c.scopes[scopeKey(tenantId, branchId)]
	out := make([]models.Provider, 0, len(rows))
	for _, p := range rows {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (c *ProviderCache) Put(tenantId string, branchId string, p models.Provider) {
	key := scopeKey(tenantId, branchId)
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.scopes[key] == nil {
		c.scopes[key] = map[string]models.Provider{}
	}
	c.scopes[key][p.ID] = p
}

func (c *ProviderCache) Remove(tenantId string, branchId string, id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.scopes[scopeKey(tenantId, branchId)], id)
}

// Promote rebinds an optimistic local id onto the id the backend assigned.
// Promoting an unknown or non-local id is a no-op.
func (c *ProviderCache) Promote(tenantId string, branchId string, localId string, realId string) {
	if !IsLocalId(localId) {
		return
	}
	key := scopeKey(tenantId, branchId)
	c.mu.Lock()
	defer c.mu.Unlock()
	row, ok := c.scopes[key][localId]
	if !ok {
		return
	}
	delete(c.scopes[key], localId)
	row.ID = realId
	c.scopes[key][realId] = row
}

// Subscribe registers for scope invalidation keys. The returned cancel
// closes the channel and drops the registration.
func (c *ProviderCache) Subscribe() (<-chan string, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextId
	c.nextId++
	ch := make(chan string, 16)
	c.subs[id] = ch
	return ch, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if sub, ok := c.subs[id]; ok {
			delete(c.subs, id)
			close(sub)
		}
	}
}

// Invalidate drops the scope's mirror, notifies local subscribers and fans
// the invalidation out to other instances over redis.
func (c *ProviderCache) Invalidate(tenantId string, branchId string) {
	key := scopeKey(tenantId, branchId)
	c.drop(key)
	if err := config.PublishRedis(context.Background(), InvalidationChannel, []byte(key)); err != nil {
		c.logger.WithField("scope", key).Warn("cache invalidation publish failed: " + err.Error())
	}
}

func (c *ProviderCache) drop(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.scopes, key)
	for _, sub := range c.subs {
		select {
		case sub <- key:
		default:
		}
	}
}

// Listen applies invalidations published by other instances. It returns
// when ctx is done; call it in a goroutine after redis is connected.
func (c *ProviderCache) Listen(ctx context.Context) {
	rdb := config.GetRedisDB()
	if rdb == nil {
		c.logger.Warn("provider cache listener disabled, redis not connected")
		return
	}
	sub := rdb.Subscribe(ctx, InvalidationChannel)
	defer sub.Close()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-sub.Channel():
			if !ok {
				return
			}
			c.drop(msg.Payload)
		}
	}
}
