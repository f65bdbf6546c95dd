package lazymodal

import "sync"

// ResourceKey identifies a resource attached to the shared head.
type ResourceKey struct {
	Kind    Kind
	Address string
}

// Claims records which resources are already attached to the shared
// document head. A claim is never released: the element stays in the head
// after the modal that added it is gone.
type Claims struct {
	mu   sync.Mutex
	keys map[ResourceKey]struct{}
}

// NewClaims returns an empty claim set.
func NewClaims() *Claims {
	return &Claims{keys: make(map[ResourceKey]struct{})}
}

// Claim reports true and records the key the first time (kind, addr) is
// claimed, false on every later call.
func (c *Claims) Claim(kind Kind, addr string) bool {
	k := ResourceKey{Kind: kind, Address: addr}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.keys[k]; ok {
		return false
	}
	c.keys[k] = struct{}{}
	return true
}

// Claimed reports whether (kind, addr) has been claimed.
func (c *Claims) Claimed(kind Kind, addr string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.keys[ResourceKey{Kind: kind, Address: addr}]
	return ok
}

// Reset forgets every claim. Only tests should need this.
func (c *Claims) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.keys = make(map[ResourceKey]struct{})
}
