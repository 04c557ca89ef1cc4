package session

import "sync"

// Scope is one key/value storage area. The durable scope survives restarts, the
// tab scope lives as long as the terminal session that created it.
type Scope interface {
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
	Delete(key string) error
}

// MemoryScope is a map-backed Scope.
type MemoryScope struct {
	mu    sync.Mutex
	items map[string]string
}

func NewMemoryScope() *MemoryScope {
	return &MemoryScope{items: make(map[string]string)}
}

func (m *MemoryScope) Get(key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.items[key]
	return v, ok, nil
}

func (m *MemoryScope) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = value
	return nil
}

func (m *MemoryScope) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, key)
	return nil
}

// Len returns the number of stored keys.
func (m *MemoryScope) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

// guarded wraps a Scope so storage failures never reach callers. After the
// first failure the scope degrades to an in-memory shadow for the rest of the
// process lifetime.
type guarded struct {
	name     string
	inner    Scope
	shadow   *MemoryScope
	degraded bool
	onError  func(scope, key, op string, err error)
}

func newGuarded(name string, inner Scope, onError func(scope, key, op string, err error)) *guarded {
	return &guarded{name: name, inner: inner, shadow: NewMemoryScope(), onError: onError}
}

func (g *guarded) get(key string) (string, bool) {
	if g.degraded {
		v, ok, _ := g.shadow.Get(key)
		return v, ok
	}
	v, ok, err := g.inner.Get(key)
	if err != nil {
		g.fail(key, "read", err)
		return "", false
	}
	return v, ok
}

func (g *guarded) set(key, value string) {
	if !g.degraded {
		err := g.inner.Set(key, value)
		if err == nil {
			return
		}
		g.fail(key, "write", err)
	}
	_ = g.shadow.Set(key, value)
}

// del removes key from the shadow and from the backing scope. The backing
// delete is tried even when degraded, and retried once, because a row left
// behind is read back by the next process.
func (g *guarded) del(key string) {
	_ = g.shadow.Delete(key)
	err := g.inner.Delete(key)
	if err != nil {
		err = g.inner.Delete(key)
	}
	if err != nil {
		g.fail(key, "delete", err)
	}
}

func (g *guarded) fail(key, op string, err error) {
	g.degraded = true
	if g.onError != nil {
		g.onError(g.name, key, op, err)
	}
}
