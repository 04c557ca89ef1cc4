// Package session persists the authentication token, the cached user snapshot
// and a few client-side preferences across two scopes: a durable one that
// survives restarts and a tab one bound to the current terminal session.
//
// Storage failures are never surfaced. The first failing scope degrades to an
// in-memory copy for the rest of the process and a warning is logged.
package session

import (
	"encoding/json"
	"strings"
	"sync"

	"finboard/internal/core"
	"finboard/internal/log"
)

// Keys used in the underlying scopes.
const (
	KeyToken       = "auth_token"
	KeyLegacyToken = "authToken"
	KeyUser        = "admin"
	KeyCompanyID   = "company_id"
	KeyAppearance  = "appearanceSettings"
)

// Scope names reported by TokenScope.
const (
	ScopeDurable = "durable"
	ScopeTab     = "tab"
)

// Reader is the read-only view of the store handed to everything outside the
// auth package.
type Reader interface {
	ReadToken() (string, bool)
	ReadCachedUser() (*core.User, bool)
	CompanyID() (string, bool)
	LoadAppearance() core.AppearanceSettings
}

// Store owns the session keys. Only the auth package writes tokens and the
// cached user.
type Store struct {
	mu      sync.Mutex
	durable *guarded
	tab     *guarded
	logger  *log.Logger
}

// NewStore builds a store over the given scopes. A nil scope is replaced by a
// MemoryScope.
func NewStore(durable, tab Scope, logger *log.Logger) *Store {
	if durable == nil {
		durable = NewMemoryScope()
	}
	if tab == nil {
		tab = NewMemoryScope()
	}
	s := &Store{logger: log.OrDiscard(logger).WithComponent(log.ComponentSession)}
	s.durable = newGuarded(ScopeDurable, durable, s.storageFailed)
	s.tab = newGuarded(ScopeTab, tab, s.storageFailed)
	return s
}

// NewMemoryStore returns a store that keeps everything in process memory.
func NewMemoryStore() *Store {
	return NewStore(nil, nil, nil)
}

func (s *Store) storageFailed(scope, key, op string, err error) {
	fields := log.NewFields().WithScope(scope, key).WithOperation(op).WithError(err)
	if op == "delete" {
		s.logger.Error("session key could not be removed from storage and will be read back by the next run", fields.ToSlice()...)
		return
	}
	s.logger.Warn("session storage unavailable, continuing in memory", fields.ToSlice()...)
}

// StoreToken writes the token to exactly one scope and removes it from the
// other.
func (s *Store) StoreToken(token string, remember bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.durable.del(KeyLegacyToken)
	if remember {
		s.durable.set(KeyToken, token)
		s.tab.del(KeyToken)
		return
	}
	s.tab.set(KeyToken, token)
	s.durable.del(KeyToken)
}

// ReadToken returns the stored token. Tab scope wins over durable scope. A
// token found under the legacy key is moved to the canonical key.
func (s *Store) ReadToken() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.tab.get(KeyToken); ok && v != "" {
		return v, true
	}
	if v, ok := s.durable.get(KeyToken); ok && v != "" {
		return v, true
	}
	legacy, ok := s.durable.get(KeyLegacyToken)
	if !ok || legacy == "" {
		return "", false
	}
	s.durable.set(KeyToken, legacy)
	s.durable.del(KeyLegacyToken)
	return legacy, true
}

// TokenScope reports where the current token lives, or "" when absent.
func (s *Store) TokenScope() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.tab.get(KeyToken); ok && v != "" {
		return ScopeTab
	}
	if v, ok := s.durable.get(KeyToken); ok && v != "" {
		return ScopeDurable
	}
	if v, ok := s.durable.get(KeyLegacyToken); ok && v != "" {
		return ScopeDurable
	}
	return ""
}

// ClearToken removes the token from both scopes and the legacy key.
func (s *Store) ClearToken() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tab.del(KeyToken)
	s.durable.del(KeyToken)
	s.durable.del(KeyLegacyToken)
}

// CacheUser stores the user snapshot in the durable scope and remembers the
// user's company for the tab.
func (s *Store) CacheUser(u core.User) {
	b, err := json.Marshal(u)
	if err != nil {
		s.logger.Warn("could not encode user", log.FieldError, err.Error())
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.durable.set(KeyUser, string(b))
	if u.Company != nil && u.Company.ID != "" {
		s.tab.set(KeyCompanyID, u.Company.ID)
	}
}

// ReadCachedUser returns the cached snapshot. Undecodable entries are treated
// as absent.
func (s *Store) ReadCachedUser() (*core.User, bool) {
	s.mu.Lock()
	raw, ok := s.durable.get(KeyUser)
	s.mu.Unlock()
	if !ok || strings.TrimSpace(raw) == "" {
		return nil, false
	}
	var u core.User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		s.logger.Warn("cached user is unreadable", log.FieldError, err.Error())
		return nil, false
	}
	return &u, true
}

func (s *Store) ClearCachedUser() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.durable.del(KeyUser)
}

func (s *Store) SetCompanyID(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tab.set(KeyCompanyID, id)
}

func (s *Store) CompanyID() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.tab.get(KeyCompanyID)
	return v, ok && v != ""
}

func (s *Store) ClearCompanyID() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tab.del(KeyCompanyID)
}

func (s *Store) SaveAppearance(a core.AppearanceSettings) {
	b, err := json.Marshal(a.Normalized())
	if err != nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.durable.set(KeyAppearance, string(b))
}

// LoadAppearance returns the saved settings merged over the defaults.
func (s *Store) LoadAppearance() core.AppearanceSettings {
	s.mu.Lock()
	raw, ok := s.durable.get(KeyAppearance)
	s.mu.Unlock()
	a := core.DefaultAppearance()
	if !ok {
		return a
	}
	if err := json.Unmarshal([]byte(raw), &a); err != nil {
		return core.DefaultAppearance()
	}
	return a.Normalized()
}

// Degraded reports whether either scope has fallen back to memory.
func (s *Store) Degraded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.durable.degraded || s.tab.degraded
}
