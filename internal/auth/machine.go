package auth

import (
	"context"
	"strings"
	"sync"
	"time"

	"finboard/internal/core"
	"finboard/internal/log"
	"finboard/internal/session"
)

type State int

const (
	Uninitialized State = iota
	Initializing
	Authenticated
	Anonymous
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Initializing:
		return "initializing"
	case Authenticated:
		return "authenticated"
	case Anonymous:
		return "anonymous"
	default:
		return "unknown"
	}
}

// Snapshot is an immutable view of the machine at one point in time.
type Snapshot struct {
	State      State
	User       *core.User
	IsLoading  bool
	Generation uint64
}

func (s Snapshot) IsAuthenticated() bool {
	return s.State == Authenticated && s.User != nil
}

// Roles returns the signed-in user's roles, or nil when anonymous.
func (s Snapshot) Roles() core.Roles {
	if !s.IsAuthenticated() {
		return nil
	}
	return s.User.Roles
}

type subscriber struct {
	id int
	fn func(Snapshot)
}

// Machine is the single owner of auth state. Every async method captures the
// generation it started in; a result that comes back after a newer
// transition began is dropped.
type Machine struct {
	gw     *Gateway
	store  *session.Store
	logger *log.Logger
	now    func() time.Time

	mu          sync.Mutex
	state       State
	user        *core.User
	inflight    int
	gen         uint64
	initStarted bool
	subs        []subscriber
	nextSub     int
}

type MachineOption func(*Machine)

// WithClock overrides the clock used for token expiry checks.
func WithClock(now func() time.Time) MachineOption {
	return func(m *Machine) { m.now = now }
}

func NewMachine(gw *Gateway, logger *log.Logger, opts ...MachineOption) *Machine {
	m := &Machine{
		gw:     gw,
		store:  gw.store,
		logger: log.OrDiscard(logger).WithComponent(log.ComponentAuth),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Session exposes the store read-only.
func (m *Machine) Session() session.Reader {
	return m.store
}

func (m *Machine) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

func (m *Machine) currentState() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Machine) snapshotLocked() Snapshot {
	var u *core.User
	if m.user != nil {
		cp := *m.user
		u = &cp
	}
	return Snapshot{
		State:      m.state,
		User:       u,
		IsLoading:  m.inflight > 0,
		Generation: m.gen,
	}
}

// Subscribe registers fn to be called after every state change. The returned
// function removes the subscription.
func (m *Machine) Subscribe(fn func(Snapshot)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextSub++
	id := m.nextSub
	m.subs = append(m.subs, subscriber{id: id, fn: fn})
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		for i, s := range m.subs {
			if s.id == id {
				m.subs = append(m.subs[:i:i], m.subs[i+1:]...)
				return
			}
		}
	}
}

func (m *Machine) notify(snap Snapshot) {
	m.mu.Lock()
	subs := make([]subscriber, len(m.subs))
	copy(subs, m.subs)
	m.mu.Unlock()
	for _, s := range subs {
		s.fn(snap)
	}
}

// begin starts an async operation. When transition is set the generation is
// bumped and the machine moves to next.
func (m *Machine) begin(transition bool, next State) uint64 {
	m.mu.Lock()
	m.inflight++
	if transition {
		m.gen++
		m.state = next
	}
	gen := m.gen
	snap := m.snapshotLocked()
	m.mu.Unlock()
	m.notify(snap)
	return gen
}

// settle ends the operation started in gen. apply runs under the machine lock
// only when gen is still current; the store writes it performs are therefore
// never applied for a superseded operation.
func (m *Machine) settle(ctx context.Context, op string, gen uint64, apply func() (State, *core.User)) bool {
	m.mu.Lock()
	m.inflight--
	current := gen == m.gen
	if current && apply != nil {
		m.state, m.user = apply()
	}
	snap := m.snapshotLocked()
	m.mu.Unlock()

	if !current && apply != nil {
		fields := log.NewFields().WithOperation(op).WithGeneration(gen)
		fields[log.FieldState] = snap.State.String()
		m.logger.DebugContext(ctx, "discarding stale result", fields.ToSlice()...)
	}
	m.notify(snap)
	return current
}

// Init resolves the initial session. It runs at most once; later calls return
// the current snapshot. Without a usable token no request is made.
func (m *Machine) Init(ctx context.Context) Snapshot {
	m.mu.Lock()
	if m.initStarted {
		snap := m.snapshotLocked()
		m.mu.Unlock()
		return snap
	}
	m.initStarted = true
	m.mu.Unlock()

	gen := m.begin(true, Initializing)

	if _, ok := m.usableToken(); !ok {
		m.settle(ctx, log.OpInit, gen, m.anonymous)
		return m.Snapshot()
	}

	user, ok := m.gw.lookupUser(ctx, true)
	m.settle(ctx, log.OpInit, gen, func() (State, *core.User) {
		if !ok {
			return m.anonymous()
		}
		m.store.CacheUser(*user)
		return Authenticated, user
	})
	return m.Snapshot()
}

// usableToken reads the token and drops it when it is a JWT past its expiry.
func (m *Machine) usableToken() (string, bool) {
	tok, ok := m.store.ReadToken()
	if !ok {
		return "", false
	}
	if tokenExpired(tok, m.now()) {
		m.logger.Info("stored token has expired")
		return "", false
	}
	return tok, true
}

// anonymous clears every local session key. Callers hold m.mu.
func (m *Machine) anonymous() (State, *core.User) {
	m.gw.clearLocal()
	return Anonymous, nil
}

// Login authenticates and, on success, persists the token in the scope chosen
// by remember. Errors come back exactly as the backend phrased them.
func (m *Machine) Login(ctx context.Context, email, password string, remember bool) (core.User, error) {
	gen := m.begin(true, m.currentState())
	res, err := m.gw.authenticate(ctx, email, password)

	current := m.settle(ctx, log.OpLogin, gen, func() (State, *core.User) {
		if err != nil {
			return m.anonymous()
		}
		m.gw.commitLogin(res, remember)
		u := res.User
		return Authenticated, &u
	})
	if err != nil {
		return core.User{}, err
	}
	if !current {
		// The token was never stored; drop the server session it opened.
		m.gw.revokeRemote(ctx, res.Token)
		return core.User{}, ErrSuperseded
	}
	return res.User, nil
}

// Signup registers an account. It never changes the auth state.
func (m *Machine) Signup(ctx context.Context, data core.SignupData) (string, error) {
	gen := m.begin(false, 0)
	msg, err := m.gw.Signup(ctx, data)
	m.settle(ctx, log.OpSignup, gen, nil)
	return msg, err
}

// Logout moves to Anonymous immediately and then revokes the server session
// on a best-effort basis.
func (m *Machine) Logout(ctx context.Context) {
	m.mu.Lock()
	m.gen++
	m.initStarted = true
	token := m.gw.revokeLocal()
	m.state, m.user = Anonymous, nil
	snap := m.snapshotLocked()
	m.mu.Unlock()
	m.notify(snap)

	m.gw.revokeRemote(ctx, token)
}

// RefreshUser re-validates the current token against the backend and
// refreshes the cached user. A failure logs the user out silently.
func (m *Machine) RefreshUser(ctx context.Context) Snapshot {
	gen := m.begin(true, Initializing)

	if _, ok := m.usableToken(); !ok {
		m.settle(ctx, log.OpRefresh, gen, m.anonymous)
		return m.Snapshot()
	}

	user, ok := m.gw.lookupUser(ctx, false)
	m.settle(ctx, log.OpRefresh, gen, func() (State, *core.User) {
		if !ok {
			return m.anonymous()
		}
		m.store.CacheUser(*user)
		return Authenticated, user
	})
	return m.Snapshot()
}

// UpdateDepartments saves the company's department list and refreshes the
// cached user so the new list is visible everywhere.
func (m *Machine) UpdateDepartments(ctx context.Context, departments []string) ([]string, error) {
	snap := m.Snapshot()
	if !snap.IsAuthenticated() {
		return nil, ErrNotAuthenticated
	}
	companyID := ""
	if snap.User.Company != nil {
		companyID = snap.User.Company.ID
	}
	if companyID == "" {
		companyID, _ = m.store.CompanyID()
	}

	clean := NormalizeDepartments(departments)
	if err := m.gw.UpdateDepartments(ctx, companyID, clean); err != nil {
		return nil, err
	}
	m.RefreshUser(ctx)
	return clean, nil
}

// UpdateProfile saves profile edits for the signed-in user.
func (m *Machine) UpdateProfile(ctx context.Context, patch ProfilePatch) (*core.User, error) {
	snap := m.Snapshot()
	if !snap.IsAuthenticated() {
		return nil, ErrNotAuthenticated
	}
	gen := m.begin(false, 0)
	u, err := m.gw.updateProfile(ctx, snap.User.ID, patch)
	m.settle(ctx, log.OpUpdate, gen, func() (State, *core.User) {
		if err != nil {
			return m.state, m.user
		}
		m.store.CacheUser(*u)
		return Authenticated, u
	})
	return u, err
}

// NormalizeDepartments trims names, drops blanks and removes case-insensitive
// duplicates, keeping the first spelling.
func NormalizeDepartments(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, d := range in {
		d = strings.TrimSpace(d)
		key := strings.ToLower(d)
		if d == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, d)
	}
	return out
}
