// Package auth owns the session lifecycle: the gateway translates intents
// into backend calls and the machine holds the reactive auth state. It is the
// only package that writes tokens or the cached user to the session store.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"finboard/internal/apiclient"
	"finboard/internal/core"
	"finboard/internal/log"
	"finboard/internal/session"
	"finboard/internal/wire"
)

var (
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrMalformedLogin is returned when a 2xx login response lacks a token or user.
	ErrMalformedLogin = errors.New("login response missing token or user")
	// ErrSuperseded is returned when a logout lands while a login is in flight.
	ErrSuperseded = errors.New("login superseded by a later sign out")
)

// API is the subset of the HTTP client the gateway needs.
type API interface {
	Get(ctx context.Context, path string, out any) error
	Post(ctx context.Context, path string, body, out any) error
	Put(ctx context.Context, path string, body, out any) error
	Delete(ctx context.Context, path string, out any) error
}

type LoginResult struct {
	Token   string
	User    core.User
	Message string
}

// Gateway normalizes backend auth responses into core types.
type Gateway struct {
	api    API
	store  *session.Store
	logger *log.Logger
}

func NewGateway(api API, store *session.Store, logger *log.Logger) *Gateway {
	return &Gateway{
		api:    api,
		store:  store,
		logger: log.OrDiscard(logger).WithComponent(log.ComponentAuth),
	}
}

// Signup registers a new company admin. The account stays unverified until the
// emailed link is followed, so nothing is stored locally.
func (g *Gateway) Signup(ctx context.Context, data core.SignupData) (string, error) {
	if err := data.Validate(); err != nil {
		return "", err
	}
	req := signupRequest{
		FirstName:   strings.TrimSpace(data.FirstName),
		LastName:    strings.TrimSpace(data.LastName),
		Email:       strings.TrimSpace(data.Email),
		Password:    data.Password,
		CompanyName: strings.TrimSpace(data.CompanyName),
		Country:     strings.TrimSpace(data.Country),
		Phone:       strings.TrimSpace(data.Phone),
		Role:        string(core.RoleAdmin),
	}
	var resp messageResponse
	if err := g.api.Post(ctx, "/auth/register", req, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// Login exchanges credentials for a token, stores it in the scope selected by
// remember and caches the user. Backend errors are returned unchanged.
func (g *Gateway) Login(ctx context.Context, email, password string, remember bool) (LoginResult, error) {
	res, err := g.authenticate(ctx, email, password)
	if err != nil {
		return LoginResult{}, err
	}
	g.commitLogin(res, remember)
	return res, nil
}

func (g *Gateway) authenticate(ctx context.Context, email, password string) (LoginResult, error) {
	var resp loginResponse
	err := g.api.Post(ctx, "/auth/login", loginRequest{Email: strings.TrimSpace(email), Password: password}, &resp)
	if err != nil {
		return LoginResult{}, err
	}
	token, dto := resp.token(), resp.user()
	if token == "" || dto == nil {
		return LoginResult{}, ErrMalformedLogin
	}
	return LoginResult{Token: token, User: dto.ToCore(), Message: resp.Message}, nil
}

func (g *Gateway) commitLogin(res LoginResult, remember bool) {
	g.store.StoreToken(res.Token, remember)
	g.store.CacheUser(res.User)
}

// Logout tells the backend to drop the session. Local state is cleared first
// and no matter what the backend says.
func (g *Gateway) Logout(ctx context.Context) {
	g.revokeRemote(ctx, g.revokeLocal())
}

// revokeLocal clears every session key and returns the token that was held.
func (g *Gateway) revokeLocal() string {
	token, _ := g.store.ReadToken()
	g.clearLocal()
	return token
}

func (g *Gateway) revokeRemote(ctx context.Context, token string) {
	if token == "" {
		return
	}
	if err := g.api.Delete(apiclient.WithToken(ctx, token), "/sessions/current", nil); err != nil {
		g.logger.WarnContext(ctx, "server logout failed", log.FieldError, err.Error())
	}
}

// CurrentUser returns the cached user, or fetches and caches it. Any failure
// reads as "no user".
func (g *Gateway) CurrentUser(ctx context.Context) (*core.User, bool) {
	if u, ok := g.store.ReadCachedUser(); ok {
		return u, true
	}
	return g.FetchCurrentUser(ctx)
}

// FetchCurrentUser always asks the backend.
func (g *Gateway) FetchCurrentUser(ctx context.Context) (*core.User, bool) {
	u, ok := g.fetchUser(ctx)
	if ok {
		g.store.CacheUser(*u)
	}
	return u, ok
}

func (g *Gateway) lookupUser(ctx context.Context, useCache bool) (*core.User, bool) {
	if useCache {
		if u, ok := g.store.ReadCachedUser(); ok {
			return u, true
		}
	}
	return g.fetchUser(ctx)
}

func (g *Gateway) fetchUser(ctx context.Context) (*core.User, bool) {
	var env wire.UserEnvelope
	if err := g.api.Get(ctx, "/users/me", &env); err != nil {
		g.logger.DebugContext(ctx, "current user lookup failed", log.FieldError, err.Error())
		return nil, false
	}
	if env.User() == nil {
		return nil, false
	}
	u := env.User().ToCore()
	return &u, true
}

func (g *Gateway) VerifyEmail(ctx context.Context, token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", errors.New("verification token is required")
	}
	var resp messageResponse
	if err := g.api.Get(ctx, "/auth/verify-email?token="+url.QueryEscape(token), &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

func (g *Gateway) ForgotPassword(ctx context.Context, email string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", errors.New("email is required")
	}
	var resp messageResponse
	if err := g.api.Post(ctx, "/auth/forgot-password", map[string]string{"email": email}, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// ProfilePatch carries the editable profile fields. Nil fields are left alone.
type ProfilePatch struct {
	FirstName   *string `json:"firstName,omitempty"`
	LastName    *string `json:"lastName,omitempty"`
	Email       *string `json:"email,omitempty"`
	Country     *string `json:"country,omitempty"`
	PhoneNumber *string `json:"phoneNumber,omitempty"`
}

// UpdateProfile saves the patch and re-caches the returned user.
func (g *Gateway) UpdateProfile(ctx context.Context, userID string, patch ProfilePatch) (*core.User, error) {
	u, err := g.updateProfile(ctx, userID, patch)
	if err != nil {
		return nil, err
	}
	g.store.CacheUser(*u)
	return u, nil
}

func (g *Gateway) updateProfile(ctx context.Context, userID string, patch ProfilePatch) (*core.User, error) {
	if userID == "" {
		return nil, ErrNotAuthenticated
	}
	var env wire.UserEnvelope
	if err := g.api.Put(ctx, "/users/"+url.PathEscape(userID), patch, &env); err != nil {
		return nil, err
	}
	if env.User() == nil {
		return nil, fmt.Errorf("update profile: response missing user")
	}
	u := env.User().ToCore()
	return &u, nil
}

// UpdateDepartments replaces the company's department list.
func (g *Gateway) UpdateDepartments(ctx context.Context, companyID string, departments []string) error {
	if companyID == "" {
		return errors.New("user has no company")
	}
	body := map[string][]string{"departments": departments}
	if err := g.api.Put(ctx, "/companies/"+url.PathEscape(companyID), body, nil); err != nil {
		return err
	}
	return nil
}

func (g *Gateway) clearLocal() {
	g.store.ClearToken()
	g.store.ClearCachedUser()
	g.store.ClearCompanyID()
}
