package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"finboard/internal/auth"
	"finboard/internal/core"
	"finboard/internal/wire"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrInvalidEmail = errors.New("invalid email")
)

// MemberService manages the users of the signed-in company.
type MemberService struct {
	api API
}

func NewMemberService(api API) *MemberService {
	return &MemberService{api: api}
}

func (s *MemberService) List(ctx context.Context) ([]core.User, error) {
	var list wire.UserList
	if err := s.api.Get(ctx, "/users", &list); err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	return list.Users(), nil
}

// Invite adds a member by email. No roles means [member].
func (s *MemberService) Invite(ctx context.Context, email string, roles ...core.Role) error {
	email = strings.TrimSpace(email)
	if email == "" || !strings.Contains(email, "@") {
		return ErrInvalidEmail
	}
	body := struct {
		Email string   `json:"email"`
		Roles []string `json:"roles"`
	}{Email: email, Roles: roleStrings(roles)}
	if err := s.api.Post(ctx, "/users", body, nil); err != nil {
		return fmt.Errorf("invite member: %w", err)
	}
	return nil
}

func (s *MemberService) Remove(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return ErrMissingID
	}
	if err := s.api.Delete(ctx, "/users/"+url.PathEscape(id), nil); err != nil {
		return fmt.Errorf("remove member: %w", err)
	}
	return nil
}

// UpdateRoles replaces a member's roles and returns the updated member.
func (s *MemberService) UpdateRoles(ctx context.Context, id string, roles ...core.Role) (core.User, error) {
	if strings.TrimSpace(id) == "" {
		return core.User{}, ErrMissingID
	}
	body := map[string][]string{"roles": roleStrings(roles)}
	var env wire.UserEnvelope
	if err := s.api.Put(ctx, "/users/"+url.PathEscape(id), body, &env); err != nil {
		return core.User{}, fmt.Errorf("update member roles: %w", err)
	}
	if env.User() == nil {
		return core.User{}, ErrUserNotFound
	}
	return env.User().ToCore(), nil
}

// UpdateMe saves the caller's own profile through /users/me. It does not
// touch the cached session user; the auth machine's UpdateProfile does.
func (s *MemberService) UpdateMe(ctx context.Context, patch auth.ProfilePatch) (core.User, error) {
	var env wire.UserEnvelope
	if err := s.api.Put(ctx, "/users/me", patch, &env); err != nil {
		return core.User{}, fmt.Errorf("update profile: %w", err)
	}
	if env.User() == nil {
		return core.User{}, ErrUserNotFound
	}
	return env.User().ToCore(), nil
}

// roleStrings normalizes roles through core.NewRoles, so an empty or
// all-unknown list becomes [member].
func roleStrings(roles []core.Role) []string {
	raw := make([]string, len(roles))
	for i, r := range roles {
		raw[i] = string(r)
	}
	return core.NewRoles(raw...).Strings()
}
