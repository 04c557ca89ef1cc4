package services

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finboard/internal/auth"
	"finboard/internal/core"
)

func TestMemberList(t *testing.T) {
	be := newBackend(t)
	be.mux.HandleFunc("GET /api/users", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[{"_id":"u1","email":"a@b.c","roles":["admin"]},{"id":"u2","email":"d@e.f","role":"manager"}]}`))
	})

	users, err := NewMemberService(be.client).List(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "u1", users[0].ID)
	assert.Equal(t, core.Roles{core.RoleManager}, users[1].Roles)
}

func TestInviteDefaultsToMember(t *testing.T) {
	be := newBackend(t)
	var body struct {
		Email string   `json:"email"`
		Roles []string `json:"roles"`
	}
	be.mux.HandleFunc("POST /api/users", func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&body)
		w.Write([]byte(`{"success":true}`))
	})
	svc := NewMemberService(be.client)

	require.NoError(t, svc.Invite(context.Background(), "new@acme.io"))
	assert.Equal(t, "new@acme.io", body.Email)
	assert.Equal(t, []string{"member"}, body.Roles)

	require.NoError(t, svc.Invite(context.Background(), "boss@acme.io", core.RoleManager, core.RoleManager))
	assert.Equal(t, []string{"manager"}, body.Roles)

	assert.ErrorIs(t, svc.Invite(context.Background(), "not-an-email"), ErrInvalidEmail)
}

func TestUpdateRoles(t *testing.T) {
	be := newBackend(t)
	be.mux.HandleFunc("PUT /api/users/{id}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") == "missing" {
			w.Write([]byte(`{"data":{}}`))
			return
		}
		w.Write([]byte(`{"data":{"user":{"id":"u2","email":"d@e.f","roles":["admin"]}}}`))
	})
	svc := NewMemberService(be.client)

	u, err := svc.UpdateRoles(context.Background(), "u2", core.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, core.Roles{core.RoleAdmin}, u.Roles)

	_, err = svc.UpdateRoles(context.Background(), "missing", core.RoleAdmin)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestRemoveAndUpdateMe(t *testing.T) {
	be := newBackend(t)
	var removed string
	be.mux.HandleFunc("DELETE /api/users/{id}", func(w http.ResponseWriter, r *http.Request) {
		removed = r.PathValue("id")
	})
	var patch map[string]any
	be.mux.HandleFunc("PUT /api/users/me", func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&patch)
		w.Write([]byte(`{"id":"u1","email":"a@b.c","firstName":"Grace"}`))
	})
	svc := NewMemberService(be.client)

	require.NoError(t, svc.Remove(context.Background(), "u9"))
	assert.Equal(t, "u9", removed)
	assert.ErrorIs(t, svc.Remove(context.Background(), ""), ErrMissingID)

	name := "Grace"
	u, err := svc.UpdateMe(context.Background(), auth.ProfilePatch{FirstName: &name})
	require.NoError(t, err)
	assert.Equal(t, "Grace", u.FirstName)
	assert.Equal(t, map[string]any{"firstName": "Grace"}, patch)
}
