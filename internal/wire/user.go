// Package wire decodes the backend's JSON shapes, which have drifted across
// revisions, into the canonical core types.
package wire

import (
	"bytes"
	"encoding/json"
	"strings"

	"finboard/internal/core"
)

// User accepts every user shape the backend has produced so far. Roles
// have arrived as a bare string, a string array and a comma-separated string,
// under both "roles" and "role".
type User struct {
	ID             string          `json:"id"`
	MongoID        string          `json:"_id"`
	FirstName      string          `json:"firstName"`
	FirstNameSnake string          `json:"first_name"`
	LastName       string          `json:"lastName"`
	LastNameSnake  string          `json:"last_name"`
	FullName       string          `json:"fullName"`
	Email          string          `json:"email"`
	IsVerified     *bool           `json:"is_verified"`
	IsVerifiedAlt  *bool           `json:"isVerified"`
	Company        *Company        `json:"company"`
	CompanyName    string          `json:"company_name"`
	Country        string          `json:"country"`
	PhoneNumber    string          `json:"phoneNumber"`
	ProfilePicture string          `json:"profilePicture"`
	Roles          json.RawMessage `json:"roles"`
	Role           json.RawMessage `json:"role"`
	Permissions    []string        `json:"permissions"`
	Departments    []string        `json:"departments"`
	CreatedAt      string          `json:"created_at"`
	CreatedAtCamel string          `json:"createdAt"`
}

type Company struct {
	ID          string   `json:"id"`
	MongoID     string   `json:"_id"`
	Name        string   `json:"name"`
	Departments []string `json:"departments"`
}

// Empty reports whether d carries no identity.
func (d *User) Empty() bool {
	return d == nil || (d.ID == "" && d.MongoID == "" && d.Email == "")
}

// ToCore converts the wire shape into the canonical user.
func (d *User) ToCore() core.User {
	u := core.User{
		ID:             FirstNonEmpty(d.ID, d.MongoID),
		FirstName:      FirstNonEmpty(d.FirstName, d.FirstNameSnake),
		LastName:       FirstNonEmpty(d.LastName, d.LastNameSnake),
		FullName:       d.FullName,
		Email:          strings.TrimSpace(d.Email),
		Country:        d.Country,
		PhoneNumber:    d.PhoneNumber,
		ProfilePicture: d.ProfilePicture,
		Permissions:    d.Permissions,
		CreatedAt:      FirstNonEmpty(d.CreatedAt, d.CreatedAtCamel),
	}
	switch {
	case d.IsVerified != nil:
		u.Verified = *d.IsVerified
	case d.IsVerifiedAlt != nil:
		u.Verified = *d.IsVerifiedAlt
	}

	raw := RawRoles(d.Roles)
	if len(raw) == 0 {
		raw = RawRoles(d.Role)
	}
	u.Roles = core.NewRoles(raw...)

	if d.Company != nil {
		u.Company = &core.Company{
			ID:          FirstNonEmpty(d.Company.ID, d.Company.MongoID),
			Name:        d.Company.Name,
			Departments: d.Company.Departments,
		}
	} else if d.CompanyName != "" {
		u.Company = &core.Company{Name: d.CompanyName}
	}
	if u.Company != nil && len(u.Company.Departments) == 0 && len(d.Departments) > 0 {
		u.Company.Departments = d.Departments
	}
	return u
}

// RawRoles flattens a roles field into individual strings.
func RawRoles(raw json.RawMessage) []string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return splitAll(list)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return splitAll([]string{s})
	}
	return nil
}

func splitAll(in []string) []string {
	var out []string
	for _, s := range in {
		for _, part := range strings.Split(s, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

func FirstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// UserEnvelope decodes either {"data": user}, {"user": user}, {"data": {"user": user}}
// or a bare user object.
type UserEnvelope struct {
	user *User
}

// User returns the decoded user, or nil.
func (e *UserEnvelope) User() *User { return e.user }

func (e *UserEnvelope) UnmarshalJSON(b []byte) error {
	var wrapped struct {
		Data json.RawMessage `json:"data"`
		User *User           `json:"user"`
	}
	if err := json.Unmarshal(b, &wrapped); err != nil {
		return err
	}
	if !wrapped.User.Empty() {
		e.user = wrapped.User
		return nil
	}
	if len(wrapped.Data) > 0 && !bytes.Equal(wrapped.Data, []byte("null")) {
		var inner UserEnvelope
		if err := json.Unmarshal(wrapped.Data, &inner); err == nil && !inner.user.Empty() {
			e.user = inner.user
			return nil
		}
	}
	var bare User
	if err := json.Unmarshal(b, &bare); err == nil && !bare.Empty() {
		e.user = &bare
	}
	return nil
}

