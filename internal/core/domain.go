package core

import (
	"errors"
	"strings"
	"time"
)

const (
	RoleSuperAdmin Role = "super_admin"
	RoleAdmin      Role = "admin"
	RoleManager    Role = "manager"
	RoleMember     Role = "member"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

const (
	ReportPDF  ReportType = "pdf"
	ReportText ReportType = "text"
)

// DateLayout is the calendar date format used by forms and filters.
const DateLayout = "2006-01-02"

type (
	Role            string
	TransactionType string
	ReportType      string

	// Roles is an ordered set of roles. Order is the order the server sent them.
	Roles []Role

	Company struct {
		ID          string   `json:"id"`
		Name        string   `json:"name"`
		Departments []string `json:"departments,omitempty"`
	}

	// User is the denormalized snapshot cached between refreshes.
	User struct {
		ID             string   `json:"id"`
		FirstName      string   `json:"firstName"`
		LastName       string   `json:"lastName"`
		FullName       string   `json:"fullName,omitempty"`
		Email          string   `json:"email"`
		Verified       bool     `json:"is_verified"`
		Company        *Company `json:"company,omitempty"`
		Country        string   `json:"country,omitempty"`
		PhoneNumber    string   `json:"phoneNumber,omitempty"`
		ProfilePicture string   `json:"profilePicture,omitempty"`
		Roles          Roles    `json:"roles"`
		Permissions    []string `json:"permissions,omitempty"`
		CreatedAt      string   `json:"created_at,omitempty"`
	}

	// Transaction is the canonical shape the aggregation engine works on.
	// TransactionDate and LegacyDate are kept raw; parsing is the engine's job.
	Transaction struct {
		ID              string          `json:"id"`
		Department      string          `json:"department"`
		Name            string          `json:"name"`
		Amount          Amount          `json:"amount"`
		Type            TransactionType `json:"type"`
		Comment         string          `json:"comment"`
		TransactionDate string          `json:"transactionDate,omitempty"`
		LegacyDate      string          `json:"date,omitempty"`
		CreatedAt       string          `json:"createdAt,omitempty"`
		Locked          bool            `json:"isLocked"`
	}

	// TransactionInput is what the add-transaction form submits.
	TransactionInput struct {
		Date       string
		Name       string
		Amount     Amount
		Type       TransactionType
		Comment    string
		Department string
	}

	Report struct {
		ID         string     `json:"id"`
		Title      string     `json:"title"`
		Type       ReportType `json:"type"`
		Content    string     `json:"content,omitempty"`
		FileURL    string     `json:"file_url,omitempty"`
		UploadDate string     `json:"upload_date"`
		Keywords   []string   `json:"keywords"`
	}

	SignupData struct {
		FirstName       string
		LastName        string
		CompanyName     string
		Country         string
		Phone           string
		Email           string
		Password        string
		ConfirmPassword string
	}
)

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidType      = errors.New("type must be income or expense")
	ErrEmptyName        = errors.New("name is required")
	ErrEmptyDepartment  = errors.New("department is required")
	ErrEmptyComment     = errors.New("comment is required")
	ErrInvalidDate      = errors.New("invalid date")
	ErrPasswordMismatch = errors.New("passwords do not match")
)

// ParseRole maps a wire string onto the closed role enum. Matching ignores case
// and surrounding whitespace.
func ParseRole(s string) (Role, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleSuperAdmin:
		return RoleSuperAdmin, true
	case RoleAdmin:
		return RoleAdmin, true
	case RoleManager:
		return RoleManager, true
	case RoleMember:
		return RoleMember, true
	}
	return "", false
}

// NewRoles builds an ordered role set from raw strings. Unknown tags are dropped,
// duplicates keep their first position and an empty result becomes [member].
func NewRoles(raw ...string) Roles {
	seen := make(map[Role]struct{}, len(raw))
	out := make(Roles, 0, len(raw))
	for _, r := range raw {
		role, ok := ParseRole(r)
		if !ok {
			continue
		}
		if _, dup := seen[role]; dup {
			continue
		}
		seen[role] = struct{}{}
		out = append(out, role)
	}
	if len(out) == 0 {
		out = append(out, RoleMember)
	}
	return out
}

// Has reports whether the set contains role.
func (rs Roles) Has(role Role) bool {
	for _, r := range rs {
		if r == role {
			return true
		}
	}
	return false
}

// HasAny reports whether the set intersects roles.
func (rs Roles) HasAny(roles ...Role) bool {
	for _, r := range roles {
		if rs.Has(r) {
			return true
		}
	}
	return false
}

func (rs Roles) Strings() []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = string(r)
	}
	return out
}

func (t TransactionType) Valid() bool {
	return t == Income || t == Expense
}

// ParseTransactionType normalizes a wire type tag.
func ParseTransactionType(s string) (TransactionType, bool) {
	t := TransactionType(strings.ToLower(strings.TrimSpace(s)))
	return t, t.Valid()
}

// DisplayName prefers the full name, then first+last, then the email.
func (u User) DisplayName() string {
	if name := strings.TrimSpace(u.FullName); name != "" {
		return name
	}
	if name := strings.TrimSpace(u.FirstName + " " + u.LastName); name != "" {
		return name
	}
	return u.Email
}

// Departments returns the company's department list, or nil without a company.
func (u User) Departments() []string {
	if u.Company == nil {
		return nil
	}
	return u.Company.Departments
}

func (in TransactionInput) Validate() error {
	if strings.TrimSpace(in.Date) == "" {
		return ErrInvalidDate
	}
	if _, err := time.Parse(DateLayout, strings.TrimSpace(in.Date)); err != nil {
		return ErrInvalidDate
	}
	if strings.TrimSpace(in.Name) == "" {
		return ErrEmptyName
	}
	if !in.Amount.Valid || !in.Amount.Value.IsPositive() {
		return ErrInvalidAmount
	}
	if !in.Type.Valid() {
		return ErrInvalidType
	}
	if strings.TrimSpace(in.Comment) == "" {
		return ErrEmptyComment
	}
	if strings.TrimSpace(in.Department) == "" {
		return ErrEmptyDepartment
	}
	return nil
}

// Matches implements the notice board filter: term matches the title or any
// keyword (case-insensitive substring), kind is "all", "pdf" or "text".
func (r Report) Matches(term, kind string) bool {
	kind = strings.ToLower(strings.TrimSpace(kind))
	if kind != "" && kind != "all" && ReportType(kind) != r.Type {
		return false
	}
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return true
	}
	if strings.Contains(strings.ToLower(r.Title), term) {
		return true
	}
	for _, k := range r.Keywords {
		if strings.Contains(strings.ToLower(k), term) {
			return true
		}
	}
	return false
}

func (s SignupData) Validate() error {
	required := []struct {
		field, value string
	}{
		{"first name", s.FirstName},
		{"last name", s.LastName},
		{"company name", s.CompanyName},
		{"country", s.Country},
		{"phone", s.Phone},
		{"email", s.Email},
		{"password", s.Password},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return errors.New(r.field + " is required")
		}
	}
	if !strings.Contains(s.Email, "@") {
		return errors.New("invalid email")
	}
	if s.Password != s.ConfirmPassword {
		return ErrPasswordMismatch
	}
	return nil
}
