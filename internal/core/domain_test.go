package core

import (
	"errors"
	"testing"
)

func TestParseRole(t *testing.T) {
	cases := []struct {
		in   string
		want Role
		ok   bool
	}{
		{"super_admin", RoleSuperAdmin, true},
		{"SUPER_ADMIN", RoleSuperAdmin, true},
		{" Admin ", RoleAdmin, true},
		{"manager", RoleManager, true},
		{"member", RoleMember, true},
		{"viewer", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, ok := ParseRole(tc.in)
		if got != tc.want || ok != tc.ok {
			t.Fatalf("ParseRole(%q) = %q, %v; want %q, %v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestNewRoles(t *testing.T) {
	rs := NewRoles("Manager", "admin", "MANAGER", "viewer")
	if len(rs) != 2 || rs[0] != RoleManager || rs[1] != RoleAdmin {
		t.Fatalf("unexpected roles %v", rs)
	}
	if !rs.HasAny(RoleSuperAdmin, RoleAdmin) {
		t.Fatal("expected admin in set")
	}
	if rs.Has(RoleSuperAdmin) {
		t.Fatal("super_admin should not be in set")
	}

	empty := NewRoles("viewer")
	if len(empty) != 1 || empty[0] != RoleMember {
		t.Fatalf("unrecognized roles should fall back to member, got %v", empty)
	}
}

func TestTransactionInputValidate(t *testing.T) {
	good := TransactionInput{
		Date:       "2025-01-05",
		Name:       "Invoice 12",
		Amount:     NewAmount(100),
		Type:       Income,
		Comment:    "paid",
		Department: "sales",
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	cases := []struct {
		mutate func(*TransactionInput)
		want   error
	}{
		{func(in *TransactionInput) { in.Date = "2025-02-30" }, ErrInvalidDate},
		{func(in *TransactionInput) { in.Date = "" }, ErrInvalidDate},
		{func(in *TransactionInput) { in.Name = " " }, ErrEmptyName},
		{func(in *TransactionInput) { in.Amount = NewAmount(0) }, ErrInvalidAmount},
		{func(in *TransactionInput) { in.Amount = NewAmount(-5) }, ErrInvalidAmount},
		{func(in *TransactionInput) { in.Amount = Amount{} }, ErrInvalidAmount},
		{func(in *TransactionInput) { in.Type = "transfer" }, ErrInvalidType},
		{func(in *TransactionInput) { in.Comment = "" }, ErrEmptyComment},
		{func(in *TransactionInput) { in.Department = "" }, ErrEmptyDepartment},
	}
	for i, tc := range cases {
		in := good
		tc.mutate(&in)
		if err := in.Validate(); !errors.Is(err, tc.want) {
			t.Fatalf("case %d: expected %v, got %v", i, tc.want, err)
		}
	}
}

func TestReportMatches(t *testing.T) {
	r := Report{Title: "Q1 Budget", Type: ReportPDF, Keywords: []string{"finance", "quarterly"}}

	if !r.Matches("budget", "all") {
		t.Error("title match expected")
	}
	if !r.Matches("QUARTER", "") {
		t.Error("keyword match expected")
	}
	if r.Matches("budget", "text") {
		t.Error("type filter should exclude pdf")
	}
	if r.Matches("payroll", "pdf") {
		t.Error("no match expected")
	}
}

func TestSignupDataValidate(t *testing.T) {
	s := SignupData{
		FirstName: "Ada", LastName: "Lovelace", CompanyName: "Engines Ltd",
		Country: "UK", Phone: "+44 1", Email: "ada@example.com",
		Password: "secret1", ConfirmPassword: "secret1",
	}
	if err := s.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	s.ConfirmPassword = "other"
	if err := s.Validate(); !errors.Is(err, ErrPasswordMismatch) {
		t.Fatalf("expected mismatch, got %v", err)
	}
	s.ConfirmPassword = s.Password
	s.Email = "nope"
	if err := s.Validate(); err == nil {
		t.Fatal("expected invalid email")
	}
}

func TestUserDisplayName(t *testing.T) {
	if got := (User{FullName: "tande modson"}).DisplayName(); got != "tande modson" {
		t.Errorf("got %q", got)
	}
	if got := (User{FirstName: "Ada", LastName: "L"}).DisplayName(); got != "Ada L" {
		t.Errorf("got %q", got)
	}
	if got := (User{Email: "x@y.z"}).DisplayName(); got != "x@y.z" {
		t.Errorf("got %q", got)
	}
}
