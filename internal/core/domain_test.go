package core

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	cases := []struct {
		in string
		ok bool
	}{
		{"2025-01-15", true},
		{" 2025-01-15 ", true},
		{"2024-02-29", true}, // leap day
		{"2025-02-29", false},
		{"2025-02-31", false},
		{"2025-13-01", false},
		{"15/01/2025", false},
		{"2025-1-5", false},
		{"", false},
		{"not-a-date", false},
	}
	for _, tc := range cases {
		got, err := ParseDate(tc.in)
		if tc.ok {
			if err != nil {
				t.Errorf("ParseDate(%q) error = %v", tc.in, err)
			}
			continue
		}
		if !errors.Is(err, ErrInvalidDate) {
			t.Errorf("ParseDate(%q) = %v, want ErrInvalidDate", tc.in, got)
		}
	}
}

func TestRoleValid(t *testing.T) {
	for _, r := range []Role{RoleSuperadmin, RoleAdmin, RoleViewer} {
		if !r.Valid() {
			t.Errorf("%q should be valid", r)
		}
	}
	for _, r := range []Role{"", "root", "ADMIN"} {
		if r.Valid() {
			t.Errorf("%q should be invalid", r)
		}
	}
}

func TestTransactionTypeValid(t *testing.T) {
	if !Income.Valid() || !Expense.Valid() {
		t.Error("income and expense must be valid")
	}
	if TransactionType("transfer").Valid() || TransactionType("").Valid() {
		t.Error("unknown types must be invalid")
	}
}

func TestUserSanitized(t *testing.T) {
	u := User{ID: 1, Username: "alice", PasswordHash: "secret"}
	s := u.Sanitized()
	if s.PasswordHash != "" {
		t.Error("Sanitized() must strip the hash")
	}
	if u.PasswordHash != "secret" {
		t.Error("Sanitized() must not mutate the receiver")
	}
}

func TestCategoryValidate(t *testing.T) {
	valid := Category{Name: "Groceries", Type: Expense, Color: "#EF4444"}
	if err := valid.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Category)
		want   error
	}{
		{"empty name", func(c *Category) { c.Name = "  " }, ErrEmptyName},
		{"bad type", func(c *Category) { c.Type = "transfer" }, ErrInvalidType},
		{"no hash prefix", func(c *Category) { c.Color = "EF4444" }, ErrInvalidColor},
		{"wrong length", func(c *Category) { c.Color = "#EF44" }, ErrInvalidColor},
		{"non-hex digit", func(c *Category) { c.Color = "#EF44GG" }, ErrInvalidColor},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := valid
			tc.mutate(&c)
			if err := c.Validate(); !errors.Is(err, tc.want) {
				t.Errorf("Validate() error = %v, want %v", err, tc.want)
			}
		})
	}

	shortColor := valid
	shortColor.Color = "#F44"
	if err := shortColor.Validate(); err != nil {
		t.Errorf("three digit colors should validate, got %v", err)
	}

	longName := valid
	longName.Name = strings.Repeat("x", 101)
	if err := longName.Validate(); err == nil {
		t.Error("names over 100 characters should be rejected")
	}
}

func TestTransactionValidate(t *testing.T) {
	date, _ := ParseDate("2025-01-15")
	valid := Transaction{
		Date:        date,
		Type:        Expense,
		Amount:      Money{Cents: 4250},
		CategoryID:  1,
		Description: "Weekly shop",
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Transaction)
		want   error
	}{
		{"zero date", func(tx *Transaction) { tx.Date = time.Time{} }, ErrInvalidDate},
		{"bad type", func(tx *Transaction) { tx.Type = "transfer" }, ErrInvalidType},
		{"zero amount", func(tx *Transaction) { tx.Amount = Money{} }, ErrInvalidAmount},
		{"negative amount", func(tx *Transaction) { tx.Amount = Money{Cents: -1} }, ErrInvalidAmount},
		{"missing category", func(tx *Transaction) { tx.CategoryID = 0 }, ErrEmptyCategory},
		{"blank description", func(tx *Transaction) { tx.Description = "   " }, ErrEmptyDescription},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tx := valid
			tc.mutate(&tx)
			if err := tx.Validate(); !errors.Is(err, tc.want) {
				t.Errorf("Validate() error = %v, want %v", err, tc.want)
			}
		})
	}

	longDesc := valid
	longDesc.Description = strings.Repeat("x", 201)
	if err := longDesc.Validate(); err == nil {
		t.Error("descriptions over 200 characters should be rejected")
	}
}
