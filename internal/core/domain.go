package core

import (
	"errors"
	"strings"
	"time"
)

const (
	RoleSuperadmin Role = "superadmin"
	RoleAdmin      Role = "admin"
	RoleViewer     Role = "viewer"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

// DateLayout is the wire and storage format for transaction dates.
const DateLayout = "2006-01-02"

type (
	Role string

	TransactionType string

	Money struct {
		Cents int64
	}

	User struct {
		ID                 int64     `json:"id"`
		Username           string    `json:"username"`
		PasswordHash       string    `json:"-"`
		Role               Role      `json:"role"`
		IsActive           bool      `json:"isActive"`
		MustChangePassword bool      `json:"mustChangePassword"`
		CreatedAt          time.Time `json:"createdAt"`
		CreatedByID        *int64    `json:"createdById,omitempty"`
	}

	Category struct {
		ID          int64           `json:"id"`
		Name        string          `json:"name"`
		Type        TransactionType `json:"type"`
		Color       string          `json:"color"`
		CreatedByID int64           `json:"createdById"`
		CreatedAt   time.Time       `json:"createdAt"`
		UpdatedAt   time.Time       `json:"updatedAt"`
	}

	Transaction struct {
		ID            int64           `json:"id"`
		Date          time.Time       `json:"-"`
		Type          TransactionType `json:"type"`
		Amount        Money           `json:"-"`
		CategoryID    int64           `json:"categoryId"`
		Category      *Category       `json:"category,omitempty"`
		Description   string          `json:"description"`
		PaymentMethod string          `json:"paymentMethod,omitempty"`
		Notes         string          `json:"notes,omitempty"`
		CreatedByID   int64           `json:"createdById"`
		CreatedAt     time.Time       `json:"createdAt"`
		UpdatedAt     time.Time       `json:"updatedAt"`
	}

	AuditEntry struct {
		ID        int64     `json:"id"`
		UserID    int64     `json:"userId"`
		Username  string    `json:"username,omitempty"`
		Action    string    `json:"action"`
		Entity    string    `json:"entity"`
		EntityID  int64     `json:"entityId"`
		Details   string    `json:"details,omitempty"`
		Timestamp time.Time `json:"timestamp"`
	}

	Session struct {
		Token        string    `json:"token"`
		UserID       int64     `json:"-"`
		User         *User     `json:"user,omitempty"`
		ExpiresAt    time.Time `json:"expiresAt"`
		CreatedAt    time.Time `json:"-"`
		LastActivity time.Time `json:"-"`
	}
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthorized       = errors.New("unauthorized access")
	ErrNotFound           = errors.New("not found")
	ErrValidation         = errors.New("validation failed")
	ErrOperationFailed    = errors.New("operation failed")

	ErrInvalidDate      = errors.New("invalid date")
	ErrInvalidType      = errors.New("invalid transaction type")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrEmptyDescription = errors.New("empty description")
	ErrEmptyCategory    = errors.New("category is required")
	ErrEmptyName        = errors.New("empty name")
	ErrInvalidColor     = errors.New("invalid color")
	ErrTypeMismatch     = errors.New("transaction type does not match category type")
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleSuperadmin, RoleAdmin, RoleViewer:
		return true
	}
	return false
}

func (t TransactionType) Valid() bool {
	return t == Income || t == Expense
}

// Sanitized returns a copy of u with the password hash stripped, for
// returning to callers.
func (u User) Sanitized() User {
	u.PasswordHash = ""
	return u
}

// ParseDate parses a YYYY-MM-DD string and rejects values that do not
// round-trip (e.g. 2025-02-31, which time.Parse would normalize).
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	d, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	if d.Format(DateLayout) != s {
		return time.Time{}, ErrInvalidDate
	}
	return d, nil
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if len(c.Name) > 100 {
		return errors.New("name too long (max 100 characters)")
	}
	if !c.Type.Valid() {
		return ErrInvalidType
	}
	if !validHexColor(c.Color) {
		return ErrInvalidColor
	}
	return nil
}

func (t Transaction) Validate() error {
	if t.Date.IsZero() {
		return ErrInvalidDate
	}
	if !t.Type.Valid() {
		return ErrInvalidType
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if t.CategoryID <= 0 {
		return ErrEmptyCategory
	}
	if strings.TrimSpace(t.Description) == "" {
		return ErrEmptyDescription
	}
	if len(t.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	return nil
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// validHexColor accepts #RGB and #RRGGBB display colors.
func validHexColor(s string) bool {
	if len(s) != 4 && len(s) != 7 {
		return false
	}
	if s[0] != '#' {
		return false
	}
	for _, r := range s[1:] {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'f':
		case r >= 'A' && r <= 'F':
		default:
			return false
		}
	}
	return true
}
