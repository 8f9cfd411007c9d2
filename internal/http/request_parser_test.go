package http

import (
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"fintrack/internal/core"
)

func TestSanitizeInput(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"trims whitespace", "  hello  ", "hello"},
		{"strips control characters", "a\x00b\x07c", "abc"},
		{"keeps tabs and newlines", "a\tb\nc", "a\tb\nc"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sanitizeInput(tt.input); got != tt.want {
				t.Errorf("sanitizeInput(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    int64
		wantErr bool
	}{
		{"json number", `42.5`, 4250, false},
		{"quoted decimal", `"42.50"`, 4250, false},
		{"comma separator", `"42,50"`, 4250, false},
		{"integer", `100`, 10000, false},
		{"zero", `0`, 0, true},
		{"negative", `-5`, 0, true},
		{"not a number", `"abc"`, 0, true},
		{"null", `null`, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseAmount(json.RawMessage(tt.raw))
			if tt.wantErr {
				if err == nil {
					t.Errorf("parseAmount(%s) expected error, got %d", tt.raw, got.Cents)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseAmount(%s) error = %v", tt.raw, err)
			}
			if got.Cents != tt.want {
				t.Errorf("parseAmount(%s) = %d, want %d", tt.raw, got.Cents, tt.want)
			}
		})
	}
}

func TestTransactionPayloadToRequest(t *testing.T) {
	valid := transactionPayload{
		Date:        "2025-01-15",
		Type:        "expense",
		Amount:      json.RawMessage(`"42.50"`),
		CategoryID:  3,
		Description: " Weekly shop ",
	}

	req, err := valid.toRequest()
	if err != nil {
		t.Fatalf("toRequest() error = %v", err)
	}
	if req.Amount.Cents != 4250 || req.Description != "Weekly shop" {
		t.Errorf("got %+v, want cents 4250 and trimmed description", req)
	}
	if req.Date.Format(core.DateLayout) != "2025-01-15" {
		t.Errorf("Date = %v", req.Date)
	}

	tests := []struct {
		name   string
		mutate func(*transactionPayload)
		want   error
	}{
		{"impossible date", func(p *transactionPayload) { p.Date = "2025-02-31" }, core.ErrInvalidDate},
		{"wrong date format", func(p *transactionPayload) { p.Date = "15/01/2025" }, core.ErrInvalidDate},
		{"bad type", func(p *transactionPayload) { p.Type = "transfer" }, core.ErrInvalidType},
		{"bad amount", func(p *transactionPayload) { p.Amount = json.RawMessage(`"-1"`) }, core.ErrInvalidAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid
			tt.mutate(&p)
			if _, err := p.toRequest(); !errors.Is(err, tt.want) {
				t.Errorf("toRequest() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestParseTransactionFilters(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/transactions?startDate=2025-01-01&endDate=2025-01-31&categoryId=2&type=expense", nil)

	req, err := parseTransactionFilters(r)
	if err != nil {
		t.Fatalf("parseTransactionFilters() error = %v", err)
	}
	if req.StartDate == nil || req.StartDate.Format(core.DateLayout) != "2025-01-01" {
		t.Errorf("StartDate = %v", req.StartDate)
	}
	if req.EndDate == nil || req.CategoryID != 2 || req.Type != core.Expense {
		t.Errorf("got %+v", req)
	}

	bad := []string{
		"/api/transactions?startDate=not-a-date",
		"/api/transactions?categoryId=abc",
		"/api/transactions?type=transfer",
	}
	for _, target := range bad {
		if _, err := parseTransactionFilters(httptest.NewRequest("GET", target, nil)); err == nil {
			t.Errorf("parseTransactionFilters(%s) expected error", target)
		}
	}
}

func TestParseYearMonthDefaults(t *testing.T) {
	now := mustDate(t, "2025-03-15")

	r := httptest.NewRequest("GET", "/api/reports", nil)
	year, month := parseYearMonth(r, now)
	if year != 2025 || month != 3 {
		t.Errorf("defaults = %d-%d, want 2025-3", year, month)
	}

	r = httptest.NewRequest("GET", "/api/reports?year=2024&month=12", nil)
	year, month = parseYearMonth(r, now)
	if year != 2024 || month != 12 {
		t.Errorf("got %d-%d, want 2024-12", year, month)
	}
}

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	parsed, err := core.ParseDate(s)
	if err != nil {
		t.Fatalf("parse date %q: %v", s, err)
	}
	return parsed
}
