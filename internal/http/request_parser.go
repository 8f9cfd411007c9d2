package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/router"
)

const maxBodySize = 1 << 20

var errBadBody = errors.New("invalid request body")

func decodeJSON(r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(nil, r.Body, maxBodySize)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		return errBadBody
	}
	return nil
}

// sanitizeInput trims whitespace and strips control characters.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// parseAmount accepts both a JSON number and a quoted decimal string.
func parseAmount(raw json.RawMessage) (core.Money, error) {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return core.Money{}, core.ErrInvalidAmount
	}
	s = strings.Trim(s, `"`)
	cents, err := core.ParseDecimalToCents(s)
	if err != nil {
		return core.Money{}, err
	}
	return core.Money{Cents: cents}, nil
}

// transactionPayload is the wire shape of create/update transaction
// bodies. Date and amount stay raw until validated.
type transactionPayload struct {
	Date          string          `json:"date"`
	Type          string          `json:"type"`
	Amount        json.RawMessage `json:"amount"`
	CategoryID    int64           `json:"categoryId"`
	Description   string          `json:"description"`
	PaymentMethod string          `json:"paymentMethod"`
	Notes         string          `json:"notes"`
}

func (p transactionPayload) toRequest() (router.CreateTransactionRequest, error) {
	date, err := core.ParseDate(p.Date)
	if err != nil {
		return router.CreateTransactionRequest{}, err
	}

	typ := core.TransactionType(strings.ToLower(sanitizeInput(p.Type)))
	if !typ.Valid() {
		return router.CreateTransactionRequest{}, core.ErrInvalidType
	}

	amount, err := parseAmount(p.Amount)
	if err != nil {
		return router.CreateTransactionRequest{}, err
	}

	return router.CreateTransactionRequest{
		Date:          date,
		Type:          typ,
		Amount:        amount,
		CategoryID:    p.CategoryID,
		Description:   sanitizeInput(p.Description),
		PaymentMethod: sanitizeInput(p.PaymentMethod),
		Notes:         sanitizeInput(p.Notes),
	}, nil
}

type categoryPayload struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	Color string `json:"color"`
}

// parseTransactionFilters reads the optional getTransactions query
// parameters. Bad dates are an error rather than silently ignored.
func parseTransactionFilters(r *http.Request) (router.GetTransactionsRequest, error) {
	q := r.URL.Query()
	var req router.GetTransactionsRequest

	if v := strings.TrimSpace(q.Get("startDate")); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			return req, err
		}
		req.StartDate = &d
	}
	if v := strings.TrimSpace(q.Get("endDate")); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			return req, err
		}
		req.EndDate = &d
	}
	if v := strings.TrimSpace(q.Get("categoryId")); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			return req, core.ErrValidation
		}
		req.CategoryID = id
	}
	if v := strings.TrimSpace(q.Get("type")); v != "" {
		typ := core.TransactionType(strings.ToLower(v))
		if !typ.Valid() {
			return req, core.ErrInvalidType
		}
		req.Type = typ
	}
	return req, nil
}

// parseYearMonth reads report query parameters, defaulting to the
// current calendar month.
func parseYearMonth(r *http.Request, now time.Time) (year, month int) {
	year = now.Year()
	month = int(now.Month())

	q := r.URL.Query()
	if v := strings.TrimSpace(q.Get("year")); v != "" {
		if y, err := strconv.Atoi(v); err == nil {
			year = y
		}
	}
	if v := strings.TrimSpace(q.Get("month")); v != "" {
		if m, err := strconv.Atoi(v); err == nil {
			month = m
		}
	}
	return year, month
}

func pathID(r *http.Request, param string) (int64, error) {
	id, err := strconv.ParseInt(urlParam(r, param), 10, 64)
	if err != nil || id <= 0 {
		return 0, core.ErrValidation
	}
	return id, nil
}
