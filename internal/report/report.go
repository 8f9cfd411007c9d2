// Package report turns flat transaction lists into chart series and
// summaries. Everything here is pure; callers fetch, this computes.
package report

import (
	"sort"
	"time"

	"fintrack/internal/core"
)

type Period string

const (
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
	PeriodYear  Period = "year"
)

func (p Period) Valid() bool {
	return p == PeriodWeek || p == PeriodMonth || p == PeriodYear
}

// Bucket is one time slot of a chart series.
type Bucket struct {
	Label   string     `json:"label"`
	Income  core.Money `json:"incomeCents"`
	Expense core.Money `json:"expenseCents"`
}

// ChartData is the aggregate output, oldest bucket first.
type ChartData struct {
	Labels        []string `json:"labels"`
	IncomeSeries  []int64  `json:"incomeSeries"`
	ExpenseSeries []int64  `json:"expenseSeries"`
}

// CategoryBreakdown holds both-sign totals for one category.
type CategoryBreakdown struct {
	Name    string     `json:"name"`
	Color   string     `json:"color"`
	Income  core.Money `json:"incomeCents"`
	Expense core.Money `json:"expenseCents"`
}

// DashboardStats is the landing-page summary. The month figures use
// calendar-month boundaries, unlike the chart's rolling windows.
type DashboardStats struct {
	TotalBalance      int64 `json:"totalBalanceCents"`
	IncomeThisMonth   int64 `json:"incomeThisMonthCents"`
	ExpensesThisMonth int64 `json:"expensesThisMonthCents"`
	TransactionCount  int   `json:"transactionCount"`
}

// MonthlyReport is the per-month report: totals plus category detail.
type MonthlyReport struct {
	Year         int                 `json:"year"`
	Month        int                 `json:"month"`
	TotalIncome  int64               `json:"totalIncomeCents"`
	TotalExpense int64               `json:"totalExpenseCents"`
	Net          int64               `json:"netCents"`
	ByCategory   []CategoryBreakdown `json:"byCategory"`
	Transactions []core.Transaction  `json:"transactions"`
}

const (
	dayKeyLayout   = "2006-01-02"
	monthKeyLayout = "2006-01"
)

// Aggregate buckets transactions into a fixed window ending at now:
// the last 7 days for week, the last 30 days for month, the last 12
// calendar months for year. Empty buckets stay in the output as zeros
// and transactions outside the window are dropped.
func Aggregate(txs []core.Transaction, period Period, now time.Time) ChartData {
	buckets := make([]Bucket, 0, 30)
	index := make(map[string]int)

	add := func(label string) {
		index[label] = len(buckets)
		buckets = append(buckets, Bucket{Label: label})
	}

	switch period {
	case PeriodWeek:
		for i := 6; i >= 0; i-- {
			add(now.AddDate(0, 0, -i).Format(dayKeyLayout))
		}
	case PeriodMonth:
		for i := 29; i >= 0; i-- {
			add(now.AddDate(0, 0, -i).Format(dayKeyLayout))
		}
	case PeriodYear:
		first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		for i := 11; i >= 0; i-- {
			add(first.AddDate(0, -i, 0).Format(monthKeyLayout))
		}
	}

	for _, t := range txs {
		key := t.Date.Format(dayKeyLayout)
		if period == PeriodYear {
			key = t.Date.Format(monthKeyLayout)
		}
		i, ok := index[key]
		if !ok {
			continue
		}
		switch t.Type {
		case core.Income:
			buckets[i].Income.Cents += t.Amount.Cents
		case core.Expense:
			buckets[i].Expense.Cents += t.Amount.Cents
		}
	}

	out := ChartData{
		Labels:        make([]string, len(buckets)),
		IncomeSeries:  make([]int64, len(buckets)),
		ExpenseSeries: make([]int64, len(buckets)),
	}
	for i, b := range buckets {
		out.Labels[i] = b.Label
		out.IncomeSeries[i] = b.Income.Cents
		out.ExpenseSeries[i] = b.Expense.Cents
	}
	return out
}

// BreakdownByCategory groups transactions by category name and sums
// both signs per group. Output is sorted by name so results do not
// depend on input order.
func BreakdownByCategory(txs []core.Transaction) []CategoryBreakdown {
	groups := make(map[string]*CategoryBreakdown)
	for _, t := range txs {
		name, color := "Uncategorized", "#9ca3af"
		if t.Category != nil {
			name, color = t.Category.Name, t.Category.Color
		}
		g, ok := groups[name]
		if !ok {
			g = &CategoryBreakdown{Name: name, Color: color}
			groups[name] = g
		}
		switch t.Type {
		case core.Income:
			g.Income.Cents += t.Amount.Cents
		case core.Expense:
			g.Expense.Cents += t.Amount.Cents
		}
	}

	out := make([]CategoryBreakdown, 0, len(groups))
	for _, g := range groups {
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// CalculateDashboardStats sums all-time balance plus the figures for
// the calendar month containing now.
func CalculateDashboardStats(txs []core.Transaction, now time.Time) DashboardStats {
	var stats DashboardStats
	stats.TransactionCount = len(txs)

	for _, t := range txs {
		sameMonth := t.Date.Year() == now.Year() && t.Date.Month() == now.Month()
		switch t.Type {
		case core.Income:
			stats.TotalBalance += t.Amount.Cents
			if sameMonth {
				stats.IncomeThisMonth += t.Amount.Cents
			}
		case core.Expense:
			stats.TotalBalance -= t.Amount.Cents
			if sameMonth {
				stats.ExpensesThisMonth += t.Amount.Cents
			}
		}
	}
	return stats
}

// BuildMonthlyReport filters to one calendar month and produces totals
// with a per-category breakdown.
func BuildMonthlyReport(txs []core.Transaction, year, month int) MonthlyReport {
	r := MonthlyReport{Year: year, Month: month}

	var selected []core.Transaction
	for _, t := range txs {
		if t.Date.Year() != year || int(t.Date.Month()) != month {
			continue
		}
		selected = append(selected, t)
		switch t.Type {
		case core.Income:
			r.TotalIncome += t.Amount.Cents
		case core.Expense:
			r.TotalExpense += t.Amount.Cents
		}
	}

	r.Net = r.TotalIncome - r.TotalExpense
	r.ByCategory = BreakdownByCategory(selected)
	r.Transactions = selected
	return r
}
