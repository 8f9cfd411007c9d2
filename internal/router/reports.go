package router

import (
	"context"
	"fmt"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/report"
	"fintrack/internal/storage"
)

// loadAllTransactions fetches the actor's full history for the
// aggregation functions, which do their own windowing.
func (rt *Router) loadAllTransactions(ctx context.Context, actor core.User) ([]core.Transaction, error) {
	return rt.repo.ListTransactions(ctx, storage.TransactionFilter{OwnerID: actor.ID})
}

func (rt *Router) getDashboard(ctx context.Context, actor core.User) Result {
	key := reportKeyPrefix(actor.ID) + "dashboard"
	if cached, hit := rt.reports.Get(key); hit {
		return ok(cached)
	}

	txs, err := rt.loadAllTransactions(ctx, actor)
	if err != nil {
		rt.logger.ErrorContext(ctx, "Dashboard load failed", log.FieldError, err)
		return fail(core.ErrOperationFailed, "Failed to load dashboard")
	}

	stats := report.CalculateDashboardStats(txs, rt.now())
	rt.reports.Set(key, stats)
	return ok(stats)
}

func (rt *Router) getChartData(ctx context.Context, actor core.User, req GetChartDataRequest) Result {
	if !req.Period.Valid() {
		return fail(core.ErrValidation, "Period must be week, month or year")
	}

	key := reportKeyPrefix(actor.ID) + "chart:" + string(req.Period)
	if cached, hit := rt.reports.Get(key); hit {
		return ok(cached)
	}

	txs, err := rt.loadAllTransactions(ctx, actor)
	if err != nil {
		rt.logger.ErrorContext(ctx, "Chart load failed", log.FieldError, err, log.FieldPeriod, string(req.Period))
		return fail(core.ErrOperationFailed, "Failed to load chart data")
	}

	data := report.Aggregate(txs, req.Period, rt.now())
	rt.reports.Set(key, data)
	return ok(data)
}

func (rt *Router) getReportData(ctx context.Context, actor core.User, req GetReportDataRequest) Result {
	if req.Month < 1 || req.Month > 12 {
		return fail(core.ErrValidation, "Month must be between 1 and 12")
	}
	if req.Year < 1970 || req.Year > 9999 {
		return fail(core.ErrValidation, "Invalid year")
	}

	key := fmt.Sprintf("%smonthly:%04d-%02d", reportKeyPrefix(actor.ID), req.Year, req.Month)
	if cached, hit := rt.reports.Get(key); hit {
		return ok(cached)
	}

	txs, err := rt.loadAllTransactions(ctx, actor)
	if err != nil {
		rt.logger.ErrorContext(ctx, "Report load failed", log.FieldError, err,
			log.FieldYear, req.Year, log.FieldMonth, req.Month)
		return fail(core.ErrOperationFailed, "Failed to load report")
	}

	monthly := report.BuildMonthlyReport(txs, req.Year, req.Month)
	rt.reports.Set(key, monthly)
	return ok(monthly)
}
