package router

import (
	"context"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

const defaultAuditLimit = 500

func (rt *Router) getAuditLogs(ctx context.Context, req GetAuditLogsRequest) Result {
	limit := req.Limit
	if limit <= 0 || limit > defaultAuditLimit {
		limit = defaultAuditLimit
	}

	entries, err := rt.repo.ListAuditLogs(ctx, limit)
	if err != nil {
		rt.logger.ErrorContext(ctx, "List audit logs failed", log.FieldError, err)
		return fail(core.ErrOperationFailed, "Failed to load audit logs")
	}
	return ok(entries)
}
