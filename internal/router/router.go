// Package router dispatches typed commands against the persistence
// layer. It owns the authorization policy, the audit trail, and the
// report cache; transports stay thin.
package router

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"sync/atomic"

	"fintrack/internal/amqp"
	"fintrack/internal/cache"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/storage"
)

// AuditPublisher forwards audit events to a broker. Nil disables
// publishing.
type AuditPublisher interface {
	PublishAuditEvent(ctx context.Context, msg *amqp.AuditEventMessage) error
}

type Router struct {
	repo      *storage.SQLiteRepository
	publisher AuditPublisher
	reports   *cache.LRUCache[any]
	logger    *log.Logger
	now       func() time.Time

	// restartRequired flips after a restore; the process must be
	// relaunched before serving fresh data.
	restartRequired atomic.Bool
}

func New(repo *storage.SQLiteRepository, publisher AuditPublisher, reportTTL time.Duration, logger *log.Logger) *Router {
	return &Router{
		repo:      repo,
		publisher: publisher,
		reports:   cache.NewLRUCache[any](256, reportTTL),
		logger:    logger.WithComponent(log.ComponentRouter),
		now:       time.Now,
	}
}

// Dispatch runs one command for an actor. Every outcome is a Result;
// errors surface as Success=false with a sentinel in Err. Actor is nil
// only for authenticate.
func (rt *Router) Dispatch(ctx context.Context, actor *core.User, req Request) Result {
	cmd := req.Command()

	if cmd != CmdAuthenticate {
		if actor == nil {
			return fail(core.ErrUnauthorized, "Authentication required")
		}
		if !authorized(cmd, actor.Role) {
			rt.logger.WarnContext(ctx, "Command denied",
				log.FieldCommand, string(cmd),
				log.FieldActor, actor.Username,
				log.FieldActorRole, string(actor.Role))
			return fail(core.ErrUnauthorized, "You do not have permission to perform this action")
		}
	}

	switch r := req.(type) {
	case AuthenticateRequest:
		return rt.authenticate(ctx, r)
	case ChangePasswordRequest:
		return rt.changePassword(ctx, *actor, r)
	case GetAllUsersRequest:
		return rt.getAllUsers(ctx)
	case CreateUserRequest:
		return rt.createUser(ctx, *actor, r)
	case UpdateUserRequest:
		return rt.updateUser(ctx, *actor, r)
	case DeleteUserRequest:
		return rt.deleteUser(ctx, *actor, r)
	case GetCategoriesRequest:
		return rt.getCategories(ctx, *actor)
	case CreateCategoryRequest:
		return rt.createCategory(ctx, *actor, r)
	case UpdateCategoryRequest:
		return rt.updateCategory(ctx, *actor, r)
	case DeleteCategoryRequest:
		return rt.deleteCategory(ctx, *actor, r)
	case GetTransactionsRequest:
		return rt.getTransactions(ctx, *actor, r)
	case CreateTransactionRequest:
		return rt.createTransaction(ctx, *actor, r)
	case UpdateTransactionRequest:
		return rt.updateTransaction(ctx, *actor, r)
	case DeleteTransactionRequest:
		return rt.deleteTransaction(ctx, *actor, r)
	case GetAuditLogsRequest:
		return rt.getAuditLogs(ctx, r)
	case GetDashboardRequest:
		return rt.getDashboard(ctx, *actor)
	case GetChartDataRequest:
		return rt.getChartData(ctx, *actor, r)
	case GetReportDataRequest:
		return rt.getReportData(ctx, *actor, r)
	case BackupDatabaseRequest:
		return rt.backupDatabase(ctx, *actor, r)
	case RestoreDatabaseRequest:
		return rt.restoreDatabase(ctx, *actor, r)
	default:
		return fail(core.ErrOperationFailed, fmt.Sprintf("Unknown command %q", cmd))
	}
}

// RestartRequired reports whether a restore happened this process
// lifetime.
func (rt *Router) RestartRequired() bool {
	return rt.restartRequired.Load()
}

// ReportCacheCleanupLoop evicts stale cached reports until ctx ends.
func (rt *Router) ReportCacheCleanupLoop(ctx context.Context, interval time.Duration) {
	rt.reports.CleanupLoop(ctx, interval)
}

// record appends an audit row and mirrors it to the broker. Both are
// best effort: a failed audit write never rolls back the mutation that
// triggered it.
func (rt *Router) record(ctx context.Context, actor core.User, action, entity string, entityID int64, details any) {
	var detailsJSON string
	if details != nil {
		if b, err := json.Marshal(details); err == nil {
			detailsJSON = string(b)
		}
	}

	entry := core.AuditEntry{
		UserID:    actor.ID,
		Username:  actor.Username,
		Action:    action,
		Entity:    entity,
		EntityID:  entityID,
		Details:   detailsJSON,
		Timestamp: rt.now(),
	}

	if err := rt.repo.AppendAudit(ctx, entry); err != nil {
		rt.logger.ErrorContext(ctx, "Audit write failed",
			log.FieldError, err,
			log.FieldAction, action,
			log.FieldEntity, entity,
			log.FieldEntityID, entityID)
	}

	if rt.publisher != nil {
		if err := rt.publisher.PublishAuditEvent(ctx, amqp.NewAuditEventMessage(entry)); err != nil {
			rt.logger.WarnContext(ctx, "Audit event publish failed",
				log.FieldError, err,
				log.FieldAction, action)
		}
	}
}

// invalidateReports flushes one user's cached report payloads after a
// mutation touching their transactions or categories.
func (rt *Router) invalidateReports(userID int64) {
	rt.reports.InvalidatePrefix(reportKeyPrefix(userID))
}

func reportKeyPrefix(userID int64) string {
	return fmt.Sprintf("report:%d:", userID)
}
