package router

import (
	"context"
	"strings"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

func (rt *Router) backupDatabase(ctx context.Context, actor core.User, req BackupDatabaseRequest) Result {
	dest := strings.TrimSpace(req.DestPath)
	if dest == "" {
		return fail(core.ErrValidation, "Backup destination is required")
	}

	if err := rt.repo.BackupTo(ctx, dest); err != nil {
		rt.logger.ErrorContext(ctx, "Backup failed", log.FieldError, err)
		return fail(core.ErrOperationFailed, "Failed to back up database")
	}

	rt.record(ctx, actor, ActionBackupDatabase, EntityDatabase, 0, map[string]any{
		"dest": dest,
	})
	return okMessage("Backup completed", map[string]string{"path": dest})
}

// restoreDatabase overwrites the store file. The running process keeps
// its old handle, so the caller is told to restart.
func (rt *Router) restoreDatabase(ctx context.Context, actor core.User, req RestoreDatabaseRequest) Result {
	src := strings.TrimSpace(req.SourcePath)
	if src == "" {
		return fail(core.ErrValidation, "Restore source is required")
	}

	// Record before the overwrite so the entry lands in the outgoing
	// database rather than vanishing with it.
	rt.record(ctx, actor, ActionRestoreDatabase, EntityDatabase, 0, map[string]any{
		"source": src,
	})

	if err := rt.repo.RestoreFrom(ctx, src); err != nil {
		rt.logger.ErrorContext(ctx, "Restore failed", log.FieldError, err)
		return fail(core.ErrOperationFailed, "Failed to restore database")
	}

	rt.restartRequired.Store(true)

	return okMessage("Database restored. Restart the application to load the restored data.", nil)
}
