package router

import (
	"context"
	"errors"
	"strings"

	"fintrack/internal/auth"
	"fintrack/internal/core"
	"fintrack/internal/log"
)

const minPasswordLength = 8

// authenticate checks credentials and returns the user with the hash
// stripped. Unknown users, inactive users, and bad passwords all fail
// the same way so the response does not leak which part was wrong.
func (rt *Router) authenticate(ctx context.Context, req AuthenticateRequest) Result {
	username := strings.TrimSpace(req.Username)
	if username == "" || req.Password == "" {
		return fail(core.ErrInvalidCredentials, "Invalid username or password")
	}

	user, err := rt.repo.GetUserByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, core.ErrNotFound) {
			rt.logger.ErrorContext(ctx, "User lookup failed", log.FieldError, err, log.FieldUsername, username)
		}
		return fail(core.ErrInvalidCredentials, "Invalid username or password")
	}
	if !user.IsActive {
		return fail(core.ErrInvalidCredentials, "Invalid username or password")
	}
	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		return fail(core.ErrInvalidCredentials, "Invalid username or password")
	}

	rt.record(ctx, user, ActionLogin, EntityUser, user.ID, nil)
	rt.logger.InfoContext(ctx, "User authenticated",
		log.FieldUsername, user.Username,
		log.FieldActorRole, string(user.Role))

	return ok(user.Sanitized())
}

// changePassword re-verifies the current password before accepting a
// new one and clears the forced-change flag on success.
func (rt *Router) changePassword(ctx context.Context, actor core.User, req ChangePasswordRequest) Result {
	stored, err := rt.repo.GetUserByID(ctx, actor.ID)
	if err != nil {
		return fail(core.ErrOperationFailed, "Failed to change password")
	}
	if !auth.CheckPassword(stored.PasswordHash, req.CurrentPassword) {
		return fail(core.ErrInvalidCredentials, "Current password is incorrect")
	}
	if len(req.NewPassword) < minPasswordLength {
		return fail(core.ErrValidation, "New password must be at least 8 characters")
	}

	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		rt.logger.ErrorContext(ctx, "Password hash failed", log.FieldError, err)
		return fail(core.ErrOperationFailed, "Failed to change password")
	}
	if err := rt.repo.ChangePassword(ctx, actor.ID, hash); err != nil {
		return fail(core.ErrOperationFailed, "Failed to change password")
	}

	rt.record(ctx, actor, ActionChangePassword, EntityUser, actor.ID, nil)
	return okMessage("Password changed successfully", nil)
}
