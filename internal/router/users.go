package router

import (
	"context"
	"errors"
	"strings"

	"fintrack/internal/auth"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/storage"
)

func (rt *Router) getAllUsers(ctx context.Context) Result {
	users, err := rt.repo.ListUsers(ctx)
	if err != nil {
		rt.logger.ErrorContext(ctx, "List users failed", log.FieldError, err)
		return fail(core.ErrOperationFailed, "Failed to load users")
	}
	sanitized := make([]core.User, len(users))
	for i, u := range users {
		sanitized[i] = u.Sanitized()
	}
	return ok(sanitized)
}

// createUser provisions a new account with a generated one-time
// password that the caller must hand over out of band.
func (rt *Router) createUser(ctx context.Context, actor core.User, req CreateUserRequest) Result {
	username := strings.TrimSpace(req.Username)
	if username == "" {
		return fail(core.ErrValidation, "Username is required")
	}
	if !req.Role.Valid() {
		return fail(core.ErrValidation, "Invalid role")
	}

	if _, err := rt.repo.GetUserByUsername(ctx, username); err == nil {
		return fail(core.ErrValidation, "Username already exists")
	} else if !errors.Is(err, core.ErrNotFound) {
		return fail(core.ErrOperationFailed, "Failed to create user")
	}

	tempPassword, err := auth.GenerateTempPassword()
	if err != nil {
		rt.logger.ErrorContext(ctx, "Temp password generation failed", log.FieldError, err)
		return fail(core.ErrOperationFailed, "Failed to create user")
	}
	hash, err := auth.HashPassword(tempPassword)
	if err != nil {
		return fail(core.ErrOperationFailed, "Failed to create user")
	}

	user, err := rt.repo.CreateUser(ctx, username, hash, req.Role, &actor.ID)
	if err != nil {
		rt.logger.ErrorContext(ctx, "Create user failed", log.FieldError, err, log.FieldUsername, username)
		return fail(core.ErrOperationFailed, "Failed to create user")
	}

	rt.record(ctx, actor, ActionCreateUser, EntityUser, user.ID, map[string]any{
		"username": user.Username,
		"role":     user.Role,
	})

	return ok(CreateUserPayload{User: user.Sanitized(), TempPassword: tempPassword})
}

func (rt *Router) updateUser(ctx context.Context, actor core.User, req UpdateUserRequest) Result {
	if req.Role != nil && !req.Role.Valid() {
		return fail(core.ErrValidation, "Invalid role")
	}

	upd := storage.UserUpdate{Role: req.Role, IsActive: req.IsActive}
	details := map[string]any{}
	if req.Role != nil {
		details["role"] = *req.Role
	}
	if req.IsActive != nil {
		details["isActive"] = *req.IsActive
	}

	var tempPassword string
	if req.ResetPassword {
		var err error
		tempPassword, err = auth.GenerateTempPassword()
		if err != nil {
			return fail(core.ErrOperationFailed, "Failed to update user")
		}
		hash, err := auth.HashPassword(tempPassword)
		if err != nil {
			return fail(core.ErrOperationFailed, "Failed to update user")
		}
		upd.PasswordHash = &hash
		details["passwordReset"] = true
	}

	user, err := rt.repo.UpdateUser(ctx, req.UserID, upd)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return fail(core.ErrNotFound, "User not found")
		}
		rt.logger.ErrorContext(ctx, "Update user failed", log.FieldError, err, log.FieldEntityID, req.UserID)
		return fail(core.ErrOperationFailed, "Failed to update user")
	}

	rt.record(ctx, actor, ActionUpdateUser, EntityUser, user.ID, details)

	if req.ResetPassword {
		return ok(ResetPasswordPayload{User: user.Sanitized(), TempPassword: tempPassword})
	}
	return ok(user.Sanitized())
}

func (rt *Router) deleteUser(ctx context.Context, actor core.User, req DeleteUserRequest) Result {
	if req.UserID == actor.ID {
		return fail(core.ErrValidation, "You cannot delete your own account")
	}

	user, err := rt.repo.GetUserByID(ctx, req.UserID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return fail(core.ErrNotFound, "User not found")
		}
		return fail(core.ErrOperationFailed, "Failed to delete user")
	}

	if err := rt.repo.DeleteUser(ctx, req.UserID); err != nil {
		rt.logger.ErrorContext(ctx, "Delete user failed", log.FieldError, err, log.FieldEntityID, req.UserID)
		return fail(core.ErrOperationFailed, "Failed to delete user")
	}

	rt.record(ctx, actor, ActionDeleteUser, EntityUser, req.UserID, map[string]any{
		"username": user.Username,
	})
	return okMessage("User deleted", nil)
}
