package router

import (
	"context"
	"errors"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/storage"
)

func (rt *Router) getCategories(ctx context.Context, actor core.User) Result {
	cats, err := rt.repo.ListCategories(ctx, actor.ID)
	if err != nil {
		rt.logger.ErrorContext(ctx, "List categories failed", log.FieldError, err)
		return fail(core.ErrOperationFailed, "Failed to load categories")
	}
	return ok(cats)
}

func (rt *Router) createCategory(ctx context.Context, actor core.User, req CreateCategoryRequest) Result {
	cat := core.Category{
		Name:        req.Name,
		Type:        req.Type,
		Color:       req.Color,
		CreatedByID: actor.ID,
	}
	if err := cat.Validate(); err != nil {
		return fail(core.ErrValidation, err.Error())
	}

	created, err := rt.repo.CreateCategory(ctx, cat)
	if err != nil {
		rt.logger.ErrorContext(ctx, "Create category failed", log.FieldError, err)
		return fail(core.ErrOperationFailed, "Failed to create category")
	}

	rt.record(ctx, actor, ActionCreateCategory, EntityCategory, created.ID, map[string]any{
		"name": created.Name,
		"type": created.Type,
	})
	rt.invalidateReports(actor.ID)
	return ok(created)
}

func (rt *Router) updateCategory(ctx context.Context, actor core.User, req UpdateCategoryRequest) Result {
	existing, err := rt.repo.GetCategory(ctx, req.CategoryID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return fail(core.ErrNotFound, "Category not found")
		}
		return fail(core.ErrOperationFailed, "Failed to update category")
	}
	if existing.CreatedByID != actor.ID {
		return fail(core.ErrUnauthorized, "You do not have permission to perform this action")
	}

	existing.Name = req.Name
	existing.Type = req.Type
	existing.Color = req.Color
	if err := existing.Validate(); err != nil {
		return fail(core.ErrValidation, err.Error())
	}

	updated, err := rt.repo.UpdateCategory(ctx, existing)
	if err != nil {
		rt.logger.ErrorContext(ctx, "Update category failed", log.FieldError, err, log.FieldEntityID, req.CategoryID)
		return fail(core.ErrOperationFailed, "Failed to update category")
	}

	rt.record(ctx, actor, ActionUpdateCategory, EntityCategory, updated.ID, map[string]any{
		"name": updated.Name,
		"type": updated.Type,
	})
	rt.invalidateReports(actor.ID)
	return ok(updated)
}

// deleteCategory blocks while transactions still reference the
// category so history keeps its labels.
func (rt *Router) deleteCategory(ctx context.Context, actor core.User, req DeleteCategoryRequest) Result {
	existing, err := rt.repo.GetCategory(ctx, req.CategoryID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return fail(core.ErrNotFound, "Category not found")
		}
		return fail(core.ErrOperationFailed, "Failed to delete category")
	}
	if existing.CreatedByID != actor.ID {
		return fail(core.ErrUnauthorized, "You do not have permission to perform this action")
	}

	if err := rt.repo.DeleteCategory(ctx, req.CategoryID); err != nil {
		if errors.Is(err, storage.ErrCategoryInUse) {
			return fail(core.ErrValidation, "Cannot delete a category that has transactions")
		}
		rt.logger.ErrorContext(ctx, "Delete category failed", log.FieldError, err, log.FieldEntityID, req.CategoryID)
		return fail(core.ErrOperationFailed, "Failed to delete category")
	}

	rt.record(ctx, actor, ActionDeleteCategory, EntityCategory, req.CategoryID, map[string]any{
		"name": existing.Name,
	})
	rt.invalidateReports(actor.ID)
	return okMessage("Category deleted", nil)
}
