package router

import (
	"context"
	"errors"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/storage"
)

func (rt *Router) getTransactions(ctx context.Context, actor core.User, req GetTransactionsRequest) Result {
	txs, err := rt.repo.ListTransactions(ctx, storage.TransactionFilter{
		OwnerID:    actor.ID,
		StartDate:  req.StartDate,
		EndDate:    req.EndDate,
		CategoryID: req.CategoryID,
		Type:       req.Type,
	})
	if err != nil {
		rt.logger.ErrorContext(ctx, "List transactions failed", log.FieldError, err)
		return fail(core.ErrOperationFailed, "Failed to load transactions")
	}
	return ok(newTransactionViews(txs))
}

// resolveCategory loads a category, checks ownership, and enforces the
// type match between a transaction and its category.
func (rt *Router) resolveCategory(ctx context.Context, actor core.User, categoryID int64, txType core.TransactionType) (core.Category, Result, bool) {
	cat, err := rt.repo.GetCategory(ctx, categoryID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return core.Category{}, fail(core.ErrValidation, "Category not found"), false
		}
		return core.Category{}, fail(core.ErrOperationFailed, "Failed to load category"), false
	}
	if cat.CreatedByID != actor.ID {
		return core.Category{}, fail(core.ErrUnauthorized, "You do not have permission to perform this action"), false
	}
	if cat.Type != txType {
		return core.Category{}, fail(core.ErrTypeMismatch, "Transaction type does not match category type"), false
	}
	return cat, Result{}, true
}

func (rt *Router) createTransaction(ctx context.Context, actor core.User, req CreateTransactionRequest) Result {
	tx := core.Transaction{
		Date:          req.Date,
		Type:          req.Type,
		Amount:        req.Amount,
		CategoryID:    req.CategoryID,
		Description:   req.Description,
		PaymentMethod: req.PaymentMethod,
		Notes:         req.Notes,
		CreatedByID:   actor.ID,
	}
	if err := tx.Validate(); err != nil {
		return fail(core.ErrValidation, err.Error())
	}
	if _, res, valid := rt.resolveCategory(ctx, actor, req.CategoryID, req.Type); !valid {
		return res
	}

	created, err := rt.repo.CreateTransaction(ctx, tx)
	if err != nil {
		rt.logger.ErrorContext(ctx, "Create transaction failed", log.FieldError, err)
		return fail(core.ErrOperationFailed, "Failed to create transaction")
	}

	rt.record(ctx, actor, ActionCreateTransaction, EntityTransaction, created.ID, map[string]any{
		"type":     created.Type,
		"amount":   created.Amount.String(),
		"category": created.Category.Name,
	})
	rt.invalidateReports(actor.ID)
	return ok(newTransactionView(created))
}

func (rt *Router) updateTransaction(ctx context.Context, actor core.User, req UpdateTransactionRequest) Result {
	existing, err := rt.repo.GetTransaction(ctx, req.TransactionID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return fail(core.ErrNotFound, "Transaction not found")
		}
		return fail(core.ErrOperationFailed, "Failed to update transaction")
	}
	if existing.CreatedByID != actor.ID {
		return fail(core.ErrUnauthorized, "You do not have permission to perform this action")
	}

	tx := core.Transaction{
		ID:            req.TransactionID,
		Date:          req.Date,
		Type:          req.Type,
		Amount:        req.Amount,
		CategoryID:    req.CategoryID,
		Description:   req.Description,
		PaymentMethod: req.PaymentMethod,
		Notes:         req.Notes,
		CreatedByID:   actor.ID,
	}
	if err := tx.Validate(); err != nil {
		return fail(core.ErrValidation, err.Error())
	}
	if _, res, valid := rt.resolveCategory(ctx, actor, req.CategoryID, req.Type); !valid {
		return res
	}

	updated, err := rt.repo.UpdateTransaction(ctx, tx)
	if err != nil {
		rt.logger.ErrorContext(ctx, "Update transaction failed", log.FieldError, err, log.FieldEntityID, req.TransactionID)
		return fail(core.ErrOperationFailed, "Failed to update transaction")
	}

	rt.record(ctx, actor, ActionUpdateTransaction, EntityTransaction, updated.ID, map[string]any{
		"type":   updated.Type,
		"amount": updated.Amount.String(),
	})
	rt.invalidateReports(actor.ID)
	return ok(newTransactionView(updated))
}

func (rt *Router) deleteTransaction(ctx context.Context, actor core.User, req DeleteTransactionRequest) Result {
	existing, err := rt.repo.GetTransaction(ctx, req.TransactionID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return fail(core.ErrNotFound, "Transaction not found")
		}
		return fail(core.ErrOperationFailed, "Failed to delete transaction")
	}
	if existing.CreatedByID != actor.ID {
		return fail(core.ErrUnauthorized, "You do not have permission to perform this action")
	}

	if err := rt.repo.DeleteTransaction(ctx, req.TransactionID); err != nil {
		rt.logger.ErrorContext(ctx, "Delete transaction failed", log.FieldError, err, log.FieldEntityID, req.TransactionID)
		return fail(core.ErrOperationFailed, "Failed to delete transaction")
	}

	rt.record(ctx, actor, ActionDeleteTransaction, EntityTransaction, req.TransactionID, map[string]any{
		"amount": existing.Amount.String(),
	})
	rt.invalidateReports(actor.ID)
	return okMessage("Transaction deleted", nil)
}
