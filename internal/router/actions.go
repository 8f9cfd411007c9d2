package router

// Audit action names, one per mutating command.
const (
	ActionLogin          = "LOGIN"
	ActionChangePassword = "CHANGE_PASSWORD"

	ActionCreateUser = "CREATE_USER"
	ActionUpdateUser = "UPDATE_USER"
	ActionDeleteUser = "DELETE_USER"

	ActionCreateCategory = "CREATE_CATEGORY"
	ActionUpdateCategory = "UPDATE_CATEGORY"
	ActionDeleteCategory = "DELETE_CATEGORY"

	ActionCreateTransaction = "CREATE_TRANSACTION"
	ActionUpdateTransaction = "UPDATE_TRANSACTION"
	ActionDeleteTransaction = "DELETE_TRANSACTION"

	ActionBackupDatabase  = "BACKUP_DATABASE"
	ActionRestoreDatabase = "RESTORE_DATABASE"
)

// Audited entity names.
const (
	EntityUser        = "user"
	EntityCategory    = "category"
	EntityTransaction = "transaction"
	EntityDatabase    = "database"
)
