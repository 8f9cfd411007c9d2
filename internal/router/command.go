package router

import (
	"time"

	"fintrack/internal/core"
	"fintrack/internal/report"
)

// Command names one operation the router can dispatch.
type Command string

const (
	CmdAuthenticate   Command = "authenticate"
	CmdChangePassword Command = "changePassword"

	CmdGetAllUsers Command = "getAllUsers"
	CmdCreateUser  Command = "createUser"
	CmdUpdateUser  Command = "updateUser"
	CmdDeleteUser  Command = "deleteUser"

	CmdGetCategories  Command = "getCategories"
	CmdCreateCategory Command = "createCategory"
	CmdUpdateCategory Command = "updateCategory"
	CmdDeleteCategory Command = "deleteCategory"

	CmdGetTransactions   Command = "getTransactions"
	CmdCreateTransaction Command = "createTransaction"
	CmdUpdateTransaction Command = "updateTransaction"
	CmdDeleteTransaction Command = "deleteTransaction"

	CmdGetAuditLogs Command = "getAuditLogs"

	CmdGetDashboard  Command = "getDashboard"
	CmdGetChartData  Command = "getChartData"
	CmdGetReportData Command = "getReportData"

	CmdBackupDatabase  Command = "backupDatabase"
	CmdRestoreDatabase Command = "restoreDatabase"
)

// policy is the single authorization table consulted before dispatch.
// A nil entry means any authenticated role; CmdAuthenticate is the one
// command reachable without a session.
var policy = map[Command][]core.Role{
	CmdAuthenticate:   nil,
	CmdChangePassword: nil,

	CmdGetAllUsers: {core.RoleSuperadmin},
	CmdCreateUser:  {core.RoleSuperadmin},
	CmdUpdateUser:  {core.RoleSuperadmin},
	CmdDeleteUser:  {core.RoleSuperadmin},

	CmdGetCategories:  nil,
	CmdCreateCategory: nil,
	CmdUpdateCategory: nil,
	CmdDeleteCategory: nil,

	CmdGetTransactions:   nil,
	CmdCreateTransaction: nil,
	CmdUpdateTransaction: nil,
	CmdDeleteTransaction: nil,

	CmdGetAuditLogs: {core.RoleSuperadmin},

	CmdGetDashboard:  nil,
	CmdGetChartData:  nil,
	CmdGetReportData: nil,

	CmdBackupDatabase:  {core.RoleSuperadmin, core.RoleAdmin},
	CmdRestoreDatabase: {core.RoleSuperadmin},
}

// authorized consults the policy table. Unknown commands are denied.
func authorized(cmd Command, role core.Role) bool {
	allowed, known := policy[cmd]
	if !known {
		return false
	}
	if allowed == nil {
		return true
	}
	for _, r := range allowed {
		if r == role {
			return true
		}
	}
	return false
}

// Request is one typed command envelope accepted by Dispatch.
type Request interface {
	Command() Command
}

type (
	AuthenticateRequest struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}

	ChangePasswordRequest struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}

	GetAllUsersRequest struct{}

	CreateUserRequest struct {
		Username string    `json:"username"`
		Role     core.Role `json:"role"`
	}

	UpdateUserRequest struct {
		UserID        int64      `json:"userId"`
		Role          *core.Role `json:"role,omitempty"`
		IsActive      *bool      `json:"isActive,omitempty"`
		ResetPassword bool       `json:"resetPassword,omitempty"`
	}

	DeleteUserRequest struct {
		UserID int64 `json:"userId"`
	}

	GetCategoriesRequest struct{}

	CreateCategoryRequest struct {
		Name  string               `json:"name"`
		Type  core.TransactionType `json:"type"`
		Color string               `json:"color"`
	}

	UpdateCategoryRequest struct {
		CategoryID int64                `json:"categoryId"`
		Name       string               `json:"name"`
		Type       core.TransactionType `json:"type"`
		Color      string               `json:"color"`
	}

	DeleteCategoryRequest struct {
		CategoryID int64 `json:"categoryId"`
	}

	GetTransactionsRequest struct {
		StartDate  *time.Time           `json:"-"`
		EndDate    *time.Time           `json:"-"`
		CategoryID int64                `json:"categoryId,omitempty"`
		Type       core.TransactionType `json:"type,omitempty"`
	}

	CreateTransactionRequest struct {
		Date          time.Time            `json:"-"`
		Type          core.TransactionType `json:"type"`
		Amount        core.Money           `json:"-"`
		CategoryID    int64                `json:"categoryId"`
		Description   string               `json:"description"`
		PaymentMethod string               `json:"paymentMethod,omitempty"`
		Notes         string               `json:"notes,omitempty"`
	}

	UpdateTransactionRequest struct {
		TransactionID int64 `json:"transactionId"`
		CreateTransactionRequest
	}

	DeleteTransactionRequest struct {
		TransactionID int64 `json:"transactionId"`
	}

	GetAuditLogsRequest struct {
		Limit int `json:"limit,omitempty"`
	}

	GetDashboardRequest struct{}

	GetChartDataRequest struct {
		Period report.Period `json:"period"`
	}

	GetReportDataRequest struct {
		Year  int `json:"year"`
		Month int `json:"month"`
	}

	BackupDatabaseRequest struct {
		DestPath string `json:"destPath"`
	}

	RestoreDatabaseRequest struct {
		SourcePath string `json:"sourcePath"`
	}
)

func (AuthenticateRequest) Command() Command      { return CmdAuthenticate }
func (ChangePasswordRequest) Command() Command    { return CmdChangePassword }
func (GetAllUsersRequest) Command() Command       { return CmdGetAllUsers }
func (CreateUserRequest) Command() Command        { return CmdCreateUser }
func (UpdateUserRequest) Command() Command        { return CmdUpdateUser }
func (DeleteUserRequest) Command() Command        { return CmdDeleteUser }
func (GetCategoriesRequest) Command() Command     { return CmdGetCategories }
func (CreateCategoryRequest) Command() Command    { return CmdCreateCategory }
func (UpdateCategoryRequest) Command() Command    { return CmdUpdateCategory }
func (DeleteCategoryRequest) Command() Command    { return CmdDeleteCategory }
func (GetTransactionsRequest) Command() Command   { return CmdGetTransactions }
func (CreateTransactionRequest) Command() Command { return CmdCreateTransaction }
func (UpdateTransactionRequest) Command() Command { return CmdUpdateTransaction }
func (DeleteTransactionRequest) Command() Command { return CmdDeleteTransaction }
func (GetAuditLogsRequest) Command() Command      { return CmdGetAuditLogs }
func (GetDashboardRequest) Command() Command      { return CmdGetDashboard }
func (GetChartDataRequest) Command() Command      { return CmdGetChartData }
func (GetReportDataRequest) Command() Command     { return CmdGetReportData }
func (BackupDatabaseRequest) Command() Command    { return CmdBackupDatabase }
func (RestoreDatabaseRequest) Command() Command   { return CmdRestoreDatabase }

// Result is the uniform command outcome: never an error value, always
// a success flag with an optional message and payload.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Payload any    `json:"payload,omitempty"`
	// Err carries the sentinel behind a failure so transports can map
	// it to a status code. Not serialized.
	Err error `json:"-"`
}

func ok(payload any) Result {
	return Result{Success: true, Payload: payload}
}

func okMessage(message string, payload any) Result {
	return Result{Success: true, Message: message, Payload: payload}
}

func fail(err error, message string) Result {
	return Result{Success: false, Message: message, Err: err}
}

// CreateUserPayload carries the one-time generated password back to
// the caller alongside the stored user.
type CreateUserPayload struct {
	User         core.User `json:"user"`
	TempPassword string    `json:"tempPassword"`
}

// ResetPasswordPayload is returned when updateUser asked for a reset.
type ResetPasswordPayload struct {
	User         core.User `json:"user"`
	TempPassword string    `json:"tempPassword"`
}

// TransactionView is a transaction shaped for callers: dates as
// YYYY-MM-DD strings and amounts as decimal strings.
type TransactionView struct {
	core.Transaction
	Date   string `json:"date"`
	Amount string `json:"amount"`
}

func newTransactionView(t core.Transaction) TransactionView {
	return TransactionView{
		Transaction: t,
		Date:        t.Date.Format(core.DateLayout),
		Amount:      t.Amount.String(),
	}
}

func newTransactionViews(txs []core.Transaction) []TransactionView {
	views := make([]TransactionView, len(txs))
	for i, t := range txs {
		views[i] = newTransactionView(t)
	}
	return views
}
