package http

import (
	"errors"
	"net/http"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/report"
	"fintrack/internal/router"
)

// dispatch runs one command for the request's actor and writes the
// envelope.
func (s *Server) dispatch(w http.ResponseWriter, r *http.Request, req router.Request) {
	actor, ok := actorFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	writeResult(w, s.router.Dispatch(r.Context(), actor, req))
}

// loginResponse pairs the sanitized user with its session token.
type loginResponse struct {
	User      core.User `json:"user"`
	Token     string    `json:"token"`
	ExpiresAt string    `json:"expiresAt"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	res := s.router.Dispatch(r.Context(), nil, router.AuthenticateRequest{
		Username: sanitizeInput(body.Username),
		Password: body.Password,
	})
	if !res.Success {
		writeResult(w, res)
		return
	}

	user := res.Payload.(core.User)
	sess, err := s.sessions.Create(r.Context(), user)
	if err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Session create failed", log.FieldError, err)
		writeError(w, http.StatusInternalServerError, "Login failed")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    sess.Token,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	writeJSON(w, http.StatusOK, envelope{Success: true, Payload: loginResponse{
		User:      user,
		Token:     sess.Token,
		ExpiresAt: sess.ExpiresAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if sess, ok := sessionFromContext(r.Context()); ok {
		if err := s.sessions.Destroy(r.Context(), sess.Token); err != nil {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Session destroy failed", log.FieldError, err)
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, envelope{Success: true, Message: "Logged out"})
}

// handleSession returns the current user, letting clients restore an
// authenticated state across restarts.
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	sess, _ := sessionFromContext(r.Context())
	writeJSON(w, http.StatusOK, envelope{Success: true, Payload: sess})
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	var body struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	s.dispatch(w, r, router.ChangePasswordRequest{
		CurrentPassword: body.CurrentPassword,
		NewPassword:     body.NewPassword,
	})
}

func (s *Server) handleGetUsers(w http.ResponseWriter, r *http.Request) {
	s.dispatch(w, r, router.GetAllUsersRequest{})
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Username string `json:"username"`
		Role     string `json:"role"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	s.dispatch(w, r, router.CreateUserRequest{
		Username: sanitizeInput(body.Username),
		Role:     core.Role(sanitizeInput(body.Role)),
	})
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "Invalid user id")
		return
	}

	var body struct {
		Role          *string `json:"role"`
		IsActive      *bool   `json:"isActive"`
		ResetPassword bool    `json:"resetPassword"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req := router.UpdateUserRequest{
		UserID:        id,
		IsActive:      body.IsActive,
		ResetPassword: body.ResetPassword,
	}
	if body.Role != nil {
		role := core.Role(sanitizeInput(*body.Role))
		req.Role = &role
	}
	s.dispatch(w, r, req)
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "Invalid user id")
		return
	}
	s.dispatch(w, r, router.DeleteUserRequest{UserID: id})
}

func (s *Server) handleGetCategories(w http.ResponseWriter, r *http.Request) {
	s.dispatch(w, r, router.GetCategoriesRequest{})
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var body categoryPayload
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	s.dispatch(w, r, router.CreateCategoryRequest{
		Name:  sanitizeInput(body.Name),
		Type:  core.TransactionType(sanitizeInput(body.Type)),
		Color: sanitizeInput(body.Color),
	})
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "Invalid category id")
		return
	}

	var body categoryPayload
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	s.dispatch(w, r, router.UpdateCategoryRequest{
		CategoryID: id,
		Name:       sanitizeInput(body.Name),
		Type:       core.TransactionType(sanitizeInput(body.Type)),
		Color:      sanitizeInput(body.Color),
	})
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "Invalid category id")
		return
	}
	s.dispatch(w, r, router.DeleteCategoryRequest{CategoryID: id})
}

func (s *Server) handleGetTransactions(w http.ResponseWriter, r *http.Request) {
	req, err := parseTransactionFilters(r)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, validationMessage(err))
		return
	}
	s.dispatch(w, r, req)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var body transactionPayload
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req, err := body.toRequest()
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, validationMessage(err))
		return
	}
	s.dispatch(w, r, req)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "Invalid transaction id")
		return
	}

	var body transactionPayload
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req, err := body.toRequest()
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, validationMessage(err))
		return
	}
	s.dispatch(w, r, router.UpdateTransactionRequest{
		TransactionID:            id,
		CreateTransactionRequest: req,
	})
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "Invalid transaction id")
		return
	}
	s.dispatch(w, r, router.DeleteTransactionRequest{TransactionID: id})
}

func (s *Server) handleGetAuditLogs(w http.ResponseWriter, r *http.Request) {
	s.dispatch(w, r, router.GetAuditLogsRequest{})
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	s.dispatch(w, r, router.GetDashboardRequest{})
}

func (s *Server) handleChartData(w http.ResponseWriter, r *http.Request) {
	period := report.Period(r.URL.Query().Get("period"))
	if period == "" {
		period = report.PeriodMonth
	}
	s.dispatch(w, r, router.GetChartDataRequest{Period: period})
}

func (s *Server) handleReportData(w http.ResponseWriter, r *http.Request) {
	year, month := parseYearMonth(r, s.now())
	s.dispatch(w, r, router.GetReportDataRequest{Year: year, Month: month})
}

const themeSettingKey = "theme"

func (s *Server) handleGetTheme(w http.ResponseWriter, r *http.Request) {
	theme, err := s.settings.GetSetting(r.Context(), themeSettingKey)
	if errors.Is(err, core.ErrNotFound) {
		theme = "light"
	} else if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load settings")
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Payload: map[string]string{"theme": theme}})
}

func (s *Server) handleSetTheme(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Theme string `json:"theme"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	theme := sanitizeInput(body.Theme)
	if theme != "light" && theme != "dark" {
		writeError(w, http.StatusUnprocessableEntity, "Theme must be light or dark")
		return
	}
	if err := s.settings.SetSetting(r.Context(), themeSettingKey, theme); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save settings")
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Payload: map[string]string{"theme": theme}})
}

func (s *Server) handleBackup(w http.ResponseWriter, r *http.Request) {
	var body struct {
		DestPath string `json:"destPath"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	s.dispatch(w, r, router.BackupDatabaseRequest{DestPath: body.DestPath})
}

func (s *Server) handleRestore(w http.ResponseWriter, r *http.Request) {
	var body struct {
		SourcePath string `json:"sourcePath"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	s.dispatch(w, r, router.RestoreDatabaseRequest{SourcePath: body.SourcePath})
}

// validationMessage turns a parse sentinel into a user-facing message.
func validationMessage(err error) string {
	switch {
	case errors.Is(err, core.ErrInvalidDate):
		return "Date must be a valid YYYY-MM-DD calendar date"
	case errors.Is(err, core.ErrInvalidAmount):
		return "Amount must be a positive number"
	case errors.Is(err, core.ErrInvalidType):
		return "Type must be income or expense"
	default:
		return "Invalid request"
	}
}
