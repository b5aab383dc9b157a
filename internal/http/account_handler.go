package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"taskboard/internal/domain"
	"taskboard/internal/service"
	"taskboard/internal/validate"
)

// AccountHandler expone el flujo de cuentas sobre HTTP.
type AccountHandler struct {
	logger   *zap.Logger
	accounts *service.AccountService
}

func NewAccountHandler(logger *zap.Logger, accounts *service.AccountService) *AccountHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AccountHandler{
		logger:   logger,
		accounts: accounts,
	}
}

type registerRequest struct {
	Email     string `json:"email"`
	Username  string `json:"username"`
	Password  string `json:"password"`
	FullName  string `json:"fullName"`
	AvatarURL string `json:"avatarUrl"`
	Status    string `json:"status"`
}

// Register maneja POST /users/register y POST /users.
func (h *AccountHandler) Register(c *gin.Context) {
	var req registerRequest
	if !h.bind(c, &req, "register") {
		return
	}
	if invalid, found := validate.First(
		validate.Email(req.Email),
		validate.Username(req.Username),
		validate.Password(req.Password),
		validate.FullName(req.FullName),
		validate.AvatarURL(req.AvatarURL),
		validate.Status(req.Status),
	); found {
		writeError(c, http.StatusBadRequest, invalid.Error)
		return
	}

	user, err := h.accounts.Register(c.Request.Context(), service.RegisterInput{
		Email:     req.Email,
		Username:  req.Username,
		Password:  req.Password,
		FullName:  req.FullName,
		AvatarURL: req.AvatarURL,
		Status:    domain.UserStatus(req.Status),
	})
	if err != nil {
		respondError(c, h.logger, "register", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"statusCode": http.StatusCreated,
		"message":    "registration successful, check your email to verify your account",
		"user":       user,
	})
}

// Login maneja POST /users/login.
func (h *AccountHandler) Login(c *gin.Context) {
	var req struct {
		EmailOrUsername string `json:"emailOrUsername"`
		Password        string `json:"password"`
	}
	if !h.bind(c, &req, "login") {
		return
	}
	if invalid, found := validate.First(validate.EmailOrUsername(req.EmailOrUsername)); found {
		writeError(c, http.StatusBadRequest, invalid.Error)
		return
	}
	if req.Password == "" {
		writeError(c, http.StatusBadRequest, "password is required")
		return
	}

	user, err := h.accounts.Login(c.Request.Context(), req.EmailOrUsername, req.Password)
	if err != nil {
		respondError(c, h.logger, "login", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"statusCode": http.StatusOK,
		"message":    "login successful",
		"user":       user,
	})
}

// VerifyEmail maneja POST /users/verify-email.
func (h *AccountHandler) VerifyEmail(c *gin.Context) {
	var req struct {
		Token string `json:"token"`
	}
	if !h.bind(c, &req, "verify email") {
		return
	}
	if invalid, found := validate.First(validate.Token(req.Token)); found {
		writeError(c, http.StatusBadRequest, invalid.Error)
		return
	}

	user, err := h.accounts.VerifyEmail(c.Request.Context(), req.Token)
	if err != nil {
		respondError(c, h.logger, "verify email", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"statusCode": http.StatusOK,
		"message":    "email verified, you can log in now",
		"user":       user,
	})
}

// ResendVerification maneja POST /users/resend-verification-email.
func (h *AccountHandler) ResendVerification(c *gin.Context) {
	var req struct {
		Email string `json:"email"`
	}
	if !h.bind(c, &req, "resend verification") {
		return
	}
	if invalid, found := validate.First(validate.Email(req.Email)); found {
		writeError(c, http.StatusBadRequest, invalid.Error)
		return
	}

	if err := h.accounts.ResendVerification(c.Request.Context(), req.Email); err != nil {
		respondError(c, h.logger, "resend verification", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"statusCode": http.StatusOK,
		"message":    "verification email sent again",
	})
}

// ForgotPassword maneja POST /users/forgot-password.
func (h *AccountHandler) ForgotPassword(c *gin.Context) {
	var req struct {
		Email string `json:"email"`
	}
	if !h.bind(c, &req, "forgot password") {
		return
	}
	if invalid, found := validate.First(validate.Email(req.Email)); found {
		writeError(c, http.StatusBadRequest, invalid.Error)
		return
	}

	if err := h.accounts.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		respondError(c, h.logger, "forgot password", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"statusCode": http.StatusOK,
		"message":    "if the email is registered, a password reset link has been sent",
	})
}

// ResetPassword maneja POST /users/reset-password.
func (h *AccountHandler) ResetPassword(c *gin.Context) {
	var req struct {
		Token    string `json:"token"`
		Password string `json:"password"`
	}
	if !h.bind(c, &req, "reset password") {
		return
	}
	if invalid, found := validate.First(validate.Token(req.Token), validate.Password(req.Password)); found {
		writeError(c, http.StatusBadRequest, invalid.Error)
		return
	}

	if err := h.accounts.ResetPassword(c.Request.Context(), req.Token, req.Password); err != nil {
		respondError(c, h.logger, "reset password", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"statusCode": http.StatusOK,
		"message":    "password updated, you can log in now",
	})
}

// ListUsers maneja GET /users.
func (h *AccountHandler) ListUsers(c *gin.Context) {
	users, err := h.accounts.List(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, "list users", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"statusCode": http.StatusOK,
		"users":      users,
	})
}

// GetUser maneja GET /users/:id.
func (h *AccountHandler) GetUser(c *gin.Context) {
	id, ok := parseUserID(c)
	if !ok {
		return
	}
	user, err := h.accounts.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, "get user", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"statusCode": http.StatusOK,
		"user":       user,
	})
}

type updateUserRequest struct {
	Email     *string `json:"email"`
	Username  *string `json:"username"`
	Password  *string `json:"password"`
	FullName  *string `json:"fullName"`
	AvatarURL *string `json:"avatarUrl"`
	Status    *string `json:"status"`
}

func (r updateUserRequest) check() (validate.Result, bool) {
	var results []validate.Result
	if r.Email != nil {
		results = append(results, validate.Email(*r.Email))
	}
	if r.Username != nil {
		results = append(results, validate.Username(*r.Username))
	}
	if r.Password != nil {
		results = append(results, validate.Password(*r.Password))
	}
	if r.FullName != nil {
		results = append(results, validate.FullName(*r.FullName))
	}
	if r.AvatarURL != nil {
		results = append(results, validate.AvatarURL(*r.AvatarURL))
	}
	if r.Status != nil {
		if *r.Status == "" {
			results = append(results, validate.Result{Error: "status must not be empty"})
		} else {
			results = append(results, validate.Status(*r.Status))
		}
	}
	return validate.First(results...)
}

// UpdateUser maneja PUT /users/:id con un subconjunto de campos.
func (h *AccountHandler) UpdateUser(c *gin.Context) {
	id, ok := parseUserID(c)
	if !ok {
		return
	}
	var req updateUserRequest
	if !h.bind(c, &req, "update user") {
		return
	}
	if invalid, found := req.check(); found {
		writeError(c, http.StatusBadRequest, invalid.Error)
		return
	}

	input := service.UpdateUserInput{
		Email:     req.Email,
		Username:  req.Username,
		Password:  req.Password,
		FullName:  req.FullName,
		AvatarURL: req.AvatarURL,
	}
	if req.Status != nil {
		status := domain.UserStatus(*req.Status)
		input.Status = &status
	}

	user, err := h.accounts.Update(c.Request.Context(), id, input)
	if err != nil {
		respondError(c, h.logger, "update user", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"statusCode": http.StatusOK,
		"message":    "user updated",
		"user":       user,
	})
}

// DeleteUser maneja DELETE /users/:id.
func (h *AccountHandler) DeleteUser(c *gin.Context) {
	id, ok := parseUserID(c)
	if !ok {
		return
	}
	if err := h.accounts.Remove(c.Request.Context(), id); err != nil {
		respondError(c, h.logger, "delete user", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *AccountHandler) bind(c *gin.Context, req any, op string) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		h.logger.Warn("invalid "+op+" request", zap.Error(err))
		writeError(c, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func parseUserID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(c, http.StatusBadRequest, "id must be a positive integer")
		return 0, false
	}
	return id, true
}
