package service

import "errors"

// Clases de error que la capa HTTP traduce a códigos de estado.
var (
	ErrValidation     = errors.New("validation failed")
	ErrConflict       = errors.New("conflict")
	ErrNotFound       = errors.New("not found")
	ErrAuthentication = errors.New("authentication failed")
	ErrDependency     = errors.New("dependency unavailable")
)

// AccountError lleva un mensaje para el usuario y su clase.
type AccountError struct {
	Kind    error
	Message string
}

func (e *AccountError) Error() string {
	return e.Message
}

func (e *AccountError) Unwrap() error {
	return e.Kind
}

func newAccountError(kind error, message string) *AccountError {
	return &AccountError{Kind: kind, Message: message}
}

var (
	ErrInvalidEmail     = newAccountError(ErrValidation, "email is invalid")
	ErrUsernameLength   = newAccountError(ErrValidation, "username must be between 5 and 20 characters")
	ErrInvalidStatus    = newAccountError(ErrValidation, "status must be one of active, inactive, suspended")
	ErrPasswordTooLong  = newAccountError(ErrValidation, "password must be at most 72 bytes")
	ErrEmailTaken       = newAccountError(ErrConflict, "email is already registered, use another email or log in")
	ErrUsernameTaken    = newAccountError(ErrConflict, "username is already taken, choose another one")
	ErrAccountInactive  = newAccountError(ErrConflict, "account is locked or disabled, contact an administrator")
	ErrEmailNotVerified = newAccountError(ErrConflict, "email is not verified yet, check your inbox")
	ErrUserNotFound     = newAccountError(ErrNotFound, "user not found")
	ErrEmailNotFound    = newAccountError(ErrNotFound, "email does not exist")

	// Mismo error para identificador desconocido y contraseña incorrecta.
	ErrInvalidCredentials = newAccountError(ErrAuthentication, "invalid email/username or password")

	ErrInvalidVerificationToken = newAccountError(ErrValidation, "invalid verification token")
	ErrVerificationTokenExpired = newAccountError(ErrValidation, "verification token expired, request a new one")
	ErrAlreadyVerified          = newAccountError(ErrValidation, "email already verified")
	ErrInvalidResetToken        = newAccountError(ErrValidation, "invalid password reset token")
	ErrResetTokenExpired        = newAccountError(ErrValidation, "password reset token expired, request a new one")

	ErrEmailSendFailure = newAccountError(ErrDependency, "email could not be sent, try again later")
)
