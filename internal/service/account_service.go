package service

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"taskboard/internal/credential"
	"taskboard/internal/domain"
	"taskboard/internal/email"
	"taskboard/internal/metrics"
	"taskboard/internal/repository"
)

const (
	registerUsernameMin = 5
	registerUsernameMax = 20

	DefaultVerificationTokenTTL  = time.Minute
	DefaultPasswordResetTokenTTL = time.Hour
)

// AccountPolicy agrupa las decisiones configurables del flujo de cuentas.
type AccountPolicy struct {
	VerificationTokenTTL  time.Duration
	PasswordResetTokenTTL time.Duration
	// RequireVerifiedEmail en false permite el login de cuentas sin verificar.
	RequireVerifiedEmail bool
	IdentifierPreference repository.IdentifierPreference
}

func (p AccountPolicy) withDefaults() AccountPolicy {
	if p.VerificationTokenTTL <= 0 {
		p.VerificationTokenTTL = DefaultVerificationTokenTTL
	}
	if p.PasswordResetTokenTTL <= 0 {
		p.PasswordResetTokenTTL = DefaultPasswordResetTokenTTL
	}
	if p.IdentifierPreference == "" {
		p.IdentifierPreference = repository.PreferEmail
	}
	return p
}

// AccountService coordina registro, login y verificación de email.
type AccountService struct {
	logger *zap.Logger
	users  repository.UserRepository
	hasher credential.Hasher
	tokens credential.TokenGenerator
	mailer email.Sender
	policy AccountPolicy
	now    func() time.Time
}

func NewAccountService(
	logger *zap.Logger,
	users repository.UserRepository,
	hasher credential.Hasher,
	tokens credential.TokenGenerator,
	mailer email.Sender,
	policy AccountPolicy,
) *AccountService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if hasher == nil {
		hasher = credential.NewBcryptHasher(credential.DefaultCost)
	}
	if tokens == nil {
		tokens = credential.NewRandomTokenGenerator()
	}
	if mailer == nil {
		mailer = email.NewDisabledSender("")
	}
	return &AccountService{
		logger: logger,
		users:  users,
		hasher: hasher,
		tokens: tokens,
		mailer: mailer,
		policy: policy.withDefaults(),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

type RegisterInput struct {
	Email     string
	Username  string
	Password  string
	FullName  string
	AvatarURL string
	Status    domain.UserStatus
}

// Register crea una cuenta sin verificar y envía el token de verificación.
// Un fallo de envío no revierte la cuenta.
func (s *AccountService) Register(ctx context.Context, input RegisterInput) (domain.User, error) {
	user, err := s.register(ctx, input)
	if err != nil {
		metrics.RegistrationsTotal.WithLabelValues(resultLabel(err)).Inc()
		return domain.User{}, err
	}
	metrics.RegistrationsTotal.WithLabelValues("success").Inc()
	return user, nil
}

func (s *AccountService) register(ctx context.Context, input RegisterInput) (domain.User, error) {
	emailAddr := strings.TrimSpace(input.Email)
	username := strings.TrimSpace(input.Username)
	if !strings.Contains(emailAddr, "@") {
		return domain.User{}, ErrInvalidEmail
	}
	if n := utf8.RuneCountInString(username); n < registerUsernameMin || n > registerUsernameMax {
		return domain.User{}, ErrUsernameLength
	}
	status := input.Status
	if status == "" {
		status = domain.UserStatusActive
	}
	if !status.Valid() {
		return domain.User{}, ErrInvalidStatus
	}

	if err := s.ensureEmailFree(ctx, emailAddr, 0); err != nil {
		return domain.User{}, err
	}
	if err := s.ensureUsernameFree(ctx, username, 0); err != nil {
		return domain.User{}, err
	}

	passwordHash, err := s.hashPassword(input.Password)
	if err != nil {
		return domain.User{}, err
	}
	token, err := s.tokens.Generate()
	if err != nil {
		return domain.User{}, err
	}
	expiresAt := s.now().Add(s.policy.VerificationTokenTTL)

	created, err := s.users.Create(ctx, domain.User{
		Email:                      emailAddr,
		Username:                   username,
		PasswordHash:               passwordHash,
		FullName:                   strings.TrimSpace(input.FullName),
		AvatarURL:                  strings.TrimSpace(input.AvatarURL),
		Status:                     status,
		EmailVerified:              false,
		VerificationTokenHash:      credential.Digest(token),
		VerificationTokenExpiresAt: &expiresAt,
	})
	if err != nil {
		return domain.User{}, translateRepoError(err)
	}

	sendErr := s.mailer.SendVerification(ctx, created.Email, created.FullName, token, expiresAt)
	observeMail(email.KindVerification, sendErr)
	if sendErr != nil {
		s.logger.Warn("send verification email failed, account kept unverified",
			zap.Int64("user_id", created.ID),
			zap.Error(sendErr),
		)
	}

	s.logger.Info("user registered", zap.Int64("user_id", created.ID), zap.String("username", created.Username))
	return sanitize(created), nil
}

// Login resuelve el identificador como email o username y valida la contraseña.
func (s *AccountService) Login(ctx context.Context, identifier, password string) (domain.User, error) {
	user, err := s.login(ctx, identifier, password)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues(resultLabel(err)).Inc()
		return domain.User{}, err
	}
	metrics.LoginsTotal.WithLabelValues("success").Inc()
	return user, nil
}

func (s *AccountService) login(ctx context.Context, identifier, password string) (domain.User, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return domain.User{}, ErrInvalidCredentials
	}

	user, err := s.users.GetByEmailOrUsername(ctx, identifier, s.policy.IdentifierPreference)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, ErrInvalidCredentials
		}
		return domain.User{}, err
	}
	if !s.hasher.Verify(password, user.PasswordHash) {
		return domain.User{}, ErrInvalidCredentials
	}
	if user.Status != domain.UserStatusActive {
		return domain.User{}, ErrAccountInactive
	}
	if s.policy.RequireVerifiedEmail && !user.EmailVerified {
		return domain.User{}, ErrEmailNotVerified
	}

	now := s.now()
	if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		return domain.User{}, err
	}
	user.LastLoginAt = &now
	return sanitize(user), nil
}

// VerifyEmail consume el token de verificación. Un token ya consumido
// responde "already verified".
func (s *AccountService) VerifyEmail(ctx context.Context, token string) (domain.User, error) {
	user, err := s.verifyEmail(ctx, token)
	metrics.EmailVerificationsTotal.WithLabelValues(verificationLabel(err)).Inc()
	return user, err
}

func (s *AccountService) verifyEmail(ctx context.Context, token string) (domain.User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return domain.User{}, ErrInvalidVerificationToken
	}
	digest := credential.Digest(token)

	user, err := s.users.GetByVerificationToken(ctx, digest)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, err
		}
		if _, err := s.users.GetByVerifiedToken(ctx, digest); err == nil {
			return domain.User{}, ErrAlreadyVerified
		} else if !errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, err
		}
		return domain.User{}, ErrInvalidVerificationToken
	}

	if !user.HasPendingVerification() || s.now().After(*user.VerificationTokenExpiresAt) {
		return domain.User{}, ErrVerificationTokenExpired
	}
	if user.EmailVerified {
		return domain.User{}, ErrAlreadyVerified
	}

	verified, err := s.users.MarkEmailVerified(ctx, user.ID, digest)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, ErrInvalidVerificationToken
		}
		return domain.User{}, err
	}

	sendErr := s.mailer.SendWelcome(ctx, verified.Email, verified.FullName)
	observeMail(email.KindWelcome, sendErr)
	if sendErr != nil {
		s.logger.Warn("send welcome email failed", zap.Int64("user_id", verified.ID), zap.Error(sendErr))
	}

	s.logger.Info("email verified", zap.Int64("user_id", verified.ID))
	return sanitize(verified), nil
}

// ResendVerification genera un token nuevo. Aquí el fallo de envío sí se propaga.
func (s *AccountService) ResendVerification(ctx context.Context, emailAddr string) error {
	emailAddr = strings.TrimSpace(emailAddr)
	user, err := s.users.GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrEmailNotFound
		}
		return err
	}
	if user.EmailVerified {
		return ErrAlreadyVerified
	}

	token, err := s.tokens.Generate()
	if err != nil {
		return err
	}
	expiresAt := s.now().Add(s.policy.VerificationTokenTTL)
	if err := s.users.SetVerificationToken(ctx, user.ID, credential.Digest(token), expiresAt); err != nil {
		return err
	}

	sendErr := s.mailer.SendVerification(ctx, user.Email, user.FullName, token, expiresAt)
	observeMail(email.KindVerification, sendErr)
	if sendErr != nil {
		s.logger.Error("resend verification email failed", zap.Int64("user_id", user.ID), zap.Error(sendErr))
		return ErrEmailSendFailure
	}
	return nil
}

// ForgotPassword envía un token de restablecimiento. Un email desconocido
// responde igual que uno existente.
func (s *AccountService) ForgotPassword(ctx context.Context, emailAddr string) error {
	emailAddr = strings.TrimSpace(emailAddr)
	user, err := s.users.GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.logger.Debug("password reset requested for unknown email")
			return nil
		}
		return err
	}

	token, err := s.tokens.Generate()
	if err != nil {
		return err
	}
	expiresAt := s.now().Add(s.policy.PasswordResetTokenTTL)
	if err := s.users.SetPasswordResetToken(ctx, user.ID, credential.Digest(token), expiresAt); err != nil {
		return err
	}

	sendErr := s.mailer.SendPasswordReset(ctx, user.Email, user.FullName, token, expiresAt)
	observeMail(email.KindPasswordReset, sendErr)
	if sendErr != nil {
		s.logger.Error("send password reset email failed", zap.Int64("user_id", user.ID), zap.Error(sendErr))
		return ErrEmailSendFailure
	}
	return nil
}

// ResetPassword aplica la nueva contraseña y descarta el token.
func (s *AccountService) ResetPassword(ctx context.Context, token, newPassword string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrInvalidResetToken
	}
	user, err := s.users.GetByPasswordResetToken(ctx, credential.Digest(token))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrInvalidResetToken
		}
		return err
	}
	if user.PasswordResetExpiresAt == nil || s.now().After(*user.PasswordResetExpiresAt) {
		return ErrResetTokenExpired
	}

	passwordHash, err := s.hashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.users.ResetPassword(ctx, user.ID, passwordHash); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrInvalidResetToken
		}
		return err
	}
	s.logger.Info("password reset", zap.Int64("user_id", user.ID))
	return nil
}

func (s *AccountService) Get(ctx context.Context, id int64) (domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, err
	}
	return sanitize(user), nil
}

func (s *AccountService) List(ctx context.Context) ([]domain.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		users[i] = sanitize(users[i])
	}
	return users, nil
}

// UpdateUserInput describe una actualización parcial; nil deja el campo intacto.
type UpdateUserInput struct {
	Email     *string
	Username  *string
	Password  *string
	FullName  *string
	AvatarURL *string
	Status    *domain.UserStatus
}

func (s *AccountService) Update(ctx context.Context, id int64, input UpdateUserInput) (domain.User, error) {
	current, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, err
	}

	var patch domain.UserPatch
	if input.Email != nil {
		emailAddr := strings.TrimSpace(*input.Email)
		if !strings.Contains(emailAddr, "@") {
			return domain.User{}, ErrInvalidEmail
		}
		if emailAddr != current.Email {
			if err := s.ensureEmailFree(ctx, emailAddr, id); err != nil {
				return domain.User{}, err
			}
			patch.Email = &emailAddr
		}
	}
	if input.Username != nil {
		username := strings.TrimSpace(*input.Username)
		if username != current.Username {
			if err := s.ensureUsernameFree(ctx, username, id); err != nil {
				return domain.User{}, err
			}
			patch.Username = &username
		}
	}
	if input.Password != nil {
		passwordHash, err := s.hashPassword(*input.Password)
		if err != nil {
			return domain.User{}, err
		}
		patch.PasswordHash = &passwordHash
	}
	if input.FullName != nil {
		fullName := strings.TrimSpace(*input.FullName)
		patch.FullName = &fullName
	}
	if input.AvatarURL != nil {
		avatar := strings.TrimSpace(*input.AvatarURL)
		patch.AvatarURL = &avatar
	}
	if input.Status != nil {
		if !input.Status.Valid() {
			return domain.User{}, ErrInvalidStatus
		}
		status := *input.Status
		patch.Status = &status
	}

	if patch.Empty() {
		return sanitize(current), nil
	}

	updated, err := s.users.Update(ctx, id, patch)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, translateRepoError(err)
	}
	return sanitize(updated), nil
}

// Remove borra la cuenta de forma definitiva.
func (s *AccountService) Remove(ctx context.Context, id int64) error {
	if err := s.users.Delete(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrUserNotFound
		}
		return err
	}
	s.logger.Info("user removed", zap.Int64("user_id", id))
	return nil
}

// ensureEmailFree es el chequeo rápido; la restricción única de la base
// sigue siendo la señal de conflicto definitiva.
func (s *AccountService) ensureEmailFree(ctx context.Context, emailAddr string, selfID int64) error {
	existing, err := s.users.GetByEmail(ctx, emailAddr)
	switch {
	case err == nil:
		if existing.ID != selfID {
			return ErrEmailTaken
		}
		return nil
	case errors.Is(err, pgx.ErrNoRows):
		return nil
	default:
		return err
	}
}

func (s *AccountService) ensureUsernameFree(ctx context.Context, username string, selfID int64) error {
	existing, err := s.users.GetByUsername(ctx, username)
	switch {
	case err == nil:
		if existing.ID != selfID {
			return ErrUsernameTaken
		}
		return nil
	case errors.Is(err, pgx.ErrNoRows):
		return nil
	default:
		return err
	}
}

// hashPassword traduce el límite de 72 bytes de bcrypt a un error de validación.
func (s *AccountService) hashPassword(plaintext string) (string, error) {
	digest, err := s.hasher.Hash(plaintext)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", ErrPasswordTooLong
	}
	return digest, err
}

func translateRepoError(err error) error {
	switch {
	case errors.Is(err, repository.ErrDuplicateEmail):
		return ErrEmailTaken
	case errors.Is(err, repository.ErrDuplicateUsername):
		return ErrUsernameTaken
	default:
		return err
	}
}

func sanitize(user domain.User) domain.User {
	user.PasswordHash = ""
	user.VerificationTokenHash = ""
	user.VerifiedTokenHash = ""
	user.PasswordResetTokenHash = ""
	user.PasswordResetExpiresAt = nil
	return user
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrValidation):
		return "invalid"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrAuthentication):
		return "invalid_credentials"
	default:
		return "error"
	}
}

func verificationLabel(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrVerificationTokenExpired):
		return "expired"
	case errors.Is(err, ErrAlreadyVerified):
		return "already_verified"
	case errors.Is(err, ErrInvalidVerificationToken):
		return "invalid"
	default:
		return "error"
	}
}

func observeMail(kind string, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	metrics.MailDeliveriesTotal.WithLabelValues(kind, result).Inc()
}
