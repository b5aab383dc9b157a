package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"taskboard/internal/domain"
)

var (
	ErrDuplicateEmail    = errors.New("duplicate email")
	ErrDuplicateUsername = errors.New("duplicate username")
)

const uniqueViolation = "23505"

// IdentifierPreference decide qué fila gana cuando un identificador de login
// coincide con el email de una cuenta y con el username de otra.
type IdentifierPreference string

const (
	PreferEmail    IdentifierPreference = "email"
	PreferUsername IdentifierPreference = "username"
)

// UserRepository define el contrato de persistencia para usuarios.
// Las búsquedas sin resultado devuelven pgx.ErrNoRows.
type UserRepository interface {
	Create(ctx context.Context, user domain.User) (domain.User, error)
	GetByID(ctx context.Context, id int64) (domain.User, error)
	GetByEmail(ctx context.Context, email string) (domain.User, error)
	GetByUsername(ctx context.Context, username string) (domain.User, error)
	GetByEmailOrUsername(ctx context.Context, identifier string, pref IdentifierPreference) (domain.User, error)
	GetByVerificationToken(ctx context.Context, tokenHash string) (domain.User, error)
	GetByVerifiedToken(ctx context.Context, tokenHash string) (domain.User, error)
	GetByPasswordResetToken(ctx context.Context, tokenHash string) (domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	Update(ctx context.Context, id int64, patch domain.UserPatch) (domain.User, error)
	SetVerificationToken(ctx context.Context, id int64, tokenHash string, expiresAt time.Time) error
	MarkEmailVerified(ctx context.Context, id int64, consumedTokenHash string) (domain.User, error)
	SetPasswordResetToken(ctx context.Context, id int64, tokenHash string, expiresAt time.Time) error
	ResetPassword(ctx context.Context, id int64, passwordHash string) error
	UpdateLastLogin(ctx context.Context, id int64, at time.Time) error
	Delete(ctx context.Context, id int64) error
}

// pgxQuerier es el subconjunto de *pgxpool.Pool que usa el repositorio.
type pgxQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PgUserRepository implementa UserRepository usando pgxpool.
type PgUserRepository struct {
	pool pgxQuerier
}

func NewPgUserRepository(pool pgxQuerier) *PgUserRepository {
	return &PgUserRepository{pool: pool}
}

const userColumns = `id, email, username, password_hash, full_name, avatar_url, status,
		email_verified, verification_token_hash, verification_token_expires_at,
		verified_token_hash, password_reset_token_hash, password_reset_token_expires_at,
		last_login_at, created_at, updated_at`

func (r *PgUserRepository) Create(ctx context.Context, user domain.User) (domain.User, error) {
	query := `
		INSERT INTO users (
			email, username, password_hash, full_name, avatar_url, status,
			email_verified, verification_token_hash, verification_token_expires_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + userColumns

	row := r.pool.QueryRow(ctx, query,
		user.Email,
		user.Username,
		user.PasswordHash,
		user.FullName,
		nullIfEmpty(user.AvatarURL),
		string(user.Status),
		user.EmailVerified,
		nullIfEmpty(user.VerificationTokenHash),
		user.VerificationTokenExpiresAt,
	)
	created, err := scanUser(row)
	if err != nil {
		return domain.User{}, translateError(err)
	}
	return created, nil
}

func (r *PgUserRepository) GetByID(ctx context.Context, id int64) (domain.User, error) {
	return r.getOne(ctx, `WHERE id = $1`, id)
}

func (r *PgUserRepository) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	return r.getOne(ctx, `WHERE email = $1`, email)
}

func (r *PgUserRepository) GetByUsername(ctx context.Context, username string) (domain.User, error) {
	return r.getOne(ctx, `WHERE username = $1`, username)
}

func (r *PgUserRepository) GetByEmailOrUsername(ctx context.Context, identifier string, pref IdentifierPreference) (domain.User, error) {
	preferred := "email"
	if pref == PreferUsername {
		preferred = "username"
	}
	where := fmt.Sprintf(`WHERE email = $1 OR username = $1
		ORDER BY CASE WHEN %s = $1 THEN 0 ELSE 1 END, id
		LIMIT 1`, preferred)
	return r.getOne(ctx, where, identifier)
}

func (r *PgUserRepository) GetByVerificationToken(ctx context.Context, tokenHash string) (domain.User, error) {
	return r.getOne(ctx, `WHERE verification_token_hash = $1`, tokenHash)
}

func (r *PgUserRepository) GetByVerifiedToken(ctx context.Context, tokenHash string) (domain.User, error) {
	return r.getOne(ctx, `WHERE verified_token_hash = $1 ORDER BY id LIMIT 1`, tokenHash)
}

func (r *PgUserRepository) GetByPasswordResetToken(ctx context.Context, tokenHash string) (domain.User, error) {
	return r.getOne(ctx, `WHERE password_reset_token_hash = $1`, tokenHash)
}

func (r *PgUserRepository) List(ctx context.Context) ([]domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY id ASC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]domain.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *PgUserRepository) Update(ctx context.Context, id int64, patch domain.UserPatch) (domain.User, error) {
	if patch.Empty() {
		return r.GetByID(ctx, id)
	}

	var (
		sets []string
		args []any
	)
	set := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if patch.Email != nil {
		set("email", *patch.Email)
	}
	if patch.Username != nil {
		set("username", *patch.Username)
	}
	if patch.PasswordHash != nil {
		set("password_hash", *patch.PasswordHash)
	}
	if patch.FullName != nil {
		set("full_name", *patch.FullName)
	}
	if patch.AvatarURL != nil {
		set("avatar_url", nullIfEmpty(*patch.AvatarURL))
	}
	if patch.Status != nil {
		set("status", string(*patch.Status))
	}
	sets = append(sets, "updated_at = now()")
	args = append(args, id)

	query := fmt.Sprintf(`UPDATE users SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(sets, ", "), len(args), userColumns)

	updated, err := scanUser(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		return domain.User{}, translateError(err)
	}
	return updated, nil
}

func (r *PgUserRepository) SetVerificationToken(ctx context.Context, id int64, tokenHash string, expiresAt time.Time) error {
	const query = `
		UPDATE users
		SET verification_token_hash = $2, verification_token_expires_at = $3, updated_at = now()
		WHERE id = $1
	`
	return r.execOne(ctx, query, id, tokenHash, expiresAt)
}

func (r *PgUserRepository) MarkEmailVerified(ctx context.Context, id int64, consumedTokenHash string) (domain.User, error) {
	query := `
		UPDATE users
		SET email_verified = TRUE,
			verification_token_hash = NULL,
			verification_token_expires_at = NULL,
			verified_token_hash = $2,
			updated_at = now()
		WHERE id = $1
		RETURNING ` + userColumns

	return scanUser(r.pool.QueryRow(ctx, query, id, nullIfEmpty(consumedTokenHash)))
}

func (r *PgUserRepository) SetPasswordResetToken(ctx context.Context, id int64, tokenHash string, expiresAt time.Time) error {
	const query = `
		UPDATE users
		SET password_reset_token_hash = $2, password_reset_token_expires_at = $3, updated_at = now()
		WHERE id = $1
	`
	return r.execOne(ctx, query, id, tokenHash, expiresAt)
}

func (r *PgUserRepository) ResetPassword(ctx context.Context, id int64, passwordHash string) error {
	const query = `
		UPDATE users
		SET password_hash = $2,
			password_reset_token_hash = NULL,
			password_reset_token_expires_at = NULL,
			updated_at = now()
		WHERE id = $1
	`
	return r.execOne(ctx, query, id, passwordHash)
}

func (r *PgUserRepository) UpdateLastLogin(ctx context.Context, id int64, at time.Time) error {
	const query = `UPDATE users SET last_login_at = $2 WHERE id = $1`
	return r.execOne(ctx, query, id, at)
}

func (r *PgUserRepository) Delete(ctx context.Context, id int64) error {
	const query = `DELETE FROM users WHERE id = $1`
	return r.execOne(ctx, query, id)
}

func (r *PgUserRepository) getOne(ctx context.Context, clause string, args ...any) (domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ` + clause
	return scanUser(r.pool.QueryRow(ctx, query, args...))
}

func (r *PgUserRepository) execOne(ctx context.Context, query string, args ...any) error {
	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return translateError(err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func scanUser(row pgx.Row) (domain.User, error) {
	var (
		u             domain.User
		avatarURL     *string
		status        string
		verifyHash    *string
		verifiedHash  *string
		resetHash     *string
		verifyExpires *time.Time
		resetExpires  *time.Time
		lastLoginAt   *time.Time
	)
	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.Username,
		&u.PasswordHash,
		&u.FullName,
		&avatarURL,
		&status,
		&u.EmailVerified,
		&verifyHash,
		&verifyExpires,
		&verifiedHash,
		&resetHash,
		&resetExpires,
		&lastLoginAt,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return domain.User{}, err
	}
	u.AvatarURL = deref(avatarURL)
	u.Status = domain.UserStatus(status)
	u.VerificationTokenHash = deref(verifyHash)
	u.VerificationTokenExpiresAt = verifyExpires
	u.VerifiedTokenHash = deref(verifiedHash)
	u.PasswordResetTokenHash = deref(resetHash)
	u.PasswordResetExpiresAt = resetExpires
	u.LastLoginAt = lastLoginAt
	return u, nil
}

// translateError convierte violaciones de unicidad en errores del repositorio.
func translateError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolation {
		return err
	}
	switch pgErr.ConstraintName {
	case "users_email_key":
		return fmt.Errorf("%w: %s", ErrDuplicateEmail, pgErr.Message)
	case "users_username_key":
		return fmt.Errorf("%w: %s", ErrDuplicateUsername, pgErr.Message)
	}
	return err
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
