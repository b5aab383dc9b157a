package domain

import "time"

// UserStatus controla el acceso de la cuenta, independiente de la verificación de email.
type UserStatus string

const (
	UserStatusActive    UserStatus = "active"
	UserStatusInactive  UserStatus = "inactive"
	UserStatusSuspended UserStatus = "suspended"
)

// Valid indica si el estado pertenece al conjunto permitido.
func (s UserStatus) Valid() bool {
	switch s {
	case UserStatusActive, UserStatusInactive, UserStatusSuspended:
		return true
	}
	return false
}

// User representa una cuenta. Los hashes nunca se serializan.
type User struct {
	ID                         int64      `json:"id"`
	Email                      string     `json:"email"`
	Username                   string     `json:"username"`
	PasswordHash               string     `json:"-"`
	FullName                   string     `json:"fullName"`
	AvatarURL                  string     `json:"avatarUrl,omitempty"`
	Status                     UserStatus `json:"status"`
	EmailVerified              bool       `json:"emailVerified"`
	VerificationTokenHash      string     `json:"-"`
	VerificationTokenExpiresAt *time.Time `json:"verificationTokenExpiry,omitempty"`
	VerifiedTokenHash          string     `json:"-"`
	PasswordResetTokenHash     string     `json:"-"`
	PasswordResetExpiresAt     *time.Time `json:"-"`
	LastLoginAt                *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt                  time.Time  `json:"createdAt"`
	UpdatedAt                  time.Time  `json:"updatedAt"`
}

// HasPendingVerification indica si hay un token de verificación vigente o vencido sin consumir.
func (u User) HasPendingVerification() bool {
	return u.VerificationTokenHash != "" && u.VerificationTokenExpiresAt != nil
}

// UserPatch describe una actualización parcial; los campos nil no se tocan.
type UserPatch struct {
	Email        *string
	Username     *string
	PasswordHash *string
	FullName     *string
	AvatarURL    *string
	Status       *UserStatus
}

// Empty indica si el patch no modifica ningún campo.
func (p UserPatch) Empty() bool {
	return p.Email == nil &&
		p.Username == nil &&
		p.PasswordHash == nil &&
		p.FullName == nil &&
		p.AvatarURL == nil &&
		p.Status == nil
}
