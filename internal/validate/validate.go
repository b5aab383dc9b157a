// Package validate expone una función por campo que devuelve un Result explícito.
// Los handlers componen estos resultados antes de invocar al servicio.
package validate

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"taskboard/internal/domain"
)

// Result es el resultado de validar un campo.
type Result struct {
	Valid bool
	Error string
}

func ok() Result { return Result{Valid: true} }

func fail(format string, args ...any) Result {
	return Result{Valid: false, Error: fmt.Sprintf(format, args...)}
}

const (
	UsernameMinLength      = 3
	UsernameMaxLength      = 50
	LoginUsernameMinLength = 5
	LoginUsernameMaxLength = 20
	PasswordMinLength      = 8
	// bcrypt solo admite 72 bytes.
	PasswordMaxBytes  = 72
	FullNameMaxLength = 100
)

var (
	emailPattern         = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	usernamePattern      = regexp.MustCompile(`^[a-zA-Z0-9_-]{3,50}$`)
	loginUsernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{5,20}$`)
	tokenPattern         = regexp.MustCompile(`^[0-9a-f]{64}$`)
	specialChars         = `!@#$%^&*()_+-=[]{};':"\|,.<>/?`
)

func Email(value string) Result {
	if value == "" {
		return fail("email is required")
	}
	if !emailPattern.MatchString(value) {
		return fail("email is invalid, e.g. user@example.com")
	}
	return ok()
}

func Username(value string) Result {
	if value == "" {
		return fail("username is required")
	}
	n := utf8.RuneCountInString(value)
	if n < UsernameMinLength {
		return fail("username must be at least %d characters", UsernameMinLength)
	}
	if n > UsernameMaxLength {
		return fail("username must be at most %d characters", UsernameMaxLength)
	}
	if !usernamePattern.MatchString(value) {
		return fail("username may only contain a-z, A-Z, 0-9, _ and -")
	}
	return ok()
}

func Password(value string) Result {
	if value == "" {
		return fail("password is required")
	}
	if utf8.RuneCountInString(value) < PasswordMinLength {
		return fail("password must be at least %d characters", PasswordMinLength)
	}
	if len(value) > PasswordMaxBytes {
		return fail("password must be at most %d bytes", PasswordMaxBytes)
	}
	var upper, lower, digit, special bool
	for _, r := range value {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case strings.ContainsRune(specialChars, r):
			special = true
		}
	}
	switch {
	case !upper:
		return fail("password must contain an uppercase letter")
	case !lower:
		return fail("password must contain a lowercase letter")
	case !digit:
		return fail("password must contain a digit")
	case !special:
		return fail("password must contain a special character")
	}
	return ok()
}

func FullName(value string) Result {
	if strings.TrimSpace(value) == "" {
		return fail("full name is required")
	}
	if utf8.RuneCountInString(value) > FullNameMaxLength {
		return fail("full name must be at most %d characters", FullNameMaxLength)
	}
	return ok()
}

// AvatarURL acepta vacío (campo opcional) o una URL http(s) absoluta.
func AvatarURL(value string) Result {
	if value == "" {
		return ok()
	}
	u, err := url.ParseRequestURI(value)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fail("avatar url is invalid")
	}
	return ok()
}

// Status acepta vacío (se usa el valor por defecto) o un estado conocido.
func Status(value string) Result {
	if value == "" {
		return ok()
	}
	if !domain.UserStatus(value).Valid() {
		return fail("status must be one of active, inactive, suspended")
	}
	return ok()
}

// EmailOrUsername valida el identificador de login.
func EmailOrUsername(value string) Result {
	if value == "" {
		return fail("email or username is required")
	}
	if emailPattern.MatchString(value) || loginUsernamePattern.MatchString(value) {
		return ok()
	}
	return fail("email or username is invalid. Email: user@example.com, Username: %d-%d characters (a-z, A-Z, 0-9, _, -)",
		LoginUsernameMinLength, LoginUsernameMaxLength)
}

func Token(value string) Result {
	if value == "" {
		return fail("token is required")
	}
	if !tokenPattern.MatchString(value) {
		return fail("token is malformed")
	}
	return ok()
}

// First devuelve el primer resultado inválido, si existe.
func First(results ...Result) (Result, bool) {
	for _, r := range results {
		if !r.Valid {
			return r, true
		}
	}
	return Result{}, false
}
