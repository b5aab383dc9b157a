package credential

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
)

// TokenBytes es la cantidad de bytes aleatorios por token (64 caracteres hex).
const TokenBytes = 32

// TokenGenerator produce tokens opacos e impredecibles.
type TokenGenerator interface {
	Generate() (string, error)
}

// RandomTokenGenerator lee de crypto/rand; no guarda estado entre llamadas.
type RandomTokenGenerator struct{}

func NewRandomTokenGenerator() RandomTokenGenerator {
	return RandomTokenGenerator{}
}

func (RandomTokenGenerator) Generate() (string, error) {
	buf := make([]byte, TokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// Digest devuelve el SHA-256 hex del token; es lo único que se persiste.
func Digest(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
