package email

import (
	"context"
	"errors"
	"time"
)

// Tipos de correo, usados en métricas y en el journal de fallos.
const (
	KindVerification  = "verification"
	KindPasswordReset = "password_reset"
	KindWelcome       = "welcome"
)

// Sender define la interfaz para el envío de correos transaccionales.
type Sender interface {
	SendVerification(ctx context.Context, toEmail, fullName, token string, expiresAt time.Time) error
	SendPasswordReset(ctx context.Context, toEmail, fullName, token string, expiresAt time.Time) error
	SendWelcome(ctx context.Context, toEmail, fullName string) error
}

type disabledSender struct {
	reason string
}

func NewDisabledSender(reason string) Sender {
	return &disabledSender{reason: reason}
}

func (s *disabledSender) err() error {
	if s.reason == "" {
		return errors.New("email sender disabled")
	}
	return errors.New(s.reason)
}

func (s *disabledSender) SendVerification(context.Context, string, string, string, time.Time) error {
	return s.err()
}

func (s *disabledSender) SendPasswordReset(context.Context, string, string, string, time.Time) error {
	return s.err()
}

func (s *disabledSender) SendWelcome(context.Context, string, string) error {
	return s.err()
}
