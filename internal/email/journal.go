package email

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Failure describe un envío fallido. No se reintenta; queda para el operador.
type Failure struct {
	Kind     string    `json:"kind"`
	To       string    `json:"to"`
	Error    string    `json:"error"`
	FailedAt time.Time `json:"failedAt"`
}

// FailureJournal guarda los últimos envíos fallidos.
type FailureJournal interface {
	Record(ctx context.Context, failure Failure) error
	Recent(ctx context.Context, limit int64) ([]Failure, error)
}

type redisListClient interface {
	LPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	LTrim(ctx context.Context, key string, start, stop int64) *redis.StatusCmd
	LRange(ctx context.Context, key string, start, stop int64) *redis.StringSliceCmd
}

type redisFailureJournal struct {
	client redisListClient
	key    string
	size   int64
}

// NewRedisFailureJournal crea un journal acotado a size entradas sobre una lista de Redis.
func NewRedisFailureJournal(client *redis.Client, size int64) FailureJournal {
	if client == nil {
		return nil
	}
	if size <= 0 {
		size = 200
	}
	return &redisFailureJournal{
		client: client,
		key:    "mail:failures",
		size:   size,
	}
}

func (j *redisFailureJournal) Record(ctx context.Context, failure Failure) error {
	payload, err := json.Marshal(failure)
	if err != nil {
		return err
	}
	if err := j.client.LPush(ctx, j.key, payload).Err(); err != nil {
		return err
	}
	return j.client.LTrim(ctx, j.key, 0, j.size-1).Err()
}

func (j *redisFailureJournal) Recent(ctx context.Context, limit int64) ([]Failure, error) {
	if limit <= 0 || limit > j.size {
		limit = j.size
	}
	raw, err := j.client.LRange(ctx, j.key, 0, limit-1).Result()
	if err != nil {
		return nil, err
	}
	failures := make([]Failure, 0, len(raw))
	for _, item := range raw {
		var f Failure
		if err := json.Unmarshal([]byte(item), &f); err != nil {
			continue
		}
		failures = append(failures, f)
	}
	return failures, nil
}

// JournalingSender registra en el journal cada envío fallido del sender interno.
type JournalingSender struct {
	inner   Sender
	journal FailureJournal
	logger  *zap.Logger
	now     func() time.Time
}

func NewJournalingSender(inner Sender, journal FailureJournal, logger *zap.Logger) *JournalingSender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &JournalingSender{
		inner:   inner,
		journal: journal,
		logger:  logger,
		now:     time.Now,
	}
}

func (s *JournalingSender) SendVerification(ctx context.Context, toEmail, fullName, token string, expiresAt time.Time) error {
	return s.track(KindVerification, toEmail, s.inner.SendVerification(ctx, toEmail, fullName, token, expiresAt))
}

func (s *JournalingSender) SendPasswordReset(ctx context.Context, toEmail, fullName, token string, expiresAt time.Time) error {
	return s.track(KindPasswordReset, toEmail, s.inner.SendPasswordReset(ctx, toEmail, fullName, token, expiresAt))
}

func (s *JournalingSender) SendWelcome(ctx context.Context, toEmail, fullName string) error {
	return s.track(KindWelcome, toEmail, s.inner.SendWelcome(ctx, toEmail, fullName))
}

func (s *JournalingSender) track(kind, toEmail string, sendErr error) error {
	if sendErr == nil || s.journal == nil {
		return sendErr
	}
	// El registro no depende del ciclo de vida del request.
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	failure := Failure{
		Kind:     kind,
		To:       strings.TrimSpace(toEmail),
		Error:    sendErr.Error(),
		FailedAt: s.now().UTC(),
	}
	if err := s.journal.Record(ctx, failure); err != nil {
		s.logger.Warn("record mail failure", zap.Error(err), zap.String("kind", kind))
	}
	return sendErr
}
