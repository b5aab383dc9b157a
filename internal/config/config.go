package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
	"golang.org/x/crypto/bcrypt"
)

// Config centraliza la configuración del servicio.
type Config struct {
	HTTPPort       string `env:"HTTP_PORT" envDefault:"8080"`
	DatabaseURL    string `env:"DATABASE_URL,required,notEmpty"`
	DBMaxConns     int32  `env:"DB_MAX_CONNS" envDefault:"10"`
	RunMigrations  bool   `env:"RUN_MIGRATIONS" envDefault:"true"`
	LogLevel       string `env:"LOG_LEVEL" envDefault:"info"`
	LogDevelopment bool   `env:"LOG_DEVELOPMENT" envDefault:"false"`
	FrontendURL    string `env:"FRONTEND_URL" envDefault:"http://localhost:5173"`

	SMTPHost     string `env:"SMTP_HOST"`
	SMTPPort     int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUser     string `env:"SMTP_USER"`
	SMTPPass     string `env:"SMTP_PASS"`
	SMTPFrom     string `env:"SMTP_FROM" envDefault:"noreply@taskboard.local"`
	SMTPFromName string `env:"SMTP_FROM_NAME" envDefault:"Taskboard"`
	SMTPUseTLS   bool   `env:"SMTP_USE_TLS" envDefault:"false"`

	RedisAddr              string `env:"REDIS_ADDR"`
	RedisPassword          string `env:"REDIS_PASSWORD"`
	RedisDB                int    `env:"REDIS_DB" envDefault:"0"`
	MailFailureJournalSize int64  `env:"MAIL_FAILURE_JOURNAL_SIZE" envDefault:"200"`

	// El valor por defecto replica la ventana observada en producción (1 minuto).
	VerificationTokenTTL      time.Duration `env:"VERIFICATION_TOKEN_TTL" envDefault:"1m"`
	PasswordResetTokenTTL     time.Duration `env:"PASSWORD_RESET_TOKEN_TTL" envDefault:"1h"`
	LoginRequireVerifiedEmail bool          `env:"LOGIN_REQUIRE_VERIFIED_EMAIL" envDefault:"false"`
	LoginIdentifierPreference string        `env:"LOGIN_IDENTIFIER_PREFERENCE" envDefault:"email"`
	BcryptCost                int           `env:"BCRYPT_COST" envDefault:"10"`
}

// LoadConfig carga la configuración desde variables de entorno.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate revisa combinaciones que env no puede expresar con tags.
func (c *Config) Validate() error {
	switch c.LoginIdentifierPreference {
	case "email", "username":
	default:
		return fmt.Errorf("LOGIN_IDENTIFIER_PREFERENCE must be email or username, got %q", c.LoginIdentifierPreference)
	}
	if c.VerificationTokenTTL <= 0 {
		return fmt.Errorf("VERIFICATION_TOKEN_TTL must be positive")
	}
	if c.PasswordResetTokenTTL <= 0 {
		return fmt.Errorf("PASSWORD_RESET_TOKEN_TTL must be positive")
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("BCRYPT_COST must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}
	if c.DBMaxConns <= 0 {
		return fmt.Errorf("DB_MAX_CONNS must be positive")
	}
	return nil
}

// MailEnabled indica si hay un servidor SMTP configurado.
func (c *Config) MailEnabled() bool {
	return c.SMTPHost != ""
}
