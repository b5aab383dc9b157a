package email

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/smtp"
	"net/url"
	"strings"
	"time"
)

// SMTPConfig se construye una vez al arrancar y se inyecta en el sender.
type SMTPConfig struct {
	Host        string
	Port        int
	Username    string
	Password    string
	From        string
	FromName    string
	UseTLS      bool
	FrontendURL string
}

// SMTPSender envia correos via SMTP.
type SMTPSender struct {
	cfg     SMTPConfig
	now     func() time.Time
	deliver func(to, msg string) error
}

func NewSMTPSender(cfg SMTPConfig) (*SMTPSender, error) {
	if strings.TrimSpace(cfg.Host) == "" {
		return nil, fmt.Errorf("smtp host is required")
	}
	if strings.TrimSpace(cfg.From) == "" {
		return nil, fmt.Errorf("smtp from is required")
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	cfg.FrontendURL = strings.TrimRight(cfg.FrontendURL, "/")
	s := &SMTPSender{
		cfg: cfg,
		now: time.Now,
	}
	s.deliver = s.send
	return s, nil
}

func (s *SMTPSender) SendVerification(_ context.Context, toEmail, fullName, token string, expiresAt time.Time) error {
	body, err := render(verificationTmpl, templateData{
		Name:     displayName(fullName),
		Link:     s.link("/verify-email", token),
		Lifetime: describeLifetime(expiresAt.Sub(s.now())),
	})
	if err != nil {
		return err
	}
	return s.dispatch(toEmail, "Verify your email", body)
}

func (s *SMTPSender) SendPasswordReset(_ context.Context, toEmail, fullName, token string, expiresAt time.Time) error {
	body, err := render(passwordResetTmpl, templateData{
		Name:     displayName(fullName),
		Link:     s.link("/reset-password", token),
		Lifetime: describeLifetime(expiresAt.Sub(s.now())),
	})
	if err != nil {
		return err
	}
	return s.dispatch(toEmail, "Reset your password", body)
}

func (s *SMTPSender) SendWelcome(_ context.Context, toEmail, fullName string) error {
	product := s.cfg.FromName
	if strings.TrimSpace(product) == "" {
		product = "Taskboard"
	}
	body, err := render(welcomeTmpl, templateData{
		Name:    displayName(fullName),
		Product: product,
	})
	if err != nil {
		return err
	}
	return s.dispatch(toEmail, "Welcome to "+product, body)
}

func (s *SMTPSender) link(path, token string) string {
	return s.cfg.FrontendURL + path + "?token=" + url.QueryEscape(token)
}

func (s *SMTPSender) dispatch(toEmail, subject, body string) error {
	if strings.TrimSpace(toEmail) == "" {
		return fmt.Errorf("to email is required")
	}
	msg := buildMessage(s.cfg.From, s.cfg.FromName, toEmail, subject, body)
	return s.deliver(toEmail, msg)
}

func (s *SMTPSender) send(toEmail, msg string) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}

	if s.cfg.UseTLS {
		conn, err := tls.Dial("tcp", addr, &tls.Config{
			ServerName: s.cfg.Host,
		})
		if err != nil {
			return err
		}
		defer conn.Close()

		client, err := smtp.NewClient(conn, s.cfg.Host)
		if err != nil {
			return err
		}
		defer client.Quit()

		if auth != nil {
			if err := client.Auth(auth); err != nil {
				return err
			}
		}
		if err := client.Mail(s.cfg.From); err != nil {
			return err
		}
		if err := client.Rcpt(toEmail); err != nil {
			return err
		}
		writer, err := client.Data()
		if err != nil {
			return err
		}
		if _, err := writer.Write([]byte(msg)); err != nil {
			_ = writer.Close()
			return err
		}
		return writer.Close()
	}

	return smtp.SendMail(addr, auth, s.cfg.From, []string{toEmail}, []byte(msg))
}

func displayName(fullName string) string {
	if strings.TrimSpace(fullName) == "" {
		return "User"
	}
	return fullName
}

func buildMessage(from, fromName, to, subject, body string) string {
	fromHeader := from
	if strings.TrimSpace(fromName) != "" {
		fromHeader = fmt.Sprintf("%s <%s>", fromName, from)
	}

	headers := []string{
		fmt.Sprintf("From: %s", fromHeader),
		fmt.Sprintf("To: %s", to),
		fmt.Sprintf("Subject: %s", subject),
		"MIME-Version: 1.0",
		"Content-Type: text/html; charset=\"UTF-8\"",
	}

	return strings.Join(headers, "\r\n") + "\r\n\r\n" + body
}
