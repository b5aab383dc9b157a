package email

import (
	"bytes"
	"fmt"
	"html/template"
	"time"
)

var verificationTmpl = template.Must(template.New("verification").Parse(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2>Verify your email</h2>
  <p>Hello <strong>{{.Name}}</strong>,</p>
  <p>Thanks for signing up. Please confirm your email address by opening the link below:</p>
  <p><a href="{{.Link}}">Verify email</a></p>
  <p>Or copy this link into your browser:<br>{{.Link}}</p>
  <p style="color: #888; font-size: 12px;">This link expires in {{.Lifetime}}.<br>
  If you did not sign up, you can ignore this email.</p>
</div>`))

var passwordResetTmpl = template.Must(template.New("password_reset").Parse(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2>Reset your password</h2>
  <p>Hello <strong>{{.Name}}</strong>,</p>
  <p>We received a request to reset the password of your account. Open the link below to choose a new one:</p>
  <p><a href="{{.Link}}">Reset password</a></p>
  <p>Or copy this link into your browser:<br>{{.Link}}</p>
  <p style="color: #888; font-size: 12px;">This link expires in {{.Lifetime}}.<br>
  If you did not request a password reset, you can ignore this email.</p>
</div>`))

var welcomeTmpl = template.Must(template.New("welcome").Parse(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2>Welcome to {{.Product}}!</h2>
  <p>Hello <strong>{{.Name}}</strong>,</p>
  <p>Your account is ready. You can now:</p>
  <ul>
    <li>Create and manage projects</li>
    <li>Plan sprints with your team</li>
    <li>Track the progress of every task</li>
  </ul>
</div>`))

type templateData struct {
	Name     string
	Link     string
	Lifetime string
	Product  string
}

func render(tmpl *template.Template, data templateData) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// describeLifetime expresa la vigencia real del enlace para el texto del correo.
func describeLifetime(d time.Duration) string {
	d = d.Round(time.Minute)
	if d < time.Minute {
		d = time.Minute
	}
	if d >= time.Hour {
		return plural(int(d.Round(time.Hour)/time.Hour), "hour")
	}
	return plural(int(d/time.Minute), "minute")
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
