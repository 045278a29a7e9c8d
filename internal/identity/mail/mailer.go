// Package mail delivers verification codes over SMTP.
package mail

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"gopkg.in/gomail.v2"
)

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Dispatcher sends the two transactional mails the flows need. It satisfies
// the service layer's Mailer interface.
type Dispatcher struct {
	dialer *gomail.Dialer
	from   string
}

func NewDispatcher(cfg Config) *Dispatcher {
	return &Dispatcher{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

var registrationTmpl = template.Must(template.New("registration").Parse(`
	<h2>Confirm your email</h2>
	<p>Hi {{.Nickname}},</p>
	<p>Your verification code is <strong>{{.Code}}</strong>. It expires in {{.TTLMinutes}} minutes.</p>
	<p>If you did not sign up, you can ignore this email.</p>
`))

var passwordResetTmpl = template.Must(template.New("password-reset").Parse(`
	<h3>Password reset requested</h3>
	<p>Your verification code is <strong>{{.Code}}</strong>. It expires in {{.TTLMinutes}} minutes.</p>
	<p>If you did not request a reset, you can ignore this email.</p>
`))

type codeMail struct {
	Nickname   string
	Code       int
	TTLMinutes int
}

// SendRegistrationCode mails a signup confirmation code.
func (d *Dispatcher) SendRegistrationCode(ctx context.Context, to, nickname string, code, ttlMinutes int) error {
	body, err := render(registrationTmpl, codeMail{Nickname: nickname, Code: code, TTLMinutes: ttlMinutes})
	if err != nil {
		return err
	}
	return d.send(ctx, to, "Confirm your email", body)
}

// SendPasswordResetCode mails a password reset code.
func (d *Dispatcher) SendPasswordResetCode(ctx context.Context, to string, code, ttlMinutes int) error {
	body, err := render(passwordResetTmpl, codeMail{Code: code, TTLMinutes: ttlMinutes})
	if err != nil {
		return err
	}
	return d.send(ctx, to, "Password reset request", body)
}

func render(tmpl *template.Template, data codeMail) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s mail: %w", tmpl.Name(), err)
	}
	return buf.String(), nil
}

// send dials per message. gomail has no context support, so cancellation is
// only honored up-front.
func (d *Dispatcher) send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", d.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	if err := d.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("send %q to %s: %w", subject, to, err)
	}
	return nil
}
