package mail

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"html/template"
	"net"
	netmail "net/mail"
	"net/smtp"
	"strconv"
	"time"

	"github.com/jordan-wright/email"

	"github.com/Skotchmaster/shopfront/pkg/logging"
)

const resetSubject = "Reset your password"

var resetHTML = template.Must(template.New("reset").Parse(
	`<p>We received a request to reset your password.</p>
<p><a href="{{.Link}}">Choose a new password</a></p>
<p>The link expires in {{.TTL}}. If you did not ask for this, ignore this email.</p>`))

// Notifier delivers password reset links.
type Notifier interface {
	SendResetLink(ctx context.Context, to, link string) error
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type sendFunc func(ctx context.Context, e *email.Email, addr string, a smtp.Auth) error

type SMTPNotifier struct {
	cfg  SMTPConfig
	ttl  time.Duration
	send sendFunc
}

func NewSMTPNotifier(cfg SMTPConfig, linkTTL time.Duration) *SMTPNotifier {
	n := &SMTPNotifier{cfg: cfg, ttl: linkTTL}
	n.send = n.deliver
	return n
}

func (n *SMTPNotifier) SendResetLink(ctx context.Context, to, link string) error {
	var body bytes.Buffer
	if err := resetHTML.Execute(&body, struct {
		Link string
		TTL  time.Duration
	}{Link: link, TTL: n.ttl}); err != nil {
		return err
	}

	e := email.NewEmail()
	e.From = n.cfg.From
	e.To = []string{to}
	e.Subject = resetSubject
	e.Text = []byte("Open this link to choose a new password: " + link + "\n")
	e.HTML = body.Bytes()

	var auth smtp.Auth
	if n.cfg.Username != "" {
		auth = smtp.PlainAuth("", n.cfg.Username, n.cfg.Password, n.cfg.Host)
	}
	addr := net.JoinHostPort(n.cfg.Host, strconv.Itoa(n.cfg.Port))

	return n.send(ctx, e, addr, auth)
}

// deliver runs one SMTP session on a connection bound to ctx: the dial, every
// read and write, and the final QUIT all stop at the context deadline or on
// cancellation.
func (n *SMTPNotifier) deliver(ctx context.Context, e *email.Email, addr string, a smtp.Auth) (err error) {
	defer func() {
		if err != nil && ctx.Err() != nil {
			err = ctx.Err()
		}
	}()

	msg, err := e.Bytes()
	if err != nil {
		return fmt.Errorf("build message: %w", err)
	}
	from, err := netmail.ParseAddress(e.From)
	if err != nil {
		return fmt.Errorf("parse sender: %w", err)
	}

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return err
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}
	stop := context.AfterFunc(ctx, func() { _ = conn.SetDeadline(time.Now()) })
	defer stop()

	c, err := smtp.NewClient(conn, n.cfg.Host)
	if err != nil {
		return err
	}
	defer c.Close()

	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(&tls.Config{ServerName: n.cfg.Host}); err != nil {
			return fmt.Errorf("starttls: %w", err)
		}
	}
	if a != nil {
		if err := c.Auth(a); err != nil {
			return fmt.Errorf("auth: %w", err)
		}
	}
	if err := c.Mail(from.Address); err != nil {
		return err
	}
	for _, rcpt := range e.To {
		if err := c.Rcpt(rcpt); err != nil {
			return err
		}
	}
	w, err := c.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return c.Quit()
}

// ErrNotDelivered is what LogNotifier returns for every reset mail.
var ErrNotDelivered = errors.New("reset mail not delivered: MAIL_MODE=log")

// LogNotifier sends nothing and fails every delivery, so reset requests are
// rolled back. The link is left out of the log because it carries the raw
// token.
type LogNotifier struct{}

func (LogNotifier) SendResetLink(ctx context.Context, to, _ string) error {
	logging.FromContext(ctx).Warn("reset_mail_skipped", "to", to, "reason", "MAIL_MODE=log")
	return ErrNotDelivered
}
