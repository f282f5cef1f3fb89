// Package smtp delivers mailer.Email messages over SMTP.
package smtp

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/sensiq/coldmail/pkg/mailer"
)

// Supported authentication mechanisms.
const (
	AuthPlain = "plain"
	AuthLogin = "login"
	AuthNone  = "none"
)

var (
	ErrUnsupportedAuth = errors.New("smtp: unsupported auth mechanism")
	ErrDial            = errors.New("smtp: failed to connect")
)

// Config holds relay settings.
type Config struct {
	Host     string        `env:"SMTP_HOST" envDefault:"smtp.hostinger.com"`
	Port     int           `env:"SMTP_PORT" envDefault:"587"`
	Username string        `env:"SMTP_USERNAME"`
	Password string        `env:"EMAIL_PASSWORD"`
	Auth     string        `env:"SMTP_AUTH" envDefault:"plain"`
	StartTLS bool          `env:"SMTP_STARTTLS" envDefault:"true"`
	Timeout  time.Duration `env:"SMTP_TIMEOUT" envDefault:"30s"`
}

// Sender implements mailer.Sender with one SMTP session per message.
type Sender struct {
	config Config
}

// New creates an SMTP sender.
func New(cfg Config) *Sender {
	return &Sender{config: cfg}
}

// Send implements mailer.Sender.
func (s *Sender) Send(ctx context.Context, email *mailer.Email) error {
	msg, err := mailer.Build(email)
	if err != nil {
		return err
	}

	from, err := mailer.ParseAddress(email.From)
	if err != nil {
		return err
	}
	recipients := make([]string, 0, len(email.To))
	for _, to := range email.To {
		addr, err := mailer.ParseAddress(to)
		if err != nil {
			return err
		}
		recipients = append(recipients, addr)
	}

	client, err := s.dial(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	if err := s.session(client, from, recipients, msg); err != nil {
		return fmt.Errorf("smtp: %w", err)
	}
	return nil
}

func (s *Sender) dial(ctx context.Context) (*smtp.Client, error) {
	addr := net.JoinHostPort(s.config.Host, strconv.Itoa(s.config.Port))

	dialer := &net.Dialer{Timeout: s.config.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, errors.Join(ErrDial, err)
	}

	var deadline time.Time
	if s.config.Timeout > 0 {
		deadline = time.Now().Add(s.config.Timeout)
	}
	if d, ok := ctx.Deadline(); ok && (deadline.IsZero() || d.Before(deadline)) {
		deadline = d
	}
	if !deadline.IsZero() {
		_ = conn.SetDeadline(deadline)
	}

	client, err := smtp.NewClient(conn, s.config.Host)
	if err != nil {
		conn.Close()
		return nil, errors.Join(ErrDial, err)
	}
	return client, nil
}

func (s *Sender) session(client *smtp.Client, from string, recipients []string, msg []byte) error {
	if s.config.StartTLS {
		if ok, _ := client.Extension("STARTTLS"); !ok {
			return errors.New("server does not support STARTTLS")
		}
		if err := client.StartTLS(&tls.Config{ServerName: s.config.Host, MinVersion: tls.VersionTLS12}); err != nil {
			return fmt.Errorf("starttls: %w", err)
		}
	}

	auth, err := s.auth()
	if err != nil {
		return err
	}
	if auth != nil {
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("auth: %w", err)
		}
	}

	if err := client.Mail(from); err != nil {
		return fmt.Errorf("mail from: %w", err)
	}
	for _, rcpt := range recipients {
		if err := client.Rcpt(rcpt); err != nil {
			return fmt.Errorf("rcpt %s: %w", rcpt, err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("data: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		return fmt.Errorf("data: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("data: %w", err)
	}
	return client.Quit()
}

func (s *Sender) auth() (smtp.Auth, error) {
	username := s.config.Username
	switch strings.ToLower(strings.TrimSpace(s.config.Auth)) {
	case "", AuthPlain:
		return smtp.PlainAuth("", username, s.config.Password, s.config.Host), nil
	case AuthLogin:
		return &loginAuth{username: username, password: s.config.Password, host: s.config.Host}, nil
	case AuthNone:
		return nil, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedAuth, s.config.Auth)
	}
}

// loginAuth implements the LOGIN mechanism, which some relays require
// instead of PLAIN.
type loginAuth struct {
	username string
	password string
	host     string
}

func (a *loginAuth) Start(server *smtp.ServerInfo) (string, []byte, error) {
	if server.Name != a.host {
		return "", nil, fmt.Errorf("unexpected server name %s", server.Name)
	}
	if !server.TLS {
		return "", nil, errors.New("refusing LOGIN auth over an unencrypted connection")
	}
	return "LOGIN", nil, nil
}

func (a *loginAuth) Next(fromServer []byte, more bool) ([]byte, error) {
	if !more {
		return nil, nil
	}
	switch strings.ToLower(strings.TrimSpace(string(fromServer))) {
	case "username:", "user:":
		return []byte(a.username), nil
	case "password:", "pass:":
		return []byte(a.password), nil
	default:
		return nil, fmt.Errorf("unexpected login challenge: %s", fromServer)
	}
}
