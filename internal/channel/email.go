package channel

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

	"github.com/ebukadev08/notification-system/internal/models"
	"github.com/ebukadev08/notification-system/internal/resolver"
)

const defaultSender = "no-reply@example"

// Email delivers notifications over SMTP with STARTTLS. Authentication is
// attempted only when credentials are configured.
type Email struct {
	host     string
	port     int
	username string
	password string
	timeout  time.Duration
}

// NewEmail creates an Email channel for the given relay.
func NewEmail(host string, port int, username, password string) *Email {
	return &Email{
		host:     host,
		port:     port,
		username: username,
		password: password,
		timeout:  10 * time.Second,
	}
}

func (e *Email) Name() string { return "email" }

// Recipient requires the user record to carry an email address.
func (e *Email) Recipient(user resolver.User) (models.ResolvedRecipient, error) {
	if user.Email == "" {
		return models.ResolvedRecipient{}, errors.New("user_lookup_failed: missing email address")
	}
	return models.ResolvedRecipient{Address: user.Email}, nil
}

// Send opens a session to the relay, upgrades to TLS, authenticates if
// credentials are present, and sends one message.
func (e *Email) Send(ctx context.Context, recipient models.ResolvedRecipient, content models.RenderedContent, _ map[string]interface{}) error {
	addr := net.JoinHostPort(e.host, strconv.Itoa(e.port))

	dialer := &net.Dialer{Timeout: e.timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	} else {
		_ = conn.SetDeadline(time.Now().Add(e.timeout))
	}

	client, err := smtp.NewClient(conn, e.host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer client.Close()

	if err := client.StartTLS(&tls.Config{ServerName: e.host}); err != nil {
		return fmt.Errorf("starttls: %w", err)
	}

	if e.username != "" && e.password != "" {
		auth := smtp.PlainAuth("", e.username, e.password, e.host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("auth: %w", err)
		}
	}

	from := e.sender()
	if err := client.Mail(from); err != nil {
		return fmt.Errorf("mail from: %w", err)
	}
	if err := client.Rcpt(recipient.Address); err != nil {
		return fmt.Errorf("rcpt to: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("data: %w", err)
	}
	if _, err := w.Write(buildMessage(from, recipient.Address, content.Subject, content.Body)); err != nil {
		return fmt.Errorf("write body: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close body: %w", err)
	}

	return client.Quit()
}

func (e *Email) sender() string {
	if e.username != "" {
		return e.username
	}
	return defaultSender
}

func buildMessage(from, to, subject, body string) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: " + subject + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	return []byte(b.String())
}
