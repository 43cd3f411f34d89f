// Farmdata - Environmental Sensor Data API
// Copyright 2026 Trent Farm Data
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/trentfarmdata/farmdata

// Package mail delivers transactional email over SMTP.
package mail

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"mime/quotedprintable"
	"net"
	"net/smtp"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/trentfarmdata/farmdata/internal/config"
	"github.com/trentfarmdata/farmdata/internal/logging"
	"github.com/trentfarmdata/farmdata/internal/metrics"
)

// ErrEmailDisabled indicates no SMTP host is configured.
var ErrEmailDisabled = errors.New("email delivery is not configured")

// Message is one outbound email with plain text and HTML alternatives.
type Message struct {
	To       string
	Subject  string
	TextBody string
	HTMLBody string
}

// Mailer sends messages through the configured SMTP relay. A circuit
// breaker stops hammering a relay that keeps failing.
type Mailer struct {
	cfg     config.SMTPConfig
	breaker *gobreaker.CircuitBreaker[struct{}]
}

// NewMailer creates a mailer for the given SMTP configuration.
func NewMailer(cfg config.SMTPConfig) *Mailer {
	settings := gobreaker.Settings{
		Name:        "smtp",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Circuit breaker state changed")
		},
	}
	return &Mailer{
		cfg:     cfg,
		breaker: gobreaker.NewCircuitBreaker[struct{}](settings),
	}
}

// Send delivers one message, classifying failures for callers.
func (m *Mailer) Send(ctx context.Context, kind string, msg Message) error {
	if m.cfg.Host == "" {
		return ErrEmailDisabled
	}

	_, err := m.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, m.sendSMTP(ctx, msg)
	})

	metrics.RecordEmailSend(kind, err)
	if err != nil {
		logger := logging.Ctx(ctx)
		logger.Error().
			Err(err).
			Str("kind", kind).
			Str("code", classifyEmailError(err)).
			Msg("Email delivery failed")
		return fmt.Errorf("sending %s email: %w", kind, err)
	}

	logger := logging.Ctx(ctx)
	logger.Info().Str("kind", kind).Msg("Email delivered")
	return nil
}

// sendSMTP performs one SMTP transaction with STARTTLS.
func (m *Mailer) sendSMTP(ctx context.Context, msg Message) error {
	addr := net.JoinHostPort(m.cfg.Host, fmt.Sprintf("%d", m.cfg.Port))

	dialer := net.Dialer{Timeout: m.cfg.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("connecting to %s: %w", addr, err)
	}

	client, err := smtp.NewClient(conn, m.cfg.Host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer client.Close()

	if m.cfg.StartTLS {
		if ok, _ := client.Extension("STARTTLS"); !ok {
			return fmt.Errorf("server %s does not support STARTTLS", m.cfg.Host)
		}
		tlsCfg := &tls.Config{
			ServerName: m.cfg.Host,
			MinVersion: tls.VersionTLS12,
		}
		if err := client.StartTLS(tlsCfg); err != nil {
			return fmt.Errorf("starttls: %w", err)
		}
	}

	if m.cfg.Username != "" {
		auth := smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}

	if err := client.Mail(m.cfg.FromAddress); err != nil {
		return fmt.Errorf("mail from: %w", err)
	}
	if err := client.Rcpt(msg.To); err != nil {
		return fmt.Errorf("rcpt to: %w", err)
	}

	wc, err := client.Data()
	if err != nil {
		return fmt.Errorf("data command: %w", err)
	}
	if _, err := wc.Write(m.buildMessage(msg)); err != nil {
		wc.Close()
		return fmt.Errorf("writing message: %w", err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("closing message: %w", err)
	}

	// Quit failures after a successful DATA are harmless
	_ = client.Quit()
	return nil
}

// buildMessage renders a multipart/alternative MIME message with
// quoted-printable parts.
func (m *Mailer) buildMessage(msg Message) []byte {
	var buf bytes.Buffer
	boundary := fmt.Sprintf("boundary_%d", time.Now().UnixNano())

	from := m.cfg.FromAddress
	if m.cfg.FromName != "" {
		from = fmt.Sprintf("%s <%s>", m.cfg.FromName, m.cfg.FromAddress)
	}

	fmt.Fprintf(&buf, "From: %s\r\n", from)
	fmt.Fprintf(&buf, "To: %s\r\n", msg.To)
	fmt.Fprintf(&buf, "Subject: %s\r\n", msg.Subject)
	buf.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&buf, "Content-Type: multipart/alternative; boundary=%q\r\n", boundary)
	buf.WriteString("\r\n")

	writePart(&buf, boundary, "text/plain", msg.TextBody)
	if msg.HTMLBody != "" {
		writePart(&buf, boundary, "text/html", msg.HTMLBody)
	}
	fmt.Fprintf(&buf, "--%s--\r\n", boundary)

	return buf.Bytes()
}

func writePart(buf *bytes.Buffer, boundary, contentType, body string) {
	fmt.Fprintf(buf, "--%s\r\n", boundary)
	fmt.Fprintf(buf, "Content-Type: %s; charset=UTF-8\r\n", contentType)
	buf.WriteString("Content-Transfer-Encoding: quoted-printable\r\n\r\n")

	qp := quotedprintable.NewWriter(buf)
	qp.Write([]byte(body))
	qp.Close()
	buf.WriteString("\r\n")
}

// classifyEmailError maps delivery failures to stable error codes.
func classifyEmailError(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return "CIRCUIT_OPEN"
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline"):
		return "TIMEOUT"
	case strings.Contains(msg, "connection refused") || strings.Contains(msg, "no such host"):
		return "CONNECTION_FAILED"
	case strings.Contains(msg, "auth"):
		return "AUTH_FAILED"
	case strings.Contains(msg, "starttls") || strings.Contains(msg, "tls"):
		return "TLS_FAILED"
	case strings.Contains(msg, "550") || strings.Contains(msg, "mailbox"):
		return "RECIPIENT_REJECTED"
	default:
		return "DELIVERY_FAILED"
	}
}

// IsTransientEmailError reports whether the failure is worth retrying.
func IsTransientEmailError(err error) bool {
	switch classifyEmailError(err) {
	case "TIMEOUT", "CONNECTION_FAILED", "CIRCUIT_OPEN":
		return true
	}
	return false
}
