package email

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net"
	"net/smtp"
	"strings"

	"github.com/resend/resend-go/v2"
	"github.com/samber/oops"
)

const (
	TransportLog    = "log"
	TransportResend = "resend"
	TransportSMTP   = "smtp"
)

type Sender interface {
	Send(ctx context.Context, from, to, subject, body string) error
}

// LogSender logs emails instead of sending them — used in ENV=local.
type LogSender struct {
	logger *slog.Logger
}

func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(ctx context.Context, from, to, subject, body string) error {
	s.logger.InfoContext(ctx, "email (log transport)", "from", from, "to", to, "subject", subject, "body", body)
	return nil
}

// ResendSender sends plain-text emails via the Resend API.
type ResendSender struct {
	client *resend.Client
}

func NewResendSender(apiKey string) *ResendSender {
	return &ResendSender{client: resend.NewClient(apiKey)}
}

func (s *ResendSender) Send(ctx context.Context, from, to, subject, body string) error {
	params := &resend.SendEmailRequest{
		From:    from,
		To:      []string{to},
		Subject: subject,
		Text:    body,
	}
	_, err := s.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		return oops.Code("MAIL_SEND_FAILED").With("transport", TransportResend).Wrap(err)
	}
	return nil
}

type SMTPConfig struct {
	Host string
	Port string
	User string
	Pass string
	// UseTLS dials with implicit TLS (port 465 style) instead of plain SMTP
	// with opportunistic STARTTLS.
	UseTLS bool
}

type SMTPSender struct {
	cfg    SMTPConfig
	dialer net.Dialer
}

func NewSMTPSender(cfg SMTPConfig) *SMTPSender {
	return &SMTPSender{cfg: cfg}
}

func (s *SMTPSender) Send(ctx context.Context, from, to, subject, body string) error {
	err := s.send(ctx, from, to, buildMessage(from, to, subject, body))
	if err != nil {
		return oops.Code("MAIL_SEND_FAILED").
			With("transport", TransportSMTP).
			With("host", s.cfg.Host).
			Wrap(err)
	}
	return nil
}

func (s *SMTPSender) send(ctx context.Context, from, to string, msg []byte) error {
	addr := net.JoinHostPort(s.cfg.Host, s.cfg.Port)

	var (
		conn net.Conn
		err  error
	)
	if s.cfg.UseTLS {
		td := tls.Dialer{NetDialer: &s.dialer, Config: &tls.Config{ServerName: s.cfg.Host, MinVersion: tls.VersionTLS12}}
		conn, err = td.DialContext(ctx, "tcp", addr)
	} else {
		conn, err = s.dialer.DialContext(ctx, "tcp", addr)
	}
	if err != nil {
		return fmt.Errorf("dial smtp: %w", err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	c, err := smtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer c.Close()

	if !s.cfg.UseTLS {
		if ok, _ := c.Extension("STARTTLS"); ok {
			if err := c.StartTLS(&tls.Config{ServerName: s.cfg.Host, MinVersion: tls.VersionTLS12}); err != nil {
				return fmt.Errorf("starttls: %w", err)
			}
		}
	}
	if s.cfg.User != "" {
		if err := c.Auth(smtp.PlainAuth("", s.cfg.User, s.cfg.Pass, s.cfg.Host)); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}
	if err := c.Mail(from); err != nil {
		return fmt.Errorf("smtp mail from: %w", err)
	}
	if err := c.Rcpt(to); err != nil {
		return fmt.Errorf("smtp rcpt: %w", err)
	}
	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}
	_, err = w.Write(msg)
	if closeErr := w.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("smtp write: %w", err)
	}
	return c.Quit()
}

func buildMessage(from, to, subject, body string) []byte {
	headers := [][2]string{
		{"From", from},
		{"To", to},
		{"Subject", subject},
		{"MIME-Version", "1.0"},
		{"Content-Type", `text/plain; charset="utf-8"`},
	}

	var msg strings.Builder
	for _, h := range headers {
		fmt.Fprintf(&msg, "%s: %s\r\n", h[0], stripCRLF(h[1]))
	}
	msg.WriteString("\r\n")
	msg.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	return []byte(msg.String())
}

func stripCRLF(s string) string {
	return strings.NewReplacer("\r", "", "\n", "").Replace(s)
}

type Options struct {
	Transport    string
	ResendAPIKey string
	SMTP         SMTPConfig
}

// NewSender picks the transport named by opts.Transport.
func NewSender(opts Options, logger *slog.Logger) (Sender, error) {
	switch opts.Transport {
	case TransportLog, "":
		return NewLogSender(logger), nil
	case TransportResend:
		if opts.ResendAPIKey == "" {
			return nil, oops.Code("MAIL_CONFIG_INVALID").Errorf("resend transport requires an API key")
		}
		return NewResendSender(opts.ResendAPIKey), nil
	case TransportSMTP:
		if opts.SMTP.Host == "" {
			return nil, oops.Code("MAIL_CONFIG_INVALID").Errorf("smtp transport requires a host")
		}
		return NewSMTPSender(opts.SMTP), nil
	default:
		return nil, oops.Code("MAIL_CONFIG_INVALID").Errorf("unknown mail transport %q", opts.Transport)
	}
}
