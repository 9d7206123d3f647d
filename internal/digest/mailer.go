package digest

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net"
	"net/smtp"
	"strconv"
	"strings"

	"marquee/internal/config"
	"marquee/internal/logging"
	"marquee/internal/services"
)

// Mailer delivers the digest over SMTP with implicit TLS (port 465
// style). The body is sent as text/html so mail clients that render
// markdown-ish content keep the links clickable.
type Mailer struct {
	host      string
	port      int
	sender    string
	password  string
	recipient string
	logger    *slog.Logger
}

func NewMailer(cfg config.Email, logger *slog.Logger) *Mailer {
	return &Mailer{
		host:      cfg.SMTPHost,
		port:      cfg.SMTPPort,
		sender:    cfg.SenderAddress,
		password:  cfg.SenderPassword,
		recipient: cfg.Recipient,
		logger:    logging.NewComponentLogger(logger, "digest"),
	}
}

// Send connects, authenticates, and delivers one message. The context
// bounds the dial; SMTP conversation timeouts ride on the connection
// deadline.
func (m *Mailer) Send(ctx context.Context, subject, body string) error {
	addr := net.JoinHostPort(m.host, strconv.Itoa(m.port))

	dialer := &tls.Dialer{NetDialer: &net.Dialer{}}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return services.Wrap(services.ErrSourceUnavailable, "digest", "dial smtp", addr, err)
	}

	client, err := smtp.NewClient(conn, m.host)
	if err != nil {
		conn.Close()
		return services.Wrap(services.ErrSourceUnavailable, "digest", "smtp handshake", addr, err)
	}
	defer client.Close()

	auth := smtp.PlainAuth("", m.sender, m.password, m.host)
	if err := client.Auth(auth); err != nil {
		return services.Wrap(services.ErrSourceUnavailable, "digest", "smtp auth", m.sender, err)
	}
	if err := client.Mail(m.sender); err != nil {
		return services.Wrap(services.ErrSourceUnavailable, "digest", "smtp mail", m.sender, err)
	}
	if err := client.Rcpt(m.recipient); err != nil {
		return services.Wrap(services.ErrSourceUnavailable, "digest", "smtp rcpt", m.recipient, err)
	}

	writer, err := client.Data()
	if err != nil {
		return services.Wrap(services.ErrSourceUnavailable, "digest", "smtp data", addr, err)
	}
	if _, err := writer.Write([]byte(m.buildMessage(subject, body))); err != nil {
		writer.Close()
		return services.Wrap(services.ErrSourceUnavailable, "digest", "smtp write", addr, err)
	}
	if err := writer.Close(); err != nil {
		return services.Wrap(services.ErrSourceUnavailable, "digest", "smtp close", addr, err)
	}

	m.logger.Info("digest email sent",
		logging.String("recipient", m.recipient),
		logging.String("subject", subject))
	return client.Quit()
}

func (m *Mailer) buildMessage(subject, body string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", m.sender)
	fmt.Fprintf(&b, "To: %s\r\n", m.recipient)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	b.WriteString("\r\n")
	return b.String()
}
