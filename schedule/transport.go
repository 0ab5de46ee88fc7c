package schedule

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
)

// Message is one rendered email ready for delivery.
type Message struct {
	To       string
	Subject  string
	HTMLBody string
}

// Transport delivers rendered emails. Implementations must honor the
// context deadline; the sweeper bounds every send with a per-call timeout.
type Transport interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPTransport sends HTML mail over implicit TLS (port 465 style).
type SMTPTransport struct {
	host     string
	port     string
	username string
	password string
	from     string
}

func NewSMTPTransport(host, port, username, password, from string) *SMTPTransport {
	if from == "" {
		from = username
	}
	return &SMTPTransport{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
	}
}

func (t *SMTPTransport) Send(ctx context.Context, msg Message) error {
	if msg.To == "" {
		return fmt.Errorf("schedule: send missing recipient")
	}

	payload := []byte(
		fmt.Sprintf("From: %s\r\n", t.from) +
			fmt.Sprintf("To: %s\r\n", msg.To) +
			fmt.Sprintf("Subject: %s\r\n", msg.Subject) +
			"MIME-Version: 1.0\r\n" +
			"Content-Type: text/html; charset=\"utf-8\"\r\n" +
			"\r\n" +
			msg.HTMLBody,
	)

	addr := net.JoinHostPort(t.host, t.port)
	dialer := tls.Dialer{Config: &tls.Config{ServerName: t.host}}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("schedule: smtp dial: %w", err)
	}
	defer conn.Close()

	// The context deadline also bounds the SMTP conversation itself.
	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetDeadline(deadline); err != nil {
			return fmt.Errorf("schedule: smtp deadline: %w", err)
		}
	}

	client, err := smtp.NewClient(conn, t.host)
	if err != nil {
		return fmt.Errorf("schedule: smtp client: %w", err)
	}
	defer client.Quit()

	auth := smtp.PlainAuth("", t.username, t.password, t.host)
	if err := client.Auth(auth); err != nil {
		return fmt.Errorf("schedule: smtp auth: %w", err)
	}

	if err := client.Mail(t.from); err != nil {
		return fmt.Errorf("schedule: smtp mail: %w", err)
	}
	if err := client.Rcpt(msg.To); err != nil {
		return fmt.Errorf("schedule: smtp rcpt: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("schedule: smtp data: %w", err)
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("schedule: smtp write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("schedule: smtp close: %w", err)
	}

	return nil
}
