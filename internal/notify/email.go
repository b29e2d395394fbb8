package notify

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strings"
)

// Email delivers through SMTP. use_ssl "true" selects implicit TLS
// (ports like 465); anything else goes through smtp.SendMail, which
// upgrades to STARTTLS when the server offers it.
func Email(ctx context.Context, config map[string]string, msg Message) error {
	host := config["smtp_host"]
	if host == "" {
		return errors.New("email: smtp_host not configured")
	}
	port := config["smtp_port"]
	if port == "" {
		port = "25"
	}
	from := config["from_email"]
	to := config["to_email"]
	if from == "" || to == "" {
		return errors.New("email: from_email and to_email required")
	}

	body := "<h3>" + msg.Title + "</h3><p>" +
		strings.ReplaceAll(msg.Content, "\n", "<br>") + "</p>"
	data := strings.Join([]string{
		"From: " + from,
		"To: " + to,
		"Subject: " + msg.Title,
		"MIME-Version: 1.0",
		"Content-Type: text/html; charset=UTF-8",
		"",
		body,
	}, "\r\n")

	var auth smtp.Auth
	if user := config["smtp_user"]; user != "" {
		auth = smtp.PlainAuth("", user, config["smtp_pass"], host)
	}

	addr := net.JoinHostPort(host, port)
	if config["use_ssl"] == "true" {
		return sendMailTLS(ctx, addr, host, auth, from, to, []byte(data))
	}
	return smtp.SendMail(addr, auth, from, []string{to}, []byte(data))
}

// sendMailTLS is smtp.SendMail over an implicit-TLS connection, which
// the stdlib does not offer.
func sendMailTLS(ctx context.Context, addr, host string, auth smtp.Auth, from, to string, data []byte) error {
	d := tls.Dialer{Config: &tls.Config{ServerName: host}}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}

	c, err := smtp.NewClient(conn, host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer c.Close()

	if auth != nil {
		if err := c.Auth(auth); err != nil {
			return fmt.Errorf("auth: %w", err)
		}
	}
	if err := c.Mail(from); err != nil {
		return fmt.Errorf("mail from: %w", err)
	}
	if err := c.Rcpt(to); err != nil {
		return fmt.Errorf("rcpt to: %w", err)
	}
	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("data: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write body: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close body: %w", err)
	}
	return c.Quit()
}
