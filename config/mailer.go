package config

import (
	"crypto/tls"
	"fmt"
	"os"
	"strconv"

	mail "github.com/go-mail/mail/v2"
)

type smtpConfig struct {
	host          string
	port          int
	username      string
	password      string
	from          string // e.g. "Document Approval System <no-reply@school.ac.th>"
	skipTLSVerify bool
}

// loadSMTPConfig resolves the SMTP settings at call time, after godotenv has
// populated the environment.
func loadSMTPConfig() smtpConfig {
	port, _ := strconv.Atoi(os.Getenv("SMTP_PORT"))
	if port == 0 {
		port = 587
	}
	return smtpConfig{
		host:          os.Getenv("SMTP_HOST"),
		port:          port,
		username:      os.Getenv("SMTP_USER"),
		password:      os.Getenv("SMTP_PASS"),
		from:          os.Getenv("SMTP_FROM"),
		skipTLSVerify: os.Getenv("SMTP_SKIP_TLS_VERIFY") == "1",
	}
}

func SendMail(to []string, subject, html string) error {
	if len(to) == 0 {
		return nil
	}

	cfg := loadSMTPConfig()
	if cfg.host == "" || cfg.from == "" {
		return fmt.Errorf("smtp not configured (SMTP_HOST/SMTP_FROM)")
	}

	m := mail.NewMessage()
	m.SetHeader("From", cfg.from)
	m.SetHeader("To", to...)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", html)

	d := mail.NewDialer(cfg.host, cfg.port, cfg.username, cfg.password)

	// Mandatory STARTTLS on port 587 (Gmail/Office365)
	d.StartTLSPolicy = mail.MandatoryStartTLS

	d.TLSConfig = &tls.Config{
		ServerName:         cfg.host,
		InsecureSkipVerify: cfg.skipTLSVerify, // dev only: set SMTP_SKIP_TLS_VERIFY=1 to skip cert checks
	}

	return d.DialAndSend(m)
}
