package notify

import (
	"context"
	"crypto/tls"
	"errors"
	"net/smtp"
	"net/textproto"
	"strings"
	"time"

	"github.com/jordan-wright/email"
	"github.com/knadh/smtppool"
	"github.com/moksh-codedeveloper/E-Commerce-app-BE/config"
)

// MailSender delivers an HTML email to a single recipient.
type MailSender interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// SMTPMailSender sends mail through a pooled SMTP connection.
type SMTPMailSender struct {
	pool        *smtppool.Pool
	from        string
	sendTimeout time.Duration
}

func NewSMTPMailSender(cfg config.SMTPConfig) (*SMTPMailSender, error) {
	if strings.TrimSpace(cfg.Host) == "" {
		return nil, errors.New("smtp host is required")
	}

	var auth smtp.Auth
	if cfg.Username != "" || cfg.Password != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}

	sendTimeout := time.Duration(cfg.SendTimeout) * time.Second

	pool, err := smtppool.New(smtppool.Opt{
		Host:            cfg.Host,
		Port:            cfg.Port,
		MaxConns:        cfg.MaxConns,
		IdleTimeout:     sendTimeout,
		PoolWaitTimeout: sendTimeout,
		TLSConfig:       &tls.Config{ServerName: cfg.Host},
		Auth:            auth,
	})
	if err != nil {
		return nil, err
	}

	return &SMTPMailSender{
		pool:        pool,
		from:        cfg.From,
		sendTimeout: sendTimeout,
	}, nil
}

func (s *SMTPMailSender) Send(ctx context.Context, to, subject, htmlBody string) error {
	e := &email.Email{
		To:      []string{to},
		From:    s.from,
		Subject: subject,
		HTML:    []byte(htmlBody),
		Headers: textproto.MIMEHeader{},
	}
	return s.pool.Send(e, s.sendTimeout)
}
