package email

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"
	"time"

	"gopkg.in/gomail.v2"

	"github.com/Alijeyrad/medicenter_backend/config"
)

// NewFromCentral builds the sender selected by email.provider.
func NewFromCentral(cfg config.EmailConfig, appName string) (Sender, error) {
	return New(FromCentralConfig(cfg, appName))
}

func New(cfg Config) (Sender, error) {
	switch cfg.Provider {
	case ProviderSMTP, "":
		return NewSMTP(cfg), nil
	case ProviderSendGrid:
		return NewSendGrid(cfg)
	default:
		return nil, fmt.Errorf("unknown email provider %q", cfg.Provider)
	}
}

// SMTPClient sends mail through an SMTP relay with gomail.
type SMTPClient struct {
	cfg Config
}

func NewSMTP(cfg Config) *SMTPClient {
	return &SMTPClient{cfg: cfg}
}

func (c *SMTPClient) Send(ctx context.Context, m Message) error {
	if !c.cfg.Enabled {
		return ErrDisabled
	}

	msg, err := buildMessage(c.cfg.From, c.cfg.FromName, m)
	if err != nil {
		return err
	}

	d := c.newDialer()

	done := make(chan error, 1)
	go func() {
		done <- d.DialAndSend(msg)
	}()

	// Respect ctx deadline if it's sooner than our config timeout.
	wait := c.cfg.SMTPTimeout()
	if dl, ok := ctx.Deadline(); ok {
		if d := time.Until(dl); d > 0 && d < wait {
			wait = d
		}
	}

	select {
	case err := <-done:
		if err != nil {
			return &SendError{Provider: ProviderSMTP, Err: err}
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(wait):
		return context.DeadlineExceeded
	}
}

func (c *SMTPClient) newDialer() *gomail.Dialer {
	d := gomail.NewDialer(c.cfg.SMTPHost, c.cfg.SMTPPort, c.cfg.SMTPUsername, c.cfg.SMTPPassword)

	d.SSL = c.cfg.SMTPUseTLS
	if c.cfg.SMTPUseTLS {
		d.TLSConfig = &tls.Config{ServerName: c.cfg.SMTPHost}
	}

	return d
}

func buildMessage(from, fromName string, m Message) (*gomail.Message, error) {
	if err := validate(from, m); err != nil {
		return nil, err
	}

	msg := gomail.NewMessage()
	if fromName != "" {
		msg.SetAddressHeader("From", strings.TrimSpace(from), fromName)
	} else {
		msg.SetHeader("From", strings.TrimSpace(from))
	}

	if len(m.To) > 0 {
		msg.SetHeader("To", cleanAddrs(m.To)...)
	}
	if len(m.CC) > 0 {
		msg.SetHeader("Cc", cleanAddrs(m.CC)...)
	}
	if len(m.BCC) > 0 {
		msg.SetHeader("Bcc", cleanAddrs(m.BCC)...)
	}
	msg.SetHeader("Subject", strings.TrimSpace(m.Subject))

	for k, v := range m.Headers {
		k = strings.TrimSpace(k)
		v = strings.TrimSpace(v)
		if k == "" || v == "" {
			continue
		}
		msg.SetHeader(k, v)
	}

	hasText := strings.TrimSpace(m.TextBody) != ""
	hasHTML := strings.TrimSpace(m.HTMLBody) != ""

	switch {
	case hasText && hasHTML:
		msg.SetBody("text/plain", m.TextBody)
		msg.AddAlternative("text/html", m.HTMLBody)
	case hasHTML:
		msg.SetBody("text/html", m.HTMLBody)
	default:
		msg.SetBody("text/plain", m.TextBody)
	}

	return msg, nil
}

// validate applies the checks shared by every provider.
func validate(from string, m Message) error {
	if strings.TrimSpace(from) == "" {
		return &InvalidMessageError{Field: "from"}
	}
	if len(cleanAddrs(m.To)) == 0 {
		return &InvalidMessageError{Field: "recipient"}
	}
	if strings.TrimSpace(m.Subject) == "" {
		return &InvalidMessageError{Field: "subject"}
	}
	if strings.TrimSpace(m.TextBody) == "" && strings.TrimSpace(m.HTMLBody) == "" {
		return &InvalidMessageError{Field: "body"}
	}
	return nil
}

func cleanAddrs(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		out = append(out, s)
	}
	return out
}
