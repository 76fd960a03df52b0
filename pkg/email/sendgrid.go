package email

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// SendGridClient sends mail through the SendGrid v3 API.
type SendGridClient struct {
	cfg    Config
	client *sendgrid.Client
}

func NewSendGrid(cfg Config) (*SendGridClient, error) {
	if cfg.Enabled && cfg.SendGridAPIKey == "" {
		return nil, fmt.Errorf("sendgrid api key required when email enabled")
	}
	return &SendGridClient{cfg: cfg, client: sendgrid.NewSendClient(cfg.SendGridAPIKey)}, nil
}

func (c *SendGridClient) Send(ctx context.Context, m Message) error {
	if !c.cfg.Enabled {
		return ErrDisabled
	}
	if err := validate(c.cfg.From, m); err != nil {
		return err
	}

	from := mail.NewEmail(c.cfg.FromName, c.cfg.From)
	p := mail.NewPersonalization()
	for _, addr := range cleanAddrs(m.To) {
		p.AddTos(mail.NewEmail("", addr))
	}
	for _, addr := range cleanAddrs(m.CC) {
		p.AddCCs(mail.NewEmail("", addr))
	}
	for _, addr := range cleanAddrs(m.BCC) {
		p.AddBCCs(mail.NewEmail("", addr))
	}

	msg := mail.NewV3Mail()
	msg.SetFrom(from)
	msg.Subject = m.Subject
	msg.AddPersonalizations(p)
	if m.TextBody != "" {
		msg.AddContent(mail.NewContent("text/plain", m.TextBody))
	}
	if m.HTMLBody != "" {
		msg.AddContent(mail.NewContent("text/html", m.HTMLBody))
	}
	for k, v := range m.Headers {
		msg.SetHeader(k, v)
	}

	resp, err := c.client.SendWithContext(ctx, msg)
	if err != nil {
		return &SendError{Provider: ProviderSendGrid, Err: err}
	}
	if resp.StatusCode >= 400 {
		return &SendError{Provider: ProviderSendGrid, Err: fmt.Errorf("status %d: %s", resp.StatusCode, resp.Body)}
	}
	return nil
}
