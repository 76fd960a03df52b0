package email

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Alijeyrad/medicenter_backend/config"
)

func TestNew_SelectsProvider(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.EmailConfig
		want    string
		wantErr bool
	}{
		{name: "default is smtp", cfg: config.EmailConfig{}, want: "*email.SMTPClient"},
		{name: "sendgrid", cfg: config.EmailConfig{Provider: "SendGrid", SendGrid: config.SendGridConfig{APIKey: "k"}}, want: "*email.SendGridClient"},
		{name: "sendgrid without key", cfg: config.EmailConfig{Enabled: true, Provider: "sendgrid"}, wantErr: true},
		{name: "unknown", cfg: config.EmailConfig{Provider: "pigeon"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewFromCentral(tt.cfg, "medicenter")
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := typeName(s); got != tt.want {
				t.Errorf("sender type = %s, want %s", got, tt.want)
			}
		})
	}
}

func typeName(s Sender) string {
	switch s.(type) {
	case *SMTPClient:
		return "*email.SMTPClient"
	case *SendGridClient:
		return "*email.SendGridClient"
	default:
		return "unknown"
	}
}

func TestSend_Disabled(t *testing.T) {
	for _, s := range []Sender{NewSMTP(Config{}), &SendGridClient{cfg: Config{}}} {
		err := s.Send(context.Background(), Message{To: []string{"a@b.c"}, Subject: "s", TextBody: "b"})
		if !errors.Is(err, ErrDisabled) {
			t.Errorf("%T: expected ErrDisabled, got %v", s, err)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		from string
		msg  Message
		// field is the InvalidMessageError field, empty when valid
		field string
	}{
		{"valid", "clinic@example.com", Message{To: []string{"p@example.com"}, Subject: "Hi", TextBody: "x"}, ""},
		{"missing from", "", Message{To: []string{"p@example.com"}, Subject: "Hi", TextBody: "x"}, "from"},
		{"blank recipients", "c@example.com", Message{To: []string{" "}, Subject: "Hi", TextBody: "x"}, "recipient"},
		{"missing subject", "c@example.com", Message{To: []string{"p@example.com"}, TextBody: "x"}, "subject"},
		{"missing body", "c@example.com", Message{To: []string{"p@example.com"}, Subject: "Hi"}, "body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validate(tt.from, tt.msg)
			if tt.field == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			var invalid *InvalidMessageError
			if !errors.As(err, &invalid) {
				t.Fatalf("expected InvalidMessageError, got %v", err)
			}
			if invalid.Field != tt.field {
				t.Errorf("field = %q, want %q", invalid.Field, tt.field)
			}
		})
	}
}

func TestBuildNotificationEmail_EscapesHTML(t *testing.T) {
	m := BuildNotificationEmail(NotificationData{
		To:        "p@example.com",
		Name:      "<script>",
		Subject:   "Appointment confirmed",
		Paragraph: []string{"Token 4 & session MC0001-S001"},
	})

	if m.To[0] != "p@example.com" || m.Subject != "Appointment confirmed" {
		t.Fatalf("unexpected envelope: %+v", m)
	}
	if strings.Contains(m.HTMLBody, "<script>") {
		t.Error("html body must escape the recipient name")
	}
	if !strings.Contains(m.HTMLBody, "Token 4 &amp; session") {
		t.Error("html body must escape paragraphs")
	}
	if !strings.Contains(m.TextBody, "Hi <script>,") {
		t.Error("text body keeps the raw name")
	}
}

func TestSendError_Unwraps(t *testing.T) {
	err := error(&SendError{Provider: ProviderSendGrid, Err: context.DeadlineExceeded})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("SendError must unwrap to its cause, got %v", err)
	}
	if got := err.Error(); got != "email: sendgrid: context deadline exceeded" {
		t.Errorf("Error() = %q", got)
	}
}
