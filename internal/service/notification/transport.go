package notification

import (
	"context"
	"fmt"

	"github.com/Alijeyrad/medicenter_backend/config"
	"github.com/Alijeyrad/medicenter_backend/pkg/email"
	"github.com/Alijeyrad/medicenter_backend/pkg/sms"
)

// SMSClient is satisfied by *sms.Client.
type SMSClient interface {
	SendTemplate(ctx context.Context, phoneNumber, templateID string, params []sms.Param) error
}

// Transport is the production Sender: sms.ir templates for SMS and the
// configured email provider for email.
type Transport struct {
	sms       SMSClient
	mailer    email.Sender
	templates map[Kind]string
	appName   string
}

func NewTransport(smsClient SMSClient, mailer email.Sender, templates config.SMSTemplateConfig, appName string) *Transport {
	return &Transport{
		sms:    smsClient,
		mailer: mailer,
		templates: map[Kind]string{
			KindBookingConfirmed:     templates.BookingConfirmed,
			KindAppointmentCancelled: templates.AppointmentCancelled,
			KindSessionActivated:     templates.SessionActivated,
			KindSessionDeactivated:   templates.SessionDeactivated,
		},
		appName: appName,
	}
}

func (t *Transport) SendSMS(ctx context.Context, to string, msg Message) error {
	if t.sms == nil {
		return ErrSMSOff
	}
	templateID := t.templates[msg.Kind]
	if templateID == "" {
		return fmt.Errorf("%w: %s", ErrNoTemplate, msg.Kind)
	}
	return t.sms.SendTemplate(ctx, to, templateID, msg.Params)
}

func (t *Transport) SendEmail(ctx context.Context, to string, msg Message) error {
	if t.mailer == nil {
		return ErrEmailOff
	}
	name := ""
	for _, p := range msg.Params {
		if p.Key == "name" {
			name = p.Value
		}
	}
	return t.mailer.Send(ctx, email.BuildNotificationEmail(email.NotificationData{
		To:        to,
		Name:      name,
		Subject:   msg.Subject,
		Paragraph: msg.Lines,
		AppName:   t.appName,
	}))
}
