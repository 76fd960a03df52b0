// Package notification delivers patient notifications over SMS and email.
// Delivery is best effort: failures are logged and counted, never returned
// to the operation that triggered them.
package notification

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/Alijeyrad/medicenter_backend/pkg/phone"
)

var tracer = otel.Tracer("medicenter.internal.notification")

// Sender performs the transport-level delivery of one message.
type Sender interface {
	SendSMS(ctx context.Context, to string, msg Message) error
	SendEmail(ctx context.Context, to string, msg Message) error
}

// Notifier is what business services depend on.
type Notifier interface {
	Notify(ctx context.Context, r Recipient, msg Message) int
}

type Recipient struct {
	Name  string
	Phone string
	Email string
}

type Dispatcher struct {
	sender  Sender
	region  string
	metrics *Metrics
	logger  *slog.Logger
}

func NewDispatcher(sender Sender, region string, metrics *Metrics, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{sender: sender, region: region, metrics: metrics, logger: logger}
}

// Notify sends msg by SMS when the recipient has a phone number and by email
// when it has an address. It returns the number of delivery attempts.
func (d *Dispatcher) Notify(ctx context.Context, r Recipient, msg Message) int {
	ctx, span := tracer.Start(ctx, "notification.Notify")
	defer span.End()
	span.SetAttributes(attribute.String("notification.kind", string(msg.Kind)))

	attempts := 0

	if r.Phone != "" {
		attempts++
		to, err := phone.Normalize(r.Phone, d.region)
		if err != nil {
			err = ErrInvalidPhone
		} else {
			err = d.sender.SendSMS(ctx, to, msg)
		}
		d.metrics.observe("sms", msg.Kind, err)
		if err != nil {
			d.logger.Warn("sms notification failed", "kind", msg.Kind, "err", err)
		}
	}

	if r.Email != "" {
		attempts++
		err := d.sender.SendEmail(ctx, r.Email, msg)
		d.metrics.observe("email", msg.Kind, err)
		if err != nil {
			d.logger.Warn("email notification failed", "kind", msg.Kind, "err", err)
		}
	}

	span.SetAttributes(attribute.Int("notification.attempts", attempts))
	return attempts
}
