package email

import "context"

type Message struct {
	To       []string
	CC       []string
	BCC      []string
	Subject  string
	TextBody string
	HTMLBody string
	Headers  map[string]string
}

// Sender delivers a single message through one provider.
type Sender interface {
	Send(ctx context.Context, m Message) error
}
