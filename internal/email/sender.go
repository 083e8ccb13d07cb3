package email

import "context"

// Message is one outbound transactional email.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Sender delivers transactional email and returns the provider message id.
// A failed send after a confirmed purchase must be surfaced by the caller,
// never swallowed.
type Sender interface {
	Send(ctx context.Context, msg Message) (string, error)
}
