// Package mail defines outgoing mail messages and the sender abstraction
// used by batch jobs.
package mail

import (
	"context"
	"log/slog"
	"strings"
)

// Message is a single outgoing email.
type Message struct {
	To      string
	Subject string
	// Body is HTML when HTML is set, plain text otherwise.
	Body string
	HTML bool
}

// ContentType returns the MIME type of the body.
func (m Message) ContentType() string {
	if m.HTML {
		return "text/html"
	}
	return "text/plain"
}

// Sender delivers messages.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// DisabledSender logs messages instead of sending them.
type DisabledSender struct{}

// Send logs the message envelope.
func (DisabledSender) Send(_ context.Context, msg Message) error {
	slog.Warn("mail transport disabled, skipping send",
		"to", msg.To,
		"subject", msg.Subject,
	)
	return nil
}

// ExtractAddress extracts the address from formats like "Name <email@example.com>".
func ExtractAddress(address string) string {
	if idx := strings.Index(address, "<"); idx != -1 {
		end := strings.Index(address, ">")
		if end > idx {
			return address[idx+1 : end]
		}
	}
	return address
}

// DisplayName extracts the name from "Name <email@example.com>", or "".
func DisplayName(address string) string {
	if idx := strings.Index(address, "<"); idx > 0 {
		return strings.TrimSpace(address[:idx])
	}
	return ""
}
