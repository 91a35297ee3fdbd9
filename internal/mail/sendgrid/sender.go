// Package sendgrid sends mail through the SendGrid v3 API.
package sendgrid

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/study-on/billing/internal/mail"
)

const (
	defaultHost = "https://api.sendgrid.com"
	endpoint    = "/v3/mail/send"
)

// Config holds SendGrid sender configuration.
type Config struct {
	APIKey      string
	FromAddress string
	// Host overrides the API host.
	Host string
}

// Sender implements mail.Sender via SendGrid.
type Sender struct {
	key  string
	host string
	from *sgmail.Email
}

// NewSender creates a new SendGrid sender.
func NewSender(config Config) (*Sender, error) {
	if config.APIKey == "" {
		return nil, errors.New("sendgrid sender: api key is required")
	}
	if config.FromAddress == "" {
		return nil, errors.New("sendgrid sender: from address is required")
	}

	host := config.Host
	if host == "" {
		host = defaultHost
	}

	return &Sender{
		key:  config.APIKey,
		host: host,
		from: sgmail.NewEmail(mail.DisplayName(config.FromAddress), mail.ExtractAddress(config.FromAddress)),
	}, nil
}

// Send delivers msg to its single recipient.
func (s *Sender) Send(ctx context.Context, msg mail.Message) error {
	req := sendgrid.GetRequest(s.key, endpoint, s.host)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(s.prepare(msg))

	res, err := sendgrid.MakeRequestWithContext(ctx, req)
	if err != nil {
		return fmt.Errorf("sendgrid request: %w", err)
	}
	if res.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("sendgrid: unexpected status %d: %s", res.StatusCode, res.Body)
	}
	return nil
}

func (s *Sender) prepare(msg mail.Message) *sgmail.SGMailV3 {
	p := sgmail.NewPersonalization()
	p.Subject = msg.Subject
	p.AddTos(sgmail.NewEmail(mail.DisplayName(msg.To), mail.ExtractAddress(msg.To)))

	m := sgmail.NewV3Mail()
	m.SetFrom(s.from)
	m.AddPersonalizations(p)
	m.AddContent(sgmail.NewContent(msg.ContentType(), msg.Body))

	return m
}
