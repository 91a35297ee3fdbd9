package testutil

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// MailpitClient reads mail captured by a Mailpit container.
type MailpitClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewMailpitClient creates a Mailpit API client for baseURL.
func NewMailpitClient(baseURL string) *MailpitClient {
	return &MailpitClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// MailpitMessage is a captured message summary.
type MailpitMessage struct {
	ID      string           `json:"ID"`
	From    MailpitAddress   `json:"From"`
	To      []MailpitAddress `json:"To"`
	Subject string           `json:"Subject"`
	Snippet string           `json:"Snippet"`
	HTML    string           `json:"HTML"`
}

// MailpitAddress is a message address.
type MailpitAddress struct {
	Address string `json:"Address"`
	Name    string `json:"Name"`
}

type messagesResponse struct {
	Messages []MailpitMessage `json:"messages"`
	Total    int              `json:"messages_count"`
}

// GetMessages returns all messages in the inbox, newest first.
func (c *MailpitClient) GetMessages() ([]MailpitMessage, error) {
	var result messagesResponse
	if err := c.getJSON("/api/v1/messages", &result); err != nil {
		return nil, fmt.Errorf("get messages: %w", err)
	}
	return result.Messages, nil
}

// GetMessage returns a single message including its HTML body.
func (c *MailpitClient) GetMessage(id string) (*MailpitMessage, error) {
	var msg MailpitMessage
	if err := c.getJSON("/api/v1/message/"+id, &msg); err != nil {
		return nil, fmt.Errorf("get message: %w", err)
	}
	return &msg, nil
}

// MessagesTo returns the messages addressed to address.
func (c *MailpitClient) MessagesTo(address string) ([]MailpitMessage, error) {
	messages, err := c.GetMessages()
	if err != nil {
		return nil, err
	}

	var result []MailpitMessage
	for _, m := range messages {
		for _, to := range m.To {
			if to.Address == address {
				result = append(result, m)
				break
			}
		}
	}
	return result, nil
}

// DeleteAllMessages clears the inbox.
func (c *MailpitClient) DeleteAllMessages() error {
	req, err := http.NewRequest(http.MethodDelete, c.baseURL+"/api/v1/messages", nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("delete messages: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("delete messages: status %d", resp.StatusCode)
	}
	return nil
}

func (c *MailpitClient) getJSON(path string, v interface{}) error {
	resp, err := c.httpClient.Get(c.baseURL + path)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("status %d: %s", resp.StatusCode, body)
	}

	return json.NewDecoder(resp.Body).Decode(v)
}
