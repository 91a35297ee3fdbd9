package sendgrid

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/study-on/billing/internal/mail"
)

func TestNewSender_Validation(t *testing.T) {
	_, err := NewSender(Config{FromAddress: "billing@example.com"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api key is required")

	_, err = NewSender(Config{APIKey: "key"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "from address is required")

	sender, err := NewSender(Config{APIKey: "key", FromAddress: "Study-On <billing@example.com>"})
	require.NoError(t, err)
	assert.Equal(t, defaultHost, sender.host)
	assert.Equal(t, "Study-On", sender.from.Name)
	assert.Equal(t, "billing@example.com", sender.from.Address)
}

func TestSender_Send(t *testing.T) {
	var got map[string]interface{}
	var auth string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, endpoint, r.URL.Path)
		auth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	sender, err := NewSender(Config{APIKey: "secret", FromAddress: "billing@example.com", Host: srv.URL})
	require.NoError(t, err)

	err = sender.Send(context.Background(), mail.Message{
		To:      "user@gmail.com",
		Subject: "Rental expiring",
		Body:    "<p>soon</p>",
		HTML:    true,
	})
	require.NoError(t, err)

	assert.Equal(t, "Bearer secret", auth)
	content := got["content"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "text/html", content["type"])
	assert.Equal(t, "<p>soon</p>", content["value"])
	personalization := got["personalizations"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "Rental expiring", personalization["subject"])
}

func TestSender_Send_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"errors":[{"message":"bad key"}]}`))
	}))
	defer srv.Close()

	sender, err := NewSender(Config{APIKey: "bad", FromAddress: "billing@example.com", Host: srv.URL})
	require.NoError(t, err)

	err = sender.Send(context.Background(), mail.Message{To: "user@gmail.com", Subject: "x", Body: "y"})
	assert.Error(t, err)
}
