//go:build integration

package app_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/study-on/billing/internal/testutil"
)

// registerUser registers a fresh user and returns an authenticated client.
func registerUser(t *testing.T) (*testutil.Client, string) {
	t.Helper()

	client := newTestClient(t)
	email := testutil.RandomEmail()

	resp, err := client.POST("/api/v1/register", map[string]string{
		"username": email,
		"password": "password",
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var result struct {
		Token string `json:"token"`
	}
	testutil.DecodeJSON(t, resp, &result)
	client.Token = result.Token
	return client, email
}

// adminClient returns a client logged in as the super admin.
func adminClient(t *testing.T) *testutil.Client {
	t.Helper()
	client := newTestClient(t)
	client.LoginAs(t, adminEmail, adminPassword)
	return client
}

// createCourse creates a course as admin and returns its code.
func createCourse(t *testing.T, tier string, price *float64) string {
	t.Helper()

	code := testutil.RandomCode(tier)
	payload := map[string]interface{}{
		"code":  code,
		"title": "Course " + code,
		"type":  tier,
	}
	if price != nil {
		payload["price"] = *price
	}

	resp, err := adminClient(t).POST("/api/v1/courses/", payload)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode, testutil.ReadBody(t, resp))
	return code
}

func float(v float64) *float64 {
	return &v
}
