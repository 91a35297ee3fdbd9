package postgres

import (
	"context"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalcBackoff(t *testing.T) {
	assert.Equal(t, 1*time.Second, calcBackoff(1))
	assert.Equal(t, 2*time.Second, calcBackoff(2))
	assert.Equal(t, 8*time.Second, calcBackoff(4))
	assert.Equal(t, 16*time.Second, calcBackoff(5))
	assert.Equal(t, 16*time.Second, calcBackoff(10))
}

func TestSleep_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.False(t, sleep(ctx, time.Minute))
}

func TestConnect_InvalidURL(t *testing.T) {
	_, err := Connect(context.Background(), Config{URL: "://not-a-url"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse database url")
}

func TestMigrate_UnknownDirection(t *testing.T) {
	source := fstest.MapFS{
		"000001_init.up.sql":   {Data: []byte("SELECT 1;")},
		"000001_init.down.sql": {Data: []byte("SELECT 1;")},
	}

	err := Migrate("postgres://localhost:1/none?sslmode=disable", source, "sideways")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown migration direction")
}
