package outbox_test

import (
	"errors"
	"testing"
	"time"

	"github.com/corray333/backend-labs/pos/internal/service/models/outbox"
	"github.com/stretchr/testify/assert"
)

func TestBackoff(t *testing.T) {
	base := 30 * time.Second
	assert.Equal(t, 30*time.Second, outbox.Backoff(base, 0))
	assert.Equal(t, 30*time.Second, outbox.Backoff(base, 1))
	assert.Equal(t, 60*time.Second, outbox.Backoff(base, 2))
	assert.Equal(t, 240*time.Second, outbox.Backoff(base, 4))
}

func TestNewMessage(t *testing.T) {
	now := time.Now()
	msg := outbox.NewMessage("ex", "rk", "application/json", []byte("{}"), errors.New("boom"), now)

	assert.Equal(t, "boom", msg.LastError)
	assert.Equal(t, now, msg.NextRetryAt)
	assert.False(t, msg.Exhausted())

	msg.RetryCount = msg.MaxRetries
	assert.True(t, msg.Exhausted())
}
