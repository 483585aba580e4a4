package broadcast_test

import (
	"testing"

	"github.com/corray333/backend-labs/pos/internal/service/broadcast"
	"github.com/stretchr/testify/assert"
)

func TestHub_PublishSubscribe(t *testing.T) {
	hub := broadcast.NewHub[int]()
	a, cancelA := hub.Subscribe(2)
	b, cancelB := hub.Subscribe(1)
	defer cancelA()

	assert.Equal(t, 0, hub.Publish(1))
	assert.Equal(t, 1, hub.Publish(2), "b is full")

	assert.Equal(t, 1, <-a)
	assert.Equal(t, 2, <-a)
	assert.Equal(t, 1, <-b)

	cancelB()
	cancelB()
	_, open := <-b
	assert.False(t, open)
	assert.Equal(t, 1, hub.Len())
	assert.Equal(t, 0, hub.Publish(3))
}
