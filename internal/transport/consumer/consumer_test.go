package consumer

import (
	"context"
	"errors"
	"testing"

	"github.com/corray333/backend-labs/pos/internal/service/models/notification"
	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ackRecorder struct {
	acked   int
	nacked  int
	requeue bool
}

func (a *ackRecorder) Ack(uint64, bool) error {
	a.acked++

	return nil
}

func (a *ackRecorder) Nack(_ uint64, _ bool, requeue bool) error {
	a.nacked++
	a.requeue = requeue

	return nil
}

func (a *ackRecorder) Reject(uint64, bool) error {
	return nil
}

type serviceStub struct {
	got []notification.OrderReady
	err error
}

func (s *serviceStub) Deliver(_ context.Context, n notification.OrderReady) error {
	s.got = append(s.got, n)

	return s.err
}

func TestConsumer_ProcessMessage(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		serviceErr  error
		wantAcked   int
		wantNacked  int
		wantRequeue bool
		wantOrderID string
	}{
		{
			name:        "delivered",
			body:        `{"orderId":"o-1","tableId":"4","totalCents":1200}`,
			wantAcked:   1,
			wantOrderID: "o-1",
		},
		{
			name:       "malformed body is dropped",
			body:       `{"orderId":`,
			wantNacked: 1,
		},
		{
			name:        "delivery failure is requeued",
			body:        `{"orderId":"o-2"}`,
			serviceErr:  errors.New("hub closed"),
			wantNacked:  1,
			wantRequeue: true,
			wantOrderID: "o-2",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ack := &ackRecorder{}
			svc := &serviceStub{err: tt.serviceErr}
			c := &Consumer{service: svc}

			err := c.processMessage(context.Background(), amqp.Delivery{
				Acknowledger: ack,
				Body:         []byte(tt.body),
			})
			require.NoError(t, err)

			assert.Equal(t, tt.wantAcked, ack.acked)
			assert.Equal(t, tt.wantNacked, ack.nacked)
			assert.Equal(t, tt.wantRequeue, ack.requeue)
			if tt.wantOrderID != "" {
				require.Len(t, svc.got, 1)
				assert.Equal(t, tt.wantOrderID, svc.got[0].OrderID)
			} else {
				assert.Empty(t, svc.got)
			}
		})
	}
}
