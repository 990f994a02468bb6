package event

import (
	"context"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prohotelai/AI-HOTEL-ASSISTANT-sub002/internal/domain/integration"
)

// fakeKafkaWriter implements messageWriter for tests
type fakeKafkaWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (f *fakeKafkaWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeKafkaWriter) Close() error {
	f.closed = true
	return nil
}

func TestKafkaNotifier_Emit(t *testing.T) {
	w := &fakeKafkaWriter{}
	k := NewKafkaNotifierWith(w)
	payload := testPayload()

	require.NoError(t, k.Emit(context.Background(), integration.EventSyncCompleted, payload))
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, payload.HotelID.String(), string(msg.Key))
	assert.Equal(t, payload.Timestamp, msg.Time)
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, HeaderEventName, msg.Headers[0].Key)
	assert.Equal(t, integration.EventSyncCompleted, string(msg.Headers[0].Value))

	n, err := Deserialize(msg.Value)
	require.NoError(t, err)
	assert.Equal(t, integration.EventSyncCompleted, n.Name)
	assert.Equal(t, payload.SyncID, n.Payload.SyncID)
	assert.Equal(t, payload.HotelID, n.Payload.HotelID)

	require.NoError(t, k.Close())
	assert.True(t, w.closed)
}

func TestKafkaNotifier_WriteFailure(t *testing.T) {
	k := NewKafkaNotifierWith(&fakeKafkaWriter{err: errors.New("leader not available")})

	err := k.Emit(context.Background(), integration.EventSyncFailed, testPayload())
	assert.EqualError(t, err, "publish pms.sync.failed: leader not available")
}

func TestNewKafkaNotifier_Validation(t *testing.T) {
	_, err := NewKafkaNotifier(nil, "pms-events")
	assert.Error(t, err)

	_, err = NewKafkaNotifier([]string{"localhost:9092"}, "")
	assert.Error(t, err)

	k, err := NewKafkaNotifier([]string{"localhost:9092"}, "pms-events")
	require.NoError(t, err)
	assert.NoError(t, k.Close())
}

func TestDeserialize_Rejects(t *testing.T) {
	_, err := Deserialize([]byte("not json"))
	assert.Error(t, err)

	_, err = Deserialize([]byte(`{"payload":{}}`))
	assert.EqualError(t, err, "notification has no name")
}
