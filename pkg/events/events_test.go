package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeWriter is a test writer that records messages written.
type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestKafkaPublish(t *testing.T) {
	fw := &fakeWriter{}
	p := NewKafkaProducerWithWriter(fw, nil)

	err := p.Publish(context.Background(), New("shipment", "created", "s1", map[string]string{"reference": "SH-1"}))
	require.NoError(t, err)
	require.Len(t, fw.msgs, 1)

	msg := fw.msgs[0]
	assert.Equal(t, "s1", string(msg.Key))
	assert.Equal(t, "shipment.created", string(msg.Headers[0].Value))

	var decoded Event
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, "shipment", decoded.Entity)
	assert.Equal(t, "s1", decoded.ID)

	require.NoError(t, p.Close())
	assert.True(t, fw.closed)
}

func TestKafkaPublishWriteError(t *testing.T) {
	boom := errors.New("broker down")
	p := NewKafkaProducerWithWriter(&fakeWriter{err: boom}, nil)

	err := p.Publish(context.Background(), New("customer", "deleted", "c1", nil))
	assert.ErrorIs(t, err, boom)
}

type failing struct{ err error }

func (f failing) Publish(context.Context, Event) error { return f.err }
func (f failing) Close() error                         { return f.err }

func TestFanoutJoinsErrors(t *testing.T) {
	fw := &fakeWriter{}
	boom := errors.New("boom")
	f := Fanout{NewKafkaProducerWithWriter(fw, nil), failing{err: boom}, Nop{}}

	err := f.Publish(context.Background(), New("activity", "created", "a1", nil))
	assert.ErrorIs(t, err, boom)
	assert.Len(t, fw.msgs, 1)

	assert.ErrorIs(t, f.Close(), boom)
	assert.True(t, fw.closed)
}

func TestRabbitPublisherRejectsBadURL(t *testing.T) {
	p, err := NewRabbitPublisher("http://localhost:5672/", "logidash.changes")
	require.Error(t, err)
	assert.Nil(t, p)
	assert.Contains(t, err.Error(), "failed to dial rabbitmq")
}
