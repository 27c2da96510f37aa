package kafka

import (
	"testing"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
)

func TestMapMessageToRawMessage(t *testing.T) {
	msg := kafkago.Message{
		Key:       []byte("arr/1910-27"),
		Value:     []byte(`{"device":"arr/1910-27","sampling":1714100400}`),
		Topic:     "raw-periodic",
		Partition: 2,
		Offset:    1042,
	}

	raw := mapMessageToRawMessage(msg)

	assert.Equal(t, msg.Key, raw.Key)
	assert.Equal(t, msg.Value, raw.Value)
	assert.Equal(t, "raw-periodic", raw.Topic)
	assert.Equal(t, 2, raw.Partition)
	assert.Equal(t, int64(1042), raw.Offset)
	assert.Nil(t, raw.Commit)
}
