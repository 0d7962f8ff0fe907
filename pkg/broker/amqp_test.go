package broker

import (
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPublishing(t *testing.T) {
	now := time.Date(2024, 3, 4, 9, 0, 0, 0, time.FixedZone("EST", -5*3600))
	msg, err := newPublishing("reminder:2024-03-04:Smith:1:08:15", map[string]string{"family_name": "Smith"}, now)
	require.NoError(t, err)

	assert.Equal(t, "application/json", msg.ContentType)
	assert.Equal(t, amqp.Persistent, msg.DeliveryMode)
	assert.Equal(t, "reminder:2024-03-04:Smith:1:08:15", msg.MessageId)
	assert.Equal(t, time.UTC, msg.Timestamp.Location())
	assert.JSONEq(t, `{"family_name":"Smith"}`, string(msg.Body))
}

func TestNewPublishingRejectsUnmarshalable(t *testing.T) {
	_, err := newPublishing("id", make(chan int), time.Now())
	assert.Error(t, err)
}

func TestCloseNilPublisher(t *testing.T) {
	var p *Publisher
	assert.NoError(t, p.Close())
}
