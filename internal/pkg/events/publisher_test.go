package events

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithoutURLIsNop(t *testing.T) {
	p, err := New("", "cloud.events")
	require.NoError(t, err)

	_, ok := p.(NopPublisher)
	assert.True(t, ok)
	assert.NoError(t, p.Publish(context.Background(), Event{Type: TypeConnected}))
	p.Close()
}

func TestClosedNATSPublisherRejects(t *testing.T) {
	p := &NATSPublisher{subject: "cloud.events"}
	err := p.Publish(context.Background(), Event{Type: TypeNodeStart})
	assert.EqualError(t, err, "nats not connected")
}
