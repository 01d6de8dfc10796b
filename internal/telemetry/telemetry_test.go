package telemetry

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ntrak-go/nspccore/internal/nspc"
)

func TestPublishSkipsWhenEventSerialUnchanged(t *testing.T) {
	var state nspc.PlaybackTrackingState
	b := NewBroadcaster("localhost", 9999, "/nspc/tracking")

	assert.True(t, b.Publish(&state))
	assert.False(t, b.Publish(&state))

	state.EventSerial.Store(1)
	assert.True(t, b.Publish(&state))
	assert.False(t, b.Publish(&state))
}
