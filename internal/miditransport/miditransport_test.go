package miditransport

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ntrak-go/nspccore/internal/nspc"
)

func TestMessagesForTickSendsStartOnHooksInstalledEdge(t *testing.T) {
	prev := transportState{}
	msgs, next := messagesForTick(prev, nspc.PlaybackSnapshot{HooksInstalled: true, PatternTick: 0})

	assert.Equal(t, [][]byte{{statusStart}, {statusTimingClock}}, msgs)
	assert.True(t, next.hooksInstalled)
}

func TestMessagesForTickSendsStopOnHooksUninstalledEdge(t *testing.T) {
	prev := transportState{hooksInstalled: true, patternTick: 10}
	msgs, next := messagesForTick(prev, nspc.PlaybackSnapshot{HooksInstalled: false, PatternTick: 10})

	assert.Equal(t, [][]byte{{statusStop}}, msgs)
	assert.False(t, next.hooksInstalled)
}

func TestMessagesForTickSendsSongPositionOnBackwardJump(t *testing.T) {
	prev := transportState{hooksInstalled: true, patternTick: 50}
	msgs, _ := messagesForTick(prev, nspc.PlaybackSnapshot{HooksInstalled: true, PatternTick: 4})

	assert.Len(t, msgs, 2)
	assert.Equal(t, statusSongPositionPt, msgs[0][0])
	assert.Equal(t, []byte{statusTimingClock}, msgs[1])
}

func TestMessagesForTickSteadyStateIsJustClock(t *testing.T) {
	prev := transportState{hooksInstalled: true, patternTick: 5}
	msgs, _ := messagesForTick(prev, nspc.PlaybackSnapshot{HooksInstalled: true, PatternTick: 6})

	assert.Equal(t, [][]byte{{statusTimingClock}}, msgs)
}
