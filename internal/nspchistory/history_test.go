package nspchistory

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ntrak-go/nspccore/internal/nspc"
)

func addTrackCmd(desc string) Command {
	return NewEditCommand(desc, func(song *nspc.Song) bool {
		song.Tracks = append(song.Tracks, nspc.Track{ID: int32(len(song.Tracks)), Events: []nspc.Entry{{ID: song.AllocEventID(), Event: nspc.Event{Kind: nspc.EventEnd}}}})
		return true
	})
}

func TestDoThenUndoRestoresPriorState(t *testing.T) {
	h := New(0)
	song := nspc.NewEmptySong(1)

	assert.True(t, h.Do(song, addTrackCmd("add track")))
	assert.Len(t, song.Tracks, 1)

	assert.True(t, h.Undo(song))
	assert.Empty(t, song.Tracks)
	assert.False(t, h.Undo(song))
}

func TestRedoReappliesCommand(t *testing.T) {
	h := New(0)
	song := nspc.NewEmptySong(1)

	h.Do(song, addTrackCmd("add track"))
	h.Undo(song)

	assert.True(t, h.Redo(song))
	assert.Len(t, song.Tracks, 1)
	assert.False(t, h.Redo(song))
}

func TestDoWithNoEffectIsNotRecorded(t *testing.T) {
	h := New(0)
	song := nspc.NewEmptySong(1)
	noop := NewEditCommand("noop", func(song *nspc.Song) bool { return false })

	assert.False(t, h.Do(song, noop))
	assert.False(t, h.CanUndo())
}

func TestNewCommandAfterUndoDiscardsRedoTail(t *testing.T) {
	h := New(0)
	song := nspc.NewEmptySong(1)

	h.Do(song, addTrackCmd("first"))
	h.Undo(song)
	h.Do(song, addTrackCmd("second"))

	assert.False(t, h.CanRedo())
}

func TestGroupUndoesAllChildrenTogether(t *testing.T) {
	h := New(0)
	song := nspc.NewEmptySong(1)

	h.BeginGroup("add two tracks")
	h.Do(song, addTrackCmd("first"))
	h.Do(song, addTrackCmd("second"))
	h.EndGroup()

	assert.Len(t, song.Tracks, 2)
	assert.True(t, h.Undo(song))
	assert.Empty(t, song.Tracks)
}

func TestEmptyGroupIsDiscarded(t *testing.T) {
	h := New(0)
	h.BeginGroup("nothing")
	h.EndGroup()
	assert.False(t, h.CanUndo())
}

func TestTransactionClosesOnDefer(t *testing.T) {
	h := New(0)
	song := nspc.NewEmptySong(1)

	func() {
		tx := h.BeginTransaction("batch")
		defer tx.Close()
		h.Do(song, addTrackCmd("first"))
	}()

	assert.True(t, h.CanUndo())
	assert.True(t, h.Undo(song))
	assert.Empty(t, song.Tracks)
}

func TestHistoryRespectsMaxEntries(t *testing.T) {
	h := New(2)
	song := nspc.NewEmptySong(1)

	h.Do(song, addTrackCmd("a"))
	h.Do(song, addTrackCmd("b"))
	h.Do(song, addTrackCmd("c"))

	undone := 0
	for h.Undo(song) {
		undone++
	}
	assert.Equal(t, 2, undone)
}
