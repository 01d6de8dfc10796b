package nspcui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"

	"github.com/ntrak-go/nspccore/internal/nspc"
	"github.com/ntrak-go/nspccore/internal/nspchistory"
)

func newTestDriver() *Driver {
	song := nspc.NewEmptySong(1)
	song.Patterns = append(song.Patterns, nspc.Pattern{ID: 0})
	return NewDriver(song, 0, nspchistory.New(0))
}

func TestSetNoteAtCursorCreatesTrack(t *testing.T) {
	d := newTestDriver()
	applied := d.SetNoteAtCursor(nspc.Event{Kind: nspc.EventNote, Note: nspc.Note{Pitch: 0x30}})
	assert.True(t, applied)
	assert.Len(t, d.Song.Tracks, 1)

	fp, err := d.FlatPattern()
	assert.NoError(t, err)
	assert.NotEmpty(t, fp.Channels[0].Events)
}

func TestUndoRedoThroughDriver(t *testing.T) {
	d := newTestDriver()
	assert.True(t, d.SetNoteAtCursor(nspc.Event{Kind: nspc.EventNote, Note: nspc.Note{Pitch: 0x30}}))
	before := len(d.Song.Tracks[0].Events)

	assert.True(t, d.History.Undo(d.Song))
	assert.Empty(t, d.Song.Tracks)

	assert.True(t, d.History.Redo(d.Song))
	assert.Equal(t, before, len(d.Song.Tracks[0].Events))
}

func TestCopyPasteCell(t *testing.T) {
	d := newTestDriver()
	assert.True(t, d.SetNoteAtCursor(nspc.Event{Kind: nspc.EventNote, Note: nspc.Note{Pitch: 0x30}}))

	d.Cursor = Cursor{Row: 0, Channel: 0, Item: ItemNote}
	d.CopySelection()
	assert.Len(t, d.Clipboard, 1)

	d.Cursor = Cursor{Row: 4, Channel: 0, Item: ItemNote}
	assert.True(t, d.PasteAtCursor())

	fp, err := d.FlatPattern()
	assert.NoError(t, err)
	found := false
	for _, fe := range fp.Channels[0].Events {
		if fe.Tick == 4 && fe.Event.Kind == nspc.EventNote && fe.Event.Note.Pitch == 0x30 {
			found = true
		}
	}
	assert.True(t, found)
}

func TestHandleKeyMovesCursorAndTypesHex(t *testing.T) {
	d := newTestDriver()
	assert.True(t, d.SetNoteAtCursor(nspc.Event{Kind: nspc.EventNote, Note: nspc.Note{Pitch: 0x30}}))

	d.HandleKey(tea.KeyMsg{Type: tea.KeyRight})
	assert.Equal(t, ItemInst, d.Cursor.Item)

	d.HandleKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("0")})
	d.HandleKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("5")})
	assert.Equal(t, "", d.hexAccum) // committed after the second digit

	fp, err := d.FlatPattern()
	assert.NoError(t, err)
	found := false
	for _, fe := range fp.Channels[0].Events {
		if fe.Event.Kind == nspc.EventVcmd && fe.Event.Vcmd.Kind == nspc.VcmdInst && fe.Event.Vcmd.Value == 0x05 {
			found = true
		}
	}
	assert.True(t, found)
}

func TestEscClearsSelection(t *testing.T) {
	d := newTestDriver()
	d.Selection[cellKey{0, 0, ItemNote}] = true
	d.HandleKey(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Empty(t, d.Selection)
}
